package config

import "time"

const (
	defaultPollTimeoutSeconds  = 60
	defaultReplyTimeoutSeconds = 5
)

type TelegramConfig struct {
	ApiToken            string `yaml:"token"`
	PollTimeoutSeconds  int    `yaml:"poll-timeout-seconds"`
	ReplyTimeoutSeconds int    `yaml:"reply-timeout-seconds"`
}

func (t *TelegramConfig) Token() string {
	return t.ApiToken
}

// PollTimeout is the long-polling timeout in seconds.
func (t *TelegramConfig) PollTimeout() int {
	if t.PollTimeoutSeconds <= 0 {
		return defaultPollTimeoutSeconds
	}
	return t.PollTimeoutSeconds
}

func (t *TelegramConfig) ReplyTimeout() time.Duration {
	if t.ReplyTimeoutSeconds <= 0 {
		return defaultReplyTimeoutSeconds * time.Second
	}
	return time.Duration(t.ReplyTimeoutSeconds) * time.Second
}
