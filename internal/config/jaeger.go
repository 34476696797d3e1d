package config

type JaegerConfig struct {
	Service      string  `yaml:"service-name"`
	AgentHost    string  `yaml:"agent-host"`
	SamplerType  string  `yaml:"sampler-type"`
	SamplerParam float64 `yaml:"sampler-param"`
}

func (s *JaegerConfig) ServiceName() string {
	return s.Service
}

func (s *JaegerConfig) AgentHostPort() string {
	return s.AgentHost
}

func (s *JaegerConfig) Sampler() (string, float64) {
	return s.SamplerType, s.SamplerParam
}

func (s *JaegerConfig) Enabled() bool {
	return s.AgentHost != ""
}
