package config

type MemcachedConfig struct {
	NodeHosts  []string `yaml:"hosts"`
	TTLSeconds int32    `yaml:"ttl-seconds"`
}

func (s *MemcachedConfig) Hosts() []string {
	return s.NodeHosts
}

func (s *MemcachedConfig) Expiration() int32 {
	return s.TTLSeconds
}

func (s *MemcachedConfig) Enabled() bool {
	return len(s.NodeHosts) > 0
}
