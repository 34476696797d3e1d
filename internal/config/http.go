package config

type HTTPConfig struct {
	Address string   `yaml:"addr"`
	Origins []string `yaml:"allowed-origins"`
}

func (s *HTTPConfig) Addr() string {
	return s.Address
}

func (s *HTTPConfig) AllowedOrigins() []string {
	return s.Origins
}
