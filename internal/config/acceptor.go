package config

// AcceptorConfig addresses the gRPC endpoint that receives pushed summaries.
type AcceptorConfig struct {
	Listen string `yaml:"listen"`
	Target string `yaml:"target"`
}

func (s *AcceptorConfig) ListenAddr() string {
	return s.Listen
}

func (s *AcceptorConfig) TargetAddr() string {
	return s.Target
}
