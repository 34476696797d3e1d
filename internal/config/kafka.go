package config

type KafkaConfig struct {
	BrokerList  []string `yaml:"brokers"`
	Consumer    string   `yaml:"consumer-group"`
	LedgerTopic string   `yaml:"ledger-topic"`
}

func (s *KafkaConfig) Brokers() []string {
	return s.BrokerList
}

func (s *KafkaConfig) ConsumerGroup() string {
	return s.Consumer
}

func (s *KafkaConfig) Topic() string {
	return s.LedgerTopic
}

func (s *KafkaConfig) Enabled() bool {
	return len(s.BrokerList) > 0
}
