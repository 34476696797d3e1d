package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"max.ks1230/spendings/internal/logger"
)

const (
	defaultConfigFile = "data/config.yaml"
	configFileEnvKey  = "SPENDINGS_CONFIG"

	databasePasswordEnvKey = "DATABASE_PASSWORD"
	jwtSecretEnvKey        = "JWT_SECRET"
	telegramTokenEnvKey    = "TELEGRAM_TOKEN"
)

type config struct {
	App       AppConfig       `yaml:"app"`
	HTTP      HTTPConfig      `yaml:"http"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	Memcached MemcachedConfig `yaml:"memcached"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Acceptor  AcceptorConfig  `yaml:"acceptor"`
	Telegram  TelegramConfig  `yaml:"telegram"`
	Jaeger    JaegerConfig    `yaml:"jaeger"`
}

type Service struct {
	config config
}

// New loads .env (if any) and the YAML file named by SPENDINGS_CONFIG, or data/config.yaml.
func New() (*Service, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file loaded", zap.Error(err))
	}

	path := os.Getenv(configFileEnvKey)
	if path == "" {
		path = defaultConfigFile
	}
	return Load(path)
}

func Load(path string) (*Service, error) {
	rawYAML, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading config file")
	}
	return Parse(rawYAML)
}

func Parse(rawYAML []byte) (*Service, error) {
	s := &Service{config: defaults()}

	err := yaml.Unmarshal(rawYAML, &s.config)
	if err != nil {
		return nil, errors.Wrap(err, "parsing yaml")
	}

	s.applyEnv()
	if err = s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func defaults() config {
	return config{
		App: AppConfig{
			Backend:             BackendPostgres,
			TimezoneName:        "UTC",
			RecentExpensesLimit: 5,
		},
		HTTP: HTTPConfig{
			Address: ":8080",
		},
		Postgres: PostgresConfig{
			Hostname: "localhost",
			PortNum:  5432,
			Mode:     "disable",
		},
		Kafka: KafkaConfig{
			Consumer:    "spendings-reporter",
			LedgerTopic: "ledger-changed",
		},
		Acceptor: AcceptorConfig{
			Listen: ":8081",
			Target: "127.0.0.1:8081",
		},
		Jaeger: JaegerConfig{
			Service:      "spendings",
			SamplerType:  "const",
			SamplerParam: 1,
		},
	}
}

func (s *Service) applyEnv() {
	if v := os.Getenv(databasePasswordEnvKey); v != "" {
		s.config.Postgres.Pswd = v
	}
	if v := os.Getenv(jwtSecretEnvKey); v != "" {
		s.config.App.JWTSecretKey = v
	}
	if v := os.Getenv(telegramTokenEnvKey); v != "" {
		s.config.Telegram.ApiToken = v
	}
}

// Validate reports every invalid field at once.
func (s *Service) Validate() error {
	var problems []string

	switch s.config.App.Backend {
	case BackendPostgres, BackendMemory:
	default:
		problems = append(problems, fmt.Sprintf("app.backend %q must be %q or %q", s.config.App.Backend, BackendPostgres, BackendMemory))
	}
	if _, err := s.config.App.loadLocation(); err != nil {
		problems = append(problems, fmt.Sprintf("app.timezone %q is unknown", s.config.App.TimezoneName))
	}
	if s.config.App.RecentExpensesLimit <= 0 {
		problems = append(problems, "app.recent-limit must be positive")
	}
	if s.config.App.Backend == BackendPostgres {
		if s.config.Postgres.Db == "" {
			problems = append(problems, "postgres.db is required")
		}
		if s.config.Postgres.PortNum <= 0 || s.config.Postgres.PortNum > 65535 {
			problems = append(problems, fmt.Sprintf("postgres.port %d is out of range", s.config.Postgres.PortNum))
		}
	}
	if s.config.Kafka.Enabled() && s.config.Kafka.LedgerTopic == "" {
		problems = append(problems, "kafka.ledger-topic is required when brokers are set")
	}
	if s.config.Kafka.Enabled() && s.config.App.Backend == BackendMemory {
		// the reporter would summarize its own empty ledger
		problems = append(problems, "app.backend memory cannot be shared with the reporter, unset kafka.brokers or use postgres")
	}

	if len(problems) > 0 {
		return errors.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

func (s *Service) App() *AppConfig {
	return &s.config.App
}

func (s *Service) HTTP() *HTTPConfig {
	return &s.config.HTTP
}

func (s *Service) Postgres() *PostgresConfig {
	return &s.config.Postgres
}

func (s *Service) Memcached() *MemcachedConfig {
	return &s.config.Memcached
}

func (s *Service) Kafka() *KafkaConfig {
	return &s.config.Kafka
}

func (s *Service) Acceptor() *AcceptorConfig {
	return &s.config.Acceptor
}

func (s *Service) Telegram() *TelegramConfig {
	return &s.config.Telegram
}

func (s *Service) Jaeger() *JaegerConfig {
	return &s.config.Jaeger
}
