package config

import "time"

const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

type AppConfig struct {
	Backend             string `yaml:"backend"`
	TimezoneName        string `yaml:"timezone"`
	JWTSecretKey        string `yaml:"jwt-secret"`
	RecentExpensesLimit int    `yaml:"recent-limit"`
}

func (s *AppConfig) StorageBackend() string {
	return s.Backend
}

func (s *AppConfig) loadLocation() (*time.Location, error) {
	return time.LoadLocation(s.TimezoneName)
}

// Location is the zone in which "today" is decided.
func (s *AppConfig) Location() *time.Location {
	loc, err := s.loadLocation()
	if err != nil {
		return time.UTC
	}
	return loc
}

func (s *AppConfig) JWTSecret() []byte {
	return []byte(s.JWTSecretKey)
}

func (s *AppConfig) RecentLimit() int {
	return s.RecentExpensesLimit
}
