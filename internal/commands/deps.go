package commands

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"max.ks1230/spendings/internal/clients/cache"
	"max.ks1230/spendings/internal/config"
	"max.ks1230/spendings/internal/logger"
	"max.ks1230/spendings/internal/model/expenses"
	"max.ks1230/spendings/internal/model/storage"
)

type closeFunc func()

// openStorage connects the configured ledger backend.
func openStorage(conf *config.Service) (expenses.Storage, closeFunc, error) {
	if conf.App().StorageBackend() == config.BackendMemory {
		logger.Warn("using in-memory storage, data is lost on exit")
		return storage.NewInMemStorage(), func() {}, nil
	}

	db, err := storage.NewPostgresStorage(conf.Postgres())
	if err != nil {
		return nil, nil, errors.Wrap(err, "init postgres")
	}
	return db, func() {
		if err := db.Close(); err != nil {
			logger.Error("failed to close postgres", zap.Error(err))
		}
	}, nil
}

// openCache returns nil when memcached is not configured or unreachable.
func openCache(conf *config.Service) expenses.CategoryCache {
	if !conf.Memcached().Enabled() {
		return nil
	}
	mc, err := cache.NewMemcache(conf.Memcached())
	if err != nil {
		logger.Warn("memcached unavailable, category cache disabled", zap.Error(err))
		return nil
	}
	return mc
}

// newLedger builds the expense service on top of the configured backend.
func newLedger(conf *config.Service, publisher expenses.EventPublisher) (*expenses.Service, closeFunc, error) {
	store, closeStore, err := openStorage(conf)
	if err != nil {
		return nil, nil, err
	}
	return expenses.New(store, openCache(conf), publisher, conf.App().RecentLimit()), closeStore, nil
}
