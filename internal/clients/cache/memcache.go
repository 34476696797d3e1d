package cache

import (
	"encoding/json"
	"strconv"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"max.ks1230/spendings/internal/entity/expense"
	"max.ks1230/spendings/internal/logger"
)

const (
	defaultBase       = 10
	categoriesKeyPart = "categories"
)

// ErrMiss is returned when nothing is cached under the key.
var ErrMiss = memcache.ErrCacheMiss

type MemcacheClient struct {
	client     *memcache.Client
	expiration int32
}

type config interface {
	Hosts() []string
	Expiration() int32
}

func NewMemcache(config config) (*MemcacheClient, error) {
	logger.Info("memcached hosts", zap.Strings("hosts", config.Hosts()))
	mc := memcache.New(config.Hosts()...)
	return &MemcacheClient{client: mc, expiration: config.Expiration()}, mc.Ping()
}

func formatKey(userID int64, option string) string {
	return strconv.FormatInt(userID, defaultBase) + ":" + option
}

func (mc *MemcacheClient) CacheCategories(userID int64, categories []expense.Category) error {
	logger.Debug("cache categories", zap.Int64("userID", userID), zap.Int("count", len(categories)))
	raw, err := json.Marshal(categories)
	if err != nil {
		return errors.Wrap(err, "encode categories")
	}
	return mc.client.Set(&memcache.Item{
		Key:        formatKey(userID, categoriesKeyPart),
		Value:      raw,
		Expiration: mc.expiration,
	})
}

func (mc *MemcacheClient) GetCategories(userID int64) ([]expense.Category, error) {
	item, err := mc.client.Get(formatKey(userID, categoriesKeyPart))
	if err != nil {
		return nil, err
	}
	var res []expense.Category
	if err = json.Unmarshal(item.Value, &res); err != nil {
		return nil, errors.Wrap(err, "decode categories")
	}
	return res, nil
}

func (mc *MemcacheClient) InvalidateCategories(userID int64) error {
	logger.Info("invalidate categories cache", zap.Int64("userID", userID))
	err := mc.client.Delete(formatKey(userID, categoriesKeyPart))
	if err != nil && !errors.Is(err, memcache.ErrCacheMiss) {
		return err
	}
	return nil
}
