package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"docsearch/internal/config"
	"docsearch/internal/storage"
)

// Cache using redis provides fast access to reusable search results.
// OAuth records are never cached here, the database stays the single
// source of truth for them.
type Cache struct {
	rdb       *redis.Client
	resultTTL time.Duration
}

// NewCache creates new instance of redis client
func NewCache(conf *config.RedisConfig) (*Cache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     conf.Host + ":" + strconv.Itoa(conf.Port),
		Password: conf.Password,
		DB:       conf.DB,
	})

	return &Cache{rdb: rdb, resultTTL: conf.SearchResultTTL}, nil
}

// SearchResult returns a cached serialized result set for the key
func (c *Cache) SearchResult(ctx context.Context, key string) ([]byte, error) {
	val, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get cached search result: %w", err)
	}
	return val, nil
}

// SaveSearchResult caches a serialized result set with the configured TTL
func (c *Cache) SaveSearchResult(ctx context.Context, key string, payload []byte) error {
	if err := c.rdb.Set(ctx, key, payload, c.resultTTL).Err(); err != nil {
		return fmt.Errorf("failed to cache search result: %w", err)
	}
	return nil
}

// Close ends the redis connection
func (c *Cache) Close() error {
	return c.rdb.Close()
}
