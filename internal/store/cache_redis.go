package store

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/trendmart-analytics/internal/cache"
)

// CacheRedisStore is a Redis implementation of cache.Store.
// Redis enforces the TTL, so expired entries are never returned.
type CacheRedisStore struct {
	client *redis.Client
	prefix string
}

// NewCacheRedisStore creates a new Redis-backed response cache store.
func NewCacheRedisStore(client *redis.Client) *CacheRedisStore {
	return &CacheRedisStore{
		client: client,
		prefix: "cache:",
	}
}

func (r *CacheRedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}

		return nil, false, err
	}

	return value, true, nil
}

func (r *CacheRedisStore) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.client.Set(ctx, r.prefix+key, value, ttl).Err()
}

// Compile-time check.
var _ cache.Store = (*CacheRedisStore)(nil)
