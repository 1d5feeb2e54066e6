package cache

import (
	"context"
	"time"

	"github.com/serroba/trendmart-analytics/internal/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultTTL is how long a cached response stays valid.
const DefaultTTL = 60 * time.Second

// Store is the physical key/value backend behind the response cache.
type Store interface {
	// Get returns the value stored for key if it is still within its TTL.
	// An expired entry reports ok=false exactly like a missing one.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	// Put overwrites the entry for key and restarts its TTL.
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Cache is a read-through response cache with a fixed default TTL.
type Cache struct {
	store   Store
	ttl     time.Duration
	group   singleflight.Group
	metrics *metrics.Collector
	logger  *zap.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithMetrics records hits and misses on the given collector.
func WithMetrics(m *metrics.Collector) Option {
	return func(c *Cache) { c.metrics = m }
}

// WithLogger sets the logger used for backend errors.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Cache) { c.logger = logger }
}

// New creates a response cache on top of store. A non-positive ttl falls back to DefaultTTL.
func New(store Store, ttl time.Duration, opts ...Option) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	c := &Cache{
		store:  store,
		ttl:    ttl,
		logger: zap.NewNop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// TTL returns the default entry lifetime.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Get returns the cached value for key. Backend failures are logged and reported as a miss.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	value, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))

		ok = false
	}

	if ok {
		c.metrics.CacheHit()
		c.logger.Debug("cache hit", zap.String("key", key))

		return value, true
	}

	c.metrics.CacheMiss()
	c.logger.Debug("cache miss", zap.String("key", key))

	return nil, false
}

// Put stores value under key with the default TTL.
func (c *Cache) Put(ctx context.Context, key string, value []byte) error {
	return c.PutTTL(ctx, key, value, c.ttl)
}

// PutTTL stores value under key with an explicit TTL.
func (c *Cache) PutTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.store.Put(ctx, key, value, ttl); err != nil {
		c.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))

		return err
	}

	return nil
}
