package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/trendmart-analytics/internal/ratelimit"
)

// fixedWindowScript resets the window when it is older than the period, then counts.
// KEYS[1] window hash, ARGV[1] now (ms), ARGV[2] period (ms).
var fixedWindowScript = redis.NewScript(`
local now = tonumber(ARGV[1])
local period = tonumber(ARGV[2])
local start = redis.call('HGET', KEYS[1], 'start')
if (not start) or (now - tonumber(start) > period) then
  redis.call('HSET', KEYS[1], 'start', now, 'count', 0)
  start = now
end
local count = redis.call('HINCRBY', KEYS[1], 'count', 1)
redis.call('PEXPIRE', KEYS[1], period * 2)
return {count, tonumber(start)}
`)

// RateLimitRedisStore is a Redis implementation of ratelimit.Store, shared by all
// API replicas. Idle client windows expire after two periods.
type RateLimitRedisStore struct {
	client *redis.Client
	prefix string
}

// NewRateLimitRedisStore creates a new Redis-backed rate limit store.
func NewRateLimitRedisStore(client *redis.Client) *RateLimitRedisStore {
	return &RateLimitRedisStore{
		client: client,
		prefix: "ratelimit:",
	}
}

func (r *RateLimitRedisStore) Hit(
	ctx context.Context, key string, now time.Time, period time.Duration,
) (ratelimit.Window, error) {
	res, err := fixedWindowScript.Run(ctx, r.client,
		[]string{r.prefix + key},
		now.UnixMilli(), period.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return ratelimit.Window{}, err
	}

	if len(res) != 2 {
		return ratelimit.Window{}, fmt.Errorf("unexpected rate limit script reply: %v", res)
	}

	return ratelimit.Window{
		Count: res[0],
		Start: time.UnixMilli(res[1]),
	}, nil
}

// Compile-time check.
var _ ratelimit.Store = (*RateLimitRedisStore)(nil)
