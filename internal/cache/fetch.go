package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// LoadTimeout bounds a shared load once it no longer follows any caller's context.
const LoadTimeout = 30 * time.Second

// Loader computes the value for a cache miss.
type Loader[T any] func(ctx context.Context) (T, error)

// Fetch returns the cached value for key, or runs load, caches its result and returns it.
// Concurrent misses on the same key share one load. A caller whose ctx ends stops
// waiting, but the shared load keeps running for the others. Load errors are
// returned as-is and never cached.
func Fetch[T any](ctx context.Context, c *Cache, key string, load Loader[T]) (T, error) {
	if raw, ok := c.Get(ctx, key); ok {
		var cached T

		err := json.Unmarshal(raw, &cached)
		if err == nil {
			return cached, nil
		}

		c.logger.Warn("discarding undecodable cache entry", zap.String("key", key), zap.Error(err))
	}

	ch := c.group.DoChan(key, func() (any, error) {
		// shared by every caller waiting on key, so no single caller may cancel it
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), LoadTimeout)
		defer cancel()

		fresh, err := load(loadCtx)
		if err != nil {
			return nil, err
		}

		raw, err := json.Marshal(fresh)
		if err != nil {
			return nil, fmt.Errorf("encode cache entry %q: %w", key, err)
		}

		// a failed write only costs a recomputation next time
		_ = c.Put(loadCtx, key, raw)

		return fresh, nil
	})

	var v any

	select {
	case <-ctx.Done():
		var zero T

		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			var zero T

			return zero, res.Err
		}

		v = res.Val
	}

	result, ok := v.(T)
	if !ok {
		var zero T

		return zero, fmt.Errorf("cache entry %q has unexpected type %T", key, v)
	}

	return result, nil
}
