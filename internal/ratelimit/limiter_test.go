package ratelimit_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/serroba/trendmart-analytics/internal/clock"
	"github.com/serroba/trendmart-analytics/internal/ratelimit"
	"github.com/serroba/trendmart-analytics/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)

func newTestLimiter(limit int64) (*ratelimit.FixedWindowLimiter, *clock.Virtual) {
	clk := clock.NewVirtual(epoch)
	limiter := ratelimit.NewFixedWindowLimiter(
		store.NewRateLimitMemoryStore(), clk, limit, ratelimit.DefaultPeriod, nil,
	)

	return limiter, clk
}

type errStore struct{}

func (errStore) Hit(context.Context, string, time.Time, time.Duration) (ratelimit.Window, error) {
	return ratelimit.Window{}, errors.New("store down")
}

func TestFixedWindowLimiter(t *testing.T) {
	ctx := context.Background()

	t.Run("allows exactly limit requests in a window", func(t *testing.T) {
		limiter, clk := newTestLimiter(ratelimit.DefaultLimit)

		for i := range ratelimit.DefaultLimit {
			d, err := limiter.Allow(ctx, "10.0.0.1")

			require.NoError(t, err)
			assert.True(t, d.Allowed, "request %d should be allowed", i+1)
			assert.Equal(t, int64(i+1), d.Count)

			clk.Advance(time.Second)
		}

		d, err := limiter.Allow(ctx, "10.0.0.1")

		require.NoError(t, err)
		assert.False(t, d.Allowed)
		assert.Equal(t, 55*time.Second, d.RetryAfter)
		assert.Equal(t, 55, d.RetryAfterSeconds())
	})

	t.Run("retry after is positive at the window edge", func(t *testing.T) {
		limiter, clk := newTestLimiter(1)

		_, _ = limiter.Allow(ctx, "c")
		clk.Advance(ratelimit.DefaultPeriod)

		d, err := limiter.Allow(ctx, "c")

		require.NoError(t, err)
		assert.False(t, d.Allowed)
		assert.Equal(t, 1, d.RetryAfterSeconds())
	})

	t.Run("counter resets once the window has elapsed", func(t *testing.T) {
		limiter, clk := newTestLimiter(2)

		_, _ = limiter.Allow(ctx, "c")
		_, _ = limiter.Allow(ctx, "c")
		d, _ := limiter.Allow(ctx, "c")
		require.False(t, d.Allowed)

		clk.Advance(ratelimit.DefaultPeriod + time.Second)

		d, err := limiter.Allow(ctx, "c")

		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Equal(t, int64(1), d.Count)
	})

	t.Run("window does not reset at exactly one period", func(t *testing.T) {
		limiter, clk := newTestLimiter(1)

		_, _ = limiter.Allow(ctx, "c")
		clk.Advance(ratelimit.DefaultPeriod)

		d, _ := limiter.Allow(ctx, "c")

		assert.False(t, d.Allowed)
	})

	t.Run("allows a double burst around a window boundary", func(t *testing.T) {
		limiter, clk := newTestLimiter(ratelimit.DefaultLimit)

		// window opens at t=0, burst at t=59
		_, _ = limiter.Allow(ctx, "c")
		clk.Advance(59 * time.Second)

		for range ratelimit.DefaultLimit - 1 {
			d, _ := limiter.Allow(ctx, "c")
			assert.True(t, d.Allowed)
		}

		clk.Advance(2 * time.Second)

		for range ratelimit.DefaultLimit {
			d, _ := limiter.Allow(ctx, "c")
			assert.True(t, d.Allowed)
		}
	})

	t.Run("tracks clients independently", func(t *testing.T) {
		limiter, _ := newTestLimiter(1)

		d, _ := limiter.Allow(ctx, "client1")
		assert.True(t, d.Allowed)

		d, _ = limiter.Allow(ctx, "client1")
		assert.False(t, d.Allowed, "client1 should be rate limited")

		d, err := limiter.Allow(ctx, "client2")

		require.NoError(t, err)
		assert.True(t, d.Allowed, "client2 should still be allowed")
	})

	t.Run("propagates store errors", func(t *testing.T) {
		limiter := ratelimit.NewFixedWindowLimiter(errStore{}, clock.NewVirtual(epoch), 5, time.Minute, nil)

		_, err := limiter.Allow(ctx, "c")

		assert.Error(t, err)
	})
}

func TestDecision_RetryAfterSeconds(t *testing.T) {
	t.Run("zero when allowed", func(t *testing.T) {
		assert.Equal(t, 0, ratelimit.Decision{Allowed: true, RetryAfter: time.Minute}.RetryAfterSeconds())
	})

	t.Run("rounds partial seconds up", func(t *testing.T) {
		assert.Equal(t, 3, ratelimit.Decision{RetryAfter: 2100 * time.Millisecond}.RetryAfterSeconds())
	})
}
