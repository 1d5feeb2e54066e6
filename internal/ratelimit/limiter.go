package ratelimit

import (
	"context"
	"math"
	"time"

	"github.com/serroba/trendmart-analytics/internal/clock"
	"github.com/serroba/trendmart-analytics/internal/metrics"
)

const (
	// DefaultLimit is the number of requests a client may make per window.
	DefaultLimit = 5
	// DefaultPeriod is the window length.
	DefaultPeriod = 60 * time.Second
)

// Decision is the outcome of a rate limit check.
type Decision struct {
	Allowed    bool
	Count      int64
	Limit      int64
	RetryAfter time.Duration
}

// RetryAfterSeconds returns RetryAfter rounded up to whole seconds, at least 1 when rejected.
func (d Decision) RetryAfterSeconds() int {
	if d.Allowed {
		return 0
	}

	secs := int(math.Ceil(d.RetryAfter.Seconds()))
	if secs < 1 {
		return 1
	}

	return secs
}

// Limiter defines the interface for rate limiting.
type Limiter interface {
	// Allow counts a request from the given key and reports whether it may proceed.
	Allow(ctx context.Context, key string) (Decision, error)
}

// FixedWindowLimiter implements rate limiting using fixed windows per client.
//
// A window opens on a client's first request and resets on the first request
// arriving more than period after it opened. A client can therefore get up to
// 2×limit requests through around a window boundary.
type FixedWindowLimiter struct {
	store   Store
	clock   clock.Clock
	limit   int64
	period  time.Duration
	metrics *metrics.Collector
}

// NewFixedWindowLimiter creates a new fixed window rate limiter.
func NewFixedWindowLimiter(
	store Store, clk clock.Clock, limit int64, period time.Duration, m *metrics.Collector,
) *FixedWindowLimiter {
	return &FixedWindowLimiter{
		store:   store,
		clock:   clk,
		limit:   limit,
		period:  period,
		metrics: m,
	}
}

func (l *FixedWindowLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	now := l.clock.Now()

	w, err := l.store.Hit(ctx, key, now, l.period)
	if err != nil {
		return Decision{}, err
	}

	d := Decision{
		Allowed: w.Count <= l.limit,
		Count:   w.Count,
		Limit:   l.limit,
	}

	if !d.Allowed {
		d.RetryAfter = l.period - now.Sub(w.Start)
	}

	l.metrics.RateLimit(d.Allowed)

	return d, nil
}
