package store

import (
	"context"
	"sync"
	"time"

	"github.com/serroba/trendmart-analytics/internal/ratelimit"
)

// RateLimitMemoryStore is an in-memory implementation of ratelimit.Store.
// A single mutex guards all windows; each check is a map lookup and two
// field updates, so contention stays negligible. Client windows are never evicted.
type RateLimitMemoryStore struct {
	mu      sync.Mutex
	windows map[string]*ratelimit.Window
}

// NewRateLimitMemoryStore creates a new in-memory rate limit store.
func NewRateLimitMemoryStore() *RateLimitMemoryStore {
	return &RateLimitMemoryStore{
		windows: make(map[string]*ratelimit.Window),
	}
}

func (s *RateLimitMemoryStore) Hit(
	_ context.Context, key string, now time.Time, period time.Duration,
) (ratelimit.Window, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.windows[key]
	if !ok {
		w = &ratelimit.Window{Start: now}
		s.windows[key] = w
	}

	if now.Sub(w.Start) > period {
		w.Count = 0
		w.Start = now
	}

	w.Count++

	return *w, nil
}

// Clients returns the number of tracked client windows.
func (s *RateLimitMemoryStore) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.windows)
}

// Compile-time check.
var _ ratelimit.Store = (*RateLimitMemoryStore)(nil)
