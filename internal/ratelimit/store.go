package ratelimit

import (
	"context"
	"time"
)

// Window is the state of one client's fixed window after a request was counted.
type Window struct {
	Count int64
	Start time.Time
}

// Store defines the interface for rate limit data storage.
type Store interface {
	// Hit counts one request for key at now. If the current window started more than
	// period before now, the window is reset to start at now before counting.
	// Reset and increment happen atomically.
	Hit(ctx context.Context, key string, now time.Time, period time.Duration) (Window, error)
}
