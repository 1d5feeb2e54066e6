package clock

import (
	"context"
	"sync"
	"time"
)

// Clock is the time source for cache expiry, rate limit windows and retry backoff.
type Clock interface {
	Now() time.Time
	// Sleep blocks for d or until ctx is done, whichever comes first.
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

// Real returns a Clock backed by the system time.
func Real() Clock {
	return realClock{}
}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Virtual is a manually driven Clock. Sleep never blocks: it moves the clock
// forward by the requested duration and records it.
type Virtual struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

// NewVirtual creates a virtual clock starting at start.
func NewVirtual(start time.Time) *Virtual {
	return &Virtual{now: start}
}

func (v *Virtual) Now() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.now
}

// Advance moves the clock forward by d.
func (v *Virtual) Advance(d time.Duration) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.now = v.now.Add(d)
}

func (v *Virtual) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	v.sleeps = append(v.sleeps, d)
	v.now = v.now.Add(d)

	return nil
}

// Sleeps returns every duration passed to Sleep, in call order.
func (v *Virtual) Sleeps() []time.Duration {
	v.mu.Lock()
	defer v.mu.Unlock()

	out := make([]time.Duration, len(v.sleeps))
	copy(out, v.sleeps)

	return out
}
