package notify

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// BreakerTransport stops calling a downstream that keeps failing. While the
// breaker is open every Send fails immediately, which the dispatcher counts
// as a failed attempt like any other.
type BreakerTransport struct {
	next Transport
	cb   *gobreaker.CircuitBreaker
}

// NewBreakerTransport wraps next with a circuit breaker that opens after
// consecutiveFailures failed sends and probes again after cooldown.
func NewBreakerTransport(
	next Transport, consecutiveFailures uint32, cooldown time.Duration, logger *zap.Logger,
) *BreakerTransport {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "inventory-alert",
		MaxRequests: 1,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= consecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &BreakerTransport{next: next, cb: cb}
}

func (b *BreakerTransport) Send(ctx context.Context, p Payload) error {
	_, err := b.cb.Execute(func() (any, error) {
		return nil, b.next.Send(ctx, p)
	})

	return err
}

// State returns the current breaker state.
func (b *BreakerTransport) State() gobreaker.State {
	return b.cb.State()
}
