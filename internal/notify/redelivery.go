package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/serroba/trendmart-analytics/internal/messaging"
)

// ErrRedeliveryFailed is returned when a queued alert still cannot be delivered.
var ErrRedeliveryFailed = errors.New("inventory alert redelivery failed")

// Sender dispatches a single alert.
type Sender interface {
	Dispatch(ctx context.Context, p Payload) Result
}

// RedeliveryHandler retries queued alerts. A failed retry nacks the message
// so the broker offers it again. The sender should have no fallback, or a
// failing alert would be queued twice.
func RedeliveryHandler(s Sender) messaging.Handler[FailedAlert] {
	return func(ctx context.Context, alert *FailedAlert) error {
		res := s.Dispatch(ctx, alert.Payload)
		if res.Outcome == Sent {
			return nil
		}

		return fmt.Errorf("%w: product %d after %d attempts: %w",
			ErrRedeliveryFailed, alert.Payload.ProductID, res.Attempts, res.Err)
	}
}
