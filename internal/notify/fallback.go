package notify

import (
	"context"
	"fmt"

	"github.com/serroba/trendmart-analytics/internal/messaging"
	"go.uber.org/zap"
)

// FailedTopic carries alerts whose delivery was exhausted.
const FailedTopic = "inventory.alert.failed"

// Fallback receives alerts that could not be delivered.
type Fallback interface {
	Handle(ctx context.Context, alert FailedAlert) error
}

// FallbackFunc adapts a function to Fallback.
type FallbackFunc func(ctx context.Context, alert FailedAlert) error

func (f FallbackFunc) Handle(ctx context.Context, alert FailedAlert) error {
	return f(ctx, alert)
}

// LogFallback records dropped alerts in the log and nothing else.
type LogFallback struct {
	logger *zap.Logger
}

// NewLogFallback creates a log-only fallback.
func NewLogFallback(logger *zap.Logger) *LogFallback {
	return &LogFallback{logger: logger}
}

func (f *LogFallback) Handle(_ context.Context, alert FailedAlert) error {
	f.logger.Error("inventory alert dropped",
		zap.Int64("productId", alert.Payload.ProductID),
		zap.Int("quantitySold", alert.Payload.QuantitySold),
		zap.Int("currentStock", alert.Payload.CurrentStock),
		zap.Int("attempts", alert.Attempts),
		zap.String("reason", alert.Reason),
	)

	return nil
}

// PublishFallback queues failed alerts on FailedTopic for later redelivery.
type PublishFallback struct {
	publish messaging.Publish[FailedAlert]
}

// NewPublishFallback creates a fallback publishing through publish.
func NewPublishFallback(publish messaging.Publish[FailedAlert]) *PublishFallback {
	return &PublishFallback{publish: publish}
}

func (f *PublishFallback) Handle(ctx context.Context, alert FailedAlert) error {
	if err := f.publish(ctx, &alert); err != nil {
		return fmt.Errorf("queue failed alert: %w", err)
	}

	return nil
}

var (
	_ Fallback = (*LogFallback)(nil)
	_ Fallback = (*PublishFallback)(nil)
	_ Fallback = FallbackFunc(nil)
)
