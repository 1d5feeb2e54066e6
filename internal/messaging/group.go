package messaging

import (
	"context"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.uber.org/zap"
)

// Runnable is a component with a start and shutdown lifecycle.
type Runnable interface {
	Start(ctx context.Context) error
	Shutdown() error
}

type topicer interface {
	Topic() string
}

// ConsumerGroup starts and stops a set of consumers sharing one subscriber.
type ConsumerGroup struct {
	consumers  []Runnable
	subscriber message.Subscriber
	logger     *zap.Logger
}

// NewConsumerGroup creates a new consumer group.
func NewConsumerGroup(subscriber message.Subscriber, logger *zap.Logger) *ConsumerGroup {
	return &ConsumerGroup{
		subscriber: subscriber,
		logger:     logger,
	}
}

// Add registers a consumer with the group.
func (g *ConsumerGroup) Add(consumer Runnable) {
	g.consumers = append(g.consumers, consumer)
}

// Start starts every consumer. If one fails, the ones already started are
// shut down again in reverse order.
func (g *ConsumerGroup) Start(ctx context.Context) error {
	topics := make([]string, 0, len(g.consumers))

	for i, consumer := range g.consumers {
		if err := consumer.Start(ctx); err != nil {
			for j := i - 1; j >= 0; j-- {
				_ = g.consumers[j].Shutdown()
			}

			return fmt.Errorf("start consumer %d: %w", i, err)
		}

		if t, ok := consumer.(topicer); ok {
			topics = append(topics, t.Topic())
		}
	}

	g.logger.Info("consumer group started",
		zap.Int("count", len(g.consumers)),
		zap.Strings("topics", topics),
	)

	return nil
}

// Shutdown stops every consumer, then closes the subscriber. All errors are joined.
func (g *ConsumerGroup) Shutdown() error {
	g.logger.Info("shutting down consumer group")

	var errs []error

	for _, consumer := range g.consumers {
		if err := consumer.Shutdown(); err != nil {
			errs = append(errs, err)
		}
	}

	if err := g.subscriber.Close(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}
