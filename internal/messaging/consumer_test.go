package messaging_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/serroba/trendmart-analytics/internal/messaging"
	"github.com/serroba/trendmart-analytics/internal/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stockEvent struct {
	ProductID int64 `json:"productId"`
	Stock     int   `json:"stock"`
}

type mockSubscriber struct {
	msgChan      chan *message.Message
	subscribeErr error
	mu           sync.Mutex
	closed       bool
}

func newMockSubscriber() *mockSubscriber {
	return &mockSubscriber{msgChan: make(chan *message.Message, 10)}
}

func (m *mockSubscriber) Subscribe(_ context.Context, _ string) (<-chan *message.Message, error) {
	if m.subscribeErr != nil {
		return nil, m.subscribeErr
	}

	return m.msgChan, nil
}

func (m *mockSubscriber) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.closed {
		m.closed = true
		close(m.msgChan)
	}

	return nil
}

func noopHandler(context.Context, *stockEvent) error { return nil }

func newStockMessage(t *testing.T, ev stockEvent) *message.Message {
	t.Helper()

	payload, err := json.Marshal(ev)
	require.NoError(t, err)

	return message.NewMessage(uuid.NewString(), payload)
}

func waitAck(t *testing.T, msg *message.Message) bool {
	t.Helper()

	select {
	case <-msg.Acked():
		return true
	case <-msg.Nacked():
		return false
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for ack or nack")

		return false
	}
}

func TestConsumer_Start(t *testing.T) {
	t.Run("subscribes to its topic", func(t *testing.T) {
		consumer := messaging.NewConsumer(newMockSubscriber(), "stock.low", noopHandler, zap.NewNop())

		require.NoError(t, consumer.Start(context.Background()))
		assert.Equal(t, "stock.low", consumer.Topic())

		_ = consumer.Shutdown()
	})

	t.Run("returns subscribe error", func(t *testing.T) {
		sub := &mockSubscriber{subscribeErr: errors.New("subscribe error")}
		consumer := messaging.NewConsumer(sub, "stock.low", noopHandler, zap.NewNop())

		assert.Error(t, consumer.Start(context.Background()))
	})
}

func TestConsumer_HandleMessage(t *testing.T) {
	t.Run("decodes event and acks", func(t *testing.T) {
		sub := newMockSubscriber()
		received := make(chan stockEvent, 1)

		consumer := messaging.NewConsumer(sub, "stock.low", func(_ context.Context, ev *stockEvent) error {
			received <- *ev

			return nil
		}, zap.NewNop())
		require.NoError(t, consumer.Start(context.Background()))

		msg := newStockMessage(t, stockEvent{ProductID: 42, Stock: 3})
		sub.msgChan <- msg

		assert.True(t, waitAck(t, msg))
		assert.Equal(t, stockEvent{ProductID: 42, Stock: 3}, <-received)

		_ = consumer.Shutdown()
	})

	t.Run("nacks undecodable payload", func(t *testing.T) {
		sub := newMockSubscriber()
		consumer := messaging.NewConsumer(sub, "stock.low", noopHandler, zap.NewNop())
		require.NoError(t, consumer.Start(context.Background()))

		msg := message.NewMessage(uuid.NewString(), []byte("invalid json"))
		sub.msgChan <- msg

		assert.False(t, waitAck(t, msg))

		_ = consumer.Shutdown()
	})

	t.Run("nacks when handler fails", func(t *testing.T) {
		sub := newMockSubscriber()
		consumer := messaging.NewConsumer(sub, "stock.low", func(context.Context, *stockEvent) error {
			return errors.New("downstream unavailable")
		}, zap.NewNop())
		require.NoError(t, consumer.Start(context.Background()))

		msg := newStockMessage(t, stockEvent{ProductID: 1})
		sub.msgChan <- msg

		assert.False(t, waitAck(t, msg))

		_ = consumer.Shutdown()
	})
}

type senderFunc func(context.Context, notify.Payload) notify.Result

func (f senderFunc) Dispatch(ctx context.Context, p notify.Payload) notify.Result { return f(ctx, p) }

func newFailedAlertMessage(t *testing.T, alert notify.FailedAlert) *message.Message {
	t.Helper()

	payload, err := json.Marshal(alert)
	require.NoError(t, err)

	return message.NewMessage(uuid.NewString(), payload)
}

func TestConsumer_FailedAlerts(t *testing.T) {
	alert := notify.FailedAlert{
		Payload:  notify.Payload{ProductID: 12, QuantitySold: 2, CurrentStock: 8},
		Attempts: 3,
		Reason:   "status 503",
		FailedAt: time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC),
	}

	t.Run("acks an alert that is redelivered", func(t *testing.T) {
		sub := newMockSubscriber()
		sent := make(chan notify.Payload, 1)

		handler := notify.RedeliveryHandler(senderFunc(func(_ context.Context, p notify.Payload) notify.Result {
			sent <- p

			return notify.Result{Outcome: notify.Sent, Attempts: 1}
		}))

		consumer := messaging.NewConsumer(sub, notify.FailedTopic, handler, zap.NewNop())
		require.NoError(t, consumer.Start(context.Background()))
		assert.Equal(t, notify.FailedTopic, consumer.Topic())

		msg := newFailedAlertMessage(t, alert)
		sub.msgChan <- msg

		assert.True(t, waitAck(t, msg))
		assert.Equal(t, alert.Payload, <-sent)

		_ = consumer.Shutdown()
	})

	t.Run("nacks an alert that fails again", func(t *testing.T) {
		sub := newMockSubscriber()

		handler := notify.RedeliveryHandler(senderFunc(func(context.Context, notify.Payload) notify.Result {
			return notify.Result{Outcome: notify.Exhausted, Attempts: 3, Err: errors.New("status 503")}
		}))

		consumer := messaging.NewConsumer(sub, notify.FailedTopic, handler, zap.NewNop())
		require.NoError(t, consumer.Start(context.Background()))

		msg := newFailedAlertMessage(t, alert)
		sub.msgChan <- msg

		assert.False(t, waitAck(t, msg))

		_ = consumer.Shutdown()
	})
}

func TestConsumer_Shutdown(t *testing.T) {
	t.Run("returns after loop exits", func(t *testing.T) {
		consumer := messaging.NewConsumer(newMockSubscriber(), "stock.low", noopHandler, zap.NewNop())
		require.NoError(t, consumer.Start(context.Background()))

		require.NoError(t, consumer.Shutdown())
	})

	t.Run("stops when subscription channel closes", func(t *testing.T) {
		sub := newMockSubscriber()
		consumer := messaging.NewConsumer(sub, "stock.low", noopHandler, zap.NewNop())
		require.NoError(t, consumer.Start(context.Background()))

		_ = sub.Close()

		require.NoError(t, consumer.Shutdown())
	})
}
