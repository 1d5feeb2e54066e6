package notify_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/serroba/trendmart-analytics/internal/clock"
	"github.com/serroba/trendmart-analytics/internal/metrics"
	"github.com/serroba/trendmart-analytics/internal/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)

var alert = notify.Payload{ProductID: 12, QuantitySold: 3, CurrentStock: 7}

// scriptedTransport fails the first failures sends, then succeeds.
// A negative failures value fails forever.
type scriptedTransport struct {
	mu       sync.Mutex
	failures int
	calls    int
	sent     []notify.Payload
	err      error
}

func (s *scriptedTransport) Send(_ context.Context, p notify.Payload) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++
	s.sent = append(s.sent, p)

	if s.failures < 0 || s.calls <= s.failures {
		if s.err != nil {
			return s.err
		}

		return errors.New("connection refused")
	}

	return nil
}

type recordingFallback struct {
	mu     sync.Mutex
	alerts []notify.FailedAlert
	ctxErr error
	err    error
}

func (r *recordingFallback) Handle(ctx context.Context, a notify.FailedAlert) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.alerts = append(r.alerts, a)
	r.ctxErr = ctx.Err()

	return r.err
}

func TestDispatcher_Dispatch(t *testing.T) {
	ctx := context.Background()

	t.Run("first attempt succeeds without sleeping", func(t *testing.T) {
		clk := clock.NewVirtual(epoch)
		tr := &scriptedTransport{}
		fb := &recordingFallback{}
		d := notify.NewDispatcher(tr, notify.DefaultPolicy(), clk, notify.WithFallback(fb))

		res := d.Dispatch(ctx, alert)

		assert.Equal(t, notify.Sent, res.Outcome)
		assert.Equal(t, 1, res.Attempts)
		assert.NoError(t, res.Err)
		assert.Empty(t, clk.Sleeps())
		assert.Empty(t, fb.alerts)
		assert.Equal(t, []notify.Payload{alert}, tr.sent)
	})

	t.Run("fails twice then succeeds on third attempt", func(t *testing.T) {
		clk := clock.NewVirtual(epoch)
		tr := &scriptedTransport{failures: 2}
		fb := &recordingFallback{}
		d := notify.NewDispatcher(tr, notify.DefaultPolicy(), clk, notify.WithFallback(fb))

		res := d.Dispatch(ctx, alert)

		assert.Equal(t, notify.Sent, res.Outcome)
		assert.Equal(t, 3, res.Attempts)
		assert.Equal(t, 3, tr.calls)
		assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, clk.Sleeps())
		assert.Empty(t, fb.alerts)
	})

	t.Run("always failing transport exhausts and calls fallback once", func(t *testing.T) {
		clk := clock.NewVirtual(epoch)
		sendErr := errors.New("503 from downstream")
		tr := &scriptedTransport{failures: -1, err: sendErr}
		fb := &recordingFallback{}
		d := notify.NewDispatcher(tr, notify.DefaultPolicy(), clk, notify.WithFallback(fb))

		res := d.Dispatch(ctx, alert)

		assert.Equal(t, notify.Exhausted, res.Outcome)
		assert.Equal(t, 3, res.Attempts)
		assert.Equal(t, 3, tr.calls)
		require.ErrorIs(t, res.Err, sendErr)
		assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, clk.Sleeps())

		require.Len(t, fb.alerts, 1)
		assert.Equal(t, alert, fb.alerts[0].Payload)
		assert.Equal(t, 3, fb.alerts[0].Attempts)
		assert.Equal(t, "503 from downstream", fb.alerts[0].Reason)
		assert.Equal(t, epoch.Add(3*time.Second), fb.alerts[0].FailedAt)
	})

	t.Run("fallback error does not reach caller", func(t *testing.T) {
		clk := clock.NewVirtual(epoch)
		fb := &recordingFallback{err: errors.New("queue unavailable")}
		d := notify.NewDispatcher(&scriptedTransport{failures: -1}, notify.DefaultPolicy(), clk,
			notify.WithFallback(fb))

		res := d.Dispatch(ctx, alert)

		assert.Equal(t, notify.Exhausted, res.Outcome)
		assert.Len(t, fb.alerts, 1)
	})

	t.Run("panicking fallback does not reach caller", func(t *testing.T) {
		clk := clock.NewVirtual(epoch)
		fb := notify.FallbackFunc(func(context.Context, notify.FailedAlert) error {
			panic("boom")
		})
		d := notify.NewDispatcher(&scriptedTransport{failures: -1}, notify.DefaultPolicy(), clk,
			notify.WithFallback(fb))

		assert.NotPanics(t, func() {
			assert.Equal(t, notify.Exhausted, d.Dispatch(ctx, alert).Outcome)
		})
	})

	t.Run("no fallback configured", func(t *testing.T) {
		d := notify.NewDispatcher(&scriptedTransport{failures: -1}, notify.DefaultPolicy(),
			clock.NewVirtual(epoch))

		assert.Equal(t, notify.Exhausted, d.Dispatch(ctx, alert).Outcome)
	})

	t.Run("cancelled context stops retrying and still runs fallback", func(t *testing.T) {
		clk := clock.NewVirtual(epoch)
		tr := &scriptedTransport{failures: -1}
		fb := &recordingFallback{}
		d := notify.NewDispatcher(tr, notify.DefaultPolicy(), clk, notify.WithFallback(fb))

		cctx, cancel := context.WithCancel(ctx)
		cancel()

		res := d.Dispatch(cctx, alert)

		assert.Equal(t, notify.Exhausted, res.Outcome)
		assert.Equal(t, 1, res.Attempts)
		require.ErrorIs(t, res.Err, context.Canceled)
		assert.Empty(t, clk.Sleeps())

		require.Len(t, fb.alerts, 1)
		assert.NoError(t, fb.ctxErr)
	})

	t.Run("each attempt gets its own deadline", func(t *testing.T) {
		var deadlines []bool

		tr := transportFunc(func(ctx context.Context, _ notify.Payload) error {
			_, ok := ctx.Deadline()
			deadlines = append(deadlines, ok)

			return errors.New("fail")
		})
		d := notify.NewDispatcher(tr, notify.DefaultPolicy(), clock.NewVirtual(epoch))

		d.Dispatch(ctx, alert)

		assert.Equal(t, []bool{true, true, true}, deadlines)
	})

	t.Run("zero attempts policy still tries once", func(t *testing.T) {
		tr := &scriptedTransport{failures: -1}
		d := notify.NewDispatcher(tr, notify.Policy{}, clock.NewVirtual(epoch))

		res := d.Dispatch(ctx, alert)

		assert.Equal(t, 1, res.Attempts)
		assert.Equal(t, 1, tr.calls)
	})

	t.Run("records attempts and outcome", func(t *testing.T) {
		m := metrics.NewCollector("test")
		d := notify.NewDispatcher(&scriptedTransport{failures: 1}, notify.DefaultPolicy(),
			clock.NewVirtual(epoch), notify.WithMetrics(m))

		d.Dispatch(ctx, alert)

		assert.InDelta(t, 1, testutil.ToFloat64(m.DispatchAttempts.WithLabelValues("failure")), 0)
		assert.InDelta(t, 1, testutil.ToFloat64(m.DispatchAttempts.WithLabelValues("success")), 0)
		assert.InDelta(t, 1, testutil.ToFloat64(m.DispatchOutcomes.WithLabelValues("sent")), 0)
	})
}

type transportFunc func(ctx context.Context, p notify.Payload) error

func (f transportFunc) Send(ctx context.Context, p notify.Payload) error {
	return f(ctx, p)
}

func TestPolicy_Backoff(t *testing.T) {
	p := notify.DefaultPolicy()

	assert.Equal(t, time.Second, p.Backoff(0))
	assert.Equal(t, 2*time.Second, p.Backoff(1))
	assert.Equal(t, 4*time.Second, p.Backoff(2))
}
