package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/serroba/trendmart-analytics/internal/clock"
	"github.com/serroba/trendmart-analytics/internal/metrics"
	"go.uber.org/zap"
)

// Outcome is the terminal state of a dispatch.
type Outcome string

const (
	Sent      Outcome = "sent"
	Exhausted Outcome = "exhausted"
)

// Result describes how a dispatch ended.
type Result struct {
	Outcome  Outcome
	Attempts int
	// Err is the last attempt's error when the outcome is Exhausted.
	Err error
}

type phase int

const (
	attempting phase = iota
	sent
	exhausted
)

// state is one step of the delivery machine. attempt counts attempts already
// made, so the machine always terminates after at most MaxAttempts sends.
type state struct {
	phase   phase
	attempt int
	err     error
}

// Dispatcher delivers alerts with bounded retries and hands exhausted alerts
// to a fallback. Dispatch never fails its caller.
type Dispatcher struct {
	transport Transport
	policy    Policy
	fallback  Fallback
	clock     clock.Clock
	metrics   *metrics.Collector
	logger    *zap.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithFallback sets the handler for exhausted alerts.
func WithFallback(f Fallback) Option {
	return func(d *Dispatcher) {
		d.fallback = f
	}
}

// WithMetrics records attempts and outcomes.
func WithMetrics(m *metrics.Collector) Option {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// WithLogger sets the dispatcher logger.
func WithLogger(l *zap.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = l
	}
}

// NewDispatcher creates a dispatcher. A policy with fewer than one attempt is
// raised to one.
func NewDispatcher(t Transport, p Policy, clk clock.Clock, opts ...Option) *Dispatcher {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}

	d := &Dispatcher{
		transport: t,
		policy:    p,
		clock:     clk,
		logger:    zap.NewNop(),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Dispatch delivers p. It returns once the alert was accepted, or once every
// attempt failed and the fallback has run. Cancelling ctx cuts the backoff
// short and ends the dispatch as Exhausted.
func (d *Dispatcher) Dispatch(ctx context.Context, p Payload) Result {
	s := state{phase: attempting}

	for s.phase == attempting {
		s = d.step(ctx, p, s)
	}

	res := Result{Attempts: s.attempt, Err: s.err}

	switch s.phase {
	case sent:
		res.Outcome = Sent
		d.logger.Info("inventory alert sent",
			zap.Int64("productId", p.ProductID),
			zap.Int("attempts", s.attempt),
		)
	default:
		res.Outcome = Exhausted
		d.logger.Error("inventory alert exhausted",
			zap.Int64("productId", p.ProductID),
			zap.Int("attempts", s.attempt),
			zap.Error(s.err),
		)
		d.runFallback(ctx, FailedAlert{
			Payload:  p,
			Attempts: s.attempt,
			Reason:   errString(s.err),
			FailedAt: d.clock.Now(),
		})
	}

	d.metrics.DispatchOutcome(string(res.Outcome))

	return res
}

func (d *Dispatcher) step(ctx context.Context, p Payload, s state) state {
	err := d.send(ctx, p)
	made := s.attempt + 1

	d.metrics.DispatchAttempt(err == nil)

	if err == nil {
		return state{phase: sent, attempt: made}
	}

	d.logger.Warn("inventory alert attempt failed",
		zap.Int64("productId", p.ProductID),
		zap.Int("attempt", made),
		zap.Int("maxAttempts", d.policy.MaxAttempts),
		zap.Error(err),
	)

	if made >= d.policy.MaxAttempts {
		return state{phase: exhausted, attempt: made, err: err}
	}

	if sleepErr := d.clock.Sleep(ctx, d.policy.Backoff(s.attempt)); sleepErr != nil {
		return state{phase: exhausted, attempt: made, err: errors.Join(err, sleepErr)}
	}

	return state{phase: attempting, attempt: made, err: err}
}

func (d *Dispatcher) send(ctx context.Context, p Payload) error {
	if d.policy.Timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, d.policy.Timeout)
		defer cancel()
	}

	return d.transport.Send(ctx, p)
}

// runFallback runs the fallback detached from the caller's cancellation.
// Its errors and panics are logged and dropped.
func (d *Dispatcher) runFallback(ctx context.Context, alert FailedAlert) {
	if d.fallback == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("inventory alert fallback panicked",
				zap.Int64("productId", alert.Payload.ProductID),
				zap.Error(fmt.Errorf("%v", r)),
			)
		}
	}()

	if err := d.fallback.Handle(context.WithoutCancel(ctx), alert); err != nil {
		d.logger.Error("inventory alert fallback failed",
			zap.Int64("productId", alert.Payload.ProductID),
			zap.Error(err),
		)
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}

	return err.Error()
}
