package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the Prometheus metrics of the analytics service.
// Each Collector owns its registry so tests can build as many as they like.
// All recording methods are safe on a nil Collector.
type Collector struct {
	registry *prometheus.Registry

	CacheLookups     *prometheus.CounterVec
	RateLimitChecks  *prometheus.CounterVec
	DispatchAttempts *prometheus.CounterVec
	DispatchOutcomes *prometheus.CounterVec
}

// NewCollector creates a collector whose metrics are prefixed with namespace.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		CacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_lookups_total",
				Help:      "Response cache lookups by result",
			},
			[]string{"result"},
		),
		RateLimitChecks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rate_limit_checks_total",
				Help:      "Rate limit decisions by result",
			},
			[]string{"result"},
		),
		DispatchAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notification_attempts_total",
				Help:      "Downstream notification attempts by result",
			},
			[]string{"result"},
		),
		DispatchOutcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notification_outcomes_total",
				Help:      "Final notification outcomes",
			},
			[]string{"outcome"},
		),
	}

	registry.MustRegister(c.CacheLookups, c.RateLimitChecks, c.DispatchAttempts, c.DispatchOutcomes)

	return c
}

// CacheHit records a cache hit.
func (c *Collector) CacheHit() {
	if c == nil {
		return
	}

	c.CacheLookups.WithLabelValues("hit").Inc()
}

// CacheMiss records a cache miss.
func (c *Collector) CacheMiss() {
	if c == nil {
		return
	}

	c.CacheLookups.WithLabelValues("miss").Inc()
}

// RateLimit records a limiter decision.
func (c *Collector) RateLimit(allowed bool) {
	if c == nil {
		return
	}

	result := "rejected"
	if allowed {
		result = "allowed"
	}

	c.RateLimitChecks.WithLabelValues(result).Inc()
}

// DispatchAttempt records a single delivery attempt.
func (c *Collector) DispatchAttempt(ok bool) {
	if c == nil {
		return
	}

	result := "failure"
	if ok {
		result = "success"
	}

	c.DispatchAttempts.WithLabelValues(result).Inc()
}

// DispatchOutcome records the terminal outcome of a dispatch.
func (c *Collector) DispatchOutcome(outcome string) {
	if c == nil {
		return
	}

	c.DispatchOutcomes.WithLabelValues(outcome).Inc()
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler returns the Prometheus exposition handler for this collector.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
