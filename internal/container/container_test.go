package container_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"
	"github.com/samber/do"
	"github.com/serroba/trendmart-analytics/internal/container"
	"github.com/serroba/trendmart-analytics/internal/notify"
	"github.com/serroba/trendmart-analytics/internal/orders"
	"github.com/serroba/trendmart-analytics/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func validOptions() *container.Options {
	return &container.Options{
		Port:                   8000,
		LogFormat:              "console",
		CORSOrigins:            "http://localhost:5173, http://localhost:3000",
		StoreBackend:           container.BackendMemory,
		CacheBackend:           container.BackendMemory,
		CacheTTLSeconds:        60,
		CacheShards:            16,
		RateLimit:              5,
		RateLimitPeriodSeconds: 60,
		RateLimitBackend:       container.BackendMemory,
		NotifyMaxAttempts:      3,
		NotifyTimeoutSeconds:   5,
		NotifyBackoffBase:      2,
		FallbackMode:           container.FallbackLog,
	}
}

func TestOptions_Validate(t *testing.T) {
	t.Run("defaults notify url to the local mock service", func(t *testing.T) {
		opts := validOptions()
		opts.Port = 9090

		require.NoError(t, opts.Validate())
		assert.Equal(t, "http://localhost:9090/mock-inventory-alert", opts.NotifyURL)
	})

	t.Run("keeps an explicit notify url", func(t *testing.T) {
		opts := validOptions()
		opts.NotifyURL = "http://inventory:9000/alert"

		require.NoError(t, opts.Validate())
		assert.Equal(t, "http://inventory:9000/alert", opts.NotifyURL)
	})

	tests := []struct {
		name   string
		modify func(*container.Options)
	}{
		{"port", func(o *container.Options) { o.Port = 0 }},
		{"log format", func(o *container.Options) { o.LogFormat = "xml" }},
		{"store backend", func(o *container.Options) { o.StoreBackend = container.BackendRedis }},
		{"cache backend", func(o *container.Options) { o.CacheBackend = container.BackendPostgres }},
		{"rate limit backend", func(o *container.Options) { o.RateLimitBackend = "etcd" }},
		{"cache ttl", func(o *container.Options) { o.CacheTTLSeconds = 0 }},
		{"rate limit", func(o *container.Options) { o.RateLimit = -1 }},
		{"rate limit period", func(o *container.Options) { o.RateLimitPeriodSeconds = 0 }},
		{"notify attempts", func(o *container.Options) { o.NotifyMaxAttempts = 0 }},
		{"notify timeout", func(o *container.Options) { o.NotifyTimeoutSeconds = 0 }},
		{"backoff base", func(o *container.Options) { o.NotifyBackoffBase = 0 }},
		{"fallback mode", func(o *container.Options) { o.FallbackMode = "retry" }},
	}

	for _, tt := range tests {
		t.Run("rejects "+tt.name, func(t *testing.T) {
			opts := validOptions()
			tt.modify(opts)

			err := opts.Validate()

			require.ErrorIs(t, err, container.ErrInvalidOptions)
			assert.Empty(t, opts.NotifyURL)
		})
	}
}

func TestWatermillLogger(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	logger := container.NewWatermillLogger(zap.New(core))

	logger.With(watermill.LogFields{"topic": "orders"}).Info("subscribed", watermill.LogFields{"group": "g1"})
	logger.Trace("polling", nil)
	logger.Error("ack failed", assert.AnError, nil)

	entries := logs.All()
	require.Len(t, entries, 3)

	assert.Equal(t, "subscribed", entries[0].Message)
	assert.Equal(t, "watermill", entries[0].LoggerName)
	assert.Equal(t, "orders", entries[0].ContextMap()["topic"])
	assert.Equal(t, "g1", entries[0].ContextMap()["group"])

	assert.Equal(t, zap.DebugLevel, entries[1].Level)

	assert.Equal(t, zap.ErrorLevel, entries[2].Level)
	assert.Equal(t, assert.AnError.Error(), entries[2].ContextMap()["error"])
}

func newInjector(t *testing.T, opts *container.Options) *do.Injector {
	t.Helper()

	require.NoError(t, opts.Validate())

	injector := do.New()
	do.ProvideValue(injector, opts)
	container.LoggerPackage(injector)
	container.CorePackage(injector)
	container.RedisPackage(injector)
	container.PostgresPackage(injector)
	container.StorePackage(injector)
	container.CachePackage(injector)
	container.RateLimitPackage(injector)
	container.PublisherGroupPackage(injector)
	container.NotifierPackage(injector)
	container.ServicePackage(injector)
	container.HTTPPackage(injector)

	t.Cleanup(func() { _ = injector.Shutdown() })

	return injector
}

func serve(router http.Handler, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(method, target, nil))

	return rec
}

func TestHTTPPackage_InMemory(t *testing.T) {
	alerts := make(chan notify.Payload, 1)
	inventory := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p notify.Payload
		_ = json.NewDecoder(r.Body).Decode(&p)
		alerts <- p

		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(inventory.Close)

	opts := validOptions()
	opts.RateLimit = 2
	opts.NotifyURL = inventory.URL

	injector := newInjector(t, opts)

	data := do.MustInvoke[*store.MemoryStore](injector)
	data.AddCategory(store.Category{ID: 1, Name: "Garden"})
	data.AddProduct(orders.Product{ID: 7, Name: "Hose", CategoryID: 1, Price: 10.5, Stock: 5})

	_ = do.MustInvoke[huma.API](injector)
	router := do.MustInvoke[*chi.Mux](injector)

	t.Run("simulates an order and delivers the alert", func(t *testing.T) {
		rec := serve(router, http.MethodPost, "/api/orders/simulate?product_id=7&quantity=2")

		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		assert.Equal(t, notify.Payload{ProductID: 7, QuantitySold: 2, CurrentStock: 3}, <-alerts)
	})

	t.Run("overview includes the order", func(t *testing.T) {
		rec := serve(router, http.MethodGet, "/api/analytics/overview")

		require.Equal(t, http.StatusOK, rec.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.InDelta(t, 21.0, body["total_revenue"], 0.001)
		assert.InDelta(t, 1.0, body["total_orders"], 0.001)
	})

	t.Run("overview is rate limited", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/api/analytics/overview").Code)

		rec := serve(router, http.MethodGet, "/api/analytics/overview")
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	})

	t.Run("health reports disabled dependencies", func(t *testing.T) {
		rec := serve(router, http.MethodGet, "/health")

		require.Equal(t, http.StatusOK, rec.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "ok", body["status"])
		assert.Equal(t, "disabled", body["redis"])
		assert.Equal(t, "disabled", body["postgres"])
	})

	t.Run("preflight from a dashboard origin is allowed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/analytics/overview", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		req.Header.Set("Access-Control-Request-Method", http.MethodGet)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("unknown origins get no cors headers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", "http://evil.example")

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("metrics are exposed", func(t *testing.T) {
		rec := serve(router, http.MethodGet, "/metrics")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "trendmart_")
	})
}
