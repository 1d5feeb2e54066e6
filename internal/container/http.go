package container

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/samber/do"
	"github.com/serroba/trendmart-analytics/internal/analytics"
	"github.com/serroba/trendmart-analytics/internal/handlers"
	"github.com/serroba/trendmart-analytics/internal/health"
	"github.com/serroba/trendmart-analytics/internal/metrics"
	"github.com/serroba/trendmart-analytics/internal/middleware"
	"github.com/serroba/trendmart-analytics/internal/orders"
	"github.com/serroba/trendmart-analytics/internal/ratelimit"
	"go.uber.org/zap"
)

// HTTPPackage provides the router and the huma API with every route registered.
func HTTPPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*chi.Mux, error) {
		router := chi.NewMux()
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   do.MustInvoke[*Options](i).corsOrigins(),
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"*"},
			ExposedHeaders:   []string{"Retry-After", middleware.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           300,
		}))

		return router, nil
	})

	do.Provide(injector, func(i *do.Injector) (huma.API, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)
		router := do.MustInvoke[*chi.Mux](i)

		api := humachi.New(router, huma.DefaultConfig("TrendMart Analytics", "1.0.0"))
		api.UseMiddleware(
			middleware.RequestMeta(api, logger, opts.TrustProxyHeaders),
			middleware.RateLimiter(api, do.MustInvoke[ratelimit.Limiter](i), logger),
		)

		handlers.RegisterRoutes(api,
			handlers.NewAnalyticsHandler(do.MustInvoke[*analytics.Service](i), logger),
			handlers.NewOrderHandler(do.MustInvoke[*orders.Service](i), logger),
			handlers.NewMockInventoryHandler(logger),
		)

		var redisCheck, postgresCheck health.Checker

		if opts.usesRedis() {
			redisCheck = health.NewRedisChecker(do.MustInvoke[*RedisConn](i).Client)
		}

		if opts.StoreBackend == BackendPostgres {
			postgresCheck = health.NewPostgresChecker(do.MustInvoke[*PostgresConn](i).Pool)
		}

		health.RegisterRoutes(api, health.NewHandler(redisCheck, postgresCheck))

		router.Handle("/metrics", do.MustInvoke[*metrics.Collector](i).Handler())

		return api, nil
	})
}
