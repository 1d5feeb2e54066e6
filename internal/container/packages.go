package container

import (
	"context"
	"net/http"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/samber/do"
	"github.com/serroba/trendmart-analytics/internal/analytics"
	"github.com/serroba/trendmart-analytics/internal/cache"
	"github.com/serroba/trendmart-analytics/internal/clock"
	"github.com/serroba/trendmart-analytics/internal/messaging"
	"github.com/serroba/trendmart-analytics/internal/metrics"
	"github.com/serroba/trendmart-analytics/internal/notify"
	"github.com/serroba/trendmart-analytics/internal/orders"
	"github.com/serroba/trendmart-analytics/internal/ratelimit"
	"github.com/serroba/trendmart-analytics/internal/store"
	"go.uber.org/zap"
)

// RedeliveryConsumerGroup is the Redis streams consumer group of the redelivery worker.
const RedeliveryConsumerGroup = "inventory-alert-redelivery"

const (
	breakerFailures = 5
	breakerCooldown = 30 * time.Second
)

// CorePackage provides the clock and the metrics collector.
func CorePackage(injector *do.Injector) {
	do.ProvideValue(injector, clock.Real())
	do.Provide(injector, func(*do.Injector) (*metrics.Collector, error) {
		return metrics.NewCollector("trendmart"), nil
	})
}

// StorePackage provides the order data store behind both the analytics and
// the orders interfaces.
func StorePackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*store.MemoryStore, error) {
		return store.NewMemoryStore(), nil
	})

	do.Provide(injector, func(i *do.Injector) (*store.PostgresStore, error) {
		conn, err := do.Invoke[*PostgresConn](i)
		if err != nil {
			return nil, err
		}

		s := store.NewPostgresStore(conn.Pool)

		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()

		if err := s.EnsureSchema(ctx); err != nil {
			return nil, err
		}

		return s, nil
	})

	do.Provide(injector, func(i *do.Injector) (analytics.QueryExecutor, error) {
		return dataStore(i)
	})

	do.Provide(injector, func(i *do.Injector) (orders.Repository, error) {
		return dataStore(i)
	})
}

// orderData is served by both store backends.
type orderData interface {
	analytics.QueryExecutor
	orders.Repository
}

func dataStore(i *do.Injector) (orderData, error) {
	if do.MustInvoke[*Options](i).StoreBackend == BackendPostgres {
		s, err := do.Invoke[*store.PostgresStore](i)
		if err != nil {
			return nil, err
		}

		return s, nil
	}

	return do.MustInvoke[*store.MemoryStore](i), nil
}

// CachePackage provides the response cache.
func CachePackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (cache.Store, error) {
		opts := do.MustInvoke[*Options](i)

		if opts.CacheBackend == BackendRedis {
			conn, err := do.Invoke[*RedisConn](i)
			if err != nil {
				return nil, err
			}

			return store.NewCacheRedisStore(conn.Client), nil
		}

		return store.NewCacheMemoryStore(do.MustInvoke[clock.Clock](i), opts.CacheShards), nil
	})

	do.Provide(injector, func(i *do.Injector) (*cache.Cache, error) {
		return cache.New(
			do.MustInvoke[cache.Store](i),
			do.MustInvoke[*Options](i).cacheTTL(),
			cache.WithMetrics(do.MustInvoke[*metrics.Collector](i)),
			cache.WithLogger(do.MustInvoke[*zap.Logger](i)),
		), nil
	})
}

// RateLimitPackage provides the fixed-window limiter.
func RateLimitPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (ratelimit.Store, error) {
		if do.MustInvoke[*Options](i).RateLimitBackend == BackendRedis {
			conn, err := do.Invoke[*RedisConn](i)
			if err != nil {
				return nil, err
			}

			return store.NewRateLimitRedisStore(conn.Client), nil
		}

		return store.NewRateLimitMemoryStore(), nil
	})

	do.Provide(injector, func(i *do.Injector) (ratelimit.Limiter, error) {
		opts := do.MustInvoke[*Options](i)

		return ratelimit.NewFixedWindowLimiter(
			do.MustInvoke[ratelimit.Store](i),
			do.MustInvoke[clock.Clock](i),
			int64(opts.RateLimit),
			opts.rateLimitPeriod(),
			do.MustInvoke[*metrics.Collector](i),
		), nil
	})
}

// PublisherGroupPackage provides the Redis streams publisher.
func PublisherGroupPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*messaging.PublisherGroup, error) {
		conn, err := do.Invoke[*RedisConn](i)
		if err != nil {
			return nil, err
		}

		publisher, err := redisstream.NewPublisher(redisstream.PublisherConfig{
			Client:     conn.Client,
			Marshaller: redisstream.DefaultMarshallerUnmarshaller{},
		}, do.MustInvoke[watermill.LoggerAdapter](i))
		if err != nil {
			return nil, err
		}

		return messaging.NewPublisherGroup(publisher), nil
	})
}

// NotifierPackage provides the inventory alert dispatcher.
func NotifierPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (notify.Transport, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		var t notify.Transport = notify.NewHTTPTransport(opts.NotifyURL, &http.Client{})

		if opts.NotifyBreaker {
			t = notify.NewBreakerTransport(t, breakerFailures, breakerCooldown, logger)
		}

		return t, nil
	})

	do.Provide(injector, func(i *do.Injector) (*notify.Dispatcher, error) {
		opts := do.MustInvoke[*Options](i)

		policy := notify.DefaultPolicy()
		policy.MaxAttempts = opts.NotifyMaxAttempts
		policy.Timeout = opts.notifyTimeout()
		policy.BackoffBase = opts.NotifyBackoffBase

		dispatchOpts := []notify.Option{
			notify.WithMetrics(do.MustInvoke[*metrics.Collector](i)),
			notify.WithLogger(do.MustInvoke[*zap.Logger](i)),
		}

		switch opts.FallbackMode {
		case FallbackPublish:
			group, err := do.Invoke[*messaging.PublisherGroup](i)
			if err != nil {
				return nil, err
			}

			publish := messaging.NewPublishFunc[notify.FailedAlert](group.Publisher(), notify.FailedTopic)
			dispatchOpts = append(dispatchOpts, notify.WithFallback(notify.NewPublishFallback(publish)))
		case FallbackLog:
			dispatchOpts = append(dispatchOpts, notify.WithFallback(notify.NewLogFallback(do.MustInvoke[*zap.Logger](i))))
		}

		return notify.NewDispatcher(
			do.MustInvoke[notify.Transport](i),
			policy,
			do.MustInvoke[clock.Clock](i),
			dispatchOpts...,
		), nil
	})
}

// ServicePackage provides the analytics and order services.
func ServicePackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*analytics.Service, error) {
		return analytics.NewService(
			do.MustInvoke[analytics.QueryExecutor](i),
			do.MustInvoke[*cache.Cache](i),
			do.MustInvoke[clock.Clock](i),
		), nil
	})

	do.Provide(injector, func(i *do.Injector) (*orders.Service, error) {
		return orders.NewService(
			do.MustInvoke[orders.Repository](i),
			do.MustInvoke[*notify.Dispatcher](i),
			do.MustInvoke[clock.Clock](i),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
}

// ConsumerGroupPackage provides the redelivery worker's consumers.
func ConsumerGroupPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*messaging.ConsumerGroup, error) {
		conn, err := do.Invoke[*RedisConn](i)
		if err != nil {
			return nil, err
		}

		logger := do.MustInvoke[*zap.Logger](i)

		subscriber, err := redisstream.NewSubscriber(redisstream.SubscriberConfig{
			Client:        conn.Client,
			Unmarshaller:  redisstream.DefaultMarshallerUnmarshaller{},
			ConsumerGroup: RedeliveryConsumerGroup,
		}, do.MustInvoke[watermill.LoggerAdapter](i))
		if err != nil {
			return nil, err
		}

		group := messaging.NewConsumerGroup(subscriber, logger)
		group.Add(messaging.NewConsumer(
			subscriber,
			notify.FailedTopic,
			notify.RedeliveryHandler(do.MustInvoke[*notify.Dispatcher](i)),
			logger,
		))

		return group, nil
	})
}
