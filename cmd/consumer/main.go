package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/samber/do"
	"github.com/serroba/trendmart-analytics/internal/container"
	"github.com/serroba/trendmart-analytics/internal/messaging"
	"go.uber.org/zap"
)

// The redelivery worker drains the failed inventory alert stream and retries
// each alert once more with the normal dispatch policy. Alerts that fail again
// are nacked and stay pending in the consumer group.
func main() {
	opts := &container.Options{
		Port:                   8000,
		LogFormat:              getEnv("LOG_FORMAT", "console"),
		StoreBackend:           container.BackendMemory,
		RedisAddr:              getEnv("REDIS_ADDR", "localhost:6379"),
		CacheBackend:           container.BackendMemory,
		CacheTTLSeconds:        60,
		CacheShards:            16,
		RateLimit:              5,
		RateLimitPeriodSeconds: 60,
		RateLimitBackend:       container.BackendMemory,
		NotifyURL:              getEnv("NOTIFY_URL", ""),
		NotifyMaxAttempts:      getEnvInt("NOTIFY_MAX_ATTEMPTS", 3),
		NotifyTimeoutSeconds:   getEnvInt("NOTIFY_TIMEOUT_SECONDS", 5),
		NotifyBackoffBase:      2,
		NotifyBreaker:          getEnv("NOTIFY_BREAKER", "") == "true",
		FallbackMode:           container.FallbackNone,
	}

	if err := opts.Validate(); err != nil {
		panic(err)
	}

	injector := do.New()
	do.ProvideValue(injector, opts)
	container.LoggerPackage(injector)
	container.CorePackage(injector)
	container.RedisPackage(injector)
	container.NotifierPackage(injector)
	container.ConsumerGroupPackage(injector)

	logger := do.MustInvoke[*zap.Logger](injector)
	group := do.MustInvoke[*messaging.ConsumerGroup](injector)

	ctx, cancel := context.WithCancel(context.Background())

	if err := group.Start(ctx); err != nil {
		logger.Fatal("failed to start consumer group", zap.Error(err))
	}

	logger.Info("redelivery worker started", zap.String("notifyUrl", opts.NotifyURL))

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down")
	cancel()

	if err := injector.Shutdown(); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}

	logger.Info("shutdown complete")
	_ = logger.Sync()
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}

	return n
}
