package middleware

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/trendmart-analytics/internal/handlers"
	"github.com/serroba/trendmart-analytics/internal/ratelimit"
	"go.uber.org/zap"
)

// RateLimiter returns a Huma middleware that limits requests per client IP.
// Only operations marked with ratelimit.MetadataKey are counted; everything
// else passes straight through.
func RateLimiter(
	api huma.API, limiter ratelimit.Limiter, logger *zap.Logger,
) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		if !ratelimit.Limited(ctx) {
			next(ctx)

			return
		}

		key := clientKey(ctx)

		decision, err := limiter.Allow(ctx.Context(), key)
		if err != nil {
			logger.Error("rate limit check failed",
				zap.String("path", operationPath(ctx)),
				zap.Error(err),
			)
			_ = huma.WriteErr(api, ctx, http.StatusInternalServerError, "internal server error", err)

			return
		}

		if !decision.Allowed {
			retry := decision.RetryAfterSeconds()

			logger.Warn("rate limit exceeded",
				zap.String("path", operationPath(ctx)),
				zap.String("method", ctx.Method()),
				zap.String("clientIp", key),
				zap.Int64("count", decision.Count),
				zap.Int64("limit", decision.Limit),
				zap.Int("retryAfter", retry),
			)

			ctx.SetHeader("Retry-After", strconv.Itoa(retry))
			_ = huma.WriteErr(api, ctx, http.StatusTooManyRequests,
				fmt.Sprintf("rate limit exceeded, retry after %d seconds", retry))

			return
		}

		next(ctx)
	}
}

// clientKey identifies the client for limiting. It reuses the address
// RequestMeta resolved when that middleware ran first, else the socket peer.
func clientKey(ctx huma.Context) string {
	if meta := handlers.RequestMetaFromContext(ctx.Context()); meta.ClientIP != "" {
		return meta.ClientIP
	}

	return clientIP(ctx, false)
}

func operationPath(ctx huma.Context) string {
	if op := ctx.Operation(); op != nil {
		return op.Path
	}

	return ""
}
