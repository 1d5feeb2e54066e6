package middleware

import (
	"net"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"github.com/serroba/trendmart-analytics/internal/handlers"
	"go.uber.org/zap"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// RequestMeta adds client IP, user-agent and a request id to the request
// context, echoes the id back, and logs every completed request.
// X-Forwarded-For and X-Real-IP only name the client when trustProxyHeaders is set;
// otherwise the socket peer does.
func RequestMeta(
	_ huma.API, logger *zap.Logger, trustProxyHeaders bool,
) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		start := time.Now()

		requestID := ctx.Header(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		meta := handlers.RequestMeta{
			ClientIP:  clientIP(ctx, trustProxyHeaders),
			UserAgent: ctx.Header("User-Agent"),
			RequestID: requestID,
		}

		ctx.SetHeader(RequestIDHeader, requestID)
		ctx = huma.WithContext(ctx, handlers.ContextWithRequestMeta(ctx.Context(), meta))

		next(ctx)

		logger.Info("request completed",
			zap.String("method", ctx.Method()),
			zap.String("path", requestPath(ctx)),
			zap.Int("status", ctx.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("clientIp", meta.ClientIP),
			zap.String("requestId", requestID),
		)
	}
}

func requestPath(ctx huma.Context) string {
	u := ctx.URL()

	return u.Path
}

// clientIP returns the originating client address. Proxy headers are consulted
// only when trusted, since any client can set them.
func clientIP(ctx huma.Context, trustProxyHeaders bool) string {
	if trustProxyHeaders {
		if xff := ctx.Header("X-Forwarded-For"); xff != "" {
			if idx := strings.Index(xff, ","); idx != -1 {
				return strings.TrimSpace(xff[:idx])
			}

			return strings.TrimSpace(xff)
		}

		if xri := ctx.Header("X-Real-IP"); xri != "" {
			return strings.TrimSpace(xri)
		}
	}

	addr := ctx.RemoteAddr()

	ip, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}

	return ip
}
