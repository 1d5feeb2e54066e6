package health

import (
	"context"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"

	Healthy   = "healthy"
	Unhealthy = "unhealthy"
	// Disabled marks a dependency the running configuration does not use.
	Disabled = "disabled"
)

// pingTimeout bounds each dependency check.
const pingTimeout = 2 * time.Second

// Checker defines the interface for checking service health.
type Checker interface {
	Ping(ctx context.Context) error
}

// RedisChecker adapts redis.Client to Checker.
type RedisChecker struct {
	client *redis.Client
}

// NewRedisChecker creates a new Redis health checker.
func NewRedisChecker(client *redis.Client) *RedisChecker {
	return &RedisChecker{client: client}
}

func (r *RedisChecker) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// PostgresChecker adapts a pgx pool to Checker.
type PostgresChecker struct {
	pool *pgxpool.Pool
}

// NewPostgresChecker creates a new PostgreSQL health checker.
func NewPostgresChecker(pool *pgxpool.Pool) *PostgresChecker {
	return &PostgresChecker{pool: pool}
}

func (p *PostgresChecker) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Handler reports the health of the service and its backing stores.
// A nil checker means the dependency is not in use.
type Handler struct {
	redis    Checker
	postgres Checker
}

// NewHandler creates a new health handler. Either checker may be nil.
func NewHandler(redis, postgres Checker) *Handler {
	return &Handler{redis: redis, postgres: postgres}
}

// Response is the response for the health endpoint.
type Response struct {
	Body struct {
		Status   string `doc:"ok, or degraded when a dependency is down" example:"ok"      json:"status"`
		Redis    string `doc:"Redis state"                               example:"healthy" json:"redis"`
		Postgres string `doc:"PostgreSQL state"                          example:"healthy" json:"postgres"`
	}
}

// Check performs a health check of the application and its dependencies.
func (h *Handler) Check(ctx context.Context, _ *struct{}) (*Response, error) {
	resp := &Response{}
	resp.Body.Status = StatusOK
	resp.Body.Redis = probe(ctx, h.redis)
	resp.Body.Postgres = probe(ctx, h.postgres)

	if resp.Body.Redis == Unhealthy || resp.Body.Postgres == Unhealthy {
		resp.Body.Status = StatusDegraded
	}

	return resp, nil
}

func probe(ctx context.Context, c Checker) string {
	if c == nil {
		return Disabled
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := c.Ping(ctx); err != nil {
		return Unhealthy
	}

	return Healthy
}

// RegisterRoutes registers health check routes.
func RegisterRoutes(api huma.API, h *Handler) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      "GET",
		Path:        "/health",
		Summary:     "Service health",
		Tags:        []string{"Health"},
	}, h.Check)
}
