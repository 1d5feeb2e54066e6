package container

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"go.uber.org/zap"
)

const connectTimeout = 5 * time.Second

// RedisConn is the shared Redis client, closed on injector shutdown.
type RedisConn struct {
	*redis.Client
}

func (r *RedisConn) Shutdown() error {
	return r.Close()
}

// PostgresConn is the shared connection pool, closed on injector shutdown.
type PostgresConn struct {
	*pgxpool.Pool
}

func (p *PostgresConn) Shutdown() error {
	p.Close()

	return nil
}

// RedisPackage provides the Redis client. It is only constructed when a
// component configured for Redis asks for it.
func RedisPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*RedisConn, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		client := redis.NewClient(&redis.Options{Addr: opts.RedisAddr})

		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()

		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()

			return nil, fmt.Errorf("connect redis %s: %w", opts.RedisAddr, err)
		}

		logger.Info("connected to redis", zap.String("addr", opts.RedisAddr))

		return &RedisConn{Client: client}, nil
	})
}

// PostgresPackage provides the PostgreSQL pool.
func PostgresPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*PostgresConn, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()

		pool, err := pgxpool.New(ctx, opts.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("create postgres pool: %w", err)
		}

		if err := pool.Ping(ctx); err != nil {
			pool.Close()

			return nil, fmt.Errorf("connect postgres: %w", err)
		}

		logger.Info("connected to postgres")

		return &PostgresConn{Pool: pool}, nil
	})
}
