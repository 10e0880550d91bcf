// Package postgres provides the PostgreSQL connection pool the ingestion
// pipeline's twelve tasks share.
//
// Architecture:
//
//   - Pool: thread-safe pgxpool instance sized for the twelve-task
//     concurrency floor plus headroom.
//   - Verified recycling: BeforeAcquire pings every connection handed out of
//     the pool before a caller can use it, so a connection the server
//     already dropped never reaches a task as if it were healthy.
//   - ConnectTimeout: 5s
package postgres

import (
	stdctx "context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flibusta-go/libupdater/internal/platform/constants"
)

// # Pool Configuration (Tuning)

const (
	// taskCount is the number of concurrent ingest tasks.
	taskCount = 12

	// defaultMaxConns gives every task its own connection plus headroom for
	// the startup source-row lookup (resolveSourceID in cmd/updater).
	defaultMaxConns = taskCount + 8

	// defaultMinConns keeps enough warm connections that the first wave of
	// tasks doesn't pay cold-start latency.
	defaultMinConns = taskCount

	maxConnLifetime   = 60 * time.Minute
	maxConnIdleTime   = 10 * time.Minute
	healthCheckPeriod = 1 * time.Minute
	pingTimeout       = 2 * time.Second
)

// # Lifecycle Management

// NewPool creates and validates a new PostgreSQL connection pool sized for
// the pipeline's twelve concurrent tasks. poolSize overrides the default
// capacity when positive.
func NewPool(ctx stdctx.Context, dsn string, poolSize int, logger *slog.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: invalid DSN: %w", err)
	}

	maxConns := int32(defaultMaxConns)
	if poolSize > 0 {
		maxConns = int32(poolSize)
	}

	poolConfig.MaxConns = maxConns
	poolConfig.MinConns = defaultMinConns
	poolConfig.MaxConnLifetime = maxConnLifetime
	poolConfig.MaxConnIdleTime = maxConnIdleTime
	poolConfig.HealthCheckPeriod = healthCheckPeriod
	poolConfig.ConnConfig.ConnectTimeout = constants.ConnectTimeout
	poolConfig.ConnConfig.RuntimeParams["search_path"] = constants.SchemaPublic

	// Every checkout is pinged before being handed to a task, so a
	// connection the server already dropped is recycled rather than reused.
	poolConfig.BeforeAcquire = func(ctx stdctx.Context, conn *pgx.Conn) bool {
		return conn.Ping(ctx) == nil
	}

	connectCtx, cancel := stdctx.WithTimeout(ctx, constants.ConnectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to create pool: %w", err)
	}

	if err := Ping(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	stats := pool.Stat()
	logger.Info("postgres pool connected",
		slog.Int("max_conns", int(stats.MaxConns())),
		slog.Int("total_conns", int(stats.TotalConns())),
	)

	return pool, nil
}

// # Health Checks

// Ping verifies that the PostgreSQL connection pool is healthy.
func Ping(ctx stdctx.Context, pool *pgxpool.Pool) error {
	pingCtx, cancel := stdctx.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		return fmt.Errorf("postgres: ping failed: %w", err)
	}

	return nil
}
