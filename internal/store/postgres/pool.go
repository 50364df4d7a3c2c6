// Package postgres implements the notes store on PostgreSQL with pgx.
package postgres

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/notekeep/notekeep-server/internal/config"
)

//go:embed schema.sql
var schemaSQL string

// DB is the subset of *pgxpool.Pool the store uses. Tests substitute a fake.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

//nolint:gochecknoglobals // Overridable in tests
var (
	poolNewWithConfig = pgxpool.NewWithConfig
	connectRetries    = 10
	retryDelay        = 2 * time.Second
	pingTimeout       = 2 * time.Second
	sleep             = time.Sleep
)

// NewPool connects to PostgreSQL, retrying while the server comes up.
func NewPool(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.MaxConns) //nolint:gosec // Validated by config
	poolCfg.MinConns = int32(cfg.MinConns) //nolint:gosec // Validated by config
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	var lastErr error
	for attempt := 1; attempt <= connectRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pool, err := poolNewWithConfig(ctx, poolCfg)
		if err == nil {
			pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
			err = pool.Ping(pingCtx)
			cancel()
			if err == nil {
				return pool, nil
			}
			pool.Close()
		}
		lastErr = err
		logger.Warn("database not ready", "attempt", attempt, "error", err)
		if attempt < connectRetries {
			sleep(retryDelay)
		}
	}
	return nil, fmt.Errorf("database ping retries exhausted: %w", lastErr)
}

// ApplySchema creates the notes table, indexes and the pg_trgm extension if missing.
func ApplySchema(ctx context.Context, db DB) error {
	if _, err := db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
