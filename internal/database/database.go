// Package database provides PostgreSQL connection management using pgx.
package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivanand-hulikatti/eventpass/internal/config"
	"github.com/Shivanand-hulikatti/eventpass/lib/sl"
)

// DB is the connection pool plus the per-transaction limits every
// multi-step flow runs under.
type DB struct {
	*pgxpool.Pool
	statementTimeout time.Duration
	lockTimeout      time.Duration
}

// Wrap builds a DB around an existing pool.
func Wrap(pool *pgxpool.Pool, statementTimeout, lockTimeout time.Duration) *DB {
	return &DB{Pool: pool, statementTimeout: statementTimeout, lockTimeout: lockTimeout}
}

// NewPool creates and validates a pgxpool connection pool.
// It retries to accommodate containers starting up.
func NewPool(ctx context.Context, conf config.Database, log *slog.Logger) (*DB, error) {
	log = log.With(sl.Module("database"))

	poolCfg, err := pgxpool.ParseConfig(conf.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse db config: %w", err)
	}

	poolCfg.MaxConns = conf.MaxConns
	poolCfg.MinConns = conf.MinConns
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	attempts := max(conf.ConnectAttempts, 1)

	var pool *pgxpool.Pool
	for attempt := 1; attempt <= attempts; attempt++ {
		pool, err = pgxpool.NewWithConfig(ctx, poolCfg)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				break
			}
			pool.Close()
		}
		log.Warn("db connect attempt failed",
			slog.Int("attempt", attempt),
			slog.Int("of", attempts),
			sl.Err(err))
		if attempt < attempts {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(2 * time.Second):
			}
		}
	}
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	return Wrap(pool, conf.StatementTimeout, conf.LockTimeout), nil
}
