package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// InTx runs fn inside one transaction bounded by the configured statement
// and lock timeouts. Any error from fn, or a failed commit, rolls the whole
// transaction back so partial state is never visible.
func (d *DB) InTx(ctx context.Context, fn func(tx pgx.Tx) error) (err error) {
	tx, err := d.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(context.WithoutCancel(ctx))
		}
	}()

	if err = d.applyTimeouts(ctx, tx); err != nil {
		return err
	}
	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (d *DB) applyTimeouts(ctx context.Context, tx pgx.Tx) error {
	if d.statementTimeout > 0 {
		if _, err := tx.Exec(ctx, "SET LOCAL statement_timeout = "+millis(d.statementTimeout)); err != nil {
			return fmt.Errorf("set statement timeout: %w", err)
		}
	}
	if d.lockTimeout > 0 {
		if _, err := tx.Exec(ctx, "SET LOCAL lock_timeout = "+millis(d.lockTimeout)); err != nil {
			return fmt.Errorf("set lock timeout: %w", err)
		}
	}
	return nil
}

// SET does not accept bind parameters, so the value is formatted here.
func millis(d time.Duration) string {
	return fmt.Sprintf("%d", d.Milliseconds())
}
