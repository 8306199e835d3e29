package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/Shivanand-hulikatti/eventpass/internal/database"
)

// PinRepository stores the hashed scanner PIN of each event. Plaintext PINs
// never reach this layer.
type PinRepository struct {
	db *database.DB
}

func NewPinRepository(db *database.DB) *PinRepository {
	return &PinRepository{db: db}
}

// SetHash replaces the event's PIN hash.
func (r *PinRepository) SetHash(ctx context.Context, eventID, hash string) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO event_pins (event_id, pin_hash, created_at)
		 VALUES ($1, $2, NOW())
		 ON CONFLICT (event_id) DO UPDATE SET pin_hash = EXCLUDED.pin_hash, created_at = NOW()`,
		eventID, hash,
	)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return ErrNotFound
		}
		return wrap("set pin hash", err)
	}
	return nil
}

// Hash returns the event's PIN hash; ok is false when no PIN is set.
func (r *PinRepository) Hash(ctx context.Context, eventID string) (hash string, ok bool, err error) {
	err = r.db.QueryRow(ctx, `SELECT pin_hash FROM event_pins WHERE event_id = $1`, eventID).Scan(&hash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, wrap("get pin hash", err)
	}
	return hash, true, nil
}

func (r *PinRepository) Delete(ctx context.Context, eventID string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM event_pins WHERE event_id = $1`, eventID); err != nil {
		return wrap("delete pin hash", err)
	}
	return nil
}
