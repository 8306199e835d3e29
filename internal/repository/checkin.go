package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Shivanand-hulikatti/eventpass/internal/database"
	"github.com/Shivanand-hulikatti/eventpass/internal/model"
)

// CheckinRepository records ticket redemptions.
type CheckinRepository struct {
	db *database.DB
}

func NewCheckinRepository(db *database.DB) *CheckinRepository {
	return &CheckinRepository{db: db}
}

const checkinColumns = `id, registration_id, scanned_by, scanned_at, location`

func scanCheckin(row rowScanner) (*model.CheckIn, error) {
	var c model.CheckIn
	if err := row.Scan(&c.ID, &c.RegistrationID, &c.ScannedBy, &c.ScannedAt, &c.Location); err != nil {
		return nil, err
	}
	return &c, nil
}

// CheckIn redeems a confirmed registration exactly once.
//
// No lock is taken up front. The insert races on the unique constraint
// over registration_id: the loser's insert waits for the winner to commit,
// fails with a unique violation, and the loser then returns the winner's
// row with AlreadyRedeemed set. Callers therefore always get a check-in back
// and can compare ScannedBy to learn who redeemed first.
func (r *CheckinRepository) CheckIn(ctx context.Context, registrationID, scannedBy string, location *string) (*model.CheckInResult, error) {
	var created *model.CheckIn
	err := r.db.InTx(ctx, func(tx pgx.Tx) error {
		var err error
		created, err = scanCheckin(tx.QueryRow(ctx,
			`INSERT INTO check_ins (id, registration_id, scanned_by, location)
			 VALUES ($1, $2, $3, $4)
			 RETURNING `+checkinColumns,
			uuid.New().String(), registrationID, scannedBy, location,
		))
		if err != nil {
			return fmt.Errorf("insert check-in: %w", err)
		}
		ok, err := setRegistrationStatus(ctx, tx, registrationID, model.StatusCheckedIn, false)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotConfirmed
		}
		return nil
	})
	if err == nil {
		return &model.CheckInResult{CheckIn: *created}, nil
	}

	switch {
	case database.IsUniqueViolation(err, constraintCheckinRegistration):
		existing, ferr := r.FindByRegistration(ctx, registrationID)
		if ferr != nil {
			return nil, fmt.Errorf("load existing check-in: %w", ferr)
		}
		return &model.CheckInResult{CheckIn: *existing, AlreadyRedeemed: true}, nil
	case database.IsForeignKeyViolation(err):
		return nil, ErrNotFound
	case errors.Is(err, ErrNotConfirmed):
		return nil, err
	}
	return nil, wrap("check in", err)
}

// FindByRegistration returns the check-in of a registration or ErrNotFound.
func (r *CheckinRepository) FindByRegistration(ctx context.Context, registrationID string) (*model.CheckIn, error) {
	c, err := scanCheckin(r.db.QueryRow(ctx,
		`SELECT `+checkinColumns+` FROM check_ins WHERE registration_id = $1`, registrationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, wrap("find check-in", err)
	}
	return c, nil
}

// ListByEvent returns the check-ins of an event, most recent first.
func (r *CheckinRepository) ListByEvent(ctx context.Context, eventID string) ([]model.CheckIn, error) {
	rows, err := r.db.Query(ctx,
		`SELECT ci.id, ci.registration_id, ci.scanned_by, ci.scanned_at, ci.location
		 FROM check_ins ci
		 JOIN registrations r ON r.id = ci.registration_id
		 WHERE r.event_id = $1
		 ORDER BY ci.scanned_at DESC`,
		eventID,
	)
	if err != nil {
		return nil, wrap("list check-ins", err)
	}
	defer rows.Close()

	var checkins []model.CheckIn
	for rows.Next() {
		c, err := scanCheckin(rows)
		if err != nil {
			return nil, fmt.Errorf("scan check-in: %w", err)
		}
		checkins = append(checkins, *c)
	}
	return checkins, rows.Err()
}

// Stats counts registrations of an event and how many were checked in.
func (r *CheckinRepository) Stats(ctx context.Context, eventID string) (model.CheckinStats, error) {
	var total, checkedIn int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*)::int,
		        (COUNT(*) FILTER (WHERE status = 'checked_in'))::int
		 FROM registrations
		 WHERE event_id = $1`,
		eventID,
	).Scan(&total, &checkedIn)
	if err != nil {
		return model.CheckinStats{}, wrap("check-in stats", err)
	}
	return model.NewCheckinStats(total, checkedIn), nil
}
