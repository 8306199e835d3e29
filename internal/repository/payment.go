package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/Shivanand-hulikatti/eventpass/internal/database"
	"github.com/Shivanand-hulikatti/eventpass/internal/model"
)

// PaymentRepository owns payment records and their confirm/reject lifecycle.
type PaymentRepository struct {
	db *database.DB
}

func NewPaymentRepository(db *database.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

const paymentColumns = `id, registration_id, channel_id, amount, currency, status, proof_ref,
	confirmed_by, confirmed_at, rejection_reason, created_at, updated_at`

func scanPayment(row rowScanner) (*model.Payment, error) {
	var p model.Payment
	err := row.Scan(&p.ID, &p.RegistrationID, &p.ChannelID, &p.Amount, &p.Currency, &p.Status, &p.ProofRef,
		&p.ConfirmedBy, &p.ConfirmedAt, &p.RejectionReason, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreatePending records a new payment attempt for a registration. Earlier
// attempts still open are rejected as superseded so only one payment per
// registration is active.
func (r *PaymentRepository) CreatePending(ctx context.Context, registrationID, channelID string, amount decimal.Decimal, currency string) (*model.Payment, error) {
	var payment *model.Payment
	err := r.db.InTx(ctx, func(tx pgx.Tx) error {
		ok, err := setRegistrationStatus(ctx, tx, registrationID, model.StatusAwaitingPayment, true)
		if err != nil {
			return err
		}
		if !ok {
			return r.missingOrInvalid(ctx, tx, `SELECT 1 FROM registrations WHERE id = $1`, registrationID)
		}

		_, err = tx.Exec(ctx,
			`UPDATE payments
			 SET status = 'rejected', rejection_reason = 'superseded', updated_at = NOW()
			 WHERE registration_id = $1 AND status IN ('pending', 'screenshot_sent')`,
			registrationID,
		)
		if err != nil {
			return fmt.Errorf("supersede open payments: %w", err)
		}

		payment, err = scanPayment(tx.QueryRow(ctx,
			`INSERT INTO payments (id, registration_id, channel_id, amount, currency, status)
			 VALUES ($1, $2, $3, $4, $5, 'pending')
			 RETURNING `+paymentColumns,
			uuid.New().String(), registrationID, channelID, amount, currency,
		))
		if err != nil {
			return fmt.Errorf("insert payment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, r.mapErr("create pending payment", err)
	}
	return payment, nil
}

// AttachProof stores the payer's proof reference and puts the payment up
// for manual review.
func (r *PaymentRepository) AttachProof(ctx context.Context, paymentID, proofRef string) (*model.Payment, error) {
	var payment *model.Payment
	err := r.db.InTx(ctx, func(tx pgx.Tx) error {
		var err error
		payment, err = r.transition(ctx, tx, paymentID,
			`SET status = 'screenshot_sent', proof_ref = $2, updated_at = NOW()
			 WHERE id = $1 AND status IN ('pending', 'screenshot_sent')`,
			proofRef)
		if err != nil {
			return err
		}
		ok, err := setRegistrationStatus(ctx, tx, payment.RegistrationID, model.StatusPaymentReview, true)
		if err != nil {
			return err
		}
		if !ok {
			return ErrInvalidTransition
		}
		return nil
	})
	if err != nil {
		return nil, r.mapErr("attach payment proof", err)
	}
	return payment, nil
}

// Confirm marks the payment confirmed and the owning registration confirmed
// in one transaction. Ticket delivery is the caller's concern after this
// returns; nothing that happens afterwards can undo the confirmation.
func (r *PaymentRepository) Confirm(ctx context.Context, paymentID, confirmedBy string) (*model.Payment, error) {
	var payment *model.Payment
	err := r.db.InTx(ctx, func(tx pgx.Tx) error {
		var err error
		payment, err = r.transition(ctx, tx, paymentID,
			`SET status = 'confirmed', confirmed_by = $2, confirmed_at = NOW(), updated_at = NOW()
			 WHERE id = $1 AND status IN ('pending', 'screenshot_sent')`,
			confirmedBy)
		if err != nil {
			return err
		}
		ok, err := setRegistrationStatus(ctx, tx, payment.RegistrationID, model.StatusConfirmed, false)
		if err != nil {
			return err
		}
		if !ok {
			return ErrInvalidTransition
		}
		return nil
	})
	if err != nil {
		return nil, r.mapErr("confirm payment", err)
	}
	return payment, nil
}

// Reject marks the payment rejected. A registration under review goes back
// to awaiting payment so the payer can try again.
func (r *PaymentRepository) Reject(ctx context.Context, paymentID, reason string) (*model.Payment, error) {
	var payment *model.Payment
	err := r.db.InTx(ctx, func(tx pgx.Tx) error {
		var err error
		payment, err = r.transition(ctx, tx, paymentID,
			`SET status = 'rejected', rejection_reason = $2, updated_at = NOW()
			 WHERE id = $1 AND status IN ('pending', 'screenshot_sent')`,
			reason)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx,
			`UPDATE registrations SET status = 'awaiting_payment', updated_at = NOW()
			 WHERE id = $1 AND status = 'payment_review'`,
			payment.RegistrationID,
		)
		if err != nil {
			return fmt.Errorf("reopen registration: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, r.mapErr("reject payment", err)
	}
	return payment, nil
}

// transition applies a guarded UPDATE to one payment and returns the new row.
func (r *PaymentRepository) transition(ctx context.Context, tx pgx.Tx, paymentID, setWhere string, arg any) (*model.Payment, error) {
	payment, err := scanPayment(tx.QueryRow(ctx,
		`UPDATE payments `+setWhere+` RETURNING `+paymentColumns,
		paymentID, arg,
	))
	if err == nil {
		return payment, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("update payment: %w", err)
	}
	return nil, r.missingOrInvalid(ctx, tx, `SELECT 1 FROM payments WHERE id = $1`, paymentID)
}

// missingOrInvalid tells ErrNotFound apart from ErrInvalidTransition after
// a guarded update matched no row.
func (r *PaymentRepository) missingOrInvalid(ctx context.Context, tx pgx.Tx, query, id string) error {
	var one int
	if err := tx.QueryRow(ctx, query, id).Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("check existence: %w", err)
	}
	return ErrInvalidTransition
}

func (r *PaymentRepository) mapErr(op string, err error) error {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrInvalidTransition):
		return err
	case database.IsForeignKeyViolation(err):
		return ErrNotFound
	}
	return wrap(op, err)
}

// FindByID returns a payment or ErrNotFound.
func (r *PaymentRepository) FindByID(ctx context.Context, id string) (*model.Payment, error) {
	p, err := scanPayment(r.db.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, wrap("find payment", err)
	}
	return p, nil
}

// LatestByRegistration returns the most recent payment attempt of a registration.
func (r *PaymentRepository) LatestByRegistration(ctx context.Context, registrationID string) (*model.Payment, error) {
	p, err := scanPayment(r.db.QueryRow(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE registration_id = $1 ORDER BY created_at DESC LIMIT 1`,
		registrationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, wrap("latest payment", err)
	}
	return p, nil
}

// ListForReview returns payments of an event waiting for an operator,
// oldest first.
func (r *PaymentRepository) ListForReview(ctx context.Context, eventID string) ([]model.Payment, error) {
	rows, err := r.db.Query(ctx,
		`SELECT p.id, p.registration_id, p.channel_id, p.amount, p.currency, p.status, p.proof_ref,
		        p.confirmed_by, p.confirmed_at, p.rejection_reason, p.created_at, p.updated_at
		 FROM payments p
		 JOIN registrations r ON r.id = p.registration_id
		 WHERE r.event_id = $1 AND p.status = 'screenshot_sent'
		 ORDER BY p.created_at ASC`,
		eventID,
	)
	if err != nil {
		return nil, wrap("list payments for review", err)
	}
	defer rows.Close()

	var payments []model.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		payments = append(payments, *p)
	}
	return payments, rows.Err()
}
