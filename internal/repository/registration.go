package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/Shivanand-hulikatti/eventpass/internal/database"
	"github.com/Shivanand-hulikatti/eventpass/internal/model"
)

// Signer derives the cached signature persisted next to each ticket token.
type Signer interface {
	Sign(token string) string
}

// RegistrationRepository handles persistence for registrations and owns the
// only code path that mutates ticket_types.sold_count.
type RegistrationRepository struct {
	db     *database.DB
	signer Signer
}

// NewRegistrationRepository constructs a RegistrationRepository.
func NewRegistrationRepository(db *database.DB, signer Signer) *RegistrationRepository {
	return &RegistrationRepository{db: db, signer: signer}
}

const registrationColumns = `id, event_id, user_id, ticket_type_id, status, qr_token, qr_hmac, reg_data, created_at, updated_at`

func scanRegistration(row rowScanner) (*model.Registration, error) {
	var reg model.Registration
	err := row.Scan(&reg.ID, &reg.EventID, &reg.UserID, &reg.TicketTypeID, &reg.Status,
		&reg.QrToken, &reg.QrHmac, &reg.Data, &reg.CreatedAt, &reg.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

// Create performs a concurrency-safe registration inside one transaction.
//
// The ticket type row is read with SELECT … FOR UPDATE, so concurrent
// purchasers of the same type queue on the row lock and each re-reads
// sold_count only after the previous holder committed or rolled back. The
// capacity check, the registration insert and the sold_count increment all
// happen under that lock; any failure rolls the three back together.
func (r *RegistrationRepository) Create(ctx context.Context, eventID, userID, ticketTypeID string, data map[string]any) (*model.Registration, error) {
	if data == nil {
		data = map[string]any{}
	}
	reg := &model.Registration{
		ID:           uuid.New().String(),
		EventID:      eventID,
		UserID:       userID,
		TicketTypeID: ticketTypeID,
		QrToken:      uuid.New().String(),
		Data:         data,
	}
	reg.QrHmac = r.signer.Sign(reg.QrToken)

	err := r.db.InTx(ctx, func(tx pgx.Tx) error {
		// Step 1: lock the ticket type row.
		var (
			ownerEventID string
			quantity     *int
			soldCount    int
			price        decimal.Decimal
		)
		err := tx.QueryRow(ctx,
			`SELECT event_id, quantity, sold_count, price
			 FROM ticket_types
			 WHERE id = $1
			 FOR UPDATE`,
			ticketTypeID,
		).Scan(&ownerEventID, &quantity, &soldCount, &price)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("lock ticket type: %w", err)
		}
		if ownerEventID != eventID {
			return ErrNotFound
		}

		// Step 2: reject a second registration of the same user.
		var exists bool
		err = tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM registrations WHERE event_id = $1 AND user_id = $2)`,
			eventID, userID,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check duplicate: %w", err)
		}
		if exists {
			return ErrAlreadyRegistered
		}

		// Step 3: guard against overselling.
		if quantity != nil && soldCount >= *quantity {
			return ErrSoldOut
		}

		// Step 4: insert the registration with its signed token.
		reg.Status = model.StatusPending
		if price.IsZero() {
			reg.Status = model.StatusConfirmed
		}
		err = tx.QueryRow(ctx,
			`INSERT INTO registrations (id, event_id, user_id, ticket_type_id, status, qr_token, qr_hmac, reg_data)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 RETURNING created_at, updated_at`,
			reg.ID, reg.EventID, reg.UserID, reg.TicketTypeID, reg.Status, reg.QrToken, reg.QrHmac, reg.Data,
		).Scan(&reg.CreatedAt, &reg.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert registration: %w", err)
		}

		// Step 5: increment the counter under the same lock.
		_, err = tx.Exec(ctx,
			`UPDATE ticket_types SET sold_count = sold_count + 1 WHERE id = $1`,
			ticketTypeID,
		)
		if err != nil {
			return fmt.Errorf("increment sold_count: %w", err)
		}
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound), errors.Is(err, ErrSoldOut), errors.Is(err, ErrAlreadyRegistered):
			return nil, err
		case database.IsUniqueViolation(err, constraintRegistrationEventUser):
			// Same user racing on two different ticket types.
			return nil, ErrAlreadyRegistered
		case database.IsForeignKeyViolation(err):
			return nil, ErrNotFound
		}
		return nil, wrap("create registration", err)
	}
	return reg, nil
}

// FindByID returns a registration or ErrNotFound.
func (r *RegistrationRepository) FindByID(ctx context.Context, id string) (*model.Registration, error) {
	return r.findOne(ctx, "find registration", `WHERE id = $1`, id)
}

// FindByQrToken resolves a decoded ticket token to its registration.
func (r *RegistrationRepository) FindByQrToken(ctx context.Context, token string) (*model.Registration, error) {
	return r.findOne(ctx, "find registration by token", `WHERE qr_token = $1`, token)
}

// FindByEventAndUser returns the user's registration for an event, if any.
func (r *RegistrationRepository) FindByEventAndUser(ctx context.Context, eventID, userID string) (*model.Registration, error) {
	return r.findOne(ctx, "find registration by user", `WHERE event_id = $1 AND user_id = $2`, eventID, userID)
}

func (r *RegistrationRepository) findOne(ctx context.Context, op, where string, args ...any) (*model.Registration, error) {
	reg, err := scanRegistration(r.db.QueryRow(ctx,
		`SELECT `+registrationColumns+` FROM registrations `+where, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, wrap(op, err)
	}
	return reg, nil
}

// ListByEvent returns registrations of an event, newest first.
func (r *RegistrationRepository) ListByEvent(ctx context.Context, eventID string, filter model.RegistrationFilter) ([]model.Registration, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + registrationColumns + ` FROM registrations WHERE event_id = $1`)
	args := []any{eventID}

	if filter.Status != "" {
		args = append(args, filter.Status)
		sb.WriteString(` AND status = $` + strconv.Itoa(len(args)))
	}
	if filter.TicketTypeID != "" {
		args = append(args, filter.TicketTypeID)
		sb.WriteString(` AND ticket_type_id = $` + strconv.Itoa(len(args)))
	}
	sb.WriteString(` ORDER BY created_at DESC`)

	rows, err := r.db.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, wrap("list registrations", err)
	}
	defer rows.Close()

	var regs []model.Registration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		regs = append(regs, *reg)
	}
	return regs, rows.Err()
}

// UpdateStatus moves a registration to status to. The move is a
// compare-and-set against the allowed-transition table; an illegal move
// returns ErrInvalidTransition and leaves the row untouched.
func (r *RegistrationRepository) UpdateStatus(ctx context.Context, id string, to model.RegistrationStatus) (*model.Registration, error) {
	if !to.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, to)
	}
	reg, err := scanRegistration(r.db.QueryRow(ctx,
		`UPDATE registrations
		 SET status = $2, updated_at = NOW()
		 WHERE id = $1 AND status = ANY($3::text[])
		 RETURNING `+registrationColumns,
		id, to, model.TransitionSources(to),
	))
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, wrap("update registration status", err)
		}
		if _, ferr := r.FindByID(ctx, id); ferr != nil {
			return nil, ferr
		}
		return nil, ErrInvalidTransition
	}
	return reg, nil
}

// FindDetails joins a registration with its event, ticket type and holder.
func (r *RegistrationRepository) FindDetails(ctx context.Context, id string) (*model.TicketDetails, error) {
	var d model.TicketDetails
	err := r.db.QueryRow(ctx,
		`SELECT r.id, r.qr_token, r.status, e.title, tt.name, tt.price,
		        u.first_name, u.last_name, u.telegram_id
		 FROM registrations r
		 JOIN events e ON e.id = r.event_id
		 JOIN ticket_types tt ON tt.id = r.ticket_type_id
		 JOIN users u ON u.id = r.user_id
		 WHERE r.id = $1`,
		id,
	).Scan(&d.RegistrationID, &d.QrToken, &d.Status, &d.EventTitle, &d.TicketTypeName, &d.Price,
		&d.FirstName, &d.LastName, &d.TelegramID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, wrap("find ticket details", err)
	}
	return &d, nil
}

// setRegistrationStatus is the in-transaction form of UpdateStatus. With
// allowSame an already-reached target counts as success. It reports whether
// a row matched.
func setRegistrationStatus(ctx context.Context, tx pgx.Tx, id string, to model.RegistrationStatus, allowSame bool) (bool, error) {
	from := model.TransitionSources(to)
	if allowSame {
		from = append(from, string(to))
	}
	tag, err := tx.Exec(ctx,
		`UPDATE registrations
		 SET status = $2, updated_at = NOW()
		 WHERE id = $1 AND status = ANY($3::text[])`,
		id, to, from,
	)
	if err != nil {
		return false, fmt.Errorf("set registration status: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
