package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Shivanand-hulikatti/eventpass/internal/database"
	"github.com/Shivanand-hulikatti/eventpass/internal/model"
)

// EventRepository handles persistence for events and their ticket types.
type EventRepository struct {
	db *database.DB
}

// NewEventRepository constructs an EventRepository.
func NewEventRepository(db *database.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Create inserts a new event and returns it with a generated UUID.
func (r *EventRepository) Create(ctx context.Context, title string) (*model.Event, error) {
	event := &model.Event{
		ID:        uuid.New().String(),
		Title:     title,
		CreatedAt: time.Now().UTC(),
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO events (id, title, created_at) VALUES ($1, $2, $3)`,
		event.ID, event.Title, event.CreatedAt,
	)
	if err != nil {
		return nil, wrap("insert event", err)
	}
	return event, nil
}

// GetByID returns a single event or ErrNotFound.
func (r *EventRepository) GetByID(ctx context.Context, id string) (*model.Event, error) {
	var e model.Event
	err := r.db.QueryRow(ctx,
		`SELECT id, title, created_at FROM events WHERE id = $1`,
		id,
	).Scan(&e.ID, &e.Title, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, wrap("get event", err)
	}
	return &e, nil
}

const ticketTypeColumns = `id, event_id, name, price, quantity, sold_count, created_at`

func scanTicketType(row rowScanner) (*model.TicketType, error) {
	var t model.TicketType
	if err := row.Scan(&t.ID, &t.EventID, &t.Name, &t.Price, &t.Quantity, &t.SoldCount, &t.CreatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateTicketType adds an inventory line to an existing event.
func (r *EventRepository) CreateTicketType(ctx context.Context, t model.TicketType) (*model.TicketType, error) {
	t.ID = uuid.New().String()
	t.SoldCount = 0
	t.CreatedAt = time.Now().UTC()

	_, err := r.db.Exec(ctx,
		`INSERT INTO ticket_types (id, event_id, name, price, quantity, sold_count, created_at)
		 VALUES ($1, $2, $3, $4, $5, 0, $6)`,
		t.ID, t.EventID, t.Name, t.Price, t.Quantity, t.CreatedAt,
	)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return nil, ErrNotFound
		}
		return nil, wrap("insert ticket type", err)
	}
	return &t, nil
}

// GetTicketType returns a ticket type without locking it.
func (r *EventRepository) GetTicketType(ctx context.Context, id string) (*model.TicketType, error) {
	t, err := scanTicketType(r.db.QueryRow(ctx,
		`SELECT `+ticketTypeColumns+` FROM ticket_types WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, wrap("get ticket type", err)
	}
	return t, nil
}

// ListTicketTypes returns the ticket types of an event in creation order.
func (r *EventRepository) ListTicketTypes(ctx context.Context, eventID string) ([]model.TicketType, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+ticketTypeColumns+` FROM ticket_types WHERE event_id = $1 ORDER BY created_at ASC`,
		eventID,
	)
	if err != nil {
		return nil, wrap("list ticket types", err)
	}
	defer rows.Close()

	var types []model.TicketType
	for rows.Next() {
		t, err := scanTicketType(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ticket type: %w", err)
		}
		types = append(types, *t)
	}
	return types, rows.Err()
}
