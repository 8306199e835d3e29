package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/Shivanand-hulikatti/eventpass/internal/database"
	"github.com/Shivanand-hulikatti/eventpass/internal/model"
)

// ChannelRepository handles persistence for payment channels. Daily totals
// are read without locks: allocation is advisory, not a reservation.
type ChannelRepository struct {
	db *database.DB
}

func NewChannelRepository(db *database.DB) *ChannelRepository {
	return &ChannelRepository{db: db}
}

const channelColumns = `c.id, c.event_id, c.label, c.account_ref, c.daily_limit, c.is_active, c.sort_order, c.created_at`

func scanChannel(row rowScanner, extra ...any) (*model.PaymentChannel, error) {
	var (
		ch    model.PaymentChannel
		limit decimal.NullDecimal
	)
	dest := []any{&ch.ID, &ch.EventID, &ch.Label, &ch.AccountRef, &limit, &ch.IsActive, &ch.SortOrder, &ch.CreatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	if limit.Valid {
		ch.DailyLimit = &limit.Decimal
	}
	return &ch, nil
}

// Create adds a receiving channel to an event.
func (r *ChannelRepository) Create(ctx context.Context, ch model.PaymentChannel) (*model.PaymentChannel, error) {
	ch.ID = uuid.New().String()
	ch.IsActive = true
	ch.CreatedAt = time.Now().UTC()

	_, err := r.db.Exec(ctx,
		`INSERT INTO payment_channels (id, event_id, label, account_ref, daily_limit, is_active, sort_order, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		ch.ID, ch.EventID, ch.Label, ch.AccountRef, ch.DailyLimit, ch.IsActive, ch.SortOrder, ch.CreatedAt,
	)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return nil, ErrNotFound
		}
		return nil, wrap("insert payment channel", err)
	}
	return &ch, nil
}

func (r *ChannelRepository) GetByID(ctx context.Context, id string) (*model.PaymentChannel, error) {
	ch, err := scanChannel(r.db.QueryRow(ctx,
		`SELECT `+channelColumns+` FROM payment_channels c WHERE c.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, wrap("get payment channel", err)
	}
	return ch, nil
}

// SetActive enables or disables a channel for future allocations.
func (r *ChannelRepository) SetActive(ctx context.Context, id string, active bool) (*model.PaymentChannel, error) {
	ch, err := scanChannel(r.db.QueryRow(ctx,
		`UPDATE payment_channels c SET is_active = $2 WHERE c.id = $1 RETURNING `+channelColumns,
		id, active))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, wrap("set payment channel active", err)
	}
	return ch, nil
}

// ListActiveWithTotals returns the active channels of an event in priority
// order, each with the sum of payments confirmed on the store's current date.
func (r *ChannelRepository) ListActiveWithTotals(ctx context.Context, eventID string) ([]model.ChannelLoad, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+channelColumns+`,
		        COALESCE((
		            SELECT SUM(p.amount) FROM payments p
		            WHERE p.channel_id = c.id
		              AND p.status = 'confirmed'
		              AND p.confirmed_at::date = CURRENT_DATE
		        ), 0)
		 FROM payment_channels c
		 WHERE c.event_id = $1 AND c.is_active
		 ORDER BY c.sort_order ASC, c.created_at ASC`,
		eventID,
	)
	if err != nil {
		return nil, wrap("list active channels", err)
	}
	defer rows.Close()

	var loads []model.ChannelLoad
	for rows.Next() {
		var today decimal.Decimal
		ch, err := scanChannel(rows, &today)
		if err != nil {
			return nil, fmt.Errorf("scan channel load: %w", err)
		}
		loads = append(loads, model.ChannelLoad{Channel: *ch, TodayTotal: today})
	}
	return loads, rows.Err()
}

// Stats returns the all-time confirmed volume per channel of an event.
func (r *ChannelRepository) Stats(ctx context.Context, eventID string) ([]model.ChannelStats, error) {
	rows, err := r.db.Query(ctx,
		`SELECT c.id, c.label, COUNT(p.id)::int, COALESCE(SUM(p.amount), 0)
		 FROM payment_channels c
		 LEFT JOIN payments p ON p.channel_id = c.id AND p.status = 'confirmed'
		 WHERE c.event_id = $1
		 GROUP BY c.id
		 ORDER BY c.sort_order ASC, c.created_at ASC`,
		eventID,
	)
	if err != nil {
		return nil, wrap("channel stats", err)
	}
	defer rows.Close()

	var stats []model.ChannelStats
	for rows.Next() {
		var s model.ChannelStats
		if err := rows.Scan(&s.ChannelID, &s.Label, &s.PaymentCount, &s.TotalAmount); err != nil {
			return nil, fmt.Errorf("scan channel stats: %w", err)
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}
