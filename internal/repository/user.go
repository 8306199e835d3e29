package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Shivanand-hulikatti/eventpass/internal/database"
	"github.com/Shivanand-hulikatti/eventpass/internal/model"
)

// UserRepository stores ticket holders as known to the messaging front-end.
type UserRepository struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

// EnsureByTelegramID returns the user bound to telegramID, creating it on
// first contact and refreshing the name otherwise.
func (r *UserRepository) EnsureByTelegramID(ctx context.Context, telegramID int64, firstName, lastName string) (*model.User, error) {
	var u model.User
	err := r.db.QueryRow(ctx,
		`INSERT INTO users (id, telegram_id, first_name, last_name)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (telegram_id) DO UPDATE
		 SET first_name = EXCLUDED.first_name, last_name = EXCLUDED.last_name
		 RETURNING id, telegram_id, first_name, last_name, created_at`,
		uuid.New().String(), telegramID, firstName, lastName,
	).Scan(&u.ID, &u.TelegramID, &u.FirstName, &u.LastName, &u.CreatedAt)
	if err != nil {
		return nil, wrap("ensure user", err)
	}
	return &u, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	err := r.db.QueryRow(ctx,
		`SELECT id, telegram_id, first_name, last_name, created_at FROM users WHERE id = $1`,
		id,
	).Scan(&u.ID, &u.TelegramID, &u.FirstName, &u.LastName, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, wrap("get user", err)
	}
	return &u, nil
}
