package repository

import (
	"context"
	"fmt"

	"github.com/avdnv/exchange-miniapp/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// UpsertUser records a Telegram user on first contact and refreshes the
// profile fields on every authenticated request.
func (r *Repository) UpsertUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (telegram_id, username, first_name, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (telegram_id)
		DO UPDATE SET username = EXCLUDED.username, first_name = EXCLUDED.first_name
		RETURNING created_at
	`
	err := r.db.QueryRow(ctx, query, user.TelegramID, user.Username, user.FirstName).Scan(&user.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

func (r *Repository) GetUser(ctx context.Context, telegramID int64) (*models.User, error) {
	user := &models.User{}
	query := `SELECT telegram_id, username, first_name, created_at FROM users WHERE telegram_id = $1`
	err := r.db.QueryRow(ctx, query, telegramID).Scan(&user.TelegramID, &user.Username, &user.FirstName, &user.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}
