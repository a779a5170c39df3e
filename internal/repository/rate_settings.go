package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/avdnv/exchange-miniapp/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// GetRateSettings reads the singleton markup row. A missing row means
// zero markups attributed to "system".
func (r *Repository) GetRateSettings(ctx context.Context) (*models.RateSettings, error) {
	rs := &models.RateSettings{}
	query := `SELECT buy_markup_percent, sell_markup_percent, updated_by, updated_at FROM rate_settings WHERE id = 1`
	err := r.db.QueryRow(ctx, query).Scan(&rs.BuyMarkupPercent, &rs.SellMarkupPercent, &rs.UpdatedBy, &rs.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &models.RateSettings{
				BuyMarkupPercent:  decimal.Zero,
				SellMarkupPercent: decimal.Zero,
				UpdatedBy:         "system",
			}, nil
		}
		return nil, fmt.Errorf("failed to get rate settings: %w", err)
	}
	return rs, nil
}

func (r *Repository) SaveRateSettings(ctx context.Context, rs *models.RateSettings) error {
	query := `
		INSERT INTO rate_settings (id, buy_markup_percent, sell_markup_percent, updated_by, updated_at)
		VALUES (1, $1, $2, $3, NOW())
		ON CONFLICT (id)
		DO UPDATE SET buy_markup_percent = EXCLUDED.buy_markup_percent,
			sell_markup_percent = EXCLUDED.sell_markup_percent,
			updated_by = EXCLUDED.updated_by,
			updated_at = NOW()
		RETURNING updated_at
	`
	err := r.db.QueryRow(ctx, query, rs.BuyMarkupPercent, rs.SellMarkupPercent, rs.UpdatedBy).Scan(&rs.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save rate settings: %w", err)
	}
	return nil
}
