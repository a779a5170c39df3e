package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/avdnv/exchange-miniapp/internal/models"
	"github.com/jackc/pgx/v5"
)

const orderColumns = `id, user_id, status, full_name, phone, email,
	currency_from, amount_from, currency_to, amount_to, exchange_rate,
	wallet_address, bank_card, created_at`

func scanOrder(row pgx.Row) (*models.Order, error) {
	o := &models.Order{}
	err := row.Scan(
		&o.ID, &o.UserID, &o.Status, &o.FullName, &o.Phone, &o.Email,
		&o.CurrencyFrom, &o.AmountFrom, &o.CurrencyTo, &o.AmountTo, &o.ExchangeRate,
		&o.WalletAddress, &o.BankCard, &o.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return o, nil
}

// CreateOrder persists a new order with status pending and fills in the
// assigned id and creation time.
func (r *Repository) CreateOrder(ctx context.Context, o *models.Order) error {
	query := `
		INSERT INTO orders (user_id, status, full_name, phone, email,
			currency_from, amount_from, currency_to, amount_to, exchange_rate,
			wallet_address, bank_card, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW())
		RETURNING id, created_at
	`
	o.Status = models.StatusPending
	err := r.db.QueryRow(ctx, query,
		o.UserID, o.Status, o.FullName, o.Phone, o.Email,
		o.CurrencyFrom, o.AmountFrom, o.CurrencyTo, o.AmountTo, o.ExchangeRate,
		o.WalletAddress, o.BankCard,
	).Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

func (r *Repository) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	o, err := scanOrder(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return o, nil
}

func (r *Repository) ListOrdersByUser(ctx context.Context, userID int64) ([]models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

// ListOrders returns a filtered, paginated order page plus the total count
// matching the filter.
func (r *Repository) ListOrders(ctx context.Context, filter models.OrderFilter) ([]models.Order, int64, error) {
	var conds []string
	var args []any

	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.OrderID != nil {
		add("id = $%d", *filter.OrderID)
	}
	if filter.Status != nil {
		add("status = $%d", *filter.Status)
	}
	if filter.AmountMin != nil {
		add("amount_from >= $%d", *filter.AmountMin)
	}
	if filter.AmountMax != nil {
		add("amount_from <= $%d", *filter.AmountMax)
	}
	if filter.DateFrom != nil {
		add("created_at >= $%d", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		add("created_at <= $%d", *filter.DateTo)
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM orders`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	query := fmt.Sprintf(`SELECT %s FROM orders%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		orderColumns, where, len(args)+1, len(args)+2)
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	return orders, total, rows.Err()
}

// TransitionStatus moves an order from one status to another with a
// compare-and-swap on the stored status: the UPDATE only matches while the
// persisted status still equals the expected prior value, so of two racing
// callers exactly one succeeds. The loser gets ErrInvalidTransition and must
// not touch any notification copy.
func (r *Repository) TransitionStatus(ctx context.Context, id int64, from, to models.OrderStatus) (*models.Order, error) {
	query := `UPDATE orders SET status = $1 WHERE id = $2 AND status = $3 RETURNING ` + orderColumns
	o, err := scanOrder(r.db.QueryRow(ctx, query, to, id, from))
	if err == nil {
		return o, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to transition order status: %w", err)
	}

	// CAS missed: distinguish an unknown order from one that already left
	// the expected status.
	if _, err := r.GetOrder(ctx, id); err != nil {
		return nil, err
	}
	return nil, models.ErrInvalidTransition
}
