package repository

import (
	"context"
	"fmt"

	"github.com/avdnv/exchange-miniapp/internal/models"
)

// RecordNotification appends one delivery record. The ledger is append-only;
// records are never updated or deleted.
func (r *Repository) RecordNotification(ctx context.Context, rec *models.NotificationRecord) error {
	query := `
		INSERT INTO order_notifications (order_id, admin_id, chat_id, message_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	err := r.db.QueryRow(ctx, query, rec.OrderID, rec.AdminID, rec.ChatID, rec.MessageID).Scan(&rec.ID)
	if err != nil {
		return fmt.Errorf("failed to record notification: %w", err)
	}
	return nil
}

// ListNotificationsForOrder returns every delivery record for the order.
// An order with no successful deliveries yields an empty slice, not an error.
func (r *Repository) ListNotificationsForOrder(ctx context.Context, orderID int64) ([]models.NotificationRecord, error) {
	query := `SELECT id, order_id, admin_id, chat_id, message_id FROM order_notifications WHERE order_id = $1`
	rows, err := r.db.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var records []models.NotificationRecord
	for rows.Next() {
		var rec models.NotificationRecord
		if err := rows.Scan(&rec.ID, &rec.OrderID, &rec.AdminID, &rec.ChatID, &rec.MessageID); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
