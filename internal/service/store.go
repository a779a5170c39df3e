package service

import (
	"context"

	"github.com/avdnv/exchange-miniapp/internal/models"
)

// OrderStore is the persistence contract for orders. Implemented by
// repository.Repository; tests substitute an in-memory version.
type OrderStore interface {
	CreateOrder(ctx context.Context, o *models.Order) error
	GetOrder(ctx context.Context, id int64) (*models.Order, error)
	ListOrdersByUser(ctx context.Context, userID int64) ([]models.Order, error)
	ListOrders(ctx context.Context, filter models.OrderFilter) ([]models.Order, int64, error)
	TransitionStatus(ctx context.Context, id int64, from, to models.OrderStatus) (*models.Order, error)
}

// NotificationLedger records and lists delivered notification copies.
type NotificationLedger interface {
	RecordNotification(ctx context.Context, rec *models.NotificationRecord) error
	ListNotificationsForOrder(ctx context.Context, orderID int64) ([]models.NotificationRecord, error)
}

// AdminDirectory resolves the current admin recipient set. Snapshots are
// re-fetched on every use; no caching is assumed.
type AdminDirectory interface {
	AdminIDs(ctx context.Context) ([]int64, error)
}

// Messenger is the outbound messaging transport. Both calls are best-effort
// remote operations with short timeouts; failures are per-recipient and
// never fatal to the triggering operation.
type Messenger interface {
	SendOrderMessage(ctx context.Context, chatID int64, text string, orderID int64) (models.MessageLocator, error)
	EditMessage(ctx context.Context, loc models.MessageLocator, text string) error
}
