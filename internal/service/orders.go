package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/avdnv/exchange-miniapp/internal/models"
	"github.com/avdnv/exchange-miniapp/internal/observability"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OrderService owns the order lifecycle: intake with validation, reads, the
// requester cancel path and the admin-action path. Status mutations go
// through the store's compare-and-swap transition, which is the single
// serialization point for racing admin clicks.
type OrderService struct {
	store    OrderStore
	ledger   NotificationLedger
	admins   AdminDirectory
	notifier *Notifier
}

func NewOrderService(store OrderStore, ledger NotificationLedger, admins AdminDirectory, notifier *Notifier) *OrderService {
	return &OrderService{
		store:    store,
		ledger:   ledger,
		admins:   admins,
		notifier: notifier,
	}
}

// OrderIntent holds the immutable fields of a new order.
type OrderIntent struct {
	FullName     string          `json:"full_name"`
	Phone        string          `json:"phone"`
	Email        string          `json:"email"`
	CurrencyFrom string          `json:"currency_from"`
	AmountFrom   decimal.Decimal `json:"amount_from"`
	CurrencyTo   string          `json:"currency_to"`
	AmountTo     decimal.Decimal `json:"amount_to"`
	ExchangeRate decimal.Decimal `json:"exchange_rate"`
	WalletAddress string         `json:"wallet_address"`
	BankCard      string         `json:"bank_card"`
}

func (in *OrderIntent) validate() error {
	fail := func(msg string) error {
		return fmt.Errorf("%w: %s", models.ErrValidation, msg)
	}

	if l := len(strings.TrimSpace(in.FullName)); l < 2 || l > 255 {
		return fail("full_name must be 2-255 characters")
	}
	if l := len(strings.TrimSpace(in.Phone)); l < 5 || l > 50 {
		return fail("phone must be 5-50 characters")
	}
	email := strings.TrimSpace(in.Email)
	if len(email) == 0 || len(email) > 255 || !strings.Contains(email, "@") {
		return fail("email is invalid")
	}
	if l := len(in.CurrencyFrom); l < 1 || l > 20 {
		return fail("currency_from must be 1-20 characters")
	}
	if l := len(in.CurrencyTo); l < 1 || l > 20 {
		return fail("currency_to must be 1-20 characters")
	}
	if !in.AmountFrom.IsPositive() {
		return fail("amount_from must be positive")
	}
	if !in.AmountTo.IsPositive() {
		return fail("amount_to must be positive")
	}
	if !in.ExchangeRate.IsPositive() {
		return fail("exchange_rate must be positive")
	}
	if len(in.WalletAddress) > 255 {
		return fail("wallet_address too long")
	}
	if len(in.BankCard) > 50 {
		return fail("bank_card too long")
	}
	return nil
}

// CreateOrder validates and persists a new pending order, then fans out the
// admin notification. The notification is a side effect: by the time it runs
// the order is already persisted, so delivery failures never fail creation.
func (s *OrderService) CreateOrder(ctx context.Context, user *models.User, intent OrderIntent) (*models.Order, error) {
	if err := intent.validate(); err != nil {
		return nil, err
	}

	order := &models.Order{
		UserID:        user.TelegramID,
		FullName:      strings.TrimSpace(intent.FullName),
		Phone:         strings.TrimSpace(intent.Phone),
		Email:         strings.TrimSpace(intent.Email),
		CurrencyFrom:  intent.CurrencyFrom,
		AmountFrom:    intent.AmountFrom,
		CurrencyTo:    intent.CurrencyTo,
		AmountTo:      intent.AmountTo,
		ExchangeRate:  intent.ExchangeRate,
		WalletAddress: intent.WalletAddress,
		BankCard:      intent.BankCard,
	}
	if err := s.store.CreateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	observability.IncrementOrderCreated()

	if s.notifier != nil {
		s.notifier.NotifyNewOrder(ctx, order, user)
	}
	return order, nil
}

func (s *OrderService) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	return s.store.GetOrder(ctx, id)
}

func (s *OrderService) ListUserOrders(ctx context.Context, userID int64) ([]models.Order, error) {
	return s.store.ListOrdersByUser(ctx, userID)
}

func (s *OrderService) ListOrders(ctx context.Context, filter models.OrderFilter) ([]models.Order, int64, error) {
	return s.store.ListOrders(ctx, filter)
}

// CancelOrder moves a pending order to cancelled on behalf of its requester.
// Only the original requester may cancel, with the same compare-and-swap
// discipline as admin transitions.
func (s *OrderService) CancelOrder(ctx context.Context, orderID, requesterID int64) (*models.Order, error) {
	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != requesterID {
		return nil, models.ErrUnauthorized
	}
	updated, err := s.store.TransitionStatus(ctx, orderID, models.StatusPending, models.StatusCancelled)
	if err != nil {
		return nil, err
	}
	observability.IncrementAdminAction("cancelled")
	return updated, nil
}

// ApplyAdminAction performs the backend half of the status-transition
// protocol: authorization against the current admin set, the single
// compare-and-swap on the order status, and the ledger read that tells the
// caller which message copies to edit. No message is touched here; the
// cross-copy edits belong to the process that owns the messaging transport.
func (s *OrderService) ApplyAdminAction(ctx context.Context, orderID int64, target models.OrderStatus, adminID int64) (*models.Order, []models.NotificationRecord, error) {
	if target != models.StatusConfirmed && target != models.StatusRejected {
		return nil, nil, fmt.Errorf("%w: target status must be confirmed or rejected", models.ErrValidation)
	}

	isAdmin, err := s.isAdmin(ctx, adminID)
	if err != nil {
		zap.L().Error("admin directory check failed", zap.Error(err), zap.Int64("admin_id", adminID))
		return nil, nil, models.ErrUnauthorized
	}
	if !isAdmin {
		return nil, nil, models.ErrUnauthorized
	}

	order, err := s.store.TransitionStatus(ctx, orderID, models.StatusPending, target)
	if err != nil {
		if errors.Is(err, models.ErrInvalidTransition) {
			observability.IncrementAdminAction("redundant")
		}
		return nil, nil, err
	}
	observability.IncrementAdminAction(string(target))

	records, err := s.ledger.ListNotificationsForOrder(ctx, orderID)
	if err != nil {
		// The transition already committed; a ledger read failure only
		// costs the edit fan-out, not the authoritative state.
		zap.L().Error("failed to list notification records",
			zap.Error(err), zap.Int64("order_id", orderID))
		records = nil
	}
	return order, records, nil
}

func (s *OrderService) isAdmin(ctx context.Context, id int64) (bool, error) {
	adminIDs, err := s.admins.AdminIDs(ctx)
	if err != nil {
		return false, err
	}
	for _, adminID := range adminIDs {
		if adminID == id {
			return true, nil
		}
	}
	return false, nil
}
