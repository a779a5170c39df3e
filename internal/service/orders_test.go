package service

import (
	"context"
	"sync"
	"testing"

	"github.com/avdnv/exchange-miniapp/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOrderService(adminIDs ...int64) (*OrderService, *memOrderStore, *memLedger, *memMessenger) {
	store := newMemOrderStore()
	ledger := &memLedger{}
	admins := &memAdmins{ids: adminIDs}
	messenger := newMemMessenger()
	notifier := NewNotifier(admins, ledger, messenger, 0)
	svc := NewOrderService(store, ledger, admins, notifier)
	return svc, store, ledger, messenger
}

func TestCreateOrderPersistsAndNotifies(t *testing.T) {
	svc, store, ledger, messenger := newTestOrderService(101, 102)

	order, err := svc.CreateOrder(context.Background(), testUser(), validIntent())
	require.NoError(t, err)
	require.NotNil(t, order)

	assert.Equal(t, models.StatusPending, order.Status)
	assert.NotZero(t, order.ID)
	assert.Equal(t, testUser().TelegramID, order.UserID)

	stored, err := store.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, stored.ID)

	require.Len(t, messenger.sent, 2)
	assert.Equal(t, int64(101), messenger.sent[0].ChatID)
	assert.Equal(t, int64(102), messenger.sent[1].ChatID)

	records, err := ledger.ListNotificationsForOrder(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, records, 2)
	for _, rec := range records {
		assert.Equal(t, order.ID, rec.OrderID)
		assert.NotZero(t, rec.MessageID)
	}
}

func TestCreateOrderValidation(t *testing.T) {
	svc, store, _, _ := newTestOrderService(101)

	cases := []struct {
		name   string
		mutate func(*OrderIntent)
	}{
		{"short name", func(in *OrderIntent) { in.FullName = "x" }},
		{"short phone", func(in *OrderIntent) { in.Phone = "123" }},
		{"bad email", func(in *OrderIntent) { in.Email = "not-an-email" }},
		{"empty currency", func(in *OrderIntent) { in.CurrencyFrom = "" }},
		{"zero amount", func(in *OrderIntent) { in.AmountFrom = decimal.Zero }},
		{"negative amount", func(in *OrderIntent) { in.AmountTo = decimal.NewFromInt(-5) }},
		{"zero rate", func(in *OrderIntent) { in.ExchangeRate = decimal.Zero }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			intent := validIntent()
			tc.mutate(&intent)
			_, err := svc.CreateOrder(context.Background(), testUser(), intent)
			assert.ErrorIs(t, err, models.ErrValidation)
		})
	}

	assert.Empty(t, store.orders)
}

func TestCancelOrderOwnerOnly(t *testing.T) {
	svc, _, _, _ := newTestOrderService(101)

	order, err := svc.CreateOrder(context.Background(), testUser(), validIntent())
	require.NoError(t, err)

	_, err = svc.CancelOrder(context.Background(), order.ID, order.UserID+1)
	assert.ErrorIs(t, err, models.ErrUnauthorized)

	cancelled, err := svc.CancelOrder(context.Background(), order.ID, order.UserID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)
}

func TestCancelOrderNotFound(t *testing.T) {
	svc, _, _, _ := newTestOrderService(101)
	_, err := svc.CancelOrder(context.Background(), 9999, 1)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestApplyAdminActionRejectsNonAdmin(t *testing.T) {
	svc, store, _, _ := newTestOrderService(101)

	order, err := svc.CreateOrder(context.Background(), testUser(), validIntent())
	require.NoError(t, err)

	_, _, err = svc.ApplyAdminAction(context.Background(), order.ID, models.StatusConfirmed, 999)
	assert.ErrorIs(t, err, models.ErrUnauthorized)

	current, err := store.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, current.Status)
}

func TestApplyAdminActionBadTarget(t *testing.T) {
	svc, _, _, _ := newTestOrderService(101)

	order, err := svc.CreateOrder(context.Background(), testUser(), validIntent())
	require.NoError(t, err)

	_, _, err = svc.ApplyAdminAction(context.Background(), order.ID, models.StatusCancelled, 101)
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestApplyAdminActionAfterCancelConflicts(t *testing.T) {
	svc, _, _, _ := newTestOrderService(101)

	order, err := svc.CreateOrder(context.Background(), testUser(), validIntent())
	require.NoError(t, err)

	_, err = svc.CancelOrder(context.Background(), order.ID, order.UserID)
	require.NoError(t, err)

	_, _, err = svc.ApplyAdminAction(context.Background(), order.ID, models.StatusConfirmed, 101)
	assert.ErrorIs(t, err, models.ErrInvalidTransition)
}

func TestApplyAdminActionReturnsLedgerRecords(t *testing.T) {
	svc, _, _, _ := newTestOrderService(101, 102, 103)

	order, err := svc.CreateOrder(context.Background(), testUser(), validIntent())
	require.NoError(t, err)

	updated, records, err := svc.ApplyAdminAction(context.Background(), order.ID, models.StatusRejected, 102)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, updated.Status)
	assert.Len(t, records, 3)
}

// Racing admin decisions must resolve to exactly one winner; the losers see
// a conflict and the final status is the winner's.
func TestConcurrentAdminActionsSingleWinner(t *testing.T) {
	svc, store, _, _ := newTestOrderService(101, 102)

	order, err := svc.CreateOrder(context.Background(), testUser(), validIntent())
	require.NoError(t, err)

	type outcome struct {
		target models.OrderStatus
		err    error
	}
	results := make(chan outcome, 2)
	var wg sync.WaitGroup
	start := make(chan struct{})

	attempt := func(adminID int64, target models.OrderStatus) {
		defer wg.Done()
		<-start
		_, _, err := svc.ApplyAdminAction(context.Background(), order.ID, target, adminID)
		results <- outcome{target: target, err: err}
	}

	wg.Add(2)
	go attempt(101, models.StatusConfirmed)
	go attempt(102, models.StatusRejected)
	close(start)
	wg.Wait()
	close(results)

	var winners []models.OrderStatus
	var conflicts int
	for res := range results {
		if res.err == nil {
			winners = append(winners, res.target)
			continue
		}
		assert.ErrorIs(t, res.err, models.ErrInvalidTransition)
		conflicts++
	}

	require.Len(t, winners, 1)
	assert.Equal(t, 1, conflicts)

	final, err := store.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, winners[0], final.Status)
	assert.True(t, final.Status.Terminal())
}
