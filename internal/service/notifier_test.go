package service

import (
	"context"
	"testing"

	"github.com/avdnv/exchange-miniapp/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleOrder() *models.Order {
	return &models.Order{
		ID:            42,
		UserID:        555000111,
		Status:        models.StatusPending,
		FullName:      "Ivan Petrov",
		Phone:         "+79001234567",
		Email:         "ivan@example.com",
		CurrencyFrom:  models.FiatCode,
		AmountFrom:    decimal.NewFromInt(100000),
		CurrencyTo:    "USDT",
		AmountTo:      decimal.NewFromFloat(1020.41),
		ExchangeRate:  decimal.NewFromFloat(98.0),
		WalletAddress: "TXmVthgtS4dEKbNAvcK83fFKD21mYqAmCf",
		BankCard:      "2200123456789010",
	}
}

func TestNotifyNewOrderFansOutToEveryAdmin(t *testing.T) {
	ledger := &memLedger{}
	messenger := newMemMessenger()
	notifier := NewNotifier(&memAdmins{ids: []int64{101, 102, 103}}, ledger, messenger, 0)

	order := sampleOrder()
	notifier.NotifyNewOrder(context.Background(), order, testUser())

	require.Len(t, messenger.sent, 3)
	for _, msg := range messenger.sent {
		assert.Equal(t, order.ID, msg.OrderID)
		assert.Equal(t, messenger.sent[0].Text, msg.Text)
	}

	records, err := ledger.ListNotificationsForOrder(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, records, 3)
	seen := map[int64]bool{}
	for _, rec := range records {
		assert.Equal(t, rec.AdminID, rec.ChatID)
		seen[rec.AdminID] = true
	}
	assert.Len(t, seen, 3)
}

func TestNotifyNewOrderContinuesPastFailedSend(t *testing.T) {
	ledger := &memLedger{}
	messenger := newMemMessenger()
	messenger.failSendTo[102] = true
	notifier := NewNotifier(&memAdmins{ids: []int64{101, 102, 103}}, ledger, messenger, 0)

	order := sampleOrder()
	notifier.NotifyNewOrder(context.Background(), order, testUser())

	require.Len(t, messenger.sent, 2)

	records, err := ledger.ListNotificationsForOrder(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, records, 2)
	for _, rec := range records {
		assert.NotEqual(t, int64(102), rec.AdminID)
	}
}

func TestNotifyNewOrderNoAdmins(t *testing.T) {
	ledger := &memLedger{}
	messenger := newMemMessenger()
	notifier := NewNotifier(&memAdmins{}, ledger, messenger, 0)

	notifier.NotifyNewOrder(context.Background(), sampleOrder(), testUser())

	assert.Empty(t, messenger.sent)
	assert.Empty(t, ledger.records)
}

func TestRenderOrderMessage(t *testing.T) {
	order := sampleOrder()
	text := RenderOrderMessage(order, testUser())

	assert.Contains(t, text, "Ордер #42")
	assert.Contains(t, text, "@ivanp")
	assert.Contains(t, text, "Ivan Petrov")
	// Fiat to crypto shows the wallet destination.
	assert.Contains(t, text, "Кошелек для получения :")
	assert.Contains(t, text, order.WalletAddress)
	assert.NotContains(t, text, "Карта для получения :")
	// Grouped amount with non-breaking spaces.
	assert.Contains(t, text, "100 000")
}

func TestRenderOrderMessageCryptoToFiat(t *testing.T) {
	order := sampleOrder()
	order.CurrencyFrom = "USDT"
	order.CurrencyTo = models.FiatCode
	text := RenderOrderMessage(order, testUser())

	assert.Contains(t, text, "Карта для получения :")
	assert.Contains(t, text, order.BankCard)
}

func TestRenderOrderMessageNoUsername(t *testing.T) {
	user := testUser()
	user.Username = ""
	text := RenderOrderMessage(sampleOrder(), user)
	assert.Contains(t, text, "не указан")

	text = RenderOrderMessage(sampleOrder(), nil)
	assert.Contains(t, text, "не указан")
}

func TestStatusAnnotation(t *testing.T) {
	confirmed := StatusAnnotation(models.StatusConfirmed, 101, "alice")
	assert.Equal(t, "\n\n✅ <b>ПОДТВЕРЖДЕНО</b>\nАдмин: @alice", confirmed)

	rejected := StatusAnnotation(models.StatusRejected, 101, "")
	assert.Equal(t, "\n\n❌ <b>ОТКЛОНЕНО</b>\nАдмин: 101", rejected)
}
