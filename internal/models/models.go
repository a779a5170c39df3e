package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// FiatCode is the fiat side of every exchange pair. An order whose source
// currency equals FiatCode is a fiat-to-crypto order (payout to a wallet);
// anything else pays out to a bank card.
const FiatCode = "RUB"

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusConfirmed OrderStatus = "confirmed"
	StatusRejected  OrderStatus = "rejected"
	StatusCancelled OrderStatus = "cancelled"
)

// Terminal reports whether no further transition may leave the status.
func (s OrderStatus) Terminal() bool {
	return s == StatusConfirmed || s == StatusRejected || s == StatusCancelled
}

// Order is a user-submitted exchange request. Intent fields are immutable
// after creation; only Status ever changes, and only out of pending.
type Order struct {
	ID     int64       `json:"id"`
	UserID int64       `json:"user_id"`
	Status OrderStatus `json:"status"`

	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`

	CurrencyFrom string          `json:"currency_from"`
	AmountFrom   decimal.Decimal `json:"amount_from"`
	CurrencyTo   string          `json:"currency_to"`
	AmountTo     decimal.Decimal `json:"amount_to"`
	ExchangeRate decimal.Decimal `json:"exchange_rate"`

	WalletAddress string `json:"wallet_address"`
	BankCard      string `json:"bank_card"`

	CreatedAt time.Time `json:"created_at"`
}

// FiatToCrypto derives the order direction from the source currency.
// It decides which payout-target field is active and which notification
// template applies.
func (o *Order) FiatToCrypto() bool {
	return o.CurrencyFrom == FiatCode
}

// PayoutTarget returns the payout field relevant to the order direction.
func (o *Order) PayoutTarget() string {
	if o.FiatToCrypto() {
		return o.WalletAddress
	}
	return o.BankCard
}

// MessageLocator identifies one delivered Telegram message so it can be
// edited later.
type MessageLocator struct {
	ChatID    int64 `json:"chat_id"`
	MessageID int   `json:"message_id"`
}

// NotificationRecord maps (order, admin) to the message copy delivered to
// that admin. Created once per successful send, never mutated.
type NotificationRecord struct {
	ID      int64 `json:"id"`
	OrderID int64 `json:"order_id"`
	AdminID int64 `json:"admin_id"`
	MessageLocator
}

// User is a Telegram user seen through Mini-App authentication.
type User struct {
	TelegramID int64     `json:"telegram_id"`
	Username   string    `json:"username"`
	FirstName  string    `json:"first_name"`
	CreatedAt  time.Time `json:"created_at"`
}

// RateSettings is the singleton markup configuration applied on top of raw
// exchange rates. Negative markup is a discount.
type RateSettings struct {
	BuyMarkupPercent  decimal.Decimal `json:"buy_markup_percent"`
	SellMarkupPercent decimal.Decimal `json:"sell_markup_percent"`
	UpdatedBy         string          `json:"updated_by"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// OrderFilter narrows admin order listings.
type OrderFilter struct {
	OrderID   *int64
	Status    *OrderStatus
	AmountMin *decimal.Decimal
	AmountMax *decimal.Decimal
	DateFrom  *time.Time
	DateTo    *time.Time
	Page      int
	PageSize  int
}
