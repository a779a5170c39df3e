package service

import (
	"context"
	"sync"
	"time"

	"github.com/avdnv/exchange-miniapp/internal/models"
	"github.com/shopspring/decimal"
)

// In-memory doubles for the store, ledger, directory and messenger. The
// order store reproduces the compare-and-swap semantics of the SQL
// implementation under a mutex, so the concurrency tests exercise the same
// single-winner guarantee.

type memOrderStore struct {
	mu     sync.Mutex
	nextID int64
	orders map[int64]models.Order
}

func newMemOrderStore() *memOrderStore {
	return &memOrderStore{orders: make(map[int64]models.Order)}
}

func (s *memOrderStore) CreateOrder(ctx context.Context, o *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	o.ID = s.nextID
	o.Status = models.StatusPending
	o.CreatedAt = time.Now()
	s.orders[o.ID] = *o
	return nil
}

func (s *memOrderStore) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &o, nil
}

func (s *memOrderStore) ListOrdersByUser(ctx context.Context, userID int64) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Order
	for _, o := range s.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *memOrderStore) ListOrders(ctx context.Context, filter models.OrderFilter) ([]models.Order, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Order
	for _, o := range s.orders {
		if filter.Status != nil && o.Status != *filter.Status {
			continue
		}
		out = append(out, o)
	}
	return out, int64(len(out)), nil
}

func (s *memOrderStore) TransitionStatus(ctx context.Context, id int64, from, to models.OrderStatus) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if o.Status != from {
		return nil, models.ErrInvalidTransition
	}
	o.Status = to
	s.orders[id] = o
	return &o, nil
}

type memLedger struct {
	mu      sync.Mutex
	nextID  int64
	records []models.NotificationRecord
	failAll bool
}

func (l *memLedger) RecordNotification(ctx context.Context, rec *models.NotificationRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failAll {
		return context.DeadlineExceeded
	}
	l.nextID++
	rec.ID = l.nextID
	l.records = append(l.records, *rec)
	return nil
}

func (l *memLedger) ListNotificationsForOrder(ctx context.Context, orderID int64) ([]models.NotificationRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []models.NotificationRecord
	for _, rec := range l.records {
		if rec.OrderID == orderID {
			out = append(out, rec)
		}
	}
	return out, nil
}

type memAdmins struct {
	ids []int64
	err error
}

func (a *memAdmins) AdminIDs(ctx context.Context) ([]int64, error) {
	return a.ids, a.err
}

type sentMessage struct {
	ChatID  int64
	Text    string
	OrderID int64
}

type editedMessage struct {
	Locator models.MessageLocator
	Text    string
}

type memMessenger struct {
	mu            sync.Mutex
	nextMessageID int
	sent          []sentMessage
	edits         []editedMessage
	failSendTo    map[int64]bool
	failEditAt    map[models.MessageLocator]bool
}

func newMemMessenger() *memMessenger {
	return &memMessenger{
		failSendTo: make(map[int64]bool),
		failEditAt: make(map[models.MessageLocator]bool),
	}
}

func (m *memMessenger) SendOrderMessage(ctx context.Context, chatID int64, text string, orderID int64) (models.MessageLocator, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSendTo[chatID] {
		return models.MessageLocator{}, context.DeadlineExceeded
	}
	m.nextMessageID++
	m.sent = append(m.sent, sentMessage{ChatID: chatID, Text: text, OrderID: orderID})
	return models.MessageLocator{ChatID: chatID, MessageID: m.nextMessageID}, nil
}

func (m *memMessenger) EditMessage(ctx context.Context, loc models.MessageLocator, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failEditAt[loc] {
		return context.DeadlineExceeded
	}
	m.edits = append(m.edits, editedMessage{Locator: loc, Text: text})
	return nil
}

func (m *memMessenger) editedLocators() []models.MessageLocator {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.MessageLocator, 0, len(m.edits))
	for _, e := range m.edits {
		out = append(out, e.Locator)
	}
	return out
}

func validIntent() OrderIntent {
	return OrderIntent{
		FullName:      "Ivan Petrov",
		Phone:         "+79001234567",
		Email:         "ivan@example.com",
		CurrencyFrom:  "RUB",
		AmountFrom:    decimal.NewFromInt(100000),
		CurrencyTo:    "USDT",
		AmountTo:      decimal.NewFromFloat(1020.41),
		ExchangeRate:  decimal.NewFromFloat(98.0),
		WalletAddress: "TXmVthgtS4dEKbNAvcK83fFKD21mYqAmCf",
	}
}

func testUser() *models.User {
	return &models.User{TelegramID: 555000111, Username: "ivanp", FirstName: "Ivan"}
}
