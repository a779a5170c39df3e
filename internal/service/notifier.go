package service

import (
	"context"
	"fmt"
	"time"

	"github.com/avdnv/exchange-miniapp/internal/models"
	"github.com/avdnv/exchange-miniapp/internal/observability"
	"go.uber.org/zap"
)

// Notifier fans one order notification out to every current admin and
// records each successful delivery in the ledger. Delivery is fire-and-forget
// relative to order persistence: a failed send is logged and skipped, never
// surfaced to the requester.
type Notifier struct {
	admins      AdminDirectory
	ledger      NotificationLedger
	messenger   Messenger
	sendTimeout time.Duration
}

func NewNotifier(admins AdminDirectory, ledger NotificationLedger, messenger Messenger, sendTimeout time.Duration) *Notifier {
	if sendTimeout <= 0 {
		sendTimeout = 5 * time.Second
	}
	return &Notifier{
		admins:      admins,
		ledger:      ledger,
		messenger:   messenger,
		sendTimeout: sendTimeout,
	}
}

// NotifyNewOrder composes the notification for a freshly created order and
// delivers it to every admin in the current directory snapshot. Each send is
// independent; one failing recipient does not abort the rest.
func (n *Notifier) NotifyNewOrder(ctx context.Context, order *models.Order, user *models.User) {
	adminIDs, err := n.admins.AdminIDs(ctx)
	if err != nil {
		zap.L().Error("failed to load admin directory, notification skipped",
			zap.Error(err), zap.Int64("order_id", order.ID))
		return
	}
	if len(adminIDs) == 0 {
		zap.L().Warn("no admins configured, order notification not sent",
			zap.Int64("order_id", order.ID))
		return
	}

	text := RenderOrderMessage(order, user)

	for _, adminID := range adminIDs {
		sendCtx, cancel := context.WithTimeout(ctx, n.sendTimeout)
		loc, err := n.messenger.SendOrderMessage(sendCtx, adminID, text, order.ID)
		cancel()
		if err != nil {
			observability.IncrementNotification("send_failed")
			zap.L().Warn("failed to send order notification",
				zap.Error(err),
				zap.Int64("order_id", order.ID),
				zap.Int64("admin_id", adminID))
			continue
		}
		observability.IncrementNotification("sent")

		rec := &models.NotificationRecord{
			OrderID:        order.ID,
			AdminID:        adminID,
			MessageLocator: loc,
		}
		if err := n.ledger.RecordNotification(ctx, rec); err != nil {
			zap.L().Error("failed to record notification delivery",
				zap.Error(err),
				zap.Int64("order_id", order.ID),
				zap.Int64("admin_id", adminID))
		}
	}
}

// RenderOrderMessage builds the admin notification text. The template is
// selected by the derived direction: fiat-to-crypto orders show the wallet
// address, crypto-to-fiat orders show the bank card.
func RenderOrderMessage(order *models.Order, user *models.User) string {
	username := "не указан"
	if user != nil && user.Username != "" {
		username = "@" + user.Username
	}

	payoutLabel := "Кошелек для получения :"
	if !order.FiatToCrypto() {
		payoutLabel = "Карта для получения :"
	}

	return fmt.Sprintf(`Ордер #%d
Имя пользователя в Telegram
(никнейм) : %s
Имя и Фамилия : %s
Номер телефона : %s
Адрес электронной почты :
%s
Что у меня есть (нета) : %s %s
Сколько нужно (монета ) : %s %s
Курс : %s
%s
%s`,
		order.ID,
		username,
		order.FullName,
		order.Phone,
		order.Email,
		order.CurrencyFrom, formatAmount(order.AmountFrom),
		order.CurrencyTo, formatAmount(order.AmountTo),
		formatAmount(order.ExchangeRate),
		payoutLabel,
		order.PayoutTarget(),
	)
}

// StatusAnnotation is the block appended to every notification copy once an
// admin has acted. The admin is named by public handle when available, by
// numeric id otherwise.
func StatusAnnotation(status models.OrderStatus, adminID int64, adminUsername string) string {
	handle := fmt.Sprintf("%d", adminID)
	if adminUsername != "" {
		handle = "@" + adminUsername
	}
	label := "✅ <b>ПОДТВЕРЖДЕНО</b>"
	if status == models.StatusRejected {
		label = "❌ <b>ОТКЛОНЕНО</b>"
	}
	return fmt.Sprintf("\n\n%s\nАдмин: %s", label, handle)
}
