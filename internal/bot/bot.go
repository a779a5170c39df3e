// Package bot runs the Telegram-facing process: the update loop, the /start
// entry point into the Mini App, and the callback path that turns admin
// button presses into backend transitions plus cross-copy message edits.
package bot

import (
	"context"
	"errors"

	"github.com/avdnv/exchange-miniapp/internal/models"
	"github.com/avdnv/exchange-miniapp/internal/service"
	"github.com/avdnv/exchange-miniapp/internal/telegram"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const (
	ackConfirmed   = "✅ Заказ подтвержден!"
	ackRejected    = "❌ Заказ отклонен!"
	ackNoRights    = "❌ У вас нет прав для этого действия"
	ackAlreadyDone = "ℹ️ Заказ уже обработан"
	ackFailed      = "⚠️ Не удалось обработать заказ, попробуйте позже"
)

// Bot wires the Telegram update stream to the action coordinator.
type Bot struct {
	client      *telegram.Client
	coordinator *service.Coordinator
	webAppURL   string
}

func New(client *telegram.Client, coordinator *service.Coordinator, webAppURL string) *Bot {
	return &Bot{
		client:      client,
		coordinator: coordinator,
		webAppURL:   webAppURL,
	}
}

// Run consumes updates until the context is cancelled. Each update is
// handled synchronously; the Bot API long poll provides natural pacing.
func (b *Bot) Run(ctx context.Context) error {
	api := b.client.API()

	updateCfg := tgbotapi.NewUpdate(0)
	updateCfg.Timeout = 60
	updates := api.GetUpdatesChan(updateCfg)

	zap.L().Info("bot update loop started", zap.String("username", api.Self.UserName))

	for {
		select {
		case <-ctx.Done():
			api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.IsCommand():
		b.handleCommand(update.Message)
	}
}

func (b *Bot) handleCommand(msg *tgbotapi.Message) {
	if msg.Command() != "start" {
		return
	}

	reply := tgbotapi.NewMessage(msg.Chat.ID,
		"Добро пожаловать! Нажмите кнопку ниже, чтобы открыть обменник.")
	reply.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.InlineKeyboardButton{
				Text:   "💱 Открыть обменник",
				WebApp: &tgbotapi.WebAppInfo{URL: b.webAppURL},
			},
		),
	)
	if _, err := b.client.API().Send(reply); err != nil {
		zap.L().Warn("failed to send start reply", zap.Error(err), zap.Int64("chat_id", msg.Chat.ID))
	}
}

// handleCallback is the admin decision path. The callback is answered in
// every branch; an unanswered callback leaves the admin's client spinning.
func (b *Bot) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	action, err := telegram.DecodeCallback(query.Data)
	if err != nil {
		zap.L().Warn("unrecognized callback", zap.Error(err), zap.String("data", query.Data))
		b.answer(query.ID, ackFailed, true)
		return
	}

	actor := service.AdminActor{
		ID:       query.From.ID,
		Username: query.From.UserName,
	}

	var origin *models.MessageLocator
	originText := ""
	if query.Message != nil {
		origin = &models.MessageLocator{
			ChatID:    query.Message.Chat.ID,
			MessageID: query.Message.MessageID,
		}
		originText = query.Message.Text
	}

	result, err := b.coordinator.HandleAction(ctx, action, actor, origin, originText)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrUnauthorized):
			b.answer(query.ID, ackNoRights, true)
		case errors.Is(err, models.ErrInvalidTransition):
			b.answer(query.ID, ackAlreadyDone, true)
		case errors.Is(err, models.ErrNotFound):
			b.answer(query.ID, ackAlreadyDone, true)
		default:
			zap.L().Error("admin action failed",
				zap.Error(err),
				zap.Int64("order_id", action.OrderID),
				zap.Int64("admin_id", actor.ID))
			b.answer(query.ID, ackFailed, true)
		}
		return
	}

	ack := ackConfirmed
	if result.Order.Status == models.StatusRejected {
		ack = ackRejected
	}
	b.answer(query.ID, ack, false)
}

func (b *Bot) answer(callbackID, text string, alert bool) {
	var callback tgbotapi.CallbackConfig
	if alert {
		callback = tgbotapi.NewCallbackWithAlert(callbackID, text)
	} else {
		callback = tgbotapi.NewCallback(callbackID, text)
	}
	if _, err := b.client.API().Request(callback); err != nil {
		zap.L().Warn("failed to answer callback", zap.Error(err), zap.String("callback_id", callbackID))
	}
}
