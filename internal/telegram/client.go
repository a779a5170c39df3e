// Package telegram wraps the Bot API client behind the service Messenger
// interface. It is the only package that touches wire-level callback data
// and keyboards; everything above works with decoded actions and locators.
package telegram

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/avdnv/exchange-miniapp/internal/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type Client struct {
	api *tgbotapi.BotAPI
}

// NewClient authorizes against the Bot API. timeout bounds every outbound
// call; the Bot API library has no per-request context, so the limit lives
// on the HTTP client.
func NewClient(token string, timeout time.Duration) (*Client, error) {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	api, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, &http.Client{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("authorize bot: %w", err)
	}
	return &Client{api: api}, nil
}

// API exposes the underlying client for the bot process update loop.
func (c *Client) API() *tgbotapi.BotAPI {
	return c.api
}

// SendOrderMessage delivers one notification copy with the confirm/reject
// controls attached and returns the locator needed to edit it later.
func (c *Client) SendOrderMessage(ctx context.Context, chatID int64, text string, orderID int64) (models.MessageLocator, error) {
	if err := ctx.Err(); err != nil {
		return models.MessageLocator{}, err
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = OrderKeyboard(orderID)

	sent, err := c.api.Send(msg)
	if err != nil {
		return models.MessageLocator{}, fmt.Errorf("send message to %d: %w", chatID, err)
	}
	return models.MessageLocator{ChatID: sent.Chat.ID, MessageID: sent.MessageID}, nil
}

// EditMessage replaces a delivered copy's text. Omitting the reply markup
// drops the inline controls, which is exactly what a finalized order needs.
func (c *Client) EditMessage(ctx context.Context, loc models.MessageLocator, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	edit := tgbotapi.NewEditMessageText(loc.ChatID, loc.MessageID, text)
	edit.ParseMode = tgbotapi.ModeHTML
	if _, err := c.api.Send(edit); err != nil {
		return fmt.Errorf("edit message %d in chat %d: %w", loc.MessageID, loc.ChatID, err)
	}
	return nil
}

// OrderKeyboard builds the two-button approve/reject control row.
func OrderKeyboard(orderID int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Подтвердить", encodeAction("confirm", orderID)),
			tgbotapi.NewInlineKeyboardButtonData("❌ Отклонить", encodeAction("reject", orderID)),
		),
	)
}
