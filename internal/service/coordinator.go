package service

import (
	"context"
	"time"

	"github.com/avdnv/exchange-miniapp/internal/models"
	"github.com/avdnv/exchange-miniapp/internal/observability"
	"go.uber.org/zap"
)

// ActionKind is the decoded admin action. Callback payloads are parsed into
// this tagged form once, at the transport boundary; the coordinator never
// sees raw callback strings.
type ActionKind int

const (
	ActionConfirm ActionKind = iota
	ActionReject
)

func (k ActionKind) targetStatus() models.OrderStatus {
	if k == ActionReject {
		return models.StatusRejected
	}
	return models.StatusConfirmed
}

// AdminAction is one admin's decision on one order.
type AdminAction struct {
	Kind    ActionKind
	OrderID int64
}

// AdminActor identifies the admin performing an action.
type AdminActor struct {
	ID       int64
	Username string
}

// AdminActionResult is what the backend returns for a successful action:
// the authoritative order plus the delivery records needed to edit every
// notification copy.
type AdminActionResult struct {
	Order         models.Order                `json:"order"`
	Notifications []models.NotificationRecord `json:"notifications"`
}

// AdminActioner applies the guarded status transition. Implemented in-process
// by OrderService and over HTTP by the bot's backend client, so the
// coordinator can live in whichever process owns the messaging transport.
type AdminActioner interface {
	ApplyAdminAction(ctx context.Context, orderID int64, target models.OrderStatus, adminID int64) (*models.Order, []models.NotificationRecord, error)
}

// Coordinator runs the cross-copy half of the status-transition protocol:
// after the authoritative compare-and-swap succeeds, it annotates and edits
// every delivered notification copy. Each edit is an independent best-effort
// remote call; a failed edit leaves that admin's copy visually stale but
// never affects the order status, which has already committed.
type Coordinator struct {
	actions     AdminActioner
	messenger   Messenger
	editTimeout time.Duration
}

func NewCoordinator(actions AdminActioner, messenger Messenger, editTimeout time.Duration) *Coordinator {
	if editTimeout <= 0 {
		editTimeout = 5 * time.Second
	}
	return &Coordinator{
		actions:     actions,
		messenger:   messenger,
		editTimeout: editTimeout,
	}
}

// HandleAction applies an admin action and propagates the outcome to every
// notification copy. origin is the locator of the message the action arrived
// on (nil when the action did not come attached to a visible message) and
// originText its current text.
//
// The acting admin's own copy is edited first through the origin locator,
// the most reliable path; every other recorded copy then gets exactly one
// independent edit attempt.
func (c *Coordinator) HandleAction(ctx context.Context, action AdminAction, actor AdminActor, origin *models.MessageLocator, originText string) (*AdminActionResult, error) {
	target := action.Kind.targetStatus()

	order, records, err := c.actions.ApplyAdminAction(ctx, action.OrderID, target, actor.ID)
	if err != nil {
		return nil, err
	}
	result := &AdminActionResult{Order: *order, Notifications: records}

	annotation := StatusAnnotation(order.Status, actor.ID, actor.Username)

	if origin != nil && originText != "" {
		c.edit(ctx, *origin, originText+annotation, order.ID, "own")
	}

	if originText == "" {
		// Without the original text there is nothing sensible to append
		// for the remaining copies either.
		if len(records) > 0 {
			zap.L().Warn("origin message text unavailable, skipping copy edits",
				zap.Int64("order_id", order.ID))
		}
		return result, nil
	}

	for _, rec := range records {
		if origin != nil && rec.MessageLocator == *origin {
			continue
		}
		c.edit(ctx, rec.MessageLocator, originText+annotation, order.ID, "copy")
	}
	return result, nil
}

func (c *Coordinator) edit(ctx context.Context, loc models.MessageLocator, text string, orderID int64, kind string) {
	editCtx, cancel := context.WithTimeout(ctx, c.editTimeout)
	defer cancel()

	if err := c.messenger.EditMessage(editCtx, loc, text); err != nil {
		observability.IncrementEdit("failed")
		zap.L().Warn("failed to edit notification copy",
			zap.Error(err),
			zap.String("kind", kind),
			zap.Int64("order_id", orderID),
			zap.Int64("chat_id", loc.ChatID),
			zap.Int("message_id", loc.MessageID))
		return
	}
	observability.IncrementEdit("ok")
}
