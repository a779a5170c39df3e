package middleware

import (
	"context"

	"github.com/avdnv/exchange-miniapp/internal/models"
)

type contextKey string

const (
	telegramUserContextKey contextKey = "telegram_user"
	adminIDContextKey      contextKey = "admin_id"
	adminNameContextKey    contextKey = "admin_username"
	internalContextKey     contextKey = "internal_call"
	traceContextKey        contextKey = "trace_id"
)

// TelegramUserFromContext returns the authenticated Mini-App user.
func TelegramUserFromContext(ctx context.Context) *models.User {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(telegramUserContextKey).(*models.User); ok {
		return v
	}
	return nil
}

// AdminIDFromContext returns the admin id carried by a valid session token.
func AdminIDFromContext(ctx context.Context) int64 {
	if ctx == nil {
		return 0
	}
	if v, ok := ctx.Value(adminIDContextKey).(int64); ok {
		return v
	}
	return 0
}

// AdminUsernameFromContext returns the admin handle from the session token.
func AdminUsernameFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(adminNameContextKey).(string); ok {
		return v
	}
	return ""
}

// IsInternalCall reports whether the request carried a valid service token.
func IsInternalCall(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	if v, ok := ctx.Value(internalContextKey).(bool); ok {
		return v
	}
	return false
}

// TraceIDFromContext returns the trace id for the request.
func TraceIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(traceContextKey).(string); ok {
		return v
	}
	return ""
}
