package handler

import (
	"net/http"

	"github.com/avdnv/exchange-miniapp/internal/api/middleware"
)

// UserHandler serves the authenticated user's profile.
type UserHandler struct{}

func NewUserHandler() *UserHandler {
	return &UserHandler{}
}

// Me echoes the profile resolved from the validated init data.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.TelegramUserFromContext(r.Context())
	if user == nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	RespondJSON(w, http.StatusOK, user)
}
