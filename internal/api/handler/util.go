package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/avdnv/exchange-miniapp/internal/api/problem"
	"github.com/avdnv/exchange-miniapp/internal/models"
)

// RespondJSON writes a JSON response.
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// RespondError writes an error response.
func RespondError(w http.ResponseWriter, r *http.Request, status int, problemType, message string) {
	if problemType != "" && problemType != "about:blank" && !strings.HasPrefix(problemType, "http") {
		problemType = problem.Type(problemType)
	}
	problem.Write(w, r, status, problemType, http.StatusText(status), message)
}

// respondDomainError maps the service sentinel errors onto HTTP statuses.
// Unknown errors become 500 without leaking internals.
func respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, models.ErrValidation):
		RespondError(w, r, http.StatusBadRequest, "request/validation-failed", err.Error())
	case errors.Is(err, models.ErrNotFound):
		RespondError(w, r, http.StatusNotFound, "order/not-found", "order not found")
	case errors.Is(err, models.ErrUnauthorized):
		RespondError(w, r, http.StatusForbidden, "auth/insufficient-permissions", "insufficient permissions")
	case errors.Is(err, models.ErrInvalidTransition):
		RespondError(w, r, http.StatusConflict, "order/already-processed", "order is no longer pending")
	default:
		RespondError(w, r, http.StatusInternalServerError, "internal-server-error", "unexpected server error")
	}
}
