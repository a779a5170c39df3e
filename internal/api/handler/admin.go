package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/avdnv/exchange-miniapp/internal/api/middleware"
	"github.com/avdnv/exchange-miniapp/internal/models"
	"github.com/avdnv/exchange-miniapp/internal/rates"
	"github.com/avdnv/exchange-miniapp/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AdminHandler serves the admin panel endpoints: session issuing, order
// management and rate configuration.
type AdminHandler struct {
	orders     *service.OrderService
	rates      *rates.Service
	admins     service.AdminDirectory
	jwtSecret  []byte
	sessionTTL time.Duration
}

func NewAdminHandler(orders *service.OrderService, rateSvc *rates.Service, admins service.AdminDirectory, jwtSecret []byte, sessionTTL time.Duration) *AdminHandler {
	return &AdminHandler{
		orders:     orders,
		rates:      rateSvc,
		admins:     admins,
		jwtSecret:  jwtSecret,
		sessionTTL: sessionTTL,
	}
}

// Session exchanges validated Mini App init data for an admin session token.
// The caller must already be in the admin roster.
func (h *AdminHandler) Session(w http.ResponseWriter, r *http.Request) {
	user := middleware.TelegramUserFromContext(r.Context())
	if user == nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	ok, err := h.isAdmin(r, user.TelegramID)
	if err != nil {
		zap.L().Error("admin roster check failed", zap.Error(err))
		RespondError(w, r, http.StatusInternalServerError, "admin/roster-unavailable", "Failed to check admin roster")
		return
	}
	if !ok {
		RespondError(w, r, http.StatusForbidden, "auth/insufficient-permissions", "insufficient permissions")
		return
	}

	token, err := middleware.IssueAdminToken(h.jwtSecret, user.TelegramID, user.Username, h.sessionTTL)
	if err != nil {
		zap.L().Error("admin token issue failed", zap.Error(err), zap.Int64("admin_id", user.TelegramID))
		RespondError(w, r, http.StatusInternalServerError, "admin/session-failed", "Failed to issue session")
		return
	}

	RespondJSON(w, http.StatusOK, map[string]interface{}{
		"token":      token,
		"expires_in": int(h.sessionTTL.Seconds()),
	})
}

// Check reports whether the authenticated user belongs to the admin roster.
func (h *AdminHandler) Check(w http.ResponseWriter, r *http.Request) {
	user := middleware.TelegramUserFromContext(r.Context())
	if user == nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	ok, err := h.isAdmin(r, user.TelegramID)
	if err != nil {
		zap.L().Error("admin roster check failed", zap.Error(err))
		RespondError(w, r, http.StatusInternalServerError, "admin/roster-unavailable", "Failed to check admin roster")
		return
	}

	RespondJSON(w, http.StatusOK, map[string]bool{"is_admin": ok})
}

// ListOrders returns a filtered, paginated order listing for the panel.
func (h *AdminHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	filter, err := parseOrderFilter(r)
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-filter", err.Error())
		return
	}

	orders, total, err := h.orders.ListOrders(r.Context(), filter)
	if err != nil {
		zap.L().Error("admin list orders failed", zap.Error(err))
		RespondError(w, r, http.StatusInternalServerError, "order/list-failed", "Failed to list orders")
		return
	}

	RespondJSON(w, http.StatusOK, map[string]interface{}{
		"orders":    orders,
		"total":     total,
		"page":      filter.Page,
		"page_size": filter.PageSize,
	})
}

type adminActionRequest struct {
	Status        string `json:"status"`
	AdminID       int64  `json:"admin_id"`
	AdminUsername string `json:"admin_username"`
}

// Action applies a confirm or reject transition to a pending order and
// returns the updated order together with the recorded notification copies,
// so the caller can synchronize every admin's message.
func (h *AdminHandler) Action(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-order-id", "Invalid order ID")
		return
	}

	var req adminActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}

	var target models.OrderStatus
	switch req.Status {
	case string(models.StatusConfirmed):
		target = models.StatusConfirmed
	case string(models.StatusRejected):
		target = models.StatusRejected
	default:
		RespondError(w, r, http.StatusBadRequest, "request/invalid-status", "status must be confirmed or rejected")
		return
	}

	adminID := middleware.AdminIDFromContext(r.Context())
	if adminID == 0 {
		if !middleware.IsInternalCall(r.Context()) || req.AdminID == 0 {
			RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
			return
		}
		adminID = req.AdminID
	}

	order, records, err := h.orders.ApplyAdminAction(r.Context(), orderID, target, adminID)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	RespondJSON(w, http.StatusOK, service.AdminActionResult{
		Order:         *order,
		Notifications: records,
	})
}

// RateSettings returns the current markup configuration.
func (h *AdminHandler) RateSettings(w http.ResponseWriter, r *http.Request) {
	view, err := h.rates.Settings(r.Context())
	if err != nil {
		zap.L().Error("rate settings read failed", zap.Error(err))
		RespondError(w, r, http.StatusInternalServerError, "rate/settings-read-failed", "Failed to read rate settings")
		return
	}

	RespondJSON(w, http.StatusOK, view)
}

type rateSettingsRequest struct {
	BuyMarkupPercent  decimal.Decimal `json:"buy_markup_percent"`
	SellMarkupPercent decimal.Decimal `json:"sell_markup_percent"`
}

// UpdateRateSettings replaces the markup configuration.
func (h *AdminHandler) UpdateRateSettings(w http.ResponseWriter, r *http.Request) {
	var req rateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}

	updatedBy := middleware.AdminUsernameFromContext(r.Context())
	if updatedBy == "" {
		updatedBy = strconv.FormatInt(middleware.AdminIDFromContext(r.Context()), 10)
	}

	view, err := h.rates.UpdateSettings(r.Context(), req.BuyMarkupPercent, req.SellMarkupPercent, updatedBy)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	RespondJSON(w, http.StatusOK, view)
}

func (h *AdminHandler) isAdmin(r *http.Request, id int64) (bool, error) {
	ids, err := h.admins.AdminIDs(r.Context())
	if err != nil {
		return false, err
	}
	for _, adminID := range ids {
		if adminID == id {
			return true, nil
		}
	}
	return false, nil
}

func parseOrderFilter(r *http.Request) (models.OrderFilter, error) {
	q := r.URL.Query()
	var filter models.OrderFilter

	if v := q.Get("order_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return filter, fmt.Errorf("invalid order_id: %q", v)
		}
		filter.OrderID = &id
	}
	if v := q.Get("status"); v != "" {
		status := models.OrderStatus(v)
		switch status {
		case models.StatusPending, models.StatusConfirmed, models.StatusRejected, models.StatusCancelled:
			filter.Status = &status
		default:
			return filter, fmt.Errorf("invalid status: %q", v)
		}
	}
	if v := q.Get("amount_min"); v != "" {
		amount, err := decimal.NewFromString(v)
		if err != nil {
			return filter, fmt.Errorf("invalid amount_min: %q", v)
		}
		filter.AmountMin = &amount
	}
	if v := q.Get("amount_max"); v != "" {
		amount, err := decimal.NewFromString(v)
		if err != nil {
			return filter, fmt.Errorf("invalid amount_max: %q", v)
		}
		filter.AmountMax = &amount
	}
	if v := q.Get("date_from"); v != "" {
		t, err := parseDate(v)
		if err != nil {
			return filter, fmt.Errorf("invalid date_from: %q", v)
		}
		filter.DateFrom = &t
	}
	if v := q.Get("date_to"); v != "" {
		t, err := parseDate(v)
		if err != nil {
			return filter, fmt.Errorf("invalid date_to: %q", v)
		}
		filter.DateTo = &t
	}

	filter.Page, _ = strconv.Atoi(q.Get("page"))
	if filter.Page < 1 {
		filter.Page = 1
	}
	filter.PageSize, _ = strconv.Atoi(q.Get("page_size"))
	if filter.PageSize < 1 || filter.PageSize > 100 {
		filter.PageSize = 20
	}
	return filter, nil
}

func parseDate(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", v)
}
