package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/avdnv/exchange-miniapp/internal/api/middleware"
	"github.com/avdnv/exchange-miniapp/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// OrderHandler serves the Mini App order endpoints.
type OrderHandler struct {
	svc *service.OrderService
}

func NewOrderHandler(svc *service.OrderService) *OrderHandler {
	return &OrderHandler{svc: svc}
}

// Create accepts a new exchange request from the authenticated user.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.TelegramUserFromContext(r.Context())
	if user == nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	var intent service.OrderIntent
	if err := json.NewDecoder(r.Body).Decode(&intent); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}

	order, err := h.svc.CreateOrder(r.Context(), user, intent)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	RespondJSON(w, http.StatusCreated, order)
}

// List returns the authenticated user's own orders, newest first.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	user := middleware.TelegramUserFromContext(r.Context())
	if user == nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	orders, err := h.svc.ListUserOrders(r.Context(), user.TelegramID)
	if err != nil {
		zap.L().Error("list user orders failed", zap.Error(err), zap.Int64("user_id", user.TelegramID))
		RespondError(w, r, http.StatusInternalServerError, "order/list-failed", "Failed to list orders")
		return
	}

	RespondJSON(w, http.StatusOK, map[string]interface{}{"orders": orders})
}

// Get returns a single order; only the requester may read it.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := middleware.TelegramUserFromContext(r.Context())
	if user == nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	orderID, err := orderIDParam(r)
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-order-id", "Invalid order ID")
		return
	}

	order, err := h.svc.GetOrder(r.Context(), orderID)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	if order.UserID != user.TelegramID {
		// Do not reveal whether the order exists.
		RespondError(w, r, http.StatusNotFound, "order/not-found", "order not found")
		return
	}

	RespondJSON(w, http.StatusOK, order)
}

// Cancel moves the requester's pending order to cancelled.
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	user := middleware.TelegramUserFromContext(r.Context())
	if user == nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	orderID, err := orderIDParam(r)
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-order-id", "Invalid order ID")
		return
	}

	order, err := h.svc.CancelOrder(r.Context(), orderID, user.TelegramID)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	RespondJSON(w, http.StatusOK, order)
}

func orderIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
