package handler

import (
	"net/http"

	"github.com/avdnv/exchange-miniapp/internal/rates"
	"go.uber.org/zap"
)

// RateHandler serves the public exchange rate.
type RateHandler struct {
	svc *rates.Service
}

func NewRateHandler(svc *rates.Service) *RateHandler {
	return &RateHandler{svc: svc}
}

// Current returns the marked-up buy and sell rates shown in the Mini App.
func (h *RateHandler) Current(w http.ResponseWriter, r *http.Request) {
	current, err := h.svc.CurrentRates(r.Context())
	if err != nil {
		zap.L().Error("rate lookup failed", zap.Error(err))
		RespondError(w, r, http.StatusInternalServerError, "rate/lookup-failed", "Failed to get exchange rate")
		return
	}

	RespondJSON(w, http.StatusOK, current)
}
