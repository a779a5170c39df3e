package bot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/avdnv/exchange-miniapp/internal/models"
	"github.com/avdnv/exchange-miniapp/internal/service"
)

// BackendClient applies admin actions against the backend HTTP API. It is
// the bot-side implementation of the status transition: the backend owns the
// order store, so the compare-and-swap happens there.
type BackendClient struct {
	baseURL       string
	internalToken string
	httpClient    *http.Client
}

func NewBackendClient(baseURL, internalToken string, timeout time.Duration) *BackendClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &BackendClient{
		baseURL:       baseURL,
		internalToken: internalToken,
		httpClient:    &http.Client{Timeout: timeout},
	}
}

type actionRequest struct {
	Status  string `json:"status"`
	AdminID int64  `json:"admin_id"`
}

// ApplyAdminAction sends the transition request and decodes the result.
// Backend error statuses map back onto the domain sentinels so the update
// loop can pick the right callback answer.
func (c *BackendClient) ApplyAdminAction(ctx context.Context, orderID int64, target models.OrderStatus, adminID int64) (*models.Order, []models.NotificationRecord, error) {
	body, err := json.Marshal(actionRequest{Status: string(target), AdminID: adminID})
	if err != nil {
		return nil, nil, fmt.Errorf("encode action request: %w", err)
	}

	url := fmt.Sprintf("%s/api/admin/orders/%d", c.baseURL, orderID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, url, bytes.NewReader(body))
	if err != nil {
		return nil, nil, fmt.Errorf("build action request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.internalToken != "" {
		req.Header.Set("X-Internal-Token", c.internalToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("call backend: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusForbidden, http.StatusUnauthorized:
		return nil, nil, models.ErrUnauthorized
	case http.StatusNotFound:
		return nil, nil, models.ErrNotFound
	case http.StatusConflict:
		return nil, nil, models.ErrInvalidTransition
	default:
		return nil, nil, fmt.Errorf("backend returned status %d", resp.StatusCode)
	}

	var result service.AdminActionResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, nil, fmt.Errorf("decode action result: %w", err)
	}
	return &result.Order, result.Notifications, nil
}
