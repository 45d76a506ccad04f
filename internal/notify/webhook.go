// Package notify delivers outbound webhook notifications.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const requestTimeout = 5 * time.Second

// WebhookClient POSTs JSON payloads to user-configured URLs. The
// payload is delivered best-effort; callers decide retry policy.
type WebhookClient struct {
	client *http.Client
	logger *zap.Logger
}

func NewWebhookClient(logger *zap.Logger) *WebhookClient {
	return &WebhookClient{
		client: &http.Client{Timeout: requestTimeout},
		logger: logger,
	}
}

func (c *WebhookClient) PostJSON(ctx context.Context, url string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("webhook: encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: post: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook: unexpected status %d", resp.StatusCode)
	}
	c.logger.Debug("webhook delivered", zap.String("url", url), zap.Int("status", resp.StatusCode))
	return nil
}
