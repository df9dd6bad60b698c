// Package alert sends fire-and-forget operational alerts. Used only on
// server-wide or account-level credential invalidation.
package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

// Sender delivers one alert message to a channel.
type Sender interface {
	SendAlert(ctx context.Context, channel, text string)
}

// WebhookSender implements Sender against a JSON webhook endpoint.
type WebhookSender struct {
	url    string
	client *http.Client
}

// NewWebhookSender creates a webhook alert sender.
func NewWebhookSender(url string) *WebhookSender {
	return &WebhookSender{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// SendAlert posts the message. Delivery failures are logged and
// dropped; alerting never blocks or fails an update run.
func (s *WebhookSender) SendAlert(ctx context.Context, channel, text string) {
	payload, err := json.Marshal(map[string]string{
		"channel": channel,
		"content": fmt.Sprintf("[%s UTC] %s", time.Now().UTC().Format("2006-01-02 15:04:05"), text),
	})
	if err != nil {
		log.Printf("[Alert] Failed to encode alert: %v", err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		log.Printf("[Alert] Failed to build alert request: %v", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		log.Printf("[Alert] Delivery failed: %v", err)
		return
	}
	resp.Body.Close()

	if resp.StatusCode >= 300 {
		log.Printf("[Alert] Webhook returned %d", resp.StatusCode)
	}
}

// NopSender discards alerts; used when no webhook is configured.
type NopSender struct{}

// SendAlert does nothing.
func (NopSender) SendAlert(ctx context.Context, channel, text string) {}

// Ensure both senders implement Sender
var (
	_ Sender = (*WebhookSender)(nil)
	_ Sender = NopSender{}
)
