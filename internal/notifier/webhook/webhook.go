// Package webhook implements an HTTP webhook notifier
package webhook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"cryptoalert/internal/notifier"
)

// Webhook posts alert and failure payloads to an HTTP endpoint.
type Webhook struct {
	url     string
	headers map[string]string
	client  *http.Client
}

// New creates a new Webhook notifier
func New(url string, headers map[string]string) (*Webhook, error) {
	if url == "" {
		return nil, fmt.Errorf("webhook: url is required")
	}
	return &Webhook{
		url:     url,
		headers: headers,
		client:  &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (w *Webhook) Name() string { return "webhook" }

// Send posts one triggered-alert payload.
func (w *Webhook) Send(alert notifier.Alert) error {
	return w.post(map[string]any{
		"type":      "alert",
		"recipient": alert.Recipient,
		"currency":  alert.Currency,
		"condition": alert.Condition.Describe(),
		"threshold": alert.Threshold.String(),
		"price":     alert.Price.String(),
		"sent_at":   time.Now().UTC().Format(time.RFC3339),
	})
}

// SendFailure posts one operator-failure payload.
func (w *Webhook) SendFailure(taskName, message string) error {
	return w.post(map[string]any{
		"type":    "failure",
		"task":    taskName,
		"error":   message,
		"sent_at": time.Now().UTC().Format(time.RFC3339),
	})
}

func (w *Webhook) post(payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("webhook: failed to marshal payload: %w", err)
	}

	req, err := http.NewRequest("POST", w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	for k, v := range w.headers {
		req.Header.Set(k, v)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook: server returned %d", resp.StatusCode)
	}

	return nil
}
