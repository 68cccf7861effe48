package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"NotifyNiche/internal/domain"
	"NotifyNiche/internal/ports"
)

const errorBodyLimit = 512

// Notifier posts payloads to a Discord webhook.
type Notifier struct {
	webhookURL string
	client     *http.Client
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier registers the webhook URL. A zero timeout uses 10s.
func NewNotifier(webhookURL string, timeout time.Duration) *Notifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Notifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: timeout},
	}
}

// Send posts one payload as JSON. Any 2xx status is a success.
func (n *Notifier) Send(ctx context.Context, payload domain.NotificationPayload) error {
	if n.webhookURL == "" || n.client == nil {
		return fmt.Errorf("discord notifier: %w", domain.ErrNotConfigured)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		return fmt.Errorf("discord error: %s: %s", resp.Status, strings.TrimSpace(string(excerpt)))
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Preview writes payloads to w instead of delivering them. Used by dry runs.
type Preview struct {
	w io.Writer
}

var _ ports.Notifier = (*Preview)(nil)

// NewPreview prints indented JSON payloads to w.
func NewPreview(w io.Writer) *Preview {
	return &Preview{w: w}
}

// Send encodes the payload to the writer.
func (p *Preview) Send(_ context.Context, payload domain.NotificationPayload) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		return fmt.Errorf("write preview: %w", err)
	}
	return nil
}
