package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// Notifier schedules delivery of a user-facing notification. Delivery is
// fire-and-forget: the transport does not report success back to the core,
// so errors are for logging only.
type Notifier interface {
	Send(ctx context.Context, title, body string) error
}

// payload is the wire format posted to the webhook endpoint
type payload struct {
	Title  string    `json:"title"`
	Body   string    `json:"body"`
	SentAt time.Time `json:"sent_at"`
}

// WebhookNotifier delivers notifications as signed JSON POSTs to a
// configured endpoint (ntfy-style push relay or any webhook receiver).
type WebhookNotifier struct {
	url        string
	secret     string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewWebhookNotifier creates a notifier posting to url. When secret is
// non-empty, requests carry an HMAC-SHA256 signature header.
func NewWebhookNotifier(url, secret string, timeout time.Duration, logger *logrus.Logger) *WebhookNotifier {
	return &WebhookNotifier{
		url:    url,
		secret: secret,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Send posts the notification. A non-2xx response is an error, but callers
// treat delivery as best-effort.
func (n *WebhookNotifier) Send(ctx context.Context, title, body string) error {
	log := n.logger.WithFields(logrus.Fields{
		"component": "notifier",
		"title":     title,
	})

	if n.url == "" {
		log.Warn("Notification webhook URL is not configured, dropping notification")
		return nil
	}

	raw, err := json.Marshal(payload{Title: title, Body: body, SentAt: time.Now()})
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("failed to create notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if n.secret != "" {
		req.Header.Set("X-Webhook-Signature", signHMACSHA256(raw, n.secret))
	}

	resp, err := n.httpClient.Do(req)
	if err != nil {
		log.WithError(err).Warn("Failed to deliver notification")
		return fmt.Errorf("failed to deliver notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Warnf("Notification delivery failed with status %d", resp.StatusCode)
		return fmt.Errorf("notification endpoint returned status %d", resp.StatusCode)
	}

	log.Info("Notification delivered")
	return nil
}

// signHMACSHA256 generates the hex-encoded request signature
func signHMACSHA256(data []byte, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
