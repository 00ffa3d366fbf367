package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/venturesim/sim-api/internal/queue"
)

// TaskTypeWebhook is the queue task type for outbound webhook
// notifications.
const TaskTypeWebhook = "notification.webhook"

// SchemaVersion is the current payload schema version for webhook
// notifications.
const SchemaVersion = 1

// Notification is the version-1 payload body for TaskTypeWebhook.
type Notification struct {
	Recipient string `json:"recipient"`
	Subject   string `json:"subject"`
	Message   string `json:"message"`
	TargetURL string `json:"target_url"`
}

// WebhookSender delivers notifications by POSTing them to their target
// URL. It is wired into the retry queue as the TaskTypeWebhook handler, so
// a failed POST is retried by the queue rather than here.
type WebhookSender struct {
	client *http.Client
	logger *slog.Logger
}

// NewWebhookSender creates a sender. A zero timeout defaults to 10
// seconds.
func NewWebhookSender(timeout time.Duration, logger *slog.Logger) *WebhookSender {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookSender{
		client: &http.Client{Timeout: timeout},
		logger: logger.With("component", "webhook_sender"),
	}
}

// HandleDelivery implements queue.HandlerFunc for TaskTypeWebhook.
func (s *WebhookSender) HandleDelivery(ctx context.Context, env queue.Envelope) error {
	if env.SchemaVersion != SchemaVersion {
		return fmt.Errorf("%w: unsupported webhook schema version %d",
			queue.ErrPayloadSchema, env.SchemaVersion)
	}

	var n Notification
	if err := env.UnmarshalBody(&n); err != nil {
		return fmt.Errorf("%w: %v", queue.ErrPayloadSchema, err)
	}
	if n.TargetURL == "" {
		return fmt.Errorf("%w: missing target_url", queue.ErrPayloadSchema)
	}

	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.TargetURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook delivery failed: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	s.logger.Debug("webhook delivered",
		"recipient", n.Recipient,
		"status", resp.StatusCode)
	return nil
}
