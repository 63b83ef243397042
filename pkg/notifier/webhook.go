package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/syncdeck/core/pkg/logger"
	"github.com/syncdeck/core/pkg/models"
)

// WebhookNotifier POSTs events as JSON to a configured URL. A circuit
// breaker keeps a dead or misbehaving endpoint from stalling every run
// finalization with full timeouts.
type WebhookNotifier struct {
	url     string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  *logger.Logger
}

// NewWebhookNotifier creates a notifier targeting the given URL.
func NewWebhookNotifier(url string, timeout time.Duration) *WebhookNotifier {
	settings := gobreaker.Settings{
		Name:    "notify-webhook",
		Timeout: 60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	}

	return &WebhookNotifier{
		url:     url,
		client:  &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker(settings),
		logger:  logger.New("notifier"),
	}
}

func (n *WebhookNotifier) Notify(ctx context.Context, event models.NotificationEvent) {
	_, err := n.breaker.Execute(func() (interface{}, error) {
		return nil, n.post(ctx, event)
	})

	n.logger.LogNotification(event.JobName, event.Status, err)
}

func (n *WebhookNotifier) post(ctx context.Context, event models.NotificationEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to deliver event: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
