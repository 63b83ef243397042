package notifier

import (
	"context"

	"github.com/syncdeck/core/pkg/models"
)

// Notifier delivers run completion and failure events. Delivery is
// fire-and-forget: implementations log failures and never propagate them
// into the run lifecycle.
type Notifier interface {
	Notify(ctx context.Context, event models.NotificationEvent)
}

// Noop is used when no delivery channel is configured.
type Noop struct{}

func (Noop) Notify(ctx context.Context, event models.NotificationEvent) {}
