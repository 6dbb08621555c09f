package notify

import (
	"context"
	"fmt"

	"github.com/remindly/remind-api/internal/models"
)

// Handler is the single operation a notification channel implements. New
// channels plug in by implementing Deliver; the dispatcher has no
// channel-specific logic. Deliver may return an error; the dispatcher catches
// it, so one broken channel never blocks the others.
type Handler interface {
	// Name identifies the handler in logs
	Name() string

	// Deliver sends the formatted message for a due task
	Deliver(ctx context.Context, task *models.Task, message string) error
}

// DeliveryError wraps a single handler's failure. It is logged by the
// dispatcher and never surfaced past it.
type DeliveryError struct {
	Handler string
	Err     error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery via %s failed: %v", e.Handler, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }
