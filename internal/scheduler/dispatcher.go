package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/remindly/remind-api/internal/models"
	"github.com/remindly/remind-api/internal/notify"
	"go.uber.org/zap"
)

// DefaultHandlerTimeout bounds each handler invocation so one broken channel
// cannot stall the scan
const DefaultHandlerTimeout = 10 * time.Second

// Dispatcher formats a due task into a message and fans it out to every
// registered handler. A handler failure is logged with the handler identity
// and task id and never stops the remaining handlers or subsequent tasks.
// The tracker makes dispatch idempotent per occurrence.
type Dispatcher struct {
	handlers       []notify.Handler
	tracker        Tracker
	handlerTimeout time.Duration
	logger         *zap.Logger
}

// NewDispatcher creates a dispatcher over the given handlers
func NewDispatcher(handlers []notify.Handler, tracker Tracker, handlerTimeout time.Duration, logger *zap.Logger) *Dispatcher {
	if tracker == nil {
		tracker = NewMemoryTracker(0)
	}
	if handlerTimeout <= 0 {
		handlerTimeout = DefaultHandlerTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		handlers:       handlers,
		tracker:        tracker,
		handlerTimeout: handlerTimeout,
		logger:         logger,
	}
}

// Dispatch notifies all handlers about a due task, at most once per
// occurrence. It never returns an error for a handler failure; it reports
// whether the occurrence was actually dispatched (false means it had already
// been notified).
func (d *Dispatcher) Dispatch(ctx context.Context, task *models.Task) bool {
	first, err := d.tracker.MarkNotified(ctx, OccurrenceKey(task))
	if err != nil {
		// Tracker trouble biases toward delivering: a duplicate reminder
		// beats a silently missed one.
		d.logger.Warn("notify_tracker_failed",
			zap.String("task_id", task.ID.String()),
			zap.Error(err),
		)
	} else if !first {
		return false
	}

	message := FormatMessage(task)

	for _, h := range d.handlers {
		d.deliver(ctx, h, task, message)
	}

	return true
}

func (d *Dispatcher) deliver(ctx context.Context, h notify.Handler, task *models.Task, message string) {
	hctx, cancel := context.WithTimeout(ctx, d.handlerTimeout)
	defer cancel()

	if err := h.Deliver(hctx, task, message); err != nil {
		derr := &notify.DeliveryError{Handler: h.Name(), Err: err}
		d.logger.Error("handler_delivery_failed",
			zap.String("handler", h.Name()),
			zap.String("task_id", task.ID.String()),
			zap.Error(derr),
		)
		return
	}

	d.logger.Debug("handler_delivered",
		zap.String("handler", h.Name()),
		zap.String("task_id", task.ID.String()),
	)
}

// FormatMessage renders the human-readable reminder line. High and urgent
// priorities get an elevated leading marker.
func FormatMessage(task *models.Task) string {
	parts := []string{
		"🔔 REMINDER: " + task.Title,
		"📅 Due: " + task.DueAt.UTC().Format("2006-01-02 15:04"),
	}

	if task.Description != "" {
		parts = append(parts, "📝 "+task.Description)
	}
	if task.Priority == models.PriorityHigh || task.Priority == models.PriorityUrgent {
		parts = append([]string{fmt.Sprintf("🚨 %s PRIORITY", strings.ToUpper(string(task.Priority)))}, parts...)
	}
	if task.Location != "" {
		parts = append(parts, "📍 Location: "+task.Location)
	}
	if len(task.Tags) > 0 {
		parts = append(parts, "🏷️ Tags: "+strings.Join(task.Tags, ", "))
	}

	return strings.Join(parts, " | ")
}
