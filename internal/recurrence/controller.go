package recurrence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/remindly/remind-api/internal/database"
	"github.com/remindly/remind-api/internal/models"
	"go.uber.org/zap"
)

// Controller orchestrates completion, skip and snooze transitions. Recurrence
// continuation is always a new pending record; a completed or cancelled
// occurrence is never revived.
type Controller struct {
	store  database.TaskStore
	clock  Clock
	logger *zap.Logger
}

// NewController creates a controller over the given store
func NewController(store database.TaskStore, clock Clock, logger *zap.Logger) *Controller {
	if clock == nil {
		clock = SystemClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{store: store, clock: clock, logger: logger}
}

// Complete marks the task completed and, for recurring tasks, materializes
// the next occurrence. Returns the completed task and the successor (nil for
// non-recurring tasks).
//
// A failure to compute or persist the successor does not roll back the
// completion: the task stays completed and the failure is logged as an
// operational error. A completed task with no successor beats a stuck task.
func (c *Controller) Complete(ctx context.Context, id uuid.UUID) (*models.Task, *models.Task, error) {
	completed, err := c.store.CompleteIfPending(ctx, id, c.clock.Now())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to complete task %s: %w", id, err)
	}

	successor := c.materializeNext(ctx, completed)
	return completed, successor, nil
}

// Skip cancels the current occurrence without marking it done and, for
// recurring tasks, materializes the next occurrence. Skipping fires no
// notification. Returns the cancelled task and the successor.
func (c *Controller) Skip(ctx context.Context, id uuid.UUID) (*models.Task, *models.Task, error) {
	cancelled, err := c.store.CancelIfPending(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to skip task %s: %w", id, err)
	}

	successor := c.materializeNext(ctx, cancelled)
	return cancelled, successor, nil
}

// Snooze delays a pending task by delta from its stored due time. The shift
// is a single guarded store write computing from the committed due time, so
// concurrent snoozes stack instead of losing one delta. The same record is
// rescheduled; the recurrence pattern is untouched and no new occurrence is
// created.
func (c *Controller) Snooze(ctx context.Context, id uuid.UUID, delta time.Duration) (*models.Task, error) {
	snoozed, err := c.store.PostponeIfPending(ctx, id, delta)
	if err != nil {
		return nil, fmt.Errorf("failed to snooze task %s: %w", id, err)
	}

	c.logger.Info("task_snoozed",
		zap.String("task_id", id.String()),
		zap.Duration("delta", delta),
		zap.Time("new_due_at", snoozed.DueAt),
	)
	return snoozed, nil
}

// materializeNext creates the successor occurrence for a recurring task.
// Errors are logged, never returned: the caller's transition has already
// been committed.
func (c *Controller) materializeNext(ctx context.Context, task *models.Task) *models.Task {
	if !task.IsRecurring || task.Recurrence == nil {
		return nil
	}

	nextDue, err := NextOccurrence(task.DueAt, task.Recurrence)
	if err != nil {
		c.logger.Error("next_occurrence_computation_failed",
			zap.String("task_id", task.ID.String()),
			zap.Error(err),
		)
		return nil
	}

	if task.Recurrence.Ended(nextDue) {
		c.logger.Info("recurrence_ended",
			zap.String("task_id", task.ID.String()),
			zap.Time("end_date", *task.Recurrence.EndDate),
			zap.Time("next_due_at", nextDue),
		)
		return nil
	}

	successor := task.NextOccurrenceFrom(nextDue)
	if err := c.store.Create(ctx, successor); err != nil {
		c.logger.Error("next_occurrence_persist_failed",
			zap.String("task_id", task.ID.String()),
			zap.Time("next_due_at", nextDue),
			zap.Error(err),
		)
		return nil
	}

	c.logger.Info("next_occurrence_created",
		zap.String("task_id", task.ID.String()),
		zap.String("successor_id", successor.ID.String()),
		zap.Time("next_due_at", nextDue),
	)
	return successor
}
