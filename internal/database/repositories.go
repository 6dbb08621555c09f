package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/remindly/remind-api/internal/models"
)

// TaskStore defines the store operations the scheduling engine and API
// consume. The interface enables mock implementations in tests; the Postgres
// TaskRepository is the production implementation.
//
// The *IfPending methods are guarded transitions: they succeed only if the
// record is still pending at write time, returning models.ErrInvalidState
// otherwise. That guard is what makes complete/skip/snooze atomic per record
// so two concurrent completions can never both succeed.
type TaskStore interface {
	Create(ctx context.Context, task *models.Task) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error)
	ListByOwner(ctx context.Context, ownerID string, status *models.TaskStatus, tag string) ([]*models.Task, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// GetDueBetween returns tasks with the given status due in [start, end],
	// ascending by due time.
	GetDueBetween(ctx context.Context, start, end time.Time, status models.TaskStatus) ([]*models.Task, error)

	CompleteIfPending(ctx context.Context, id uuid.UUID, at time.Time) (*models.Task, error)
	CancelIfPending(ctx context.Context, id uuid.UUID) (*models.Task, error)

	// PostponeIfPending shifts a pending task's due time by delta. The shift
	// is computed inside the guarded statement from the committed due time,
	// so two racing snoozes stack instead of one overwriting the other.
	PostponeIfPending(ctx context.Context, id uuid.UUID, delta time.Duration) (*models.Task, error)

	// UpdateIfPending rewrites a pending task's descriptive fields. Completed
	// and cancelled occurrences are immutable history.
	UpdateIfPending(ctx context.Context, task *models.Task) (*models.Task, error)

	// SetLastNotified records when a reminder for the task was last
	// dispatched. Informational only; the due scan does not filter on it.
	SetLastNotified(ctx context.Context, id uuid.UUID, at time.Time) error
}

// Ensure the concrete type implements the interface
var _ TaskStore = (*TaskRepository)(nil)
