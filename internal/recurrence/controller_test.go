package recurrence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/remindly/remind-api/internal/database"
	"github.com/remindly/remind-api/internal/models"
	"go.uber.org/zap"
)

type mockTaskStore struct {
	createFunc            func(ctx context.Context, task *models.Task) error
	getByIDFunc           func(ctx context.Context, id uuid.UUID) (*models.Task, error)
	completeIfPendingFunc func(ctx context.Context, id uuid.UUID, at time.Time) (*models.Task, error)
	cancelIfPendingFunc   func(ctx context.Context, id uuid.UUID) (*models.Task, error)
	postponeIfPendingFunc func(ctx context.Context, id uuid.UUID, delta time.Duration) (*models.Task, error)
}

func (m *mockTaskStore) Create(ctx context.Context, task *models.Task) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, task)
	}
	return nil
}

func (m *mockTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, models.ErrTaskNotFound
}

func (m *mockTaskStore) ListByOwner(ctx context.Context, ownerID string, status *models.TaskStatus, tag string) ([]*models.Task, error) {
	return nil, nil
}

func (m *mockTaskStore) Delete(ctx context.Context, id uuid.UUID) error { return nil }

func (m *mockTaskStore) GetDueBetween(ctx context.Context, start, end time.Time, status models.TaskStatus) ([]*models.Task, error) {
	return nil, nil
}

func (m *mockTaskStore) CompleteIfPending(ctx context.Context, id uuid.UUID, at time.Time) (*models.Task, error) {
	if m.completeIfPendingFunc != nil {
		return m.completeIfPendingFunc(ctx, id, at)
	}
	return nil, models.ErrTaskNotFound
}

func (m *mockTaskStore) CancelIfPending(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	if m.cancelIfPendingFunc != nil {
		return m.cancelIfPendingFunc(ctx, id)
	}
	return nil, models.ErrTaskNotFound
}

func (m *mockTaskStore) PostponeIfPending(ctx context.Context, id uuid.UUID, delta time.Duration) (*models.Task, error) {
	if m.postponeIfPendingFunc != nil {
		return m.postponeIfPendingFunc(ctx, id, delta)
	}
	return nil, models.ErrTaskNotFound
}

func (m *mockTaskStore) UpdateIfPending(ctx context.Context, task *models.Task) (*models.Task, error) {
	return nil, models.ErrTaskNotFound
}

func (m *mockTaskStore) SetLastNotified(ctx context.Context, id uuid.UUID, at time.Time) error {
	return nil
}

var _ database.TaskStore = (*mockTaskStore)(nil)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func recurringTask(dueAt time.Time) *models.Task {
	return &models.Task{
		ID:          uuid.New(),
		OwnerID:     "owner-1",
		Title:       "water the plants",
		DueAt:       dueAt,
		Timezone:    "UTC",
		Priority:    models.PriorityMedium,
		Status:      models.TaskStatusPending,
		IsRecurring: true,
		Recurrence:  &models.RecurrencePattern{Frequency: models.FrequencyDaily, Interval: 1},
	}
}

func TestController_Complete_Recurring(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	dueAt := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	task := recurringTask(dueAt)

	var created *models.Task
	store := &mockTaskStore{
		completeIfPendingFunc: func(ctx context.Context, id uuid.UUID, at time.Time) (*models.Task, error) {
			done := *task
			done.Status = models.TaskStatusCompleted
			done.CompletedAt = &at
			return &done, nil
		},
		createFunc: func(ctx context.Context, t *models.Task) error {
			created = t
			return nil
		},
	}

	ctrl := NewController(store, fixedClock{now}, zap.NewNop())
	completed, successor, err := ctrl.Complete(context.Background(), task.ID)
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	if completed.Status != models.TaskStatusCompleted {
		t.Errorf("completed.Status = %s, want completed", completed.Status)
	}
	if completed.CompletedAt == nil || !completed.CompletedAt.Equal(now) {
		t.Errorf("completed.CompletedAt = %v, want %v", completed.CompletedAt, now)
	}
	if successor == nil {
		t.Fatal("expected a successor for a recurring task")
	}
	if created == nil || created.ID != successor.ID {
		t.Error("successor was not persisted through the store")
	}
	wantDue := dueAt.AddDate(0, 0, 1)
	if !successor.DueAt.Equal(wantDue) {
		t.Errorf("successor.DueAt = %v, want %v", successor.DueAt, wantDue)
	}
	if successor.ID == task.ID {
		t.Error("successor must be a new record, not the completed one")
	}
	if successor.Status != models.TaskStatusPending {
		t.Errorf("successor.Status = %s, want pending", successor.Status)
	}
	if successor.Recurrence == nil || successor.Recurrence.Frequency != models.FrequencyDaily {
		t.Error("successor did not inherit the recurrence pattern")
	}
}

func TestController_Complete_NonRecurring(t *testing.T) {
	t.Parallel()
	task := recurringTask(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	task.IsRecurring = false
	task.Recurrence = nil

	store := &mockTaskStore{
		completeIfPendingFunc: func(ctx context.Context, id uuid.UUID, at time.Time) (*models.Task, error) {
			done := *task
			done.Status = models.TaskStatusCompleted
			return &done, nil
		},
		createFunc: func(ctx context.Context, t *models.Task) error {
			return errors.New("create must not be called for non-recurring tasks")
		},
	}

	ctrl := NewController(store, fixedClock{time.Now()}, zap.NewNop())
	_, successor, err := ctrl.Complete(context.Background(), task.ID)
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if successor != nil {
		t.Errorf("successor = %+v, want nil for non-recurring task", successor)
	}
}

func TestController_Complete_NotPending(t *testing.T) {
	t.Parallel()
	store := &mockTaskStore{
		completeIfPendingFunc: func(ctx context.Context, id uuid.UUID, at time.Time) (*models.Task, error) {
			return nil, models.ErrInvalidState
		},
	}

	ctrl := NewController(store, nil, nil)
	_, _, err := ctrl.Complete(context.Background(), uuid.New())
	if !errors.Is(err, models.ErrInvalidState) {
		t.Errorf("Complete() error = %v, want ErrInvalidState", err)
	}
}

func TestController_Complete_NotFound(t *testing.T) {
	t.Parallel()
	store := &mockTaskStore{
		completeIfPendingFunc: func(ctx context.Context, id uuid.UUID, at time.Time) (*models.Task, error) {
			return nil, models.ErrTaskNotFound
		},
	}

	ctrl := NewController(store, nil, nil)
	_, _, err := ctrl.Complete(context.Background(), uuid.New())
	if !errors.Is(err, models.ErrTaskNotFound) {
		t.Errorf("Complete() error = %v, want ErrTaskNotFound", err)
	}
}

func TestController_Complete_SuccessorPersistFailure(t *testing.T) {
	t.Parallel()
	task := recurringTask(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))

	store := &mockTaskStore{
		completeIfPendingFunc: func(ctx context.Context, id uuid.UUID, at time.Time) (*models.Task, error) {
			done := *task
			done.Status = models.TaskStatusCompleted
			return &done, nil
		},
		createFunc: func(ctx context.Context, t *models.Task) error {
			return errors.New("db down")
		},
	}

	ctrl := NewController(store, fixedClock{time.Now()}, zap.NewNop())
	completed, successor, err := ctrl.Complete(context.Background(), task.ID)

	// The completion itself must stand even when the successor cannot be
	// persisted.
	if err != nil {
		t.Fatalf("Complete() error = %v, want nil", err)
	}
	if completed == nil || completed.Status != models.TaskStatusCompleted {
		t.Error("completion must not be rolled back on successor failure")
	}
	if successor != nil {
		t.Errorf("successor = %+v, want nil when persist fails", successor)
	}
}

func TestController_Complete_InvalidStoredPattern(t *testing.T) {
	t.Parallel()
	task := recurringTask(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	task.Recurrence = &models.RecurrencePattern{Frequency: "hourly", Interval: 1}

	store := &mockTaskStore{
		completeIfPendingFunc: func(ctx context.Context, id uuid.UUID, at time.Time) (*models.Task, error) {
			done := *task
			done.Status = models.TaskStatusCompleted
			return &done, nil
		},
	}

	ctrl := NewController(store, fixedClock{time.Now()}, zap.NewNop())
	completed, successor, err := ctrl.Complete(context.Background(), task.ID)
	if err != nil {
		t.Fatalf("Complete() error = %v, want nil", err)
	}
	if completed == nil {
		t.Fatal("expected the completed task back")
	}
	if successor != nil {
		t.Error("an uncomputable pattern must not produce a successor")
	}
}

func TestController_Skip(t *testing.T) {
	t.Parallel()
	dueAt := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	task := recurringTask(dueAt)

	store := &mockTaskStore{
		cancelIfPendingFunc: func(ctx context.Context, id uuid.UUID) (*models.Task, error) {
			skipped := *task
			skipped.Status = models.TaskStatusCancelled
			return &skipped, nil
		},
	}

	ctrl := NewController(store, fixedClock{time.Now()}, zap.NewNop())
	skipped, successor, err := ctrl.Skip(context.Background(), task.ID)
	if err != nil {
		t.Fatalf("Skip() error = %v", err)
	}
	if skipped.Status != models.TaskStatusCancelled {
		t.Errorf("skipped.Status = %s, want cancelled", skipped.Status)
	}
	if skipped.CompletedAt != nil {
		t.Error("a skipped occurrence must not be marked done")
	}
	if successor == nil {
		t.Fatal("expected a successor after skipping a recurring task")
	}
	if !successor.DueAt.Equal(dueAt.AddDate(0, 0, 1)) {
		t.Errorf("successor.DueAt = %v, want %v", successor.DueAt, dueAt.AddDate(0, 0, 1))
	}
}

func TestController_Snooze(t *testing.T) {
	t.Parallel()
	dueAt := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	task := recurringTask(dueAt)

	var gotDelta time.Duration
	store := &mockTaskStore{
		getByIDFunc: func(ctx context.Context, id uuid.UUID) (*models.Task, error) {
			t.Error("Snooze must not read the task before the guarded write")
			return nil, models.ErrTaskNotFound
		},
		postponeIfPendingFunc: func(ctx context.Context, id uuid.UUID, delta time.Duration) (*models.Task, error) {
			gotDelta = delta
			moved := *task
			moved.DueAt = task.DueAt.Add(delta)
			return &moved, nil
		},
	}

	ctrl := NewController(store, fixedClock{time.Now()}, zap.NewNop())
	snoozed, err := ctrl.Snooze(context.Background(), task.ID, 15*time.Minute)
	if err != nil {
		t.Fatalf("Snooze() error = %v", err)
	}

	// The store shifts the committed due time by the delta; the controller
	// never computes an absolute target itself.
	if gotDelta != 15*time.Minute {
		t.Errorf("delta handed to the store = %v, want 15m", gotDelta)
	}
	if want := dueAt.Add(15 * time.Minute); !snoozed.DueAt.Equal(want) {
		t.Errorf("snoozed.DueAt = %v, want %v", snoozed.DueAt, want)
	}
	if snoozed.Status != models.TaskStatusPending {
		t.Errorf("snoozed.Status = %s, want pending", snoozed.Status)
	}
	if snoozed.Recurrence == nil || snoozed.Recurrence.Frequency != models.FrequencyDaily {
		t.Error("snooze must not touch the recurrence pattern")
	}
}

func TestController_Snooze_ConcurrentDeltasStack(t *testing.T) {
	t.Parallel()
	dueAt := time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC)
	task := recurringTask(dueAt)

	// The store applies each delta to its committed state, like the guarded
	// UPDATE does. Two snoozes that both saw the original due time must still
	// stack: the second shifts the first's result, not the shared base.
	store := &mockTaskStore{
		postponeIfPendingFunc: func(ctx context.Context, id uuid.UUID, delta time.Duration) (*models.Task, error) {
			task.DueAt = task.DueAt.Add(delta)
			snapshot := *task
			return &snapshot, nil
		},
	}

	ctrl := NewController(store, fixedClock{time.Now()}, zap.NewNop())
	if _, err := ctrl.Snooze(context.Background(), task.ID, 10*time.Minute); err != nil {
		t.Fatalf("first Snooze() error = %v", err)
	}
	second, err := ctrl.Snooze(context.Background(), task.ID, 10*time.Minute)
	if err != nil {
		t.Fatalf("second Snooze() error = %v", err)
	}

	if want := dueAt.Add(20 * time.Minute); !second.DueAt.Equal(want) {
		t.Errorf("due after two snoozes = %v, want %v (neither delta lost)", second.DueAt, want)
	}
}

func TestController_Snooze_NotPending(t *testing.T) {
	t.Parallel()
	task := recurringTask(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	task.Status = models.TaskStatusCompleted

	store := &mockTaskStore{
		postponeIfPendingFunc: func(ctx context.Context, id uuid.UUID, delta time.Duration) (*models.Task, error) {
			return nil, models.ErrInvalidState
		},
	}

	ctrl := NewController(store, nil, nil)
	_, err := ctrl.Snooze(context.Background(), task.ID, 10*time.Minute)
	if !errors.Is(err, models.ErrInvalidState) {
		t.Errorf("Snooze() error = %v, want ErrInvalidState", err)
	}
}

func TestController_Complete_RecurrenceEndDate(t *testing.T) {
	t.Parallel()
	dueAt := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	end := time.Date(2026, 3, 10, 23, 59, 59, 0, time.UTC)
	bounded := recurringTask(dueAt)
	bounded.Recurrence.EndDate = &end

	store := &mockTaskStore{
		completeIfPendingFunc: func(ctx context.Context, id uuid.UUID, at time.Time) (*models.Task, error) {
			done := *bounded
			done.Status = models.TaskStatusCompleted
			return &done, nil
		},
		createFunc: func(ctx context.Context, t *models.Task) error {
			return errors.New("create must not be called once the recurrence ended")
		},
	}

	ctrl := NewController(store, fixedClock{time.Now()}, zap.NewNop())
	completed, successor, err := ctrl.Complete(context.Background(), bounded.ID)
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if completed == nil || completed.Status != models.TaskStatusCompleted {
		t.Error("the final occurrence still completes normally")
	}
	// Next daily occurrence would be Mar 11, past the Mar 10 end date.
	if successor != nil {
		t.Errorf("successor = %+v, want nil past the end date", successor)
	}
}

func TestController_Complete_EndDateStillAhead(t *testing.T) {
	t.Parallel()
	dueAt := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	end := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)
	bounded := recurringTask(dueAt)
	bounded.Recurrence.EndDate = &end

	store := &mockTaskStore{
		completeIfPendingFunc: func(ctx context.Context, id uuid.UUID, at time.Time) (*models.Task, error) {
			done := *bounded
			done.Status = models.TaskStatusCompleted
			return &done, nil
		},
	}

	ctrl := NewController(store, fixedClock{time.Now()}, zap.NewNop())
	_, successor, err := ctrl.Complete(context.Background(), bounded.ID)
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if successor == nil {
		t.Fatal("expected a successor while the end date is still ahead")
	}
	if successor.Recurrence == nil || successor.Recurrence.EndDate == nil || !successor.Recurrence.EndDate.Equal(end) {
		t.Error("successor must inherit the end date")
	}
}
