package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/remindly/remind-api/internal/models"
)

const taskColumns = `id, owner_id, title, description, location, due_at, timezone,
	priority, tags, status, is_recurring, recurrence_pattern, completed_at,
	last_notified_at, source_text, parsed_by_ai, ai_confidence, created_at, updated_at`

// TaskRepository handles task database operations
type TaskRepository struct {
	db *DB
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create inserts a new task. The recurrence pattern is validated first so an
// invalid pattern is never persisted.
func (r *TaskRepository) Create(ctx context.Context, task *models.Task) error {
	if task.IsRecurring {
		if err := task.Recurrence.Validate(); err != nil {
			return err
		}
	}

	tagsJSON, patternJSON, err := marshalTaskJSON(task)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO tasks (id, owner_id, title, description, location, due_at, timezone,
			priority, tags, status, is_recurring, recurrence_pattern,
			source_text, parsed_by_ai, ai_confidence, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING created_at, updated_at
	`

	now := time.Now().UTC()
	err = r.db.QueryRowContext(ctx, query,
		task.ID,
		task.OwnerID,
		task.Title,
		task.Description,
		task.Location,
		task.DueAt.UTC(),
		task.Timezone,
		task.Priority,
		tagsJSON,
		task.Status,
		task.IsRecurring,
		patternJSON,
		task.SourceText,
		task.ParsedByAI,
		task.AIConfidence,
		now,
		now,
	).Scan(&task.CreatedAt, &task.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	return nil
}

// GetByID retrieves a task by ID
func (r *TaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`

	task, err := scanTask(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	return task, nil
}

// ListByOwner retrieves all tasks for an owner, optionally filtered by status
// and/or tag, ordered by due time
func (r *TaskRepository) ListByOwner(ctx context.Context, ownerID string, status *models.TaskStatus, tag string) ([]*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE owner_id = $1`
	args := []any{ownerID}

	if status != nil {
		args = append(args, string(*status))
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if tag != "" {
		tagJSON, err := json.Marshal([]string{tag})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal tag filter: %w", err)
		}
		args = append(args, tagJSON)
		query += fmt.Sprintf(" AND tags @> $%d", len(args))
	}

	query += " ORDER BY due_at ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	return collectTasks(rows)
}

// GetDueBetween retrieves tasks with the given status due within [start, end],
// ascending by due time
func (r *TaskRepository) GetDueBetween(ctx context.Context, start, end time.Time, status models.TaskStatus) ([]*models.Task, error) {
	query := `SELECT ` + taskColumns + `
		FROM tasks
		WHERE status = $1 AND due_at >= $2 AND due_at <= $3
		ORDER BY due_at ASC`

	rows, err := r.db.QueryContext(ctx, query, status, start.UTC(), end.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query due tasks: %w", err)
	}
	defer rows.Close()

	return collectTasks(rows)
}

// CompleteIfPending marks a pending task completed. The WHERE guard makes the
// transition atomic: of two concurrent completions only one row update
// succeeds, the other gets models.ErrInvalidState.
func (r *TaskRepository) CompleteIfPending(ctx context.Context, id uuid.UUID, at time.Time) (*models.Task, error) {
	query := `
		UPDATE tasks
		SET status = $2, completed_at = $3, updated_at = $4
		WHERE id = $1 AND status = $5
		RETURNING ` + taskColumns

	task, err := scanTask(r.db.QueryRowContext(ctx, query,
		id, models.TaskStatusCompleted, at.UTC(), time.Now().UTC(), models.TaskStatusPending))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, r.pendingGuardError(ctx, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to complete task: %w", err)
	}

	return task, nil
}

// CancelIfPending marks a pending task cancelled (used by skip)
func (r *TaskRepository) CancelIfPending(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	query := `
		UPDATE tasks
		SET status = $2, updated_at = $3
		WHERE id = $1 AND status = $4
		RETURNING ` + taskColumns

	task, err := scanTask(r.db.QueryRowContext(ctx, query,
		id, models.TaskStatusCancelled, time.Now().UTC(), models.TaskStatusPending))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, r.pendingGuardError(ctx, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to cancel task: %w", err)
	}

	return task, nil
}

// PostponeIfPending shifts a pending task's due time by delta (used by
// snooze). The arithmetic happens in the statement, against the committed
// due_at, so concurrent snoozes stack rather than overwrite each other.
// Nothing else changes; in particular the recurrence pattern is untouched.
func (r *TaskRepository) PostponeIfPending(ctx context.Context, id uuid.UUID, delta time.Duration) (*models.Task, error) {
	query := `
		UPDATE tasks
		SET due_at = due_at + make_interval(secs => $2), updated_at = $3
		WHERE id = $1 AND status = $4
		RETURNING ` + taskColumns

	task, err := scanTask(r.db.QueryRowContext(ctx, query,
		id, delta.Seconds(), time.Now().UTC(), models.TaskStatusPending))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, r.pendingGuardError(ctx, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to postpone task: %w", err)
	}

	return task, nil
}

// UpdateIfPending rewrites a pending task's descriptive fields. The guard
// keeps completed and cancelled occurrences immutable.
func (r *TaskRepository) UpdateIfPending(ctx context.Context, task *models.Task) (*models.Task, error) {
	if task.IsRecurring {
		if err := task.Recurrence.Validate(); err != nil {
			return nil, err
		}
	}

	tagsJSON, patternJSON, err := marshalTaskJSON(task)
	if err != nil {
		return nil, err
	}

	query := `
		UPDATE tasks
		SET title = $2, description = $3, location = $4, due_at = $5, timezone = $6,
			priority = $7, tags = $8, is_recurring = $9, recurrence_pattern = $10,
			updated_at = $11
		WHERE id = $1 AND status = $12
		RETURNING ` + taskColumns

	updated, err := scanTask(r.db.QueryRowContext(ctx, query,
		task.ID,
		task.Title,
		task.Description,
		task.Location,
		task.DueAt.UTC(),
		task.Timezone,
		task.Priority,
		tagsJSON,
		task.IsRecurring,
		patternJSON,
		time.Now().UTC(),
		models.TaskStatusPending,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, r.pendingGuardError(ctx, task.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	return updated, nil
}

// SetLastNotified records the time a reminder for the task was dispatched
func (r *TaskRepository) SetLastNotified(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `UPDATE tasks SET last_notified_at = $2, updated_at = $3 WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, at.UTC(), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to set last notified: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return models.ErrTaskNotFound
	}

	return nil
}

// Delete deletes a task by ID
func (r *TaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return models.ErrTaskNotFound
	}

	return nil
}

// pendingGuardError distinguishes "no such task" from "task exists but is no
// longer pending" after a guarded update matched zero rows.
func (r *TaskRepository) pendingGuardError(ctx context.Context, id uuid.UUID) error {
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return models.ErrInvalidState
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*models.Task, error) {
	task := &models.Task{}
	var (
		tagsJSON       []byte
		patternJSON    []byte
		completedAt    sql.NullTime
		lastNotifiedAt sql.NullTime
		aiConfidence   sql.NullInt64
	)

	err := row.Scan(
		&task.ID,
		&task.OwnerID,
		&task.Title,
		&task.Description,
		&task.Location,
		&task.DueAt,
		&task.Timezone,
		&task.Priority,
		&tagsJSON,
		&task.Status,
		&task.IsRecurring,
		&patternJSON,
		&completedAt,
		&lastNotifiedAt,
		&task.SourceText,
		&task.ParsedByAI,
		&aiConfidence,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(tagsJSON) > 0 {
		if err := json.Unmarshal(tagsJSON, &task.Tags); err != nil {
			return nil, fmt.Errorf("failed to unmarshal tags: %w", err)
		}
	}
	if len(patternJSON) > 0 {
		pattern := &models.RecurrencePattern{}
		if err := json.Unmarshal(patternJSON, pattern); err != nil {
			return nil, fmt.Errorf("failed to unmarshal recurrence pattern: %w", err)
		}
		task.Recurrence = pattern
	}
	if completedAt.Valid {
		task.CompletedAt = &completedAt.Time
	}
	if lastNotifiedAt.Valid {
		task.LastNotifiedAt = &lastNotifiedAt.Time
	}
	if aiConfidence.Valid {
		c := int(aiConfidence.Int64)
		task.AIConfidence = &c
	}

	return task, nil
}

func collectTasks(rows *sql.Rows) ([]*models.Task, error) {
	var tasks []*models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}
	return tasks, nil
}

func marshalTaskJSON(task *models.Task) (tags []byte, pattern []byte, err error) {
	tags, err = json.Marshal(task.Tags)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal tags: %w", err)
	}
	if task.Recurrence != nil {
		pattern, err = json.Marshal(task.Recurrence)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to marshal recurrence pattern: %w", err)
		}
	}
	return tags, pattern, nil
}
