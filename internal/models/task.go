package models

import (
	"time"

	"github.com/google/uuid"
)

// Priority represents how urgent a task is
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// TaskStatus represents the lifecycle status of a task occurrence
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusCancelled TaskStatus = "cancelled"
)

// Task represents one dated occurrence of a (possibly recurring) reminder.
// DueAt is stored in UTC; Timezone records the zone the user meant it in.
type Task struct {
	ID             uuid.UUID          `json:"id"`
	OwnerID        string             `json:"owner_id"`
	Title          string             `json:"title"`
	Description    string             `json:"description,omitempty"`
	Location       string             `json:"location,omitempty"`
	DueAt          time.Time          `json:"due_at"`
	Timezone       string             `json:"timezone"`
	Priority       Priority           `json:"priority"`
	Tags           []string           `json:"tags,omitempty"`
	Status         TaskStatus         `json:"status"`
	IsRecurring    bool               `json:"is_recurring"`
	Recurrence     *RecurrencePattern `json:"recurrence_pattern,omitempty"`
	CompletedAt    *time.Time         `json:"completed_at,omitempty"`
	LastNotifiedAt *time.Time         `json:"last_notified_at,omitempty"`
	SourceText     string             `json:"source_text,omitempty"`
	ParsedByAI     bool               `json:"parsed_by_ai"`
	AIConfidence   *int               `json:"ai_confidence,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

// NextOccurrenceFrom builds the successor record for a recurring task.
// The successor copies everything that describes the task itself and starts
// a fresh pending occurrence at the given due time.
func (t *Task) NextOccurrenceFrom(dueAt time.Time) *Task {
	return &Task{
		ID:           uuid.New(),
		OwnerID:      t.OwnerID,
		Title:        t.Title,
		Description:  t.Description,
		Location:     t.Location,
		DueAt:        dueAt,
		Timezone:     t.Timezone,
		Priority:     t.Priority,
		Tags:         append([]string(nil), t.Tags...),
		Status:       TaskStatusPending,
		IsRecurring:  t.IsRecurring,
		Recurrence:   t.Recurrence.Clone(),
		SourceText:   t.SourceText,
		ParsedByAI:   t.ParsedByAI,
		AIConfidence: t.AIConfidence,
	}
}
