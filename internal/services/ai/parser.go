package ai

import (
	"context"
	"time"

	"github.com/remindly/remind-api/internal/models"
)

// Parser is the text-understanding collaborator: it turns free text like
// "remind me to pay rent on the 1st of every month" into structured task
// attributes. The scheduling engine never depends on how parsing happens.
type Parser interface {
	Parse(ctx context.Context, text, timezone string) (*ParsedTask, error)
}

// ParsedTask is the structured result of parsing free text
type ParsedTask struct {
	Title       string
	Description string
	DueAt       time.Time
	Timezone    string
	Priority    models.Priority
	Tags        []string
	Location    string
	IsRecurring bool
	Recurrence  *models.RecurrencePattern

	// Confidence is the model's self-reported confidence, 0-100
	Confidence int
}
