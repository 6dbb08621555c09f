package scheduler

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/remindly/remind-api/internal/database"
	"github.com/remindly/remind-api/internal/models"
)

// DefaultDetectionWindow is how far ahead a pending task counts as due
const DefaultDetectionWindow = 5 * time.Minute

// Scanner queries the store for tasks becoming due within the detection
// window. It never mutates state and does no deduplication beyond the time
// window; exactly-once delivery is the dispatcher's job.
type Scanner struct {
	store  database.TaskStore
	window time.Duration
}

// NewScanner creates a scanner with the given forward window
func NewScanner(store database.TaskStore, window time.Duration) *Scanner {
	if window <= 0 {
		window = DefaultDetectionWindow
	}
	return &Scanner{store: store, window: window}
}

// Scan returns pending tasks due in [now, now+window], ascending by due time.
// The sort is re-applied here so the ordering contract holds for any store
// implementation.
func (s *Scanner) Scan(ctx context.Context, now time.Time) ([]*models.Task, error) {
	tasks, err := s.store.GetDueBetween(ctx, now, now.Add(s.window), models.TaskStatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to scan for due tasks: %w", err)
	}

	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].DueAt.Before(tasks[j].DueAt)
	})

	return tasks, nil
}
