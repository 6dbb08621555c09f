package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/remindly/remind-api/internal/models"
)

// Tracker remembers which occurrences have already been notified. The
// detection window (5 min) is wider than the scan cadence (1 min), so the
// same occurrence shows up in several consecutive scans; the tracker is what
// turns that into exactly one notification.
type Tracker interface {
	// MarkNotified records the occurrence and reports whether this was the
	// first time it was seen.
	MarkNotified(ctx context.Context, key string) (bool, error)
}

// OccurrenceKey identifies one occurrence of a task. Snoozing moves DueAt,
// which deliberately produces a fresh key: a snoozed reminder fires again.
func OccurrenceKey(task *models.Task) string {
	return fmt.Sprintf("notified:%s:%d", task.ID, task.DueAt.UTC().Unix())
}

// MemoryTracker is the in-process Tracker used when no Redis is configured.
// Entries expire after the retention period to bound memory.
type MemoryTracker struct {
	mu        sync.Mutex
	seen      map[string]time.Time
	retention time.Duration
}

// DefaultTrackerRetention is how long a notified occurrence is remembered.
// It only needs to outlive the detection window; a day is comfortably past
// any sane window.
const DefaultTrackerRetention = 24 * time.Hour

// NewMemoryTracker creates an in-memory tracker with the given retention
func NewMemoryTracker(retention time.Duration) *MemoryTracker {
	if retention <= 0 {
		retention = DefaultTrackerRetention
	}
	return &MemoryTracker{
		seen:      make(map[string]time.Time),
		retention: retention,
	}
}

// MarkNotified records the key, pruning expired entries as it goes
func (t *MemoryTracker) MarkNotified(_ context.Context, key string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	for k, at := range t.seen {
		if now.Sub(at) > t.retention {
			delete(t.seen, k)
		}
	}

	if _, ok := t.seen[key]; ok {
		return false, nil
	}
	t.seen[key] = now
	return true, nil
}

var _ Tracker = (*MemoryTracker)(nil)
