package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/remindly/remind-api/internal/database"
	"github.com/remindly/remind-api/internal/recurrence"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// DefaultCheckInterval is the default scan cadence
const DefaultCheckInterval = time.Minute

const tracerName = "remind-api/scheduler"

// Loop drives the due-task scan on a fixed cadence. Construct it once at
// process start and keep the handle; Start and Stop manage the lifecycle.
// At most one scan runs at a time: a tick arriving mid-scan is skipped, not
// queued.
type Loop struct {
	scanner    *Scanner
	dispatcher *Dispatcher
	store      database.TaskStore
	clock      recurrence.Clock
	interval   time.Duration
	logger     *zap.Logger

	mu       sync.Mutex
	running  bool
	stopCh   chan struct{}
	done     chan struct{}
	scanning atomic.Bool
}

// NewLoop creates a scheduler loop with the given cadence
func NewLoop(scanner *Scanner, dispatcher *Dispatcher, store database.TaskStore, clock recurrence.Clock, interval time.Duration, logger *zap.Logger) *Loop {
	if clock == nil {
		clock = recurrence.SystemClock()
	}
	if interval <= 0 {
		interval = DefaultCheckInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loop{
		scanner:    scanner,
		dispatcher: dispatcher,
		store:      store,
		clock:      clock,
		interval:   interval,
		logger:     logger,
	}
}

// Start begins ticking. It returns an error if the loop is already running.
func (l *Loop) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running {
		return fmt.Errorf("scheduler loop already running")
	}
	l.running = true
	l.stopCh = make(chan struct{})
	l.done = make(chan struct{})

	go l.run(ctx, l.stopCh, l.done)

	l.logger.Info("scheduler_started", zap.Duration("check_interval", l.interval))
	return nil
}

// Stop halts future ticks and waits for any in-flight scan to finish. It is
// a request, not a kill: no delivery is aborted mid-flight. Safe to call when
// not running.
func (l *Loop) Stop() {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return
	}
	l.running = false
	stopCh, done := l.stopCh, l.done
	l.mu.Unlock()

	close(stopCh)
	<-done
	l.logger.Info("scheduler_stopped")
}

func (l *Loop) run(ctx context.Context, stopCh <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case <-ticker.C:
			l.RunOnce(ctx)
			// Discard any tick that fired while the scan ran; overlapped
			// ticks are skipped, not queued.
			select {
			case <-ticker.C:
			default:
			}
		}
	}
}

// RunOnce executes a single scan-and-dispatch cycle. A store failure ends
// the cycle early; the next tick retries the whole scan, with no partial
// state carried between ticks. Concurrent callers are rejected so at most
// one scan is active.
func (l *Loop) RunOnce(ctx context.Context) {
	if !l.scanning.CompareAndSwap(false, true) {
		l.logger.Debug("scan_tick_skipped_scan_in_progress")
		return
	}
	defer l.scanning.Store(false)

	now := l.clock.Now()

	ctx, span := otel.Tracer(tracerName).Start(ctx, "scheduler.scan")
	defer span.End()

	tasks, err := l.scanner.Scan(ctx, now)
	if err != nil {
		l.logger.Error("scan_failed", zap.Error(err))
		return
	}
	span.SetAttributes(attribute.Int("due_tasks", len(tasks)))

	if len(tasks) == 0 {
		return
	}
	l.logger.Info("due_tasks_found", zap.Int("count", len(tasks)))

	dispatched := 0
	for _, task := range tasks {
		if !l.dispatcher.Dispatch(ctx, task) {
			continue
		}
		dispatched++

		if err := l.store.SetLastNotified(ctx, task.ID, l.clock.Now()); err != nil {
			l.logger.Warn("failed_to_record_notification_time",
				zap.String("task_id", task.ID.String()),
				zap.Error(err),
			)
		}
	}

	span.SetAttributes(attribute.Int("dispatched", dispatched))
}
