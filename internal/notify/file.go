package notify

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/remindly/remind-api/internal/models"
)

// FileHandler appends reminders to a durable log file, one line per delivery
type FileHandler struct {
	path string
	mu   sync.Mutex
}

// NewFileHandler creates a file handler appending to path
func NewFileHandler(path string) *FileHandler {
	return &FileHandler{path: path}
}

// Name identifies the handler in logs
func (h *FileHandler) Name() string { return "file" }

// Deliver appends a timestamped line and fsyncs it so the record survives a
// crash right after delivery
func (h *FileHandler) Deliver(_ context.Context, _ *models.Task, message string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	f, err := os.OpenFile(h.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open notification log: %w", err)
	}
	defer f.Close()

	line := fmt.Sprintf("[%s] %s\n", time.Now().UTC().Format("2006-01-02 15:04:05"), message)
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("failed to append notification: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("failed to sync notification log: %w", err)
	}

	return nil
}

var _ Handler = (*FileHandler)(nil)
