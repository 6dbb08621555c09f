package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/remindly/remind-api/internal/models"
)

// ConsoleHandler prints reminders to a writer (stdout by default)
type ConsoleHandler struct {
	out io.Writer
}

// NewConsoleHandler creates a console handler writing to stdout
func NewConsoleHandler() *ConsoleHandler {
	return &ConsoleHandler{out: os.Stdout}
}

// NewConsoleHandlerWithWriter creates a console handler writing to w
func NewConsoleHandlerWithWriter(w io.Writer) *ConsoleHandler {
	return &ConsoleHandler{out: w}
}

// Name identifies the handler in logs
func (h *ConsoleHandler) Name() string { return "console" }

// Deliver prints the message framed by separator lines
func (h *ConsoleHandler) Deliver(_ context.Context, _ *models.Task, message string) error {
	rule := strings.Repeat("=", 80)
	if _, err := fmt.Fprintf(h.out, "\n%s\n%s\n%s\n\n", rule, message, rule); err != nil {
		return fmt.Errorf("failed to write to console: %w", err)
	}
	return nil
}

var _ Handler = (*ConsoleHandler)(nil)
