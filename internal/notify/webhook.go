package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/remindly/remind-api/internal/models"
)

const defaultWebhookTimeout = 5 * time.Second

// WebhookHandler POSTs reminders to an outbound webhook endpoint as JSON
type WebhookHandler struct {
	url    string
	client *http.Client
}

// webhookPayload is the wire shape posted to the endpoint
type webhookPayload struct {
	TaskID      string   `json:"task_id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	DueAt       string   `json:"due_at"`
	Priority    string   `json:"priority"`
	Tags        []string `json:"tags,omitempty"`
	Location    string   `json:"location,omitempty"`
	Message     string   `json:"message"`
	Timestamp   string   `json:"timestamp"`
}

// NewWebhookHandler creates a webhook handler posting to url
func NewWebhookHandler(url string) *WebhookHandler {
	return &WebhookHandler{
		url:    url,
		client: &http.Client{Timeout: defaultWebhookTimeout},
	}
}

// Name identifies the handler in logs
func (h *WebhookHandler) Name() string { return "webhook" }

// Deliver POSTs the task and message as JSON; any non-2xx response is a
// delivery failure
func (h *WebhookHandler) Deliver(ctx context.Context, task *models.Task, message string) error {
	payload := webhookPayload{
		TaskID:      task.ID.String(),
		Title:       task.Title,
		Description: task.Description,
		DueAt:       task.DueAt.UTC().Format(time.RFC3339),
		Priority:    string(task.Priority),
		Tags:        task.Tags,
		Location:    task.Location,
		Message:     message,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post webhook: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return nil
}

var _ Handler = (*WebhookHandler)(nil)
