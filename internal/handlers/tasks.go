package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/remindly/remind-api/internal/database"
	logpkg "github.com/remindly/remind-api/internal/logger"
	"github.com/remindly/remind-api/internal/models"
	"github.com/remindly/remind-api/internal/recurrence"
	"github.com/remindly/remind-api/internal/request"
	"github.com/remindly/remind-api/internal/services/ai"
	"github.com/remindly/remind-api/internal/validation"
	"go.uber.org/zap"
)

const (
	// MaxSourceTextLength is the maximum length for free-text task input
	MaxSourceTextLength = 10000
	// DefaultSnoozeMinutes is the snooze delay applied when the request omits one
	DefaultSnoozeMinutes = 10
	// MaxSnoozeMinutes caps a single snooze at 30 days
	MaxSnoozeMinutes = 43200
)

// TaskHandler handles task-related requests
type TaskHandler struct {
	store      database.TaskStore
	controller *recurrence.Controller
	parser     ai.Parser
	clock      recurrence.Clock
	logger     *zap.Logger
}

// NewTaskHandler creates a new task handler. parser may be nil when no AI
// backend is configured; free-text creation then returns 503.
func NewTaskHandler(store database.TaskStore, controller *recurrence.Controller, parser ai.Parser, clock recurrence.Clock, logger *zap.Logger) *TaskHandler {
	if clock == nil {
		clock = recurrence.SystemClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaskHandler{
		store:      store,
		controller: controller,
		parser:     parser,
		clock:      clock,
		logger:     logger,
	}
}

// RegisterRoutes registers task routes on the given router.
// The router should already have the /tasks prefix.
func (h *TaskHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListTasks).Methods("GET")
	r.HandleFunc("", h.CreateTask).Methods("POST")
	r.HandleFunc("/due", h.ListDueTasks).Methods("GET")
	r.HandleFunc("/{id}", h.GetTask).Methods("GET")
	r.HandleFunc("/{id}", h.UpdateTask).Methods("PUT", "PATCH")
	r.HandleFunc("/{id}", h.DeleteTask).Methods("DELETE")
	r.HandleFunc("/{id}/complete", h.CompleteTask).Methods("POST")
	r.HandleFunc("/{id}/skip", h.SkipTask).Methods("POST")
	r.HandleFunc("/{id}/snooze", h.SnoozeTask).Methods("POST")
}

// CreateTaskRequest represents a create task request. Either Text (parsed by
// the AI backend) or Title+DueAt (structured) must be provided.
type CreateTaskRequest struct {
	Text string `json:"text,omitempty"`

	Title       string                    `json:"title,omitempty"`
	Description string                    `json:"description,omitempty"`
	DueAt       string                    `json:"due_at,omitempty"`
	Timezone    string                    `json:"timezone,omitempty"`
	Priority    string                    `json:"priority,omitempty"`
	Tags        []string                  `json:"tags,omitempty"`
	Location    string                    `json:"location,omitempty"`
	Recurrence  *models.RecurrencePattern `json:"recurrence_pattern,omitempty"`
}

// UpdateTaskRequest represents a partial task update. Only present fields are
// applied; omitted fields keep their stored values.
type UpdateTaskRequest struct {
	Title       *string                   `json:"title,omitempty"`
	Description *string                   `json:"description,omitempty"`
	DueAt       *string                   `json:"due_at,omitempty"`
	Timezone    *string                   `json:"timezone,omitempty"`
	Priority    *string                   `json:"priority,omitempty"`
	Tags        *[]string                 `json:"tags,omitempty"`
	Location    *string                   `json:"location,omitempty"`
	Recurrence  *models.RecurrencePattern `json:"recurrence_pattern,omitempty"`
}

// SnoozeRequest represents a snooze request
type SnoozeRequest struct {
	Minutes int `json:"minutes,omitempty"`
}

// TransitionResponse carries a completed/skipped occurrence plus the next
// occurrence materialized for recurring tasks.
type TransitionResponse struct {
	Task *models.Task `json:"task"`
	Next *models.Task `json:"next_occurrence,omitempty"`
}

// ListTasks lists tasks for the authenticated owner, optionally filtered by
// status and/or tag
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	owner := request.OwnerFromContext(r)
	if owner == "" {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "Owner not found in context")
		return
	}

	var status *models.TaskStatus
	if s := r.URL.Query().Get("status"); s != "" {
		if err := validation.ValidateTaskStatus(s); err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
		sEnum := models.TaskStatus(s)
		status = &sEnum
	}

	tasks, err := h.store.ListByOwner(r.Context(), owner, status, r.URL.Query().Get("tag"))
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve tasks")
		return
	}

	respondJSON(w, http.StatusOK, tasks)
}

// ListDueTasks lists pending tasks due within the next window_minutes (default 5)
func (h *TaskHandler) ListDueTasks(w http.ResponseWriter, r *http.Request) {
	owner := request.OwnerFromContext(r)
	if owner == "" {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "Owner not found in context")
		return
	}

	windowMinutes := 5
	if wm := r.URL.Query().Get("window_minutes"); wm != "" {
		parsed, err := strconv.Atoi(wm)
		if err != nil || parsed < 1 || parsed > 1440 {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "window_minutes must be between 1 and 1440")
			return
		}
		windowMinutes = parsed
	}

	now := h.clock.Now()
	due, err := h.store.GetDueBetween(r.Context(), now, now.Add(time.Duration(windowMinutes)*time.Minute), models.TaskStatusPending)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve due tasks")
		return
	}

	owned := make([]*models.Task, 0, len(due))
	for _, task := range due {
		if task.OwnerID == owner {
			owned = append(owned, task)
		}
	}

	respondJSON(w, http.StatusOK, owned)
}

// CreateTask creates a new task, either from free text via the AI parser or
// from structured fields.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	owner := request.OwnerFromContext(r)
	if owner == "" {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "Owner not found in context")
		return
	}

	var req CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if maxBytesErr, ok := err.(*http.MaxBytesError); ok {
			respondJSONError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large", fmt.Sprintf("Request body exceeds maximum size of %d bytes", maxBytesErr.Limit))
			return
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}

	var task *models.Task
	var err error
	if req.Text != "" {
		task, err = h.taskFromText(r, owner, &req)
	} else {
		task, err = h.taskFromFields(owner, &req)
	}
	if err != nil {
		var status int
		switch {
		case errors.Is(err, errParserUnavailable):
			status = http.StatusServiceUnavailable
		case ai.IsRateLimitError(err):
			status = http.StatusTooManyRequests
		default:
			status = http.StatusBadRequest
		}
		respondJSONError(w, status, http.StatusText(status), err.Error())
		return
	}

	if err := h.store.Create(r.Context(), task); err != nil {
		var patternErr *models.InvalidPatternError
		if errors.As(err, &patternErr) {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", patternErr.Error())
			return
		}
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to create task")
		return
	}

	h.logger.Info("task_created",
		zap.String("task_id", task.ID.String()),
		zap.String("owner_id", logpkg.SanitizeOwnerID(owner)),
		zap.Bool("parsed_by_ai", task.ParsedByAI),
		zap.Bool("is_recurring", task.IsRecurring),
	)
	respondJSON(w, http.StatusCreated, task)
}

var errParserUnavailable = errors.New("no AI parser configured")

func (h *TaskHandler) taskFromText(r *http.Request, owner string, req *CreateTaskRequest) (*models.Task, error) {
	if h.parser == nil {
		return nil, errParserUnavailable
	}

	text := validation.SanitizeText(req.Text)
	if text == "" {
		return nil, errors.New("text cannot be empty after sanitization")
	}
	if len(text) > MaxSourceTextLength {
		return nil, fmt.Errorf("text exceeds maximum length of %d characters", MaxSourceTextLength)
	}

	timezone := req.Timezone
	if timezone == "" {
		timezone = "UTC"
	}

	parsed, err := h.parser.Parse(r.Context(), text, timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to parse task text: %w", err)
	}

	confidence := parsed.Confidence
	task := &models.Task{
		ID:           uuid.New(),
		OwnerID:      owner,
		Title:        parsed.Title,
		Description:  parsed.Description,
		Location:     parsed.Location,
		DueAt:        parsed.DueAt.UTC(),
		Timezone:     parsed.Timezone,
		Priority:     parsed.Priority,
		Tags:         parsed.Tags,
		Status:       models.TaskStatusPending,
		IsRecurring:  parsed.IsRecurring,
		Recurrence:   parsed.Recurrence,
		SourceText:   text,
		ParsedByAI:   true,
		AIConfidence: &confidence,
	}
	return task, nil
}

func (h *TaskHandler) taskFromFields(owner string, req *CreateTaskRequest) (*models.Task, error) {
	title := validation.SanitizeText(req.Title)
	if title == "" {
		return nil, errors.New("either text or title is required")
	}

	if req.DueAt == "" {
		return nil, errors.New("due_at is required for structured task creation")
	}
	dueAt, err := time.Parse(time.RFC3339, req.DueAt)
	if err != nil {
		return nil, fmt.Errorf("due_at must be RFC3339: %w", err)
	}

	priority := models.PriorityMedium
	if req.Priority != "" {
		if err := validation.ValidatePriority(req.Priority); err != nil {
			return nil, err
		}
		priority = models.Priority(req.Priority)
	}

	timezone := req.Timezone
	if timezone == "" {
		timezone = "UTC"
	}

	if req.Recurrence != nil {
		if req.Recurrence.Interval == 0 {
			req.Recurrence.Interval = 1
		}
		if err := req.Recurrence.Validate(); err != nil {
			return nil, err
		}
	}

	return &models.Task{
		ID:          uuid.New(),
		OwnerID:     owner,
		Title:       title,
		Description: req.Description,
		Location:    req.Location,
		DueAt:       dueAt.UTC(),
		Timezone:    timezone,
		Priority:    priority,
		Tags:        req.Tags,
		Status:      models.TaskStatusPending,
		IsRecurring: req.Recurrence != nil,
		Recurrence:  req.Recurrence,
	}, nil
}

// GetTask retrieves a task by ID
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	task, ok := h.loadOwnedTask(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, task)
}

// UpdateTask applies a partial update to a pending task. Completed and
// cancelled occurrences are immutable, so updating them is a conflict.
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	task, ok := h.loadOwnedTask(w, r)
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}

	if err := applyTaskUpdate(task, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	updated, err := h.store.UpdateIfPending(r.Context(), task)
	if err != nil {
		var patternErr *models.InvalidPatternError
		switch {
		case errors.As(err, &patternErr):
			respondJSONError(w, http.StatusBadRequest, "Bad Request", patternErr.Error())
		case errors.Is(err, models.ErrTaskNotFound):
			respondJSONError(w, http.StatusNotFound, "Not Found", "Task not found")
		case errors.Is(err, models.ErrInvalidState):
			respondJSONError(w, http.StatusConflict, "Conflict", "Task is not pending")
		default:
			respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to update task")
		}
		return
	}

	respondJSON(w, http.StatusOK, updated)
}

func applyTaskUpdate(task *models.Task, req *UpdateTaskRequest) error {
	if req.Title != nil {
		title := validation.SanitizeText(*req.Title)
		if title == "" {
			return errors.New("title cannot be empty")
		}
		task.Title = title
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.Location != nil {
		task.Location = *req.Location
	}
	if req.DueAt != nil {
		dueAt, err := time.Parse(time.RFC3339, *req.DueAt)
		if err != nil {
			return fmt.Errorf("due_at must be RFC3339: %w", err)
		}
		task.DueAt = dueAt.UTC()
	}
	if req.Timezone != nil {
		task.Timezone = *req.Timezone
	}
	if req.Priority != nil {
		if err := validation.ValidatePriority(*req.Priority); err != nil {
			return err
		}
		task.Priority = models.Priority(*req.Priority)
	}
	if req.Tags != nil {
		task.Tags = *req.Tags
	}
	if req.Recurrence != nil {
		if req.Recurrence.Interval == 0 {
			req.Recurrence.Interval = 1
		}
		if err := req.Recurrence.Validate(); err != nil {
			return err
		}
		task.IsRecurring = true
		task.Recurrence = req.Recurrence
	}
	return nil
}

// DeleteTask deletes a task
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	task, ok := h.loadOwnedTask(w, r)
	if !ok {
		return
	}

	if err := h.store.Delete(r.Context(), task.ID); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to delete task")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CompleteTask marks a task as completed and materializes the next occurrence
// for recurring tasks.
func (h *TaskHandler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	task, ok := h.loadOwnedTask(w, r)
	if !ok {
		return
	}

	completed, next, err := h.controller.Complete(r.Context(), task.ID)
	if err != nil {
		h.respondTransitionError(w, err, "Failed to complete task")
		return
	}

	respondJSON(w, http.StatusOK, TransitionResponse{Task: completed, Next: next})
}

// SkipTask cancels the current occurrence without completing it
func (h *TaskHandler) SkipTask(w http.ResponseWriter, r *http.Request) {
	task, ok := h.loadOwnedTask(w, r)
	if !ok {
		return
	}

	skipped, next, err := h.controller.Skip(r.Context(), task.ID)
	if err != nil {
		h.respondTransitionError(w, err, "Failed to skip task")
		return
	}

	respondJSON(w, http.StatusOK, TransitionResponse{Task: skipped, Next: next})
}

// SnoozeTask pushes a pending task's due time forward
func (h *TaskHandler) SnoozeTask(w http.ResponseWriter, r *http.Request) {
	task, ok := h.loadOwnedTask(w, r)
	if !ok {
		return
	}

	req := SnoozeRequest{Minutes: DefaultSnoozeMinutes}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
			return
		}
	}
	if req.Minutes <= 0 {
		req.Minutes = DefaultSnoozeMinutes
	}
	if req.Minutes > MaxSnoozeMinutes {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("minutes cannot exceed %d", MaxSnoozeMinutes))
		return
	}

	snoozed, err := h.controller.Snooze(r.Context(), task.ID, time.Duration(req.Minutes)*time.Minute)
	if err != nil {
		h.respondTransitionError(w, err, "Failed to snooze task")
		return
	}

	respondJSON(w, http.StatusOK, snoozed)
}

// loadOwnedTask parses the path ID, loads the task and verifies ownership.
// Writes the error response itself and returns ok=false on any failure.
func (h *TaskHandler) loadOwnedTask(w http.ResponseWriter, r *http.Request) (*models.Task, bool) {
	owner := request.OwnerFromContext(r)
	if owner == "" {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "Owner not found in context")
		return nil, false
	}

	vars := mux.Vars(r)
	id, err := uuid.Parse(vars["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid task ID")
		return nil, false
	}

	task, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrTaskNotFound) {
			respondJSONError(w, http.StatusNotFound, "Not Found", "Task not found")
		} else {
			respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to load task")
		}
		return nil, false
	}

	if task.OwnerID != owner {
		respondJSONError(w, http.StatusForbidden, "Forbidden", "Task does not belong to user")
		return nil, false
	}

	return task, true
}

func (h *TaskHandler) respondTransitionError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, models.ErrTaskNotFound):
		respondJSONError(w, http.StatusNotFound, "Not Found", "Task not found")
	case errors.Is(err, models.ErrInvalidState):
		respondJSONError(w, http.StatusConflict, "Conflict", "Task is not pending")
	default:
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", fallback)
	}
}
