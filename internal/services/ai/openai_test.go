package ai

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/remindly/remind-api/internal/models"
)

func TestParseAndValidateParseResponse_Valid(t *testing.T) {
	t.Parallel()
	content := `{
		"title": "Pay rent",
		"description": "first of the month",
		"due_date_time": "2026-04-01T09:00:00-04:00",
		"timezone": "America/New_York",
		"priority": "high",
		"tags": ["finance"],
		"location": "",
		"is_recurring": true,
		"recurrence_pattern": {"frequency": "monthly", "interval": 1, "day_of_month": 1},
		"confidence": 92
	}`

	parsed, err := parseAndValidateParseResponse(content, "UTC")
	if err != nil {
		t.Fatalf("parseAndValidateParseResponse() error = %v", err)
	}

	if parsed.Title != "Pay rent" {
		t.Errorf("Title = %q", parsed.Title)
	}
	want := time.Date(2026, 4, 1, 13, 0, 0, 0, time.UTC)
	if !parsed.DueAt.Equal(want) {
		t.Errorf("DueAt = %v, want %v (normalized to UTC)", parsed.DueAt, want)
	}
	if parsed.Timezone != "America/New_York" {
		t.Errorf("Timezone = %s", parsed.Timezone)
	}
	if parsed.Priority != models.PriorityHigh {
		t.Errorf("Priority = %s", parsed.Priority)
	}
	if !parsed.IsRecurring || parsed.Recurrence == nil {
		t.Fatal("expected recurring task with pattern")
	}
	if parsed.Recurrence.Frequency != models.FrequencyMonthly || parsed.Recurrence.DayOfMonth != 1 {
		t.Errorf("Recurrence = %+v", parsed.Recurrence)
	}
	if parsed.Confidence != 92 {
		t.Errorf("Confidence = %d", parsed.Confidence)
	}
}

func TestParseAndValidateParseResponse_SalvagesWrappedJSON(t *testing.T) {
	t.Parallel()
	content := "Here is the structured reminder you asked for:\n" +
		`{"title": "Call dentist", "due_date_time": "2026-05-02T10:00:00Z", "confidence": 70}` +
		"\nLet me know if you need anything else."

	parsed, err := parseAndValidateParseResponse(content, "UTC")
	if err != nil {
		t.Fatalf("parseAndValidateParseResponse() error = %v", err)
	}
	if parsed.Title != "Call dentist" {
		t.Errorf("Title = %q", parsed.Title)
	}
}

func TestParseAndValidateParseResponse_Errors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		content string
	}{
		{"not json", "sorry, I can't do that"},
		{"missing title", `{"due_date_time": "2026-05-02T10:00:00Z"}`},
		{"blank title", `{"title": "   ", "due_date_time": "2026-05-02T10:00:00Z"}`},
		{"bad due date", `{"title": "x", "due_date_time": "next tuesday"}`},
		{"missing due date", `{"title": "x"}`},
		{
			"unusable recurrence",
			`{"title": "x", "due_date_time": "2026-05-02T10:00:00Z", "is_recurring": true,
			  "recurrence_pattern": {"frequency": "fortnightly"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := parseAndValidateParseResponse(tt.content, "UTC"); err == nil {
				t.Error("parseAndValidateParseResponse() error = nil, want error")
			}
		})
	}
}

func TestParseAndValidateParseResponse_Defaults(t *testing.T) {
	t.Parallel()
	content := `{
		"title": "Water plants",
		"due_date_time": "2026-05-02T10:00:00Z",
		"priority": "asap",
		"is_recurring": true,
		"recurrence_pattern": {"frequency": "daily"},
		"confidence": 150
	}`

	parsed, err := parseAndValidateParseResponse(content, "Europe/Berlin")
	if err != nil {
		t.Fatalf("parseAndValidateParseResponse() error = %v", err)
	}

	if parsed.Priority != models.PriorityMedium {
		t.Errorf("Priority = %s, want medium fallback for unknown value", parsed.Priority)
	}
	if parsed.Timezone != "Europe/Berlin" {
		t.Errorf("Timezone = %s, want request timezone fallback", parsed.Timezone)
	}
	if parsed.Recurrence.Interval != 1 {
		t.Errorf("Interval = %d, want default 1", parsed.Recurrence.Interval)
	}
	if parsed.Confidence != 100 {
		t.Errorf("Confidence = %d, want clamped to 100", parsed.Confidence)
	}
}

func TestParseAndValidateParseResponse_IgnoresPatternWhenNotRecurring(t *testing.T) {
	t.Parallel()
	content := `{
		"title": "One-off",
		"due_date_time": "2026-05-02T10:00:00Z",
		"is_recurring": false,
		"recurrence_pattern": {"frequency": "daily", "interval": 1}
	}`

	parsed, err := parseAndValidateParseResponse(content, "UTC")
	if err != nil {
		t.Fatalf("parseAndValidateParseResponse() error = %v", err)
	}
	if parsed.IsRecurring || parsed.Recurrence != nil {
		t.Errorf("parsed = %+v, want no recurrence when is_recurring is false", parsed)
	}
}

func TestClampConfidence(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   int
		want int
	}{
		{-5, 0},
		{0, 0},
		{55, 55},
		{100, 100},
		{101, 100},
	}

	for _, tt := range tests {
		if got := clampConfidence(tt.in); got != tt.want {
			t.Errorf("clampConfidence(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestBuildParsePrompt(t *testing.T) {
	t.Parallel()
	p := NewOpenAIParser("test-key", "")
	p.now = func() time.Time {
		return time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)
	}

	prompt := p.buildParsePrompt("remind me to stretch every morning", "UTC")

	if !strings.Contains(prompt, "2026-03-09 12:00:00") {
		t.Error("prompt missing current time")
	}
	if !strings.Contains(prompt, "Monday") {
		t.Error("prompt missing weekday")
	}
	if !strings.Contains(prompt, "remind me to stretch every morning") {
		t.Error("prompt missing the reminder text")
	}
	if !strings.Contains(prompt, "0=Monday") {
		t.Error("prompt missing weekday numbering rule")
	}
}

func TestIsRateLimitError(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain error", errors.New("connection refused"), false},
		{"429 text", errors.New("POST https://api.openai.com: 429 Too Many Requests"), true},
		{"rate limit text", errors.New("rate limit exceeded, retry later"), true},
		{"quota", errors.New("insufficient_quota: add billing details"), true},
		{"api error", &APIError{Message: "slow down", Type: "requests", StatusCode: 429}, true},
		{"api error other", &APIError{Message: "bad request", StatusCode: 400}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsRateLimitError(tt.err); got != tt.want {
				t.Errorf("IsRateLimitError() = %v, want %v", got, tt.want)
			}
		})
	}
}
