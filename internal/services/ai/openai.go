package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"github.com/remindly/remind-api/internal/models"
	"go.uber.org/zap"
)

const (
	// DefaultOpenAIModel is the default model to use
	DefaultOpenAIModel = "gpt-4o-mini"
	// DefaultOpenAIBaseURL is the default OpenAI API base URL
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	// DefaultTimeout is the default timeout for API calls
	DefaultTimeout = 30 * time.Second

	// ErrNoChoicesInResponse is returned when the API response has no choices
	ErrNoChoicesInResponse = "no choices in response"
)

// OpenAIParser implements the Parser interface using OpenAI's API
type OpenAIParser struct {
	client    openai.Client
	model     string
	logger    *zap.Logger
	debugMode bool
	// now is swappable in tests so prompts reference a fixed instant
	now func() time.Time
}

// NewOpenAIParser creates a new OpenAI parser
func NewOpenAIParser(apiKey string, model string) *OpenAIParser {
	return NewOpenAIParserWithLogger(apiKey, DefaultOpenAIBaseURL, model, nil, false)
}

// NewOpenAIParserWithLogger creates a new OpenAI parser with logger support
func NewOpenAIParserWithLogger(apiKey string, baseURL string, model string, logger *zap.Logger, debugMode bool) *OpenAIParser {
	if model == "" {
		model = DefaultOpenAIModel
	}
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}

	httpClient := &http.Client{
		Timeout: DefaultTimeout,
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithHTTPClient(httpClient),
	)

	return &OpenAIParser{
		client:    client,
		model:     model,
		logger:    logger,
		debugMode: debugMode,
		now:       time.Now,
	}
}

// parsedTaskWire is the JSON shape the model is asked to produce
type parsedTaskWire struct {
	Title       string                    `json:"title"`
	Description string                    `json:"description"`
	DueDateTime string                    `json:"due_date_time"`
	Timezone    string                    `json:"timezone"`
	Priority    string                    `json:"priority"`
	Tags        []string                  `json:"tags"`
	Location    string                    `json:"location"`
	IsRecurring bool                      `json:"is_recurring"`
	Recurrence  *models.RecurrencePattern `json:"recurrence_pattern"`
	Confidence  int                       `json:"confidence"`
}

// Parse turns free text into structured task attributes
func (p *OpenAIParser) Parse(ctx context.Context, text, timezone string) (*ParsedTask, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("input text cannot be empty")
	}
	if timezone == "" {
		timezone = "UTC"
	}

	content, err := p.sendParseRequest(ctx, text, timezone)
	if err != nil {
		return nil, err
	}

	return parseAndValidateParseResponse(content, timezone)
}

func (p *OpenAIParser) sendParseRequest(ctx context.Context, text, timezone string) (string, error) {
	prompt := p.buildParsePrompt(text, timezone)
	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage("You are a helpful assistant that converts natural-language reminders into structured JSON. Respond with valid JSON only."),
		openai.UserMessage(prompt),
	}
	req := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(p.model),
		Messages: messages,
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	}

	if p.logger != nil && p.debugMode {
		p.logger.Debug("llm_api_request",
			zap.String("operation", "parse_reminder"),
			zap.String("model", p.model),
			zap.Int("prompt_length", len(prompt)),
		)
	}

	start := time.Now()
	resp, err := p.client.Chat.Completions.New(ctx, req)
	latency := time.Since(start)
	if err != nil {
		if p.logger != nil && p.debugMode {
			p.logger.Debug("llm_api_error",
				zap.String("operation", "parse_reminder"),
				zap.String("model", p.model),
				zap.Error(err),
				zap.Duration("latency", latency),
			)
		}
		if apiErr := ExtractAPIError(err); apiErr != nil {
			return "", fmt.Errorf("failed to parse reminder: %w", apiErr)
		}
		return "", fmt.Errorf("failed to parse reminder: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New(ErrNoChoicesInResponse)
	}

	content := resp.Choices[0].Message.Content
	if p.logger != nil && p.debugMode {
		p.logger.Debug("llm_api_response",
			zap.String("operation", "parse_reminder"),
			zap.String("model", p.model),
			zap.Int("response_length", len(content)),
			zap.Int64("latency_ms", latency.Milliseconds()),
		)
	}
	return content, nil
}

func (p *OpenAIParser) buildParsePrompt(text, timezone string) string {
	now := p.now()
	if loc, err := time.LoadLocation(timezone); err == nil {
		now = now.In(loc)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Current time: %s (%s)\n", now.Format("2006-01-02 15:04:05"), now.Format("Monday"))
	fmt.Fprintf(&b, "User timezone: %s\n\n", timezone)
	b.WriteString("Convert the reminder below into JSON with these fields:\n")
	b.WriteString(`{
  "title": "brief summary",
  "description": "additional details or empty string",
  "due_date_time": "when it is due, ISO 8601 with offset (e.g. 2025-10-23T14:00:00-04:00)",
  "timezone": "IANA timezone for the due date",
  "priority": "low|medium|high|urgent based on urgency words",
  "tags": ["relevant", "categories"],
  "location": "location mentioned or empty string",
  "is_recurring": false,
  "recurrence_pattern": {
    "frequency": "daily|weekly|monthly|yearly",
    "interval": 1,
    "days_of_week": [0],
    "day_of_month": 15,
    "month": 6,
    "end_date": "2026-12-31T23:59:59Z"
  },
  "confidence": 0
}
`)
	b.WriteString("\nRules: resolve relative dates against the current time; ")
	b.WriteString("days_of_week uses 0=Monday..6=Sunday; ")
	b.WriteString("recurrence_pattern is null unless is_recurring; ")
	b.WriteString("end_date is omitted unless the user bounds the repetition (\"until June\", \"through 2026\"); ")
	b.WriteString("confidence is 0-100.\n\n")
	fmt.Fprintf(&b, "Reminder: %s", text)
	return b.String()
}

// parseAndValidateParseResponse decodes the model output and normalizes it
// into a ParsedTask, falling back to safe defaults for optional fields and
// rejecting responses that lack the essentials.
func parseAndValidateParseResponse(content, requestTimezone string) (*ParsedTask, error) {
	raw := content
	var wire parsedTaskWire
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		// Some models wrap the JSON in prose; salvage the outermost object.
		if len(raw) > 0 && raw[0] != '{' {
			start := bytes.Index([]byte(raw), []byte("{"))
			end := bytes.LastIndex([]byte(raw), []byte("}"))
			if start != -1 && end != -1 && end > start {
				raw = raw[start : end+1]
			}
		}
		if err := json.Unmarshal([]byte(raw), &wire); err != nil {
			return nil, fmt.Errorf("failed to parse model response: %w", err)
		}
	}

	if strings.TrimSpace(wire.Title) == "" {
		return nil, fmt.Errorf("model response missing title")
	}

	dueAt, err := time.Parse(time.RFC3339, wire.DueDateTime)
	if err != nil {
		return nil, fmt.Errorf("model response has invalid due_date_time %q: %w", wire.DueDateTime, err)
	}

	tz := wire.Timezone
	if tz == "" {
		tz = requestTimezone
	}

	priority := models.Priority(wire.Priority)
	switch priority {
	case models.PriorityLow, models.PriorityMedium, models.PriorityHigh, models.PriorityUrgent:
	default:
		priority = models.PriorityMedium
	}

	parsed := &ParsedTask{
		Title:       strings.TrimSpace(wire.Title),
		Description: strings.TrimSpace(wire.Description),
		DueAt:       dueAt.UTC(),
		Timezone:    tz,
		Priority:    priority,
		Tags:        wire.Tags,
		Location:    strings.TrimSpace(wire.Location),
		Confidence:  clampConfidence(wire.Confidence),
	}

	if wire.IsRecurring && wire.Recurrence != nil {
		if wire.Recurrence.Interval == 0 {
			wire.Recurrence.Interval = 1
		}
		if err := wire.Recurrence.Validate(); err != nil {
			return nil, fmt.Errorf("model produced unusable recurrence: %w", err)
		}
		parsed.IsRecurring = true
		parsed.Recurrence = wire.Recurrence
	}

	return parsed, nil
}

func clampConfidence(c int) int {
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}

var _ Parser = (*OpenAIParser)(nil)
