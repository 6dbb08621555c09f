package validation

import "testing"

func TestValidatePriority(t *testing.T) {
	t.Parallel()
	for _, valid := range []string{"low", "medium", "high", "urgent"} {
		if err := ValidatePriority(valid); err != nil {
			t.Errorf("ValidatePriority(%q) = %v, want nil", valid, err)
		}
	}
	for _, invalid := range []string{"", "critical", "MEDIUM", "asap"} {
		if err := ValidatePriority(invalid); err == nil {
			t.Errorf("ValidatePriority(%q) = nil, want error", invalid)
		}
	}
}

func TestValidateTaskStatus(t *testing.T) {
	t.Parallel()
	for _, valid := range []string{"pending", "completed", "cancelled"} {
		if err := ValidateTaskStatus(valid); err != nil {
			t.Errorf("ValidateTaskStatus(%q) = %v, want nil", valid, err)
		}
	}
	for _, invalid := range []string{"", "done", "open", "Pending"} {
		if err := ValidateTaskStatus(invalid); err == nil {
			t.Errorf("ValidateTaskStatus(%q) = nil, want error", invalid)
		}
	}
}

func TestSanitizeText(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"trims whitespace", "  hello  ", "hello"},
		{"strips control characters", "hel\x00lo\x07", "hello"},
		{"keeps newlines and tabs", "line1\nline2\tend", "line1\nline2\tend"},
		{"empty", "", ""},
		{"unicode preserved", "café ☕", "café ☕"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := SanitizeText(tt.input); got != tt.want {
				t.Errorf("SanitizeText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCustomValidators(t *testing.T) {
	t.Parallel()
	type payload struct {
		Priority  string `validate:"priority"`
		Status    string `validate:"task_status"`
		Frequency string `validate:"frequency"`
	}

	valid := payload{Priority: "high", Status: "pending", Frequency: "weekly"}
	if err := Validate.Struct(valid); err != nil {
		t.Errorf("Validate.Struct(valid) = %v, want nil", err)
	}

	invalid := payload{Priority: "sky-high", Status: "pending", Frequency: "weekly"}
	if err := Validate.Struct(invalid); err == nil {
		t.Error("Validate.Struct(invalid priority) = nil, want error")
	}

	invalid = payload{Priority: "high", Status: "pending", Frequency: "fortnightly"}
	if err := Validate.Struct(invalid); err == nil {
		t.Error("Validate.Struct(invalid frequency) = nil, want error")
	}
}
