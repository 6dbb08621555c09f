package logger

import (
	"errors"
	"strings"
	"testing"
)

func TestSanitizeString(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		input string
		max   int
		want  string
	}{
		{"plain string", "hello world", 100, "hello world"},
		{"strips newlines", "line1\nline2\rline3", 100, "line1line2line3"},
		{"strips control chars", "a\x00b\x1bc", 100, "abc"},
		{"keeps tabs", "a\tb", 100, "a\tb"},
		{"truncates with ellipsis", strings.Repeat("x", 20), 10, strings.Repeat("x", 10) + "..."},
		{"empty", "", 100, ""},
		{"zero max uses default", "fine", 0, "fine"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := SanitizeString(tt.input, tt.max); got != tt.want {
				t.Errorf("SanitizeString(%q, %d) = %q, want %q", tt.input, tt.max, got, tt.want)
			}
		})
	}
}

func TestSanitizeString_InvalidUTF8(t *testing.T) {
	t.Parallel()
	input := "valid\xff\xfemore"
	got := SanitizeString(input, 100)
	if got != "validmore" {
		t.Errorf("SanitizeString() = %q, want invalid bytes dropped", got)
	}
}

func TestSanitizePath_LogInjection(t *testing.T) {
	t.Parallel()
	// A crafted path must not be able to forge extra log lines
	path := "/api/v1/tasks\n{\"level\":\"info\",\"msg\":\"forged\"}"
	got := SanitizePath(path)
	if strings.Contains(got, "\n") {
		t.Errorf("SanitizePath() = %q, newline survived", got)
	}
}

func TestSanitizeError(t *testing.T) {
	t.Parallel()
	if got := SanitizeError(nil); got != "" {
		t.Errorf("SanitizeError(nil) = %q, want empty", got)
	}

	long := errors.New(strings.Repeat("e", MaxErrorMessageLength+50))
	got := SanitizeError(long)
	if len(got) != MaxErrorMessageLength+3 {
		t.Errorf("len = %d, want truncated to %d plus ellipsis", len(got), MaxErrorMessageLength)
	}
}

func TestSanitizeOwnerID(t *testing.T) {
	t.Parallel()
	long := strings.Repeat("u", MaxOwnerIDLength+10)
	got := SanitizeOwnerID(long)
	if len(got) != MaxOwnerIDLength+3 {
		t.Errorf("len = %d, want truncated to %d plus ellipsis", len(got), MaxOwnerIDLength)
	}
}
