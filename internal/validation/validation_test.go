package validation

import (
	"os"
	"strings"
	"testing"

	"github.com/pkg/errors"
)

func TestMaxMessageLength(t *testing.T) {
	tests := []struct {
		name        string
		envValue    string
		expected    int
		shouldUnset bool
	}{
		{"Default length", "", 4000, true},
		{"Custom length", "280", 280, false},
		{"Invalid env value", "invalid", 4000, false},
		{"Zero falls back", "0", 4000, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.shouldUnset {
				os.Unsetenv("MAX_MESSAGE_LENGTH")
			} else {
				t.Setenv("MAX_MESSAGE_LENGTH", tt.envValue)
			}

			result := MaxMessageLength()
			if result != tt.expected {
				t.Errorf("MaxMessageLength() = %d, want %d", result, tt.expected)
			}
		})
	}
}

func TestNormalizeMessageContent(t *testing.T) {
	t.Setenv("MAX_MESSAGE_LENGTH", "10")

	tests := []struct {
		name     string
		input    string
		expected string
		err      error
	}{
		{"Normal content", "hola", "hola", nil},
		{"Content with spaces", "  hola  ", "hola", nil},
		{"Content at limit", "0123456789", "0123456789", nil},
		{"Multibyte at limit", "ññññññññññ", "ññññññññññ", nil},
		{"Empty content", "", "", ErrEmptyContent},
		{"Whitespace only", " \n\t ", "", ErrEmptyContent},
		{"Content exceeding limit", "01234567890", "", ErrContentTooLong},
		{"Invalid UTF-8", "hola \xff", "", ErrInvalidContent},
		{"Truncated multibyte", "ol\xc3", "", ErrInvalidContent},
		{"Embedded NUL", "ho\x00la", "", ErrInvalidContent},
		{"Trailing NUL", "hola\x00", "", ErrInvalidContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := NormalizeMessageContent(tt.input)
			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Fatalf("NormalizeMessageContent(%q) error = %v, want %v", tt.input, err, tt.err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizeMessageContent(%q) unexpected error: %v", tt.input, err)
			}
			if result != tt.expected {
				t.Errorf("NormalizeMessageContent(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestNormalizeMessageContentDefaultLimit(t *testing.T) {
	os.Unsetenv("MAX_MESSAGE_LENGTH")

	if _, err := NormalizeMessageContent(strings.Repeat("a", 4000)); err != nil {
		t.Errorf("4000 characters rejected: %v", err)
	}
	if _, err := NormalizeMessageContent(strings.Repeat("a", 4001)); !errors.Is(err, ErrContentTooLong) {
		t.Errorf("4001 characters error = %v, want ErrContentTooLong", err)
	}
}

func TestStruct(t *testing.T) {
	type payload struct {
		CourseID string `validate:"required,uuid"`
	}

	if err := Struct(payload{CourseID: "0b1e8f4c-6d2a-4f43-8a10-5c3b2e9d7f02"}); err != nil {
		t.Errorf("valid payload rejected: %v", err)
	}
	if err := Struct(payload{}); err == nil {
		t.Errorf("missing course id accepted")
	}
}
