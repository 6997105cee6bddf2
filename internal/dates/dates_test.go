package dates

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"undefined", "", "February 2026"},
		{"iso date", "2026-02-14", "February 14, 2026"},
		{"garbage", "not-a-date", "February 2026"},
		{"rfc3339", "2025-11-03T09:30:00Z", "November 3, 2025"},
		{"padded", "  2024-01-09 ", "January 9, 2024"},
		{"impossible day", "2026-02-30", "February 2026"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Format(tt.input))
		})
	}
}

func TestParse(t *testing.T) {
	got, ok := Parse("2026-02-14")
	assert.True(t, ok)
	assert.Equal(t, 2026, got.Year())

	_, ok = Parse("yesterday")
	assert.False(t, ok)
}
