// Package dates formats the "last updated" markers carried by content records.
package dates

import (
	"strings"
	"time"
)

// Fallback is shown when a record has no usable last-updated marker.
const Fallback = "February 2026"

const display = "January 2, 2006"

var layouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Format renders an ISO date as "February 14, 2026". An empty or
// unparseable value yields Fallback.
func Format(value string) string {
	t, ok := Parse(value)
	if !ok {
		return Fallback
	}
	return t.Format(display)
}

// Parse accepts the layouts Format understands.
func Parse(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}

	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
