package server

import (
	"strings"
	"time"
)

const dateOnlyLayout = "2006-01-02"

// parseOptionalTime accepts RFC3339 timestamps and bare dates. Bare dates
// resolve to start of day, or end of day when endOfDay is set.
func parseOptionalTime(value string, endOfDay bool) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, nil
	}
	if parsed, err := time.Parse(time.RFC3339, trimmed); err == nil {
		return parsed, nil
	}
	parsed, err := time.Parse(dateOnlyLayout, trimmed)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		parsed = time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC)
	}
	return parsed, nil
}
