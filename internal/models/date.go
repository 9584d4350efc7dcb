package models

import (
	"fmt"
	"strings"
	"time"
)

// DayLayout is the wire and storage format of calendar days.
const DayLayout = "2006-01-02"

// Day truncates t to midnight UTC of its calendar day in UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today returns the current UTC day.
func Today() time.Time {
	return Day(time.Now())
}

// ParseDay accepts YYYY-MM-DD or an RFC 3339 timestamp and normalizes it.
// An empty string yields today.
func ParseDay(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Today(), nil
	}
	if t, err := time.Parse(DayLayout, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q", ErrInvalidInput, raw)
	}
	return Day(t), nil
}

// FormatDay renders a day key.
func FormatDay(t time.Time) string {
	return Day(t).Format(DayLayout)
}
