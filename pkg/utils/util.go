package utils

import (
	"fmt"
	"strings"
	"time"
)

// FormatTimestamp renders t in UTC with millisecond precision, e.g. 2024-03-10T19:30:00.000Z
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TIMESTAMP_LAYOUT)
}

// ParseTimestamp accepts RFC 3339 with or without fractional seconds
func ParseTimestamp(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q, expected ISO-8601 (RFC 3339)", value)
	}
	return t, nil
}

// ParseDay parses a calendar date. A full RFC 3339 timestamp is also accepted;
// its UTC calendar date is used.
func ParseDay(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if d, err := time.Parse(DATE_LAYOUT, value); err == nil {
		return d, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		u := t.UTC()
		return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", value)
}

// UTCDayWindow returns [day 00:00Z, day+1 00:00Z)
func UTCDayWindow(day time.Time) DayWindow {
	u := day.UTC()
	start := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	return DayWindow{Start: start, End: start.AddDate(0, 0, 1)}
}

// TrimPtr trims the string behind p in place and returns p
func TrimPtr(p *string) *string {
	if p != nil {
		*p = strings.TrimSpace(*p)
	}
	return p
}
