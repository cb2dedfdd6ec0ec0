package utils

import "time"

// DayWindow is a half-open interval [Start, End)
type DayWindow struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window
func (w DayWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Constants
const (
	DATE_LAYOUT      = "2006-01-02"
	TIMESTAMP_LAYOUT = "2006-01-02T15:04:05.000Z"
)
