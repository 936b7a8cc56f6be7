package model

import (
	"fmt"
	"time"
)

// Layouts for calendar dates (YYYY-MM-DD) and times of day (HH:MM, 24h).
const (
	DateLayout      = "2006-01-02"
	TimeOfDayLayout = "15:04"
)

// DateOf formats t as a calendar date string in t's location.
func DateOf(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate validates a YYYY-MM-DD calendar date string.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("model: invalid date %q (want YYYY-MM-DD)", s)
	}

	return t, nil
}

// ParseTimeOfDay validates an HH:MM time of day.
func ParseTimeOfDay(s string) error {
	if _, err := time.Parse(TimeOfDayLayout, s); err != nil {
		return fmt.Errorf("model: invalid time of day %q (want HH:MM)", s)
	}

	return nil
}

// ActiveOn reports whether date falls within the optional [start, end]
// range. Empty bounds are open. Dates compare lexically because the layout
// is fixed-width.
func ActiveOn(date, start, end string) bool {
	if start != "" && date < start {
		return false
	}

	if end != "" && date > end {
		return false
	}

	return true
}
