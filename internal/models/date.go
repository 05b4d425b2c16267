package models

import (
	"fmt"
	"time"
)

// DateLayout is the storage and API format for civil dates
const DateLayout = "2006-01-02"

// Day truncates t to midnight UTC of its calendar date
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD date
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, ValidationError{Field: "date", Message: fmt.Sprintf("invalid date %q", s)}
	}
	return t, nil
}

// InRange reports whether t falls on or between start and end, by calendar day
func InRange(t, start, end time.Time) bool {
	d := Day(t)
	return !d.Before(Day(start)) && !d.After(Day(end))
}
