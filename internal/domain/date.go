package domain

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the storage and wire representation of calendar dates.
// Lexicographic order of this layout is also chronological order.
const DateLayout = "2006-01-02"

// DateOf returns the calendar date of t as midnight UTC.
// The wall-clock date in t's own location is kept.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the whole calendar days from "from" to "to".
// The result is negative when to is before from. Whole days are counted from
// Unix seconds since time.Duration cannot span more than about 292 years.
func DaysBetween(from, to time.Time) int {
	return int((DateOf(to).Unix() - DateOf(from).Unix()) / secondsPerDay)
}

const secondsPerDay = 24 * 60 * 60

// FormatDate renders t using DateLayout.
func FormatDate(t time.Time) string {
	return DateOf(t).Format(DateLayout)
}

// ParseDate parses a "YYYY-MM-DD" string.
// Returns ErrValidation when s is empty or not a real calendar date.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: date is required", ErrValidation)
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q", ErrValidation, s)
	}
	return t, nil
}
