package schedule

import (
	"fmt"
	"strings"
	"time"
)

// DayLayout is the canonical calendar day form used for history keys.
const DayLayout = "2006-01-02"

// DayKey formats t as a canonical calendar day in t's location.
func DayKey(t time.Time) string {
	return t.Format(DayLayout)
}

// StartOfDay returns midnight of t's calendar day.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// WeekStart returns midnight of the Monday on or before t.
func WeekStart(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return StartOfDay(t).AddDate(0, 0, -offset)
}

// MonthRange returns the first and last instant of t's month.
func MonthRange(t time.Time) (time.Time, time.Time) {
	y, m, _ := t.Date()
	first := time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
	return first, first.AddDate(0, 1, 0).Add(-time.Nanosecond)
}

// ParseDay parses a calendar day in loc. A full timestamp is accepted and
// truncated to its date.
func ParseDay(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if len(s) > len(DayLayout) {
		s = s[:len(DayLayout)]
	}
	t, err := time.ParseInLocation(DayLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// AddDays shifts a canonical day key by n days.
func AddDays(day string, n int) (string, error) {
	t, err := ParseDay(day, time.UTC)
	if err != nil {
		return "", err
	}
	return DayKey(t.AddDate(0, 0, n)), nil
}

// DaysBetween returns the whole number of calendar days from a to b.
func DaysBetween(a, b string) (int, error) {
	ta, err := ParseDay(a, time.UTC)
	if err != nil {
		return 0, err
	}
	tb, err := ParseDay(b, time.UTC)
	if err != nil {
		return 0, err
	}
	return int(tb.Sub(ta).Round(24*time.Hour) / (24 * time.Hour)), nil
}
