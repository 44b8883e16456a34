package schedule

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// absoluteLayouts are tried, in order, for inputs carrying a date and a time.
// Fractional seconds are accepted after the seconds field by every layout.
var absoluteLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05Z07",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04Z0700",
	"2006-01-02T15:04Z07",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05Z0700",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

var (
	clockPattern      = regexp.MustCompile(`^[0-2]\d:[0-5]\d$`)
	datePrefixPattern = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})([T ]|$)`)
)

// Normalize resolves value to an absolute timestamp relative to now.
// Unparsable hours fall back to now's hour.
func Normalize(value string, now time.Time) time.Time {
	return NormalizeWithFallback(value, now.Hour(), now)
}

// NormalizeWithFallback resolves value to an absolute timestamp.
//
// An empty value yields now. A value that already carries a date and time is
// returned as parsed. A value that starts with a date but whose time cannot be
// read lands on that date at fallbackHour, or on now if the date itself is
// invalid. Anything else is read as HH:MM on now's calendar date with seconds
// zeroed. An hour that does not parse becomes fallbackHour and a minute that
// does not parse becomes 0. Malformed input never fails.
func NormalizeWithFallback(value string, fallbackHour int, now time.Time) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return now
	}

	if m := datePrefixPattern.FindStringSubmatch(value); m != nil {
		for _, layout := range absoluteLayouts {
			if t, err := time.ParseInLocation(layout, value, now.Location()); err == nil {
				return t
			}
		}
		day, err := time.ParseInLocation(DayLayout, m[1], now.Location())
		if err != nil {
			return now
		}
		y, mo, d := day.Date()
		return time.Date(y, mo, d, fallbackHour, 0, 0, 0, now.Location())
	}

	hourPart, minutePart, _ := strings.Cut(value, ":")
	hour, ok := clockHour(hourPart)
	if !ok {
		hour = fallbackHour
	}
	minute, ok := leadingInt(minutePart)
	if !ok {
		minute = 0
	}

	y, m, d := now.Date()
	return time.Date(y, m, d, hour, minute, 0, 0, now.Location())
}

// clockHour reads the hour of an HH:MM value. Only one or two leading digits
// count as an hour.
func clockHour(s string) (int, bool) {
	s = strings.TrimSpace(s)
	digits := 0
	for digits < len(s) && s[digits] >= '0' && s[digits] <= '9' {
		digits++
	}
	if digits == 0 || digits > 2 {
		return 0, false
	}
	return leadingInt(s[:digits])
}

// CalendarTime combines a calendar date with a strict HH:MM time in loc.
func CalendarTime(date, clock string, loc *time.Location) (time.Time, error) {
	clock = strings.TrimSpace(clock)
	if !clockPattern.MatchString(clock) {
		return time.Time{}, fmt.Errorf("invalid time %q: want HH:MM", clock)
	}
	day, err := ParseDay(date, loc)
	if err != nil {
		return time.Time{}, err
	}
	hour, _ := leadingInt(clock[:2])
	minute, _ := leadingInt(clock[3:])
	y, m, d := day.Date()
	return time.Date(y, m, d, hour, minute, 0, 0, loc), nil
}

// leadingInt parses an optional sign followed by leading digits, ignoring
// anything after them. It reports false when no digit is present.
func leadingInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	neg := false
	if s != "" && (s[0] == '-' || s[0] == '+') {
		neg = s[0] == '-'
		s = s[1:]
	}
	n, digits := 0, 0
	for digits < len(s) && s[digits] >= '0' && s[digits] <= '9' {
		n = n*10 + int(s[digits]-'0')
		digits++
		if n > 1_000_000 {
			break
		}
	}
	if digits == 0 {
		return 0, false
	}
	if neg {
		n = -n
	}
	return n, true
}
