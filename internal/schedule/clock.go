// Package schedule turns user supplied times into absolute timestamps and
// provides the calendar arithmetic used by routine queries.
package schedule

import "time"

// Clock reports the current instant.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock in the server's local zone.
var SystemClock Clock = ClockFunc(time.Now)

// FixedClock returns a Clock frozen at t.
func FixedClock(t time.Time) Clock {
	return ClockFunc(func() time.Time { return t })
}
