package domain

import (
	"fmt"
	"strings"
	"time"
)

// RoutineType categorizes a routine.
type RoutineType string

const (
	RoutineFeed   RoutineType = "feed"
	RoutineWalk   RoutineType = "walk"
	RoutineWater  RoutineType = "water"
	RoutineCustom RoutineType = "custom"
)

// ParseRoutineType validates a routine type, ignoring case and surrounding space.
func ParseRoutineType(s string) (RoutineType, error) {
	t := RoutineType(strings.ToLower(strings.TrimSpace(s)))
	switch t {
	case RoutineFeed, RoutineWalk, RoutineWater, RoutineCustom:
		return t, nil
	}
	return "", fmt.Errorf("unknown routine type %q", s)
}

// RoutineStatus is the lifecycle state of a routine. Paused is the soft delete.
type RoutineStatus string

const (
	StatusActive RoutineStatus = "active"
	StatusPaused RoutineStatus = "paused"
)

// Valid reports whether s is a known routine status.
func (s RoutineStatus) Valid() bool {
	return s == StatusActive || s == StatusPaused
}

// MaxLabelLength bounds routine labels.
const MaxLabelLength = 120

// Routine is a recurring care task for a dog.
type Routine struct {
	ID              string        `json:"id" yaml:"id"`
	DogID           string        `json:"dog_id" yaml:"dog_id"`
	Type            RoutineType   `json:"type" yaml:"type"`
	Label           string        `json:"label" yaml:"label"`
	ScheduledTime   time.Time     `json:"scheduled_time" yaml:"-"`
	Status          RoutineStatus `json:"status" yaml:"status"`
	CreatedAt       time.Time     `json:"created_at" yaml:"-"`
	LastCompletedAt *time.Time    `json:"last_completed_at" yaml:"-"`
}

// HistoryStatus records what happened to a routine on a given day.
type HistoryStatus string

const (
	HistoryDone    HistoryStatus = "done"
	HistoryMissed  HistoryStatus = "missed"
	HistorySnoozed HistoryStatus = "snoozed"
)

// HistoryEntry is the per-day outcome of a routine. (RoutineID, OccurredOn) is unique.
type HistoryEntry struct {
	ID         string        `json:"id"`
	RoutineID  string        `json:"routine_id"`
	OccurredOn string        `json:"occurred_on"`
	Status     HistoryStatus `json:"status"`
	Notes      *string       `json:"notes"`
	CreatedAt  time.Time     `json:"created_at"`
}

// RoutineWithToday is a routine annotated with today's history entry, if any.
type RoutineWithToday struct {
	Routine
	Today *HistoryEntry `json:"today_status"`
}

// CalendarTask is the monthly calendar projection of a routine.
type CalendarTask struct {
	ID            string      `json:"id"`
	Label         string      `json:"label"`
	Type          RoutineType `json:"type"`
	ScheduledTime time.Time   `json:"scheduled_time"`
}

// WeeklyRow is one history entry joined with its routine's type and label.
// Type and Label are empty when the routine could not be resolved.
type WeeklyRow struct {
	RoutineID string        `json:"routine_id"`
	Type      RoutineType   `json:"type,omitempty"`
	Label     string        `json:"label,omitempty"`
	Status    HistoryStatus `json:"status"`
	Day       string        `json:"day"`
}
