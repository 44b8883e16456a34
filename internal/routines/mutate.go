package routines

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/Zaphkiel07/Pawtine2/internal/domain"
	"github.com/Zaphkiel07/Pawtine2/internal/events"
	"github.com/Zaphkiel07/Pawtine2/internal/labels"
	"github.com/Zaphkiel07/Pawtine2/internal/schedule"
	"github.com/Zaphkiel07/Pawtine2/internal/store"
)

// DefaultSnoozeHours applies when no usable snooze length is given.
const DefaultSnoozeHours = 1

// CreateInput is a routine created from settings. ScheduledTime accepts HH:MM
// or a full timestamp; empty means now.
type CreateInput struct {
	Type          string `json:"type"`
	Label         string `json:"label"`
	ScheduledTime string `json:"scheduled_time"`
}

// CalendarInput is a routine created from the calendar view.
type CalendarInput struct {
	Date  string `json:"date"`
	Time  string `json:"time"`
	Label string `json:"label"`
	Type  string `json:"type"`
}

// ScheduleInput is an already parsed scheduling intent from an assistant.
type ScheduleInput struct {
	Type  string
	Label string
	At    time.Time
}

// SettingsInput lists the settings fields to change. Nil fields are kept.
type SettingsInput struct {
	Label         *string `json:"label"`
	ScheduledTime *string `json:"scheduled_time"`
	Status        *string `json:"status"`
}

func validateLabel(label string) (string, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return "", invalid("label is required")
	}
	if utf8.RuneCountInString(label) > domain.MaxLabelLength {
		return "", invalid("label must be at most %d characters", domain.MaxLabelLength)
	}
	return label, nil
}

func (s *Service) insert(ctx context.Context, dog *domain.Dog, t domain.RoutineType, label string, at time.Time) (*domain.Routine, error) {
	routine := &domain.Routine{
		ID:            uuid.NewString(),
		DogID:         dog.ID,
		Type:          t,
		Label:         label,
		ScheduledTime: at,
		Status:        domain.StatusActive,
		CreatedAt:     s.clock.Now(),
	}
	if err := s.repo.CreateRoutine(ctx, routine); err != nil {
		return nil, err
	}
	return routine, nil
}

// Create adds an active routine for the user's dog.
func (s *Service) Create(ctx context.Context, userID string, in CreateInput) (routine *domain.Routine, err error) {
	defer func() { s.record(userID, "create", routineID(routine), err, events.PathSettings, events.PathHome) }()

	t, err := domain.ParseRoutineType(in.Type)
	if err != nil {
		return nil, invalid("%v", err)
	}
	label, err := validateLabel(in.Label)
	if err != nil {
		return nil, err
	}
	at := schedule.Normalize(in.ScheduledTime, s.clock.Now())

	dog, err := s.requireDog(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.insert(ctx, dog, t, label, at)
}

// CreateFromCalendar adds a routine on a calendar date at a strict HH:MM time.
// An empty type means custom.
func (s *Service) CreateFromCalendar(ctx context.Context, userID string, in CalendarInput) (routine *domain.Routine, err error) {
	defer func() { s.record(userID, "create_calendar", routineID(routine), err, events.PathHome, events.PathDashboard) }()

	t := domain.RoutineCustom
	if strings.TrimSpace(in.Type) != "" {
		if t, err = domain.ParseRoutineType(in.Type); err != nil {
			return nil, invalid("%v", err)
		}
	}
	label, err := validateLabel(in.Label)
	if err != nil {
		return nil, err
	}
	at, err := schedule.CalendarTime(in.Date, in.Time, s.clock.Now().Location())
	if err != nil {
		return nil, invalid("%v", err)
	}

	dog, err := s.requireDog(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.insert(ctx, dog, t, label, at)
}

// Schedule adds a routine on behalf of an assistant. Unknown types become
// custom and a missing label is derived from the dog's name.
func (s *Service) Schedule(ctx context.Context, userID string, in ScheduleInput) (routine *domain.Routine, err error) {
	defer func() { s.record(userID, "schedule", routineID(routine), err, events.PathHome, events.PathDashboard) }()

	if in.At.IsZero() {
		return nil, invalid("scheduled time is required")
	}
	t, parseErr := domain.ParseRoutineType(in.Type)
	if parseErr != nil {
		t = domain.RoutineCustom
	}

	dog, err := s.requireDog(ctx, userID)
	if err != nil {
		return nil, err
	}

	label := strings.TrimSpace(in.Label)
	if label == "" {
		label = labels.DefaultLabel(t, dog.Name)
	}
	if label, err = validateLabel(label); err != nil {
		return nil, err
	}
	return s.insert(ctx, dog, t, label, in.At)
}

// MarkComplete records today's completion. Repeat calls on the same day
// refresh the single entry for that day.
func (s *Service) MarkComplete(ctx context.Context, userID, id string) (entry *domain.HistoryEntry, err error) {
	defer func() { s.record(userID, "complete", id, err, events.PathHome, events.PathDashboard) }()

	if _, err = s.ownedRoutine(ctx, userID, id); err != nil {
		return nil, err
	}
	now := s.clock.Now()
	return s.repo.CompleteRoutine(ctx, id, schedule.DayKey(now), now)
}

// ParseSnoozeHours reads a snooze length. Missing, non-numeric and zero
// values yield DefaultSnoozeHours. Negative lengths are kept and move the
// routine into the past.
func ParseSnoozeHours(raw string) float64 {
	hours, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return DefaultSnoozeHours
	}
	return SnoozeHoursOrDefault(hours)
}

// SnoozeHoursOrDefault replaces zero, NaN and infinite lengths with
// DefaultSnoozeHours.
func SnoozeHoursOrDefault(hours float64) float64 {
	if hours == 0 || math.IsNaN(hours) || math.IsInf(hours, 0) {
		return DefaultSnoozeHours
	}
	return hours
}

// Snooze moves the routine to now plus hours. History and status are untouched.
func (s *Service) Snooze(ctx context.Context, userID, id string, hours float64) (routine *domain.Routine, err error) {
	defer func() { s.record(userID, "snooze", id, err, events.PathHome) }()

	hours = SnoozeHoursOrDefault(hours)
	if _, err = s.ownedRoutine(ctx, userID, id); err != nil {
		return nil, err
	}
	at := s.clock.Now().Add(time.Duration(hours * float64(time.Hour)))
	return s.repo.UpdateRoutine(ctx, id, store.RoutinePatch{ScheduledTime: &at})
}

// UpdateSettings edits label, time or status.
func (s *Service) UpdateSettings(ctx context.Context, userID, id string, in SettingsInput) (routine *domain.Routine, err error) {
	defer func() { s.record(userID, "update", id, err, events.PathSettings, events.PathHome) }()

	var patch store.RoutinePatch
	if in.Label != nil {
		label, err := validateLabel(*in.Label)
		if err != nil {
			return nil, err
		}
		patch.Label = &label
	}
	if in.ScheduledTime != nil {
		at := schedule.Normalize(*in.ScheduledTime, s.clock.Now())
		patch.ScheduledTime = &at
	}
	if in.Status != nil {
		status := domain.RoutineStatus(strings.ToLower(strings.TrimSpace(*in.Status)))
		if !status.Valid() {
			return nil, invalid("unknown status %q", *in.Status)
		}
		patch.Status = &status
	}

	current, err := s.ownedRoutine(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if patch.Empty() {
		return current, nil
	}
	return s.repo.UpdateRoutine(ctx, id, patch)
}

func routineID(r *domain.Routine) string {
	if r == nil {
		return ""
	}
	return r.ID
}
