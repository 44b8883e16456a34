// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"github.com/Zaphkiel07/Pawtine2/internal/domain"
)

// RoutineFilter selects routines of one dog. Zero fields do not filter.
type RoutineFilter struct {
	DogID  string
	Status domain.RoutineStatus
	// From and To bound scheduled_time inclusively.
	From *time.Time
	To   *time.Time
}

// RoutinePatch lists the routine fields an update changes. Nil fields are kept.
type RoutinePatch struct {
	Label         *string
	ScheduledTime *time.Time
	Status        *domain.RoutineStatus
}

// Empty reports whether the patch changes nothing.
func (p RoutinePatch) Empty() bool {
	return p.Label == nil && p.ScheduledTime == nil && p.Status == nil
}

// Apply copies the set fields onto r.
func (p RoutinePatch) Apply(r *domain.Routine) {
	if p.Label != nil {
		r.Label = *p.Label
	}
	if p.ScheduledTime != nil {
		r.ScheduledTime = *p.ScheduledTime
	}
	if p.Status != nil {
		r.Status = *p.Status
	}
}

// Repository defines the interface for persisting owners, dogs, routines and history.
type Repository interface {
	// GetUser retrieves a user by ID. It returns nil, nil when absent.
	GetUser(ctx context.Context, userID string) (*domain.User, error)

	// UpsertUser creates or updates a user record.
	UpsertUser(ctx context.Context, user *domain.User) error

	// GetDogByUser returns the user's earliest created dog, or nil, nil.
	GetDogByUser(ctx context.Context, userID string) (*domain.Dog, error)

	// UpsertDog creates or updates a dog by ID.
	UpsertDog(ctx context.Context, dog *domain.Dog) error

	// CreateRoutine inserts a new routine.
	CreateRoutine(ctx context.Context, routine *domain.Routine) error

	// GetRoutine returns ErrRoutineNotFound for unknown IDs.
	GetRoutine(ctx context.Context, routineID string) (*domain.Routine, error)

	// ListRoutines returns matching routines ordered by scheduled_time ascending.
	ListRoutines(ctx context.Context, filter RoutineFilter) ([]domain.Routine, error)

	// UpdateRoutine applies patch and returns the stored routine.
	UpdateRoutine(ctx context.Context, routineID string, patch RoutinePatch) (*domain.Routine, error)

	// ReplaceActiveRoutines pauses the dog's active routines and inserts routines.
	ReplaceActiveRoutines(ctx context.Context, dogID string, routines []domain.Routine) error

	// CompleteRoutine marks the routine done on day and sets last_completed_at.
	// Repeated calls for the same day update the single entry for that day.
	CompleteRoutine(ctx context.Context, routineID, day string, at time.Time) (*domain.HistoryEntry, error)

	// HistoryForDay returns entries recorded on day for the given routines.
	HistoryForDay(ctx context.Context, routineIDs []string, day string) ([]domain.HistoryEntry, error)

	// WeeklySummary returns the dog's history in [weekStart, weekStart+7d)
	// joined with routine type and label.
	WeeklySummary(ctx context.Context, dogID, weekStart string) ([]domain.WeeklyRow, error)

	// Backend names the implementation, e.g. "sqlite".
	Backend() string

	// Ping verifies connectivity and returns an error if the backend is unreachable.
	Ping(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}
