// Package routines implements the routine capability set over any store
// backend: creating, querying, completing, snoozing and editing routines, plus
// onboarding and profile changes that reshape them.
package routines

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Zaphkiel07/Pawtine2/internal/domain"
	"github.com/Zaphkiel07/Pawtine2/internal/events"
	"github.com/Zaphkiel07/Pawtine2/internal/metrics"
	"github.com/Zaphkiel07/Pawtine2/internal/schedule"
	"github.com/Zaphkiel07/Pawtine2/internal/store"
)

// Publisher delivers live events to an owner's open sessions.
type Publisher interface {
	Publish(userID string, ev events.Event) int
}

// Owner is the requesting user and their dog, if onboarding is complete.
type Owner struct {
	UserID string      `json:"user_id"`
	Dog    *domain.Dog `json:"dog"`
}

// Service coordinates routine operations for one store backend.
type Service struct {
	repo    store.Repository
	clock   schedule.Clock
	events  Publisher
	metrics *metrics.Metrics
}

// Option customizes a Service.
type Option func(*Service)

// WithClock overrides the wall clock.
func WithClock(c schedule.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithPublisher sends revalidation events after each mutation.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.events = p }
}

// WithMetrics records mutation outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService creates a routine service over repo.
func NewService(repo store.Repository, opts ...Option) *Service {
	s := &Service{repo: repo, clock: schedule.SystemClock}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now reads the service clock.
func (s *Service) Now() time.Time {
	return s.clock.Now()
}

// CurrentOwnerAndDog resolves the user's dog. Dog is nil before onboarding.
func (s *Service) CurrentOwnerAndDog(ctx context.Context, userID string) (Owner, error) {
	dog, err := s.repo.GetDogByUser(ctx, userID)
	if err != nil {
		return Owner{}, fmt.Errorf("fetch dog: %w", err)
	}
	return Owner{UserID: userID, Dog: dog}, nil
}

func (s *Service) requireDog(ctx context.Context, userID string) (*domain.Dog, error) {
	owner, err := s.CurrentOwnerAndDog(ctx, userID)
	if err != nil {
		return nil, err
	}
	if owner.Dog == nil {
		return nil, ErrNoDog
	}
	return owner.Dog, nil
}

// ownedRoutine loads a routine and hides routines of other owners.
func (s *Service) ownedRoutine(ctx context.Context, userID, routineID string) (*domain.Routine, error) {
	dog, err := s.requireDog(ctx, userID)
	if err != nil {
		return nil, err
	}
	routine, err := s.repo.GetRoutine(ctx, routineID)
	if err != nil {
		return nil, err
	}
	if routine.DogID != dog.ID {
		return nil, store.ErrRoutineNotFound
	}
	return routine, nil
}

// record counts the mutation and, on success, tells live sessions to refresh paths.
func (s *Service) record(userID, op, routineID string, err error, paths ...string) {
	s.metrics.RoutineOp(op, err)
	if err != nil {
		if !errors.Is(err, ErrInvalidInput) && !errors.Is(err, ErrNoDog) && !errors.Is(err, store.ErrRoutineNotFound) {
			slog.Error("Routine operation failed", "operation", op, "user_id", userID, "routine_id", routineID, "error", err)
		}
		return
	}
	if s.events == nil {
		return
	}
	delivered := s.events.Publish(userID, events.Revalidate(routineID, paths...))
	s.metrics.EventsPublished(delivered)
}
