package store

import (
	"context"
	_ "embed"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/Zaphkiel07/Pawtine2/internal/domain"
	"github.com/Zaphkiel07/Pawtine2/internal/schedule"
)

//go:embed demo_seed.yaml
var demoSeed []byte

type seedFile struct {
	User     domain.User    `yaml:"user"`
	Dog      domain.Dog     `yaml:"dog"`
	Routines []seedRoutine `yaml:"routines"`
}

type seedRoutine struct {
	ID     string             `yaml:"id"`
	Type   domain.RoutineType `yaml:"type"`
	Label  string             `yaml:"label"`
	Anchor string             `yaml:"anchor"`
	Offset string             `yaml:"offset"`
}

// MemoryStore is the in-process demo backend. Every method holds one mutex for
// its whole read-modify-write sequence.
type MemoryStore struct {
	mu       sync.Mutex
	clock    schedule.Clock
	users    map[string]domain.User
	dogs     map[string]domain.Dog
	routines map[string]domain.Routine
	history  []domain.HistoryEntry
}

// NewMemory returns an empty in-memory store.
func NewMemory(clock schedule.Clock) *MemoryStore {
	if clock == nil {
		clock = schedule.SystemClock
	}
	return &MemoryStore{
		clock:    clock,
		users:    make(map[string]domain.User),
		dogs:     make(map[string]domain.Dog),
		routines: make(map[string]domain.Routine),
	}
}

// NewDemoMemory returns an in-memory store seeded with the demo owner, dog and routines.
func NewDemoMemory(clock schedule.Clock) (*MemoryStore, error) {
	s := NewMemory(clock)
	if err := s.Seed(demoSeed); err != nil {
		return nil, err
	}
	return s, nil
}

// Seed loads a YAML fixture of one owner, one dog and their routines.
func (s *MemoryStore) Seed(data []byte) error {
	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("parse seed: %w", err)
	}

	now := s.clock.Now()
	midnight := schedule.StartOfDay(now)

	s.mu.Lock()
	defer s.mu.Unlock()

	seed.User.CreatedAt = now
	if seed.User.Timezone == "" {
		seed.User.Timezone = now.Location().String()
	}
	s.users[seed.User.ID] = seed.User

	seed.Dog.CreatedAt = now
	s.dogs[seed.Dog.ID] = seed.Dog

	for _, r := range seed.Routines {
		offset, err := time.ParseDuration(r.Offset)
		if err != nil {
			return fmt.Errorf("seed routine %s: %w", r.ID, err)
		}
		base := now
		if r.Anchor == "day" {
			base = midnight
		}
		s.routines[r.ID] = domain.Routine{
			ID:            r.ID,
			DogID:         seed.Dog.ID,
			Type:          r.Type,
			Label:         r.Label,
			ScheduledTime: base.Add(offset),
			Status:        domain.StatusActive,
			CreatedAt:     now,
		}
	}
	return nil
}

// Backend implements Repository.
func (s *MemoryStore) Backend() string { return "memory" }

// Ping implements Repository.
func (s *MemoryStore) Ping(context.Context) error { return nil }

// Close implements Repository.
func (s *MemoryStore) Close() error { return nil }

// GetUser retrieves a user by ID.
func (s *MemoryStore) GetUser(_ context.Context, userID string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return nil, nil
	}
	return &user, nil
}

// UpsertUser creates or updates a user record.
func (s *MemoryStore) UpsertUser(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.users[user.ID]; ok {
		existing.Email = user.Email
		existing.Name = user.Name
		existing.Timezone = user.Timezone
		s.users[user.ID] = existing
		return nil
	}
	s.users[user.ID] = *user
	return nil
}

// GetDogByUser returns the user's earliest dog.
func (s *MemoryStore) GetDogByUser(_ context.Context, userID string) (*domain.Dog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var found *domain.Dog
	for _, dog := range s.dogs {
		if dog.UserID != userID {
			continue
		}
		if found == nil || dog.CreatedAt.Before(found.CreatedAt) ||
			(dog.CreatedAt.Equal(found.CreatedAt) && dog.ID < found.ID) {
			d := dog
			found = &d
		}
	}
	return found, nil
}

// UpsertDog creates or updates a dog by ID.
func (s *MemoryStore) UpsertDog(_ context.Context, dog *domain.Dog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.dogs[dog.ID]; ok {
		existing.Name = dog.Name
		existing.Breed = dog.Breed
		existing.AgeMonths = dog.AgeMonths
		s.dogs[dog.ID] = existing
		return nil
	}
	s.dogs[dog.ID] = *dog
	return nil
}

// CreateRoutine inserts a new routine.
func (s *MemoryStore) CreateRoutine(_ context.Context, routine *domain.Routine) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.routines[routine.ID]; exists {
		return fmt.Errorf("create routine: duplicate id %s", routine.ID)
	}
	s.routines[routine.ID] = *routine
	return nil
}

// GetRoutine returns a routine by ID.
func (s *MemoryStore) GetRoutine(_ context.Context, routineID string) (*domain.Routine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.routines[routineID]
	if !ok {
		return nil, ErrRoutineNotFound
	}
	return &r, nil
}

// ListRoutines returns routines matching filter ordered by scheduled_time.
func (s *MemoryStore) ListRoutines(_ context.Context, filter RoutineFilter) ([]domain.Routine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []domain.Routine{}
	for _, r := range s.routines {
		if filter.DogID != "" && r.DogID != filter.DogID {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		if filter.From != nil && r.ScheduledTime.Before(*filter.From) {
			continue
		}
		if filter.To != nil && r.ScheduledTime.After(*filter.To) {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.ScheduledTime.Equal(b.ScheduledTime) {
			return a.ScheduledTime.Before(b.ScheduledTime)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return out, nil
}

// UpdateRoutine applies patch and returns the stored routine.
func (s *MemoryStore) UpdateRoutine(_ context.Context, routineID string, patch RoutinePatch) (*domain.Routine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.routines[routineID]
	if !ok {
		return nil, ErrRoutineNotFound
	}
	patch.Apply(&r)
	s.routines[routineID] = r
	return &r, nil
}

// ReplaceActiveRoutines pauses the dog's active routines and inserts routines.
func (s *MemoryStore) ReplaceActiveRoutines(_ context.Context, dogID string, routines []domain.Routine) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, r := range s.routines {
		if r.DogID == dogID && r.Status == domain.StatusActive {
			r.Status = domain.StatusPaused
			s.routines[id] = r
		}
	}
	for _, r := range routines {
		s.routines[r.ID] = r
	}
	return nil
}

// CompleteRoutine marks the routine done on day and sets last_completed_at.
func (s *MemoryStore) CompleteRoutine(_ context.Context, routineID, day string, at time.Time) (*domain.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.routines[routineID]
	if !ok {
		return nil, ErrRoutineNotFound
	}
	completedAt := at
	r.LastCompletedAt = &completedAt
	s.routines[routineID] = r

	for i := range s.history {
		h := &s.history[i]
		if h.RoutineID == routineID && h.OccurredOn == day {
			h.Status = domain.HistoryDone
			h.CreatedAt = at
			entry := *h
			return &entry, nil
		}
	}

	entry := domain.HistoryEntry{
		ID:         uuid.NewString(),
		RoutineID:  routineID,
		OccurredOn: day,
		Status:     domain.HistoryDone,
		CreatedAt:  at,
	}
	s.history = append(s.history, entry)
	return &entry, nil
}

// HistoryForDay returns entries recorded on day for the given routines.
func (s *MemoryStore) HistoryForDay(_ context.Context, routineIDs []string, day string) ([]domain.HistoryEntry, error) {
	wanted := make(map[string]bool, len(routineIDs))
	for _, id := range routineIDs {
		wanted[id] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.HistoryEntry{}
	for _, h := range s.history {
		if h.OccurredOn == day && wanted[h.RoutineID] {
			out = append(out, h)
		}
	}
	return out, nil
}

// WeeklySummary joins the week's history with routine type and label.
func (s *MemoryStore) WeeklySummary(_ context.Context, dogID, weekStart string) ([]domain.WeeklyRow, error) {
	weekEnd, err := schedule.AddDays(weekStart, 7)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.WeeklyRow{}
	for _, h := range s.history {
		if h.OccurredOn < weekStart || h.OccurredOn >= weekEnd {
			continue
		}
		r, ok := s.routines[h.RoutineID]
		if !ok || r.DogID != dogID {
			continue
		}
		out = append(out, domain.WeeklyRow{
			RoutineID: h.RoutineID,
			Type:      r.Type,
			Label:     r.Label,
			Status:    h.Status,
			Day:       h.OccurredOn,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out, nil
}

// RecordHistory stores an entry directly, replacing any entry for the same
// routine and day. It backs fixtures and imports.
func (s *MemoryStore) RecordHistory(entry domain.HistoryEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	for i := range s.history {
		if s.history[i].RoutineID == entry.RoutineID && s.history[i].OccurredOn == entry.OccurredOn {
			s.history[i] = entry
			return
		}
	}
	s.history = append(s.history, entry)
}
