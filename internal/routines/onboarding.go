package routines

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Zaphkiel07/Pawtine2/internal/domain"
	"github.com/Zaphkiel07/Pawtine2/internal/events"
	"github.com/Zaphkiel07/Pawtine2/internal/labels"
	"github.com/Zaphkiel07/Pawtine2/internal/schedule"
	"github.com/Zaphkiel07/Pawtine2/internal/store"
)

// Onboarding defaults.
const (
	DefaultMorningFeed = "07:30"
	DefaultEveningFeed = "18:30"
	DefaultWalksPerDay = 2
	MaxWalksPerDay     = 6
	waterTime          = "09:00"
	firstWalkHour      = 14
)

// OnboardingInput describes a new dog and its daily rhythm.
type OnboardingInput struct {
	DogName      string  `json:"dog_name"`
	DogBreed     *string `json:"dog_breed"`
	DogAgeMonths *int    `json:"dog_age_months"`
	Timezone     string  `json:"timezone"`
	MorningFeed  string  `json:"morning_feed"`
	EveningFeed  string  `json:"evening_feed"`
	WalksPerDay  *int    `json:"walks_per_day"`
}

// OnboardingResult is the dog and routine set created by Onboard.
type OnboardingResult struct {
	UserID   string           `json:"user_id"`
	Dog      domain.Dog       `json:"dog"`
	Routines []domain.Routine `json:"routines"`
}

// Profile is the owner and dog shown on the profile page.
type Profile struct {
	User     *domain.User `json:"user"`
	Dog      *domain.Dog  `json:"dog"`
	Complete bool         `json:"complete"`
}

// ProfileInput lists profile fields to change. Blank strings are ignored.
type ProfileInput struct {
	UserName     string `json:"user_name"`
	Timezone     string `json:"timezone"`
	DogName      string `json:"dog_name"`
	DogBreed     string `json:"dog_breed"`
	DogAgeMonths *int   `json:"dog_age_months"`
}

// DefaultRoutines builds the onboarding routine set: breakfast, dinner, water
// and walksPerDay walks starting at 14:00.
func (s *Service) DefaultRoutines(dog domain.Dog, morningFeed, eveningFeed string, walksPerDay int) []domain.Routine {
	now := s.clock.Now()
	if strings.TrimSpace(morningFeed) == "" {
		morningFeed = DefaultMorningFeed
	}
	if strings.TrimSpace(eveningFeed) == "" {
		eveningFeed = DefaultEveningFeed
	}

	build := func(t domain.RoutineType, label, clock string, fallbackHour int) domain.Routine {
		return domain.Routine{
			ID:            uuid.NewString(),
			DogID:         dog.ID,
			Type:          t,
			Label:         label,
			ScheduledTime: schedule.NormalizeWithFallback(clock, fallbackHour, now),
			Status:        domain.StatusActive,
			CreatedAt:     now,
		}
	}

	out := []domain.Routine{
		build(domain.RoutineFeed, labels.Breakfast(dog.Name), morningFeed, 7),
		build(domain.RoutineFeed, labels.Dinner(dog.Name), eveningFeed, 18),
		build(domain.RoutineWater, labels.Water(dog.Name), waterTime, 9),
	}
	for i := 0; i < walksPerDay; i++ {
		hour := firstWalkHour + i
		out = append(out, build(domain.RoutineWalk, labels.Walk(dog.Name, i+1), fmt.Sprintf("%d:00", hour), hour))
	}
	return out
}

// Onboard creates or updates the user's dog and replaces its active routines
// with the default set. Earlier routines are paused, not deleted.
func (s *Service) Onboard(ctx context.Context, userID string, in OnboardingInput) (result *OnboardingResult, err error) {
	defer func() { s.record(userID, "onboard", "", err, events.PathHome, events.PathSettings) }()

	dogName := strings.TrimSpace(in.DogName)
	if dogName == "" {
		return nil, invalid("dog name is required")
	}
	walks := DefaultWalksPerDay
	if in.WalksPerDay != nil {
		walks = *in.WalksPerDay
	}
	if walks < 0 || walks > MaxWalksPerDay {
		return nil, invalid("walks per day must be between 0 and %d", MaxWalksPerDay)
	}
	if in.DogAgeMonths != nil && *in.DogAgeMonths < 0 {
		return nil, invalid("dog age cannot be negative")
	}

	now := s.clock.Now()
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch user: %w", err)
	}
	if user == nil {
		user = &domain.User{
			ID:        userID,
			Email:     "demo+" + userID + "@pawtine.dev",
			Name:      domain.DefaultOwnerName,
			Timezone:  now.Location().String(),
			CreatedAt: now,
		}
	}
	if tz := strings.TrimSpace(in.Timezone); tz != "" {
		user.Timezone = tz
	}
	if err := s.repo.UpsertUser(ctx, user); err != nil {
		return nil, fmt.Errorf("save user: %w", err)
	}

	dog, err := s.repo.GetDogByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch dog: %w", err)
	}
	if dog == nil {
		dog = &domain.Dog{ID: uuid.NewString(), UserID: userID, CreatedAt: now}
	}
	dog.Name = dogName
	if in.DogBreed != nil {
		breed := strings.TrimSpace(*in.DogBreed)
		dog.Breed = &breed
		if breed == "" {
			dog.Breed = nil
		}
	}
	if in.DogAgeMonths != nil {
		dog.AgeMonths = in.DogAgeMonths
	}
	if err := s.repo.UpsertDog(ctx, dog); err != nil {
		return nil, fmt.Errorf("save dog: %w", err)
	}

	routines := s.DefaultRoutines(*dog, in.MorningFeed, in.EveningFeed, walks)
	if err := s.repo.ReplaceActiveRoutines(ctx, dog.ID, routines); err != nil {
		return nil, fmt.Errorf("seed routines: %w", err)
	}

	return &OnboardingResult{UserID: userID, Dog: *dog, Routines: routines}, nil
}

// Profile returns the owner and dog. Complete reports whether both are named.
func (s *Service) Profile(ctx context.Context, userID string) (Profile, error) {
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return Profile{}, fmt.Errorf("fetch user: %w", err)
	}
	dog, err := s.repo.GetDogByUser(ctx, userID)
	if err != nil {
		return Profile{}, fmt.Errorf("fetch dog: %w", err)
	}
	complete := user != nil && strings.TrimSpace(user.Name) != "" && dog.HasName()
	return Profile{User: user, Dog: dog, Complete: complete}, nil
}

// UpdateProfile saves owner and dog details. Renaming the dog rewrites every
// routine label that follows the old name or a default pattern.
func (s *Service) UpdateProfile(ctx context.Context, userID string, in ProfileInput) (profile Profile, err error) {
	defer func() { s.record(userID, "update_profile", "", err, events.PathProfile, events.PathHome, events.PathSettings) }()

	if in.DogAgeMonths != nil && *in.DogAgeMonths < 0 {
		return Profile{}, invalid("dog age cannot be negative")
	}
	now := s.clock.Now()

	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return Profile{}, fmt.Errorf("fetch user: %w", err)
	}
	if user == nil {
		user = &domain.User{
			ID:        userID,
			Email:     userID + "@pawtine.dev",
			Name:      domain.DefaultOwnerName,
			Timezone:  now.Location().String(),
			CreatedAt: now,
		}
	}
	if name := strings.TrimSpace(in.UserName); name != "" {
		user.Name = name
	} else if strings.TrimSpace(user.Name) == "" {
		user.Name = domain.DefaultOwnerName
	}
	if tz := strings.TrimSpace(in.Timezone); tz != "" {
		user.Timezone = tz
	}
	if err := s.repo.UpsertUser(ctx, user); err != nil {
		return Profile{}, fmt.Errorf("save user: %w", err)
	}

	dog, err := s.repo.GetDogByUser(ctx, userID)
	if err != nil {
		return Profile{}, fmt.Errorf("fetch dog: %w", err)
	}
	previousName := ""
	if dog == nil {
		dog = &domain.Dog{ID: uuid.NewString(), UserID: userID, CreatedAt: now}
	} else {
		previousName = dog.Name
	}
	if name := strings.TrimSpace(in.DogName); name != "" {
		dog.Name = name
	} else if !dog.HasName() {
		dog.Name = domain.DefaultDogName
	}
	if breed := strings.TrimSpace(in.DogBreed); breed != "" {
		dog.Breed = &breed
	}
	if in.DogAgeMonths != nil {
		dog.AgeMonths = in.DogAgeMonths
	}
	if err := s.repo.UpsertDog(ctx, dog); err != nil {
		return Profile{}, fmt.Errorf("save dog: %w", err)
	}

	if dog.Name != previousName {
		if err := s.relabel(ctx, dog, previousName); err != nil {
			return Profile{}, err
		}
	}

	return Profile{User: user, Dog: dog, Complete: dog.HasName()}, nil
}

func (s *Service) relabel(ctx context.Context, dog *domain.Dog, previousName string) error {
	routines, err := s.repo.ListRoutines(ctx, store.RoutineFilter{DogID: dog.ID})
	if err != nil {
		return fmt.Errorf("list routines: %w", err)
	}
	for _, r := range routines {
		label, ok := labels.Personalize(r.Type, r.Label, dog.Name, previousName)
		if !ok || label == r.Label {
			continue
		}
		if _, err := s.repo.UpdateRoutine(ctx, r.ID, store.RoutinePatch{Label: &label}); err != nil {
			return fmt.Errorf("relabel routine %s: %w", r.ID, err)
		}
	}
	return nil
}
