package routines

import (
	"context"
	"fmt"
	"time"

	"github.com/Zaphkiel07/Pawtine2/internal/analytics"
	"github.com/Zaphkiel07/Pawtine2/internal/domain"
	"github.com/Zaphkiel07/Pawtine2/internal/schedule"
	"github.com/Zaphkiel07/Pawtine2/internal/store"
)

// Daily lists today's active routines, each with today's history entry if any.
func (s *Service) Daily(ctx context.Context, userID string) ([]domain.RoutineWithToday, error) {
	out := []domain.RoutineWithToday{}

	owner, err := s.CurrentOwnerAndDog(ctx, userID)
	if err != nil || owner.Dog == nil {
		return out, err
	}

	routines, err := s.repo.ListRoutines(ctx, store.RoutineFilter{
		DogID:  owner.Dog.ID,
		Status: domain.StatusActive,
	})
	if err != nil {
		return nil, fmt.Errorf("list routines: %w", err)
	}
	if len(routines) == 0 {
		return out, nil
	}

	ids := make([]string, len(routines))
	for i, r := range routines {
		ids[i] = r.ID
	}
	entries, err := s.repo.HistoryForDay(ctx, ids, schedule.DayKey(s.clock.Now()))
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	byRoutine := make(map[string]domain.HistoryEntry, len(entries))
	for _, e := range entries {
		byRoutine[e.RoutineID] = e
	}

	for _, r := range routines {
		row := domain.RoutineWithToday{Routine: r}
		if e, ok := byRoutine[r.ID]; ok {
			e := e
			row.Today = &e
		}
		out = append(out, row)
	}
	return out, nil
}

// All lists every routine of the dog, paused ones included.
func (s *Service) All(ctx context.Context, userID string) ([]domain.Routine, error) {
	owner, err := s.CurrentOwnerAndDog(ctx, userID)
	if err != nil || owner.Dog == nil {
		return []domain.Routine{}, err
	}
	routines, err := s.repo.ListRoutines(ctx, store.RoutineFilter{DogID: owner.Dog.ID})
	if err != nil {
		return nil, fmt.Errorf("list routines: %w", err)
	}
	return routines, nil
}

// Monthly lists active routines scheduled within ref's calendar month.
func (s *Service) Monthly(ctx context.Context, userID string, ref time.Time) ([]domain.CalendarTask, error) {
	out := []domain.CalendarTask{}

	owner, err := s.CurrentOwnerAndDog(ctx, userID)
	if err != nil || owner.Dog == nil {
		return out, err
	}

	from, to := schedule.MonthRange(ref)
	routines, err := s.repo.ListRoutines(ctx, store.RoutineFilter{
		DogID:  owner.Dog.ID,
		Status: domain.StatusActive,
		From:   &from,
		To:     &to,
	})
	if err != nil {
		return nil, fmt.Errorf("list monthly routines: %w", err)
	}
	for _, r := range routines {
		label := r.Label
		if label == "" {
			label = "Routine"
		}
		out = append(out, domain.CalendarTask{
			ID:            r.ID,
			Label:         label,
			Type:          r.Type,
			ScheduledTime: r.ScheduledTime,
		})
	}
	return out, nil
}

// WeeklySummary returns history rows in [weekStart, weekStart+7d).
func (s *Service) WeeklySummary(ctx context.Context, userID, weekStart string) ([]domain.WeeklyRow, error) {
	start, err := schedule.ParseDay(weekStart, time.UTC)
	if err != nil {
		return nil, invalid("week start: %v", err)
	}

	owner, err := s.CurrentOwnerAndDog(ctx, userID)
	if err != nil || owner.Dog == nil {
		return []domain.WeeklyRow{}, err
	}

	rows, err := s.repo.WeeklySummary(ctx, owner.Dog.ID, schedule.DayKey(start))
	if err != nil {
		return nil, fmt.Errorf("weekly summary: %w", err)
	}
	return rows, nil
}

// Dashboard builds the weekly report for the week containing day. An empty
// day means the current week.
func (s *Service) Dashboard(ctx context.Context, userID, day string) (analytics.Dashboard, error) {
	now := s.clock.Now()
	ref := now
	if day != "" {
		parsed, err := schedule.ParseDay(day, now.Location())
		if err != nil {
			return analytics.Dashboard{}, invalid("week: %v", err)
		}
		ref = parsed
	}
	start := schedule.WeekStart(ref)

	rows, err := s.WeeklySummary(ctx, userID, schedule.DayKey(start))
	if err != nil {
		return analytics.Dashboard{}, err
	}
	return analytics.BuildDashboard(start, rows), nil
}
