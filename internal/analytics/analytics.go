// Package analytics derives completion rates and streaks from weekly history.
package analytics

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/Zaphkiel07/Pawtine2/internal/domain"
	"github.com/Zaphkiel07/Pawtine2/internal/schedule"
)

// NoData is reported by TypeHitRate when no rows of the type exist.
const NoData = "no data"

// CompletionRate returns completed/total as a rounded whole percent, or 0 when total is 0.
func CompletionRate(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}

// LongestStreak returns the longest run of consecutive calendar days holding
// at least one done row. Several done rows on one day count once.
func LongestStreak(rows []domain.WeeklyRow) int {
	days := make([]string, 0, len(rows))
	for _, row := range rows {
		if row.Status == domain.HistoryDone && row.Day != "" {
			days = append(days, row.Day)
		}
	}
	if len(days) == 0 {
		return 0
	}
	sort.Strings(days)

	streak, best := 1, 1
	for i := 1; i < len(days); i++ {
		diff, err := schedule.DaysBetween(days[i-1], days[i])
		if err != nil {
			continue
		}
		switch {
		case diff == 0:
			// same day, already counted
		case diff == 1:
			streak++
			best = max(best, streak)
		default:
			streak = 1
		}
	}
	return best
}

// TypeHitRate formats the done ratio among rows of type t, or NoData.
func TypeHitRate(rows []domain.WeeklyRow, t domain.RoutineType) string {
	total, done := 0, 0
	for _, row := range rows {
		if row.Type != t {
			continue
		}
		total++
		if row.Status == domain.HistoryDone {
			done++
		}
	}
	if total == 0 {
		return NoData
	}
	return fmt.Sprintf("%d%%", CompletionRate(done, total))
}

// DayBucket aggregates one calendar day of the week.
type DayBucket struct {
	Label     string `json:"label"`
	Day       string `json:"day"`
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
	Rate      int    `json:"rate"`
}

// Dashboard is the weekly report shown to owners.
type Dashboard struct {
	WeekStart      string      `json:"week_start"`
	Days           []DayBucket `json:"days"`
	Completed      int         `json:"completed"`
	Total          int         `json:"total"`
	CompletionRate int         `json:"completion_rate"`
	LongestStreak  int         `json:"longest_streak"`
	WaterHitRate   string      `json:"water_hit_rate"`
}

// BuildDashboard buckets rows into the seven days starting at weekStart.
func BuildDashboard(weekStart time.Time, rows []domain.WeeklyRow) Dashboard {
	start := schedule.StartOfDay(weekStart)
	index := make(map[string]int, 7)
	days := make([]DayBucket, 7)
	for i := range days {
		d := start.AddDate(0, 0, i)
		days[i] = DayBucket{Label: d.Format("Mon"), Day: schedule.DayKey(d)}
		index[days[i].Day] = i
	}

	dash := Dashboard{WeekStart: schedule.DayKey(start)}
	for _, row := range rows {
		key := row.Day
		if len(key) > len(schedule.DayLayout) {
			key = key[:len(schedule.DayLayout)]
		}
		i, ok := index[key]
		if !ok {
			continue
		}
		days[i].Total++
		if row.Status == domain.HistoryDone {
			days[i].Completed++
		}
	}
	for i := range days {
		days[i].Rate = CompletionRate(days[i].Completed, days[i].Total)
		dash.Completed += days[i].Completed
		dash.Total += days[i].Total
	}

	dash.Days = days
	dash.CompletionRate = CompletionRate(dash.Completed, dash.Total)
	dash.LongestStreak = LongestStreak(rows)
	dash.WaterHitRate = TypeHitRate(rows, domain.RoutineWater)
	return dash
}
