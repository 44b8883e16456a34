package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zaphkiel07/Pawtine2/internal/domain"
)

func done(day string) domain.WeeklyRow {
	return domain.WeeklyRow{RoutineID: "r-" + day, Type: domain.RoutineFeed, Status: domain.HistoryDone, Day: day}
}

func TestCompletionRate(t *testing.T) {
	assert.Equal(t, 67, CompletionRate(2, 3))
	assert.Equal(t, 0, CompletionRate(0, 0))
	assert.Equal(t, 100, CompletionRate(4, 4))
	assert.Equal(t, 50, CompletionRate(1, 2))
}

func TestLongestStreak(t *testing.T) {
	tests := []struct {
		name string
		rows []domain.WeeklyRow
		want int
	}{
		{"none", nil, 0},
		{"single", []domain.WeeklyRow{done("2024-01-01")}, 1},
		{"run with gap", []domain.WeeklyRow{done("2024-01-05"), done("2024-01-02"), done("2024-01-01"), done("2024-01-03")}, 3},
		{"gap then longer run", []domain.WeeklyRow{done("2024-01-01"), done("2024-01-03"), done("2024-01-04"), done("2024-01-05")}, 3},
		{"same day counted once", []domain.WeeklyRow{done("2024-01-01"), done("2024-01-01"), done("2024-01-01")}, 1},
		{"same day inside run", []domain.WeeklyRow{done("2024-01-01"), done("2024-01-02"), done("2024-01-02"), done("2024-01-03")}, 3},
		{"ignores missed and blank days", []domain.WeeklyRow{
			done("2024-01-01"),
			{Status: domain.HistoryMissed, Day: "2024-01-02"},
			{Status: domain.HistoryDone},
			done("2024-01-03"),
		}, 1},
		{"month boundary", []domain.WeeklyRow{done("2024-01-31"), done("2024-02-01")}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LongestStreak(tt.rows))
		})
	}
}

func TestTypeHitRate(t *testing.T) {
	rows := []domain.WeeklyRow{
		{Type: domain.RoutineWater, Status: domain.HistoryDone, Day: "2024-01-01"},
		{Type: domain.RoutineWater, Status: domain.HistoryMissed, Day: "2024-01-02"},
		{Type: domain.RoutineWater, Status: domain.HistoryDone, Day: "2024-01-03"},
		{Type: domain.RoutineWalk, Status: domain.HistoryDone, Day: "2024-01-03"},
	}
	assert.Equal(t, "67%", TypeHitRate(rows, domain.RoutineWater))
	assert.Equal(t, "100%", TypeHitRate(rows, domain.RoutineWalk))
	assert.Equal(t, NoData, TypeHitRate(rows, domain.RoutineFeed))
}

func TestBuildDashboard(t *testing.T) {
	weekStart := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	rows := []domain.WeeklyRow{
		done("2024-01-01"),
		done("2024-01-01"),
		{Type: domain.RoutineWater, Status: domain.HistorySnoozed, Day: "2024-01-01"},
		done("2024-01-02"),
		{Type: domain.RoutineWater, Status: domain.HistoryDone, Day: "2024-01-07"},
		done("2024-01-09"),
	}

	dash := BuildDashboard(weekStart, rows)
	require.Len(t, dash.Days, 7)
	assert.Equal(t, "2024-01-01", dash.WeekStart)
	assert.Equal(t, "Mon", dash.Days[0].Label)
	assert.Equal(t, "Sun", dash.Days[6].Label)
	assert.Equal(t, DayBucket{Label: "Mon", Day: "2024-01-01", Completed: 2, Total: 3, Rate: 67}, dash.Days[0])
	assert.Equal(t, 4, dash.Completed)
	assert.Equal(t, 5, dash.Total)
	assert.Equal(t, 80, dash.CompletionRate)
	assert.Equal(t, 2, dash.LongestStreak)
	assert.Equal(t, "50%", dash.WaterHitRate)
}
