package labels

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Zaphkiel07/Pawtine2/internal/domain"
)

func TestPersonalize(t *testing.T) {
	tests := []struct {
		name     string
		typ      domain.RoutineType
		label    string
		newName  string
		prevName string
		want     string
		changed  bool
	}{
		{"previous name replaced", domain.RoutineFeed, "Luna breakfast", "Max", "Luna", "Max breakfast", true},
		{"previous name replaced everywhere", domain.RoutineCustom, "Luna and Luna's toy", "Max", "Luna", "Max and Max's toy", true},
		{"breakfast heuristic", domain.RoutineFeed, "Morning BREAKFAST", "Max", "", "Max breakfast", true},
		{"dinner heuristic", domain.RoutineFeed, "dinner time", "Max", "Rex", "Max dinner", true},
		{"feed without meal word", domain.RoutineFeed, "Snack", "Max", "", "", false},
		{"water heuristic", domain.RoutineWater, "Water refresh", "Max", "", "Max water refresh", true},
		{"walk with number", domain.RoutineWalk, "Luna walk # 2", "Max", "", "Max walk #2", true},
		{"walk without number", domain.RoutineWalk, "Morning walk", "Max", "", "Max walk", true},
		{"walk heuristic ignores type mismatch", domain.RoutineCustom, "Morning walk", "Max", "", "", false},
		{"custom unchanged", domain.RoutineCustom, "Evening play", "Max", "", "", false},
		{"custom unchanged with unrelated previous", domain.RoutineCustom, "Evening play", "Max", "Luna", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, changed := Personalize(tt.typ, tt.label, tt.newName, tt.prevName)
			assert.Equal(t, tt.changed, changed)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDefaultLabel(t *testing.T) {
	assert.Equal(t, "Luna walk", DefaultLabel(domain.RoutineWalk, "Luna"))
	assert.Equal(t, "Pup meal", DefaultLabel(domain.RoutineFeed, "  "))
	assert.Equal(t, "Luna water refresh", DefaultLabel(domain.RoutineWater, "Luna"))
	assert.Equal(t, "Custom routine", DefaultLabel(domain.RoutineCustom, "Luna"))
}

func TestOnboardingLabels(t *testing.T) {
	assert.Equal(t, "Luna walk #3", Walk("Luna", 3))
	assert.Equal(t, "Luna breakfast", Breakfast("Luna"))
}
