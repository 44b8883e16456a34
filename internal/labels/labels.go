// Package labels rewrites routine labels to follow a dog's name.
package labels

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Zaphkiel07/Pawtine2/internal/domain"
)

// FallbackDogName stands in for a dog without a name.
const FallbackDogName = "Pup"

var walkPattern = regexp.MustCompile(`(?i)walk(?:\s*#\s*(\d+))?`)

// Personalize returns the label a routine should carry once its dog is named
// newName. It reports false when the label should be left alone.
//
// A previous name found verbatim in the label is replaced everywhere. Otherwise
// feed labels mentioning breakfast or dinner, water labels mentioning water and
// walk labels (keeping any "#N" suffix) are rewritten to their canonical form.
func Personalize(t domain.RoutineType, label, newName, previousName string) (string, bool) {
	if previousName != "" && strings.Contains(label, previousName) {
		return strings.ReplaceAll(label, previousName, newName), true
	}

	lower := strings.ToLower(label)
	switch t {
	case domain.RoutineFeed:
		if strings.Contains(lower, "breakfast") {
			return newName + " breakfast", true
		}
		if strings.Contains(lower, "dinner") {
			return newName + " dinner", true
		}
	case domain.RoutineWater:
		if strings.Contains(lower, "water") {
			return newName + " water refresh", true
		}
	case domain.RoutineWalk:
		if m := walkPattern.FindStringSubmatch(label); m != nil {
			if m[1] != "" {
				return fmt.Sprintf("%s walk #%s", newName, m[1]), true
			}
			return newName + " walk", true
		}
	}
	return "", false
}

// DefaultLabel names a routine created without a label.
func DefaultLabel(t domain.RoutineType, dogName string) string {
	name := strings.TrimSpace(dogName)
	if name == "" {
		name = FallbackDogName
	}
	switch t {
	case domain.RoutineWalk:
		return name + " walk"
	case domain.RoutineFeed:
		return name + " meal"
	case domain.RoutineWater:
		return name + " water refresh"
	default:
		return "Custom routine"
	}
}

// Breakfast, Dinner, Water and Walk build the labels seeded at onboarding.
func Breakfast(dogName string) string { return dogName + " breakfast" }

func Dinner(dogName string) string { return dogName + " dinner" }

func Water(dogName string) string { return dogName + " water refresh" }

func Walk(dogName string, n int) string { return fmt.Sprintf("%s walk #%d", dogName, n) }
