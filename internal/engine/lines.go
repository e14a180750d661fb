package engine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hammamikhairi/souschef/internal/domain"
)

// Everything the engine says lives here so the wording stays in one place.

func LineLastStep() string  { return "This was the last step." }
func LineFirstStep() string { return "You are at the first step." }
func LinePickRecipe() string {
	return "Pick a recipe first."
}
func LineNoInstructions() string { return "This recipe has no instructions." }
func LineNoResults() string      { return "No results found." }
func LineSearchFailed() string   { return "Search failed." }

func LineNutritionPending() string {
	return "Nutrition is not connected yet. We will add it soon."
}

// LineNutrition reads out the stored per-serving facts for a recipe.
func LineNutrition(title string, n *domain.Nutrition, allergens []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s has %d calories per serving, with %dg protein, %dg carbs, %dg fat and %dg fiber.",
		title, n.Calories, n.Protein, n.Carbs, n.Fat, n.Fiber)
	if n.HighSodium() {
		fmt.Fprintf(&b, " Sodium is high at %dmg.", n.Sodium)
	}
	if len(allergens) > 0 {
		fmt.Fprintf(&b, " Contains %s.", strings.ToLower(strings.Join(allergens, ", ")))
	}
	return b.String()
}

func LineUnrecognized() string {
	return "Sorry, I didn't catch that. Say next, previous, repeat, or set timer to N minutes."
}

func LineAssistantUnavailable() string {
	return "Sorry, the assistant is unavailable right now."
}

func LineTimerFailed() string {
	return "Sorry, I couldn't start that timer."
}

// LineTimerStarted echoes the quantity the way it was spoken:
// "Starting pasta timer for 8 minutes.", "... for 1.5 minutes.",
// "... for 1 minute.".
func LineTimerStarted(label string, quantity float64, unit string) string {
	if unit == "" {
		unit = domain.UnitSeconds
	}
	if quantity == 1 {
		unit = strings.TrimSuffix(unit, "s")
	}
	return fmt.Sprintf("Starting %s timer for %s %s.", label, strconv.FormatFloat(quantity, 'f', -1, 64), unit)
}
