// Package domain defines the core types and interfaces for the sous-chef.
// All other packages depend on domain; domain depends on nothing.
package domain

import "time"

// Recipe is a complete recipe as the cooking view needs it. The dispatcher
// only reads Steps; everything else is shown to the cook.
type Recipe struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Image       string       `json:"image,omitempty"`
	Category    string       `json:"category,omitempty"`
	Area        string       `json:"area,omitempty"`
	Steps       []string     `json:"steps"`
	Ingredients []Ingredient `json:"ingredients"`
	Tags        []string     `json:"tags,omitempty"`

	// StepTimers holds a suggested timer in seconds per step, aligned with
	// Steps. Zero means the step has none.
	StepTimers []int      `json:"step_timers,omitempty"`
	Minutes    int        `json:"minutes,omitempty"`
	Difficulty string     `json:"difficulty,omitempty"`
	Nutrition  *Nutrition `json:"nutrition,omitempty"`
	Allergens  []string   `json:"allergens,omitempty"`
}

// Summary returns the listing view of the recipe.
func (r *Recipe) Summary() RecipeSummary {
	return RecipeSummary{
		ID:         r.ID,
		Title:      r.Title,
		Image:      r.Image,
		Category:   r.Category,
		Area:       r.Area,
		Minutes:    r.Minutes,
		Difficulty: r.Difficulty,
	}
}

// StepTimer returns the suggested timer for step idx, or 0.
func (r *Recipe) StepTimer(idx int) time.Duration {
	if r == nil || idx < 0 || idx >= len(r.StepTimers) || idx >= len(r.Steps) {
		return 0
	}
	return time.Duration(r.StepTimers[idx]) * time.Second
}

// Step returns the instruction at idx, or "" when idx is out of range.
func (r *Recipe) Step(idx int) string {
	if r == nil || idx < 0 || idx >= len(r.Steps) {
		return ""
	}
	return r.Steps[idx]
}

// RecipeSummary is a lightweight view of a recipe for search results.
type RecipeSummary struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Image    string `json:"image,omitempty"`
	Category string `json:"category,omitempty"`
	Area     string `json:"area,omitempty"`

	Minutes    int    `json:"minutes,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
}

// HighSodiumMg is the per-serving sodium level flagged as high.
const HighSodiumMg = 600

// Nutrition is per-serving nutrition data as stored with a recipe. Macros
// are in grams, sodium in milligrams.
type Nutrition struct {
	Calories int `json:"calories"`
	Protein  int `json:"protein_g"`
	Carbs    int `json:"carbs_g"`
	Fat      int `json:"fat_g"`
	Sodium   int `json:"sodium_mg"`
	Fiber    int `json:"fiber_g"`
}

// HighSodium reports whether sodium is above HighSodiumMg.
func (n *Nutrition) HighSodium() bool {
	return n != nil && n.Sodium > HighSodiumMg
}

// Ingredient pairs an ingredient name with a free-form measure
// ("2 tbsp", "a pinch", "").
type Ingredient struct {
	Name    string `json:"name"`
	Measure string `json:"measure,omitempty"`
}
