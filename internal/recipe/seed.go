package recipe

import "github.com/hammamikhairi/souschef/internal/domain"

// seed populates the source with built-in recipes.
func (s *MemorySource) seed() {
	recipes := []*domain.Recipe{
		spinachTofuStirFry(),
		chickpeaCurry(),
		pastaPrimavera(),
	}
	for _, r := range recipes {
		s.recipes[r.ID] = r
	}
	s.log.Debug("seeded %d recipes", len(recipes))
}

func spinachTofuStirFry() *domain.Recipe {
	return &domain.Recipe{
		ID:       "spinach-tofu-stir-fry",
		Title:    "Spinach Tofu Stir-Fry",
		Category: "Vegetarian",
		Area:     "Chinese",
		Tags:     []string{"quick", "easy", "soy"},

		Minutes:    18,
		Difficulty: "Easy",
		Allergens:  []string{"Soy"},
		Nutrition:  &domain.Nutrition{Calories: 285, Protein: 24, Carbs: 12, Fat: 16, Sodium: 680, Fiber: 4},

		Ingredients: []domain.Ingredient{
			{Name: "Tofu", Measure: "400g"},
			{Name: "Spinach", Measure: "200g"},
			{Name: "Soy sauce", Measure: "3 tbsp"},
			{Name: "Garlic", Measure: "3 cloves"},
			{Name: "Ginger", Measure: "1 tbsp"},
			{Name: "Sesame oil", Measure: "2 tsp"},
		},
		Steps: []string{
			"Press and cube the tofu into 2cm pieces.",
			"Mince the garlic and grate the ginger.",
			"Heat sesame oil in a large pan over medium-high heat.",
			"Add tofu cubes and cook until golden, about 5 minutes.",
			"Add garlic and ginger, stir for 30 seconds.",
			"Add spinach and soy sauce, cook until wilted.",
			"Serve hot over rice or noodles.",
		},
		StepTimers: []int{0, 0, 0, 300, 30, 120, 0},
	}
}

func chickpeaCurry() *domain.Recipe {
	return &domain.Recipe{
		ID:       "chickpea-curry",
		Title:    "Chickpea Curry",
		Category: "Vegetarian",
		Area:     "Indian",
		Tags:     []string{"curry", "vegan"},

		Minutes:    30,
		Difficulty: "Moderate",
		Nutrition:  &domain.Nutrition{Calories: 380, Protein: 14, Carbs: 42, Fat: 18, Sodium: 420, Fiber: 12},

		Ingredients: []domain.Ingredient{
			{Name: "Chickpeas", Measure: "2 cans"},
			{Name: "Onions", Measure: "2 large"},
			{Name: "Tomatoes", Measure: "3 medium"},
			{Name: "Coconut milk", Measure: "1 can"},
			{Name: "Curry powder", Measure: "2 tbsp"},
			{Name: "Garlic", Measure: "4 cloves"},
		},
		Steps: []string{
			"Dice onions and tomatoes. Mince garlic.",
			"Heat oil in a large pot over medium heat.",
			"Sauté onions until golden, about 8 minutes.",
			"Add garlic and curry powder, cook for 1 minute.",
			"Add tomatoes and cook until softened, 5 minutes.",
			"Add chickpeas and coconut milk. Simmer for 15 minutes.",
			"Season with salt and serve with rice or naan.",
		},
		StepTimers: []int{0, 0, 480, 60, 300, 900, 0},
	}
}

func pastaPrimavera() *domain.Recipe {
	return &domain.Recipe{
		ID:       "pasta-primavera",
		Title:    "Vegetable Pasta Primavera",
		Category: "Pasta",
		Area:     "Italian",
		Tags:     []string{"pasta", "dairy", "gluten"},

		Minutes:    25,
		Difficulty: "Easy",
		Allergens:  []string{"Dairy", "Gluten"},
		Nutrition:  &domain.Nutrition{Calories: 420, Protein: 15, Carbs: 68, Fat: 11, Sodium: 340, Fiber: 6},

		Ingredients: []domain.Ingredient{
			{Name: "Pasta", Measure: "400g"},
			{Name: "Bell peppers", Measure: "2"},
			{Name: "Zucchini", Measure: "1"},
			{Name: "Cherry tomatoes", Measure: "200g"},
			{Name: "Olive oil", Measure: "3 tbsp"},
			{Name: "Parmesan", Measure: "50g"},
		},
		Steps: []string{
			"Bring a large pot of salted water to boil.",
			"Chop vegetables into bite-sized pieces.",
			"Cook pasta according to package directions.",
			"Meanwhile, heat olive oil in a pan over medium-high.",
			"Sauté vegetables until tender, about 7 minutes.",
			"Drain pasta, reserving 1 cup pasta water.",
			"Toss pasta with vegetables, add pasta water as needed. Top with Parmesan.",
		},
		StepTimers: []int{0, 0, 600, 0, 420, 0, 0},
	}
}
