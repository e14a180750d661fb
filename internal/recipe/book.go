package recipe

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hammamikhairi/souschef/internal/domain"
)

// yamlBook is the on-disk recipe book format.
type yamlBook struct {
	Recipes []yamlRecipe `yaml:"recipes"`
}

type yamlRecipe struct {
	ID           string           `yaml:"id"`
	Title        string           `yaml:"title"`
	Image        string           `yaml:"image"`
	Category     string           `yaml:"category"`
	Area         string           `yaml:"area"`
	Tags         []string         `yaml:"tags"`
	Steps        []string         `yaml:"steps"`
	Instructions string           `yaml:"instructions"` // free text, one step per line
	Ingredients  []yamlIngredient `yaml:"ingredients"`
	Minutes      int              `yaml:"minutes"`
	Difficulty   string           `yaml:"difficulty"`
	Allergens    []string         `yaml:"allergens"`
	Nutrition    *yamlNutrition   `yaml:"nutrition"`
	StepTimers   map[int]string   `yaml:"step_timers"` // 1-based step number to duration, "5m"
}

type yamlNutrition struct {
	Calories int `yaml:"calories"`
	Protein  int `yaml:"protein"`
	Carbs    int `yaml:"carbs"`
	Fat      int `yaml:"fat"`
	Sodium   int `yaml:"sodium"`
	Fiber    int `yaml:"fiber"`
}

type yamlIngredient struct {
	Name    string `yaml:"name"`
	Measure string `yaml:"measure"`
}

// ParseBook decodes a YAML recipe book. Every recipe needs an id and a
// title. Steps come from the steps list, or from the instructions block
// split on line breaks when no list is given.
func ParseBook(data []byte) ([]*domain.Recipe, error) {
	var book yamlBook
	if err := yaml.Unmarshal(data, &book); err != nil {
		return nil, fmt.Errorf("parse recipe book yaml: %w", err)
	}

	out := make([]*domain.Recipe, 0, len(book.Recipes))
	for i, yr := range book.Recipes {
		if strings.TrimSpace(yr.ID) == "" || strings.TrimSpace(yr.Title) == "" {
			return nil, fmt.Errorf("recipe #%d: id and title are required: %w", i+1, domain.ErrMalformedRecipe)
		}

		r := &domain.Recipe{
			ID:       strings.TrimSpace(yr.ID),
			Title:    strings.TrimSpace(yr.Title),
			Image:    yr.Image,
			Category: yr.Category,
			Area:     yr.Area,
			Tags:     yr.Tags,
			Steps:    cleanSteps(yr.Steps),

			Minutes:    yr.Minutes,
			Difficulty: strings.TrimSpace(yr.Difficulty),
			Allergens:  yr.Allergens,
		}
		if len(r.Steps) == 0 {
			r.Steps = splitInstructions(yr.Instructions)
		}
		if n := yr.Nutrition; n != nil {
			r.Nutrition = &domain.Nutrition{
				Calories: n.Calories,
				Protein:  n.Protein,
				Carbs:    n.Carbs,
				Fat:      n.Fat,
				Sodium:   n.Sodium,
				Fiber:    n.Fiber,
			}
		}
		timers, err := stepTimers(yr.StepTimers, len(r.Steps))
		if err != nil {
			return nil, fmt.Errorf("recipe %s: %w", r.ID, err)
		}
		r.StepTimers = timers
		for _, ing := range yr.Ingredients {
			if name := strings.TrimSpace(ing.Name); name != "" {
				r.Ingredients = append(r.Ingredients, domain.Ingredient{Name: name, Measure: strings.TrimSpace(ing.Measure)})
			}
		}
		out = append(out, r)
	}
	return out, nil
}

// LoadBook reads a recipe book file, or every .yaml/.yml file in a
// directory, and adds the recipes to the source. Returns how many were
// loaded.
func (s *MemorySource) LoadBook(path string) (int, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("stat recipe book: %w", err)
	}

	files := []string{path}
	if info.IsDir() {
		entries, err := os.ReadDir(path)
		if err != nil {
			return 0, fmt.Errorf("read recipe book directory: %w", err)
		}
		files = files[:0]
		for _, e := range entries {
			ext := strings.ToLower(filepath.Ext(e.Name()))
			if !e.IsDir() && (ext == ".yaml" || ext == ".yml") {
				files = append(files, filepath.Join(path, e.Name()))
			}
		}
	}

	var errs []error
	total := 0
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			errs = append(errs, fmt.Errorf("read recipe book %s: %w", f, err))
			continue
		}
		recipes, err := ParseBook(data)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", f, err))
			continue
		}
		if err := s.Add(recipes...); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", f, err))
			continue
		}
		total += len(recipes)
		s.log.Info("loaded %d recipes from %s", len(recipes), f)
	}
	return total, errors.Join(errs...)
}

// stepTimers lays out step_timers as seconds aligned with the steps.
func stepTimers(in map[int]string, steps int) ([]int, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make([]int, steps)
	for n, raw := range in {
		if n < 1 || n > steps {
			return nil, fmt.Errorf("step timer for step %d of %d: %w", n, steps, domain.ErrMalformedRecipe)
		}
		d, err := time.ParseDuration(strings.TrimSpace(raw))
		if err != nil || d < time.Second {
			return nil, fmt.Errorf("step %d timer %q: %w", n, raw, domain.ErrMalformedRecipe)
		}
		out[n-1] = int(d / time.Second)
	}
	return out, nil
}

var lineBreaks = regexp.MustCompile(`\r?\n+`)

// splitInstructions turns a free-text instruction block into steps,
// one per non-empty line.
func splitInstructions(text string) []string {
	return cleanSteps(lineBreaks.Split(text, -1))
}

func cleanSteps(steps []string) []string {
	out := make([]string, 0, len(steps))
	for _, s := range steps {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
