package recipe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hammamikhairi/souschef/internal/domain"
	"github.com/hammamikhairi/souschef/internal/logger"
)

// DefaultMealDBURL is TheMealDB's free v1 API with the public test key.
const DefaultMealDBURL = "https://www.themealdb.com/api/json/v1/1"

// maxIngredients is how many strIngredientN/strMeasureN pairs a meal has.
const maxIngredients = 20

// Compile-time interface check.
var _ domain.RecipeSource = (*MealDBSource)(nil)

// ── Wire types ───────────────────────────────────────────────────

// mealsEnvelope is the response of both search.php and lookup.php.
// "meals" is null when nothing matched.
type mealsEnvelope struct {
	Meals []mealPayload `json:"meals"`
}

// mealPayload is one meal as TheMealDB sends it. Any field may be null.
type mealPayload struct {
	ID           string  `json:"idMeal"`
	Name         string  `json:"strMeal"`
	Thumb        *string `json:"strMealThumb"`
	Category     *string `json:"strCategory"`
	Area         *string `json:"strArea"`
	Instructions *string `json:"strInstructions"`
	Tags         *string `json:"strTags"`

	ingredients []domain.Ingredient
}

// UnmarshalJSON decodes the fixed fields and then collects the numbered
// ingredient and measure pairs.
func (m *mealPayload) UnmarshalJSON(data []byte) error {
	type fixed mealPayload
	var f fixed
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}

	var raw map[string]*string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*m = mealPayload(f)
	m.ingredients = nil
	for i := 1; i <= maxIngredients; i++ {
		name := strings.TrimSpace(deref(raw["strIngredient"+strconv.Itoa(i)]))
		if name == "" {
			continue
		}
		m.ingredients = append(m.ingredients, domain.Ingredient{
			Name:    name,
			Measure: strings.TrimSpace(deref(raw["strMeasure"+strconv.Itoa(i)])),
		})
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// validateMeal rejects meals the cooking view cannot show.
func validateMeal(m *mealPayload) error {
	if strings.TrimSpace(m.ID) == "" {
		return fmt.Errorf("meal without idMeal: %w", domain.ErrMalformedRecipe)
	}
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("meal %s without strMeal: %w", m.ID, domain.ErrMalformedRecipe)
	}
	return nil
}

// toRecipe maps a validated payload onto the domain type.
func (m *mealPayload) toRecipe() domain.Recipe {
	r := domain.Recipe{
		ID:          strings.TrimSpace(m.ID),
		Title:       strings.TrimSpace(m.Name),
		Image:       deref(m.Thumb),
		Category:    deref(m.Category),
		Area:        deref(m.Area),
		Steps:       splitInstructions(deref(m.Instructions)),
		Ingredients: m.ingredients,
	}
	for _, tag := range strings.Split(deref(m.Tags), ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			r.Tags = append(r.Tags, tag)
		}
	}
	return r
}

// ── Source ───────────────────────────────────────────────────────

// MealDBOption configures the MealDB source.
type MealDBOption func(*MealDBSource)

// WithBaseURL points the source at another API root, such as a paid key
// or a test server.
func WithBaseURL(u string) MealDBOption {
	return func(s *MealDBSource) { s.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) MealDBOption {
	return func(s *MealDBSource) { s.http = c }
}

// MealDBSource searches TheMealDB.
type MealDBSource struct {
	baseURL string
	http    *http.Client
	log     *logger.Logger
}

// NewMealDBSource creates a source for TheMealDB.
func NewMealDBSource(log *logger.Logger, opts ...MealDBOption) *MealDBSource {
	s := &MealDBSource{
		baseURL: DefaultMealDBURL,
		http:    &http.Client{Timeout: 10 * time.Second},
		log:     log,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Search finds meals by name. Malformed meals are skipped, not fatal.
func (s *MealDBSource) Search(ctx context.Context, query string) ([]domain.Recipe, error) {
	meals, err := s.fetch(ctx, "/search.php?s="+url.QueryEscape(strings.TrimSpace(query)))
	if err != nil {
		return nil, err
	}

	out := make([]domain.Recipe, 0, len(meals))
	for i := range meals {
		if err := validateMeal(&meals[i]); err != nil {
			s.log.Warn("mealdb: skipping result: %v", err)
			continue
		}
		out = append(out, meals[i].toRecipe())
	}
	s.log.Debug("mealdb: %q -> %d results", query, len(out))
	return out, nil
}

// Get looks a meal up by id.
func (s *MealDBSource) Get(ctx context.Context, id string) (*domain.Recipe, error) {
	meals, err := s.fetch(ctx, "/lookup.php?i="+url.QueryEscape(id))
	if err != nil {
		return nil, err
	}
	if len(meals) == 0 {
		return nil, fmt.Errorf("meal %s: %w", id, domain.ErrNotFound)
	}
	if err := validateMeal(&meals[0]); err != nil {
		return nil, err
	}
	r := meals[0].toRecipe()
	return &r, nil
}

func (s *MealDBSource) fetch(ctx context.Context, path string) ([]mealPayload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("mealdb: create request: %w", err)
	}

	s.log.Debug("mealdb: GET %s", path)

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mealdb: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("mealdb: API %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var env mealsEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("mealdb: decode response: %w: %v", domain.ErrMalformedRecipe, err)
	}
	return env.Meals, nil
}
