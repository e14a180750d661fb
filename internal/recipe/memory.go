// Package recipe provides recipe source implementations: a built-in set
// backed by memory and YAML recipe books, TheMealDB over HTTP, and a
// read-through cache that wraps either.
package recipe

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/hammamikhairi/souschef/internal/domain"
	"github.com/hammamikhairi/souschef/internal/logger"
)

// Compile-time interface check.
var _ domain.RecipeSource = (*MemorySource)(nil)

// MemorySource holds recipes in memory. Safe for concurrent reads.
type MemorySource struct {
	mu      sync.RWMutex
	recipes map[string]*domain.Recipe
	log     *logger.Logger
}

// NewMemorySource creates a recipe source preloaded with built-in recipes.
func NewMemorySource(log *logger.Logger) *MemorySource {
	src := &MemorySource{
		recipes: make(map[string]*domain.Recipe),
		log:     log,
	}
	src.seed()
	return src
}

// Add stores recipes, replacing any with the same ID.
func (s *MemorySource) Add(recipes ...*domain.Recipe) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range recipes {
		if r == nil || r.ID == "" || r.Title == "" {
			return fmt.Errorf("adding recipe: %w", domain.ErrMalformedRecipe)
		}
		s.recipes[r.ID] = r
	}
	return nil
}

// Len returns how many recipes the source holds.
func (s *MemorySource) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.recipes)
}

// Get returns a recipe by ID.
func (s *MemorySource) Get(ctx context.Context, id string) (*domain.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.recipes[id]
	if !ok {
		s.log.Debug("recipe not found: %s", id)
		return nil, fmt.Errorf("recipe %s: %w", id, domain.ErrNotFound)
	}
	return r, nil
}

// Search returns recipes whose title, category, area, tags or ingredients
// contain the query, sorted by title. An empty query lists everything.
func (s *MemorySource) Search(ctx context.Context, query string) ([]domain.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := strings.ToLower(strings.TrimSpace(query))
	s.log.Debug("searching recipes for: %s", q)

	out := []domain.Recipe{}
	for _, r := range s.recipes {
		if q == "" || matches(r, q) {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func matches(r *domain.Recipe, query string) bool {
	fields := []string{r.Title, r.Category, r.Area}
	fields = append(fields, r.Tags...)
	for _, ing := range r.Ingredients {
		fields = append(fields, ing.Name)
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), query) {
			return true
		}
	}
	return false
}
