// Package storage persists the pantry inventory, in memory or in SQLite.
package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hammamikhairi/souschef/internal/domain"
	"github.com/hammamikhairi/souschef/internal/logger"
)

// Compile-time interface check.
var _ domain.PantryStore = (*MemoryStore)(nil)

// MemoryStore is an in-memory pantry. Safe for concurrent access.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]*domain.PantryItem
	log   *logger.Logger
}

// NewMemoryStore creates an empty in-memory pantry.
func NewMemoryStore(log *logger.Logger) *MemoryStore {
	return &MemoryStore{
		items: make(map[string]*domain.PantryItem),
		log:   log,
	}
}

// Add stores an item, filling in its ID and AddedAt when unset.
func (s *MemoryStore) Add(ctx context.Context, item *domain.PantryItem) error {
	if err := prepare(item, time.Now()); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *item
	s.items[item.ID] = &cp
	s.log.Debug("pantry: added %s (%s)", item.Name, item.ID)
	return nil
}

// List returns copies of all items ordered by expiry date, undated last.
func (s *MemoryStore) List(ctx context.Context) ([]*domain.PantryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.PantryItem, 0, len(s.items))
	for _, it := range s.items {
		cp := *it
		out = append(out, &cp)
	}
	sortItems(out)
	return out, nil
}

// Delete removes an item by ID.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return fmt.Errorf("pantry item %s: %w", id, domain.ErrNotFound)
	}
	delete(s.items, id)
	s.log.Debug("pantry: deleted %s", id)
	return nil
}

// prepare validates an item and fills defaults.
func prepare(item *domain.PantryItem, now time.Time) error {
	item.Name = strings.TrimSpace(item.Name)
	if item.Name == "" {
		return domain.ErrInvalidPantryItem
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.AddedAt.IsZero() {
		item.AddedAt = now.UTC()
	}
	return nil
}

func sortItems(items []*domain.PantryItem) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].ExpiresOn, items[j].ExpiresOn
		switch {
		case a.IsZero() != b.IsZero():
			return b.IsZero()
		case !a.Equal(b):
			return a.Before(b)
		default:
			return items[i].Name < items[j].Name
		}
	})
}
