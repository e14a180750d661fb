package recipe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/hammamikhairi/souschef/internal/clock"
	"github.com/hammamikhairi/souschef/internal/domain"
	"github.com/hammamikhairi/souschef/internal/logger"
)

const (
	keyPrefix = "souschef:recipe:"
	keySearch = keyPrefix + "search:"
	keyGet    = keyPrefix + "id:"
)

// DefaultCacheTTL is how long cached lookups live.
const DefaultCacheTTL = 10 * time.Minute

// Store is a byte cache with per-entry expiry. Get reports a miss with
// ok=false and a nil error.
type Store interface {
	Get(ctx context.Context, key string) (val []byte, ok bool, err error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
}

// ── Redis ────────────────────────────────────────────────────────

// RedisStore keeps entries in Redis.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore wraps a connected client.
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

// Get returns the cached value for key.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

// Set stores val under key for ttl.
func (s *RedisStore) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	return s.rdb.Set(ctx, key, val, ttl).Err()
}

// ── In-process ───────────────────────────────────────────────────

type mapEntry struct {
	val     []byte
	expires time.Time
}

// MapStore is an in-process Store for when Redis is not configured.
type MapStore struct {
	mu      sync.Mutex
	clock   clock.Clock
	entries map[string]mapEntry
}

// NewMapStore creates an empty in-process store.
func NewMapStore(c clock.Clock) *MapStore {
	if c == nil {
		c = clock.System{}
	}
	return &MapStore{clock: c, entries: make(map[string]mapEntry)}
}

// Get returns the value if present and not expired.
func (s *MapStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !s.clock.Now().Before(e.expires) {
		delete(s.entries, key)
		return nil, false, nil
	}
	return e.val, true, nil
}

// Set stores val under key for ttl.
func (s *MapStore) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = mapEntry{val: val, expires: s.clock.Now().Add(ttl)}
	return nil
}

// ── Read-through source ──────────────────────────────────────────

// Compile-time interface check.
var _ domain.RecipeSource = (*CachedSource)(nil)

// CachedSource puts a Store in front of another source. Concurrent misses
// for the same key share one upstream call. Cache failures are logged and
// bypassed; the upstream source stays authoritative.
type CachedSource struct {
	inner domain.RecipeSource
	store Store
	ttl   time.Duration
	log   *logger.Logger
	group singleflight.Group
}

// NewCachedSource wraps inner. A non-positive ttl uses DefaultCacheTTL.
func NewCachedSource(inner domain.RecipeSource, store Store, ttl time.Duration, log *logger.Logger) *CachedSource {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedSource{inner: inner, store: store, ttl: ttl, log: log}
}

// Search returns cached results for the normalized query when present.
func (c *CachedSource) Search(ctx context.Context, query string) ([]domain.Recipe, error) {
	key := keySearch + normalizeQuery(query)
	v, err := c.load(ctx, key, func() (any, error) {
		return c.inner.Search(ctx, query)
	}, func(b []byte) (any, error) {
		var out []domain.Recipe
		err := json.Unmarshal(b, &out)
		return out, err
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Recipe), nil
}

// Get returns the cached recipe when present.
func (c *CachedSource) Get(ctx context.Context, id string) (*domain.Recipe, error) {
	v, err := c.load(ctx, keyGet+id, func() (any, error) {
		return c.inner.Get(ctx, id)
	}, func(b []byte) (any, error) {
		var r domain.Recipe
		err := json.Unmarshal(b, &r)
		return &r, err
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Recipe), nil
}

// load implements the read-through: cache, then one shared upstream call,
// then a best-effort write back. Errors are never cached.
func (c *CachedSource) load(
	ctx context.Context,
	key string,
	fetch func() (any, error),
	decode func([]byte) (any, error),
) (any, error) {
	if b, ok, err := c.store.Get(ctx, key); err != nil {
		c.log.Warn("recipe cache: get %s: %v", key, err)
	} else if ok {
		v, err := decode(b)
		if err == nil {
			c.log.Debug("recipe cache: hit %s", key)
			return v, nil
		}
		c.log.Warn("recipe cache: corrupt entry %s: %v", key, err)
	}

	v, err, shared := c.group.Do(key, func() (any, error) {
		v, err := fetch()
		if err != nil {
			return nil, err
		}
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encoding cache entry: %w", err)
		}
		if err := c.store.Set(ctx, key, b, c.ttl); err != nil {
			c.log.Warn("recipe cache: set %s: %v", key, err)
		}
		return v, nil
	})
	if shared {
		c.log.Debug("recipe cache: shared upstream call for %s", key)
	}
	return v, err
}

func normalizeQuery(q string) string {
	return strings.TrimSpace(strings.ToLower(q))
}
