package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hammamikhairi/souschef/internal/domain"
	"github.com/hammamikhairi/souschef/internal/logger"
)

// dateLayout is how expiry dates are stored.
const dateLayout = "2006-01-02"

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS pantry_items (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		quantity   TEXT NOT NULL DEFAULT '',
		unit       TEXT NOT NULL DEFAULT '',
		location   TEXT NOT NULL DEFAULT '',
		expires_on TEXT,
		added_at   TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_pantry_items_expires_on ON pantry_items(expires_on)`,
}

// OpenDB opens a SQLite database at the given path.
// If path is ":memory:", uses an in-memory database.
// Sets WAL mode and runs migrations.
func OpenDB(path string) (*sql.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if path == ":memory:" {
		// Every pooled connection would get its own empty database.
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return db, nil
}

// Compile-time interface check.
var _ domain.PantryStore = (*SQLiteStore)(nil)

// SQLiteStore keeps the pantry in SQLite.
type SQLiteStore struct {
	db  *sql.DB
	log *logger.Logger
}

// NewSQLiteStore wraps an open database. Call OpenDB first.
func NewSQLiteStore(db *sql.DB, log *logger.Logger) *SQLiteStore {
	return &SQLiteStore{db: db, log: log}
}

// Add inserts or replaces an item.
func (s *SQLiteStore) Add(ctx context.Context, item *domain.PantryItem) error {
	if err := prepare(item, time.Now()); err != nil {
		return err
	}

	query := `INSERT OR REPLACE INTO pantry_items (id, name, quantity, unit, location, expires_on, added_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		item.ID,
		item.Name,
		item.Quantity,
		item.Unit,
		item.Location,
		nullableDate(item.ExpiresOn),
		item.AddedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting pantry item: %w", err)
	}
	s.log.Debug("pantry: added %s (%s)", item.Name, item.ID)
	return nil
}

// List returns all items ordered by expiry date, undated last.
func (s *SQLiteStore) List(ctx context.Context) ([]*domain.PantryItem, error) {
	query := `SELECT id, name, quantity, unit, location, expires_on, added_at
		FROM pantry_items
		ORDER BY expires_on IS NULL, expires_on, name`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing pantry items: %w", err)
	}
	defer rows.Close()

	var out []*domain.PantryItem
	for rows.Next() {
		var (
			it       domain.PantryItem
			expires  sql.NullString
			addedRaw string
		)
		if err := rows.Scan(&it.ID, &it.Name, &it.Quantity, &it.Unit, &it.Location, &expires, &addedRaw); err != nil {
			return nil, fmt.Errorf("scanning pantry item: %w", err)
		}
		if expires.Valid && expires.String != "" {
			if it.ExpiresOn, err = time.Parse(dateLayout, expires.String); err != nil {
				return nil, fmt.Errorf("pantry item %s: parsing expires_on: %w", it.ID, err)
			}
		}
		if it.AddedAt, err = time.Parse(time.RFC3339, addedRaw); err != nil {
			return nil, fmt.Errorf("pantry item %s: parsing added_at: %w", it.ID, err)
		}
		out = append(out, &it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating pantry items: %w", err)
	}
	return out, nil
}

// Delete removes an item by ID.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM pantry_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting pantry item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting pantry item: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("pantry item %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func nullableDate(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.Format(dateLayout)
}
