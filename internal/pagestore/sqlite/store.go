// Package sqlite persists page documents in a single SQLite table, one row
// per page, with the document encoded as JSON.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/specialistvlad/pagegrid/internal/ctxlog"
	"github.com/specialistvlad/pagegrid/internal/page"
	_ "modernc.org/sqlite" // pure go sqlite driver
)

const schemaSQL = `CREATE TABLE IF NOT EXISTS pages (
	id      TEXT PRIMARY KEY,
	version INTEGER NOT NULL,
	payload BLOB NOT NULL
)`

// Store is a page.Store backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open opens or creates the database at path. ":memory:" gives a private
// in-memory database.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("sqlite: empty database path")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serialises
	// writers the way SQLite wants anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create pages table: %w", err)
	}
	ctxlog.FromContext(ctx).Debug("Opened SQLite page store", "path", path)
	return &Store{db: db, path: path, now: func() time.Time { return time.Now().UTC() }}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }

// Get returns the stored document.
func (s *Store) Get(ctx context.Context, id string) (*page.Document, error) {
	var (
		version int64
		payload []byte
	)
	err := s.db.QueryRowContext(ctx, `SELECT version, payload FROM pages WHERE id = ?`, id).Scan(&version, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("page %q: %w", id, page.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("select page %q: %w", id, err)
	}

	var doc page.Document
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, fmt.Errorf("decode page %q: %w", id, err)
	}
	doc.Version = version
	return &doc, nil
}

// Save stores doc if the stored version equals expectedVersion.
func (s *Store) Save(ctx context.Context, doc *page.Document, expectedVersion int64) (*page.Document, error) {
	next := doc.Clone()
	next.Version = expectedVersion + 1
	next.UpdatedAt = s.now()

	payload, err := json.Marshal(next)
	if err != nil {
		return nil, fmt.Errorf("encode page %q: %w", next.ID, err)
	}

	if expectedVersion == 0 {
		res, err := s.db.ExecContext(ctx,
			`INSERT INTO pages(id, version, payload) VALUES(?, ?, ?) ON CONFLICT(id) DO NOTHING`,
			next.ID, next.Version, payload)
		if err != nil {
			return nil, fmt.Errorf("insert page %q: %w", next.ID, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil, fmt.Errorf("page %q already exists: %w", next.ID, page.ErrVersionConflict)
		}
		return next, nil
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE pages SET version = ?, payload = ? WHERE id = ? AND version = ?`,
		next.Version, payload, next.ID, expectedVersion)
	if err != nil {
		return nil, fmt.Errorf("update page %q: %w", next.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 1 {
		return next, nil
	}

	var exists int
	err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pages WHERE id = ?`, next.ID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("check page %q: %w", next.ID, err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("page %q: %w", next.ID, page.ErrNotFound)
	}
	return nil, fmt.Errorf("page %q is not at version %d: %w", next.ID, expectedVersion, page.ErrVersionConflict)
}

// List returns the ids of all stored documents in ascending order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM pages ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("select pages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

var _ page.Store = (*Store)(nil)
