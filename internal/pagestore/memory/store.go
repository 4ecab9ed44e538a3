package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/specialistvlad/pagegrid/internal/page"
)

// Store is an in-memory implementation of page.Store.
type Store struct {
	docs sync.Map // Key: page id, Value: *page.Document (never mutated once stored)
	now  func() time.Time
}

// New creates a new, empty in-memory page store.
func New() *Store {
	return &Store{now: func() time.Time { return time.Now().UTC() }}
}

// Get returns a copy of the stored document.
func (s *Store) Get(ctx context.Context, id string) (*page.Document, error) {
	v, ok := s.docs.Load(id)
	if !ok {
		return nil, fmt.Errorf("page %q: %w", id, page.ErrNotFound)
	}
	return v.(*page.Document).Clone(), nil
}

// Save stores doc if the stored version equals expectedVersion.
func (s *Store) Save(ctx context.Context, doc *page.Document, expectedVersion int64) (*page.Document, error) {
	next := doc.Clone()
	next.Version = expectedVersion + 1
	next.UpdatedAt = s.now()

	if expectedVersion == 0 {
		if _, loaded := s.docs.LoadOrStore(next.ID, next); loaded {
			return nil, fmt.Errorf("page %q already exists: %w", next.ID, page.ErrVersionConflict)
		}
		return next.Clone(), nil
	}

	current, ok := s.docs.Load(next.ID)
	if !ok {
		return nil, fmt.Errorf("page %q: %w", next.ID, page.ErrNotFound)
	}
	if v := current.(*page.Document).Version; v != expectedVersion {
		return nil, fmt.Errorf("page %q is at version %d, not %d: %w", next.ID, v, expectedVersion, page.ErrVersionConflict)
	}
	if !s.docs.CompareAndSwap(next.ID, current, next) {
		return nil, fmt.Errorf("page %q changed concurrently: %w", next.ID, page.ErrVersionConflict)
	}
	return next.Clone(), nil
}

// List returns the ids of all stored documents in ascending order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	var ids []string
	s.docs.Range(func(key, _ any) bool {
		ids = append(ids, key.(string))
		return true
	})
	sort.Strings(ids)
	return ids, nil
}

var _ page.Store = (*Store)(nil)
