// Package pagetest holds a conformance suite shared by page.Store
// implementations.
package pagetest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/specialistvlad/pagegrid/internal/page"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDoc(id string) *page.Document {
	return &page.Document{
		ID:    id,
		Title: "Home",
		Instances: []page.Instance{
			{ID: "i-1", OrganismID: "hero-section", Visible: true, Config: json.RawMessage(`{"title":"Welcome"}`)},
		},
	}
}

// RunStoreTests exercises a page.Store implementation. newStore must return
// an empty store.
func RunStoreTests(t *testing.T, newStore func(t *testing.T) page.Store) {
	t.Run("Get missing page", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Get(context.Background(), "home")
		require.ErrorIs(t, err, page.ErrNotFound)
	})

	t.Run("Create then get", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		saved, err := s.Save(ctx, sampleDoc("home"), 0)
		require.NoError(t, err)
		assert.Equal(t, int64(1), saved.Version)
		assert.False(t, saved.UpdatedAt.IsZero())

		got, err := s.Get(ctx, "home")
		require.NoError(t, err)
		if diff := cmp.Diff(saved, got, cmpopts.EquateApproxTime(0)); diff != "" {
			t.Errorf("stored document mismatch (-saved +got):\n%s", diff)
		}
		assert.JSONEq(t, `{"title":"Welcome"}`, string(got.Instances[0].Config))
	})

	t.Run("Create twice conflicts", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		_, err := s.Save(ctx, sampleDoc("home"), 0)
		require.NoError(t, err)
		_, err = s.Save(ctx, sampleDoc("home"), 0)
		require.ErrorIs(t, err, page.ErrVersionConflict)
	})

	t.Run("Update with stale version conflicts and keeps the stored document", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		_, err := s.Save(ctx, sampleDoc("home"), 0)
		require.NoError(t, err)

		next := sampleDoc("home")
		next.Title = "Updated"
		saved, err := s.Save(ctx, next, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(2), saved.Version)

		stale := sampleDoc("home")
		stale.Title = "Stale"
		_, err = s.Save(ctx, stale, 1)
		require.ErrorIs(t, err, page.ErrVersionConflict)

		got, err := s.Get(ctx, "home")
		require.NoError(t, err)
		assert.Equal(t, "Updated", got.Title)
		assert.Equal(t, int64(2), got.Version)
	})

	t.Run("Update of a missing page", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Save(context.Background(), sampleDoc("home"), 3)
		require.ErrorIs(t, err, page.ErrNotFound)
	})

	t.Run("Returned documents are copies", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		_, err := s.Save(ctx, sampleDoc("home"), 0)
		require.NoError(t, err)

		got, err := s.Get(ctx, "home")
		require.NoError(t, err)
		got.Instances[0].OrganismID = "mutated"

		again, err := s.Get(ctx, "home")
		require.NoError(t, err)
		assert.Equal(t, "hero-section", again.Instances[0].OrganismID)
	})

	t.Run("List is sorted", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		for _, id := range []string{"menu", "about", "home"} {
			_, err := s.Save(ctx, sampleDoc(id), 0)
			require.NoError(t, err)
		}
		ids, err := s.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"about", "home", "menu"}, ids)
	})

	t.Run("Concurrent updates have exactly one winner per version", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		_, err := s.Save(ctx, sampleDoc("home"), 0)
		require.NoError(t, err)

		const writers = 8
		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			wins int
		)
		for i := range writers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				doc := sampleDoc("home")
				doc.Title = fmt.Sprintf("writer %d", i)
				if _, err := s.Save(ctx, doc, 1); err == nil {
					mu.Lock()
					wins++
					mu.Unlock()
				} else {
					assert.ErrorIs(t, err, page.ErrVersionConflict)
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, 1, wins)

		got, err := s.Get(ctx, "home")
		require.NoError(t, err)
		assert.Equal(t, int64(2), got.Version)
	})
}
