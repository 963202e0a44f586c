// Package docstoretest checks that a docstore.Store implementation honours
// the docstore contract.
package docstoretest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/splitledger/internal/docstore"
)

// Doc is the document type the checks store.
type Doc struct {
	Name  string         `json:"name"`
	Count int            `json:"count"`
	Tags  []string       `json:"tags,omitempty"`
	Meta  map[string]int `json:"meta,omitempty"`
}

// Run exercises a fresh store returned by newStore.
func Run(t *testing.T, newStore func(t *testing.T) docstore.Store[Doc]) {
	ctx := context.Background()

	t.Run("create and find", func(t *testing.T) {
		s := newStore(t)
		h, err := s.Create(ctx, "a", Doc{Name: "first", Tags: []string{"x"}})
		require.NoError(t, err)
		assert.Equal(t, "a", h.ID())

		found, err := s.Find(ctx, "a")
		require.NoError(t, err)
		doc, err := found.Doc(ctx)
		require.NoError(t, err)
		assert.Equal(t, Doc{Name: "first", Tags: []string{"x"}}, doc)
	})

	t.Run("duplicate create", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Create(ctx, "a", Doc{})
		require.NoError(t, err)
		_, err = s.Create(ctx, "a", Doc{Name: "again"})
		assert.ErrorIs(t, err, docstore.ErrExists)
	})

	t.Run("missing", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Find(ctx, "nope")
		assert.ErrorIs(t, err, docstore.ErrNotFound)
	})

	t.Run("change persists", func(t *testing.T) {
		s := newStore(t)
		h, err := s.Create(ctx, "a", Doc{Name: "first"})
		require.NoError(t, err)

		require.NoError(t, h.Change(ctx, func(d *Doc) error {
			d.Count = 3
			d.Meta = map[string]int{"k": 1}
			return nil
		}))

		again, err := s.Find(ctx, "a")
		require.NoError(t, err)
		doc, err := again.Doc(ctx)
		require.NoError(t, err)
		assert.Equal(t, Doc{Name: "first", Count: 3, Meta: map[string]int{"k": 1}}, doc)
	})

	t.Run("failed change is discarded", func(t *testing.T) {
		s := newStore(t)
		h, err := s.Create(ctx, "a", Doc{Name: "first"})
		require.NoError(t, err)

		boom := errors.New("boom")
		err = h.Change(ctx, func(d *Doc) error {
			d.Name = "changed"
			return boom
		})
		assert.ErrorIs(t, err, boom)

		doc, err := h.Doc(ctx)
		require.NoError(t, err)
		assert.Equal(t, "first", doc.Name)
	})

	t.Run("snapshots are independent", func(t *testing.T) {
		s := newStore(t)
		h, err := s.Create(ctx, "a", Doc{Tags: []string{"x"}})
		require.NoError(t, err)

		doc, err := h.Doc(ctx)
		require.NoError(t, err)
		doc.Tags[0] = "mutated"

		again, err := h.Doc(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"x"}, again.Tags)
	})

	t.Run("concurrent changes", func(t *testing.T) {
		s := newStore(t)
		h, err := s.Create(ctx, "counter", Doc{})
		require.NoError(t, err)

		var wg sync.WaitGroup
		for range 20 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.NoError(t, h.Change(ctx, func(d *Doc) error {
					d.Count++
					return nil
				}))
			}()
		}
		wg.Wait()

		doc, err := h.Doc(ctx)
		require.NoError(t, err)
		assert.Equal(t, 20, doc.Count)
	})

	t.Run("many documents", func(t *testing.T) {
		s := newStore(t)
		for i := range 10 {
			_, err := s.Create(ctx, fmt.Sprintf("doc-%02d", i), Doc{Count: i})
			require.NoError(t, err)
		}
		h, err := s.Find(ctx, "doc-07")
		require.NoError(t, err)
		doc, err := h.Doc(ctx)
		require.NoError(t, err)
		assert.Equal(t, 7, doc.Count)
	})
}
