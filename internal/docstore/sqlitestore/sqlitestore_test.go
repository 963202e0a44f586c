package sqlitestore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/splitledger/internal/docstore"
	"github.com/cleared-dev/splitledger/internal/docstore/docstoretest"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestContract(t *testing.T) {
	docstoretest.Run(t, func(t *testing.T) docstore.Store[docstoretest.Doc] {
		return New[docstoretest.Doc](openTestDB(t), "doc")
	})
}

func TestKindsArePartitioned(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	a := New[docstoretest.Doc](db, "a")
	b := New[docstoretest.Doc](db, "b")

	_, err := a.Create(ctx, "x", docstoretest.Doc{Name: "from a"})
	require.NoError(t, err)
	_, err = b.Find(ctx, "x")
	assert.ErrorIs(t, err, docstore.ErrNotFound)
	_, err = b.Create(ctx, "x", docstoretest.Doc{Name: "from b"})
	require.NoError(t, err)

	h, err := a.Find(ctx, "x")
	require.NoError(t, err)
	doc, err := h.Doc(ctx)
	require.NoError(t, err)
	assert.Equal(t, "from a", doc.Name)
}

func TestReopenKeepsDocuments(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "ledger.db")

	db, err := Open(path)
	require.NoError(t, err)
	_, err = New[docstoretest.Doc](db, "doc").Create(ctx, "keep", docstoretest.Doc{Count: 9})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	defer db.Close()
	h, err := New[docstoretest.Doc](db, "doc").Find(ctx, "keep")
	require.NoError(t, err)
	doc, err := h.Doc(ctx)
	require.NoError(t, err)
	assert.Equal(t, 9, doc.Count)
}
