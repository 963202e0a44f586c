package ledger

import (
	"context"
	"math/rand"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/splitledger/internal/chunk"
	"github.com/cleared-dev/splitledger/internal/docstore"
	"github.com/cleared-dev/splitledger/internal/docstore/memstore"
	"github.com/cleared-dev/splitledger/internal/docstore/sqlitestore"
	"github.com/cleared-dev/splitledger/internal/id"
	"github.com/cleared-dev/splitledger/internal/journal"
	"github.com/cleared-dev/splitledger/internal/model"
	"github.com/cleared-dev/splitledger/internal/money"
	"github.com/cleared-dev/splitledger/internal/split"
)

var t0 = time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

type stores struct {
	parties docstore.Store[model.Party]
	chunks  docstore.Store[model.Chunk]
}

func memStores(t *testing.T) stores {
	return stores{memstore.New[model.Party](), memstore.New[model.Chunk]()}
}

func fileStores(t *testing.T) stores {
	root := t.TempDir()
	return stores{journal.NewPartyStore(root), journal.NewChunkStore(root)}
}

func sqliteStores(t *testing.T) stores {
	db, err := sqlitestore.Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return stores{sqlitestore.New[model.Party](db, "party"), sqlitestore.New[model.Chunk](db, "chunk")}
}

// newTestService returns a service over a party of alice, bob and carol
// whose chunks hold maxSize expenses.
func newTestService(t *testing.T, st stores, maxSize int) *Service {
	t.Helper()
	clock := t0
	now := func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	s := NewService("trip", st.parties, st.chunks,
		WithClock(now),
		WithGenerator(id.NewGenerator(rand.New(rand.NewSource(1))).WithClock(now)),
		WithManager(chunk.NewManager(st.chunks, maxSize).WithClock(now)),
		WithWorkers(2),
	)
	_, err := s.CreateParty(context.Background(), "Lisbon", "eur", []model.Participant{
		{ID: "alice", Name: "Alice"},
		{ID: "bob", Name: "Bob"},
		{ID: "carol", Name: "Carol"},
	})
	require.NoError(t, err)
	return s
}

func evenSplit(payer string, amount money.Money, name string) AddExpenseParams {
	return AddExpenseParams{
		Name:   name,
		PaidBy: map[string]money.Money{payer: amount},
		Shares: map[string]model.ShareSpec{
			"alice": model.DivideInt(1),
			"bob":   model.DivideInt(1),
			"carol": model.DivideInt(1),
		},
	}
}

func TestService_Backends(t *testing.T) {
	backends := map[string]func(*testing.T) stores{
		"memory": memStores,
		"files":  fileStores,
		"sqlite": sqliteStores,
	}
	for name, open := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newTestService(t, open(t), 2)

			var added []model.Expense
			for i, amt := range []money.Money{900, 300, 600, 1200, 30} {
				e, err := s.AddExpense(ctx, evenSplit([]string{"alice", "bob"}[i%2], amt, "expense"))
				require.NoError(t, err)
				added = append(added, e)
			}

			p, err := s.Party(ctx)
			require.NoError(t, err)
			assert.Len(t, p.Chunks, 3)

			for _, e := range added {
				got, err := s.FindExpense(ctx, e.ID)
				require.NoError(t, err)
				assert.Equal(t, e, got)
			}

			all, err := s.Expenses(ctx)
			require.NoError(t, err)
			require.Len(t, all, 5)
			for i := range all {
				assert.Equal(t, added[len(added)-1-i].ID, all[i].ID)
			}

			balances, diags, err := s.Balances(ctx)
			require.NoError(t, err)
			assert.Empty(t, diags)
			// alice paid 900+600+30, bob 300+1200; everyone owes a third of 3030.
			assert.Equal(t, money.Money(1530-1010), balances["alice"].Balance)
			assert.Equal(t, money.Money(1500-1010), balances["bob"].Balance)
			assert.Equal(t, money.Money(-1010), balances["carol"].Balance)
		})
	}
}

func TestAddExpense_AssignsIDAndHash(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, memStores(t), 10)

	at := time.Date(2026, 5, 30, 19, 0, 0, 0, time.FixedZone("WEST", 3600))
	params := evenSplit("alice", 900, "  Dinner ")
	params.At = at
	e, err := s.AddExpense(ctx, params)
	require.NoError(t, err)

	parts, err := id.Decode(e.ID)
	require.NoError(t, err)
	p, err := s.Party(ctx)
	require.NoError(t, err)
	assert.Equal(t, p.Chunks[0].ID, parts.ChunkID)

	created, err := id.Time(parts.LocalID)
	require.NoError(t, err)
	assert.True(t, created.Equal(at))

	assert.Equal(t, "Dinner", e.Name)
	assert.Equal(t, time.UTC, e.Timestamp.Location())
	want, err := model.ContentHash(e)
	require.NoError(t, err)
	assert.Equal(t, want, e.Hash)
}

func TestAddExpense_AttachmentsOnDisk(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, fileStores(t), 10)

	params := evenSplit("alice", 900, "Scan")
	params.Attachments = []string{"data:image/png;base64,AAA", "receipt.jpg"}
	e, err := s.AddExpense(ctx, params)
	require.NoError(t, err)

	got, err := s.FindExpense(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, params.Attachments, got.Attachments)
	hash, err := model.ContentHash(got)
	require.NoError(t, err)
	assert.Equal(t, got.Hash, hash)

	params.Attachments = []string{""}
	_, err = s.AddExpense(ctx, params)
	assert.ErrorIs(t, err, ErrInvalidExpense)
}

func TestAddExpense_Invalid(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, memStores(t), 10)

	_, err := s.AddExpense(ctx, AddExpenseParams{
		Name:   "Nope",
		PaidBy: map[string]money.Money{"dave": 100},
		Shares: map[string]model.ShareSpec{"alice": model.DivideInt(1)},
	})
	assert.ErrorIs(t, err, ErrInvalidExpense)
	assert.Contains(t, err.Error(), `"dave" is not a participant`)

	p, err := s.Party(ctx)
	require.NoError(t, err)
	assert.Empty(t, p.Chunks, "nothing written")
}

func TestAddExpense_ArchivedParticipant(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, memStores(t), 10)

	e, err := s.AddExpense(ctx, evenSplit("carol", 300, "Taxi"))
	require.NoError(t, err)
	require.NoError(t, s.ArchiveParticipant(ctx, "carol"))

	_, err = s.AddExpense(ctx, evenSplit("alice", 300, "Coffee"))
	assert.ErrorIs(t, err, ErrInvalidExpense)

	// Editing the old expense keeps carol on it.
	e.Name = "Taxi to airport"
	replaced, err := s.ReplaceExpense(ctx, e)
	require.NoError(t, err)
	assert.Equal(t, "Taxi to airport", replaced.Name)
	assert.NotEqual(t, e.Hash, replaced.Hash)

	balances, _, err := s.Balances(ctx)
	require.NoError(t, err)
	assert.Equal(t, money.Money(200), balances["carol"].Balance)
}

func TestParticipants(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, memStores(t), 10)

	require.NoError(t, s.AddParticipant(ctx, model.Participant{ID: "dave", Name: "Dave"}))
	assert.ErrorIs(t, s.AddParticipant(ctx, model.Participant{ID: "dave"}), model.ErrDuplicateParticipant)
	assert.Error(t, s.AddParticipant(ctx, model.Participant{ID: "e=f"}))
	assert.ErrorIs(t, s.ArchiveParticipant(ctx, "zoe"), model.ErrUnknownParticipant)

	p, err := s.Party(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob", "carol", "dave"}, p.ParticipantIDs())
	assert.Equal(t, "EUR", p.Currency)

	balances, _, err := s.Balances(ctx)
	require.NoError(t, err)
	assert.Len(t, balances, 4)
	assert.Zero(t, balances["dave"].VisualRatio)
}

func TestCreateParty_Twice(t *testing.T) {
	s := newTestService(t, memStores(t), 10)
	_, err := s.CreateParty(context.Background(), "Again", "EUR", nil)
	assert.ErrorIs(t, err, docstore.ErrExists)
}

func TestMissingParty(t *testing.T) {
	ctx := context.Background()
	s := NewService("ghost", memstore.New[model.Party](), memstore.New[model.Chunk]())

	_, err := s.Party(ctx)
	assert.ErrorIs(t, err, ErrPartyNotFound)
	_, err = s.AddExpense(ctx, evenSplit("alice", 1, "x"))
	assert.ErrorIs(t, err, ErrPartyNotFound)
	_, _, err = s.Balances(ctx)
	assert.ErrorIs(t, err, ErrPartyNotFound)
}

func TestFindExpense_Errors(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, memStores(t), 10)
	e, err := s.AddExpense(ctx, evenSplit("alice", 300, "Lunch"))
	require.NoError(t, err)

	_, err = s.FindExpense(ctx, "not-an-id")
	assert.ErrorIs(t, err, id.ErrMalformedIdentifier)

	_, err = s.FindExpense(ctx, id.Join(id.LocalPart(e.ID), "no-such-chunk"))
	assert.ErrorIs(t, err, ErrExpenseNotFound)

	other, err := id.NewGenerator(nil).Encode(id.MustDecode(e.ID).ChunkID, t0.Add(time.Hour))
	require.NoError(t, err)
	_, err = s.FindExpense(ctx, other)
	assert.ErrorIs(t, err, ErrExpenseNotFound)
}

func TestDeleteExpense(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, memStores(t), 10)
	keep, err := s.AddExpense(ctx, evenSplit("alice", 300, "Lunch"))
	require.NoError(t, err)
	gone, err := s.AddExpense(ctx, evenSplit("bob", 600, "Dinner"))
	require.NoError(t, err)

	require.NoError(t, s.DeleteExpense(ctx, gone.ID))
	assert.ErrorIs(t, s.DeleteExpense(ctx, gone.ID), ErrExpenseNotFound)
	_, err = s.FindExpense(ctx, gone.ID)
	assert.ErrorIs(t, err, ErrExpenseNotFound)

	all, err := s.Expenses(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, keep.ID, all[0].ID)
}

func TestReplaceExpense_Invalid(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, memStores(t), 10)
	e, err := s.AddExpense(ctx, evenSplit("alice", 300, "Lunch"))
	require.NoError(t, err)

	bad := e
	bad.PaidBy = map[string]money.Money{"alice": -5}
	_, err = s.ReplaceExpense(ctx, bad)
	assert.ErrorIs(t, err, ErrInvalidExpense)

	got, err := s.FindExpense(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, e, got)
}

func TestExpenses_BackdatedSortsAcrossChunks(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, memStores(t), 1)

	recent, err := s.AddExpense(ctx, evenSplit("alice", 300, "Recent"))
	require.NoError(t, err)
	params := evenSplit("bob", 300, "Old")
	params.At = t0.Add(-24 * time.Hour)
	old, err := s.AddExpense(ctx, params)
	require.NoError(t, err)

	all, err := s.Expenses(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, recent.ID, all[0].ID)
	assert.Equal(t, old.ID, all[1].ID)
}

func TestResolveExpense(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, memStores(t), 10)
	e, err := s.AddExpense(ctx, AddExpenseParams{
		Name:   "Groceries",
		PaidBy: map[string]money.Money{"alice": 1000},
		Shares: map[string]model.ShareSpec{
			"alice": model.Exact(800),
			"bob":   model.DivideInt(1),
			"carol": model.DivideInt(1),
		},
	})
	require.NoError(t, err)

	rows, diags, err := s.ResolveExpense(ctx, e.ID)
	require.NoError(t, err)
	assert.Empty(t, diags)
	require.Len(t, rows, 1)
	assert.Equal(t, map[string]money.Money{"alice": 800, "bob": 100, "carol": 100}, rows[0].PaidFor)
}

func TestBalances_ReportsDiagnostics(t *testing.T) {
	ctx := context.Background()
	st := memStores(t)
	s := newTestService(t, st, 10)
	e, err := s.AddExpense(ctx, evenSplit("alice", 300, "Lunch"))
	require.NoError(t, err)

	// Write an expense the validator would refuse straight into the chunk.
	h, err := st.chunks.Find(ctx, id.MustDecode(e.ID).ChunkID)
	require.NoError(t, err)
	require.NoError(t, h.Change(ctx, func(c *model.Chunk) error {
		c.Expenses[0].PaidBy = nil
		return nil
	}))

	_, diags, err := s.Balances(ctx)
	require.NoError(t, err)
	require.Len(t, diags, 1)
	assert.Equal(t, split.CodeNoPayer, diags[0].Code)
	assert.Equal(t, e.ID, diags[0].ExpenseID)
}
