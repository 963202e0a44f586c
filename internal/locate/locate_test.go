package locate

import (
	"math/rand"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/splitledger/internal/id"
	"github.com/cleared-dev/splitledger/internal/model"
)

const chunkID = "6f1c9a52-2b8e-4d4e-9a57-0c3e1c7f4a10"

// newestFirst returns n expenses with increasing creation times, reversed.
func newestFirst(t *testing.T, n int) []model.Expense {
	t.Helper()
	gen := id.NewGenerator(rand.New(rand.NewSource(1)))
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	out := make([]model.Expense, n)
	for i := range n {
		eid, err := gen.Encode(chunkID, start.Add(time.Duration(i)*time.Second))
		require.NoError(t, err)
		out[i] = model.Expense{ID: eid, Name: eid}
	}
	slices.Reverse(out)
	return out
}

func TestFindByID(t *testing.T) {
	for _, n := range []int{1, 2, 500} {
		expenses := newestFirst(t, n)
		positions := []int{0, n - 1, n / 2, rand.New(rand.NewSource(int64(n))).Intn(n)}
		for _, pos := range positions {
			e, i, err := FindByID(expenses, expenses[pos].ID)
			require.NoError(t, err)
			require.NotNil(t, e, "n=%d pos=%d", n, pos)
			assert.Equal(t, pos, i)
			assert.Same(t, &expenses[pos], e)
		}
	}
}

func TestFindByID_EveryPosition(t *testing.T) {
	expenses := newestFirst(t, 37)
	for pos := range expenses {
		_, i, err := FindByID(expenses, expenses[pos].ID)
		require.NoError(t, err)
		assert.Equal(t, pos, i)
	}
}

func TestFindByID_Absent(t *testing.T) {
	gen := id.NewGenerator(rand.New(rand.NewSource(2)))
	for _, n := range []int{0, 1, 2, 500} {
		expenses := newestFirst(t, n)
		for _, at := range []time.Time{
			time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 3, 1, 12, 0, 0, 500, time.UTC).Add(time.Hour),
			time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
		} {
			missing, err := gen.Encode(chunkID, at)
			require.NoError(t, err)
			e, i, err := FindByID(expenses, missing)
			require.NoError(t, err)
			assert.Nil(t, e)
			assert.Equal(t, -1, i)
		}
	}
}

func TestFindByID_Malformed(t *testing.T) {
	expenses := newestFirst(t, 3)
	for _, bad := range []string{"", "no-separator", "@chunk", "local@"} {
		e, i, err := FindByID(expenses, bad)
		assert.ErrorIs(t, err, id.ErrMalformedIdentifier, bad)
		assert.Nil(t, e)
		assert.Equal(t, -1, i)
	}
}

func TestFindByLocalID(t *testing.T) {
	expenses := newestFirst(t, 10)
	e, i := FindByLocalID(expenses, id.LocalPart(expenses[3].ID))
	require.NotNil(t, e)
	assert.Equal(t, 3, i)

	e, i = FindByLocalID(expenses, "")
	assert.Nil(t, e)
	assert.Equal(t, -1, i)
}
