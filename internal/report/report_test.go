package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/splitledger/internal/balance"
	"github.com/cleared-dev/splitledger/internal/model"
	"github.com/cleared-dev/splitledger/internal/money"
	"github.com/cleared-dev/splitledger/internal/split"
)

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func testParty() model.Party {
	return model.Party{
		ID:       "trip",
		Name:     "Lisbon",
		Currency: "EUR",
		Participants: map[string]model.Participant{
			"alice": {ID: "alice", Name: "Alice"},
			"bob":   {ID: "bob", Name: "Bob"},
			"carol": {ID: "carol", Name: "Carol", Archived: true},
		},
	}
}

func testBalances() map[string]model.Balance {
	diffs := func(kv ...any) map[string]model.Diff {
		out := make(map[string]model.Diff)
		for i := 0; i < len(kv); i += 2 {
			out[kv[i].(string)] = model.Diff{DiffUnsplit: money.Money(kv[i+1].(int))}
		}
		return out
	}
	// Merge fills in the visual ratios.
	return balance.Merge(map[string]model.Balance{
		"alice": {OwedToUser: 1020, UserOwes: 500, Balance: 520, Diffs: diffs("bob", 10, "carol", 510)},
		"bob":   {OwedToUser: 1000, UserOwes: 510, Balance: 490, Diffs: diffs("alice", -10, "carol", 500)},
		"carol": {OwedToUser: 0, UserOwes: 1010, Balance: -1010, Diffs: diffs("alice", -510, "bob", -500)},
	})
}

func dinner() model.Expense {
	return model.Expense{
		ID:        "01JX0000000000000000000001@c1",
		Name:      "Dinner",
		Timestamp: time.Date(2026, 6, 1, 20, 0, 0, 0, time.UTC),
		PaidBy:    map[string]money.Money{"alice": 600, "bob": 300},
		Shares: map[string]model.ShareSpec{
			"alice": model.Exact(300),
			"bob":   model.DivideInt(1),
			"carol": model.DivideInt(2),
		},
		Hash:        "5d41402abc4b2a76b9719d911017c592",
		Attachments: []string{"receipt.jpg"},
	}
}

func TestWriteBalances(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(testParty()).WriteBalances(&buf, testBalances()))
	newGoldie(t).Assert(t, "balances", buf.Bytes())
}

func TestWriteReimbursements(t *testing.T) {
	f := NewFormatter(testParty())

	var buf bytes.Buffer
	require.NoError(t, f.WriteReimbursements(&buf, balance.Reimbursements(testBalances())))
	newGoldie(t).Assert(t, "reimbursements", buf.Bytes())

	buf.Reset()
	require.NoError(t, f.WriteReimbursements(&buf, nil))
	assert.Equal(t, "All settled.\n", buf.String())
}

func TestWriteBalancesJSON(t *testing.T) {
	var buf bytes.Buffer
	b := testBalances()
	require.NoError(t, NewFormatter(testParty()).WriteBalancesJSON(&buf, b, balance.Reimbursements(b)))
	newGoldie(t).Assert(t, "balances_json", buf.Bytes())
}

func TestWriteExpenses(t *testing.T) {
	expenses := []model.Expense{
		{
			ID:        "01JX0000000000000000000003@c1",
			Name:      "Settle up",
			Timestamp: time.Date(2026, 6, 2, 18, 0, 0, 0, time.UTC),
			PaidBy:    map[string]money.Money{"carol": 500},
			Shares:    map[string]model.ShareSpec{"alice": model.Exact(500)},
			Transfer:  true,
		},
		{
			ID:        "01JX0000000000000000000002@c1",
			Name:      "Taxi",
			Timestamp: time.Date(2026, 6, 2, 8, 0, 0, 0, time.UTC),
			PaidBy:    map[string]money.Money{"bob": 1200},
			Shares:    map[string]model.ShareSpec{"alice": model.DivideInt(1), "bob": model.DivideInt(1)},
		},
		dinner(),
	}

	f := NewFormatter(testParty())
	var buf bytes.Buffer
	require.NoError(t, f.WriteExpenses(&buf, expenses))
	newGoldie(t).Assert(t, "expenses", buf.Bytes())

	buf.Reset()
	require.NoError(t, f.WriteExpenses(&buf, nil))
	assert.Equal(t, "No expenses.\n", buf.String())
}

func TestWriteExpense(t *testing.T) {
	e := dinner()
	rows, diags := split.ResolveExpense(e)
	require.Empty(t, diags)

	var buf bytes.Buffer
	require.NoError(t, NewFormatter(testParty()).WriteExpense(&buf, e, rows, diags))
	newGoldie(t).Assert(t, "expense", buf.Bytes())
}

func TestWriteExpense_Warnings(t *testing.T) {
	e := dinner()
	e.Shares = map[string]model.ShareSpec{"alice": model.Exact(100)}
	rows, diags := split.ResolveExpense(e)
	require.Len(t, diags, 1)

	var buf bytes.Buffer
	require.NoError(t, NewFormatter(testParty()).WriteExpense(&buf, e, rows, diags))
	assert.Contains(t, buf.String(), "Warnings:\n  exact_residual: exact shares sum to 100 but the total is 900\n")
}

func TestFormatter(t *testing.T) {
	f := NewFormatter(model.Party{Currency: "JPY", Participants: map[string]model.Participant{"a": {ID: "a"}}})
	assert.Equal(t, "1250", f.Amount(1250))
	assert.Equal(t, "+5", f.Signed(5))
	assert.Equal(t, "-5", f.Signed(-5))
	assert.Equal(t, "0", f.Signed(0))
	assert.Equal(t, "a", f.Name("a"))
	assert.Equal(t, "zed", f.Name("zed"))
}
