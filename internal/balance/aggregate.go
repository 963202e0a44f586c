// Package balance derives participant balances from expenses.
//
// Balances are never stored. They are recomputed from the full expense set,
// or merged from balances computed over disjoint parts of it; both paths
// give identical results.
package balance

import (
	"math"

	"github.com/cleared-dev/splitledger/internal/model"
	"github.com/cleared-dev/splitledger/internal/money"
	"github.com/cleared-dev/splitledger/internal/split"
)

type options struct {
	pairwise    PairwiseFunc
	diagnostics func(split.Diagnostic)
}

// Option configures Aggregate.
type Option func(*options)

// WithPairwise replaces PairwiseStats.
func WithPairwise(fn PairwiseFunc) Option {
	return func(o *options) { o.pairwise = fn }
}

// WithDiagnostics receives every resolution diagnostic in expense order.
func WithDiagnostics(fn func(split.Diagnostic)) Option {
	return func(o *options) { o.diagnostics = fn }
}

// Aggregate resolves every expense and computes a Balance for each of
// participantIDs.
func Aggregate(expenses []model.Expense, participantIDs []string, opts ...Option) map[string]model.Balance {
	o := options{pairwise: PairwiseStats}
	for _, opt := range opts {
		opt(&o)
	}

	var rows []model.ResolvedDistribution
	for _, e := range expenses {
		resolved, diags := split.ResolveExpense(e)
		rows = append(rows, resolved...)
		if o.diagnostics != nil {
			for _, d := range diags {
				o.diagnostics(d)
			}
		}
	}

	out := make(map[string]model.Balance, len(participantIDs))
	for _, p := range participantIDs {
		st := o.pairwise(p, participantIDs, rows)
		diffs := st.Diffs
		if diffs == nil {
			diffs = make(map[string]model.Diff)
		}
		out[p] = model.Balance{
			UserOwes:   st.UserOwes,
			OwedToUser: st.OwedToUser,
			Diffs:      diffs,
			Balance:    st.OwedToUser.Sub(st.UserOwes),
		}
	}
	setVisualRatios(out)
	return out
}

// Merge adds up balances computed over disjoint expense sets. Participants
// missing from a batch contribute nothing for that batch.
func Merge(batches ...map[string]model.Balance) map[string]model.Balance {
	out := make(map[string]model.Balance)
	for _, batch := range batches {
		for p, b := range batch {
			acc, ok := out[p]
			if !ok {
				acc.Diffs = make(map[string]model.Diff)
			}
			acc.UserOwes = acc.UserOwes.Add(b.UserOwes)
			acc.OwedToUser = acc.OwedToUser.Add(b.OwedToUser)
			acc.Balance = acc.Balance.Add(b.Balance)
			for other, d := range b.Diffs {
				sum := acc.Diffs[other]
				sum.DiffUnsplit = sum.DiffUnsplit.Add(d.DiffUnsplit)
				acc.Diffs[other] = sum
			}
			out[p] = acc
		}
	}
	setVisualRatios(out)
	return out
}

// setVisualRatios scales each balance against the largest absolute balance
// in the set. With no non-zero balance every ratio is zero.
func setVisualRatios(balances map[string]model.Balance) {
	var ref money.Money
	for _, b := range balances {
		if a := b.Balance.Abs(); a > ref {
			ref = a
		}
	}
	for p, b := range balances {
		b.VisualRatio = 0
		if ref != 0 {
			b.VisualRatio = math.Abs(float64(b.Balance.Int64())) / float64(ref.Int64())
		}
		balances[p] = b
	}
}
