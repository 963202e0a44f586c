// Package split turns an expense's payers and share specifications into
// per-payer distribution tables.
//
// Resolution is a pure function of its inputs. Every returned row sums
// exactly to what its payer paid, whatever the mix of exact and divide
// shares, and rounding corrections follow a fixed tie-break so that every
// replica computes the same cents.
package split

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/splitledger/internal/model"
	"github.com/cleared-dev/splitledger/internal/money"
)

// Code classifies a Diagnostic.
type Code string

const (
	// CodeNoPayer: the expense has no payer; it resolves to nothing.
	CodeNoPayer Code = "no_payer"
	// CodeExactExceedsPaid: exact shares take more than was paid, so
	// divide shares end up negative. Reported once for the whole expense
	// when exact shares exceed the total, and once per payer whose own
	// row goes negative.
	CodeExactExceedsPaid Code = "exact_exceeds_paid"
	// CodeExactResidual: there are no divide shares and exact shares do not
	// add up to the total; the difference was spread over the exact shares.
	CodeExactResidual Code = "exact_residual"
	// CodeNoShares: nothing can absorb the payment, so each payer was
	// allocated their own payment.
	CodeNoShares Code = "no_shares"
	// CodeUnknownShareKind: a share had an unrecognized tag and was ignored.
	CodeUnknownShareKind Code = "unknown_share_kind"
)

// Diagnostic reports anomalous input that resolution worked around.
// Resolution never fails; callers decide whether to log, collect or
// ignore diagnostics.
type Diagnostic struct {
	Code        Code
	ExpenseID   string
	Participant string
	Amount      money.Money
	Message     string
}

func (d Diagnostic) String() string {
	s := string(d.Code)
	if d.ExpenseID != "" {
		s += " [" + d.ExpenseID + "]"
	}
	if d.Participant != "" {
		s += " " + d.Participant
	}
	return s + ": " + d.Message
}

// ResolveExpense resolves e and tags diagnostics with its ID.
func ResolveExpense(e model.Expense) ([]model.ResolvedDistribution, []Diagnostic) {
	rows, diags := Resolve(e.PaidBy, e.Shares)
	for i := range diags {
		diags[i].ExpenseID = e.ID
	}
	return rows, diags
}

// Resolve distributes each payer's payment over the shares. Rows come back
// ordered by payer ID.
func Resolve(paidBy map[string]money.Money, shares map[string]model.ShareSpec) ([]model.ResolvedDistribution, []Diagnostic) {
	if len(paidBy) == 0 {
		return nil, []Diagnostic{{
			Code:    CodeNoPayer,
			Message: "expense has no payer",
		}}
	}

	var diags []Diagnostic
	total := money.Sum(mapValues(paidBy)...)

	var exactIDs, divideIDs []string
	var exactSum money.Money
	totalWeight := decimal.Zero
	for _, p := range model.SortedKeys(shares) {
		s := shares[p]
		switch s.Kind {
		case model.ShareExact:
			exactIDs = append(exactIDs, p)
			exactSum = exactSum.Add(s.Amount)
		case model.ShareDivide:
			divideIDs = append(divideIDs, p)
			totalWeight = totalWeight.Add(s.Weight)
		default:
			diags = append(diags, Diagnostic{
				Code:        CodeUnknownShareKind,
				Participant: p,
				Message:     fmt.Sprintf("share kind %q ignored", s.Kind),
			})
		}
	}
	hasWeight := totalWeight.IsPositive()

	switch {
	case !hasWeight && len(exactIDs) == 0:
		diags = append(diags, Diagnostic{
			Code:    CodeNoShares,
			Amount:  total,
			Message: "no share can absorb the payment; payers keep their own cost",
		})
	case hasWeight && exactSum > total:
		diags = append(diags, Diagnostic{
			Code:    CodeExactExceedsPaid,
			Amount:  total.Sub(exactSum),
			Message: fmt.Sprintf("exact shares sum to %s, more than the %s paid", exactSum, total),
		})
	case !hasWeight && !exactSum.Equal(total):
		diags = append(diags, Diagnostic{
			Code:    CodeExactResidual,
			Amount:  total.Sub(exactSum),
			Message: fmt.Sprintf("exact shares sum to %s but the total is %s", exactSum, total),
		})
	}

	payers := model.SortedKeys(paidBy)
	rows := make([]model.ResolvedDistribution, 0, len(payers))

	// What earlier rows allocated to each participant; it breaks ties
	// between equal allocations in later rows.
	carried := make(map[string]money.Money, len(shares))

	for _, payer := range payers {
		paid := paidBy[payer]
		factor := new(big.Rat)
		if !total.IsZero() {
			factor = money.Ratio(paid, total)
		}

		alloc := make(map[string]money.Money, len(shares))
		var allocated money.Money
		for _, p := range exactIDs {
			a := shares[p].Amount.Scale(factor)
			alloc[p] = a
			allocated = allocated.Add(a)
		}

		left := paid.Sub(allocated)

		switch {
		case hasWeight:
			if left.Sign() < 0 {
				diags = append(diags, Diagnostic{
					Code:        CodeExactExceedsPaid,
					Participant: payer,
					Amount:      left,
					Message:     fmt.Sprintf("exact shares take %s of the %s paid", allocated, paid),
				})
			}
			weightSum := totalWeight.Rat()
			var provisional money.Money
			for _, p := range divideIDs {
				r := new(big.Rat).Quo(shares[p].Weight.Rat(), weightSum)
				a := left.Scale(r)
				alloc[p] = a
				provisional = provisional.Add(a)
			}
			distribute(alloc, carried, divideIDs, left.Sub(provisional))
		case len(exactIDs) > 0:
			distribute(alloc, carried, exactIDs, left)
		default:
			alloc[payer] = alloc[payer].Add(left)
		}
		for p, a := range alloc {
			carried[p] = carried[p].Add(a)
		}

		rows = append(rows, model.ResolvedDistribution{
			Payer:     payer,
			TotalPaid: paid,
			PaidFor:   alloc,
		})
	}
	return rows, diags
}

func mapValues(m map[string]money.Money) []money.Money {
	out := make([]money.Money, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	return out
}
