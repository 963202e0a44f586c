package balance

import (
	"github.com/cleared-dev/splitledger/internal/model"
	"github.com/cleared-dev/splitledger/internal/money"
)

// Reimbursement is a suggested transfer that settles part of a debt.
type Reimbursement struct {
	From   string      `json:"from"`
	To     string      `json:"to"`
	Amount money.Money `json:"amount"`
}

// Reimbursements suggests transfers that bring every balance to zero. The
// largest debtor always pays the largest creditor; ties go by participant
// ID. When the balances do not sum to zero the leftover stays unsettled.
func Reimbursements(balances map[string]model.Balance) []Reimbursement {
	remaining := make(map[string]money.Money, len(balances))
	for _, p := range model.SortedKeys(balances) {
		if b := balances[p].Balance; !b.IsZero() {
			remaining[p] = b
		}
	}

	var out []Reimbursement
	for {
		debtor, creditor := extremes(remaining)
		if debtor == "" || creditor == "" {
			return out
		}
		amt := min(remaining[debtor].Neg(), remaining[creditor])
		out = append(out, Reimbursement{From: debtor, To: creditor, Amount: amt})

		remaining[debtor] = remaining[debtor].Add(amt)
		remaining[creditor] = remaining[creditor].Sub(amt)
		for _, p := range []string{debtor, creditor} {
			if remaining[p].IsZero() {
				delete(remaining, p)
			}
		}
	}
}

// extremes returns the most negative and the most positive entries.
func extremes(remaining map[string]money.Money) (debtor, creditor string) {
	for _, p := range model.SortedKeys(remaining) {
		b := remaining[p]
		switch {
		case b < 0 && (debtor == "" || b < remaining[debtor]):
			debtor = p
		case b > 0 && (creditor == "" || b > remaining[creditor]):
			creditor = p
		}
	}
	return debtor, creditor
}
