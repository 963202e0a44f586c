package model

import "github.com/cleared-dev/splitledger/internal/money"

// ResolvedDistribution is one payer's payment broken down by beneficiary.
// PaidFor always sums to TotalPaid.
type ResolvedDistribution struct {
	Payer     string                 `json:"payer"`
	TotalPaid money.Money            `json:"total_paid"`
	PaidFor   map[string]money.Money `json:"paid_for"`
}

// Sum adds up PaidFor.
func (d ResolvedDistribution) Sum() money.Money {
	var total money.Money
	for _, m := range d.PaidFor {
		total = total.Add(m)
	}
	return total
}

// Diff is the net amount a counterparty owes a participant (negative when
// the participant owes the counterparty).
type Diff struct {
	DiffUnsplit money.Money `json:"diff_unsplit"`
}

// Balance is a participant's derived position. It is never persisted.
type Balance struct {
	UserOwes    money.Money     `json:"user_owes"`
	OwedToUser  money.Money     `json:"owed_to_user"`
	Diffs       map[string]Diff `json:"diffs"`
	Balance     money.Money     `json:"balance"`
	VisualRatio float64         `json:"visual_ratio"`
}
