package balance

import (
	"github.com/cleared-dev/splitledger/internal/model"
	"github.com/cleared-dev/splitledger/internal/money"
)

// Stats is one participant's pairwise position over a set of resolved rows.
type Stats struct {
	UserOwes   money.Money
	OwedToUser money.Money
	Diffs      map[string]model.Diff
}

// PairwiseFunc reduces resolved rows to a participant's pairwise position.
// Implementations must be pure functions of their inputs.
type PairwiseFunc func(participantID string, participantIDs []string, rows []model.ResolvedDistribution) Stats

// PairwiseStats is the default PairwiseFunc. What the participant paid for
// others is owed to them; what others paid for the participant is owed by
// them. Allocations to oneself cancel out and are ignored. Diffs only hold
// counterparties that appear in some row together with the participant.
func PairwiseStats(participantID string, _ []string, rows []model.ResolvedDistribution) Stats {
	st := Stats{Diffs: make(map[string]model.Diff)}
	for _, row := range rows {
		if row.Payer == participantID {
			for other, amt := range row.PaidFor {
				if other == participantID {
					continue
				}
				st.OwedToUser = st.OwedToUser.Add(amt)
				d := st.Diffs[other]
				d.DiffUnsplit = d.DiffUnsplit.Add(amt)
				st.Diffs[other] = d
			}
			continue
		}
		amt, ok := row.PaidFor[participantID]
		if !ok {
			continue
		}
		st.UserOwes = st.UserOwes.Add(amt)
		d := st.Diffs[row.Payer]
		d.DiffUnsplit = d.DiffUnsplit.Sub(amt)
		st.Diffs[row.Payer] = d
	}
	return st
}
