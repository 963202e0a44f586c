package locate

import (
	"github.com/cleared-dev/splitledger/internal/id"
	"github.com/cleared-dev/splitledger/internal/model"
)

// FindByLocalID binary-searches expenses for the one whose local ID is
// localID. expenses must be sorted by local ID, newest (largest) first;
// this is not checked. It returns (nil, -1) when there is no match.
func FindByLocalID(expenses []model.Expense, localID string) (*model.Expense, int) {
	start, end := 0, len(expenses)-1
	for start <= end {
		mid := start + (end-start)/2
		cur := id.LocalPart(expenses[mid].ID)
		switch {
		case cur == localID:
			return &expenses[mid], mid
		case cur > localID:
			start = mid + 1
		default:
			end = mid - 1
		}
	}
	return nil, -1
}

// FindByID decodes expenseID and looks up its local part. Malformed IDs
// fail with id.ErrMalformedIdentifier. The chunk part is not compared; the
// caller is expected to pass the expenses of the chunk the ID names.
func FindByID(expenses []model.Expense, expenseID string) (*model.Expense, int, error) {
	parts, err := id.Decode(expenseID)
	if err != nil {
		return nil, -1, err
	}
	e, i := FindByLocalID(expenses, parts.LocalID)
	return e, i, nil
}
