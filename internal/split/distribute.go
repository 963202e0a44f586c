package split

import (
	"container/heap"

	"github.com/cleared-dev/splitledger/internal/money"
)

// distribute moves residual into alloc one minor unit at a time. A positive
// residual goes to the smallest current allocation first, a negative one
// is taken from the largest first. Equal allocations go to whoever carried
// received less from earlier rows of the same expense (or gives back
// whoever received more), then by participant ID.
func distribute(alloc, carried map[string]money.Money, ids []string, residual money.Money) {
	if residual.IsZero() || len(ids) == 0 {
		return
	}

	step := money.Money(residual.Sign())
	q := &allocQueue{alloc: alloc, carried: carried, ids: append([]string(nil), ids...), grow: step > 0}
	heap.Init(q)
	for n := residual.Abs(); n > 0; n-- {
		p := q.ids[0]
		alloc[p] = alloc[p].Add(step)
		heap.Fix(q, 0)
	}
}

// allocQueue orders participant IDs by the allocation that should receive
// the next correction.
type allocQueue struct {
	alloc   map[string]money.Money
	carried map[string]money.Money
	ids     []string
	grow    bool
}

func (q *allocQueue) Len() int { return len(q.ids) }

func (q *allocQueue) Less(i, j int) bool {
	x, y := q.ids[i], q.ids[j]
	if a, b := q.alloc[x], q.alloc[y]; a != b {
		return q.before(a, b)
	}
	if a, b := q.carried[x], q.carried[y]; a != b {
		return q.before(a, b)
	}
	return x < y
}

func (q *allocQueue) before(a, b money.Money) bool {
	if q.grow {
		return a < b
	}
	return a > b
}

func (q *allocQueue) Swap(i, j int) { q.ids[i], q.ids[j] = q.ids[j], q.ids[i] }

func (q *allocQueue) Push(x any) { q.ids = append(q.ids, x.(string)) }

func (q *allocQueue) Pop() any {
	last := q.ids[len(q.ids)-1]
	q.ids = q.ids[:len(q.ids)-1]
	return last
}
