// Package chunk manages the bounded batches a party's expenses live in.
//
// A party lists its chunks newest first. Only the head chunk accepts new
// expenses; when it is full a fresh chunk is created and prepended. Chunks
// are never split or merged.
package chunk

import (
	"sort"

	"github.com/cleared-dev/splitledger/internal/id"
	"github.com/cleared-dev/splitledger/internal/locate"
	"github.com/cleared-dev/splitledger/internal/model"
)

// DefaultMaxSize is the capacity of a chunk when none is configured.
const DefaultMaxSize = 500

// IsFull reports whether c can take no more expenses.
func IsFull(c model.Chunk) bool {
	return len(c.Expenses) >= maxSize(c)
}

func maxSize(c model.Chunk) int {
	if c.MaxSize <= 0 {
		return DefaultMaxSize
	}
	return c.MaxSize
}

// Append adds e keeping c.Expenses sorted newest first by local ID. A new
// expense usually lands at the front.
func Append(c *model.Chunk, e model.Expense) {
	local := id.LocalPart(e.ID)
	i := sort.Search(len(c.Expenses), func(i int) bool {
		return id.LocalPart(c.Expenses[i].ID) < local
	})
	c.Expenses = append(c.Expenses, model.Expense{})
	copy(c.Expenses[i+1:], c.Expenses[i:])
	c.Expenses[i] = e
}

// Replace swaps in e for the expense with the same ID. It reports whether
// one was found.
func Replace(c *model.Chunk, e model.Expense) bool {
	_, i := locate.FindByLocalID(c.Expenses, id.LocalPart(e.ID))
	if i < 0 {
		return false
	}
	c.Expenses[i] = e
	return true
}

// Remove deletes the expense with the given local ID. It reports whether
// one was found.
func Remove(c *model.Chunk, localID string) bool {
	_, i := locate.FindByLocalID(c.Expenses, localID)
	if i < 0 {
		return false
	}
	c.Expenses = append(c.Expenses[:i], c.Expenses[i+1:]...)
	return true
}

// State reports whether chunkID is the party's open chunk. The second
// result is false when the party does not list chunkID at all.
func State(p model.Party, chunkID string) (model.ChunkState, bool) {
	for i, ref := range p.Chunks {
		if ref.ID != chunkID {
			continue
		}
		if i == 0 {
			return model.ChunkOpen, true
		}
		return model.ChunkSealed, true
	}
	return "", false
}
