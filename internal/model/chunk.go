package model

import "time"

// ChunkState is derived from a chunk's position in its party's chunk list.
type ChunkState string

const (
	ChunkOpen   ChunkState = "open"   // head of the list, accepts appends
	ChunkSealed ChunkState = "sealed" // every other chunk
)

// Chunk is a bounded batch of expenses, newest first.
type Chunk struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	MaxSize   int       `json:"max_size"`
	Expenses  []Expense `json:"expenses"`
}

// Ref returns the reference stored in the party document.
func (c Chunk) Ref() ChunkRef {
	return ChunkRef{ID: c.ID, CreatedAt: c.CreatedAt}
}
