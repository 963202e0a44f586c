package chunk

import (
	"context"
	"fmt"
	"time"

	"github.com/cleared-dev/splitledger/internal/docstore"
	"github.com/cleared-dev/splitledger/internal/id"
	"github.com/cleared-dev/splitledger/internal/model"
)

// Manager creates chunks and keeps the party's chunk list in step with
// them. Callers serialize writes to a party; Manager itself holds no lock.
type Manager struct {
	chunks  docstore.Store[model.Chunk]
	maxSize int
	now     func() time.Time
	newID   func() string
}

// NewManager returns a Manager creating chunks of maxSize expenses in
// chunks. A non-positive maxSize means DefaultMaxSize.
func NewManager(chunks docstore.Store[model.Chunk], maxSize int) *Manager {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Manager{
		chunks:  chunks,
		maxSize: maxSize,
		now:     time.Now,
		newID:   id.NewChunkID,
	}
}

// WithClock sets the time source for chunk creation times.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// Open returns the chunk with the given ID.
func (m *Manager) Open(ctx context.Context, chunkID string) (docstore.Handle[model.Chunk], error) {
	h, err := m.chunks.Find(ctx, chunkID)
	if err != nil {
		return nil, fmt.Errorf("opening chunk: %w", err)
	}
	return h, nil
}

// CurrentChunk returns the party's open chunk, creating the first one for
// a party that has none.
func (m *Manager) CurrentChunk(ctx context.Context, party docstore.Handle[model.Party]) (docstore.Handle[model.Chunk], error) {
	p, err := party.Doc(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading party: %w", err)
	}
	if ref, ok := p.Current(); ok {
		return m.Open(ctx, ref.ID)
	}
	return m.create(ctx, party)
}

// RolloverIfFull returns current unchanged while it has room. Otherwise it
// creates a new chunk, prepends it to the party and returns it.
func (m *Manager) RolloverIfFull(ctx context.Context, party docstore.Handle[model.Party], current docstore.Handle[model.Chunk]) (docstore.Handle[model.Chunk], error) {
	c, err := current.Doc(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading chunk %s: %w", current.ID(), err)
	}
	if !IsFull(c) {
		return current, nil
	}
	return m.create(ctx, party)
}

// Append adds e to the chunk in a single change.
func (m *Manager) Append(ctx context.Context, chunk docstore.Handle[model.Chunk], e model.Expense) error {
	err := chunk.Change(ctx, func(c *model.Chunk) error {
		Append(c, e)
		return nil
	})
	if err != nil {
		return fmt.Errorf("appending to chunk %s: %w", chunk.ID(), err)
	}
	return nil
}

func (m *Manager) create(ctx context.Context, party docstore.Handle[model.Party]) (docstore.Handle[model.Chunk], error) {
	c := model.Chunk{
		ID:        m.newID(),
		CreatedAt: m.now().UTC(),
		MaxSize:   m.maxSize,
		Expenses:  []model.Expense{},
	}
	h, err := m.chunks.Create(ctx, c.ID, c)
	if err != nil {
		return nil, fmt.Errorf("creating chunk: %w", err)
	}
	err = party.Change(ctx, func(p *model.Party) error {
		p.PrependChunk(c.Ref())
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("registering chunk %s: %w", c.ID, err)
	}
	return h, nil
}
