package model

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrDuplicateParticipant = errors.New("participant already exists")
	ErrUnknownParticipant   = errors.New("unknown participant")
)

// Participant is a member of a party. Expenses refer to participants by ID
// only, so archiving one never invalidates history.
type Participant struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Archived bool   `json:"archived,omitempty" yaml:"archived,omitempty"`
}

// Party owns its participants and the list of chunks holding its expenses.
type Party struct {
	ID           string                 `json:"id" yaml:"id"`
	Name         string                 `json:"name" yaml:"name"`
	Currency     string                 `json:"currency" yaml:"currency"`
	Participants map[string]Participant `json:"participants" yaml:"participants"`
	Chunks       []ChunkRef             `json:"chunks" yaml:"chunks"` // newest first
}

// AddParticipant registers a new participant.
func (p *Party) AddParticipant(pt Participant) error {
	if p.Participants == nil {
		p.Participants = make(map[string]Participant)
	}
	if _, ok := p.Participants[pt.ID]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateParticipant, pt.ID)
	}
	p.Participants[pt.ID] = pt
	return nil
}

// Archive marks a participant archived.
func (p *Party) Archive(id string) error {
	pt, ok := p.Participants[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownParticipant, id)
	}
	pt.Archived = true
	p.Participants[id] = pt
	return nil
}

// Exists reports whether id is a participant, archived or not.
func (p Party) Exists(id string) bool {
	_, ok := p.Participants[id]
	return ok
}

// Active reports whether id is a participant that is not archived.
func (p Party) Active(id string) bool {
	pt, ok := p.Participants[id]
	return ok && !pt.Archived
}

// ParticipantIDs returns all participant IDs in ascending order.
func (p Party) ParticipantIDs() []string {
	return sortedKeys(p.Participants)
}

// Current returns the newest chunk reference.
func (p Party) Current() (ChunkRef, bool) {
	if len(p.Chunks) == 0 {
		return ChunkRef{}, false
	}
	return p.Chunks[0], true
}

// PrependChunk makes ref the newest chunk. The list is never reordered or pruned.
func (p *Party) PrependChunk(ref ChunkRef) {
	p.Chunks = append([]ChunkRef{ref}, p.Chunks...)
}

// ChunkRef names a chunk from the party document.
type ChunkRef struct {
	ID        string    `json:"id" yaml:"id"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}
