// Package memstore is an in-memory docstore.Store for tests of code built
// on the docstore interfaces. Documents are kept as JSON snapshots so
// callers never share memory with the store.
package memstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/cleared-dev/splitledger/internal/docstore"
)

type Store[T any] struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

func New[T any]() *Store[T] {
	return &Store[T]{docs: make(map[string][]byte)}
}

func (s *Store[T]) Create(_ context.Context, id string, doc T) (docstore.Handle[T], error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", id, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[id]; ok {
		return nil, fmt.Errorf("%s: %w", id, docstore.ErrExists)
	}
	s.docs[id] = body
	return &handle[T]{store: s, id: id}, nil
}

func (s *Store[T]) Find(_ context.Context, id string) (docstore.Handle[T], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.docs[id]; !ok {
		return nil, fmt.Errorf("%s: %w", id, docstore.ErrNotFound)
	}
	return &handle[T]{store: s, id: id}, nil
}

type handle[T any] struct {
	store *Store[T]
	id    string
}

func (h *handle[T]) ID() string { return h.id }

func (h *handle[T]) Doc(_ context.Context) (T, error) {
	h.store.mu.RLock()
	defer h.store.mu.RUnlock()
	return h.load()
}

func (h *handle[T]) Change(_ context.Context, fn func(*T) error) error {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()

	doc, err := h.load()
	if err != nil {
		return err
	}
	if err := fn(&doc); err != nil {
		return err
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", h.id, err)
	}
	h.store.docs[h.id] = body
	return nil
}

// load must be called with the store lock held.
func (h *handle[T]) load() (T, error) {
	var doc T
	body, ok := h.store.docs[h.id]
	if !ok {
		return doc, fmt.Errorf("%s: %w", h.id, docstore.ErrNotFound)
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		return doc, fmt.Errorf("decoding %s: %w", h.id, err)
	}
	return doc, nil
}
