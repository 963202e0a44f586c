// Package docstore defines the document substrate the ledger persists
// parties and chunks to.
//
// A Store holds documents of one type addressed by ID. Changes go through
// a Handle so that every implementation can apply them atomically.
package docstore

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("document not found")
	ErrExists   = errors.New("document already exists")
)

// Store creates and opens documents of type T.
type Store[T any] interface {
	Create(ctx context.Context, id string, doc T) (Handle[T], error)
	Find(ctx context.Context, id string) (Handle[T], error)
}

// Handle is an open document. Doc returns a snapshot the caller may keep
// or modify freely; Change applies fn to the current value and persists the
// result, or nothing if fn returns an error.
type Handle[T any] interface {
	ID() string
	Doc(ctx context.Context) (T, error)
	Change(ctx context.Context, fn func(doc *T) error) error
}
