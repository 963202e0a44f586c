// Package sqlitestore keeps documents as JSON rows in a SQLite database.
package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cleared-dev/splitledger/internal/docstore"
)

// DB is an open ledger database shared by the stores of every document kind.
type DB struct {
	db  *sql.DB
	now func() time.Time
}

// Open creates the database file if needed and applies migrations.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	if err := runMigrations(path); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One connection serializes writers and avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &DB{db: db, now: time.Now}, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

// Store holds the documents of one kind.
type Store[T any] struct {
	db   *DB
	kind string
}

// New returns the store for kind. Kinds partition the ID space.
func New[T any](db *DB, kind string) *Store[T] {
	return &Store[T]{db: db, kind: kind}
}

func (s *Store[T]) Create(ctx context.Context, id string, doc T) (docstore.Handle[T], error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding %s %s: %w", s.kind, id, err)
	}

	ts := s.db.now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.db.ExecContext(ctx,
		`INSERT INTO documents (kind, id, body, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?) ON CONFLICT (kind, id) DO NOTHING`,
		s.kind, id, string(body), ts, ts)
	if err != nil {
		return nil, fmt.Errorf("insert %s %s: %w", s.kind, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("insert %s %s: %w", s.kind, id, err)
	}
	if n == 0 {
		return nil, fmt.Errorf("%s %s: %w", s.kind, id, docstore.ErrExists)
	}
	return &handle[T]{store: s, id: id}, nil
}

func (s *Store[T]) Find(ctx context.Context, id string) (docstore.Handle[T], error) {
	var one int
	err := s.db.db.QueryRowContext(ctx,
		`SELECT 1 FROM documents WHERE kind = ? AND id = ?`, s.kind, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s %s: %w", s.kind, id, docstore.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find %s %s: %w", s.kind, id, err)
	}
	return &handle[T]{store: s, id: id}, nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store[T]) load(ctx context.Context, q queryer, id string) (T, error) {
	var doc T
	var body string
	err := q.QueryRowContext(ctx,
		`SELECT body FROM documents WHERE kind = ? AND id = ?`, s.kind, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return doc, fmt.Errorf("%s %s: %w", s.kind, id, docstore.ErrNotFound)
	}
	if err != nil {
		return doc, fmt.Errorf("load %s %s: %w", s.kind, id, err)
	}
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return doc, fmt.Errorf("decoding %s %s: %w", s.kind, id, err)
	}
	return doc, nil
}

type handle[T any] struct {
	store *Store[T]
	id    string
}

func (h *handle[T]) ID() string { return h.id }

func (h *handle[T]) Doc(ctx context.Context) (T, error) {
	return h.store.load(ctx, h.store.db.db, h.id)
}

func (h *handle[T]) Change(ctx context.Context, fn func(*T) error) error {
	s := h.store
	tx, err := s.db.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	doc, err := s.load(ctx, tx, h.id)
	if err != nil {
		return err
	}
	if err := fn(&doc); err != nil {
		return err
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding %s %s: %w", s.kind, h.id, err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE documents SET body = ?, updated_at = ? WHERE kind = ? AND id = ?`,
		string(body), s.db.now().UTC().Format(time.RFC3339Nano), s.kind, h.id)
	if err != nil {
		return fmt.Errorf("update %s %s: %w", s.kind, h.id, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s %s: %w", s.kind, h.id, err)
	}
	return nil
}
