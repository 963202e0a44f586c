package journal

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/splitledger/internal/docstore"
	"github.com/cleared-dev/splitledger/internal/model"
)

// Ledger directory layout:
//
//	parties/<id>.yaml   party document
//	chunks/<id>.yaml    chunk metadata
//	chunks/<id>.csv     chunk expenses, newest first
const (
	PartiesDir = "parties"
	ChunksDir  = "chunks"
)

// codec reads and writes one document type under a directory.
type codec[T any] interface {
	exists(id string) (bool, error)
	read(id string) (T, error)
	write(id string, doc T) error
}

// fileStore adapts a codec to docstore.Store. A single mutex serializes
// all access to the store's files.
type fileStore[T any] struct {
	mu    sync.Mutex
	codec codec[T]
}

func (s *fileStore[T]) Create(_ context.Context, id string, doc T) (docstore.Handle[T], error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	ok, err := s.codec.exists(id)
	if err != nil {
		return nil, err
	}
	if ok {
		return nil, fmt.Errorf("%s: %w", id, docstore.ErrExists)
	}
	if err := s.codec.write(id, doc); err != nil {
		return nil, err
	}
	return &fileHandle[T]{store: s, id: id}, nil
}

func (s *fileStore[T]) Find(_ context.Context, id string) (docstore.Handle[T], error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	ok, err := s.codec.exists(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, docstore.ErrNotFound)
	}
	return &fileHandle[T]{store: s, id: id}, nil
}

type fileHandle[T any] struct {
	store *fileStore[T]
	id    string
}

func (h *fileHandle[T]) ID() string { return h.id }

func (h *fileHandle[T]) Doc(_ context.Context) (T, error) {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	return h.store.codec.read(h.id)
}

func (h *fileHandle[T]) Change(_ context.Context, fn func(*T) error) error {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()

	doc, err := h.store.codec.read(h.id)
	if err != nil {
		return err
	}
	if err := fn(&doc); err != nil {
		return err
	}
	return h.store.codec.write(h.id, doc)
}

// checkID rejects IDs that would escape the store directory.
func checkID(id string) error {
	if id == "" || id == "." || id == ".." || filepath.Base(id) != id {
		return fmt.Errorf("invalid document id %q", id)
	}
	return nil
}

// NewPartyStore returns a store of party documents under root/parties.
func NewPartyStore(root string) docstore.Store[model.Party] {
	return &fileStore[model.Party]{codec: partyCodec{dir: filepath.Join(root, PartiesDir)}}
}

type partyCodec struct {
	dir string
}

func (c partyCodec) path(id string) string {
	return filepath.Join(c.dir, id+".yaml")
}

func (c partyCodec) exists(id string) (bool, error) {
	return fileExists(c.path(id))
}

func (c partyCodec) read(id string) (model.Party, error) {
	var p model.Party
	data, err := os.ReadFile(c.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return p, fmt.Errorf("party %s: %w", id, docstore.ErrNotFound)
	}
	if err != nil {
		return p, fmt.Errorf("reading party %s: %w", id, err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("parsing party %s: %w", id, err)
	}
	return p, nil
}

func (c partyCodec) write(id string, p model.Party) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding party %s: %w", id, err)
	}
	return writeFileAtomic(c.path(id), data)
}

// chunkMeta is the YAML half of a chunk; the expenses live in the CSV.
type chunkMeta struct {
	ID        string    `yaml:"id"`
	CreatedAt time.Time `yaml:"created_at"`
	MaxSize   int       `yaml:"max_size"`
}

// NewChunkStore returns a store of chunks under root/chunks.
func NewChunkStore(root string) docstore.Store[model.Chunk] {
	return &fileStore[model.Chunk]{codec: chunkCodec{dir: filepath.Join(root, ChunksDir)}}
}

type chunkCodec struct {
	dir string
}

func (c chunkCodec) metaPath(id string) string {
	return filepath.Join(c.dir, id+".yaml")
}

// CSVPath returns the expense file of chunk id under root.
func CSVPath(root, id string) string {
	return filepath.Join(root, ChunksDir, id+".csv")
}

func (c chunkCodec) csvPath(id string) string {
	return filepath.Join(c.dir, id+".csv")
}

func (c chunkCodec) exists(id string) (bool, error) {
	return fileExists(c.metaPath(id))
}

func (c chunkCodec) read(id string) (model.Chunk, error) {
	data, err := os.ReadFile(c.metaPath(id))
	if errors.Is(err, fs.ErrNotExist) {
		return model.Chunk{}, fmt.Errorf("chunk %s: %w", id, docstore.ErrNotFound)
	}
	if err != nil {
		return model.Chunk{}, fmt.Errorf("reading chunk %s: %w", id, err)
	}
	var meta chunkMeta
	if err := yaml.Unmarshal(data, &meta); err != nil {
		return model.Chunk{}, fmt.Errorf("parsing chunk %s: %w", id, err)
	}

	f, err := os.Open(c.csvPath(id))
	if err != nil {
		return model.Chunk{}, fmt.Errorf("opening chunk %s expenses: %w", id, err)
	}
	defer f.Close()
	expenses, err := ReadExpenses(f)
	if err != nil {
		return model.Chunk{}, fmt.Errorf("reading chunk %s expenses: %w", id, err)
	}
	if expenses == nil {
		expenses = []model.Expense{}
	}

	return model.Chunk{
		ID:        meta.ID,
		CreatedAt: meta.CreatedAt,
		MaxSize:   meta.MaxSize,
		Expenses:  expenses,
	}, nil
}

// write replaces the CSV before the metadata so that a chunk only becomes
// visible once both files exist.
func (c chunkCodec) write(id string, ch model.Chunk) error {
	var buf bytes.Buffer
	if err := WriteExpenses(&buf, ch.Expenses); err != nil {
		return fmt.Errorf("encoding chunk %s expenses: %w", id, err)
	}
	if err := writeFileAtomic(c.csvPath(id), buf.Bytes()); err != nil {
		return err
	}

	data, err := yaml.Marshal(chunkMeta{ID: ch.ID, CreatedAt: ch.CreatedAt, MaxSize: ch.MaxSize})
	if err != nil {
		return fmt.Errorf("encoding chunk %s: %w", id, err)
	}
	return writeFileAtomic(c.metaPath(id), data)
}

func fileExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
	return true, nil
}

// writeFileAtomic writes data to a temporary file next to path and renames
// it into place.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	f, err := os.CreateTemp(dir, ".tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	tmp := f.Name()
	defer os.Remove(tmp)

	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
