package id

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// Separator joins the local part and the chunk ID: "<local>@<chunk>".
// Local parts are ULIDs, so string order follows creation order.
const Separator = "@"

// ErrMalformedIdentifier means an ID has no chunk part. It always points at
// a bug in the caller, not at bad user data.
var ErrMalformedIdentifier = errors.New("malformed expense identifier")

// Parts is a decoded expense ID.
type Parts struct {
	LocalID string
	ChunkID string
}

// Generator mints local IDs. It is owned by whoever appends expenses;
// there is no package-level generator.
type Generator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
	now     func() time.Time
}

// NewGenerator returns a Generator drawing randomness from r, or from
// crypto/rand when r is nil.
func NewGenerator(r io.Reader) *Generator {
	if r == nil {
		r = rand.Reader
	}
	return &Generator{
		entropy: ulid.Monotonic(r, 0),
		now:     time.Now,
	}
}

// WithClock replaces the clock used when no timestamp is given.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.now = now
	return g
}

// NewLocalID returns a local ID for time at, or for now when at is zero.
// IDs minted within the same millisecond are strictly increasing.
func (g *Generator) NewLocalID(at time.Time) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if at.IsZero() {
		at = g.now()
	}
	u, err := ulid.New(ulid.Timestamp(at), g.entropy)
	if err != nil {
		return "", fmt.Errorf("generating local id: %w", err)
	}
	return u.String(), nil
}

// Encode mints a new expense ID stored in chunkID.
func (g *Generator) Encode(chunkID string, at time.Time) (string, error) {
	if chunkID == "" || strings.Contains(chunkID, Separator) {
		return "", fmt.Errorf("%w: bad chunk id %q", ErrMalformedIdentifier, chunkID)
	}
	local, err := g.NewLocalID(at)
	if err != nil {
		return "", err
	}
	return Join(local, chunkID), nil
}

// Join builds an expense ID from its parts.
func Join(localID, chunkID string) string {
	return localID + Separator + chunkID
}

// Decode splits an expense ID. It does not allocate on success.
func Decode(s string) (Parts, error) {
	local, chunk, ok := strings.Cut(s, Separator)
	if !ok || local == "" || chunk == "" {
		return Parts{}, fmt.Errorf("%w: %q", ErrMalformedIdentifier, s)
	}
	return Parts{LocalID: local, ChunkID: chunk}, nil
}

// MustDecode is like Decode but panics on malformed input.
func MustDecode(s string) Parts {
	p, err := Decode(s)
	if err != nil {
		panic(err)
	}
	return p
}

// LocalPart returns the local part of s, or s itself when it has no separator.
func LocalPart(s string) string {
	if i := strings.Index(s, Separator); i >= 0 {
		return s[:i]
	}
	return s
}

// Time returns the creation time encoded in a local ID, at millisecond precision.
func Time(localID string) (time.Time, error) {
	u, err := ulid.ParseStrict(localID)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing local id %q: %w", localID, err)
	}
	return ulid.Time(u.Time()), nil
}

// NewChunkID returns a fresh random chunk ID.
func NewChunkID() string {
	return uuid.NewString()
}
