package id

import (
	"math/rand"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixed = time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)

func testGenerator() *Generator {
	return NewGenerator(rand.New(rand.NewSource(42))).WithClock(func() time.Time { return fixed })
}

func TestEncodeDecode(t *testing.T) {
	g := testGenerator()
	s, err := g.Encode("chunk-1", time.Time{})
	require.NoError(t, err)

	parts, err := Decode(s)
	require.NoError(t, err)
	assert.Equal(t, "chunk-1", parts.ChunkID)
	assert.Len(t, parts.LocalID, 26)
	assert.Equal(t, parts.LocalID+"@chunk-1", s)
}

func TestEncode_BadChunkID(t *testing.T) {
	g := testGenerator()
	_, err := g.Encode("", time.Time{})
	assert.ErrorIs(t, err, ErrMalformedIdentifier)

	_, err = g.Encode("a@b", time.Time{})
	assert.ErrorIs(t, err, ErrMalformedIdentifier)
}

func TestLocalIDs_MonotonicWithinMillisecond(t *testing.T) {
	g := testGenerator()
	var ids []string
	for range 1000 {
		s, err := g.NewLocalID(time.Time{})
		require.NoError(t, err)
		ids = append(ids, s)
	}
	assert.True(t, sort.StringsAreSorted(ids), "same-millisecond ids must sort in creation order")
	for i := 1; i < len(ids); i++ {
		assert.NotEqual(t, ids[i-1], ids[i])
	}
}

func TestLocalIDs_SortByTimestamp(t *testing.T) {
	g := testGenerator()
	later, err := g.NewLocalID(fixed.Add(time.Hour))
	require.NoError(t, err)
	earlier, err := g.NewLocalID(fixed.Add(-time.Hour))
	require.NoError(t, err)
	assert.Less(t, earlier, later)
}

func TestTime(t *testing.T) {
	g := testGenerator()
	at := time.Date(2024, 12, 31, 23, 59, 59, 123_456_789, time.UTC)
	local, err := g.NewLocalID(at)
	require.NoError(t, err)

	got, err := Time(local)
	require.NoError(t, err)
	assert.True(t, at.Truncate(time.Millisecond).Equal(got))

	_, err = Time("not-a-ulid")
	assert.Error(t, err)
}

func TestDecode_Malformed(t *testing.T) {
	tests := []string{
		"",
		"no-separator",
		"@chunk",
		"local@",
	}
	for _, in := range tests {
		_, err := Decode(in)
		assert.ErrorIs(t, err, ErrMalformedIdentifier, "Decode(%q)", in)
	}
}

func TestDecode_SplitsOnFirstSeparator(t *testing.T) {
	p, err := Decode("L@c@d")
	require.NoError(t, err)
	assert.Equal(t, Parts{LocalID: "L", ChunkID: "c@d"}, p)
}

func TestMustDecode(t *testing.T) {
	assert.Equal(t, Parts{LocalID: "a", ChunkID: "b"}, MustDecode("a@b"))
	assert.Panics(t, func() { MustDecode("ab") })
}

func TestLocalPart(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"01HX@chunk", "01HX"},
		{"01HX", "01HX"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LocalPart(tt.in), "LocalPart(%q)", tt.in)
	}
}

func TestJoin(t *testing.T) {
	assert.Equal(t, "L@C", Join("L", "C"))
}

func TestNewChunkID(t *testing.T) {
	a, b := NewChunkID(), NewChunkID()
	assert.NotEqual(t, a, b)
	assert.NotContains(t, a, Separator)
}

func TestDecode_DoesNotAllocate(t *testing.T) {
	allocs := testing.AllocsPerRun(100, func() {
		_, _ = Decode("01HX@chunk")
	})
	assert.Zero(t, allocs)
}
