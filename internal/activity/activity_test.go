package activity

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2026, 6, 1, 10, 30, 0, 0, time.UTC)

func testEntry(action Action, subject string) Entry {
	return Entry{
		Timestamp: testTime,
		Actor:     "alice",
		Action:    action,
		Subject:   subject,
		Details:   "Dinner, 30.00 EUR",
	}
}

func TestAppendAndRead(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Append(dir, testEntry(ActionInit, "trip")))
	require.NoError(t, Append(dir,
		testEntry(ActionExpenseAdd, "01JX@c1"),
		testEntry(ActionExpenseDelete, "01JX@c1"),
	))

	entries, err := Read(dir)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, testEntry(ActionInit, "trip"), entries[0])
	assert.Equal(t, ActionExpenseDelete, entries[2].Action)

	data, err := os.ReadFile(filepath.Join(dir, File))
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), Header), "header written once")
}

func TestRead_Missing(t *testing.T) {
	entries, err := Read(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRecent(t *testing.T) {
	dir := t.TempDir()
	for _, s := range []string{"a", "b", "c"} {
		require.NoError(t, Append(dir, testEntry(ActionParticipantAdd, s)))
	}

	got, err := Recent(dir, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c", got[0].Subject)
	assert.Equal(t, "b", got[1].Subject)

	got, err = Recent(dir, 0)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestUnmarshalEntry_Errors(t *testing.T) {
	_, err := UnmarshalEntry([]string{"x"})
	assert.Error(t, err)

	row := MarshalEntry(testEntry(ActionInit, "trip"))
	row[colTimestamp] = "not a time"
	_, err = UnmarshalEntry(row)
	assert.Error(t, err)
}
