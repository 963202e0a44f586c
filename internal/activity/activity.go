package activity

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Action names a kind of change.
type Action string

const (
	ActionInit               Action = "init"
	ActionParticipantAdd     Action = "participant_add"
	ActionParticipantArchive Action = "participant_archive"
	ActionExpenseAdd         Action = "expense_add"
	ActionExpenseReplace     Action = "expense_replace"
	ActionExpenseDelete      Action = "expense_delete"
)

// Entry is one row in the activity log.
type Entry struct {
	Timestamp time.Time
	Actor     string
	Action    Action
	Subject   string // participant or expense ID
	Details   string
}

// Header is the CSV header for activity.csv.
const Header = "timestamp,actor,action,subject,details"

// File is the log's path relative to the repository root.
const File = "logs/activity.csv"

const (
	numFields    = 5
	colTimestamp = 0
	colActor     = 1
	colAction    = 2
	colSubject   = 3
	colDetails   = 4
)

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.UTC().Format(time.RFC3339)
	row[colActor] = e.Actor
	row[colAction] = string(e.Action)
	row[colSubject] = e.Subject
	row[colDetails] = e.Details
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}
	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}
	return Entry{
		Timestamp: ts,
		Actor:     record[colActor],
		Action:    Action(record[colAction]),
		Subject:   record[colSubject],
		Details:   record[colDetails],
	}, nil
}

// Append writes entries to <repoRoot>/logs/activity.csv, creating the file
// and header if needed.
func Append(repoRoot string, entries ...Entry) error {
	path := filepath.Join(repoRoot, File)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}

	needsHeader := false
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening activity log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Read returns all entries from the repository's activity log, oldest
// first. A missing log reads as empty.
func Read(repoRoot string) ([]Entry, error) {
	f, err := os.Open(filepath.Join(repoRoot, File))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening activity log: %w", err)
	}
	defer f.Close()
	return readEntries(f)
}

// Recent returns the last n entries, newest first.
func Recent(repoRoot string, n int) ([]Entry, error) {
	all, err := Read(repoRoot)
	if err != nil {
		return nil, err
	}
	if n > 0 && len(all) > n {
		all = all[len(all)-n:]
	}
	out := make([]Entry, len(all))
	for i, e := range all {
		out[len(all)-1-i] = e
	}
	return out, nil
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading activity log CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	entries := make([]Entry, 0, len(records)-1)
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
