package journal

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cleared-dev/splitledger/internal/model"
	"github.com/cleared-dev/splitledger/internal/money"
)

// Header is the CSV header for a chunk's expense file.
const Header = "expense_id,timestamp,name,paid_by,shares,transfer,hash,attachments"

const (
	numFields      = 8
	timeFormat     = time.RFC3339Nano
	colExpenseID   = 0
	colTimestamp   = 1
	colName        = 2
	colPaidBy      = 3
	colShares      = 4
	colTransfer    = 5
	colHash        = 6
	colAttachments = 7

	listSep  = ";"
	entrySep = "="
)

// attachmentEscaper keeps ";" inside an attachment reference from
// splitting it. Reading reverses it with url.PathUnescape.
var attachmentEscaper = strings.NewReplacer("%", "%25", listSep, "%3B")

// ReadExpenses reads every expense from a chunk CSV, in file order.
func ReadExpenses(r io.Reader) ([]model.Expense, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading chunk CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	// Skip header row.
	expenses := make([]model.Expense, 0, len(records)-1)
	for i, rec := range records[1:] {
		e, err := UnmarshalExpense(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		expenses = append(expenses, e)
	}
	return expenses, nil
}

// WriteExpenses writes the header and one row per expense.
func WriteExpenses(w io.Writer, expenses []model.Expense) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, e := range expenses {
		if err := cw.Write(MarshalExpense(e)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalExpense converts an Expense to a CSV row.
func MarshalExpense(e model.Expense) []string {
	row := make([]string, numFields)
	row[colExpenseID] = e.ID
	if !e.Timestamp.IsZero() {
		row[colTimestamp] = e.Timestamp.UTC().Format(timeFormat)
	}
	row[colName] = e.Name

	paid := make([]string, 0, len(e.PaidBy))
	for _, p := range model.SortedKeys(e.PaidBy) {
		paid = append(paid, p+entrySep+e.PaidBy[p].String())
	}
	row[colPaidBy] = strings.Join(paid, listSep)

	shares := make([]string, 0, len(e.Shares))
	for _, p := range model.SortedKeys(e.Shares) {
		shares = append(shares, p+entrySep+e.Shares[p].String())
	}
	row[colShares] = strings.Join(shares, listSep)

	if e.Transfer {
		row[colTransfer] = "true"
	}
	row[colHash] = e.Hash
	attachments := make([]string, len(e.Attachments))
	for i, a := range e.Attachments {
		attachments[i] = attachmentEscaper.Replace(a)
	}
	row[colAttachments] = strings.Join(attachments, listSep)
	return row
}

// UnmarshalExpense converts a CSV row to an Expense.
func UnmarshalExpense(record []string) (model.Expense, error) {
	if len(record) != numFields {
		return model.Expense{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	var ts time.Time
	if record[colTimestamp] != "" {
		var err error
		ts, err = time.Parse(timeFormat, record[colTimestamp])
		if err != nil {
			return model.Expense{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
		}
	}

	var paidBy map[string]money.Money
	err := eachEntry(record[colPaidBy], func(p, v string) error {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("parsing paid_by amount for %s: %w", p, err)
		}
		if paidBy == nil {
			paidBy = make(map[string]money.Money)
		}
		paidBy[p] = money.Money(n)
		return nil
	})
	if err != nil {
		return model.Expense{}, err
	}

	var shares map[string]model.ShareSpec
	err = eachEntry(record[colShares], func(p, v string) error {
		s, err := model.ParseShareSpec(v)
		if err != nil {
			return fmt.Errorf("parsing share for %s: %w", p, err)
		}
		if shares == nil {
			shares = make(map[string]model.ShareSpec)
		}
		shares[p] = s
		return nil
	})
	if err != nil {
		return model.Expense{}, err
	}

	var transfer bool
	if record[colTransfer] != "" {
		transfer, err = strconv.ParseBool(record[colTransfer])
		if err != nil {
			return model.Expense{}, fmt.Errorf("parsing transfer %q: %w", record[colTransfer], err)
		}
	}

	var attachments []string
	if record[colAttachments] != "" {
		for _, raw := range strings.Split(record[colAttachments], listSep) {
			a, err := url.PathUnescape(raw)
			if err != nil {
				return model.Expense{}, fmt.Errorf("parsing attachment %q: %w", raw, err)
			}
			attachments = append(attachments, a)
		}
	}

	return model.Expense{
		ID:          record[colExpenseID],
		Name:        record[colName],
		Timestamp:   ts,
		PaidBy:      paidBy,
		Shares:      shares,
		Transfer:    transfer,
		Hash:        record[colHash],
		Attachments: attachments,
	}, nil
}

// eachEntry calls fn for every "key=value" item of a ";"-separated list.
func eachEntry(field string, fn func(key, value string) error) error {
	if field == "" {
		return nil
	}
	for _, item := range strings.Split(field, listSep) {
		k, v, ok := strings.Cut(item, entrySep)
		if !ok || k == "" {
			return fmt.Errorf("malformed entry %q", item)
		}
		if err := fn(k, v); err != nil {
			return err
		}
	}
	return nil
}
