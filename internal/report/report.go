// Package report renders ledger data for the terminal and as JSON.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/cleared-dev/splitledger/internal/balance"
	"github.com/cleared-dev/splitledger/internal/model"
	"github.com/cleared-dev/splitledger/internal/money"
	"github.com/cleared-dev/splitledger/internal/split"
)

const (
	dateFormat = "2006-01-02"
	barWidth   = 10
)

// Formatter renders amounts and participants of one party.
type Formatter struct {
	party    model.Party
	decimals int32
}

func NewFormatter(party model.Party) Formatter {
	return Formatter{party: party, decimals: money.Decimals(party.Currency)}
}

// Amount formats m in major units, e.g. "12.50".
func (f Formatter) Amount(m money.Money) string {
	return m.Format(f.decimals)
}

// Signed is Amount with an explicit sign for non-zero values.
func (f Formatter) Signed(m money.Money) string {
	if m.Sign() > 0 {
		return "+" + f.Amount(m)
	}
	return f.Amount(m)
}

// Name returns the participant's display name.
func (f Formatter) Name(participantID string) string {
	pt, ok := f.party.Participants[participantID]
	if !ok || pt.Name == "" {
		return participantID
	}
	return pt.Name
}

func bar(ratio float64) string {
	return strings.Repeat("#", int(math.Round(ratio*barWidth)))
}

// WriteBalances writes one line per participant, sorted by ID.
func (f Formatter) WriteBalances(w io.Writer, balances map[string]model.Balance) error {
	if _, err := fmt.Fprintf(w, "%s, balances in %s\n\n", f.party.Name, f.party.Currency); err != nil {
		return err
	}
	t := newTable(alignLeft, alignRight, alignRight, alignRight, alignLeft)
	t.add("PARTICIPANT", "PAID FOR OTHERS", "OWES", "BALANCE", "")
	for _, p := range model.SortedKeys(balances) {
		b := balances[p]
		name := f.Name(p)
		if pt, ok := f.party.Participants[p]; ok && pt.Archived {
			name += " (archived)"
		}
		t.add(name, f.Amount(b.OwedToUser), f.Amount(b.UserOwes), f.Signed(b.Balance), bar(b.VisualRatio))
	}
	return t.write(w)
}

// WriteReimbursements lists suggested transfers.
func (f Formatter) WriteReimbursements(w io.Writer, rs []balance.Reimbursement) error {
	if len(rs) == 0 {
		_, err := fmt.Fprintln(w, "All settled.")
		return err
	}
	if _, err := fmt.Fprintln(w, "Suggested reimbursements:"); err != nil {
		return err
	}
	t := newTable(alignLeft, alignLeft, alignLeft, alignRight)
	for _, r := range rs {
		t.add("  "+f.Name(r.From), "->", f.Name(r.To), f.Amount(r.Amount))
	}
	return t.write(w)
}

// WriteExpenses writes one line per expense in the given order.
func (f Formatter) WriteExpenses(w io.Writer, expenses []model.Expense) error {
	if len(expenses) == 0 {
		_, err := fmt.Fprintln(w, "No expenses.")
		return err
	}
	t := newTable(alignLeft, alignLeft, alignRight, alignLeft, alignLeft)
	t.add("DATE", "NAME", "TOTAL", "PAID BY", "ID")
	for _, e := range expenses {
		name := e.Name
		if e.Transfer {
			name += " (transfer)"
		}
		payers := make([]string, 0, len(e.PaidBy))
		for _, p := range model.SortedKeys(e.PaidBy) {
			payers = append(payers, f.Name(p))
		}
		t.add(e.Timestamp.UTC().Format(dateFormat), name, f.Amount(e.Total()), strings.Join(payers, ", "), e.ID)
	}
	return t.write(w)
}

// WriteExpense writes an expense with its shares and distribution table.
func (f Formatter) WriteExpense(w io.Writer, e model.Expense, rows []model.ResolvedDistribution, diags []split.Diagnostic) error {
	kind := "expense"
	if e.Transfer {
		kind = "transfer"
	}
	header := fmt.Sprintf("%s (%s)\n  id:    %s\n  date:  %s\n  total: %s %s\n  hash:  %s\n",
		e.Name, kind, e.ID, e.Timestamp.UTC().Format(dateFormat), f.Amount(e.Total()), f.party.Currency, e.Hash)
	if _, err := io.WriteString(w, header); err != nil {
		return err
	}
	if len(e.Attachments) > 0 {
		if _, err := fmt.Fprintf(w, "  files: %s\n", strings.Join(e.Attachments, ", ")); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintln(w, "\nShares:"); err != nil {
		return err
	}
	t := newTable(alignLeft, alignLeft, alignRight)
	for _, p := range model.SortedKeys(e.Shares) {
		s := e.Shares[p]
		switch s.Kind {
		case model.ShareExact:
			t.add("  "+f.Name(p), "exact", f.Amount(s.Amount))
		default:
			t.add("  "+f.Name(p), string(s.Kind), s.Weight.String())
		}
	}
	if err := t.write(w); err != nil {
		return err
	}

	for _, row := range rows {
		if _, err := fmt.Fprintf(w, "\n%s paid %s for:\n", f.Name(row.Payer), f.Amount(row.TotalPaid)); err != nil {
			return err
		}
		t := newTable(alignLeft, alignRight)
		for _, p := range model.SortedKeys(row.PaidFor) {
			t.add("  "+f.Name(p), f.Amount(row.PaidFor[p]))
		}
		if err := t.write(w); err != nil {
			return err
		}
	}

	if len(diags) > 0 {
		if _, err := fmt.Fprintln(w, "\nWarnings:"); err != nil {
			return err
		}
		for _, d := range diags {
			if _, err := fmt.Fprintf(w, "  %s: %s\n", d.Code, d.Message); err != nil {
				return err
			}
		}
	}
	return nil
}

// BalanceJSON is the JSON form of one participant's balance.
type BalanceJSON struct {
	Participant string            `json:"participant"`
	Name        string            `json:"name"`
	Archived    bool              `json:"archived,omitempty"`
	OwedToUser  string            `json:"owed_to_user"`
	UserOwes    string            `json:"user_owes"`
	Balance     string            `json:"balance"`
	VisualRatio float64           `json:"visual_ratio"`
	Diffs       map[string]string `json:"diffs"`
}

// ReimbursementJSON is the JSON form of a suggested transfer.
type ReimbursementJSON struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

// BalancesJSON is the document WriteBalancesJSON emits.
type BalancesJSON struct {
	Party          string              `json:"party"`
	Currency       string              `json:"currency"`
	Balances       []BalanceJSON       `json:"balances"`
	Reimbursements []ReimbursementJSON `json:"reimbursements"`
}

// WriteBalancesJSON writes balances and reimbursements as indented JSON.
// Amounts are decimal strings in major units.
func (f Formatter) WriteBalancesJSON(w io.Writer, balances map[string]model.Balance, rs []balance.Reimbursement) error {
	doc := BalancesJSON{
		Party:          f.party.ID,
		Currency:       f.party.Currency,
		Balances:       make([]BalanceJSON, 0, len(balances)),
		Reimbursements: make([]ReimbursementJSON, 0, len(rs)),
	}
	for _, p := range model.SortedKeys(balances) {
		b := balances[p]
		diffs := make(map[string]string, len(b.Diffs))
		for other, d := range b.Diffs {
			diffs[other] = f.Amount(d.DiffUnsplit)
		}
		doc.Balances = append(doc.Balances, BalanceJSON{
			Participant: p,
			Name:        f.Name(p),
			Archived:    f.party.Participants[p].Archived,
			OwedToUser:  f.Amount(b.OwedToUser),
			UserOwes:    f.Amount(b.UserOwes),
			Balance:     f.Amount(b.Balance),
			VisualRatio: math.Round(b.VisualRatio*1e4) / 1e4,
			Diffs:       diffs,
		})
	}
	for _, r := range rs {
		doc.Reimbursements = append(doc.Reimbursements, ReimbursementJSON{From: r.From, To: r.To, Amount: f.Amount(r.Amount)})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
