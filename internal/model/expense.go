package model

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/splitledger/internal/money"
)

// ShareKind tags a ShareSpec.
type ShareKind string

const (
	ShareExact  ShareKind = "exact"
	ShareDivide ShareKind = "divide"
)

// ShareSpec says how much of an expense a participant carries: either a
// fixed amount or a weight applied to whatever the fixed amounts leave.
type ShareSpec struct {
	Kind   ShareKind
	Amount money.Money     // ShareExact only
	Weight decimal.Decimal // ShareDivide only
}

// Exact returns a fixed-amount share.
func Exact(amount money.Money) ShareSpec {
	return ShareSpec{Kind: ShareExact, Amount: amount}
}

// Divide returns a proportional share.
func Divide(weight decimal.Decimal) ShareSpec {
	return ShareSpec{Kind: ShareDivide, Weight: weight}
}

// DivideInt is Divide for whole-number weights.
func DivideInt(weight int64) ShareSpec {
	return Divide(decimal.NewFromInt(weight))
}

// String renders the share as "exact:<minor units>" or "divide:<weight>".
func (s ShareSpec) String() string {
	switch s.Kind {
	case ShareExact:
		return string(ShareExact) + ":" + s.Amount.String()
	case ShareDivide:
		return string(ShareDivide) + ":" + s.Weight.String()
	}
	return string(s.Kind)
}

// MarshalText encodes the share in its String form.
func (s ShareSpec) MarshalText() ([]byte, error) {
	if s.Kind != ShareExact && s.Kind != ShareDivide {
		return nil, fmt.Errorf("share %q: %w", s.Kind, ErrUnknownShareKind)
	}
	return []byte(s.String()), nil
}

// UnmarshalText decodes the String form.
func (s *ShareSpec) UnmarshalText(text []byte) error {
	parsed, err := ParseShareSpec(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ErrUnknownShareKind is returned when a share has neither tag.
var ErrUnknownShareKind = errors.New("unknown share kind")

// ParseShareSpec parses the String form. Exact amounts are minor units.
func ParseShareSpec(s string) (ShareSpec, error) {
	kind, value, ok := strings.Cut(s, ":")
	if !ok {
		return ShareSpec{}, fmt.Errorf("share %q: missing kind separator", s)
	}
	switch ShareKind(kind) {
	case ShareExact:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return ShareSpec{}, fmt.Errorf("share %q: parsing amount: %w", s, err)
		}
		return Exact(money.Money(n)), nil
	case ShareDivide:
		w, err := decimal.NewFromString(value)
		if err != nil {
			return ShareSpec{}, fmt.Errorf("share %q: parsing weight: %w", s, err)
		}
		return Divide(w), nil
	}
	return ShareSpec{}, fmt.Errorf("share %q: %w", s, ErrUnknownShareKind)
}

// Expense is one ledger record. It is never edited in place by the engine;
// a change replaces the whole record under the same ID.
type Expense struct {
	ID          string                 `json:"id"`
	Name        string                 `json:"name"`
	Timestamp   time.Time              `json:"timestamp"`
	PaidBy      map[string]money.Money `json:"paid_by"`
	Shares      map[string]ShareSpec   `json:"shares"`
	Transfer    bool                   `json:"transfer,omitempty"`
	Hash        string                 `json:"hash,omitempty"`
	Attachments []string               `json:"attachments,omitempty"`
}

// Total returns the sum of all payments, which is the expense's cost.
func (e Expense) Total() money.Money {
	var total money.Money
	for _, m := range e.PaidBy {
		total = total.Add(m)
	}
	return total
}

// Participants returns every participant id the expense mentions, sorted.
func (e Expense) Participants() []string {
	seen := make(map[string]bool, len(e.PaidBy)+len(e.Shares))
	for p := range e.PaidBy {
		seen[p] = true
	}
	for p := range e.Shares {
		seen[p] = true
	}
	return sortedKeys(seen)
}

// SortedKeys returns the keys of m in ascending order.
func SortedKeys[V any](m map[string]V) []string {
	return sortedKeys(m)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
