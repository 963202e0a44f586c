package model

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/text/unicode/norm"
)

// DomainExpense separates expense content hashes from any other hash.
const DomainExpense = "splitledger/expense/v1"

type canonicalExpense struct {
	Name        string            `json:"name"`
	Timestamp   string            `json:"timestamp"`
	PaidBy      map[string]int64  `json:"paid_by"`
	Shares      map[string]string `json:"shares"`
	Transfer    bool              `json:"transfer"`
	Attachments []string          `json:"attachments"`
}

// ContentHash returns a stable digest of the expense's content, used to
// detect changes between replicas. ID and Hash are not part of the content.
func ContentHash(e Expense) (string, error) {
	c := canonicalExpense{
		Name:        norm.NFC.String(e.Name),
		Timestamp:   e.Timestamp.UTC().Format(time.RFC3339Nano),
		PaidBy:      make(map[string]int64, len(e.PaidBy)),
		Shares:      make(map[string]string, len(e.Shares)),
		Transfer:    e.Transfer,
		Attachments: e.Attachments,
	}
	if c.Attachments == nil {
		c.Attachments = []string{}
	}
	for p, m := range e.PaidBy {
		c.PaidBy[norm.NFC.String(p)] = m.Int64()
	}
	for p, s := range e.Shares {
		c.Shares[norm.NFC.String(p)] = s.String()
	}

	// encoding/json sorts map keys, which is all the canonical form needs.
	data, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encoding expense for hashing: %w", err)
	}
	return hashWithDomain(DomainExpense, data), nil
}

// hashWithDomain computes SHA256(domain || 0x00 || data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
