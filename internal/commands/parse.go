package commands

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/splitledger/internal/model"
	"github.com/cleared-dev/splitledger/internal/money"
)

// splitPair splits "key=value".
func splitPair(raw, what string) (string, string, error) {
	k, v, ok := strings.Cut(raw, "=")
	k = strings.TrimSpace(k)
	v = strings.TrimSpace(v)
	if !ok || k == "" || v == "" {
		return "", "", fmt.Errorf("invalid %s %q: expected key=value", what, raw)
	}
	return k, v, nil
}

// parseParticipant parses "id=Display Name".
func parseParticipant(raw string) (model.Participant, error) {
	k, v, err := splitPair(raw, "participant")
	if err != nil {
		return model.Participant{}, err
	}
	return model.Participant{ID: k, Name: v}, nil
}

// parsePayments parses repeated "id=12.50" flags into minor units.
func parsePayments(raw []string, decimals int32) (map[string]money.Money, error) {
	out := make(map[string]money.Money, len(raw))
	for _, r := range raw {
		k, v, err := splitPair(r, "payment")
		if err != nil {
			return nil, err
		}
		m, err := money.Parse(v, decimals)
		if err != nil {
			return nil, err
		}
		out[k] += m
	}
	return out, nil
}

// parseShares parses repeated "id=exact:3.00" or "id=divide:1.5" flags.
// Exact amounts are in major units.
func parseShares(raw []string, decimals int32) (map[string]model.ShareSpec, error) {
	out := make(map[string]model.ShareSpec, len(raw))
	for _, r := range raw {
		k, v, err := splitPair(r, "share")
		if err != nil {
			return nil, err
		}
		if _, dup := out[k]; dup {
			return nil, fmt.Errorf("duplicate share for %q", k)
		}
		kind, val, ok := strings.Cut(v, ":")
		if !ok {
			return nil, fmt.Errorf("invalid share %q: expected exact:AMOUNT or divide:WEIGHT", r)
		}
		switch model.ShareKind(kind) {
		case model.ShareExact:
			m, err := money.Parse(val, decimals)
			if err != nil {
				return nil, err
			}
			out[k] = model.Exact(m)
		case model.ShareDivide:
			w, err := decimal.NewFromString(val)
			if err != nil {
				return nil, fmt.Errorf("invalid weight %q: %w", val, err)
			}
			out[k] = model.Divide(w)
		default:
			return nil, fmt.Errorf("%w: %q", model.ErrUnknownShareKind, kind)
		}
	}
	return out, nil
}

// evenShares gives every active participant weight 1.
func evenShares(p model.Party) map[string]model.ShareSpec {
	out := make(map[string]model.ShareSpec)
	for _, pid := range p.ParticipantIDs() {
		if p.Active(pid) {
			out[pid] = model.DivideInt(1)
		}
	}
	return out
}
