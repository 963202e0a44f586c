package ledger

import (
	"fmt"
	"strings"

	"github.com/cleared-dev/splitledger/internal/model"
	"github.com/cleared-dev/splitledger/internal/money"
)

// Validation rules.
const (
	RuleName         = "name"
	RulePayer        = "payer"
	RulePayerAmount  = "payer_amount"
	RuleShares       = "shares"
	RuleParticipant  = "participant"
	RuleArchived     = "archived"
	RuleWeight       = "weight"
	RuleExactAmount  = "exact_amount"
	RuleExactExceeds = "exact_exceeds_total"
	RuleExactTotal   = "exact_total"
	RuleAttachment   = "attachment"
)

// ValidationError describes a single rule an expense breaks.
type ValidationError struct {
	Rule    string
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", e.Rule, e.Message)
	}
	return fmt.Sprintf("%s [%s]: %s", e.Rule, e.Field, e.Message)
}

// ValidateExpense checks e against the party before it is written. The
// share resolver tolerates every one of these problems; the ledger does
// not accept them.
func ValidateExpense(e model.Expense, party model.Party) []ValidationError {
	return validateExpense(e, party, nil)
}

// validateExpense lets participants in keep an archived status, so edits to
// old expenses still validate.
func validateExpense(e model.Expense, party model.Party, keep map[string]bool) []ValidationError {
	var errs []ValidationError

	if strings.TrimSpace(e.Name) == "" {
		errs = append(errs, ValidationError{Rule: RuleName, Field: "name", Message: "name must not be empty"})
	}

	if len(e.PaidBy) == 0 {
		errs = append(errs, ValidationError{Rule: RulePayer, Field: "paid_by", Message: "at least one payer is required"})
	}
	for _, p := range model.SortedKeys(e.PaidBy) {
		if amt := e.PaidBy[p]; amt.Sign() <= 0 {
			errs = append(errs, ValidationError{
				Rule:    RulePayerAmount,
				Field:   "paid_by." + p,
				Message: fmt.Sprintf("amount %s must be positive", amt),
			})
		}
	}

	if len(e.Shares) == 0 {
		errs = append(errs, ValidationError{Rule: RuleShares, Field: "shares", Message: "at least one share is required"})
	}

	for _, p := range e.Participants() {
		switch {
		case !party.Exists(p):
			errs = append(errs, ValidationError{
				Rule:    RuleParticipant,
				Field:   p,
				Message: fmt.Sprintf("%q is not a participant", p),
			})
		case !party.Active(p) && !keep[p]:
			errs = append(errs, ValidationError{
				Rule:    RuleArchived,
				Field:   p,
				Message: fmt.Sprintf("%q is archived", p),
			})
		}
	}

	var exactSum money.Money
	hasDivide := false
	for _, p := range model.SortedKeys(e.Shares) {
		s := e.Shares[p]
		switch s.Kind {
		case model.ShareExact:
			if s.Amount.Sign() < 0 {
				errs = append(errs, ValidationError{
					Rule:    RuleExactAmount,
					Field:   "shares." + p,
					Message: fmt.Sprintf("exact amount %s must not be negative", s.Amount),
				})
			}
			exactSum = exactSum.Add(s.Amount)
		case model.ShareDivide:
			hasDivide = true
			if !s.Weight.IsPositive() {
				errs = append(errs, ValidationError{
					Rule:    RuleWeight,
					Field:   "shares." + p,
					Message: fmt.Sprintf("weight %s must be positive", s.Weight),
				})
			}
		default:
			errs = append(errs, ValidationError{
				Rule:    RuleShares,
				Field:   "shares." + p,
				Message: fmt.Sprintf("unknown share kind %q", s.Kind),
			})
		}
	}

	for i, a := range e.Attachments {
		if strings.TrimSpace(a) == "" {
			errs = append(errs, ValidationError{
				Rule:    RuleAttachment,
				Field:   fmt.Sprintf("attachments[%d]", i),
				Message: "attachment reference must not be empty",
			})
		}
	}

	total := e.Total()
	switch {
	case len(e.Shares) == 0 || len(e.PaidBy) == 0:
	case hasDivide && exactSum > total:
		errs = append(errs, ValidationError{
			Rule:    RuleExactExceeds,
			Field:   "shares",
			Message: fmt.Sprintf("exact shares (%s) exceed the total (%s)", exactSum, total),
		})
	case !hasDivide && exactSum != total:
		errs = append(errs, ValidationError{
			Rule:    RuleExactTotal,
			Field:   "shares",
			Message: fmt.Sprintf("exact shares (%s) must add up to the total (%s)", exactSum, total),
		})
	}

	return errs
}

// ValidateParticipantID rejects IDs that cannot be stored in the ledger's
// file formats.
func ValidateParticipantID(id string) error {
	if id == "" {
		return fmt.Errorf("participant id must not be empty")
	}
	if strings.ContainsAny(id, "=;,@ \t\r\n\"") {
		return fmt.Errorf("participant id %q must not contain spaces, quotes or any of = ; , @", id)
	}
	return nil
}

func joinValidation(errs []ValidationError) string {
	msgs := make([]string, len(errs))
	for i, ve := range errs {
		msgs[i] = ve.Error()
	}
	return strings.Join(msgs, "; ")
}
