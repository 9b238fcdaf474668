package models

import "github.com/shopspring/decimal"

// SplitType describes how an expense is divided among its participants.
type SplitType string

const (
	// SplitEqual divides the amount evenly, with the rounding remainder
	// absorbed by the last participant.
	SplitEqual SplitType = "EQUAL"

	// SplitExact uses caller-supplied per-participant amounts, which must
	// sum to the expense amount.
	SplitExact SplitType = "EXACT"

	// SplitPercent uses caller-supplied percentages, which must sum to 100.
	SplitPercent SplitType = "PERCENT"
)

// Valid reports whether the split type is one of the known values.
func (t SplitType) Valid() bool {
	switch t {
	case SplitEqual, SplitExact, SplitPercent:
		return true
	}
	return false
}

// Participant is one user's part of an expense. Amount is the computed share
// for EQUAL and PERCENT splits and the caller-supplied share for EXACT ones.
type Participant struct {
	UserID     string
	Amount     decimal.Decimal
	Percentage decimal.Decimal
}

// Expense represents a shared cost paid by one user on behalf of several.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// Description is the human-readable label, e.g. "Dinner at Luigi's".
	Description string

	// Amount is the total expense amount.
	Amount decimal.Decimal

	// PaidBy is the user who fronted the money. Must be a participant.
	PaidBy string

	// CreatedBy is the user who recorded the expense.
	CreatedBy string

	// GroupID is the scope, or GlobalScope for a non-group expense.
	GroupID string

	// SplitType records how Participants' shares were derived.
	SplitType SplitType

	// Participants are the users splitting the expense, with their shares.
	Participants []Participant

	// CreatedAt is the Unix timestamp when the expense was recorded.
	CreatedAt int64
}
