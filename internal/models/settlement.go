package models

import "github.com/shopspring/decimal"

// Settlement represents a recorded payment between two users to clear debt.
type Settlement struct {
	// ID is the unique identifier for the settlement (UUID format).
	ID string

	// GroupID is the scope, or GlobalScope for a non-group settlement.
	GroupID string

	// FromUserID is the user who paid (debtor settling up).
	FromUserID string

	// ToUserID is the user who received payment (creditor being paid).
	ToUserID string

	// Amount is the payment amount. Always positive.
	Amount decimal.Decimal

	// CreatedAt is the Unix timestamp when the settlement was recorded.
	CreatedAt int64

	// CreatedBy is the user who recorded this settlement.
	CreatedBy string

	// Note is an optional description for the settlement.
	Note string
}
