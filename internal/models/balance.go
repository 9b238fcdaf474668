package models

import "github.com/shopspring/decimal"

// GlobalScope is the group id of the no-group scope. Debts recorded outside
// any group live here; they never interact with group-scoped debts.
const GlobalScope = ""

// Balance represents "Ower owes OwedTo Amount within the scope GroupID."
//
// Invariants maintained by the ledger engine:
//   - canonical direction: for a pair {u, v} and scope, at most one of
//     (u, v) / (v, u) exists, and its Amount is strictly positive;
//   - no self-loops: Ower != OwedTo;
//   - zero-sum: per scope, everything owed equals everything owing.
type Balance struct {
	// Ower is the user who owes.
	Ower string

	// OwedTo is the user who is owed.
	OwedTo string

	// Amount is the outstanding debt. Always positive; a balance that
	// reaches zero is deleted rather than stored.
	Amount decimal.Decimal

	// GroupID is the scope of the debt, or GlobalScope for non-group debts.
	GroupID string
}

// BalanceEntry is one side of a user's balance view: a counterparty and the
// amount outstanding between them.
type BalanceEntry struct {
	UserID string
	Amount decimal.Decimal
}

// UserBalances is the per-user balance view within a scope.
type UserBalances struct {
	// Owes lists the users this user owes money to.
	Owes []BalanceEntry

	// OwedBy lists the users who owe this user money.
	OwedBy []BalanceEntry
}
