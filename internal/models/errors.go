package models

import "errors"

// Sentinel errors returned by services and the ledger engine. Handlers map
// these onto HTTP responses; anything else is treated as internal.
var (
	ErrNotFound             = errors.New("not found")
	ErrInvalidAmount        = errors.New("amount must be positive")
	ErrSelfSettlement       = errors.New("cannot settle with yourself")
	ErrNoParticipants       = errors.New("at least one participant is required")
	ErrDuplicateParticipant = errors.New("duplicate participants not allowed")
	ErrPayerNotParticipant  = errors.New("payer must be a participant")
	ErrNotGroupMember       = errors.New("user is not a member of the group")
	ErrInvalidSplit         = errors.New("invalid split")
	ErrForbidden            = errors.New("not allowed")

	// ErrConsistency signals a broken ledger invariant. It indicates a bug
	// in atomicity handling, never a user error, and aborts the enclosing
	// transaction.
	ErrConsistency = errors.New("ledger consistency violated")
)
