// Package ledger implements the balance engine: it folds signed debt deltas
// into canonical-direction balance records and answers balance and
// simplification queries over them.
//
// Canonical direction means that for any pair of users and scope at most one
// record exists, and its amount is strictly positive. A delta that drives a
// record to zero deletes it; a delta that drives it negative deletes it and
// re-establishes the remainder in the opposite direction. The net effect of
// any delta sequence between a pair equals the algebraic sum of the deltas.
package ledger

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/mmynk/settleup/internal/calculator"
	"github.com/mmynk/settleup/internal/metrics"
	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/storage"
)

// Delta is one signed debt change: positive Amount increases what Ower owes
// OwedTo, negative decreases it.
type Delta struct {
	Ower   string
	OwedTo string
	Amount decimal.Decimal
}

// Engine applies deltas and serves balance queries. All methods are safe for
// concurrent use.
type Engine struct {
	store  storage.BalanceStore
	scopes *scopeLocks
}

// New creates an Engine on top of the given balance store.
func New(store storage.BalanceStore) *Engine {
	return &Engine{store: store, scopes: newScopeLocks()}
}

// ApplyDelta records that ower's debt to owedTo changes by the signed amount
// within the scope. Self-deltas are a no-op, mirroring that an expense payer
// cannot owe themselves. The whole operation, including a possible direction
// flip, commits atomically.
func (e *Engine) ApplyDelta(ctx context.Context, ower, owedTo string, amount decimal.Decimal, groupID string) error {
	if ower == owedTo || amount.IsZero() {
		return nil
	}

	sl := e.scopes.get(groupID)
	sl.mu.RLock()
	defer sl.mu.RUnlock()

	pm := sl.pair(ower, owedTo)
	pm.Lock()
	defer pm.Unlock()

	return e.store.UpdateBalances(ctx, func(tx storage.BalanceTx) error {
		return applyDelta(ctx, tx, ower, owedTo, amount, groupID)
	})
}

// ApplyAll applies a batch of deltas to one scope as a single atomic unit:
// either every delta commits or none does. Expense create/edit/delete go
// through here so a failure partway cannot strand the ledger with only some
// participants' shares applied. The batch verifies the scope's zero-sum
// invariant before committing.
func (e *Engine) ApplyAll(ctx context.Context, deltas []Delta, groupID string) error {
	if len(deltas) == 0 {
		return nil
	}

	sl := e.scopes.get(groupID)
	sl.mu.Lock()
	defer sl.mu.Unlock()

	return e.store.UpdateBalances(ctx, func(tx storage.BalanceTx) error {
		for _, d := range deltas {
			if err := applyDelta(ctx, tx, d.Ower, d.OwedTo, d.Amount, groupID); err != nil {
				return err
			}
		}
		return verifyScope(ctx, tx, groupID)
	})
}

// Balances returns what the user owes and is owed within the scope.
func (e *Engine) Balances(ctx context.Context, userID, groupID string) (*models.UserBalances, error) {
	return e.store.ListBalancesByUser(ctx, userID, groupID)
}

// NetBalance returns the user's net position within the scope: what they are
// owed minus what they owe.
func (e *Engine) NetBalance(ctx context.Context, userID, groupID string) (decimal.Decimal, error) {
	balances, err := e.store.ListBalancesByUser(ctx, userID, groupID)
	if err != nil {
		return decimal.Zero, err
	}
	net := decimal.Zero
	for _, entry := range balances.OwedBy {
		net = net.Add(entry.Amount)
	}
	for _, entry := range balances.Owes {
		net = net.Sub(entry.Amount)
	}
	return net, nil
}

// NetPositions returns every user's signed net position within the scope.
func (e *Engine) NetPositions(ctx context.Context, groupID string) (map[string]decimal.Decimal, error) {
	sl := e.scopes.get(groupID)
	sl.mu.Lock()
	defer sl.mu.Unlock()

	balances, err := e.store.ListBalancesByScope(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return calculator.NetPositions(balances), nil
}

// Simplify computes a reduced list of payments that settles the scope. The
// scope lock is held exclusively for the scan, so the snapshot is consistent
// and repeated calls without intervening mutations return identical output.
func (e *Engine) Simplify(ctx context.Context, groupID string) ([]calculator.Transfer, error) {
	sl := e.scopes.get(groupID)
	sl.mu.Lock()
	defer sl.mu.Unlock()

	balances, err := e.store.ListBalancesByScope(ctx, groupID)
	if err != nil {
		return nil, err
	}

	timer := prometheus.NewTimer(metrics.SimplifyDuration)
	transfers := calculator.Simplify(balances)
	timer.ObserveDuration()

	metrics.TransfersSuggested.Add(float64(len(transfers)))
	return transfers, nil
}

// applyDelta folds one signed delta into the record for (ower, owedTo).
// The loop runs at most twice: a delta that drives an existing balance
// negative carries the remainder into the opposite direction, and the
// canonical-direction invariant guarantees the reversed slot cannot flip it
// back.
func applyDelta(ctx context.Context, tx storage.BalanceTx, ower, owedTo string, amount decimal.Decimal, groupID string) error {
	if ower == owedTo || amount.IsZero() {
		return nil
	}
	metrics.DeltasApplied.Inc()

	for range 2 {
		existing, err := tx.Get(ctx, ower, owedTo, groupID)
		if err != nil {
			return err
		}

		if existing == nil {
			if amount.IsPositive() {
				return tx.Upsert(ctx, &models.Balance{
					Ower:    ower,
					OwedTo:  owedTo,
					Amount:  amount,
					GroupID: groupID,
				})
			}
			// Nothing to reduce: the debt belongs in the other direction.
			ower, owedTo = owedTo, ower
			amount = amount.Neg()
			continue
		}

		sum := existing.Amount.Add(amount)
		switch {
		case sum.IsPositive():
			existing.Amount = sum
			return tx.Upsert(ctx, existing)
		case sum.IsZero():
			return tx.Delete(ctx, ower, owedTo, groupID)
		default:
			// Overpaid: drop this record and carry the excess over as debt
			// in the opposite direction.
			if err := tx.Delete(ctx, ower, owedTo, groupID); err != nil {
				return err
			}
			metrics.DirectionFlips.Inc()
			ower, owedTo = owedTo, ower
			amount = sum.Neg()
		}
	}

	return fmt.Errorf("%w: delta between %s and %s flipped twice in scope %q",
		models.ErrConsistency, owedTo, ower, groupID)
}

// verifyScope re-reads the scope inside the transaction and checks the
// ledger invariants: positive amounts, no self-loops, canonical direction,
// and zero net sum. A violation aborts the batch.
func verifyScope(ctx context.Context, tx storage.BalanceTx, groupID string) error {
	balances, err := tx.ListScope(ctx, groupID)
	if err != nil {
		return err
	}

	seen := make(map[pairKey]bool, len(balances))
	for _, b := range balances {
		if !b.Amount.IsPositive() {
			return fmt.Errorf("%w: non-positive balance %s between %s and %s in scope %q",
				models.ErrConsistency, b.Amount, b.Ower, b.OwedTo, groupID)
		}
		if b.Ower == b.OwedTo {
			return fmt.Errorf("%w: self-loop for %s in scope %q",
				models.ErrConsistency, b.Ower, groupID)
		}
		key := newPairKey(b.Ower, b.OwedTo)
		if seen[key] {
			return fmt.Errorf("%w: both directions present between %s and %s in scope %q",
				models.ErrConsistency, b.Ower, b.OwedTo, groupID)
		}
		seen[key] = true
	}

	total := decimal.Zero
	for _, net := range calculator.NetPositions(balances) {
		total = total.Add(net)
	}
	if !total.IsZero() {
		return fmt.Errorf("%w: scope %q nets to %s, want zero",
			models.ErrConsistency, groupID, total)
	}
	return nil
}

// ExpenseDeltas converts an expense into its balance deltas: every
// participant except the payer owes the payer their share.
func ExpenseDeltas(expense *models.Expense) []Delta {
	var deltas []Delta
	for _, p := range expense.Participants {
		if p.UserID == expense.PaidBy {
			continue
		}
		deltas = append(deltas, Delta{Ower: p.UserID, OwedTo: expense.PaidBy, Amount: p.Amount})
	}
	return deltas
}

// ReversalDeltas returns the exact negation of an expense's deltas, used to
// back out an expense on edit or delete.
func ReversalDeltas(expense *models.Expense) []Delta {
	deltas := ExpenseDeltas(expense)
	for i := range deltas {
		deltas[i].Amount = deltas[i].Amount.Neg()
	}
	return deltas
}
