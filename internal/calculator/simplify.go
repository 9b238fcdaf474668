package calculator

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mmynk/settleup/internal/models"
)

// negligible is the threshold below which a remainder counts as settled.
// It absorbs rounding noise left over from share computation.
var negligible = decimal.New(1, -2) // 0.01

// Transfer is a proposed payment: From should pay To the given amount.
type Transfer struct {
	From   string
	To     string
	Amount decimal.Decimal
}

type party struct {
	userID string
	amount decimal.Decimal // positive magnitude
}

// Simplify reduces a scope's balance records to a short list of payments
// that settles everyone's net position.
//
// Algorithm:
//  1. Compute net positions and drop anyone within the negligible threshold.
//  2. Partition into creditors (owed money) and debtors (owe money).
//  3. Sort both by magnitude descending, ties by user id.
//  4. Greedily match the largest debtor against the largest creditor.
//
// The result has at most creditors+debtors-1 entries. It is a heuristic,
// not a minimum-transaction solver (that problem is NP-hard); callers must
// not rely on global optimality, only on the settlement property that each
// user's payments minus receipts equal their net position.
func Simplify(balances []models.Balance) []Transfer {
	net := NetPositions(balances)

	var creditors, debtors []party
	for userID, amount := range net {
		if amount.Abs().LessThanOrEqual(negligible) {
			continue // already settled, or rounding noise
		}
		if amount.IsPositive() {
			creditors = append(creditors, party{userID, amount})
		} else {
			debtors = append(debtors, party{userID, amount.Neg()})
		}
	}

	sortByMagnitude(creditors)
	sortByMagnitude(debtors)

	var transfers []Transfer
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		debtor, creditor := &debtors[i], &creditors[j]

		// Emit and decrement the same rounded amount so the payments
		// reconcile exactly with the running remainders.
		amount := decimal.Min(debtor.amount, creditor.amount).Round(2)
		transfers = append(transfers, Transfer{
			From:   debtor.userID,
			To:     creditor.userID,
			Amount: amount,
		})

		debtor.amount = debtor.amount.Sub(amount)
		creditor.amount = creditor.amount.Sub(amount)

		if debtor.amount.LessThan(negligible) {
			i++
		}
		if creditor.amount.LessThan(negligible) {
			j++
		}
	}

	return transfers
}

// sortByMagnitude orders largest first; equal amounts fall back to user id
// so the output is reproducible regardless of map iteration order.
func sortByMagnitude(parties []party) {
	sort.Slice(parties, func(i, j int) bool {
		if !parties[i].amount.Equal(parties[j].amount) {
			return parties[i].amount.GreaterThan(parties[j].amount)
		}
		return parties[i].userID < parties[j].userID
	})
}
