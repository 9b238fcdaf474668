// Package calculator holds the pure money math: net position aggregation,
// greedy debt simplification, and expense share computation. Nothing here
// touches storage or does I/O.
package calculator

import (
	"github.com/shopspring/decimal"

	"github.com/mmynk/settleup/internal/models"
)

// NetPositions aggregates a scope's balance records into one signed net
// amount per user: positive means the user is owed money overall, negative
// means they owe. Users appearing in no record have net zero and are absent
// from the result.
//
// Because balances are zero-sum per scope, the values always sum to zero.
func NetPositions(balances []models.Balance) map[string]decimal.Decimal {
	net := make(map[string]decimal.Decimal, 2*len(balances))
	for _, b := range balances {
		net[b.Ower] = net[b.Ower].Sub(b.Amount)
		net[b.OwedTo] = net[b.OwedTo].Add(b.Amount)
	}
	return net
}
