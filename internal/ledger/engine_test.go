package ledger_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/settleup/internal/ledger"
	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/storage/sqlite"
)

func newTestEngine(t *testing.T) *ledger.Engine {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return ledger.New(store)
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// requireOwes asserts that within the scope, ower owes owedTo exactly amount
// and owes nothing in the other direction.
func requireOwes(t *testing.T, e *ledger.Engine, ower, owedTo, amount, groupID string) {
	t.Helper()
	balances, err := e.Balances(context.Background(), ower, groupID)
	require.NoError(t, err)

	found := false
	for _, entry := range balances.Owes {
		if entry.UserID == owedTo {
			found = true
			assert.True(t, entry.Amount.Equal(d(amount)),
				"%s owes %s %s, want %s", ower, owedTo, entry.Amount, amount)
		}
	}
	require.True(t, found, "%s has no balance toward %s", ower, owedTo)

	for _, entry := range balances.OwedBy {
		assert.NotEqual(t, owedTo, entry.UserID,
			"reverse record exists alongside %s -> %s", ower, owedTo)
	}
}

func TestApplyDeltaAccumulates(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, e.ApplyDelta(ctx, "alice", "bob", d("20"), models.GlobalScope))
	require.NoError(t, e.ApplyDelta(ctx, "alice", "bob", d("15"), models.GlobalScope))

	requireOwes(t, e, "alice", "bob", "35", models.GlobalScope)
}

func TestApplyDeltaZeroDeletesRecord(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, e.ApplyDelta(ctx, "alice", "bob", d("20"), models.GlobalScope))
	require.NoError(t, e.ApplyDelta(ctx, "alice", "bob", d("-20"), models.GlobalScope))

	balances, err := e.Balances(ctx, "alice", models.GlobalScope)
	require.NoError(t, err)
	assert.Empty(t, balances.Owes)
	assert.Empty(t, balances.OwedBy)
}

func TestApplyDeltaFlipsDirectionOnOverpayment(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	// alice owes bob 20; bob pays 35 on alice's behalf, so now bob owes alice.
	require.NoError(t, e.ApplyDelta(ctx, "alice", "bob", d("20"), models.GlobalScope))
	require.NoError(t, e.ApplyDelta(ctx, "alice", "bob", d("-35"), models.GlobalScope))

	requireOwes(t, e, "bob", "alice", "15", models.GlobalScope)
}

func TestApplyDeltaNegativeOnEmptyPair(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	// No record yet: a negative delta establishes debt in the other direction.
	require.NoError(t, e.ApplyDelta(ctx, "alice", "bob", d("-10"), models.GlobalScope))

	requireOwes(t, e, "bob", "alice", "10", models.GlobalScope)
}

func TestApplyDeltaSelfAndZeroAreNoOps(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, e.ApplyDelta(ctx, "alice", "alice", d("10"), models.GlobalScope))
	require.NoError(t, e.ApplyDelta(ctx, "alice", "bob", decimal.Zero, models.GlobalScope))

	balances, err := e.Balances(ctx, "alice", models.GlobalScope)
	require.NoError(t, err)
	assert.Empty(t, balances.Owes)
	assert.Empty(t, balances.OwedBy)
}

func TestScopesAreIsolated(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, e.ApplyDelta(ctx, "alice", "bob", d("20"), "trip"))
	require.NoError(t, e.ApplyDelta(ctx, "alice", "bob", d("5"), models.GlobalScope))

	requireOwes(t, e, "alice", "bob", "20", "trip")
	requireOwes(t, e, "alice", "bob", "5", models.GlobalScope)
}

func TestApplyAllExpenseAndReversal(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	expense := &models.Expense{
		PaidBy:  "alice",
		GroupID: "trip",
		Participants: []models.Participant{
			{UserID: "alice", Amount: d("25")},
			{UserID: "bob", Amount: d("25")},
			{UserID: "carol", Amount: d("25")},
		},
	}

	require.NoError(t, e.ApplyAll(ctx, ledger.ExpenseDeltas(expense), "trip"))
	requireOwes(t, e, "bob", "alice", "25", "trip")
	requireOwes(t, e, "carol", "alice", "25", "trip")

	// Backing the expense out leaves the scope empty.
	require.NoError(t, e.ApplyAll(ctx, ledger.ReversalDeltas(expense), "trip"))
	net, err := e.NetPositions(ctx, "trip")
	require.NoError(t, err)
	assert.Empty(t, net)
}

func TestNetBalance(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, e.ApplyDelta(ctx, "alice", "bob", d("30"), models.GlobalScope))
	require.NoError(t, e.ApplyDelta(ctx, "carol", "alice", d("10"), models.GlobalScope))

	net, err := e.NetBalance(ctx, "alice", models.GlobalScope)
	require.NoError(t, err)
	assert.True(t, net.Equal(d("-20")), "alice net = %s, want -20", net)
}

func TestNetPositionsZeroSum(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, e.ApplyDelta(ctx, "alice", "bob", d("33.33"), "trip"))
	require.NoError(t, e.ApplyDelta(ctx, "carol", "bob", d("33.34"), "trip"))
	require.NoError(t, e.ApplyDelta(ctx, "bob", "carol", d("10"), "trip"))

	net, err := e.NetPositions(ctx, "trip")
	require.NoError(t, err)

	total := decimal.Zero
	for _, n := range net {
		total = total.Add(n)
	}
	assert.True(t, total.IsZero(), "scope nets to %s, want zero", total)
}

func TestSimplifyThroughEngine(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, e.ApplyDelta(ctx, "alice", "bob", d("30"), "trip"))
	require.NoError(t, e.ApplyDelta(ctx, "bob", "carol", d("30"), "trip"))

	transfers, err := e.Simplify(ctx, "trip")
	require.NoError(t, err)
	require.Len(t, transfers, 1)
	assert.Equal(t, "alice", transfers[0].From)
	assert.Equal(t, "carol", transfers[0].To)
	assert.True(t, transfers[0].Amount.Equal(d("30")))

	// Simplify is read-only: the underlying records are untouched.
	requireOwes(t, e, "alice", "bob", "30", "trip")
	requireOwes(t, e, "bob", "carol", "30", "trip")
}

func TestConcurrentDeltasOnDistinctPairs(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	// Distinct pairs share the scope lock only in read mode, so their store
	// transactions run concurrently and must queue, not fail.
	pairs := [][2]string{
		{"alice", "bob"}, {"carol", "dave"}, {"eve", "frank"},
		{"grace", "heidi"}, {"ivan", "judy"}, {"kate", "leo"},
	}

	done := make(chan error, len(pairs))
	for _, pair := range pairs {
		go func() {
			for range 10 {
				if err := e.ApplyDelta(ctx, pair[0], pair[1], d("1"), "trip"); err != nil {
					done <- err
					return
				}
			}
			done <- nil
		}()
	}
	for range pairs {
		require.NoError(t, <-done)
	}

	for _, pair := range pairs {
		requireOwes(t, e, pair[0], pair[1], "10", "trip")
	}
}

func TestBalancesNeverShowBothDirections(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, e.ApplyDelta(ctx, "alice", "bob", d("20"), models.GlobalScope))

	// Flip the pair's direction back and forth while a reader polls; the
	// reader must never see records in both directions at once.
	stop := make(chan struct{})
	flips := make(chan error, 1)
	go func() {
		defer close(flips)
		for {
			select {
			case <-stop:
				return
			default:
			}
			if err := e.ApplyDelta(ctx, "alice", "bob", d("-40"), models.GlobalScope); err != nil {
				flips <- err
				return
			}
			if err := e.ApplyDelta(ctx, "alice", "bob", d("40"), models.GlobalScope); err != nil {
				flips <- err
				return
			}
		}
	}()

	for range 100 {
		balances, err := e.Balances(ctx, "alice", models.GlobalScope)
		require.NoError(t, err)
		require.False(t, len(balances.Owes) > 0 && len(balances.OwedBy) > 0,
			"read observed both directions of one pair: %+v", balances)
	}

	close(stop)
	require.NoError(t, <-flips)
}

func TestConcurrentDeltasLinearize(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	const workers = 8
	const perWorker = 10

	done := make(chan error, workers)
	for range workers {
		go func() {
			for range perWorker {
				if err := e.ApplyDelta(ctx, "alice", "bob", d("1"), models.GlobalScope); err != nil {
					done <- err
					return
				}
			}
			done <- nil
		}()
	}
	for range workers {
		require.NoError(t, <-done)
	}

	requireOwes(t, e, "alice", "bob", "80", models.GlobalScope)
}
