package service_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/service"
)

func TestSettlementReducesDebt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.expenses.Create(ctx, service.ExpenseInput{
		Amount: d("40"), PaidBy: "alice", SplitType: models.SplitEqual,
		Participants: []models.Participant{{UserID: "alice"}, {UserID: "bob"}},
	}, "alice")
	require.NoError(t, err)
	f.requireNet(t, "bob", models.GlobalScope, "-20")

	settlement, err := f.settlements.Create(ctx, service.SettlementInput{
		FromUserID: "bob", ToUserID: "alice", Amount: d("15"), Note: "partial",
	}, "bob")
	require.NoError(t, err)
	require.NotEmpty(t, settlement.ID)

	f.requireNet(t, "bob", models.GlobalScope, "-5")
	f.requireNet(t, "alice", models.GlobalScope, "5")
}

func TestSettlementOverpaymentFlipsDirection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.expenses.Create(ctx, service.ExpenseInput{
		Amount: d("40"), PaidBy: "alice", SplitType: models.SplitEqual,
		Participants: []models.Participant{{UserID: "alice"}, {UserID: "bob"}},
	}, "alice")
	require.NoError(t, err)

	// Bob owes 20 but pays 35: alice now owes bob the excess.
	_, err = f.settlements.Create(ctx, service.SettlementInput{
		FromUserID: "bob", ToUserID: "alice", Amount: d("35"),
	}, "bob")
	require.NoError(t, err)

	f.requireNet(t, "alice", models.GlobalScope, "-15")
	f.requireNet(t, "bob", models.GlobalScope, "15")
}

func TestSettlementValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.settlements.Create(ctx, service.SettlementInput{
		FromUserID: "alice", ToUserID: "alice", Amount: d("10"),
	}, "alice")
	assert.ErrorIs(t, err, models.ErrSelfSettlement)

	_, err = f.settlements.Create(ctx, service.SettlementInput{
		FromUserID: "alice", ToUserID: "bob", Amount: d("0"),
	}, "alice")
	assert.ErrorIs(t, err, models.ErrInvalidAmount)

	_, err = f.settlements.Create(ctx, service.SettlementInput{
		FromUserID: "alice", ToUserID: "bob", Amount: d("-5"),
	}, "alice")
	assert.ErrorIs(t, err, models.ErrInvalidAmount)
}

func TestSettlementRequiresGroupMembership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	group, err := f.groups.Create(ctx, "Trip", []string{"bob"}, "alice")
	require.NoError(t, err)

	_, err = f.settlements.Create(ctx, service.SettlementInput{
		FromUserID: "alice", ToUserID: "mallory", Amount: d("10"), GroupID: group.ID,
	}, "alice")
	assert.ErrorIs(t, err, models.ErrNotGroupMember)
}

func TestSettlementScopedToGroup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	group, err := f.groups.Create(ctx, "Trip", []string{"bob"}, "alice")
	require.NoError(t, err)

	_, err = f.expenses.Create(ctx, service.ExpenseInput{
		Amount: d("40"), PaidBy: "alice", GroupID: group.ID, SplitType: models.SplitEqual,
		Participants: []models.Participant{{UserID: "alice"}, {UserID: "bob"}},
	}, "alice")
	require.NoError(t, err)

	// A group settlement does not touch the no-group scope.
	_, err = f.settlements.Create(ctx, service.SettlementInput{
		FromUserID: "bob", ToUserID: "alice", Amount: d("20"), GroupID: group.ID,
	}, "bob")
	require.NoError(t, err)

	f.requireNet(t, "bob", group.ID, "0")
	f.requireNet(t, "bob", models.GlobalScope, "0")

	settlements, err := f.settlements.GroupSettlements(ctx, group.ID, "alice")
	require.NoError(t, err)
	require.Len(t, settlements, 1)
	assert.Equal(t, decimal.NewFromInt(20).String(), settlements[0].Amount.String())
}
