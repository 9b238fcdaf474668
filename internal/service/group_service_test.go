package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/settleup/internal/models"
)

func TestGroupCreateIncludesCreator(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	group, err := f.groups.Create(ctx, "Trip", []string{"bob", "carol"}, "alice")
	require.NoError(t, err)
	require.NotEmpty(t, group.ID)

	assert.True(t, group.HasMember("alice"), "creator must be a member")
	assert.Len(t, group.Members, 3)

	// Creator already listed: no duplicate member.
	group, err = f.groups.Create(ctx, "Solo", []string{"alice"}, "alice")
	require.NoError(t, err)
	assert.Len(t, group.Members, 1)
}

func TestGroupMembershipChecks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	group, err := f.groups.Create(ctx, "Trip", []string{"bob"}, "alice")
	require.NoError(t, err)

	_, err = f.groups.AddMembers(ctx, group.ID, []string{"carol"}, "mallory")
	assert.ErrorIs(t, err, models.ErrNotGroupMember)

	err = f.groups.Delete(ctx, group.ID, "mallory")
	assert.ErrorIs(t, err, models.ErrNotGroupMember)

	updated, err := f.groups.AddMembers(ctx, group.ID, []string{"carol"}, "bob")
	require.NoError(t, err)
	assert.Len(t, updated.Members, 3)
}

func TestGroupUpdateAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	group, err := f.groups.Create(ctx, "Trip", nil, "alice")
	require.NoError(t, err)

	group.Name = "Weekend Trip"
	group.Members = []string{"alice", "bob"}
	updated, err := f.groups.Update(ctx, group, "alice")
	require.NoError(t, err)
	assert.Equal(t, "Weekend Trip", updated.Name)
	assert.Len(t, updated.Members, 2)

	require.NoError(t, f.groups.Delete(ctx, group.ID, "alice"))
	_, err = f.groups.Get(ctx, group.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestGroupGetMissing(t *testing.T) {
	f := newFixture(t)

	_, err := f.groups.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, models.ErrNotFound)
}
