package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollow_Lifecycle(t *testing.T) {
	users, _, follows := newServices(t)
	ctx := context.Background()

	alice := mustRegister(t, users, "alice", "a@x.com")
	bob := mustRegister(t, users, "bob", "b@x.com")

	require.NoError(t, follows.Follow(ctx, bob.ID, "alice"))

	following, err := follows.IsFollowing(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, following)

	n, err := follows.CountFollowers(ctx, alice.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	n, err = follows.CountFollowing(ctx, bob.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	require.NoError(t, follows.Unfollow(ctx, bob.ID, "alice"))
	following, err = follows.IsFollowing(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, following)
}

func TestFollow_SelfAlwaysRejected(t *testing.T) {
	users, _, follows := newServices(t)
	ctx := context.Background()

	alice := mustRegister(t, users, "alice", "a@x.com")

	err := follows.Follow(ctx, alice.ID, "alice")
	assert.Contains(t, strings.Join(validationErrors(t, err), " "), "follow yourself")
}

func TestFollow_DuplicateRejectedRepeatedly(t *testing.T) {
	users, _, follows := newServices(t)
	ctx := context.Background()

	alice := mustRegister(t, users, "alice", "a@x.com")
	bob := mustRegister(t, users, "bob", "b@x.com")
	_ = alice

	require.NoError(t, follows.Follow(ctx, bob.ID, "alice"))

	// same failure no matter how many times it is retried
	for i := 0; i < 2; i++ {
		err := follows.Follow(ctx, bob.ID, "alice")
		assert.Contains(t, strings.Join(validationErrors(t, err), " "), "already following")
	}
}

func TestUnfollow_WithoutEdgeRejected(t *testing.T) {
	users, _, follows := newServices(t)
	ctx := context.Background()

	mustRegister(t, users, "alice", "a@x.com")
	bob := mustRegister(t, users, "bob", "b@x.com")

	err := follows.Unfollow(ctx, bob.ID, "alice")
	assert.Contains(t, strings.Join(validationErrors(t, err), " "), "not following")
}

func TestFollow_TargetMustExist(t *testing.T) {
	users, _, follows := newServices(t)
	ctx := context.Background()

	bob := mustRegister(t, users, "bob", "b@x.com")

	err := follows.Follow(ctx, bob.ID, "ghost")
	assert.Contains(t, strings.Join(validationErrors(t, err), " "), "does not exist")
}

func TestFollowListings_ExposeDisplayIdentityOnly(t *testing.T) {
	users, _, follows := newServices(t)
	ctx := context.Background()

	alice := mustRegister(t, users, "alice", "a@x.com")
	bob := mustRegister(t, users, "bob", "b@x.com")
	carol := mustRegister(t, users, "carol", "c@x.com")

	require.NoError(t, follows.Follow(ctx, bob.ID, "alice"))
	require.NoError(t, follows.Follow(ctx, carol.ID, "alice"))
	require.NoError(t, follows.Follow(ctx, bob.ID, "carol"))

	followers, err := follows.Followers(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, followers, 2)
	for _, f := range followers {
		assert.NotEmpty(t, f.Username)
		assert.Contains(t, f.Avatar, "gravatar.com/avatar/")
	}

	following, err := follows.Following(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, following, 2)
}

func TestIsFollowing_AnonymousViewer(t *testing.T) {
	users, _, follows := newServices(t)
	ctx := context.Background()

	alice := mustRegister(t, users, "alice", "a@x.com")

	following, err := follows.IsFollowing(ctx, alice.ID, 0)
	require.NoError(t, err)
	assert.False(t, following)
}
