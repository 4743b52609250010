package service

import (
	"context"
	"errors"
	"testing"

	"resonate/internal/models"
	"resonate/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowService_RejectsSelfAndAnonymous(t *testing.T) {
	// Both checks run before any repository call.
	svc := NewFollowService(nil, nil)
	ctx := context.Background()

	_, err := svc.Follow(ctx, 7, 7)
	assertCode(t, err, models.CodeConflict)
	assert.True(t, errors.Is(err, models.ErrSelfFollow))

	_, err = svc.ToggleFollow(ctx, 7, 7)
	assert.True(t, errors.Is(err, models.ErrSelfFollow))

	_, err = svc.Follow(ctx, 0, 7)
	assertCode(t, err, models.CodeUnauthorized)
}

func TestFollowService_FollowLifecycle(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, s.db, "alice", "jazz")
	bob := testutil.CreateUser(t, s.db, "bob", "rock")

	created, err := s.follows.Follow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = s.follows.Follow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, created, "second follow is a no-op")

	following, err := s.follows.IsFollowing(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, following)

	followers, err := s.follows.FollowersOf(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{alice.ID}, followers)

	nFollowers, nFollowing, err := s.follows.Counts(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), nFollowers)
	assert.Equal(t, int64(1), nFollowing)

	removed, err := s.follows.Unfollow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = s.follows.Unfollow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestFollowService_UnknownTarget(t *testing.T) {
	s := newServices(t)
	alice := testutil.CreateUser(t, s.db, "alice", "")

	_, err := s.follows.Follow(context.Background(), alice.ID, 999)
	assertCode(t, err, models.CodeNotFound)
}

func TestFollowService_ToggleReportsFollowerCount(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, s.db, "alice", "")
	bob := testutil.CreateUser(t, s.db, "bob", "")
	carol := testutil.CreateUser(t, s.db, "carol", "")
	testutil.Follow(t, s.db, carol, bob)

	res, err := s.follows.ToggleFollow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ActionFollow, res.Action)
	assert.Equal(t, int64(2), res.FollowersCount)

	res, err = s.follows.ToggleFollow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ActionUnfollow, res.Action)
	assert.Equal(t, int64(1), res.FollowersCount)
}

func TestFollowService_ListFollowersAnnotatesViewer(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, s.db, "alice", "")
	bob := testutil.CreateUser(t, s.db, "bob", "")
	carol := testutil.CreateUser(t, s.db, "carol", "")
	testutil.Follow(t, s.db, alice, carol)
	testutil.Follow(t, s.db, bob, carol)
	testutil.Follow(t, s.db, alice, bob)

	page, err := s.follows.ListFollowers(ctx, "carol", alice.ID, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.TotalItems)

	byName := map[string]models.UserSummary{}
	for _, u := range page.Items {
		byName[u.Username] = u
	}
	assert.True(t, byName["bob"].IsFollowing)
	assert.False(t, byName["alice"].IsFollowing)

	_, err = s.follows.ListFollowing(ctx, "nobody", alice.ID, 1, 10)
	assertCode(t, err, models.CodeNotFound)
}
