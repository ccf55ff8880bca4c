package services

import (
	"context"
	"testing"

	"github.com/anonto42/spotlight/backend/internal/models"
	"github.com/anonto42/spotlight/backend/pkg/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToggleFollowPublicAccount(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	ada := h.user(t, "ada", false)
	bob := h.user(t, "bob", false)

	res, err := h.graph.ToggleFollow(ctx, ada.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, &models.FollowToggleResult{Following: true}, res)
	assert.Equal(t, 1, h.reload(t, ada.ID).Following)
	assert.Equal(t, 1, h.reload(t, bob.ID).Followers)
	assert.Equal(t, int64(1), h.countNotifications(t, bob.ID, models.NotificationFollow))
	assert.Contains(t, h.pub.Types(), events.UserFollowed)

	status, err := h.graph.Status(ctx, ada.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, status.Following)

	res, err = h.graph.ToggleFollow(ctx, ada.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, &models.FollowToggleResult{}, res)
	assert.Zero(t, h.reload(t, ada.ID).Following)
	assert.Zero(t, h.reload(t, bob.ID).Followers)

	status, err = h.graph.Status(ctx, ada.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, status.Following, "toggle invalidates the cached status")
}

func TestFollowNotificationIsDeduplicated(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	ada := h.user(t, "ada", false)
	bob := h.user(t, "bob", false)

	for i := 0; i < 3; i++ {
		_, err := h.graph.ToggleFollow(ctx, ada.ID, bob.ID)
		require.NoError(t, err)
	}
	assert.Equal(t, int64(1), h.countNotifications(t, bob.ID, models.NotificationFollow))
	assert.Equal(t, 1, h.reload(t, bob.ID).Followers)
}

func TestToggleFollowRejectsSelfAndUnknown(t *testing.T) {
	h := newHarness(t)
	ada := h.user(t, "ada", false)

	_, err := h.graph.ToggleFollow(context.Background(), ada.ID, ada.ID)
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = h.graph.ToggleFollow(context.Background(), ada.ID, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestToggleFollowIsThrottled(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	ada := h.user(t, "ada", false)
	bob := h.user(t, "bob", false)

	for i := 0; i < 5; i++ {
		_, err := h.graph.ToggleFollow(ctx, ada.ID, bob.ID)
		require.NoError(t, err)
	}
	_, err := h.graph.ToggleFollow(ctx, ada.ID, bob.ID)
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestPrivateAccountRequestAccept(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	ada := h.user(t, "ada", false)
	zed := h.user(t, "zed", true)

	res, err := h.graph.ToggleFollow(ctx, ada.ID, zed.ID)
	require.NoError(t, err)
	assert.Equal(t, &models.FollowToggleResult{Requested: true}, res)
	assert.Zero(t, h.reload(t, zed.ID).Followers)
	assert.Equal(t, int64(1), h.countNotifications(t, zed.ID, models.NotificationFollowRequest))

	status, err := h.graph.Status(ctx, ada.ID, zed.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FollowStatus{Requested: true}, status)

	pending, err := h.graph.PendingRequests(ctx, zed.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "ada", pending[0].Requester.Username)

	assert.ErrorIs(t, h.graph.AcceptRequest(ctx, ada.ID, pending[0].ID), ErrForbidden)
	require.NoError(t, h.graph.AcceptRequest(ctx, zed.ID, pending[0].ID))
	assert.ErrorIs(t, h.graph.AcceptRequest(ctx, zed.ID, pending[0].ID), ErrConflict)

	assert.Equal(t, 1, h.reload(t, zed.ID).Followers)
	assert.Equal(t, 1, h.reload(t, ada.ID).Following)
	assert.Equal(t, int64(1), h.countNotifications(t, ada.ID, models.NotificationFollowAccepted))

	status, err = h.graph.Status(ctx, ada.ID, zed.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FollowStatus{Following: true}, status)

	pending, err = h.graph.PendingRequests(ctx, zed.ID)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestPrivateAccountRequestRejectAndCancel(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	ada := h.user(t, "ada", false)
	bob := h.user(t, "bob", false)
	zed := h.user(t, "zed", true)

	_, err := h.graph.ToggleFollow(ctx, ada.ID, zed.ID)
	require.NoError(t, err)
	_, err = h.graph.ToggleFollow(ctx, bob.ID, zed.ID)
	require.NoError(t, err)

	pending, err := h.graph.PendingRequests(ctx, zed.ID)
	require.NoError(t, err)
	require.Len(t, pending, 2)

	var adaReq, bobReq uint
	for _, p := range pending {
		if p.RequesterID == ada.ID {
			adaReq = p.ID
		} else {
			bobReq = p.ID
		}
	}

	require.NoError(t, h.graph.RejectRequest(ctx, zed.ID, adaReq))
	status, err := h.graph.Status(ctx, ada.ID, zed.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FollowStatus{}, status)

	assert.ErrorIs(t, h.graph.CancelRequest(ctx, ada.ID, bobReq), ErrForbidden)
	require.NoError(t, h.graph.CancelRequest(ctx, bob.ID, bobReq))
	assert.ErrorIs(t, h.graph.CancelRequest(ctx, bob.ID, bobReq), ErrNotFound)
	assert.Zero(t, h.reload(t, zed.ID).Followers)
}

func TestToggleWithdrawsPendingRequest(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	ada := h.user(t, "ada", false)
	zed := h.user(t, "zed", true)

	_, err := h.graph.ToggleFollow(ctx, ada.ID, zed.ID)
	require.NoError(t, err)
	res, err := h.graph.ToggleFollow(ctx, ada.ID, zed.ID)
	require.NoError(t, err)
	assert.Equal(t, &models.FollowToggleResult{}, res)

	pending, err := h.graph.PendingRequests(ctx, zed.ID)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestFollowersAndFollowing(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	ada := h.user(t, "ada", false)
	bob := h.user(t, "bob", false)
	cyd := h.user(t, "cyd", false)

	for _, f := range [][2]uint{{bob.ID, ada.ID}, {cyd.ID, ada.ID}, {ada.ID, cyd.ID}} {
		_, err := h.graph.ToggleFollow(ctx, f[0], f[1])
		require.NoError(t, err)
	}

	followers, err := h.graph.Followers(ctx, ada.ID)
	require.NoError(t, err)
	assert.Len(t, followers, 2)

	following, err := h.graph.Following(ctx, ada.ID)
	require.NoError(t, err)
	require.Len(t, following, 1)
	assert.Equal(t, "cyd", following[0].Username)

	_, err = h.graph.Followers(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}
