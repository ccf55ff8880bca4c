package services

import (
	"context"
	"testing"

	"github.com/anonto42/spotlight/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToggleLikeTwiceRestoresState(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	ada := h.user(t, "ada", false)
	bob := h.user(t, "bob", false)
	postID := h.post(t, ada).ID.Hex()

	res, err := h.engagement.ToggleLike(ctx, bob.ID, postID)
	require.NoError(t, err)
	assert.Equal(t, &LikeResult{Liked: true, Likes: 1}, res)

	res, err = h.engagement.ToggleLike(ctx, bob.ID, postID)
	require.NoError(t, err)
	assert.Equal(t, &LikeResult{Liked: false, Likes: 0}, res)

	p, err := h.posts.GetPostByID(ctx, postID)
	require.NoError(t, err)
	assert.Zero(t, p.Likes)
	count, err := h.likes.CountByPostID(ctx, postID)
	require.NoError(t, err)
	assert.Zero(t, count)

	assert.Equal(t, int64(1), h.countNotifications(t, ada.ID, models.NotificationLike))
}

func TestLikingOwnPostDoesNotNotify(t *testing.T) {
	h := newHarness(t)
	ada := h.user(t, "ada", false)
	postID := h.post(t, ada).ID.Hex()

	_, err := h.engagement.ToggleLike(context.Background(), ada.ID, postID)
	require.NoError(t, err)
	assert.Zero(t, h.countNotifications(t, ada.ID, models.NotificationLike))
}

func TestToggleLikeUnknownPost(t *testing.T) {
	h := newHarness(t)
	_, err := h.engagement.ToggleLike(context.Background(), 1, "000000000000000000000000")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCommentsCountersAndDeleteRights(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	ada := h.user(t, "ada", false)
	bob := h.user(t, "bob", false)
	cyd := h.user(t, "cyd", false)
	postID := h.post(t, ada).ID.Hex()

	_, err := h.engagement.AddComment(ctx, bob.ID, postID, " \n\t ")
	assert.ErrorIs(t, err, ErrInvalid)

	c1, err := h.engagement.AddComment(ctx, bob.ID, postID, "  first  ")
	require.NoError(t, err)
	assert.Equal(t, "bob", c1.Author.Username)
	assert.Equal(t, "first", c1.Content)
	c2, err := h.engagement.AddComment(ctx, cyd.ID, postID, "second")
	require.NoError(t, err)

	list, err := h.engagement.ListComments(ctx, bob.ID, postID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "second", list[0].Content)

	p, _ := h.posts.GetPostByID(ctx, postID)
	assert.Equal(t, 2, p.Comments)

	views, _, err := h.notifier.List(ctx, ada.ID, NewPage(1, 10))
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "second", views[0].Comment)
	assert.Equal(t, "cyd", views[0].Sender.Username)
	assert.NotEmpty(t, views[0].PostImageURL)

	// a third party cannot delete, the author and the post owner can
	assert.ErrorIs(t, h.engagement.DeleteComment(ctx, cyd.ID, c1.ID), ErrForbidden)
	require.NoError(t, h.engagement.DeleteComment(ctx, bob.ID, c1.ID))
	require.NoError(t, h.engagement.DeleteComment(ctx, ada.ID, c2.ID))
	assert.ErrorIs(t, h.engagement.DeleteComment(ctx, ada.ID, c2.ID), ErrNotFound)

	p, _ = h.posts.GetPostByID(ctx, postID)
	assert.Zero(t, p.Comments)
	assert.Zero(t, h.countNotifications(t, ada.ID, models.NotificationComment))
}

func TestToggleBookmark(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	ada := h.user(t, "ada", false)
	postID := h.post(t, ada).ID.Hex()

	saved, err := h.engagement.ToggleBookmark(ctx, ada.ID, postID)
	require.NoError(t, err)
	assert.True(t, saved)
	saved, err = h.engagement.ToggleBookmark(ctx, ada.ID, postID)
	require.NoError(t, err)
	assert.False(t, saved)
}
