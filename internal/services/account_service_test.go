package services

import (
	"context"
	"testing"

	"github.com/anonto42/spotlight/backend/internal/models"
	"github.com/anonto42/spotlight/backend/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeleteAccountCascades(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	ada := h.user(t, "ada", false)
	bob := h.user(t, "bob", false)

	adaPost := h.post(t, ada)
	bobPost := h.post(t, bob)
	bobPostID := bobPost.ID.Hex()

	_, err := h.engagement.ToggleLike(ctx, ada.ID, bobPostID)
	require.NoError(t, err)
	_, err = h.engagement.AddComment(ctx, ada.ID, bobPostID, "hi")
	require.NoError(t, err)
	_, err = h.engagement.ToggleLike(ctx, bob.ID, adaPost.ID.Hex())
	require.NoError(t, err)
	_, err = h.graph.ToggleFollow(ctx, ada.ID, bob.ID)
	require.NoError(t, err)
	_, err = h.graph.ToggleFollow(ctx, bob.ID, ada.ID)
	require.NoError(t, err)

	storyKey := storage.NewUploadKey(ada.ID)
	story, err := h.storySvc.CreateStory(ctx, ada.ID, models.CreateStoryRequest{StorageID: storyKey, MediaType: "image"})
	require.NoError(t, err)
	_, err = h.storySvc.MarkViewed(ctx, bob.ID, story.ID.Hex())
	require.NoError(t, err)

	require.NoError(t, h.account.DeleteByProviderUID(ctx, ada.ProviderUID))
	require.NoError(t, h.account.DeleteByProviderUID(ctx, ada.ProviderUID), "replays are harmless")

	_, err = h.users.GetUserByID(ctx, ada.ID)
	assert.Error(t, err)

	b := h.reload(t, bob.ID)
	assert.Zero(t, b.Followers)
	assert.Zero(t, b.Following)

	p, err := h.posts.GetPostByID(ctx, bobPostID)
	require.NoError(t, err)
	assert.Zero(t, p.Likes)
	assert.Zero(t, p.Comments)

	assert.Equal(t, 1, h.posts.Len())
	assert.Zero(t, h.stories.Len())
	assert.ElementsMatch(t, []string{adaPost.StorageID, storyKey}, h.store.RemovedKeys())

	for _, model := range []any{&models.Like{}, &models.Comment{}, &models.Follow{}, &models.Notification{}, &models.StoryView{}} {
		var n int64
		require.NoError(t, h.db.Model(model).Count(&n).Error)
		assert.Zero(t, n, "%T rows left", model)
	}
}
