package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/anonto42/spotlight/backend/internal/models"
	"github.com/anonto42/spotlight/backend/internal/repositories"
)

// audience decides whose posts and stories a viewer may see. Public accounts
// are visible to everyone; private accounts to themselves and their followers.
type audience struct {
	users   repositories.UserRepository
	follows repositories.FollowRepository
}

// allows reports whether viewerID may see content authored by author
func (a audience) allows(ctx context.Context, viewerID uint, author *models.User) (bool, error) {
	if author.ID == viewerID || !author.IsPrivate {
		return true, nil
	}
	return a.follows.IsFollowing(ctx, viewerID, author.ID)
}

// check returns ErrForbidden when authorID's content is hidden from viewerID.
// A missing author reads as a missing what.
func (a audience) check(ctx context.Context, viewerID, authorID uint, what string) error {
	if authorID == viewerID {
		return nil
	}
	author, err := a.users.GetUserByID(ctx, authorID)
	if err != nil {
		return notFoundAs(err, what)
	}
	ok, err := a.allows(ctx, viewerID, author)
	if err != nil {
		return err
	}
	if !ok {
		return forbidden("this account is private")
	}
	return nil
}

// hiddenAuthors lists the private accounts viewerID does not follow
func (a audience) hiddenAuthors(ctx context.Context, viewerID uint) ([]uint, error) {
	private, err := a.users.PrivateUserIDs(ctx)
	if err != nil {
		return nil, err
	}
	if len(private) == 0 {
		return nil, nil
	}
	following, err := a.follows.GetFollowingIDs(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	visible := make(map[uint]bool, len(following)+1)
	visible[viewerID] = true
	for _, id := range following {
		visible[id] = true
	}
	hidden := make([]uint, 0, len(private))
	for _, id := range private {
		if !visible[id] {
			hidden = append(hidden, id)
		}
	}
	return hidden, nil
}

// checkStorageIDFree fails with ErrConflict when key already backs a post or
// a story, so deleting one of them never removes media another still shows
func checkStorageIDFree(ctx context.Context, posts repositories.PostRepository, stories repositories.StoryRepository, key string) error {
	if posts != nil {
		used, err := posts.StorageIDInUse(ctx, key)
		if err != nil {
			return err
		}
		if used {
			return fmt.Errorf("storage_id already used by a post: %w", ErrConflict)
		}
	}
	if stories != nil {
		used, err := stories.StorageIDInUse(ctx, key)
		if err != nil {
			return err
		}
		if used {
			return fmt.Errorf("storage_id already used by a story: %w", ErrConflict)
		}
	}
	return nil
}

// duplicateAs turns a repository duplicate-key error into ErrConflict
func duplicateAs(err error, what string) error {
	if errors.Is(err, repositories.ErrDuplicate) {
		return fmt.Errorf("%s already exists: %w", what, ErrConflict)
	}
	return err
}
