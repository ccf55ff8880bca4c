package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/anonto42/spotlight/backend/internal/repositories"
	"github.com/anonto42/spotlight/backend/pkg/storage"
)

// AccountService removes a user and everything they own
type AccountService struct {
	users         repositories.UserRepository
	posts         repositories.PostRepository
	stories       repositories.StoryRepository
	likes         repositories.LikeRepository
	comments      repositories.CommentRepository
	bookmarks     repositories.BookmarkRepository
	follows       repositories.FollowRepository
	requests      repositories.FollowRequestRepository
	notifications repositories.NotificationRepository
	views         repositories.StoryViewRepository
	store         storage.Storage
	tx            repositories.Transactor
}

// AccountDeps groups the dependencies of AccountService
type AccountDeps struct {
	Users         repositories.UserRepository
	Posts         repositories.PostRepository
	Stories       repositories.StoryRepository
	Likes         repositories.LikeRepository
	Comments      repositories.CommentRepository
	Bookmarks     repositories.BookmarkRepository
	Follows       repositories.FollowRepository
	Requests      repositories.FollowRequestRepository
	Notifications repositories.NotificationRepository
	Views         repositories.StoryViewRepository
	Storage       storage.Storage
	Tx            repositories.Transactor
}

func NewAccountService(d AccountDeps) *AccountService {
	return &AccountService{
		users:         d.Users,
		posts:         d.Posts,
		stories:       d.Stories,
		likes:         d.Likes,
		comments:      d.Comments,
		bookmarks:     d.Bookmarks,
		follows:       d.Follows,
		requests:      d.Requests,
		notifications: d.Notifications,
		views:         d.Views,
		store:         d.Storage,
		tx:            d.Tx,
	}
}

// DeleteByProviderUID deletes the user mirrored for an identity. Unknown
// identities are ignored so replays stay harmless.
func (s *AccountService) DeleteByProviderUID(ctx context.Context, providerUID string) error {
	user, err := s.users.GetUserByProviderUID(ctx, providerUID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return s.Delete(ctx, user.ID)
}

// Delete removes the user's posts and stories with their dependents, the
// user's own likes, comments, bookmarks, follows, requests, notifications and
// views, then the user. Counters on other users and posts are adjusted.
func (s *AccountService) Delete(ctx context.Context, userID uint) error {
	posts, err := s.posts.DeletePostsByUserID(ctx, userID)
	if err != nil {
		return fmt.Errorf("delete posts: %w", err)
	}
	stories, err := s.stories.DeleteStoriesByUserID(ctx, userID)
	if err != nil {
		return fmt.Errorf("delete stories: %w", err)
	}

	storyIDs := make([]string, 0, len(stories))
	for _, st := range stories {
		storyIDs = append(storyIDs, st.ID.Hex())
	}

	var likedPosts []string
	commentsPerPost := map[string]int{}
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		for _, p := range posts {
			postID := p.ID.Hex()
			if err := s.likes.DeleteByPostID(ctx, postID); err != nil {
				return err
			}
			if err := s.comments.DeleteByPostID(ctx, postID); err != nil {
				return err
			}
			if err := s.bookmarks.DeleteByPostID(ctx, postID); err != nil {
				return err
			}
			if err := s.notifications.DeleteByPostID(ctx, postID); err != nil {
				return err
			}
		}
		if err := s.views.DeleteByStoryIDs(ctx, storyIDs); err != nil {
			return err
		}

		var err error
		if likedPosts, err = s.likes.DeleteByUserID(ctx, userID); err != nil {
			return err
		}
		removed, err := s.comments.DeleteByUserID(ctx, userID)
		if err != nil {
			return err
		}
		for _, c := range removed {
			commentsPerPost[c.PostID]++
		}
		if err := s.bookmarks.DeleteByUserID(ctx, userID); err != nil {
			return err
		}

		edges, err := s.follows.DeleteByUserID(ctx, userID)
		if err != nil {
			return err
		}
		for _, f := range edges {
			if f.FollowerID == userID {
				err = s.users.AdjustCounter(ctx, f.FollowingID, repositories.CounterFollowers, -1)
			} else {
				err = s.users.AdjustCounter(ctx, f.FollowerID, repositories.CounterFollowing, -1)
			}
			if err != nil {
				return err
			}
		}

		if err := s.requests.DeleteByUserID(ctx, userID); err != nil {
			return err
		}
		if err := s.notifications.DeleteByUserID(ctx, userID); err != nil {
			return err
		}
		if err := s.views.DeleteByViewerID(ctx, userID); err != nil {
			return err
		}
		return s.users.DeleteUser(ctx, userID)
	})
	if err != nil {
		return fmt.Errorf("delete account %d: %w", userID, err)
	}

	// Posts by other authors keep their documents; bring their counters back in line.
	for _, postID := range likedPosts {
		if err := s.posts.IncrementLikesCount(ctx, postID, -1); err != nil {
			slog.WarnContext(ctx, "likes counter not adjusted", "post_id", postID, "error", err)
		}
	}
	for postID, n := range commentsPerPost {
		if err := s.posts.IncrementCommentsCount(ctx, postID, -n); err != nil {
			slog.WarnContext(ctx, "comments counter not adjusted", "post_id", postID, "error", err)
		}
	}

	for _, p := range posts {
		removeBlob(ctx, s.store, p.StorageID)
	}
	for _, st := range stories {
		removeBlob(ctx, s.store, st.StorageID)
	}
	slog.InfoContext(ctx, "account deleted", "user_id", userID, "posts", len(posts), "stories", len(stories))
	return nil
}
