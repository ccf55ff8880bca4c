package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/anonto42/spotlight/backend/internal/models"
	"github.com/anonto42/spotlight/backend/internal/repositories"
	"github.com/anonto42/spotlight/backend/pkg/events"
)

// EngagementService handles likes, comments and bookmarks on posts
type EngagementService struct {
	posts         repositories.PostRepository
	users         repositories.UserRepository
	audience      audience
	likes         repositories.LikeRepository
	comments      repositories.CommentRepository
	bookmarks     repositories.BookmarkRepository
	notifications repositories.NotificationRepository
	notifier      *NotificationService
	tx            repositories.Transactor
	publisher     events.Publisher
}

// EngagementDeps groups the dependencies of EngagementService
type EngagementDeps struct {
	Posts         repositories.PostRepository
	Users         repositories.UserRepository
	Follows       repositories.FollowRepository
	Likes         repositories.LikeRepository
	Comments      repositories.CommentRepository
	Bookmarks     repositories.BookmarkRepository
	Notifications repositories.NotificationRepository
	Notifier      *NotificationService
	Tx            repositories.Transactor
	Publisher     events.Publisher
}

// NewEngagementService creates a new EngagementService
func NewEngagementService(d EngagementDeps) *EngagementService {
	return &EngagementService{
		posts:         d.Posts,
		users:         d.Users,
		audience:      audience{users: d.Users, follows: d.Follows},
		likes:         d.Likes,
		comments:      d.Comments,
		bookmarks:     d.Bookmarks,
		notifications: d.Notifications,
		notifier:      d.Notifier,
		tx:            d.Tx,
		publisher:     d.Publisher,
	}
}

// LikeResult is the state after a like toggle
type LikeResult struct {
	Liked bool `json:"liked"`
	Likes int  `json:"likes"`
}

// ToggleLike likes the post, or unlikes it when the caller already liked it.
// The post counter only moves when a row was actually inserted or removed.
func (s *EngagementService) ToggleLike(ctx context.Context, userID uint, postID string) (*LikeResult, error) {
	post, err := s.visiblePost(ctx, userID, postID)
	if err != nil {
		return nil, err
	}

	liked, err := s.likes.HasUserLikedPost(ctx, postID, userID)
	if err != nil {
		return nil, err
	}

	if liked {
		removed, err := s.likes.DeleteLike(ctx, postID, userID)
		if err != nil {
			return nil, err
		}
		likes := post.Likes
		if removed {
			if err := s.posts.IncrementLikesCount(ctx, postID, -1); err != nil {
				return nil, err
			}
			likes--
		}
		return &LikeResult{Liked: false, Likes: max(likes, 0)}, nil
	}

	created, err := s.likes.CreateLike(ctx, &models.Like{UserID: userID, PostID: postID})
	if err != nil {
		return nil, err
	}
	likes := post.Likes
	if created {
		if err := s.posts.IncrementLikesCount(ctx, postID, 1); err != nil {
			return nil, err
		}
		likes++
		s.notifier.notifyBestEffort(ctx, &models.Notification{
			ReceiverID: post.UserID,
			SenderID:   userID,
			Type:       models.NotificationLike,
			PostID:     postID,
		})
		events.Emit(ctx, s.publisher, events.New(events.PostLiked, postID, userID, map[string]any{"likes": likes}))
	}
	return &LikeResult{Liked: true, Likes: likes}, nil
}

// ListComments returns the post's comments newest first with their authors
func (s *EngagementService) ListComments(ctx context.Context, viewerID uint, postID string) ([]models.CommentWithAuthor, error) {
	if _, err := s.visiblePost(ctx, viewerID, postID); err != nil {
		return nil, err
	}
	comments, err := s.comments.GetCommentsByPostID(ctx, postID)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(comments))
	for _, c := range comments {
		ids = append(ids, c.UserID)
	}
	authors, err := s.users.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]models.CommentWithAuthor, 0, len(comments))
	for _, c := range comments {
		item := models.CommentWithAuthor{Comment: c}
		if a, ok := authors[c.UserID]; ok {
			item.Author = a.ToCompact()
		}
		out = append(out, item)
	}
	return out, nil
}

// AddComment stores a comment, bumps the post counter and notifies the post owner
func (s *EngagementService) AddComment(ctx context.Context, userID uint, postID, content string) (*models.CommentWithAuthor, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, invalid("comment cannot be blank")
	}
	post, err := s.visiblePost(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	author, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, notFoundAs(err, "user")
	}

	comment := &models.Comment{UserID: userID, PostID: postID, Content: content}
	if err := s.comments.CreateComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	if err := s.posts.IncrementCommentsCount(ctx, postID, 1); err != nil {
		return nil, err
	}

	s.notifier.notifyBestEffort(ctx, &models.Notification{
		ReceiverID: post.UserID,
		SenderID:   userID,
		Type:       models.NotificationComment,
		PostID:     postID,
		CommentID:  &comment.ID,
	})
	events.Emit(ctx, s.publisher, events.New(events.CommentCreated, postID, userID, map[string]any{"comment_id": comment.ID}))

	return &models.CommentWithAuthor{Comment: *comment, Author: author.ToCompact()}, nil
}

// DeleteComment removes a comment. The comment author and the post owner may delete it.
func (s *EngagementService) DeleteComment(ctx context.Context, userID, commentID uint) error {
	comment, err := s.comments.GetCommentByID(ctx, commentID)
	if err != nil {
		return notFoundAs(err, "comment")
	}

	if comment.UserID != userID {
		post, err := s.posts.GetPostByID(ctx, comment.PostID)
		if err != nil {
			return forbidden("only the comment author can delete this comment")
		}
		if post.UserID != userID {
			return forbidden("only the comment author or post owner can delete this comment")
		}
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.comments.DeleteComment(ctx, commentID); err != nil {
			return err
		}
		return s.notifications.DeleteByCommentID(ctx, commentID)
	})
	if err != nil {
		return notFoundAs(err, "comment")
	}
	return s.posts.IncrementCommentsCount(ctx, comment.PostID, -1)
}

// ToggleBookmark saves or unsaves the post and reports the new state
func (s *EngagementService) ToggleBookmark(ctx context.Context, userID uint, postID string) (bool, error) {
	if _, err := s.visiblePost(ctx, userID, postID); err != nil {
		return false, err
	}
	removed, err := s.bookmarks.DeleteBookmark(ctx, userID, postID)
	if err != nil {
		return false, err
	}
	if removed {
		return false, nil
	}
	if _, err := s.bookmarks.CreateBookmark(ctx, &models.Bookmark{UserID: userID, PostID: postID}); err != nil {
		return false, err
	}
	return true, nil
}

// visiblePost loads a post the viewer is allowed to see
func (s *EngagementService) visiblePost(ctx context.Context, viewerID uint, postID string) (*models.Post, error) {
	post, err := s.posts.GetPostByID(ctx, postID)
	if err != nil {
		return nil, notFoundAs(err, "post")
	}
	if err := s.audience.check(ctx, viewerID, post.UserID, "post"); err != nil {
		return nil, err
	}
	return post, nil
}
