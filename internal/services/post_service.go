package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/anonto42/spotlight/backend/internal/models"
	"github.com/anonto42/spotlight/backend/internal/repositories"
	"github.com/anonto42/spotlight/backend/pkg/events"
	"github.com/anonto42/spotlight/backend/pkg/storage"
)

// PostService owns posts, the feed, bookmarks listing and upload URLs
type PostService struct {
	posts         repositories.PostRepository
	stories       repositories.StoryRepository
	users         repositories.UserRepository
	follows       repositories.FollowRepository
	audience      audience
	likes         repositories.LikeRepository
	comments      repositories.CommentRepository
	bookmarks     repositories.BookmarkRepository
	notifications repositories.NotificationRepository
	store         storage.Storage
	tx            repositories.Transactor
	publisher     events.Publisher
}

// PostDeps groups the dependencies of PostService
type PostDeps struct {
	Posts         repositories.PostRepository
	Stories       repositories.StoryRepository
	Users         repositories.UserRepository
	Follows       repositories.FollowRepository
	Likes         repositories.LikeRepository
	Comments      repositories.CommentRepository
	Bookmarks     repositories.BookmarkRepository
	Notifications repositories.NotificationRepository
	Storage       storage.Storage
	Tx            repositories.Transactor
	Publisher     events.Publisher
}

// NewPostService creates a new PostService
func NewPostService(d PostDeps) *PostService {
	return &PostService{
		posts:         d.Posts,
		stories:       d.Stories,
		users:         d.Users,
		follows:       d.Follows,
		audience:      audience{users: d.Users, follows: d.Follows},
		likes:         d.Likes,
		comments:      d.Comments,
		bookmarks:     d.Bookmarks,
		notifications: d.Notifications,
		store:         d.Storage,
		tx:            d.Tx,
		publisher:     d.Publisher,
	}
}

// CreateUpload issues a signed upload URL under the caller's prefix
func (s *PostService) CreateUpload(ctx context.Context, userID uint, contentType string) (*models.UploadResponse, error) {
	key := storage.NewUploadKey(userID)
	url, err := s.store.PresignUpload(ctx, key, contentType)
	if err != nil {
		return nil, err
	}
	return &models.UploadResponse{UploadURL: url, StorageID: key, ContentType: contentType}, nil
}

// CreatePost publishes an uploaded image as a post and bumps the author's post count
func (s *PostService) CreatePost(ctx context.Context, userID uint, req models.CreatePostRequest) (*models.FeedPost, error) {
	if !storage.OwnedBy(req.StorageID, userID) {
		return nil, invalid("storage_id was not issued to this user")
	}
	author, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, notFoundAs(err, "user")
	}
	if err := checkStorageIDFree(ctx, s.posts, s.stories, req.StorageID); err != nil {
		return nil, err
	}

	imageURL, err := s.store.URL(ctx, req.StorageID)
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		UserID:    userID,
		ImageURL:  imageURL,
		StorageID: req.StorageID,
		Caption:   req.Caption,
	}
	if err := s.posts.CreatePost(ctx, post); err != nil {
		return nil, fmt.Errorf("create post: %w", duplicateAs(err, "post for this storage_id"))
	}
	if err := s.users.AdjustCounter(ctx, userID, repositories.CounterPosts, 1); err != nil {
		return nil, err
	}

	events.Emit(ctx, s.publisher, events.New(events.PostCreated, post.ID.Hex(), userID, map[string]any{
		"image_url": post.ImageURL,
	}))
	return &models.FeedPost{Post: *post, Author: author.ToCompact()}, nil
}

// GetPost returns a single post decorated for the viewer
func (s *PostService) GetPost(ctx context.Context, viewerID uint, postID string) (*models.FeedPost, error) {
	post, err := s.posts.GetPostByID(ctx, postID)
	if err != nil {
		return nil, notFoundAs(err, "post")
	}
	if err := s.audience.check(ctx, viewerID, post.UserID, "post"); err != nil {
		return nil, err
	}
	items, err := s.decorate(ctx, viewerID, []models.Post{*post})
	if err != nil {
		return nil, err
	}
	return &items[0], nil
}

// Feed lists posts newest first. With followingOnly the feed is restricted to
// the viewer and the accounts they follow; otherwise it holds every post the
// viewer may see.
func (s *PostService) Feed(ctx context.Context, viewerID uint, page Page, followingOnly bool) ([]models.FeedPost, int64, error) {
	var filter models.PostFilter
	if followingOnly {
		ids, err := s.follows.GetFollowingIDs(ctx, viewerID)
		if err != nil {
			return nil, 0, err
		}
		filter.Authors = append(ids, viewerID)
	} else {
		hidden, err := s.audience.hiddenAuthors(ctx, viewerID)
		if err != nil {
			return nil, 0, err
		}
		filter.ExcludeAuthors = hidden
	}
	return s.list(ctx, viewerID, filter, page)
}

// UserPosts lists one user's posts newest first
func (s *PostService) UserPosts(ctx context.Context, viewerID, userID uint, page Page) ([]models.FeedPost, int64, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, 0, notFoundAs(err, "user")
	}
	ok, err := s.audience.allows(ctx, viewerID, user)
	if err != nil {
		return nil, 0, err
	}
	if !ok {
		return nil, 0, forbidden("this account is private")
	}
	return s.list(ctx, viewerID, models.PostFilter{Authors: []uint{userID}}, page)
}

func (s *PostService) list(ctx context.Context, viewerID uint, filter models.PostFilter, page Page) ([]models.FeedPost, int64, error) {
	posts, total, err := s.posts.ListPosts(ctx, filter, int64(page.Skip()), int64(page.Limit))
	if err != nil {
		return nil, 0, err
	}
	items, err := s.decorate(ctx, viewerID, posts)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Bookmarks lists the posts the viewer saved, most recently saved first.
// Posts of private accounts the viewer no longer follows are left out.
func (s *PostService) Bookmarks(ctx context.Context, viewerID uint, page Page) ([]models.FeedPost, int64, error) {
	ids, total, err := s.bookmarks.ListPostIDsByUser(ctx, viewerID, page.Skip(), page.Limit)
	if err != nil {
		return nil, 0, err
	}
	byID, err := s.posts.GetPostsByIDs(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	hidden, err := s.audience.hiddenAuthors(ctx, viewerID)
	if err != nil {
		return nil, 0, err
	}
	skip := make(map[uint]bool, len(hidden))
	for _, id := range hidden {
		skip[id] = true
	}
	posts := make([]models.Post, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok && !skip[p.UserID] {
			posts = append(posts, p)
		}
	}
	total -= int64(len(ids) - len(posts))
	items, err := s.decorate(ctx, viewerID, posts)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// DeletePost removes the owner's post with its likes, comments, bookmarks,
// notifications and image
func (s *PostService) DeletePost(ctx context.Context, userID uint, postID string) error {
	post, err := s.posts.GetPostByID(ctx, postID)
	if err != nil {
		return notFoundAs(err, "post")
	}
	if post.UserID != userID {
		return forbidden("only the author can delete this post")
	}

	if err := s.posts.DeletePost(ctx, postID); err != nil {
		return notFoundAs(err, "post")
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
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
		return s.users.AdjustCounter(ctx, userID, repositories.CounterPosts, -1)
	})
	if err != nil {
		return fmt.Errorf("delete post dependents: %w", err)
	}

	removeBlob(ctx, s.store, post.StorageID)
	events.Emit(ctx, s.publisher, events.New(events.PostDeleted, postID, userID, nil))
	return nil
}

// removeBlob deletes stored media, logging failures
func removeBlob(ctx context.Context, store storage.Storage, key string) {
	if key == "" || store == nil {
		return
	}
	if err := store.Remove(ctx, key); err != nil {
		slog.WarnContext(ctx, "blob not removed", "storage_id", key, "error", err)
	}
}

// decorate attaches authors and the viewer's like and bookmark flags
func (s *PostService) decorate(ctx context.Context, viewerID uint, posts []models.Post) ([]models.FeedPost, error) {
	items := make([]models.FeedPost, 0, len(posts))
	if len(posts) == 0 {
		return items, nil
	}

	authorIDs := make([]uint, 0, len(posts))
	postIDs := make([]string, 0, len(posts))
	for _, p := range posts {
		authorIDs = append(authorIDs, p.UserID)
		postIDs = append(postIDs, p.ID.Hex())
	}

	authors, err := s.users.GetUsersByIDs(ctx, authorIDs)
	if err != nil {
		return nil, err
	}
	liked, err := s.likes.GetLikedPostIDs(ctx, viewerID, postIDs)
	if err != nil {
		return nil, err
	}
	saved, err := s.bookmarks.GetBookmarkedPostIDs(ctx, viewerID, postIDs)
	if err != nil {
		return nil, err
	}

	for _, p := range posts {
		item := models.FeedPost{
			Post:         p,
			IsLiked:      liked[p.ID.Hex()],
			IsBookmarked: saved[p.ID.Hex()],
		}
		if a, ok := authors[p.UserID]; ok {
			item.Author = a.ToCompact()
		}
		items = append(items, item)
	}
	return items, nil
}
