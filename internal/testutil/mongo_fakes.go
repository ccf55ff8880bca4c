package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/anonto42/spotlight/backend/internal/models"
	"github.com/anonto42/spotlight/backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PostStore is an in-memory repositories.PostRepository
type PostStore struct {
	mu    sync.Mutex
	posts map[string]models.Post
	Now   func() time.Time
}

func NewPostStore() *PostStore {
	return &PostStore{posts: map[string]models.Post{}, Now: time.Now}
}

var _ repositories.PostRepository = (*PostStore)(nil)

func (s *PostStore) CreatePost(ctx context.Context, post *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.posts {
		if post.StorageID != "" && p.StorageID == post.StorageID {
			return repositories.ErrDuplicate
		}
	}
	post.ID = primitive.NewObjectID()
	post.CreatedAt = s.Now()
	post.UpdatedAt = post.CreatedAt
	s.posts[post.ID.Hex()] = *post
	return nil
}

func (s *PostStore) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &p, nil
}

func (s *PostStore) GetPostsByIDs(ctx context.Context, ids []string) (map[string]models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[string]models.Post{}
	for _, id := range ids {
		if p, ok := s.posts[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (s *PostStore) StorageIDInUse(ctx context.Context, storageID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.posts {
		if p.StorageID == storageID {
			return true, nil
		}
	}
	return false, nil
}

func (s *PostStore) ListPosts(ctx context.Context, f models.PostFilter, skip, limit int64) ([]models.Post, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var allowed map[uint]bool
	if f.Authors != nil {
		allowed = map[uint]bool{}
		for _, id := range f.Authors {
			allowed[id] = true
		}
	}
	excluded := map[uint]bool{}
	for _, id := range f.ExcludeAuthors {
		excluded[id] = true
	}
	var all []models.Post
	for _, p := range s.posts {
		if (allowed == nil || allowed[p.UserID]) && !excluded[p.UserID] {
			all = append(all, p)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID.Hex() > all[j].ID.Hex()
	})
	total := int64(len(all))
	out := []models.Post{}
	for i := skip; i < total && i < skip+limit; i++ {
		out = append(out, all[i])
	}
	return out, total, nil
}

func (s *PostStore) DeletePost(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.posts, id)
	return nil
}

func (s *PostStore) DeletePostsByUserID(ctx context.Context, userID uint) ([]models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Post
	for id, p := range s.posts {
		if p.UserID == userID {
			out = append(out, p)
			delete(s.posts, id)
		}
	}
	return out, nil
}

func (s *PostStore) IncrementLikesCount(ctx context.Context, postID string, delta int) error {
	return s.adjust(postID, func(p *models.Post) *int { return &p.Likes }, delta)
}

func (s *PostStore) IncrementCommentsCount(ctx context.Context, postID string, delta int) error {
	return s.adjust(postID, func(p *models.Post) *int { return &p.Comments }, delta)
}

func (s *PostStore) adjust(postID string, field func(*models.Post) *int, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[postID]
	if !ok {
		return nil
	}
	v := field(&p)
	if *v+delta < 0 {
		return nil
	}
	*v += delta
	s.posts[postID] = p
	return nil
}

func (s *PostStore) EnsureIndexes(ctx context.Context) error { return nil }

// Len returns the number of stored posts
func (s *PostStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.posts)
}

// StoryStore is an in-memory repositories.StoryRepository
type StoryStore struct {
	mu      sync.Mutex
	stories map[string]models.Story
}

func NewStoryStore() *StoryStore {
	return &StoryStore{stories: map[string]models.Story{}}
}

var _ repositories.StoryRepository = (*StoryStore)(nil)

func (s *StoryStore) CreateStory(ctx context.Context, story *models.Story) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, st := range s.stories {
		if story.StorageID != "" && st.StorageID == story.StorageID {
			return repositories.ErrDuplicate
		}
	}
	story.ID = primitive.NewObjectID()
	s.stories[story.ID.Hex()] = *story
	return nil
}

func (s *StoryStore) GetStoryByID(ctx context.Context, id string) (*models.Story, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.stories[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &st, nil
}

func (s *StoryStore) StorageIDInUse(ctx context.Context, storageID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, st := range s.stories {
		if st.StorageID == storageID {
			return true, nil
		}
	}
	return false, nil
}

func (s *StoryStore) GetActiveStoriesByUserIDs(ctx context.Context, userIDs []uint, now time.Time) ([]models.Story, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	allowed := map[uint]bool{}
	for _, id := range userIDs {
		allowed[id] = true
	}
	out := []models.Story{}
	for _, st := range s.stories {
		if allowed[st.UserID] && st.ExpiresAt.After(now) {
			out = append(out, st)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *StoryStore) GetExpiredStories(ctx context.Context, now time.Time, limit int64) ([]models.Story, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Story
	for _, st := range s.stories {
		if !st.ExpiresAt.After(now) {
			out = append(out, st)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(out[j].ExpiresAt) })
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *StoryStore) DeleteStory(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.stories[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.stories, id)
	return nil
}

func (s *StoryStore) DeleteStories(ctx context.Context, ids []string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, id := range ids {
		if _, ok := s.stories[id]; ok {
			delete(s.stories, id)
			n++
		}
	}
	return n, nil
}

func (s *StoryStore) DeleteStoriesByUserID(ctx context.Context, userID uint) ([]models.Story, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Story
	for id, st := range s.stories {
		if st.UserID == userID {
			out = append(out, st)
			delete(s.stories, id)
		}
	}
	return out, nil
}

func (s *StoryStore) EnsureIndexes(ctx context.Context) error { return nil }

// Len returns the number of stored stories
func (s *StoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.stories)
}
