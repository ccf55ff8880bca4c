package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/anonto42/spotlight/backend/internal/models"
	"github.com/anonto42/spotlight/backend/internal/repositories"
	"github.com/anonto42/spotlight/backend/pkg/events"
	"github.com/anonto42/spotlight/backend/pkg/storage"
)

const (
	defaultImageDuration = 5
	defaultVideoDuration = 15
	sweepBatchSize       = 100
)

// StoryService manages ephemeral stories, the tray and view tracking
type StoryService struct {
	stories   repositories.StoryRepository
	posts     repositories.PostRepository
	views     repositories.StoryViewRepository
	users     repositories.UserRepository
	follows   repositories.FollowRepository
	audience  audience
	store     storage.Storage
	publisher events.Publisher
	ttl       time.Duration
	now       func() time.Time
}

// StoryDeps groups the dependencies of StoryService
type StoryDeps struct {
	Stories   repositories.StoryRepository
	Posts     repositories.PostRepository
	Views     repositories.StoryViewRepository
	Users     repositories.UserRepository
	Follows   repositories.FollowRepository
	Storage   storage.Storage
	Publisher events.Publisher
	TTL       time.Duration
	Now       func() time.Time
}

// NewStoryService creates a new StoryService
func NewStoryService(d StoryDeps) *StoryService {
	if d.TTL <= 0 {
		d.TTL = 24 * time.Hour
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return &StoryService{
		stories:   d.Stories,
		posts:     d.Posts,
		views:     d.Views,
		users:     d.Users,
		follows:   d.Follows,
		audience:  audience{users: d.Users, follows: d.Follows},
		store:     d.Storage,
		publisher: d.Publisher,
		ttl:       d.TTL,
		now:       d.Now,
	}
}

// CreateStory publishes uploaded media as a story that expires after the TTL
func (s *StoryService) CreateStory(ctx context.Context, userID uint, req models.CreateStoryRequest) (*models.Story, error) {
	if !storage.OwnedBy(req.StorageID, userID) {
		return nil, invalid("storage_id was not issued to this user")
	}
	if err := checkStorageIDFree(ctx, s.posts, s.stories, req.StorageID); err != nil {
		return nil, err
	}
	mediaURL, err := s.store.URL(ctx, req.StorageID)
	if err != nil {
		return nil, err
	}

	duration := req.Duration
	if duration == 0 {
		duration = defaultImageDuration
		if req.MediaType == "video" {
			duration = defaultVideoDuration
		}
	}

	now := s.now().UTC()
	story := &models.Story{
		UserID:    userID,
		MediaURL:  mediaURL,
		StorageID: req.StorageID,
		MediaType: req.MediaType,
		Duration:  duration,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.stories.CreateStory(ctx, story); err != nil {
		return nil, fmt.Errorf("create story: %w", duplicateAs(err, "story for this storage_id"))
	}
	events.Emit(ctx, s.publisher, events.New(events.StoryCreated, story.ID.Hex(), userID, map[string]any{
		"media_type": story.MediaType,
		"expires_at": story.ExpiresAt,
	}))
	return story, nil
}

// Tray groups the active stories of the viewer and the accounts they follow.
// The viewer's own group is returned apart; other groups with unseen stories
// come first, then by most recent story.
func (s *StoryService) Tray(ctx context.Context, viewerID uint) (*models.StoryTray, error) {
	following, err := s.follows.GetFollowingIDs(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	authorIDs := append(following, viewerID)

	stories, err := s.stories.GetActiveStoriesByUserIDs(ctx, authorIDs, s.now())
	if err != nil {
		return nil, err
	}
	tray := &models.StoryTray{Groups: []models.StoryGroup{}}
	if len(stories) == 0 {
		return tray, nil
	}

	ids := make([]string, 0, len(stories))
	for _, st := range stories {
		ids = append(ids, st.ID.Hex())
	}
	seen, err := s.views.GetSeenStoryIDs(ctx, viewerID, ids)
	if err != nil {
		return nil, err
	}

	byAuthor := map[uint]*models.StoryGroup{}
	latest := map[uint]time.Time{}
	var order []uint
	for _, st := range stories {
		g, ok := byAuthor[st.UserID]
		if !ok {
			g = &models.StoryGroup{}
			byAuthor[st.UserID] = g
			order = append(order, st.UserID)
		}
		item := models.StoryItem{Story: st, Seen: st.UserID == viewerID || seen[st.ID.Hex()]}
		g.Stories = append(g.Stories, item)
		if !item.Seen {
			g.HasUnseen = true
		}
		if st.CreatedAt.After(latest[st.UserID]) {
			latest[st.UserID] = st.CreatedAt
		}
	}

	authors, err := s.users.GetUsersByIDs(ctx, order)
	if err != nil {
		return nil, err
	}
	for _, id := range order {
		g := byAuthor[id]
		if u, ok := authors[id]; ok {
			g.Author = u.ToCompact()
		}
		if id == viewerID {
			tray.CurrentUser = g
			continue
		}
		tray.Groups = append(tray.Groups, *g)
	}

	sort.SliceStable(tray.Groups, func(i, j int) bool {
		a, b := tray.Groups[i], tray.Groups[j]
		if a.HasUnseen != b.HasUnseen {
			return a.HasUnseen
		}
		return latest[a.Author.ID].After(latest[b.Author.ID])
	})
	return tray, nil
}

// GetStory returns an active story the viewer may see
func (s *StoryService) GetStory(ctx context.Context, viewerID uint, storyID string) (*models.StoryItem, error) {
	story, err := s.activeStory(ctx, storyID)
	if err != nil {
		return nil, err
	}
	if err := s.checkVisible(ctx, viewerID, story); err != nil {
		return nil, err
	}
	seen := story.UserID == viewerID
	if !seen {
		m, err := s.views.GetSeenStoryIDs(ctx, viewerID, []string{storyID})
		if err != nil {
			return nil, err
		}
		seen = m[storyID]
	}
	return &models.StoryItem{Story: *story, Seen: seen}, nil
}

// MarkViewed records the viewer's view once. Owners viewing their own story
// are not recorded.
func (s *StoryService) MarkViewed(ctx context.Context, viewerID uint, storyID string) (bool, error) {
	story, err := s.activeStory(ctx, storyID)
	if err != nil {
		return false, err
	}
	if story.UserID == viewerID {
		return false, nil
	}
	if err := s.checkVisible(ctx, viewerID, story); err != nil {
		return false, err
	}
	return s.views.MarkViewed(ctx, storyID, viewerID, s.now().UTC())
}

// Metrics returns view count and viewers, most recent first. Owner only.
func (s *StoryService) Metrics(ctx context.Context, ownerID uint, storyID string) (*models.StoryMetrics, error) {
	story, err := s.stories.GetStoryByID(ctx, storyID)
	if err != nil {
		return nil, notFoundAs(err, "story")
	}
	if story.UserID != ownerID {
		return nil, forbidden("only the author can see story metrics")
	}

	count, err := s.views.CountViews(ctx, storyID)
	if err != nil {
		return nil, err
	}
	viewerIDs, err := s.views.GetViewerIDs(ctx, storyID)
	if err != nil {
		return nil, err
	}
	users, err := s.users.GetUsersByIDs(ctx, viewerIDs)
	if err != nil {
		return nil, err
	}

	viewers := make([]models.UserCompact, 0, len(viewerIDs))
	for _, id := range viewerIDs {
		if u, ok := users[id]; ok {
			viewers = append(viewers, u.ToCompact())
		}
	}
	return &models.StoryMetrics{StoryID: storyID, Views: count, Viewers: viewers}, nil
}

// DeleteStory removes the owner's story, its views and media
func (s *StoryService) DeleteStory(ctx context.Context, ownerID uint, storyID string) error {
	story, err := s.stories.GetStoryByID(ctx, storyID)
	if err != nil {
		return notFoundAs(err, "story")
	}
	if story.UserID != ownerID {
		return forbidden("only the author can delete this story")
	}
	if err := s.stories.DeleteStory(ctx, storyID); err != nil {
		return notFoundAs(err, "story")
	}
	if err := s.views.DeleteByStoryIDs(ctx, []string{storyID}); err != nil {
		return err
	}
	removeBlob(ctx, s.store, story.StorageID)
	return nil
}

// SweepExpired deletes expired stories with their views and media, in batches
func (s *StoryService) SweepExpired(ctx context.Context) (int, error) {
	total := 0
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		expired, err := s.stories.GetExpiredStories(ctx, s.now(), sweepBatchSize)
		if err != nil {
			return total, err
		}
		if len(expired) == 0 {
			return total, nil
		}

		ids := make([]string, 0, len(expired))
		for _, st := range expired {
			ids = append(ids, st.ID.Hex())
		}
		if err := s.views.DeleteByStoryIDs(ctx, ids); err != nil {
			return total, err
		}
		n, err := s.stories.DeleteStories(ctx, ids)
		if err != nil {
			return total, err
		}
		for _, st := range expired {
			removeBlob(ctx, s.store, st.StorageID)
		}
		total += int(n)
		if n == 0 || len(expired) < sweepBatchSize {
			return total, nil
		}
	}
}

// RunSweeper sweeps on every tick until ctx is cancelled
func (s *StoryService) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		slog.ErrorContext(ctx, "story sweeper disabled", "interval", interval)
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.SweepExpired(ctx)
			if err != nil && ctx.Err() == nil {
				slog.ErrorContext(ctx, "story sweep failed", "error", err)
				continue
			}
			if n > 0 {
				slog.InfoContext(ctx, "expired stories swept", "count", n)
			}
		}
	}
}

func (s *StoryService) activeStory(ctx context.Context, storyID string) (*models.Story, error) {
	story, err := s.stories.GetStoryByID(ctx, storyID)
	if err != nil {
		return nil, notFoundAs(err, "story")
	}
	if !story.ExpiresAt.After(s.now()) {
		return nil, fmt.Errorf("story expired: %w", ErrNotFound)
	}
	return story, nil
}

// checkVisible hides private accounts' stories from non-followers
func (s *StoryService) checkVisible(ctx context.Context, viewerID uint, story *models.Story) error {
	return s.audience.check(ctx, viewerID, story.UserID, "story")
}
