package repositories

import (
	"context"
	"time"

	"github.com/anonto42/spotlight/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StoryViewRepository tracks which users viewed which stories (PostgreSQL)
type StoryViewRepository interface {
	MarkViewed(ctx context.Context, storyID string, viewerID uint, at time.Time) (bool, error)
	GetSeenStoryIDs(ctx context.Context, viewerID uint, storyIDs []string) (map[string]bool, error)
	CountViews(ctx context.Context, storyID string) (int64, error)
	GetViewerIDs(ctx context.Context, storyID string) ([]uint, error)
	DeleteByStoryIDs(ctx context.Context, storyIDs []string) error
	DeleteByViewerID(ctx context.Context, viewerID uint) error
}

type postgresStoryViewRepository struct {
	db *gorm.DB
}

// NewPostgresStoryViewRepository creates a new story view repository
func NewPostgresStoryViewRepository(db *gorm.DB) StoryViewRepository {
	return &postgresStoryViewRepository{db: db}
}

// MarkViewed records a view once per (story, viewer); it reports whether a row was added
func (r *postgresStoryViewRepository) MarkViewed(ctx context.Context, storyID string, viewerID uint, at time.Time) (bool, error) {
	view := &models.StoryView{StoryID: storyID, ViewerID: viewerID, ViewedAt: at}
	res := conn(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "story_id"}, {Name: "viewer_id"}},
		DoNothing: true,
	}).Create(view)
	return res.RowsAffected > 0, res.Error
}

func (r *postgresStoryViewRepository) GetSeenStoryIDs(ctx context.Context, viewerID uint, storyIDs []string) (map[string]bool, error) {
	result := make(map[string]bool)
	if len(storyIDs) == 0 {
		return result, nil
	}
	var ids []string
	err := conn(ctx, r.db).Model(&models.StoryView{}).
		Where("viewer_id = ? AND story_id IN ?", viewerID, storyIDs).
		Pluck("story_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		result[id] = true
	}
	return result, nil
}

func (r *postgresStoryViewRepository) CountViews(ctx context.Context, storyID string) (int64, error) {
	var count int64
	err := conn(ctx, r.db).Model(&models.StoryView{}).Where("story_id = ?", storyID).Count(&count).Error
	return count, err
}

// GetViewerIDs returns viewers most recent first
func (r *postgresStoryViewRepository) GetViewerIDs(ctx context.Context, storyID string) ([]uint, error) {
	var ids []uint
	err := conn(ctx, r.db).Model(&models.StoryView{}).
		Where("story_id = ?", storyID).
		Order("viewed_at DESC").
		Pluck("viewer_id", &ids).Error
	return ids, err
}

func (r *postgresStoryViewRepository) DeleteByStoryIDs(ctx context.Context, storyIDs []string) error {
	if len(storyIDs) == 0 {
		return nil
	}
	return conn(ctx, r.db).Where("story_id IN ?", storyIDs).Delete(&models.StoryView{}).Error
}

func (r *postgresStoryViewRepository) DeleteByViewerID(ctx context.Context, viewerID uint) error {
	return conn(ctx, r.db).Where("viewer_id = ?", viewerID).Delete(&models.StoryView{}).Error
}
