package repositories

import (
	"context"

	"github.com/anonto42/spotlight/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BookmarkRepository defines the interface for bookmark operations
type BookmarkRepository interface {
	CreateBookmark(ctx context.Context, bookmark *models.Bookmark) (bool, error)
	DeleteBookmark(ctx context.Context, userID uint, postID string) (bool, error)
	GetBookmarkedPostIDs(ctx context.Context, userID uint, postIDs []string) (map[string]bool, error)
	ListPostIDsByUser(ctx context.Context, userID uint, skip, limit int) ([]string, int64, error)
	DeleteByPostID(ctx context.Context, postID string) error
	DeleteByUserID(ctx context.Context, userID uint) error
}

type postgresBookmarkRepository struct {
	db *gorm.DB
}

// NewPostgresBookmarkRepository creates a new bookmark repository
func NewPostgresBookmarkRepository(db *gorm.DB) BookmarkRepository {
	return &postgresBookmarkRepository{db: db}
}

func (r *postgresBookmarkRepository) CreateBookmark(ctx context.Context, bookmark *models.Bookmark) (bool, error) {
	res := conn(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "post_id"}},
		DoNothing: true,
	}).Create(bookmark)
	return res.RowsAffected > 0, res.Error
}

func (r *postgresBookmarkRepository) DeleteBookmark(ctx context.Context, userID uint, postID string) (bool, error) {
	res := conn(ctx, r.db).Where("user_id = ? AND post_id = ?", userID, postID).Delete(&models.Bookmark{})
	return res.RowsAffected > 0, res.Error
}

func (r *postgresBookmarkRepository) GetBookmarkedPostIDs(ctx context.Context, userID uint, postIDs []string) (map[string]bool, error) {
	result := make(map[string]bool)
	if len(postIDs) == 0 {
		return result, nil
	}
	var ids []string
	err := conn(ctx, r.db).Model(&models.Bookmark{}).
		Where("user_id = ? AND post_id IN ?", userID, postIDs).
		Pluck("post_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		result[id] = true
	}
	return result, nil
}

// ListPostIDsByUser returns bookmarked post IDs newest first plus the total count
func (r *postgresBookmarkRepository) ListPostIDsByUser(ctx context.Context, userID uint, skip, limit int) ([]string, int64, error) {
	var total int64
	db := conn(ctx, r.db)
	if err := db.Model(&models.Bookmark{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var ids []string
	err := db.Model(&models.Bookmark{}).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Offset(skip).Limit(limit).
		Pluck("post_id", &ids).Error
	return ids, total, err
}

func (r *postgresBookmarkRepository) DeleteByPostID(ctx context.Context, postID string) error {
	return conn(ctx, r.db).Where("post_id = ?", postID).Delete(&models.Bookmark{}).Error
}

func (r *postgresBookmarkRepository) DeleteByUserID(ctx context.Context, userID uint) error {
	return conn(ctx, r.db).Where("user_id = ?", userID).Delete(&models.Bookmark{}).Error
}
