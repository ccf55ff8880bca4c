package repositories

import (
	"context"

	"github.com/anonto42/spotlight/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LikeRepository defines the interface for like data operations
type LikeRepository interface {
	CreateLike(ctx context.Context, like *models.Like) (bool, error)
	DeleteLike(ctx context.Context, postID string, userID uint) (bool, error)
	HasUserLikedPost(ctx context.Context, postID string, userID uint) (bool, error)
	GetLikedPostIDs(ctx context.Context, userID uint, postIDs []string) (map[string]bool, error)
	CountByPostID(ctx context.Context, postID string) (int64, error)
	DeleteByPostID(ctx context.Context, postID string) error
	DeleteByUserID(ctx context.Context, userID uint) ([]string, error)
}

// PostgresLikeRepository implements LikeRepository for PostgreSQL
type PostgresLikeRepository struct {
	db *gorm.DB
}

// NewPostgresLikeRepository creates a new PostgresLikeRepository
func NewPostgresLikeRepository(db *gorm.DB) *PostgresLikeRepository {
	return &PostgresLikeRepository{db: db}
}

// CreateLike inserts a like; it reports false when the user already liked the post
func (r *PostgresLikeRepository) CreateLike(ctx context.Context, like *models.Like) (bool, error) {
	res := conn(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "post_id"}},
		DoNothing: true,
	}).Create(like)
	return res.RowsAffected > 0, res.Error
}

// DeleteLike removes a like; it reports false when there was nothing to remove
func (r *PostgresLikeRepository) DeleteLike(ctx context.Context, postID string, userID uint) (bool, error) {
	res := conn(ctx, r.db).Where("post_id = ? AND user_id = ?", postID, userID).Delete(&models.Like{})
	return res.RowsAffected > 0, res.Error
}

// HasUserLikedPost checks if a user has liked a specific post
func (r *PostgresLikeRepository) HasUserLikedPost(ctx context.Context, postID string, userID uint) (bool, error) {
	var count int64
	if err := conn(ctx, r.db).Model(&models.Like{}).Where("post_id = ? AND user_id = ?", postID, userID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetLikedPostIDs returns which of postIDs the user has liked
func (r *PostgresLikeRepository) GetLikedPostIDs(ctx context.Context, userID uint, postIDs []string) (map[string]bool, error) {
	result := make(map[string]bool)
	if len(postIDs) == 0 {
		return result, nil
	}
	var ids []string
	err := conn(ctx, r.db).Model(&models.Like{}).
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

// CountByPostID counts likes on a post
func (r *PostgresLikeRepository) CountByPostID(ctx context.Context, postID string) (int64, error) {
	var count int64
	err := conn(ctx, r.db).Model(&models.Like{}).Where("post_id = ?", postID).Count(&count).Error
	return count, err
}

// DeleteByPostID removes every like on a post
func (r *PostgresLikeRepository) DeleteByPostID(ctx context.Context, postID string) error {
	return conn(ctx, r.db).Where("post_id = ?", postID).Delete(&models.Like{}).Error
}

// DeleteByUserID removes a user's likes and returns the affected post IDs
func (r *PostgresLikeRepository) DeleteByUserID(ctx context.Context, userID uint) ([]string, error) {
	var postIDs []string
	db := conn(ctx, r.db)
	if err := db.Model(&models.Like{}).Where("user_id = ?", userID).Pluck("post_id", &postIDs).Error; err != nil {
		return nil, err
	}
	if err := db.Where("user_id = ?", userID).Delete(&models.Like{}).Error; err != nil {
		return nil, err
	}
	return postIDs, nil
}
