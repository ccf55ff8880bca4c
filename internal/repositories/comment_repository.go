package repositories

import (
	"context"

	"github.com/anonto42/spotlight/backend/internal/models"
	"gorm.io/gorm"
)

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	CreateComment(ctx context.Context, comment *models.Comment) error
	GetCommentByID(ctx context.Context, id uint) (*models.Comment, error)
	GetCommentsByIDs(ctx context.Context, ids []uint) (map[uint]models.Comment, error)
	GetCommentsByPostID(ctx context.Context, postID string) ([]models.Comment, error)
	DeleteComment(ctx context.Context, id uint) error
	DeleteByPostID(ctx context.Context, postID string) error
	DeleteByUserID(ctx context.Context, userID uint) ([]models.Comment, error)
}

type postgresCommentRepository struct {
	db *gorm.DB
}

// NewPostgresCommentRepository creates a new comment repository
func NewPostgresCommentRepository(db *gorm.DB) CommentRepository {
	return &postgresCommentRepository{db: db}
}

func (r *postgresCommentRepository) CreateComment(ctx context.Context, comment *models.Comment) error {
	return conn(ctx, r.db).Create(comment).Error
}

func (r *postgresCommentRepository) GetCommentByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := conn(ctx, r.db).First(&comment, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &comment, nil
}

func (r *postgresCommentRepository) GetCommentsByIDs(ctx context.Context, ids []uint) (map[uint]models.Comment, error) {
	result := make(map[uint]models.Comment, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var comments []models.Comment
	if err := conn(ctx, r.db).Where("id IN ?", ids).Find(&comments).Error; err != nil {
		return nil, err
	}
	for _, c := range comments {
		result[c.ID] = c
	}
	return result, nil
}

func (r *postgresCommentRepository) GetCommentsByPostID(ctx context.Context, postID string) ([]models.Comment, error) {
	var comments []models.Comment
	err := conn(ctx, r.db).Where("post_id = ?", postID).Order("created_at DESC, id DESC").Find(&comments).Error
	return comments, err
}

func (r *postgresCommentRepository) DeleteComment(ctx context.Context, id uint) error {
	res := conn(ctx, r.db).Delete(&models.Comment{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *postgresCommentRepository) DeleteByPostID(ctx context.Context, postID string) error {
	return conn(ctx, r.db).Where("post_id = ?", postID).Delete(&models.Comment{}).Error
}

func (r *postgresCommentRepository) DeleteByUserID(ctx context.Context, userID uint) ([]models.Comment, error) {
	var comments []models.Comment
	db := conn(ctx, r.db)
	if err := db.Where("user_id = ?", userID).Find(&comments).Error; err != nil {
		return nil, err
	}
	if err := db.Where("user_id = ?", userID).Delete(&models.Comment{}).Error; err != nil {
		return nil, err
	}
	return comments, nil
}
