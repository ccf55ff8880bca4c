package repositories

import (
	"context"

	"github.com/anonto42/spotlight/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FollowRepository defines the interface for follow data operations
type FollowRepository interface {
	CreateFollow(ctx context.Context, follow *models.Follow) (bool, error)
	DeleteFollow(ctx context.Context, followerID, followingID uint) (bool, error)
	IsFollowing(ctx context.Context, followerID, followingID uint) (bool, error)
	GetFollowers(ctx context.Context, userID uint) ([]models.User, error)
	GetFollowing(ctx context.Context, userID uint) ([]models.User, error)
	GetFollowingIDs(ctx context.Context, userID uint) ([]uint, error)
	DeleteByUserID(ctx context.Context, userID uint) ([]models.Follow, error)
}

// PostgresFollowRepository implements FollowRepository for PostgreSQL
type PostgresFollowRepository struct {
	db *gorm.DB
}

// NewPostgresFollowRepository creates a new PostgresFollowRepository
func NewPostgresFollowRepository(db *gorm.DB) *PostgresFollowRepository {
	return &PostgresFollowRepository{db: db}
}

func (r *PostgresFollowRepository) CreateFollow(ctx context.Context, follow *models.Follow) (bool, error) {
	res := conn(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "follower_id"}, {Name: "following_id"}},
		DoNothing: true,
	}).Create(follow)
	return res.RowsAffected > 0, res.Error
}

func (r *PostgresFollowRepository) DeleteFollow(ctx context.Context, followerID, followingID uint) (bool, error) {
	res := conn(ctx, r.db).Where("follower_id = ? AND following_id = ?", followerID, followingID).Delete(&models.Follow{})
	return res.RowsAffected > 0, res.Error
}

func (r *PostgresFollowRepository) IsFollowing(ctx context.Context, followerID, followingID uint) (bool, error) {
	var count int64
	if err := conn(ctx, r.db).Model(&models.Follow{}).Where("follower_id = ? AND following_id = ?", followerID, followingID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *PostgresFollowRepository) GetFollowers(ctx context.Context, userID uint) ([]models.User, error) {
	var users []models.User
	db := conn(ctx, r.db)
	err := db.Where("id IN (?)",
		db.Session(&gorm.Session{NewDB: true}).Model(&models.Follow{}).Select("follower_id").Where("following_id = ?", userID),
	).Order("username ASC").Find(&users).Error
	return users, err
}

func (r *PostgresFollowRepository) GetFollowing(ctx context.Context, userID uint) ([]models.User, error) {
	var users []models.User
	db := conn(ctx, r.db)
	err := db.Where("id IN (?)",
		db.Session(&gorm.Session{NewDB: true}).Model(&models.Follow{}).Select("following_id").Where("follower_id = ?", userID),
	).Order("username ASC").Find(&users).Error
	return users, err
}

func (r *PostgresFollowRepository) GetFollowingIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := conn(ctx, r.db).Model(&models.Follow{}).Where("follower_id = ?", userID).Pluck("following_id", &ids).Error
	return ids, err
}

// DeleteByUserID removes every follow edge touching the user and returns them
func (r *PostgresFollowRepository) DeleteByUserID(ctx context.Context, userID uint) ([]models.Follow, error) {
	var follows []models.Follow
	db := conn(ctx, r.db)
	if err := db.Where("follower_id = ? OR following_id = ?", userID, userID).Find(&follows).Error; err != nil {
		return nil, err
	}
	if err := db.Where("follower_id = ? OR following_id = ?", userID, userID).Delete(&models.Follow{}).Error; err != nil {
		return nil, err
	}
	return follows, nil
}
