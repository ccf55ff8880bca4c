package repositories

import (
	"context"
	"time"

	"github.com/anonto42/spotlight/backend/internal/models"
	"gorm.io/gorm"
)

// NotificationRepository defines the interface for notification operations
type NotificationRepository interface {
	CreateNotification(ctx context.Context, notification *models.Notification) error
	GetByReceiverID(ctx context.Context, receiverID uint, page, limit int) ([]models.Notification, int64, error)
	GetGrouped(ctx context.Context, receiverID uint, now time.Time) (today, yesterday, thisWeek, older []models.Notification, err error)
	GetUnreadCount(ctx context.Context, receiverID uint) (int64, error)
	MarkAsRead(ctx context.Context, notificationID, receiverID uint) error
	MarkAllAsRead(ctx context.Context, receiverID uint) error
	DeleteByPostID(ctx context.Context, postID string) error
	DeleteByCommentID(ctx context.Context, commentID uint) error
	DeleteByUserID(ctx context.Context, userID uint) error
}

type postgresNotificationRepository struct {
	db *gorm.DB
}

// NewPostgresNotificationRepository creates a new notification repository
func NewPostgresNotificationRepository(db *gorm.DB) NotificationRepository {
	return &postgresNotificationRepository{db: db}
}

func (r *postgresNotificationRepository) CreateNotification(ctx context.Context, notification *models.Notification) error {
	return conn(ctx, r.db).Create(notification).Error
}

func (r *postgresNotificationRepository) GetByReceiverID(ctx context.Context, receiverID uint, page, limit int) ([]models.Notification, int64, error) {
	var notifications []models.Notification
	var total int64

	db := conn(ctx, r.db)
	if err := db.Model(&models.Notification{}).Where("receiver_id = ?", receiverID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := db.Where("receiver_id = ?", receiverID).
		Order("created_at DESC, id DESC").
		Offset(offset).Limit(limit).
		Find(&notifications).Error

	return notifications, total, err
}

func (r *postgresNotificationRepository) GetGrouped(ctx context.Context, receiverID uint, now time.Time) (today, yesterday, thisWeek, older []models.Notification, retErr error) {
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	yesterdayStart := todayStart.AddDate(0, 0, -1)
	weekStart := todayStart.AddDate(0, 0, -7)

	db := conn(ctx, r.db)

	// Today
	if err := db.Where("receiver_id = ? AND created_at >= ?", receiverID, todayStart).
		Order("created_at DESC").Find(&today).Error; err != nil {
		return nil, nil, nil, nil, err
	}

	// Yesterday
	if err := db.Where("receiver_id = ? AND created_at >= ? AND created_at < ?", receiverID, yesterdayStart, todayStart).
		Order("created_at DESC").Find(&yesterday).Error; err != nil {
		return nil, nil, nil, nil, err
	}

	// This week (excluding today and yesterday)
	if err := db.Where("receiver_id = ? AND created_at >= ? AND created_at < ?", receiverID, weekStart, yesterdayStart).
		Order("created_at DESC").Find(&thisWeek).Error; err != nil {
		return nil, nil, nil, nil, err
	}

	// Older
	if err := db.Where("receiver_id = ? AND created_at < ?", receiverID, weekStart).
		Order("created_at DESC").Limit(50).Find(&older).Error; err != nil {
		return nil, nil, nil, nil, err
	}

	return today, yesterday, thisWeek, older, nil
}

func (r *postgresNotificationRepository) GetUnreadCount(ctx context.Context, receiverID uint) (int64, error) {
	var count int64
	err := conn(ctx, r.db).Model(&models.Notification{}).Where("receiver_id = ? AND is_read = ?", receiverID, false).Count(&count).Error
	return count, err
}

// MarkAsRead marks one of the receiver's notifications as read
func (r *postgresNotificationRepository) MarkAsRead(ctx context.Context, notificationID, receiverID uint) error {
	res := conn(ctx, r.db).Model(&models.Notification{}).
		Where("id = ? AND receiver_id = ?", notificationID, receiverID).
		Update("is_read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *postgresNotificationRepository) MarkAllAsRead(ctx context.Context, receiverID uint) error {
	return conn(ctx, r.db).Model(&models.Notification{}).Where("receiver_id = ? AND is_read = ?", receiverID, false).Update("is_read", true).Error
}

func (r *postgresNotificationRepository) DeleteByPostID(ctx context.Context, postID string) error {
	return conn(ctx, r.db).Where("post_id = ?", postID).Delete(&models.Notification{}).Error
}

func (r *postgresNotificationRepository) DeleteByCommentID(ctx context.Context, commentID uint) error {
	return conn(ctx, r.db).Where("comment_id = ?", commentID).Delete(&models.Notification{}).Error
}

func (r *postgresNotificationRepository) DeleteByUserID(ctx context.Context, userID uint) error {
	return conn(ctx, r.db).Where("receiver_id = ? OR sender_id = ?", userID, userID).Delete(&models.Notification{}).Error
}
