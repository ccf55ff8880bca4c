package models

import "time"

// Notification types
const (
	NotificationLike           = "like"
	NotificationComment        = "comment"
	NotificationFollow         = "follow"
	NotificationFollowRequest  = "follow_request"
	NotificationFollowAccepted = "follow_accepted"
)

// Notification represents a user notification (PostgreSQL)
type Notification struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	ReceiverID uint      `json:"receiver_id" gorm:"index"`
	SenderID   uint      `json:"sender_id" gorm:"index"`
	Type       string    `json:"type" gorm:"size:30"`
	PostID     string    `json:"post_id,omitempty" gorm:"size:24;index"`
	CommentID  *uint     `json:"comment_id,omitempty"`
	IsRead     bool      `json:"is_read" gorm:"default:false;index"`
	CreatedAt  time.Time `json:"created_at" gorm:"index"`
}

// NotificationView includes the sender and a preview of the post, when any
type NotificationView struct {
	Notification
	Sender       UserCompact `json:"sender"`
	PostImageURL string      `json:"post_image_url,omitempty"`
	Comment      string      `json:"comment,omitempty"`
}

// GroupedNotifications buckets notifications by age
type GroupedNotifications struct {
	Today     []NotificationView `json:"today"`
	Yesterday []NotificationView `json:"yesterday"`
	ThisWeek  []NotificationView `json:"this_week"`
	Older     []NotificationView `json:"older"`
}
