package models

import "time"

// Like represents a like on a post
type Like struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"uniqueIndex:idx_like_user_post"`
	PostID    string    `json:"post_id" gorm:"size:24;index;uniqueIndex:idx_like_user_post"` // MongoDB ObjectID hex
	CreatedAt time.Time `json:"created_at"`
}
