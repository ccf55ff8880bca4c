package models

import "time"

// Bookmark represents a saved post
type Bookmark struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"index;uniqueIndex:idx_bookmark_user_post"`
	PostID    string    `json:"post_id" gorm:"size:24;index;uniqueIndex:idx_bookmark_user_post"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
}
