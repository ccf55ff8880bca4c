package models

import "time"

// Comment represents a comment on a post
type Comment struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"index"`
	PostID    string    `json:"post_id" gorm:"size:24;index"`
	Content   string    `json:"content" gorm:"size:500"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

// CreateCommentRequest defines the request body for commenting on a post
type CreateCommentRequest struct {
	Content string `json:"content" validate:"required,min=1,max=500"`
}

// CommentWithAuthor is a comment enriched with its author
type CommentWithAuthor struct {
	Comment
	Author UserCompact `json:"author"`
}
