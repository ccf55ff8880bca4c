package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Story represents a single ephemeral story item stored in MongoDB
type Story struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID    uint               `json:"user_id" bson:"user_id"`
	MediaURL  string             `json:"media_url" bson:"media_url"`
	StorageID string             `json:"storage_id" bson:"storage_id"`
	MediaType string             `json:"media_type" bson:"media_type"` // "image" or "video"
	Duration  int                `json:"duration" bson:"duration"`     // seconds
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
	ExpiresAt time.Time          `json:"expires_at" bson:"expires_at"`
}

// StoryView records that a user viewed a story (PostgreSQL)
type StoryView struct {
	ID       uint      `json:"id" gorm:"primaryKey"`
	StoryID  string    `json:"story_id" gorm:"size:24;index;uniqueIndex:idx_story_viewer"`
	ViewerID uint      `json:"viewer_id" gorm:"index;uniqueIndex:idx_story_viewer"`
	ViewedAt time.Time `json:"viewed_at"`
}

// CreateStoryRequest defines the request body for creating a story
type CreateStoryRequest struct {
	StorageID string `json:"storage_id" validate:"required"`
	MediaType string `json:"media_type" validate:"required,oneof=image video"`
	Duration  int    `json:"duration,omitempty" validate:"omitempty,min=1,max=60"`
}

// StoryItem is a story as shown in the viewer
type StoryItem struct {
	Story
	Seen bool `json:"seen"`
}

// StoryGroup is one author's active stories in the tray
type StoryGroup struct {
	Author    UserCompact `json:"author"`
	Stories   []StoryItem `json:"stories"`
	HasUnseen bool        `json:"has_unseen"`
}

// StoryTray is the caller's story tray
type StoryTray struct {
	CurrentUser *StoryGroup  `json:"current_user"`
	Groups      []StoryGroup `json:"groups"`
}

// StoryMetrics summarises who saw a story
type StoryMetrics struct {
	StoryID string        `json:"story_id"`
	Views   int64         `json:"views"`
	Viewers []UserCompact `json:"viewers"`
}
