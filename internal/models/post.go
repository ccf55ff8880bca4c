package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post represents an image post stored in MongoDB
type Post struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID    uint               `json:"user_id" bson:"user_id"`
	ImageURL  string             `json:"image_url" bson:"image_url"`
	StorageID string             `json:"storage_id" bson:"storage_id"`
	Caption   string             `json:"caption,omitempty" bson:"caption,omitempty"`
	Likes     int                `json:"likes" bson:"likes"`
	Comments  int                `json:"comments" bson:"comments"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time          `json:"updated_at" bson:"updated_at"`
}

// PostFilter narrows a post listing. A nil Authors matches every author;
// an empty non-nil Authors matches none.
type PostFilter struct {
	Authors        []uint
	ExcludeAuthors []uint
}

// CreatePostRequest defines the request body for creating a new post
type CreatePostRequest struct {
	StorageID string `json:"storage_id" validate:"required"`
	Caption   string `json:"caption,omitempty" validate:"omitempty,max=2200"`
}

// FeedPost is a post with author info and caller-specific flags
type FeedPost struct {
	Post
	Author       UserCompact `json:"author"`
	IsLiked      bool        `json:"is_liked"`
	IsBookmarked bool        `json:"is_bookmarked"`
}
