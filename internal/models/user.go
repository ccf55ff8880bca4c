package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// User is a profile mirrored from the identity provider (PostgreSQL)
type User struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Username    string    `json:"username" gorm:"size:64;uniqueIndex"`
	FullName    string    `json:"full_name" gorm:"size:128"`
	Email       string    `json:"email" gorm:"size:255;uniqueIndex"`
	Bio         string    `json:"bio,omitempty" gorm:"size:300"`
	ImageURL    string    `json:"image_url"`
	ProviderUID string    `json:"-" gorm:"size:128;uniqueIndex"` // identity provider user id
	IsPrivate   bool      `json:"is_private" gorm:"default:false"`
	Followers   int       `json:"followers" gorm:"default:0"`
	Following   int       `json:"following" gorm:"default:0"`
	Posts       int       `json:"posts" gorm:"default:0"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UserCompact is the author/actor shape embedded in feed items and notifications
type UserCompact struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name,omitempty"`
	ImageURL string `json:"image_url"`
}

// ToCompact returns the compact representation of the user
func (u *User) ToCompact() UserCompact {
	return UserCompact{
		ID:       u.ID,
		Username: u.Username,
		FullName: u.FullName,
		ImageURL: u.ImageURL,
	}
}

// UpdateProfileRequest defines the request body for updating the caller's profile
type UpdateProfileRequest struct {
	FullName  *string `json:"full_name,omitempty" validate:"omitempty,min=1,max=128"`
	Bio       *string `json:"bio,omitempty" validate:"omitempty,max=300"`
	IsPrivate *bool   `json:"is_private,omitempty"`
}

// ProfileResponse is a user profile as seen by the caller
type ProfileResponse struct {
	User
	IsFollowing          bool `json:"is_following"`
	FollowRequestPending bool `json:"follow_request_pending"`
}

// SessionRequest exchanges an identity provider token for an app session
type SessionRequest struct {
	IDToken string `json:"id_token" validate:"required"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID      uint   `json:"user_id"`
	ProviderUID string `json:"provider_uid"`
	jwt.RegisteredClaims
}
