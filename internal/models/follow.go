package models

import "time"

// Follow represents a follow relationship (follower -> following)
type Follow struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	FollowerID  uint      `json:"follower_id" gorm:"index;uniqueIndex:idx_follower_following"`
	FollowingID uint      `json:"following_id" gorm:"index;uniqueIndex:idx_follower_following"`
	CreatedAt   time.Time `json:"created_at"`
}

// Follow request statuses
const (
	FollowRequestPending  = "pending"
	FollowRequestAccepted = "accepted"
	FollowRequestRejected = "rejected"
)

// FollowRequest asks a private account for permission to follow it
type FollowRequest struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	RequesterID uint      `json:"requester_id" gorm:"index;uniqueIndex:idx_follow_request_pair"`
	TargetID    uint      `json:"target_id" gorm:"index;uniqueIndex:idx_follow_request_pair"`
	Status      string    `json:"status" gorm:"type:varchar(20);default:'pending'"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// FollowRequestWithUser includes the requester profile
type FollowRequestWithUser struct {
	FollowRequest
	Requester UserCompact `json:"requester"`
}

// FollowStatus is the caller's relationship to another user
type FollowStatus struct {
	Following bool `json:"following"`
	Requested bool `json:"requested"`
}

// FollowToggleResult describes what a follow toggle did
type FollowToggleResult struct {
	Following bool `json:"following"`
	Requested bool `json:"requested"`
}
