package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/anonto42/spotlight/backend/internal/models"
	"github.com/anonto42/spotlight/backend/internal/repositories"
	"github.com/anonto42/spotlight/backend/pkg/cache"
	"github.com/anonto42/spotlight/backend/pkg/events"
)

// FollowStatusCache caches follow status per (follower, target) pair
type FollowStatusCache interface {
	Get(ctx context.Context, followerID, targetID uint, load cache.LoadFunc) (models.FollowStatus, error)
	Invalidate(ctx context.Context, followerID, targetID uint)
}

// Limiter admits a bounded number of hits per key and window
type Limiter interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, error)
}

// Deduper reports whether a key is new within a window
type Deduper interface {
	FirstSeen(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// GraphLimits bounds follow toggling and follow notification repeats
type GraphLimits struct {
	ToggleLimit       int64
	ToggleWindow      time.Duration
	NotificationDedup time.Duration
}

// GraphService manages follows and follow requests
type GraphService struct {
	users     repositories.UserRepository
	follows   repositories.FollowRepository
	requests  repositories.FollowRequestRepository
	notifier  *NotificationService
	cache     FollowStatusCache
	limiter   Limiter
	dedup     Deduper
	tx        repositories.Transactor
	publisher events.Publisher
	limits    GraphLimits
}

// GraphDeps groups the dependencies of GraphService
type GraphDeps struct {
	Users     repositories.UserRepository
	Follows   repositories.FollowRepository
	Requests  repositories.FollowRequestRepository
	Notifier  *NotificationService
	Cache     FollowStatusCache
	Limiter   Limiter
	Dedup     Deduper
	Tx        repositories.Transactor
	Publisher events.Publisher
	Limits    GraphLimits
}

// NewGraphService creates a new GraphService
func NewGraphService(d GraphDeps) *GraphService {
	return &GraphService{
		users:     d.Users,
		follows:   d.Follows,
		requests:  d.Requests,
		notifier:  d.Notifier,
		cache:     d.Cache,
		limiter:   d.Limiter,
		dedup:     d.Dedup,
		tx:        d.Tx,
		publisher: d.Publisher,
		limits:    d.Limits,
	}
}

// ToggleFollow unfollows when following, withdraws a pending request when one
// exists, and otherwise follows a public account or requests a private one.
func (s *GraphService) ToggleFollow(ctx context.Context, followerID, targetID uint) (*models.FollowToggleResult, error) {
	if followerID == targetID {
		return nil, invalid("cannot follow yourself")
	}

	if s.limiter != nil && s.limits.ToggleLimit > 0 {
		key := fmt.Sprintf("follow:%d:%d", followerID, targetID)
		ok, err := s.limiter.Allow(ctx, key, s.limits.ToggleLimit, s.limits.ToggleWindow)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrRateLimited
		}
	}

	target, err := s.users.GetUserByID(ctx, targetID)
	if err != nil {
		return nil, notFoundAs(err, "user")
	}
	defer s.cache.Invalidate(ctx, followerID, targetID)

	following, err := s.follows.IsFollowing(ctx, followerID, targetID)
	if err != nil {
		return nil, err
	}
	if following {
		if err := s.unfollow(ctx, followerID, targetID); err != nil {
			return nil, err
		}
		return &models.FollowToggleResult{}, nil
	}

	pending, err := s.requests.GetPending(ctx, followerID, targetID)
	switch {
	case err == nil:
		if err := s.requests.Delete(ctx, pending.ID); err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return nil, err
		}
		return &models.FollowToggleResult{}, nil
	case !errors.Is(err, repositories.ErrNotFound):
		return nil, err
	}

	if target.IsPrivate {
		req, err := s.requests.UpsertPending(ctx, followerID, targetID)
		if err != nil {
			return nil, err
		}
		s.notifier.notifyBestEffort(ctx, &models.Notification{
			ReceiverID: targetID,
			SenderID:   followerID,
			Type:       models.NotificationFollowRequest,
		})
		events.Emit(ctx, s.publisher, events.New(events.FollowRequested, strconv.FormatUint(uint64(req.ID), 10), followerID, map[string]any{
			"target_id": targetID,
		}))
		return &models.FollowToggleResult{Requested: true}, nil
	}

	created, err := s.follow(ctx, followerID, targetID)
	if err != nil {
		return nil, err
	}
	if created {
		s.announceFollow(ctx, followerID, targetID, models.NotificationFollow, followerID, targetID)
	}
	return &models.FollowToggleResult{Following: true}, nil
}

// follow inserts the edge and moves both counters when the edge is new
func (s *GraphService) follow(ctx context.Context, followerID, targetID uint) (bool, error) {
	var created bool
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		created, err = s.follows.CreateFollow(ctx, &models.Follow{FollowerID: followerID, FollowingID: targetID})
		if err != nil || !created {
			return err
		}
		if err := s.users.AdjustCounter(ctx, followerID, repositories.CounterFollowing, 1); err != nil {
			return err
		}
		return s.users.AdjustCounter(ctx, targetID, repositories.CounterFollowers, 1)
	})
	return created, err
}

func (s *GraphService) unfollow(ctx context.Context, followerID, targetID uint) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		removed, err := s.follows.DeleteFollow(ctx, followerID, targetID)
		if err != nil || !removed {
			return err
		}
		if err := s.users.AdjustCounter(ctx, followerID, repositories.CounterFollowing, -1); err != nil {
			return err
		}
		return s.users.AdjustCounter(ctx, targetID, repositories.CounterFollowers, -1)
	})
}

// announceFollow notifies receiver once per dedup window and publishes the follow
func (s *GraphService) announceFollow(ctx context.Context, followerID, targetID uint, kind string, senderID, receiverID uint) {
	notify := true
	if s.dedup != nil && s.limits.NotificationDedup > 0 {
		key := fmt.Sprintf("notify:%s:%d:%d", kind, senderID, receiverID)
		first, err := s.dedup.FirstSeen(ctx, key, s.limits.NotificationDedup)
		notify = err != nil || first
	}
	if notify {
		s.notifier.notifyBestEffort(ctx, &models.Notification{
			ReceiverID: receiverID,
			SenderID:   senderID,
			Type:       kind,
		})
	}
	events.Emit(ctx, s.publisher, events.New(events.UserFollowed, strconv.FormatUint(uint64(targetID), 10), followerID, nil))
}

// Status returns the viewer's relationship to target through the cache
func (s *GraphService) Status(ctx context.Context, viewerID, targetID uint) (models.FollowStatus, error) {
	if viewerID == targetID {
		return models.FollowStatus{}, nil
	}
	return s.cache.Get(ctx, viewerID, targetID, func(ctx context.Context) (models.FollowStatus, error) {
		return s.loadStatus(ctx, viewerID, targetID)
	})
}

func (s *GraphService) loadStatus(ctx context.Context, viewerID, targetID uint) (models.FollowStatus, error) {
	following, err := s.follows.IsFollowing(ctx, viewerID, targetID)
	if err != nil {
		return models.FollowStatus{}, err
	}
	if following {
		return models.FollowStatus{Following: true}, nil
	}
	_, err = s.requests.GetPending(ctx, viewerID, targetID)
	switch {
	case err == nil:
		return models.FollowStatus{Requested: true}, nil
	case errors.Is(err, repositories.ErrNotFound):
		return models.FollowStatus{}, nil
	default:
		return models.FollowStatus{}, err
	}
}

// PendingRequests lists requests addressed to targetID with requester profiles
func (s *GraphService) PendingRequests(ctx context.Context, targetID uint) ([]models.FollowRequestWithUser, error) {
	reqs, err := s.requests.ListPendingForTarget(ctx, targetID)
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(reqs))
	for _, r := range reqs {
		ids = append(ids, r.RequesterID)
	}
	users, err := s.users.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]models.FollowRequestWithUser, 0, len(reqs))
	for _, r := range reqs {
		item := models.FollowRequestWithUser{FollowRequest: r}
		if u, ok := users[r.RequesterID]; ok {
			item.Requester = u.ToCompact()
		}
		out = append(out, item)
	}
	return out, nil
}

// AcceptRequest lets the target approve a pending request; the follow edge is created
func (s *GraphService) AcceptRequest(ctx context.Context, targetID, requestID uint) error {
	req, err := s.pendingFor(ctx, requestID)
	if err != nil {
		return err
	}
	if req.TargetID != targetID {
		return forbidden("only the requested user can accept")
	}

	var created bool
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.requests.UpdateStatus(ctx, req.ID, models.FollowRequestAccepted); err != nil {
			return err
		}
		var err error
		created, err = s.follow(ctx, req.RequesterID, req.TargetID)
		return err
	})
	if err != nil {
		return err
	}
	s.cache.Invalidate(ctx, req.RequesterID, req.TargetID)

	if created {
		s.announceFollow(ctx, req.RequesterID, req.TargetID, models.NotificationFollowAccepted, req.TargetID, req.RequesterID)
	}
	return nil
}

// RejectRequest lets the target decline a pending request
func (s *GraphService) RejectRequest(ctx context.Context, targetID, requestID uint) error {
	req, err := s.pendingFor(ctx, requestID)
	if err != nil {
		return err
	}
	if req.TargetID != targetID {
		return forbidden("only the requested user can reject")
	}
	if err := s.requests.UpdateStatus(ctx, req.ID, models.FollowRequestRejected); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, req.RequesterID, req.TargetID)
	return nil
}

// CancelRequest lets the requester withdraw their own request
func (s *GraphService) CancelRequest(ctx context.Context, requesterID, requestID uint) error {
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return notFoundAs(err, "follow request")
	}
	if req.RequesterID != requesterID {
		return forbidden("only the requester can cancel")
	}
	if err := s.requests.Delete(ctx, req.ID); err != nil {
		return notFoundAs(err, "follow request")
	}
	s.cache.Invalidate(ctx, req.RequesterID, req.TargetID)
	return nil
}

func (s *GraphService) pendingFor(ctx context.Context, requestID uint) (*models.FollowRequest, error) {
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, notFoundAs(err, "follow request")
	}
	if req.Status != models.FollowRequestPending {
		return nil, fmt.Errorf("follow request already %s: %w", req.Status, ErrConflict)
	}
	return req, nil
}

// Followers lists the users following userID
func (s *GraphService) Followers(ctx context.Context, userID uint) ([]models.UserCompact, error) {
	if _, err := s.users.GetUserByID(ctx, userID); err != nil {
		return nil, notFoundAs(err, "user")
	}
	users, err := s.follows.GetFollowers(ctx, userID)
	if err != nil {
		return nil, err
	}
	return compact(users), nil
}

// Following lists the users userID follows
func (s *GraphService) Following(ctx context.Context, userID uint) ([]models.UserCompact, error) {
	if _, err := s.users.GetUserByID(ctx, userID); err != nil {
		return nil, notFoundAs(err, "user")
	}
	users, err := s.follows.GetFollowing(ctx, userID)
	if err != nil {
		return nil, err
	}
	return compact(users), nil
}

func compact(users []models.User) []models.UserCompact {
	out := make([]models.UserCompact, 0, len(users))
	for i := range users {
		out = append(out, users[i].ToCompact())
	}
	return out
}
