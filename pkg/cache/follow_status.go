// Package cache holds the Redis-backed follow-status cache, the follow toggle
// throttle and the SETNX de-duplication window.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/anonto42/spotlight/backend/internal/models"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// LoadFunc fetches the follow status from the source of truth
type LoadFunc func(ctx context.Context) (models.FollowStatus, error)

// FollowStatusCache caches the relationship of one user to another. Concurrent
// misses for the same pair share a single load.
type FollowStatusCache struct {
	rdb   redis.UniversalClient
	ttl   time.Duration
	group singleflight.Group
}

// NewFollowStatusCache creates a cache whose entries live for ttl
func NewFollowStatusCache(rdb redis.UniversalClient, ttl time.Duration) *FollowStatusCache {
	return &FollowStatusCache{rdb: rdb, ttl: ttl}
}

func followKey(followerID, targetID uint) string {
	return fmt.Sprintf("follow:%d:%d", followerID, targetID)
}

// Get returns the cached status or loads and stores it. Redis failures degrade
// to calling load directly.
func (c *FollowStatusCache) Get(ctx context.Context, followerID, targetID uint, load LoadFunc) (models.FollowStatus, error) {
	key := followKey(followerID, targetID)

	raw, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var status models.FollowStatus
		if jerr := json.Unmarshal(raw, &status); jerr == nil {
			return status, nil
		}
	case !errors.Is(err, redis.Nil):
		slog.WarnContext(ctx, "follow cache read failed", "key", key, "error", err)
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		status, err := load(ctx)
		if err != nil {
			return models.FollowStatus{}, err
		}
		if payload, jerr := json.Marshal(status); jerr == nil {
			if serr := c.rdb.Set(ctx, key, payload, c.ttl).Err(); serr != nil {
				slog.WarnContext(ctx, "follow cache write failed", "key", key, "error", serr)
			}
		}
		return status, nil
	})
	if err != nil {
		return models.FollowStatus{}, err
	}
	return v.(models.FollowStatus), nil
}

// Invalidate drops the cached status for the pair
func (c *FollowStatusCache) Invalidate(ctx context.Context, followerID, targetID uint) {
	key := followKey(followerID, targetID)
	if err := c.rdb.Del(ctx, key).Err(); err != nil {
		slog.WarnContext(ctx, "follow cache invalidate failed", "key", key, "error", err)
	}
}
