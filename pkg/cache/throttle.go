package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Throttle is a fixed-window counter per key
type Throttle struct {
	rdb redis.UniversalClient
}

func NewThrottle(rdb redis.UniversalClient) *Throttle {
	return &Throttle{rdb: rdb}
}

// Allow counts one hit for key and reports whether the window is still under limit
func (t *Throttle) Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, error) {
	k := "rl:" + key
	n, err := t.rdb.Incr(ctx, k).Result()
	if err != nil {
		return false, err
	}
	if n == 1 {
		if err := t.rdb.Expire(ctx, k, window).Err(); err != nil {
			return false, err
		}
	}
	return n <= limit, nil
}
