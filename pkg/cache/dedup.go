package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Deduper remembers keys for a window
type Deduper struct {
	rdb redis.UniversalClient
}

func NewDeduper(rdb redis.UniversalClient) *Deduper {
	return &Deduper{rdb: rdb}
}

// FirstSeen reports true the first time key is seen within ttl
func (d *Deduper) FirstSeen(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return d.rdb.SetNX(ctx, "dedup:"+key, "1", ttl).Result()
}

// Forget removes key so the next FirstSeen returns true again
func (d *Deduper) Forget(ctx context.Context, key string) error {
	return d.rdb.Del(ctx, "dedup:"+key).Err()
}
