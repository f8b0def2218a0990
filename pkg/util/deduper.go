package util

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Deduper struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewDeduper(rdb *redis.Client, ttl time.Duration) *Deduper {
	return &Deduper{rdb: rdb, ttl: ttl}
}

// AcquireOnce returns true the first time a handler sees eventID and false
// for duplicates. When Redis is unavailable it lets the event through.
func (d *Deduper) AcquireOnce(ctx context.Context, handler, eventID string) bool {
	key := fmt.Sprintf("dedup:%s:%s", handler, eventID)

	ok, err := d.rdb.SetNX(ctx, key, 1, d.ttl).Result()
	if err != nil {
		return true
	}
	return ok
}

// Release drops the marker so a failed handler can process the event again.
func (d *Deduper) Release(ctx context.Context, handler, eventID string) {
	d.rdb.Del(ctx, fmt.Sprintf("dedup:%s:%s", handler, eventID))
}
