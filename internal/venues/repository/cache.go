package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"turfbook/pkg/logger"
	"turfbook/pkg/model"

	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "turfbook:venue:"

// Cache is the subset of redis.UniversalClient the venue cache uses.
type Cache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// CachedVenueLookup is a read-through Redis cache in front of a VenueLookup.
// Redis failures degrade to direct lookups.
type CachedVenueLookup struct {
	next VenueLookup
	rdb  Cache
	ttl  time.Duration
	log  *logger.Logger
}

func NewCachedVenueLookup(next VenueLookup, rdb Cache, ttl time.Duration, log *logger.Logger) *CachedVenueLookup {
	return &CachedVenueLookup{
		next: next,
		rdb:  rdb,
		ttl:  ttl,
		log:  log,
	}
}

func (c *CachedVenueLookup) GetVenue(ctx context.Context, id string) (*model.Venue, error) {
	key := cacheKeyPrefix + id

	bs, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var venue model.Venue
		if jsonErr := json.Unmarshal(bs, &venue); jsonErr == nil {
			return &venue, nil
		}
		c.log.Warn("Dropping undecodable cached venue", "venue_id", id)
	case !errors.Is(err, redis.Nil):
		c.log.Warn("Venue cache read failed", "venue_id", id, "error", err)
	}

	venue, err := c.next.GetVenue(ctx, id)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(venue); err == nil {
		if err := c.rdb.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			c.log.Warn("Venue cache write failed", "venue_id", id, "error", err)
		}
	}
	return venue, nil
}

// Invalidate drops a cached venue after a catalog change.
func (c *CachedVenueLookup) Invalidate(ctx context.Context, id string) error {
	return c.rdb.Del(ctx, cacheKeyPrefix+id).Err()
}
