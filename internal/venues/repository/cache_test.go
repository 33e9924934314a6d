package repository

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"turfbook/pkg/logger"
	"turfbook/pkg/model"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCache struct {
	mu      sync.Mutex
	data    map[string]string
	ttls    map[string]time.Duration
	readErr error
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeCache) Get(_ context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return redis.NewStringResult("", f.readErr)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeCache) Set(_ context.Context, key string, value any, exp time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	}
	f.ttls[key] = exp
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeCache) Del(_ context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

type countingLookup struct {
	venues map[string]*model.Venue
	calls  int
}

func (c *countingLookup) GetVenue(_ context.Context, id string) (*model.Venue, error) {
	c.calls++
	v, ok := c.venues[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *v
	return &cp, nil
}

func newLookup() *countingLookup {
	return &countingLookup{venues: map[string]*model.Venue{
		"turf-1": {ID: "turf-1", Name: "Arena", Capacity: 20, PricePerHour: 1000, IsActive: true},
	}}
}

func TestCachedVenueLookup_ReadThrough(t *testing.T) {
	store := newFakeCache()
	next := newLookup()
	cached := NewCachedVenueLookup(next, store, time.Minute, logger.Discard())

	first, err := cached.GetVenue(context.Background(), "turf-1")
	require.NoError(t, err)
	second, err := cached.GetVenue(context.Background(), "turf-1")
	require.NoError(t, err)

	assert.Equal(t, 1, next.calls, "second read should be served from cache")
	assert.Equal(t, first.Capacity, second.Capacity)
	assert.Equal(t, time.Minute, store.ttls[cacheKeyPrefix+"turf-1"])
}

func TestCachedVenueLookup_NotFoundIsNotCached(t *testing.T) {
	store := newFakeCache()
	next := newLookup()
	cached := NewCachedVenueLookup(next, store, time.Minute, logger.Discard())

	_, err := cached.GetVenue(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = cached.GetVenue(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, 2, next.calls)
	assert.Empty(t, store.data)
}

func TestCachedVenueLookup_RedisDownFallsThrough(t *testing.T) {
	store := newFakeCache()
	store.readErr = errors.New("connection refused")
	next := newLookup()
	cached := NewCachedVenueLookup(next, store, time.Minute, logger.Discard())

	venue, err := cached.GetVenue(context.Background(), "turf-1")
	require.NoError(t, err)
	assert.Equal(t, 20, venue.Capacity)
	assert.Equal(t, 1, next.calls)
}

func TestCachedVenueLookup_Invalidate(t *testing.T) {
	store := newFakeCache()
	next := newLookup()
	cached := NewCachedVenueLookup(next, store, time.Minute, logger.Discard())

	_, err := cached.GetVenue(context.Background(), "turf-1")
	require.NoError(t, err)

	next.venues["turf-1"].Capacity = 12
	require.NoError(t, cached.Invalidate(context.Background(), "turf-1"))

	venue, err := cached.GetVenue(context.Background(), "turf-1")
	require.NoError(t, err)
	assert.Equal(t, 12, venue.Capacity)
	assert.Equal(t, 2, next.calls)
}

func TestCachedVenueLookup_CorruptEntry(t *testing.T) {
	store := newFakeCache()
	store.data[cacheKeyPrefix+"turf-1"] = "{not json"
	next := newLookup()
	cached := NewCachedVenueLookup(next, store, time.Minute, logger.Discard())

	venue, err := cached.GetVenue(context.Background(), "turf-1")
	require.NoError(t, err)
	assert.Equal(t, "Arena", venue.Name)

	var stored model.Venue
	require.NoError(t, json.Unmarshal([]byte(store.data[cacheKeyPrefix+"turf-1"]), &stored))
	assert.Equal(t, "turf-1", stored.ID)
}
