package lock

import (
	"context"
	"fmt"
	"time"

	"turfbook/pkg/model"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only when it still carries our token, so a
// holder whose lock expired cannot free somebody else's lock.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisClient is the part of the go-redis client the locker uses.
type RedisClient interface {
	redis.Scripter
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
}

type redisLocker struct {
	client  RedisClient
	timeout time.Duration
	ttl     time.Duration
}

func NewRedisLocker(client RedisClient, timeout, ttl time.Duration) Locker {
	return &redisLocker{
		client:  client,
		timeout: timeout,
		ttl:     ttl,
	}
}

func (l *redisLocker) Acquire(ctx context.Context, key model.SlotKey) (ReleaseFunc, error) {
	id := "turfbook:" + lockID(key)
	token := uuid.NewString()
	deadline := time.Now().Add(l.timeout)

	for {
		ok, err := l.client.SetNX(ctx, id, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire slot lock: %w", err)
		}
		if ok {
			return func(ctx context.Context) error {
				return releaseScript.Run(ctx, l.client, []string{id}, token).Err()
			}, nil
		}
		if err := waitRetry(ctx, deadline); err != nil {
			return nil, err
		}
	}
}
