package lock

import (
	"context"
	"fmt"
	"time"

	"turfbook/pkg/config"
	"turfbook/pkg/model"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const LockCollectionName = "Slot_locks"

type mongoLocker struct {
	collection *mongo.Collection
	timeout    time.Duration
	ttl        time.Duration
}

func NewMongoLocker(cfg *config.Config) Locker {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return newMongoLocker(db.Collection(LockCollectionName), cfg.SlotLockTimeout, cfg.SlotLockTTL)
}

func newMongoLocker(collection *mongo.Collection, timeout, ttl time.Duration) *mongoLocker {
	return &mongoLocker{
		collection: collection,
		timeout:    timeout,
		ttl:        ttl,
	}
}

// Acquire inserts the lock document; a duplicate _id means another request
// holds the slot. Locks past their expiry are taken over.
func (l *mongoLocker) Acquire(ctx context.Context, key model.SlotKey) (ReleaseFunc, error) {
	id := lockID(key)
	token := uuid.NewString()
	deadline := time.Now().Add(l.timeout)

	for {
		now := time.Now().UTC()
		_, err := l.collection.InsertOne(ctx, &model.SlotLock{
			ID:        id,
			Token:     token,
			ExpiresAt: now.Add(l.ttl),
			CreatedAt: now,
		})
		if err == nil {
			return l.releaser(id, token), nil
		}
		if !mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("failed to acquire slot lock: %w", err)
		}

		if _, err := l.collection.DeleteOne(ctx, expiredLockFilter(id, now)); err != nil {
			return nil, fmt.Errorf("failed to clear expired slot lock: %w", err)
		}

		if err := waitRetry(ctx, deadline); err != nil {
			return nil, err
		}
	}
}

func (l *mongoLocker) releaser(id, token string) ReleaseFunc {
	return func(ctx context.Context) error {
		_, err := l.collection.DeleteOne(ctx, ownedLockFilter(id, token))
		return err
	}
}

func expiredLockFilter(id string, now time.Time) bson.M {
	return bson.M{"_id": id, "expires_at": bson.M{"$lt": now}}
}

// ownedLockFilter only matches the lock while it still carries our token, so
// a holder whose lock expired and was taken over cannot free it.
func ownedLockFilter(id, token string) bson.M {
	return bson.M{"_id": id, "token": token}
}
