package lock

import (
	"context"
	"errors"
	"time"

	"turfbook/pkg/model"
)

// ErrLockTimeout is returned when a slot stays held past the wait budget.
var ErrLockTimeout = errors.New("timed out waiting for slot lock")

// ReleaseFunc gives the lock back. It is safe to call once.
type ReleaseFunc func(ctx context.Context) error

// Locker serializes writers of a single slot. Different slots never block
// each other.
type Locker interface {
	Acquire(ctx context.Context, key model.SlotKey) (ReleaseFunc, error)
}

const pollInterval = 20 * time.Millisecond

func lockID(key model.SlotKey) string {
	return "slot_lock_" + key.String()
}

// waitRetry sleeps one poll interval, or reports why waiting must stop.
func waitRetry(ctx context.Context, deadline time.Time) error {
	if time.Now().After(deadline) {
		return ErrLockTimeout
	}
	timer := time.NewTimer(pollInterval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type noopLocker struct{}

// NewNoopLocker relies on optimistic slot versions alone.
func NewNoopLocker() Locker {
	return noopLocker{}
}

func (noopLocker) Acquire(context.Context, model.SlotKey) (ReleaseFunc, error) {
	return func(context.Context) error { return nil }, nil
}
