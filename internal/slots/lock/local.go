package lock

import (
	"context"
	"sync"
	"time"

	"turfbook/pkg/model"
)

// localLocker is a per-key mutex for single-instance deployments and tests.
type localLocker struct {
	mu      sync.Mutex
	slots   map[string]*localSlot
	timeout time.Duration
}

type localSlot struct {
	ch   chan struct{}
	refs int
}

func NewLocalLocker(timeout time.Duration) Locker {
	return &localLocker{
		slots:   make(map[string]*localSlot),
		timeout: timeout,
	}
}

func (l *localLocker) Acquire(ctx context.Context, key model.SlotKey) (ReleaseFunc, error) {
	id := key.String()
	s := l.ref(id)

	timer := time.NewTimer(l.timeout)
	defer timer.Stop()

	select {
	case s.ch <- struct{}{}:
	case <-ctx.Done():
		l.unref(id)
		return nil, ctx.Err()
	case <-timer.C:
		l.unref(id)
		return nil, ErrLockTimeout
	}

	var once sync.Once
	return func(context.Context) error {
		once.Do(func() {
			<-s.ch
			l.unref(id)
		})
		return nil
	}, nil
}

func (l *localLocker) ref(id string) *localSlot {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.slots[id]
	if !ok {
		s = &localSlot{ch: make(chan struct{}, 1)}
		l.slots[id] = s
	}
	s.refs++
	return s
}

func (l *localLocker) unref(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s := l.slots[id]
	s.refs--
	if s.refs == 0 {
		delete(l.slots, id)
	}
}
