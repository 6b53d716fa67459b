package memstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/andregamma/cinema-saas/internal/model"
)

// lockManager hands out one mutex per key. Entries are reference counted
// and dropped once nobody holds or waits for them.
type lockManager struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	ch   chan struct{}
	refs int
}

func newLockManager() *lockManager {
	return &lockManager{locks: make(map[string]*keyLock)}
}

// acquire blocks until key is free or ctx ends. A wait cut short by ctx
// is reported as model.ErrConflict, like a lock wait timeout in a database.
func (m *lockManager) acquire(ctx context.Context, key string) error {
	m.mu.Lock()
	l, ok := m.locks[key]
	if !ok {
		l = &keyLock{ch: make(chan struct{}, 1)}
		m.locks[key] = l
	}
	l.refs++
	m.mu.Unlock()

	select {
	case l.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		m.mu.Lock()
		m.unref(key, l)
		m.mu.Unlock()
		return fmt.Errorf("%w: waiting for lock %s: %v", model.ErrConflict, key, ctx.Err())
	}
}

func (m *lockManager) release(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[key]
	if !ok {
		return
	}
	<-l.ch
	m.unref(key, l)
}

func (m *lockManager) unref(key string, l *keyLock) {
	l.refs--
	if l.refs == 0 {
		delete(m.locks, key)
	}
}

// size reports how many keys are tracked.
func (m *lockManager) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.locks)
}
