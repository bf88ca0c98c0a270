package placemedia

import (
	"sync"

	"github.com/google/uuid"
)

// entityLocks serializes mutations per post. Concurrent edits against
// the same post would interleave display-order writes, so the reconciler,
// field edits, and cascade delete all take the post's lock first.
// Entries are reference counted and removed once uncontended.
type entityLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*entityLock
}

type entityLock struct {
	mu   sync.Mutex
	refs int
}

func newEntityLocks() *entityLocks {
	return &entityLocks{locks: make(map[uuid.UUID]*entityLock)}
}

func (l *entityLocks) lock(id uuid.UUID) {
	l.mu.Lock()
	e, ok := l.locks[id]
	if !ok {
		e = &entityLock{}
		l.locks[id] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
}

func (l *entityLocks) unlock(id uuid.UUID) {
	l.mu.Lock()
	e := l.locks[id]
	e.refs--
	if e.refs == 0 {
		delete(l.locks, id)
	}
	l.mu.Unlock()

	e.mu.Unlock()
}
