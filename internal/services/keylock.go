package services

import (
	"sync"

	"github.com/puzpuzpuz/xsync/v3"
)

type keyLock struct {
	mu   sync.Mutex
	refs int
}

// keyLocker serializes work per string key. Entries are reference counted
// and dropped once no goroutine holds or waits on them.
type keyLocker struct {
	locks *xsync.MapOf[string, *keyLock]
}

func newKeyLocker() *keyLocker {
	return &keyLocker{locks: xsync.NewMapOf[string, *keyLock]()}
}

// Lock blocks until key is free and returns the matching unlock func
func (l *keyLocker) Lock(key string) func() {
	lock, _ := l.locks.Compute(key, func(old *keyLock, loaded bool) (*keyLock, bool) {
		if !loaded {
			old = &keyLock{}
		}
		old.refs++
		return old, false
	})
	lock.mu.Lock()

	return func() {
		lock.mu.Unlock()
		l.locks.Compute(key, func(old *keyLock, loaded bool) (*keyLock, bool) {
			if !loaded {
				return nil, true
			}
			old.refs--
			return old, old.refs == 0
		})
	}
}

// size is the number of live entries
func (l *keyLocker) size() int {
	return l.locks.Size()
}
