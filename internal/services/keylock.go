package services

import "sync"

// keyLocks serializes work per string key. The orchestrator uses it to avoid
// firing two concurrent Core calls for the same (project, address) pair; the
// database unique index stays the final arbiter for duplicates.
type keyLocks struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyLocks() *keyLocks {
	return &keyLocks{locks: make(map[string]*keyLock)}
}

func (kl *keyLocks) lock(key string) {
	kl.mu.Lock()
	l, ok := kl.locks[key]
	if !ok {
		l = &keyLock{}
		kl.locks[key] = l
	}
	l.refs++
	kl.mu.Unlock()

	l.mu.Lock()
}

func (kl *keyLocks) unlock(key string) {
	kl.mu.Lock()
	l := kl.locks[key]
	l.refs--
	if l.refs == 0 {
		delete(kl.locks, key)
	}
	kl.mu.Unlock()

	l.mu.Unlock()
}
