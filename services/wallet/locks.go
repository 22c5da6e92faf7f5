package wallet

import "sync"

// providerLocks serializes wallet mutations per provider id so concurrent
// cash-collection and settlement approval never interleave their
// read-modify-write, and the auto-block evaluation always runs in the same
// critical section as the balance change.
type providerLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newProviderLocks() *providerLocks {
	return &providerLocks{locks: make(map[string]*sync.Mutex)}
}

func (l *providerLocks) get(providerID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	m, ok := l.locks[providerID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[providerID] = m
	}
	return m
}

func (l *providerLocks) Lock(providerID string) func() {
	m := l.get(providerID)
	m.Lock()
	return m.Unlock
}
