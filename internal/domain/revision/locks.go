package revision

import "sync"

// keyedMutex serializes read-modify-write sequences per key. Entries are
// reference counted so the map doesn't grow with every owner ever seen.
type keyedMutex struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{entries: make(map[string]*lockEntry)}
}

func (k *keyedMutex) Lock(key string) {
	k.mu.Lock()
	e, ok := k.entries[key]
	if !ok {
		e = &lockEntry{}
		k.entries[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
}

func (k *keyedMutex) Unlock(key string) {
	k.mu.Lock()
	e := k.entries[key]
	e.refs--
	if e.refs == 0 {
		delete(k.entries, key)
	}
	k.mu.Unlock()

	e.mu.Unlock()
}

// tryLock is a non-blocking exclusive claim per key, used to ensure at most
// one catch-up pass runs per owner at a time.
type tryLock struct {
	mu   sync.Mutex
	held map[string]bool
}

func newTryLock() *tryLock {
	return &tryLock{held: make(map[string]bool)}
}

func (t *tryLock) TryLock(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.held[key] {
		return false
	}
	t.held[key] = true
	return true
}

func (t *tryLock) Unlock(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.held, key)
}
