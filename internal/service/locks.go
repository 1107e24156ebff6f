package service

import "sync"

// KeyedLocks serializes work per string key. Duel actions take the
// duel's lock before the read-modify-write cycle, keeping version
// conflicts an inter-process concern only.
type KeyedLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewKeyedLocks() *KeyedLocks {
	return &KeyedLocks{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for key and returns its unlock function.
func (k *KeyedLocks) Lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()
	m.Lock()
	return m.Unlock
}
