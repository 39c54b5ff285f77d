package store

import (
	"slices"
	"sync"
)

// Locker hands out per-key mutexes. Keys are acquired in sorted order so two
// callers locking overlapping sets can never deadlock.
type Locker struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	sync.Mutex
	refs int
}

// NewLocker creates an empty locker.
func NewLocker() *Locker {
	return &Locker{locks: make(map[string]*keyLock)}
}

// Lock acquires every key and returns a function that releases them.
// Duplicate and empty keys are ignored.
func (l *Locker) Lock(keys ...string) (unlock func()) {
	sorted := make([]string, 0, len(keys))
	for _, k := range keys {
		if k != "" {
			sorted = append(sorted, k)
		}
	}
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	held := make([]*keyLock, 0, len(sorted))
	for _, k := range sorted {
		kl := l.acquire(k)
		kl.Lock()
		held = append(held, kl)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			for i := len(held) - 1; i >= 0; i-- {
				held[i].Unlock()
				l.release(sorted[i])
			}
		})
	}
}

func (l *Locker) acquire(key string) *keyLock {
	l.mu.Lock()
	defer l.mu.Unlock()

	kl, ok := l.locks[key]
	if !ok {
		kl = &keyLock{}
		l.locks[key] = kl
	}
	kl.refs++
	return kl
}

func (l *Locker) release(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	kl, ok := l.locks[key]
	if !ok {
		return
	}
	kl.refs--
	if kl.refs == 0 {
		delete(l.locks, key)
	}
}

// size returns the number of live key entries.
func (l *Locker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

// Lock key helpers. Every mutation of an entity happens while its key is held.

func UserKey(id string) string       { return "user:" + id }
func ClanKey(id string) string       { return "clan:" + id }
func UsernameKey(key string) string  { return "username:" + key }
func EmailKey(email string) string   { return "email:" + email }
func TagKey(key string) string       { return "tag:" + key }
func BeefKey(id string) string       { return "beef:" + id }
func ArenaKey(id string) string      { return "arena:" + id }
func TournamentKey(id string) string { return "tournament:" + id }
func InviteKey(id string) string     { return "invite:" + id }
func EventKey(id string) string      { return "event:" + id }
