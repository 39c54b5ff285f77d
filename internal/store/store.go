// Package store is the single in-process home of every entity the engine
// manages.
//
// Collections are id-keyed maps with secondary indexes so point lookups never
// scan. The store guards map integrity with one RWMutex; it does not make
// multi-entity operations atomic. Services do that by holding the relevant
// keys from Lock for the whole validate-then-write sequence.
//
// Every getter returns a copy and every setter stores a copy, so callers can
// never mutate shared state without going through Put.
package store

import (
	"slices"
	"strings"
	"sync"

	"github.com/microarena/api/internal/model"
)

// Store holds all platform state.
type Store struct {
	locks *Locker

	mu sync.RWMutex

	users       map[string]*model.User
	userByKey   map[string]string
	userByEmail map[string]string

	clans     map[string]*model.Clan
	clanByTag map[string]string
	members   map[string]map[string]model.Membership
	ratings   map[string]int

	invites       map[string]*model.ClanInvite
	invitesByUser map[string][]string

	events       map[string]*model.IntegrityEvent
	eventsByUser map[string][]string

	beefs      map[string]*model.BeefMatch
	beefOrder  []string
	beefByClan map[string][]string

	arenas      map[string]*model.ArenaMatch
	arenaOrder  []string
	arenaByClan map[string][]string

	tournaments map[string]*model.Tournament
}

// New creates an empty store.
func New() *Store {
	return &Store{
		locks:         NewLocker(),
		users:         make(map[string]*model.User),
		userByKey:     make(map[string]string),
		userByEmail:   make(map[string]string),
		clans:         make(map[string]*model.Clan),
		clanByTag:     make(map[string]string),
		members:       make(map[string]map[string]model.Membership),
		ratings:       make(map[string]int),
		invites:       make(map[string]*model.ClanInvite),
		invitesByUser: make(map[string][]string),
		events:        make(map[string]*model.IntegrityEvent),
		eventsByUser:  make(map[string][]string),
		beefs:         make(map[string]*model.BeefMatch),
		beefByClan:    make(map[string][]string),
		arenas:        make(map[string]*model.ArenaMatch),
		arenaByClan:   make(map[string][]string),
		tournaments:   make(map[string]*model.Tournament),
	}
}

// Lock acquires the given entity keys. See Locker.Lock.
func (s *Store) Lock(keys ...string) (unlock func()) {
	return s.locks.Lock(keys...)
}

// Stats counts stored entities.
func (s *Store) Stats() model.StoreStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return model.StoreStats{
		Users:           len(s.users),
		Clans:           len(s.clans),
		BeefMatches:     len(s.beefs),
		ArenaMatches:    len(s.arenas),
		Tournaments:     len(s.tournaments),
		IntegrityEvents: len(s.events),
		Invites:         len(s.invites),
	}
}

func emailIndexKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func appendUnique(ids []string, id string) []string {
	if slices.Contains(ids, id) {
		return ids
	}
	return append(ids, id)
}
