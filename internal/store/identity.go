package store

import (
	"cmp"
	"slices"

	"github.com/microarena/api/internal/model"
)

// ============================================================================
// Users
// ============================================================================

// GetUser returns a copy of the user, or nil.
func (s *Store) GetUser(id string) *model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.users[id].Clone()
}

// UserIDByUsernameKey resolves a normalized username.
func (s *Store) UserIDByUsernameKey(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.userByKey[key]
	return id, ok
}

// UserIDByEmail resolves an email case-insensitively.
func (s *Store) UserIDByEmail(email string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.userByEmail[emailIndexKey(email)]
	return id, ok
}

// PutUser inserts or replaces a user and keeps the username and email
// indexes in step.
func (s *Store) PutUser(u *model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.users[u.ID]; ok {
		if prev.UsernameKey != u.UsernameKey && s.userByKey[prev.UsernameKey] == u.ID {
			delete(s.userByKey, prev.UsernameKey)
		}
		if prev.Email != "" && emailIndexKey(prev.Email) != emailIndexKey(u.Email) {
			delete(s.userByEmail, emailIndexKey(prev.Email))
		}
	}
	s.users[u.ID] = u.Clone()
	s.userByKey[u.UsernameKey] = u.ID
	if u.Email != "" {
		s.userByEmail[emailIndexKey(u.Email)] = u.ID
	}
}

// ListUsers returns every user ordered by creation.
func (s *Store) ListUsers() []*model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u.Clone())
	}
	slices.SortFunc(out, func(a, b *model.User) int {
		return cmp.Or(cmp.Compare(a.CreatedAt, b.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
	return out
}

// ============================================================================
// Clans
// ============================================================================

// GetClan returns a copy of the clan, or nil if it does not exist.
func (s *Store) GetClan(id string) *model.Clan {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clans[id].Clone()
}

// ClanIDByTagKey resolves a normalized tag.
func (s *Store) ClanIDByTagKey(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.clanByTag[key]
	return id, ok
}

// PutClan inserts or replaces a clan.
func (s *Store) PutClan(c *model.Clan) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.clans[c.ID]; ok && prev.TagKey != c.TagKey {
		delete(s.clanByTag, prev.TagKey)
	}
	s.clans[c.ID] = c.Clone()
	s.clanByTag[c.TagKey] = c.ID
	if _, ok := s.members[c.ID]; !ok {
		s.members[c.ID] = make(map[string]model.Membership)
	}
}

// DeleteClan removes a clan with its members, roles and rating. Match
// history that references it is left intact.
func (s *Store) DeleteClan(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.clans[id]; ok {
		delete(s.clanByTag, c.TagKey)
	}
	delete(s.clans, id)
	delete(s.members, id)
	delete(s.ratings, id)
}

// ListClans returns every live clan, newest first.
func (s *Store) ListClans() []*model.Clan {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.Clan, 0, len(s.clans))
	for _, c := range s.clans {
		out = append(out, c.Clone())
	}
	slices.SortFunc(out, func(a, b *model.Clan) int {
		return cmp.Or(cmp.Compare(b.CreatedAt, a.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
	return out
}

// ============================================================================
// Memberships
// ============================================================================

// Members returns a clan's members ordered by join time, then user id.
func (s *Store) Members(clanID string) []model.Membership {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set := s.members[clanID]
	out := make([]model.Membership, 0, len(set))
	for _, m := range set {
		out = append(out, m)
	}
	slices.SortFunc(out, func(a, b model.Membership) int {
		return cmp.Or(cmp.Compare(a.JoinedAt, b.JoinedAt), cmp.Compare(a.UserID, b.UserID))
	})
	return out
}

// Membership returns one member's record.
func (s *Store) Membership(clanID, userID string) (model.Membership, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.members[clanID][userID]
	return m, ok
}

// PutMembership inserts or replaces a member record.
func (s *Store) PutMembership(clanID string, m model.Membership) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.members[clanID]
	if !ok {
		set = make(map[string]model.Membership)
		s.members[clanID] = set
	}
	set[m.UserID] = m
}

// DeleteMembership removes a member record.
func (s *Store) DeleteMembership(clanID, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.members[clanID], userID)
}

// ============================================================================
// Ratings
// ============================================================================

// Rating returns a clan's Elo rating if one was stored.
func (s *Store) Rating(clanID string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.ratings[clanID]
	return r, ok
}

// SetRating stores a clan's Elo rating.
func (s *Store) SetRating(clanID string, rating int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ratings[clanID] = rating
}
