package store

import (
	"cmp"
	"slices"

	"github.com/microarena/api/internal/model"
)

// ============================================================================
// Invites
// ============================================================================

// GetInvite returns a copy of the invite, or nil.
func (s *Store) GetInvite(id string) *model.ClanInvite {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.invites[id].Clone()
}

// PutInvite inserts or replaces an invite.
func (s *Store) PutInvite(inv *model.ClanInvite) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.invites[inv.ID] = inv.Clone()
	s.invitesByUser[inv.InviteeID] = appendUnique(s.invitesByUser[inv.InviteeID], inv.ID)
}

// InvitesForUser returns every invite addressed to userID in creation order.
func (s *Store) InvitesForUser(userID string) []*model.ClanInvite {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.invitesByUser[userID]
	out := make([]*model.ClanInvite, 0, len(ids))
	for _, id := range ids {
		if inv, ok := s.invites[id]; ok {
			out = append(out, inv.Clone())
		}
	}
	return out
}

// ============================================================================
// Integrity events
// ============================================================================

// GetEvent returns a copy of the event, or nil.
func (s *Store) GetEvent(id string) *model.IntegrityEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.events[id].Clone()
}

// PutEvent inserts or replaces an integrity event.
func (s *Store) PutEvent(e *model.IntegrityEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events[e.ID] = e.Clone()
	s.eventsByUser[e.TargetUserID] = appendUnique(s.eventsByUser[e.TargetUserID], e.ID)
}

// EventsForUser returns a user's events in creation order.
func (s *Store) EventsForUser(userID string) []*model.IntegrityEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.eventsByUser[userID]
	out := make([]*model.IntegrityEvent, 0, len(ids))
	for _, id := range ids {
		if e, ok := s.events[id]; ok {
			out = append(out, e.Clone())
		}
	}
	return out
}

// ============================================================================
// Beef matches
// ============================================================================

// GetBeef returns a copy of the match, or nil.
func (s *Store) GetBeef(id string) *model.BeefMatch {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.beefs[id].Clone()
}

// PutBeef inserts or replaces a beef match.
func (s *Store) PutBeef(m *model.BeefMatch) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.beefs[m.ID]; !ok {
		s.beefOrder = append(s.beefOrder, m.ID)
	}
	s.beefs[m.ID] = m.Clone()
	s.beefByClan[m.ChallengerClanID] = appendUnique(s.beefByClan[m.ChallengerClanID], m.ID)
	s.beefByClan[m.ChallengedClanID] = appendUnique(s.beefByClan[m.ChallengedClanID], m.ID)
}

// ListBeef returns every beef match in creation order.
func (s *Store) ListBeef() []*model.BeefMatch {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collectBeef(s.beefOrder)
}

// BeefForClan returns the beef matches a clan took part in, in creation order.
func (s *Store) BeefForClan(clanID string) []*model.BeefMatch {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collectBeef(s.beefByClan[clanID])
}

func (s *Store) collectBeef(ids []string) []*model.BeefMatch {
	out := make([]*model.BeefMatch, 0, len(ids))
	for _, id := range ids {
		if m, ok := s.beefs[id]; ok {
			out = append(out, m.Clone())
		}
	}
	return out
}

// ============================================================================
// Arena matches
// ============================================================================

// GetArena returns a copy of the match, or nil.
func (s *Store) GetArena(id string) *model.ArenaMatch {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.arenas[id].Clone()
}

// PutArena inserts or replaces an arena match. Clan indexes grow as sides
// acquire clans.
func (s *Store) PutArena(m *model.ArenaMatch) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.arenas[m.ID]; !ok {
		s.arenaOrder = append(s.arenaOrder, m.ID)
	}
	s.arenas[m.ID] = m.Clone()
	for _, clanID := range []*string{m.A.ClanID, m.B.ClanID} {
		if clanID != nil {
			s.arenaByClan[*clanID] = appendUnique(s.arenaByClan[*clanID], m.ID)
		}
	}
}

// ListArena returns every arena match in creation order.
func (s *Store) ListArena() []*model.ArenaMatch {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collectArena(s.arenaOrder)
}

// ArenaForClan returns the arena matches a clan is on, in creation order.
func (s *Store) ArenaForClan(clanID string) []*model.ArenaMatch {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collectArena(s.arenaByClan[clanID])
}

func (s *Store) collectArena(ids []string) []*model.ArenaMatch {
	out := make([]*model.ArenaMatch, 0, len(ids))
	for _, id := range ids {
		if m, ok := s.arenas[id]; ok {
			out = append(out, m.Clone())
		}
	}
	return out
}

// ============================================================================
// Tournaments
// ============================================================================

// GetTournament returns a copy of the tournament, or nil.
func (s *Store) GetTournament(id string) *model.Tournament {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tournaments[id].Clone()
}

// PutTournament inserts or replaces a tournament.
func (s *Store) PutTournament(t *model.Tournament) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tournaments[t.ID] = t.Clone()
}

// ListTournaments returns every tournament ordered by start time.
func (s *Store) ListTournaments() []*model.Tournament {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.Tournament, 0, len(s.tournaments))
	for _, t := range s.tournaments {
		out = append(out, t.Clone())
	}
	slices.SortFunc(out, func(a, b *model.Tournament) int {
		return cmp.Or(cmp.Compare(a.StartTime, b.StartTime), cmp.Compare(a.ID, b.ID))
	})
	return out
}
