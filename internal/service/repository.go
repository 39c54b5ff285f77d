package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/microarena/api/internal/model"
)

// Locker serializes operations on the entities named by keys. The returned
// function releases every key.
type Locker interface {
	Lock(keys ...string) (unlock func())
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	GetUser(id string) *model.User
	UserIDByUsernameKey(key string) (string, bool)
	UserIDByEmail(email string) (string, bool)
	PutUser(u *model.User)
}

// ClanRepository defines the interface for clan, membership and rating data access
type ClanRepository interface {
	GetClan(id string) *model.Clan
	ClanIDByTagKey(key string) (string, bool)
	PutClan(c *model.Clan)
	DeleteClan(id string)
	ListClans() []*model.Clan

	Members(clanID string) []model.Membership
	Membership(clanID, userID string) (model.Membership, bool)
	PutMembership(clanID string, m model.Membership)
	DeleteMembership(clanID, userID string)
}

// RatingRepository defines the interface for Elo rating storage
type RatingRepository interface {
	Rating(clanID string) (int, bool)
	SetRating(clanID string, rating int)
}

// InviteRepository defines the interface for invite data access
type InviteRepository interface {
	GetInvite(id string) *model.ClanInvite
	PutInvite(inv *model.ClanInvite)
	InvitesForUser(userID string) []*model.ClanInvite
}

// IntegrityRepository defines the interface for integrity event data access
type IntegrityRepository interface {
	GetEvent(id string) *model.IntegrityEvent
	PutEvent(e *model.IntegrityEvent)
	EventsForUser(userID string) []*model.IntegrityEvent
}

// BeefRepository defines the interface for beef match data access
type BeefRepository interface {
	GetBeef(id string) *model.BeefMatch
	PutBeef(m *model.BeefMatch)
	ListBeef() []*model.BeefMatch
	BeefForClan(clanID string) []*model.BeefMatch
}

// ArenaRepository defines the interface for arena match data access
type ArenaRepository interface {
	GetArena(id string) *model.ArenaMatch
	PutArena(m *model.ArenaMatch)
	ListArena() []*model.ArenaMatch
	ArenaForClan(clanID string) []*model.ArenaMatch
}

// TournamentRepository defines the interface for tournament data access
type TournamentRepository interface {
	GetTournament(id string) *model.Tournament
	PutTournament(t *model.Tournament)
	ListTournaments() []*model.Tournament
}

func newID() string {
	return uuid.NewString()
}

// MatchArchiver receives every completed match after the engine has applied
// it. Failures are logged by the caller and never undo the completion.
type MatchArchiver interface {
	ArchiveMatch(ctx context.Context, record *model.CompletedMatchRecord) error
}
