// Package model defines domain entities and data structures for the MicroArena API.
//
// The model package contains the entities owned by the store (User, Clan,
// ClanInvite, IntegrityEvent, BeefMatch, ArenaMatch, Tournament), the derived
// read projections (UserStats, ClanStats, LadderEntry, MatchSummary), request
// types, and RFC 9457 problem details.
//
// # Timestamps
//
// All timestamps are Unix milliseconds (int64) taken from clock.Clock.
//
// # Rosters
//
// A Roster is either unknown (never recorded, JSON null) or a known list of
// user ids. The ranking engine treats the two differently: a clan match with
// no recorded roster counts for every current member.
//
// # Completed matches
//
// BeefMatch and ArenaMatch keep separate lifecycles but both convert into
// CompletedMatchRecord, the only shape the statistics engine reads.
package model
