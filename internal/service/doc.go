// Package service implements the match lifecycle and ranking logic of the
// MicroArena API.
//
// Services hold the rules; internal/store holds the state. Each service is
// built from a config struct naming the repository interfaces it needs (see
// repository.go), so tests can run against store.New() and a manual clock.
//
// # Services
//
//   - ClanService: users, clans and membership roles
//   - IntegrityService: the per-user integrity ledger and clan aggregation
//   - InviteService: clan invites with expiry
//   - BeefService: clan-vs-clan challenges and Elo
//   - ArenaService: open and direct matches on the board
//   - RankingService: stats, ladders and profiles derived from completed matches
//   - TournamentService: tournament registry and team registration
//
// # Error Handling
//
// Every rule violation is a *Error with a Kind. errors.Is matches both the
// specific sentinel and the kind class:
//
//	_, err := beef.Complete(ctx, matchID, req)
//	if errors.Is(err, service.ErrMatchClosed) { ... }
//	if errors.Is(err, service.ErrInvalidState) { ... } // any invalid-state error
//
// The HTTP layer maps kinds to status codes with KindOf.
//
// # Locking
//
// Mutations take keyed locks from the Locker (users, clans, matches) for
// the whole read-check-write sequence. Reads go straight to the store,
// which returns copies.
//
// # Events
//
// BeefService and ArenaService publish lifecycle events to an optional
// EventPublisher. EventHub fans them out to SSE subscribers per clan.
package service
