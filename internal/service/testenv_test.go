package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/microarena/api/internal/clock"
	"github.com/microarena/api/internal/model"
	"github.com/microarena/api/internal/store"
)

// ============================================================================
// Test Environment
// ============================================================================

type recordingArchiver struct {
	mu      sync.Mutex
	records []*model.CompletedMatchRecord
	err     error
}

func (a *recordingArchiver) ArchiveMatch(ctx context.Context, record *model.CompletedMatchRecord) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.records = append(a.records, record)
	return a.err
}

func (a *recordingArchiver) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.records)
}

type testEnv struct {
	store       *store.Store
	clock       *clock.Manual
	archiver    *recordingArchiver
	clans       *ClanService
	integrity   *IntegrityService
	invites     *InviteService
	ranking     *RankingService
	beef        *BeefService
	arena       *ArenaService
	tournaments *TournamentService
}

type envOptions struct {
	minRankedIntegrity int
	arenaElo           bool
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWith(t, envOptions{})
}

func newTestEnvWith(t *testing.T, opts envOptions) *testEnv {
	t.Helper()

	st := store.New()
	clk := clock.NewManual(1_000_000)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	archiver := &recordingArchiver{}

	clans := NewClanService(ClanServiceConfig{
		UserRepo:   st,
		ClanRepo:   st,
		RatingRepo: st,
		Locker:     st,
		Clock:      clk,
		Logger:     logger,
	})
	ranking := NewRankingService(RankingServiceConfig{
		BeefRepo:   st,
		ArenaRepo:  st,
		UserRepo:   st,
		ClanRepo:   st,
		RatingRepo: st,
		Logger:     logger,
	})

	return &testEnv{
		store:    st,
		clock:    clk,
		archiver: archiver,
		clans:    clans,
		integrity: NewIntegrityService(IntegrityServiceConfig{
			EventRepo:   st,
			UserRepo:    st,
			ClanService: clans,
			Locker:      st,
			Clock:       clk,
			Logger:      logger,
		}),
		invites: NewInviteService(InviteServiceConfig{
			InviteRepo:  st,
			UserRepo:    st,
			ClanRepo:    st,
			ClanService: clans,
			Locker:      st,
			Clock:       clk,
			Logger:      logger,
		}),
		ranking: ranking,
		beef: NewBeefService(BeefServiceConfig{
			BeefRepo:           st,
			ClanRepo:           st,
			UserRepo:           st,
			RankingService:     ranking,
			Archiver:           archiver,
			Locker:             st,
			Clock:              clk,
			Logger:             logger,
			MinRankedIntegrity: opts.minRankedIntegrity,
		}),
		arena: NewArenaService(ArenaServiceConfig{
			ArenaRepo:          st,
			ClanRepo:           st,
			UserRepo:           st,
			ClanService:        clans,
			RankingService:     ranking,
			Archiver:           archiver,
			Locker:             st,
			Clock:              clk,
			Logger:             logger,
			MinRankedIntegrity: opts.minRankedIntegrity,
			ArenaElo:           opts.arenaElo,
		}),
		tournaments: NewTournamentService(TournamentServiceConfig{
			TournamentRepo: st,
			ClanRepo:       st,
			ClanService:    clans,
			Locker:         st,
			Clock:          clk,
			Logger:         logger,
		}),
	}
}

func (e *testEnv) user(t *testing.T, id, username string) *model.User {
	t.Helper()
	u, err := e.clans.CreateUser(context.Background(), model.CreateUserRequest{ID: id, Username: username})
	if err != nil {
		t.Fatalf("create user %s: %v", id, err)
	}
	return u
}

func (e *testEnv) clan(t *testing.T, founderID, tag string) *model.Clan {
	t.Helper()
	c, err := e.clans.CreateClan(context.Background(), founderID, model.CreateClanRequest{Tag: tag, Name: tag + " Squad"})
	if err != nil {
		t.Fatalf("create clan %s: %v", tag, err)
	}
	return c
}

func (e *testEnv) join(t *testing.T, clanID string, userIDs ...string) {
	t.Helper()
	for _, id := range userIDs {
		if _, err := e.clans.JoinClan(context.Background(), clanID, id); err != nil {
			t.Fatalf("join %s to %s: %v", id, clanID, err)
		}
	}
}

// clanWithMembers creates a founder plus extra members and returns the clan.
func (e *testEnv) clanWithMembers(t *testing.T, tag string, ids ...string) *model.Clan {
	t.Helper()
	for _, id := range ids {
		e.user(t, id, id)
	}
	c := e.clan(t, ids[0], tag)
	e.join(t, c.ID, ids[1:]...)
	return e.store.GetClan(c.ID)
}

func expectErr(t *testing.T, err, want error) {
	t.Helper()
	if !errors.Is(err, want) {
		t.Fatalf("expected %v, got %v", want, err)
	}
}
