package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microarena/api/internal/model"
)

// ============================================================================
// Fixtures
// ============================================================================

var fixtureSeq atomic.Int64

type beefFixture struct {
	challenger, challenged string
	winner                 string
	format                 model.Format
	queue                  model.Queue
	completedAt            int64
	challengerRoster       model.Roster
	challengedRoster       model.Roster
}

// putBeef stores a completed beef match directly, bypassing the service.
func putBeef(env *testEnv, f beefFixture) *model.BeefMatch {
	if f.format == "" {
		f.format = model.Format4v4
	}
	if f.queue == "" {
		f.queue = model.QueueRanked
	}
	completed := f.completedAt
	m := &model.BeefMatch{
		ID:               fmt.Sprintf("beef-%d", fixtureSeq.Add(1)),
		Format:           f.format,
		Queue:            f.queue,
		ChallengerClanID: f.challenger,
		ChallengedClanID: f.challenged,
		Ruleset:          "Standard",
		Status:           model.BeefStatusCompleted,
		ChallengerRoster: f.challengerRoster,
		ChallengedRoster: f.challengedRoster,
		WinnerID:         model.StringPtr(f.winner),
		CreatedAt:        completed - 10,
		UpdatedAt:        completed,
		CompletedAt:      &completed,
	}
	env.store.PutBeef(m)
	return m
}

// putSoloArena stores a completed PLAYER-scope arena match.
func putSoloArena(env *testEnv, a, b string, winner model.Side, queue model.Queue, completedAt int64) *model.ArenaMatch {
	w := winner
	m := &model.ArenaMatch{
		ID:          fmt.Sprintf("arena-%d", fixtureSeq.Add(1)),
		Visibility:  model.VisibilityOpen,
		Scope:       model.ScopePlayer,
		Format:      model.Format1v1,
		Queue:       queue,
		Ruleset:     model.DefaultRuleset,
		Status:      model.ArenaStatusCompleted,
		A:           model.ArenaSide{PlayerIDs: []string{a}},
		B:           model.ArenaSide{PlayerIDs: []string{b}},
		WinnerSide:  &w,
		CreatedBy:   a,
		CreatedAt:   completedAt - 10,
		UpdatedAt:   completedAt,
		CompletedAt: &completedAt,
	}
	env.store.PutArena(m)
	return m
}

// ============================================================================
// Elo Tests
// ============================================================================

func TestElo_EvenRatingsMoveSixteen(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)

	x := env.clanWithMembers(t, "XXX", "x_boss")
	y := env.clanWithMembers(t, "YYY", "y_boss")

	m, err := env.beef.Create(ctx, "x_boss", model.CreateBeefRequest{
		Format: model.Format4v4, ChallengerClanID: x.ID, ChallengedClanID: y.ID, Ruleset: "Standard",
	})
	require.NoError(t, err)
	_, err = env.beef.Complete(ctx, m.ID, model.CompleteBeefRequest{WinnerClanID: x.ID, ChallengerScore: 6, ChallengedScore: 3})
	require.NoError(t, err)

	assert.Equal(t, 1516, env.ranking.Rating(x.ID))
	assert.Equal(t, 1484, env.ranking.Rating(y.ID))
}

func TestElo_LoserFloor(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	x := env.clanWithMembers(t, "XXX", "x_boss")
	y := env.clanWithMembers(t, "YYY", "y_boss")
	env.store.SetRating(x.ID, 1005)
	env.store.SetRating(y.ID, 1005)

	winner, loser := env.ranking.applyEloLocked(x.ID, y.ID)
	assert.Equal(t, 1021, winner)
	assert.Equal(t, DefaultRatingFloor, loser)
	assert.Equal(t, DefaultRatingFloor, env.ranking.Rating(y.ID))
}

func TestElo_UnderdogGainsMore(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	x := env.clanWithMembers(t, "XXX", "x_boss")
	y := env.clanWithMembers(t, "YYY", "y_boss")
	env.store.SetRating(x.ID, 1400)
	env.store.SetRating(y.ID, 1600)

	winner, loser := env.ranking.applyEloLocked(x.ID, y.ID)
	// Expected score for 1400 against 1600 is about 0.24, so 32 * 0.76 = 24.
	assert.Equal(t, 1424, winner)
	assert.Equal(t, 1576, loser)
}

func TestElo_DisbandedClanIsNotWritten(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	x := env.clanWithMembers(t, "XXX", "x_boss")
	env.ranking.applyEloLocked(x.ID, "gone")

	_, ok := env.store.Rating("gone")
	assert.False(t, ok)
	assert.Equal(t, 1516, env.ranking.Rating(x.ID))
}

// ============================================================================
// Stats Tests
// ============================================================================

func TestClanStats_CountsRankedTeamMatches(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)

	x := env.clanWithMembers(t, "XXX", "x_boss")

	putBeef(env, beefFixture{challenger: x.ID, challenged: "opp-1", winner: x.ID, completedAt: 100})
	putBeef(env, beefFixture{challenger: "opp-2", challenged: x.ID, winner: x.ID, completedAt: 300})
	putBeef(env, beefFixture{challenger: x.ID, challenged: "opp-3", winner: "opp-3", completedAt: 200})
	// Neither of these count.
	putBeef(env, beefFixture{challenger: x.ID, challenged: "opp-4", winner: x.ID, queue: model.QueueUnranked, completedAt: 900})
	putBeef(env, beefFixture{challenger: x.ID, challenged: "opp-5", winner: x.ID, format: model.Format1v1, completedAt: 900})

	stats, err := env.ranking.ClanStats(ctx, x.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.MatchesPlayed)
	assert.Equal(t, 2, stats.Wins)
	assert.Equal(t, 1, stats.Losses)
	assert.Equal(t, 400, stats.XP)
	assert.Equal(t, 67, stats.WinRate)
	require.NotNil(t, stats.LastMatchAt)
	assert.Equal(t, int64(300), *stats.LastMatchAt)

	_, err = env.ranking.ClanStats(ctx, "missing")
	expectErr(t, err, ErrClanNotFound)
}

func TestClanStats_NoMatches(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)

	x := env.clanWithMembers(t, "XXX", "x_boss")
	stats, err := env.ranking.ClanStats(ctx, x.ID)
	require.NoError(t, err)
	assert.Zero(t, stats.XP)
	assert.Zero(t, stats.WinRate)
	assert.Nil(t, stats.LastMatchAt)
}

func TestUserStats_RosterFilterAndSolo(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)

	x := env.clanWithMembers(t, "XXX", "x_boss", "x_bench")
	env.user(t, "rival", "rival")

	// Roster unknown: counts for every member.
	putBeef(env, beefFixture{challenger: x.ID, challenged: "opp-1", winner: x.ID, completedAt: 100})
	// x_bench sat this one out.
	putBeef(env, beefFixture{
		challenger: x.ID, challenged: "opp-2", winner: "opp-2", completedAt: 200,
		challengerRoster: model.KnownRoster("x_boss"),
		challengedRoster: model.KnownRoster("someone"),
	})

	putSoloArena(env, "x_bench", "rival", model.SideA, model.QueueRanked, 300)
	putSoloArena(env, "rival", "x_bench", model.SideA, model.QueueRanked, 400)
	putSoloArena(env, "rival", "x_bench", model.SideB, model.QueueUnranked, 500)

	bench, err := env.ranking.UserStats(ctx, "x_bench")
	require.NoError(t, err)
	assert.Equal(t, model.NewRecordLine(2, 1, 1), bench.Solo)
	assert.Equal(t, model.NewRecordLine(1, 1, 0), bench.Clan)
	assert.Equal(t, model.NewRecordLine(3, 2, 1), bench.Overall)
	assert.Equal(t, 1, bench.BeefWins)
	assert.Equal(t, 0, bench.BeefLosses)

	boss, err := env.ranking.UserStats(ctx, "x_boss")
	require.NoError(t, err)
	assert.Equal(t, model.NewRecordLine(2, 1, 1), boss.Clan)
	assert.Equal(t, 1, boss.BeefLosses)
	assert.Zero(t, boss.Solo.MatchesPlayed)

	_, err = env.ranking.UserStats(ctx, "nobody")
	expectErr(t, err, ErrUserNotFound)
}

func TestUserStats_EmptyRecordedRosterExcludesMembers(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)

	x := env.clanWithMembers(t, "XXX", "x_boss", "x_two")
	putBeef(env, beefFixture{
		challenger: x.ID, challenged: "opp-1", winner: x.ID, completedAt: 100,
		challengerRoster: model.KnownRoster(),
		challengedRoster: model.KnownRoster(),
	})

	stats, err := env.ranking.UserStats(ctx, "x_two")
	require.NoError(t, err)
	assert.Zero(t, stats.Clan.MatchesPlayed, "a recorded empty roster is not an unknown one")

	recent, err := env.ranking.RecentMatchesForUser(ctx, "x_two", 10)
	require.NoError(t, err)
	assert.Empty(t, recent)
}

func TestUserStats_RosterDecidedPerSide(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)

	x := env.clanWithMembers(t, "XXX", "x_boss", "x_two")
	y := env.clanWithMembers(t, "YYY", "y_boss", "y_two")
	putBeef(env, beefFixture{
		challenger: x.ID, challenged: y.ID, winner: y.ID, completedAt: 100,
		challengerRoster: model.KnownRoster("x_boss"),
	})

	yTwo, err := env.ranking.UserStats(ctx, "y_two")
	require.NoError(t, err)
	assert.Equal(t, model.NewRecordLine(1, 1, 0), yTwo.Clan, "an unrecorded side counts every member")

	xTwo, err := env.ranking.UserStats(ctx, "x_two")
	require.NoError(t, err)
	assert.Zero(t, xTwo.Clan.MatchesPlayed)

	recent, err := env.ranking.RecentMatchesForUser(ctx, "y_two", 10)
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}

// ============================================================================
// Ladder Tests
// ============================================================================

func TestLadder_Ordering(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)

	x := env.clanWithMembers(t, "XXX", "x_boss")
	y := env.clanWithMembers(t, "YYY", "y_boss")
	z := env.clanWithMembers(t, "ZZZ", "z_boss")
	env.clanWithMembers(t, "IDLE", "idle_boss")

	// X: 2 played, 1 win = 250 XP, last at 500.
	putBeef(env, beefFixture{challenger: x.ID, challenged: "ghost-1", winner: x.ID, completedAt: 100})
	putBeef(env, beefFixture{challenger: x.ID, challenged: "ghost-2", winner: "ghost-2", completedAt: 500})
	// Y: same XP as X but played more recently.
	putBeef(env, beefFixture{challenger: "ghost-3", challenged: y.ID, winner: y.ID, completedAt: 200})
	putBeef(env, beefFixture{challenger: y.ID, challenged: "ghost-4", winner: "ghost-4", completedAt: 600})
	// Z: 1 played, 1 win = 150 XP.
	putBeef(env, beefFixture{challenger: z.ID, challenged: "ghost-5", winner: z.ID, completedAt: 900})
	// Only ranked 4v4 clan matches feed the ladder.
	putBeef(env, beefFixture{challenger: z.ID, challenged: "ghost-6", winner: z.ID, format: model.Format5v5, completedAt: 950})

	entries, err := env.ranking.Ladder(ctx, model.LadderClans)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	got := []string{entries[0].ClanID, entries[1].ClanID, entries[2].ClanID}
	assert.Equal(t, []string{y.ID, x.ID, z.ID}, got)
	assert.Equal(t, []int{1, 2, 3}, []int{entries[0].Rank, entries[1].Rank, entries[2].Rank})
	assert.Equal(t, 250, entries[0].XP)
	assert.Equal(t, 150, entries[2].XP)
	assert.Equal(t, "YYY", entries[0].Clan.Tag)
}

func TestLadder_Tabs(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.ranking.Ladder(ctx, "WEEKLY")
	expectErr(t, err, ErrInvalidLadderTab)

	for _, tab := range []model.LadderTab{model.LadderSingles, model.LadderDoubles, model.LadderTeam, model.LadderClans} {
		entries, err := env.ranking.Ladder(ctx, tab)
		require.NoError(t, err)
		assert.NotNil(t, entries, "tab %s", tab)
		assert.Empty(t, entries, "tab %s", tab)
	}
}

// ============================================================================
// Match History Tests
// ============================================================================

func TestRecentMatches(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)

	x := env.clanWithMembers(t, "XXX", "x_boss", "x_bench")
	y := env.clanWithMembers(t, "YYY", "y_boss")

	first := putBeef(env, beefFixture{challenger: x.ID, challenged: y.ID, winner: y.ID, completedAt: 100, queue: model.QueueUnranked})
	second := putBeef(env, beefFixture{
		challenger: x.ID, challenged: "ghost", winner: x.ID, completedAt: 300,
		challengerRoster: model.KnownRoster("x_boss"), challengedRoster: model.KnownRoster("g1"),
	})
	solo := putSoloArena(env, "x_bench", "y_boss", model.SideB, model.QueueRanked, 200)

	clanRecent, err := env.ranking.RecentMatchesForClan(ctx, x.ID, 10)
	require.NoError(t, err)
	require.Len(t, clanRecent, 2)
	assert.Equal(t, second.ID, clanRecent[0].ID)
	assert.Equal(t, first.ID, clanRecent[1].ID)
	assert.Equal(t, model.UnknownClan("ghost").Tag, clanRecent[0].Team2.Tag)
	require.NotNil(t, clanRecent[1].WinnerID)
	assert.Equal(t, y.ID, *clanRecent[1].WinnerID)

	limited, err := env.ranking.RecentMatchesForClan(ctx, x.ID, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	bench, err := env.ranking.RecentMatchesForUser(ctx, "x_bench", 10)
	require.NoError(t, err)
	require.Len(t, bench, 2)
	assert.Equal(t, solo.ID, bench[0].ID)
	assert.Equal(t, first.ID, bench[1].ID)
	require.Len(t, bench[0].Team1Players, 1)
	assert.Equal(t, "x_bench", bench[0].Team1Players[0].Username)

	_, err = env.ranking.RecentMatchesForClan(ctx, "missing", 10)
	expectErr(t, err, ErrClanNotFound)
}

func TestUserProfile(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)

	x := env.clanWithMembers(t, "XXX", "x_boss", "x_bench")
	for i := range 7 {
		putBeef(env, beefFixture{challenger: x.ID, challenged: "ghost", winner: x.ID, completedAt: int64(100 * (i + 1))})
	}

	profile, err := env.ranking.UserProfile(ctx, "x_boss")
	require.NoError(t, err)
	assert.True(t, profile.IsFounder)
	require.NotNil(t, profile.Clan)
	assert.Equal(t, x.ID, profile.Clan.ID)
	assert.Len(t, profile.RecentMatches, 5)
	assert.Equal(t, 7, profile.Stats.Clan.Wins)

	bench, err := env.ranking.UserProfile(ctx, "x_bench")
	require.NoError(t, err)
	assert.False(t, bench.IsFounder)
}
