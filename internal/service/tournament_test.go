package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microarena/api/internal/model"
)

func newTournament(t *testing.T, env *testEnv, mutate func(r *model.CreateTournamentRequest)) *model.Tournament {
	t.Helper()
	now := env.clock.NowMillis()
	req := model.CreateTournamentRequest{
		Name:                 "Winter Cup",
		Tier:                 model.TierOpen,
		Game:                 "Arena",
		Format:               model.Format4v4,
		MaxTeams:             8,
		RegistrationDeadline: now + time.Hour.Milliseconds(),
		StartTime:            now + 2*time.Hour.Milliseconds(),
	}
	if mutate != nil {
		mutate(&req)
	}
	tour, err := env.tournaments.Create(context.Background(), req)
	require.NoError(t, err)
	return tour
}

func TestTournamentCreate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)

	tour := newTournament(t, env, func(r *model.CreateTournamentRequest) { r.IntegrityRequirement = 150 })
	assert.Equal(t, "winter-cup", tour.Slug)
	assert.Equal(t, model.TournamentRegistrationOpen, tour.Status)
	assert.Equal(t, model.MaxIntegrity, tour.IntegrityRequirement)

	cases := []struct {
		name   string
		mutate func(r *model.CreateTournamentRequest)
		want   error
	}{
		{"name", func(r *model.CreateTournamentRequest) { r.Name = " " }, ErrTournamentNameRequired},
		{"tier", func(r *model.CreateTournamentRequest) { r.Tier = "GOLD" }, ErrInvalidTier},
		{"format", func(r *model.CreateTournamentRequest) { r.Format = "8v8" }, ErrInvalidFormat},
		{"max teams", func(r *model.CreateTournamentRequest) { r.MaxTeams = 1 }, ErrInvalidMaxTeams},
		{"schedule", func(r *model.CreateTournamentRequest) { r.RegistrationDeadline = r.StartTime + 1 }, ErrInvalidSchedule},
		{"no deadline", func(r *model.CreateTournamentRequest) { r.RegistrationDeadline = 0 }, ErrScheduleRequired},
		{"no start", func(r *model.CreateTournamentRequest) { r.RegistrationDeadline, r.StartTime = 0, 0 }, ErrScheduleRequired},
		{"negative deadline", func(r *model.CreateTournamentRequest) { r.RegistrationDeadline = -5 }, ErrScheduleRequired},
	}
	for _, tc := range cases {
		req := model.CreateTournamentRequest{
			Name: "Cup", Tier: model.TierOpen, Format: model.Format4v4, MaxTeams: 4,
			RegistrationDeadline: 10, StartTime: 20,
		}
		tc.mutate(&req)
		_, err := env.tournaments.Create(ctx, req)
		expectErr(t, err, tc.want)
	}
}

func TestTournamentRegister(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)

	x := env.clanWithMembers(t, "XXX", "x_boss", "x_grunt")
	y := env.clanWithMembers(t, "YYY", "y_boss")
	tour := newTournament(t, env, func(r *model.CreateTournamentRequest) { r.MaxTeams = 2 })

	_, err := env.tournaments.Register(ctx, tour.ID, "x_grunt", model.RegisterTournamentRequest{ClanID: x.ID})
	expectErr(t, err, ErrNotClanManager)

	_, err = env.tournaments.Register(ctx, tour.ID, "y_boss", model.RegisterTournamentRequest{ClanID: x.ID})
	expectErr(t, err, ErrNotClanMember)

	team, err := env.tournaments.Register(ctx, tour.ID, "x_boss", model.RegisterTournamentRequest{ClanID: x.ID})
	require.NoError(t, err)
	assert.Equal(t, x.ID, team.ClanID)
	assert.Equal(t, "x_boss", team.RegisteredBy)

	_, err = env.tournaments.Register(ctx, tour.ID, "x_boss", model.RegisterTournamentRequest{ClanID: x.ID})
	expectErr(t, err, ErrAlreadyRegistered)

	_, err = env.tournaments.Register(ctx, tour.ID, "y_boss", model.RegisterTournamentRequest{ClanID: y.ID})
	require.NoError(t, err)

	z := env.clanWithMembers(t, "ZZZ", "z_boss")
	_, err = env.tournaments.Register(ctx, tour.ID, "z_boss", model.RegisterTournamentRequest{ClanID: z.ID})
	expectErr(t, err, ErrTournamentFull)

	// A disbanded team frees its slot.
	_, err = env.clans.LeaveClan(ctx, y.ID, "y_boss")
	require.NoError(t, err)
	_, err = env.tournaments.Register(ctx, tour.ID, "z_boss", model.RegisterTournamentRequest{ClanID: z.ID})
	require.NoError(t, err)

	got, err := env.tournaments.Get(ctx, tour.ID)
	require.NoError(t, err)
	require.Len(t, got.RegisteredTeams, 2)
	assert.Equal(t, "XXX", got.RegisteredTeams[0].Clan.Tag)
	assert.Equal(t, "ZZZ", got.RegisteredTeams[1].Clan.Tag)
}

func TestTournamentRegister_IntegrityAndTier(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)

	x := env.clanWithMembers(t, "XXX", "x_boss", "x_grunt")
	record(t, env, "x_grunt", model.IntegrityToxicity, 1) // clan integrity 98

	showcase := newTournament(t, env, func(r *model.CreateTournamentRequest) { r.Tier = model.TierShowcase })
	_, err := env.tournaments.Register(ctx, showcase.ID, "x_boss", model.RegisterTournamentRequest{ClanID: x.ID})
	expectErr(t, err, ErrTierLocked)

	strict := newTournament(t, env, func(r *model.CreateTournamentRequest) { r.IntegrityRequirement = 99 })
	_, err = env.tournaments.Register(ctx, strict.ID, "x_boss", model.RegisterTournamentRequest{ClanID: x.ID})
	expectErr(t, err, ErrIntegrityTooLow)

	premier := newTournament(t, env, func(r *model.CreateTournamentRequest) { r.Tier = model.TierPremier })
	_, err = env.tournaments.Register(ctx, premier.ID, "x_boss", model.RegisterTournamentRequest{ClanID: x.ID})
	require.NoError(t, err)
}

func TestTournamentRegister_Closed(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)

	x := env.clanWithMembers(t, "XXX", "x_boss")
	tour := newTournament(t, env, nil)

	_, err := env.tournaments.Register(ctx, "missing", "x_boss", model.RegisterTournamentRequest{ClanID: x.ID})
	expectErr(t, err, ErrTournamentNotFound)

	_, err = env.tournaments.Register(ctx, tour.ID, "x_boss", model.RegisterTournamentRequest{ClanID: "missing"})
	expectErr(t, err, ErrClanNotFound)

	env.clock.Advance(2 * time.Hour)
	_, err = env.tournaments.Register(ctx, tour.ID, "x_boss", model.RegisterTournamentRequest{ClanID: x.ID})
	expectErr(t, err, ErrRegistrationClosed)

	other := newTournament(t, env, nil)
	_, err = env.tournaments.SetStatus(ctx, other.ID, model.SetTournamentStatusRequest{Status: model.TournamentLive})
	require.NoError(t, err)
	_, err = env.tournaments.Register(ctx, other.ID, "x_boss", model.RegisterTournamentRequest{ClanID: x.ID})
	expectErr(t, err, ErrRegistrationClosed)

	_, err = env.tournaments.SetStatus(ctx, other.ID, model.SetTournamentStatusRequest{Status: "PAUSED"})
	expectErr(t, err, ErrInvalidTournamentState)
}

func TestTournamentList_Filters(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)

	open := newTournament(t, env, nil)
	premier := newTournament(t, env, func(r *model.CreateTournamentRequest) { r.Tier = model.TierPremier })
	_, err := env.tournaments.SetStatus(ctx, premier.ID, model.SetTournamentStatusRequest{Status: model.TournamentCompleted})
	require.NoError(t, err)

	assert.Len(t, env.tournaments.List(ctx, model.TournamentFilter{}), 2)

	tier := model.TierOpen
	byTier := env.tournaments.List(ctx, model.TournamentFilter{Tier: &tier})
	require.Len(t, byTier, 1)
	assert.Equal(t, open.ID, byTier[0].ID)

	status := model.TournamentCompleted
	byStatus := env.tournaments.List(ctx, model.TournamentFilter{Status: &status})
	require.Len(t, byStatus, 1)
	assert.Equal(t, premier.ID, byStatus[0].ID)
	assert.Zero(t, byStatus[0].RegisteredCount)
}
