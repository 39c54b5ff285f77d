package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microarena/api/internal/model"
)

func invite(t *testing.T, env *testEnv, clanID, inviterID, username string) *model.ClanInvite {
	t.Helper()
	inv, err := env.invites.CreateInvite(context.Background(), clanID, inviterID, model.CreateInviteRequest{Username: username})
	require.NoError(t, err)
	return inv
}

func TestCreateInvite_Success(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	clan := env.clanWithMembers(t, "INV", "inv_boss")
	env.user(t, "recruit", "Recruit")

	inv := invite(t, env, clan.ID, "inv_boss", "RECRUIT")
	assert.Equal(t, model.InviteStatusPending, inv.Status)
	assert.Equal(t, "recruit", inv.InviteeID)
	assert.Equal(t, "Recruit", inv.InviteeUsername)
	assert.Equal(t, "INV", inv.ClanTag)
	assert.Equal(t, inv.CreatedAt+model.InviteTTL.Milliseconds(), inv.ExpiresAt)
}

func TestCreateInvite_Rejections(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)

	clan := env.clanWithMembers(t, "INV", "inv_boss", "inv_grunt")
	env.clanWithMembers(t, "OTH", "oth_boss")
	env.user(t, "recruit", "recruit")

	cases := []struct {
		name     string
		clanID   string
		inviter  string
		username string
		want     error
	}{
		{"unknown clan", "missing", "inv_boss", "recruit", ErrClanNotFound},
		{"unknown inviter", clan.ID, "nobody", "recruit", ErrInviterNotFound},
		{"outsider", clan.ID, "oth_boss", "recruit", ErrNotClanMember},
		{"soldier", clan.ID, "inv_grunt", "recruit", ErrNotClanManager},
		{"unknown invitee", clan.ID, "inv_boss", "ghost", ErrInviteeNotFound},
		{"self", clan.ID, "inv_boss", "inv_boss", ErrCannotInviteSelf},
		{"invitee in clan", clan.ID, "inv_boss", "oth_boss", ErrInviteeInClan},
	}
	for _, tc := range cases {
		_, err := env.invites.CreateInvite(ctx, tc.clanID, tc.inviter, model.CreateInviteRequest{Username: tc.username})
		expectErr(t, err, tc.want)
	}
}

func TestCreateInvite_DuplicatePending(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)

	clan := env.clanWithMembers(t, "INV", "inv_boss")
	env.user(t, "recruit", "recruit")
	invite(t, env, clan.ID, "inv_boss", "recruit")

	_, err := env.invites.CreateInvite(ctx, clan.ID, "inv_boss", model.CreateInviteRequest{Username: "recruit"})
	expectErr(t, err, ErrInviteDuplicate)

	// Once the first one lapses a new invite may be sent.
	env.clock.Advance(model.InviteTTL)
	invite(t, env, clan.ID, "inv_boss", "recruit")
}

func TestRespondToInvite_AcceptCancelsOthers(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)

	a := env.clanWithMembers(t, "AAA", "a_boss")
	b := env.clanWithMembers(t, "BBB", "b_boss")
	env.user(t, "recruit", "recruit")

	fromA := invite(t, env, a.ID, "a_boss", "recruit")
	fromB := invite(t, env, b.ID, "b_boss", "recruit")

	accepted, err := env.invites.RespondToInvite(ctx, fromA.ID, "recruit", model.RespondInviteRequest{Accept: true})
	require.NoError(t, err)
	assert.Equal(t, model.InviteStatusAccepted, accepted.Status)
	require.NotNil(t, accepted.RespondedAt)

	user := env.store.GetUser("recruit")
	require.NotNil(t, user.ClanID)
	assert.Equal(t, a.ID, *user.ClanID)
	assert.Equal(t, 2, env.store.GetClan(a.ID).MemberCount)

	role, err := env.clans.GetClanRole(ctx, a.ID, "recruit")
	require.NoError(t, err)
	assert.Equal(t, model.ClanRoleSoldier, role)

	assert.Equal(t, model.InviteStatusCancelled, env.store.GetInvite(fromB.ID).Status)

	_, err = env.invites.RespondToInvite(ctx, fromB.ID, "recruit", model.RespondInviteRequest{Accept: true})
	expectErr(t, err, ErrInviteNotPending)
}

func TestRespondToInvite_Decline(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)

	clan := env.clanWithMembers(t, "INV", "inv_boss")
	env.user(t, "recruit", "recruit")
	inv := invite(t, env, clan.ID, "inv_boss", "recruit")

	declined, err := env.invites.RespondToInvite(ctx, inv.ID, "recruit", model.RespondInviteRequest{Accept: false})
	require.NoError(t, err)
	assert.Equal(t, model.InviteStatusDeclined, declined.Status)
	assert.Nil(t, env.store.GetUser("recruit").ClanID)

	_, err = env.invites.RespondToInvite(ctx, inv.ID, "recruit", model.RespondInviteRequest{Accept: true})
	expectErr(t, err, ErrInviteNotPending)
}

func TestRespondToInvite_Expired(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)

	clan := env.clanWithMembers(t, "INV", "inv_boss")
	env.user(t, "recruit", "recruit")
	inv := invite(t, env, clan.ID, "inv_boss", "recruit")

	env.clock.Advance(model.InviteTTL)

	_, err := env.invites.RespondToInvite(ctx, inv.ID, "recruit", model.RespondInviteRequest{Accept: true})
	expectErr(t, err, ErrInviteExpired)
	if KindOf(err) != KindInvalidState {
		t.Errorf("expected invalid state, got %v", KindOf(err))
	}

	assert.Equal(t, model.InviteStatusExpired, env.store.GetInvite(inv.ID).Status)
	assert.Nil(t, env.store.GetUser("recruit").ClanID)
}

func TestRespondToInvite_NotAddressed(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)

	clan := env.clanWithMembers(t, "INV", "inv_boss")
	env.user(t, "recruit", "recruit")
	env.user(t, "snoop", "snoop")
	inv := invite(t, env, clan.ID, "inv_boss", "recruit")

	_, err := env.invites.RespondToInvite(ctx, inv.ID, "snoop", model.RespondInviteRequest{Accept: true})
	expectErr(t, err, ErrInviteNotAddressed)

	_, err = env.invites.RespondToInvite(ctx, "missing", "recruit", model.RespondInviteRequest{Accept: true})
	expectErr(t, err, ErrInviteNotFound)

	assert.True(t, env.store.GetInvite(inv.ID).IsPending())
}

func TestRespondToInvite_AcceptAfterJoiningElsewhere(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)

	clan := env.clanWithMembers(t, "INV", "inv_boss")
	other := env.clanWithMembers(t, "OTH", "oth_boss")
	env.user(t, "recruit", "recruit")
	inv := invite(t, env, clan.ID, "inv_boss", "recruit")
	env.join(t, other.ID, "recruit")

	_, err := env.invites.RespondToInvite(ctx, inv.ID, "recruit", model.RespondInviteRequest{Accept: true})
	expectErr(t, err, ErrAlreadyInClan)
	assert.True(t, env.store.GetInvite(inv.ID).IsPending())
}

func TestListInvitesForUser_RefreshesClanDisplay(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)

	a := env.clanWithMembers(t, "AAA", "a_boss")
	b := env.clanWithMembers(t, "BBB", "b_boss")
	env.user(t, "recruit", "recruit")

	older := invite(t, env, a.ID, "a_boss", "recruit")
	newer := invite(t, env, b.ID, "b_boss", "recruit")

	_, err := env.clans.UpdateClan(ctx, a.ID, "a_boss", model.UpdateClanRequest{Name: model.StringPtr("Renamed Alpha")})
	require.NoError(t, err)

	invites, err := env.invites.ListInvitesForUser(ctx, "recruit")
	require.NoError(t, err)
	require.Len(t, invites, 2)
	assert.Equal(t, newer.ID, invites[0].ID)
	assert.Equal(t, older.ID, invites[1].ID)
	assert.Equal(t, "Renamed Alpha", invites[1].ClanName)

	_, err = env.invites.ListInvitesForUser(ctx, "nobody")
	expectErr(t, err, ErrUserNotFound)
}
