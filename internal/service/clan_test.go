package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microarena/api/internal/model"
)

// ============================================================================
// CreateUser Tests
// ============================================================================

func TestCreateUser_UsernameConflict(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)

	env.user(t, "id-1", "Ace")

	_, err := env.clans.CreateUser(ctx, model.CreateUserRequest{ID: "id-2", Username: "ACE"})
	expectErr(t, err, ErrUsernameTaken)
	if !errors.Is(err, ErrConflict) {
		t.Errorf("expected a conflict, got %v", err)
	}
}

func TestCreateUser_SameIDIsIdempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)

	first := env.user(t, "id-1", "Ace")
	second, err := env.clans.CreateUser(ctx, model.CreateUserRequest{ID: "id-1", Username: "ace", Email: "ace@example.com"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.CreatedAt != first.CreatedAt {
		t.Errorf("expected created_at to be kept, got %d want %d", second.CreatedAt, first.CreatedAt)
	}
	if second.Email != "ace@example.com" {
		t.Errorf("expected email to be set, got %q", second.Email)
	}
	if second.Integrity != model.InitialIntegrity {
		t.Errorf("expected integrity %d, got %d", model.InitialIntegrity, second.Integrity)
	}
}

func TestCreateUser_Validation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)

	cases := []struct {
		name string
		req  model.CreateUserRequest
		want error
	}{
		{"missing id", model.CreateUserRequest{Username: "valid"}, ErrUserIDRequired},
		{"too short", model.CreateUserRequest{ID: "a", Username: "ab"}, ErrInvalidUsername},
		{"only symbols", model.CreateUserRequest{ID: "b", Username: "!!!!"}, ErrInvalidUsername},
		{"too long", model.CreateUserRequest{ID: "c", Username: "abcdefghijklmnopqrstu"}, ErrInvalidUsername},
	}
	for _, tc := range cases {
		_, err := env.clans.CreateUser(ctx, tc.req)
		if !errors.Is(err, tc.want) {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestCreateUser_EmailConflict(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.clans.CreateUser(ctx, model.CreateUserRequest{ID: "id-1", Username: "first", Email: "Same@Example.com"})
	require.NoError(t, err)

	_, err = env.clans.CreateUser(ctx, model.CreateUserRequest{ID: "id-2", Username: "second", Email: "same@example.com"})
	expectErr(t, err, ErrEmailTaken)
}

func TestUpdateUser_RenameKeepsUniqueness(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)

	env.user(t, "id-1", "first")
	env.user(t, "id-2", "second")

	_, err := env.clans.UpdateUser(ctx, "id-2", model.UpdateUserRequest{Username: model.StringPtr("First")})
	expectErr(t, err, ErrUsernameTaken)

	u, err := env.clans.UpdateUser(ctx, "id-2", model.UpdateUserRequest{Username: model.StringPtr("Renamed")})
	require.NoError(t, err)
	assert.Equal(t, "renamed", u.UsernameKey)

	found, err := env.clans.GetUserByUsername(ctx, "RENAMED")
	require.NoError(t, err)
	assert.Equal(t, "id-2", found.ID)

	_, err = env.clans.GetUserByUsername(ctx, "second")
	expectErr(t, err, ErrUserNotFound)
}

// ============================================================================
// CreateClan Tests
// ============================================================================

func TestCreateClan_Success(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)

	env.user(t, "founder", "founder")
	clan, err := env.clans.CreateClan(ctx, "founder", model.CreateClanRequest{Tag: "a-b c", Name: "Alpha Bravo"})
	require.NoError(t, err)

	assert.Equal(t, "ABC", clan.Tag)
	assert.Equal(t, "alpha-bravo", clan.Slug)
	assert.Equal(t, "founder", clan.FounderID)
	assert.Equal(t, 1, clan.MemberCount)
	assert.Equal(t, model.InitialIntegrity, clan.Integrity)
	assert.Equal(t, DefaultInitialRating, env.ranking.Rating(clan.ID))

	role, err := env.clans.GetClanRole(ctx, clan.ID, "founder")
	require.NoError(t, err)
	assert.Equal(t, model.ClanRoleFounder, role)

	byTag, err := env.clans.GetClanByTag(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, clan.ID, byTag.ID)
}

func TestCreateClan_TagCheckedBeforeFounder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)

	env.user(t, "founder", "founder")
	env.clan(t, "founder", "ABC")

	_, err := env.clans.CreateClan(ctx, "ghost", model.CreateClanRequest{Tag: "abc", Name: "Another"})
	expectErr(t, err, ErrTagTaken)

	_, err = env.clans.CreateClan(ctx, "ghost", model.CreateClanRequest{Tag: "XYZ", Name: "Another"})
	expectErr(t, err, ErrUserNotFound)

	_, err = env.clans.CreateClan(ctx, "founder", model.CreateClanRequest{Tag: "XYZ", Name: "Another"})
	expectErr(t, err, ErrAlreadyInClan)
}

func TestCreateClan_Validation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)
	env.user(t, "founder", "founder")

	_, err := env.clans.CreateClan(ctx, "founder", model.CreateClanRequest{Tag: "A", Name: "Valid Name"})
	expectErr(t, err, ErrInvalidTag)

	_, err = env.clans.CreateClan(ctx, "founder", model.CreateClanRequest{Tag: "ABCDEFG", Name: "Valid Name"})
	expectErr(t, err, ErrInvalidTag)

	_, err = env.clans.CreateClan(ctx, "founder", model.CreateClanRequest{Tag: "ABC", Name: "ab"})
	expectErr(t, err, ErrInvalidClanName)
}

// ============================================================================
// Membership Tests
// ============================================================================

func TestJoinClan_AlreadyInClan(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)

	x := env.clanWithMembers(t, "XXX", "x_founder", "member")
	env.user(t, "y_founder", "y_founder")
	y := env.clan(t, "y_founder", "YYY")

	_, err := env.clans.JoinClan(ctx, y.ID, "member")
	expectErr(t, err, ErrAlreadyInClan)

	_, err = env.clans.JoinClan(ctx, "missing", "member")
	expectErr(t, err, ErrClanNotFound)

	assert.Equal(t, 2, env.store.GetClan(x.ID).MemberCount)
}

func TestJoinClan_ConcurrentJoinsBySameUser(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)

	var clanIDs []string
	for _, tag := range []string{"AAA", "BBB", "CCC", "DDD", "EEE"} {
		founder := "f_" + tag
		env.user(t, founder, founder)
		clanIDs = append(clanIDs, env.clan(t, founder, tag).ID)
	}
	env.user(t, "drifter", "drifter")

	var wg sync.WaitGroup
	var mu sync.Mutex
	joined := 0
	for _, id := range clanIDs {
		wg.Add(1)
		go func(clanID string) {
			defer wg.Done()
			_, err := env.clans.JoinClan(ctx, clanID, "drifter")
			if err == nil {
				mu.Lock()
				joined++
				mu.Unlock()
				return
			}
			if !errors.Is(err, ErrAlreadyInClan) {
				t.Errorf("unexpected error: %v", err)
			}
		}(id)
	}
	wg.Wait()

	if joined != 1 {
		t.Fatalf("expected exactly one join to succeed, got %d", joined)
	}
	total := 0
	for _, id := range clanIDs {
		total += env.store.GetClan(id).MemberCount
	}
	assert.Equal(t, len(clanIDs)+1, total)
}

func TestClanIntegrity_IsRoundedMeanOfMembers(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)

	clan := env.clanWithMembers(t, "MEAN", "m_one", "m_two")

	// 100 and 95 average to 97.5, which rounds up.
	_, err := env.integrity.RecordEvent(ctx, "", model.RecordIntegrityRequest{
		Type: model.IntegrityToxicity, TargetUserID: "m_two", Severity: 1, Description: "flame",
	})
	require.NoError(t, err)

	got := env.store.GetClan(clan.ID)
	assert.Equal(t, 98, got.Integrity)
	assert.Equal(t, 2, got.MemberCount)

	env.user(t, "m_three", "m_three")
	env.join(t, clan.ID, "m_three")
	got = env.store.GetClan(clan.ID)
	assert.Equal(t, 98, got.Integrity) // 295 / 3 = 98.3
	assert.Equal(t, 3, got.MemberCount)

	_, err = env.clans.LeaveClan(ctx, clan.ID, "m_one")
	require.NoError(t, err)
	got = env.store.GetClan(clan.ID)
	assert.Equal(t, 98, got.Integrity) // 195 / 2 = 97.5
	assert.Equal(t, 2, got.MemberCount)
}

func TestLeaveClan_FounderSuccessionByJoinTime(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)

	clan := env.clanWithMembers(t, "SUCC", "s_founder", "s_second", "s_third")

	res, err := env.clans.LeaveClan(ctx, clan.ID, "s_founder")
	require.NoError(t, err)
	assert.False(t, res.Disbanded)

	got := env.store.GetClan(clan.ID)
	assert.Equal(t, "s_second", got.FounderID)

	role, err := env.clans.GetClanRole(ctx, clan.ID, "s_second")
	require.NoError(t, err)
	assert.Equal(t, model.ClanRoleFounder, role)

	view, err := env.clans.GetClanWithMembers(ctx, clan.ID)
	require.NoError(t, err)
	require.NotNil(t, view.Founder)
	assert.Equal(t, "s_second", view.Founder.ID)
	assert.Len(t, view.Members, 2)
}

func TestLeaveClan_FounderSuccessionTieBreaksOnUserID(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)

	clan := env.clanWithMembers(t, "TIE", "t_founder", "t_zed", "t_amy")
	env.store.PutMembership(clan.ID, model.Membership{UserID: "t_zed", Role: model.ClanRoleSoldier, JoinedAt: 5})
	env.store.PutMembership(clan.ID, model.Membership{UserID: "t_amy", Role: model.ClanRoleSoldier, JoinedAt: 5})

	_, err := env.clans.LeaveClan(ctx, clan.ID, "t_founder")
	require.NoError(t, err)
	assert.Equal(t, "t_amy", env.store.GetClan(clan.ID).FounderID)
}

func TestLeaveClan_LastMemberDisbands(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)

	env.user(t, "loner", "loner")
	clan := env.clan(t, "loner", "SOLO")

	res, err := env.clans.LeaveClan(ctx, clan.ID, "loner")
	require.NoError(t, err)
	assert.True(t, res.Disbanded)

	_, err = env.clans.GetClan(ctx, clan.ID)
	expectErr(t, err, ErrClanNotFound)
	_, ok := env.store.Rating(clan.ID)
	assert.False(t, ok, "rating should be removed")
	assert.Nil(t, env.store.GetUser("loner").ClanID)

	// The tag is free again.
	env.clan(t, "loner", "SOLO")
}

func TestLeaveClan_NotMemberOfThatClan(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)

	x := env.clanWithMembers(t, "XXX", "x_founder")
	env.clanWithMembers(t, "YYY", "y_founder")

	_, err := env.clans.LeaveClan(ctx, x.ID, "y_founder")
	expectErr(t, err, ErrNotClanMember)
	if KindOf(err) != KindForbidden {
		t.Errorf("expected forbidden kind, got %v", KindOf(err))
	}

	_, err = env.clans.LeaveClan(ctx, x.ID, "nobody")
	expectErr(t, err, ErrUserNotFound)
}

// ============================================================================
// Role Management Tests
// ============================================================================

func TestSetRole_Rules(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)

	clan := env.clanWithMembers(t, "ROLE", "r_founder", "r_soldier", "r_other")
	env.clanWithMembers(t, "ELSE", "outsider")

	_, err := env.clans.SetRole(ctx, clan.ID, "r_soldier", model.SetRoleRequest{TargetUserID: "r_other", Role: model.ClanRoleLeader})
	expectErr(t, err, ErrNotFounder)

	_, err = env.clans.SetRole(ctx, clan.ID, "r_founder", model.SetRoleRequest{TargetUserID: "r_founder", Role: model.ClanRoleSoldier})
	expectErr(t, err, ErrCannotChangeFounder)

	_, err = env.clans.SetRole(ctx, clan.ID, "r_founder", model.SetRoleRequest{TargetUserID: "outsider", Role: model.ClanRoleLeader})
	expectErr(t, err, ErrTargetNotMember)

	_, err = env.clans.SetRole(ctx, clan.ID, "r_founder", model.SetRoleRequest{TargetUserID: "r_soldier", Role: model.ClanRoleFounder})
	expectErr(t, err, ErrInvalidRole)

	m, err := env.clans.SetRole(ctx, clan.ID, "r_founder", model.SetRoleRequest{TargetUserID: "r_soldier", Role: model.ClanRoleLeader})
	require.NoError(t, err)
	assert.Equal(t, model.ClanRoleLeader, m.Role)
}

func TestKick_Rules(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)

	clan := env.clanWithMembers(t, "KICK", "k_founder", "k_lead1", "k_lead2", "k_soldier", "k_grunt")
	for _, id := range []string{"k_lead1", "k_lead2"} {
		_, err := env.clans.SetRole(ctx, clan.ID, "k_founder", model.SetRoleRequest{TargetUserID: id, Role: model.ClanRoleLeader})
		require.NoError(t, err)
	}

	cases := []struct {
		name          string
		actor, target string
		want          error
	}{
		{"self", "k_lead1", "k_lead1", ErrCannotKickSelf},
		{"founder", "k_lead1", "k_founder", ErrCannotKickFounder},
		{"leader kicks leader", "k_lead1", "k_lead2", ErrCannotKickLeader},
		{"soldier kicks", "k_soldier", "k_grunt", ErrNotClanManager},
		{"unknown target", "k_founder", "nobody", ErrUserNotFound},
	}
	for _, tc := range cases {
		err := env.clans.Kick(ctx, clan.ID, tc.actor, tc.target)
		if !errors.Is(err, tc.want) {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}

	require.NoError(t, env.clans.Kick(ctx, clan.ID, "k_lead1", "k_soldier"))
	require.NoError(t, env.clans.Kick(ctx, clan.ID, "k_founder", "k_lead2"))

	got := env.store.GetClan(clan.ID)
	assert.Equal(t, 3, got.MemberCount)
	assert.Nil(t, env.store.GetUser("k_soldier").ClanID)
	_, ok := env.store.Membership(clan.ID, "k_lead2")
	assert.False(t, ok)
}

func TestUpdateClan_ManagersOnly(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)

	clan := env.clanWithMembers(t, "UPD", "u_founder", "u_soldier")

	_, err := env.clans.UpdateClan(ctx, clan.ID, "u_soldier", model.UpdateClanRequest{Name: model.StringPtr("Hijacked")})
	expectErr(t, err, ErrNotClanManager)

	got, err := env.clans.UpdateClan(ctx, clan.ID, "u_founder", model.UpdateClanRequest{Name: model.StringPtr("New Name")})
	require.NoError(t, err)
	assert.Equal(t, "New Name", got.Name)
	assert.Equal(t, "new-name", got.Slug)
}
