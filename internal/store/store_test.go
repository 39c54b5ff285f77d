package store

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microarena/api/internal/model"
)

// ============================================================================
// Locker Tests
// ============================================================================

func TestLocker_SerializesSameKey(t *testing.T) {
	t.Parallel()
	l := NewLocker()

	var inside int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := l.Lock("clan:1")
			defer unlock()
			if n := atomic.AddInt32(&inside, 1); n != 1 {
				t.Errorf("expected exclusive access, got %d holders", n)
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
		}()
	}
	wg.Wait()
}

func TestLocker_OverlappingSetsDoNotDeadlock(t *testing.T) {
	t.Parallel()
	l := NewLocker()

	done := make(chan struct{})
	go func() {
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(2)
			go func() {
				defer wg.Done()
				l.Lock("a", "b", "c")()
			}()
			go func() {
				defer wg.Done()
				l.Lock("c", "b", "a")()
			}()
		}
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("lock acquisition deadlocked")
	}
}

func TestLocker_DuplicateKeysAndReleaseCleanup(t *testing.T) {
	t.Parallel()
	l := NewLocker()

	unlock := l.Lock("user:1", "user:1", "", "clan:1")
	assert.Equal(t, 2, l.size())
	unlock()
	unlock()
	assert.Equal(t, 0, l.size())
}

// ============================================================================
// Users & Clans
// ============================================================================

func TestStore_PutUser_MaintainsIndexes(t *testing.T) {
	t.Parallel()
	s := New()

	s.PutUser(&model.User{ID: "u1", Username: "Ace", UsernameKey: "ace", Email: "Ace@Example.com"})

	id, ok := s.UserIDByUsernameKey("ace")
	require.True(t, ok)
	assert.Equal(t, "u1", id)

	id, ok = s.UserIDByEmail("ace@example.com")
	require.True(t, ok)
	assert.Equal(t, "u1", id)

	s.PutUser(&model.User{ID: "u1", Username: "Ace2", UsernameKey: "ace2", Email: "new@example.com"})

	_, ok = s.UserIDByUsernameKey("ace")
	assert.False(t, ok, "old username key should be released")
	_, ok = s.UserIDByEmail("ace@example.com")
	assert.False(t, ok, "old email should be released")
}

func TestStore_GetReturnsCopies(t *testing.T) {
	t.Parallel()
	s := New()

	s.PutUser(&model.User{ID: "u1", UsernameKey: "ace", Integrity: 100})
	u := s.GetUser("u1")
	u.Integrity = 0

	assert.Equal(t, 100, s.GetUser("u1").Integrity)
	assert.Nil(t, s.GetUser("missing"))
}

func TestStore_DeleteClan_RemovesMembersAndRating(t *testing.T) {
	t.Parallel()
	s := New()

	s.PutClan(&model.Clan{ID: "c1", TagKey: "ABC"})
	s.PutMembership("c1", model.Membership{UserID: "u1", Role: model.ClanRoleFounder, JoinedAt: 1})
	s.SetRating("c1", 1500)

	s.DeleteClan("c1")

	assert.Nil(t, s.GetClan("c1"))
	assert.Empty(t, s.Members("c1"))
	_, ok := s.Rating("c1")
	assert.False(t, ok)
	_, ok = s.ClanIDByTagKey("ABC")
	assert.False(t, ok)
}

func TestStore_Members_OrderedByJoinThenID(t *testing.T) {
	t.Parallel()
	s := New()

	s.PutClan(&model.Clan{ID: "c1", TagKey: "ABC"})
	s.PutMembership("c1", model.Membership{UserID: "u3", JoinedAt: 5})
	s.PutMembership("c1", model.Membership{UserID: "u2", JoinedAt: 1})
	s.PutMembership("c1", model.Membership{UserID: "u1", JoinedAt: 5})

	members := s.Members("c1")
	require.Len(t, members, 3)
	assert.Equal(t, "u2", members[0].UserID)
	assert.Equal(t, "u1", members[1].UserID)
	assert.Equal(t, "u3", members[2].UserID)
}

// ============================================================================
// Matches
// ============================================================================

func TestStore_BeefIndexedByBothClans(t *testing.T) {
	t.Parallel()
	s := New()

	s.PutBeef(&model.BeefMatch{ID: "b1", ChallengerClanID: "x", ChallengedClanID: "y"})
	s.PutBeef(&model.BeefMatch{ID: "b2", ChallengerClanID: "y", ChallengedClanID: "z"})

	assert.Len(t, s.BeefForClan("y"), 2)
	assert.Len(t, s.BeefForClan("x"), 1)
	assert.Len(t, s.ListBeef(), 2)
	assert.Equal(t, "b1", s.ListBeef()[0].ID)
}

func TestStore_ArenaIndexGrowsWithSideB(t *testing.T) {
	t.Parallel()
	s := New()

	x := "x"
	m := &model.ArenaMatch{ID: "a1", A: model.ArenaSide{ClanID: &x}}
	s.PutArena(m)
	assert.Len(t, s.ArenaForClan("x"), 1)
	assert.Empty(t, s.ArenaForClan("y"))

	y := "y"
	m.B.ClanID = &y
	s.PutArena(m)
	assert.Len(t, s.ArenaForClan("y"), 1)
	assert.Len(t, s.ListArena(), 1)
}

func TestStore_Stats(t *testing.T) {
	t.Parallel()
	s := New()

	s.PutUser(&model.User{ID: "u1", UsernameKey: "ace"})
	s.PutClan(&model.Clan{ID: "c1", TagKey: "ABC"})
	s.PutEvent(&model.IntegrityEvent{ID: "e1", TargetUserID: "u1"})
	s.PutTournament(&model.Tournament{ID: "t1"})

	stats := s.Stats()
	assert.Equal(t, 1, stats.Users)
	assert.Equal(t, 1, stats.Clans)
	assert.Equal(t, 1, stats.IntegrityEvents)
	assert.Equal(t, 1, stats.Tournaments)
	assert.Equal(t, 0, stats.BeefMatches)
}
