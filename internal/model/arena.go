package model

// ArenaVisibility controls who may take side B.
type ArenaVisibility string

const (
	VisibilityOpen   ArenaVisibility = "OPEN"
	VisibilityDirect ArenaVisibility = "DIRECT"
)

// IsValid returns true for OPEN and DIRECT
func (v ArenaVisibility) IsValid() bool {
	return v == VisibilityOpen || v == VisibilityDirect
}

// ArenaStatus is the lifecycle state of a match-board entry.
type ArenaStatus string

const (
	ArenaStatusPending   ArenaStatus = "PENDING"
	ArenaStatusOpen      ArenaStatus = "OPEN"
	ArenaStatusLive      ArenaStatus = "LIVE"
	ArenaStatusCompleted ArenaStatus = "COMPLETED"
	ArenaStatusDeclined  ArenaStatus = "DECLINED"
	ArenaStatusCancelled ArenaStatus = "CANCELLED"
)

// IsTerminal returns true once no further transition is allowed.
func (s ArenaStatus) IsTerminal() bool {
	return s == ArenaStatusCompleted || s == ArenaStatusDeclined || s == ArenaStatusCancelled
}

// IsJoinable returns true while players may still take slots.
func (s ArenaStatus) IsJoinable() bool {
	return s == ArenaStatusOpen || s == ArenaStatusLive
}

// TargetKind says what a direct challenge is addressed to.
type TargetKind string

const (
	TargetUser TargetKind = "USER"
	TargetClan TargetKind = "CLAN"
)

// ArenaTarget is the addressee of a direct challenge.
type ArenaTarget struct {
	Kind TargetKind `json:"kind"`
	ID   string     `json:"id"`
}

// ArenaSide is one team of an arena match.
type ArenaSide struct {
	ClanID    *string  `json:"clan_id,omitempty"`
	PlayerIDs []string `json:"player_ids"`
}

// Has reports whether userID is rostered on this side.
func (s ArenaSide) Has(userID string) bool {
	for _, id := range s.PlayerIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func (s ArenaSide) clone() ArenaSide {
	c := ArenaSide{ClanID: cloneString(s.ClanID)}
	c.PlayerIDs = append([]string{}, s.PlayerIDs...)
	return c
}

// ArenaMatch is an open-join or direct-challenge match.
type ArenaMatch struct {
	ID             string          `json:"id"`
	Visibility     ArenaVisibility `json:"visibility"`
	Scope          Scope           `json:"scope"`
	Format         Format          `json:"format"`
	Queue          Queue           `json:"queue"`
	Ruleset        string          `json:"ruleset"`
	Status         ArenaStatus     `json:"status"`
	A              ArenaSide       `json:"side_a"`
	B              ArenaSide       `json:"side_b"`
	Target         *ArenaTarget    `json:"target,omitempty"`
	WinnerSide     *Side           `json:"winner_side,omitempty"`
	ScoreA         *int            `json:"score_a,omitempty"`
	ScoreB         *int            `json:"score_b,omitempty"`
	RefRequired    bool            `json:"ref_required"`
	StreamRequired bool            `json:"stream_required"`
	ScheduledTime  *int64          `json:"scheduled_time,omitempty"`
	CreatedBy      string          `json:"created_by"`
	CreatedAt      int64           `json:"created_at"`
	UpdatedAt      int64           `json:"updated_at"`
	CompletedAt    *int64          `json:"completed_at,omitempty"`
}

// Clone returns a deep copy.
func (m *ArenaMatch) Clone() *ArenaMatch {
	if m == nil {
		return nil
	}
	c := *m
	c.A = m.A.clone()
	c.B = m.B.clone()
	if m.Target != nil {
		t := *m.Target
		c.Target = &t
	}
	if m.WinnerSide != nil {
		w := *m.WinnerSide
		c.WinnerSide = &w
	}
	c.ScoreA = cloneInt(m.ScoreA)
	c.ScoreB = cloneInt(m.ScoreB)
	c.ScheduledTime = cloneInt64(m.ScheduledTime)
	c.CompletedAt = cloneInt64(m.CompletedAt)
	return &c
}

// Side returns a pointer to the named side.
func (m *ArenaMatch) Side(s Side) *ArenaSide {
	if s == SideB {
		return &m.B
	}
	return &m.A
}

// Rostered reports whether userID is on either side.
func (m *ArenaMatch) Rostered(userID string) bool {
	return m.A.Has(userID) || m.B.Has(userID)
}

// Full reports whether both sides are at capacity, and for clan matches
// both clans are set.
func (m *ArenaMatch) Full() bool {
	size := m.Format.TeamSize()
	if len(m.A.PlayerIDs) < size || len(m.B.PlayerIDs) < size {
		return false
	}
	if m.Scope == ScopeClan && (m.A.ClanID == nil || m.B.ClanID == nil) {
		return false
	}
	return true
}

// ArenaSideView is a side joined with display data.
type ArenaSideView struct {
	Clan    *Clan         `json:"clan,omitempty"`
	Players []Participant `json:"players"`
}

// ArenaMatchView is an arena match joined with display data.
type ArenaMatchView struct {
	*ArenaMatch
	SideAView   ArenaSideView `json:"side_a_view"`
	SideBView   ArenaSideView `json:"side_b_view"`
	CreatorName string        `json:"creator_name"`
	TargetName  string        `json:"target_name,omitempty"`
}

// CreateArenaRequest opens a match on the board. Target is a username for
// PLAYER scope and a clan tag for CLAN scope.
type CreateArenaRequest struct {
	Visibility     ArenaVisibility `json:"visibility,omitempty"`
	Scope          Scope           `json:"scope,omitempty"`
	Format         Format          `json:"format,omitempty"`
	Queue          Queue           `json:"queue,omitempty"`
	Ruleset        string          `json:"ruleset,omitempty"`
	Target         string          `json:"target,omitempty"`
	RefRequired    *bool           `json:"ref_required,omitempty"`
	StreamRequired *bool           `json:"stream_required,omitempty"`
	ScheduledTime  *int64          `json:"scheduled_time,omitempty"`
}

// DefaultRuleset is used when a request omits one.
const DefaultRuleset = "Standard Rules"

// RespondArenaRequest answers a direct challenge.
type RespondArenaRequest struct {
	Accept bool `json:"accept"`
}

// JoinArenaRequest claims a slot.
type JoinArenaRequest struct {
	Side Side `json:"side"`
}

// CompleteArenaRequest records a result.
type CompleteArenaRequest struct {
	WinnerSide Side `json:"winner_side"`
	ScoreA     *int `json:"score_a,omitempty"`
	ScoreB     *int `json:"score_b,omitempty"`
}
