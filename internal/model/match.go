package model

import (
	"encoding/json"
	"slices"
)

// Format is the team size of a match, e.g. "4v4".
type Format string

const (
	Format1v1 Format = "1v1"
	Format2v2 Format = "2v2"
	Format3v3 Format = "3v3"
	Format4v4 Format = "4v4"
	Format5v5 Format = "5v5"
)

// IsValid returns true for 1v1 through 5v5
func (f Format) IsValid() bool {
	return f.TeamSize() > 0
}

// TeamSize returns N for an NvN format, or 0 if f is not a known format.
func (f Format) TeamSize() int {
	switch f {
	case Format1v1:
		return 1
	case Format2v2:
		return 2
	case Format3v3:
		return 3
	case Format4v4:
		return 4
	case Format5v5:
		return 5
	default:
		return 0
	}
}

// Queue selects whether a match affects rankings.
type Queue string

const (
	QueueRanked   Queue = "RANKED"
	QueueUnranked Queue = "UNRANKED"
)

// IsValid returns true for RANKED and UNRANKED
func (q Queue) IsValid() bool {
	return q == QueueRanked || q == QueueUnranked
}

// OrDefault reads an unset queue as RANKED.
func (q Queue) OrDefault() Queue {
	if q == "" {
		return QueueRanked
	}
	return q
}

// Scope attributes a match to clans or to individual players.
type Scope string

const (
	ScopeClan   Scope = "CLAN"
	ScopePlayer Scope = "PLAYER"
)

// IsValid returns true for CLAN and PLAYER
func (s Scope) IsValid() bool {
	return s == ScopeClan || s == ScopePlayer
}

// Side names one half of a match.
type Side string

const (
	SideA Side = "A"
	SideB Side = "B"
)

// IsValid returns true for A and B
func (s Side) IsValid() bool {
	return s == SideA || s == SideB
}

// Other returns the opposing side.
func (s Side) Other() Side {
	if s == SideA {
		return SideB
	}
	return SideA
}

// Roster is the player list of one side. It is either unknown (never
// recorded) or a known, possibly empty, list of user ids.
type Roster struct {
	known bool
	ids   []string
}

// UnknownRoster returns a roster that was never recorded.
func UnknownRoster() Roster {
	return Roster{}
}

// KnownRoster returns a recorded roster. Duplicate ids are dropped.
func KnownRoster(ids ...string) Roster {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" && !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return Roster{known: true, ids: out}
}

// Known reports whether the roster was recorded.
func (r Roster) Known() bool { return r.known }

// Len returns the number of recorded players.
func (r Roster) Len() int { return len(r.ids) }

// IDs returns a copy of the recorded ids, or nil when unknown.
func (r Roster) IDs() []string {
	if !r.known {
		return nil
	}
	return slices.Clone(r.ids)
}

// Contains reports whether userID is recorded on this roster.
func (r Roster) Contains(userID string) bool {
	return slices.Contains(r.ids, userID)
}

// Overlaps reports whether any player appears in both rosters.
func (r Roster) Overlaps(other Roster) bool {
	for _, id := range r.ids {
		if other.Contains(id) {
			return true
		}
	}
	return false
}

// MarshalJSON writes null for an unknown roster.
func (r Roster) MarshalJSON() ([]byte, error) {
	if !r.known {
		return []byte("null"), nil
	}
	return json.Marshal(r.ids)
}

// UnmarshalJSON reads null as unknown.
func (r *Roster) UnmarshalJSON(data []byte) error {
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	if ids == nil {
		*r = UnknownRoster()
		return nil
	}
	*r = KnownRoster(ids...)
	return nil
}

// MatchSource identifies which engine produced a completed match.
type MatchSource string

const (
	SourceBeef  MatchSource = "BEEF"
	SourceArena MatchSource = "ARENA"
)

// MatchSide is one half of a completed match.
type MatchSide struct {
	ClanID *string `json:"clan_id,omitempty"`
	Roster Roster  `json:"roster"`
}

// Fielded reports whether userID counts as having played for this side. An
// unrecorded roster counts every member; a recorded one only its ids.
func (s MatchSide) Fielded(userID string) bool {
	return !s.Roster.Known() || s.Roster.Contains(userID)
}

// CompletedMatchRecord is the engine-neutral shape the ranking pipeline reads.
type CompletedMatchRecord struct {
	Source      MatchSource `json:"source"`
	MatchID     string      `json:"match_id"`
	Scope       Scope       `json:"scope"`
	Format      Format      `json:"format"`
	Queue       Queue       `json:"queue"`
	A           MatchSide   `json:"side_a"`
	B           MatchSide   `json:"side_b"`
	Winner      Side        `json:"winner,omitempty"`
	ScoreA      *int        `json:"score_a,omitempty"`
	ScoreB      *int        `json:"score_b,omitempty"`
	CompletedAt int64       `json:"completed_at"`
}

// Side returns the named half of the match.
func (r *CompletedMatchRecord) Side(s Side) MatchSide {
	if s == SideB {
		return r.B
	}
	return r.A
}

// ClanSide returns the side clanID played on.
func (r *CompletedMatchRecord) ClanSide(clanID string) (Side, bool) {
	switch {
	case r.A.ClanID != nil && *r.A.ClanID == clanID:
		return SideA, true
	case r.B.ClanID != nil && *r.B.ClanID == clanID:
		return SideB, true
	default:
		return "", false
	}
}

// PlayerSide returns the side userID was rostered on.
func (r *CompletedMatchRecord) PlayerSide(userID string) (Side, bool) {
	switch {
	case r.A.Roster.Contains(userID):
		return SideA, true
	case r.B.Roster.Contains(userID):
		return SideB, true
	default:
		return "", false
	}
}

// WinnerClanID returns the winning clan, if any.
func (r *CompletedMatchRecord) WinnerClanID() *string {
	if !r.Winner.IsValid() {
		return nil
	}
	return r.Side(r.Winner).ClanID
}

// MatchSummary is a completed match joined with display data.
type MatchSummary struct {
	ID           string        `json:"id"`
	Source       MatchSource   `json:"source"`
	Scope        Scope         `json:"scope"`
	Format       Format        `json:"format"`
	Queue        Queue         `json:"queue"`
	Team1        *Clan         `json:"team1,omitempty"`
	Team2        *Clan         `json:"team2,omitempty"`
	Team1Players []Participant `json:"team1_players,omitempty"`
	Team2Players []Participant `json:"team2_players,omitempty"`
	Team1Score   *int          `json:"team1_score,omitempty"`
	Team2Score   *int          `json:"team2_score,omitempty"`
	Winner       Side          `json:"winner,omitempty"`
	WinnerID     *string       `json:"winner_id,omitempty"`
	CompletedAt  int64         `json:"completed_at"`
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}
