package model

// XP awarded per match played and per win.
const (
	XPPerMatch = 100
	XPPerWin   = 50
)

// RecordLine is a win/loss summary.
type RecordLine struct {
	MatchesPlayed int `json:"matches_played"`
	XP            int `json:"xp"`
	Wins          int `json:"wins"`
	Losses        int `json:"losses"`
	WinRate       int `json:"win_rate"`
}

// NewRecordLine derives XP and win rate from raw counts.
func NewRecordLine(played, wins, losses int) RecordLine {
	line := RecordLine{
		MatchesPlayed: played,
		XP:            played*XPPerMatch + wins*XPPerWin,
		Wins:          wins,
		Losses:        losses,
	}
	if played > 0 {
		// round half up, matching Math.round for non-negative values
		line.WinRate = (200*wins + played) / (2 * played)
	}
	return line
}

// Add combines two lines and recomputes derived fields.
func (l RecordLine) Add(o RecordLine) RecordLine {
	return NewRecordLine(l.MatchesPlayed+o.MatchesPlayed, l.Wins+o.Wins, l.Losses+o.Losses)
}

// UserStats splits a user's record into solo and clan play.
type UserStats struct {
	Overall        RecordLine `json:"overall"`
	Solo           RecordLine `json:"solo"`
	Clan           RecordLine `json:"clan"`
	BeefWins       int        `json:"beef_wins"`
	BeefLosses     int        `json:"beef_losses"`
	TournamentWins int        `json:"tournament_wins"`
}

// ClanStats is a clan's ranked record.
type ClanStats struct {
	ClanID        string `json:"clan_id"`
	XP            int    `json:"xp"`
	MatchesPlayed int    `json:"matches_played"`
	Wins          int    `json:"wins"`
	Losses        int    `json:"losses"`
	WinRate       int    `json:"win_rate"`
	LastMatchAt   *int64 `json:"last_match_at,omitempty"`
}

// LadderTab selects a leaderboard.
type LadderTab string

const (
	LadderClans   LadderTab = "CLANS"
	LadderSingles LadderTab = "SINGLES"
	LadderDoubles LadderTab = "DOUBLES"
	LadderTeam    LadderTab = "TEAM"
)

// IsValid returns true for a known tab
func (t LadderTab) IsValid() bool {
	switch t {
	case LadderClans, LadderSingles, LadderDoubles, LadderTeam:
		return true
	default:
		return false
	}
}

// LadderEntry is one row of a leaderboard.
type LadderEntry struct {
	Rank          int    `json:"rank"`
	ClanID        string `json:"clan_id"`
	Clan          *Clan  `json:"clan"`
	XP            int    `json:"xp"`
	MatchesPlayed int    `json:"matches_played"`
	Wins          int    `json:"wins"`
	Losses        int    `json:"losses"`
	LastMatchAt   *int64 `json:"last_match_at,omitempty"`
}

// StoreStats counts the entities currently held.
type StoreStats struct {
	Users           int `json:"users"`
	Clans           int `json:"clans"`
	BeefMatches     int `json:"beef_matches"`
	ArenaMatches    int `json:"arena_matches"`
	Tournaments     int `json:"tournaments"`
	IntegrityEvents int `json:"integrity_events"`
	Invites         int `json:"invites"`
}
