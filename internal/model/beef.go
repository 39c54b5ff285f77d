package model

// BeefStatus is the lifecycle state of a clan-vs-clan challenge.
type BeefStatus string

const (
	BeefStatusPending   BeefStatus = "PENDING"
	BeefStatusAccepted  BeefStatus = "ACCEPTED"
	BeefStatusDeclined  BeefStatus = "DECLINED"
	BeefStatusCompleted BeefStatus = "COMPLETED"
	BeefStatusDisputed  BeefStatus = "DISPUTED"
	BeefStatusCancelled BeefStatus = "CANCELLED"
)

// IsValid returns true for a known status
func (s BeefStatus) IsValid() bool {
	switch s {
	case BeefStatusPending, BeefStatusAccepted, BeefStatusDeclined,
		BeefStatusCompleted, BeefStatusDisputed, BeefStatusCancelled:
		return true
	default:
		return false
	}
}

// IsTerminal returns true once no further transition is allowed.
func (s BeefStatus) IsTerminal() bool {
	switch s {
	case BeefStatusCompleted, BeefStatusDeclined, BeefStatusCancelled, BeefStatusDisputed:
		return true
	default:
		return false
	}
}

// BeefMatch is a formal challenge between two clans.
type BeefMatch struct {
	ID               string     `json:"id"`
	Format           Format     `json:"format"`
	Queue            Queue      `json:"queue"`
	ChallengerClanID string     `json:"challenger_clan_id"`
	ChallengedClanID string     `json:"challenged_clan_id"`
	Ruleset          string     `json:"ruleset"`
	ScheduledTime    *int64     `json:"scheduled_time,omitempty"`
	Status           BeefStatus `json:"status"`
	RefRequired      bool       `json:"ref_required"`
	StreamRequired   bool       `json:"stream_required"`
	StreamURL        *string    `json:"stream_url,omitempty"`
	ChallengerRoster Roster     `json:"challenger_roster"`
	ChallengedRoster Roster     `json:"challenged_roster"`
	ChallengerScore  *int       `json:"challenger_score,omitempty"`
	ChallengedScore  *int       `json:"challenged_score,omitempty"`
	WinnerID         *string    `json:"winner_id,omitempty"`
	CreatedBy        string     `json:"created_by"`
	CreatedAt        int64      `json:"created_at"`
	UpdatedAt        int64      `json:"updated_at"`
	CompletedAt      *int64     `json:"completed_at,omitempty"`
}

// Clone returns a deep copy.
func (m *BeefMatch) Clone() *BeefMatch {
	if m == nil {
		return nil
	}
	c := *m
	c.ScheduledTime = cloneInt64(m.ScheduledTime)
	c.StreamURL = cloneString(m.StreamURL)
	c.ChallengerRoster = cloneRoster(m.ChallengerRoster)
	c.ChallengedRoster = cloneRoster(m.ChallengedRoster)
	c.ChallengerScore = cloneInt(m.ChallengerScore)
	c.ChallengedScore = cloneInt(m.ChallengedScore)
	c.WinnerID = cloneString(m.WinnerID)
	c.CompletedAt = cloneInt64(m.CompletedAt)
	return &c
}

// Involves reports whether clanID is one of the two clans.
func (m *BeefMatch) Involves(clanID string) bool {
	return m.ChallengerClanID == clanID || m.ChallengedClanID == clanID
}

// BeefMatchView is a beef match with clan display snapshots.
type BeefMatchView struct {
	*BeefMatch
	ChallengerClan *Clan `json:"challenger_clan"`
	ChallengedClan *Clan `json:"challenged_clan"`
}

// CreateBeefRequest proposes a challenge.
type CreateBeefRequest struct {
	Format           Format  `json:"format"`
	Queue            Queue   `json:"queue,omitempty"`
	ChallengerClanID string  `json:"challenger_clan_id"`
	ChallengedClanID string  `json:"challenged_clan_id"`
	Ruleset          string  `json:"ruleset"`
	ScheduledTime    *int64  `json:"scheduled_time,omitempty"`
	RefRequired      *bool   `json:"ref_required,omitempty"`
	StreamRequired   *bool   `json:"stream_required,omitempty"`
	StreamURL        *string `json:"stream_url,omitempty"`
}

// RespondBeefRequest accepts or declines a challenge.
type RespondBeefRequest struct {
	Accept bool `json:"accept"`
}

// CompleteBeefRequest records a result.
type CompleteBeefRequest struct {
	WinnerClanID     string  `json:"winner_clan_id"`
	ChallengerScore  int     `json:"challenger_score"`
	ChallengedScore  int     `json:"challenged_score"`
	ChallengerRoster *Roster `json:"challenger_roster,omitempty"`
	ChallengedRoster *Roster `json:"challenged_roster,omitempty"`
}

// BeefFilter narrows a beef listing.
type BeefFilter struct {
	Status *BeefStatus
	ClanID *string
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneInt64(v *int64) *int64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneRoster(r Roster) Roster {
	if !r.Known() {
		return UnknownRoster()
	}
	return KnownRoster(r.ids...)
}
