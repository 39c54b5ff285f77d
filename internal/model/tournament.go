package model

// TournamentTier gates which clans may enter.
type TournamentTier string

const (
	TierShowcase TournamentTier = "SHOWCASE"
	TierPremier  TournamentTier = "PREMIER"
	TierOpen     TournamentTier = "OPEN"
)

// IsValid returns true for a known tier
func (t TournamentTier) IsValid() bool {
	return t == TierShowcase || t == TierPremier || t == TierOpen
}

// CanAccessTier reports whether a clan with the given integrity may enter tier.
func CanAccessTier(integrity int, tier TournamentTier) bool {
	switch tier {
	case TierShowcase:
		return integrity == MaxIntegrity
	case TierPremier:
		return integrity >= 90
	case TierOpen:
		return integrity >= 50
	default:
		return false
	}
}

// TournamentStatus is the lifecycle state of a tournament.
type TournamentStatus string

const (
	TournamentDraft              TournamentStatus = "DRAFT"
	TournamentRegistrationOpen   TournamentStatus = "REGISTRATION_OPEN"
	TournamentRegistrationClosed TournamentStatus = "REGISTRATION_CLOSED"
	TournamentLive               TournamentStatus = "LIVE"
	TournamentCompleted          TournamentStatus = "COMPLETED"
	TournamentCancelled          TournamentStatus = "CANCELLED"
)

// IsValid returns true for a known status
func (s TournamentStatus) IsValid() bool {
	switch s {
	case TournamentDraft, TournamentRegistrationOpen, TournamentRegistrationClosed,
		TournamentLive, TournamentCompleted, TournamentCancelled:
		return true
	default:
		return false
	}
}

// Tournament is a scheduled bracket event.
type Tournament struct {
	ID                   string           `json:"id"`
	Name                 string           `json:"name"`
	Slug                 string           `json:"slug"`
	Description          string           `json:"description"`
	Tier                 TournamentTier   `json:"tier"`
	Game                 string           `json:"game"`
	Format               Format           `json:"format"`
	MaxTeams             int              `json:"max_teams"`
	IntegrityRequirement int              `json:"integrity_requirement"`
	PrizeDescription     *string          `json:"prize_description,omitempty"`
	RegistrationDeadline int64            `json:"registration_deadline"`
	StartTime            int64            `json:"start_time"`
	Status               TournamentStatus `json:"status"`
	Teams                []TournamentTeam `json:"-"`
	CreatedAt            int64            `json:"created_at"`
	UpdatedAt            int64            `json:"updated_at"`
}

// Clone returns a deep copy.
func (t *Tournament) Clone() *Tournament {
	if t == nil {
		return nil
	}
	c := *t
	c.PrizeDescription = cloneString(t.PrizeDescription)
	c.Teams = append([]TournamentTeam(nil), t.Teams...)
	return &c
}

// HasTeam reports whether clanID is registered.
func (t *Tournament) HasTeam(clanID string) bool {
	for _, team := range t.Teams {
		if team.ClanID == clanID {
			return true
		}
	}
	return false
}

// TournamentTeam is a registered clan.
type TournamentTeam struct {
	ClanID       string `json:"clan_id"`
	Clan         *Clan  `json:"clan,omitempty"`
	Seed         *int   `json:"seed,omitempty"`
	RegisteredAt int64  `json:"registered_at"`
	RegisteredBy string `json:"registered_by"`
}

// TournamentSummary is a listing row.
type TournamentSummary struct {
	*Tournament
	RegisteredCount int `json:"registered_count"`
}

// TournamentWithTeams is a tournament with its live registrations.
type TournamentWithTeams struct {
	*Tournament
	RegisteredTeams []TournamentTeam `json:"registered_teams"`
}

// CreateTournamentRequest schedules a tournament.
type CreateTournamentRequest struct {
	Name                 string         `json:"name"`
	Description          string         `json:"description"`
	Tier                 TournamentTier `json:"tier"`
	Game                 string         `json:"game"`
	Format               Format         `json:"format"`
	MaxTeams             int            `json:"max_teams"`
	IntegrityRequirement int            `json:"integrity_requirement"`
	PrizeDescription     *string        `json:"prize_description,omitempty"`
	RegistrationDeadline int64          `json:"registration_deadline"`
	StartTime            int64          `json:"start_time"`
}

// RegisterTournamentRequest enters a clan.
type RegisterTournamentRequest struct {
	ClanID string `json:"clan_id"`
}

// SetTournamentStatusRequest moves a tournament through its lifecycle.
type SetTournamentStatusRequest struct {
	Status TournamentStatus `json:"status"`
}

// TournamentFilter narrows a tournament listing.
type TournamentFilter struct {
	Status *TournamentStatus
	Tier   *TournamentTier
}
