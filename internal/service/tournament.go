package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/microarena/api/internal/clock"
	"github.com/microarena/api/internal/model"
	"github.com/microarena/api/internal/normalize"
	"github.com/microarena/api/internal/store"
)

// TournamentService schedules tournaments and registers clans for them.
type TournamentService struct {
	tournaments TournamentRepository
	clanRepo    ClanRepository
	clans       *ClanService
	locker      Locker
	clock       clock.Clock
	logger      *slog.Logger
}

// TournamentServiceConfig holds configuration for the tournament service
type TournamentServiceConfig struct {
	TournamentRepo TournamentRepository
	ClanRepo       ClanRepository
	ClanService    *ClanService
	Locker         Locker
	Clock          clock.Clock
	Logger         *slog.Logger
}

// NewTournamentService creates a new tournament service
func NewTournamentService(cfg TournamentServiceConfig) *TournamentService {
	if cfg.Clock == nil {
		cfg.Clock = clock.NewMonotonic()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &TournamentService{
		tournaments: cfg.TournamentRepo,
		clanRepo:    cfg.ClanRepo,
		clans:       cfg.ClanService,
		locker:      cfg.Locker,
		clock:       cfg.Clock,
		logger:      cfg.Logger,
	}
}

// Create schedules a tournament with registration open.
func (s *TournamentService) Create(ctx context.Context, req model.CreateTournamentRequest) (*model.Tournament, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrTournamentNameRequired
	}
	if !req.Tier.IsValid() {
		return nil, ErrInvalidTier
	}
	if !req.Format.IsValid() {
		return nil, ErrInvalidFormat
	}
	if req.MaxTeams < 2 {
		return nil, ErrInvalidMaxTeams
	}
	if req.RegistrationDeadline <= 0 || req.StartTime <= 0 {
		return nil, ErrScheduleRequired
	}
	if req.RegistrationDeadline > req.StartTime {
		return nil, ErrInvalidSchedule
	}

	now := s.clock.NowMillis()
	t := &model.Tournament{
		ID:                   newID(),
		Name:                 name,
		Slug:                 normalize.Slug(name),
		Description:          strings.TrimSpace(req.Description),
		Tier:                 req.Tier,
		Game:                 strings.TrimSpace(req.Game),
		Format:               req.Format,
		MaxTeams:             req.MaxTeams,
		IntegrityRequirement: model.ClampIntegrity(req.IntegrityRequirement),
		PrizeDescription:     req.PrizeDescription,
		RegistrationDeadline: req.RegistrationDeadline,
		StartTime:            req.StartTime,
		Status:               model.TournamentRegistrationOpen,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	s.tournaments.PutTournament(t)

	s.logger.Info("tournament created",
		slog.String("tournament_id", t.ID),
		slog.String("tier", string(t.Tier)),
	)
	return t, nil
}

// List returns tournaments ordered by start time.
func (s *TournamentService) List(ctx context.Context, filter model.TournamentFilter) []model.TournamentSummary {
	var out []model.TournamentSummary
	for _, t := range s.tournaments.ListTournaments() {
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		if filter.Tier != nil && t.Tier != *filter.Tier {
			continue
		}
		out = append(out, model.TournamentSummary{
			Tournament:      t,
			RegisteredCount: len(s.liveTeams(t)),
		})
	}
	return out
}

// Get returns a tournament with its registered teams. Teams whose clan has
// disbanded are left out.
func (s *TournamentService) Get(ctx context.Context, id string) (*model.TournamentWithTeams, error) {
	t := s.tournaments.GetTournament(id)
	if t == nil {
		return nil, ErrTournamentNotFound
	}
	return &model.TournamentWithTeams{Tournament: t, RegisteredTeams: s.liveTeams(t)}, nil
}

func (s *TournamentService) liveTeams(t *model.Tournament) []model.TournamentTeam {
	teams := make([]model.TournamentTeam, 0, len(t.Teams))
	for _, team := range t.Teams {
		clan := s.clanRepo.GetClan(team.ClanID)
		if clan == nil {
			continue
		}
		team.Clan = clan
		teams = append(teams, team)
	}
	return teams
}

// Register enters a clan. The actor must be a founder or leader of it.
func (s *TournamentService) Register(ctx context.Context, tournamentID, actorID string, req model.RegisterTournamentRequest) (*model.TournamentTeam, error) {
	unlock := s.locker.Lock(
		store.TournamentKey(tournamentID),
		store.ClanKey(req.ClanID),
		store.UserKey(actorID),
	)
	defer unlock()

	t := s.tournaments.GetTournament(tournamentID)
	if t == nil {
		return nil, ErrTournamentNotFound
	}
	now := s.clock.NowMillis()
	if t.Status != model.TournamentRegistrationOpen || now > t.RegistrationDeadline {
		return nil, ErrRegistrationClosed
	}
	clan := s.clanRepo.GetClan(req.ClanID)
	if clan == nil {
		return nil, ErrClanNotFound
	}
	if _, err := s.clans.requireRole(clan, actorID, model.ClanRole.CanManage, ErrNotClanManager); err != nil {
		return nil, err
	}
	if clan.Integrity < t.IntegrityRequirement {
		return nil, withDetail(ErrIntegrityTooLow, "clan integrity %d, required %d", clan.Integrity, t.IntegrityRequirement)
	}
	if !model.CanAccessTier(clan.Integrity, t.Tier) {
		return nil, ErrTierLocked
	}
	if t.HasTeam(clan.ID) {
		return nil, ErrAlreadyRegistered
	}
	if len(s.liveTeams(t)) >= t.MaxTeams {
		return nil, ErrTournamentFull
	}

	team := model.TournamentTeam{
		ClanID:       clan.ID,
		RegisteredAt: now,
		RegisteredBy: actorID,
	}
	t.Teams = append(t.Teams, team)
	t.UpdatedAt = now
	s.tournaments.PutTournament(t)

	s.logger.Info("clan registered",
		slog.String("tournament_id", t.ID),
		slog.String("clan_id", clan.ID),
	)
	team.Clan = clan
	return &team, nil
}

// SetStatus moves a tournament to the given status.
func (s *TournamentService) SetStatus(ctx context.Context, id string, req model.SetTournamentStatusRequest) (*model.Tournament, error) {
	if !req.Status.IsValid() {
		return nil, ErrInvalidTournamentState
	}

	unlock := s.locker.Lock(store.TournamentKey(id))
	defer unlock()

	t := s.tournaments.GetTournament(id)
	if t == nil {
		return nil, ErrTournamentNotFound
	}
	t.Status = req.Status
	t.UpdatedAt = s.clock.NowMillis()
	s.tournaments.PutTournament(t)
	return t, nil
}
