package service

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/microarena/api/internal/clock"
	"github.com/microarena/api/internal/model"
	"github.com/microarena/api/internal/store"
)

// ArenaService runs the match board: open matches anyone may join and
// direct challenges addressed to one player or clan.
type ArenaService struct {
	arenas       ArenaRepository
	clans        ClanRepository
	users        UserRepository
	membership   *ClanService
	ranking      *RankingService
	archiver     MatchArchiver
	events       EventPublisher
	locker       Locker
	clock        clock.Clock
	logger       *slog.Logger
	minIntegrity int
	arenaElo     bool
}

// ArenaServiceConfig holds configuration for the arena service
type ArenaServiceConfig struct {
	ArenaRepo      ArenaRepository
	ClanRepo       ClanRepository
	UserRepo       UserRepository
	ClanService    *ClanService
	RankingService *RankingService
	Archiver       MatchArchiver
	Events         EventPublisher
	Locker         Locker
	Clock          clock.Clock
	Logger         *slog.Logger

	MinRankedIntegrity int
	// ArenaElo applies Elo to ranked clan arena matches as well as beef.
	ArenaElo bool
}

// NewArenaService creates a new arena service
func NewArenaService(cfg ArenaServiceConfig) *ArenaService {
	if cfg.Clock == nil {
		cfg.Clock = clock.NewMonotonic()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &ArenaService{
		arenas:       cfg.ArenaRepo,
		clans:        cfg.ClanRepo,
		users:        cfg.UserRepo,
		membership:   cfg.ClanService,
		ranking:      cfg.RankingService,
		archiver:     cfg.Archiver,
		events:       cfg.Events,
		locker:       cfg.Locker,
		clock:        cfg.Clock,
		logger:       cfg.Logger,
		minIntegrity: cfg.MinRankedIntegrity,
		arenaElo:     cfg.ArenaElo,
	}
}

// Create posts a match with the creator on side A.
func (s *ArenaService) Create(ctx context.Context, creatorID string, req model.CreateArenaRequest) (*model.ArenaMatch, error) {
	visibility := req.Visibility
	if visibility == "" {
		visibility = model.VisibilityOpen
	}
	if !visibility.IsValid() {
		return nil, ErrInvalidVisibility
	}
	scope := req.Scope
	if scope == "" {
		scope = model.ScopePlayer
	}
	if !scope.IsValid() {
		return nil, ErrInvalidScope
	}
	format := req.Format
	if format == "" {
		format = model.Format1v1
	}
	if !format.IsValid() {
		return nil, ErrInvalidFormat
	}
	queue := req.Queue.OrDefault()
	if !queue.IsValid() {
		return nil, ErrInvalidQueue
	}
	ruleset := strings.TrimSpace(req.Ruleset)
	if ruleset == "" {
		ruleset = model.DefaultRuleset
	}
	if scope == model.ScopeClan && queue == model.QueueRanked && format != model.Format4v4 {
		return nil, ErrRankedClanFormat
	}
	target := strings.TrimSpace(req.Target)
	if visibility == model.VisibilityDirect && target == "" {
		return nil, ErrTargetRequired
	}

	creator, unlock, err := s.membership.lockUserAndClan(creatorID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	now := s.clock.NowMillis()
	match := &model.ArenaMatch{
		ID:             newID(),
		Visibility:     visibility,
		Scope:          scope,
		Format:         format,
		Queue:          queue,
		Ruleset:        ruleset,
		Status:         model.ArenaStatusOpen,
		A:              model.ArenaSide{PlayerIDs: []string{creator.ID}},
		B:              model.ArenaSide{PlayerIDs: []string{}},
		RefRequired:    req.RefRequired != nil && *req.RefRequired,
		StreamRequired: req.StreamRequired != nil && *req.StreamRequired,
		ScheduledTime:  req.ScheduledTime,
		CreatedBy:      creator.ID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	var clans []*model.Clan
	if scope == model.ScopeClan {
		if creator.ClanID == nil {
			return nil, ErrClanRequired
		}
		own := s.clans.GetClan(*creator.ClanID)
		if own == nil {
			return nil, ErrClanRequired
		}
		match.A.ClanID = model.StringPtr(own.ID)
		clans = append(clans, own)
	}

	if visibility == model.VisibilityDirect {
		match.Status = model.ArenaStatusPending
		switch scope {
		case model.ScopePlayer:
			opponent, err := s.membership.GetUserByUsername(ctx, target)
			if err != nil {
				return nil, err
			}
			if opponent.ID == creator.ID {
				return nil, ErrCannotChallengeSelf
			}
			match.Target = &model.ArenaTarget{Kind: model.TargetUser, ID: opponent.ID}
		case model.ScopeClan:
			opponent, err := s.membership.GetClanByTag(ctx, target)
			if err != nil {
				return nil, err
			}
			if opponent.ID == *match.A.ClanID {
				return nil, ErrCannotChallengeOwn
			}
			match.Target = &model.ArenaTarget{Kind: model.TargetClan, ID: opponent.ID}
			match.B.ClanID = model.StringPtr(opponent.ID)
			clans = append(clans, opponent)
		}
	}

	if err := s.checkEligible(match, clans...); err != nil {
		return nil, err
	}

	s.arenas.PutArena(match)
	s.logger.Info("arena match created",
		slog.String("match_id", match.ID),
		slog.String("visibility", string(visibility)),
		slog.String("scope", string(scope)),
		slog.String("format", string(format)),
	)
	s.publish(EventArenaCreated, match, creator.ID)
	return match, nil
}

// Respond answers a direct challenge. Accepting seeds side B with the
// responder (and their clan for clan matches).
func (s *ArenaService) Respond(ctx context.Context, matchID, responderID string, req model.RespondArenaRequest) (*model.ArenaMatch, error) {
	responder, unlock, err := s.membership.lockUserAndClan(responderID, store.ArenaKey(matchID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	match := s.arenas.GetArena(matchID)
	if match == nil {
		return nil, ErrMatchNotFound
	}
	if match.Status != model.ArenaStatusPending {
		return nil, ErrMatchNotPending
	}
	if !addressedTo(match.Target, responder) {
		return nil, ErrNotMatchTarget
	}

	now := s.clock.NowMillis()
	match.UpdatedAt = now
	if !req.Accept {
		match.Status = model.ArenaStatusDeclined
		s.arenas.PutArena(match)
		s.publish(EventArenaDeclined, match, responder.ID)
		return match, nil
	}

	if match.Scope == model.ScopeClan {
		match.B.ClanID = model.StringPtr(match.Target.ID)
	}
	if !match.Rostered(responder.ID) {
		match.B.PlayerIDs = append(match.B.PlayerIDs, responder.ID)
	}
	match.Status = model.ArenaStatusOpen
	if match.Full() {
		match.Status = model.ArenaStatusLive
	}
	s.arenas.PutArena(match)

	s.logger.Info("arena challenge accepted",
		slog.String("match_id", match.ID),
		slog.String("responder_id", responder.ID),
		slog.String("status", string(match.Status)),
	)
	s.publish(EventArenaAccepted, match, responder.ID)
	return match, nil
}

func addressedTo(target *model.ArenaTarget, user *model.User) bool {
	if target == nil {
		return false
	}
	switch target.Kind {
	case model.TargetUser:
		return target.ID == user.ID
	case model.TargetClan:
		return user.InClan(target.ID)
	default:
		return false
	}
}

// Join claims a slot on one side. Joining a match the user is already on is
// a no-op.
func (s *ArenaService) Join(ctx context.Context, matchID, userID string, req model.JoinArenaRequest) (*model.ArenaMatch, error) {
	if !req.Side.IsValid() {
		return nil, ErrInvalidSide
	}

	user, unlock, err := s.membership.lockUserAndClan(userID, store.ArenaKey(matchID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	match := s.arenas.GetArena(matchID)
	if match == nil {
		return nil, ErrMatchNotFound
	}
	if !match.Status.IsJoinable() {
		return nil, ErrMatchNotJoinable
	}
	if match.Rostered(user.ID) {
		return match, nil
	}

	side := match.Side(req.Side)
	if match.Scope == model.ScopeClan {
		if user.ClanID == nil {
			return nil, ErrClanRequired
		}
		switch {
		case side.ClanID != nil:
			if *side.ClanID != *user.ClanID {
				return nil, ErrWrongClanSide
			}
		case req.Side == model.SideB && match.Visibility == model.VisibilityOpen:
			if match.A.ClanID != nil && *match.A.ClanID == *user.ClanID {
				return nil, ErrSameClan
			}
			clan := s.clans.GetClan(*user.ClanID)
			if clan == nil {
				return nil, ErrClanRequired
			}
			if err := s.checkEligible(match, clan); err != nil {
				return nil, err
			}
			side.ClanID = model.StringPtr(clan.ID)
		default:
			return nil, ErrWrongClanSide
		}
	}
	if len(side.PlayerIDs) >= match.Format.TeamSize() {
		return nil, ErrSideFull
	}

	side.PlayerIDs = append(side.PlayerIDs, user.ID)
	if match.Full() {
		match.Status = model.ArenaStatusLive
	}
	match.UpdatedAt = s.clock.NowMillis()
	s.arenas.PutArena(match)

	s.logger.Debug("arena slot claimed",
		slog.String("match_id", match.ID),
		slog.String("user_id", user.ID),
		slog.String("side", string(req.Side)),
	)
	s.publish(EventArenaJoined, match, user.ID)
	return match, nil
}

// Complete records the result. Completing an already completed match
// returns it unchanged.
func (s *ArenaService) Complete(ctx context.Context, matchID, actorID string, req model.CompleteArenaRequest) (*model.ArenaMatch, error) {
	match, record, err := s.complete(matchID, actorID, req)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return match, nil
	}

	if s.arenaElo && record.Scope == model.ScopeClan && record.Queue == model.QueueRanked &&
		record.A.ClanID != nil && record.B.ClanID != nil {
		winner, loser := *record.A.ClanID, *record.B.ClanID
		if record.Winner == model.SideB {
			winner, loser = loser, winner
		}
		unlock := s.locker.Lock(store.ClanKey(winner), store.ClanKey(loser))
		s.ranking.applyEloLocked(winner, loser)
		unlock()
	}

	if s.archiver != nil {
		if err := s.archiver.ArchiveMatch(ctx, record); err != nil {
			s.logger.Error("failed to archive match",
				slog.String("match_id", record.MatchID),
				slog.String("error", err.Error()),
			)
		}
	}
	s.publish(EventArenaCompleted, match, actorID)
	return match, nil
}

// complete returns a nil record when the match was already completed.
func (s *ArenaService) complete(matchID, actorID string, req model.CompleteArenaRequest) (*model.ArenaMatch, *model.CompletedMatchRecord, error) {
	unlock := s.locker.Lock(store.ArenaKey(matchID))
	defer unlock()

	match := s.arenas.GetArena(matchID)
	if match == nil {
		return nil, nil, ErrMatchNotFound
	}
	if match.Status == model.ArenaStatusCompleted {
		return match, nil, nil
	}
	if match.CreatedBy != actorID {
		return nil, nil, ErrNotMatchCreator
	}
	switch match.Status {
	case model.ArenaStatusOpen, model.ArenaStatusLive:
	case model.ArenaStatusPending:
		return nil, nil, ErrMatchNotOpen
	default:
		return nil, nil, ErrMatchClosed
	}
	if !req.WinnerSide.IsValid() {
		return nil, nil, ErrInvalidSide
	}

	now := s.clock.NowMillis()
	winner := req.WinnerSide
	match.WinnerSide = &winner
	match.ScoreA = req.ScoreA
	match.ScoreB = req.ScoreB
	match.Status = model.ArenaStatusCompleted
	match.CompletedAt = &now
	match.UpdatedAt = now
	s.arenas.PutArena(match)

	s.logger.Info("arena match completed",
		slog.String("match_id", match.ID),
		slog.String("winner_side", string(winner)),
	)
	return match, arenaRecord(match), nil
}

// Cancel withdraws an unfinished match. Creator only.
func (s *ArenaService) Cancel(ctx context.Context, matchID, actorID string) (*model.ArenaMatch, error) {
	unlock := s.locker.Lock(store.ArenaKey(matchID))
	defer unlock()

	match := s.arenas.GetArena(matchID)
	if match == nil {
		return nil, ErrMatchNotFound
	}
	if match.CreatedBy != actorID {
		return nil, ErrNotMatchCreator
	}
	if match.Status.IsTerminal() {
		return nil, ErrMatchClosed
	}

	match.Status = model.ArenaStatusCancelled
	match.UpdatedAt = s.clock.NowMillis()
	s.arenas.PutArena(match)
	s.publish(EventArenaCancelled, match, actorID)
	return match, nil
}

// checkEligible applies the ranked integrity gate to the given clans.
func (s *ArenaService) checkEligible(match *model.ArenaMatch, clans ...*model.Clan) error {
	if s.minIntegrity <= 0 || match.Scope != model.ScopeClan || match.Queue != model.QueueRanked {
		return nil
	}
	for _, c := range clans {
		if c.Integrity < s.minIntegrity {
			return withDetail(ErrIneligibleClan, "%s has integrity %d", c.Tag, c.Integrity)
		}
	}
	return nil
}

// ============================================================================
// Views
// ============================================================================

// ListViews returns every match on the board, newest first.
func (s *ArenaService) ListViews(ctx context.Context) []*model.ArenaMatchView {
	matches := s.arenas.ListArena()
	slices.Reverse(matches)

	out := make([]*model.ArenaMatchView, 0, len(matches))
	for _, m := range matches {
		out = append(out, s.view(m))
	}
	return out
}

// GetView returns one match with display data.
func (s *ArenaService) GetView(ctx context.Context, matchID string) (*model.ArenaMatchView, error) {
	match := s.arenas.GetArena(matchID)
	if match == nil {
		return nil, ErrMatchNotFound
	}
	return s.view(match), nil
}

func (s *ArenaService) view(m *model.ArenaMatch) *model.ArenaMatchView {
	v := &model.ArenaMatchView{
		ArenaMatch: m,
		SideAView:  s.sideView(m.A),
		SideBView:  s.sideView(m.B),
	}
	if u := s.users.GetUser(m.CreatedBy); u != nil {
		v.CreatorName = u.Username
	}
	if m.Target != nil {
		switch m.Target.Kind {
		case model.TargetUser:
			if u := s.users.GetUser(m.Target.ID); u != nil {
				v.TargetName = u.Username
			}
		case model.TargetClan:
			v.TargetName = clanOrUnknown(s.clans, m.Target.ID).Tag
		}
	}
	return v
}

func (s *ArenaService) sideView(side model.ArenaSide) model.ArenaSideView {
	v := model.ArenaSideView{Players: participants(s.users, side.PlayerIDs)}
	if side.ClanID != nil {
		v.Clan = clanOrUnknown(s.clans, *side.ClanID)
	}
	return v
}

func (s *ArenaService) publish(typ EventType, m *model.ArenaMatch, actorID string) {
	if s.events == nil {
		return
	}
	var clanIDs []string
	for _, id := range []*string{m.A.ClanID, m.B.ClanID} {
		if id != nil {
			clanIDs = append(clanIDs, *id)
		}
	}
	s.events.Publish(newMatchEvent(typ, MatchEvent{
		MatchID: m.ID,
		Source:  string(model.SourceArena),
		Status:  string(m.Status),
		ActorID: actorID,
		At:      m.UpdatedAt,
	}, clanIDs...))
}
