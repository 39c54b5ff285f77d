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

// BeefService runs clan-vs-clan challenges.
type BeefService struct {
	beefs        BeefRepository
	clans        ClanRepository
	users        UserRepository
	ranking      *RankingService
	archiver     MatchArchiver
	events       EventPublisher
	locker       Locker
	clock        clock.Clock
	logger       *slog.Logger
	minIntegrity int
}

// BeefServiceConfig holds configuration for the beef service
type BeefServiceConfig struct {
	BeefRepo       BeefRepository
	ClanRepo       ClanRepository
	UserRepo       UserRepository
	RankingService *RankingService
	Archiver       MatchArchiver
	Events         EventPublisher
	Locker         Locker
	Clock          clock.Clock
	Logger         *slog.Logger
	// MinRankedIntegrity gates RANKED challenges on clan integrity. Zero disables it.
	MinRankedIntegrity int
}

// NewBeefService creates a new beef service
func NewBeefService(cfg BeefServiceConfig) *BeefService {
	if cfg.Clock == nil {
		cfg.Clock = clock.NewMonotonic()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &BeefService{
		beefs:        cfg.BeefRepo,
		clans:        cfg.ClanRepo,
		users:        cfg.UserRepo,
		ranking:      cfg.RankingService,
		archiver:     cfg.Archiver,
		events:       cfg.Events,
		locker:       cfg.Locker,
		clock:        cfg.Clock,
		logger:       cfg.Logger,
		minIntegrity: cfg.MinRankedIntegrity,
	}
}

// Create proposes a challenge from the creator's clan to another clan.
func (s *BeefService) Create(ctx context.Context, creatorID string, req model.CreateBeefRequest) (*model.BeefMatch, error) {
	if !req.Format.IsValid() {
		return nil, ErrInvalidFormat
	}
	queue := req.Queue.OrDefault()
	if !queue.IsValid() {
		return nil, ErrInvalidQueue
	}
	ruleset := strings.TrimSpace(req.Ruleset)
	if ruleset == "" {
		return nil, ErrRulesetRequired
	}

	unlock := s.locker.Lock(
		store.ClanKey(req.ChallengerClanID),
		store.ClanKey(req.ChallengedClanID),
		store.UserKey(creatorID),
	)
	defer unlock()

	challenger := s.clans.GetClan(req.ChallengerClanID)
	if challenger == nil {
		return nil, withDetail(ErrClanNotFound, "challenger clan %s", req.ChallengerClanID)
	}
	challenged := s.clans.GetClan(req.ChallengedClanID)
	if challenged == nil {
		return nil, withDetail(ErrClanNotFound, "challenged clan %s", req.ChallengedClanID)
	}
	if challenger.ID == challenged.ID {
		return nil, ErrSameClan
	}
	creator := s.users.GetUser(creatorID)
	if creator == nil {
		return nil, ErrUserNotFound
	}
	if !creator.InClan(challenger.ID) {
		return nil, ErrNotChallengerMember
	}
	if queue == model.QueueRanked && s.minIntegrity > 0 {
		for _, c := range []*model.Clan{challenger, challenged} {
			if c.Integrity < s.minIntegrity {
				return nil, withDetail(ErrIneligibleClan, "%s has integrity %d", c.Tag, c.Integrity)
			}
		}
	}

	now := s.clock.NowMillis()
	match := &model.BeefMatch{
		ID:               newID(),
		Format:           req.Format,
		Queue:            queue,
		ChallengerClanID: challenger.ID,
		ChallengedClanID: challenged.ID,
		Ruleset:          ruleset,
		ScheduledTime:    req.ScheduledTime,
		Status:           model.BeefStatusPending,
		RefRequired:      true,
		StreamURL:        req.StreamURL,
		ChallengerRoster: model.UnknownRoster(),
		ChallengedRoster: model.UnknownRoster(),
		CreatedBy:        creatorID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if req.RefRequired != nil {
		match.RefRequired = *req.RefRequired
	}
	if req.StreamRequired != nil {
		match.StreamRequired = *req.StreamRequired
	}
	s.beefs.PutBeef(match)

	s.logger.Info("beef created",
		slog.String("match_id", match.ID),
		slog.String("challenger", challenger.Tag),
		slog.String("challenged", challenged.Tag),
	)
	s.publish(EventBeefCreated, match, creatorID)
	return match, nil
}

// Respond accepts or declines a pending challenge on behalf of the
// challenged clan.
func (s *BeefService) Respond(ctx context.Context, matchID, responderID string, req model.RespondBeefRequest) (*model.BeefMatch, error) {
	unlock := s.locker.Lock(store.BeefKey(matchID), store.UserKey(responderID))
	defer unlock()

	match := s.beefs.GetBeef(matchID)
	if match == nil {
		return nil, ErrMatchNotFound
	}
	if match.Status != model.BeefStatusPending {
		return nil, ErrMatchNotPending
	}
	responder := s.users.GetUser(responderID)
	if responder == nil || !responder.InClan(match.ChallengedClanID) {
		return nil, ErrNotChallengedMember
	}

	match.Status = model.BeefStatusDeclined
	if req.Accept {
		match.Status = model.BeefStatusAccepted
	}
	match.UpdatedAt = s.clock.NowMillis()
	s.beefs.PutBeef(match)

	s.logger.Info("beef answered",
		slog.String("match_id", match.ID),
		slog.String("status", string(match.Status)),
	)
	if req.Accept {
		s.publish(EventBeefAccepted, match, responderID)
	} else {
		s.publish(EventBeefDeclined, match, responderID)
	}
	return match, nil
}

// Complete records the result of a pending or accepted challenge and moves
// Elo between the two clans.
func (s *BeefService) Complete(ctx context.Context, matchID string, req model.CompleteBeefRequest) (*model.BeefMatch, error) {
	pre := s.beefs.GetBeef(matchID)
	if pre == nil {
		return nil, ErrMatchNotFound
	}

	match, record, err := s.complete(pre, req)
	if err != nil {
		return nil, err
	}
	s.archive(ctx, record)
	s.publish(EventBeefCompleted, match, "")
	return match, nil
}

func (s *BeefService) complete(pre *model.BeefMatch, req model.CompleteBeefRequest) (*model.BeefMatch, *model.CompletedMatchRecord, error) {
	// Clan ids never change after creation, so the pre-read lock set holds.
	unlock := s.locker.Lock(
		store.BeefKey(pre.ID),
		store.ClanKey(pre.ChallengerClanID),
		store.ClanKey(pre.ChallengedClanID),
	)
	defer unlock()

	match := s.beefs.GetBeef(pre.ID)
	if match == nil {
		return nil, nil, ErrMatchNotFound
	}
	if match.Status.IsTerminal() {
		return nil, nil, ErrMatchClosed
	}
	if !match.Involves(req.WinnerClanID) {
		return nil, nil, ErrInvalidWinner
	}

	challengerRoster := match.ChallengerRoster
	if req.ChallengerRoster != nil {
		challengerRoster = *req.ChallengerRoster
	}
	challengedRoster := match.ChallengedRoster
	if req.ChallengedRoster != nil {
		challengedRoster = *req.ChallengedRoster
	}
	if challengerRoster.Overlaps(challengedRoster) {
		return nil, nil, ErrRosterOverlap
	}
	size := match.Format.TeamSize()
	if challengerRoster.Len() > size || challengedRoster.Len() > size {
		return nil, nil, ErrRosterTooLarge
	}

	now := s.clock.NowMillis()
	match.Status = model.BeefStatusCompleted
	match.WinnerID = model.StringPtr(req.WinnerClanID)
	match.ChallengerScore = model.IntPtr(req.ChallengerScore)
	match.ChallengedScore = model.IntPtr(req.ChallengedScore)
	match.ChallengerRoster = challengerRoster
	match.ChallengedRoster = challengedRoster
	match.CompletedAt = &now
	match.UpdatedAt = now
	s.beefs.PutBeef(match)

	loserID := match.ChallengedClanID
	if req.WinnerClanID == match.ChallengedClanID {
		loserID = match.ChallengerClanID
	}
	s.ranking.applyEloLocked(req.WinnerClanID, loserID)

	s.logger.Info("beef completed",
		slog.String("match_id", match.ID),
		slog.String("winner_id", req.WinnerClanID),
	)
	return match, beefRecord(match), nil
}

// Cancel withdraws a challenge that has not been played. Either clan may
// cancel.
func (s *BeefService) Cancel(ctx context.Context, matchID, actorID string) (*model.BeefMatch, error) {
	return s.close(matchID, actorID, model.BeefStatusCancelled, func(st model.BeefStatus) error {
		if st != model.BeefStatusPending && st != model.BeefStatusAccepted {
			return ErrMatchClosed
		}
		return nil
	})
}

// Dispute flags an accepted challenge as contested.
func (s *BeefService) Dispute(ctx context.Context, matchID, actorID string) (*model.BeefMatch, error) {
	return s.close(matchID, actorID, model.BeefStatusDisputed, func(st model.BeefStatus) error {
		switch {
		case st == model.BeefStatusAccepted:
			return nil
		case st.IsTerminal():
			return ErrMatchClosed
		default:
			return ErrMatchNotAccepted
		}
	})
}

func (s *BeefService) close(matchID, actorID string, to model.BeefStatus, allowed func(model.BeefStatus) error) (*model.BeefMatch, error) {
	unlock := s.locker.Lock(store.BeefKey(matchID), store.UserKey(actorID))
	defer unlock()

	match := s.beefs.GetBeef(matchID)
	if match == nil {
		return nil, ErrMatchNotFound
	}
	if err := allowed(match.Status); err != nil {
		return nil, err
	}
	actor := s.users.GetUser(actorID)
	if actor == nil || actor.ClanID == nil || !match.Involves(*actor.ClanID) {
		return nil, ErrNotMatchParticipant
	}

	match.Status = to
	match.UpdatedAt = s.clock.NowMillis()
	s.beefs.PutBeef(match)

	s.logger.Info("beef closed",
		slog.String("match_id", match.ID),
		slog.String("status", string(to)),
		slog.String("actor_id", actorID),
	)
	if to == model.BeefStatusDisputed {
		s.publish(EventBeefDisputed, match, actorID)
	} else {
		s.publish(EventBeefCancelled, match, actorID)
	}
	return match, nil
}

// Get returns a match with clan display data.
func (s *BeefService) Get(ctx context.Context, matchID string) (*model.BeefMatchView, error) {
	match := s.beefs.GetBeef(matchID)
	if match == nil {
		return nil, ErrMatchNotFound
	}
	return s.view(match), nil
}

// List returns matches newest first, optionally narrowed by status or clan.
func (s *BeefService) List(ctx context.Context, filter model.BeefFilter) []*model.BeefMatchView {
	var matches []*model.BeefMatch
	if filter.ClanID != nil {
		matches = s.beefs.BeefForClan(*filter.ClanID)
	} else {
		matches = s.beefs.ListBeef()
	}
	slices.Reverse(matches)

	out := make([]*model.BeefMatchView, 0, len(matches))
	for _, m := range matches {
		if filter.Status != nil && m.Status != *filter.Status {
			continue
		}
		out = append(out, s.view(m))
	}
	return out
}

func (s *BeefService) view(m *model.BeefMatch) *model.BeefMatchView {
	return &model.BeefMatchView{
		BeefMatch:      m,
		ChallengerClan: clanOrUnknown(s.clans, m.ChallengerClanID),
		ChallengedClan: clanOrUnknown(s.clans, m.ChallengedClanID),
	}
}

func (s *BeefService) archive(ctx context.Context, record *model.CompletedMatchRecord) {
	if s.archiver == nil || record == nil {
		return
	}
	if err := s.archiver.ArchiveMatch(ctx, record); err != nil {
		s.logger.Error("failed to archive match",
			slog.String("match_id", record.MatchID),
			slog.String("error", err.Error()),
		)
	}
}

func (s *BeefService) publish(typ EventType, m *model.BeefMatch, actorID string) {
	if s.events == nil {
		return
	}
	s.events.Publish(newMatchEvent(typ, MatchEvent{
		MatchID: m.ID,
		Source:  string(model.SourceBeef),
		Status:  string(m.Status),
		ActorID: actorID,
		At:      m.UpdatedAt,
	}, m.ChallengerClanID, m.ChallengedClanID))
}
