package service

import (
	"cmp"
	"context"
	"log/slog"
	"math"
	"slices"

	"github.com/microarena/api/internal/model"
)

// Elo defaults.
const (
	DefaultKFactor     = 32
	DefaultRatingFloor = 1000
)

// RankingService derives stats and ladders from completed matches and keeps
// clan Elo ratings.
//
// Every derivation reads the same CompletedMatchRecord stream, built by
// beefRecord and arenaRecord, so both match kinds count the same way.
type RankingService struct {
	beefs         BeefRepository
	arenas        ArenaRepository
	users         UserRepository
	clans         ClanRepository
	ratings       RatingRepository
	logger        *slog.Logger
	initialRating int
	kFactor       int
	floor         int
}

// RankingServiceConfig holds configuration for the ranking service
type RankingServiceConfig struct {
	BeefRepo      BeefRepository
	ArenaRepo     ArenaRepository
	UserRepo      UserRepository
	ClanRepo      ClanRepository
	RatingRepo    RatingRepository
	Logger        *slog.Logger
	InitialRating int
	KFactor       int
	RatingFloor   int
}

// NewRankingService creates a new ranking service
func NewRankingService(cfg RankingServiceConfig) *RankingService {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.InitialRating == 0 {
		cfg.InitialRating = DefaultInitialRating
	}
	if cfg.KFactor == 0 {
		cfg.KFactor = DefaultKFactor
	}
	if cfg.RatingFloor == 0 {
		cfg.RatingFloor = DefaultRatingFloor
	}
	return &RankingService{
		beefs:         cfg.BeefRepo,
		arenas:        cfg.ArenaRepo,
		users:         cfg.UserRepo,
		clans:         cfg.ClanRepo,
		ratings:       cfg.RatingRepo,
		logger:        cfg.Logger,
		initialRating: cfg.InitialRating,
		kFactor:       cfg.KFactor,
		floor:         cfg.RatingFloor,
	}
}

// ============================================================================
// Elo
// ============================================================================

// Rating returns a clan's current Elo rating.
func (s *RankingService) Rating(clanID string) int {
	if r, ok := s.ratings.Rating(clanID); ok {
		return r
	}
	return s.initialRating
}

// applyEloLocked moves rating from loser to winner. Callers hold both clan
// keys. Ratings are only written for clans that still exist.
func (s *RankingService) applyEloLocked(winnerID, loserID string) (winner, loser int) {
	winner = s.Rating(winnerID)
	loser = s.Rating(loserID)

	expected := 1 / (1 + math.Pow(10, float64(loser-winner)/400))
	delta := int(math.Round(float64(s.kFactor) * (1 - expected)))

	winner += delta
	loser = max(s.floor, loser-delta)

	if s.clans.GetClan(winnerID) != nil {
		s.ratings.SetRating(winnerID, winner)
	}
	if s.clans.GetClan(loserID) != nil {
		s.ratings.SetRating(loserID, loser)
	}

	s.logger.Info("rating updated",
		slog.String("winner_id", winnerID),
		slog.Int("winner_rating", winner),
		slog.String("loser_id", loserID),
		slog.Int("loser_rating", loser),
		slog.Int("delta", delta),
	)
	return winner, loser
}

// ============================================================================
// Stats
// ============================================================================

// tally accumulates wins and losses for one bucket.
type tally struct {
	played, wins, losses int
	last                 int64
}

func (t *tally) add(won bool, at int64) {
	t.played++
	if won {
		t.wins++
	} else {
		t.losses++
	}
	t.last = max(t.last, at)
}

func (t tally) line() model.RecordLine {
	return model.NewRecordLine(t.played, t.wins, t.losses)
}

// UserStats splits a user's ranked record into solo and clan play.
func (s *RankingService) UserStats(ctx context.Context, userID string) (*model.UserStats, error) {
	user := s.users.GetUser(userID)
	if user == nil {
		return nil, ErrUserNotFound
	}

	var solo, clan, beef tally
	for _, r := range s.completedArena(s.arenas.ListArena()) {
		if !countsSolo(r) {
			continue
		}
		if side, ok := r.PlayerSide(userID); ok {
			solo.add(side == r.Winner, r.CompletedAt)
		}
	}

	if user.ClanID != nil {
		for _, r := range s.clanRecords(*user.ClanID) {
			if !countsForClan(r) {
				continue
			}
			side, ok := r.ClanSide(*user.ClanID)
			if !ok || !r.Side(side).Fielded(userID) {
				continue
			}
			won := side == r.Winner
			clan.add(won, r.CompletedAt)
			if r.Source == model.SourceBeef {
				beef.add(won, r.CompletedAt)
			}
		}
	}

	stats := &model.UserStats{
		Solo:       solo.line(),
		Clan:       clan.line(),
		BeefWins:   beef.wins,
		BeefLosses: beef.losses,
	}
	stats.Overall = stats.Solo.Add(stats.Clan)
	return stats, nil
}

// ClanStats returns a clan's ranked record.
func (s *RankingService) ClanStats(ctx context.Context, clanID string) (*model.ClanStats, error) {
	if s.clans.GetClan(clanID) == nil {
		return nil, ErrClanNotFound
	}

	var t tally
	for _, r := range s.clanRecords(clanID) {
		if !countsForClan(r) {
			continue
		}
		if side, ok := r.ClanSide(clanID); ok {
			t.add(side == r.Winner, r.CompletedAt)
		}
	}
	return clanStats(clanID, t), nil
}

func clanStats(clanID string, t tally) *model.ClanStats {
	line := t.line()
	stats := &model.ClanStats{
		ClanID:        clanID,
		XP:            line.XP,
		MatchesPlayed: line.MatchesPlayed,
		Wins:          line.Wins,
		Losses:        line.Losses,
		WinRate:       line.WinRate,
	}
	if t.played > 0 {
		last := t.last
		stats.LastMatchAt = &last
	}
	return stats
}

// Ladder ranks clans for the given tab. Only CLANS has a data source; the
// player tabs return an empty ladder.
func (s *RankingService) Ladder(ctx context.Context, tab model.LadderTab) ([]model.LadderEntry, error) {
	if !tab.IsValid() {
		return nil, ErrInvalidLadderTab
	}
	if tab != model.LadderClans {
		return []model.LadderEntry{}, nil
	}

	tallies := make(map[string]*tally)
	count := func(r *model.CompletedMatchRecord) {
		if !countsForLadder(r) {
			return
		}
		for _, side := range []model.Side{model.SideA, model.SideB} {
			id := r.Side(side).ClanID
			if id == nil {
				continue
			}
			t, ok := tallies[*id]
			if !ok {
				t = &tally{}
				tallies[*id] = t
			}
			t.add(side == r.Winner, r.CompletedAt)
		}
	}
	for _, r := range s.completedBeef(s.beefs.ListBeef()) {
		count(r)
	}
	for _, r := range s.completedArena(s.arenas.ListArena()) {
		count(r)
	}

	entries := make([]model.LadderEntry, 0, len(tallies))
	for clanID, t := range tallies {
		clan := s.clans.GetClan(clanID)
		if clan == nil {
			continue
		}
		stats := clanStats(clanID, *t)
		entries = append(entries, model.LadderEntry{
			ClanID:        clanID,
			Clan:          clan,
			XP:            stats.XP,
			MatchesPlayed: stats.MatchesPlayed,
			Wins:          stats.Wins,
			Losses:        stats.Losses,
			LastMatchAt:   stats.LastMatchAt,
		})
	}

	slices.SortFunc(entries, func(a, b model.LadderEntry) int {
		return cmp.Or(
			cmp.Compare(b.XP, a.XP),
			cmp.Compare(lastOrZero(b.LastMatchAt), lastOrZero(a.LastMatchAt)),
			cmp.Compare(b.Wins, a.Wins),
			cmp.Compare(a.ClanID, b.ClanID),
		)
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}

func lastOrZero(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}

// ============================================================================
// Match history
// ============================================================================

// RecentMatchesForClan returns a clan's most recent completed matches in any
// queue.
func (s *RankingService) RecentMatchesForClan(ctx context.Context, clanID string, limit int) ([]model.MatchSummary, error) {
	if s.clans.GetClan(clanID) == nil {
		return nil, ErrClanNotFound
	}
	return s.summaries(s.clanRecords(clanID), limit), nil
}

// RecentMatchesForUser returns the most recent completed matches a user
// played: their current clan's matches they were rostered for (or whose
// roster is unknown) and their player-scope arena matches.
func (s *RankingService) RecentMatchesForUser(ctx context.Context, userID string, limit int) ([]model.MatchSummary, error) {
	user := s.users.GetUser(userID)
	if user == nil {
		return nil, ErrUserNotFound
	}

	var records []*model.CompletedMatchRecord
	if user.ClanID != nil {
		for _, r := range s.clanRecords(*user.ClanID) {
			if side, ok := r.ClanSide(*user.ClanID); ok && r.Side(side).Fielded(userID) {
				records = append(records, r)
			}
		}
	}
	for _, r := range s.completedArena(s.arenas.ListArena()) {
		if r.Scope != model.ScopePlayer {
			continue
		}
		if _, ok := r.PlayerSide(userID); ok {
			records = append(records, r)
		}
	}
	return s.summaries(records, limit), nil
}

// UserProfile bundles a user with their clan, stats and recent matches.
func (s *RankingService) UserProfile(ctx context.Context, userID string) (*model.UserProfile, error) {
	stats, err := s.UserStats(ctx, userID)
	if err != nil {
		return nil, err
	}
	recent, err := s.RecentMatchesForUser(ctx, userID, 5)
	if err != nil {
		return nil, err
	}

	user := s.users.GetUser(userID)
	if user == nil {
		return nil, ErrUserNotFound
	}
	profile := &model.UserProfile{User: user, Stats: stats, RecentMatches: recent}
	if user.ClanID != nil {
		if clan := s.clans.GetClan(*user.ClanID); clan != nil {
			profile.Clan = clan
			profile.IsFounder = clan.FounderID == user.ID
		}
	}
	return profile, nil
}

func (s *RankingService) summaries(records []*model.CompletedMatchRecord, limit int) []model.MatchSummary {
	slices.SortFunc(records, func(a, b *model.CompletedMatchRecord) int {
		return cmp.Or(cmp.Compare(b.CompletedAt, a.CompletedAt), cmp.Compare(a.MatchID, b.MatchID))
	})
	if limit >= 0 && len(records) > limit {
		records = records[:limit]
	}

	out := make([]model.MatchSummary, 0, len(records))
	for _, r := range records {
		out = append(out, model.MatchSummary{
			ID:           r.MatchID,
			Source:       r.Source,
			Scope:        r.Scope,
			Format:       r.Format,
			Queue:        r.Queue,
			Team1:        s.clanSnapshot(r.A.ClanID),
			Team2:        s.clanSnapshot(r.B.ClanID),
			Team1Players: participants(s.users, r.A.Roster.IDs()),
			Team2Players: participants(s.users, r.B.Roster.IDs()),
			Team1Score:   r.ScoreA,
			Team2Score:   r.ScoreB,
			Winner:       r.Winner,
			WinnerID:     r.WinnerClanID(),
			CompletedAt:  r.CompletedAt,
		})
	}
	return out
}

func (s *RankingService) clanSnapshot(id *string) *model.Clan {
	if id == nil {
		return nil
	}
	return clanOrUnknown(s.clans, *id)
}

// ============================================================================
// Record pipeline
// ============================================================================

func (s *RankingService) clanRecords(clanID string) []*model.CompletedMatchRecord {
	records := s.completedBeef(s.beefs.BeefForClan(clanID))
	return append(records, s.completedArena(s.arenas.ArenaForClan(clanID))...)
}

func (s *RankingService) completedBeef(matches []*model.BeefMatch) []*model.CompletedMatchRecord {
	out := make([]*model.CompletedMatchRecord, 0, len(matches))
	for _, m := range matches {
		if r := beefRecord(m); r != nil {
			out = append(out, r)
		}
	}
	return out
}

func (s *RankingService) completedArena(matches []*model.ArenaMatch) []*model.CompletedMatchRecord {
	out := make([]*model.CompletedMatchRecord, 0, len(matches))
	for _, m := range matches {
		if r := arenaRecord(m); r != nil {
			out = append(out, r)
		}
	}
	return out
}

// beefRecord adapts a completed beef match, or returns nil.
func beefRecord(m *model.BeefMatch) *model.CompletedMatchRecord {
	if m == nil || m.Status != model.BeefStatusCompleted {
		return nil
	}
	r := &model.CompletedMatchRecord{
		Source:  model.SourceBeef,
		MatchID: m.ID,
		Scope:   model.ScopeClan,
		Format:  m.Format,
		Queue:   m.Queue.OrDefault(),
		A:       model.MatchSide{ClanID: model.StringPtr(m.ChallengerClanID), Roster: m.ChallengerRoster},
		B:       model.MatchSide{ClanID: model.StringPtr(m.ChallengedClanID), Roster: m.ChallengedRoster},
		ScoreA:  m.ChallengerScore,
		ScoreB:  m.ChallengedScore,
	}
	if m.WinnerID != nil {
		switch *m.WinnerID {
		case m.ChallengerClanID:
			r.Winner = model.SideA
		case m.ChallengedClanID:
			r.Winner = model.SideB
		}
	}
	r.CompletedAt = m.UpdatedAt
	if m.CompletedAt != nil {
		r.CompletedAt = *m.CompletedAt
	}
	return r
}

// arenaRecord adapts a completed arena match, or returns nil.
func arenaRecord(m *model.ArenaMatch) *model.CompletedMatchRecord {
	if m == nil || m.Status != model.ArenaStatusCompleted {
		return nil
	}
	r := &model.CompletedMatchRecord{
		Source:  model.SourceArena,
		MatchID: m.ID,
		Scope:   m.Scope,
		Format:  m.Format,
		Queue:   m.Queue.OrDefault(),
		A:       model.MatchSide{ClanID: m.A.ClanID, Roster: model.KnownRoster(m.A.PlayerIDs...)},
		B:       model.MatchSide{ClanID: m.B.ClanID, Roster: model.KnownRoster(m.B.PlayerIDs...)},
		ScoreA:  m.ScoreA,
		ScoreB:  m.ScoreB,
	}
	if m.WinnerSide != nil {
		r.Winner = *m.WinnerSide
	}
	r.CompletedAt = m.UpdatedAt
	if m.CompletedAt != nil {
		r.CompletedAt = *m.CompletedAt
	}
	return r
}

// countsSolo selects ranked 1v1 player matches.
func countsSolo(r *model.CompletedMatchRecord) bool {
	return r.Scope == model.ScopePlayer && r.Format == model.Format1v1 && r.Queue == model.QueueRanked
}

// countsForClan selects ranked team matches attributed to clans.
func countsForClan(r *model.CompletedMatchRecord) bool {
	return r.Scope == model.ScopeClan && r.Format != model.Format1v1 && r.Queue == model.QueueRanked
}

// countsForLadder selects the matches that feed the CLANS ladder.
func countsForLadder(r *model.CompletedMatchRecord) bool {
	return r.Scope == model.ScopeClan && r.Format == model.Format4v4 && r.Queue == model.QueueRanked
}

