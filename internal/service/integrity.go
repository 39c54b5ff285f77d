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

// IntegrityService records reputation events and keeps user and clan
// integrity in step with them.
type IntegrityService struct {
	events IntegrityRepository
	users  UserRepository
	clans  *ClanService
	locker Locker
	clock  clock.Clock
	logger *slog.Logger
}

// IntegrityServiceConfig holds configuration for the integrity service
type IntegrityServiceConfig struct {
	EventRepo   IntegrityRepository
	UserRepo    UserRepository
	ClanService *ClanService
	Locker      Locker
	Clock       clock.Clock
	Logger      *slog.Logger
}

// NewIntegrityService creates a new integrity service
func NewIntegrityService(cfg IntegrityServiceConfig) *IntegrityService {
	if cfg.Clock == nil {
		cfg.Clock = clock.NewMonotonic()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &IntegrityService{
		events: cfg.EventRepo,
		users:  cfg.UserRepo,
		clans:  cfg.ClanService,
		locker: cfg.Locker,
		clock:  cfg.Clock,
		logger: cfg.Logger,
	}
}

// RecordEvent applies a reputation event to a user. reporterID may be empty
// for platform-raised events.
func (s *IntegrityService) RecordEvent(ctx context.Context, reporterID string, req model.RecordIntegrityRequest) (*model.IntegrityEvent, error) {
	if !req.Type.IsValid() {
		return nil, ErrInvalidEventType
	}
	description := strings.TrimSpace(req.Description)
	if description == "" {
		return nil, ErrDescriptionRequired
	}
	if reporterID == "" {
		reporterID = model.ReporterSystem
	}

	user, unlock, err := s.clans.lockUserAndClan(req.TargetUserID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	severity := model.ClampSeverity(req.Severity)
	delta := severity * model.IntegrityPerSeverity
	if req.Type != model.IntegrityRestored {
		delta = -delta
	}

	now := s.clock.NowMillis()
	event := &model.IntegrityEvent{
		ID:           newID(),
		Type:         req.Type,
		TargetUserID: user.ID,
		TargetClanID: user.ClanID,
		Severity:     severity,
		Description:  description,
		ReportedBy:   reporterID,
		MatchID:      req.MatchID,
		CreatedAt:    now,
	}
	s.events.PutEvent(event)

	before := user.Integrity
	user.Integrity = model.ClampIntegrity(user.Integrity + delta)
	user.UpdatedAt = now
	s.users.PutUser(user)

	if user.ClanID != nil {
		s.clans.recomputeLocked(*user.ClanID)
	}

	s.logger.Info("integrity event recorded",
		slog.String("event_id", event.ID),
		slog.String("type", string(event.Type)),
		slog.String("user_id", user.ID),
		slog.Int("before", before),
		slog.Int("after", user.Integrity),
	)
	return event, nil
}

// ListEvents returns a user's events, most recent first.
func (s *IntegrityService) ListEvents(ctx context.Context, userID string) ([]*model.IntegrityEvent, error) {
	if s.users.GetUser(userID) == nil {
		return nil, ErrUserNotFound
	}
	events := s.events.EventsForUser(userID)
	slices.Reverse(events)
	return events, nil
}

// Summary returns the user's score, its display buckets and the event
// history, most recent first.
func (s *IntegrityService) Summary(ctx context.Context, userID string) (*model.IntegritySummary, error) {
	user := s.users.GetUser(userID)
	if user == nil {
		return nil, ErrUserNotFound
	}
	events := s.events.EventsForUser(userID)
	slices.Reverse(events)
	return model.NewIntegritySummary(user.ID, user.Integrity, events), nil
}

// ResolveEvent marks an event as handled. Scores are left as they are.
func (s *IntegrityService) ResolveEvent(ctx context.Context, eventID string) (*model.IntegrityEvent, error) {
	unlock := s.locker.Lock(store.EventKey(eventID))
	defer unlock()

	event := s.events.GetEvent(eventID)
	if event == nil {
		return nil, ErrEventNotFound
	}
	if !event.Resolved {
		event.Resolved = true
		s.events.PutEvent(event)
	}
	return event, nil
}
