package service

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/microarena/api/internal/clock"
	"github.com/microarena/api/internal/model"
	"github.com/microarena/api/internal/normalize"
	"github.com/microarena/api/internal/store"
)

// InviteService handles time-bounded clan invitations.
type InviteService struct {
	invites  InviteRepository
	users    UserRepository
	clanRepo ClanRepository
	clans    *ClanService
	locker   Locker
	clock    clock.Clock
	logger   *slog.Logger
	ttl      time.Duration
}

// InviteServiceConfig holds configuration for the invite service
type InviteServiceConfig struct {
	InviteRepo  InviteRepository
	UserRepo    UserRepository
	ClanRepo    ClanRepository
	ClanService *ClanService
	Locker      Locker
	Clock       clock.Clock
	Logger      *slog.Logger
	TTL         time.Duration
}

// NewInviteService creates a new invite service
func NewInviteService(cfg InviteServiceConfig) *InviteService {
	if cfg.Clock == nil {
		cfg.Clock = clock.NewMonotonic()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.TTL <= 0 {
		cfg.TTL = model.InviteTTL
	}
	return &InviteService{
		invites:  cfg.InviteRepo,
		users:    cfg.UserRepo,
		clanRepo: cfg.ClanRepo,
		clans:    cfg.ClanService,
		locker:   cfg.Locker,
		clock:    cfg.Clock,
		logger:   cfg.Logger,
		ttl:      cfg.TTL,
	}
}

// CreateInvite invites a user, by username, into clanID. The inviter must be
// a founder or leader of that clan.
func (s *InviteService) CreateInvite(ctx context.Context, clanID, inviterID string, req model.CreateInviteRequest) (*model.ClanInvite, error) {
	inviteeID, ok := s.users.UserIDByUsernameKey(normalize.UsernameKey(req.Username))

	keys := []string{store.ClanKey(clanID), store.UserKey(inviterID)}
	if ok {
		keys = append(keys, store.UserKey(inviteeID))
	}
	unlock := s.locker.Lock(keys...)
	defer unlock()

	clan := s.clanRepo.GetClan(clanID)
	if clan == nil {
		return nil, ErrClanNotFound
	}
	inviter := s.users.GetUser(inviterID)
	if inviter == nil {
		return nil, ErrInviterNotFound
	}
	if _, err := s.clans.requireRole(clan, inviterID, model.ClanRole.CanManage, ErrNotClanManager); err != nil {
		return nil, err
	}

	if !ok {
		return nil, ErrInviteeNotFound
	}
	invitee := s.users.GetUser(inviteeID)
	if invitee == nil {
		return nil, ErrInviteeNotFound
	}
	if invitee.ID == inviter.ID {
		return nil, ErrCannotInviteSelf
	}
	if invitee.ClanID != nil {
		return nil, ErrInviteeInClan
	}

	now := s.clock.NowMillis()
	for _, inv := range s.expireLocked(invitee.ID, now) {
		if inv.ClanID == clanID && inv.IsPending() {
			return nil, ErrInviteDuplicate
		}
	}

	invite := &model.ClanInvite{
		ID:              newID(),
		ClanID:          clan.ID,
		ClanTag:         clan.Tag,
		ClanName:        clan.Name,
		InviterID:       inviter.ID,
		InviterUsername: inviter.Username,
		InviteeID:       invitee.ID,
		InviteeUsername: invitee.Username,
		Status:          model.InviteStatusPending,
		CreatedAt:       now,
		ExpiresAt:       now + s.ttl.Milliseconds(),
	}
	s.invites.PutInvite(invite)

	s.logger.Debug("invite created",
		slog.String("invite_id", invite.ID),
		slog.String("clan_id", clanID),
		slog.String("invitee_id", invitee.ID),
	)
	return invite, nil
}

// ListInvitesForUser returns every invite addressed to userID, newest first,
// with clan display data refreshed from the live clan.
func (s *InviteService) ListInvitesForUser(ctx context.Context, userID string) ([]*model.ClanInvite, error) {
	unlock := s.locker.Lock(store.UserKey(userID))
	defer unlock()

	if s.users.GetUser(userID) == nil {
		return nil, ErrUserNotFound
	}

	invites := s.expireLocked(userID, s.clock.NowMillis())
	slices.SortFunc(invites, func(a, b *model.ClanInvite) int {
		return cmp.Compare(b.CreatedAt, a.CreatedAt)
	})
	for _, inv := range invites {
		if clan := s.clanRepo.GetClan(inv.ClanID); clan != nil {
			inv.ClanTag = clan.Tag
			inv.ClanName = clan.Name
		}
	}
	return invites, nil
}

// RespondToInvite accepts or declines an invite. Accepting joins the clan
// and cancels the user's other pending invites.
func (s *InviteService) RespondToInvite(ctx context.Context, inviteID, userID string, req model.RespondInviteRequest) (*model.ClanInvite, error) {
	pre := s.invites.GetInvite(inviteID)
	if pre == nil {
		return nil, ErrInviteNotFound
	}

	unlock := s.locker.Lock(store.ClanKey(pre.ClanID), store.UserKey(pre.InviteeID), store.UserKey(userID))
	defer unlock()

	now := s.clock.NowMillis()
	s.expireLocked(pre.InviteeID, now)

	invite := s.invites.GetInvite(inviteID)
	if invite == nil {
		return nil, ErrInviteNotFound
	}
	if invite.InviteeID != userID {
		return nil, ErrInviteNotAddressed
	}
	switch invite.Status {
	case model.InviteStatusPending:
	case model.InviteStatusExpired:
		return nil, ErrInviteExpired
	default:
		return nil, ErrInviteNotPending
	}

	user := s.users.GetUser(userID)
	if user == nil {
		return nil, ErrUserNotFound
	}

	if !req.Accept {
		invite.Status = model.InviteStatusDeclined
		invite.RespondedAt = &now
		s.invites.PutInvite(invite)
		return invite, nil
	}

	if err := s.clans.checkJoinLocked(invite.ClanID, userID); err != nil {
		return nil, err
	}
	s.clans.joinLocked(invite.ClanID, user, model.ClanRoleSoldier, now)

	invite.Status = model.InviteStatusAccepted
	invite.RespondedAt = &now
	s.invites.PutInvite(invite)

	for _, other := range s.invites.InvitesForUser(userID) {
		if other.ID == invite.ID || !other.IsPending() {
			continue
		}
		other.Status = model.InviteStatusCancelled
		other.RespondedAt = &now
		s.invites.PutInvite(other)
	}

	s.logger.Info("invite accepted",
		slog.String("invite_id", invite.ID),
		slog.String("clan_id", invite.ClanID),
		slog.String("user_id", userID),
	)
	return invite, nil
}

// expireLocked marks stale pending invites for userID as EXPIRED and returns
// the user's invites afterwards. Callers hold the user's key.
func (s *InviteService) expireLocked(userID string, now int64) []*model.ClanInvite {
	invites := s.invites.InvitesForUser(userID)
	for _, inv := range invites {
		if inv.IsPending() && inv.ExpiresAt <= now {
			inv.Status = model.InviteStatusExpired
			inv.RespondedAt = &now
			s.invites.PutInvite(inv)
		}
	}
	return invites
}
