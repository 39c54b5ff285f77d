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

// DefaultInitialRating is the Elo rating a new clan starts with.
const DefaultInitialRating = 1500

// ClanService owns users, clans and the membership relation between them.
type ClanService struct {
	users         UserRepository
	clans         ClanRepository
	ratings       RatingRepository
	locker        Locker
	clock         clock.Clock
	logger        *slog.Logger
	initialRating int
}

// ClanServiceConfig holds configuration for the clan service
type ClanServiceConfig struct {
	UserRepo      UserRepository
	ClanRepo      ClanRepository
	RatingRepo    RatingRepository
	Locker        Locker
	Clock         clock.Clock
	Logger        *slog.Logger
	InitialRating int
}

// NewClanService creates a new clan service
func NewClanService(cfg ClanServiceConfig) *ClanService {
	if cfg.Clock == nil {
		cfg.Clock = clock.NewMonotonic()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.InitialRating == 0 {
		cfg.InitialRating = DefaultInitialRating
	}
	return &ClanService{
		users:         cfg.UserRepo,
		clans:         cfg.ClanRepo,
		ratings:       cfg.RatingRepo,
		locker:        cfg.Locker,
		clock:         cfg.Clock,
		logger:        cfg.Logger,
		initialRating: cfg.InitialRating,
	}
}

// ============================================================================
// Users
// ============================================================================

// CreateUser registers a user. Calling it again with the same id refreshes
// the user's display data.
func (s *ClanService) CreateUser(ctx context.Context, req model.CreateUserRequest) (*model.User, error) {
	if strings.TrimSpace(req.ID) == "" {
		return nil, ErrUserIDRequired
	}
	key := normalize.UsernameKey(req.Username)
	if !normalize.ValidUsernameKey(key) {
		return nil, ErrInvalidUsername
	}
	email := strings.TrimSpace(req.Email)

	keys := []string{store.UserKey(req.ID), store.UsernameKey(key)}
	if email != "" {
		keys = append(keys, store.EmailKey(strings.ToLower(email)))
	}
	unlock := s.locker.Lock(keys...)
	defer unlock()

	if owner, ok := s.users.UserIDByUsernameKey(key); ok && owner != req.ID {
		return nil, ErrUsernameTaken
	}
	if email != "" {
		if owner, ok := s.users.UserIDByEmail(email); ok && owner != req.ID {
			return nil, ErrEmailTaken
		}
	}

	now := s.clock.NowMillis()
	user := s.users.GetUser(req.ID)
	if user == nil {
		user = &model.User{
			ID:        req.ID,
			Integrity: model.InitialIntegrity,
			CreatedAt: now,
		}
	}
	user.Username = strings.TrimSpace(req.Username)
	user.UsernameKey = key
	if email != "" {
		user.Email = email
	}
	if req.Avatar != nil {
		user.Avatar = req.Avatar
	}
	user.UpdatedAt = now
	s.users.PutUser(user)

	return user, nil
}

// UpdateUser renames a user or changes their avatar.
func (s *ClanService) UpdateUser(ctx context.Context, userID string, req model.UpdateUserRequest) (*model.User, error) {
	keys := []string{store.UserKey(userID)}
	var key string
	if req.Username != nil {
		key = normalize.UsernameKey(*req.Username)
		if !normalize.ValidUsernameKey(key) {
			return nil, ErrInvalidUsername
		}
		keys = append(keys, store.UsernameKey(key))
	}

	unlock := s.locker.Lock(keys...)
	defer unlock()

	user := s.users.GetUser(userID)
	if user == nil {
		return nil, ErrUserNotFound
	}
	if req.Username != nil {
		if owner, ok := s.users.UserIDByUsernameKey(key); ok && owner != userID {
			return nil, ErrUsernameTaken
		}
		user.Username = strings.TrimSpace(*req.Username)
		user.UsernameKey = key
	}
	if req.Avatar != nil {
		user.Avatar = req.Avatar
	}
	user.UpdatedAt = s.clock.NowMillis()
	s.users.PutUser(user)

	return user, nil
}

// GetUser retrieves a user by ID
func (s *ClanService) GetUser(ctx context.Context, userID string) (*model.User, error) {
	user := s.users.GetUser(userID)
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// GetUserByUsername resolves a username in any casing.
func (s *ClanService) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	id, ok := s.users.UserIDByUsernameKey(normalize.UsernameKey(username))
	if !ok {
		return nil, ErrUserNotFound
	}
	return s.GetUser(ctx, id)
}

// ============================================================================
// Clans
// ============================================================================

// CreateClan founds a clan with founderID as its first member.
func (s *ClanService) CreateClan(ctx context.Context, founderID string, req model.CreateClanRequest) (*model.Clan, error) {
	tagKey := normalize.TagKey(req.Tag)
	if !normalize.ValidTagKey(tagKey) {
		return nil, ErrInvalidTag
	}
	if !normalize.ValidClanName(req.Name) {
		return nil, ErrInvalidClanName
	}

	clanID := newID()
	unlock := s.locker.Lock(store.UserKey(founderID), store.TagKey(tagKey), store.ClanKey(clanID))
	defer unlock()

	if _, taken := s.clans.ClanIDByTagKey(tagKey); taken {
		return nil, ErrTagTaken
	}
	founder := s.users.GetUser(founderID)
	if founder == nil {
		return nil, ErrUserNotFound
	}
	if founder.ClanID != nil {
		return nil, ErrAlreadyInClan
	}

	now := s.clock.NowMillis()
	name := strings.TrimSpace(req.Name)
	clan := &model.Clan{
		ID:          clanID,
		Tag:         tagKey,
		TagKey:      tagKey,
		Name:        name,
		Slug:        normalize.Slug(name),
		Description: strings.TrimSpace(req.Description),
		FounderID:   founderID,
		Integrity:   founder.Integrity,
		MemberCount: 1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.clans.PutClan(clan)
	s.joinLocked(clan.ID, founder, model.ClanRoleFounder, now)
	s.ratings.SetRating(clan.ID, s.initialRating)

	s.logger.Info("clan created",
		slog.String("clan_id", clan.ID),
		slog.String("tag", clan.Tag),
		slog.String("founder_id", founderID),
	)
	return s.clans.GetClan(clan.ID), nil
}

// UpdateClan edits a clan's name or description. Founder or leader only.
func (s *ClanService) UpdateClan(ctx context.Context, clanID, actorID string, req model.UpdateClanRequest) (*model.Clan, error) {
	if req.Name != nil && !normalize.ValidClanName(*req.Name) {
		return nil, ErrInvalidClanName
	}

	unlock := s.locker.Lock(store.ClanKey(clanID), store.UserKey(actorID))
	defer unlock()

	clan := s.clans.GetClan(clanID)
	if clan == nil {
		return nil, ErrClanNotFound
	}
	if _, err := s.requireRole(clan, actorID, model.ClanRole.CanManage, ErrNotClanManager); err != nil {
		return nil, err
	}

	if req.Name != nil {
		clan.Name = strings.TrimSpace(*req.Name)
		clan.Slug = normalize.Slug(clan.Name)
	}
	if req.Description != nil {
		clan.Description = strings.TrimSpace(*req.Description)
	}
	clan.UpdatedAt = s.clock.NowMillis()
	s.clans.PutClan(clan)
	return clan, nil
}

// GetClan retrieves a clan by ID
func (s *ClanService) GetClan(ctx context.Context, clanID string) (*model.Clan, error) {
	clan := s.clans.GetClan(clanID)
	if clan == nil {
		return nil, ErrClanNotFound
	}
	return clan, nil
}

// GetClanByTag resolves a tag in any casing.
func (s *ClanService) GetClanByTag(ctx context.Context, tag string) (*model.Clan, error) {
	id, ok := s.clans.ClanIDByTagKey(normalize.TagKey(tag))
	if !ok {
		return nil, ErrClanNotFound
	}
	return s.GetClan(ctx, id)
}

// ListClans returns every live clan, newest first.
func (s *ClanService) ListClans(ctx context.Context) []*model.Clan {
	return s.clans.ListClans()
}

// GetClanWithMembers returns a clan with its roster ordered by join time.
func (s *ClanService) GetClanWithMembers(ctx context.Context, clanID string) (*model.ClanWithMembers, error) {
	clan := s.clans.GetClan(clanID)
	if clan == nil {
		return nil, ErrClanNotFound
	}

	out := &model.ClanWithMembers{Clan: clan}
	for _, m := range s.clans.Members(clanID) {
		user := s.users.GetUser(m.UserID)
		if user == nil {
			continue
		}
		member := model.ClanMember{
			ID:        user.ID,
			Username:  user.Username,
			Avatar:    user.Avatar,
			Integrity: user.Integrity,
			Role:      m.Role.OrDefault(),
			IsFounder: user.ID == clan.FounderID,
			JoinedAt:  m.JoinedAt,
		}
		out.Members = append(out.Members, member)
		if member.IsFounder {
			f := member
			out.Founder = &f
		}
	}
	return out, nil
}

// GetClanRole returns userID's role within clanID.
func (s *ClanService) GetClanRole(ctx context.Context, clanID, userID string) (model.ClanRole, error) {
	if s.clans.GetClan(clanID) == nil {
		return "", ErrClanNotFound
	}
	m, ok := s.clans.Membership(clanID, userID)
	if !ok {
		return "", ErrNotClanMember
	}
	return m.Role.OrDefault(), nil
}

// ============================================================================
// Membership
// ============================================================================

// JoinClan adds userID to clanID as a soldier.
func (s *ClanService) JoinClan(ctx context.Context, clanID, userID string) (*model.Clan, error) {
	unlock := s.locker.Lock(store.ClanKey(clanID), store.UserKey(userID))
	defer unlock()

	if err := s.checkJoinLocked(clanID, userID); err != nil {
		return nil, err
	}
	user := s.users.GetUser(userID)
	s.joinLocked(clanID, user, model.ClanRoleSoldier, s.clock.NowMillis())
	return s.clans.GetClan(clanID), nil
}

// LeaveClan removes userID from clanID. A departing founder hands the clan to
// the longest-standing member; the last member out disbands it.
func (s *ClanService) LeaveClan(ctx context.Context, clanID, userID string) (*model.LeaveResult, error) {
	unlock := s.locker.Lock(store.ClanKey(clanID), store.UserKey(userID))
	defer unlock()

	clan := s.clans.GetClan(clanID)
	if clan == nil {
		return nil, ErrClanNotFound
	}
	user := s.users.GetUser(userID)
	if user == nil {
		return nil, ErrUserNotFound
	}
	if !user.InClan(clanID) {
		return nil, ErrNotClanMember
	}

	disbanded := s.removeLocked(clan, user)
	return &model.LeaveResult{Disbanded: disbanded}, nil
}

// SetRole promotes or demotes a member. Founder only.
func (s *ClanService) SetRole(ctx context.Context, clanID, actorID string, req model.SetRoleRequest) (*model.Membership, error) {
	if req.Role != model.ClanRoleLeader && req.Role != model.ClanRoleSoldier {
		return nil, ErrInvalidRole
	}

	unlock := s.locker.Lock(store.ClanKey(clanID), store.UserKey(actorID))
	defer unlock()

	clan := s.clans.GetClan(clanID)
	if clan == nil {
		return nil, ErrClanNotFound
	}
	if _, err := s.requireRole(clan, actorID, func(r model.ClanRole) bool { return r == model.ClanRoleFounder }, ErrNotFounder); err != nil {
		return nil, err
	}
	target, ok := s.clans.Membership(clanID, req.TargetUserID)
	if !ok {
		return nil, ErrTargetNotMember
	}
	if req.TargetUserID == clan.FounderID {
		return nil, ErrCannotChangeFounder
	}

	target.Role = req.Role
	s.clans.PutMembership(clanID, target)
	return &target, nil
}

// Kick removes a member. Founders may kick anyone but themselves; leaders
// may only kick soldiers.
func (s *ClanService) Kick(ctx context.Context, clanID, actorID, targetID string) error {
	unlock := s.locker.Lock(store.ClanKey(clanID), store.UserKey(actorID), store.UserKey(targetID))
	defer unlock()

	clan := s.clans.GetClan(clanID)
	if clan == nil {
		return ErrClanNotFound
	}
	actor := s.users.GetUser(actorID)
	if actor == nil {
		return ErrUserNotFound
	}
	if !actor.InClan(clanID) {
		return ErrNotClanMember
	}
	target := s.users.GetUser(targetID)
	if target == nil {
		return ErrUserNotFound
	}
	if !target.InClan(clanID) {
		return ErrTargetNotMember
	}
	if actorID == targetID {
		return ErrCannotKickSelf
	}
	if targetID == clan.FounderID {
		return ErrCannotKickFounder
	}

	actorRole := s.roleOf(clanID, actorID)
	if !actorRole.CanManage() {
		return ErrNotClanManager
	}
	if actorRole == model.ClanRoleLeader && s.roleOf(clanID, targetID) != model.ClanRoleSoldier {
		return ErrCannotKickLeader
	}

	s.removeLocked(clan, target)
	s.logger.Info("member kicked",
		slog.String("clan_id", clanID),
		slog.String("actor_id", actorID),
		slog.String("target_id", targetID),
	)
	return nil
}

// ============================================================================
// Locked helpers. Callers hold the clan key and the affected user keys.
// ============================================================================

func (s *ClanService) checkJoinLocked(clanID, userID string) error {
	if s.clans.GetClan(clanID) == nil {
		return ErrClanNotFound
	}
	user := s.users.GetUser(userID)
	if user == nil {
		return ErrUserNotFound
	}
	if user.ClanID != nil {
		return ErrAlreadyInClan
	}
	return nil
}

func (s *ClanService) joinLocked(clanID string, user *model.User, role model.ClanRole, now int64) {
	s.clans.PutMembership(clanID, model.Membership{UserID: user.ID, Role: role, JoinedAt: now})
	user.ClanID = model.StringPtr(clanID)
	user.UpdatedAt = now
	s.users.PutUser(user)
	s.recomputeLocked(clanID)
}

// removeLocked detaches user from clan and reports whether the clan disbanded.
func (s *ClanService) removeLocked(clan *model.Clan, user *model.User) bool {
	now := s.clock.NowMillis()
	s.clans.DeleteMembership(clan.ID, user.ID)
	user.ClanID = nil
	user.UpdatedAt = now
	s.users.PutUser(user)

	remaining := s.clans.Members(clan.ID)
	if len(remaining) == 0 {
		s.clans.DeleteClan(clan.ID)
		s.logger.Info("clan disbanded", slog.String("clan_id", clan.ID), slog.String("tag", clan.Tag))
		return true
	}

	if clan.FounderID == user.ID {
		// Members sorts by JoinedAt then user id.
		successor := remaining[0]
		successor.Role = model.ClanRoleFounder
		s.clans.PutMembership(clan.ID, successor)
		clan.FounderID = successor.UserID
		clan.UpdatedAt = now
		s.clans.PutClan(clan)
		s.logger.Info("founder transferred",
			slog.String("clan_id", clan.ID),
			slog.String("from", user.ID),
			slog.String("to", successor.UserID),
		)
	}

	s.recomputeLocked(clan.ID)
	return false
}

// recomputeLocked refreshes a clan's integrity (rounded member mean) and
// member count.
func (s *ClanService) recomputeLocked(clanID string) {
	clan := s.clans.GetClan(clanID)
	if clan == nil {
		return
	}
	members := s.clans.Members(clanID)
	if len(members) == 0 {
		return
	}

	total := 0
	for _, m := range members {
		if u := s.users.GetUser(m.UserID); u != nil {
			total += u.Integrity
		}
	}
	n := len(members)
	clan.Integrity = (2*total + n) / (2 * n)
	clan.MemberCount = n
	clan.UpdatedAt = s.clock.NowMillis()
	s.clans.PutClan(clan)
}

func (s *ClanService) roleOf(clanID, userID string) model.ClanRole {
	m, _ := s.clans.Membership(clanID, userID)
	return m.Role.OrDefault()
}

// requireRole checks actorID is a member of clan whose role satisfies allowed.
func (s *ClanService) requireRole(clan *model.Clan, actorID string, allowed func(model.ClanRole) bool, denied error) (model.ClanRole, error) {
	actor := s.users.GetUser(actorID)
	if actor == nil {
		return "", ErrUserNotFound
	}
	if !actor.InClan(clan.ID) {
		return "", ErrNotClanMember
	}
	role := s.roleOf(clan.ID, actorID)
	if !allowed(role) {
		return role, denied
	}
	return role, nil
}

// isMember reports whether userID currently belongs to clanID.
func (s *ClanService) isMember(userID, clanID string) bool {
	u := s.users.GetUser(userID)
	return u != nil && u.InClan(clanID)
}

// lockUserAndClan locks a user together with whatever clan they are in,
// retrying if their clan changes between the read and the lock.
func (s *ClanService) lockUserAndClan(userID string, extra ...string) (user *model.User, unlock func(), err error) {
	for {
		u := s.users.GetUser(userID)
		if u == nil {
			return nil, nil, ErrUserNotFound
		}
		keys := append([]string{store.UserKey(userID)}, extra...)
		if u.ClanID != nil {
			keys = append(keys, store.ClanKey(*u.ClanID))
		}
		unlock = s.locker.Lock(keys...)

		locked := s.users.GetUser(userID)
		if locked == nil {
			unlock()
			return nil, nil, ErrUserNotFound
		}
		if sameClan(locked.ClanID, u.ClanID) {
			return locked, unlock, nil
		}
		unlock()
	}
}

func sameClan(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
