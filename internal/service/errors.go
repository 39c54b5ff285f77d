package service

import (
	"errors"
	"fmt"
)

// Kind classifies a service error for callers that only care about the
// category (HTTP status mapping, retries).
type Kind int

const (
	KindNotFound Kind = iota + 1
	KindConflict
	KindForbidden
	KindInvalidState
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindConflict:
		return "conflict"
	case KindForbidden:
		return "forbidden"
	case KindInvalidState:
		return "invalid state"
	case KindValidation:
		return "validation"
	default:
		return "unknown"
	}
}

// Error is a classified service error. errors.Is matches either the exact
// sentinel or the kind sentinel (ErrNotFound, ErrConflict, ...).
type Error struct {
	Kind    Kind
	Field   string
	Message string
	class   bool
}

func (e *Error) Error() string { return e.Message }

// Is lets errors.Is(err, ErrConflict) match every conflict.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.class {
		return t.Kind == e.Kind
	}
	return t == e
}

func newError(kind Kind, field, msg string) *Error {
	return &Error{Kind: kind, Field: field, Message: msg}
}

// KindOf returns the kind of a service error, or 0.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// FieldOf returns the request field a validation error concerns.
func FieldOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Field
	}
	return ""
}

// withDetail wraps a sentinel with extra context while keeping errors.Is.
func withDetail(err *Error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", err, fmt.Sprintf(format, args...))
}

// Centralized service layer errors.
// Every error a service returns is one of these, possibly wrapped.

// ===== Kind Matchers =====
var (
	ErrNotFound     = &Error{Kind: KindNotFound, Message: "not found", class: true}
	ErrConflict     = &Error{Kind: KindConflict, Message: "conflict", class: true}
	ErrForbidden    = &Error{Kind: KindForbidden, Message: "forbidden", class: true}
	ErrInvalidState = &Error{Kind: KindInvalidState, Message: "invalid state", class: true}
	ErrValidation   = &Error{Kind: KindValidation, Message: "validation failed", class: true}
)

// ===== Identity Errors =====
var (
	ErrUserNotFound        = newError(KindNotFound, "user", "user not found")
	ErrClanNotFound        = newError(KindNotFound, "clan", "clan not found")
	ErrUserIDRequired      = newError(KindValidation, "id", "user id is required")
	ErrInvalidUsername     = newError(KindValidation, "username", "username must be 3-20 characters of a-z, 0-9 or _")
	ErrUsernameTaken       = newError(KindConflict, "username", "username is already taken")
	ErrEmailTaken          = newError(KindConflict, "email", "email is already registered")
	ErrInvalidTag          = newError(KindValidation, "tag", "tag must be 2-6 characters of A-Z or 0-9")
	ErrInvalidClanName     = newError(KindValidation, "name", "clan name must be 3-32 characters")
	ErrTagTaken            = newError(KindConflict, "tag", "clan tag is already taken")
	ErrAlreadyInClan       = newError(KindConflict, "user", "user is already in a clan")
	ErrNotClanMember       = newError(KindForbidden, "user", "user is not a member of this clan")
	ErrNotFounder          = newError(KindForbidden, "role", "only the founder can do that")
	ErrNotClanManager      = newError(KindForbidden, "role", "only the founder or a leader can do that")
	ErrInvalidRole         = newError(KindValidation, "role", "role must be LEADER or SOLDIER")
	ErrCannotChangeFounder = newError(KindForbidden, "target", "the founder's role cannot be changed")
	ErrCannotKickSelf      = newError(KindForbidden, "target", "cannot kick yourself")
	ErrCannotKickFounder   = newError(KindForbidden, "target", "cannot kick the founder")
	ErrCannotKickLeader    = newError(KindForbidden, "target", "leaders can only kick soldiers")
	ErrTargetNotMember     = newError(KindForbidden, "target", "target is not a member of this clan")
)

// ===== Integrity Errors =====
var (
	ErrInvalidEventType    = newError(KindValidation, "type", "unknown integrity event type")
	ErrDescriptionRequired = newError(KindValidation, "description", "description is required")
	ErrEventNotFound       = newError(KindNotFound, "event", "integrity event not found")
	ErrIntegrityTooLow     = newError(KindForbidden, "integrity", "clan integrity is below the requirement")
)

// ===== Invite Errors =====
var (
	ErrInviteNotFound     = newError(KindNotFound, "invite", "invite not found")
	ErrInviterNotFound    = newError(KindNotFound, "inviter", "inviter not found")
	ErrInviteeNotFound    = newError(KindNotFound, "username", "invitee not found")
	ErrInviteeInClan      = newError(KindConflict, "username", "user is already in a clan")
	ErrInviteDuplicate    = newError(KindConflict, "username", "an invite is already pending for this user")
	ErrInviteNotAddressed = newError(KindForbidden, "invite", "invite is addressed to another user")
	ErrInviteNotPending   = newError(KindInvalidState, "invite", "invite is no longer pending")
	ErrInviteExpired      = newError(KindInvalidState, "invite", "invite has expired")
	ErrCannotInviteSelf   = newError(KindValidation, "username", "cannot invite yourself")
)

// ===== Match Errors =====
var (
	ErrMatchNotFound       = newError(KindNotFound, "match", "match not found")
	ErrInvalidFormat       = newError(KindValidation, "format", "format must be one of 1v1, 2v2, 3v3, 4v4, 5v5")
	ErrInvalidQueue        = newError(KindValidation, "queue", "queue must be RANKED or UNRANKED")
	ErrInvalidScope        = newError(KindValidation, "scope", "scope must be CLAN or PLAYER")
	ErrInvalidVisibility   = newError(KindValidation, "visibility", "visibility must be OPEN or DIRECT")
	ErrRulesetRequired     = newError(KindValidation, "ruleset", "ruleset is required")
	ErrSameClan            = newError(KindValidation, "challenged_clan_id", "a clan cannot challenge itself")
	ErrInvalidWinner       = newError(KindValidation, "winner_clan_id", "winner must be one of the two clans")
	ErrInvalidSide         = newError(KindValidation, "side", "side must be A or B")
	ErrRosterOverlap       = newError(KindValidation, "roster", "a player cannot be on both sides")
	ErrRosterTooLarge      = newError(KindValidation, "roster", "roster exceeds the team size")
	ErrRankedClanFormat    = newError(KindValidation, "format", "ranked clan matches must be 4v4")
	ErrTargetRequired      = newError(KindValidation, "target", "direct challenges need a target")
	ErrCannotChallengeSelf = newError(KindValidation, "target", "cannot challenge yourself")
	ErrCannotChallengeOwn  = newError(KindValidation, "target", "cannot challenge your own clan")
	ErrNotMatchParticipant = newError(KindForbidden, "match", "not a participant of this match")
	ErrNotChallengedMember = newError(KindForbidden, "match", "only members of the challenged clan can respond")
	ErrNotChallengerMember = newError(KindForbidden, "challenger_clan_id", "you must be a member of the challenging clan")
	ErrNotMatchTarget      = newError(KindForbidden, "match", "this challenge is addressed to someone else")
	ErrNotMatchCreator     = newError(KindForbidden, "match", "only the match creator can do that")
	ErrClanRequired        = newError(KindForbidden, "clan", "you must be in a clan for clan matches")
	ErrWrongClanSide       = newError(KindForbidden, "side", "you are not a member of that side's clan")
	ErrMatchNotPending     = newError(KindInvalidState, "status", "match is not pending")
	ErrMatchNotAccepted    = newError(KindInvalidState, "status", "match has not been accepted")
	ErrMatchClosed         = newError(KindInvalidState, "status", "match is already closed")
	ErrMatchNotJoinable    = newError(KindInvalidState, "status", "match is not open for joining")
	ErrMatchNotOpen        = newError(KindInvalidState, "status", "match has not opened yet")
	ErrSideFull            = newError(KindInvalidState, "side", "that side is full")
	ErrIneligibleClan      = newError(KindForbidden, "clan", "clan integrity is too low for ranked play")
)

// ===== Ranking Errors =====
var (
	ErrInvalidLadderTab = newError(KindValidation, "tab", "tab must be CLANS, SINGLES, DOUBLES or TEAM")
)

// ===== Tournament Errors =====
var (
	ErrTournamentNotFound     = newError(KindNotFound, "tournament", "tournament not found")
	ErrTournamentNameRequired = newError(KindValidation, "name", "tournament name is required")
	ErrInvalidTier            = newError(KindValidation, "tier", "tier must be SHOWCASE, PREMIER or OPEN")
	ErrInvalidMaxTeams        = newError(KindValidation, "max_teams", "a tournament needs at least 2 teams")
	ErrInvalidSchedule        = newError(KindValidation, "registration_deadline", "registration must close before the start time")
	ErrScheduleRequired       = newError(KindValidation, "registration_deadline", "registration deadline and start time are required")
	ErrInvalidTournamentState = newError(KindValidation, "status", "unknown tournament status")
	ErrRegistrationClosed     = newError(KindInvalidState, "status", "registration is not open")
	ErrTournamentFull         = newError(KindInvalidState, "max_teams", "tournament is full")
	ErrAlreadyRegistered      = newError(KindConflict, "clan_id", "clan is already registered")
	ErrTierLocked             = newError(KindForbidden, "tier", "clan integrity does not qualify for this tier")
)
