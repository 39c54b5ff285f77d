package model

import "time"

// InviteTTL is how long an invite stays answerable.
const InviteTTL = 7 * 24 * time.Hour

// InviteStatus is the lifecycle state of a clan invite.
type InviteStatus string

const (
	InviteStatusPending   InviteStatus = "PENDING"
	InviteStatusAccepted  InviteStatus = "ACCEPTED"
	InviteStatusDeclined  InviteStatus = "DECLINED"
	InviteStatusExpired   InviteStatus = "EXPIRED"
	InviteStatusCancelled InviteStatus = "CANCELLED"
)

// ClanInvite is a time-bounded offer to join a clan.
type ClanInvite struct {
	ID              string       `json:"id"`
	ClanID          string       `json:"clan_id"`
	ClanTag         string       `json:"clan_tag"`
	ClanName        string       `json:"clan_name"`
	InviterID       string       `json:"inviter_id"`
	InviterUsername string       `json:"inviter_username"`
	InviteeID       string       `json:"invitee_id"`
	InviteeUsername string       `json:"invitee_username"`
	Status          InviteStatus `json:"status"`
	CreatedAt       int64        `json:"created_at"`
	ExpiresAt       int64        `json:"expires_at"`
	RespondedAt     *int64       `json:"responded_at,omitempty"`
}

// Clone returns a copy.
func (i *ClanInvite) Clone() *ClanInvite {
	if i == nil {
		return nil
	}
	c := *i
	if i.RespondedAt != nil {
		v := *i.RespondedAt
		c.RespondedAt = &v
	}
	return &c
}

// IsPending returns true while the invite awaits an answer.
func (i *ClanInvite) IsPending() bool {
	return i.Status == InviteStatusPending
}

// CreateInviteRequest invites a user by username.
type CreateInviteRequest struct {
	Username string `json:"username"`
}

// RespondInviteRequest answers an invite.
type RespondInviteRequest struct {
	Accept bool `json:"accept"`
}
