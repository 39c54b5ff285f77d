package model

// InitialIntegrity is the integrity score every user starts with.
const InitialIntegrity = 100

// User is a registered player.
type User struct {
	ID          string  `json:"id"`
	Username    string  `json:"username"`
	UsernameKey string  `json:"username_key"`
	Email       string  `json:"email,omitempty"`
	Avatar      *string `json:"avatar,omitempty"`
	ClanID      *string `json:"clan_id,omitempty"`
	Integrity   int     `json:"integrity"`
	CreatedAt   int64   `json:"created_at"`
	UpdatedAt   int64   `json:"updated_at"`
}

// Clone returns a deep copy.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.Avatar = cloneString(u.Avatar)
	c.ClanID = cloneString(u.ClanID)
	return &c
}

// InClan reports whether the user currently belongs to clanID.
func (u *User) InClan(clanID string) bool {
	return u.ClanID != nil && *u.ClanID == clanID
}

// CreateUserRequest registers or refreshes a user.
type CreateUserRequest struct {
	ID       string  `json:"id"`
	Username string  `json:"username"`
	Email    string  `json:"email,omitempty"`
	Avatar   *string `json:"avatar,omitempty"`
}

// UpdateUserRequest changes a user's display data.
type UpdateUserRequest struct {
	Username *string `json:"username,omitempty"`
	Avatar   *string `json:"avatar,omitempty"`
}

// UserProfile is the public view of a user.
type UserProfile struct {
	User          *User          `json:"user"`
	Clan          *Clan          `json:"clan,omitempty"`
	IsFounder     bool           `json:"is_founder"`
	Stats         *UserStats     `json:"stats"`
	RecentMatches []MatchSummary `json:"recent_matches"`
}

// Participant is the display snapshot of a rostered player.
type Participant struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}
