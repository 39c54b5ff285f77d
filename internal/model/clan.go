package model

// ClanRole is a member's standing within a clan.
type ClanRole string

const (
	ClanRoleFounder ClanRole = "FOUNDER"
	ClanRoleLeader  ClanRole = "LEADER"
	ClanRoleSoldier ClanRole = "SOLDIER"
)

// IsValid returns true if the role is one of the known roles
func (r ClanRole) IsValid() bool {
	switch r {
	case ClanRoleFounder, ClanRoleLeader, ClanRoleSoldier:
		return true
	default:
		return false
	}
}

// CanManage returns true for roles that may invite and kick
func (r ClanRole) CanManage() bool {
	return r == ClanRoleFounder || r == ClanRoleLeader
}

// OrDefault reads an unset role as SOLDIER.
func (r ClanRole) OrDefault() ClanRole {
	if r == "" {
		return ClanRoleSoldier
	}
	return r
}

// Clan is a team of users. A clan with no members does not exist.
type Clan struct {
	ID          string `json:"id"`
	Tag         string `json:"tag"`
	TagKey      string `json:"tag_key"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	FounderID   string `json:"founder_id"`
	Integrity   int    `json:"integrity"`
	MemberCount int    `json:"member_count"`
	CreatedAt   int64  `json:"created_at"`
	UpdatedAt   int64  `json:"updated_at"`
}

// Clone returns a copy.
func (c *Clan) Clone() *Clan {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}

// UnknownClan is the placeholder shown when a match references a clan that
// has since disbanded.
func UnknownClan(id string) *Clan {
	return &Clan{ID: id, Tag: "???", TagKey: "???", Name: "Unknown Clan"}
}

// Membership is a member's record within a clan.
type Membership struct {
	UserID   string   `json:"user_id"`
	Role     ClanRole `json:"role"`
	JoinedAt int64    `json:"joined_at"`
}

// ClanMember is a member joined with user display data.
type ClanMember struct {
	ID        string   `json:"id"`
	Username  string   `json:"username"`
	Avatar    *string  `json:"avatar,omitempty"`
	Integrity int      `json:"integrity"`
	Role      ClanRole `json:"role"`
	IsFounder bool     `json:"is_founder"`
	JoinedAt  int64    `json:"joined_at"`
}

// ClanWithMembers is a clan and its full roster.
type ClanWithMembers struct {
	Clan    *Clan        `json:"clan"`
	Members []ClanMember `json:"members"`
	Founder *ClanMember  `json:"founder,omitempty"`
}

// CreateClanRequest founds a new clan.
type CreateClanRequest struct {
	Tag         string `json:"tag"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// UpdateClanRequest edits clan display data.
type UpdateClanRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// SetRoleRequest changes a member's role.
type SetRoleRequest struct {
	TargetUserID string   `json:"target_user_id"`
	Role         ClanRole `json:"role"`
}

// LeaveResult reports whether leaving disbanded the clan.
type LeaveResult struct {
	Disbanded bool `json:"disbanded"`
}
