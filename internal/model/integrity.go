package model

// IntegrityEventType classifies a reputation event.
type IntegrityEventType string

const (
	IntegrityStalling          IntegrityEventType = "STALLING"
	IntegrityNoShow            IntegrityEventType = "NO_SHOW"
	IntegrityCheating          IntegrityEventType = "CHEATING"
	IntegrityToxicity          IntegrityEventType = "TOXICITY"
	IntegrityDisputeAbuse      IntegrityEventType = "DISPUTE_ABUSE"
	IntegrityUnsportsmanlike   IntegrityEventType = "UNSPORTSMANLIKE"
	IntegrityMatchManipulation IntegrityEventType = "MATCH_MANIPULATION"
	IntegrityRestored          IntegrityEventType = "RESTORED"
)

// IsValid returns true if t is a known event type
func (t IntegrityEventType) IsValid() bool {
	switch t {
	case IntegrityStalling, IntegrityNoShow, IntegrityCheating, IntegrityToxicity,
		IntegrityDisputeAbuse, IntegrityUnsportsmanlike, IntegrityMatchManipulation, IntegrityRestored:
		return true
	default:
		return false
	}
}

// Integrity bounds and scaling.
const (
	MinSeverity          = 1
	MaxSeverity          = 5
	IntegrityPerSeverity = 5
	MinIntegrity         = 0
	MaxIntegrity         = 100
)

// ReporterSystem marks events raised by the platform itself.
const ReporterSystem = "SYSTEM"

// IntegrityEvent is a single reputation adjustment.
type IntegrityEvent struct {
	ID           string             `json:"id"`
	Type         IntegrityEventType `json:"type"`
	TargetUserID string             `json:"target_user_id"`
	TargetClanID *string            `json:"target_clan_id,omitempty"`
	Severity     int                `json:"severity"`
	Description  string             `json:"description"`
	ReportedBy   string             `json:"reported_by"`
	MatchID      *string            `json:"match_id,omitempty"`
	Resolved     bool               `json:"resolved"`
	CreatedAt    int64              `json:"created_at"`
}

// Clone returns a deep copy.
func (e *IntegrityEvent) Clone() *IntegrityEvent {
	if e == nil {
		return nil
	}
	c := *e
	c.TargetClanID = cloneString(e.TargetClanID)
	c.MatchID = cloneString(e.MatchID)
	return &c
}

// RecordIntegrityRequest reports an event against a user.
type RecordIntegrityRequest struct {
	Type         IntegrityEventType `json:"type"`
	TargetUserID string             `json:"target_user_id"`
	Severity     int                `json:"severity"`
	Description  string             `json:"description"`
	MatchID      *string            `json:"match_id,omitempty"`
}

// IntegrityLevel buckets a score for display.
func IntegrityLevel(score int) string {
	switch {
	case score >= 90:
		return "high"
	case score >= 70:
		return "good"
	case score >= 50:
		return "medium"
	default:
		return "low"
	}
}

// IntegrityLabel is the human label for a score.
func IntegrityLabel(score int) string {
	switch {
	case score >= 90:
		return "Excellent"
	case score >= 70:
		return "Good"
	case score >= 50:
		return "Fair"
	default:
		return "Poor"
	}
}

// ClampSeverity forces severity into [MinSeverity, MaxSeverity].
func ClampSeverity(s int) int {
	if s < MinSeverity {
		return MinSeverity
	}
	if s > MaxSeverity {
		return MaxSeverity
	}
	return s
}

// ClampIntegrity forces a score into [MinIntegrity, MaxIntegrity].
func ClampIntegrity(v int) int {
	if v < MinIntegrity {
		return MinIntegrity
	}
	if v > MaxIntegrity {
		return MaxIntegrity
	}
	return v
}

// IntegritySummary is a user's score with its display buckets and history.
type IntegritySummary struct {
	UserID string            `json:"user_id"`
	Score  int               `json:"score"`
	Level  string            `json:"level"`
	Label  string            `json:"label"`
	Events []*IntegrityEvent `json:"events"`
}

// NewIntegritySummary buckets score and attaches events.
func NewIntegritySummary(userID string, score int, events []*IntegrityEvent) *IntegritySummary {
	if events == nil {
		events = []*IntegrityEvent{}
	}
	return &IntegritySummary{
		UserID: userID,
		Score:  score,
		Level:  IntegrityLevel(score),
		Label:  IntegrityLabel(score),
		Events: events,
	}
}
