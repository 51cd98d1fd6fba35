package model

import "time"

// CaseEvent records one change applied to a case or one of its evidence items.
type CaseEvent struct {
	ID         int64     `json:"id"`
	CaseID     int64     `json:"case_id"`
	EvidenceID *int64    `json:"evidence_id,omitempty"`
	Action     string    `json:"action"`
	FromState  string    `json:"from_state,omitempty"`
	ToState    string    `json:"to_state,omitempty"`
	Note       string    `json:"note,omitempty"`
	ActorID    *int64    `json:"actor_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`

	// Joined fields (not always populated).
	ActorName    string `json:"actor_name,omitempty"`
	EvidenceCode string `json:"evidence_code,omitempty"`
}

// Event actions.
const (
	ActionCreated          = "created"
	ActionUpdated          = "updated"
	ActionSubmitted        = "submitted"
	ActionApproved         = "approved"
	ActionRejected         = "rejected"
	ActionReviewed         = "reviewed"
	ActionDeactivated      = "deactivated"
	ActionEvidenceAdded    = "evidence_added"
	ActionEvidenceUpdated  = "evidence_updated"
	ActionEvidenceRemoved  = "evidence_removed"
	ActionEvidenceReviewed = "evidence_reviewed"
)
