package model

import "time"

// Case is a forensic case record (expediente).
type Case struct {
	ID              int64      `json:"id"`
	Code            string     `json:"code"`
	CaseNumber      string     `json:"case_number"`
	Description     string     `json:"description"`
	Location        string     `json:"location"`
	IncidentDate    time.Time  `json:"incident_date"`
	OffenseType     string     `json:"offense_type"`
	Notes           string     `json:"notes,omitempty"`
	Priority        string     `json:"priority"`
	State           CaseState  `json:"state"`
	TechnicianID    int64      `json:"technician_id"`
	CoordinatorID   *int64     `json:"coordinator_id,omitempty"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
	ReviewedAt      *time.Time `json:"reviewed_at,omitempty"`
	Active          bool       `json:"active"`
	CreatedAt       time.Time  `json:"created_at"`

	// Joined fields (not always populated).
	TechnicianName  string     `json:"technician_name,omitempty"`
	CoordinatorName string     `json:"coordinator_name,omitempty"`
	EvidenceCount   int        `json:"evidence_count"`
	Evidence        []Evidence `json:"evidence,omitempty"`
}

// CaseState is the lifecycle state of a case.
type CaseState string

// Case states. The values are the ones persisted and exposed over the API.
const (
	CaseDraft       CaseState = "Borrador"
	CaseUnderReview CaseState = "En Revision"
	CaseReviewed    CaseState = "Revisado"
	CaseApproved    CaseState = "Aprobado"
	CaseRejected    CaseState = "Rechazado"
)

// CaseStates lists every case state in lifecycle order.
var CaseStates = []CaseState{CaseDraft, CaseUnderReview, CaseReviewed, CaseApproved, CaseRejected}

// Valid reports whether s is a known case state.
func (s CaseState) Valid() bool {
	switch s {
	case CaseDraft, CaseUnderReview, CaseReviewed, CaseApproved, CaseRejected:
		return true
	}
	return false
}

// Editable reports whether a case in this state may be changed by its owner,
// receive new evidence or be deactivated.
func (s CaseState) Editable() bool {
	return s == CaseDraft || s == CaseRejected
}

// Decidable reports whether a coordinator may approve or reject a case in
// this state.
func (s CaseState) Decidable() bool {
	return s == CaseUnderReview || s == CaseReviewed
}

// CanTransition reports whether the workflow allows moving from s to next.
// Moving to Reviewed is allowed from any state; per-item review does not
// gate on the current state.
func (s CaseState) CanTransition(next CaseState) bool {
	switch next {
	case CaseUnderReview:
		return s.Editable()
	case CaseApproved, CaseRejected:
		return s.Decidable()
	case CaseReviewed:
		return s.Valid()
	default:
		return false
	}
}
