package model

import "time"

// Evidence is a single evidence item (indicio) belonging to one case.
type Evidence struct {
	ID              int64      `json:"id"`
	Code            string     `json:"code"`
	CaseID          int64      `json:"case_id"`
	Description     string     `json:"description"`
	Color           string     `json:"color,omitempty"`
	Size            string     `json:"size,omitempty"`
	Weight          string     `json:"weight,omitempty"`
	Location        string     `json:"location"`
	Notes           string     `json:"notes,omitempty"`
	EvidenceNumber  string     `json:"evidence_number,omitempty"`
	Type            string     `json:"type,omitempty"`
	CollectedAt     *time.Time `json:"collected_at,omitempty"`
	CustodyChain    string     `json:"custody_chain,omitempty"`
	State           ItemState  `json:"state"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
	CoordinatorID   *int64     `json:"coordinator_id,omitempty"`
	ReviewedAt      *time.Time `json:"reviewed_at,omitempty"`
	TechnicianID    int64      `json:"technician_id"`
	PhotoMime       string     `json:"photo_mime,omitempty"`
	Active          bool       `json:"active"`
	CreatedAt       time.Time  `json:"created_at"`

	// Joined fields (not always populated).
	TechnicianName string `json:"technician_name,omitempty"`
}

// ItemState is the review state of an evidence item.
type ItemState string

// Evidence states, a subset of the case states.
const (
	ItemDraft    ItemState = ItemState(CaseDraft)
	ItemApproved ItemState = ItemState(CaseApproved)
	ItemRejected ItemState = ItemState(CaseRejected)
)

// ParseDecision converts a review decision to an ItemState. Only Approved and
// Rejected are decisions.
func ParseDecision(s string) (ItemState, bool) {
	switch st := ItemState(s); st {
	case ItemApproved, ItemRejected:
		return st, true
	}
	return "", false
}
