package model

import "time"

// ReportFilter narrows report queries. Zero values mean "no filter".
type ReportFilter struct {
	From  *time.Time
	To    *time.Time
	State CaseState

	// TechnicianID scopes the report to one technician's cases.
	TechnicianID int64
}

// StateCount is the number of cases in one state.
type StateCount struct {
	State CaseState `json:"state"`
	Count int       `json:"count"`
}

// TechnicianStats summarises one technician's cases.
type TechnicianStats struct {
	Name     string `json:"name"`
	Cases    int    `json:"cases"`
	Approved int    `json:"approved"`
	Rejected int    `json:"rejected"`
}

// LabelCount is a generic label/count pair.
type LabelCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// MonthStats counts cases registered in one calendar month.
type MonthStats struct {
	Year     int `json:"year"`
	Month    int `json:"month"`
	Cases    int `json:"cases"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
}

// Statistics is the combined dashboard report.
type Statistics struct {
	ByState       []StateCount      `json:"by_state"`
	ByTechnician  []TechnicianStats `json:"by_technician"`
	ByOffense     []LabelCount      `json:"by_offense"`
	ByMonth       []MonthStats      `json:"by_month"`
	TotalEvidence int               `json:"total_evidence"`
}
