package api

import (
	"bytes"
	"cmp"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/erazemk/dicri/internal/model"
	"github.com/erazemk/dicri/internal/workflow"
)

// CasesHandler binds the case workflow to HTTP.
type CasesHandler struct {
	Engine *workflow.Engine
}

type caseRequest struct {
	CaseNumber   string `json:"case_number"`
	Description  string `json:"description"`
	Location     string `json:"location"`
	IncidentDate string `json:"incident_date"`
	OffenseType  string `json:"offense_type"`
	Notes        string `json:"notes"`
	Priority     string `json:"priority"`
}

func (req caseRequest) fields() (workflow.CaseFields, error) {
	date, err := parseDate("incident_date", req.IncidentDate)
	if err != nil {
		return workflow.CaseFields{}, err
	}
	return workflow.CaseFields{
		CaseNumber:   req.CaseNumber,
		Description:  req.Description,
		Location:     req.Location,
		IncidentDate: date,
		OffenseType:  req.OffenseType,
		Notes:        req.Notes,
		Priority:     req.Priority,
	}, nil
}

type rejectRequest struct {
	Justification string `json:"justification"`
}

type reviewEntry struct {
	Decision      string `json:"decision"`
	Justification string `json:"justification"`
}

// parseDate accepts a calendar date or an RFC 3339 timestamp. An empty value
// yields the zero time and is left to field validation.
func parseDate(field, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, &workflow.ValidationError{Fields: []workflow.FieldError{
		{Field: field, Message: "must be a date (YYYY-MM-DD)"},
	}}
}

// parseDecisions accepts either an ordered list of decisions or an object
// keyed by evidence id. Object entries are applied in ascending id order.
func parseDecisions(body []byte) ([]workflow.ItemDecision, error) {
	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] == '[' {
		var list []workflow.ItemDecision
		if err := json.Unmarshal(body, &list); err != nil {
			return nil, err
		}
		return list, nil
	}

	var byID map[string]reviewEntry
	if err := json.Unmarshal(body, &byID); err != nil {
		return nil, err
	}
	if byID == nil {
		return nil, fmt.Errorf("review must be an object or a list")
	}

	decisions := make([]workflow.ItemDecision, 0, len(byID))
	for key, entry := range byID {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid evidence id %q", key)
		}
		decisions = append(decisions, workflow.ItemDecision{
			EvidenceID:    id,
			Decision:      entry.Decision,
			Justification: entry.Justification,
		})
	}
	slices.SortFunc(decisions, func(a, b workflow.ItemDecision) int {
		return cmp.Compare(a.EvidenceID, b.EvidenceID)
	})
	return decisions, nil
}

// List handles GET /api/cases.
func (h *CasesHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := workflow.CaseFilter{Search: strings.TrimSpace(q.Get("search"))}

	if s := q.Get("state"); s != "" && s != "todos" {
		filter.State = model.CaseState(s)
		if !filter.State.Valid() {
			jsonError(w, http.StatusBadRequest, "invalid state")
			return
		}
	}
	filter.Page, _ = strconv.Atoi(q.Get("page"))
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))
	if filter.Limit > 100 {
		filter.Limit = 100
	}

	cases, page, err := h.Engine.ListCases(r.Context(), actor(r), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"cases":      cases,
		"pagination": page,
	})
}

// Create handles POST /api/cases.
func (h *CasesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req caseRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	fields, err := req.fields()
	if err != nil {
		writeError(w, r, err)
		return
	}

	c, err := h.Engine.CreateCase(r.Context(), actor(r), fields)
	if err != nil {
		writeError(w, r, err)
		return
	}

	jsonResponse(w, http.StatusCreated, c)
}

// Get handles GET /api/cases/{id}.
func (h *CasesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid case id")
		return
	}

	c, err := h.Engine.GetCase(r.Context(), actor(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, c)
}

// Update handles PUT /api/cases/{id}.
func (h *CasesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid case id")
		return
	}

	var req caseRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	fields, err := req.fields()
	if err != nil {
		writeError(w, r, err)
		return
	}

	c, err := h.Engine.UpdateCase(r.Context(), actor(r), id, fields)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, c)
}

// Evidence handles GET /api/cases/{id}/evidence.
func (h *CasesHandler) Evidence(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid case id")
		return
	}

	items, err := h.Engine.ListEvidence(r.Context(), actor(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, items)
}

// History handles GET /api/cases/{id}/history.
func (h *CasesHandler) History(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid case id")
		return
	}

	events, err := h.Engine.CaseHistory(r.Context(), actor(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, events)
}

// transition runs a body-less workflow operation on the case in the path.
func (h *CasesHandler) transition(op func(r *http.Request, a workflow.Actor, id int64) error, message string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r, "id")
		if !ok {
			jsonError(w, http.StatusBadRequest, "invalid case id")
			return
		}
		if err := op(r, actor(r), id); err != nil {
			writeError(w, r, err)
			return
		}
		jsonResponse(w, http.StatusOK, map[string]string{"message": message})
	}
}

// Submit handles PUT /api/cases/{id}/submit.
func (h *CasesHandler) Submit(w http.ResponseWriter, r *http.Request) {
	h.transition(func(r *http.Request, a workflow.Actor, id int64) error {
		return h.Engine.SubmitForReview(r.Context(), a, id)
	}, "case submitted for review")(w, r)
}

// Approve handles PUT /api/cases/{id}/approve.
func (h *CasesHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.transition(func(r *http.Request, a workflow.Actor, id int64) error {
		return h.Engine.ApproveCase(r.Context(), a, id)
	}, "case and evidence approved")(w, r)
}

// Deactivate handles PUT /api/cases/{id}/deactivate.
func (h *CasesHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	h.transition(func(r *http.Request, a workflow.Actor, id int64) error {
		return h.Engine.DeactivateCase(r.Context(), a, id)
	}, "case and evidence deactivated")(w, r)
}

// Reject handles PUT /api/cases/{id}/reject.
func (h *CasesHandler) Reject(w http.ResponseWriter, r *http.Request) {
	var req rejectRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	h.transition(func(r *http.Request, a workflow.Actor, id int64) error {
		return h.Engine.RejectCase(r.Context(), a, id, req.Justification)
	}, "case and evidence rejected")(w, r)
}

// Review handles PUT /api/cases/{id}/review.
func (h *CasesHandler) Review(w http.ResponseWriter, r *http.Request) {
	var raw json.RawMessage
	if err := decodeJSON(r, &raw); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	decisions, err := parseDecisions(raw)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid review format")
		return
	}

	h.transition(func(r *http.Request, a workflow.Actor, id int64) error {
		return h.Engine.ReviewItemsIndividually(r.Context(), a, id, decisions)
	}, "review saved")(w, r)
}
