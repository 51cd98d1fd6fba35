package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/erazemk/dicri/internal/model"
	"github.com/erazemk/dicri/internal/workflow"
)

const (
	defaultRecent = 10
	maxRecent     = 100
)

// ReportsHandler serves the read-only reports.
type ReportsHandler struct {
	Engine *workflow.Engine
}

// reportFilter reads from, to and state from the query string. A bare "to"
// date covers the whole day.
func reportFilter(r *http.Request) (model.ReportFilter, error) {
	q := r.URL.Query()
	var f model.ReportFilter

	if s := q.Get("from"); s != "" {
		from, err := parseDate("from", s)
		if err != nil {
			return f, err
		}
		f.From = &from
	}
	if s := strings.TrimSpace(q.Get("to")); s != "" {
		to, err := parseDate("to", s)
		if err != nil {
			return f, err
		}
		if len(s) == len(time.DateOnly) {
			to = to.Add(24*time.Hour - time.Nanosecond)
		}
		f.To = &to
	}
	if s := q.Get("state"); s != "" && s != "todos" {
		f.State = model.CaseState(s)
		if !f.State.Valid() {
			return f, &workflow.ValidationError{Fields: []workflow.FieldError{
				{Field: "state", Message: "is invalid"},
			}}
		}
	}
	return f, nil
}

// Statistics handles GET /api/reports/statistics.
func (h *ReportsHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	f, err := reportFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	stats, err := h.Engine.Statistics(r.Context(), actor(r), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, stats)
}

// CasesByMonth handles GET /api/reports/cases-by-month.
func (h *ReportsHandler) CasesByMonth(w http.ResponseWriter, r *http.Request) {
	f, err := reportFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	months, err := h.Engine.CasesByMonth(r.Context(), actor(r), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if months == nil {
		months = []model.MonthStats{}
	}
	jsonResponse(w, http.StatusOK, months)
}

// EvidenceByType handles GET /api/reports/evidence-by-type.
func (h *ReportsHandler) EvidenceByType(w http.ResponseWriter, r *http.Request) {
	f, err := reportFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	types, err := h.Engine.EvidenceByType(r.Context(), actor(r), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if types == nil {
		types = []model.LabelCount{}
	}
	jsonResponse(w, http.StatusOK, types)
}

// Recent handles GET /api/reports/recent.
func (h *ReportsHandler) Recent(w http.ResponseWriter, r *http.Request) {
	f, err := reportFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	limit := defaultRecent
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > maxRecent {
			jsonError(w, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		limit = n
	}

	cases, err := h.Engine.RecentCases(r.Context(), actor(r), f, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, cases)
}
