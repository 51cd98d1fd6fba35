package web

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/erazemk/dicri/internal/model"
	"github.com/erazemk/dicri/internal/workflow"
)

const formDateTime = "2006-01-02T15:04"

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}

// formTime parses an HTML date or datetime-local value. Unparseable input
// yields the zero time, which field validation reports as missing.
func formTime(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.DateOnly, formDateTime, time.RFC3339} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func caseForm(r *http.Request) workflow.CaseFields {
	return workflow.CaseFields{
		CaseNumber:   strings.TrimSpace(r.FormValue("case_number")),
		Description:  strings.TrimSpace(r.FormValue("description")),
		Location:     strings.TrimSpace(r.FormValue("location")),
		IncidentDate: formTime(r.FormValue("incident_date")),
		OffenseType:  strings.TrimSpace(r.FormValue("offense_type")),
		Notes:        strings.TrimSpace(r.FormValue("notes")),
		Priority:     strings.TrimSpace(r.FormValue("priority")),
	}
}

// CasesPage handles GET /cases.
func (s *Server) CasesPage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := workflow.CaseFilter{Search: strings.TrimSpace(q.Get("search"))}
	if st := model.CaseState(q.Get("state")); st.Valid() {
		filter.State = st
	}
	filter.Page, _ = strconv.Atoi(q.Get("page"))

	cases, page, err := s.Engine.ListCases(r.Context(), actor(r), filter)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.Templates.Render(w, http.StatusOK, "cases.html", &struct {
		PageData
		Cases  []model.Case
		Page   workflow.Page
		Filter workflow.CaseFilter
		Query  func(page int) string
	}{
		PageData: s.page(r, "Expedientes"),
		Cases:    cases,
		Page:     page,
		Filter:   filter,
		Query: func(p int) string {
			v := url.Values{}
			v.Set("page", strconv.Itoa(p))
			if filter.State != "" {
				v.Set("state", string(filter.State))
			}
			if filter.Search != "" {
				v.Set("search", filter.Search)
			}
			return v.Encode()
		},
	})
}

type caseFormData struct {
	PageData
	Form   workflow.CaseFields
	Action string
}

// CaseNewPage handles GET /cases/new.
func (s *Server) CaseNewPage(w http.ResponseWriter, r *http.Request) {
	s.Templates.Render(w, http.StatusOK, "case_form.html", &caseFormData{
		PageData: s.page(r, "Nuevo expediente"),
		Action:   "/cases/new",
	})
}

// CaseCreateSubmit handles POST /cases/new.
func (s *Server) CaseCreateSubmit(w http.ResponseWriter, r *http.Request) {
	form := caseForm(r)

	c, err := s.Engine.CreateCase(r.Context(), actor(r), form)
	if err != nil {
		data := &caseFormData{PageData: s.page(r, "Nuevo expediente"), Form: form, Action: "/cases/new"}
		data.Error = errorMessage(err)
		s.Templates.Render(w, http.StatusBadRequest, "case_form.html", data)
		return
	}

	http.Redirect(w, r, fmt.Sprintf("/cases/%d", c.ID), http.StatusSeeOther)
}

// CaseEditPage handles GET /cases/{id}/edit.
func (s *Server) CaseEditPage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	c, err := s.Engine.GetCase(r.Context(), actor(r), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.Templates.Render(w, http.StatusOK, "case_form.html", &caseFormData{
		PageData: s.page(r, "Editar "+c.Code),
		Action:   fmt.Sprintf("/cases/%d/edit", id),
		Form: workflow.CaseFields{
			CaseNumber:   c.CaseNumber,
			Description:  c.Description,
			Location:     c.Location,
			IncidentDate: c.IncidentDate,
			OffenseType:  c.OffenseType,
			Notes:        c.Notes,
			Priority:     c.Priority,
		},
	})
}

// CaseEditSubmit handles POST /cases/{id}/edit.
func (s *Server) CaseEditSubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	form := caseForm(r)
	if _, err := s.Engine.UpdateCase(r.Context(), actor(r), id, form); err != nil {
		data := &caseFormData{
			PageData: s.page(r, "Editar expediente"),
			Form:     form,
			Action:   fmt.Sprintf("/cases/%d/edit", id),
		}
		data.Error = errorMessage(err)
		s.Templates.Render(w, http.StatusBadRequest, "case_form.html", data)
		return
	}

	http.Redirect(w, r, fmt.Sprintf("/cases/%d", id), http.StatusSeeOther)
}

// CaseDetailPage handles GET /cases/{id}.
func (s *Server) CaseDetailPage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	s.renderDetail(w, r, id, http.StatusOK, "")
}

func (s *Server) renderDetail(w http.ResponseWriter, r *http.Request, id int64, status int, errMsg string) {
	a := actor(r)

	c, err := s.Engine.GetCase(r.Context(), a, id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	history, err := s.Engine.CaseHistory(r.Context(), a, id)
	if err != nil {
		slog.Error("failed to load case history", "case", c.Code, "error", err)
	}

	owner := a.Role == model.RoleTechnician && c.TechnicianID == a.ID
	coordinator := a.Role == model.RoleCoordinator

	data := &struct {
		PageData
		Case       *model.Case
		History    []model.CaseEvent
		CanEdit    bool
		CanSubmit  bool
		CanDecide  bool
		CanRemove  bool
		Collected  string
		ItemStates []model.ItemState
	}{
		PageData:   s.page(r, c.Code),
		Case:       c,
		History:    history,
		CanEdit:    owner && c.State.Editable(),
		CanSubmit:  owner && c.State.CanTransition(model.CaseUnderReview),
		CanDecide:  coordinator && c.State.Decidable(),
		CanRemove:  (owner || coordinator) && c.State.Editable(),
		Collected:  time.Now().Format(formDateTime),
		ItemStates: []model.ItemState{model.ItemApproved, model.ItemRejected},
	}
	data.Error = errMsg
	if r.URL.Query().Get("ok") != "" {
		data.Success = "Cambios guardados."
	}

	s.Templates.Render(w, status, "case_detail.html", data)
}

// afterAction redirects back to the case on success and re-renders it with
// the error otherwise.
func (s *Server) afterAction(w http.ResponseWriter, r *http.Request, id int64, err error) {
	if err != nil {
		s.renderDetail(w, r, id, http.StatusBadRequest, errorMessage(err))
		return
	}
	http.Redirect(w, r, fmt.Sprintf("/cases/%d?ok=1", id), http.StatusSeeOther)
}

// CaseSubmit handles POST /cases/{id}/submit.
func (s *Server) CaseSubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	s.afterAction(w, r, id, s.Engine.SubmitForReview(r.Context(), actor(r), id))
}

// CaseApprove handles POST /cases/{id}/approve.
func (s *Server) CaseApprove(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	s.afterAction(w, r, id, s.Engine.ApproveCase(r.Context(), actor(r), id))
}

// CaseReject handles POST /cases/{id}/reject.
func (s *Server) CaseReject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	err := s.Engine.RejectCase(r.Context(), actor(r), id, r.FormValue("justification"))
	s.afterAction(w, r, id, err)
}

// CaseReview handles POST /cases/{id}/review. Items left without a decision
// are not part of the review.
func (s *Server) CaseReview(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	var decisions []workflow.ItemDecision
	for _, raw := range r.Form["evidence_id"] {
		evID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		decision := r.FormValue("decision_" + raw)
		if decision == "" {
			continue
		}
		decisions = append(decisions, workflow.ItemDecision{
			EvidenceID:    evID,
			Decision:      decision,
			Justification: r.FormValue("justification_" + raw),
		})
	}

	s.afterAction(w, r, id, s.Engine.ReviewItemsIndividually(r.Context(), actor(r), id, decisions))
}

// CaseDeactivate handles POST /cases/{id}/deactivate.
func (s *Server) CaseDeactivate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	if err := s.Engine.DeactivateCase(r.Context(), actor(r), id); err != nil {
		s.renderDetail(w, r, id, http.StatusBadRequest, errorMessage(err))
		return
	}
	http.Redirect(w, r, "/cases", http.StatusSeeOther)
}
