package web

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/erazemk/dicri/internal/imaging"
	"github.com/erazemk/dicri/internal/workflow"
)

// EvidenceCreateSubmit handles POST /cases/{id}/evidence.
func (s *Server) EvidenceCreateSubmit(w http.ResponseWriter, r *http.Request) {
	caseID, ok := pathID(r)
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	fields := workflow.EvidenceFields{
		Description:    strings.TrimSpace(r.FormValue("description")),
		Color:          strings.TrimSpace(r.FormValue("color")),
		Size:           strings.TrimSpace(r.FormValue("size")),
		Weight:         strings.TrimSpace(r.FormValue("weight")),
		Location:       strings.TrimSpace(r.FormValue("location")),
		Notes:          strings.TrimSpace(r.FormValue("notes")),
		EvidenceNumber: strings.TrimSpace(r.FormValue("evidence_number")),
		Type:           strings.TrimSpace(r.FormValue("type")),
		CollectedAt:    formTime(r.FormValue("collected_at")),
		CustodyChain:   strings.TrimSpace(r.FormValue("custody_chain")),
	}

	_, err := s.Engine.CreateEvidenceItem(r.Context(), actor(r), caseID, fields)
	s.afterAction(w, r, caseID, err)
}

// evidenceCase resolves the case of a visible evidence item so the handler
// can return to it.
func (s *Server) evidenceCase(w http.ResponseWriter, r *http.Request) (id, caseID int64, ok bool) {
	id, ok = pathID(r)
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return 0, 0, false
	}

	ev, err := s.Engine.GetEvidence(r.Context(), actor(r), id)
	if err != nil {
		s.fail(w, r, err)
		return 0, 0, false
	}
	return id, ev.CaseID, true
}

// EvidenceDeactivateSubmit handles POST /evidence/{id}/deactivate.
func (s *Server) EvidenceDeactivateSubmit(w http.ResponseWriter, r *http.Request) {
	id, caseID, ok := s.evidenceCase(w, r)
	if !ok {
		return
	}
	s.afterAction(w, r, caseID, s.Engine.DeactivateEvidenceItem(r.Context(), actor(r), id))
}

// EvidencePhotoSubmit handles POST /evidence/{id}/photo.
func (s *Server) EvidencePhotoSubmit(w http.ResponseWriter, r *http.Request) {
	id, caseID, ok := s.evidenceCase(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadSize+1<<20)
	if err := r.ParseMultipartForm(imaging.MaxUploadSize); err != nil {
		s.renderDetail(w, r, caseID, http.StatusBadRequest, "La imagen es demasiado grande.")
		return
	}

	file, _, err := r.FormFile("photo")
	if err != nil {
		s.renderDetail(w, r, caseID, http.StatusBadRequest, "Seleccione una imagen.")
		return
	}
	defer file.Close()

	s.afterAction(w, r, caseID, s.Engine.SetEvidencePhoto(r.Context(), actor(r), id, file))
}

// EvidencePhotoGet handles GET /evidence/{id}/photo.
func (s *Server) EvidencePhotoGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	data, mime, err := s.Engine.EvidencePhoto(r.Context(), actor(r), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=\"indicio-%d.jpg\"", id))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "private, max-age=300")
	if _, err := w.Write(data); err != nil {
		slog.Error("failed to write photo response", "error", err)
	}
}
