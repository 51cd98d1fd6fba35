package api

import (
	"net/http"
	"strconv"

	"github.com/erazemk/dicri/internal/imaging"
	"github.com/erazemk/dicri/internal/workflow"
)

// EvidenceHandler binds evidence items to HTTP.
type EvidenceHandler struct {
	Engine *workflow.Engine
}

type evidenceRequest struct {
	CaseID         int64  `json:"case_id"`
	Description    string `json:"description"`
	Color          string `json:"color"`
	Size           string `json:"size"`
	Weight         string `json:"weight"`
	Location       string `json:"location"`
	Notes          string `json:"notes"`
	EvidenceNumber string `json:"evidence_number"`
	Type           string `json:"type"`
	CollectedAt    string `json:"collected_at"`
	CustodyChain   string `json:"custody_chain"`
}

func (req evidenceRequest) fields() (workflow.EvidenceFields, error) {
	collected, err := parseDate("collected_at", req.CollectedAt)
	if err != nil {
		return workflow.EvidenceFields{}, err
	}
	return workflow.EvidenceFields{
		Description:    req.Description,
		Color:          req.Color,
		Size:           req.Size,
		Weight:         req.Weight,
		Location:       req.Location,
		Notes:          req.Notes,
		EvidenceNumber: req.EvidenceNumber,
		Type:           req.Type,
		CollectedAt:    collected,
		CustodyChain:   req.CustodyChain,
	}, nil
}

// ByCase handles GET /api/evidence/case/{caseId}.
func (h *EvidenceHandler) ByCase(w http.ResponseWriter, r *http.Request) {
	caseID, ok := pathID(r, "caseId")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid case id")
		return
	}

	items, err := h.Engine.ListEvidence(r.Context(), actor(r), caseID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, items)
}

// getNested routes GET /api/evidence/case/{caseId} and
// GET /api/evidence/{id}/photo.
func (h *EvidenceHandler) getNested(w http.ResponseWriter, r *http.Request) {
	first, second := r.PathValue("first"), r.PathValue("second")
	switch {
	case first == "case":
		r.SetPathValue("caseId", second)
		h.ByCase(w, r)
	case second == "photo":
		r.SetPathValue("id", first)
		h.GetPhoto(w, r)
	default:
		jsonError(w, http.StatusNotFound, "not found")
	}
}

// Create handles POST /api/evidence.
func (h *EvidenceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req evidenceRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CaseID <= 0 {
		jsonResponse(w, http.StatusBadRequest, errorBody{
			Error:  "invalid input",
			Fields: []workflow.FieldError{{Field: "case_id", Message: "is required"}},
		})
		return
	}

	fields, err := req.fields()
	if err != nil {
		writeError(w, r, err)
		return
	}

	item, err := h.Engine.CreateEvidenceItem(r.Context(), actor(r), req.CaseID, fields)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusCreated, item)
}

// Get handles GET /api/evidence/{id}.
func (h *EvidenceHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid evidence id")
		return
	}

	item, err := h.Engine.GetEvidence(r.Context(), actor(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Update handles PUT /api/evidence/{id}.
func (h *EvidenceHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid evidence id")
		return
	}

	var req evidenceRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	fields, err := req.fields()
	if err != nil {
		writeError(w, r, err)
		return
	}

	item, err := h.Engine.UpdateEvidenceItem(r.Context(), actor(r), id, fields)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Deactivate handles DELETE /api/evidence/{id}/soft.
func (h *EvidenceHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid evidence id")
		return
	}

	if err := h.Engine.DeactivateEvidenceItem(r.Context(), actor(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "evidence deactivated"})
}

// UploadPhoto handles PUT /api/evidence/{id}/photo.
func (h *EvidenceHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid evidence id")
		return
	}

	// Leave room for the multipart envelope around the image itself.
	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadSize+1<<20)
	if err := r.ParseMultipartForm(imaging.MaxUploadSize); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("photo")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "photo file required")
		return
	}
	defer file.Close()

	if err := h.Engine.SetEvidencePhoto(r.Context(), actor(r), id, file); err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "photo uploaded"})
}

// GetPhoto handles GET /api/evidence/{id}/photo.
func (h *EvidenceHandler) GetPhoto(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid evidence id")
		return
	}

	data, mime, err := h.Engine.EvidencePhoto(r.Context(), actor(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
