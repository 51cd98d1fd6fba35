package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/erazemk/dicri/internal/workflow"
)

type errorBody struct {
	Error  string                `json:"error"`
	Fields []workflow.FieldError `json:"fields,omitempty"`
}

// writeError maps a workflow error to its HTTP status. Unexpected errors are
// logged and reported as a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *workflow.ValidationError
	switch {
	case errors.As(err, &ve):
		jsonResponse(w, http.StatusBadRequest, errorBody{Error: "invalid input", Fields: ve.Fields})
	case errors.Is(err, workflow.ErrNoEvidence):
		jsonError(w, http.StatusBadRequest, "cannot submit without evidence")
	case errors.Is(err, workflow.ErrNotFound):
		jsonError(w, http.StatusNotFound, "not found")
	case errors.Is(err, workflow.ErrForbidden):
		jsonError(w, http.StatusForbidden, "insufficient permissions")
	case errors.Is(err, workflow.ErrConflict):
		jsonError(w, http.StatusConflict, "conflicting change, retry")
	default:
		slog.Error("request failed",
			"method", r.Method, "path", r.URL.Path,
			"request_id", RequestID(r.Context()), "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
	}
}
