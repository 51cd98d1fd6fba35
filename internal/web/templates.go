// Package web serves the cookie-authenticated HTML pages.
package web

import (
	"bytes"
	"database/sql"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/erazemk/dicri/internal/api"
	"github.com/erazemk/dicri/internal/auth"
	"github.com/erazemk/dicri/internal/model"
	"github.com/erazemk/dicri/internal/workflow"
	webembed "github.com/erazemk/dicri/web"
)

// Templates holds parsed HTML templates.
type Templates struct {
	templates map[string]*template.Template
}

var stateClasses = map[model.CaseState]string{
	model.CaseDraft:       "draft",
	model.CaseUnderReview: "review",
	model.CaseReviewed:    "reviewed",
	model.CaseApproved:    "approved",
	model.CaseRejected:    "rejected",
}

var actionNames = map[string]string{
	model.ActionCreated:          "Expediente creado",
	model.ActionUpdated:          "Expediente editado",
	model.ActionSubmitted:        "Enviado a revisión",
	model.ActionApproved:         "Aprobado",
	model.ActionRejected:         "Rechazado",
	model.ActionReviewed:         "Revisión por indicio",
	model.ActionDeactivated:      "Expediente desactivado",
	model.ActionEvidenceAdded:    "Indicio agregado",
	model.ActionEvidenceUpdated:  "Indicio editado",
	model.ActionEvidenceRemoved:  "Indicio desactivado",
	model.ActionEvidenceReviewed: "Indicio revisado",
}

// FuncMap returns the template function map.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"roleName": model.Role.DisplayName,
		"isCoordinator": func(c *auth.Claims) bool {
			return c != nil && c.Role == model.RoleCoordinator
		},
		"stateClass": func(s any) string {
			return stateClasses[model.CaseState(fmt.Sprint(s))]
		},
		"actionName": func(a string) string {
			if name, ok := actionNames[a]; ok {
				return name
			}
			return a
		},
		"date": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("02/01/2006")
		},
		"datetime": func(t time.Time) string {
			return t.Local().Format("02/01/2006 15:04")
		},
		"states": func() []model.CaseState { return model.CaseStates },
		"add":    func(a, b int) int { return a + b },
	}
}

// LoadTemplates parses all page templates with the layout.
func LoadTemplates() (*Templates, error) {
	tfs := webembed.Templates

	layout, err := fs.ReadFile(tfs, "layout.html")
	if err != nil {
		return nil, fmt.Errorf("reading layout template: %w", err)
	}

	pages, err := fs.Glob(tfs, "*.html")
	if err != nil {
		return nil, fmt.Errorf("listing templates: %w", err)
	}

	ts := &Templates{templates: make(map[string]*template.Template)}
	for _, page := range pages {
		if page == "layout.html" {
			continue
		}
		body, err := fs.ReadFile(tfs, page)
		if err != nil {
			return nil, fmt.Errorf("reading template %s: %w", page, err)
		}

		tmpl, err := template.New(page).Funcs(FuncMap()).Parse(string(layout))
		if err != nil {
			return nil, fmt.Errorf("parsing layout for %s: %w", page, err)
		}
		if tmpl, err = tmpl.Parse(string(body)); err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", page, err)
		}
		ts.templates[page] = tmpl
	}

	return ts, nil
}

// Render renders a page into a buffer first so a template error never
// leaves a half-written page behind.
func (ts *Templates) Render(w http.ResponseWriter, status int, name string, data any) {
	tmpl, ok := ts.templates[name]
	if !ok {
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		slog.Error("failed to render template", "template", name, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// PageData is the base data passed to all templates.
type PageData struct {
	Title   string
	User    *auth.Claims
	Error   string
	Success string
}

// Server holds all dependencies for page handlers.
type Server struct {
	Engine       *workflow.Engine
	DB           *sql.DB
	Templates    *Templates
	JWTSecret    string
	TokenExpiry  time.Duration
	LoginLimiter *api.RateLimiter
}

func (s *Server) page(r *http.Request, title string) PageData {
	return PageData{Title: title, User: GetWebClaims(r.Context())}
}

// errorMessage turns a workflow error into text for a flash message.
func errorMessage(err error) string {
	var ve *workflow.ValidationError
	switch {
	case errors.As(err, &ve):
		parts := make([]string, len(ve.Fields))
		for i, f := range ve.Fields {
			parts[i] = f.Field + " " + f.Message
		}
		return "Datos inválidos: " + strings.Join(parts, "; ")
	case errors.Is(err, workflow.ErrNoEvidence):
		return "No se puede enviar un expediente sin indicios."
	case errors.Is(err, workflow.ErrNotFound):
		return "El expediente no existe o no admite esta acción en su estado actual."
	case errors.Is(err, workflow.ErrForbidden):
		return "No tiene permisos para esta acción."
	case errors.Is(err, workflow.ErrConflict):
		return "Conflicto al guardar, intente de nuevo."
	default:
		return "Error interno."
	}
}

// fail renders a plain error page for errors outside a form flow.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, workflow.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, workflow.ErrForbidden):
		status = http.StatusForbidden
	default:
		slog.Error("page failed", "path", r.URL.Path, "error", err)
	}

	data := s.page(r, "Error")
	data.Error = errorMessage(err)
	s.Templates.Render(w, status, "error.html", &data)
}
