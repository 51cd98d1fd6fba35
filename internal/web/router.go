package web

import (
	"errors"
	"net/http"
	"time"

	"github.com/erazemk/dicri/internal/api"
	"github.com/erazemk/dicri/internal/workflow"
	webembed "github.com/erazemk/dicri/web"
)

// Options configures the web router.
type Options struct {
	JWTSecret   string
	TokenExpiry time.Duration

	// LoginLimiter bounds login form posts per client IP. Pass the limiter
	// of the API login so both count against one budget.
	LoginLimiter *api.RateLimiter
}

// NewRouter creates the web page router with all page routes registered.
func NewRouter(engine *workflow.Engine, opts Options) (http.Handler, error) {
	if opts.LoginLimiter == nil {
		return nil, errors.New("web: login limiter is required")
	}

	templates, err := LoadTemplates()
	if err != nil {
		return nil, err
	}

	s := &Server{
		Engine:       engine,
		DB:           engine.DB(),
		Templates:    templates,
		JWTSecret:    opts.JWTSecret,
		TokenExpiry:  opts.TokenExpiry,
		LoginLimiter: opts.LoginLimiter,
	}

	mux := http.NewServeMux()
	cookieAuth := CookieAuthMiddleware(opts.JWTSecret, s.DB)
	page := func(h http.HandlerFunc) http.Handler { return cookieAuth(h) }
	coordinatorPage := func(h http.HandlerFunc) http.Handler { return cookieAuth(requireCoordinator(h)) }

	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(webembed.Static))))

	mux.HandleFunc("GET /login", s.LoginPage)
	mux.HandleFunc("POST /login", s.LoginSubmit)
	mux.HandleFunc("POST /logout", s.Logout)

	mux.Handle("GET /{$}", page(s.Dashboard))

	mux.Handle("GET /cases", page(s.CasesPage))
	mux.Handle("GET /cases/new", page(s.CaseNewPage))
	mux.Handle("POST /cases/new", page(s.CaseCreateSubmit))
	mux.Handle("GET /cases/{id}", page(s.CaseDetailPage))
	mux.Handle("GET /cases/{id}/edit", page(s.CaseEditPage))
	mux.Handle("POST /cases/{id}/edit", page(s.CaseEditSubmit))
	mux.Handle("POST /cases/{id}/submit", page(s.CaseSubmit))
	mux.Handle("POST /cases/{id}/approve", coordinatorPage(s.CaseApprove))
	mux.Handle("POST /cases/{id}/reject", coordinatorPage(s.CaseReject))
	mux.Handle("POST /cases/{id}/review", coordinatorPage(s.CaseReview))
	mux.Handle("POST /cases/{id}/deactivate", page(s.CaseDeactivate))
	mux.Handle("POST /cases/{id}/evidence", page(s.EvidenceCreateSubmit))

	mux.Handle("POST /evidence/{id}/deactivate", page(s.EvidenceDeactivateSubmit))
	mux.Handle("POST /evidence/{id}/photo", page(s.EvidencePhotoSubmit))
	mux.Handle("GET /evidence/{id}/photo", page(s.EvidencePhotoGet))

	mux.Handle("GET /users", coordinatorPage(s.UsersPage))
	mux.Handle("POST /users", coordinatorPage(s.UserCreateSubmit))
	mux.Handle("POST /users/{id}/password", coordinatorPage(s.UserResetPasswordSubmit))
	mux.Handle("POST /users/{id}/deactivate", coordinatorPage(s.UserDeactivateSubmit))

	mux.Handle("GET /settings", page(s.SettingsPage))
	mux.Handle("POST /settings", page(s.SettingsSubmit))

	return mux, nil
}
