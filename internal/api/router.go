package api

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/erazemk/dicri/internal/model"
	"github.com/erazemk/dicri/internal/workflow"
)

// Options configures the API router.
type Options struct {
	JWTSecret   string
	TokenExpiry time.Duration

	// LoginPerMinute and LoginBurst bound login attempts per client IP.
	LoginPerMinute int
	LoginBurst     int

	// LoginLimiter, when set, is used instead of a limiter built from the
	// values above so the web login form can share the same buckets.
	LoginLimiter *RateLimiter
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(engine *workflow.Engine, opts Options) http.Handler {
	mux := http.NewServeMux()
	db := engine.DB()

	authHandler := &AuthHandler{DB: db, JWTSecret: opts.JWTSecret, TokenExpiry: opts.TokenExpiry}
	usersHandler := &UsersHandler{DB: db}
	casesHandler := &CasesHandler{Engine: engine}
	evidenceHandler := &EvidenceHandler{Engine: engine}
	reportsHandler := &ReportsHandler{Engine: engine}

	authMW := AuthMiddleware(opts.JWTSecret, db)
	requireCoordinator := RequireRole(model.RoleCoordinator)
	requireTechnician := RequireRole(model.RoleTechnician)
	loginLimiter := opts.LoginLimiter
	if loginLimiter == nil {
		loginLimiter = NewRateLimiter(opts.LoginPerMinute, opts.LoginBurst)
	}

	// Public.
	mux.HandleFunc("GET /health", healthHandler(db))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.Handle("POST /api/auth/login", loginLimiter.Middleware(http.HandlerFunc(authHandler.Login)))

	// Own account.
	mux.Handle("GET /api/auth/profile", authMW(http.HandlerFunc(authHandler.Profile)))
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))

	// Cases. Ownership and state rules live in the workflow engine.
	mux.Handle("GET /api/cases", authMW(http.HandlerFunc(casesHandler.List)))
	mux.Handle("POST /api/cases", authMW(requireTechnician(http.HandlerFunc(casesHandler.Create))))
	mux.Handle("GET /api/cases/{id}", authMW(http.HandlerFunc(casesHandler.Get)))
	mux.Handle("PUT /api/cases/{id}", authMW(http.HandlerFunc(casesHandler.Update)))
	mux.Handle("GET /api/cases/{id}/evidence", authMW(http.HandlerFunc(casesHandler.Evidence)))
	mux.Handle("GET /api/cases/{id}/history", authMW(http.HandlerFunc(casesHandler.History)))
	mux.Handle("PUT /api/cases/{id}/submit", authMW(http.HandlerFunc(casesHandler.Submit)))
	mux.Handle("PUT /api/cases/{id}/approve", authMW(requireCoordinator(http.HandlerFunc(casesHandler.Approve))))
	mux.Handle("PUT /api/cases/{id}/reject", authMW(requireCoordinator(http.HandlerFunc(casesHandler.Reject))))
	mux.Handle("PUT /api/cases/{id}/review", authMW(requireCoordinator(http.HandlerFunc(casesHandler.Review))))
	mux.Handle("PUT /api/cases/{id}/deactivate", authMW(http.HandlerFunc(casesHandler.Deactivate)))

	// Evidence.
	// "case/{caseId}" and "{id}/photo" overlap, so one pattern dispatches both.
	mux.Handle("GET /api/evidence/{first}/{second}", authMW(http.HandlerFunc(evidenceHandler.getNested)))
	mux.Handle("POST /api/evidence", authMW(http.HandlerFunc(evidenceHandler.Create)))
	mux.Handle("GET /api/evidence/{id}", authMW(http.HandlerFunc(evidenceHandler.Get)))
	mux.Handle("PUT /api/evidence/{id}", authMW(http.HandlerFunc(evidenceHandler.Update)))
	mux.Handle("DELETE /api/evidence/{id}/soft", authMW(http.HandlerFunc(evidenceHandler.Deactivate)))
	mux.Handle("PUT /api/evidence/{id}/photo", authMW(http.HandlerFunc(evidenceHandler.UploadPhoto)))

	// Reports.
	mux.Handle("GET /api/reports/statistics", authMW(http.HandlerFunc(reportsHandler.Statistics)))
	mux.Handle("GET /api/reports/cases-by-month", authMW(http.HandlerFunc(reportsHandler.CasesByMonth)))
	mux.Handle("GET /api/reports/evidence-by-type", authMW(http.HandlerFunc(reportsHandler.EvidenceByType)))
	mux.Handle("GET /api/reports/recent", authMW(http.HandlerFunc(reportsHandler.Recent)))

	// Users (coordinator only).
	mux.Handle("GET /api/users", authMW(requireCoordinator(http.HandlerFunc(usersHandler.List))))
	mux.Handle("POST /api/users", authMW(requireCoordinator(http.HandlerFunc(usersHandler.Create))))
	mux.Handle("PUT /api/users/{id}/deactivate", authMW(requireCoordinator(http.HandlerFunc(usersHandler.Deactivate))))
	mux.Handle("PUT /api/users/{id}/password", authMW(requireCoordinator(http.HandlerFunc(usersHandler.ResetPassword))))

	return LoggingMiddleware(mux)
}
