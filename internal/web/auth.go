package web

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/erazemk/dicri/internal/api"
	"github.com/erazemk/dicri/internal/auth"
	"github.com/erazemk/dicri/internal/metrics"
	"github.com/erazemk/dicri/internal/store"
)

// LoginPage handles GET /login.
func (s *Server) LoginPage(w http.ResponseWriter, r *http.Request) {
	s.Templates.Render(w, http.StatusOK, "login.html", &PageData{Title: "Iniciar sesión"})
}

// LoginSubmit handles POST /login.
func (s *Server) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	username := r.FormValue("username")
	password := r.FormValue("password")

	fail := func(status int, msg string) {
		s.Templates.Render(w, status, "login.html", &PageData{Title: "Iniciar sesión", Error: msg})
	}

	if !s.LoginLimiter.AllowRequest(r) {
		metrics.LoginAttempts.WithLabelValues("rate_limited").Inc()
		w.Header().Set("Retry-After", api.RetryAfter)
		fail(http.StatusTooManyRequests, "Demasiados intentos. Espere un minuto e intente de nuevo.")
		return
	}

	if username == "" || password == "" {
		fail(http.StatusBadRequest, "Ingrese usuario y contraseña.")
		return
	}

	user, err := store.GetUserByUsername(r.Context(), s.DB, username)
	if err != nil {
		slog.Error("failed to load user for login", "error", err)
		fail(http.StatusInternalServerError, "Error al iniciar sesión.")
		return
	}
	if user == nil || !user.Active || !auth.CheckPassword(user.PasswordHash, password) {
		metrics.LoginAttempts.WithLabelValues("failure").Inc()
		slog.Warn("web login failed", "username", username)
		fail(http.StatusUnauthorized, "Usuario o contraseña incorrectos.")
		return
	}

	token, err := auth.GenerateToken(s.JWTSecret, s.TokenExpiry, user.ID, user.Username, user.Role)
	if err != nil {
		slog.Error("failed to issue token", "error", err)
		fail(http.StatusInternalServerError, "Error al iniciar sesión.")
		return
	}

	metrics.LoginAttempts.WithLabelValues("success").Inc()
	slog.Info("user logged in", "user", user.Username, "via", "web")
	setAuthCookie(w, token, s.TokenExpiry)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout handles POST /logout. The token is revoked so a copied cookie
// stops working too.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(cookieName); err == nil {
		if claims, err := auth.ValidateToken(s.JWTSecret, cookie.Value); err == nil {
			expires := time.Now().Add(s.TokenExpiry)
			if claims.ExpiresAt != nil {
				expires = claims.ExpiresAt.Time
			}
			if err := store.RevokeToken(r.Context(), s.DB, claims.ID, expires); err != nil {
				slog.Error("failed to revoke token on logout", "error", err)
			}
		}
	}

	clearAuthCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
