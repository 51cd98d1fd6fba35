package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/erazemk/dicri/internal/auth"
	"github.com/erazemk/dicri/internal/model"
	"github.com/erazemk/dicri/internal/store"
)

func (s *Server) renderUsers(w http.ResponseWriter, r *http.Request, status int, errMsg, okMsg string) {
	users, err := store.ListUsers(r.Context(), s.DB)
	if err != nil {
		slog.Error("failed to list users", "error", err)
	}

	data := &struct {
		PageData
		Users []model.User
		Roles []model.Role
	}{
		PageData: s.page(r, "Usuarios"),
		Users:    users,
		Roles:    []model.Role{model.RoleTechnician, model.RoleCoordinator},
	}
	data.Error, data.Success = errMsg, okMsg
	s.Templates.Render(w, status, "users.html", data)
}

// UsersPage handles GET /users (coordinator only).
func (s *Server) UsersPage(w http.ResponseWriter, r *http.Request) {
	s.renderUsers(w, r, http.StatusOK, "", "")
}

// UserCreateSubmit handles POST /users (coordinator only).
func (s *Server) UserCreateSubmit(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.FormValue("username"))
	email := strings.TrimSpace(r.FormValue("email"))
	name := strings.TrimSpace(r.FormValue("name"))
	password := r.FormValue("password")

	role, err := model.ParseRole(r.FormValue("role"))
	if err != nil || username == "" || email == "" || name == "" {
		s.renderUsers(w, r, http.StatusBadRequest, "Complete todos los campos.", "")
		return
	}
	if err := model.ValidatePassword(password); err != nil {
		s.renderUsers(w, r, http.StatusBadRequest, "La contraseña es demasiado corta.", "")
		return
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		slog.Error("failed to hash password", "error", err)
		s.renderUsers(w, r, http.StatusInternalServerError, "Error interno.", "")
		return
	}

	if _, err := store.CreateUser(r.Context(), s.DB, username, email, hash, name, role); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			s.renderUsers(w, r, http.StatusConflict, "El usuario o correo ya existe.", "")
			return
		}
		slog.Error("failed to create user", "error", err)
		s.renderUsers(w, r, http.StatusInternalServerError, "Error interno.", "")
		return
	}

	slog.Info("user created", "user", GetWebClaims(r.Context()).Username, "new_user", username, "role", role)
	http.Redirect(w, r, "/users", http.StatusSeeOther)
}

// UserResetPasswordSubmit handles POST /users/{id}/password (coordinator only).
func (s *Server) UserResetPasswordSubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Redirect(w, r, "/users", http.StatusSeeOther)
		return
	}

	password := r.FormValue("new_password")
	if err := model.ValidatePassword(password); err != nil {
		s.renderUsers(w, r, http.StatusBadRequest, "La contraseña es demasiado corta.", "")
		return
	}

	hash, err := auth.HashPassword(password)
	if err == nil {
		err = store.UpdateUserPassword(r.Context(), s.DB, id, hash)
	}
	if err != nil {
		slog.Error("failed to reset password", "target_user", id, "error", err)
		s.renderUsers(w, r, http.StatusInternalServerError, "Error interno.", "")
		return
	}

	slog.Info("user password reset", "user", GetWebClaims(r.Context()).Username, "target_user", id)
	s.renderUsers(w, r, http.StatusOK, "", "Contraseña restablecida.")
}

// UserDeactivateSubmit handles POST /users/{id}/deactivate (coordinator only).
func (s *Server) UserDeactivateSubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Redirect(w, r, "/users", http.StatusSeeOther)
		return
	}

	claims := GetWebClaims(r.Context())
	if claims.UserID == id {
		s.renderUsers(w, r, http.StatusBadRequest, "No puede desactivar su propio usuario.", "")
		return
	}

	if _, err := store.DeactivateUser(r.Context(), s.DB, id); err != nil {
		slog.Error("failed to deactivate user", "target_user", id, "error", err)
		s.renderUsers(w, r, http.StatusInternalServerError, "Error interno.", "")
		return
	}

	slog.Info("user deactivated", "user", claims.Username, "target_user", id)
	http.Redirect(w, r, "/users", http.StatusSeeOther)
}

// SettingsPage handles GET /settings.
func (s *Server) SettingsPage(w http.ResponseWriter, r *http.Request) {
	data := s.page(r, "Mi cuenta")
	s.Templates.Render(w, http.StatusOK, "settings.html", &data)
}

// SettingsSubmit handles POST /settings (change own password).
func (s *Server) SettingsSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	data := s.page(r, "Mi cuenta")

	render := func(status int, errMsg, okMsg string) {
		data.Error, data.Success = errMsg, okMsg
		s.Templates.Render(w, status, "settings.html", &data)
	}

	current := r.FormValue("current_password")
	next := r.FormValue("new_password")
	if current == "" || next == "" {
		render(http.StatusBadRequest, "Ingrese la contraseña actual y la nueva.", "")
		return
	}
	if err := model.ValidatePassword(next); err != nil {
		render(http.StatusBadRequest, "La contraseña nueva es demasiado corta.", "")
		return
	}

	user, err := store.GetUser(r.Context(), s.DB, claims.UserID)
	if err != nil || user == nil {
		render(http.StatusInternalServerError, "Error al cargar el usuario.", "")
		return
	}
	if !auth.CheckPassword(user.PasswordHash, current) {
		render(http.StatusUnauthorized, "La contraseña actual no es correcta.", "")
		return
	}

	hash, err := auth.HashPassword(next)
	if err == nil {
		err = store.UpdateUserPassword(r.Context(), s.DB, claims.UserID, hash)
	}
	if err != nil {
		slog.Error("failed to change password", "user", claims.Username, "error", err)
		render(http.StatusInternalServerError, "Error al guardar la contraseña.", "")
		return
	}

	slog.Info("user changed own password", "user", claims.Username, "via", "web")
	render(http.StatusOK, "", "Contraseña actualizada.")
}
