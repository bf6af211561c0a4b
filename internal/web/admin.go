package web

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/erazemk/omara/internal/auth"
	"github.com/erazemk/omara/internal/model"
	"github.com/erazemk/omara/internal/store"
)

// AdminPage handles GET /admin (moderators only).
func (s *Server) AdminPage(w http.ResponseWriter, r *http.Request) {
	var (
		pending []model.Item
		users   []model.User
	)

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) {
		pending, err = store.ListItems(ctx, s.DB, store.ItemFilter{
			Scope:  store.ScopeStatus,
			Status: model.ItemStatusPending,
			Limit:  store.MaxItemLimit,
		})
		return err
	})
	g.Go(func() (err error) {
		users, err = store.ListUsers(ctx, s.DB)
		return err
	})

	pd := s.page(r, "Admin")
	if err := g.Wait(); err != nil {
		slog.Error("failed to load admin page", "error", err)
		pd.Error = "Some data could not be loaded."
	}

	s.Templates.Render(w, "admin.html", &struct {
		PageData
		Pending []model.Item
		Users   []model.User
		Roles   []string
	}{
		PageData: pd,
		Pending:  pending,
		Users:    users,
		Roles:    []string{model.RoleUser, model.RoleAdmin},
	})
}

// ApproveSubmit handles POST /admin/items/{id}/approve.
func (s *Server) ApproveSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	if _, err := store.ApproveItem(r.Context(), s.DB, id); err != nil {
		if formStatus(err) == http.StatusInternalServerError {
			slog.Error("failed to approve item", "error", err)
		}
		redirectTo(w, r, "/admin", err, "")
		return
	}

	slog.Info("item approved", "user", claims.Email, "item_id", id)
	redirectTo(w, r, "/admin", nil, "Item approved.")
}

// RejectSubmit handles POST /admin/items/{id}/reject.
func (s *Server) RejectSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	if err := store.RejectItem(r.Context(), s.DB, id); err != nil {
		if formStatus(err) == http.StatusInternalServerError {
			slog.Error("failed to reject item", "error", err)
		}
		redirectTo(w, r, "/admin", err, "")
		return
	}

	slog.Info("item rejected", "user", claims.Email, "item_id", id)
	redirectTo(w, r, "/admin", nil, "Item rejected.")
}

// UserRoleSubmit handles POST /admin/users/{id}/role.
func (s *Server) UserRoleSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}

	role := r.FormValue("role")
	if id == claims.UserID && role != model.RoleAdmin {
		redirectTo(w, r, "/admin", model.NewValidationError("role", "cannot remove your own admin role"), "")
		return
	}

	if err := store.UpdateUserRole(r.Context(), s.DB, id, role); err != nil {
		if formStatus(err) == http.StatusInternalServerError {
			slog.Error("failed to update role", "error", err)
		}
		redirectTo(w, r, "/admin", err, "")
		return
	}

	slog.Info("user role updated", "user", claims.Email, "target_user_id", id, "new_role", role)
	redirectTo(w, r, "/admin", nil, "Role updated.")
}

// UserResetPasswordSubmit handles POST /admin/users/{id}/password. An empty
// password field generates one and shows it once.
func (s *Server) UserResetPasswordSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}

	password := r.FormValue("new_password")
	generated := password == ""
	if generated {
		if password, err = auth.GeneratePassword(16); err != nil {
			slog.Error("failed to generate password", "error", err)
			redirectTo(w, r, "/admin", err, "")
			return
		}
	}
	if err := model.ValidatePassword(password); err != nil {
		redirectTo(w, r, "/admin", model.NewValidationError("new_password", err.Error()), "")
		return
	}

	hash, err := auth.HashPassword(password)
	if err == nil {
		err = store.UpdateUserPassword(r.Context(), s.DB, id, hash)
	}
	if err != nil {
		if formStatus(err) == http.StatusInternalServerError {
			slog.Error("failed to reset password", "error", err)
		}
		redirectTo(w, r, "/admin", err, "")
		return
	}

	slog.Info("user password reset", "user", claims.Email, "target_user_id", id)
	msg := "Password reset."
	if generated {
		msg = fmt.Sprintf("Password reset. New password: %s", password)
	}
	redirectTo(w, r, "/admin", nil, msg)
}

// UserDeleteSubmit handles POST /admin/users/{id}/delete.
func (s *Server) UserDeleteSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}
	if id == claims.UserID {
		redirectTo(w, r, "/admin", model.NewValidationError("user", "cannot delete yourself"), "")
		return
	}

	if err := store.DeleteUser(r.Context(), s.DB, id); err != nil {
		if formStatus(err) == http.StatusInternalServerError {
			slog.Error("failed to delete user", "error", err)
		}
		redirectTo(w, r, "/admin", err, "")
		return
	}

	slog.Info("user deleted", "user", claims.Email, "target_user_id", id)
	redirectTo(w, r, "/admin", nil, "User deleted.")
}
