package web

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/erazemk/omara/internal/auth"
	"github.com/erazemk/omara/internal/model"
	"github.com/erazemk/omara/internal/store"
)

type authForm struct {
	PageData
	Email     string
	FirstName string
	LastName  string
}

// LoginPage handles GET /login.
func (s *Server) LoginPage(w http.ResponseWriter, r *http.Request) {
	s.Templates.Render(w, "login.html", &authForm{PageData: PageData{Title: "Sign in"}})
}

// LoginSubmit handles POST /login.
func (s *Server) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	email := r.FormValue("email")
	password := r.FormValue("password")
	form := &authForm{PageData: PageData{Title: "Sign in"}, Email: email}

	if email == "" || password == "" {
		form.Error = "Enter your email and password."
		s.Templates.RenderStatus(w, http.StatusBadRequest, "login.html", form)
		return
	}

	user, err := store.GetUserByEmail(r.Context(), s.DB, email)
	if err != nil {
		slog.Error("failed to look up user", "error", err)
	}
	if user == nil || !auth.CheckPassword(user.PasswordHash, password) {
		slog.Warn("web login failed", "email", email, "remote", r.RemoteAddr)
		form.Error = "Wrong email or password."
		s.Templates.RenderStatus(w, http.StatusUnauthorized, "login.html", form)
		return
	}

	if !s.startSession(w, user) {
		form.Error = "Could not sign you in."
		s.Templates.RenderStatus(w, http.StatusInternalServerError, "login.html", form)
		return
	}

	slog.Info("user logged in", "user", user.Email, "role", user.Role)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// RegisterPage handles GET /register.
func (s *Server) RegisterPage(w http.ResponseWriter, r *http.Request) {
	s.Templates.Render(w, "register.html", &authForm{PageData: PageData{Title: "Create account"}})
}

// RegisterSubmit handles POST /register.
func (s *Server) RegisterSubmit(w http.ResponseWriter, r *http.Request) {
	form := &authForm{
		PageData:  PageData{Title: "Create account"},
		Email:     r.FormValue("email"),
		FirstName: r.FormValue("first_name"),
		LastName:  r.FormValue("last_name"),
	}
	password := r.FormValue("password")

	if err := model.ValidatePassword(password); err != nil {
		form.Error = "Password must be at least 8 characters."
		s.Templates.RenderStatus(w, http.StatusBadRequest, "register.html", form)
		return
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		form.Error = "Could not create the account."
		s.Templates.RenderStatus(w, http.StatusInternalServerError, "register.html", form)
		return
	}

	user, err := store.CreateUser(r.Context(), s.DB, store.NewUser{
		Email:        form.Email,
		FirstName:    form.FirstName,
		LastName:     form.LastName,
		PasswordHash: hash,
	})
	switch {
	case errors.Is(err, model.ErrAlreadyExists):
		form.Error = "An account with this email already exists."
	case errors.Is(err, model.ErrValidation):
		form.Error = "Enter a valid email address."
	case err != nil:
		slog.Error("failed to register", "error", err)
		form.Error = "Could not create the account."
	}
	if err != nil {
		s.Templates.RenderStatus(w, formStatus(err), "register.html", form)
		return
	}

	slog.Info("user registered", "user", user.Email, "user_id", user.ID)
	if !s.startSession(w, user) {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// Logout handles POST /logout.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	if claims := GetWebClaims(r.Context()); claims != nil {
		if err := store.RevokeToken(r.Context(), s.DB, claims.ID, claims.ExpiresAt.Time); err != nil {
			slog.Error("failed to revoke token", "error", err)
		} else {
			slog.Info("user logged out", "user", claims.Email)
		}
	}
	auth.ClearCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) startSession(w http.ResponseWriter, user *model.User) bool {
	token, claims, err := auth.GenerateToken(s.JWTSecret, s.TokenTTL, user)
	if err != nil {
		slog.Error("failed to generate token", "error", err)
		return false
	}
	auth.SetCookie(w, token, claims.ExpiresAt.Time, s.SecureCookie)
	return true
}

// formStatus maps a store error onto the status a re-rendered form is sent with.
func formStatus(err error) int {
	switch {
	case errors.Is(err, model.ErrValidation), errors.Is(err, model.ErrInsufficientPoints):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrConflict), errors.Is(err, model.ErrAlreadyExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// userMessage turns a store error into text shown on a page.
func userMessage(err error) string {
	var ve *model.ValidationError
	switch {
	case errors.As(err, &ve):
		msg := "Please fix:"
		for _, fe := range ve.Errors {
			msg += " " + fe.Field + " " + fe.Message + "."
		}
		return msg
	case errors.Is(err, model.ErrInsufficientPoints):
		return "You do not have enough points."
	case errors.Is(err, model.ErrForbidden):
		return "You are not allowed to do that."
	case errors.Is(err, model.ErrNotFound):
		return "That no longer exists."
	case errors.Is(err, model.ErrConflict), errors.Is(err, model.ErrAlreadyExists):
		return "That is no longer possible."
	default:
		return "Something went wrong."
	}
}
