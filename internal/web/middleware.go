package web

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/erazemk/omara/internal/auth"
	"github.com/erazemk/omara/internal/store"
)

type webContextKey string

const webClaimsKey webContextKey = "webclaims"

// sessionClaims validates the session cookie, checks revocation and
// refreshes the role from the user row. A stale cookie is cleared.
func sessionClaims(w http.ResponseWriter, r *http.Request, secret string, db *sql.DB) *auth.Claims {
	cookie, err := r.Cookie(auth.CookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}

	claims, err := auth.ValidateToken(secret, cookie.Value)
	if err != nil {
		auth.ClearCookie(w)
		return nil
	}

	revoked, err := store.IsTokenRevoked(r.Context(), db, claims.ID)
	if err != nil {
		slog.Error("failed to check token revocation", "error", err)
		return nil
	}
	if revoked {
		auth.ClearCookie(w)
		return nil
	}

	user, err := store.GetUser(r.Context(), db, claims.UserID)
	if err != nil {
		slog.Error("failed to load session user", "error", err)
		return nil
	}
	if user == nil || user.DeletedAt != nil {
		auth.ClearCookie(w)
		return nil
	}
	claims.Role = user.Role
	claims.Email = user.Email
	return claims
}

// CookieAuthMiddleware requires a valid session cookie and redirects to the
// login page otherwise.
func CookieAuthMiddleware(secret string, db *sql.DB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := sessionClaims(w, r, secret, db)
			if claims == nil {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
			ctx := context.WithValue(r.Context(), webClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalCookieAuth attaches session claims when present and lets
// anonymous visitors through.
func OptionalCookieAuth(secret string, db *sql.DB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if claims := sessionClaims(w, r, secret, db); claims != nil {
				r = r.WithContext(context.WithValue(r.Context(), webClaimsKey, claims))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requireModerator responds 403 unless the session user can moderate.
func requireModerator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !GetWebClaims(r.Context()).CanModerate() {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetWebClaims retrieves the JWT claims from web context.
func GetWebClaims(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(webClaimsKey).(*auth.Claims)
	return claims
}
