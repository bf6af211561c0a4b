package web

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/erazemk/omara/internal/imaging"
	webembed "github.com/erazemk/omara/web"
)

// Options configures the page router.
type Options struct {
	JWTSecret    string
	TokenTTL     time.Duration
	SecureCookie bool
	Images       *imaging.Processor
}

// NewRouter creates the web page router with all page routes registered.
func NewRouter(db *sql.DB, opts Options) (http.Handler, error) {
	templates, err := LoadTemplates()
	if err != nil {
		return nil, err
	}
	if opts.Images == nil {
		opts.Images = imaging.NewProcessor(0, 0)
	}

	s := &Server{
		DB:           db,
		Templates:    templates,
		JWTSecret:    opts.JWTSecret,
		TokenTTL:     opts.TokenTTL,
		SecureCookie: opts.SecureCookie,
		Images:       opts.Images,
	}

	mux := http.NewServeMux()
	cookieAuth := CookieAuthMiddleware(opts.JWTSecret, db)
	optionalAuth := OptionalCookieAuth(opts.JWTSecret, db)
	page := func(h http.HandlerFunc) http.Handler { return cookieAuth(h) }
	admin := func(h http.HandlerFunc) http.Handler { return cookieAuth(requireModerator(h)) }

	// Static assets.
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(webembed.Static()))))

	// Public routes.
	mux.HandleFunc("GET /login", s.LoginPage)
	mux.HandleFunc("POST /login", s.LoginSubmit)
	mux.HandleFunc("GET /register", s.RegisterPage)
	mux.HandleFunc("POST /register", s.RegisterSubmit)
	mux.Handle("POST /logout", optionalAuth(http.HandlerFunc(s.Logout)))
	mux.Handle("GET /{$}", optionalAuth(http.HandlerFunc(s.BrowsePage)))
	mux.Handle("GET /items/{id}", optionalAuth(http.HandlerFunc(s.ItemDetailPage)))

	// Member routes.
	mux.Handle("GET /items/new", page(s.ItemNewPage))
	mux.Handle("POST /items/new", page(s.ItemCreateSubmit))
	mux.Handle("POST /items/{id}/swap", page(s.SwapSubmit))
	mux.Handle("POST /items/{id}/wishlist", page(s.WishlistSubmit))
	mux.Handle("POST /items/{id}/delete", page(s.ItemDeleteSubmit))
	mux.Handle("GET /dashboard", page(s.Dashboard))
	mux.Handle("POST /swaps/{id}/status", page(s.SwapStatusSubmit))
	mux.Handle("POST /swaps/{id}/review", page(s.ReviewSubmit))
	mux.Handle("POST /profile", page(s.ProfileSubmit))
	mux.Handle("POST /password", page(s.PasswordSubmit))

	// Admin routes.
	mux.Handle("GET /admin", admin(s.AdminPage))
	mux.Handle("POST /admin/items/{id}/approve", admin(s.ApproveSubmit))
	mux.Handle("POST /admin/items/{id}/reject", admin(s.RejectSubmit))
	mux.Handle("POST /admin/users/{id}/role", admin(s.UserRoleSubmit))
	mux.Handle("POST /admin/users/{id}/password", admin(s.UserResetPasswordSubmit))
	mux.Handle("POST /admin/users/{id}/delete", admin(s.UserDeleteSubmit))

	return mux, nil
}
