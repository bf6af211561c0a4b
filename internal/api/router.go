package api

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/erazemk/omara/internal/imaging"
)

// Options configures the API router.
type Options struct {
	JWTSecret    string
	TokenTTL     time.Duration
	SecureCookie bool
	Images       *imaging.Processor
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, opts Options) http.Handler {
	if opts.Images == nil {
		opts.Images = imaging.NewProcessor(0, 0)
	}

	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: opts.JWTSecret, TokenTTL: opts.TokenTTL, SecureCookie: opts.SecureCookie}
	usersHandler := &UsersHandler{DB: db}
	itemsHandler := &ItemsHandler{DB: db}
	swapsHandler := &SwapsHandler{DB: db}
	wishlistHandler := &WishlistHandler{DB: db}
	reviewsHandler := &ReviewsHandler{DB: db}
	adminHandler := &AdminHandler{DB: db}
	imagesHandler := &ImagesHandler{DB: db, Processor: opts.Images}

	authMW := AuthMiddleware(opts.JWTSecret, db)
	optionalMW := OptionalAuthMiddleware(opts.JWTSecret, db)
	admin := func(h http.HandlerFunc) http.Handler { return authMW(RequireModerator(h)) }

	// Public.
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("GET /api/points/suggest", Suggest)
	mux.HandleFunc("GET /api/images/{id}", imagesHandler.Get)

	// Session.
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))
	mux.Handle("GET /api/auth/user", authMW(http.HandlerFunc(authHandler.Me)))
	mux.Handle("PUT /api/auth/user", authMW(http.HandlerFunc(authHandler.UpdateProfile)))
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))

	// Items: anyone may browse, members may list.
	mux.Handle("GET /api/items", optionalMW(http.HandlerFunc(itemsHandler.List)))
	mux.Handle("GET /api/items/{id}", optionalMW(http.HandlerFunc(itemsHandler.Get)))
	mux.Handle("POST /api/items", authMW(http.HandlerFunc(itemsHandler.Create)))
	mux.Handle("PUT /api/items/{id}", authMW(http.HandlerFunc(itemsHandler.Update)))
	mux.Handle("DELETE /api/items/{id}", authMW(http.HandlerFunc(itemsHandler.Delete)))
	mux.Handle("PUT /api/images", authMW(http.HandlerFunc(imagesHandler.Upload)))

	// Users.
	mux.Handle("GET /api/users/{userId}", optionalMW(http.HandlerFunc(usersHandler.Profile)))
	mux.Handle("GET /api/users/{userId}/items", optionalMW(http.HandlerFunc(itemsHandler.ListForUser)))
	mux.Handle("GET /api/users/{userId}/reviews", optionalMW(http.HandlerFunc(reviewsHandler.ListForUser)))

	// Swaps.
	mux.Handle("GET /api/swaps", authMW(http.HandlerFunc(swapsHandler.List)))
	mux.Handle("POST /api/swaps", authMW(http.HandlerFunc(swapsHandler.Create)))
	mux.Handle("PUT /api/swaps/{id}/status", authMW(http.HandlerFunc(swapsHandler.UpdateStatus)))

	// Wishlist.
	mux.Handle("GET /api/wishlist", authMW(http.HandlerFunc(wishlistHandler.List)))
	mux.Handle("POST /api/wishlist", authMW(http.HandlerFunc(wishlistHandler.Add)))
	mux.Handle("DELETE /api/wishlist/{itemId}", authMW(http.HandlerFunc(wishlistHandler.Remove)))

	// Reviews.
	mux.Handle("POST /api/reviews", authMW(http.HandlerFunc(reviewsHandler.Create)))

	// Moderation and user management.
	mux.Handle("GET /api/admin/items", admin(adminHandler.Pending))
	mux.Handle("PUT /api/admin/items/{id}/approve", admin(adminHandler.Approve))
	mux.Handle("PUT /api/admin/items/{id}/reject", admin(adminHandler.Reject))
	mux.Handle("GET /api/admin/users", admin(usersHandler.List))
	mux.Handle("PUT /api/admin/users/{id}", admin(usersHandler.Update))
	mux.Handle("PUT /api/admin/users/{id}/password", admin(usersHandler.ResetPassword))
	mux.Handle("DELETE /api/admin/users/{id}", admin(usersHandler.Delete))

	return mux
}
