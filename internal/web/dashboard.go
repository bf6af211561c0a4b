package web

import (
	"log/slog"
	"net/http"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/erazemk/omara/internal/auth"
	"github.com/erazemk/omara/internal/model"
	"github.com/erazemk/omara/internal/store"
)

type dashboardSwap struct {
	model.Swap
	Incoming bool
	Reviewed bool
}

// Dashboard handles GET /dashboard.
func (s *Server) Dashboard(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())

	var (
		user     *model.User
		items    []model.Item
		swaps    []model.Swap
		wishlist []model.WishlistEntry
		received []model.Review
		written  []model.Review
		rating   model.RatingSummary
	)

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) {
		user, err = store.GetUser(ctx, s.DB, claims.UserID)
		return err
	})
	g.Go(func() (err error) {
		items, err = store.ListItems(ctx, s.DB, store.ItemFilter{
			Scope:  store.ScopeAll,
			UserID: claims.UserID,
			Limit:  store.MaxItemLimit,
		})
		return err
	})
	g.Go(func() (err error) {
		swaps, err = store.ListSwaps(ctx, s.DB, claims.UserID, "")
		return err
	})
	g.Go(func() (err error) {
		wishlist, err = store.ListWishlist(ctx, s.DB, claims.UserID)
		return err
	})
	g.Go(func() (err error) {
		received, err = store.ListReviews(ctx, s.DB, claims.UserID)
		return err
	})
	g.Go(func() (err error) {
		written, err = store.ListReviewsBy(ctx, s.DB, claims.UserID)
		return err
	})
	g.Go(func() (err error) {
		rating, err = store.GetRatingSummary(ctx, s.DB, claims.UserID)
		return err
	})

	pd := s.page(r, "Dashboard")
	if err := g.Wait(); err != nil {
		slog.Error("failed to load dashboard", "error", err)
		pd.Error = "Some of your data could not be loaded."
	}
	if user == nil {
		user = &model.User{Email: claims.Email}
	}

	reviewed := make(map[int64]bool, len(written))
	for _, rv := range written {
		reviewed[rv.SwapID] = true
	}
	rows := make([]dashboardSwap, 0, len(swaps))
	for _, sw := range swaps {
		rows = append(rows, dashboardSwap{
			Swap:     sw,
			Incoming: sw.OwnerID == claims.UserID,
			Reviewed: reviewed[sw.ID],
		})
	}

	s.Templates.Render(w, "dashboard.html", &struct {
		PageData
		Me       *model.User
		Items    []model.Item
		Swaps    []dashboardSwap
		Wishlist []model.WishlistEntry
		Reviews  []model.Review
		Rating   model.RatingSummary
	}{
		PageData: pd,
		Me:       user,
		Items:    items,
		Swaps:    rows,
		Wishlist: wishlist,
		Reviews:  received,
		Rating:   rating,
	})
}

// SwapStatusSubmit handles POST /swaps/{id}/status.
func (s *Server) SwapStatusSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	swap, err := store.TransitionSwap(r.Context(), s.DB, id, claims.UserID, r.FormValue("status"))
	if err != nil {
		if formStatus(err) == http.StatusInternalServerError {
			slog.Error("failed to update swap", "error", err)
		}
		redirectTo(w, r, "/dashboard", err, "")
		return
	}

	slog.Info("swap status changed", "user", claims.Email, "swap_id", id, "status", swap.Status)
	redirectTo(w, r, "/dashboard", nil, "Swap "+swap.Status+".")
}

// ReviewSubmit handles POST /swaps/{id}/review.
func (s *Server) ReviewSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	rating, _ := strconv.Atoi(r.FormValue("rating"))
	review, err := store.CreateReview(r.Context(), s.DB, claims.UserID, model.ReviewInput{
		SwapID:  id,
		Rating:  rating,
		Comment: r.FormValue("comment"),
	})
	if err != nil {
		if formStatus(err) == http.StatusInternalServerError {
			slog.Error("failed to create review", "error", err)
		}
		redirectTo(w, r, "/dashboard", err, "")
		return
	}

	slog.Info("review created", "user", claims.Email, "swap_id", id, "reviewee_id", review.RevieweeID, "rating", rating)
	redirectTo(w, r, "/dashboard", nil, "Thanks for the review.")
}

// ProfileSubmit handles POST /profile.
func (s *Server) ProfileSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())

	_, err := store.UpdateProfile(r.Context(), s.DB, claims.UserID, store.ProfileUpdate{
		FirstName:       r.FormValue("first_name"),
		LastName:        r.FormValue("last_name"),
		ProfileImageURL: r.FormValue("profile_image_url"),
	})
	if err != nil {
		if formStatus(err) == http.StatusInternalServerError {
			slog.Error("failed to update profile", "error", err)
		}
		redirectTo(w, r, "/dashboard", err, "")
		return
	}

	slog.Info("profile updated", "user", claims.Email)
	redirectTo(w, r, "/dashboard", nil, "Profile saved.")
}

// PasswordSubmit handles POST /password (change own password).
func (s *Server) PasswordSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())

	current := r.FormValue("current_password")
	next := r.FormValue("new_password")
	if err := model.ValidatePassword(next); err != nil {
		redirectTo(w, r, "/dashboard", model.NewValidationError("new_password", err.Error()), "")
		return
	}

	user, err := store.GetUser(r.Context(), s.DB, claims.UserID)
	if err == nil && user == nil {
		err = model.ErrNotFound
	}
	if err != nil {
		redirectTo(w, r, "/dashboard", err, "")
		return
	}
	if !auth.CheckPassword(user.PasswordHash, current) {
		redirectTo(w, r, "/dashboard", model.NewValidationError("current_password", "is incorrect"), "")
		return
	}

	hash, err := auth.HashPassword(next)
	if err == nil {
		err = store.UpdateUserPassword(r.Context(), s.DB, claims.UserID, hash)
	}
	if err != nil {
		slog.Error("failed to update password", "error", err)
		redirectTo(w, r, "/dashboard", err, "")
		return
	}

	slog.Info("user changed own password", "user", claims.Email)
	redirectTo(w, r, "/dashboard", nil, "Password changed.")
}
