package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/erazemk/omara/internal/model"
	"github.com/erazemk/omara/internal/store"
)

// ReviewsHandler handles post-swap reviews.
type ReviewsHandler struct {
	DB *sql.DB
}

// Create handles POST /api/reviews.
func (h *ReviewsHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var req model.ReviewInput
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	review, err := store.CreateReview(r.Context(), h.DB, claims.UserID, req)
	if err != nil {
		storeError(w, err, "failed to create review")
		return
	}

	slog.Info("review created", "user", claims.Email, "swap_id", review.SwapID, "reviewee_id", review.RevieweeID, "rating", review.Rating)
	jsonResponse(w, http.StatusCreated, review)
}

// ListForUser handles GET /api/users/{userId}/reviews.
func (h *ReviewsHandler) ListForUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userId", "user")
	if !ok {
		return
	}

	reviews, err := store.ListReviews(r.Context(), h.DB, userID)
	if err != nil {
		storeError(w, err, "failed to list reviews")
		return
	}
	jsonResponse(w, http.StatusOK, reviews)
}
