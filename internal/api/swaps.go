package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/erazemk/omara/internal/model"
	"github.com/erazemk/omara/internal/store"
)

// SwapsHandler handles swap request and settlement endpoints.
type SwapsHandler struct {
	DB *sql.DB
}

type updateSwapStatusRequest struct {
	Status string `json:"status"`
}

// List handles GET /api/swaps.
func (h *SwapsHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	swaps, err := store.ListSwaps(r.Context(), h.DB, claims.UserID, r.URL.Query().Get("status"))
	if err != nil {
		storeError(w, err, "failed to list swaps")
		return
	}
	jsonResponse(w, http.StatusOK, swaps)
}

// Create handles POST /api/swaps.
func (h *SwapsHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var req model.SwapRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	swap, err := store.CreateSwap(r.Context(), h.DB, claims.UserID, req)
	if err != nil {
		storeError(w, err, "failed to create swap")
		return
	}

	slog.Info("swap requested",
		"user", claims.Email,
		"swap_id", swap.ID,
		"type", swap.Type,
		"owner_item_id", swap.OwnerItemID,
	)
	jsonResponse(w, http.StatusCreated, swap)
}

// UpdateStatus handles PUT /api/swaps/{id}/status.
func (h *SwapsHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "swap")
	if !ok {
		return
	}
	claims := GetClaims(r.Context())

	var req updateSwapStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	swap, err := store.TransitionSwap(r.Context(), h.DB, id, claims.UserID, req.Status)
	if err != nil {
		storeError(w, err, "failed to update swap")
		return
	}

	attrs := []any{"user", claims.Email, "swap_id", id, "status", swap.Status}
	if swap.Status == model.SwapStatusAccepted && swap.PointsOffered != nil {
		attrs = append(attrs, "points", *swap.PointsOffered, "from_user_id", swap.RequesterID)
	}
	slog.Info("swap status changed", attrs...)
	jsonResponse(w, http.StatusOK, swap)
}
