package api

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/omara/internal/store"
)

// WishlistHandler handles the caller's wishlist.
type WishlistHandler struct {
	DB *sql.DB
}

type addWishlistRequest struct {
	ItemID int64 `json:"item_id"`
}

// List handles GET /api/wishlist.
func (h *WishlistHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	entries, err := store.ListWishlist(r.Context(), h.DB, claims.UserID)
	if err != nil {
		storeError(w, err, "failed to list wishlist")
		return
	}
	jsonResponse(w, http.StatusOK, entries)
}

// Add handles POST /api/wishlist.
func (h *WishlistHandler) Add(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var req addWishlistRequest
	if err := decodeJSON(r, &req); err != nil || req.ItemID <= 0 {
		jsonError(w, http.StatusBadRequest, "item_id required")
		return
	}

	entry, err := store.AddToWishlist(r.Context(), h.DB, claims.UserID, req.ItemID)
	if err != nil {
		storeError(w, err, "failed to add to wishlist")
		return
	}
	jsonResponse(w, http.StatusCreated, entry)
}

// Remove handles DELETE /api/wishlist/{itemId}.
func (h *WishlistHandler) Remove(w http.ResponseWriter, r *http.Request) {
	itemID, ok := pathID(w, r, "itemId", "item")
	if !ok {
		return
	}
	claims := GetClaims(r.Context())

	if err := store.RemoveFromWishlist(r.Context(), h.DB, claims.UserID, itemID); err != nil {
		storeError(w, err, "failed to remove from wishlist")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "removed from wishlist"})
}
