package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/erazemk/omara/internal/model"
	"github.com/erazemk/omara/internal/store"
)

// AdminHandler handles the listing moderation queue.
type AdminHandler struct {
	DB *sql.DB
}

// Pending handles GET /api/admin/items.
func (h *AdminHandler) Pending(w http.ResponseWriter, r *http.Request) {
	filter := store.FilterFromQuery(r.URL.Query())
	filter.Scope = store.ScopeStatus
	filter.Status = model.ItemStatusPending

	items, err := store.ListItems(r.Context(), h.DB, filter)
	if err != nil {
		storeError(w, err, "failed to list pending items")
		return
	}
	jsonResponse(w, http.StatusOK, items)
}

// Approve handles PUT /api/admin/items/{id}/approve.
func (h *AdminHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "item")
	if !ok {
		return
	}

	item, err := store.ApproveItem(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "failed to approve item")
		return
	}

	slog.Info("item approved", "user", GetClaims(r.Context()).Email, "item_id", id)
	jsonResponse(w, http.StatusOK, item)
}

// Reject handles PUT /api/admin/items/{id}/reject.
func (h *AdminHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "item")
	if !ok {
		return
	}

	if err := store.RejectItem(r.Context(), h.DB, id); err != nil {
		storeError(w, err, "failed to reject item")
		return
	}

	slog.Info("item rejected", "user", GetClaims(r.Context()).Email, "item_id", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "item rejected"})
}
