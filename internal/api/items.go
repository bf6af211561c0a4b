package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/erazemk/omara/internal/auth"
	"github.com/erazemk/omara/internal/model"
	"github.com/erazemk/omara/internal/store"
)

// ItemsHandler handles listing endpoints.
type ItemsHandler struct {
	DB *sql.DB
}

// List handles GET /api/items. Only public items are listed unless a
// moderator asks for a specific status.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := store.FilterFromQuery(r.URL.Query())
	if status := r.URL.Query().Get("status"); status != "" && canModerate(GetClaims(r.Context())) {
		filter.Scope = store.ScopeStatus
		filter.Status = status
	}

	items, err := store.ListItems(r.Context(), h.DB, filter)
	if err != nil {
		storeError(w, err, "failed to list items")
		return
	}
	jsonResponse(w, http.StatusOK, items)
}

// ListForUser handles GET /api/users/{userId}/items. Owners see all their
// items, everyone else only the public ones.
func (h *ItemsHandler) ListForUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userId", "user")
	if !ok {
		return
	}

	filter := store.FilterFromQuery(r.URL.Query())
	filter.UserID = userID
	if claims := GetClaims(r.Context()); claims != nil && claims.UserID == userID {
		filter.Scope = store.ScopeAll
	}

	items, err := store.ListItems(r.Context(), h.DB, filter)
	if err != nil {
		storeError(w, err, "failed to list items")
		return
	}
	jsonResponse(w, http.StatusOK, items)
}

// Get handles GET /api/items/{id}. Items that are not public are visible
// only to their owner and moderators.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "item")
	if !ok {
		return
	}

	item, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "failed to get item")
		return
	}
	if item == nil || !visible(item, GetClaims(r.Context())) {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	jsonResponse(w, http.StatusOK, item)
}

func visible(item *model.Item, claims *auth.Claims) bool {
	if item.IsPublic() {
		return true
	}
	return claims != nil && (claims.UserID == item.UserID || claims.CanModerate())
}

// Create handles POST /api/items.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var req model.ItemInput
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := store.CreateItem(r.Context(), h.DB, claims.UserID, req)
	if err != nil {
		storeError(w, err, "failed to create item")
		return
	}

	slog.Info("item created", "user", claims.Email, "item_id", item.ID, "title", item.Title)
	jsonResponse(w, http.StatusCreated, item)
}

// Update handles PUT /api/items/{id}.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "item")
	if !ok {
		return
	}
	claims := GetClaims(r.Context())

	var req model.ItemPatch
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := store.UpdateItem(r.Context(), h.DB, id, claims.UserID, req)
	if err != nil {
		storeError(w, err, "failed to update item")
		return
	}

	slog.Info("item updated", "user", claims.Email, "item_id", id)
	jsonResponse(w, http.StatusOK, item)
}

// Delete handles DELETE /api/items/{id}.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "item")
	if !ok {
		return
	}
	claims := GetClaims(r.Context())

	hard, err := store.DeleteItem(r.Context(), h.DB, id, claims.UserID, canModerate(claims))
	if err != nil {
		storeError(w, err, "failed to delete item")
		return
	}

	if hard {
		slog.Info("item deleted", "user", claims.Email, "item_id", id)
		jsonResponse(w, http.StatusOK, map[string]string{"message": "item deleted"})
		return
	}
	slog.Info("item removed", "user", claims.Email, "item_id", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "item removed"})
}
