package api

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/omara/internal/model"
)

// Suggest handles GET /api/points/suggest.
func Suggest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	jsonResponse(w, http.StatusOK, map[string]int{
		"points_value": model.SuggestPointsValue(q.Get("condition"), q.Get("brand")),
	})
}

// Health returns a handler reporting whether the database is reachable.
func Health(db *sql.DB) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			jsonError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
		jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}
