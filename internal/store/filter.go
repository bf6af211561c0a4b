package store

import (
	"net/url"
	"strconv"
	"strings"
)

// FilterFromQuery reads listing filters from query parameters. Scope, Status
// and UserID are left for the caller to decide.
func FilterFromQuery(q url.Values) ItemFilter {
	atoi := func(key string) int {
		n, _ := strconv.Atoi(q.Get(key))
		return max(n, 0)
	}
	return ItemFilter{
		Category:  strings.TrimSpace(q.Get("category")),
		Condition: strings.TrimSpace(q.Get("condition")),
		Size:      strings.TrimSpace(q.Get("size")),
		Type:      strings.TrimSpace(q.Get("type")),
		MinPoints: atoi("min_points"),
		MaxPoints: atoi("max_points"),
		Search:    strings.TrimSpace(q.Get("search")),
		Limit:     atoi("limit"),
		Offset:    atoi("offset"),
	}
}
