package model

import "time"

// WishlistEntry marks an item a user is interested in.
type WishlistEntry struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	ItemID    int64     `json:"item_id"`
	CreatedAt time.Time `json:"created_at"`

	// Joined fields (not always populated).
	ItemTitle       string `json:"item_title,omitempty"`
	ItemPointsValue int    `json:"item_points_value,omitempty"`
	ItemStatus      string `json:"item_status,omitempty"`
}
