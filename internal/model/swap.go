package model

import "time"

// Swap represents a request to exchange an item, either for another item or for points.
type Swap struct {
	ID              int64     `json:"id"`
	RequesterID     int64     `json:"requester_id"`
	OwnerID         int64     `json:"owner_id"`
	RequesterItemID *int64    `json:"requester_item_id,omitempty"`
	OwnerItemID     int64     `json:"owner_item_id"`
	Type            string    `json:"type"`
	PointsOffered   *int      `json:"points_offered,omitempty"`
	Status          string    `json:"status"`
	Message         string    `json:"message,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	// Joined fields (not always populated).
	RequesterName      string `json:"requester_name,omitempty"`
	OwnerName          string `json:"owner_name,omitempty"`
	OwnerItemTitle     string `json:"owner_item_title,omitempty"`
	RequesterItemTitle string `json:"requester_item_title,omitempty"`
}

// Counterparty returns the id of the other party of the swap.
func (s *Swap) Counterparty(userID int64) int64 {
	if s.RequesterID == userID {
		return s.OwnerID
	}
	return s.RequesterID
}

// Involves reports whether userID is the requester or the owner.
func (s *Swap) Involves(userID int64) bool {
	return s.RequesterID == userID || s.OwnerID == userID
}

// Swap types.
const (
	SwapTypeDirect = "direct_swap"
	SwapTypePoints = "points_redemption"
)

// Swap statuses.
const (
	SwapStatusPending   = "pending"
	SwapStatusAccepted  = "accepted"
	SwapStatusRejected  = "rejected"
	SwapStatusCompleted = "completed"
)

// MaxSwapMessageLength bounds the free-text note on a swap request.
const MaxSwapMessageLength = 500

// SwapTransitionFrom returns the status a swap must currently have to move
// to target, and false if target is not a status the owner may set.
func SwapTransitionFrom(target string) (string, bool) {
	switch target {
	case SwapStatusAccepted, SwapStatusRejected:
		return SwapStatusPending, true
	case SwapStatusCompleted:
		return SwapStatusAccepted, true
	}
	return "", false
}

// SwapRequest is the requester-supplied part of a new swap.
type SwapRequest struct {
	OwnerItemID     int64  `json:"owner_item_id"`
	RequesterItemID *int64 `json:"requester_item_id"`
	Type            string `json:"type"`
	PointsOffered   *int   `json:"points_offered"`
	Message         string `json:"message"`
}

// Validate checks the request shape; balance and ownership checks happen in the store.
func (r *SwapRequest) Validate() error {
	var v Validator
	v.Check(r.OwnerItemID > 0, "owner_item_id", "is required")
	v.Check(len(r.Message) <= MaxSwapMessageLength, "message", "is too long")
	switch r.Type {
	case SwapTypeDirect:
		v.Check(r.RequesterItemID != nil && *r.RequesterItemID > 0, "requester_item_id", "is required for a direct swap")
		v.Check(r.PointsOffered == nil, "points_offered", "not allowed for a direct swap")
	case SwapTypePoints:
		v.Check(r.RequesterItemID == nil, "requester_item_id", "not allowed for a points redemption")
		v.Check(r.PointsOffered != nil && *r.PointsOffered > 0, "points_offered", "must be positive")
	default:
		v.Check(false, "type", "must be direct_swap or points_redemption")
	}
	return v.Err()
}
