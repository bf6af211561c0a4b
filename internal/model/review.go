package model

import "time"

// Review is feedback left by one party of a completed swap about the other.
type Review struct {
	ID         int64     `json:"id"`
	ReviewerID int64     `json:"reviewer_id"`
	RevieweeID int64     `json:"reviewee_id"`
	SwapID     int64     `json:"swap_id"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment,omitempty"`
	CreatedAt  time.Time `json:"created_at"`

	// Joined fields (not always populated).
	ReviewerName string `json:"reviewer_name,omitempty"`
}

// RatingSummary aggregates the reviews a user has received.
type RatingSummary struct {
	Count   int     `json:"count"`
	Average float64 `json:"average"`
}

// Review limits.
const (
	MinRating        = 1
	MaxRating        = 5
	MaxCommentLength = 1000
)

// ReviewInput is the reviewer-supplied part of a review.
type ReviewInput struct {
	SwapID  int64  `json:"swap_id"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// Validate checks the input fields.
func (in *ReviewInput) Validate() error {
	var v Validator
	v.Check(in.SwapID > 0, "swap_id", "is required")
	v.Check(in.Rating >= MinRating && in.Rating <= MaxRating, "rating", "must be between 1 and 5")
	v.Check(len(in.Comment) <= MaxCommentLength, "comment", "is too long")
	return v.Err()
}
