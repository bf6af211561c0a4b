package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"github.com/erazemk/omara/internal/model"
)

// CreateReview records reviewerID's review of the other party of a completed swap.
func CreateReview(ctx context.Context, db *sql.DB, reviewerID int64, in model.ReviewInput) (*model.Review, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var s model.Swap
	err = tx.QueryRowContext(ctx,
		`SELECT requester_id, owner_id, status FROM swaps WHERE id = ?`, in.SwapID,
	).Scan(&s.RequesterID, &s.OwnerID, &s.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("swap %d: %w", in.SwapID, model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting swap: %w", err)
	}
	if !s.Involves(reviewerID) {
		return nil, fmt.Errorf("reviewing swap %d: %w", in.SwapID, model.ErrForbidden)
	}
	if s.Status != model.SwapStatusCompleted {
		return nil, fmt.Errorf("swap %d is %s: %w", in.SwapID, s.Status, model.ErrConflict)
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO reviews (reviewer_id, reviewee_id, swap_id, rating, comment) VALUES (?, ?, ?, ?, ?)`,
		reviewerID, s.Counterparty(reviewerID), in.SwapID, in.Rating, in.Comment,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("swap %d already reviewed: %w", in.SwapID, model.ErrConflict)
		}
		return nil, fmt.Errorf("creating review: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing review: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting review id: %w", err)
	}
	reviews, err := listReviews(ctx, db, `r.id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(reviews) == 0 {
		return nil, fmt.Errorf("reading review %d: %w", id, model.ErrNotFound)
	}
	return &reviews[0], nil
}

// ListReviews returns the reviews revieweeID has received, newest first.
func ListReviews(ctx context.Context, db *sql.DB, revieweeID int64) ([]model.Review, error) {
	return listReviews(ctx, db, `r.reviewee_id = ?`, revieweeID)
}

// ListReviewsBy returns the reviews reviewerID has written, newest first.
func ListReviewsBy(ctx context.Context, db *sql.DB, reviewerID int64) ([]model.Review, error) {
	return listReviews(ctx, db, `r.reviewer_id = ?`, reviewerID)
}

func listReviews(ctx context.Context, db *sql.DB, where string, arg any) ([]model.Review, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT r.id, r.reviewer_id, r.reviewee_id, r.swap_id, r.rating, r.comment, r.created_at,
		        u.first_name, u.last_name, u.email
		 FROM reviews r
		 JOIN users u ON u.id = r.reviewer_id
		 WHERE `+where+`
		 ORDER BY r.created_at DESC, r.id DESC`, arg,
	)
	if err != nil {
		return nil, fmt.Errorf("listing reviews: %w", err)
	}
	defer rows.Close()

	reviews := []model.Review{}
	for rows.Next() {
		var (
			r        model.Review
			reviewer model.User
		)
		if err := rows.Scan(&r.ID, &r.ReviewerID, &r.RevieweeID, &r.SwapID, &r.Rating, &r.Comment, &r.CreatedAt,
			&reviewer.FirstName, &reviewer.LastName, &reviewer.Email); err != nil {
			return nil, fmt.Errorf("scanning review: %w", err)
		}
		r.ReviewerName = reviewer.DisplayName()
		reviews = append(reviews, r)
	}
	return reviews, rows.Err()
}

// GetRatingSummary returns the count and average of the ratings userID has received.
func GetRatingSummary(ctx context.Context, db *sql.DB, userID int64) (model.RatingSummary, error) {
	var (
		summary model.RatingSummary
		avg     float64
	)
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(AVG(rating), 0) FROM reviews WHERE reviewee_id = ?`, userID,
	).Scan(&summary.Count, &avg)
	if err != nil {
		return summary, fmt.Errorf("getting rating summary: %w", err)
	}
	summary.Average = math.Round(avg*100) / 100
	return summary, nil
}
