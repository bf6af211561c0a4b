package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/erazemk/omara/internal/model"
)

// AddToWishlist records userID's interest in itemID.
func AddToWishlist(ctx context.Context, db *sql.DB, userID, itemID int64) (*model.WishlistEntry, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM items WHERE id = ?`, itemID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("item %d: %w", itemID, model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("checking item: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO wishlists (user_id, item_id) VALUES (?, ?)`, userID, itemID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("item %d already in wishlist: %w", itemID, model.ErrConflict)
		}
		return nil, fmt.Errorf("adding to wishlist: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing wishlist: %w", err)
	}

	entries, err := listWishlist(ctx, db, userID, itemID)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("reading wishlist entry: %w", model.ErrNotFound)
	}
	return &entries[0], nil
}

// RemoveFromWishlist deletes userID's wishlist entry for itemID.
func RemoveFromWishlist(ctx context.Context, db *sql.DB, userID, itemID int64) error {
	return execOne(ctx, db, "removing from wishlist",
		`DELETE FROM wishlists WHERE user_id = ? AND item_id = ?`, userID, itemID)
}

// ListWishlist returns userID's wishlist, newest first.
func ListWishlist(ctx context.Context, db *sql.DB, userID int64) ([]model.WishlistEntry, error) {
	return listWishlist(ctx, db, userID, 0)
}

func listWishlist(ctx context.Context, db *sql.DB, userID, itemID int64) ([]model.WishlistEntry, error) {
	query := `SELECT w.id, w.user_id, w.item_id, w.created_at, i.title, i.points_value, i.status
	          FROM wishlists w
	          JOIN items i ON i.id = w.item_id
	          WHERE w.user_id = ?`
	args := []any{userID}
	if itemID > 0 {
		query += ` AND w.item_id = ?`
		args = append(args, itemID)
	}
	query += ` ORDER BY w.created_at DESC, w.id DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing wishlist: %w", err)
	}
	defer rows.Close()

	entries := []model.WishlistEntry{}
	for rows.Next() {
		var e model.WishlistEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.ItemID, &e.CreatedAt, &e.ItemTitle, &e.ItemPointsValue, &e.ItemStatus); err != nil {
			return nil, fmt.Errorf("scanning wishlist entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
