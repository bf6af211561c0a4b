package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/erazemk/omara/internal/model"
)

func selectSwaps() sq.SelectBuilder {
	return sq.Select(
		"s.id", "s.requester_id", "s.owner_id", "s.requester_item_id", "s.owner_item_id",
		"s.type", "s.points_offered", "s.status", "s.message", "s.created_at", "s.updated_at",
		"ru.first_name", "ru.last_name", "ru.email",
		"ou.first_name", "ou.last_name", "ou.email",
		"oi.title", "COALESCE(ri.title, '')",
	).
		From("swaps s").
		Join("users ru ON ru.id = s.requester_id").
		Join("users ou ON ou.id = s.owner_id").
		Join("items oi ON oi.id = s.owner_item_id").
		LeftJoin("items ri ON ri.id = s.requester_item_id")
}

func scanSwap(row interface{ Scan(...any) error }) (*model.Swap, error) {
	var (
		s                    model.Swap
		requester, ownerUser model.User
	)
	err := row.Scan(&s.ID, &s.RequesterID, &s.OwnerID, &s.RequesterItemID, &s.OwnerItemID,
		&s.Type, &s.PointsOffered, &s.Status, &s.Message, &s.CreatedAt, &s.UpdatedAt,
		&requester.FirstName, &requester.LastName, &requester.Email,
		&ownerUser.FirstName, &ownerUser.LastName, &ownerUser.Email,
		&s.OwnerItemTitle, &s.RequesterItemTitle)
	if err != nil {
		return nil, err
	}
	s.RequesterName = requester.DisplayName()
	s.OwnerName = ownerUser.DisplayName()
	return &s, nil
}

// CreateSwap records a swap request from requesterID. The owner is taken
// from the requested item.
func CreateSwap(ctx context.Context, db *sql.DB, requesterID int64, req model.SwapRequest) (*model.Swap, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	ownerItem, err := getItem(ctx, tx, req.OwnerItemID)
	if err != nil {
		return nil, err
	}
	if ownerItem == nil {
		return nil, fmt.Errorf("item %d: %w", req.OwnerItemID, model.ErrNotFound)
	}
	if ownerItem.UserID == requesterID {
		return nil, model.NewValidationError("owner_item_id", "cannot request your own item")
	}
	if !ownerItem.IsPublic() {
		return nil, fmt.Errorf("item %d is not available: %w", ownerItem.ID, model.ErrConflict)
	}

	switch req.Type {
	case model.SwapTypeDirect:
		offered, err := getItem(ctx, tx, *req.RequesterItemID)
		if err != nil {
			return nil, err
		}
		if offered == nil {
			return nil, fmt.Errorf("item %d: %w", *req.RequesterItemID, model.ErrNotFound)
		}
		if offered.UserID != requesterID {
			return nil, fmt.Errorf("offering item %d: %w", offered.ID, model.ErrForbidden)
		}
		if offered.Status != model.ItemStatusActive {
			return nil, fmt.Errorf("offered item %d is %s: %w", offered.ID, offered.Status, model.ErrConflict)
		}

	case model.SwapTypePoints:
		if *req.PointsOffered < ownerItem.PointsValue {
			return nil, model.NewValidationError("points_offered", "must cover the item's points value")
		}
		var balance int
		err := tx.QueryRowContext(ctx,
			`SELECT points FROM users WHERE id = ? AND deleted_at IS NULL`, requesterID,
		).Scan(&balance)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %d: %w", requesterID, model.ErrNotFound)
		}
		if err != nil {
			return nil, fmt.Errorf("getting balance: %w", err)
		}
		if *req.PointsOffered > balance {
			return nil, fmt.Errorf("have %d, offered %d: %w", balance, *req.PointsOffered, model.ErrInsufficientPoints)
		}
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO swaps (requester_id, owner_id, requester_item_id, owner_item_id, type, points_offered, status, message)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		requesterID, ownerItem.UserID, req.RequesterItemID, ownerItem.ID, req.Type, req.PointsOffered,
		model.SwapStatusPending, req.Message,
	)
	if err != nil {
		return nil, fmt.Errorf("creating swap: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing swap: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting swap id: %w", err)
	}
	return GetSwap(ctx, db, id)
}

// GetSwap returns a swap by ID, or nil if it does not exist.
func GetSwap(ctx context.Context, db *sql.DB, id int64) (*model.Swap, error) {
	query, args, err := selectSwaps().Where(sq.Eq{"s.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("building swap query: %w", err)
	}

	s, err := scanSwap(db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting swap: %w", err)
	}
	return s, nil
}

// ListSwaps returns swaps where userID is the requester or the owner, newest
// first, optionally filtered by status.
func ListSwaps(ctx context.Context, db *sql.DB, userID int64, status string) ([]model.Swap, error) {
	qb := selectSwaps().Where(sq.Or{
		sq.Eq{"s.requester_id": userID},
		sq.Eq{"s.owner_id": userID},
	})
	if status != "" {
		qb = qb.Where(sq.Eq{"s.status": status})
	}

	query, args, err := qb.OrderBy("s.created_at DESC", "s.id DESC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("building swap query: %w", err)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing swaps: %w", err)
	}
	defer rows.Close()

	swaps := []model.Swap{}
	for rows.Next() {
		s, err := scanSwap(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning swap: %w", err)
		}
		swaps = append(swaps, *s)
	}
	return swaps, rows.Err()
}

// TransitionSwap moves a swap to status on behalf of its owner. Accepting
// settles the swap in the same transaction: points move from requester to
// owner and the exchanged items are marked swapped. Any failure leaves the
// swap, balances and items unchanged.
func TransitionSwap(ctx context.Context, db *sql.DB, swapID, callerID int64, status string) (*model.Swap, error) {
	from, ok := model.SwapTransitionFrom(status)
	if !ok {
		return nil, model.NewValidationError("status", "must be accepted, rejected or completed")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var (
		s       model.Swap
		current string
	)
	err = tx.QueryRowContext(ctx,
		`SELECT requester_id, owner_id, requester_item_id, owner_item_id, type, points_offered, status
		 FROM swaps WHERE id = ?`, swapID,
	).Scan(&s.RequesterID, &s.OwnerID, &s.RequesterItemID, &s.OwnerItemID, &s.Type, &s.PointsOffered, &current)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("swap %d: %w", swapID, model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting swap: %w", err)
	}
	if s.OwnerID != callerID {
		return nil, fmt.Errorf("updating swap %d: %w", swapID, model.ErrForbidden)
	}

	// Compare-and-set on the current status so a swap settles at most once.
	result, err := tx.ExecContext(ctx,
		`UPDATE swaps SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND status = ?`,
		status, swapID, from,
	)
	if err != nil {
		return nil, fmt.Errorf("updating swap status: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("updating swap status: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("swap %d is %s, cannot become %s: %w", swapID, current, status, model.ErrConflict)
	}

	if status == model.SwapStatusAccepted {
		if err := settleSwap(ctx, tx, &s); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing swap transition: %w", err)
	}

	return GetSwap(ctx, db, swapID)
}

func settleSwap(ctx context.Context, tx *sql.Tx, s *model.Swap) error {
	if s.Type == model.SwapTypePoints && s.PointsOffered != nil {
		amount := *s.PointsOffered

		result, err := tx.ExecContext(ctx,
			`UPDATE users SET points = points - ?, updated_at = CURRENT_TIMESTAMP
			 WHERE id = ? AND points >= ?`,
			amount, s.RequesterID, amount,
		)
		if err != nil {
			return fmt.Errorf("debiting requester: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("debiting requester: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("debiting %d from user %d: %w", amount, s.RequesterID, model.ErrInsufficientPoints)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE users SET points = points + ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
			amount, s.OwnerID,
		); err != nil {
			return fmt.Errorf("crediting owner: %w", err)
		}
	}

	if err := markSwapped(ctx, tx, s.OwnerItemID); err != nil {
		return err
	}
	if s.RequesterItemID != nil {
		if err := markSwapped(ctx, tx, *s.RequesterItemID); err != nil {
			return err
		}
	}
	return nil
}

// markSwapped moves an active item to swapped; an item that is no longer
// active cannot be exchanged again.
func markSwapped(ctx context.Context, tx *sql.Tx, itemID int64) error {
	result, err := tx.ExecContext(ctx,
		`UPDATE items SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND status = ?`,
		model.ItemStatusSwapped, itemID, model.ItemStatusActive,
	)
	if err != nil {
		return fmt.Errorf("marking item swapped: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("marking item swapped: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("item %d is no longer available: %w", itemID, model.ErrConflict)
	}
	return nil
}
