package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/erazemk/omara/internal/model"
)

var itemColumns = []string{
	"i.id", "i.user_id", "i.title", "i.description", "i.category", "i.type", "i.size",
	"i.condition", "i.brand", "i.color", "i.tags", "i.points_value", "i.image_urls",
	"i.status", "i.is_approved", "i.created_at", "i.updated_at",
	"u.first_name", "u.last_name", "u.email",
}

func selectItems() sq.SelectBuilder {
	return sq.Select(itemColumns...).From("items i").Join("users u ON u.id = i.user_id")
}

func scanItem(row interface{ Scan(...any) error }) (*model.Item, error) {
	var (
		item  model.Item
		owner model.User
		tags  string
		urls  string
	)
	err := row.Scan(&item.ID, &item.UserID, &item.Title, &item.Description, &item.Category, &item.Type, &item.Size,
		&item.Condition, &item.Brand, &item.Color, &tags, &item.PointsValue, &urls,
		&item.Status, &item.IsApproved, &item.CreatedAt, &item.UpdatedAt,
		&owner.FirstName, &owner.LastName, &owner.Email)
	if err != nil {
		return nil, err
	}
	if item.Tags, err = decodeList(tags); err != nil {
		return nil, err
	}
	if item.ImageURLs, err = decodeList(urls); err != nil {
		return nil, err
	}
	item.OwnerName = owner.DisplayName()
	return &item, nil
}

// CreateItem creates a new listing owned by userID. Listings start pending
// and unapproved.
func CreateItem(ctx context.Context, db *sql.DB, userID int64, in model.ItemInput) (*model.Item, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	tags, err := encodeList(in.Tags)
	if err != nil {
		return nil, err
	}
	urls, err := encodeList(in.ImageURLs)
	if err != nil {
		return nil, err
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO items (user_id, title, description, category, type, size, condition,
		                    brand, color, tags, points_value, image_urls, status, is_approved)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0)`,
		userID, in.Title, in.Description, in.Category, in.Type, in.Size, in.Condition,
		in.Brand, in.Color, tags, in.PointsValue, urls, model.ItemStatusPending,
	)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting item id: %w", err)
	}

	return GetItem(ctx, db, id)
}

// GetItem returns an item by ID, or nil if it does not exist.
func GetItem(ctx context.Context, db *sql.DB, id int64) (*model.Item, error) {
	return getItem(ctx, db, id)
}

func getItem(ctx context.Context, q querier, id int64) (*model.Item, error) {
	query, args, err := selectItems().Where(sq.Eq{"i.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("building item query: %w", err)
	}

	item, err := scanItem(q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// ItemScope selects which statuses a listing query may return.
type ItemScope int

const (
	// ScopePublic returns only active, approved items.
	ScopePublic ItemScope = iota
	// ScopeStatus returns items with exactly ItemFilter.Status.
	ScopeStatus
	// ScopeAll applies no status restriction.
	ScopeAll
)

// Listing page limits.
const (
	DefaultItemLimit = 50
	MaxItemLimit     = 200
)

// ItemFilter narrows ListItems. Zero-valued fields are ignored.
type ItemFilter struct {
	Scope     ItemScope
	Status    string
	UserID    int64
	Category  string
	Condition string
	Size      string
	Type      string
	MinPoints int
	MaxPoints int
	Search    string
	Limit     int
	Offset    int
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ListItems returns items matching f, newest first.
func ListItems(ctx context.Context, db *sql.DB, f ItemFilter) ([]model.Item, error) {
	qb := selectItems()

	switch f.Scope {
	case ScopePublic:
		qb = qb.Where(sq.Eq{"i.status": model.ItemStatusActive, "i.is_approved": 1})
	case ScopeStatus:
		if !model.ValidItemStatus(f.Status) {
			return nil, model.NewValidationError("status", "unknown item status")
		}
		qb = qb.Where(sq.Eq{"i.status": f.Status})
	case ScopeAll:
	default:
		return nil, fmt.Errorf("listing items: unknown scope %d", f.Scope)
	}

	if f.UserID > 0 {
		qb = qb.Where(sq.Eq{"i.user_id": f.UserID})
	}
	if f.Category != "" {
		qb = qb.Where(sq.Eq{"i.category": f.Category})
	}
	if f.Condition != "" {
		qb = qb.Where(sq.Eq{"i.condition": f.Condition})
	}
	if f.Size != "" {
		qb = qb.Where(sq.Eq{"i.size": f.Size})
	}
	if f.Type != "" {
		qb = qb.Where(sq.Eq{"i.type": f.Type})
	}
	if f.MinPoints > 0 {
		qb = qb.Where(sq.GtOrEq{"i.points_value": f.MinPoints})
	}
	if f.MaxPoints > 0 {
		qb = qb.Where(sq.LtOrEq{"i.points_value": f.MaxPoints})
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		pattern := "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
		qb = qb.Where(sq.Or{
			sq.Expr(`fold(i.title) LIKE ? ESCAPE '\'`, pattern),
			sq.Expr(`fold(i.description) LIKE ? ESCAPE '\'`, pattern),
			sq.Expr(`fold(i.brand) LIKE ? ESCAPE '\'`, pattern),
		})
	}

	limit := f.Limit
	if limit <= 0 {
		limit = DefaultItemLimit
	}
	if limit > MaxItemLimit {
		limit = MaxItemLimit
	}
	offset := max(f.Offset, 0)

	query, args, err := qb.OrderBy("i.created_at DESC", "i.id DESC").
		Limit(uint64(limit)).Offset(uint64(offset)).ToSql()
	if err != nil {
		return nil, fmt.Errorf("building item query: %w", err)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	items := []model.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// UpdateItem applies a partial update to an item owned by callerID.
// Status and approval are never changed.
func UpdateItem(ctx context.Context, db *sql.DB, id, callerID int64, patch model.ItemPatch) (*model.Item, error) {
	item, err := GetItem(ctx, db, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("updating item %d: %w", id, model.ErrNotFound)
	}
	if item.UserID != callerID {
		return nil, fmt.Errorf("updating item %d: %w", id, model.ErrForbidden)
	}
	if item.Status == model.ItemStatusRemoved {
		return nil, fmt.Errorf("updating removed item %d: %w", id, model.ErrConflict)
	}

	in := patch.Apply(item)
	if err := in.Validate(); err != nil {
		return nil, err
	}

	tags, err := encodeList(in.Tags)
	if err != nil {
		return nil, err
	}
	urls, err := encodeList(in.ImageURLs)
	if err != nil {
		return nil, err
	}

	query, args, err := sq.Update("items").SetMap(map[string]any{
		"title":        in.Title,
		"description":  in.Description,
		"category":     in.Category,
		"type":         in.Type,
		"size":         in.Size,
		"condition":    in.Condition,
		"brand":        in.Brand,
		"color":        in.Color,
		"tags":         tags,
		"points_value": in.PointsValue,
		"image_urls":   urls,
		"updated_at":   sq.Expr("CURRENT_TIMESTAMP"),
	}).Where(sq.Eq{"id": id, "user_id": callerID}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("building item update: %w", err)
	}

	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("updating item: %w", err)
	}

	return GetItem(ctx, db, id)
}

// DeleteItem removes an item on behalf of its owner or a moderator. Items
// referenced by a swap are marked removed instead of being deleted. It
// reports whether the row was hard-deleted.
func DeleteItem(ctx context.Context, db *sql.DB, id, callerID int64, canModerate bool) (bool, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var ownerID int64
	err = tx.QueryRowContext(ctx, `SELECT user_id FROM items WHERE id = ?`, id).Scan(&ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("deleting item %d: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return false, fmt.Errorf("getting item owner: %w", err)
	}
	if ownerID != callerID && !canModerate {
		return false, fmt.Errorf("deleting item %d: %w", id, model.ErrForbidden)
	}

	hard, err := removeItem(ctx, tx, id)
	if err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing item delete: %w", err)
	}
	return hard, nil
}

// removeItem drops wishlist entries for the item, then deletes it, or marks
// it removed when swap history references it.
func removeItem(ctx context.Context, tx *sql.Tx, id int64) (bool, error) {
	if _, err := tx.ExecContext(ctx, `DELETE FROM wishlists WHERE item_id = ?`, id); err != nil {
		return false, fmt.Errorf("removing wishlist entries: %w", err)
	}

	var refs int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM swaps WHERE owner_item_id = ? OR requester_item_id = ?`, id, id,
	).Scan(&refs)
	if err != nil {
		return false, fmt.Errorf("counting item swaps: %w", err)
	}

	if refs > 0 {
		_, err = tx.ExecContext(ctx,
			`UPDATE items SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
			model.ItemStatusRemoved, id,
		)
		if err != nil {
			return false, fmt.Errorf("marking item removed: %w", err)
		}
		return false, nil
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id); err != nil {
		return false, fmt.Errorf("deleting item: %w", err)
	}
	return true, nil
}

// ApproveItem makes a pending item publicly visible.
func ApproveItem(ctx context.Context, db *sql.DB, id int64) (*model.Item, error) {
	result, err := db.ExecContext(ctx,
		`UPDATE items SET is_approved = 1, status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status = ?`,
		model.ItemStatusActive, id, model.ItemStatusPending,
	)
	if err != nil {
		return nil, fmt.Errorf("approving item: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("approving item: %w", err)
	}

	item, err := GetItem(ctx, db, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("approving item %d: %w", id, model.ErrNotFound)
	}
	if n == 0 {
		return nil, fmt.Errorf("approving item %d in status %s: %w", id, item.Status, model.ErrConflict)
	}
	return item, nil
}

// RejectItem deletes a pending item.
func RejectItem(ctx context.Context, db *sql.DB, id int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var status string
	err = tx.QueryRowContext(ctx, `SELECT status FROM items WHERE id = ?`, id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("rejecting item %d: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("getting item status: %w", err)
	}
	if status != model.ItemStatusPending {
		return fmt.Errorf("rejecting item %d in status %s: %w", id, status, model.ErrConflict)
	}

	if _, err := removeItem(ctx, tx, id); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing item reject: %w", err)
	}
	return nil
}
