package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/erazemk/omara/internal/model"
)

const userColumns = `id, email, first_name, last_name, profile_image_url, password_hash,
	role, points, created_at, updated_at, deleted_at`

func scanUser(row interface{ Scan(...any) error }, u *model.User) error {
	return row.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.ProfileImageURL, &u.PasswordHash,
		&u.Role, &u.Points, &u.CreatedAt, &u.UpdatedAt, &u.DeletedAt)
}

// NewUser holds the fields required to register an account.
type NewUser struct {
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
	Role         string
}

// CreateUser creates a new user with the default points balance.
func CreateUser(ctx context.Context, db *sql.DB, nu NewUser) (*model.User, error) {
	email := model.NormalizeEmail(nu.Email)
	if err := model.ValidateEmail(email); err != nil {
		return nil, err
	}
	role := nu.Role
	if role == "" {
		role = model.RoleUser
	}
	if !model.ValidRole(role) {
		return nil, model.NewValidationError("role", "must be admin or user")
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO users (email, first_name, last_name, password_hash, role, points)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		email, nu.FirstName, nu.LastName, nu.PasswordHash, role, model.DefaultPoints,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("creating user %q: %w", email, model.ErrAlreadyExists)
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting user id: %w", err)
	}

	return GetUser(ctx, db, id)
}

// GetUser returns a user by ID, or nil if it does not exist.
func GetUser(ctx context.Context, db *sql.DB, id int64) (*model.User, error) {
	u := &model.User{}
	err := scanUser(db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id), u)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return u, nil
}

// GetUserByEmail returns the non-deleted user with the given email.
func GetUserByEmail(ctx context.Context, db *sql.DB, email string) (*model.User, error) {
	u := &model.User{}
	err := scanUser(db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ? AND deleted_at IS NULL`,
		model.NormalizeEmail(email)), u)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user by email: %w", err)
	}
	return u, nil
}

// ListUsers returns all non-deleted users.
func ListUsers(ctx context.Context, db *sql.DB) ([]model.User, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE deleted_at IS NULL ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := scanUser(rows, &u); err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// CountUsers returns the number of non-deleted users.
func CountUsers(ctx context.Context, db *sql.DB) (int, error) {
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE deleted_at IS NULL`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return n, nil
}

// UpdateUserRole changes a user's role.
func UpdateUserRole(ctx context.Context, db *sql.DB, id int64, role string) error {
	if !model.ValidRole(role) {
		return model.NewValidationError("role", "must be admin or user")
	}
	return execOne(ctx, db, "updating user role",
		`UPDATE users SET role = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		role, id)
}

// ProfileUpdate holds the self-service profile fields.
type ProfileUpdate struct {
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	ProfileImageURL string `json:"profile_image_url"`
}

// UpdateProfile replaces a user's name and profile image.
func UpdateProfile(ctx context.Context, db *sql.DB, id int64, p ProfileUpdate) (*model.User, error) {
	var v model.Validator
	v.Check(len(p.FirstName) <= 100, "first_name", "is too long")
	v.Check(len(p.LastName) <= 100, "last_name", "is too long")
	v.Check(len(p.ProfileImageURL) <= 2048, "profile_image_url", "is too long")
	if err := v.Err(); err != nil {
		return nil, err
	}

	err := execOne(ctx, db, "updating profile",
		`UPDATE users SET first_name = ?, last_name = ?, profile_image_url = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL`,
		p.FirstName, p.LastName, p.ProfileImageURL, id)
	if err != nil {
		return nil, err
	}
	return GetUser(ctx, db, id)
}

// UpdateUserPassword updates a user's password hash.
func UpdateUserPassword(ctx context.Context, db *sql.DB, id int64, passwordHash string) error {
	return execOne(ctx, db, "updating user password",
		`UPDATE users SET password_hash = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		passwordHash, id)
}

// DeleteUser soft-deletes a user, removes their pending and active listings
// and rejects the pending swaps they are party to.
func DeleteUser(ctx context.Context, db *sql.DB, id int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE users SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("deleting user: %w", model.ErrNotFound)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE items SET status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE user_id = ? AND status IN (?, ?)`,
		model.ItemStatusRemoved, id, model.ItemStatusPending, model.ItemStatusActive,
	); err != nil {
		return fmt.Errorf("removing items of deleted user: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE swaps SET status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE (owner_id = ? OR requester_id = ?) AND status = ?`,
		model.SwapStatusRejected, id, id, model.SwapStatusPending,
	); err != nil {
		return fmt.Errorf("rejecting swaps of deleted user: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetPublicProfile returns the publicly visible part of a user with their rating summary.
func GetPublicProfile(ctx context.Context, db *sql.DB, id int64) (*model.PublicProfile, error) {
	u, err := GetUser(ctx, db, id)
	if err != nil {
		return nil, err
	}
	if u == nil || u.DeletedAt != nil {
		return nil, nil
	}

	rating, err := GetRatingSummary(ctx, db, id)
	if err != nil {
		return nil, err
	}

	return &model.PublicProfile{
		ID:              u.ID,
		DisplayName:     u.DisplayName(),
		ProfileImageURL: u.ProfileImageURL,
		MemberSince:     u.CreatedAt,
		Rating:          rating,
	}, nil
}

// execOne runs a statement that must affect exactly one row.
func execOne(ctx context.Context, db *sql.DB, what, query string, args ...any) error {
	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, model.ErrNotFound)
	}
	return nil
}
