package model

import (
	"errors"
	"strings"
	"time"
)

// DefaultPoints is the balance granted to every new account.
const DefaultPoints = 100

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

// User represents a marketplace account.
type User struct {
	ID              int64      `json:"id"`
	Email           string     `json:"email"`
	FirstName       string     `json:"first_name,omitempty"`
	LastName        string     `json:"last_name,omitempty"`
	ProfileImageURL string     `json:"profile_image_url,omitempty"`
	PasswordHash    string     `json:"-"`
	Role            string     `json:"role"`
	Points          int        `json:"points"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	DeletedAt       *time.Time `json:"deleted_at,omitempty"`
}

// DisplayName returns the user's full name, falling back to the email's local part.
func (u *User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name != "" {
		return name
	}
	local, _, _ := strings.Cut(u.Email, "@")
	return local
}

// CanModerate reports whether the user may approve and reject listings.
func (u *User) CanModerate() bool {
	return u != nil && RoleAtLeast(u.Role, RoleAdmin)
}

// PublicProfile is the subset of a user visible to other users.
type PublicProfile struct {
	ID              int64         `json:"id"`
	DisplayName     string        `json:"display_name"`
	ProfileImageURL string        `json:"profile_image_url,omitempty"`
	MemberSince     time.Time     `json:"member_since"`
	Rating          RatingSummary `json:"rating"`
}

// Roles.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// ValidRole reports whether role is a known role.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleUser
}

// RoleAtLeast checks if role meets or exceeds the minimum required role.
func RoleAtLeast(role, minimum string) bool {
	levels := map[string]int{
		RoleAdmin: 2,
		RoleUser:  1,
	}
	return levels[role] >= levels[minimum] && levels[minimum] > 0
}

// Moderator is implemented by identities that may carry the listing
// moderation capability.
type Moderator interface {
	CanModerate() bool
}

// ValidatePassword checks password strength requirements.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return errors.New("password must be at least 8 characters")
	}
	return nil
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail performs a minimal shape check on an email address.
func ValidateEmail(email string) error {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" || domain == "" || strings.ContainsAny(email, " \t\n") {
		return NewValidationError("email", "must be a valid email address")
	}
	return nil
}
