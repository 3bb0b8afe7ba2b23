package auth

import (
	"errors"
	"regexp"
	"time"
)

// emailPattern is a deliberately loose format check; the mail server is
// the real authority on deliverability.
var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// maxEmailLength is the maximum accepted email address length.
const maxEmailLength = 254

// IsValidEmail checks whether an address is plausibly an email.
func IsValidEmail(email string) bool {
	return len(email) <= maxEmailLength && emailPattern.MatchString(email)
}

// Role represents an authorisation tier.
type Role string

const (
	// RoleUser is a dashboard viewer: readings, stats, and live updates.
	RoleUser Role = "user"

	// RoleAdmin additionally manages data (create, generate, delete
	// readings) and user accounts.
	RoleAdmin Role = "admin"
)

// ValidRoles is the set of assignable account roles.
var ValidRoles = []Role{RoleUser, RoleAdmin}

// IsValidRole returns true if the role can be assigned to an account.
func IsValidRole(r Role) bool {
	for _, v := range ValidRoles {
		if r == v {
			return true
		}
	}
	return false
}

// User represents an authenticated account.
type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"` // never serialised
	Name         string     `json:"name"`
	Role         Role       `json:"role"`
	LastLogin    *time.Time `json:"lastLogin,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Sentinel errors for auth operations.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailExists        = errors.New("email already registered")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrForbidden          = errors.New("insufficient permissions")
	ErrInvalidHash        = errors.New("invalid password hash")
)
