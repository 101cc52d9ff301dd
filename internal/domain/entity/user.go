// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// User is the identity record the session subsystem operates on.
// It is created once (registration or federated first-login) and mutated only
// by password changes, refresh-token rotation, and reset-token
// issuance/consumption. This subsystem never deletes it.
type User struct {
	ID       uuid.UUID // The Global Unique Identifier (GUID) for the user.
	Username string    // The user's display name, unique within the directory.
	Email    string    // The user's email address, unique within the directory.
	Role     Role      // The user's role (default "user", elevated "admin").

	// PasswordHash stores the bcrypt-hashed password. It is nil when the
	// identity was created through a federated provider and never set one.
	PasswordHash *string

	// RefreshToken holds the single currently-valid refresh token value.
	// At most one value is valid at any instant; issuing a new one
	// unconditionally invalidates the previous one. Nil means logged out.
	RefreshToken *string

	// ResetToken and ResetTokenExpiresAt form the single-use password-reset
	// pair. They are set together and cleared together.
	ResetToken          *string
	ResetTokenExpiresAt *time.Time

	// Profile carries arbitrary directory fields passed through registration
	// unchanged. This subsystem stores but never interprets them.
	Profile map[string]string

	CreatedAt time.Time // Timestamp of when this identity was created.
	UpdatedAt time.Time // Timestamp of the last modification.
}

// HasValidResetToken reports whether the stored reset token matches the
// candidate and has not expired at the given instant. Expiry at exactly the
// stored instant counts as expired.
func (u *User) HasValidResetToken(candidate string, now time.Time) bool {
	if u.ResetToken == nil || u.ResetTokenExpiresAt == nil {
		return false
	}
	if *u.ResetToken != candidate {
		return false
	}

	return now.Before(*u.ResetTokenExpiresAt)
}
