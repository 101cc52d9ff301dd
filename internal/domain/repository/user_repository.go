// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"
	"errors"
	"time"

	"courtside/internal/domain/entity"

	"github.com/google/uuid"
)

// Domain-specific errors for identity persistence.
var (
	// ErrUserNotFound is returned when a user is not found.
	ErrUserNotFound = errors.New("user not found")

	// ErrRefreshTokenMismatch is returned by RotateRefreshToken and
	// ClearRefreshToken's conditional variant when the stored refresh token
	// no longer equals the expected value. This is the revocation signal.
	ErrRefreshTokenMismatch = errors.New("stored refresh token does not match")

	// ErrResetTokenMismatch is returned by UpdatePasswordAndClearReset when
	// the stored reset token was already consumed or replaced.
	ErrResetTokenMismatch = errors.New("stored reset token does not match")
)

// UserRepository is the credential-store contract over the user directory.
// The application layer depends on this interface, not the concrete
// implementation. Every mutation is keyed by identity id; the two CAS
// operations are the only places the store must serialize writers per
// identity.
type UserRepository interface {
	// FindByID retrieves a single user by their unique ID.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)

	// FindByEmail retrieves a single user by their email address.
	FindByEmail(ctx context.Context, email string) (*entity.User, error)

	// FindByResetToken retrieves the user currently holding the given reset
	// token, regardless of expiry. Expiry is the caller's decision.
	FindByResetToken(ctx context.Context, token string) (*entity.User, error)

	// Create persists a new user entity to the storage.
	Create(ctx context.Context, user *entity.User) error

	// UpdateRefreshToken unconditionally replaces the stored refresh token.
	// A nil value clears it (logout).
	UpdateRefreshToken(ctx context.Context, id uuid.UUID, token *string) error

	// RotateRefreshToken atomically replaces the stored refresh token with
	// next if and only if the stored value still equals expected. Returns
	// ErrRefreshTokenMismatch when the value was already rotated or cleared.
	// Implementations must guarantee at most one caller wins per expected
	// value, even under concurrent redemption.
	RotateRefreshToken(ctx context.Context, id uuid.UUID, expected, next string) error

	// SetResetToken stores the reset token and its absolute expiry,
	// replacing any previous pair.
	SetResetToken(ctx context.Context, id uuid.UUID, token string, expiresAt time.Time) error

	// UpdatePasswordAndClearReset atomically stores the new password hash
	// and clears the reset-token pair, if and only if the stored reset token
	// still equals expectedToken. Returns ErrResetTokenMismatch when it was
	// already consumed, which makes reset tokens single-use under races.
	UpdatePasswordAndClearReset(ctx context.Context, id uuid.UUID, expectedToken, passwordHash string) error
}
