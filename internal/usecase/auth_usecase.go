// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"

	"github.com/google/uuid"

	"courtside/internal/domain/entity"
)

// --- Input DTOs ---

// RegisterInput defines the data required to register a new identity.
// Profile fields are stored verbatim and never interpreted.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Profile  map[string]string
}

// LoginInput defines the data required to log in.
type LoginInput struct {
	Email    string
	Password string
}

// RefreshInput carries the presented refresh token.
type RefreshInput struct {
	RefreshToken string
}

// ForgotPasswordInput starts the password-reset flow.
type ForgotPasswordInput struct {
	Email string
}

// ResetPasswordInput completes the password-reset flow.
type ResetPasswordInput struct {
	Token       string
	NewPassword string
}

// --- Output DTOs ---

// SessionOutput returns a freshly issued token pair. The refresh token it
// carries is already persisted; the previous one, if any, is dead.
type SessionOutput struct {
	AccessToken  string
	RefreshToken string
	User         *entity.User
}

// AuthUsecase defines the interface for session and credential operations.
// This is the contract that the delivery layer (e.g., API handlers) will depend on.
type AuthUsecase interface {
	Register(ctx context.Context, input RegisterInput) (*SessionOutput, error)
	Login(ctx context.Context, input LoginInput) (*SessionOutput, error)

	// RefreshToken redeems a refresh token for a new pair, rotating the
	// stored value. A presented token that was already redeemed or cleared
	// is rejected.
	RefreshToken(ctx context.Context, input RefreshInput) (*SessionOutput, error)

	// Logout clears the stored refresh token for the identity. Idempotent.
	Logout(ctx context.Context, userID uuid.UUID) error

	// RequestPasswordReset issues a single-use reset token and mails it.
	// It reveals nothing about whether the email exists: the outcome and
	// response timing are uniform either way.
	RequestPasswordReset(ctx context.Context, input ForgotPasswordInput) error

	// ResetPassword consumes a reset token and stores the new password.
	ResetPassword(ctx context.Context, input ResetPasswordInput) error

	// GetProfile loads the identity behind an authenticated request.
	GetProfile(ctx context.Context, userID uuid.UUID) (*entity.User, error)
}
