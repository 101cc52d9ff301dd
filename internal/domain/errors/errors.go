package errors

import (
	"net/http"

	"courtside/internal/errors"
)

// AppError defines the interface for application-specific errors
type AppError interface {
	error
	HTTPCode() int     // HTTP status code
	ErrorCode() string // Business error code
	Message() string   // User-friendly error message
	Details() string   // Detailed error information (optional)
}

// BaseError is a basic error structure that implements the AppError interface
type BaseError struct {
	httpCode  int
	errorCode string
	message   string
	details   string
}

// NewBaseError creates a new base error
func NewBaseError(httpCode int, errorCode, message, details string) *BaseError {
	return &BaseError{
		httpCode:  httpCode,
		errorCode: errorCode,
		message:   message,
		details:   details,
	}
}

// Error implements the error interface
func (e *BaseError) Error() string {
	return e.message
}

// WrapMessage wraps the error with additional context message
func (e *BaseError) WrapMessage(message string) error {
	return errors.Wrap(e, message)
}

// HTTPCode returns the HTTP status code
func (e *BaseError) HTTPCode() int {
	return e.httpCode
}

// ErrorCode returns the business error code
func (e *BaseError) ErrorCode() string {
	return e.errorCode
}

// Message returns the user-friendly error message
func (e *BaseError) Message() string {
	return e.message
}

// Details returns detailed error information
func (e *BaseError) Details() string {
	return e.details
}

// WithDetails adds detailed error information
func (e *BaseError) WithDetails(details string) *BaseError {
	return &BaseError{
		httpCode:  e.httpCode,
		errorCode: e.errorCode,
		message:   e.message,
		details:   details,
	}
}

// Predefined error types
var (
	// Access-token / middleware errors

	// ErrUnauthenticated covers a missing, malformed, or unverifiable bearer
	// credential.
	ErrUnauthenticated = NewBaseError(
		http.StatusUnauthorized,
		"UNAUTHENTICATED",
		"authentication required",
		"",
	)

	// ErrAccessTokenExpired is the sub-case clients may recover from by
	// refreshing; ErrUnauthenticated cases require a new login.
	ErrAccessTokenExpired = NewBaseError(
		http.StatusUnauthorized,
		"ACCESS_TOKEN_EXPIRED",
		"access token has expired",
		"",
	)

	// ErrIdentityNotFound is returned when a verified token references an
	// identity that no longer exists.
	ErrIdentityNotFound = NewBaseError(
		http.StatusNotFound,
		"IDENTITY_NOT_FOUND",
		"account no longer exists",
		"",
	)

	// Refresh errors

	// ErrRefreshInvalid covers malformed, unsigned, or expired refresh tokens.
	ErrRefreshInvalid = NewBaseError(
		http.StatusForbidden,
		"REFRESH_TOKEN_INVALID",
		"invalid or expired refresh token",
		"",
	)

	// ErrRefreshRevoked is returned when a cryptographically valid refresh
	// token no longer matches the stored value: it was rotated by a prior
	// refresh or cleared by logout.
	ErrRefreshRevoked = NewBaseError(
		http.StatusForbidden,
		"REFRESH_TOKEN_REVOKED",
		"refresh token has been revoked",
		"",
	)

	// ErrRefreshMissing is returned when the refresh endpoint receives no
	// token at all.
	ErrRefreshMissing = NewBaseError(
		http.StatusUnauthorized,
		"REFRESH_TOKEN_MISSING",
		"refresh token is required",
		"",
	)

	// ErrUnknownIdentity is the refresh-path variant of a deleted account.
	ErrUnknownIdentity = NewBaseError(
		http.StatusForbidden,
		"UNKNOWN_IDENTITY",
		"account for refresh token no longer exists",
		"",
	)

	// Credential errors

	ErrInvalidCredentials = NewBaseError(
		http.StatusUnauthorized,
		"INVALID_CREDENTIALS",
		"email or password is incorrect",
		"",
	)

	ErrUserAlreadyExists = NewBaseError(
		http.StatusConflict,
		"USER_ALREADY_EXISTS",
		"this email is already registered",
		"",
	)

	ErrValidationFailed = NewBaseError(
		http.StatusBadRequest,
		"VALIDATION_FAILED",
		"request validation failed",
		"",
	)

	// Password-reset errors

	// ErrResetInvalid covers unknown, expired, and already-consumed reset
	// tokens uniformly.
	ErrResetInvalid = NewBaseError(
		http.StatusBadRequest,
		"RESET_TOKEN_INVALID",
		"invalid or expired reset token",
		"",
	)

	// Store errors

	// ErrSessionPersist is returned when the store write during session
	// issuance fails. The request fails; no tokens escape.
	ErrSessionPersist = NewBaseError(
		http.StatusInternalServerError,
		"SESSION_PERSIST_FAILED",
		"failed to persist session",
		"",
	)
)

// NewDatabaseExecuteError wraps an underlying database error as a generic
// internal AppError, preserving the cause for logs.
func NewDatabaseExecuteError(err error, message string) error {
	base := NewBaseError(
		http.StatusInternalServerError,
		"DATABASE_ERROR",
		message,
		err.Error(),
	)

	return errors.Wrap(base, message)
}
