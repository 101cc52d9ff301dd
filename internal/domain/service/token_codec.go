package service

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Verification errors. Callers map these to different HTTP statuses, so the
// two kinds must stay distinguishable.
var (
	// ErrTokenExpired means the token verified structurally but its expiry
	// instant has passed (or is exactly now).
	ErrTokenExpired = errors.New("token has expired")

	// ErrTokenMalformed means the signature or structure is invalid, or the
	// token was signed for the other secret.
	ErrTokenMalformed = errors.New("token is malformed")
)

// Claims is the identity payload carried by both token kinds.
type Claims struct {
	UserID   uuid.UUID
	Username string
	Email    string
	IssuedAt time.Time
	ExpireAt time.Time
}

// TokenCodec signs and verifies the two token kinds. Access and refresh
// tokens use independent secrets and lifetimes; a token of one kind never
// verifies through the other kind's method.
type TokenCodec interface {
	// IssueAccessToken signs a short-lived access token for the claims.
	IssueAccessToken(claims Claims) (string, error)

	// IssueRefreshToken signs a long-lived refresh token for the claims.
	IssueRefreshToken(claims Claims) (string, error)

	// VerifyAccessToken validates a token under the access secret and
	// returns its claims. Fails with ErrTokenExpired or ErrTokenMalformed.
	VerifyAccessToken(token string) (*Claims, error)

	// VerifyRefreshToken validates a token under the refresh secret and
	// returns its claims. Fails with ErrTokenExpired or ErrTokenMalformed.
	VerifyRefreshToken(token string) (*Claims, error)

	// AccessTokenTTL returns the configured access-token lifetime.
	AccessTokenTTL() time.Duration

	// RefreshTokenTTL returns the configured refresh-token lifetime.
	RefreshTokenTTL() time.Duration
}
