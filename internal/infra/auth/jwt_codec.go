// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"courtside/config"
	"courtside/internal/domain/service"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// jwtCodec is a concrete implementation of the TokenCodec interface using the JWT standard.
type jwtCodec struct {
	accessSecret  string        // Secret key for signing access tokens.
	refreshSecret string        // Secret key for signing refresh tokens.
	accessTTL     time.Duration // Time-to-live for access tokens.
	refreshTTL    time.Duration // Time-to-live for refresh tokens.
}

// tokenClaims is the wire shape of both token kinds. The type claim keeps the
// two verification paths disjoint even if the secrets were ever misconfigured
// to the same value.
type tokenClaims struct {
	Username  string `json:"username,omitempty"`
	Email     string `json:"email,omitempty"`
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

// NewJWTCodec is the constructor for jwtCodec. Missing secrets are a fatal
// startup condition, never a per-request error.
func NewJWTCodec(cfg *config.Config) (service.TokenCodec, error) {
	if cfg.SecretKey.Access == "" || cfg.SecretKey.Refresh == "" {
		return nil, errors.New("jwt secrets must be provided")
	}
	if cfg.SecretKey.Access == cfg.SecretKey.Refresh {
		return nil, errors.New("access and refresh secrets must differ")
	}

	authCfg := cfg.Auth
	if authCfg == nil {
		return nil, errors.New("auth config must be provided")
	}

	return &jwtCodec{
		accessSecret:  cfg.SecretKey.Access,
		refreshSecret: cfg.SecretKey.Refresh,
		accessTTL:     authCfg.AccessTokenTTL,
		refreshTTL:    authCfg.RefreshTokenTTL,
	}, nil
}

// IssueAccessToken signs a short-lived access token for the claims.
func (s *jwtCodec) IssueAccessToken(claims service.Claims) (string, error) {
	return s.issue(claims, s.accessTTL, s.accessSecret, tokenTypeAccess)
}

// IssueRefreshToken signs a long-lived refresh token for the claims.
func (s *jwtCodec) IssueRefreshToken(claims service.Claims) (string, error) {
	return s.issue(claims, s.refreshTTL, s.refreshSecret, tokenTypeRefresh)
}

// VerifyAccessToken validates a token under the access secret.
func (s *jwtCodec) VerifyAccessToken(token string) (*service.Claims, error) {
	return s.verify(token, s.accessSecret, tokenTypeAccess)
}

// VerifyRefreshToken validates a token under the refresh secret.
func (s *jwtCodec) VerifyRefreshToken(token string) (*service.Claims, error) {
	return s.verify(token, s.refreshSecret, tokenTypeRefresh)
}

// AccessTokenTTL returns the configured access-token lifetime.
func (s *jwtCodec) AccessTokenTTL() time.Duration {
	return s.accessTTL
}

// RefreshTokenTTL returns the configured refresh-token lifetime.
func (s *jwtCodec) RefreshTokenTTL() time.Duration {
	return s.refreshTTL
}

// issue is a private helper to create a JWT with specific claims.
func (s *jwtCodec) issue(claims service.Claims, ttl time.Duration, secret, tokenType string) (string, error) {
	now := time.Now()
	wireClaims := tokenClaims{
		Username:  claims.Username,
		Email:     claims.Email,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claims.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			// A fresh jti per mint keeps every issued token distinct, even
			// for identical claims within the same second. Rotation depends
			// on the new stored value differing from the old one.
			ID: uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, wireClaims)

	return token.SignedString([]byte(secret))
}

// verify checks the validity of a token string against a secret and expected
// token type. Expiry at exactly the embedded instant counts as expired
// (zero leeway).
func (s *jwtCodec) verify(tokenString, secret, tokenType string) (*service.Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &tokenClaims{}, func(token *jwt.Token) (any, error) {
		// Ensure the signing method is what we expect.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}

		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, service.ErrTokenExpired
		}

		return nil, service.ErrTokenMalformed
	}

	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid {
		return nil, service.ErrTokenMalformed
	}
	if claims.TokenType != tokenType {
		return nil, service.ErrTokenMalformed
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, service.ErrTokenMalformed
	}

	out := &service.Claims{
		UserID:   userID,
		Username: claims.Username,
		Email:    claims.Email,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpireAt = claims.ExpiresAt.Time
	}

	return out, nil
}
