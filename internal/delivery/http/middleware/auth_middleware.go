package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	domainerrors "courtside/internal/domain/errors"
	"courtside/internal/domain/repository"
	"courtside/internal/domain/service"
)

const (
	// ContextKeyUserID is where Authenticate stores the verified identity id.
	ContextKeyUserID = "userID"

	// ContextKeyUser is where Authenticate stores the loaded identity.
	ContextKeyUser = "user"
)

// AuthMiddleware guards routes behind a verified access token. Verification
// alone is not enough to pass: the identity the token references must still
// exist in the store.
type AuthMiddleware struct {
	codec    service.TokenCodec
	userRepo repository.UserRepository
}

// NewAuthMiddleware is the constructor for AuthMiddleware.
func NewAuthMiddleware(codec service.TokenCodec, userRepo repository.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{codec: codec, userRepo: userRepo}
}

// Authenticate validates the bearer access token and attaches the identity to
// the context. Expired tokens get a distinct error code so clients know a
// refresh may recover the session; every other failure requires a new login.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
		if authHeader == "" {
			return errors.Wrap(domainerrors.ErrUnauthenticated, "authorization header is missing")
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader || tokenString == "" {
			return errors.Wrap(domainerrors.ErrUnauthenticated, "authorization header is not a bearer token")
		}

		claims, err := m.codec.VerifyAccessToken(tokenString)
		if err != nil {
			if errors.Is(err, service.ErrTokenExpired) {
				return errors.Wrap(domainerrors.ErrAccessTokenExpired, "access token expired")
			}

			return errors.Wrap(domainerrors.ErrUnauthenticated, "access token failed verification")
		}

		user, err := m.userRepo.FindByID(c.Request().Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return errors.Wrap(domainerrors.ErrIdentityNotFound, "token references a deleted identity")
			}

			return errors.Wrap(err, "failed to load identity for access token")
		}

		c.Set(ContextKeyUserID, user.ID)
		c.Set(ContextKeyUser, user)

		return next(c)
	}
}
