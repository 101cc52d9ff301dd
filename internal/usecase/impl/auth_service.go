package impl

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"

	"courtside/config"
	deliverycontext "courtside/internal/delivery/context"
	"courtside/internal/domain/entity"
	domainerrors "courtside/internal/domain/errors"
	"courtside/internal/domain/repository"
	"courtside/internal/domain/service"
	"courtside/internal/usecase"
)

// ResetTokenFunc produces an opaque single-use reset token.
type ResetTokenFunc func() (string, error)

// authService implements the AuthUsecase interface.
type authService struct {
	userRepo      repository.UserRepository
	hasher        service.PasswordHasher
	codec         service.TokenCodec
	issuer        *SessionIssuer
	mailer        service.MailSender
	newResetToken ResetTokenFunc

	resetTokenTTL   time.Duration
	resetMinLatency time.Duration

	logger *slog.Logger
}

// AuthServiceParams holds dependencies for authService, injected by Fx.
type AuthServiceParams struct {
	fx.In

	UserRepo      repository.UserRepository
	Hasher        service.PasswordHasher
	Codec         service.TokenCodec
	Issuer        *SessionIssuer
	Mailer        service.MailSender
	NewResetToken ResetTokenFunc
	Config        *config.Config
	Logger        *slog.Logger
}

// NewAuthService is the constructor for authService. It receives all dependencies as interfaces.
func NewAuthService(params AuthServiceParams) usecase.AuthUsecase {
	var resetTokenTTL, resetMinLatency time.Duration
	if params.Config != nil && params.Config.Auth != nil {
		resetTokenTTL = params.Config.Auth.ResetTokenTTL
		resetMinLatency = params.Config.Auth.ResetMinLatency
	}

	return &authService{
		userRepo:        params.UserRepo,
		hasher:          params.Hasher,
		codec:           params.Codec,
		issuer:          params.Issuer,
		mailer:          params.Mailer,
		newResetToken:   params.NewResetToken,
		resetTokenTTL:   resetTokenTTL,
		resetMinLatency: resetMinLatency,
		logger:          params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *authService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Register creates a new identity and opens its first session.
func (srv *authService) Register(ctx context.Context, input usecase.RegisterInput) (*usecase.SessionOutput, error) {
	srv.log(ctx).Info("Starting registration", slog.String("email", input.Email))

	hashedPassword, err := srv.hasher.Hash(input.Password)
	if err != nil {
		srv.log(ctx).Error("Failed to hash password during registration", slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to hash password during registration")
	}

	newUser := &entity.User{
		ID:           uuid.New(),
		Username:     input.Username,
		Email:        input.Email,
		Role:         entity.RoleUser,
		PasswordHash: &hashedPassword,
		Profile:      input.Profile,
	}

	if err := srv.userRepo.Create(ctx, newUser); err != nil {
		srv.log(ctx).Warn("Registration rejected", slog.String("email", input.Email), slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to create user during registration")
	}

	output, err := srv.issuer.Issue(ctx, newUser)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open session after registration")
	}

	srv.log(ctx).Debug("Registration completed", slog.Any("userID", newUser.ID))

	return output, nil
}

// Login verifies credentials and opens a session. Unknown emails and wrong
// passwords are indistinguishable to the caller.
func (srv *authService) Login(ctx context.Context, input usecase.LoginInput) (*usecase.SessionOutput, error) {
	srv.log(ctx).Debug("Starting login", slog.String("email", input.Email))

	user, err := srv.userRepo.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			srv.log(ctx).Warn("Login failed", slog.String("email", input.Email), slog.Any("error", err))

			return nil, errors.Wrap(domainerrors.ErrInvalidCredentials, "login failed")
		}

		return nil, errors.Wrap(err, "failed to load user for login")
	}

	// A federated identity that never set a password cannot log in this way.
	if user.PasswordHash == nil {
		srv.log(ctx).Warn("Login failed for passwordless identity", slog.Any("userID", user.ID))

		return nil, errors.Wrap(domainerrors.ErrInvalidCredentials, "login failed")
	}

	// Check password outside any transaction (bcrypt is CPU-bound).
	if !srv.hasher.Check(input.Password, *user.PasswordHash) {
		srv.log(ctx).Warn("Login failed", slog.String("email", input.Email))

		return nil, errors.Wrap(domainerrors.ErrInvalidCredentials, "login failed")
	}

	output, err := srv.issuer.Issue(ctx, user)
	if err != nil {
		srv.log(ctx).Warn("Login failed", slog.String("email", input.Email), slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to open session during login")
	}

	srv.log(ctx).Debug("User logged in successfully", slog.Any("userID", user.ID))

	return output, nil
}

// RefreshToken redeems a refresh token for a new pair. The presented token
// must verify under the refresh secret, reference a live identity, and still
// be the stored value; rotation then retires it atomically.
func (srv *authService) RefreshToken(ctx context.Context, input usecase.RefreshInput) (*usecase.SessionOutput, error) {
	srv.log(ctx).Debug("Attempting to refresh session")

	if input.RefreshToken == "" {
		return nil, errors.Wrap(domainerrors.ErrRefreshMissing, "refresh failed")
	}

	claims, err := srv.codec.VerifyRefreshToken(input.RefreshToken)
	if err != nil {
		srv.log(ctx).Warn("Refresh token failed verification", slog.Any("error", err))

		return nil, errors.Wrap(domainerrors.ErrRefreshInvalid, "refresh failed")
	}

	user, err := srv.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			srv.log(ctx).Warn("Refresh token references unknown identity", slog.Any("userID", claims.UserID))

			return nil, errors.Wrap(domainerrors.ErrUnknownIdentity, "refresh failed")
		}

		return nil, errors.Wrap(err, "failed to load user for refresh")
	}

	// Fast reject before minting: a verified token that is not the stored
	// value was rotated away or cleared by logout.
	if user.RefreshToken == nil || *user.RefreshToken != input.RefreshToken {
		srv.log(ctx).Warn("Refresh token already revoked", slog.Any("userID", user.ID))

		return nil, errors.Wrap(domainerrors.ErrRefreshRevoked, "refresh failed")
	}

	output, err := srv.issuer.Rotate(ctx, user, input.RefreshToken)
	if err != nil {
		// A concurrent redemption won the rotation between our read and the
		// conditional write.
		if errors.Is(err, repository.ErrRefreshTokenMismatch) {
			srv.log(ctx).Warn("Refresh token lost rotation race", slog.Any("userID", user.ID))

			return nil, errors.Wrap(domainerrors.ErrRefreshRevoked, "refresh failed")
		}

		return nil, errors.Wrap(err, "failed to rotate session")
	}

	srv.log(ctx).Debug("Session refreshed", slog.Any("userID", user.ID))

	return output, nil
}

// Logout clears the stored refresh token. Logging out twice is not an error.
func (srv *authService) Logout(ctx context.Context, userID uuid.UUID) error {
	srv.log(ctx).Info("Attempting to log out", slog.Any("userID", userID))

	if err := srv.userRepo.UpdateRefreshToken(ctx, userID, nil); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil
		}
		srv.log(ctx).Error("Failed to clear refresh token", slog.Any("userID", userID), slog.Any("error", err))

		return errors.Wrap(err, "failed to clear refresh token")
	}

	return nil
}

// RequestPasswordReset issues a reset token for a known email and mails it.
// The caller learns nothing either way: unknown emails, store failures, and
// mail failures all yield the same nil result, and the response never
// returns faster than the configured latency floor.
func (srv *authService) RequestPasswordReset(ctx context.Context, input usecase.ForgotPasswordInput) error {
	started := time.Now()
	defer srv.holdUntilFloor(ctx, started)

	user, err := srv.userRepo.FindByEmail(ctx, input.Email)
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			srv.log(ctx).Error("Failed to look up email for reset", slog.Any("error", err))
		}

		return nil
	}

	token, err := srv.newResetToken()
	if err != nil {
		srv.log(ctx).Error("Failed to generate reset token", slog.Any("error", err))

		return nil
	}

	expiresAt := time.Now().Add(srv.resetTokenTTL)
	if err := srv.userRepo.SetResetToken(ctx, user.ID, token, expiresAt); err != nil {
		srv.log(ctx).Error("Failed to store reset token", slog.Any("userID", user.ID), slog.Any("error", err))

		return nil
	}

	if err := srv.mailer.SendPasswordReset(ctx, user.Email, token); err != nil {
		srv.log(ctx).Error("Failed to send reset mail", slog.Any("userID", user.ID), slog.Any("error", err))

		return nil
	}

	srv.log(ctx).Info("Password reset issued", slog.Any("userID", user.ID))

	return nil
}

// holdUntilFloor blocks until the latency floor has elapsed since started.
func (srv *authService) holdUntilFloor(ctx context.Context, started time.Time) {
	remaining := srv.resetMinLatency - time.Since(started)
	if remaining <= 0 {
		return
	}

	timer := time.NewTimer(remaining)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// ResetPassword consumes a reset token. Unknown, expired, and already-used
// tokens are rejected with the same error.
func (srv *authService) ResetPassword(ctx context.Context, input usecase.ResetPasswordInput) error {
	user, err := srv.userRepo.FindByResetToken(ctx, input.Token)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return errors.Wrap(domainerrors.ErrResetInvalid, "reset failed")
		}

		return errors.Wrap(err, "failed to load user for reset")
	}

	if !user.HasValidResetToken(input.Token, time.Now()) {
		return errors.Wrap(domainerrors.ErrResetInvalid, "reset failed")
	}

	hashedPassword, err := srv.hasher.Hash(input.NewPassword)
	if err != nil {
		return errors.Wrap(err, "failed to hash new password")
	}

	if err := srv.userRepo.UpdatePasswordAndClearReset(ctx, user.ID, input.Token, hashedPassword); err != nil {
		if errors.Is(err, repository.ErrResetTokenMismatch) {
			return errors.Wrap(domainerrors.ErrResetInvalid, "reset failed")
		}

		return errors.Wrap(err, "failed to store new password")
	}

	// The old session dies with the old password.
	if err := srv.userRepo.UpdateRefreshToken(ctx, user.ID, nil); err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		srv.log(ctx).Error("Failed to revoke session after reset", slog.Any("userID", user.ID), slog.Any("error", err))
	}

	srv.log(ctx).Info("Password reset completed", slog.Any("userID", user.ID))

	return nil
}

// GetProfile loads the identity behind an authenticated request.
func (srv *authService) GetProfile(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	user, err := srv.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, errors.Wrap(domainerrors.ErrIdentityNotFound, "profile lookup failed")
		}

		return nil, errors.Wrap(err, "failed to load user profile")
	}

	return user, nil
}
