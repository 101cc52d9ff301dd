// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"
	"go.uber.org/fx"

	deliverycontext "courtside/internal/delivery/context"
	"courtside/internal/domain/entity"
	domainerrors "courtside/internal/domain/errors"
	"courtside/internal/domain/repository"
	"courtside/internal/domain/service"
	"courtside/internal/usecase"
)

// SessionIssuer mints token pairs and persists the refresh half before any
// token leaves the process. A pair the store never accepted is a pair the
// caller never sees.
type SessionIssuer struct {
	codec    service.TokenCodec
	userRepo repository.UserRepository
	logger   *slog.Logger
}

// SessionIssuerParams holds dependencies for SessionIssuer, injected by Fx.
type SessionIssuerParams struct {
	fx.In

	Codec    service.TokenCodec
	UserRepo repository.UserRepository
	Logger   *slog.Logger
}

// NewSessionIssuer is the constructor for SessionIssuer.
func NewSessionIssuer(params SessionIssuerParams) *SessionIssuer {
	return &SessionIssuer{
		codec:    params.Codec,
		userRepo: params.UserRepo,
		logger:   params.Logger,
	}
}

func (s *SessionIssuer) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, s.logger)
}

// Issue mints a new pair and unconditionally replaces the stored refresh
// token. Used by login and registration, where the caller has already proven
// the identity. A store failure aborts the session entirely.
func (s *SessionIssuer) Issue(ctx context.Context, user *entity.User) (*usecase.SessionOutput, error) {
	accessToken, refreshToken, err := s.mintPair(user)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.UpdateRefreshToken(ctx, user.ID, &refreshToken); err != nil {
		s.log(ctx).Error("Failed to persist refresh token", slog.Any("userID", user.ID), slog.Any("error", err))

		return nil, errors.Wrap(domainerrors.ErrSessionPersist, "failed to persist refresh token")
	}

	return &usecase.SessionOutput{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
	}, nil
}

// Rotate mints a new pair and swaps it in only if the stored refresh token
// still equals presented. Exactly one concurrent redemption of the same
// token can win; the rest observe repository.ErrRefreshTokenMismatch.
func (s *SessionIssuer) Rotate(ctx context.Context, user *entity.User, presented string) (*usecase.SessionOutput, error) {
	accessToken, refreshToken, err := s.mintPair(user)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.RotateRefreshToken(ctx, user.ID, presented, refreshToken); err != nil {
		if errors.Is(err, repository.ErrRefreshTokenMismatch) {
			return nil, err
		}
		s.log(ctx).Error("Failed to rotate refresh token", slog.Any("userID", user.ID), slog.Any("error", err))

		return nil, errors.Wrap(domainerrors.ErrSessionPersist, "failed to rotate refresh token")
	}

	return &usecase.SessionOutput{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
	}, nil
}

func (s *SessionIssuer) mintPair(user *entity.User) (string, string, error) {
	claims := service.Claims{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
	}

	accessToken, err := s.codec.IssueAccessToken(claims)
	if err != nil {
		return "", "", errors.Wrap(err, "failed to issue access token")
	}

	refreshToken, err := s.codec.IssueRefreshToken(claims)
	if err != nil {
		return "", "", errors.Wrap(err, "failed to issue refresh token")
	}

	return accessToken, refreshToken, nil
}
