// Package memory provides an in-process credential store with the same
// conditional-update semantics as the PostgreSQL implementation. It backs
// tests and local development without a database.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"courtside/internal/domain/entity"
	domainerrors "courtside/internal/domain/errors"
	"courtside/internal/domain/repository"
)

type userRepository struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*entity.User
}

// NewUserRepository is the constructor for the in-memory store.
func NewUserRepository() repository.UserRepository {
	return &userRepository{users: make(map[uuid.UUID]*entity.User)}
}

func (r *userRepository) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}

	return cloneUser(user), nil
}

func (r *userRepository) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if user.Email == email {
			return cloneUser(user), nil
		}
	}

	return nil, repository.ErrUserNotFound
}

func (r *userRepository) FindByResetToken(_ context.Context, token string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if user.ResetToken != nil && *user.ResetToken == token {
			return cloneUser(user), nil
		}
	}

	return nil, repository.ErrUserNotFound
}

func (r *userRepository) Create(_ context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.Email == user.Email || existing.Username == user.Username {
			return domainerrors.ErrUserAlreadyExists
		}
	}

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = cloneUser(user)

	return nil
}

func (r *userRepository) UpdateRefreshToken(_ context.Context, id uuid.UUID, token *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}

	user.RefreshToken = cloneString(token)
	user.UpdatedAt = time.Now()

	return nil
}

// RotateRefreshToken performs the compare-and-swap under the write lock, so
// at most one concurrent caller per expected value observes a match.
func (r *userRepository) RotateRefreshToken(_ context.Context, id uuid.UUID, expected, next string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	if user.RefreshToken == nil || *user.RefreshToken != expected {
		return repository.ErrRefreshTokenMismatch
	}

	user.RefreshToken = &next
	user.UpdatedAt = time.Now()

	return nil
}

func (r *userRepository) SetResetToken(_ context.Context, id uuid.UUID, token string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}

	user.ResetToken = &token
	expiry := expiresAt
	user.ResetTokenExpiresAt = &expiry
	user.UpdatedAt = time.Now()

	return nil
}

func (r *userRepository) UpdatePasswordAndClearReset(_ context.Context, id uuid.UUID, expectedToken, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	if user.ResetToken == nil || *user.ResetToken != expectedToken {
		return repository.ErrResetTokenMismatch
	}

	user.PasswordHash = &passwordHash
	user.ResetToken = nil
	user.ResetTokenExpiresAt = nil
	user.UpdatedAt = time.Now()

	return nil
}

func cloneUser(user *entity.User) *entity.User {
	cloned := *user
	cloned.PasswordHash = cloneString(user.PasswordHash)
	cloned.RefreshToken = cloneString(user.RefreshToken)
	cloned.ResetToken = cloneString(user.ResetToken)
	if user.ResetTokenExpiresAt != nil {
		expiry := *user.ResetTokenExpiresAt
		cloned.ResetTokenExpiresAt = &expiry
	}
	if user.Profile != nil {
		cloned.Profile = make(map[string]string, len(user.Profile))
		for k, v := range user.Profile {
			cloned.Profile[k] = v
		}
	}

	return &cloned
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s

	return &v
}
