package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"courtside/internal/domain/entity"
	domainerrors "courtside/internal/domain/errors"
	"courtside/internal/domain/repository"
)

func strPtr(s string) *string { return &s }

func seedUser(t *testing.T, repo repository.UserRepository) *entity.User {
	t.Helper()

	user := &entity.User{
		ID:           uuid.New(),
		Username:     "ari",
		Email:        "ari@example.com",
		Role:         entity.RoleUser,
		PasswordHash: strPtr("$2a$10$fakehash"),
	}
	require.NoError(t, repo.Create(context.Background(), user))

	return user
}

func TestUserRepository_CreateAndFind(t *testing.T) {
	repo := NewUserRepository()
	user := seedUser(t, repo)

	byID, err := repo.FindByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, byID.Email)

	byEmail, err := repo.FindByEmail(context.Background(), user.Email)
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	_, err = repo.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestUserRepository_CreateDuplicateEmail(t *testing.T) {
	repo := NewUserRepository()
	seedUser(t, repo)

	err := repo.Create(context.Background(), &entity.User{
		ID:       uuid.New(),
		Username: "someone-else",
		Email:    "ari@example.com",
	})
	assert.ErrorIs(t, err, domainerrors.ErrUserAlreadyExists)
}

func TestUserRepository_FindReturnsCopy(t *testing.T) {
	repo := NewUserRepository()
	user := seedUser(t, repo)

	found, err := repo.FindByID(context.Background(), user.ID)
	require.NoError(t, err)

	// Mutating the returned entity must not leak into the store.
	found.Email = "tampered@example.com"

	again, err := repo.FindByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "ari@example.com", again.Email)
}

func TestUserRepository_RotateRefreshToken(t *testing.T) {
	repo := NewUserRepository()
	user := seedUser(t, repo)

	require.NoError(t, repo.UpdateRefreshToken(context.Background(), user.ID, strPtr("old-token")))

	err := repo.RotateRefreshToken(context.Background(), user.ID, "old-token", "new-token")
	require.NoError(t, err)

	// The old value is spent; a second rotation against it must fail.
	err = repo.RotateRefreshToken(context.Background(), user.ID, "old-token", "another-token")
	assert.ErrorIs(t, err, repository.ErrRefreshTokenMismatch)

	found, err := repo.FindByID(context.Background(), user.ID)
	require.NoError(t, err)
	require.NotNil(t, found.RefreshToken)
	assert.Equal(t, "new-token", *found.RefreshToken)
}

func TestUserRepository_RotateRefreshToken_AfterLogout(t *testing.T) {
	repo := NewUserRepository()
	user := seedUser(t, repo)

	require.NoError(t, repo.UpdateRefreshToken(context.Background(), user.ID, strPtr("old-token")))
	require.NoError(t, repo.UpdateRefreshToken(context.Background(), user.ID, nil))

	err := repo.RotateRefreshToken(context.Background(), user.ID, "old-token", "new-token")
	assert.ErrorIs(t, err, repository.ErrRefreshTokenMismatch)
}

func TestUserRepository_RotateRefreshToken_SingleWinner(t *testing.T) {
	repo := NewUserRepository()
	user := seedUser(t, repo)

	require.NoError(t, repo.UpdateRefreshToken(context.Background(), user.ID, strPtr("contested")))

	const workers = 16
	var wg sync.WaitGroup
	errs := make([]error, workers)

	for i := range workers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = repo.RotateRefreshToken(context.Background(), user.ID, "contested", uuid.NewString())
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, repository.ErrRefreshTokenMismatch)
		}
	}
	assert.Equal(t, 1, wins, "exactly one concurrent rotation may succeed")
}

func TestUserRepository_ResetTokenLifecycle(t *testing.T) {
	repo := NewUserRepository()
	user := seedUser(t, repo)

	expiry := time.Now().Add(time.Hour)
	require.NoError(t, repo.SetResetToken(context.Background(), user.ID, "reset-abc", expiry))

	found, err := repo.FindByResetToken(context.Background(), "reset-abc")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	require.NoError(t, repo.UpdatePasswordAndClearReset(context.Background(), user.ID, "reset-abc", "$2a$10$newhash"))

	// Single use: consuming again fails and the token is gone.
	err = repo.UpdatePasswordAndClearReset(context.Background(), user.ID, "reset-abc", "$2a$10$otherhash")
	assert.ErrorIs(t, err, repository.ErrResetTokenMismatch)

	_, err = repo.FindByResetToken(context.Background(), "reset-abc")
	assert.ErrorIs(t, err, repository.ErrUserNotFound)

	after, err := repo.FindByID(context.Background(), user.ID)
	require.NoError(t, err)
	require.NotNil(t, after.PasswordHash)
	assert.Equal(t, "$2a$10$newhash", *after.PasswordHash)
}
