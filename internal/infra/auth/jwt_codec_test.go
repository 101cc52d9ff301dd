package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"courtside/config"
	"courtside/internal/domain/service"
)

func testConfig(accessTTL, refreshTTL time.Duration) *config.Config {
	return &config.Config{
		SecretKey: config.SecretKey{
			Access:  "access-secret-for-tests",
			Refresh: "refresh-secret-for-tests",
		},
		Auth: &config.AuthConfig{
			AccessTokenTTL:  accessTTL,
			RefreshTokenTTL: refreshTTL,
		},
	}
}

func testClaims() service.Claims {
	return service.Claims{
		UserID:   uuid.New(),
		Username: "ari",
		Email:    "ari@example.com",
	}
}

func TestNewJWTCodec_MissingSecrets(t *testing.T) {
	cfg := testConfig(time.Minute, time.Hour)
	cfg.SecretKey.Access = ""

	_, err := NewJWTCodec(cfg)
	assert.Error(t, err)
}

func TestNewJWTCodec_IdenticalSecrets(t *testing.T) {
	cfg := testConfig(time.Minute, time.Hour)
	cfg.SecretKey.Refresh = cfg.SecretKey.Access

	_, err := NewJWTCodec(cfg)
	assert.Error(t, err)
}

func TestJWTCodec_AccessRoundTrip(t *testing.T) {
	codec, err := NewJWTCodec(testConfig(time.Minute, time.Hour))
	require.NoError(t, err)

	in := testClaims()
	token, err := codec.IssueAccessToken(in)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	out, err := codec.VerifyAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, in.UserID, out.UserID)
	assert.Equal(t, in.Username, out.Username)
	assert.Equal(t, in.Email, out.Email)
	assert.WithinDuration(t, time.Now().Add(time.Minute), out.ExpireAt, 5*time.Second)
}

func TestJWTCodec_RefreshRoundTrip(t *testing.T) {
	codec, err := NewJWTCodec(testConfig(time.Minute, time.Hour))
	require.NoError(t, err)

	in := testClaims()
	token, err := codec.IssueRefreshToken(in)
	require.NoError(t, err)

	out, err := codec.VerifyRefreshToken(token)
	require.NoError(t, err)
	assert.Equal(t, in.UserID, out.UserID)
}

func TestJWTCodec_KindsDoNotCrossVerify(t *testing.T) {
	codec, err := NewJWTCodec(testConfig(time.Minute, time.Hour))
	require.NoError(t, err)

	refresh, err := codec.IssueRefreshToken(testClaims())
	require.NoError(t, err)
	access, err := codec.IssueAccessToken(testClaims())
	require.NoError(t, err)

	_, err = codec.VerifyAccessToken(refresh)
	assert.ErrorIs(t, err, service.ErrTokenMalformed)

	_, err = codec.VerifyRefreshToken(access)
	assert.ErrorIs(t, err, service.ErrTokenMalformed)
}

func TestJWTCodec_ExpiredToken(t *testing.T) {
	// A negative TTL yields a token that is already past its expiry.
	codec, err := NewJWTCodec(testConfig(-time.Minute, time.Hour))
	require.NoError(t, err)

	token, err := codec.IssueAccessToken(testClaims())
	require.NoError(t, err)

	_, err = codec.VerifyAccessToken(token)
	assert.ErrorIs(t, err, service.ErrTokenExpired)
}

func TestJWTCodec_MalformedToken(t *testing.T) {
	codec, err := NewJWTCodec(testConfig(time.Minute, time.Hour))
	require.NoError(t, err)

	for _, token := range []string{"", "not-a-jwt", "aaa.bbb.ccc"} {
		_, err := codec.VerifyAccessToken(token)
		assert.ErrorIs(t, err, service.ErrTokenMalformed)
	}
}

func TestJWTCodec_TamperedSignature(t *testing.T) {
	codec, err := NewJWTCodec(testConfig(time.Minute, time.Hour))
	require.NoError(t, err)

	other, err := NewJWTCodec(&config.Config{
		SecretKey: config.SecretKey{Access: "another-access", Refresh: "another-refresh"},
		Auth:      &config.AuthConfig{AccessTokenTTL: time.Minute, RefreshTokenTTL: time.Hour},
	})
	require.NoError(t, err)

	token, err := other.IssueAccessToken(testClaims())
	require.NoError(t, err)

	_, err = codec.VerifyAccessToken(token)
	assert.ErrorIs(t, err, service.ErrTokenMalformed)
}

func TestNewResetToken(t *testing.T) {
	a, err := NewResetToken()
	require.NoError(t, err)
	b, err := NewResetToken()
	require.NoError(t, err)

	assert.Len(t, a, resetTokenBytes*2)
	assert.NotEqual(t, a, b)
}

func TestBcryptHasher(t *testing.T) {
	hasher := NewBcryptHasher(testConfig(time.Minute, time.Hour))

	hash, err := hasher.Hash("correct horse battery staple")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery staple", hash)

	assert.True(t, hasher.Check("correct horse battery staple", hash))
	assert.False(t, hasher.Check("wrong password", hash))
}
