package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mentora-learn/mentora-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:            "test-secret-key-that-is-32-chars!",
		TokenLifetimeMinutes: 60,
	}
}

func TestNewJWTService_RejectsShortSecret(t *testing.T) {
	t.Parallel()

	_, err := NewJWTService(config.AuthConfig{
		JWTSecret:            "too-short",
		TokenLifetimeMinutes: 60,
	})
	assert.Error(t, err)
}

func TestJWTService_GenerateAndValidate(t *testing.T) {
	t.Parallel()

	svc, err := NewJWTService(testAuthConfig())
	require.NoError(t, err)

	userID := uuid.New()
	token, err := svc.GenerateToken(context.Background(), userID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, userID.String(), claims.Subject)
	assert.NotEmpty(t, claims.ID)
}

func TestJWTService_ExpiredToken(t *testing.T) {
	t.Parallel()

	svc, err := NewJWTService(testAuthConfig())
	require.NoError(t, err)

	impl, ok := svc.(*hmacJWTService)
	require.True(t, ok)

	// Issue a token in the past, beyond lifetime plus clock skew.
	issuedAt := time.Now().Add(-2 * time.Hour)
	impl.timeFunc = func() time.Time { return issuedAt }

	token, err := svc.GenerateToken(context.Background(), uuid.New())
	require.NoError(t, err)

	impl.timeFunc = time.Now
	_, err = svc.ValidateToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestJWTService_WrongSecret(t *testing.T) {
	t.Parallel()

	svc1, err := NewJWTService(testAuthConfig())
	require.NoError(t, err)

	svc2, err := NewJWTService(config.AuthConfig{
		JWTSecret:            "a-different-secret-that-is-32-ch!",
		TokenLifetimeMinutes: 60,
	})
	require.NoError(t, err)

	token, err := svc1.GenerateToken(context.Background(), uuid.New())
	require.NoError(t, err)

	_, err = svc2.ValidateToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_MalformedToken(t *testing.T) {
	t.Parallel()

	svc, err := NewJWTService(testAuthConfig())
	require.NoError(t, err)

	_, err = svc.ValidateToken(context.Background(), "not.a.jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestBcryptHasherAndVerifier(t *testing.T) {
	t.Parallel()

	hasher := NewBcryptHasher(4)
	verifier := NewBcryptVerifier()

	hashed, err := hasher.Hash("secure-password-123")
	require.NoError(t, err)
	assert.NotEqual(t, "secure-password-123", hashed)

	assert.NoError(t, verifier.Compare(hashed, "secure-password-123"))
	assert.Error(t, verifier.Compare(hashed, "wrong-password"))
}
