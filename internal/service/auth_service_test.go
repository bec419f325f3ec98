package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pillcare/pillcare-backend/internal/config"
	"github.com/pillcare/pillcare-backend/internal/repository"
	"github.com/pillcare/pillcare-backend/internal/types"
)

func newAuthTestEnv() (*fakeUserRepo, AuthService) {
	userRepo := newFakeUserRepo()
	cfg := &config.Config{
		JWTSecret:     "test-secret",
		JWTExpiry:     1,
		RefreshExpiry: 7,
	}
	return userRepo, NewAuthService(cfg, userRepo)
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	_, svc := newAuthTestEnv()

	user, access, refresh, err := svc.Register(ctx, "Rosa", "rosa@example.com", "password123", types.RoleSenior)
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.NotEmpty(t, access)
	assert.NotEmpty(t, refresh)
	assert.NotEqual(t, "password123", user.Password)

	t.Run("duplicate email", func(t *testing.T) {
		_, _, _, err := svc.Register(ctx, "Other", "rosa@example.com", "password123", types.RoleFamily)
		assert.ErrorIs(t, err, ErrUserExists)
	})

	t.Run("unknown role", func(t *testing.T) {
		_, _, _, err := svc.Register(ctx, "Ana", "ana@example.com", "password123", "admin")
		assert.Error(t, err)
	})

	t.Run("access token carries the user id", func(t *testing.T) {
		token, err := svc.ValidateToken(access)
		require.NoError(t, err)
		userID, err := svc.GetUserIDFromToken(token)
		require.NoError(t, err)
		assert.Equal(t, user.ID, userID)
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	_, svc := newAuthTestEnv()
	registered, _, _, err := svc.Register(ctx, "Rosa", "rosa@example.com", "password123", types.RoleSenior)
	require.NoError(t, err)

	t.Run("valid credentials", func(t *testing.T) {
		user, access, refresh, err := svc.Login(ctx, "rosa@example.com", "password123")
		require.NoError(t, err)
		assert.Equal(t, registered.ID, user.ID)
		assert.NotEmpty(t, access)
		assert.NotEmpty(t, refresh)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, _, _, err := svc.Login(ctx, "rosa@example.com", "nope")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown account", func(t *testing.T) {
		_, _, _, err := svc.Login(ctx, "ghost@example.com", "password123")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestRefreshTokenRotation(t *testing.T) {
	ctx := context.Background()
	userRepo, svc := newAuthTestEnv()
	user, _, refresh, err := svc.Register(ctx, "Rosa", "rosa@example.com", "password123", types.RoleSenior)
	require.NoError(t, err)

	access, rotated, err := svc.RefreshToken(ctx, refresh)
	require.NoError(t, err)
	assert.NotEmpty(t, access)
	assert.NotEqual(t, refresh, rotated)

	// The old token is single use.
	_, _, err = svc.RefreshToken(ctx, refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)

	t.Run("expired token is rejected and purged", func(t *testing.T) {
		expired := &repository.RefreshToken{
			Token:     "stale-token",
			UserID:    user.ID,
			ExpiresAt: time.Now().Add(-time.Hour),
		}
		require.NoError(t, userRepo.SaveRefreshToken(ctx, expired))

		_, _, err := svc.RefreshToken(ctx, "stale-token")
		assert.ErrorIs(t, err, ErrInvalidToken)

		gone, err := userRepo.FindRefreshToken(ctx, "stale-token")
		require.NoError(t, err)
		assert.Nil(t, gone)
	})
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	_, svc := newAuthTestEnv()
	_, _, refresh, err := svc.Register(ctx, "Rosa", "rosa@example.com", "password123", types.RoleSenior)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, refresh))
	_, _, err = svc.RefreshToken(ctx, refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenRejectsTampering(t *testing.T) {
	ctx := context.Background()
	_, svc := newAuthTestEnv()
	_, access, _, err := svc.Register(ctx, "Rosa", "rosa@example.com", "password123", types.RoleSenior)
	require.NoError(t, err)

	otherRepo := newFakeUserRepo()
	other := NewAuthService(&config.Config{JWTSecret: "different-secret", JWTExpiry: 1, RefreshExpiry: 7}, otherRepo)
	_, err = other.ValidateToken(access)
	assert.Error(t, err)
}
