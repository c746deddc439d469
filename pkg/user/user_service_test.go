package user

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupService(t *testing.T) (*UserServiceImpl, context.Context) {
	repo := NewStubUserRepository()
	created, err := repo.CreateUser(context.Background(), User{
		Uid:         uuid.NewString(),
		Email:       "Anna@Example.com",
		DisplayName: "Anna",
	})
	require.NoError(t, err)
	return NewUserService(repo), WithUser(context.Background(), created)
}

func TestUserServiceImpl_GetCurrentUser(t *testing.T) {
	t.Run("should return user from context", func(t *testing.T) {
		service, ctx := setupService(t)

		// when
		u, err := service.GetCurrentUser(ctx)

		// then
		require.NoError(t, err)
		assert.Equal(t, "anna@example.com", u.Email)
	})

	t.Run("should fail without user in context", func(t *testing.T) {
		service, _ := setupService(t)

		// when
		_, err := service.GetCurrentUser(context.Background())

		// then
		assert.ErrorIs(t, err, ErrNoUser)
	})
}

func TestUserServiceImpl_UpdateDisplayName(t *testing.T) {
	t.Run("should trim and store display name", func(t *testing.T) {
		service, ctx := setupService(t)

		// when
		u, err := service.UpdateDisplayName(ctx, "  Anna K. ")

		// then
		require.NoError(t, err)
		assert.Equal(t, "Anna K.", u.DisplayName)
	})

	t.Run("should reject empty display name", func(t *testing.T) {
		service, ctx := setupService(t)

		// when
		_, err := service.UpdateDisplayName(ctx, "   ")

		// then
		assert.ErrorIs(t, err, ErrDisplayNameRequired)
	})
}
