package test_utils

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pocketplan/pocketplan/pkg/user"
	"github.com/stretchr/testify/require"
)

// CreateUser inserts a verified user row so that owned rows can reference it.
func CreateUser(t *testing.T, ctx context.Context, db *pgxpool.Pool, email string) user.User {
	t.Helper()
	created, err := user.NewUserRepo(db).CreateUser(ctx, user.User{
		Uid:          uuid.NewString(),
		Email:        email,
		DisplayName:  "Test User",
		PasswordHash: "not-a-real-hash",
		Verified:     true,
	})
	require.NoError(t, err)
	return created
}

// ContextWithUser returns a context authenticated as a fixed test user.
func ContextWithUser(id int) context.Context {
	return user.WithUser(context.Background(), user.User{
		Id:          id,
		Uid:         uuid.NewString(),
		Email:       "test@example.com",
		DisplayName: "Test User",
		Verified:    true,
	})
}
