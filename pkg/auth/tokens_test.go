package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/pocketplan/pocketplan/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokens(t *testing.T) {
	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("should round trip the uid", func(t *testing.T) {
		tokens := NewTokens("secret", time.Hour, &utils.MockClock{FixedNow: start})

		// when
		token, expiresAt, err := tokens.Issue("uid-1")
		require.NoError(t, err)
		uid, err := tokens.Verify(token)

		// then
		require.NoError(t, err)
		assert.Equal(t, "uid-1", uid)
		assert.Equal(t, start.Add(time.Hour), expiresAt)
	})

	t.Run("should reject expired token", func(t *testing.T) {
		clock := &utils.MockClock{FixedNow: start}
		tokens := NewTokens("secret", time.Hour, clock)
		token, _, err := tokens.Issue("uid-1")
		require.NoError(t, err)

		// when
		clock.Advance(time.Hour + time.Second)
		_, err = tokens.Verify(token)

		// then
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("should reject token signed with another secret", func(t *testing.T) {
		clock := &utils.MockClock{FixedNow: start}
		token, _, err := NewTokens("other", time.Hour, clock).Issue("uid-1")
		require.NoError(t, err)

		// when
		_, err = NewTokens("secret", time.Hour, clock).Verify(token)

		// then
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("should reject unsigned token", func(t *testing.T) {
		tokens := NewTokens("secret", time.Hour, &utils.MockClock{FixedNow: start})
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   "uid-1",
			ExpiresAt: jwt.NewNumericDate(start.Add(time.Hour)),
		}).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		// when
		_, err = tokens.Verify(unsigned)

		// then
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("should reject token from another issuer", func(t *testing.T) {
		tokens := NewTokens("secret", time.Hour, &utils.MockClock{FixedNow: start})
		foreign, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			Issuer:    "someone-else",
			Subject:   "uid-1",
			ExpiresAt: jwt.NewNumericDate(start.Add(time.Hour)),
		}).SignedString([]byte("secret"))
		require.NoError(t, err)

		// when
		_, err = tokens.Verify(foreign)

		// then
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("should reject garbage", func(t *testing.T) {
		tokens := NewTokens("secret", time.Hour, &utils.MockClock{FixedNow: start})

		// when
		_, err := tokens.Verify("not-a-token")

		// then
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
