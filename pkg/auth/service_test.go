package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/pocketplan/pocketplan/internal/mail"
	"github.com/pocketplan/pocketplan/internal/utils"
	"github.com/pocketplan/pocketplan/internal/validation"
	"github.com/pocketplan/pocketplan/pkg/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const password = "correct-horse"

type fixture struct {
	service *ServiceImpl
	users   *user.StubUserRepository
	mailer  *mail.RecordingSender
	clock   *utils.MockClock
	codes   *CodeStore
}

func setupService() fixture {
	clock := &utils.MockClock{FixedNow: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	users := user.NewStubUserRepository()
	mailer := &mail.RecordingSender{}
	codes := NewCodeStore(15*time.Minute, clock)
	service := NewService(users, codes, NewTokens("secret", time.Hour, clock), mailer)
	service.cost = bcrypt.MinCost
	return fixture{service: service, users: users, mailer: mailer, clock: clock, codes: codes}
}

func lastCode(t *testing.T, mailer *mail.RecordingSender) string {
	t.Helper()
	msg, ok := mailer.Last()
	require.True(t, ok, "no mail sent")
	return msg.Body[len(msg.Body)-6:]
}

func registerVerified(t *testing.T, f fixture, email string) user.User {
	t.Helper()
	ctx := context.Background()
	created, err := f.service.Register(ctx, email, password, "")
	require.NoError(t, err)
	require.NoError(t, f.service.Verify(ctx, email, lastCode(t, f.mailer)))
	return created
}

func TestServiceImpl_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("should create unverified user and mail a code", func(t *testing.T) {
		f := setupService()

		// when
		created, err := f.service.Register(ctx, "Ann@Example.com", password, "")

		// then
		require.NoError(t, err)
		assert.Equal(t, "ann@example.com", created.Email)
		assert.Equal(t, "ann", created.DisplayName)
		assert.False(t, created.Verified)
		assert.NotEmpty(t, created.Uid)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte(password)))
		msg, ok := f.mailer.Last()
		require.True(t, ok)
		assert.Equal(t, "ann@example.com", msg.To)
		assert.Equal(t, "Verify your email", msg.Subject)
	})

	t.Run("should reject invalid input", func(t *testing.T) {
		f := setupService()

		for name, tc := range map[string]struct{ email, password string }{
			"email":          {"not-an-email", password},
			"named address":  {"Ann <ann@example.com>", password},
			"short password": {"ann@example.com", "short"},
			"long password":  {"ann@example.com", strings.Repeat("x", 73)},
		} {
			t.Run(name, func(t *testing.T) {
				// when
				_, err := f.service.Register(ctx, tc.email, tc.password, "Ann")

				// then
				_, ok := validation.As(err)
				assert.True(t, ok, "expected validation error, got %v", err)
			})
		}
		assert.Empty(t, f.mailer.Sent)
	})

	t.Run("should reject taken email", func(t *testing.T) {
		f := setupService()
		_, err := f.service.Register(ctx, "ann@example.com", password, "Ann")
		require.NoError(t, err)

		// when
		_, err = f.service.Register(ctx, "ANN@example.com", password, "Other")

		// then
		assert.ErrorIs(t, err, user.ErrEmailTaken)
	})

	t.Run("should keep account when mail fails", func(t *testing.T) {
		f := setupService()
		f.mailer.Err = errors.New("smtp down")

		// when
		created, err := f.service.Register(ctx, "ann@example.com", password, "Ann")

		// then
		require.NoError(t, err)
		_, err = f.users.GetUser(ctx, created.Id)
		assert.NoError(t, err)
	})
}

func TestServiceImpl_Verify(t *testing.T) {
	ctx := context.Background()

	t.Run("should mark user verified", func(t *testing.T) {
		f := setupService()

		// when
		created := registerVerified(t, f, "ann@example.com")

		// then
		stored, err := f.users.GetUser(ctx, created.Id)
		require.NoError(t, err)
		assert.True(t, stored.Verified)
	})

	t.Run("should reject expired code", func(t *testing.T) {
		f := setupService()
		_, err := f.service.Register(ctx, "ann@example.com", password, "Ann")
		require.NoError(t, err)
		code := lastCode(t, f.mailer)
		f.clock.Advance(16 * time.Minute)

		// when
		err = f.service.Verify(ctx, "ann@example.com", code)

		// then
		assert.ErrorIs(t, err, ErrInvalidCode)
	})

	t.Run("should reject unknown email", func(t *testing.T) {
		f := setupService()

		// when
		err := f.service.Verify(ctx, "nobody@example.com", "123456")

		// then
		assert.ErrorIs(t, err, ErrInvalidCode)
	})

	t.Run("should report already verified", func(t *testing.T) {
		f := setupService()
		registerVerified(t, f, "ann@example.com")

		// when
		err := f.service.Verify(ctx, "ann@example.com", "123456")

		// then
		assert.ErrorIs(t, err, ErrAlreadyVerified)
	})
}

func TestServiceImpl_ResendCode(t *testing.T) {
	ctx := context.Background()

	t.Run("should replace the previous code", func(t *testing.T) {
		f := setupService()
		_, err := f.service.Register(ctx, "ann@example.com", password, "Ann")
		require.NoError(t, err)

		// when
		require.NoError(t, f.service.ResendCode(ctx, "ann@example.com"))

		// then
		assert.Len(t, f.mailer.Sent, 2)
		assert.NoError(t, f.service.Verify(ctx, "ann@example.com", lastCode(t, f.mailer)))
	})

	t.Run("should stay silent for unknown email", func(t *testing.T) {
		f := setupService()

		// when
		err := f.service.ResendCode(ctx, "nobody@example.com")

		// then
		assert.NoError(t, err)
		assert.Empty(t, f.mailer.Sent)
	})
}

func TestServiceImpl_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("should issue a token for verified user", func(t *testing.T) {
		f := setupService()
		created := registerVerified(t, f, "ann@example.com")

		// when
		session, err := f.service.Login(ctx, "ann@example.com", password)

		// then
		require.NoError(t, err)
		assert.Equal(t, created.Uid, session.User.Uid)
		assert.Equal(t, f.clock.Now().Add(time.Hour), session.ExpiresAt)
		authenticated, err := f.service.Authenticate(ctx, session.Token)
		require.NoError(t, err)
		assert.Equal(t, created.Id, authenticated.Id)
	})

	t.Run("should reject wrong password and unknown email alike", func(t *testing.T) {
		f := setupService()
		registerVerified(t, f, "ann@example.com")

		// when
		_, wrongPassword := f.service.Login(ctx, "ann@example.com", "wrong-password")
		_, unknown := f.service.Login(ctx, "nobody@example.com", password)

		// then
		assert.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
		assert.ErrorIs(t, unknown, ErrInvalidCredentials)
	})

	t.Run("should refuse unverified user", func(t *testing.T) {
		f := setupService()
		_, err := f.service.Register(ctx, "ann@example.com", password, "Ann")
		require.NoError(t, err)

		// when
		_, err = f.service.Login(ctx, "ann@example.com", password)

		// then
		assert.ErrorIs(t, err, ErrNotVerified)
	})
}

func TestServiceImpl_PasswordReset(t *testing.T) {
	ctx := context.Background()

	t.Run("should set new password with mailed code", func(t *testing.T) {
		f := setupService()
		registerVerified(t, f, "ann@example.com")

		// when
		require.NoError(t, f.service.RequestPasswordReset(ctx, "ann@example.com"))
		msg, _ := f.mailer.Last()
		err := f.service.ResetPassword(ctx, "ann@example.com", lastCode(t, f.mailer), "new-password-1")

		// then
		require.NoError(t, err)
		assert.Equal(t, "Reset your password", msg.Subject)
		_, err = f.service.Login(ctx, "ann@example.com", password)
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		_, err = f.service.Login(ctx, "ann@example.com", "new-password-1")
		assert.NoError(t, err)
	})

	t.Run("should not accept a verification code", func(t *testing.T) {
		f := setupService()
		_, err := f.service.Register(ctx, "ann@example.com", password, "Ann")
		require.NoError(t, err)

		// when
		err = f.service.ResetPassword(ctx, "ann@example.com", lastCode(t, f.mailer), "new-password-1")

		// then
		assert.ErrorIs(t, err, ErrInvalidCode)
	})

	t.Run("should verify the address of an unverified user", func(t *testing.T) {
		f := setupService()
		created, err := f.service.Register(ctx, "ann@example.com", password, "Ann")
		require.NoError(t, err)
		require.NoError(t, f.service.RequestPasswordReset(ctx, "ann@example.com"))

		// when
		err = f.service.ResetPassword(ctx, "ann@example.com", lastCode(t, f.mailer), "new-password-1")

		// then
		require.NoError(t, err)
		stored, err := f.users.GetUser(ctx, created.Id)
		require.NoError(t, err)
		assert.True(t, stored.Verified)
	})

	t.Run("should accept requests for unknown email without sending mail", func(t *testing.T) {
		f := setupService()

		// when
		err := f.service.RequestPasswordReset(ctx, "nobody@example.com")

		// then
		assert.NoError(t, err)
		assert.Empty(t, f.mailer.Sent)
	})

	t.Run("should validate new password before consuming the code", func(t *testing.T) {
		f := setupService()
		registerVerified(t, f, "ann@example.com")
		require.NoError(t, f.service.RequestPasswordReset(ctx, "ann@example.com"))
		code := lastCode(t, f.mailer)

		// when
		err := f.service.ResetPassword(ctx, "ann@example.com", code, "short")

		// then
		_, ok := validation.As(err)
		assert.True(t, ok)
		assert.NoError(t, f.service.ResetPassword(ctx, "ann@example.com", code, "long-enough"))
	})

	t.Run("should refuse the mailed code after repeated wrong guesses", func(t *testing.T) {
		f := setupService()
		registerVerified(t, f, "ann@example.com")
		require.NoError(t, f.service.RequestPasswordReset(ctx, "ann@example.com"))
		code := lastCode(t, f.mailer)
		wrong := "000000"
		if code == wrong {
			wrong = "111111"
		}

		// when
		for i := 0; i < MaxAttempts; i++ {
			require.ErrorIs(t, f.service.ResetPassword(ctx, "ann@example.com", wrong, "new-password-1"), ErrInvalidCode)
		}
		err := f.service.ResetPassword(ctx, "ann@example.com", code, "new-password-1")

		// then
		assert.ErrorIs(t, err, ErrInvalidCode)
		_, err = f.service.Login(ctx, "ann@example.com", password)
		assert.NoError(t, err)
	})
}

func TestServiceImpl_Authenticate(t *testing.T) {
	ctx := context.Background()

	t.Run("should reject token of deleted user", func(t *testing.T) {
		f := setupService()
		token, _, err := f.service.tokens.Issue("missing-uid")
		require.NoError(t, err)

		// when
		_, err = f.service.Authenticate(ctx, token)

		// then
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("should reject expired token", func(t *testing.T) {
		f := setupService()
		registerVerified(t, f, "ann@example.com")
		session, err := f.service.Login(ctx, "ann@example.com", password)
		require.NoError(t, err)
		f.clock.Advance(2 * time.Hour)

		// when
		_, err = f.service.Authenticate(ctx, session.Token)

		// then
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
