package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	pmail "github.com/pocketplan/pocketplan/internal/mail"
	"github.com/pocketplan/pocketplan/internal/validation"
	"github.com/pocketplan/pocketplan/pkg/user"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNotVerified        = errors.New("email address is not verified")
	ErrInvalidCode        = errors.New("invalid or expired code")
	ErrAlreadyVerified    = errors.New("email address is already verified")
)

const (
	minPasswordLen = 8
	// bcrypt ignores everything after 72 bytes
	maxPasswordBytes = 72
)

type Session struct {
	Token     string
	ExpiresAt time.Time
	User      user.User
}

type Service interface {
	Register(ctx context.Context, email, password, displayName string) (user.User, error)
	Verify(ctx context.Context, email, code string) error
	ResendCode(ctx context.Context, email string) error
	Login(ctx context.Context, email, password string) (Session, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, email, code, newPassword string) error
	// Authenticate resolves a bearer token to its user.
	Authenticate(ctx context.Context, token string) (user.User, error)
}

type ServiceImpl struct {
	users  user.Repo
	codes  *CodeStore
	tokens *Tokens
	mailer pmail.Sender
	cost   int
}

func NewService(users user.Repo, codes *CodeStore, tokens *Tokens, mailer pmail.Sender) *ServiceImpl {
	return &ServiceImpl{users: users, codes: codes, tokens: tokens, mailer: mailer, cost: bcrypt.DefaultCost}
}

func (s *ServiceImpl) Register(ctx context.Context, email, password, displayName string) (user.User, error) {
	email, err := parseEmail(email)
	if err != nil {
		return user.User{}, err
	}
	if err := checkPassword(password); err != nil {
		return user.User{}, err
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = strings.SplitN(email, "@", 2)[0]
	}
	if utf8.RuneCountInString(displayName) > 100 {
		return user.User{}, validation.New("displayName", "must be at most 100 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return user.User{}, fmt.Errorf("could not hash password: %w", err)
	}
	created, err := s.users.CreateUser(ctx, user.User{
		Uid:          uuid.NewString(),
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: string(hash),
	})
	if err != nil {
		return user.User{}, err
	}
	log.Infof("user %s registered", created.Uid)

	if err := s.sendCode(ctx, created.Email, PurposeVerify); err != nil {
		// the account exists, the code can be requested again
		log.Errorf("failed to send verification code: %v", err)
	}
	return created, nil
}

func (s *ServiceImpl) Verify(ctx context.Context, email, code string) error {
	u, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return ErrInvalidCode
		}
		return err
	}
	if u.Verified {
		return ErrAlreadyVerified
	}
	if !s.codes.Consume(u.Email, PurposeVerify, code) {
		return ErrInvalidCode
	}
	return s.users.MarkVerified(ctx, u.Id)
}

func (s *ServiceImpl) ResendCode(ctx context.Context, email string) error {
	u, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			log.Debugf("verification code requested for unknown email")
			return nil
		}
		return err
	}
	if u.Verified {
		return ErrAlreadyVerified
	}
	return s.sendCode(ctx, u.Email, PurposeVerify)
}

func (s *ServiceImpl) Login(ctx context.Context, email, password string) (Session, error) {
	u, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return Session{}, ErrInvalidCredentials
	}
	if !u.Verified {
		return Session{}, ErrNotVerified
	}
	token, expiresAt, err := s.tokens.Issue(u.Uid)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, ExpiresAt: expiresAt, User: u}, nil
}

// RequestPasswordReset mails a reset code when the email belongs to a user. Unknown emails are
// not reported to the caller.
func (s *ServiceImpl) RequestPasswordReset(ctx context.Context, email string) error {
	u, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			log.Debugf("password reset requested for unknown email")
			return nil
		}
		return err
	}
	return s.sendCode(ctx, u.Email, PurposeReset)
}

func (s *ServiceImpl) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	if err := checkPassword(newPassword); err != nil {
		return err
	}
	u, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return ErrInvalidCode
		}
		return err
	}
	if !s.codes.Consume(u.Email, PurposeReset, code) {
		return ErrInvalidCode
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.cost)
	if err != nil {
		return fmt.Errorf("could not hash password: %w", err)
	}
	if err := s.users.UpdatePasswordHash(ctx, u.Id, string(hash)); err != nil {
		return err
	}
	// the reset code reached the mailbox, so the address is proven
	if !u.Verified {
		return s.users.MarkVerified(ctx, u.Id)
	}
	return nil
}

func (s *ServiceImpl) Authenticate(ctx context.Context, token string) (user.User, error) {
	uid, err := s.tokens.Verify(token)
	if err != nil {
		return user.User{}, err
	}
	u, err := s.users.GetUserByUid(ctx, uid)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return user.User{}, ErrInvalidToken
		}
		return user.User{}, err
	}
	if !u.Verified {
		return user.User{}, ErrNotVerified
	}
	return u, nil
}

func (s *ServiceImpl) sendCode(ctx context.Context, email string, purpose Purpose) error {
	code, err := s.codes.Issue(email, purpose)
	if err != nil {
		return err
	}
	subject, body := "Verify your email", "Your verification code is "+code
	if purpose == PurposeReset {
		subject, body = "Reset your password", "Your password reset code is "+code
	}
	return s.mailer.Send(ctx, pmail.Message{To: email, Subject: subject, Body: body})
}

func parseEmail(raw string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(raw))
	if err != nil || addr.Address != strings.TrimSpace(raw) {
		return "", validation.New("email", "is not a valid address")
	}
	return strings.ToLower(addr.Address), nil
}

func checkPassword(password string) error {
	if utf8.RuneCountInString(password) < minPasswordLen {
		return validation.New("password", fmt.Sprintf("must be at least %d characters", minPasswordLen))
	}
	if len(password) > maxPasswordBytes {
		return validation.New("password", fmt.Sprintf("must be at most %d bytes", maxPasswordBytes))
	}
	return nil
}
