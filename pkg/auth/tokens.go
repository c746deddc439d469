package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/pocketplan/pocketplan/internal/utils"
)

var ErrInvalidToken = errors.New("invalid token")

const issuer = "pocketplan"

// Tokens issues and verifies HS256 bearer tokens whose subject is the user uid.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	clock  utils.Clock
}

func NewTokens(secret string, ttl time.Duration, clock utils.Clock) *Tokens {
	return &Tokens{secret: []byte(secret), ttl: ttl, clock: clock}
}

func (t *Tokens) Issue(uid string) (string, time.Time, error) {
	now := t.clock.Now()
	expiresAt := now.Add(t.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   uid,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	})
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("could not sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify returns the uid the token was issued for.
func (t *Tokens) Verify(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithoutClaimsValidation())
	_, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return t.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	// claims are checked against the injected clock instead of the library's wall clock
	now := t.clock.Now()
	if !claims.VerifyExpiresAt(now, true) {
		return "", fmt.Errorf("%w: expired", ErrInvalidToken)
	}
	if !claims.VerifyIssuer(issuer, true) {
		return "", fmt.Errorf("%w: unexpected issuer", ErrInvalidToken)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims.Subject, nil
}
