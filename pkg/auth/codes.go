package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/pocketplan/pocketplan/internal/utils"
)

type Purpose string

const (
	PurposeVerify Purpose = "verify"
	PurposeReset  Purpose = "reset"
)

// MaxAttempts is the number of wrong guesses after which a code is discarded.
const MaxAttempts = 5

type codeKey struct {
	email   string
	purpose Purpose
}

type codeEntry struct {
	code      string
	expiresAt time.Time
	failures  int
}

// CodeStore keeps one-time numeric codes per email and purpose. Expiry is checked when a code is
// read, expired entries are dropped on every write.
type CodeStore struct {
	mu      sync.Mutex
	entries map[codeKey]codeEntry
	ttl     time.Duration
	clock   utils.Clock
}

func NewCodeStore(ttl time.Duration, clock utils.Clock) *CodeStore {
	return &CodeStore{
		entries: make(map[codeKey]codeEntry),
		ttl:     ttl,
		clock:   clock,
	}
}

// Issue creates a new code, replacing any earlier one for the same email and purpose.
func (s *CodeStore) Issue(email string, purpose Purpose) (string, error) {
	code, err := randomCode()
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock.Now()
	s.purge(now)
	s.entries[codeKey{email: normalizeEmail(email), purpose: purpose}] = codeEntry{
		code:      code,
		expiresAt: now.Add(s.ttl),
	}
	return code, nil
}

// Consume reports whether code is the live code for email and purpose. A matching code is
// removed so it cannot be used twice, and so is a code after MaxAttempts wrong guesses.
func (s *CodeStore) Consume(email string, purpose Purpose, code string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := codeKey{email: normalizeEmail(email), purpose: purpose}
	entry, ok := s.entries[key]
	if !ok {
		return false
	}
	if !s.clock.Now().Before(entry.expiresAt) {
		delete(s.entries, key)
		return false
	}
	if subtle.ConstantTimeCompare([]byte(entry.code), []byte(strings.TrimSpace(code))) != 1 {
		entry.failures++
		if entry.failures >= MaxAttempts {
			delete(s.entries, key)
		} else {
			s.entries[key] = entry
		}
		return false
	}
	delete(s.entries, key)
	return true
}

func (s *CodeStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *CodeStore) purge(now time.Time) {
	for key, entry := range s.entries {
		if !now.Before(entry.expiresAt) {
			delete(s.entries, key)
		}
	}
}

func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("could not generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
