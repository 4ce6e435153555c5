// Package auth implements credential handling, token issuance and the
// session lifecycle for the security service.
package auth

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

// Domain error kinds. Repositories and the service translate every
// store-level failure into one of these; raw pg errors never cross the
// package boundary.
var (
	// ErrInvalidInput indicates malformed email, password, username or
	// token type. Locally correctable by the caller.
	ErrInvalidInput = errors.New("invalid input")
	// ErrAlreadyExists indicates an email or username uniqueness conflict.
	ErrAlreadyExists = errors.New("account already exists")
	// ErrInvalidCredentials covers both unknown email and wrong password.
	// The two cases are intentionally indistinguishable.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInactiveAccount indicates valid credentials on a disabled account.
	ErrInactiveAccount = errors.New("account is inactive")
	// ErrNotFound indicates a missing record.
	ErrNotFound = errors.New("record not found")
	// ErrHashConflict indicates a token digest collided with an existing
	// session. Retryable; not a user validation error.
	ErrHashConflict = errors.New("token hash conflict")
)

var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// NormalizeEmail trims and lower-cases email and checks the basic
// local@domain.tld shape.
func NormalizeEmail(email string) (string, error) {
	cleaned := strings.ToLower(strings.TrimSpace(email))
	if cleaned == "" || !emailRegex.MatchString(cleaned) {
		return "", ErrInvalidInput
	}
	return cleaned, nil
}

// NormalizeUsername trims and lower-cases username. An empty result
// normalizes to absent.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// User is an identity record. Email and username are stored normalized and
// unique; PasswordHash is a one-way salted hash, never the plaintext.
type User struct {
	ID           string
	Email        string
	Username     string
	PasswordHash string
	IsActive     bool
	IsVerified   bool
	LastLoginAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SessionToken is one issued credential pair bound to exactly one user.
// It holds only the token digests; raw tokens are never persisted.
type SessionToken struct {
	ID               string
	UserID           string
	AccessTokenHash  string
	RefreshTokenHash string
	ExpiresAt        time.Time
	RevokedAt        *time.Time
	LastSeenAt       *time.Time
	IPAddress        string
	UserAgent        string
	IsPersistent     bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsActive reports whether the session is neither revoked nor expired at the
// given instant. The boundary is inclusive: a session expiring exactly at now
// is still active. Naive timestamps are normalized to UTC before comparison.
func (s *SessionToken) IsActive(now time.Time) bool {
	if s.RevokedAt != nil {
		return false
	}
	if s.ExpiresAt.IsZero() {
		return false
	}
	return !s.ExpiresAt.UTC().Before(now.UTC())
}

// Revoke marks the session revoked at the given instant. Revocation is
// terminal: re-revoking keeps the original timestamp. A zero instant means
// the current time.
func (s *SessionToken) Revoke(when time.Time) {
	if s.RevokedAt != nil {
		return
	}
	if when.IsZero() {
		when = time.Now()
	}
	moment := when.UTC()
	s.RevokedAt = &moment
}

// Touch updates the last-seen timestamp. A zero instant means the current
// time.
func (s *SessionToken) Touch(when time.Time) {
	if when.IsZero() {
		when = time.Now()
	}
	moment := when.UTC()
	s.LastSeenAt = &moment
}
