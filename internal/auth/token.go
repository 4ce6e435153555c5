package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"time"
)

// Session TTL policy. Persistence only changes expiry, never generation.
const (
	AccessSessionTTL     = time.Hour
	PersistentSessionTTL = 30 * 24 * time.Hour
)

// Byte lengths of the raw random tokens before encoding.
const (
	accessTokenBytes  = 32
	refreshTokenBytes = 40
)

// TokenPair bundles the two opaque bearer credentials issued for a session.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Issuer generates opaque tokens and their storage digests.
type Issuer struct{}

// NewIssuer constructs an Issuer.
func NewIssuer() *Issuer {
	return &Issuer{}
}

// Issue returns two independently generated high-entropy random tokens.
// The persistent flag does not influence generation, only the downstream
// expiry policy.
func (i *Issuer) Issue(persistent bool) (TokenPair, error) {
	access, err := generateToken(accessTokenBytes)
	if err != nil {
		return TokenPair{}, fmt.Errorf("auth: issue access token: %w", err)
	}
	refresh, err := generateToken(refreshTokenBytes)
	if err != nil {
		return TokenPair{}, fmt.Errorf("auth: issue refresh token: %w", err)
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// TTL returns the session lifetime for the given persistence flag.
func (i *Issuer) TTL(persistent bool) time.Duration {
	if persistent {
		return PersistentSessionTTL
	}
	return AccessSessionTTL
}

// HashToken returns the deterministic one-way digest stored and looked up in
// place of the raw token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func generateToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
