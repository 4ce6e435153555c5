package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeEmail(t *testing.T) {
	cases := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"plain", "player@example.com", "player@example.com", false},
		{"uppercase", "Player@EXAMPLE.com", "player@example.com", false},
		{"surrounding whitespace", "  a@b.io \n", "a@b.io", false},
		{"subdomain", "a@mail.example.co.uk", "a@mail.example.co.uk", false},
		{"empty", "", "", true},
		{"whitespace only", "   ", "", true},
		{"missing at", "player.example.com", "", true},
		{"missing tld", "player@example", "", true},
		{"space in local part", "pla yer@example.com", "", true},
		{"space in domain", "player@exa mple.com", "", true},
		{"double at", "a@@b.com", "", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NormalizeEmail(tc.in)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNormalizeUsername(t *testing.T) {
	assert.Equal(t, "shadowfox", NormalizeUsername(" ShadowFox "))
	assert.Equal(t, "", NormalizeUsername("   "))
	assert.Equal(t, "", NormalizeUsername(""))
}

func TestSessionIsActiveBoundary(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	session := &SessionToken{ExpiresAt: now}

	assert.True(t, session.IsActive(now.Add(-time.Minute)))
	assert.True(t, session.IsActive(now), "expiry boundary is inclusive")
	assert.False(t, session.IsActive(now.Add(time.Microsecond)))
}

func TestSessionIsActiveRevoked(t *testing.T) {
	now := time.Now()
	revokedAt := now.Add(-time.Minute)
	session := &SessionToken{
		ExpiresAt: now.Add(time.Hour),
		RevokedAt: &revokedAt,
	}
	assert.False(t, session.IsActive(now), "revocation wins over a future expiry")
}

func TestSessionIsActiveZeroExpiry(t *testing.T) {
	session := &SessionToken{}
	assert.False(t, session.IsActive(time.Now()))
}

func TestSessionRevokeIsTerminal(t *testing.T) {
	session := &SessionToken{ExpiresAt: time.Now().Add(time.Hour)}

	first := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	session.Revoke(first)
	require.NotNil(t, session.RevokedAt)
	assert.Equal(t, first, *session.RevokedAt)

	session.Revoke(first.Add(time.Hour))
	assert.Equal(t, first, *session.RevokedAt, "re-revoking keeps the original timestamp")
}

func TestSessionRevokeZeroInstant(t *testing.T) {
	session := &SessionToken{ExpiresAt: time.Now().Add(time.Hour)}
	before := time.Now().UTC()
	session.Revoke(time.Time{})
	require.NotNil(t, session.RevokedAt)
	assert.False(t, session.RevokedAt.Before(before))
}

func TestSessionTouch(t *testing.T) {
	session := &SessionToken{}
	when := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	session.Touch(when)
	require.NotNil(t, session.LastSeenAt)
	assert.Equal(t, when, *session.LastSeenAt)

	later := when.Add(time.Minute)
	session.Touch(later)
	assert.Equal(t, later, *session.LastSeenAt)
}
