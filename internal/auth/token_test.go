package auth

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssuerIssue(t *testing.T) {
	issuer := NewIssuer()

	pair, err := issuer.Issue(false)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)

	access, err := base64.RawURLEncoding.DecodeString(pair.AccessToken)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(access), 32)

	refresh, err := base64.RawURLEncoding.DecodeString(pair.RefreshToken)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(refresh), 32)
}

func TestIssuerIssueIsUnique(t *testing.T) {
	issuer := NewIssuer()
	seen := make(map[string]struct{})
	for i := 0; i < 64; i++ {
		pair, err := issuer.Issue(i%2 == 0)
		require.NoError(t, err)
		for _, token := range []string{pair.AccessToken, pair.RefreshToken} {
			_, dup := seen[token]
			require.False(t, dup, "token issued twice")
			seen[token] = struct{}{}
		}
	}
}

func TestIssuerTTL(t *testing.T) {
	issuer := NewIssuer()
	assert.Equal(t, time.Hour, issuer.TTL(false))
	assert.Equal(t, 30*24*time.Hour, issuer.TTL(true))
}

func TestHashToken(t *testing.T) {
	// SHA-256 of the empty string, the classic fixed vector.
	assert.Equal(t,
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		HashToken(""))

	assert.Equal(t, HashToken("abc"), HashToken("abc"))
	assert.NotEqual(t, HashToken("abc"), HashToken("abd"))
	assert.Len(t, HashToken("anything"), 64)
}
