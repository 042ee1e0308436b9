package token

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionToken_RoundTrip(t *testing.T) {
	SetSecretKey([]byte("test-secret"))
	now := time.Unix(1_700_000_000, 0)

	tok, err := IssueSessionToken(42, time.Hour, now)
	require.NoError(t, err)

	payload, err := ParseSessionToken(tok, now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, uint(42), payload.UserID)
	assert.Equal(t, now.Add(time.Hour).Unix(), payload.ExpiresAt)
}

func TestParseSessionToken_Rejects(t *testing.T) {
	SetSecretKey([]byte("test-secret"))
	now := time.Unix(1_700_000_000, 0)
	tok, err := IssueSessionToken(7, time.Hour, now)
	require.NoError(t, err)

	t.Run("expired", func(t *testing.T) {
		_, err := ParseSessionToken(tok, now.Add(2*time.Hour))
		assert.ErrorIs(t, err, ErrTokenExpired)
	})

	t.Run("tampered payload", func(t *testing.T) {
		other, err := IssueSessionToken(8, time.Hour, now)
		require.NoError(t, err)
		forged := strings.Split(other, ".")[0] + "." + strings.Split(tok, ".")[1]
		_, err = ParseSessionToken(forged, now)
		assert.ErrorIs(t, err, ErrBadSignature)
	})

	t.Run("malformed", func(t *testing.T) {
		for _, bad := range []string{"", "abc", ".sig", "payload.", "!!!.###"} {
			_, err := ParseSessionToken(bad, now)
			assert.ErrorIs(t, err, ErrMalformedToken, bad)
		}
	})

	t.Run("different key", func(t *testing.T) {
		SetSecretKey([]byte("rotated"))
		t.Cleanup(func() { SetSecretKey([]byte("test-secret")) })
		_, err := ParseSessionToken(tok, now)
		assert.ErrorIs(t, err, ErrBadSignature)
	})
}

func TestGenerateSecretKey(t *testing.T) {
	GenerateSecretKey()
	tok, err := IssueSessionToken(1, time.Minute, time.Now())
	require.NoError(t, err)
	_, err = ParseSessionToken(tok, time.Now())
	assert.NoError(t, err)
}
