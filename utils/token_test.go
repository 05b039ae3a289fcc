package utils

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	secret := []byte("test-secret")

	token, csrf, err := MintAccessToken(secret, 42, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, csrf)

	userID, parsedCSRF, err := ParseAccessToken(secret, token)
	require.NoError(t, err)
	assert.EqualValues(t, 42, userID)
	assert.Equal(t, csrf, parsedCSRF)
}

func TestAccessTokenRejectsWrongSecret(t *testing.T) {
	token, _, err := MintAccessToken([]byte("one"), 7, time.Hour)
	require.NoError(t, err)

	_, _, err = ParseAccessToken([]byte("two"), token)
	assert.Error(t, err)
}

func TestAccessTokenRejectsExpired(t *testing.T) {
	token, _, err := MintAccessToken([]byte("s"), 7, -time.Minute)
	require.NoError(t, err)

	_, _, err = ParseAccessToken([]byte("s"), token)
	assert.Error(t, err)
}

func TestNewInviteToken(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token, err := NewInviteToken()
		require.NoError(t, err)
		assert.False(t, seen[token], "token collision")
		seen[token] = true

		// URL-safe: survives escaping untouched.
		assert.Equal(t, token, url.QueryEscape(token))
		assert.GreaterOrEqual(t, len(token), 40)
	}
}
