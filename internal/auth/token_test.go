package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "unit-test-secret"

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := NewAccessToken(testSecret, "john@dealer.test", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, tok.Token)

	sub, err := Subject(testSecret, tok.Token)
	require.NoError(t, err)
	assert.Equal(t, "john@dealer.test", sub)
	assert.False(t, IsExpired(testSecret, tok.Token))
}

func TestSubjectSurvivesExpiry(t *testing.T) {
	tok, err := NewAccessToken(testSecret, "john@dealer.test", -time.Minute)
	require.NoError(t, err)

	// expired tokens still reveal who they were issued to
	sub, err := Subject(testSecret, tok.Token)
	require.NoError(t, err)
	assert.Equal(t, "john@dealer.test", sub)
	assert.True(t, IsExpired(testSecret, tok.Token))
}

func TestSubjectRejectsBadSignature(t *testing.T) {
	tok, err := NewAccessToken(testSecret, "john@dealer.test", time.Hour)
	require.NoError(t, err)

	_, err = Subject("some-other-secret", tok.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = Subject(testSecret, tok.Token+"x")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = Subject(testSecret, "not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshTokenExtraClaims(t *testing.T) {
	// extra claims ride along but can never override the subject
	tok, err := NewRefreshToken(testSecret, "john@dealer.test",
		map[string]any{"sub": "mallory@dealer.test", "device": "kiosk"}, time.Hour)
	require.NoError(t, err)

	sub, err := Subject(testSecret, tok.Token)
	require.NoError(t, err)
	assert.Equal(t, "john@dealer.test", sub)
}

func TestValidate(t *testing.T) {
	fresh, err := NewAccessToken(testSecret, "john@dealer.test", time.Hour)
	require.NoError(t, err)
	stale, err := NewAccessToken(testSecret, "john@dealer.test", -time.Minute)
	require.NoError(t, err)

	john := &Principal{Email: "john@dealer.test"}
	jane := &Principal{Email: "jane@dealer.test"}

	assert.True(t, Validate(testSecret, fresh.Token, john))
	assert.False(t, Validate(testSecret, fresh.Token, jane), "subject mismatch")
	assert.False(t, Validate(testSecret, stale.Token, john), "expired")
	assert.False(t, Validate("wrong", fresh.Token, john), "bad signature")
}
