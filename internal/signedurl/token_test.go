package signedurl

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	s := NewSigner("test-secret", time.Hour)

	token, err := s.Sign("files/tool.zip", "user-123")
	require.NoError(t, err)

	claims, err := s.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "files/tool.zip", claims.FilePath)
	assert.Equal(t, "user-123", claims.UserID)
	assert.Greater(t, claims.Exp, time.Now().Unix())
}

func TestVerifyExpiredToken(t *testing.T) {
	s := NewSigner("test-secret", time.Hour)
	s.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, err := s.Sign("files/tool.zip", "user-123")
	require.NoError(t, err)

	s.now = time.Now
	_, err = s.Verify(token)
	assert.ErrorContains(t, err, "expired")
}

func TestVerifyRejectsTamperedPayload(t *testing.T) {
	s := NewSigner("test-secret", time.Hour)

	token, err := s.Sign("files/tool.zip", "user-123")
	require.NoError(t, err)

	encoded, sig, _ := strings.Cut(token, ".")
	flipped := []byte(encoded)
	flipped[0] ^= 0x01
	_, err = s.Verify(string(flipped) + "." + sig)
	assert.ErrorContains(t, err, "signature")
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	minted := NewSigner("secret-a", time.Hour)
	checker := NewSigner("secret-b", time.Hour)

	token, err := minted.Sign("files/tool.zip", "user-123")
	require.NoError(t, err)

	_, err = checker.Verify(token)
	assert.ErrorContains(t, err, "signature")
}

func TestVerifyRejectsMissingSeparator(t *testing.T) {
	s := NewSigner("test-secret", time.Hour)
	_, err := s.Verify("not-a-token")
	assert.ErrorContains(t, err, "malformed")
}
