package storage

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignedURLRoundTrip(t *testing.T) {
	signer := NewSignedURLSigner("top-secret", time.Hour)

	token, expiresAt, err := signer.Generate("cert-1", "certificate_sch-1_round_1.pdf")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	resourceID, relPath, parsedExp, err := signer.Parse(token, false)
	require.NoError(t, err)
	assert.Equal(t, "cert-1", resourceID)
	assert.Equal(t, "certificate_sch-1_round_1.pdf", relPath)
	assert.Equal(t, expiresAt.Unix(), parsedExp.Unix())
}

func TestSignedURLTamperedSignature(t *testing.T) {
	signer := NewSignedURLSigner("top-secret", time.Hour)
	token, _, err := signer.Generate("cert-1", "certificate.pdf")
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	parts[3] = strings.Repeat("0", len(parts[3]))
	_, _, _, err = signer.Parse(strings.Join(parts, "."), false)
	assert.ErrorContains(t, err, "signature")
}

func TestSignedURLWrongSecret(t *testing.T) {
	token, _, err := NewSignedURLSigner("secret-a", time.Hour).Generate("cert-1", "certificate.pdf")
	require.NoError(t, err)

	_, _, _, err = NewSignedURLSigner("secret-b", time.Hour).Parse(token, false)
	assert.ErrorContains(t, err, "signature")
}

func TestSignedURLExpired(t *testing.T) {
	signer := &SignedURLSigner{secret: []byte("top-secret"), ttl: -time.Minute}
	token, _, err := signer.Generate("cert-1", "certificate.pdf")
	require.NoError(t, err)

	_, _, _, err = signer.Parse(token, false)
	assert.ErrorContains(t, err, "expired")

	// Cleanup routines may read expired tokens.
	resourceID, _, _, err := signer.Parse(token, true)
	require.NoError(t, err)
	assert.Equal(t, "cert-1", resourceID)
}

func TestSignedURLGarbageToken(t *testing.T) {
	signer := NewSignedURLSigner("top-secret", time.Hour)
	_, _, _, err := signer.Parse("not-a-token", false)
	assert.ErrorContains(t, err, "invalid token")
}

func TestSignedURLRequiresInputs(t *testing.T) {
	signer := NewSignedURLSigner("top-secret", time.Hour)
	_, _, err := signer.Generate("", "certificate.pdf")
	assert.Error(t, err)
	_, _, err = signer.Generate("cert-1", "")
	assert.Error(t, err)
}
