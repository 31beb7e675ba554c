package testutil

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

// GenerateSolanaKeypair returns a fresh keypair, such as a payer or a mint.
func GenerateSolanaKeypair(t testing.TB) ed25519.PrivateKey {
	t.Helper()

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return priv
}

// GenerateSolanaKeys returns n fresh, distinct public keys.
func GenerateSolanaKeys(t testing.TB, n int) []ed25519.PublicKey {
	t.Helper()

	keys := make([]ed25519.PublicKey, 0, n)
	for len(keys) < n {
		keys = append(keys, GenerateSolanaKeypair(t).Public().(ed25519.PublicKey))
	}
	return keys
}
