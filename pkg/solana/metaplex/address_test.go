package metaplex

import (
	"crypto/ed25519"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/nft-minter/pkg/solana"
	"github.com/code-payments/nft-minter/pkg/testutil"
)

func TestProgramKey(t *testing.T) {
	assert.Equal(t, "metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s", base58.Encode(ProgramKey))
}

func TestGetMetadataAddress(t *testing.T) {
	mint := testutil.GenerateSolanaKeys(t, 1)[0]

	a, err := GetMetadataAddress(mint)
	require.NoError(t, err)
	b, err := DeriveMetadataAddress(mint, ProgramKey, []byte("metadata"))
	require.NoError(t, err)
	assert.Equal(t, a, b)

	expected, err := solana.FindProgramAddress(ProgramKey, []byte("metadata"), ProgramKey, mint)
	require.NoError(t, err)
	assert.Equal(t, expected, a)
}

func TestDeriveMetadataAddress_Inputs(t *testing.T) {
	keys := testutil.GenerateSolanaKeys(t, 2)
	mint, otherProgram := keys[0], keys[1]

	base, err := DeriveMetadataAddress(mint, ProgramKey, MetadataSeed)
	require.NoError(t, err)

	otherMint := append(ed25519.PublicKey{}, mint...)
	otherMint[0] ^= 0xff
	changed, err := DeriveMetadataAddress(otherMint, ProgramKey, MetadataSeed)
	require.NoError(t, err)
	assert.NotEqual(t, base, changed)

	changed, err = DeriveMetadataAddress(mint, otherProgram, MetadataSeed)
	require.NoError(t, err)
	assert.NotEqual(t, base, changed)

	changed, err = DeriveMetadataAddress(mint, ProgramKey, []byte("edition"))
	require.NoError(t, err)
	assert.NotEqual(t, base, changed)
}

func TestDeriveMetadataAddress_NoCollisions(t *testing.T) {
	const n = 10_000

	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		mint, _, err := ed25519.GenerateKey(nil)
		require.NoError(t, err)

		address, err := GetMetadataAddress(mint)
		require.NoError(t, err)

		again, err := GetMetadataAddress(mint)
		require.NoError(t, err)
		require.Equal(t, address, again)

		_, exists := seen[string(address)]
		require.False(t, exists, "collision at iteration %d", i)
		seen[string(address)] = struct{}{}
	}
}
