package tokenmetadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/nft-minter/pkg/solana/token"
	"github.com/code-payments/nft-minter/pkg/testutil"
)

func TestTokenMetadata_PackRoundTrip(t *testing.T) {
	keys := testutil.GenerateSolanaKeys(t, 2)

	md := &TokenMetadata{
		UpdateAuthority: keys[0],
		Mint:            keys[1],
		Name:            "Cat NFT",
		Symbol:          "EMB",
		URI:             "https://example.com/cat.json",
		AdditionalMetadata: []Field{
			{Key: "description", Value: "Only Possible On Solana"},
			{Key: "color", Value: "orange"},
		},
	}

	b, err := md.Pack()
	require.NoError(t, err)
	assert.Len(t, b, PackedLen(md))
	assert.Equal(t, PackedLen(md)+4, AccountSpace(md))
	assert.EqualValues(t, keys[0], b[:32])
	assert.EqualValues(t, keys[1], b[32:64])

	var actual TokenMetadata
	require.NoError(t, actual.Unpack(b))
	assert.Equal(t, md, &actual)

	value, ok := actual.Get("color")
	assert.True(t, ok)
	assert.Equal(t, "orange", value)
	_, ok = actual.Get("size")
	assert.False(t, ok)
}

func TestTokenMetadata_NoUpdateAuthority(t *testing.T) {
	keys := testutil.GenerateSolanaKeys(t, 1)

	md := &TokenMetadata{Mint: keys[0], Name: "a", Symbol: "b", URI: "c"}
	b, err := md.Pack()
	require.NoError(t, err)
	assert.Equal(t, make([]byte, 32), b[:32])
	assert.Equal(t, 32+32+4+1+4+1+4+1+4, PackedLen(md))

	var actual TokenMetadata
	require.NoError(t, actual.Unpack(b))
	assert.Nil(t, actual.UpdateAuthority)
	assert.Empty(t, actual.AdditionalMetadata)
}

func TestTokenMetadata_Update(t *testing.T) {
	md := &TokenMetadata{Name: "a", Symbol: "b", URI: "c"}

	md.Update(NameField(), "name")
	md.Update(SymbolField(), "sym")
	md.Update(URIField(), "uri")
	md.Update(KeyField("k1"), "v1")
	md.Update(KeyField("k2"), "v2")
	md.Update(KeyField("k1"), "v3")

	assert.Equal(t, "name", md.Name)
	assert.Equal(t, "sym", md.Symbol)
	assert.Equal(t, "uri", md.URI)
	assert.Equal(t, []Field{{Key: "k1", Value: "v3"}, {Key: "k2", Value: "v2"}}, md.AdditionalMetadata)
}

func TestFromMint(t *testing.T) {
	keys := testutil.GenerateSolanaKeys(t, 2)

	md := &TokenMetadata{UpdateAuthority: keys[0], Mint: keys[1], Name: "Cat NFT", Symbol: "EMB", URI: "uri"}
	packed, err := md.Pack()
	require.NoError(t, err)

	mint := &token.Mint{IsInitialized: true}
	_, err = FromMint(mint)
	assert.Equal(t, ErrNoMetadata, err)

	mint.Extensions = []token.Extension{
		{Type: token.ExtensionMetadataPointer, Value: token.MetadataPointer{Authority: keys[0], MetadataAddress: keys[1]}.Marshal()},
		{Type: token.ExtensionTokenMetadata, Value: packed},
	}

	var decoded token.Mint
	require.NoError(t, decoded.Unmarshal(mint.Marshal()))

	actual, err := FromMint(&decoded)
	require.NoError(t, err)
	assert.Equal(t, md.Name, actual.Name)
	assert.Equal(t, md.Symbol, actual.Symbol)
	assert.Equal(t, md.URI, actual.URI)
	assert.EqualValues(t, keys[1], actual.Mint)
}
