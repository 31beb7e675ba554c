package token

import (
	"crypto/ed25519"
	"encoding/hex"
	"testing"

	"github.com/mr-tron/base58/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnmarshal(t *testing.T) {
	data, err := hex.DecodeString("118a08c9d4cc46c576282e0daf050bbdb04f03313e35e5db3f3def69fa1eeec42b15a9cd4bef2cd809e464570d2a6cbd9bcc64e32ea4ebbcf748757bbb3dd5bd000084e2506ce67c000000000000000000000000000000000000000000000000000000000000000000000000010000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000")
	require.NoError(t, err)

	mint, err := base58.Decode("2BU1Xgyzqixhjaq9Pa5cNsaa1gSejLeNtDaDRv29qoZm")
	require.NoError(t, err)

	var a Account
	require.True(t, a.Unmarshal(data))
	assert.Equal(t, mint, []byte(a.Mint))
	assert.Equal(t, uint64(9e13*1e5), a.Amount)
	assert.Empty(t, a.Delegate)
	assert.Empty(t, a.CloseAuthority)

	var rtt Account
	rtt.Unmarshal(a.Marshal())
	assert.Equal(t, a, rtt)
}

func TestRoundTrip(t *testing.T) {
	mint := make(ed25519.PublicKey, ed25519.PublicKeySize)
	for i := 0; i < len(mint); i++ {
		mint[i] = 1
	}
	owner := make(ed25519.PublicKey, ed25519.PublicKeySize)
	for i := 0; i < len(owner); i++ {
		owner[i] = 2
	}
	delegate := make(ed25519.PublicKey, ed25519.PublicKeySize)
	for i := 0; i < len(delegate); i++ {
		delegate[i] = 3
	}
	closeAuthority := make(ed25519.PublicKey, ed25519.PublicKeySize)
	for i := 0; i < len(closeAuthority); i++ {
		closeAuthority[i] = 2
	}

	isNative := uint64(2)
	expected := Account{
		Mint:           mint,
		Owner:          owner,
		Amount:         10,
		Delegate:       delegate,
		State:          AccountStateFrozen,
		IsNative:       &isNative,
		CloseAuthority: closeAuthority,
	}

	var actual Account
	require.True(t, actual.Unmarshal(expected.Marshal()))
	assert.Equal(t, expected, actual)
}

func TestAccount_WithExtensions(t *testing.T) {
	keys := generateKeys(t, 2)

	expected := Account{
		Mint:       keys[0],
		Owner:      keys[1],
		Amount:     1,
		State:      AccountStateInitialized,
		Extensions: []Extension{{Type: ExtensionImmutableOwner, Value: []byte{}}},
	}

	b := expected.Marshal()
	assert.Len(t, b, 170)

	var actual Account
	require.True(t, actual.Unmarshal(b))
	assert.EqualValues(t, keys[0], actual.Mint)
	assert.EqualValues(t, 1, actual.Amount)
	require.Len(t, actual.Extensions, 1)
	assert.Equal(t, ExtensionImmutableOwner, actual.Extensions[0].Type)

	// A mint with extensions must not decode as a token account.
	mint := Mint{IsInitialized: true, Extensions: []Extension{{Type: ExtensionMetadataPointer, Value: make([]byte, MetadataPointerSize)}}}
	assert.False(t, actual.Unmarshal(mint.Marshal()))
}

func TestMint_RoundTrip(t *testing.T) {
	keys := generateKeys(t, 3)

	base := Mint{
		MintAuthority:   keys[0],
		Supply:          1,
		Decimals:        0,
		IsInitialized:   true,
		FreezeAuthority: keys[1],
	}

	b := base.Marshal()
	require.Len(t, b, MintSize)

	var actual Mint
	require.NoError(t, actual.Unmarshal(b))
	assert.Equal(t, base, actual)

	withPointer := base
	withPointer.MintAuthority = nil
	withPointer.Extensions = []Extension{
		{
			Type:  ExtensionMetadataPointer,
			Value: MetadataPointer{Authority: keys[0], MetadataAddress: keys[2]}.Marshal(),
		},
	}

	b = withPointer.Marshal()
	require.Len(t, b, 234)

	require.NoError(t, actual.Unmarshal(b))
	assert.Nil(t, actual.MintAuthority)
	assert.EqualValues(t, keys[1], actual.FreezeAuthority)

	pointer, err := actual.MetadataPointer()
	require.NoError(t, err)
	require.NotNil(t, pointer)
	assert.EqualValues(t, keys[0], pointer.Authority)
	assert.EqualValues(t, keys[2], pointer.MetadataAddress)

	_, ok := actual.GetExtension(ExtensionTokenMetadata)
	assert.False(t, ok)

	assert.Error(t, actual.Unmarshal(make([]byte, 100)))
}
