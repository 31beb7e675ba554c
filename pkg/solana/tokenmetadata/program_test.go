package tokenmetadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/nft-minter/pkg/solana"
	"github.com/code-payments/nft-minter/pkg/solana/token"
	"github.com/code-payments/nft-minter/pkg/testutil"
)

func TestInitialize(t *testing.T) {
	keys := testutil.GenerateSolanaKeys(t, 2)
	mint, authority := keys[0], keys[1]

	instruction, err := Initialize(token.Token2022ProgramKey, mint, authority, mint, authority, "Cat NFT", "EMB", "https://example.com/cat.json")
	require.NoError(t, err)

	assert.Equal(t, token.Token2022ProgramKey, instruction.Program)
	assert.Equal(t, initializeDiscriminator, instruction.Data[:8])
	require.Len(t, instruction.Accounts, 4)
	assert.True(t, instruction.Accounts[0].IsWritable)
	assert.True(t, instruction.Accounts[3].IsSigner)
	assert.Equal(t, []byte{7, 0, 0, 0}, instruction.Data[8:12])
	assert.Equal(t, "Cat NFT", string(instruction.Data[12:19]))

	tx := solana.NewTransaction(authority, instruction)
	assert.True(t, IsInitialize(tx.Message, 0))
	assert.False(t, IsUpdateField(tx.Message, 0))

	decompiled, err := DecompileInitialize(tx.Message, 0)
	require.NoError(t, err)
	assert.EqualValues(t, token.Token2022ProgramKey, decompiled.Program)
	assert.EqualValues(t, mint, decompiled.Metadata)
	assert.EqualValues(t, mint, decompiled.Mint)
	assert.EqualValues(t, authority, decompiled.UpdateAuthority)
	assert.EqualValues(t, authority, decompiled.MintAuthority)
	assert.Equal(t, "Cat NFT", decompiled.Name)
	assert.Equal(t, "EMB", decompiled.Symbol)
	assert.Equal(t, "https://example.com/cat.json", decompiled.URI)
}

func TestUpdateField(t *testing.T) {
	keys := testutil.GenerateSolanaKeys(t, 2)

	for _, tc := range []struct {
		field FieldKey
		data  []byte
	}{
		{NameField(), []byte{0}},
		{SymbolField(), []byte{1}},
		{URIField(), []byte{2}},
		{KeyField("color"), []byte{3, 5, 0, 0, 0, 'c', 'o', 'l', 'o', 'r'}},
	} {
		instruction, err := UpdateField(token.Token2022ProgramKey, keys[0], keys[1], tc.field, "blue")
		require.NoError(t, err)

		assert.Equal(t, updateFieldDiscriminator, instruction.Data[:8])
		assert.Equal(t, tc.data, instruction.Data[8:8+len(tc.data)])
		assert.Equal(t, []byte{4, 0, 0, 0, 'b', 'l', 'u', 'e'}, instruction.Data[8+len(tc.data):])

		require.Len(t, instruction.Accounts, 2)
		assert.True(t, instruction.Accounts[0].IsWritable)
		assert.False(t, instruction.Accounts[1].IsWritable)
		assert.True(t, instruction.Accounts[1].IsSigner)

		tx := solana.NewTransaction(keys[1], instruction)
		assert.True(t, IsUpdateField(tx.Message, 0))

		decompiled, err := DecompileUpdateField(tx.Message, 0)
		require.NoError(t, err)
		assert.EqualValues(t, keys[0], decompiled.Metadata)
		assert.EqualValues(t, keys[1], decompiled.UpdateAuthority)
		assert.Equal(t, tc.field, decompiled.Field)
		assert.Equal(t, "blue", decompiled.Value)
	}

	_, err := UpdateField(token.Token2022ProgramKey, keys[0], keys[1], FieldKey{Kind: 9}, "x")
	assert.Equal(t, ErrUnknownField, err)
}

func TestDecompile_WrongInstruction(t *testing.T) {
	keys := testutil.GenerateSolanaKeys(t, 3)

	tx := solana.NewTransaction(keys[0], token.InitializeMint(token.Token2022ProgramKey, keys[1], keys[0], keys[0], 0))
	_, err := DecompileInitialize(tx.Message, 0)
	assert.Equal(t, solana.ErrIncorrectInstruction, err)
	_, err = DecompileUpdateField(tx.Message, 0)
	assert.Equal(t, solana.ErrIncorrectInstruction, err)
	_, err = DecompileUpdateField(tx.Message, 1)
	assert.Error(t, err)
}
