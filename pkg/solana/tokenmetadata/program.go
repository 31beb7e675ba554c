package tokenmetadata

import (
	"bytes"
	"crypto/ed25519"

	"github.com/near/borsh-go"
	"github.com/pkg/errors"

	"github.com/code-payments/nft-minter/pkg/solana"
)

// Instruction discriminators are the first 8 bytes of
// sha256("spl_token_metadata_interface:<instruction>").
//
// Reference: https://github.com/solana-labs/solana-program-library/blob/token-metadata-interface-v0.2.0/token-metadata/interface/src/instruction.rs
var (
	initializeDiscriminator  = []byte{210, 225, 30, 162, 88, 184, 77, 141}
	updateFieldDiscriminator = []byte{221, 233, 49, 45, 181, 202, 220, 200}
)

const discriminatorSize = 8

// Reference: https://github.com/solana-labs/solana-program-library/blob/token-metadata-interface-v0.2.0/token-metadata/interface/src/error.rs
const (
	ErrorIncorrectAccount solana.CustomError = 901_952_000 + iota
	ErrorMintHasNoMintAuthority
	ErrorIncorrectMintAuthority
	ErrorIncorrectUpdateAuthority
	ErrorImmutableMetadata
	ErrorKeyNotFound
)

var ErrUnknownField = errors.New("unknown metadata field")

type FieldKind byte

const (
	FieldName FieldKind = iota
	FieldSymbol
	FieldURI
	FieldKeyed
)

// FieldKey selects the metadata field an UpdateField instruction writes.
// Key is only used for FieldKeyed.
type FieldKey struct {
	Kind FieldKind
	Key  string
}

func NameField() FieldKey   { return FieldKey{Kind: FieldName} }
func SymbolField() FieldKey { return FieldKey{Kind: FieldSymbol} }
func URIField() FieldKey    { return FieldKey{Kind: FieldURI} }

// KeyField selects an additional metadata field.
func KeyField(key string) FieldKey { return FieldKey{Kind: FieldKeyed, Key: key} }

type initializeArgs struct {
	Name   string
	Symbol string
	URI    string
}

type updateFieldArgs struct {
	Kind  uint8
	Value string
}

type updateKeyedFieldArgs struct {
	Kind  uint8
	Key   string
	Value string
}

// Initialize writes the core metadata record into the metadata account. For
// token extensions mints that embed metadata, the metadata account is the
// mint itself and program is the token extensions program.
func Initialize(program, metadata, updateAuthority, mint, mintAuthority ed25519.PublicKey, name, symbol, uri string) (solana.Instruction, error) {
	args, err := borsh.Serialize(initializeArgs{Name: name, Symbol: symbol, URI: uri})
	if err != nil {
		return solana.Instruction{}, errors.Wrap(err, "failed to serialize initialize args")
	}

	// Accounts expected by this instruction:
	//
	//   0. `[writable]` Metadata
	//   1. `[]` Update authority
	//   2. `[]` Mint
	//   3. `[signer]` Mint authority
	return solana.NewInstruction(
		program,
		append(append([]byte{}, initializeDiscriminator...), args...),
		solana.NewAccountMeta(metadata, false),
		solana.NewReadonlyAccountMeta(updateAuthority, false),
		solana.NewReadonlyAccountMeta(mint, false),
		solana.NewReadonlyAccountMeta(mintAuthority, true),
	), nil
}

type DecompiledInitialize struct {
	Program         ed25519.PublicKey
	Metadata        ed25519.PublicKey
	UpdateAuthority ed25519.PublicKey
	Mint            ed25519.PublicKey
	MintAuthority   ed25519.PublicKey

	Name   string
	Symbol string
	URI    string
}

func DecompileInitialize(m solana.Message, index int) (*DecompiledInitialize, error) {
	i, err := getInstruction(m, index, initializeDiscriminator)
	if err != nil {
		return nil, err
	}
	if len(i.Accounts) != 4 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}

	var args initializeArgs
	if err := borsh.Deserialize(&args, i.Data[discriminatorSize:]); err != nil {
		return nil, errors.Wrap(err, "invalid initialize args")
	}

	return &DecompiledInitialize{
		Program:         m.Accounts[i.ProgramIndex],
		Metadata:        m.Accounts[i.Accounts[0]],
		UpdateAuthority: m.Accounts[i.Accounts[1]],
		Mint:            m.Accounts[i.Accounts[2]],
		MintAuthority:   m.Accounts[i.Accounts[3]],
		Name:            args.Name,
		Symbol:          args.Symbol,
		URI:             args.URI,
	}, nil
}

// UpdateField sets a core field, or adds or replaces an additional field.
func UpdateField(program, metadata, updateAuthority ed25519.PublicKey, field FieldKey, value string) (solana.Instruction, error) {
	var args interface{}
	switch field.Kind {
	case FieldName, FieldSymbol, FieldURI:
		args = updateFieldArgs{Kind: uint8(field.Kind), Value: value}
	case FieldKeyed:
		args = updateKeyedFieldArgs{Kind: uint8(field.Kind), Key: field.Key, Value: value}
	default:
		return solana.Instruction{}, ErrUnknownField
	}

	encoded, err := borsh.Serialize(args)
	if err != nil {
		return solana.Instruction{}, errors.Wrap(err, "failed to serialize update field args")
	}

	// Accounts expected by this instruction:
	//
	//   0. `[writable]` Metadata account
	//   1. `[signer]` Update authority
	return solana.NewInstruction(
		program,
		append(append([]byte{}, updateFieldDiscriminator...), encoded...),
		solana.NewAccountMeta(metadata, false),
		solana.NewReadonlyAccountMeta(updateAuthority, true),
	), nil
}

type DecompiledUpdateField struct {
	Program         ed25519.PublicKey
	Metadata        ed25519.PublicKey
	UpdateAuthority ed25519.PublicKey

	Field FieldKey
	Value string
}

func DecompileUpdateField(m solana.Message, index int) (*DecompiledUpdateField, error) {
	i, err := getInstruction(m, index, updateFieldDiscriminator)
	if err != nil {
		return nil, err
	}
	if len(i.Accounts) != 2 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}

	data := i.Data[discriminatorSize:]
	if len(data) == 0 {
		return nil, errors.New("missing field")
	}

	decompiled := &DecompiledUpdateField{
		Program:         m.Accounts[i.ProgramIndex],
		Metadata:        m.Accounts[i.Accounts[0]],
		UpdateAuthority: m.Accounts[i.Accounts[1]],
	}

	switch FieldKind(data[0]) {
	case FieldName, FieldSymbol, FieldURI:
		var args updateFieldArgs
		if err := borsh.Deserialize(&args, data); err != nil {
			return nil, errors.Wrap(err, "invalid update field args")
		}
		decompiled.Field = FieldKey{Kind: FieldKind(args.Kind)}
		decompiled.Value = args.Value
	case FieldKeyed:
		var args updateKeyedFieldArgs
		if err := borsh.Deserialize(&args, data); err != nil {
			return nil, errors.Wrap(err, "invalid update field args")
		}
		decompiled.Field = KeyField(args.Key)
		decompiled.Value = args.Value
	default:
		return nil, ErrUnknownField
	}

	return decompiled, nil
}

// IsInitialize reports whether the instruction at index is a token-metadata
// Initialize, regardless of the implementing program.
func IsInitialize(m solana.Message, index int) bool {
	_, err := getInstruction(m, index, initializeDiscriminator)
	return err == nil
}

// IsUpdateField reports whether the instruction at index is a token-metadata
// UpdateField.
func IsUpdateField(m solana.Message, index int) bool {
	_, err := getInstruction(m, index, updateFieldDiscriminator)
	return err == nil
}

func getInstruction(m solana.Message, index int, discriminator []byte) (solana.CompiledInstruction, error) {
	if index >= len(m.Instructions) {
		return solana.CompiledInstruction{}, errors.Errorf("instruction doesn't exist at %d", index)
	}

	i := m.Instructions[index]
	if !bytes.HasPrefix(i.Data, discriminator) {
		return i, solana.ErrIncorrectInstruction
	}
	return i, nil
}
