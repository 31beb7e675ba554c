package token

import (
	"bytes"
	"crypto/ed25519"
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/code-payments/nft-minter/pkg/solana"
)

// ExtensionType identifies a token extensions TLV entry.
//
// Reference: https://github.com/solana-labs/solana-program-library/blob/token-2022-v1.0.0/token/program-2022/src/extension/mod.rs#L1025
type ExtensionType uint16

const (
	ExtensionUninitialized   ExtensionType = 0
	ExtensionMintCloseAuth   ExtensionType = 3
	ExtensionImmutableOwner  ExtensionType = 7
	ExtensionMetadataPointer ExtensionType = 18
	ExtensionTokenMetadata   ExtensionType = 19
)

const (
	// ExtensionTypeSize is the size of the TLV type prefix.
	ExtensionTypeSize = 2
	// ExtensionLengthSize is the size of the TLV length prefix.
	ExtensionLengthSize = 2

	accountTypeSize = 1

	// MetadataPointerSize is the fixed value size of the metadata pointer
	// extension: an optional authority and an optional metadata address.
	MetadataPointerSize = 2 * ed25519.PublicKeySize
)

// AccountType is written after the base state when an account carries
// extensions, so mints and token accounts can't be confused.
type AccountType byte

const (
	AccountTypeUninitialized AccountType = iota
	AccountTypeMint
	AccountTypeAccount
)

var ErrInvalidExtensionData = errors.New("invalid extension data")

// Extension is a single decoded TLV entry.
type Extension struct {
	Type  ExtensionType
	Value []byte
}

// extensionValueSize returns the fixed size of the extension value, or -1 for
// variable length extensions.
func extensionValueSize(t ExtensionType) int {
	switch t {
	case ExtensionImmutableOwner:
		return 0
	case ExtensionMintCloseAuth:
		return ed25519.PublicKeySize
	case ExtensionMetadataPointer:
		return MetadataPointerSize
	}
	return -1
}

// GetMintLen returns the account size required for a mint with the fixed
// size extensions provided. Variable length extensions, such as token
// metadata, are reallocated by the program when they're written.
//
// Reference: https://github.com/solana-labs/solana-program-library/blob/token-2022-v1.0.0/token/program-2022/src/extension/mod.rs#L1120
func GetMintLen(extensions ...ExtensionType) (int, error) {
	if len(extensions) == 0 {
		return MintSize, nil
	}

	size := AccountSize + accountTypeSize
	for _, e := range extensions {
		valueSize := extensionValueSize(e)
		if valueSize < 0 {
			return 0, errors.Errorf("extension %d does not have a fixed size", e)
		}
		size += ExtensionTypeSize + ExtensionLengthSize + valueSize
	}

	// A base mint padded to the account size would be ambiguous with a token
	// account, so one extra byte of padding is required.
	if size == MultisigAccountSize {
		size += ExtensionTypeSize
	}

	return size, nil
}

// GetAccountLen returns the account size required for a token account with
// the extensions provided.
func GetAccountLen(extensions ...ExtensionType) (int, error) {
	if len(extensions) == 0 {
		return AccountSize, nil
	}

	size := AccountSize + accountTypeSize
	for _, e := range extensions {
		valueSize := extensionValueSize(e)
		if valueSize < 0 {
			return 0, errors.Errorf("extension %d does not have a fixed size", e)
		}
		size += ExtensionTypeSize + ExtensionLengthSize + valueSize
	}
	return size, nil
}

// EncodeTLV appends a TLV entry to dst.
func EncodeTLV(dst []byte, t ExtensionType, value []byte) []byte {
	var header [ExtensionTypeSize + ExtensionLengthSize]byte
	binary.LittleEndian.PutUint16(header[:], uint16(t))
	binary.LittleEndian.PutUint16(header[ExtensionTypeSize:], uint16(len(value)))
	dst = append(dst, header[:]...)
	return append(dst, value...)
}

// DecodeTLV parses the extension region that follows the account type byte.
// Parsing stops at the first uninitialized entry.
func DecodeTLV(b []byte) ([]Extension, error) {
	var extensions []Extension
	for offset := 0; offset+ExtensionTypeSize+ExtensionLengthSize <= len(b); {
		t := ExtensionType(binary.LittleEndian.Uint16(b[offset:]))
		l := int(binary.LittleEndian.Uint16(b[offset+ExtensionTypeSize:]))
		if t == ExtensionUninitialized {
			break
		}

		start := offset + ExtensionTypeSize + ExtensionLengthSize
		if start+l > len(b) {
			return nil, errors.Wrapf(ErrInvalidExtensionData, "extension %d overruns account data", t)
		}

		extensions = append(extensions, Extension{
			Type:  t,
			Value: append([]byte{}, b[start:start+l]...),
		})
		offset = start + l
	}
	return extensions, nil
}

// MetadataPointer is the value of the metadata pointer extension.
//
// Reference: https://github.com/solana-labs/solana-program-library/blob/token-2022-v1.0.0/token/program-2022/src/extension/metadata_pointer/mod.rs#L19
type MetadataPointer struct {
	Authority       ed25519.PublicKey
	MetadataAddress ed25519.PublicKey
}

// Marshal encodes the pointer, using the all-zero key for unset values.
func (p MetadataPointer) Marshal() []byte {
	b := make([]byte, MetadataPointerSize)
	copy(b, p.Authority)
	copy(b[ed25519.PublicKeySize:], p.MetadataAddress)
	return b
}

func (p *MetadataPointer) Unmarshal(b []byte) error {
	if len(b) != MetadataPointerSize {
		return errors.Wrapf(ErrInvalidExtensionData, "invalid metadata pointer size: %d", len(b))
	}
	p.Authority = optionalNonZeroKey(b[:ed25519.PublicKeySize])
	p.MetadataAddress = optionalNonZeroKey(b[ed25519.PublicKeySize:])
	return nil
}

func optionalNonZeroKey(b []byte) ed25519.PublicKey {
	if bytes.Equal(b, make([]byte, ed25519.PublicKeySize)) {
		return nil
	}
	return append(ed25519.PublicKey{}, b...)
}

const metadataPointerInitialize byte = 0

// InitializeMetadataPointer initializes the metadata pointer extension on an
// uninitialized mint. It must be executed before InitializeMint. A nil
// authority means the pointer can never be updated.
//
// Reference: https://github.com/solana-labs/solana-program-library/blob/token-2022-v1.0.0/token/program-2022/src/extension/metadata_pointer/instruction.rs#L31
func InitializeMetadataPointer(mint, authority, metadataAddress ed25519.PublicKey) solana.Instruction {
	// Accounts expected by this instruction:
	//
	//   0. `[writable]` The mint to initialize.
	data := make([]byte, 2, 2+MetadataPointerSize)
	data[0] = byte(CommandMetadataPointerExtension)
	data[1] = metadataPointerInitialize
	data = append(data, MetadataPointer{Authority: authority, MetadataAddress: metadataAddress}.Marshal()...)

	return solana.NewInstruction(
		Token2022ProgramKey,
		data,
		solana.NewAccountMeta(mint, false),
	)
}

type DecompiledInitializeMetadataPointer struct {
	Mint            ed25519.PublicKey
	Authority       ed25519.PublicKey
	MetadataAddress ed25519.PublicKey
}

func DecompileInitializeMetadataPointer(m solana.Message, index int) (*DecompiledInitializeMetadataPointer, error) {
	i, err := getTokenInstruction(m, index, CommandMetadataPointerExtension)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(m.Accounts[i.ProgramIndex], Token2022ProgramKey) {
		return nil, solana.ErrIncorrectProgram
	}
	if len(i.Data) < 2 || i.Data[1] != metadataPointerInitialize {
		return nil, solana.ErrIncorrectInstruction
	}
	if len(i.Accounts) != 1 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}
	if len(i.Data) != 2+MetadataPointerSize {
		return nil, errors.Errorf("invalid instruction data size: %d", len(i.Data))
	}

	var p MetadataPointer
	if err := p.Unmarshal(i.Data[2:]); err != nil {
		return nil, err
	}

	return &DecompiledInitializeMetadataPointer{
		Mint:            m.Accounts[i.Accounts[0]],
		Authority:       p.Authority,
		MetadataAddress: p.MetadataAddress,
	}, nil
}
