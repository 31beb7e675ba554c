package token

import (
	"bytes"
	"crypto/ed25519"
	"encoding/binary"
	"math"

	"github.com/pkg/errors"

	"github.com/code-payments/nft-minter/pkg/solana"
	"github.com/code-payments/nft-minter/pkg/solana/system"
)

// ProgramKey is the address of the classic SPL token program.
//
// Current key: TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA
var ProgramKey = ed25519.PublicKey{6, 221, 246, 225, 215, 101, 161, 147, 217, 203, 225, 70, 206, 235, 121, 172, 28, 180, 133, 237, 95, 91, 55, 145, 58, 140, 245, 133, 126, 255, 0, 169}

// Token2022ProgramKey is the address of the token extensions program.
//
// Current key: TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb
var Token2022ProgramKey = ed25519.PublicKey{6, 221, 246, 225, 238, 117, 143, 222, 24, 66, 93, 188, 228, 108, 205, 218, 182, 26, 252, 77, 131, 185, 13, 39, 254, 189, 249, 40, 216, 161, 139, 252}

// IsTokenProgram reports whether program is one of the SPL token programs.
func IsTokenProgram(program ed25519.PublicKey) bool {
	return bytes.Equal(program, ProgramKey) || bytes.Equal(program, Token2022ProgramKey)
}

// Command is the leading instruction data byte selecting a token program
// instruction.
//
// Reference: https://github.com/solana-labs/solana-program-library/blob/b011698251981b5a12088acba18fad1d41c3719a/token/program/src/instruction.rs
type Command byte

const (
	CommandInitializeMint Command = 0
	CommandSetAuthority   Command = 6
	CommandMintToChecked  Command = 14

	// CommandMetadataPointerExtension prefixes metadata pointer instructions
	// on the token extensions program.
	CommandMetadataPointerExtension Command = 39

	CommandUnknown = Command(math.MaxUint8)
)

// Custom error codes returned by both token programs.
//
// Reference: https://github.com/solana-labs/solana-program-library/blob/b011698251981b5a12088acba18fad1d41c3719a/token/program/src/error.rs
const (
	ErrorNotRentExempt             solana.CustomError = 0
	ErrorMintMismatch              solana.CustomError = 3
	ErrorOwnerMismatch             solana.CustomError = 4
	ErrorFixedSupply               solana.CustomError = 5
	ErrorAlreadyInUse              solana.CustomError = 6
	ErrorUninitializedState        solana.CustomError = 9
	ErrorInvalidInstruction        solana.CustomError = 12
	ErrorOverflow                  solana.CustomError = 14
	ErrorAuthorityTypeNotSupported solana.CustomError = 15
	ErrorMintCannotFreeze          solana.CustomError = 16
	ErrorMintDecimalsMismatch      solana.CustomError = 18
)

func GetCommand(m solana.Message, index int) (Command, error) {
	if index >= len(m.Instructions) {
		return CommandUnknown, errors.Errorf("instruction doesn't exist at %d", index)
	}

	i := m.Instructions[index]

	if !IsTokenProgram(m.Accounts[i.ProgramIndex]) {
		return CommandUnknown, solana.ErrIncorrectProgram
	}
	if len(i.Data) == 0 {
		return CommandUnknown, errors.New("token instruction missing data")
	}

	return Command(i.Data[0]), nil
}

// Reference: https://github.com/solana-labs/solana-program-library/blob/b011698251981b5a12088acba18fad1d41c3719a/token/program/src/instruction.rs#L27-L40
func InitializeMint(program, mint, mintAuthority, freezeAuthority ed25519.PublicKey, decimals byte) solana.Instruction {
	// Accounts expected by this instruction:
	//
	//   0. `[writable]` The mint to initialize.
	//   1. `[]` Rent sysvar
	//
	// Data: decimals, mint authority, COption<Pubkey> freeze authority (1 byte tag)
	data := make([]byte, 1+1+32+1+32)
	data[0] = byte(CommandInitializeMint)
	data[1] = decimals
	copy(data[2:], mintAuthority)
	if len(freezeAuthority) > 0 {
		data[34] = 1
		copy(data[35:], freezeAuthority)
	}

	return solana.NewInstruction(
		program,
		data,
		solana.NewAccountMeta(mint, false),
		solana.NewReadonlyAccountMeta(system.RentSysVar, false),
	)
}

type DecompiledInitializeMint struct {
	Program         ed25519.PublicKey
	Mint            ed25519.PublicKey
	Decimals        byte
	MintAuthority   ed25519.PublicKey
	FreezeAuthority ed25519.PublicKey
}

func DecompileInitializeMint(m solana.Message, index int) (*DecompiledInitializeMint, error) {
	i, err := getTokenInstruction(m, index, CommandInitializeMint)
	if err != nil {
		return nil, err
	}
	if len(i.Accounts) != 2 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}
	if len(i.Data) != 67 {
		return nil, errors.Errorf("invalid instruction data size: %d", len(i.Data))
	}
	if !bytes.Equal(system.RentSysVar, m.Accounts[i.Accounts[1]]) {
		return nil, errors.Errorf("invalid rent sysvar")
	}

	v := &DecompiledInitializeMint{
		Program:       m.Accounts[i.ProgramIndex],
		Mint:          m.Accounts[i.Accounts[0]],
		Decimals:      i.Data[1],
		MintAuthority: append(ed25519.PublicKey{}, i.Data[2:34]...),
	}
	if i.Data[34] == 1 {
		v.FreezeAuthority = append(ed25519.PublicKey{}, i.Data[35:67]...)
	}
	return v, nil
}

type AuthorityType byte

const (
	AuthorityTypeMintTokens AuthorityType = iota
	AuthorityTypeFreezeAccount
	AuthorityTypeAccountHolder
	AuthorityTypeCloseAccount
)

// Reference: https://github.com/solana-labs/solana-program-library/blob/b011698251981b5a12088acba18fad1d41c3719a/token/program/src/instruction.rs#L128-L139
//
// A nil newAuthority clears the authority, which is irreversible for
// AuthorityTypeMintTokens.
func SetAuthority(program, account, currentAuthority, newAuthority ed25519.PublicKey, authorityType AuthorityType) solana.Instruction {
	// Accounts expected by this instruction:
	//
	//   0. `[writable]` The mint or account to change the authority of.
	//   1. `[signer]` The current authority of the mint or account.
	data := []byte{byte(CommandSetAuthority), byte(authorityType), 0}
	if len(newAuthority) > 0 {
		data[2] = 1
		data = append(data, newAuthority...)
	}

	return solana.NewInstruction(
		program,
		data,
		solana.NewAccountMeta(account, false),
		solana.NewReadonlyAccountMeta(currentAuthority, true),
	)
}

type DecompiledSetAuthority struct {
	Account          ed25519.PublicKey
	CurrentAuthority ed25519.PublicKey
	NewAuthority     ed25519.PublicKey
	Type             AuthorityType
}

func DecompileSetAuthority(m solana.Message, index int) (*DecompiledSetAuthority, error) {
	i, err := getTokenInstruction(m, index, CommandSetAuthority)
	if err != nil {
		return nil, err
	}
	if len(i.Accounts) < 2 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}
	if len(i.Data) < 3 {
		return nil, errors.Errorf("invalid data size: %d (expect at least 3)", len(i.Data))
	}
	if i.Data[2] == 0 && len(i.Data) != 3 {
		return nil, errors.Errorf("invalid data size: %d (expect 3)", len(i.Data))
	}
	if i.Data[2] == 1 && len(i.Data) != 3+ed25519.PublicKeySize {
		return nil, errors.Errorf("invalid data size: %d (expect %d)", len(i.Data), 3+ed25519.PublicKeySize)
	}

	decompiled := &DecompiledSetAuthority{
		Account:          m.Accounts[i.Accounts[0]],
		CurrentAuthority: m.Accounts[i.Accounts[1]],
		Type:             AuthorityType(i.Data[1]),
	}

	if i.Data[2] == 1 {
		decompiled.NewAuthority = i.Data[3 : 3+ed25519.PublicKeySize]
	}

	return decompiled, nil
}

// Reference: https://github.com/solana-labs/solana-program-library/blob/b011698251981b5a12088acba18fad1d41c3719a/token/program/src/instruction.rs#L269-L283
func MintToChecked(program, mint, destination, authority ed25519.PublicKey, amount uint64, decimals byte) solana.Instruction {
	// Accounts expected by this instruction:
	//
	//   0. `[writable]` The mint.
	//   1. `[writable]` The account to mint tokens to.
	//   2. `[signer]` The mint's minting authority.
	data := make([]byte, 1+8+1)
	data[0] = byte(CommandMintToChecked)
	binary.LittleEndian.PutUint64(data[1:], amount)
	data[9] = decimals

	return solana.NewInstruction(
		program,
		data,
		solana.NewAccountMeta(mint, false),
		solana.NewAccountMeta(destination, false),
		solana.NewReadonlyAccountMeta(authority, true),
	)
}

type DecompiledMintToChecked struct {
	Mint        ed25519.PublicKey
	Destination ed25519.PublicKey
	Authority   ed25519.PublicKey
	Amount      uint64
	Decimals    byte
}

func DecompileMintToChecked(m solana.Message, index int) (*DecompiledMintToChecked, error) {
	i, err := getTokenInstruction(m, index, CommandMintToChecked)
	if err != nil {
		return nil, err
	}
	// note: we do < 3 instead of != 3 in order to support multisig cases.
	if len(i.Accounts) < 3 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}
	if len(i.Data) != 10 {
		return nil, errors.Errorf("invalid instruction data size: %d", len(i.Data))
	}

	return &DecompiledMintToChecked{
		Mint:        m.Accounts[i.Accounts[0]],
		Destination: m.Accounts[i.Accounts[1]],
		Authority:   m.Accounts[i.Accounts[2]],
		Amount:      binary.LittleEndian.Uint64(i.Data[1:9]),
		Decimals:    i.Data[9],
	}, nil
}

func getTokenInstruction(m solana.Message, index int, command Command) (solana.CompiledInstruction, error) {
	if index >= len(m.Instructions) {
		return solana.CompiledInstruction{}, errors.Errorf("instruction doesn't exist at %d", index)
	}

	i := m.Instructions[index]

	if !IsTokenProgram(m.Accounts[i.ProgramIndex]) {
		return i, solana.ErrIncorrectProgram
	}
	if !bytes.HasPrefix(i.Data, []byte{byte(command)}) {
		return i, solana.ErrIncorrectInstruction
	}
	return i, nil
}
