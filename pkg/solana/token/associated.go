package token

import (
	"bytes"
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-payments/nft-minter/pkg/solana"
	"github.com/code-payments/nft-minter/pkg/solana/system"
)

// AssociatedTokenAccountProgramKey  is the address of the associated token account program that should be used.
//
// Current key: ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL
var AssociatedTokenAccountProgramKey = ed25519.PublicKey{140, 151, 37, 143, 78, 36, 137, 241, 187, 61, 16, 41, 20, 142, 13, 131, 11, 90, 19, 153, 218, 255, 16, 132, 4, 142, 123, 216, 219, 233, 248, 89}

const (
	commandCreate           byte = 0
	commandCreateIdempotent byte = 1
)

// GetAssociatedAccount returns the associated account address for an SPL token.
//
// Reference: https://spl.solana.com/associated-token-account#finding-the-associated-token-account-address
func GetAssociatedAccount(wallet, mint ed25519.PublicKey) (ed25519.PublicKey, error) {
	return GetAssociatedAccountForProgram(wallet, mint, ProgramKey)
}

// GetAssociatedAccountForProgram returns the associated account address for a
// mint owned by the provided token program. Token extension mints derive a
// different address than classic mints for the same wallet.
func GetAssociatedAccountForProgram(wallet, mint, program ed25519.PublicKey) (ed25519.PublicKey, error) {
	return solana.FindProgramAddress(
		AssociatedTokenAccountProgramKey,
		wallet,
		program,
		mint,
	)
}

// Reference: https://github.com/solana-labs/solana-program-library/blob/associated-token-account-v2.2.0/associated-token-account/program/src/instruction.rs#L29
func CreateAssociatedTokenAccount(payer, wallet, mint, program ed25519.PublicKey) (solana.Instruction, ed25519.PublicKey, error) {
	return createAssociatedTokenAccount(commandCreate, payer, wallet, mint, program)
}

// CreateAssociatedTokenAccountIdempotent succeeds even if the account already
// exists with the expected owner and mint.
func CreateAssociatedTokenAccountIdempotent(payer, wallet, mint, program ed25519.PublicKey) (solana.Instruction, ed25519.PublicKey, error) {
	return createAssociatedTokenAccount(commandCreateIdempotent, payer, wallet, mint, program)
}

func createAssociatedTokenAccount(command byte, payer, wallet, mint, program ed25519.PublicKey) (solana.Instruction, ed25519.PublicKey, error) {
	if !IsTokenProgram(program) {
		return solana.Instruction{}, nil, solana.ErrIncorrectProgram
	}

	addr, err := GetAssociatedAccountForProgram(wallet, mint, program)
	if err != nil {
		return solana.Instruction{}, nil, err
	}

	// Accounts expected by this instruction:
	//
	//   0. `[writeable,signer]` Funding account (must be a system account)
	//   1. `[writeable]` Associated token account address to be created
	//   2. `[]` Wallet address for the new associated token account
	//   3. `[]` The token mint for the new associated token account
	//   4. `[]` System program
	//   5. `[]` SPL Token program
	return solana.NewInstruction(
		AssociatedTokenAccountProgramKey,
		[]byte{command},
		solana.NewAccountMeta(payer, true),
		solana.NewAccountMeta(addr, false),
		solana.NewReadonlyAccountMeta(wallet, false),
		solana.NewReadonlyAccountMeta(mint, false),
		solana.NewReadonlyAccountMeta(system.ProgramKey[:], false),
		solana.NewReadonlyAccountMeta(program, false),
	), addr, nil
}

type DecompiledCreateAssociatedAccount struct {
	Payer      ed25519.PublicKey
	Address    ed25519.PublicKey
	Owner      ed25519.PublicKey
	Mint       ed25519.PublicKey
	Program    ed25519.PublicKey
	Idempotent bool
}

func DecompileCreateAssociatedAccount(m solana.Message, index int) (*DecompiledCreateAssociatedAccount, error) {
	if index >= len(m.Instructions) {
		return nil, errors.Errorf("instruction doesn't exist at %d", index)
	}

	i := m.Instructions[index]
	if !bytes.Equal(m.Accounts[i.ProgramIndex], AssociatedTokenAccountProgramKey) {
		return nil, solana.ErrIncorrectProgram
	}
	if len(i.Data) > 1 || (len(i.Data) == 1 && i.Data[0] > commandCreateIdempotent) {
		return nil, solana.ErrIncorrectInstruction
	}
	// The rent sysvar was required by older versions of the program.
	if len(i.Accounts) != 6 && len(i.Accounts) != 7 {
		return nil, errors.Errorf("invalid number of accounts: %d (expected 6)", len(i.Accounts))
	}

	if !bytes.Equal(m.Accounts[i.Accounts[4]], system.ProgramKey[:]) {
		return nil, errors.Errorf("system program key mismatch")
	}
	if !IsTokenProgram(m.Accounts[i.Accounts[5]]) {
		return nil, errors.Errorf("token program key mismatch")
	}

	return &DecompiledCreateAssociatedAccount{
		Payer:      m.Accounts[i.Accounts[0]],
		Address:    m.Accounts[i.Accounts[1]],
		Owner:      m.Accounts[i.Accounts[2]],
		Mint:       m.Accounts[i.Accounts[3]],
		Program:    m.Accounts[i.Accounts[5]],
		Idempotent: len(i.Data) == 1 && i.Data[0] == commandCreateIdempotent,
	}, nil
}
