package metaplex

import (
	"bytes"
	"crypto/ed25519"

	"github.com/near/borsh-go"
	"github.com/pkg/errors"

	"github.com/code-payments/nft-minter/pkg/solana"
	"github.com/code-payments/nft-minter/pkg/solana/system"
	"github.com/code-payments/nft-minter/pkg/solana/token"
)

const (
	instructionCreate uint8 = 42
	createV1          uint8 = 0
)

type CreateV1InstructionArgs struct {
	AssetData   AssetData
	Decimals    *uint8
	PrintSupply *PrintSupply
}

type CreateV1InstructionAccounts struct {
	Metadata ed25519.PublicKey
	// Optional. Defaults to the program id.
	MasterEdition   ed25519.PublicKey
	Mint            ed25519.PublicKey
	Authority       ed25519.PublicKey
	Payer           ed25519.PublicKey
	UpdateAuthority ed25519.PublicKey
	// Optional. Defaults to the token extensions program.
	SplTokenProgram ed25519.PublicKey

	// Optional. Defaults to ProgramKey, for deployments of the metadata
	// program at another address.
	Program ed25519.PublicKey
}

type createV1Data struct {
	Instruction uint8
	Variant     uint8
	Args        CreateV1InstructionArgs
}

// NewCreateV1Instruction creates the metadata account for an existing or
// to-be-created mint.
//
// Reference: https://github.com/metaplex-foundation/mpl-token-metadata/blob/main/programs/token-metadata/program/src/instruction/metadata.rs
func NewCreateV1Instruction(
	accounts *CreateV1InstructionAccounts,
	args *CreateV1InstructionArgs,
) (solana.Instruction, error) {
	data, err := borsh.Serialize(createV1Data{
		Instruction: instructionCreate,
		Variant:     createV1,
		Args:        *args,
	})
	if err != nil {
		return solana.Instruction{}, errors.Wrap(err, "failed to serialize create args")
	}

	masterEdition := accounts.MasterEdition
	if len(masterEdition) == 0 {
		masterEdition = ProgramKey
	}
	splTokenProgram := accounts.SplTokenProgram
	if len(splTokenProgram) == 0 {
		splTokenProgram = token.Token2022ProgramKey
	}

	program := accounts.Program
	if len(program) == 0 {
		program = ProgramKey
	}

	return solana.Instruction{
		Program: program,

		// Instruction args
		Data: data,

		// Instruction accounts
		Accounts: []solana.AccountMeta{
			{
				PublicKey:  accounts.Metadata,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  masterEdition,
				IsWritable: len(accounts.MasterEdition) > 0,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.Mint,
				IsWritable: true,
				IsSigner:   true,
			},
			{
				PublicKey:  accounts.Authority,
				IsWritable: false,
				IsSigner:   true,
			},
			{
				PublicKey:  accounts.Payer,
				IsWritable: true,
				IsSigner:   true,
			},
			{
				PublicKey:  accounts.UpdateAuthority,
				IsWritable: false,
				IsSigner:   bytes.Equal(accounts.UpdateAuthority, accounts.Authority),
			},
			{
				PublicKey:  system.ProgramKey[:],
				IsWritable: false,
				IsSigner:   false,
			},
			{
				PublicKey:  system.InstructionsSysVar,
				IsWritable: false,
				IsSigner:   false,
			},
			{
				PublicKey:  splTokenProgram,
				IsWritable: false,
				IsSigner:   false,
			},
		},
	}, nil
}

type DecompiledCreateV1 struct {
	Metadata        ed25519.PublicKey
	MasterEdition   ed25519.PublicKey
	Mint            ed25519.PublicKey
	Authority       ed25519.PublicKey
	Payer           ed25519.PublicKey
	UpdateAuthority ed25519.PublicKey
	SplTokenProgram ed25519.PublicKey

	Args CreateV1InstructionArgs
}

func DecompileCreateV1(m solana.Message, index int) (*DecompiledCreateV1, error) {
	if index >= len(m.Instructions) {
		return nil, errors.Errorf("instruction doesn't exist at %d", index)
	}

	i := m.Instructions[index]
	if !bytes.Equal(m.Accounts[i.ProgramIndex], ProgramKey) {
		return nil, ErrInvalidProgram
	}
	if len(i.Data) < 2 || i.Data[0] != instructionCreate || i.Data[1] != createV1 {
		return nil, ErrInvalidInstructionData
	}
	if len(i.Accounts) != 9 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}

	var data createV1Data
	if err := borsh.Deserialize(&data, i.Data); err != nil {
		return nil, errors.Wrap(ErrInvalidInstructionData, err.Error())
	}

	decompiled := &DecompiledCreateV1{
		Metadata:        m.Accounts[i.Accounts[0]],
		Mint:            m.Accounts[i.Accounts[2]],
		Authority:       m.Accounts[i.Accounts[3]],
		Payer:           m.Accounts[i.Accounts[4]],
		UpdateAuthority: m.Accounts[i.Accounts[5]],
		SplTokenProgram: m.Accounts[i.Accounts[8]],
		Args:            data.Args,
	}
	if masterEdition := m.Accounts[i.Accounts[1]]; !bytes.Equal(masterEdition, ProgramKey) {
		decompiled.MasterEdition = masterEdition
	}

	return decompiled, nil
}
