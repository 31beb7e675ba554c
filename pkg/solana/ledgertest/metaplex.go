package ledgertest

import (
	"bytes"

	"github.com/code-payments/nft-minter/pkg/solana"
	"github.com/code-payments/nft-minter/pkg/solana/metaplex"
)

// processMetaplex supports CreateV1 for mints that already exist, which is
// how token extensions mints with a metadata pointer are created.
func (e *executor) processMetaplex(index int) *solana.InstructionError {
	create, err := metaplex.DecompileCreateV1(e.m, index)
	if err != nil {
		return solana.NewInstructionError(index, solana.InstructionErrorInvalidInstructionData)
	}

	expected, err := metaplex.GetMetadataAddress(create.Mint)
	if err != nil || !bytes.Equal(expected, create.Metadata) {
		return solana.NewInstructionError(index, solana.InstructionErrorInvalidSeeds)
	}

	// The referencing mint must already exist and be initialized.
	_, mint, ierr := e.initializedMint(index, create.Mint, create.SplTokenProgram)
	if ierr != nil {
		return solana.NewInstructionError(index, solana.InstructionErrorUninitializedAccount)
	}
	if mint.MintAuthority == nil || !bytes.Equal(mint.MintAuthority, create.Authority) {
		return solana.NewInstructionError(index, solana.InstructionErrorIllegalOwner)
	}
	if !e.isSigner(create.Authority) || !e.isSigner(create.Payer) {
		return solana.NewInstructionError(index, solana.InstructionErrorMissingRequiredSignature)
	}

	if existing := e.get(create.Metadata); existing != nil && len(existing.data) > 0 {
		return solana.NewInstructionError(index, solana.InstructionErrorAccountAlreadyInitialized)
	}

	data, err := metaplex.NewMetadataAccount(create.Mint, create.UpdateAuthority, create.Args.AssetData).Marshal()
	if err != nil {
		return solana.NewInstructionError(index, solana.InstructionErrorInvalidArgument)
	}

	if ierr := e.createAccount(index, create.Payer, create.Metadata, metaplex.ProgramKey, RentExemptBalance(uint64(len(data))), len(data)); ierr != nil {
		return ierr
	}
	e.get(create.Metadata).data = data
	return nil
}
