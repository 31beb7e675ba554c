package ledgertest

import (
	"bytes"

	"github.com/code-payments/nft-minter/pkg/solana"
	"github.com/code-payments/nft-minter/pkg/solana/token"
	"github.com/code-payments/nft-minter/pkg/solana/tokenmetadata"
)

// processTokenMetadata implements the token metadata interface the way the
// token extensions program does: metadata lives in the mint account and the
// account is reallocated as the record grows.
func (e *executor) processTokenMetadata(index int) *solana.InstructionError {
	program := e.m.Accounts[e.m.Instructions[index].ProgramIndex]
	if !bytes.Equal(program, token.Token2022ProgramKey) {
		return solana.NewInstructionError(index, solana.InstructionErrorInvalidInstructionData)
	}

	if tokenmetadata.IsInitialize(e.m, index) {
		return e.processInitializeTokenMetadata(index)
	}
	return e.processUpdateTokenMetadataField(index)
}

func (e *executor) processInitializeTokenMetadata(index int) *solana.InstructionError {
	init, err := tokenmetadata.DecompileInitialize(e.m, index)
	if err != nil {
		return solana.NewInstructionError(index, solana.InstructionErrorInvalidInstructionData)
	}
	if !bytes.Equal(init.Metadata, init.Mint) {
		return solana.NewCustomInstructionError(index, int(tokenmetadata.ErrorIncorrectAccount))
	}

	mintAccount, mint, ierr := e.initializedMint(index, init.Mint, token.Token2022ProgramKey)
	if ierr != nil {
		return ierr
	}

	pointer, err := mint.MetadataPointer()
	if err != nil || pointer == nil || !bytes.Equal(pointer.MetadataAddress, init.Mint) {
		return solana.NewInstructionError(index, solana.InstructionErrorInvalidAccountData)
	}

	if mint.MintAuthority == nil {
		return solana.NewCustomInstructionError(index, int(tokenmetadata.ErrorMintHasNoMintAuthority))
	}
	if !bytes.Equal(mint.MintAuthority, init.MintAuthority) {
		return solana.NewCustomInstructionError(index, int(tokenmetadata.ErrorIncorrectMintAuthority))
	}
	if !e.isSigner(init.MintAuthority) {
		return solana.NewInstructionError(index, solana.InstructionErrorMissingRequiredSignature)
	}

	if _, ok := mint.GetExtension(token.ExtensionTokenMetadata); ok {
		return solana.NewInstructionError(index, solana.InstructionErrorAccountAlreadyInitialized)
	}

	md := &tokenmetadata.TokenMetadata{
		UpdateAuthority: init.UpdateAuthority,
		Mint:            init.Mint,
		Name:            init.Name,
		Symbol:          init.Symbol,
		URI:             init.URI,
	}
	packed, err := md.Pack()
	if err != nil {
		return solana.NewInstructionError(index, solana.InstructionErrorInvalidAccountData)
	}

	mint.Extensions = append(mint.Extensions, token.Extension{Type: token.ExtensionTokenMetadata, Value: packed})
	mintAccount.data = mint.Marshal()
	return nil
}

func (e *executor) processUpdateTokenMetadataField(index int) *solana.InstructionError {
	update, err := tokenmetadata.DecompileUpdateField(e.m, index)
	if err != nil {
		return solana.NewInstructionError(index, solana.InstructionErrorInvalidInstructionData)
	}

	mintAccount, mint, ierr := e.initializedMint(index, update.Metadata, token.Token2022ProgramKey)
	if ierr != nil {
		return ierr
	}

	md, err := tokenmetadata.FromMint(mint)
	if err != nil {
		return solana.NewInstructionError(index, solana.InstructionErrorUninitializedAccount)
	}

	if md.UpdateAuthority == nil {
		return solana.NewCustomInstructionError(index, int(tokenmetadata.ErrorImmutableMetadata))
	}
	if !bytes.Equal(md.UpdateAuthority, update.UpdateAuthority) {
		return solana.NewCustomInstructionError(index, int(tokenmetadata.ErrorIncorrectUpdateAuthority))
	}
	if !e.isSigner(update.UpdateAuthority) {
		return solana.NewInstructionError(index, solana.InstructionErrorMissingRequiredSignature)
	}

	md.Update(update.Field, update.Value)
	packed, err := md.Pack()
	if err != nil {
		return solana.NewInstructionError(index, solana.InstructionErrorInvalidAccountData)
	}

	for i := range mint.Extensions {
		if mint.Extensions[i].Type == token.ExtensionTokenMetadata {
			mint.Extensions[i].Value = packed
		}
	}
	mintAccount.data = mint.Marshal()
	return nil
}
