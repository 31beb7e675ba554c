package ledgertest

import (
	"bytes"

	"github.com/code-payments/nft-minter/pkg/solana"
	"github.com/code-payments/nft-minter/pkg/solana/system"
	"github.com/code-payments/nft-minter/pkg/solana/token"
)

func (e *executor) processAssociatedAccount(index int) *solana.InstructionError {
	create, err := token.DecompileCreateAssociatedAccount(e.m, index)
	if err != nil {
		return solana.NewInstructionError(index, solana.InstructionErrorInvalidInstructionData)
	}

	if !e.isSigner(create.Payer) {
		return solana.NewInstructionError(index, solana.InstructionErrorMissingRequiredSignature)
	}

	expected, err := token.GetAssociatedAccountForProgram(create.Owner, create.Mint, create.Program)
	if err != nil || !bytes.Equal(expected, create.Address) {
		return solana.NewInstructionError(index, solana.InstructionErrorInvalidSeeds)
	}

	mint := e.get(create.Mint)
	if mint == nil || !bytes.Equal(mint.owner, create.Program) {
		return solana.NewInstructionError(index, solana.InstructionErrorIllegalOwner)
	}

	if existing := e.get(create.Address); existing != nil && len(existing.data) > 0 {
		if !create.Idempotent {
			return solana.NewCustomInstructionError(index, int(system.ErrorAccountAlreadyInUse))
		}

		var tokenAccount token.Account
		if !bytes.Equal(existing.owner, create.Program) || !tokenAccount.Unmarshal(existing.data) {
			return solana.NewInstructionError(index, solana.InstructionErrorIllegalOwner)
		}
		if !bytes.Equal(tokenAccount.Owner, create.Owner) || !bytes.Equal(tokenAccount.Mint, create.Mint) {
			return solana.NewInstructionError(index, solana.InstructionErrorIllegalOwner)
		}
		return nil
	}

	tokenAccount := token.Account{
		Mint:  create.Mint,
		Owner: create.Owner,
		State: token.AccountStateInitialized,
	}
	// Token extensions accounts created through the associated token account
	// program always have an immutable owner.
	if bytes.Equal(create.Program, token.Token2022ProgramKey) {
		tokenAccount.Extensions = []token.Extension{{Type: token.ExtensionImmutableOwner}}
	}
	data := tokenAccount.Marshal()

	if err := e.createAccount(index, create.Payer, create.Address, create.Program, RentExemptBalance(uint64(len(data))), len(data)); err != nil {
		return err
	}
	e.get(create.Address).data = data
	return nil
}
