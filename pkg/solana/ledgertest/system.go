package ledgertest

import (
	"github.com/code-payments/nft-minter/pkg/solana"
	"github.com/code-payments/nft-minter/pkg/solana/system"
)

func (e *executor) processSystem(index int) *solana.InstructionError {
	if create, err := system.DecompileCreateAccount(e.m, index); err == nil {
		if !e.isSigner(create.Funder) || !e.isSigner(create.Address) {
			return solana.NewInstructionError(index, solana.InstructionErrorMissingRequiredSignature)
		}
		return e.createAccount(index, create.Funder, create.Address, create.Owner, create.Lamports, int(create.Size))
	}

	if transfer, err := system.DecompileTransfer(e.m, index); err == nil {
		if !e.isSigner(transfer.From) {
			return solana.NewInstructionError(index, solana.InstructionErrorMissingRequiredSignature)
		}

		from := e.get(transfer.From)
		if from == nil || from.lamports < transfer.Lamports {
			return solana.NewCustomInstructionError(index, int(system.ErrorResultWithNegativeLamports))
		}
		from.lamports -= transfer.Lamports

		to := e.get(transfer.To)
		if to == nil {
			to = &account{owner: system.ProgramKey[:]}
			e.put(transfer.To, to)
		}
		to.lamports += transfer.Lamports
		return nil
	}

	return solana.NewInstructionError(index, solana.InstructionErrorInvalidInstructionData)
}
