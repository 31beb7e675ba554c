package nft

import (
	"bytes"

	"github.com/code-payments/nft-minter/pkg/solana"
	"github.com/code-payments/nft-minter/pkg/solana/system"
	"github.com/code-payments/nft-minter/pkg/solana/token"
)

// classifyError maps a submission or confirmation failure onto the error
// taxonomy, using the plan to attribute instruction errors to a step. The
// original error stays reachable through errors.As.
func classifyError(plan *Plan, err error) error {
	txErr, ok := solana.AsTransactionError(err)
	if !ok {
		return newError(ErrNetwork, err)
	}

	switch txErr.ErrorKey() {
	case solana.TransactionErrorInsufficientFundsForFee:
		return newError(ErrInsufficientFunds, err)
	case solana.TransactionErrorInsufficientFundsForRent:
		return newError(classifyRentError(plan, txErr), err)
	case solana.TransactionErrorInstructionError:
		if kind := classifyInstructionError(plan, txErr.InstructionError()); kind != nil {
			return newError(kind, err)
		}
	}

	return newError(ErrNetwork, err)
}

// classifyRentError attributes a rent failure to the mint being funded for
// less than it ended up holding, or to another account, usually the payer,
// running short.
func classifyRentError(plan *Plan, txErr *solana.TransactionError) error {
	index, ok := txErr.AccountIndex()
	if !ok {
		// Without an index, the embedded strategy is the only one that grows
		// an account after it's funded.
		if plan.Strategy.Kind() == StrategyEmbedded && plan.Has(StepInitMetadata) {
			return ErrAccountSizeMismatch
		}
		return ErrInsufficientFunds
	}

	accounts := solana.NewTransaction(plan.Payer, plan.Instructions...).Message.Accounts
	if index < len(accounts) && bytes.Equal(accounts[index], plan.Mint) {
		return ErrAccountSizeMismatch
	}
	return ErrInsufficientFunds
}

func classifyInstructionError(plan *Plan, ie *solana.InstructionError) error {
	if ie == nil {
		return nil
	}

	step := plan.StepAt(ie.Index)
	key := ie.ErrorKey()

	switch {
	// The pointer can only be initialized on a mint that isn't initialized.
	case step == StepInitPointer && (isCustom(ie, token.ErrorAlreadyInUse) || key == solana.InstructionErrorInvalidAccountData):
		return ErrOrderingViolation
	// Metadata can only be written once the mint is initialized.
	case step.IsMetadata() && (isCustom(ie, token.ErrorUninitializedState) || key == solana.InstructionErrorUninitializedAccount):
		return ErrOrderingViolation
	case step == StepCreateAccount && isCustom(ie, system.ErrorResultWithNegativeLamports):
		return ErrInsufficientFunds
	case key == solana.InstructionErrorInsufficientFunds:
		return ErrInsufficientFunds
	case key == solana.InstructionErrorAccountDataTooSmall, key == solana.InstructionErrorInvalidRealloc:
		return ErrAccountSizeMismatch
	}
	return nil
}

func isCustom(ie *solana.InstructionError, code solana.CustomError) bool {
	custom := ie.CustomError()
	return custom != nil && *custom == code
}
