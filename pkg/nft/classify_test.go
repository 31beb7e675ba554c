package nft

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/nft-minter/pkg/solana"
	"github.com/code-payments/nft-minter/pkg/solana/system"
	"github.com/code-payments/nft-minter/pkg/solana/token"
)

func instructionFailure(ie *solana.InstructionError) error {
	return solana.TransactionErrorFromInstructionError(ie)
}

func TestClassifyError(t *testing.T) {
	embedded := &Plan{
		Strategy: Embedded(),
		Steps: []Step{
			StepCreateAccount,
			StepInitPointer,
			StepInitMint,
			StepInitMetadata,
			StepUpdateField,
			StepCreateAssociatedAccount,
			StepMintTo,
			StepRevokeMintAuthority,
		},
	}
	pointer := &Plan{
		Strategy: Pointer(nil),
		Steps: []Step{
			StepCreateAccount,
			StepInitPointer,
			StepInitMint,
			StepCreateMetadataAccount,
			StepCreateAssociatedAccount,
			StepMintTo,
			StepRevokeMintAuthority,
		},
	}

	for _, tc := range []struct {
		name     string
		plan     *Plan
		err      error
		expected error
	}{
		{"transport", embedded, errors.New("dial tcp: i/o timeout"), ErrNetwork},
		{"blockhash", embedded, solana.NewTransactionError(solana.TransactionErrorBlockhashNotFound), ErrNetwork},
		{"fee", embedded, solana.NewTransactionError(solana.TransactionErrorInsufficientFundsForFee), ErrInsufficientFunds},
		{"embedded rent", embedded, solana.NewTransactionError(solana.TransactionErrorInsufficientFundsForRent), ErrAccountSizeMismatch},
		{"pointer rent", pointer, solana.NewTransactionError(solana.TransactionErrorInsufficientFundsForRent), ErrInsufficientFunds},
		{"create account", embedded, instructionFailure(solana.NewCustomInstructionError(0, int(system.ErrorResultWithNegativeLamports))), ErrInsufficientFunds},
		{"pointer in use", embedded, instructionFailure(solana.NewCustomInstructionError(1, int(token.ErrorAlreadyInUse))), ErrOrderingViolation},
		{"pointer invalid data", embedded, instructionFailure(solana.NewInstructionError(1, solana.InstructionErrorInvalidAccountData)), ErrOrderingViolation},
		{"metadata uninitialized", embedded, instructionFailure(solana.NewCustomInstructionError(3, int(token.ErrorUninitializedState))), ErrOrderingViolation},
		{"update uninitialized", embedded, instructionFailure(solana.NewInstructionError(4, solana.InstructionErrorUninitializedAccount)), ErrOrderingViolation},
		{"metadata account uninitialized", pointer, instructionFailure(solana.NewInstructionError(3, solana.InstructionErrorUninitializedAccount)), ErrOrderingViolation},
		{"realloc", embedded, instructionFailure(solana.NewInstructionError(4, solana.InstructionErrorInvalidRealloc)), ErrAccountSizeMismatch},
		{"data too small", embedded, instructionFailure(solana.NewInstructionError(3, solana.InstructionErrorAccountDataTooSmall)), ErrAccountSizeMismatch},
		{"mint to", embedded, instructionFailure(solana.NewCustomInstructionError(6, int(token.ErrorFixedSupply))), ErrNetwork},
	} {
		t.Run(tc.name, func(t *testing.T) {
			classified := classifyError(tc.plan, tc.err)
			assert.True(t, errors.Is(classified, tc.expected), "%v", classified)
			assert.Contains(t, classified.Error(), tc.err.Error())

			if _, ok := solana.AsTransactionError(tc.err); ok {
				_, ok = solana.AsTransactionError(classified)
				assert.True(t, ok)
			}
		})
	}
}

func TestClassifyError_RentAttribution(t *testing.T) {
	env := setup(t, &testOverrides{})

	for _, strategy := range []Strategy{Embedded(), Pointer(nil)} {
		plan, _ := env.buildPlan(t, catDescriptor(), strategy)
		accounts := solana.NewTransaction(plan.Payer, plan.Instructions...).Message.Accounts

		mintIndex := -1
		for i, account := range accounts {
			if account.Equal(plan.Mint) {
				mintIndex = i
			}
		}
		require.True(t, mintIndex > 0)
		require.Equal(t, env.payerKey(), accounts[0])

		classified := classifyError(plan, solana.NewInsufficientFundsForRentError(mintIndex))
		assert.True(t, errors.Is(classified, ErrAccountSizeMismatch), "%s: %v", strategy, classified)

		// The payer dropping below its minimum is a funding problem, even
		// when the plan writes embedded metadata.
		classified = classifyError(plan, solana.NewInsufficientFundsForRentError(0))
		assert.True(t, errors.Is(classified, ErrInsufficientFunds), "%s: %v", strategy, classified)
		assert.False(t, errors.Is(classified, ErrAccountSizeMismatch))
	}
}
