package nft

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/code-payments/nft-minter/pkg/nft/offchain"
)

var (
	// ErrAssetNotFound indicates the asset file to publish could not be read.
	ErrAssetNotFound = offchain.ErrAssetNotFound

	// ErrUploadFailed indicates the off-chain storage rejected a blob.
	ErrUploadFailed = offchain.ErrUploadFailed

	// ErrAccountSizeMismatch indicates the metadata grew beyond what the mint
	// account was funded for.
	ErrAccountSizeMismatch = errors.New("account size mismatch")

	// ErrOrderingViolation indicates an instruction ran before one it depends
	// on, for example initializing the mint before its metadata pointer.
	ErrOrderingViolation = errors.New("instruction ordering violation")

	// ErrInsufficientFunds indicates the payer can't cover fees or rent.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrNetwork indicates a submission or confirmation failure.
	ErrNetwork = errors.New("network error")

	// ErrReadBackFailure indicates a post-commit verification read failed.
	// It's never returned from CreateNFT, only reported in a Verification.
	ErrReadBackFailure = errors.New("read back failure")

	// ErrInvalidDescriptor indicates the descriptor can't be minted.
	ErrInvalidDescriptor = errors.New("invalid descriptor")
)

// taxonomyError classifies a cause under one of the package sentinels, so
// callers can use errors.Is on the sentinel while errors.As still reaches
// the underlying *solana.TransactionError.
type taxonomyError struct {
	kind  error
	cause error
}

func newError(kind, cause error) error {
	return &taxonomyError{kind: kind, cause: cause}
}

func (e *taxonomyError) Error() string {
	if e.cause == nil {
		return e.kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.kind.Error(), e.cause.Error())
}

func (e *taxonomyError) Unwrap() error {
	return e.cause
}

func (e *taxonomyError) Is(target error) bool {
	return target == e.kind
}
