package nft

import (
	"crypto/ed25519"

	"github.com/code-payments/nft-minter/pkg/solana"
)

// Ledger is the subset of the Solana RPC API the orchestrator needs. It's
// satisfied by solana.Client and by the in-memory ledgertest.Ledger.
type Ledger interface {
	GetAccountInfo(ed25519.PublicKey, solana.Commitment) (solana.AccountInfo, error)
	GetBalance(ed25519.PublicKey) (uint64, error)
	GetMinimumBalanceForRentExemption(size uint64) (uint64, error)
	GetLatestBlockhash() (solana.Blockhash, error)
	// GetSignatureStatuses must not block on confirmation, the orchestrator
	// polls it under its own deadline.
	GetSignatureStatuses([]solana.Signature) ([]*solana.SignatureStatus, error)
	SubmitTransaction(solana.Transaction, solana.Commitment) (solana.Signature, error)
}
