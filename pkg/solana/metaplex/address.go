package metaplex

import (
	"crypto/ed25519"

	"github.com/code-payments/nft-minter/pkg/solana"
)

// GetMetadataAddress returns the Metaplex metadata account address for mint.
func GetMetadataAddress(mint ed25519.PublicKey) (ed25519.PublicKey, error) {
	return DeriveMetadataAddress(mint, ProgramKey, MetadataSeed)
}

// DeriveMetadataAddress derives a metadata account address from
// (seed, program, mint) under program. It's a pure function of its inputs.
func DeriveMetadataAddress(mint, program ed25519.PublicKey, seed []byte) (ed25519.PublicKey, error) {
	return solana.FindProgramAddress(
		program,
		seed,
		program,
		mint,
	)
}
