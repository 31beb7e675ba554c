package nft

import (
	"bytes"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/code-payments/nft-minter/pkg/solana/metaplex"
	"github.com/code-payments/nft-minter/pkg/solana/token"
)

type StrategyKind uint8

const (
	// StrategyEmbedded stores metadata in the mint account itself.
	StrategyEmbedded StrategyKind = iota
	// StrategyPointer stores metadata in a program derived account owned by
	// a metadata program.
	StrategyPointer
)

func (k StrategyKind) String() string {
	switch k {
	case StrategyEmbedded:
		return "embedded"
	case StrategyPointer:
		return "pointer"
	}
	return "unknown"
}

// Strategy selects where a token's metadata is stored.
type Strategy struct {
	kind            StrategyKind
	metadataProgram ed25519.PublicKey
}

// Embedded stores metadata in the mint through the token metadata interface.
// The metadata pointer references the mint.
func Embedded() Strategy {
	return Strategy{
		kind:            StrategyEmbedded,
		metadataProgram: token.Token2022ProgramKey,
	}
}

// Pointer stores metadata in the Metaplex metadata account derived from the
// mint. A nil metadataProgram uses the Metaplex token metadata program.
func Pointer(metadataProgram ed25519.PublicKey) Strategy {
	if len(metadataProgram) == 0 {
		metadataProgram = metaplex.ProgramKey
	}
	return Strategy{
		kind:            StrategyPointer,
		metadataProgram: metadataProgram,
	}
}

// ParseStrategy parses a strategy name as rendered by StrategyKind.String.
func ParseStrategy(name string, metadataProgram ed25519.PublicKey) (Strategy, error) {
	switch name {
	case StrategyEmbedded.String():
		return Embedded(), nil
	case StrategyPointer.String():
		return Pointer(metadataProgram), nil
	}
	return Strategy{}, errors.Errorf("unknown strategy %q", name)
}

func (s Strategy) Kind() StrategyKind {
	return s.kind
}

// MetadataProgram is the program that owns the metadata record.
func (s Strategy) MetadataProgram() ed25519.PublicKey {
	return s.metadataProgram
}

// MetadataAddress returns the address the mint's metadata pointer references.
func (s Strategy) MetadataAddress(mint ed25519.PublicKey) (ed25519.PublicKey, error) {
	switch s.kind {
	case StrategyEmbedded:
		return mint, nil
	case StrategyPointer:
		return metaplex.DeriveMetadataAddress(mint, s.metadataProgram, metaplex.MetadataSeed)
	}
	return nil, errors.Errorf("unknown strategy kind %d", s.kind)
}

func (s Strategy) Equal(other Strategy) bool {
	return s.kind == other.kind && bytes.Equal(s.metadataProgram, other.metadataProgram)
}

func (s Strategy) String() string {
	if s.kind == StrategyPointer {
		return s.kind.String() + "(" + base58.Encode(s.metadataProgram) + ")"
	}
	return s.kind.String()
}
