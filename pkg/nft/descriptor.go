package nft

import (
	"crypto/ed25519"
	"unicode/utf8"

	"github.com/pkg/errors"

	"github.com/code-payments/nft-minter/pkg/solana/metaplex"
	"github.com/code-payments/nft-minter/pkg/solana/tokenmetadata"
)

// Field is an additional metadata key/value pair. Order is preserved on chain.
type Field = tokenmetadata.Field

// Descriptor describes the token to mint.
type Descriptor struct {
	Name   string
	Symbol string
	URI    string

	AdditionalFields []Field

	// Decimals must be 0 for a non-fungible token.
	Decimals uint8
}

func (d *Descriptor) Validate() error {
	if d == nil {
		return errors.Wrap(ErrInvalidDescriptor, "descriptor is nil")
	}
	if d.Decimals != 0 {
		return errors.Wrapf(ErrInvalidDescriptor, "decimals must be 0, got %d", d.Decimals)
	}

	if len(d.Name) == 0 {
		return errors.Wrap(ErrInvalidDescriptor, "name is required")
	}
	if len(d.Symbol) == 0 {
		return errors.Wrap(ErrInvalidDescriptor, "symbol is required")
	}
	if len(d.URI) == 0 {
		return errors.Wrap(ErrInvalidDescriptor, "uri is required")
	}

	if len(d.Name) > metaplex.MaxNameLength {
		return errors.Wrapf(ErrInvalidDescriptor, "name exceeds %d bytes", metaplex.MaxNameLength)
	}
	if len(d.Symbol) > metaplex.MaxSymbolLength {
		return errors.Wrapf(ErrInvalidDescriptor, "symbol exceeds %d bytes", metaplex.MaxSymbolLength)
	}
	if len(d.URI) > metaplex.MaxURILength {
		return errors.Wrapf(ErrInvalidDescriptor, "uri exceeds %d bytes", metaplex.MaxURILength)
	}

	for _, s := range []string{d.Name, d.Symbol, d.URI} {
		if !utf8.ValidString(s) {
			return errors.Wrap(ErrInvalidDescriptor, "fields must be valid utf-8")
		}
	}

	seen := make(map[string]struct{})
	for _, field := range d.AdditionalFields {
		if len(field.Key) == 0 {
			return errors.Wrap(ErrInvalidDescriptor, "additional field key is required")
		}
		if !utf8.ValidString(field.Key) || !utf8.ValidString(field.Value) {
			return errors.Wrapf(ErrInvalidDescriptor, "additional field %q must be valid utf-8", field.Key)
		}
		if _, ok := seen[field.Key]; ok {
			return errors.Wrapf(ErrInvalidDescriptor, "duplicate additional field %q", field.Key)
		}
		seen[field.Key] = struct{}{}
	}

	return nil
}

// metadata returns the record the token metadata interface stores once every
// additional field has been written.
func (d *Descriptor) metadata(updateAuthority, mint ed25519.PublicKey) *tokenmetadata.TokenMetadata {
	return &tokenmetadata.TokenMetadata{
		UpdateAuthority:    updateAuthority,
		Mint:               mint,
		Name:               d.Name,
		Symbol:             d.Symbol,
		URI:                d.URI,
		AdditionalMetadata: append([]Field{}, d.AdditionalFields...),
	}
}
