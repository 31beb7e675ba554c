package tokenmetadata

import (
	"crypto/ed25519"

	"github.com/near/borsh-go"
	"github.com/pkg/errors"

	"github.com/code-payments/nft-minter/pkg/solana/token"
)

// Field is an additional key/value pair stored alongside the core metadata.
type Field struct {
	Key   string
	Value string
}

// TokenMetadata is the metadata record defined by the token metadata
// interface. On a token extensions mint it's stored in the mint account as
// the TokenMetadata extension.
//
// Reference: https://github.com/solana-labs/solana-program-library/blob/token-metadata-interface-v0.2.0/token-metadata/interface/src/state.rs#L23
type TokenMetadata struct {
	// Authority that can update the metadata. Nil means immutable.
	UpdateAuthority ed25519.PublicKey
	// The mint the metadata belongs to.
	Mint ed25519.PublicKey

	Name   string
	Symbol string
	URI    string

	// Additional fields, in insertion order.
	AdditionalMetadata []Field
}

type packedField struct {
	Key   string
	Value string
}

type packedTokenMetadata struct {
	UpdateAuthority    [32]byte
	Mint               [32]byte
	Name               string
	Symbol             string
	URI                string
	AdditionalMetadata []packedField
}

// Pack encodes the metadata with borsh, as stored in the TLV value.
func (m *TokenMetadata) Pack() ([]byte, error) {
	var packed packedTokenMetadata
	copy(packed.UpdateAuthority[:], m.UpdateAuthority)
	copy(packed.Mint[:], m.Mint)
	packed.Name = m.Name
	packed.Symbol = m.Symbol
	packed.URI = m.URI
	packed.AdditionalMetadata = make([]packedField, len(m.AdditionalMetadata))
	for i, f := range m.AdditionalMetadata {
		packed.AdditionalMetadata[i] = packedField{Key: f.Key, Value: f.Value}
	}

	b, err := borsh.Serialize(packed)
	if err != nil {
		return nil, errors.Wrap(err, "failed to serialize token metadata")
	}
	return b, nil
}

// Unpack decodes a borsh encoded TLV value.
func (m *TokenMetadata) Unpack(b []byte) error {
	var packed packedTokenMetadata
	if err := borsh.Deserialize(&packed, b); err != nil {
		return errors.Wrap(err, "failed to deserialize token metadata")
	}

	m.UpdateAuthority = nonZeroKey(packed.UpdateAuthority)
	m.Mint = nonZeroKey(packed.Mint)
	m.Name = packed.Name
	m.Symbol = packed.Symbol
	m.URI = packed.URI
	m.AdditionalMetadata = nil
	for _, f := range packed.AdditionalMetadata {
		m.AdditionalMetadata = append(m.AdditionalMetadata, Field{Key: f.Key, Value: f.Value})
	}
	return nil
}

// Update applies a field update the same way the program does: core fields
// are replaced, and additional fields are replaced in place or appended.
func (m *TokenMetadata) Update(field FieldKey, value string) {
	switch field.Kind {
	case FieldName:
		m.Name = value
	case FieldSymbol:
		m.Symbol = value
	case FieldURI:
		m.URI = value
	case FieldKeyed:
		for i := range m.AdditionalMetadata {
			if m.AdditionalMetadata[i].Key == field.Key {
				m.AdditionalMetadata[i].Value = value
				return
			}
		}
		m.AdditionalMetadata = append(m.AdditionalMetadata, Field{Key: field.Key, Value: value})
	}
}

// Get returns an additional field value.
func (m *TokenMetadata) Get(key string) (string, bool) {
	for _, f := range m.AdditionalMetadata {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

// PackedLen returns the borsh encoded size of the metadata.
func PackedLen(m *TokenMetadata) int {
	// update authority + mint + 3 length prefixed strings + vec length
	size := 32 + 32 + 4 + len(m.Name) + 4 + len(m.Symbol) + 4 + len(m.URI) + 4
	for _, f := range m.AdditionalMetadata {
		size += 4 + len(f.Key) + 4 + len(f.Value)
	}
	return size
}

// AccountSpace returns the bytes the metadata occupies inside a mint account,
// including the TLV header.
func AccountSpace(m *TokenMetadata) int {
	return token.ExtensionTypeSize + token.ExtensionLengthSize + PackedLen(m)
}

// FromMint extracts the embedded metadata from a decoded mint.
func FromMint(mint *token.Mint) (*TokenMetadata, error) {
	raw, ok := mint.GetExtension(token.ExtensionTokenMetadata)
	if !ok {
		return nil, ErrNoMetadata
	}

	var m TokenMetadata
	if err := m.Unpack(raw); err != nil {
		return nil, err
	}
	return &m, nil
}

var ErrNoMetadata = errors.New("mint has no embedded metadata")

func nonZeroKey(k [32]byte) ed25519.PublicKey {
	if k == ([32]byte{}) {
		return nil
	}
	return append(ed25519.PublicKey{}, k[:]...)
}
