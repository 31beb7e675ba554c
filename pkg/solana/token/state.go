package token

import (
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-payments/nft-minter/pkg/solana/binary"
)

type AccountState byte

const (
	AccountStateUninitialized AccountState = iota
	AccountStateInitialized
	AccountStateFrozen
)

// Reference: https://github.com/solana-labs/solana-program-library/blob/11b1e3eefdd4e523768d63f7c70a7aa391ea0d02/token/program/src/state.rs#L125
const AccountSize = 165

// Reference: https://github.com/solana-labs/solana-program-library/blob/11b1e3eefdd4e523768d63f7c70a7aa391ea0d02/token/program/src/state.rs#L44
const MintSize = 82

// Reference: https://github.com/solana-labs/solana-program-library/blob/8944f428fe693c3a4226bf766a79be9c75e8e520/token/program/src/state.rs#L214
const MultisigAccountSize = 355

type Account struct {
	// The mint associated with this account
	Mint ed25519.PublicKey
	// The owner of this account.
	Owner ed25519.PublicKey
	// The amount of tokens this account holds.
	Amount uint64
	// If set, then the 'DelegatedAmount' represents the amount
	// authorized by the delegate.
	Delegate ed25519.PublicKey
	/// The account's state
	State AccountState
	// If set, this is a native token, and the value logs the rent-exempt reserve.
	IsNative *uint64
	// The amount delegated
	DelegatedAmount uint64
	// Optional authority to close the account.
	CloseAuthority ed25519.PublicKey

	// Extensions are only present on token extensions accounts.
	Extensions []Extension
}

func (a *Account) Marshal() []byte {
	b := make([]byte, AccountSize)

	w := binary.NewWriter(b)
	w.Key(a.Mint)
	w.Key(a.Owner)
	w.Uint64(a.Amount)
	w.OptionalKey(a.Delegate)
	w.Uint8(byte(a.State))
	w.OptionalUint64(a.IsNative)
	w.Uint64(a.DelegatedAmount)
	w.OptionalKey(a.CloseAuthority)

	if len(a.Extensions) > 0 {
		b = append(b, byte(AccountTypeAccount))
		for _, e := range a.Extensions {
			b = EncodeTLV(b, e.Type, e.Value)
		}
	}

	return b
}

// Unmarshal decodes a token account. Token extensions accounts carry an
// account type byte and TLV entries after the base state.
func (a *Account) Unmarshal(b []byte) bool {
	if len(b) < AccountSize {
		return false
	}
	if len(b) > AccountSize && AccountType(b[AccountSize]) != AccountTypeAccount {
		return false
	}

	r := binary.NewReader(b)
	a.Mint = r.Key()
	a.Owner = r.Key()
	a.Amount = r.Uint64()
	a.Delegate = r.OptionalKey()
	a.State = AccountState(r.Uint8())
	a.IsNative = r.OptionalUint64()
	a.DelegatedAmount = r.Uint64()
	a.CloseAuthority = r.OptionalKey()

	a.Extensions = nil
	if len(b) > AccountSize {
		extensions, err := DecodeTLV(b[AccountSize+accountTypeSize:])
		if err != nil {
			return false
		}
		a.Extensions = extensions
	}

	return true
}

// Mint is the state of a token mint, including any extensions.
//
// Reference: https://github.com/solana-labs/solana-program-library/blob/11b1e3eefdd4e523768d63f7c70a7aa391ea0d02/token/program/src/state.rs#L16
type Mint struct {
	// Optional authority used to mint new tokens. Once cleared, the supply is
	// fixed forever.
	MintAuthority ed25519.PublicKey
	// Total supply of tokens.
	Supply uint64
	// Number of base 10 digits to the right of the decimal place.
	Decimals byte
	// Is true if this structure has been initialized
	IsInitialized bool
	// Optional authority to freeze token accounts.
	FreezeAuthority ed25519.PublicKey

	Extensions []Extension
}

func (m *Mint) Marshal() []byte {
	b := make([]byte, MintSize)

	w := binary.NewWriter(b)
	w.OptionalKey(m.MintAuthority)
	w.Uint64(m.Supply)
	w.Uint8(m.Decimals)
	w.Bool(m.IsInitialized)
	w.OptionalKey(m.FreezeAuthority)

	if len(m.Extensions) > 0 {
		padded := make([]byte, AccountSize, AccountSize+accountTypeSize)
		copy(padded, b)
		b = append(padded, byte(AccountTypeMint))
		for _, e := range m.Extensions {
			b = EncodeTLV(b, e.Type, e.Value)
		}
	}

	return b
}

func (m *Mint) Unmarshal(b []byte) error {
	if len(b) != MintSize && len(b) <= AccountSize {
		return errors.Errorf("invalid mint size: %d", len(b))
	}

	r := binary.NewReader(b)
	m.MintAuthority = r.OptionalKey()
	m.Supply = r.Uint64()
	m.Decimals = r.Uint8()
	m.IsInitialized = r.Bool()
	m.FreezeAuthority = r.OptionalKey()

	m.Extensions = nil
	if len(b) == MintSize {
		return nil
	}

	if AccountType(b[AccountSize]) != AccountTypeMint {
		return errors.Errorf("unexpected account type: %d", b[AccountSize])
	}
	extensions, err := DecodeTLV(b[AccountSize+accountTypeSize:])
	if err != nil {
		return err
	}
	m.Extensions = extensions
	return nil
}

// GetExtension returns the raw value of the extension, if present.
func (m *Mint) GetExtension(t ExtensionType) ([]byte, bool) {
	for _, e := range m.Extensions {
		if e.Type == t {
			return e.Value, true
		}
	}
	return nil, false
}

// MetadataPointer returns the decoded metadata pointer extension, if present.
func (m *Mint) MetadataPointer() (*MetadataPointer, error) {
	raw, ok := m.GetExtension(ExtensionMetadataPointer)
	if !ok {
		return nil, nil
	}

	var p MetadataPointer
	if err := p.Unmarshal(raw); err != nil {
		return nil, err
	}
	return &p, nil
}
