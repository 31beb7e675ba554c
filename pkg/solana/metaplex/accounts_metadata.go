package metaplex

import (
	"crypto/ed25519"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/near/borsh-go"
	"github.com/pkg/errors"
)

type Data struct {
	Name                 string
	Symbol               string
	URI                  string
	SellerFeeBasisPoints uint16
	Creators             *[]Creator
}

type rawMetadataAccount struct {
	Key                 Key
	UpdateAuthority     [32]byte
	Mint                [32]byte
	Data                Data
	PrimarySaleHappened bool
	IsMutable           bool
	EditionNonce        *uint8
	TokenStandard       *TokenStandard
	Collection          *Collection
	Uses                *Uses
	CollectionDetails   *CollectionDetails
	ProgrammableConfig  *ProgrammableConfig
}

// MetadataAccount is a decoded Metaplex metadata account. String fields have
// their NUL padding removed.
type MetadataAccount struct {
	UpdateAuthority      ed25519.PublicKey
	Mint                 ed25519.PublicKey
	Name                 string
	Symbol               string
	URI                  string
	SellerFeeBasisPoints uint16
	PrimarySaleHappened  bool
	IsMutable            bool
	TokenStandard        TokenStandard
}

// NewMetadataAccount builds the account state the program writes for
// CreateV1.
func NewMetadataAccount(mint, updateAuthority ed25519.PublicKey, data AssetData) *MetadataAccount {
	return &MetadataAccount{
		UpdateAuthority:      updateAuthority,
		Mint:                 mint,
		Name:                 data.Name,
		Symbol:               data.Symbol,
		URI:                  data.URI,
		SellerFeeBasisPoints: data.SellerFeeBasisPoints,
		PrimarySaleHappened:  data.PrimarySaleHappened,
		IsMutable:            data.IsMutable,
		TokenStandard:        data.TokenStandard,
	}
}

// Marshal encodes the account with strings padded to their maximum length,
// as the program stores them.
func (obj *MetadataAccount) Marshal() ([]byte, error) {
	if len(obj.Name) > MaxNameLength {
		return nil, errors.Errorf("name too long: %d", len(obj.Name))
	}
	if len(obj.Symbol) > MaxSymbolLength {
		return nil, errors.Errorf("symbol too long: %d", len(obj.Symbol))
	}
	if len(obj.URI) > MaxURILength {
		return nil, errors.Errorf("uri too long: %d", len(obj.URI))
	}

	tokenStandard := obj.TokenStandard
	raw := rawMetadataAccount{
		Key: KeyMetadataV1,
		Data: Data{
			Name:                 toFixedString(obj.Name, MaxNameLength),
			Symbol:               toFixedString(obj.Symbol, MaxSymbolLength),
			URI:                  toFixedString(obj.URI, MaxURILength),
			SellerFeeBasisPoints: obj.SellerFeeBasisPoints,
		},
		PrimarySaleHappened: obj.PrimarySaleHappened,
		IsMutable:           obj.IsMutable,
		TokenStandard:       &tokenStandard,
	}
	copy(raw.UpdateAuthority[:], obj.UpdateAuthority)
	copy(raw.Mint[:], obj.Mint)

	encoded, err := borsh.Serialize(raw)
	if err != nil {
		return nil, errors.Wrap(err, "failed to serialize metadata account")
	}

	b := make([]byte, MetadataAccountSize)
	copy(b, encoded)
	return b, nil
}

func (obj *MetadataAccount) Unmarshal(data []byte) error {
	if len(data) < 1 || Key(data[0]) != KeyMetadataV1 {
		return ErrInvalidAccountData
	}

	var raw rawMetadataAccount
	if err := borsh.Deserialize(&raw, data); err != nil {
		return errors.Wrap(ErrInvalidAccountData, err.Error())
	}

	obj.UpdateAuthority = append(ed25519.PublicKey{}, raw.UpdateAuthority[:]...)
	obj.Mint = append(ed25519.PublicKey{}, raw.Mint[:]...)
	obj.Name = removeFixedStringPadding(raw.Data.Name)
	obj.Symbol = removeFixedStringPadding(raw.Data.Symbol)
	obj.URI = removeFixedStringPadding(raw.Data.URI)
	obj.SellerFeeBasisPoints = raw.Data.SellerFeeBasisPoints
	obj.PrimarySaleHappened = raw.PrimarySaleHappened
	obj.IsMutable = raw.IsMutable
	if raw.TokenStandard != nil {
		obj.TokenStandard = *raw.TokenStandard
	}

	return nil
}

func (obj *MetadataAccount) String() string {
	return fmt.Sprintf(
		"Metadata{update_authority=%s,mint=%s,name=%s,symbol=%s,uri=%s,seller_fee_basis_points=%d,mutable=%v}",
		base58.Encode(obj.UpdateAuthority),
		base58.Encode(obj.Mint),
		obj.Name,
		obj.Symbol,
		obj.URI,
		obj.SellerFeeBasisPoints,
		obj.IsMutable,
	)
}

func toFixedString(value string, length int) string {
	fixed := make([]byte, length)
	copy(fixed, []byte(value))
	return string(fixed)
}

func removeFixedStringPadding(value string) string {
	return strings.TrimRight(value, string([]byte{0}))
}
