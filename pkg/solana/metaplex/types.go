package metaplex

import (
	"github.com/near/borsh-go"
)

type Creator struct {
	Address  [32]byte
	Verified bool
	Share    uint8
}

type Collection struct {
	Verified bool
	Key      [32]byte
}

type Uses struct {
	UseMethod UseMethod
	Remaining uint64
	Total     uint64
}

type CollectionDetails struct {
	Enum borsh.Enum `borsh_enum:"true"`
	V1   CollectionDetailsV1
	V2   CollectionDetailsV2
}

type CollectionDetailsV1 struct {
	Size uint64
}

type CollectionDetailsV2 struct {
	Padding [8]byte
}

type ProgrammableConfig struct {
	Enum borsh.Enum `borsh_enum:"true"`
	V1   ProgrammableConfigV1
}

type ProgrammableConfigV1 struct {
	RuleSet *[32]byte
}

type PrintSupply struct {
	Enum      borsh.Enum `borsh_enum:"true"`
	Zero      struct{}
	Limited   PrintSupplyLimited
	Unlimited struct{}
}

type PrintSupplyLimited struct {
	Value uint64
}

// AssetData is the on-chain data supplied when creating a metadata account.
//
// Reference: https://github.com/metaplex-foundation/mpl-token-metadata/blob/main/programs/token-metadata/program/src/state/asset_data.rs
type AssetData struct {
	Name                 string
	Symbol               string
	URI                  string
	SellerFeeBasisPoints uint16
	Creators             *[]Creator
	PrimarySaleHappened  bool
	IsMutable            bool
	TokenStandard        TokenStandard
	Collection           *Collection
	Uses                 *Uses
	CollectionDetails    *CollectionDetails
	RuleSet              *[32]byte
}

// NewAssetData returns asset data with the defaults used for token extensions
// mints: no royalties, mutable, primary sale happened, fungible standard.
func NewAssetData(name, symbol, uri string) AssetData {
	return AssetData{
		Name:                name,
		Symbol:              symbol,
		URI:                 uri,
		PrimarySaleHappened: true,
		IsMutable:           true,
		TokenStandard:       TokenStandardFungible,
	}
}
