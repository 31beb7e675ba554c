package metaplex

import (
	"crypto/ed25519"
	"errors"
)

var (
	ErrInvalidProgram         = errors.New("invalid program id")
	ErrInvalidAccountData     = errors.New("unexpected account data")
	ErrInvalidInstructionData = errors.New("unexpected instruction data")
)

// ProgramKey is the address of the Metaplex Token Metadata program.
//
// Current key: metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s
var ProgramKey = ed25519.PublicKey{11, 112, 101, 177, 227, 209, 124, 69, 56, 157, 82, 127, 107, 4, 195, 205, 88, 184, 108, 115, 26, 160, 253, 181, 73, 182, 209, 188, 3, 248, 41, 70}

// MetadataSeed is the fixed seed prefix of every metadata account address.
var MetadataSeed = []byte("metadata")

// Reference: https://github.com/metaplex-foundation/mpl-token-metadata/blob/main/programs/token-metadata/program/src/state/metadata.rs
const (
	MaxNameLength   = 32
	MaxSymbolLength = 10
	MaxURILength    = 200

	MaxCreatorLimit = 5
	MaxCreatorLen   = 32 + 1 + 1

	MaxDataSize = 4 + MaxNameLength +
		4 + MaxSymbolLength +
		4 + MaxURILength +
		2 + // seller fee basis points
		1 + 4 + MaxCreatorLimit*MaxCreatorLen

	// MetadataAccountSize is the fixed allocation of a metadata account.
	MetadataAccountSize = 1 + // key
		32 + // update authority
		32 + // mint
		MaxDataSize +
		1 + // primary sale
		1 + // mutable
		9 + // edition nonce
		2 + // token standard
		34 + // collection
		18 + // uses
		10 + // collection details
		35 + // programmable config
		73 // padding
)

type Key uint8

const (
	KeyUninitialized Key = iota
	KeyEditionV1
	KeyMasterEditionV1
	KeyReservationListV1
	KeyMetadataV1
	KeyReservationListV2
	KeyMasterEditionV2
	KeyEditionMarker
	KeyUseAuthorityRecord
	KeyCollectionAuthorityRecord
	KeyTokenOwnedEscrow
	KeyTokenRecord
	KeyMetadataDelegate
	KeyEditionMarkerV2
	KeyHolderDelegate
)

type TokenStandard uint8

const (
	TokenStandardNonFungible TokenStandard = iota
	TokenStandardFungibleAsset
	TokenStandardFungible
	TokenStandardNonFungibleEdition
	TokenStandardProgrammableNonFungible
	TokenStandardProgrammableNonFungibleEdition
)

type UseMethod uint8

const (
	UseMethodBurn UseMethod = iota
	UseMethodMultiple
	UseMethodSingle
)
