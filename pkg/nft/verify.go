package nft

import (
	"bytes"
	"context"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/nft-minter/pkg/metrics"
	"github.com/code-payments/nft-minter/pkg/nft/offchain"
	"github.com/code-payments/nft-minter/pkg/solana"
	"github.com/code-payments/nft-minter/pkg/solana/metaplex"
	"github.com/code-payments/nft-minter/pkg/solana/token"
	"github.com/code-payments/nft-minter/pkg/solana/tokenmetadata"
)

// DocumentFetcher loads the off-chain document a metadata URI references.
type DocumentFetcher interface {
	Fetch(ctx context.Context, uri string) (*offchain.Document, error)
}

// Metadata is the on-chain metadata record, normalized across strategies.
type Metadata struct {
	UpdateAuthority  ed25519.PublicKey
	Name             string
	Symbol           string
	URI              string
	AdditionalFields []Field
}

// Verification is the state read back after a mint was committed. Every read
// is independent, so a failed read leaves its field nil and adds a failure.
type Verification struct {
	AssociatedAccount ed25519.PublicKey
	TokenAccount      *token.Account
	Mint              *token.Mint
	Pointer           *token.MetadataPointer
	Metadata          *Metadata
	OffChain          *offchain.Document

	// Failures wrap ErrReadBackFailure.
	Failures []error
}

func (v *Verification) OK() bool {
	return len(v.Failures) == 0
}

// Matches reports whether the on-chain metadata is byte-for-byte what the
// descriptor asked for. Additional fields are only compared when the
// metadata record carries them.
func (v *Verification) Matches(desc *Descriptor) bool {
	if v.Metadata == nil {
		return false
	}
	if v.Metadata.Name != desc.Name || v.Metadata.Symbol != desc.Symbol || v.Metadata.URI != desc.URI {
		return false
	}
	if v.Metadata.AdditionalFields == nil {
		return true
	}
	if len(v.Metadata.AdditionalFields) != len(desc.AdditionalFields) {
		return false
	}
	for i, field := range desc.AdditionalFields {
		if v.Metadata.AdditionalFields[i] != field {
			return false
		}
	}
	return true
}

func (v *Verification) fail(err error) {
	v.Failures = append(v.Failures, newError(ErrReadBackFailure, err))
}

// Verifier reads back a minted token.
type Verifier struct {
	log        *logrus.Entry
	ledger     Ledger
	fetcher    DocumentFetcher
	commitment solana.Commitment
}

// NewVerifier returns a Verifier. A nil fetcher skips the off-chain document.
func NewVerifier(ledger Ledger, fetcher DocumentFetcher, commitment solana.Commitment) *Verifier {
	return &Verifier{
		log:        logrus.StandardLogger().WithField("type", "nft/verifier"),
		ledger:     ledger,
		fetcher:    fetcher,
		commitment: commitment,
	}
}

// Verify reads the holder's token account, the mint and the metadata record
// the mint's pointer references. It only returns an error when the addresses
// to read can't be derived.
func (v *Verifier) Verify(ctx context.Context, mint, holder ed25519.PublicKey, strategy Strategy) (*Verification, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "Verify")
	defer tracer.End()

	log := v.log.WithFields(logrus.Fields{
		"method":   "Verify",
		"mint":     base58.Encode(mint),
		"strategy": strategy.String(),
	})

	associated, err := token.GetAssociatedAccountForProgram(holder, mint, token.Token2022ProgramKey)
	if err != nil {
		tracer.OnError(err)
		return nil, errors.Wrap(err, "failed to derive associated account")
	}
	expectedMetadata, err := strategy.MetadataAddress(mint)
	if err != nil {
		tracer.OnError(err)
		return nil, errors.Wrap(err, "failed to derive metadata address")
	}

	result := &Verification{
		AssociatedAccount: associated,
	}

	client := token.NewClient(v.ledger, mint, token.Token2022ProgramKey)

	result.TokenAccount, err = client.GetAccount(associated, v.commitment)
	if err != nil {
		result.fail(errors.Wrap(err, "failed to read token account"))
	}

	result.Mint, err = client.GetMint(v.commitment)
	if err != nil {
		result.fail(errors.Wrap(err, "failed to read mint"))
	} else {
		result.Pointer, err = result.Mint.MetadataPointer()
		switch {
		case err != nil:
			result.fail(errors.Wrap(err, "failed to decode metadata pointer"))
		case result.Pointer == nil:
			result.fail(errors.New("mint has no metadata pointer"))
		case !bytes.Equal(result.Pointer.MetadataAddress, expectedMetadata):
			result.fail(errors.Errorf(
				"metadata pointer references %s, expected %s",
				base58.Encode(result.Pointer.MetadataAddress),
				base58.Encode(expectedMetadata),
			))
		}
	}

	if result.Pointer != nil && len(result.Pointer.MetadataAddress) > 0 {
		result.Metadata, err = v.readMetadata(result.Pointer.MetadataAddress, strategy)
		if err != nil {
			result.fail(errors.Wrap(err, "failed to read metadata"))
		}
	}

	if v.fetcher != nil && result.Metadata != nil {
		result.OffChain, err = v.fetcher.Fetch(ctx, result.Metadata.URI)
		if err != nil {
			result.fail(errors.Wrap(err, "failed to fetch off-chain document"))
		}
	}

	if !result.OK() {
		log.WithField("failures", len(result.Failures)).Debug("read back incomplete")
	}
	return result, nil
}

func (v *Verifier) readMetadata(address ed25519.PublicKey, strategy Strategy) (*Metadata, error) {
	info, err := v.ledger.GetAccountInfo(address, v.commitment)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(info.Owner, strategy.MetadataProgram()) {
		return nil, errors.Errorf("metadata account owned by %s", base58.Encode(info.Owner))
	}

	switch strategy.Kind() {
	case StrategyEmbedded:
		var mint token.Mint
		if err := mint.Unmarshal(info.Data); err != nil {
			return nil, errors.Wrap(err, "invalid mint data")
		}
		md, err := tokenmetadata.FromMint(&mint)
		if err != nil {
			return nil, err
		}
		fields := md.AdditionalMetadata
		if fields == nil {
			fields = []Field{}
		}
		return &Metadata{
			UpdateAuthority:  md.UpdateAuthority,
			Name:             md.Name,
			Symbol:           md.Symbol,
			URI:              md.URI,
			AdditionalFields: fields,
		}, nil
	case StrategyPointer:
		var account metaplex.MetadataAccount
		if err := account.Unmarshal(info.Data); err != nil {
			return nil, errors.Wrap(err, "invalid metadata account data")
		}
		return &Metadata{
			UpdateAuthority: account.UpdateAuthority,
			Name:            account.Name,
			Symbol:          account.Symbol,
			URI:             account.URI,
		}, nil
	}
	return nil, errors.Errorf("unsupported strategy: %s", strategy)
}
