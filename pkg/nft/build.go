package nft

import (
	"context"
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-payments/nft-minter/pkg/metrics"
	"github.com/code-payments/nft-minter/pkg/solana/metaplex"
	"github.com/code-payments/nft-minter/pkg/solana/system"
	"github.com/code-payments/nft-minter/pkg/solana/token"
	"github.com/code-payments/nft-minter/pkg/solana/tokenmetadata"
)

// BuildPlan assembles the single transaction that creates mint, attaches its
// metadata using strategy, mints one token to the holder's associated account
// and revokes the mint authority.
//
// The payer is the mint authority, the metadata update authority and the
// fee payer. It's the only signer besides the mint.
func (o *Orchestrator) BuildPlan(ctx context.Context, desc *Descriptor, strategy Strategy, mint ed25519.PublicKey) (*Plan, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "BuildPlan")
	defer tracer.End()

	plan, err := o.buildPlan(desc, strategy, mint)
	tracer.OnError(err)
	return plan, err
}

func (o *Orchestrator) buildPlan(desc *Descriptor, strategy Strategy, mint ed25519.PublicKey) (*Plan, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	if len(mint) != ed25519.PublicKeySize {
		return nil, errors.Errorf("invalid mint key length: %d", len(mint))
	}

	metadataAddress, err := strategy.MetadataAddress(mint)
	if err != nil {
		return nil, errors.Wrap(err, "failed to derive metadata address")
	}

	space, err := token.GetMintLen(token.ExtensionMetadataPointer)
	if err != nil {
		return nil, errors.Wrap(err, "failed to compute mint size")
	}

	plan := &Plan{
		Strategy:        strategy,
		Payer:           o.payerKey,
		Holder:          o.holder,
		Mint:            mint,
		MetadataAddress: metadataAddress,
		Space:           uint64(space),
	}

	// The token metadata interface reallocates the mint as fields are
	// written but never tops up its balance, so the account is funded up
	// front for the size it ends at.
	if strategy.Kind() == StrategyEmbedded {
		plan.MetadataSpace = uint64(tokenmetadata.AccountSpace(desc.metadata(o.payerKey, mint)))
	}

	plan.Lamports, err = o.ledger.GetMinimumBalanceForRentExemption(plan.Space + plan.MetadataSpace)
	if err != nil {
		return nil, newError(ErrNetwork, errors.Wrap(err, "failed to get rent exempt balance"))
	}

	plan.add(StepCreateAccount, system.CreateAccount(o.payerKey, mint, token.Token2022ProgramKey, plan.Lamports, plan.Space))

	// The payer can repoint embedded metadata later. A pointer into the
	// Metaplex account has no authority, so it can never be changed.
	var pointerAuthority ed25519.PublicKey
	if strategy.Kind() == StrategyEmbedded {
		pointerAuthority = o.payerKey
	}
	plan.add(StepInitPointer, token.InitializeMetadataPointer(mint, pointerAuthority, metadataAddress))

	plan.add(StepInitMint, token.InitializeMint(token.Token2022ProgramKey, mint, o.payerKey, o.payerKey, desc.Decimals))

	switch strategy.Kind() {
	case StrategyEmbedded:
		initialize, err := tokenmetadata.Initialize(
			token.Token2022ProgramKey,
			metadataAddress,
			o.payerKey,
			mint,
			o.payerKey,
			desc.Name,
			desc.Symbol,
			desc.URI,
		)
		if err != nil {
			return nil, errors.Wrap(err, "failed to build metadata initialize instruction")
		}
		plan.add(StepInitMetadata, initialize)

		for _, field := range desc.AdditionalFields {
			update, err := tokenmetadata.UpdateField(
				token.Token2022ProgramKey,
				metadataAddress,
				o.payerKey,
				tokenmetadata.KeyField(field.Key),
				field.Value,
			)
			if err != nil {
				return nil, errors.Wrapf(err, "failed to build update instruction for field %q", field.Key)
			}
			plan.add(StepUpdateField, update)
		}
	case StrategyPointer:
		create, err := metaplex.NewCreateV1Instruction(
			&metaplex.CreateV1InstructionAccounts{
				Metadata:        metadataAddress,
				Mint:            mint,
				Authority:       o.payerKey,
				Payer:           o.payerKey,
				UpdateAuthority: o.payerKey,
				SplTokenProgram: token.Token2022ProgramKey,
				Program:         strategy.MetadataProgram(),
			},
			&metaplex.CreateV1InstructionArgs{
				AssetData: metaplex.NewAssetData(desc.Name, desc.Symbol, desc.URI),
			},
		)
		if err != nil {
			return nil, errors.Wrap(err, "failed to build metadata account instruction")
		}
		plan.add(StepCreateMetadataAccount, create)
	default:
		return nil, errors.Errorf("unsupported strategy: %s", strategy)
	}

	createAssociated, associated, err := token.CreateAssociatedTokenAccountIdempotent(o.payerKey, o.holder, mint, token.Token2022ProgramKey)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build associated account instruction")
	}
	plan.AssociatedAccount = associated
	plan.add(StepCreateAssociatedAccount, createAssociated)

	plan.add(StepMintTo, token.MintToChecked(token.Token2022ProgramKey, mint, associated, o.payerKey, 1, desc.Decimals))

	plan.add(StepRevokeMintAuthority, token.SetAuthority(token.Token2022ProgramKey, mint, o.payerKey, nil, token.AuthorityTypeMintTokens))

	plan.Signers = []ed25519.PublicKey{o.payerKey, mint}

	if err := plan.Validate(); err != nil {
		return nil, errors.Wrap(err, "built an invalid plan")
	}
	return plan, nil
}
