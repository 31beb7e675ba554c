package nft

import (
	"crypto/ed25519"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/nft-minter/pkg/solana/ledgertest"
	"github.com/code-payments/nft-minter/pkg/solana/metaplex"
	"github.com/code-payments/nft-minter/pkg/solana/token"
	"github.com/code-payments/nft-minter/pkg/solana/tokenmetadata"
	"github.com/code-payments/nft-minter/pkg/testutil"
)

func TestBuildPlan_Embedded(t *testing.T) {
	env := setup(t, &testOverrides{})

	desc := catDescriptor()
	desc.AdditionalFields = []Field{
		{Key: "description", Value: "Only Possible On Solana"},
		{Key: "color", Value: "orange"},
		{Key: "mood", Value: "sleepy"},
	}

	plan, mint := env.buildPlan(t, desc, Embedded())
	mintKey := mint.Public().(ed25519.PublicKey)

	assert.Equal(t, []Step{
		StepCreateAccount,
		StepInitPointer,
		StepInitMint,
		StepInitMetadata,
		StepUpdateField,
		StepUpdateField,
		StepUpdateField,
		StepCreateAssociatedAccount,
		StepMintTo,
		StepRevokeMintAuthority,
	}, plan.Steps)
	assert.Len(t, plan.Instructions, len(plan.Steps))

	assert.Equal(t, mintKey, plan.Mint)
	assert.Equal(t, mintKey, plan.MetadataAddress)
	assert.Equal(t, env.payerKey(), plan.Payer)
	assert.Equal(t, env.payerKey(), plan.Holder)
	assert.Equal(t, []ed25519.PublicKey{env.payerKey(), mintKey}, plan.Signers)

	space, err := token.GetMintLen(token.ExtensionMetadataPointer)
	require.NoError(t, err)
	assert.EqualValues(t, space, plan.Space)

	// Rent covers every field, not just the ones Initialize writes.
	expected := &tokenmetadata.TokenMetadata{
		UpdateAuthority:    env.payerKey(),
		Mint:               mintKey,
		Name:               desc.Name,
		Symbol:             desc.Symbol,
		URI:                desc.URI,
		AdditionalMetadata: desc.AdditionalFields,
	}
	assert.EqualValues(t, tokenmetadata.AccountSpace(expected), plan.MetadataSpace)
	assert.Equal(t, ledgertest.RentExemptBalance(plan.Space+plan.MetadataSpace), plan.Lamports)

	// Additional fields are written in descriptor order.
	for i, field := range desc.AdditionalFields {
		instruction := plan.Instructions[4+i]
		assert.Equal(t, token.Token2022ProgramKey, instruction.Program)
		assert.Contains(t, string(instruction.Data), field.Key)
		assert.Contains(t, string(instruction.Data), field.Value)
	}

	ata, err := token.GetAssociatedAccountForProgram(env.payerKey(), mintKey, token.Token2022ProgramKey)
	require.NoError(t, err)
	assert.Equal(t, ata, plan.AssociatedAccount)
}

func TestBuildPlan_NoAdditionalFields(t *testing.T) {
	env := setup(t, &testOverrides{})

	desc := catDescriptor()
	desc.AdditionalFields = nil

	plan, _ := env.buildPlan(t, desc, Embedded())
	assert.False(t, plan.Has(StepUpdateField))
	assert.True(t, plan.Has(StepInitMetadata))
	assert.Len(t, plan.Steps, 7)

	result, err := env.orchestrator.CreateNFT(env.ctx, desc, Embedded())
	require.NoError(t, err)
	require.True(t, result.Verification.OK(), "%v", result.Verification.Failures)
	assert.Empty(t, result.Verification.Metadata.AdditionalFields)
	assert.True(t, result.Verification.Matches(desc))
}

func TestBuildPlan_Pointer(t *testing.T) {
	env := setup(t, &testOverrides{})

	plan, mint := env.buildPlan(t, catDescriptor(), Pointer(nil))
	mintKey := mint.Public().(ed25519.PublicKey)

	assert.Equal(t, []Step{
		StepCreateAccount,
		StepInitPointer,
		StepInitMint,
		StepCreateMetadataAccount,
		StepCreateAssociatedAccount,
		StepMintTo,
		StepRevokeMintAuthority,
	}, plan.Steps)

	expected, err := metaplex.GetMetadataAddress(mintKey)
	require.NoError(t, err)
	assert.Equal(t, expected, plan.MetadataAddress)
	assert.Equal(t, metaplex.ProgramKey, plan.Instructions[3].Program)

	assert.Zero(t, plan.MetadataSpace)
	assert.Equal(t, ledgertest.RentExemptBalance(plan.Space), plan.Lamports)
}

func TestBuildPlan_CustomMetadataProgram(t *testing.T) {
	env := setup(t, &testOverrides{})
	program := testutil.GenerateSolanaKeys(t, 1)[0]

	plan, mint := env.buildPlan(t, catDescriptor(), Pointer(program))

	expected, err := metaplex.DeriveMetadataAddress(mint.Public().(ed25519.PublicKey), program, metaplex.MetadataSeed)
	require.NoError(t, err)
	assert.Equal(t, expected, plan.MetadataAddress)
	assert.Equal(t, program, plan.Instructions[3].Program)
}

func TestPlanValidate(t *testing.T) {
	env := setup(t, &testOverrides{})

	for _, tc := range []struct {
		name     string
		strategy Strategy
		mutate   func(p *Plan)
		ordering bool
	}{
		{
			name:     "pointer after mint",
			strategy: Embedded(),
			mutate: func(p *Plan) {
				p.Steps[1], p.Steps[2] = p.Steps[2], p.Steps[1]
				p.Instructions[1], p.Instructions[2] = p.Instructions[2], p.Instructions[1]
			},
			ordering: true,
		},
		{
			name:     "mint to before associated account",
			strategy: Pointer(nil),
			mutate: func(p *Plan) {
				p.Steps[4], p.Steps[5] = p.Steps[5], p.Steps[4]
				p.Instructions[4], p.Instructions[5] = p.Instructions[5], p.Instructions[4]
			},
			ordering: true,
		},
		{
			name:     "missing revoke",
			strategy: Embedded(),
			mutate: func(p *Plan) {
				p.Steps = p.Steps[:len(p.Steps)-1]
				p.Instructions = p.Instructions[:len(p.Instructions)-1]
			},
		},
		{
			name:     "step count mismatch",
			strategy: Embedded(),
			mutate: func(p *Plan) {
				p.Steps = p.Steps[1:]
			},
		},
		{
			name:     "strategy mismatch",
			strategy: Pointer(nil),
			mutate: func(p *Plan) {
				p.Strategy = Embedded()
			},
		},
		{
			name:     "missing mint signer",
			strategy: Embedded(),
			mutate: func(p *Plan) {
				p.Signers = p.Signers[:1]
			},
		},
		{
			name:     "extra signer",
			strategy: Embedded(),
			mutate: func(p *Plan) {
				p.Signers = append(p.Signers, testutil.GenerateSolanaKeys(t, 1)[0])
			},
		},
		{
			name:     "payer not first",
			strategy: Embedded(),
			mutate: func(p *Plan) {
				p.Signers[0], p.Signers[1] = p.Signers[1], p.Signers[0]
			},
		},
		{
			name:     "empty",
			strategy: Embedded(),
			mutate: func(p *Plan) {
				p.Steps = nil
				p.Instructions = nil
			},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			plan, _ := env.buildPlan(t, catDescriptor(), tc.strategy)
			require.NoError(t, plan.Validate())

			tc.mutate(plan)
			err := plan.Validate()
			require.Error(t, err)
			assert.Equal(t, tc.ordering, errors.Is(err, ErrOrderingViolation), "%v", err)
		})
	}
}

func TestStep(t *testing.T) {
	assert.True(t, StepInitMetadata.IsMetadata())
	assert.True(t, StepUpdateField.IsMetadata())
	assert.True(t, StepCreateMetadataAccount.IsMetadata())
	assert.False(t, StepInitMint.IsMetadata())

	assert.Equal(t, "init_pointer", StepInitPointer.String())
	assert.Equal(t, "unknown", Step(100).String())

	plan := &Plan{Steps: []Step{StepCreateAccount}}
	assert.Equal(t, StepCreateAccount, plan.StepAt(0))
	assert.Equal(t, StepUnknown, plan.StepAt(1))
	assert.Equal(t, StepUnknown, plan.StepAt(-1))
}
