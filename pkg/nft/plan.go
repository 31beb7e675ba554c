package nft

import (
	"bytes"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/code-payments/nft-minter/pkg/solana"
)

// Step names the role of an instruction in a Plan.
type Step uint8

const (
	StepUnknown Step = iota
	StepCreateAccount
	StepInitPointer
	StepInitMint
	StepInitMetadata
	StepUpdateField
	StepCreateMetadataAccount
	StepCreateAssociatedAccount
	StepMintTo
	StepRevokeMintAuthority
)

func (s Step) String() string {
	switch s {
	case StepCreateAccount:
		return "create_account"
	case StepInitPointer:
		return "init_pointer"
	case StepInitMint:
		return "init_mint"
	case StepInitMetadata:
		return "init_metadata"
	case StepUpdateField:
		return "update_field"
	case StepCreateMetadataAccount:
		return "create_metadata_account"
	case StepCreateAssociatedAccount:
		return "create_associated_account"
	case StepMintTo:
		return "mint_to"
	case StepRevokeMintAuthority:
		return "revoke_mint_authority"
	}
	return "unknown"
}

// IsMetadata reports whether the step writes the metadata record.
func (s Step) IsMetadata() bool {
	switch s {
	case StepInitMetadata, StepUpdateField, StepCreateMetadataAccount:
		return true
	}
	return false
}

// rank orders steps within a plan. Steps with equal rank belong to different
// strategies, except update_field and create_metadata_account which may
// repeat.
func (s Step) rank() int {
	switch s {
	case StepCreateAccount:
		return 0
	case StepInitPointer:
		return 1
	case StepInitMint:
		return 2
	case StepInitMetadata, StepCreateMetadataAccount:
		return 3
	case StepUpdateField:
		return 4
	case StepCreateAssociatedAccount:
		return 5
	case StepMintTo:
		return 6
	case StepRevokeMintAuthority:
		return 7
	}
	return -1
}

func (s Step) repeatable() bool {
	return s == StepUpdateField || s == StepCreateMetadataAccount
}

// Plan is the ordered set of instructions that mints a token in a single
// atomic transaction.
type Plan struct {
	Strategy Strategy

	Payer             ed25519.PublicKey
	Holder            ed25519.PublicKey
	Mint              ed25519.PublicKey
	MetadataAddress   ed25519.PublicKey
	AssociatedAccount ed25519.PublicKey

	// Space is the size the mint account is allocated with.
	Space uint64
	// MetadataSpace is the size the token metadata interface grows the mint
	// by once every field is written. Zero for the pointer strategy.
	MetadataSpace uint64
	// Lamports funds the mint account for Space + MetadataSpace.
	Lamports uint64

	Instructions []solana.Instruction
	Steps        []Step
	Signers      []ed25519.PublicKey
}

func (p *Plan) add(step Step, instruction solana.Instruction) {
	p.Steps = append(p.Steps, step)
	p.Instructions = append(p.Instructions, instruction)
}

// StepAt returns the step of the instruction at index.
func (p *Plan) StepAt(index int) Step {
	if index < 0 || index >= len(p.Steps) {
		return StepUnknown
	}
	return p.Steps[index]
}

// Has reports whether the plan contains the step.
func (p *Plan) Has(step Step) bool {
	for _, s := range p.Steps {
		if s == step {
			return true
		}
	}
	return false
}

// Validate checks that the steps are in dependency order and that Signers is
// exactly the set of keys the instructions require.
func (p *Plan) Validate() error {
	if len(p.Instructions) == 0 {
		return errors.New("plan has no instructions")
	}
	if len(p.Instructions) != len(p.Steps) {
		return errors.Errorf("plan has %d instructions but %d steps", len(p.Instructions), len(p.Steps))
	}

	seen := make(map[Step]int)
	last := -1
	for i, step := range p.Steps {
		rank := step.rank()
		if rank < 0 {
			return errors.Errorf("unknown step at %d", i)
		}
		if rank < last {
			return errors.Wrapf(ErrOrderingViolation, "%s at %d follows %s", step, i, p.Steps[i-1])
		}
		if seen[step] > 0 && !step.repeatable() {
			return errors.Errorf("duplicate %s step at %d", step, i)
		}
		seen[step]++
		last = rank
	}

	for _, required := range []Step{
		StepCreateAccount,
		StepInitPointer,
		StepInitMint,
		StepCreateAssociatedAccount,
		StepMintTo,
		StepRevokeMintAuthority,
	} {
		if seen[required] == 0 {
			return errors.Errorf("plan is missing %s step", required)
		}
	}

	switch p.Strategy.Kind() {
	case StrategyEmbedded:
		if seen[StepInitMetadata] != 1 || seen[StepCreateMetadataAccount] != 0 {
			return errors.New("embedded plan must initialize metadata in the mint")
		}
	case StrategyPointer:
		if seen[StepCreateMetadataAccount] == 0 || seen[StepInitMetadata] != 0 || seen[StepUpdateField] != 0 {
			return errors.New("pointer plan must create a metadata account")
		}
	}

	return p.validateSigners()
}

func (p *Plan) validateSigners() error {
	required := map[string]struct{}{
		string(p.Payer): {},
	}
	for _, instruction := range p.Instructions {
		for _, signer := range instruction.Signers() {
			required[string(signer)] = struct{}{}
		}
	}

	provided := make(map[string]struct{})
	for _, signer := range p.Signers {
		provided[string(signer)] = struct{}{}
	}

	for signer := range required {
		if _, ok := provided[signer]; !ok {
			return errors.Errorf("plan is missing signer %s", base58.Encode([]byte(signer)))
		}
	}
	for signer := range provided {
		if _, ok := required[signer]; !ok {
			return errors.Errorf("plan signer %s is not required", base58.Encode([]byte(signer)))
		}
	}
	if len(p.Signers) == 0 || !bytes.Equal(p.Signers[0], p.Payer) {
		return errors.New("payer must be the first signer")
	}

	return nil
}
