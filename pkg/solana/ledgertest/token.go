package ledgertest

import (
	"bytes"
	"crypto/ed25519"
	"math"

	"github.com/code-payments/nft-minter/pkg/solana"
	"github.com/code-payments/nft-minter/pkg/solana/token"
	"github.com/code-payments/nft-minter/pkg/solana/tokenmetadata"
)

const (
	mintInitializedOffset = 45
	accountTypeOffset     = token.AccountSize
	extensionsOffset      = token.AccountSize + 1
)

func (e *executor) processToken(index int) *solana.InstructionError {
	if tokenmetadata.IsInitialize(e.m, index) || tokenmetadata.IsUpdateField(e.m, index) {
		return e.processTokenMetadata(index)
	}

	command, err := token.GetCommand(e.m, index)
	if err != nil {
		return solana.NewInstructionError(index, solana.InstructionErrorInvalidInstructionData)
	}

	switch command {
	case token.CommandInitializeMint:
		return e.processInitializeMint(index)
	case token.CommandMetadataPointerExtension:
		return e.processInitializeMetadataPointer(index)
	case token.CommandMintToChecked:
		return e.processMintToChecked(index)
	case token.CommandSetAuthority:
		return e.processSetAuthority(index)
	}

	return solana.NewCustomInstructionError(index, int(token.ErrorInvalidInstruction))
}

// uninitializedMint returns the raw mint account owned by program, failing
// with AlreadyInUse if the base mint has already been initialized.
func (e *executor) uninitializedMint(index int, address, program ed25519.PublicKey) (*account, *solana.InstructionError) {
	a := e.get(address)
	if a == nil {
		return nil, solana.NewInstructionError(index, solana.InstructionErrorUninitializedAccount)
	}
	if !bytes.Equal(a.owner, program) {
		return nil, solana.NewInstructionError(index, solana.InstructionErrorIncorrectProgramID)
	}
	if len(a.data) < token.MintSize || (len(a.data) > token.MintSize && len(a.data) < extensionsOffset) {
		return nil, solana.NewInstructionError(index, solana.InstructionErrorInvalidAccountData)
	}
	if a.data[mintInitializedOffset] == 1 {
		return nil, solana.NewCustomInstructionError(index, int(token.ErrorAlreadyInUse))
	}
	return a, nil
}

// initializedMint decodes an initialized mint owned by program.
func (e *executor) initializedMint(index int, address, program ed25519.PublicKey) (*account, *token.Mint, *solana.InstructionError) {
	a := e.get(address)
	if a == nil {
		return nil, nil, solana.NewInstructionError(index, solana.InstructionErrorUninitializedAccount)
	}
	if !bytes.Equal(a.owner, program) {
		return nil, nil, solana.NewInstructionError(index, solana.InstructionErrorIncorrectProgramID)
	}

	var mint token.Mint
	if err := mint.Unmarshal(a.data); err != nil || !mint.IsInitialized {
		return nil, nil, solana.NewCustomInstructionError(index, int(token.ErrorUninitializedState))
	}
	return a, &mint, nil
}

func (e *executor) processInitializeMint(index int) *solana.InstructionError {
	init, err := token.DecompileInitializeMint(e.m, index)
	if err != nil {
		return solana.NewCustomInstructionError(index, int(token.ErrorInvalidInstruction))
	}

	a, ierr := e.uninitializedMint(index, init.Mint, init.Program)
	if ierr != nil {
		return ierr
	}
	if a.lamports < RentExemptBalance(uint64(len(a.data))) {
		return solana.NewCustomInstructionError(index, int(token.ErrorNotRentExempt))
	}

	base := token.Mint{
		MintAuthority:   init.MintAuthority,
		Decimals:        init.Decimals,
		IsInitialized:   true,
		FreezeAuthority: init.FreezeAuthority,
	}
	copy(a.data, base.Marshal())
	if len(a.data) > token.MintSize {
		a.data[accountTypeOffset] = byte(token.AccountTypeMint)
	}
	return nil
}

func (e *executor) processInitializeMetadataPointer(index int) *solana.InstructionError {
	init, err := token.DecompileInitializeMetadataPointer(e.m, index)
	if err != nil {
		return solana.NewCustomInstructionError(index, int(token.ErrorInvalidInstruction))
	}

	a, ierr := e.uninitializedMint(index, init.Mint, token.Token2022ProgramKey)
	if ierr != nil {
		return ierr
	}

	value := token.MetadataPointer{Authority: init.Authority, MetadataAddress: init.MetadataAddress}.Marshal()
	if len(a.data) < extensionsOffset+token.ExtensionTypeSize+token.ExtensionLengthSize+len(value) {
		return solana.NewInstructionError(index, solana.InstructionErrorInvalidAccountData)
	}

	existing, decodeErr := token.DecodeTLV(a.data[extensionsOffset:])
	if decodeErr != nil {
		return solana.NewInstructionError(index, solana.InstructionErrorInvalidAccountData)
	}
	for _, extension := range existing {
		if extension.Type == token.ExtensionMetadataPointer {
			return solana.NewInstructionError(index, solana.InstructionErrorInvalidAccountData)
		}
	}

	a.data[accountTypeOffset] = byte(token.AccountTypeMint)
	encoded := token.EncodeTLV(nil, token.ExtensionMetadataPointer, value)
	copy(a.data[extensionsOffset:], encoded)
	return nil
}

func (e *executor) processMintToChecked(index int) *solana.InstructionError {
	mintTo, err := token.DecompileMintToChecked(e.m, index)
	if err != nil {
		return solana.NewCustomInstructionError(index, int(token.ErrorInvalidInstruction))
	}
	program := e.m.Accounts[e.m.Instructions[index].ProgramIndex]

	mintAccount, mint, ierr := e.initializedMint(index, mintTo.Mint, program)
	if ierr != nil {
		return ierr
	}

	if mint.MintAuthority == nil {
		return solana.NewCustomInstructionError(index, int(token.ErrorFixedSupply))
	}
	if !bytes.Equal(mint.MintAuthority, mintTo.Authority) {
		return solana.NewCustomInstructionError(index, int(token.ErrorOwnerMismatch))
	}
	if !e.isSigner(mintTo.Authority) {
		return solana.NewInstructionError(index, solana.InstructionErrorMissingRequiredSignature)
	}
	if mint.Decimals != mintTo.Decimals {
		return solana.NewCustomInstructionError(index, int(token.ErrorMintDecimalsMismatch))
	}

	destination := e.get(mintTo.Destination)
	if destination == nil || !bytes.Equal(destination.owner, program) {
		return solana.NewCustomInstructionError(index, int(token.ErrorUninitializedState))
	}
	var tokenAccount token.Account
	if !tokenAccount.Unmarshal(destination.data) || tokenAccount.State == token.AccountStateUninitialized {
		return solana.NewCustomInstructionError(index, int(token.ErrorUninitializedState))
	}
	if !bytes.Equal(tokenAccount.Mint, mintTo.Mint) {
		return solana.NewCustomInstructionError(index, int(token.ErrorMintMismatch))
	}

	if mint.Supply > math.MaxUint64-mintTo.Amount || tokenAccount.Amount > math.MaxUint64-mintTo.Amount {
		return solana.NewCustomInstructionError(index, int(token.ErrorOverflow))
	}
	mint.Supply += mintTo.Amount
	tokenAccount.Amount += mintTo.Amount

	mintAccount.data = resizeMint(mintAccount.data, mint)
	destination.data = tokenAccount.Marshal()
	return nil
}

func (e *executor) processSetAuthority(index int) *solana.InstructionError {
	set, err := token.DecompileSetAuthority(e.m, index)
	if err != nil {
		return solana.NewCustomInstructionError(index, int(token.ErrorInvalidInstruction))
	}
	program := e.m.Accounts[e.m.Instructions[index].ProgramIndex]

	mintAccount, mint, ierr := e.initializedMint(index, set.Account, program)
	if ierr != nil {
		return ierr
	}

	var current *ed25519.PublicKey
	switch set.Type {
	case token.AuthorityTypeMintTokens:
		current = &mint.MintAuthority
		if *current == nil {
			return solana.NewCustomInstructionError(index, int(token.ErrorFixedSupply))
		}
	case token.AuthorityTypeFreezeAccount:
		current = &mint.FreezeAuthority
		if *current == nil {
			return solana.NewCustomInstructionError(index, int(token.ErrorMintCannotFreeze))
		}
	default:
		return solana.NewCustomInstructionError(index, int(token.ErrorAuthorityTypeNotSupported))
	}

	if !bytes.Equal(*current, set.CurrentAuthority) {
		return solana.NewCustomInstructionError(index, int(token.ErrorOwnerMismatch))
	}
	if !e.isSigner(set.CurrentAuthority) {
		return solana.NewInstructionError(index, solana.InstructionErrorMissingRequiredSignature)
	}

	if len(set.NewAuthority) == 0 {
		*current = nil
	} else {
		*current = append(ed25519.PublicKey{}, set.NewAuthority...)
	}

	mintAccount.data = resizeMint(mintAccount.data, mint)
	return nil
}

// resizeMint re-encodes mint state into an account, keeping the allocated
// size for base mints and mints whose extensions don't fill the account.
func resizeMint(data []byte, mint *token.Mint) []byte {
	encoded := mint.Marshal()
	if len(encoded) >= len(data) {
		return encoded
	}

	resized := make([]byte, len(data))
	copy(resized, encoded)
	if len(resized) > token.MintSize {
		resized[accountTypeOffset] = byte(token.AccountTypeMint)
	}
	return resized
}
