package ledgertest

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/nft-minter/pkg/solana"
	"github.com/code-payments/nft-minter/pkg/solana/metaplex"
	"github.com/code-payments/nft-minter/pkg/solana/system"
	"github.com/code-payments/nft-minter/pkg/solana/token"
	"github.com/code-payments/nft-minter/pkg/solana/tokenmetadata"
	"github.com/code-payments/nft-minter/pkg/testutil"
)

const airdropAmount = 10_000_000_000

type env struct {
	ledger *Ledger
	payer  ed25519.PrivateKey
	mint   ed25519.PrivateKey
}

func setup(t *testing.T) env {
	e := env{
		ledger: New(),
		payer:  testutil.GenerateSolanaKeypair(t),
		mint:   testutil.GenerateSolanaKeypair(t),
	}

	_, err := e.ledger.RequestAirdrop(e.payerKey(), airdropAmount, solana.CommitmentFinalized)
	require.NoError(t, err)
	return e
}

func (e env) payerKey() ed25519.PublicKey {
	return e.payer.Public().(ed25519.PublicKey)
}

func (e env) mintKey() ed25519.PublicKey {
	return e.mint.Public().(ed25519.PublicKey)
}

func (e env) submit(t *testing.T, instructions ...solana.Instruction) (solana.Signature, error) {
	tx := solana.NewTransaction(e.payerKey(), instructions...)

	bh, err := e.ledger.GetLatestBlockhash()
	require.NoError(t, err)
	tx.SetBlockhash(bh)

	signers := []ed25519.PrivateKey{e.payer}
	for _, signer := range tx.RequiredSigners() {
		if signer.Equal(e.mintKey()) {
			signers = append(signers, e.mint)
		}
	}
	for _, signer := range signers {
		require.NoError(t, tx.Sign(signer))
	}

	return e.ledger.SubmitTransaction(tx, solana.CommitmentFinalized)
}

func (e env) createMintInstructions(t *testing.T, lamports uint64, pointerAuthority, metadataAddress ed25519.PublicKey) []solana.Instruction {
	space, err := token.GetMintLen(token.ExtensionMetadataPointer)
	require.NoError(t, err)

	return []solana.Instruction{
		system.CreateAccount(e.payerKey(), e.mintKey(), token.Token2022ProgramKey, lamports, uint64(space)),
		token.InitializeMetadataPointer(e.mintKey(), pointerAuthority, metadataAddress),
		token.InitializeMint(token.Token2022ProgramKey, e.mintKey(), e.payerKey(), e.payerKey(), 0),
	}
}

func requireInstructionError(t *testing.T, err error, index int) *solana.InstructionError {
	txErr, ok := solana.AsTransactionError(err)
	require.True(t, ok, "expected transaction error, got %v", err)
	require.Equal(t, solana.TransactionErrorInstructionError, txErr.ErrorKey())
	require.NotNil(t, txErr.InstructionError())
	require.Equal(t, index, txErr.InstructionError().Index)
	return txErr.InstructionError()
}

func requireCustomError(t *testing.T, err error, index int, code solana.CustomError) {
	ie := requireInstructionError(t, err, index)
	require.NotNil(t, ie.CustomError())
	assert.Equal(t, code, *ie.CustomError())
}

func TestRentExemptBalance(t *testing.T) {
	l := New()

	lamports, err := l.GetMinimumBalanceForRentExemption(0)
	require.NoError(t, err)
	assert.EqualValues(t, 890880, lamports)

	lamports, err = l.GetMinimumBalanceForRentExemption(token.AccountSize)
	require.NoError(t, err)
	assert.EqualValues(t, 2039280, lamports)
}

func TestAirdrop(t *testing.T) {
	e := setup(t)

	balance, err := e.ledger.GetBalance(e.payerKey())
	require.NoError(t, err)
	assert.EqualValues(t, airdropAmount, balance)

	_, err = e.ledger.GetBalance(e.mintKey())
	assert.Equal(t, solana.ErrNoBalance, err)

	_, err = e.ledger.GetAccountInfo(e.mintKey(), solana.CommitmentFinalized)
	assert.Equal(t, solana.ErrNoAccountInfo, err)
}

func TestEmbeddedMetadataFlow(t *testing.T) {
	e := setup(t)
	payer, mint := e.payerKey(), e.mintKey()

	ata, err := token.GetAssociatedAccountForProgram(payer, mint, token.Token2022ProgramKey)
	require.NoError(t, err)

	initMetadata, err := tokenmetadata.Initialize(token.Token2022ProgramKey, mint, payer, mint, payer, "Cat NFT", "EMB", "https://example.com/cat.json")
	require.NoError(t, err)
	updateField, err := tokenmetadata.UpdateField(token.Token2022ProgramKey, mint, payer, tokenmetadata.KeyField("description"), "Only Possible On Solana")
	require.NoError(t, err)
	createATA, _, err := token.CreateAssociatedTokenAccount(payer, payer, mint, token.Token2022ProgramKey)
	require.NoError(t, err)

	instructions := e.createMintInstructions(t, 10_000_000, payer, mint)
	instructions = append(instructions,
		initMetadata,
		updateField,
		createATA,
		token.MintToChecked(token.Token2022ProgramKey, mint, ata, payer, 1, 0),
		token.SetAuthority(token.Token2022ProgramKey, mint, payer, nil, token.AuthorityTypeMintTokens),
	)

	sig, err := e.submit(t, instructions...)
	require.NoError(t, err)
	assert.Equal(t, 1, e.ledger.Submissions())

	status, err := e.ledger.GetSignatureStatus(sig, solana.CommitmentFinalized)
	require.NoError(t, err)
	assert.Nil(t, status.ErrorResult)
	assert.True(t, status.Finalized())

	statuses, err := e.ledger.GetSignatureStatuses([]solana.Signature{sig, {1}})
	require.NoError(t, err)
	require.Len(t, statuses, 2)
	assert.Equal(t, status, statuses[0])
	assert.Nil(t, statuses[1])

	mintState, err := token.NewClient(e.ledger, mint, token.Token2022ProgramKey).GetMint(solana.CommitmentFinalized)
	require.NoError(t, err)
	assert.EqualValues(t, 1, mintState.Supply)
	assert.EqualValues(t, 0, mintState.Decimals)
	assert.Nil(t, mintState.MintAuthority)
	assert.EqualValues(t, payer, mintState.FreezeAuthority)

	pointer, err := mintState.MetadataPointer()
	require.NoError(t, err)
	assert.EqualValues(t, mint, pointer.MetadataAddress)
	assert.EqualValues(t, payer, pointer.Authority)

	md, err := tokenmetadata.FromMint(mintState)
	require.NoError(t, err)
	assert.Equal(t, "Cat NFT", md.Name)
	assert.Equal(t, "EMB", md.Symbol)
	assert.Equal(t, "https://example.com/cat.json", md.URI)
	assert.Equal(t, []tokenmetadata.Field{{Key: "description", Value: "Only Possible On Solana"}}, md.AdditionalMetadata)

	tokenAccount, err := token.NewClient(e.ledger, mint, token.Token2022ProgramKey).GetAccount(ata, solana.CommitmentFinalized)
	require.NoError(t, err)
	assert.EqualValues(t, 1, tokenAccount.Amount)
	assert.EqualValues(t, payer, tokenAccount.Owner)
	require.Len(t, tokenAccount.Extensions, 1)
	assert.Equal(t, token.ExtensionImmutableOwner, tokenAccount.Extensions[0].Type)

	// The supply is fixed once the mint authority is revoked.
	_, err = e.submit(t, token.MintToChecked(token.Token2022ProgramKey, mint, ata, payer, 1, 0))
	requireCustomError(t, err, 0, token.ErrorFixedSupply)

	_, err = e.submit(t, token.SetAuthority(token.Token2022ProgramKey, mint, payer, payer, token.AuthorityTypeMintTokens))
	requireCustomError(t, err, 0, token.ErrorFixedSupply)
}

func TestPointerMetadataFlow(t *testing.T) {
	e := setup(t)
	payer, mint := e.payerKey(), e.mintKey()

	metadataAddress, err := metaplex.GetMetadataAddress(mint)
	require.NoError(t, err)

	createMetadata, err := metaplex.NewCreateV1Instruction(
		&metaplex.CreateV1InstructionAccounts{
			Metadata:        metadataAddress,
			Mint:            mint,
			Authority:       payer,
			Payer:           payer,
			UpdateAuthority: payer,
		},
		&metaplex.CreateV1InstructionArgs{
			AssetData: metaplex.NewAssetData("Cat NFT", "MMA", "https://example.com/cat.json"),
		},
	)
	require.NoError(t, err)

	space, err := token.GetMintLen(token.ExtensionMetadataPointer)
	require.NoError(t, err)
	instructions := e.createMintInstructions(t, RentExemptBalance(uint64(space)), nil, metadataAddress)
	instructions = append(instructions, createMetadata)

	_, err = e.submit(t, instructions...)
	require.NoError(t, err)

	info, err := e.ledger.GetAccountInfo(metadataAddress, solana.CommitmentFinalized)
	require.NoError(t, err)
	assert.EqualValues(t, metaplex.ProgramKey, info.Owner)

	var md metaplex.MetadataAccount
	require.NoError(t, md.Unmarshal(info.Data))
	assert.Equal(t, "Cat NFT", md.Name)
	assert.Equal(t, "MMA", md.Symbol)
	assert.EqualValues(t, mint, md.Mint)
}

func TestOrderingViolation(t *testing.T) {
	e := setup(t)
	payer, mint := e.payerKey(), e.mintKey()

	instructions := e.createMintInstructions(t, 10_000_000, payer, mint)
	instructions[1], instructions[2] = instructions[2], instructions[1]

	_, err := e.submit(t, instructions...)
	requireCustomError(t, err, 2, token.ErrorAlreadyInUse)

	// Nothing from the failed transaction is applied.
	_, err = e.ledger.GetAccountInfo(mint, solana.CommitmentFinalized)
	assert.Equal(t, solana.ErrNoAccountInfo, err)

	balance, err := e.ledger.GetBalance(payer)
	require.NoError(t, err)
	assert.EqualValues(t, airdropAmount, balance)
}

func TestMetaplexRequiresInitializedMint(t *testing.T) {
	e := setup(t)
	payer, mint := e.payerKey(), e.mintKey()

	metadataAddress, err := metaplex.GetMetadataAddress(mint)
	require.NoError(t, err)

	createMetadata, err := metaplex.NewCreateV1Instruction(
		&metaplex.CreateV1InstructionAccounts{
			Metadata:        metadataAddress,
			Mint:            mint,
			Authority:       payer,
			Payer:           payer,
			UpdateAuthority: payer,
		},
		&metaplex.CreateV1InstructionArgs{
			AssetData: metaplex.NewAssetData("Cat NFT", "MMA", "uri"),
		},
	)
	require.NoError(t, err)

	instructions := e.createMintInstructions(t, 10_000_000, nil, metadataAddress)
	instructions = []solana.Instruction{instructions[0], instructions[1], createMetadata, instructions[2]}

	_, err = e.submit(t, instructions...)
	ie := requireInstructionError(t, err, 2)
	assert.Equal(t, solana.InstructionErrorUninitializedAccount, ie.ErrorKey())
}

func TestInsufficientRentForMetadata(t *testing.T) {
	e := setup(t)
	payer, mint := e.payerKey(), e.mintKey()

	initMetadata, err := tokenmetadata.Initialize(token.Token2022ProgramKey, mint, payer, mint, payer, "Cat NFT", "EMB", "uri")
	require.NoError(t, err)

	// Funded for the pointer extension only, so the metadata realloc leaves
	// the mint below the rent exempt minimum.
	space, err := token.GetMintLen(token.ExtensionMetadataPointer)
	require.NoError(t, err)
	instructions := e.createMintInstructions(t, RentExemptBalance(uint64(space)), payer, mint)
	instructions = append(instructions, initMetadata)

	_, err = e.submit(t, instructions...)
	txErr, ok := solana.AsTransactionError(err)
	require.True(t, ok)
	assert.Equal(t, solana.TransactionErrorInsufficientFundsForRent, txErr.ErrorKey())

	accounts := solana.NewTransaction(payer, instructions...).Message.Accounts
	index, ok := txErr.AccountIndex()
	require.True(t, ok)
	assert.Equal(t, mint, accounts[index])
}

func TestInsufficientRentForPayer(t *testing.T) {
	e := setup(t)
	payer := e.payerKey()
	recipient := testutil.GenerateSolanaKeys(t, 1)[0]

	// Leaves the payer with less than a data-less account's minimum.
	transfer := system.Transfer(payer, recipient, airdropAmount-LamportsPerSignature-1000)
	_, err := e.submit(t, transfer)
	txErr, ok := solana.AsTransactionError(err)
	require.True(t, ok)
	assert.Equal(t, solana.TransactionErrorInsufficientFundsForRent, txErr.ErrorKey())

	index, ok := txErr.AccountIndex()
	require.True(t, ok)
	assert.Equal(t, 0, index)

	balance, err := e.ledger.GetBalance(payer)
	require.NoError(t, err)
	assert.EqualValues(t, airdropAmount, balance)

	// Emptying the payer entirely is allowed.
	_, err = e.submit(t, system.Transfer(payer, recipient, airdropAmount-LamportsPerSignature))
	require.NoError(t, err)

	balance, err = e.ledger.GetBalance(payer)
	require.NoError(t, err)
	assert.Zero(t, balance)
}

func TestInsufficientFunds(t *testing.T) {
	e := setup(t)
	payer, mint := e.payerKey(), e.mintKey()

	_, err := e.submit(t, e.createMintInstructions(t, airdropAmount, payer, mint)...)
	requireCustomError(t, err, 0, system.ErrorResultWithNegativeLamports)

	poor := setup(t)
	poor.ledger.SetAccount(poor.payerKey(), system.ProgramKey[:], 1, nil)
	_, err = poor.submit(t, system.Transfer(poor.payerKey(), poor.mintKey(), 1))
	txErr, ok := solana.AsTransactionError(err)
	require.True(t, ok)
	assert.Equal(t, solana.TransactionErrorInsufficientFundsForFee, txErr.ErrorKey())
}

func TestSignatureChecks(t *testing.T) {
	e := setup(t)
	payer, mint := e.payerKey(), e.mintKey()

	tx := solana.NewTransaction(payer, e.createMintInstructions(t, 10_000_000, payer, mint)...)
	bh, err := e.ledger.GetLatestBlockhash()
	require.NoError(t, err)
	tx.SetBlockhash(bh)
	require.NoError(t, tx.Sign(e.payer))

	_, err = e.ledger.SubmitTransaction(tx, solana.CommitmentFinalized)
	txErr, ok := solana.AsTransactionError(err)
	require.True(t, ok)
	assert.Equal(t, solana.TransactionErrorMissingSignatureForFee, txErr.ErrorKey())

	require.NoError(t, tx.Sign(e.mint))
	tx.Signatures[1][0] ^= 0xff
	_, err = e.ledger.SubmitTransaction(tx, solana.CommitmentFinalized)
	txErr, ok = solana.AsTransactionError(err)
	require.True(t, ok)
	assert.Equal(t, solana.TransactionErrorSignatureFailure, txErr.ErrorKey())

	tx.SetBlockhash(solana.Blockhash{1})
	require.NoError(t, tx.Sign(e.payer, e.mint))
	_, err = e.ledger.SubmitTransaction(tx, solana.CommitmentFinalized)
	txErr, ok = solana.AsTransactionError(err)
	require.True(t, ok)
	assert.Equal(t, solana.TransactionErrorBlockhashNotFound, txErr.ErrorKey())
}

func TestFailSubmissions(t *testing.T) {
	e := setup(t)

	injected := assert.AnError
	e.ledger.FailSubmissions(injected)
	_, err := e.submit(t, system.Transfer(e.payerKey(), e.mintKey(), 1))
	assert.Equal(t, injected, err)
	assert.Equal(t, 0, e.ledger.Submissions())

	e.ledger.FailSubmissions(nil)
	_, err = e.submit(t, system.Transfer(e.payerKey(), e.mintKey(), 1))
	require.NoError(t, err)
	assert.Equal(t, 1, e.ledger.Submissions())
}
