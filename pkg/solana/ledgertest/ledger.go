package ledgertest

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/nft-minter/pkg/solana"
	"github.com/code-payments/nft-minter/pkg/solana/system"
)

const (
	// LamportsPerSignature is the fee charged per required signature.
	LamportsPerSignature = 5000

	lamportsPerByteYear = 3480
	exemptionYears      = 2
	accountStorageSize  = 128
)

// RentExemptBalance returns the minimum balance for an account of size bytes
// using the mainnet rent parameters.
func RentExemptBalance(size uint64) uint64 {
	return (accountStorageSize + size) * lamportsPerByteYear * exemptionYears
}

type account struct {
	owner    ed25519.PublicKey
	lamports uint64
	data     []byte
}

func (a *account) clone() *account {
	return &account{
		owner:    append(ed25519.PublicKey{}, a.owner...),
		lamports: a.lamports,
		data:     append([]byte{}, a.data...),
	}
}

// Ledger is an in-memory chain that executes the system, token, associated
// token account, token metadata and Metaplex programs. Transactions apply
// atomically: account changes are only committed when every instruction
// succeeds.
type Ledger struct {
	log *logrus.Entry

	mu          sync.Mutex
	accounts    map[string]*account
	statuses    map[solana.Signature]*solana.SignatureStatus
	blockhashes map[solana.Blockhash]struct{}
	latest      solana.Blockhash
	slot        uint64

	submissions int
	submitErr   error
}

func New() *Ledger {
	l := &Ledger{
		log:         logrus.StandardLogger().WithField("type", "solana/ledgertest"),
		accounts:    make(map[string]*account),
		statuses:    make(map[solana.Signature]*solana.SignatureStatus),
		blockhashes: make(map[solana.Blockhash]struct{}),
	}
	l.advanceBlockhash()
	return l
}

// GetAccountInfo implements nft.Ledger.GetAccountInfo.
func (l *Ledger) GetAccountInfo(address ed25519.PublicKey, _ solana.Commitment) (solana.AccountInfo, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	a, ok := l.accounts[string(address)]
	if !ok {
		return solana.AccountInfo{}, solana.ErrNoAccountInfo
	}

	return solana.AccountInfo{
		Data:     append([]byte{}, a.data...),
		Owner:    append(ed25519.PublicKey{}, a.owner...),
		Lamports: a.lamports,
	}, nil
}

// GetBalance implements nft.Ledger.GetBalance.
func (l *Ledger) GetBalance(address ed25519.PublicKey) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	a, ok := l.accounts[string(address)]
	if !ok {
		return 0, solana.ErrNoBalance
	}
	return a.lamports, nil
}

// GetMinimumBalanceForRentExemption implements nft.Ledger.GetMinimumBalanceForRentExemption.
func (l *Ledger) GetMinimumBalanceForRentExemption(size uint64) (uint64, error) {
	return RentExemptBalance(size), nil
}

// GetLatestBlockhash implements nft.Ledger.GetLatestBlockhash.
func (l *Ledger) GetLatestBlockhash() (solana.Blockhash, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.latest, nil
}

// GetSignatureStatus returns the status of a processed transaction.
// Transactions are finalized as soon as they are processed.
func (l *Ledger) GetSignatureStatus(sig solana.Signature, _ solana.Commitment) (*solana.SignatureStatus, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	status, ok := l.statuses[sig]
	if !ok {
		return nil, solana.ErrSignatureNotFound
	}

	cloned := *status
	return &cloned, nil
}

// GetSignatureStatuses implements nft.Ledger.GetSignatureStatuses. Unknown
// signatures have a nil status, as with the RPC.
func (l *Ledger) GetSignatureStatuses(sigs []solana.Signature) ([]*solana.SignatureStatus, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	statuses := make([]*solana.SignatureStatus, len(sigs))
	for i, sig := range sigs {
		if status, ok := l.statuses[sig]; ok {
			cloned := *status
			statuses[i] = &cloned
		}
	}
	return statuses, nil
}

// RequestAirdrop credits lamports to a system account, creating it if needed.
func (l *Ledger) RequestAirdrop(address ed25519.PublicKey, lamports uint64, _ solana.Commitment) (solana.Signature, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	a, ok := l.accounts[string(address)]
	if !ok {
		a = &account{owner: append(ed25519.PublicKey{}, system.ProgramKey[:]...)}
		l.accounts[string(address)] = a
	}
	a.lamports += lamports

	var sig solana.Signature
	if _, err := rand.Read(sig[:]); err != nil {
		return solana.Signature{}, err
	}
	l.statuses[sig] = l.newStatus(nil)
	l.slot++
	return sig, nil
}

// SetAccount writes raw account state, for tests that need a prepared ledger.
func (l *Ledger) SetAccount(address, owner ed25519.PublicKey, lamports uint64, data []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.accounts[string(address)] = &account{
		owner:    append(ed25519.PublicKey{}, owner...),
		lamports: lamports,
		data:     append([]byte{}, data...),
	}
}

// FailSubmissions makes subsequent submissions fail with err before reaching
// the ledger, as a transport failure would. A nil err restores normal
// behaviour.
func (l *Ledger) FailSubmissions(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.submitErr = err
}

// Submissions returns the number of transactions that reached the ledger,
// whether or not they succeeded.
func (l *Ledger) Submissions() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.submissions
}

// SubmitTransaction implements nft.Ledger.SubmitTransaction. Failures are
// reported as a *solana.TransactionError, as with preflight on a real
// cluster, and leave the ledger unchanged.
func (l *Ledger) SubmitTransaction(tx solana.Transaction, _ solana.Commitment) (solana.Signature, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var sig solana.Signature
	if len(tx.Signatures) > 0 {
		sig = tx.Signatures[0]
	}

	if l.submitErr != nil {
		return sig, l.submitErr
	}
	l.submissions++

	log := l.log.WithFields(logrus.Fields{
		"method":    "SubmitTransaction",
		"signature": sig.String(),
	})

	if err := l.checkTransaction(tx); err != nil {
		log.WithError(err).Debug("transaction rejected")
		return sig, err
	}

	e := newExecutor(l, tx.Message)
	payer := e.get(tx.Message.Accounts[0])
	fee := uint64(LamportsPerSignature * len(tx.Signatures))
	if payer == nil {
		return sig, solana.NewTransactionError(solana.TransactionErrorAccountNotFound)
	}
	if payer.lamports < fee {
		return sig, solana.NewTransactionError(solana.TransactionErrorInsufficientFundsForFee)
	}
	payer.lamports -= fee

	for i := range tx.Message.Instructions {
		if err := e.process(i); err != nil {
			txErr := solana.TransactionErrorFromInstructionError(err)
			log.WithError(txErr).Debug("instruction failed")
			return sig, txErr
		}
	}

	if err := e.checkRent(); err != nil {
		log.WithError(err).Debug("rent check failed")
		return sig, err
	}

	e.commit()
	l.statuses[sig] = l.newStatus(nil)
	l.slot++
	l.advanceBlockhash()

	return sig, nil
}

func (l *Ledger) checkTransaction(tx solana.Transaction) error {
	if len(tx.Signatures) == 0 || len(tx.Message.Accounts) == 0 {
		return solana.NewTransactionError(solana.TransactionErrorSanitizeFailure)
	}
	if _, ok := l.blockhashes[tx.Message.RecentBlockhash]; !ok {
		return solana.NewTransactionError(solana.TransactionErrorBlockhashNotFound)
	}
	if _, ok := l.statuses[tx.Signatures[0]]; ok {
		return solana.NewTransactionError(solana.TransactionErrorDuplicateSignature)
	}
	if err := tx.VerifySignatures(); err != nil {
		if errors.Is(err, solana.ErrMissingSigners) {
			return solana.NewTransactionError(solana.TransactionErrorMissingSignatureForFee)
		}
		return solana.NewTransactionError(solana.TransactionErrorSignatureFailure)
	}
	for _, instruction := range tx.Message.Instructions {
		if int(instruction.ProgramIndex) >= len(tx.Message.Accounts) {
			return solana.NewTransactionError(solana.TransactionErrorInvalidAccountIndex)
		}
		for _, index := range instruction.Accounts {
			if int(index) >= len(tx.Message.Accounts) {
				return solana.NewTransactionError(solana.TransactionErrorInvalidAccountIndex)
			}
		}
	}
	return nil
}

func (l *Ledger) newStatus(txErr *solana.TransactionError) *solana.SignatureStatus {
	return &solana.SignatureStatus{
		Slot:               l.slot,
		ErrorResult:        txErr,
		ConfirmationStatus: solana.CommitmentFinalized.Commitment,
	}
}

func (l *Ledger) advanceBlockhash() {
	h := sha256.Sum256(append(l.latest[:], byte(l.slot)))
	l.latest = h
	l.blockhashes[l.latest] = struct{}{}
}
