package solana

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"math/rand"
	"sync"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/ybbus/jsonrpc"

	"github.com/code-payments/nft-minter/pkg/retry"
	"github.com/code-payments/nft-minter/pkg/retry/backoff"
)

const (
	// Slot timing from the genesis config. It could be read from the clock
	// sysvar, but it has not changed since launch.
	ticksPerSecond = 160
	ticksPerSlot   = 64

	// PollRate polls at roughly twice the slot rate.
	PollRate = time.Second * ticksPerSlot / ticksPerSecond / 2

	// sigStatusPollLimit waits about 32 slots at PollRate.
	sigStatusPollLimit = 64

	// Reference: https://github.com/solana-labs/solana/blob/71e9958e061493d7545bd28d4ac7a85aaed6ffbb/client/src/rpc_custom_error.rs#L11
	rpcNodeUnhealthyCode = -32005

	invalidParamCode = -32602
)

// Commitment is the RPC commitment config object.
type Commitment struct {
	Commitment string `json:"commitment"`
}

const (
	confirmationStatusProcessed = "processed"
	confirmationStatusConfirmed = "confirmed"
	confirmationStatusFinalized = "finalized"
)

var (
	CommitmentProcessed = Commitment{Commitment: confirmationStatusProcessed}
	CommitmentConfirmed = Commitment{Commitment: confirmationStatusConfirmed}
	CommitmentFinalized = Commitment{Commitment: confirmationStatusFinalized}
)

// CommitmentFromString parses one of processed, confirmed or finalized.
func CommitmentFromString(s string) (Commitment, error) {
	for _, c := range []Commitment{CommitmentProcessed, CommitmentConfirmed, CommitmentFinalized} {
		if c.Commitment == s {
			return c, nil
		}
	}
	return Commitment{}, errors.Errorf("unknown commitment %q", s)
}

var (
	ErrNoAccountInfo     = errors.New("no account info")
	ErrSignatureNotFound = errors.New("signature not found")
	ErrNoBalance         = errors.New("no balance")
)

// AccountInfo is the raw state of any account, as opposed to a decoded
// token account.
type AccountInfo struct {
	Data       []byte
	Owner      ed25519.PublicKey
	Lamports   uint64
	Executable bool
}

// SignatureStatus is the landed state of a transaction. ErrorResult is set
// when the transaction landed but failed.
type SignatureStatus struct {
	Slot        uint64
	ErrorResult *TransactionError

	// Confirmations is nil once the transaction is rooted.
	Confirmations      *int
	ConfirmationStatus string
}

func (s SignatureStatus) Confirmed() bool {
	switch {
	case s.Finalized(), s.ConfirmationStatus == confirmationStatusConfirmed:
		return true
	default:
		return *s.Confirmations > 0
	}
}

func (s SignatureStatus) Finalized() bool {
	return s.Confirmations == nil || s.ConfirmationStatus == confirmationStatusFinalized
}

// Client provides an interaction with the Solana JSON RPC API.
//
// Reference: https://docs.solana.com/apps/jsonrpc-api
type Client interface {
	GetAccountInfo(ed25519.PublicKey, Commitment) (AccountInfo, error)
	GetBalance(ed25519.PublicKey) (uint64, error)
	GetMinimumBalanceForRentExemption(size uint64) (lamports uint64, err error)
	GetLatestBlockhash() (Blockhash, error)
	GetSignatureStatus(Signature, Commitment) (*SignatureStatus, error)
	GetSignatureStatuses([]Signature) ([]*SignatureStatus, error)
	RequestAirdrop(ed25519.PublicKey, uint64, Commitment) (Signature, error)
	SubmitTransaction(Transaction, Commitment) (Signature, error)
}

var (
	errRateLimited  = errors.New("rate limited")
	errServiceError = errors.New("service error")
)

type client struct {
	log     *logrus.Entry
	rpc     jsonrpc.RPCClient
	retrier retry.Retrier

	blockMu   sync.RWMutex
	blockhash Blockhash
	expiry    time.Time
}

// New returns a client using the specified endpoint.
func New(endpoint string) Client {
	return &client{
		log: logrus.StandardLogger().WithField("type", "solana/client"),
		rpc: jsonrpc.NewClient(endpoint),
		retrier: retry.NewRetrier(
			retry.RetriableErrors(errRateLimited, errServiceError),
			retry.Limit(3),
			retry.BackoffWithJitter(backoff.BinaryExponential(time.Second), 10*time.Second, 0.1),
		),
	}
}

// call retries transport level failures only. A request that reached the
// node and was rejected is returned as is.
func (c *client) call(out interface{}, method string, params ...interface{}) error {
	_, err := c.retrier.Retry(context.Background(), func() error {
		err := c.rpc.CallFor(out, method, params...)
		switch code, ok := rpcErrorCode(err); {
		case !ok:
			return err
		case code == 429:
			c.log.WithField("method", method).Warn("rate limited")
			return errRateLimited
		case code >= 500 || code == rpcNodeUnhealthyCode:
			return errServiceError
		default:
			return err
		}
	})
	if err != nil {
		return errors.Wrapf(err, "%s() failed", method)
	}
	return nil
}

// rpcErrorCode returns the code of the node's JSON-RPC error, if err is one.
func rpcErrorCode(err error) (int, bool) {
	var rpcErr *jsonrpc.RPCError
	if errors.As(err, &rpcErr) {
		return rpcErr.Code, true
	}
	return 0, false
}

func (c *client) GetMinimumBalanceForRentExemption(dataSize uint64) (uint64, error) {
	var lamports uint64
	err := c.call(&lamports, "getMinimumBalanceForRentExemption", dataSize)
	return lamports, err
}

// GetLatestBlockhash caches the blockhash for a short, randomized window so
// concurrent mint flows sharing a client don't all hit the node at once.
func (c *client) GetLatestBlockhash() (Blockhash, error) {
	c.blockMu.RLock()
	hash, fresh := c.blockhash, time.Now().Before(c.expiry)
	c.blockMu.RUnlock()
	if fresh {
		return hash, nil
	}

	var resp struct {
		Value struct {
			Blockhash string `json:"blockhash"`
		} `json:"value"`
	}
	if err := c.call(&resp, "getLatestBlockhash"); err != nil {
		return Blockhash{}, err
	}

	raw, err := base58.Decode(resp.Value.Blockhash)
	if err != nil || len(raw) != len(hash) {
		return Blockhash{}, errors.Errorf("invalid blockhash in response: %q", resp.Value.Blockhash)
	}
	copy(hash[:], raw)

	c.blockMu.Lock()
	c.blockhash = hash
	c.expiry = time.Now().Add(time.Duration(float64(2*time.Second) * (0.8 + rand.Float64())))
	c.blockMu.Unlock()

	return hash, nil
}

func (c *client) GetBalance(account ed25519.PublicKey) (uint64, error) {
	var resp struct {
		Value *uint64 `json:"value"`
	}
	err := c.call(&resp, "getBalance", base58.Encode(account), CommitmentProcessed)
	if code, ok := rpcErrorCode(err); ok && code == invalidParamCode {
		return 0, ErrNoBalance
	} else if err != nil {
		return 0, err
	}

	if resp.Value == nil {
		return 0, errors.New("missing balance in response")
	}
	return *resp.Value, nil
}

// SubmitTransaction sends the transaction with preflight simulation enabled,
// so program failures are returned as a *TransactionError before the
// transaction lands.
func (c *client) SubmitTransaction(txn Transaction, commitment Commitment) (Signature, error) {
	sig := txn.Signatures[0]

	config := map[string]interface{}{
		"skipPreflight":       false,
		"preflightCommitment": commitment.Commitment,
		"encoding":            "base64",
	}

	var ignored string
	err := c.call(&ignored, "sendTransaction", base64.StdEncoding.EncodeToString(txn.Marshal()), config)
	if err == nil {
		return sig, nil
	}

	var rpcErr *jsonrpc.RPCError
	if !errors.As(err, &rpcErr) {
		return sig, err
	}
	if txErr, parseErr := ParseRPCError(rpcErr); parseErr == nil && txErr != nil {
		c.log.WithFields(logrus.Fields{
			"method":    "SubmitTransaction",
			"signature": sig.String(),
		}).WithError(txErr).Debug("transaction rejected in preflight")
		return sig, txErr
	}
	return sig, err
}

func (c *client) GetAccountInfo(account ed25519.PublicKey, commitment Commitment) (AccountInfo, error) {
	var resp struct {
		Value *struct {
			Lamports   uint64   `json:"lamports"`
			Owner      string   `json:"owner"`
			Data       []string `json:"data"`
			Executable bool     `json:"executable"`
		} `json:"value"`
	}

	config := map[string]interface{}{
		"commitment": commitment.Commitment,
		"encoding":   "base64",
	}
	if err := c.call(&resp, "getAccountInfo", base58.Encode(account), config); err != nil {
		return AccountInfo{}, err
	}
	if resp.Value == nil {
		return AccountInfo{}, ErrNoAccountInfo
	}

	owner, err := base58.Decode(resp.Value.Owner)
	if err != nil {
		return AccountInfo{}, errors.Wrap(err, "invalid base58 encoded owner")
	}
	if len(resp.Value.Data) == 0 {
		return AccountInfo{}, errors.New("missing account data in response")
	}
	data, err := base64.StdEncoding.DecodeString(resp.Value.Data[0])
	if err != nil {
		return AccountInfo{}, errors.Wrap(err, "invalid base64 encoded data")
	}

	return AccountInfo{
		Data:       data,
		Owner:      owner,
		Lamports:   resp.Value.Lamports,
		Executable: resp.Value.Executable,
	}, nil
}

func (c *client) RequestAirdrop(account ed25519.PublicKey, lamports uint64, commitment Commitment) (Signature, error) {
	var encoded string
	if err := c.call(&encoded, "requestAirdrop", base58.Encode(account), lamports, commitment); err != nil {
		return Signature{}, err
	}

	var sig Signature
	raw, err := base58.Decode(encoded)
	if err != nil || len(raw) != len(sig) {
		return Signature{}, errors.Errorf("invalid signature in response: %q", encoded)
	}
	copy(sig[:], raw)

	return sig, nil
}

// GetSignatureStatus polls until the signature reaches the commitment level
// or lands with an error. A landed error is reported through
// SignatureStatus.ErrorResult, not the returned error.
//
// Polling isn't bound to a context and gives up after sigStatusPollLimit
// attempts. Callers with their own deadline should poll
// GetSignatureStatuses instead.
func (c *client) GetSignatureStatus(sig Signature, commitment Commitment) (*SignatureStatus, error) {
	errPending := errors.New("commitment not reached")

	var status *SignatureStatus
	_, err := retry.Retry(
		context.Background(),
		func() error {
			statuses, err := c.GetSignatureStatuses([]Signature{sig})
			if err != nil {
				return err
			}

			status = statuses[0]
			switch {
			case status == nil:
				return ErrSignatureNotFound
			case status.ErrorResult != nil:
				return nil
			case reached(*status, commitment):
				return nil
			default:
				return errPending
			}
		},
		retry.RetriableErrors(ErrSignatureNotFound, errPending),
		retry.Limit(sigStatusPollLimit),
		retry.Backoff(backoff.Constant(PollRate), PollRate),
	)

	return status, err
}

func reached(s SignatureStatus, commitment Commitment) bool {
	switch commitment {
	case CommitmentFinalized:
		return s.Finalized()
	case CommitmentConfirmed:
		return s.Confirmed()
	default:
		return true
	}
}

func (c *client) GetSignatureStatuses(sigs []Signature) ([]*SignatureStatus, error) {
	encoded := make([]string, len(sigs))
	for i, sig := range sigs {
		encoded[i] = sig.String()
	}

	var resp struct {
		Value []*struct {
			Slot               uint64      `json:"slot"`
			Confirmations      *int        `json:"confirmations"`
			ConfirmationStatus string      `json:"confirmationStatus"`
			Err                interface{} `json:"err"`
		} `json:"value"`
	}
	config := map[string]bool{"searchTransactionHistory": true}
	if err := c.call(&resp, "getSignatureStatuses", encoded, config); err != nil {
		return nil, err
	}

	statuses := make([]*SignatureStatus, len(sigs))
	for i, v := range resp.Value {
		if v == nil || i >= len(statuses) {
			continue
		}

		txErr, err := ParseTransactionError(v.Err)
		if err != nil {
			return nil, errors.Wrap(err, "failed to parse transaction result")
		}

		statuses[i] = &SignatureStatus{
			Slot:               v.Slot,
			ErrorResult:        txErr,
			Confirmations:      v.Confirmations,
			ConfirmationStatus: v.ConfirmationStatus,
		}
	}

	return statuses, nil
}
