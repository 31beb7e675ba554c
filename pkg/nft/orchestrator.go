package nft

import (
	"bytes"
	"context"
	"crypto"
	"crypto/ed25519"
	"crypto/rand"
	"time"

	"github.com/google/uuid"
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/nft-minter/pkg/metrics"
	"github.com/code-payments/nft-minter/pkg/nft/record"
	"github.com/code-payments/nft-minter/pkg/retry"
	"github.com/code-payments/nft-minter/pkg/retry/backoff"
	"github.com/code-payments/nft-minter/pkg/solana"
)

const (
	metricsStructName = "nft.orchestrator"

	nftCreatedMetricName           = "nft.created"
	nftFailedMetricName            = "nft.failed"
	confirmationDurationMetricName = "nft.confirmation_duration"
	nftCreatedEventName            = "NftCreated"

	// lamportsPerSignature is the base fee per transaction signature.
	lamportsPerSignature = 5000
)

var errNotConfirmed = errors.New("transaction has not reached commitment")

// Result is the outcome of a committed CreateNFT flow.
type Result struct {
	FlowId    uuid.UUID
	Mint      ed25519.PublicKey
	Signature solana.Signature
	Plan      *Plan

	// Verification is nil when read back is disabled.
	Verification *Verification
}

// Orchestrator creates single-supply tokens with attached metadata in one
// atomic transaction.
type Orchestrator struct {
	log  *logrus.Entry
	conf *conf

	ledger   Ledger
	payer    crypto.Signer
	payerKey ed25519.PublicKey
	holder   ed25519.PublicKey

	records     record.Store
	fetcher     DocumentFetcher
	environment solana.Environment
}

type Option func(o *Orchestrator)

// WithHolder mints the token to holder rather than the payer.
func WithHolder(holder ed25519.PublicKey) Option {
	return func(o *Orchestrator) {
		o.holder = holder
	}
}

// WithRecordStore persists a record of every committed mint.
func WithRecordStore(records record.Store) Option {
	return func(o *Orchestrator) {
		o.records = records
	}
}

// WithDocumentFetcher verifies the off-chain document the metadata URI
// references during read back.
func WithDocumentFetcher(fetcher DocumentFetcher) Option {
	return func(o *Orchestrator) {
		o.fetcher = fetcher
	}
}

// WithEnvironment enables explorer links in logs.
func WithEnvironment(env solana.Environment) Option {
	return func(o *Orchestrator) {
		o.environment = env
	}
}

func NewOrchestrator(ledger Ledger, payer crypto.Signer, configProvider ConfigProvider, opts ...Option) (*Orchestrator, error) {
	payerKey, ok := payer.Public().(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("payer must be an ed25519 key")
	}

	o := &Orchestrator{
		log:      logrus.StandardLogger().WithField("type", "nft/orchestrator"),
		conf:     configProvider(),
		ledger:   ledger,
		payer:    payer,
		payerKey: payerKey,
		holder:   payerKey,
	}
	for _, opt := range opts {
		opt(o)
	}

	if len(o.holder) != ed25519.PublicKeySize {
		return nil, errors.Errorf("invalid holder key length: %d", len(o.holder))
	}

	return o, nil
}

// Payer returns the fee payer and authority key.
func (o *Orchestrator) Payer() ed25519.PublicKey {
	return o.payerKey
}

// CreateNFT generates a fresh mint keypair and runs the full flow: plan,
// submit, confirm and, unless disabled, read back. Failures before commit
// leave no state behind. Read back failures don't fail the flow and are
// reported in Result.Verification.
func (o *Orchestrator) CreateNFT(ctx context.Context, desc *Descriptor, strategy Strategy) (*Result, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "CreateNFT")
	defer tracer.End()

	result, err := o.createNFT(ctx, desc, strategy)
	if err != nil {
		metrics.RecordCount(ctx, nftFailedMetricName, 1)
	}
	tracer.OnError(err)
	return result, err
}

func (o *Orchestrator) createNFT(ctx context.Context, desc *Descriptor, strategy Strategy) (*Result, error) {
	flowId := uuid.New()
	log := o.log.WithFields(logrus.Fields{
		"method":   "CreateNFT",
		"flow":     flowId.String(),
		"strategy": strategy.String(),
	})

	if err := desc.Validate(); err != nil {
		log.WithError(err).Warn("invalid descriptor")
		return nil, err
	}
	log = log.WithField("name", desc.Name)

	_, mintKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate mint key")
	}
	mint := mintKey.Public().(ed25519.PublicKey)
	log = log.WithField("mint", base58.Encode(mint))

	plan, err := o.buildPlan(desc, strategy, mint)
	if err != nil {
		log.WithError(err).Warn("failure building plan")
		return nil, err
	}

	if o.conf.enableBalanceCheck.Get(ctx) {
		if err := o.checkBalance(plan); err != nil {
			log.WithError(err).Warn("payer balance check failed")
			return nil, err
		}
	}

	start := time.Now()
	sig, err := o.execute(ctx, plan, []crypto.Signer{o.payer, mintKey})
	if err != nil {
		log.WithError(err).Warn("failure executing plan")
		return nil, err
	}
	metrics.RecordDuration(ctx, confirmationDurationMetricName, time.Since(start))
	metrics.RecordCount(ctx, nftCreatedMetricName, 1)

	log = log.WithField("signature", sig.String())
	if len(o.environment) > 0 {
		log = log.WithField("explorer", solana.ExplorerURL(sig, o.environment))
	}
	log.Info("nft created")

	result := &Result{
		FlowId:    flowId,
		Mint:      mint,
		Signature: sig,
		Plan:      plan,
	}

	if !o.conf.disableReadBack.Get(ctx) {
		verifier := NewVerifier(o.ledger, o.fetcher, o.commitment(ctx))
		result.Verification, err = verifier.Verify(ctx, mint, o.holder, strategy)
		if err != nil {
			log.WithError(err).Warn("failure verifying nft")
		} else if !result.Verification.OK() {
			for _, failure := range result.Verification.Failures {
				log.WithError(failure).Warn("read back failure")
			}
		} else if !result.Verification.Matches(desc) {
			log.Warn("read back metadata does not match descriptor")
		}
	}

	if o.records != nil {
		rec := &record.Record{
			FlowId:          flowId,
			Mint:            base58.Encode(mint),
			Signature:       sig.String(),
			Strategy:        strategy.Kind().String(),
			MetadataAddress: base58.Encode(plan.MetadataAddress),
			Holder:          base58.Encode(o.holder),
			Name:            desc.Name,
			Symbol:          desc.Symbol,
			URI:             desc.URI,
			CreatedAt:       time.Now(),
		}
		if err := o.records.Save(ctx, rec); err != nil {
			log.WithError(err).Warn("failure saving mint record")
		}
	}

	metrics.RecordEvent(ctx, nftCreatedEventName, map[string]interface{}{
		"flow":      flowId.String(),
		"mint":      base58.Encode(mint),
		"signature": sig.String(),
		"strategy":  strategy.Kind().String(),
	})

	return result, nil
}

// checkBalance is a lower bound: it covers the mint account and signature
// fees, but not the associated account or a metadata account's rent.
func (o *Orchestrator) checkBalance(plan *Plan) error {
	balance, err := o.ledger.GetBalance(plan.Payer)
	if err == solana.ErrNoBalance {
		balance = 0
	} else if err != nil {
		return newError(ErrNetwork, errors.Wrap(err, "failed to get payer balance"))
	}

	required := plan.Lamports + uint64(len(plan.Signers))*lamportsPerSignature
	if balance < required {
		return newError(ErrInsufficientFunds, errors.Errorf("payer has %d lamports, requires at least %d", balance, required))
	}
	return nil
}

// execute validates, signs and submits the plan, then waits for the
// configured commitment.
func (o *Orchestrator) execute(ctx context.Context, plan *Plan, signers []crypto.Signer) (solana.Signature, error) {
	if err := plan.Validate(); err != nil {
		if errors.Is(err, ErrOrderingViolation) {
			return solana.Signature{}, newError(ErrOrderingViolation, err)
		}
		return solana.Signature{}, errors.Wrap(err, "invalid plan")
	}
	return o.submit(ctx, plan, signers)
}

func (o *Orchestrator) submit(ctx context.Context, plan *Plan, signers []crypto.Signer) (solana.Signature, error) {
	var sig solana.Signature

	commitment, err := solana.CommitmentFromString(o.conf.confirmationCommitment.Get(ctx))
	if err != nil {
		return sig, errors.Wrap(err, "invalid confirmation commitment")
	}

	planSigners, err := selectSigners(plan, signers)
	if err != nil {
		return sig, err
	}

	bh, err := o.ledger.GetLatestBlockhash()
	if err != nil {
		return sig, newError(ErrNetwork, errors.Wrap(err, "failed to get latest blockhash"))
	}

	tx := solana.NewTransaction(plan.Payer, plan.Instructions...)
	tx.SetBlockhash(bh)
	if err := tx.Sign(planSigners...); err != nil {
		return sig, errors.Wrap(err, "failed to sign transaction")
	}
	copy(sig[:], tx.Signature())

	log := o.log.WithFields(logrus.Fields{
		"method":    "submit",
		"signature": sig.String(),
	})
	log.Debug("submitting transaction")

	sig, err = o.ledger.SubmitTransaction(tx, commitment)
	if err != nil {
		return sig, classifyError(plan, err)
	}

	if err := o.waitForConfirmation(ctx, plan, sig, commitment); err != nil {
		return sig, err
	}
	return sig, nil
}

// waitForConfirmation polls the signature status until it reaches commitment
// or the confirmation timeout elapses. Each poll is a single status lookup.
// Polling never resubmits the transaction.
func (o *Orchestrator) waitForConfirmation(ctx context.Context, plan *Plan, sig solana.Signature, commitment solana.Commitment) error {
	ctx, cancel := context.WithTimeout(ctx, o.conf.confirmationTimeout.Get(ctx))
	defer cancel()

	interval := o.conf.confirmationPollInterval.Get(ctx)

	var txErr *solana.TransactionError
	_, err := retry.Retry(
		ctx,
		func() error {
			statuses, err := o.ledger.GetSignatureStatuses([]solana.Signature{sig})
			if err != nil {
				return err
			}
			if len(statuses) == 0 || statuses[0] == nil {
				return errNotConfirmed
			}
			status := statuses[0]
			if status.ErrorResult != nil {
				txErr = status.ErrorResult
				return nil
			}
			if !reachedCommitment(status, commitment) {
				return errNotConfirmed
			}
			return nil
		},
		retry.RetriableErrors(solana.ErrSignatureNotFound, errNotConfirmed),
		retry.Backoff(backoff.Constant(interval), interval),
	)
	if err != nil {
		return newError(ErrNetwork, errors.Wrapf(err, "transaction %s not confirmed", sig.String()))
	}
	if txErr != nil {
		return classifyError(plan, txErr)
	}
	return nil
}

func reachedCommitment(status *solana.SignatureStatus, commitment solana.Commitment) bool {
	switch commitment {
	case solana.CommitmentFinalized:
		return status.Finalized()
	case solana.CommitmentConfirmed:
		return status.Confirmed()
	}
	return true
}

func (o *Orchestrator) commitment(ctx context.Context) solana.Commitment {
	commitment, err := solana.CommitmentFromString(o.conf.confirmationCommitment.Get(ctx))
	if err != nil {
		return solana.CommitmentFinalized
	}
	return commitment
}

// selectSigners orders the provided signers to match plan.Signers.
func selectSigners(plan *Plan, signers []crypto.Signer) ([]crypto.Signer, error) {
	selected := make([]crypto.Signer, 0, len(plan.Signers))
	for _, key := range plan.Signers {
		var found crypto.Signer
		for _, signer := range signers {
			pub, ok := signer.Public().(ed25519.PublicKey)
			if ok && bytes.Equal(pub, key) {
				found = signer
				break
			}
		}
		if found == nil {
			return nil, errors.Errorf("no signer provided for %s", base58.Encode(key))
		}
		selected = append(selected, found)
	}
	return selected, nil
}
