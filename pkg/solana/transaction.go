package solana

import (
	"bytes"
	"crypto"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"sort"

	"github.com/mr-tron/base58/base58"
	"github.com/pkg/errors"
)

const (
	// MaxTransactionSize taken from: https://github.com/solana-labs/solana/blob/39b3ac6a8d29e14faa1de73d8b46d390ad41797b/sdk/src/packet.rs#L9-L13
	MaxTransactionSize = 1232
)

var (
	ErrNotSigner      = errors.New("key is not a required signer")
	ErrMissingSigners = errors.New("transaction is missing required signatures")
)

type Signature [ed25519.SignatureSize]byte
type Blockhash [sha256.Size]byte

func (s Signature) String() string {
	return base58.Encode(s[:])
}

func (b Blockhash) String() string {
	return base58.Encode(b[:])
}

type Header struct {
	NumSignatures     byte
	NumReadonlySigned byte
	NumReadOnly       byte
}

type Message struct {
	Header          Header
	Accounts        []ed25519.PublicKey
	RecentBlockhash Blockhash
	Instructions    []CompiledInstruction
}

type Transaction struct {
	Signatures []Signature
	Message    Message
}

// NewTransaction compiles the instructions into a legacy transaction paid for
// by payer.
//
// Reference: https://docs.solana.com/transaction#account-addresses-format
func NewTransaction(payer ed25519.PublicKey, instructions ...Instruction) Transaction {
	var m Message

	for _, account := range compileAccounts(payer, instructions) {
		switch {
		case account.IsSigner && account.IsWritable:
			m.Header.NumSignatures++
		case account.IsSigner:
			m.Header.NumSignatures++
			m.Header.NumReadonlySigned++
		case !account.IsWritable:
			m.Header.NumReadOnly++
		}

		m.Accounts = append(m.Accounts, keyOrZero(account.PublicKey))
	}

	m.Instructions = make([]CompiledInstruction, len(instructions))
	for n, i := range instructions {
		compiled := CompiledInstruction{
			ProgramIndex: byte(indexOf(m.Accounts, keyOrZero(i.Program))),
			Accounts:     make([]byte, 0, len(i.Accounts)),
			Data:         i.Data,
		}
		for _, a := range i.Accounts {
			compiled.Accounts = append(compiled.Accounts, byte(indexOf(m.Accounts, keyOrZero(a.PublicKey))))
		}
		m.Instructions[n] = compiled
	}

	return Transaction{
		Signatures: make([]Signature, m.Header.NumSignatures),
		Message:    m,
	}
}

// compileAccounts merges every account referenced by the instructions into a
// single list ordered with the payer first, then signers, then writable
// accounts, with programs last. Permissions of repeated accounts are merged.
func compileAccounts(payer ed25519.PublicKey, instructions []Instruction) []AccountMeta {
	var accounts []AccountMeta
	seen := make(map[string]int)

	add := func(meta AccountMeta) {
		idx, ok := seen[string(meta.PublicKey)]
		if !ok {
			seen[string(meta.PublicKey)] = len(accounts)
			accounts = append(accounts, meta)
			return
		}

		existing := &accounts[idx]
		existing.IsSigner = existing.IsSigner || meta.IsSigner
		existing.IsWritable = existing.IsWritable || meta.IsWritable
		existing.isPayer = existing.isPayer || meta.isPayer
	}

	add(AccountMeta{PublicKey: payer, IsSigner: true, IsWritable: true, isPayer: true})
	for _, i := range instructions {
		add(AccountMeta{PublicKey: i.Program, isProgram: true})
		for _, a := range i.Accounts {
			add(a)
		}
	}

	sort.SliceStable(accounts, func(i, j int) bool {
		a, b := accounts[i], accounts[j]
		switch {
		case a.isPayer != b.isPayer:
			return a.isPayer
		case a.isProgram != b.isProgram:
			return b.isProgram
		case a.IsSigner != b.IsSigner:
			return a.IsSigner
		case a.IsWritable != b.IsWritable:
			return a.IsWritable
		}
		return bytes.Compare(a.PublicKey, b.PublicKey) < 0
	})

	return accounts
}

func keyOrZero(key ed25519.PublicKey) ed25519.PublicKey {
	if len(key) == 0 {
		return make(ed25519.PublicKey, ed25519.PublicKeySize)
	}
	return key
}

func (t *Transaction) Signature() []byte {
	return t.Signatures[0][:]
}

// RequiredSigners returns the accounts that must sign the transaction, with
// the fee payer first.
func (t *Transaction) RequiredSigners() []ed25519.PublicKey {
	signers := make([]ed25519.PublicKey, t.Message.Header.NumSignatures)
	copy(signers, t.Message.Accounts[:t.Message.Header.NumSignatures])
	return signers
}

// MissingSigners returns the required signers that have not yet provided a
// signature.
func (t *Transaction) MissingSigners() []ed25519.PublicKey {
	var missing []ed25519.PublicKey
	for i, signer := range t.RequiredSigners() {
		if i >= len(t.Signatures) || t.Signatures[i] == (Signature{}) {
			missing = append(missing, signer)
		}
	}
	return missing
}

func (t *Transaction) SetBlockhash(bh Blockhash) {
	t.Message.RecentBlockhash = bh
}

// Sign signs the message with each signer. Any crypto.Signer backed by an
// ed25519 key can be used, including ed25519.PrivateKey itself.
func (t *Transaction) Sign(signers ...crypto.Signer) error {
	messageBytes := t.Message.Marshal()

	for _, s := range signers {
		pub, ok := s.Public().(ed25519.PublicKey)
		if !ok {
			return errors.Errorf("unsupported signer key type %T", s.Public())
		}

		index := indexOf(t.Message.Accounts, pub)
		if index < 0 {
			return errors.Wrapf(ErrNotSigner, "signing account %s is not in the account list", base58.Encode(pub))
		}
		if index >= len(t.Signatures) {
			return errors.Wrapf(ErrNotSigner, "signing account %s is not in the list of signers", base58.Encode(pub))
		}

		sig, err := s.Sign(rand.Reader, messageBytes, crypto.Hash(0))
		if err != nil {
			return errors.Wrapf(err, "failed to sign with %s", base58.Encode(pub))
		}
		if len(sig) != ed25519.SignatureSize {
			return errors.Errorf("invalid signature length %d from %s", len(sig), base58.Encode(pub))
		}

		copy(t.Signatures[index][:], sig)
	}

	return nil
}

// VerifySignatures checks that every required signer has produced a valid
// signature over the message.
func (t *Transaction) VerifySignatures() error {
	if missing := t.MissingSigners(); len(missing) > 0 {
		return errors.Wrapf(ErrMissingSigners, "missing %d of %d", len(missing), len(t.Signatures))
	}

	messageBytes := t.Message.Marshal()
	for i, signer := range t.RequiredSigners() {
		if !ed25519.Verify(signer, messageBytes, t.Signatures[i][:]) {
			return errors.Errorf("invalid signature for %s", base58.Encode(signer))
		}
	}

	return nil
}

func indexOf(slice []ed25519.PublicKey, item ed25519.PublicKey) int {
	for i, val := range slice {
		if bytes.Equal(val, item) {
			return i
		}
	}

	return -1
}
