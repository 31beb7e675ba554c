package ledgertest

import (
	"bytes"
	"crypto/ed25519"

	"github.com/code-payments/nft-minter/pkg/solana"
	"github.com/code-payments/nft-minter/pkg/solana/metaplex"
	"github.com/code-payments/nft-minter/pkg/solana/system"
	"github.com/code-payments/nft-minter/pkg/solana/token"
)

// executor holds the copy-on-write account set for a single transaction.
type executor struct {
	l       *Ledger
	m       solana.Message
	working map[string]*account
}

func newExecutor(l *Ledger, m solana.Message) *executor {
	return &executor{
		l:       l,
		m:       m,
		working: make(map[string]*account),
	}
}

// get returns the working copy of an account, or nil if it doesn't exist.
func (e *executor) get(address ed25519.PublicKey) *account {
	if a, ok := e.working[string(address)]; ok {
		return a
	}

	committed, ok := e.l.accounts[string(address)]
	if !ok {
		return nil
	}

	a := committed.clone()
	e.working[string(address)] = a
	return a
}

func (e *executor) put(address ed25519.PublicKey, a *account) {
	e.working[string(address)] = a
}

func (e *executor) isSigner(address ed25519.PublicKey) bool {
	for i := 0; i < int(e.m.Header.NumSignatures) && i < len(e.m.Accounts); i++ {
		if bytes.Equal(e.m.Accounts[i], address) {
			return true
		}
	}
	return false
}

func (e *executor) process(index int) *solana.InstructionError {
	instruction := e.m.Instructions[index]
	program := e.m.Accounts[instruction.ProgramIndex]

	switch {
	case bytes.Equal(program, system.ProgramKey[:]):
		return e.processSystem(index)
	case bytes.Equal(program, token.AssociatedTokenAccountProgramKey):
		return e.processAssociatedAccount(index)
	case token.IsTokenProgram(program):
		return e.processToken(index)
	case bytes.Equal(program, metaplex.ProgramKey):
		return e.processMetaplex(index)
	}

	return solana.NewInstructionError(index, solana.InstructionErrorIncorrectProgramID)
}

// checkRent verifies every account touched by the transaction is rent
// exempt at its final size. Accounts without data may be emptied, or stay
// below the minimum if they already were, but can't newly drop below it.
// Failures report the message index of the first offending account.
func (e *executor) checkRent() error {
	for i, address := range e.m.Accounts {
		a, ok := e.working[string(address)]
		if !ok || a == nil {
			continue
		}

		if a.lamports >= RentExemptBalance(uint64(len(a.data))) {
			continue
		}
		if len(a.data) == 0 {
			if a.lamports == 0 {
				continue
			}
			pre, ok := e.l.accounts[string(address)]
			if !ok || pre.lamports < RentExemptBalance(uint64(len(pre.data))) {
				continue
			}
		}

		return solana.NewInsufficientFundsForRentError(i)
	}
	return nil
}

func (e *executor) commit() {
	for address, a := range e.working {
		if a == nil {
			delete(e.l.accounts, address)
			continue
		}
		e.l.accounts[address] = a
	}
}

// createAccount funds and allocates a new account owned by owner.
func (e *executor) createAccount(index int, funder, address, owner ed25519.PublicKey, lamports uint64, size int) *solana.InstructionError {
	if existing := e.get(address); existing != nil && (existing.lamports > 0 || len(existing.data) > 0) {
		return solana.NewCustomInstructionError(index, int(system.ErrorAccountAlreadyInUse))
	}

	from := e.get(funder)
	if from == nil || from.lamports < lamports {
		return solana.NewCustomInstructionError(index, int(system.ErrorResultWithNegativeLamports))
	}
	from.lamports -= lamports

	e.put(address, &account{
		owner:    append(ed25519.PublicKey{}, owner...),
		lamports: lamports,
		data:     make([]byte, size),
	})
	return nil
}
