package token

import (
	"bytes"
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-payments/nft-minter/pkg/solana"
)

var (
	// ErrAccountNotFound indicates there is no account for the given address.
	ErrAccountNotFound = errors.New("account not found")
	// ErrInvalidTokenAccount indicates that a Solana account exists at the
	// given address, but it is either not initialized, or not configured correctly.
	ErrInvalidTokenAccount = errors.New("invalid token account")
	// ErrInvalidMint indicates the account exists but is not a mint owned by
	// the expected token program.
	ErrInvalidMint = errors.New("invalid mint")
)

// AccountInfoGetter is the subset of the RPC client needed to read token state.
type AccountInfoGetter interface {
	GetAccountInfo(ed25519.PublicKey, solana.Commitment) (solana.AccountInfo, error)
}

// Client provides utilities for accessing token state for a given mint.
type Client struct {
	sc      AccountInfoGetter
	token   ed25519.PublicKey
	program ed25519.PublicKey
}

// NewClient creates a new Client for a mint owned by the provided token
// program.
func NewClient(sc AccountInfoGetter, token, program ed25519.PublicKey) *Client {
	return &Client{
		sc:      sc,
		token:   token,
		program: program,
	}
}

func (c *Client) Token() ed25519.PublicKey {
	return c.token
}

// GetAccount returns the token account info for the specified account.
//
// If the account is not initialized, or belongs to a different
// mint, then ErrInvalidTokenAccount is returned.
func (c *Client) GetAccount(accountID ed25519.PublicKey, commitment solana.Commitment) (*Account, error) {
	accountInfo, err := c.sc.GetAccountInfo(accountID, commitment)
	if err == solana.ErrNoAccountInfo {
		return nil, ErrAccountNotFound
	} else if err != nil {
		return nil, errors.Wrap(err, "failed to get account info")
	}

	if !bytes.Equal(accountInfo.Owner, c.program) {
		return nil, ErrInvalidTokenAccount
	}

	var account Account
	if !account.Unmarshal(accountInfo.Data) {
		return nil, ErrInvalidTokenAccount
	}

	if !bytes.Equal(c.token, account.Mint) {
		return nil, ErrInvalidTokenAccount
	}

	return &account, nil
}

// GetMint returns the decoded mint, including any extensions.
func (c *Client) GetMint(commitment solana.Commitment) (*Mint, error) {
	accountInfo, err := c.sc.GetAccountInfo(c.token, commitment)
	if err == solana.ErrNoAccountInfo {
		return nil, ErrAccountNotFound
	} else if err != nil {
		return nil, errors.Wrap(err, "failed to get account info")
	}

	if !bytes.Equal(accountInfo.Owner, c.program) {
		return nil, ErrInvalidMint
	}

	var mint Mint
	if err := mint.Unmarshal(accountInfo.Data); err != nil {
		return nil, errors.Wrap(ErrInvalidMint, err.Error())
	}
	if !mint.IsInitialized {
		return nil, ErrInvalidMint
	}

	return &mint, nil
}
