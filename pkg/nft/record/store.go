package record

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("mint record not found")
	ErrExists   = errors.New("mint record already exists")
)

type Store interface {
	// Save persists a new record for a minted token.
	//
	// ErrExists is returned if a record for the mint already exists.
	Save(ctx context.Context, record *Record) error

	// GetByMint gets the record for a mint.
	//
	// ErrNotFound is returned if no record exists.
	GetByMint(ctx context.Context, mint string) (*Record, error)

	// GetAllByHolder gets all records for tokens minted to a holder, in
	// creation order.
	//
	// ErrNotFound is returned if no records exist.
	GetAllByHolder(ctx context.Context, holder string) ([]*Record, error)
}
