package blob

import (
	"context"

	"github.com/pkg/errors"
)

var (
	// ErrNotFound indicates no blob exists for the URI.
	ErrNotFound = errors.New("blob not found")
	// ErrUnsupportedURI indicates the URI wasn't produced by the store.
	ErrUnsupportedURI = errors.New("unsupported blob uri")
	// ErrRateLimited indicates the store refused the upload to stay within
	// its request budget.
	ErrRateLimited = errors.New("blob upload rate limited")
)

// Store persists immutable blobs and returns a URI that resolves to them.
type Store interface {
	// Upload stores data and returns a URI that can be passed to Fetch, or
	// referenced from metadata.
	Upload(ctx context.Context, name, contentType string, data []byte) (string, error)

	// Fetch returns the bytes behind a URI returned by Upload.
	//
	// ErrNotFound is returned if the blob doesn't exist.
	Fetch(ctx context.Context, uri string) ([]byte, error)
}
