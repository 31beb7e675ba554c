package memory

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"

	"github.com/code-payments/nft-minter/pkg/blob"
)

const scheme = "memory://"

type object struct {
	name        string
	contentType string
	data        []byte
}

// Store is a content addressed, in memory blob.Store.
type Store struct {
	mu      sync.Mutex
	objects map[string]*object
	uploads int
	failErr error
}

// New returns a new in memory blob.Store.
func New() *Store {
	return &Store{
		objects: make(map[string]*object),
	}
}

// Upload implements blob.Store.Upload.
func (s *Store) Upload(_ context.Context, name, contentType string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failErr != nil {
		return "", s.failErr
	}

	h := sha256.Sum256(data)
	key := hex.EncodeToString(h[:])

	s.objects[key] = &object{
		name:        name,
		contentType: contentType,
		data:        append([]byte{}, data...),
	}
	s.uploads++

	return scheme + key, nil
}

// Fetch implements blob.Store.Fetch.
func (s *Store) Fetch(_ context.Context, uri string) ([]byte, error) {
	if !strings.HasPrefix(uri, scheme) {
		return nil, blob.ErrUnsupportedURI
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	obj, ok := s.objects[strings.TrimPrefix(uri, scheme)]
	if !ok {
		return nil, blob.ErrNotFound
	}
	return append([]byte{}, obj.data...), nil
}

// ContentType returns the content type the blob was uploaded with.
func (s *Store) ContentType(uri string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	obj, ok := s.objects[strings.TrimPrefix(uri, scheme)]
	if !ok {
		return "", false
	}
	return obj.contentType, true
}

// Uploads returns the number of successful uploads.
func (s *Store) Uploads() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.uploads
}

// FailUploads causes every subsequent upload to fail with err. A nil err
// restores normal behaviour.
func (s *Store) FailUploads(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failErr = err
}

func (s *Store) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.objects = make(map[string]*object)
	s.uploads = 0
	s.failErr = nil
}
