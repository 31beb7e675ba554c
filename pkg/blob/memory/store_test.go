package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/nft-minter/pkg/blob"
	"github.com/code-payments/nft-minter/pkg/blob/tests"
)

func TestStore(t *testing.T) {
	testStore := New()
	teardown := func() {
		testStore.reset()
	}
	tests.RunTests(t, testStore, teardown)
}

func TestContentAddressing(t *testing.T) {
	s := New()

	a, err := s.Upload(context.Background(), "a.json", "application/json", []byte("{}"))
	require.NoError(t, err)
	b, err := s.Upload(context.Background(), "b.json", "application/json", []byte("{}"))
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, "memory://44136fa355b3678a1146ad16f7e8649e94fb4fc21fe77e8310c060f61caaff8a", a)
	assert.Equal(t, 2, s.Uploads())

	contentType, ok := s.ContentType(a)
	require.True(t, ok)
	assert.Equal(t, "application/json", contentType)

	_, err = s.Fetch(context.Background(), "https://example.com/a.json")
	assert.Equal(t, blob.ErrUnsupportedURI, err)
}

func TestFailUploads(t *testing.T) {
	s := New()

	s.FailUploads(assert.AnError)
	_, err := s.Upload(context.Background(), "a.json", "application/json", []byte("{}"))
	assert.Equal(t, assert.AnError, err)
	assert.Equal(t, 0, s.Uploads())

	s.FailUploads(nil)
	_, err = s.Upload(context.Background(), "a.json", "application/json", []byte("{}"))
	require.NoError(t, err)
	assert.Equal(t, 1, s.Uploads())
}
