package tests

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/nft-minter/pkg/blob"
)

func RunTests(t *testing.T, s blob.Store, teardown func()) {
	for _, tf := range []func(t *testing.T, s blob.Store){
		testRoundTrip,
		testNotFound,
	} {
		tf(t, s)
		teardown()
	}
}

func testRoundTrip(t *testing.T, s blob.Store) {
	t.Run("testRoundTrip", func(t *testing.T) {
		ctx := context.Background()

		image := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 1, 2, 3}
		uri, err := s.Upload(ctx, "cat.png", "image/png", image)
		require.NoError(t, err)
		assert.NotEmpty(t, uri)

		actual, err := s.Fetch(ctx, uri)
		require.NoError(t, err)
		assert.Equal(t, image, actual)

		document := []byte(`{"name":"Cat NFT"}`)
		other, err := s.Upload(ctx, "cat.json", "application/json", document)
		require.NoError(t, err)
		assert.NotEqual(t, uri, other)

		actual, err = s.Fetch(ctx, other)
		require.NoError(t, err)
		assert.Equal(t, document, actual)
	})
}

func testNotFound(t *testing.T, s blob.Store) {
	t.Run("testNotFound", func(t *testing.T) {
		ctx := context.Background()

		uri, err := s.Upload(ctx, "a.txt", "text/plain", []byte("a"))
		require.NoError(t, err)

		_, err = s.Fetch(ctx, uri+"0")
		assert.ErrorIs(t, err, blob.ErrNotFound)
	})
}
