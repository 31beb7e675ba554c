package ipfs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	xrate "golang.org/x/time/rate"

	"github.com/code-payments/nft-minter/pkg/blob"
	"github.com/code-payments/nft-minter/pkg/blob/tests"
	"github.com/code-payments/nft-minter/pkg/rate"
)

const testAPIKey = "test-api-key"

type pinningService struct {
	mu           sync.Mutex
	pinned       map[string][]byte
	contentTypes map[string]string
}

func newPinningService(t *testing.T) (*pinningService, *httptest.Server) {
	p := &pinningService{
		pinned:       make(map[string][]byte),
		contentTypes: make(map[string]string),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/upload", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if r.Header.Get("Authorization") != "Bearer "+testAPIKey {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"ok":false,"error":{"name":"HTTP Error","message":"Unauthorized"}}`)
			return
		}

		data, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		h := sha256.Sum256(data)
		cid := "bafy" + hex.EncodeToString(h[:8])

		p.mu.Lock()
		p.pinned[cid] = data
		p.contentTypes[cid] = r.Header.Get("Content-Type")
		p.mu.Unlock()

		fmt.Fprintf(w, `{"ok":true,"value":{"cid":%q}}`, cid)
	})
	mux.HandleFunc("/ipfs/", func(w http.ResponseWriter, r *http.Request) {
		cid := strings.TrimPrefix(r.URL.Path, "/ipfs/")

		p.mu.Lock()
		data, ok := p.pinned[cid]
		p.mu.Unlock()

		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write(data)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return p, server
}

func newTestStore(server *httptest.Server, apiKey string, limiter rate.Limiter) *Store {
	return New(Config{
		Endpoint:      server.URL,
		APIKey:        apiKey,
		GatewayFormat: server.URL + "/ipfs/%s",
	}, limiter)
}

func TestStore(t *testing.T) {
	_, server := newPinningService(t)
	tests.RunTests(t, newTestStore(server, testAPIKey, nil), func() {})
}

func TestUploadHeaders(t *testing.T) {
	p, server := newPinningService(t)
	s := newTestStore(server, testAPIKey, nil)

	uri, err := s.Upload(context.Background(), "cat.json", "application/json", []byte(`{}`))
	require.NoError(t, err)

	cid, err := s.cidFromURI(uri)
	require.NoError(t, err)
	assert.Equal(t, "application/json", p.contentTypes[cid])
}

func TestUploadUnauthorized(t *testing.T) {
	_, server := newPinningService(t)
	s := newTestStore(server, "wrong", nil)

	_, err := s.Upload(context.Background(), "cat.json", "application/json", []byte(`{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestUploadRateLimited(t *testing.T) {
	_, server := newPinningService(t)
	s := newTestStore(server, testAPIKey, rate.NewLocalRateLimiter(xrate.Limit(1)))

	_, err := s.Upload(context.Background(), "a.json", "application/json", []byte(`{"a":1}`))
	require.NoError(t, err)

	// The next permit is a second away, past the deadline
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = s.Upload(ctx, "b.json", "application/json", []byte(`{"b":1}`))
	assert.Equal(t, blob.ErrRateLimited, err)
}

func TestDefaultGateway(t *testing.T) {
	s := New(Config{APIKey: testAPIKey}, nil)
	assert.Equal(t, DefaultEndpoint, s.conf.Endpoint)

	cid, err := s.cidFromURI("https://bafkreiabc.ipfs.nftstorage.link")
	require.NoError(t, err)
	assert.Equal(t, "bafkreiabc", cid)

	for _, invalid := range []string{
		"https://example.com/bafkreiabc",
		"https://a/b.ipfs.nftstorage.link",
		"https://.ipfs.nftstorage.link",
	} {
		_, err := s.cidFromURI(invalid)
		assert.Equal(t, blob.ErrUnsupportedURI, err, invalid)
	}
}
