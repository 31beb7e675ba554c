package ipfs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/nft-minter/pkg/blob"
	"github.com/code-payments/nft-minter/pkg/metrics"
	"github.com/code-payments/nft-minter/pkg/rate"
)

// Reference: https://nft.storage/api-docs/

const (
	DefaultEndpoint = "https://api.nft.storage"

	// DefaultGatewayFormat renders a CID as a subdomain gateway URL.
	DefaultGatewayFormat = "https://%s.ipfs.nftstorage.link"

	uploadEndpointName = "upload"
	rateLimitKey       = "upload"

	metricsStructName = "blob.ipfs"
)

type Config struct {
	Endpoint string
	APIKey   string

	// GatewayFormat must contain exactly one %s, which is replaced by the CID.
	GatewayFormat string
}

// Store is a blob.Store backed by an IPFS pinning service.
type Store struct {
	log        *logrus.Entry
	conf       Config
	limiter    rate.Limiter
	httpClient *http.Client
}

type uploadResponse struct {
	OK    bool `json:"ok"`
	Value struct {
		CID string `json:"cid"`
	} `json:"value"`
	Error *struct {
		Name    string `json:"name"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// New returns a new blob.Store. A nil limiter never limits uploads.
func New(conf Config, limiter rate.Limiter) *Store {
	if conf.Endpoint == "" {
		conf.Endpoint = DefaultEndpoint
	}
	if conf.GatewayFormat == "" {
		conf.GatewayFormat = DefaultGatewayFormat
	}
	if limiter == nil {
		limiter = rate.NoLimiter{}
	}

	return &Store{
		log:        logrus.StandardLogger().WithField("type", "blob/ipfs"),
		conf:       conf,
		limiter:    limiter,
		httpClient: http.DefaultClient,
	}
}

// Upload implements blob.Store.Upload.
func (s *Store) Upload(ctx context.Context, name, contentType string, data []byte) (string, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "Upload")
	defer tracer.End()

	log := s.log.WithFields(logrus.Fields{
		"method": "Upload",
		"name":   name,
		"size":   len(data),
	})

	if err := s.limiter.Wait(ctx, rateLimitKey); err != nil {
		log.WithError(err).Debug("upload rate limited")
		return "", blob.ErrRateLimited
	}

	url := fmt.Sprintf("%s/%s", strings.TrimRight(s.conf.Endpoint, "/"), uploadEndpointName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return "", errors.Wrap(err, "error creating http request")
	}
	req.Header.Set("Authorization", "Bearer "+s.conf.APIKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		tracer.OnError(err)
		return "", errors.Wrap(err, "error executing http request")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrap(err, "error reading response body")
	}

	if resp.StatusCode != http.StatusOK {
		err = errors.Errorf("received http status %d: %s", resp.StatusCode, string(respBody))
		tracer.OnError(err)
		return "", err
	}

	var parsed uploadResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", errors.Wrap(err, "error unmarshalling json response")
	}
	if parsed.Error != nil {
		return "", errors.Errorf("upload rejected: %s: %s", parsed.Error.Name, parsed.Error.Message)
	}
	if parsed.Value.CID == "" {
		return "", errors.New("upload response is missing a cid")
	}

	uri := fmt.Sprintf(s.conf.GatewayFormat, parsed.Value.CID)
	log.WithField("uri", uri).Debug("pinned blob")
	return uri, nil
}

// Fetch implements blob.Store.Fetch by reading through the gateway.
func (s *Store) Fetch(ctx context.Context, uri string) ([]byte, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "Fetch")
	defer tracer.End()

	if _, err := s.cidFromURI(uri); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, errors.Wrap(err, "error creating http request")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		tracer.OnError(err)
		return nil, errors.Wrap(err, "error executing http request")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "error reading response body")
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return respBody, nil
	case http.StatusNotFound:
		return nil, blob.ErrNotFound
	default:
		return nil, errors.Errorf("received http status %d: %s", resp.StatusCode, string(respBody))
	}
}

func (s *Store) cidFromURI(uri string) (string, error) {
	parts := strings.SplitN(s.conf.GatewayFormat, "%s", 2)
	if len(parts) != 2 {
		return "", errors.Errorf("invalid gateway format: %s", s.conf.GatewayFormat)
	}

	if !strings.HasPrefix(uri, parts[0]) || !strings.HasSuffix(uri, parts[1]) {
		return "", blob.ErrUnsupportedURI
	}
	cid := strings.TrimSuffix(strings.TrimPrefix(uri, parts[0]), parts[1])
	if cid == "" || strings.ContainsAny(cid, "/?#") {
		return "", blob.ErrUnsupportedURI
	}
	return cid, nil
}
