package offchain

import (
	"context"
	"encoding/json"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/nft-minter/pkg/blob"
	"github.com/code-payments/nft-minter/pkg/metrics"
	"github.com/code-payments/nft-minter/pkg/solana/tokenmetadata"
)

const (
	documentContentType = "application/json"

	metricsStructName = "nft.offchain.publisher"
)

var (
	// ErrAssetNotFound indicates the asset file could not be read. No upload
	// is attempted.
	ErrAssetNotFound = errors.New("asset not found")

	// ErrUploadFailed indicates the blob store rejected an upload.
	ErrUploadFailed = errors.New("upload failed")
)

type PublishRequest struct {
	// AssetPath is the local path of the image to publish.
	AssetPath string

	Name             string
	Symbol           string
	Description      string
	ExternalURL      string
	AdditionalFields []tokenmetadata.Field
}

// Publisher uploads an asset and its metadata document to a blob store.
type Publisher struct {
	log   *logrus.Entry
	store blob.Store
}

func NewPublisher(store blob.Store) *Publisher {
	return &Publisher{
		log:   logrus.StandardLogger().WithField("type", "nft/offchain/publisher"),
		store: store,
	}
}

// Publish uploads the asset, then a metadata document embedding the asset's
// URI, and returns the document's URI. Uploads are sequential and never
// retried.
func (p *Publisher) Publish(ctx context.Context, req *PublishRequest) (string, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "Publish")
	defer tracer.End()

	log := p.log.WithFields(logrus.Fields{
		"method": "Publish",
		"asset":  req.AssetPath,
	})

	image, err := os.ReadFile(req.AssetPath)
	if err != nil {
		return "", errors.Wrapf(ErrAssetNotFound, "%s: %v", req.AssetPath, err)
	}

	name := filepath.Base(req.AssetPath)
	imageURI, err := p.store.Upload(ctx, name, detectContentType(name, image), image)
	if err != nil {
		log.WithError(err).Warn("failure uploading asset")
		tracer.OnError(err)
		return "", errors.Wrapf(ErrUploadFailed, "asset: %v", err)
	}
	log = log.WithField("image_uri", imageURI)

	doc, err := json.Marshal(NewDocument(req, imageURI))
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal metadata document")
	}

	documentName := strings.TrimSuffix(name, filepath.Ext(name)) + ".json"
	uri, err := p.store.Upload(ctx, documentName, documentContentType, doc)
	if err != nil {
		log.WithError(err).Warn("failure uploading metadata document")
		tracer.OnError(err)
		return "", errors.Wrapf(ErrUploadFailed, "metadata document: %v", err)
	}

	log.WithField("uri", uri).Info("published metadata")
	return uri, nil
}

// Fetch reads a metadata document back from the blob store.
func (p *Publisher) Fetch(ctx context.Context, uri string) (*Document, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "Fetch")
	defer tracer.End()

	raw, err := p.store.Fetch(ctx, uri)
	if err != nil {
		tracer.OnError(err)
		return nil, errors.Wrapf(err, "failed to fetch %s", uri)
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, errors.Wrap(err, "invalid metadata document")
	}
	return &doc, nil
}

func detectContentType(name string, data []byte) string {
	if contentType := mime.TypeByExtension(filepath.Ext(name)); contentType != "" {
		return contentType
	}
	return http.DetectContentType(data)
}
