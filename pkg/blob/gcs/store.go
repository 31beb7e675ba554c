package gcs

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"

	"github.com/code-payments/nft-minter/pkg/blob"
	"github.com/code-payments/nft-minter/pkg/metrics"
)

const (
	DefaultPublicBaseURL = "https://storage.googleapis.com"

	metricsStructName = "blob.gcs"
)

// Store is a blob.Store backed by a Google Cloud Storage bucket. Objects are
// expected to be publicly readable through bucket level IAM.
type Store struct {
	log           *logrus.Entry
	client        *storage.Client
	bucket        string
	publicBaseURL string
	now           func() time.Time
}

// New returns a new blob.Store writing to bucket.
func New(client *storage.Client, bucket string) *Store {
	return &Store{
		log:           logrus.StandardLogger().WithField("type", "blob/gcs"),
		client:        client,
		bucket:        strings.TrimSpace(bucket),
		publicBaseURL: DefaultPublicBaseURL,
		now:           time.Now,
	}
}

// NewFromCredentialsFile creates a storage client from a service account file.
// An empty path falls back to application default credentials.
func NewFromCredentialsFile(ctx context.Context, bucket, credentialsFile string) (*Store, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create storage client")
	}
	return New(client, bucket), nil
}

// Upload implements blob.Store.Upload.
func (s *Store) Upload(ctx context.Context, name, contentType string, data []byte) (string, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "Upload")
	defer tracer.End()

	if s.bucket == "" {
		return "", errors.New("bucket is empty")
	}

	object := s.objectName(name)
	log := s.log.WithFields(logrus.Fields{
		"method": "Upload",
		"object": object,
	})

	w := s.client.Bucket(s.bucket).Object(object).NewWriter(ctx)
	if contentType != "" {
		w.ContentType = contentType
	}
	w.ChunkSize = 0
	w.Metadata = map[string]string{
		"uploadedAt": s.now().UTC().Format(time.RFC3339),
	}

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		tracer.OnError(err)
		return "", errors.Wrap(err, "failed to write object")
	}
	if err := w.Close(); err != nil {
		tracer.OnError(err)
		return "", errors.Wrap(err, "failed to close object writer")
	}

	uri := s.publicURL(object)
	log.WithField("uri", uri).Debug("uploaded object")
	return uri, nil
}

// Fetch implements blob.Store.Fetch.
func (s *Store) Fetch(ctx context.Context, uri string) ([]byte, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "Fetch")
	defer tracer.End()

	object, err := s.parseURI(uri)
	if err != nil {
		return nil, err
	}

	r, err := s.client.Bucket(s.bucket).Object(object).NewReader(ctx)
	if err == storage.ErrObjectNotExist {
		return nil, blob.ErrNotFound
	} else if err != nil {
		tracer.OnError(err)
		return nil, errors.Wrap(err, "failed to open object")
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		tracer.OnError(err)
		return nil, errors.Wrap(err, "failed to read object")
	}
	return data, nil
}

func (s *Store) objectName(name string) string {
	return fmt.Sprintf("%d_%s", s.now().UnixNano(), strings.TrimPrefix(name, "/"))
}

func (s *Store) publicURL(object string) string {
	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(s.publicBaseURL, "/"), s.bucket, (&url.URL{Path: object}).EscapedPath())
}

func (s *Store) parseURI(uri string) (string, error) {
	prefix := fmt.Sprintf("%s/%s/", strings.TrimRight(s.publicBaseURL, "/"), s.bucket)
	if !strings.HasPrefix(uri, prefix) {
		return "", blob.ErrUnsupportedURI
	}

	object, err := url.PathUnescape(strings.TrimPrefix(uri, prefix))
	if err != nil || object == "" {
		return "", blob.ErrUnsupportedURI
	}
	return object, nil
}
