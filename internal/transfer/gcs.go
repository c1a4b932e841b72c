package transfer

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"
)

// GCSTransport serves gs:// URLs from Google Cloud Storage.
type GCSTransport struct {
	client *storage.Client
}

// NewGCSTransport creates a transport backed by a GCS client with ambient
// credentials.
func NewGCSTransport(ctx context.Context) (*GCSTransport, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create GCS client: %w", err)
	}
	return &GCSTransport{client: client}, nil
}

// splitGS splits gs://bucket/object into its components.
func splitGS(url string) (bucket, object string, err error) {
	rest, ok := strings.CutPrefix(url, "gs://")
	if !ok {
		return "", "", fmt.Errorf("not a gs:// URL: %q", url)
	}
	bucket, object, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || object == "" {
		return "", "", fmt.Errorf("malformed gs:// URL: %q", url)
	}
	return bucket, object, nil
}

// Copy implements Transport.
func (t *GCSTransport) Copy(ctx context.Context, src, dst string) error {
	bucket, object, err := splitGS(src)
	if err != nil {
		return err
	}

	r, err := t.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return fmt.Errorf("open gs://%s/%s: %w", bucket, object, err)
	}
	defer r.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("open destination: %w", err)
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return fmt.Errorf("download: %w", err)
	}
	return out.Close()
}

// Exists implements Transport.
func (t *GCSTransport) Exists(ctx context.Context, url string) (bool, error) {
	bucket, object, err := splitGS(url)
	if err != nil {
		return false, err
	}
	_, err = t.client.Bucket(bucket).Object(object).Attrs(ctx)
	if err == nil {
		return true, nil
	}
	if err == storage.ErrObjectNotExist {
		return false, nil
	}
	return false, fmt.Errorf("probe gs://%s/%s: %w", bucket, object, err)
}

// Close releases the underlying client.
func (t *GCSTransport) Close() error {
	return t.client.Close()
}
