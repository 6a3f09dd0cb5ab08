package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/pkg/errors"
	"google.golang.org/api/option"
)

// GCSBlob keeps objects in a Cloud Storage bucket under an optional prefix.
// It holds one client for its lifetime.
type GCSBlob struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCSBlob creates a GCSBlob. With an empty credentialsFile the client uses
// Application Default Credentials.
func NewGCSBlob(ctx context.Context, bucket, prefix, credentialsFile string) (*GCSBlob, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("NewGCSBlob: create storage client: %w", err)
	}
	return &GCSBlob{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
	}, nil
}

// Close closes the storage client.
func (b *GCSBlob) Close() error {
	if b.client != nil {
		return b.client.Close()
	}
	return nil
}

// URI returns the gs:// URI of name.
func (b *GCSBlob) URI(name string) string {
	return fmt.Sprintf("gs://%s/%s", b.bucket, b.object(name))
}

func (b *GCSBlob) object(name string) string {
	if b.prefix == "" {
		return name
	}
	return path.Join(b.prefix, name)
}

// Read downloads the object, or returns ErrNotExist.
func (b *GCSBlob) Read(ctx context.Context, name string) ([]byte, error) {
	obj := b.object(name)
	r, err := b.client.Bucket(b.bucket).Object(obj).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, ErrNotExist
	}
	if err != nil {
		return nil, fmt.Errorf("GCSBlob.Read: open reader for %s: %w", obj, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("GCSBlob.Read: read %s: %w", obj, err)
	}
	return data, nil
}

// Write uploads data, replacing any existing object.
func (b *GCSBlob) Write(ctx context.Context, name string, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	obj := b.object(name)
	w := b.client.Bucket(b.bucket).Object(obj).NewWriter(ctx)
	w.ContentType = contentType(name)

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("GCSBlob.Write: write %s: %w", obj, err)
	}
	// Close finalizes the upload.
	if err := w.Close(); err != nil {
		return fmt.Errorf("GCSBlob.Write: finalize %s: %w", obj, err)
	}
	return nil
}

func contentType(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".json":
		return "application/json"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/octet-stream"
	}
}
