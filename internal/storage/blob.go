// Package storage persists the transaction table and the rule list as whole
// objects in a blob store: a local directory or a Cloud Storage bucket.
package storage

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// ErrNotExist is returned by Blob.Read for a missing object.
var ErrNotExist = errors.New("object does not exist")

// Blob stores whole objects by name. Writes replace the object.
type Blob interface {
	Read(ctx context.Context, name string) ([]byte, error)
	Write(ctx context.Context, name string, data []byte) error
}

// LocalBlob keeps objects as files under a root directory.
type LocalBlob struct {
	root string
}

// NewLocalBlob creates a LocalBlob rooted at dir.
func NewLocalBlob(dir string) *LocalBlob {
	return &LocalBlob{root: dir}
}

// Path returns the file path backing name.
func (b *LocalBlob) Path(name string) string {
	return filepath.Join(b.root, filepath.FromSlash(name))
}

// Read returns the file contents, or ErrNotExist.
func (b *LocalBlob) Read(_ context.Context, name string) ([]byte, error) {
	data, err := os.ReadFile(b.Path(name))
	if os.IsNotExist(err) {
		return nil, ErrNotExist
	}
	if err != nil {
		return nil, errors.Wrapf(err, "LocalBlob.Read: %s", name)
	}
	return data, nil
}

// Write replaces the file, creating parent directories as needed. The data
// is written to a temporary file first and renamed into place.
func (b *LocalBlob) Write(_ context.Context, name string, data []byte) error {
	path := b.Path(name)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "LocalBlob.Write: create directory %s", dir)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return errors.Wrap(err, "LocalBlob.Write: create temp file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "LocalBlob.Write: write temp file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "LocalBlob.Write: close temp file")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrapf(err, "LocalBlob.Write: rename into %s", path)
	}
	return nil
}
