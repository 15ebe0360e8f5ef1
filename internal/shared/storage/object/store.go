// Package object holds the archive contract shared by the local and S3 backends.
package object

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned by Open when the key has never been archived.
var ErrNotFound = errors.New("object not found")

// Object describes one archived file.
type Object struct {
	Key         string
	ContentType string
	// Metadata is stored alongside the object where the backend supports it.
	Metadata map[string]string
}

// Store archives derived picture files. Keys are slash separated and relative.
type Store interface {
	Put(ctx context.Context, obj Object, r io.Reader) (sizeBytes int64, err error)
	Exists(ctx context.Context, key string) (bool, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}
