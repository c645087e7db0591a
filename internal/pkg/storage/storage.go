package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned when a stored file does not exist.
var ErrNotFound = errors.New("file not found")

type FileStorage interface {
	// Write stores the content of r at path, replacing any existing file.
	Write(ctx context.Context, path string, r io.Reader) error

	// Read retrieves a file
	Read(ctx context.Context, path string) (io.ReadCloser, error)

	// Delete removes a file
	Delete(ctx context.Context, path string) error

	// Exists checks if file exists
	Exists(ctx context.Context, path string) (bool, error)
}
