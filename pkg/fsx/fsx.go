// Package fsx abstracts blob storage for uploaded documents.
package fsx

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned when the requested object does not exist.
var ErrNotFound = errors.New("fsx: file not found")

// FileReader is the read-only view used by the ingestion pipeline.
type FileReader interface {
	ReadFile(ctx context.Context, path string) ([]byte, error)
}

// FileSystem is the full blob-store contract used by the upload surface.
type FileSystem interface {
	FileReader
	WriteFile(ctx context.Context, path string, data []byte) error
	WriteFileStream(ctx context.Context, path string, r io.Reader) error
	ReadFileStream(ctx context.Context, path string) (io.ReadCloser, error)
	DeleteFile(ctx context.Context, path string) error
	Join(parts ...string) string
}
