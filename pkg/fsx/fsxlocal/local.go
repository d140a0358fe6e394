// Package fsxlocal stores blobs on the local filesystem under a base
// directory. Default backend for single-node deployments and tests.
package fsxlocal

import (
	"context"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/hirelens/hirelens/pkg/fsx"
)

// LocalFileSystem implements fsx.FileSystem rooted at base.
type LocalFileSystem struct {
	base string
}

// NewLocalFileSystem creates the base directory if needed.
func NewLocalFileSystem(base string) (*LocalFileSystem, error) {
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, err
	}
	return &LocalFileSystem{base: base}, nil
}

// resolve confines every path under base; leading separators and dot
// segments are stripped before joining.
func (l *LocalFileSystem) resolve(p string) string {
	return filepath.Join(l.base, filepath.FromSlash(path.Clean("/"+p)))
}

func (l *LocalFileSystem) ReadFile(_ context.Context, p string) ([]byte, error) {
	data, err := os.ReadFile(l.resolve(p))
	if os.IsNotExist(err) {
		return nil, fsx.ErrNotFound
	}
	return data, err
}

func (l *LocalFileSystem) WriteFile(_ context.Context, p string, data []byte) error {
	full := l.resolve(p)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	return os.WriteFile(full, data, 0o644)
}

func (l *LocalFileSystem) WriteFileStream(_ context.Context, p string, r io.Reader) error {
	full := l.resolve(p)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	f, err := os.Create(full)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(f, r)
	return err
}

func (l *LocalFileSystem) ReadFileStream(_ context.Context, p string) (io.ReadCloser, error) {
	f, err := os.Open(l.resolve(p))
	if os.IsNotExist(err) {
		return nil, fsx.ErrNotFound
	}
	return f, err
}

func (l *LocalFileSystem) DeleteFile(_ context.Context, p string) error {
	err := os.Remove(l.resolve(p))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (l *LocalFileSystem) Join(parts ...string) string {
	return path.Join(parts...)
}
