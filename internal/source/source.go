// Package source lists and opens the documents of a batch, from a local
// directory, a zip archive or an S3 compatible bucket. Names are slash
// separated and relative to the source root.
package source

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
)

// ErrBadPattern means a glob pattern could not be parsed
var ErrBadPattern = errors.New("source: malformed pattern")

// Source lists and opens documents.
type Source interface {
	// List returns the names matching a doublestar glob pattern, sorted.
	List(ctx context.Context, pattern string) ([]string, error)
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// Siblings returns the other files of the directory holding name.
func Siblings(ctx context.Context, src Source, name string) ([]string, error) {
	all, err := src.List(ctx, path.Join(path.Dir(name), "*"))
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(all, func(s string) bool { return s == name }), nil
}

// FS is a Source reading an fs.FS.
type FS struct {
	fsys   fs.FS
	closer io.Closer
}

// NewFS returns a Source over fsys.
func NewFS(fsys fs.FS) *FS {
	return &FS{fsys: fsys}
}

// Dir returns a Source over the local directory dir.
func Dir(dir string) (*FS, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("source: %s is not a directory", dir)
	}
	return NewFS(os.DirFS(dir)), nil
}

// Zip returns a Source over the members of a zip archive. It must be
// closed after use.
func Zip(file string) (*FS, error) {
	r, err := zip.OpenReader(file)
	if err != nil {
		return nil, err
	}
	return &FS{fsys: r, closer: r}, nil
}

// List implements Source. Directories are not listed.
func (s *FS) List(ctx context.Context, pattern string) ([]string, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("%w: %q", ErrBadPattern, pattern)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	names, err := doublestar.Glob(s.fsys, pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, err
	}
	slices.Sort(names)
	return names, nil
}

// Open implements Source.
func (s *FS) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.fsys.Open(name)
}

// Close releases the archive of a zip source. It is a no-op for other
// sources.
func (s *FS) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}
