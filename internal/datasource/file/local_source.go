// Package file implements a local filesystem-backed data source.
package file

import (
	"context"
	"fmt"
	"io"
	"os"

	"regatta/internal/datasource"
)

// Local is a filesystem data source that opens files from the local disk.
type Local struct{ path string }

// NewLocal returns a new Local data source bound to the provided filesystem
// path.
func NewLocal(path string) *Local { return &Local{path: path} }

var _ datasource.Source = (*Local)(nil)

// Path returns the configured path.
func (l *Local) Path() string { return l.path }

// Name implements datasource.Source.
func (l *Local) Name() string { return l.path }

// Open opens the configured path for reading.
//
// Behavior:
//   - If ctx is already done, Open returns ctx.Err() without touching the
//     filesystem.
//   - Filesystem errors are wrapped with the path while still permitting
//     errors.Is checks (e.g. errors.Is(err, os.ErrNotExist)).
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	return f, nil
}

// ReadAll opens the file and returns its contents as UTF-8, consuming a
// leading byte order mark (see datasource.ReadAll).
func (l *Local) ReadAll(ctx context.Context) ([]byte, error) {
	return datasource.ReadAll(ctx, l)
}
