// Package datasource defines where the competitor document comes from.
// Implementations live in subpackages (file, httpds).
package datasource

import (
	"context"
	"fmt"
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Source opens the raw competitor document.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	// Name is the path or URL, for errors and logs.
	Name() string
}

// ReadAll opens src and returns its contents as UTF-8.
//
// A leading byte order mark is consumed: a UTF-8 BOM is dropped and UTF-16
// input with a BOM (as written by some Windows export tools) is transcoded to
// UTF-8. Input without a BOM is passed through as UTF-8.
//
// Open errors are returned unchanged so callers can classify them.
func ReadAll(ctx context.Context, src Source) ([]byte, error) {
	rc, err := src.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	r := transform.NewReader(rc, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", src.Name(), err)
	}
	return b, nil
}
