// Package csv writes the export table as an RFC 4180 CSV file.
//
// Fields are quoted only when they contain the delimiter, a quote, or a line
// break (encoding/csv also quotes a leading space); empty strings are written
// as empty fields. Files are replaced atomically, so a failed write never
// leaves a truncated CSV where a spreadsheet will pick it up.
package csv

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/zeebo/xxh3"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"regatta/internal/config"
	"regatta/internal/transformer"
)

// Line endings accepted by Options.LineEnding.
const (
	CRLF = "crlf"
	LF   = "lf"
)

// Options configures the output encoding. The zero value writes CRLF line
// endings without a byte order mark.
type Options struct {
	// LineEnding is CRLF (default) or LF.
	LineEnding string

	// BOM prefixes the file with a UTF-8 byte order mark, which some
	// spreadsheet tools need to detect UTF-8.
	BOM bool
}

// FromConfigOptions builds Options from an output options bag.
func FromConfigOptions(o config.Options) Options {
	return Options{
		LineEnding: o.String("line_ending", CRLF),
		BOM:        o.Bool("bom", false),
	}
}

// Stats describes a written table.
type Stats struct {
	// Rows is the number of data rows, header excluded.
	Rows int
	// Bytes is the encoded size including the BOM, if any.
	Bytes int64
	// Checksum is the xxh3-64 digest of the encoded bytes, as 16 hex digits.
	Checksum string
}

// Write encodes t to w.
func Write(w io.Writer, t transformer.Table, opt Options) (Stats, error) {
	if opt.LineEnding != "" && opt.LineEnding != CRLF && opt.LineEnding != LF {
		return Stats{}, fmt.Errorf("csv: unknown line ending %q", opt.LineEnding)
	}

	h := xxh3.New()
	cw := &countingWriter{w: io.MultiWriter(w, h)}

	var (
		out io.Writer = cw
		tw  *transform.Writer
	)
	if opt.BOM {
		tw = transform.NewWriter(cw, unicode.UTF8BOM.NewEncoder())
		out = tw
	}

	rw := newRecordWriter(out, opt.LineEnding != LF)
	if err := rw.Write(t.Header); err != nil {
		return Stats{}, fmt.Errorf("csv: write header: %w", err)
	}
	for i, r := range t.Rows {
		if err := rw.Write(r); err != nil {
			return Stats{}, fmt.Errorf("csv: write row %d: %w", i+1, err)
		}
	}
	if tw != nil {
		if err := tw.Close(); err != nil {
			return Stats{}, fmt.Errorf("csv: encode: %w", err)
		}
	}

	return Stats{
		Rows:     len(t.Rows),
		Bytes:    cw.n,
		Checksum: fmt.Sprintf("%016x", h.Sum64()),
	}, nil
}

// WriteFile writes t to path, replacing any existing file. The table is
// written to a temporary file in the same directory and renamed into place;
// on error the temporary file is removed and path is left as it was.
func WriteFile(path string, t transformer.Table, opt Options) (st Stats, err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return Stats{}, fmt.Errorf("csv: create temp file in %s: %w", dir, err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	bw := bufio.NewWriter(tmp)
	if st, err = Write(bw, t, opt); err != nil {
		return Stats{}, err
	}
	if err = bw.Flush(); err != nil {
		return Stats{}, fmt.Errorf("csv: write %s: %w", path, err)
	}
	if err = tmp.Chmod(0o644); err != nil {
		return Stats{}, fmt.Errorf("csv: chmod %s: %w", tmp.Name(), err)
	}
	if err = tmp.Close(); err != nil {
		return Stats{}, fmt.Errorf("csv: close %s: %w", tmp.Name(), err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return Stats{}, fmt.Errorf("csv: replace %s: %w", path, err)
	}
	return st, nil
}

// recordWriter encodes one record at a time with encoding/csv and rewrites
// only the record terminator. Line breaks inside quoted fields are copied
// verbatim, which csv.Writer.UseCRLF would not do.
type recordWriter struct {
	w    io.Writer
	crlf bool
	buf  bytes.Buffer
	enc  *csv.Writer
}

func newRecordWriter(w io.Writer, crlf bool) *recordWriter {
	rw := &recordWriter{w: w, crlf: crlf}
	rw.enc = csv.NewWriter(&rw.buf)
	return rw
}

func (rw *recordWriter) Write(record []string) error {
	rw.buf.Reset()
	if err := rw.enc.Write(record); err != nil {
		return err
	}
	rw.enc.Flush()
	if err := rw.enc.Error(); err != nil {
		return err
	}
	b := rw.buf.Bytes()
	if rw.crlf {
		// b always ends in the '\n' csv.Writer appends.
		b = append(b[:len(b)-1], '\r', '\n')
	}
	_, err := rw.w.Write(b)
	return err
}

// countingWriter counts bytes passed through to w.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
