// Package etl converts a regatta competitor document, read from a file or a
// results service URL, into the fixed 12-column CSV, optionally mirroring the
// rows into a database table.
//
// Transform is the plain conversion. Run performs the same conversion from a
// config.Export and reports what it did.
package etl

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"regatta/internal/config"
	"regatta/internal/datasource"
	"regatta/internal/datasource/file"
	"regatta/internal/datasource/httpds"
	"regatta/internal/metrics"
	jsonparser "regatta/internal/parser/json"
	"regatta/internal/storage"
	"regatta/internal/transformer"
	csvwriter "regatta/internal/writer/csv"
)

// Result summarizes one export.
type Result struct {
	Source      string
	Destination string

	// Read is the number of competitor records in the source.
	Read int
	// Skipped is the number of records without a sail number.
	Skipped int
	// Written is the number of data rows in the CSV.
	Written int

	// Bytes is the size of the CSV file.
	Bytes int64
	// Checksum is the xxh3-64 digest of the CSV file, as 16 hex digits.
	Checksum string

	// Stored is the number of rows copied into the table sink, 0 when the
	// sink is disabled.
	Stored int64
}

// Transform reads the competitor document at src and writes the CSV to dst,
// returning the number of data rows written.
//
// A missing src yields *NotFoundError, a malformed one *ParseError, and other
// read or write failures *IOError. dst is not touched unless the whole table
// was built.
func Transform(src, dst string) (int, error) {
	e := config.Default()
	e.Source.File.Path = src
	e.Output.Path = dst
	res, err := Run(context.Background(), e)
	return res.Written, err
}

// Run performs the export described by e.
func Run(ctx context.Context, e config.Export) (Result, error) {
	job := e.Job
	if job == "" {
		job = config.DefaultJob
	}
	src, dst := e.Source.Name(), e.Output.Path
	res := Result{Source: src, Destination: dst}

	source, err := newSource(e.Source)
	if err != nil {
		return res, err
	}

	// 1) Read and decode.
	start := time.Now()
	doc, err := readDocument(ctx, source)
	metrics.RecordStep(job, "read", err, time.Since(start))
	if err != nil {
		return res, err
	}

	// 2) Filter and project.
	start = time.Now()
	table, st := transformer.Build(doc.Competitors)
	metrics.RecordStep(job, "transform", nil, time.Since(start))
	res.Read, res.Skipped = st.Read, st.Skipped
	metrics.RecordRow(job, "read", int64(st.Read))
	metrics.RecordRow(job, "skipped", int64(st.Skipped))

	// 3) Sinks. The table is complete at this point; both sinks only read it.
	var (
		ws     csvwriter.Stats
		stored int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		start := time.Now()
		var err error
		ws, err = csvwriter.WriteFile(dst, table, csvwriter.FromConfigOptions(e.Output.Options))
		metrics.RecordStep(job, "write", err, time.Since(start))
		if err != nil {
			return &IOError{Path: dst, Err: err}
		}
		return nil
	})
	if e.Storage.Kind != "" {
		g.Go(func() error {
			start := time.Now()
			var err error
			stored, err = store(gctx, job, e, table)
			metrics.RecordStep(job, "store", err, time.Since(start))
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return res, err
	}

	res.Written, res.Bytes, res.Checksum = ws.Rows, ws.Bytes, ws.Checksum
	res.Stored = stored
	metrics.RecordRow(job, "written", int64(ws.Rows))
	metrics.RecordRow(job, "stored", stored)

	log.Printf("etl: converted %s to %s: rows=%d skipped=%d size=%s xxh3=%s",
		src, dst, res.Written, res.Skipped, humanize.Bytes(uint64(res.Bytes)), res.Checksum)
	return res, nil
}

// newSource builds the datasource for s.
func newSource(s config.Source) (datasource.Source, error) {
	switch s.Kind {
	case "file", "":
		return file.NewLocal(s.File.Path), nil
	case "http":
		hdr := make(http.Header, len(s.HTTP.Headers))
		for k, v := range s.HTTP.Headers {
			hdr.Set(k, v)
		}
		return httpds.NewSource(s.HTTP.URL, httpds.Config{
			Timeout:            time.Duration(s.HTTP.TimeoutSeconds) * time.Second,
			MaxRetries:         s.HTTP.MaxRetries,
			InsecureSkipVerify: s.HTTP.InsecureSkipVerify,
			Headers:            hdr,
		}), nil
	default:
		return nil, fmt.Errorf("etl: unsupported source.kind=%s", s.Kind)
	}
}

// readDocument reads and decodes the source, classifying failures.
func readDocument(ctx context.Context, src datasource.Source) (jsonparser.Document, error) {
	raw, err := datasource.ReadAll(ctx, src)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return jsonparser.Document{}, &NotFoundError{Path: src.Name(), Err: err}
		}
		return jsonparser.Document{}, &IOError{Path: src.Name(), Err: err}
	}
	doc, err := jsonparser.DecodeBytes(raw)
	if err != nil {
		return jsonparser.Document{}, &ParseError{Path: src.Name(), Err: err}
	}
	return doc, nil
}

// store mirrors the table into the configured storage backend.
func store(ctx context.Context, job string, e config.Export, t transformer.Table) (int64, error) {
	batch := e.Runtime.BatchSize
	if batch <= 0 {
		batch = config.DefaultBatchSize
	}
	cfg := storage.Config{
		Kind:    e.Storage.Kind,
		DSN:     e.Storage.DB.DSN,
		Table:   e.Storage.DB.Table,
		Columns: transformer.SQLColumns(),
	}
	n, err := storage.Load(ctx, cfg, storage.LoadOptions{
		BatchSize:       batch,
		AutoCreateTable: e.Storage.DB.AutoCreateTable,
		Replace:         e.Storage.DB.Replace,
	}, t.AnyRows())
	if err != nil {
		return n, fmt.Errorf("etl: store %s into %s: %w", cfg.Kind, cfg.Table, err)
	}
	metrics.RecordBatches(job, int64((t.Len()+batch-1)/batch))
	return n, nil
}
