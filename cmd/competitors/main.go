// Command competitors converts a regatta competitor document (Xmas.json) into
// competitors.csv, optionally mirroring the rows into a database table.
//
// Usage:
//
//	competitors [flags] [SOURCE [DESTINATION]]
//
// With no arguments it reads Xmas.json and writes ../competitors.csv. A SOURCE
// starting with http:// or https:// is fetched from a results service.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"regatta/internal/config"
	"regatta/internal/etl"
	"regatta/internal/metrics"
	"regatta/internal/metrics/datadog"
	"regatta/internal/metrics/prompush"
	csvwriter "regatta/internal/writer/csv"

	// register all backends with the storage factory.
	_ "regatta/internal/storage/all"
)

const (
	defaultPushgatewayURL = "http://localhost:9091"
	defaultStatsdAddr     = "127.0.0.1:8125"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run is main without the process exit, returning the exit code.
func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("competitors", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: competitors [flags] [SOURCE [DESTINATION]]\n")
		fs.PrintDefaults()
	}

	var (
		cfgPath        = fs.String("config", "", "export config JSON path (optional)")
		validate       = fs.Bool("validate", false, "validate the configuration and exit")
		metricsBackend = fs.String("metrics-backend", "", "metrics backend: none, pushgateway, datadog (overrides config)")
		pushGatewayURL = fs.String("pushgateway-url", "", "Pushgateway base URL (overrides config)")
		statsdAddr     = fs.String("statsd-addr", "", "DogStatsD address (overrides config)")
		sink           = fs.String("sink", "", "table sink kind: sqlite, postgres, mssql, mysql (overrides config)")
		dsn            = fs.String("dsn", "", "table sink DSN (overrides config)")
		table          = fs.String("table", "", "table sink table name (overrides config)")
		bom            = fs.Bool("bom", false, "prefix the CSV with a UTF-8 byte order mark")
		lf             = fs.Bool("lf", false, "write LF line endings instead of CRLF")
		verbose        = fs.Bool("v", false, "enable verbose logs")
	)
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() > 2 {
		fs.Usage()
		return 2
	}

	logger := log.New(stderr, "", log.LstdFlags)
	log.SetOutput(stderr)

	e := config.Default()
	if *cfgPath != "" {
		var err error
		if e, err = config.Load(*cfgPath); err != nil {
			fmt.Fprintf(stderr, "%v\n", err)
			return 1
		}
	}

	// Positional paths and flags override the config.
	if fs.NArg() > 0 {
		if arg := fs.Arg(0); strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://") {
			e.Source.Kind, e.Source.HTTP.URL = "http", arg
		} else {
			e.Source.Kind, e.Source.File.Path = "file", arg
		}
	}
	if fs.NArg() > 1 {
		e.Output.Path = fs.Arg(1)
	}
	if *bom {
		e.Output.Options["bom"] = true
	}
	if *lf {
		e.Output.Options["line_ending"] = csvwriter.LF
	}
	if *sink != "" {
		e.Storage.Kind = *sink
	}
	if *dsn != "" {
		e.Storage.DB.DSN = *dsn
	}
	if *table != "" {
		e.Storage.DB.Table = *table
	}
	if *metricsBackend != "" {
		e.Metrics.Backend = *metricsBackend
	}
	if *pushGatewayURL != "" {
		e.Metrics.PushgatewayURL = *pushGatewayURL
	}
	if *statsdAddr != "" {
		e.Metrics.StatsdAddr = *statsdAddr
	}

	issues := config.ValidateExport(e)
	for _, iss := range issues {
		fmt.Fprintf(stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		logger.Printf("Configuration is invalid")
		return 1
	}
	if *validate {
		logger.Printf("Configuration is valid")
		return 0
	}

	if flush := setupMetrics(logger, e, *verbose); flush != nil {
		defer flush()
	}

	if *verbose {
		logger.Printf("export: job=%s source=%s destination=%s storage=%q table=%q",
			e.Job, e.Source.Name(), e.Output.Path, e.Storage.Kind, e.Storage.DB.Table)
	}

	start := time.Now()
	res, err := etl.Run(context.Background(), e)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	fmt.Fprintf(stdout, "✓ Successfully converted %s to %s\n", res.Source, res.Destination)
	fmt.Fprintf(stdout, "  Exported %d competitors\n", res.Written)

	if *verbose {
		if res.Stored > 0 {
			logger.Printf("stored %d rows into %s", res.Stored, e.Storage.DB.Table)
		}
		logger.Printf("completed in %s", time.Since(start).Truncate(time.Millisecond))
	}
	return 0
}

// setupMetrics installs the configured metrics backend and returns its flush
// function, or nil when metrics are disabled.
func setupMetrics(logger *log.Logger, e config.Export, verbose bool) func() {
	var (
		b   metrics.Backend
		err error
	)
	switch e.Metrics.Backend {
	case "pushgateway":
		url := e.Metrics.PushgatewayURL
		if url == "" {
			url = defaultPushgatewayURL
		}
		b, err = prompush.NewBackend(e.Job, url)
		if err == nil {
			logger.Printf("metrics: backend=pushgateway url=%s job=%s", url, e.Job)
		}

	case "datadog":
		addr := e.Metrics.StatsdAddr
		if addr == "" {
			addr = defaultStatsdAddr
		}
		b, err = datadog.NewBackend(datadog.Config{
			Addr:       addr,
			Namespace:  "regatta.",
			GlobalTags: []string{"job:" + e.Job},
		})
		if err == nil {
			logger.Printf("metrics: backend=datadog addr=%s", addr)
		}

	case "", "none":
		if verbose {
			logger.Printf("metrics: disabled")
		}
		return nil

	default:
		logger.Printf("metrics: unknown backend %q; metrics disabled", e.Metrics.Backend)
		return nil
	}

	if err != nil {
		logger.Printf("metrics: init %s backend: %v; using nop", e.Metrics.Backend, err)
		return nil
	}
	metrics.SetBackend(b)
	return func() {
		if err := metrics.Flush(); err != nil {
			logger.Printf("metrics: flush error: %v", err)
		}
	}
}
