// Package config defines the JSON-serializable configuration model for the
// competitor export. A config file is optional: Default returns the
// conventional layout (source document beside the binary, CSV one directory
// up) and the CLI overlays flags and positional paths on top of it.
//
// The column schema is deliberately absent from this package. The 12 output
// columns are fixed in internal/transformer and cannot be changed at runtime.
//
// Example:
//
//	{
//	  "job":     "xmas",
//	  "source":  { "kind": "file", "file": { "path": "Xmas.json" } },
//	  "output":  { "path": "../competitors.csv", "options": { "line_ending": "lf", "bom": true } },
//	  "storage": { "kind": "sqlite", "db": { "dsn": "entries.db", "table": "competitors", "auto_create_table": true } },
//	  "runtime": { "batch_size": 500 },
//	  "metrics": { "backend": "pushgateway", "pushgateway_url": "http://localhost:9091" }
//	}
//
// An "http" source fetches the document from a results service instead:
//
//	"source": { "kind": "http", "http": { "url": "https://results.example.org/Xmas.json", "max_retries": 3 } }
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Conventional paths used when neither a config file nor arguments name them.
const (
	DefaultSourcePath = "Xmas.json"
	DefaultOutputPath = "../competitors.csv"
	DefaultJob        = "competitors"
	DefaultBatchSize  = 500
)

// Export is the top-level object decoded from an export config file.
type Export struct {
	// Job names the run for metrics grouping and log lines.
	Job string `json:"job"`

	Source  Source        `json:"source"`
	Output  Output        `json:"output"`
	Storage Storage       `json:"storage"`
	Runtime RuntimeConfig `json:"runtime"`
	Metrics Metrics       `json:"metrics"`
}

// Source identifies where the competitor document is read from.
type Source struct {
	// Kind selects the source implementation: "file" or "http".
	Kind string     `json:"kind"`
	File SourceFile `json:"file"`
	HTTP SourceHTTP `json:"http"`
}

// SourceFile holds configuration for the "file" source kind.
type SourceFile struct {
	Path string `json:"path"`
}

// SourceHTTP holds configuration for the "http" source kind, used to fetch
// the document straight from a results service.
type SourceHTTP struct {
	URL string `json:"url"`

	// TimeoutSeconds bounds each request. 0 selects the client default (30s).
	TimeoutSeconds int `json:"timeout_seconds"`

	// MaxRetries is the number of retries on 5xx, 429 or transport errors.
	MaxRetries int `json:"max_retries"`

	// InsecureSkipVerify disables TLS certificate verification.
	InsecureSkipVerify bool `json:"insecure_skip_verify"`

	// Headers are sent with every request (e.g. an API key).
	Headers map[string]string `json:"headers"`
}

// Name returns the path or URL the source reads from, per Kind.
func (s Source) Name() string {
	if s.Kind == "http" {
		return s.HTTP.URL
	}
	return s.File.Path
}

// Output describes the CSV destination.
type Output struct {
	Path string `json:"path"`

	// Options is interpreted by the CSV writer. Recognized keys:
	//   line_ending (string: "crlf" | "lf"), bom (bool)
	Options Options `json:"options"`
}

// Storage selects an optional table sink that mirrors the CSV rows. An empty
// Kind disables it.
type Storage struct {
	Kind string   `json:"kind"`
	DB   DBConfig `json:"db"`
}

// DBConfig configures the table sink.
type DBConfig struct {
	// DSN is passed to the backend driver unchanged.
	DSN string `json:"dsn"`

	// Table is the destination table, optionally schema-qualified
	// (e.g. "public.competitors").
	Table string `json:"table"`

	// AutoCreateTable creates the table with the fixed column set when it
	// does not exist yet. Default true.
	AutoCreateTable bool `json:"auto_create_table"`

	// Replace deletes existing rows before loading so the table mirrors the
	// current export instead of accumulating runs.
	Replace bool `json:"replace"`
}

// RuntimeConfig controls batching for the table sink.
type RuntimeConfig struct {
	BatchSize int `json:"batch_size"`
}

// Metrics selects the metrics backend.
type Metrics struct {
	// Backend is one of "", "none", "pushgateway", "datadog".
	Backend        string `json:"backend"`
	PushgatewayURL string `json:"pushgateway_url"`
	StatsdAddr     string `json:"statsd_addr"`
}

// Default returns the export used when no config file is given.
func Default() Export {
	return Export{
		Job:     DefaultJob,
		Source:  Source{Kind: "file", File: SourceFile{Path: DefaultSourcePath}},
		Output:  Output{Path: DefaultOutputPath, Options: Options{}},
		Storage: Storage{DB: DBConfig{AutoCreateTable: true}},
		Runtime: RuntimeConfig{BatchSize: DefaultBatchSize},
		Metrics: Metrics{Backend: "none"},
	}
}

// Load reads a JSON export config from path. Fields absent from the file keep
// the values from Default.
func Load(path string) (Export, error) {
	f, err := os.Open(path)
	if err != nil {
		return Export{}, fmt.Errorf("config: open: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode reads a JSON export config from r on top of Default.
func Decode(r io.Reader) (Export, error) {
	e := Default()
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&e); err != nil {
		return Export{}, fmt.Errorf("config: decode: %w", err)
	}
	if e.Output.Options == nil {
		e.Output.Options = Options{}
	}
	return e, nil
}

// Options is a small helper to fetch typed values from free-form JSON maps.
// It performs minimal coercion and returns the provided default when a key is
// absent or holds an unexpected type.
type Options map[string]any

// String returns the string value for key or def.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Int returns the int value for key or def. encoding/json decodes numbers as
// float64, so float64 is accepted and truncated.
func (o Options) Int(key string, def int) int {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		}
	}
	return def
}

// UnmarshalJSON makes a missing or null "options" object decode to an empty,
// non-nil Options map.
func (o *Options) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	var tmp map[string]any
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}
