package config

import (
	"fmt"
	"net/url"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError blocks execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is surfaced to users but does not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single lint finding. Path is a dotted path into the config
// (e.g. "storage.db.table").
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be returned as an error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue has SeverityError.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// known storage kinds; must match the backends registered by
// internal/storage/all.
var storageKinds = map[string]struct{}{
	"sqlite":   {},
	"postgres": {},
	"mssql":    {},
	"mysql":    {},
}

// ValidateExport performs static validation of an Export. It does not mutate
// e; callers decide whether warnings are fatal.
func ValidateExport(e Export) []Issue {
	var issues []Issue

	if strings.TrimSpace(e.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "job",
			Message:  fmt.Sprintf("job is empty; metrics will be grouped under %q", DefaultJob),
		})
	}
	issues = append(issues, validateSource(e.Source)...)
	issues = append(issues, validateOutput(e.Output, e.Source)...)
	issues = append(issues, validateStorage(e.Storage)...)
	issues = append(issues, validateRuntime(e.Runtime)...)
	issues = append(issues, validateMetrics(e.Metrics)...)
	return issues
}

func validateSource(s Source) []Issue {
	var issues []Issue
	switch s.Kind {
	case "file":
		if strings.TrimSpace(s.File.Path) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.file.path",
				Message:  "source path must not be empty",
			})
		}
	case "http":
		if u, err := url.Parse(s.HTTP.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.http.url",
				Message:  fmt.Sprintf("source url %q must be an absolute http(s) URL", s.HTTP.URL),
			})
		}
		if s.HTTP.TimeoutSeconds < 0 {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.http.timeout_seconds",
				Message:  "timeout_seconds must be >= 0 (0 selects the default)",
			})
		}
		if s.HTTP.MaxRetries < 0 {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.http.max_retries",
				Message:  "max_retries must be >= 0",
			})
		}
		if s.HTTP.InsecureSkipVerify {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "source.http.insecure_skip_verify",
				Message:  "TLS certificate verification is disabled",
			})
		}
	case "":
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.kind",
			Message:  "source.kind must not be empty",
		})
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.kind",
			Message:  fmt.Sprintf("unsupported source kind %q (want \"file\" or \"http\")", s.Kind),
		})
	}
	return issues
}

func validateOutput(o Output, s Source) []Issue {
	var issues []Issue
	if strings.TrimSpace(o.Path) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "output.path",
			Message:  "output path must not be empty",
		})
	} else if s.Kind == "file" && o.Path == s.File.Path {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "output.path",
			Message:  "output path must differ from the source path",
		})
	}

	switch le := o.Options.String("line_ending", "crlf"); le {
	case "crlf", "lf":
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "output.options.line_ending",
			Message:  fmt.Sprintf("unknown line ending %q (want \"crlf\" or \"lf\")", le),
		})
	}
	for k := range o.Options {
		switch k {
		case "line_ending", "bom":
		default:
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "output.options." + k,
				Message:  "unknown output option; it is ignored",
			})
		}
	}
	return issues
}

func validateStorage(s Storage) []Issue {
	var issues []Issue
	if s.Kind == "" {
		return nil
	}
	if _, ok := storageKinds[s.Kind]; !ok {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.kind",
			Message:  fmt.Sprintf("unknown storage kind %q", s.Kind),
		})
	}
	if strings.TrimSpace(s.DB.DSN) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.db.dsn",
			Message:  "storage requires a non-empty dsn",
		})
	}
	if strings.TrimSpace(s.DB.Table) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.db.table",
			Message:  "storage requires a non-empty table",
		})
	}
	return issues
}

func validateRuntime(r RuntimeConfig) []Issue {
	if r.BatchSize < 0 {
		return []Issue{{
			Severity: SeverityError,
			Path:     "runtime.batch_size",
			Message:  "batch_size must be >= 0 (0 selects the default)",
		}}
	}
	return nil
}

func validateMetrics(m Metrics) []Issue {
	var issues []Issue
	switch m.Backend {
	case "", "none":
	case "pushgateway":
		if strings.TrimSpace(m.PushgatewayURL) == "" {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "metrics.pushgateway_url",
				Message:  "pushgateway_url is empty; http://localhost:9091 is used",
			})
		}
	case "datadog":
		if strings.TrimSpace(m.StatsdAddr) == "" {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "metrics.statsd_addr",
				Message:  "statsd_addr is empty; 127.0.0.1:8125 is used",
			})
		}
	default:
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "metrics.backend",
			Message:  fmt.Sprintf("unknown metrics backend %q; metrics disabled", m.Backend),
		})
	}
	return issues
}
