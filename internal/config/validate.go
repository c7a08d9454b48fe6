package config

import (
	"fmt"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a finding that should be surfaced but does
	// not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding for a Pipeline.
//
// Path is a dotted path into the config (e.g. "storage.kind",
// "transform[1].options.columns"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue is an error.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// TransformKinds lists the step kinds the builtin registry understands.
var TransformKinds = []string{
	"catalog",
	"normalize_schema",
	"require_columns",
	"binary_map",
	"impute",
	"score_impute",
	"one_hot",
	"yes_no",
	"repair_negatives",
}

// ValidatePipeline performs static validation of a Pipeline. It does not
// mutate the pipeline; callers decide whether warnings are fatal.
func ValidatePipeline(p Pipeline) []Issue {
	var issues []Issue

	if strings.TrimSpace(p.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it labels logs and metrics",
		})
	}
	issues = append(issues, validateSource(p.Source)...)
	issues = append(issues, validateParser(p.Parser)...)
	issues = append(issues, validateTransforms(p.Transform)...)
	issues = append(issues, validateStorage(p.Storage)...)
	issues = append(issues, validateRuntime(p.Runtime)...)
	issues = append(issues, validateMetrics(p.Metrics)...)
	issues = append(issues, validateLogging(p.Logging)...)

	return issues
}

func validateSource(s Source) []Issue {
	var issues []Issue

	switch s.Kind {
	case "":
		return append(issues, Issue{SeverityError, "source.kind", "source.kind must not be empty"})
	case "file":
		if strings.TrimSpace(s.File.Path) == "" {
			issues = append(issues, Issue{SeverityError, "source.file.path", "file source requires a non-empty path"})
		}
	case "s3":
		if s.S3.Endpoint == "" {
			issues = append(issues, Issue{SeverityError, "source.s3.endpoint", "s3 source requires an endpoint"})
		}
		if s.S3.Bucket == "" || s.S3.Key == "" {
			issues = append(issues, Issue{SeverityError, "source.s3", "s3 source requires bucket and key"})
		}
	default:
		issues = append(issues, Issue{SeverityError, "source.kind", fmt.Sprintf("unknown source kind %q", s.Kind)})
	}

	switch s.Compression {
	case "", "none", "gzip", "zstd", "lz4", "bzip2":
	default:
		issues = append(issues, Issue{SeverityError, "source.compression", fmt.Sprintf("unknown compression %q", s.Compression)})
	}
	return issues
}

func validateParser(p Parser) []Issue {
	switch p.Kind {
	case "":
		return []Issue{{SeverityError, "parser.kind", "parser.kind must not be empty"}}
	case "csv":
		if c := p.Options.String("comma", ","); len([]rune(c)) != 1 {
			return []Issue{{SeverityError, "parser.options.comma", "comma must be a single character"}}
		}
	case "xlsx":
	default:
		return []Issue{{SeverityError, "parser.kind", fmt.Sprintf("unknown parser kind %q", p.Kind)}}
	}
	return nil
}

func validateTransforms(ts []Transform) []Issue {
	var issues []Issue

	if len(ts) == 0 {
		return []Issue{{SeverityWarning, "transform", "no transforms configured; the admissions catalog will run"}}
	}

	known := map[string]struct{}{}
	for _, k := range TransformKinds {
		known[k] = struct{}{}
	}

	for i, t := range ts {
		path := fmt.Sprintf("transform[%d]", i)
		if strings.TrimSpace(t.Kind) == "" {
			issues = append(issues, Issue{SeverityError, path + ".kind", "transform kind must not be empty"})
			continue
		}
		if _, ok := known[t.Kind]; !ok {
			issues = append(issues, Issue{SeverityError, path + ".kind", fmt.Sprintf("unknown transform kind %q", t.Kind)})
			continue
		}

		needColumn := func() {
			if t.Options.String("column", "") == "" {
				issues = append(issues, Issue{SeverityError, path + ".options.column", t.Kind + " requires a column"})
			}
		}
		needColumns := func() {
			if len(t.Options.StringSlice("columns")) == 0 {
				issues = append(issues, Issue{SeverityError, path + ".options.columns", t.Kind + " requires at least one column"})
			}
		}

		switch t.Kind {
		case "impute":
			needColumns()
			switch s := t.Options.String("strategy", ""); s {
			case "mean", "mode":
			default:
				issues = append(issues, Issue{SeverityError, path + ".options.strategy", fmt.Sprintf("strategy must be mean or mode, got %q", s)})
			}
		case "yes_no", "require_columns":
			needColumns()
		case "binary_map":
			needColumn()
			if len(t.Options.FloatMap("mapping")) < 2 {
				issues = append(issues, Issue{SeverityError, path + ".options.mapping", "binary_map requires a mapping with at least two entries"})
			}
		case "score_impute", "repair_negatives":
			needColumn()
		case "one_hot":
			needColumn()
			if len(t.Options.StringSlice("categories")) == 0 {
				issues = append(issues, Issue{SeverityError, path + ".options.categories", "one_hot requires declared categories"})
			}
			if t.Options.String("missing", "absent") == "default" && t.Options.String("default", "") == "" {
				issues = append(issues, Issue{SeverityError, path + ".options.default", "missing policy \"default\" requires a default category"})
			}
		case "catalog":
			if n := t.Options.String("name", "admissions"); n != "admissions" {
				issues = append(issues, Issue{SeverityError, path + ".options.name", fmt.Sprintf("unknown catalog %q", n)})
			}
		}
	}

	return issues
}

func validateStorage(s Storage) []Issue {
	var issues []Issue

	switch s.Kind {
	case "":
		return []Issue{{SeverityError, "storage.kind", "storage.kind must not be empty"}}
	case "csv", "xlsx":
		if strings.TrimSpace(s.File.Path) == "" {
			issues = append(issues, Issue{SeverityError, "storage.file.path", s.Kind + " storage requires a path"})
		}
	case "sqlite", "postgres", "mssql":
		if strings.TrimSpace(s.DB.DSN) == "" {
			issues = append(issues, Issue{SeverityError, "storage.db.dsn", "storage.db.dsn must not be empty"})
		}
		if strings.TrimSpace(s.DB.Table) == "" {
			issues = append(issues, Issue{SeverityError, "storage.db.table", "storage.db.table must not be empty"})
		}
		if !s.DB.AutoCreateTable {
			issues = append(issues, Issue{SeverityWarning, "storage.db.auto_create_table", "auto_create_table is false; the table must already match the prepared columns"})
		}
	default:
		issues = append(issues, Issue{SeverityWarning, "storage.kind", fmt.Sprintf("unknown storage kind %q; ensure a matching backend is registered", s.Kind)})
	}
	return issues
}

func validateRuntime(r RuntimeConfig) []Issue {
	var issues []Issue
	if r.Workers < 0 {
		issues = append(issues, Issue{SeverityError, "runtime.workers", "workers must not be negative"})
	}
	if r.BatchSize < 0 {
		issues = append(issues, Issue{SeverityError, "runtime.batch_size", "batch_size must not be negative"})
	}
	return issues
}

func validateMetrics(m MetricsConfig) []Issue {
	switch strings.ToLower(m.Backend) {
	case "", "none":
	case "pushgateway", "prometheus":
		if m.PushgatewayURL == "" {
			return []Issue{{SeverityError, "metrics.pushgateway_url", "pushgateway backend requires pushgateway_url (or PUSHGATEWAY_URL)"}}
		}
	case "datadog":
		if m.DatadogAddr == "" {
			return []Issue{{SeverityWarning, "metrics.datadog_addr", "datadog_addr empty; 127.0.0.1:8125 will be used"}}
		}
	default:
		return []Issue{{SeverityError, "metrics.backend", fmt.Sprintf("unknown metrics backend %q", m.Backend)}}
	}
	return nil
}

func validateLogging(l LoggingConfig) []Issue {
	var issues []Issue
	switch strings.ToLower(l.Format) {
	case "", "json", "console":
	default:
		issues = append(issues, Issue{SeverityError, "logging.format", fmt.Sprintf("unknown log format %q", l.Format)})
	}
	switch strings.ToLower(l.Level) {
	case "", "trace", "debug", "info", "warn", "error":
	default:
		issues = append(issues, Issue{SeverityError, "logging.level", fmt.Sprintf("unknown log level %q", l.Level)})
	}
	return issues
}
