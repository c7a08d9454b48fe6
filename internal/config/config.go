// Package config defines the configuration model of a preparation run. A
// pipeline file (JSON or YAML, see Load) names the input, how it is parsed,
// the ordered transform chain, the sink and the ambient knobs for runtime,
// metrics and logging.
//
// Example (trimmed):
//
//	job: admissions
//	source:  { kind: file, file: { path: data/admissions.xlsx } }
//	parser:  { kind: xlsx, options: { sheet: Sheet1 } }
//	transform:
//	  - { kind: catalog, options: { name: admissions } }
//	storage: { kind: xlsx, file: { path: out/admissions_cleaned.xlsx } }
//
// Transform-specific settings travel in an Options bag whose shape is owned
// by the transform implementation.
package config

import "encoding/json"

// Pipeline describes a full preparation run.
type Pipeline struct {
	// Job names the run in logs and metrics.
	Job string `json:"job"`

	// Source describes where input data comes from (local file or object store).
	Source Source `json:"source"`

	// Parser configures how raw bytes are turned into a table (csv, xlsx).
	Parser Parser `json:"parser"`

	// Transform lists the ordered steps applied to the table. An empty list
	// runs the admissions catalog.
	Transform []Transform `json:"transform"`

	// Storage describes where the prepared table is written.
	Storage Storage       `json:"storage"`
	Runtime RuntimeConfig `json:"runtime"`
	Metrics MetricsConfig `json:"metrics"`
	Logging LoggingConfig `json:"logging"`
}

// RuntimeConfig controls concurrency and batching.
type RuntimeConfig struct {
	// Workers bounds the per-column fan-out of imputation steps. 0 or 1 runs
	// columns sequentially.
	Workers int `json:"workers"`

	// BatchSize is the number of rows per database write batch.
	BatchSize int `json:"batch_size"`
}

// Source identifies the data source.
type Source struct {
	// Kind selects the source implementation: "file" or "s3".
	Kind string `json:"kind"`

	File SourceFile `json:"file"`
	S3   SourceS3   `json:"s3"`

	// Compression overrides detection from the file extension: "none",
	// "gzip", "zstd", "lz4" or "bzip2".
	Compression string `json:"compression"`
}

// SourceFile holds configuration for the "file" source kind.
type SourceFile struct {
	// Path is the local filesystem path to the input file.
	Path string `json:"path"`
}

// SourceS3 holds configuration for the "s3" source kind (any S3-compatible
// object store).
type SourceS3 struct {
	Endpoint  string `json:"endpoint"`
	Bucket    string `json:"bucket"`
	Key       string `json:"key"`
	Region    string `json:"region"`
	AccessKey string `json:"access_key"`
	SecretKey string `json:"secret_key"`
	UseSSL    bool   `json:"use_ssl"`
}

// Parser selects how to parse the raw source into a table.
type Parser struct {
	// Kind selects the parser implementation: "csv" or "xlsx".
	Kind string `json:"kind"`

	// Options is a free-form map interpreted by the parser implementation.
	// For CSV: comma (string), trim_space (bool), missing_tokens ([]string).
	// For XLSX: sheet (string), missing_tokens ([]string).
	Options Options `json:"options"`
}

// Transform defines a single step of the chain.
type Transform struct {
	// Kind selects the step implementation (e.g. "normalize_schema",
	// "impute", "one_hot", "catalog").
	Kind string `json:"kind"`

	// Name optionally overrides the step name used in logs and metrics.
	Name string `json:"name"`

	// Options is a free-form map interpreted by the selected step.
	Options Options `json:"options"`
}

// Storage selects the sink used to persist the prepared table.
type Storage struct {
	// Kind selects the storage implementation: "csv", "xlsx", "sqlite",
	// "postgres" or "mssql".
	Kind string `json:"kind"`

	// File configures file sinks (csv, xlsx).
	File StorageFile `json:"file"`

	// DB configures database sinks.
	DB DBConfig `json:"db"`
}

// StorageFile configures a file sink.
type StorageFile struct {
	// Path is the output file. For csv a .gz/.zst/.lz4 suffix selects the
	// matching compression.
	Path string `json:"path"`

	// Sheet is the xlsx sheet name (default "Sheet1").
	Sheet string `json:"sheet"`
}

// DBConfig configures a database sink.
type DBConfig struct {
	// DSN is the driver connection string.
	DSN string `json:"dsn"`

	// Table is the destination table (optionally schema-qualified).
	Table string `json:"table"`

	// AutoCreateTable creates the table from the prepared table's columns
	// when it does not exist.
	AutoCreateTable bool `json:"auto_create_table"`

	// Truncate empties the table before loading.
	Truncate bool `json:"truncate"`
}

// MetricsConfig selects the metrics backend: "none", "pushgateway" or
// "datadog".
type MetricsConfig struct {
	Backend        string   `json:"backend"`
	PushgatewayURL string   `json:"pushgateway_url"`
	DatadogAddr    string   `json:"datadog_addr"`
	Namespace      string   `json:"namespace"`
	Tags           []string `json:"tags"`
}

// LoggingConfig controls the logger built by package logging.
type LoggingConfig struct {
	// Level is a zerolog level name (debug, info, warn, error). Default info.
	Level string `json:"level"`

	// Format is "json" (default) or "console".
	Format string `json:"format"`
}

// Options is a small helper to fetch typed values from arbitrary JSON maps.
// It performs only minimal type coercion and returns provided defaults when a
// key is absent or of an unexpected type.
type Options map[string]any

// String returns the string value for key or def if key is missing or not a string.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def if key is missing or not a bool.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Int returns the int value for key or def. JSON numbers are decoded as
// float64 by encoding/json, so this method accepts float64 and casts to int.
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

// Float returns the numeric value for key or def.
func (o Options) Float(key string, def float64) float64 {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return n
		case int:
			return float64(n)
		}
	}
	return def
}

// Rune returns the first rune of a string value for key, or def if key is
// missing or empty. Used for single-character parser settings such as a CSV
// delimiter.
func (o Options) Rune(key string, def rune) rune {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok && len(s) > 0 {
			return []rune(s)[0]
		}
	}
	return def
}

// StringMap returns a map[string]string for key when the value is an object
// whose values are strings. Non-string values are ignored.
func (o Options) StringMap(key string) map[string]string {
	res := map[string]string{}
	if v, ok := o[key]; ok {
		if m, ok := v.(map[string]any); ok {
			for k, vv := range m {
				if s, ok := vv.(string); ok {
					res[k] = s
				}
			}
		}
	}
	return res
}

// FloatMap returns a map[string]float64 for key when the value is an object
// with numeric values. Non-numeric values are ignored.
func (o Options) FloatMap(key string) map[string]float64 {
	res := map[string]float64{}
	if v, ok := o[key]; ok {
		switch m := v.(type) {
		case map[string]any:
			for k, vv := range m {
				switch n := vv.(type) {
				case float64:
					res[k] = n
				case int:
					res[k] = float64(n)
				}
			}
		case map[string]float64:
			for k, n := range m {
				res[k] = n
			}
		}
	}
	return res
}

// StringSlice returns a []string for key when the value is an array of
// strings. Non-string elements are skipped. Returns nil when the key is
// missing or the value is not an array.
func (o Options) StringSlice(key string) []string {
	if v, ok := o[key]; ok {
		switch vv := v.(type) {
		case []any:
			out := make([]string, 0, len(vv))
			for _, x := range vv {
				if s, ok := x.(string); ok {
					out = append(out, s)
				}
			}
			return out
		case []string:
			return vv
		}
	}
	return nil
}

// Any returns the raw value for key.
func (o Options) Any(key string) any {
	if v, ok := o[key]; ok {
		return v
	}
	return nil
}

// UnmarshalJSON makes a missing or null "options" object decode to a
// non-nil, empty Options map.
func (o *Options) UnmarshalJSON(b []byte) error {
	var tmp map[string]any
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}
