package config

import (
	"strings"
	"testing"
)

// hasIssue reports whether issues contains an Issue with the given severity,
// path, and a Message containing msgSubstr.
func hasIssue(t *testing.T, issues []Issue, sev IssueSeverity, path, msgSubstr string) bool {
	t.Helper()
	for _, iss := range issues {
		if iss.Severity == sev && iss.Path == path && strings.Contains(iss.Message, msgSubstr) {
			return true
		}
	}
	return false
}

func validPipeline() Pipeline {
	return Pipeline{
		Job:    "admissions",
		Source: Source{Kind: "file", File: SourceFile{Path: "in.xlsx"}},
		Parser: Parser{Kind: "xlsx", Options: Options{}},
		Transform: []Transform{
			{Kind: "normalize_schema", Options: Options{}},
			{Kind: "impute", Options: Options{"columns": []any{"BMI"}, "strategy": "mean"}},
			{Kind: "one_hot", Options: Options{"column": "Dx", "categories": []any{"A", "B"}, "missing": "absent"}},
		},
		Storage: Storage{Kind: "csv", File: StorageFile{Path: "out.csv"}},
		Runtime: RuntimeConfig{Workers: 2},
	}
}

/*
TestValidatePipeline_ValidMinimal verifies that a well-formed pipeline produces
no issues (errors or warnings).
*/
func TestValidatePipeline_ValidMinimal(t *testing.T) {
	if issues := ValidatePipeline(validPipeline()); len(issues) != 0 {
		t.Fatalf("expected no issues for valid pipeline; got: %+v", issues)
	}
}

func TestValidatePipeline_MissingJob(t *testing.T) {
	p := validPipeline()
	p.Job = "  "
	issues := ValidatePipeline(p)
	if !hasIssue(t, issues, SeverityError, "job", "job must not be empty") {
		t.Fatalf("expected SeverityError for job; got issues: %+v", issues)
	}
	if !HasErrors(issues) {
		t.Fatalf("HasErrors = false, want true")
	}
}

func TestValidateSource_Cases(t *testing.T) {
	tests := []struct {
		name string
		src  Source
		path string
		msg  string
	}{
		{"missing_kind", Source{}, "source.kind", "must not be empty"},
		{"unknown_kind", Source{Kind: "ftp"}, "source.kind", "unknown source kind"},
		{"file_without_path", Source{Kind: "file"}, "source.file.path", "non-empty path"},
		{"s3_without_endpoint", Source{Kind: "s3", S3: SourceS3{Bucket: "b", Key: "k"}}, "source.s3.endpoint", "endpoint"},
		{"s3_without_key", Source{Kind: "s3", S3: SourceS3{Endpoint: "minio:9000", Bucket: "b"}}, "source.s3", "bucket and key"},
		{"bad_compression", Source{Kind: "file", File: SourceFile{Path: "x"}, Compression: "rar"}, "source.compression", "unknown compression"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if issues := validateSource(tt.src); !hasIssue(t, issues, SeverityError, tt.path, tt.msg) {
				t.Fatalf("expected error at %s; got %+v", tt.path, issues)
			}
		})
	}
}

func TestValidateParser_Cases(t *testing.T) {
	if issues := validateParser(Parser{Kind: "csv", Options: Options{"comma": ";;"}}); !hasIssue(t, issues, SeverityError, "parser.options.comma", "single character") {
		t.Fatalf("expected comma error; got %+v", issues)
	}
	if issues := validateParser(Parser{Kind: "json"}); !hasIssue(t, issues, SeverityError, "parser.kind", "unknown parser kind") {
		t.Fatalf("expected kind error; got %+v", issues)
	}
	if issues := validateParser(Parser{Kind: "csv", Options: Options{}}); len(issues) != 0 {
		t.Fatalf("default csv options should be valid; got %+v", issues)
	}
}

func TestValidateTransforms_Cases(t *testing.T) {
	t.Run("empty_chain_warns", func(t *testing.T) {
		if issues := validateTransforms(nil); !hasIssue(t, issues, SeverityWarning, "transform", "admissions catalog") {
			t.Fatalf("expected warning; got %+v", issues)
		}
	})

	tests := []struct {
		name string
		tr   Transform
		path string
		msg  string
	}{
		{"unknown_kind", Transform{Kind: "dedup", Options: Options{}}, "transform[0].kind", "unknown transform kind"},
		{"impute_without_columns", Transform{Kind: "impute", Options: Options{"strategy": "mean"}}, "transform[0].options.columns", "at least one column"},
		{"impute_bad_strategy", Transform{Kind: "impute", Options: Options{"columns": []any{"x"}, "strategy": "median"}}, "transform[0].options.strategy", "mean or mode"},
		{"binary_map_short_mapping", Transform{Kind: "binary_map", Options: Options{"column": "Sex", "mapping": map[string]any{"m": 1.0}}}, "transform[0].options.mapping", "two entries"},
		{"one_hot_without_categories", Transform{Kind: "one_hot", Options: Options{"column": "Dx"}}, "transform[0].options.categories", "declared categories"},
		{"one_hot_default_without_value", Transform{Kind: "one_hot", Options: Options{"column": "Dx", "categories": []any{"A"}, "missing": "default"}}, "transform[0].options.default", "requires a default"},
		{"score_without_column", Transform{Kind: "score_impute", Options: Options{}}, "transform[0].options.column", "requires a column"},
		{"unknown_catalog", Transform{Kind: "catalog", Options: Options{"name": "oncology"}}, "transform[0].options.name", "unknown catalog"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if issues := validateTransforms([]Transform{tt.tr}); !hasIssue(t, issues, SeverityError, tt.path, tt.msg) {
				t.Fatalf("expected error at %s; got %+v", tt.path, issues)
			}
		})
	}
}

func TestValidateStorage_Cases(t *testing.T) {
	if issues := validateStorage(Storage{Kind: "xlsx"}); !hasIssue(t, issues, SeverityError, "storage.file.path", "requires a path") {
		t.Fatalf("expected path error; got %+v", issues)
	}
	issues := validateStorage(Storage{Kind: "postgres"})
	if !hasIssue(t, issues, SeverityError, "storage.db.dsn", "must not be empty") ||
		!hasIssue(t, issues, SeverityError, "storage.db.table", "must not be empty") {
		t.Fatalf("expected dsn and table errors; got %+v", issues)
	}
	if !hasIssue(t, issues, SeverityWarning, "storage.db.auto_create_table", "must already match") {
		t.Fatalf("expected auto_create_table warning; got %+v", issues)
	}
	if issues := validateStorage(Storage{Kind: "parquet"}); !hasIssue(t, issues, SeverityWarning, "storage.kind", "unknown storage kind") {
		t.Fatalf("expected unknown kind warning; got %+v", issues)
	}
}

func TestValidateRuntimeMetricsLogging(t *testing.T) {
	if issues := validateRuntime(RuntimeConfig{Workers: -1}); !hasIssue(t, issues, SeverityError, "runtime.workers", "negative") {
		t.Fatalf("expected workers error; got %+v", issues)
	}
	if issues := validateMetrics(MetricsConfig{Backend: "pushgateway"}); !hasIssue(t, issues, SeverityError, "metrics.pushgateway_url", "requires") {
		t.Fatalf("expected pushgateway error; got %+v", issues)
	}
	if issues := validateMetrics(MetricsConfig{Backend: "datadog"}); !hasIssue(t, issues, SeverityWarning, "metrics.datadog_addr", "127.0.0.1:8125") {
		t.Fatalf("expected datadog warning; got %+v", issues)
	}
	if issues := validateMetrics(MetricsConfig{Backend: "statsd"}); !hasIssue(t, issues, SeverityError, "metrics.backend", "unknown") {
		t.Fatalf("expected backend error; got %+v", issues)
	}
	if issues := validateLogging(LoggingConfig{Format: "xml", Level: "loud"}); len(issues) != 2 {
		t.Fatalf("expected two logging errors; got %+v", issues)
	}
}
