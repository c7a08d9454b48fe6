package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"sigs.k8s.io/yaml"
)

// Load reads a pipeline file. Files ending in .yaml or .yml are converted to
// JSON first, so both formats share the json struct tags. Unknown fields are
// rejected.
func Load(path string) (Pipeline, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Pipeline{}, fmt.Errorf("read config: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if b, err = yaml.YAMLToJSON(b); err != nil {
			return Pipeline{}, fmt.Errorf("parse yaml %s: %w", path, err)
		}
	}
	return Decode(b)
}

// Decode parses a JSON pipeline document.
func Decode(b []byte) (Pipeline, error) {
	var p Pipeline
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return Pipeline{}, fmt.Errorf("decode config: %w", err)
	}
	return p, nil
}

// ApplyEnv overrides pipeline fields from environment variables:
// CLINPREP_WORKERS, METRICS_BACKEND, PUSHGATEWAY_URL and DD_AGENT_ADDR.
// getenv is usually os.Getenv. Malformed numbers are reported as errors.
func ApplyEnv(p *Pipeline, getenv func(string) string) error {
	if v := strings.TrimSpace(getenv("CLINPREP_WORKERS")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CLINPREP_WORKERS: %w", err)
		}
		p.Runtime.Workers = n
	}
	if v := strings.TrimSpace(getenv("METRICS_BACKEND")); v != "" {
		p.Metrics.Backend = strings.ToLower(v)
	}
	if v := strings.TrimSpace(getenv("PUSHGATEWAY_URL")); v != "" {
		p.Metrics.PushgatewayURL = v
	}
	if v := strings.TrimSpace(getenv("DD_AGENT_ADDR")); v != "" {
		p.Metrics.DatadogAddr = v
	}
	return nil
}
