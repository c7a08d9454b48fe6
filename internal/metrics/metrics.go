// Package metrics provides a small, backend-agnostic abstraction for recording
// operational metrics from the preparation pipeline.
//
// The package exposes a narrow Backend interface (counters and timing
// observations) and a global, pluggable backend that defaults to a no-op, so
// instrumentation is always safe to call even when no real backend is
// configured. Concrete systems live in subpackages (prompush, datadog) and
// the rest of the code depends only on this package.
//
// Instrumented events:
//
//   - one step execution per transform (RecordStep)
//   - cells repaired or imputed by a step (RecordCells)
//   - rows loaded and written (RecordRows)
package metrics

import (
	"sync"
	"time"
)

// Metric names shared by all backends.
const (
	StepTotal           = "clinprep_step_total"
	StepDurationSeconds = "clinprep_step_duration_seconds"
	CellsTotal          = "clinprep_cells_total"
	RowsTotal           = "clinprep_rows_total"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it (e.g. Pushgateway).
	Flush() error
}

// nopBackend is used by default so metrics are optional.
type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveHistogram(string, float64, Labels) {}
func (nopBackend) Flush() error                             { return nil }

var (
	mu      sync.RWMutex
	backend Backend = nopBackend{}
)

// SetBackend installs a concrete backend. Passing nil keeps the existing backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	mu.Lock()
	backend = b
	mu.Unlock()
}

func current() Backend {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

// Flush delegates to the current backend.
func Flush() error {
	return current().Flush()
}

// RecordStep measures latency and success/failure of one transform step.
func RecordStep(job, step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	lbls := Labels{
		"job":    job,
		"step":   step,
		"status": status,
	}
	b := current()
	b.IncCounter(StepTotal, 1, lbls)
	b.ObserveHistogram(StepDurationSeconds, d.Seconds(), lbls)
}

// RecordCells counts cells a step changed in one column.
func RecordCells(job, step, column string, delta int64) {
	if delta <= 0 {
		return
	}
	current().IncCounter(CellsTotal, float64(delta), Labels{
		"job":    job,
		"step":   step,
		"column": column,
	})
}

// RecordRows counts rows for a pipeline phase, e.g. "loaded" or "written".
func RecordRows(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	current().IncCounter(RowsTotal, float64(delta), Labels{
		"job":  job,
		"kind": kind,
	})
}
