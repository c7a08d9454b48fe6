package datadog

import (
	"testing"

	"clinprep/internal/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	kind  string
	name  string
	value float64
	tags  []string
}

type fakeClient struct {
	calls  []call
	closed bool
}

func (f *fakeClient) Count(name string, value int64, tags []string, _ float64) error {
	f.calls = append(f.calls, call{"count", name, float64(value), tags})
	return nil
}

func (f *fakeClient) Histogram(name string, value float64, tags []string, _ float64) error {
	f.calls = append(f.calls, call{"histogram", name, value, tags})
	return nil
}

func (f *fakeClient) Close() error { f.closed = true; return nil }

func TestNewBackend_RequiresAddr(t *testing.T) {
	_, err := NewBackend(Config{})
	require.Error(t, err)
}

func TestBackend_ForwardsWithSortedTags(t *testing.T) {
	fc := &fakeClient{}
	b := &Backend{client: fc}

	b.IncCounter(metrics.CellsTotal, 3, metrics.Labels{"step": "mean", "column": "BMI", "job": "j"})
	b.ObserveHistogram(metrics.StepDurationSeconds, 0.5, metrics.Labels{"step": "mean"})
	require.NoError(t, b.Flush())

	require.Len(t, fc.calls, 2)
	assert.Equal(t, call{"count", metrics.CellsTotal, 3, []string{"column:BMI", "job:j", "step:mean"}}, fc.calls[0])
	assert.Equal(t, call{"histogram", metrics.StepDurationSeconds, 0.5, []string{"step:mean"}}, fc.calls[1])
	assert.True(t, fc.closed)
}

func TestBackend_NilClientIsSafe(t *testing.T) {
	b := &Backend{}
	b.IncCounter("x", 1, nil)
	b.ObserveHistogram("x", 1, nil)
	assert.NoError(t, b.Flush())
}
