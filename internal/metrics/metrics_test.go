package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend is a simple in-memory Backend implementation for tests.
type fakeBackend struct {
	mu sync.Mutex

	callsCounters   []counterCall
	callsHistograms []histCall
	flushCount      int
}

type counterCall struct {
	name   string
	delta  float64
	labels Labels
}

type histCall struct {
	name   string
	value  float64
	labels Labels
}

func (f *fakeBackend) IncCounter(name string, delta float64, labels Labels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callsCounters = append(f.callsCounters, counterCall{name, delta, labels})
}

func (f *fakeBackend) ObserveHistogram(name string, value float64, labels Labels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callsHistograms = append(f.callsHistograms, histCall{name, value, labels})
}

func (f *fakeBackend) Flush() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushCount++
	return nil
}

func install(t *testing.T) *fakeBackend {
	t.Helper()
	orig := current()
	t.Cleanup(func() {
		mu.Lock()
		backend = orig
		mu.Unlock()
	})
	fb := &fakeBackend{}
	SetBackend(fb)
	return fb
}

func TestRecordStep_SuccessAndFailure(t *testing.T) {
	fb := install(t)

	RecordStep("jobA", "mean", nil, 2*time.Second)
	RecordStep("jobB", "one_hot", errors.New("boom"), 1500*time.Millisecond)

	require.Len(t, fb.callsCounters, 2)
	require.Len(t, fb.callsHistograms, 2)

	cc0 := fb.callsCounters[0]
	assert.Equal(t, StepTotal, cc0.name)
	assert.Equal(t, 1.0, cc0.delta)
	assert.Equal(t, Labels{"job": "jobA", "step": "mean", "status": "success"}, cc0.labels)
	assert.Equal(t, StepDurationSeconds, fb.callsHistograms[0].name)
	assert.InDelta(t, 2.0, fb.callsHistograms[0].value, 0.001)

	assert.Equal(t, "failure", fb.callsCounters[1].labels["status"])
	assert.InDelta(t, 1.5, fb.callsHistograms[1].value, 0.001)
}

func TestRecordCellsAndRows(t *testing.T) {
	fb := install(t)

	RecordCells("jobX", "mean", "BMI", 3)
	RecordCells("jobX", "mean", "BMI", 0) // ignored
	RecordRows("jobY", "written", 5)

	require.Len(t, fb.callsCounters, 2)
	assert.Equal(t, counterCall{CellsTotal, 3, Labels{"job": "jobX", "step": "mean", "column": "BMI"}}, fb.callsCounters[0])
	assert.Equal(t, counterCall{RowsTotal, 5, Labels{"job": "jobY", "kind": "written"}}, fb.callsCounters[1])
}

func TestSetBackendAndFlush(t *testing.T) {
	fb := install(t)

	require.NoError(t, Flush())
	assert.Equal(t, 1, fb.flushCount)

	SetBackend(nil)
	assert.Same(t, fb, current().(*fakeBackend), "SetBackend(nil) must keep the backend")
}
