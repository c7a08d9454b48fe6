// Package transformer composes table steps into an ordered chain and runs
// them sequentially.
//
// A Step is a pure function of (input table, its own configuration): it must
// not mutate the table it receives and returns a new table state. The chain
// holds no state beyond the current table; it is not a scheduler.
package transformer

import (
	"fmt"

	"clinprep/internal/dataset"
)

// Step is one table transformation.
type Step interface {
	// Name identifies the step kind in logs, metrics and errors.
	Name() string
	// Apply returns the transformed table. in must be left untouched.
	Apply(in *dataset.Table) (*dataset.Table, error)
}

// Chain is an ordered list of steps.
type Chain []Step

// Apply runs every step in order, feeding each the previous result. The first
// failure aborts the chain and is returned as a *StageError.
func (c Chain) Apply(in *dataset.Table) (*dataset.Table, error) {
	cur := in
	for i, s := range c {
		next, err := applyStep(i, s, cur)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}

// applyStep runs one step and checks that it kept the row count.
func applyStep(i int, s Step, in *dataset.Table) (*dataset.Table, error) {
	out, err := s.Apply(in)
	if err != nil {
		return nil, &StageError{Index: i, Stage: s.Name(), Column: dataset.ColumnOf(err), Err: err}
	}
	if out == nil {
		return nil, &StageError{Index: i, Stage: s.Name(), Err: fmt.Errorf("step returned no table")}
	}
	if out.NumRows() != in.NumRows() {
		err := &dataset.SchemaError{Reason: fmt.Sprintf("row count changed from %d to %d", in.NumRows(), out.NumRows())}
		return nil, &StageError{Index: i, Stage: s.Name(), Err: err}
	}
	return out, nil
}

// StageError identifies the step that failed and the column it failed on.
type StageError struct {
	Index  int
	Stage  string
	Column string
	Err    error
}

func (e *StageError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("step %d (%s) column %q: %v", e.Index, e.Stage, e.Column, e.Err)
	}
	return fmt.Sprintf("step %d (%s): %v", e.Index, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// named overrides the reported name of a step.
type named struct {
	name string
	Step
}

func (n named) Name() string { return n.name }

// Named wraps s so that it reports name instead of its kind. An empty name
// returns s unchanged.
func Named(name string, s Step) Step {
	if name == "" {
		return s
	}
	return named{name: name, Step: s}
}
