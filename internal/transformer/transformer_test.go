package transformer

import (
	"context"
	"errors"
	"testing"

	"clinprep/internal/dataset"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

/*
setStep overwrites row `row` of column `col` with val on a clone. Used to
verify composition order and change reporting.
*/
type setStep struct {
	col string
	row int
	val dataset.Value
}

func (setStep) Name() string { return "set" }

func (s setStep) Apply(in *dataset.Table) (*dataset.Table, error) {
	out := in.Clone()
	c, ok := out.Column(s.col)
	if !ok {
		return nil, &dataset.SchemaError{Column: s.col, Reason: "missing"}
	}
	c.Values[s.row] = s.val
	return out, nil
}

// failStep always fails with err.
type failStep struct{ err error }

func (failStep) Name() string { return "fail" }

func (f failStep) Apply(*dataset.Table) (*dataset.Table, error) { return nil, f.err }

// shrinkStep drops every row, which a step must never do.
type shrinkStep struct{}

func (shrinkStep) Name() string { return "shrink" }
func (shrinkStep) Apply(in *dataset.Table) (*dataset.Table, error) {
	return dataset.New(0), nil
}

// addColStep appends a constant column.
type addColStep struct{ name string }

func (addColStep) Name() string { return "add" }
func (s addColStep) Apply(in *dataset.Table) (*dataset.Table, error) {
	out := in.Clone()
	vals := make([]dataset.Value, out.NumRows())
	for i := range vals {
		vals[i] = dataset.Number(1)
	}
	return out, out.Append(&dataset.Column{Name: s.name, Values: vals})
}

func table(t *testing.T) *dataset.Table {
	t.Helper()
	tb, err := dataset.FromRows([]string{"a", "b"}, [][]dataset.Value{
		{dataset.Number(1), dataset.Text("x")},
		{dataset.Number(2), dataset.Text("y")},
		{dataset.Number(3), dataset.Text("z")},
	})
	require.NoError(t, err)
	return tb
}

func TestChainApply_ComposesInOrder(t *testing.T) {
	in := table(t)
	c := Chain{
		setStep{col: "a", row: 0, val: dataset.Number(10)},
		setStep{col: "a", row: 0, val: dataset.Number(20)},
	}
	out, err := c.Apply(in)
	require.NoError(t, err)

	col, _ := out.Column("a")
	assert.Equal(t, dataset.Number(20), col.Values[0], "later step must see earlier result")

	orig, _ := in.Column("a")
	assert.Equal(t, dataset.Number(1), orig.Values[0], "input table must be untouched")
}

func TestChainApply_EmptyChainReturnsInput(t *testing.T) {
	in := table(t)
	out, err := Chain{}.Apply(in)
	require.NoError(t, err)
	assert.Same(t, in, out)
}

func TestChainApply_FailureIsStageError(t *testing.T) {
	cause := &dataset.UnknownCategoryError{Column: "b", Row: 1, Value: "q"}
	c := Chain{
		setStep{col: "a", row: 0, val: dataset.Number(9)},
		failStep{err: cause},
	}
	_, err := c.Apply(table(t))
	require.Error(t, err)

	var se *StageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 1, se.Index)
	assert.Equal(t, "fail", se.Stage)
	assert.Equal(t, "b", se.Column)
	assert.ErrorIs(t, err, dataset.ErrUnknownCategory)
	assert.Contains(t, err.Error(), `step 1 (fail) column "b"`)
}

func TestChainApply_RowCountChangeIsSchemaError(t *testing.T) {
	_, err := Chain{shrinkStep{}}.Apply(table(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, dataset.ErrSchema)
}

func TestNamed_OverridesName(t *testing.T) {
	s := Named("fix-a", setStep{col: "a"})
	assert.Equal(t, "fix-a", s.Name())
	assert.Equal(t, "set", Named("", setStep{}).Name())
}

func TestRunner_ReportsChangedRowsAndColumns(t *testing.T) {
	r := Runner{Logger: zerolog.Nop(), Job: "test"}
	c := Chain{
		setStep{col: "a", row: 2, val: dataset.Number(30)},
		addColStep{name: "c"},
	}
	out, rep, err := r.Run(context.Background(), c, table(t))
	require.NoError(t, err)
	require.Equal(t, 3, out.NumCols())
	require.Len(t, rep.Steps, 2)

	first := rep.Steps[0]
	assert.Equal(t, "set", first.Name)
	assert.Equal(t, uint64(1), first.Cells())
	assert.True(t, first.Changed["a"].Contains(2))
	assert.NotContains(t, first.Changed, "b")

	second := rep.Steps[1]
	assert.Equal(t, []string{"c"}, second.Added)
	assert.Zero(t, second.Cells())

	assert.Equal(t, uint64(1), rep.Cells())
	assert.Equal(t, []uint32{2}, rep.Touched("a").ToArray())
	assert.Equal(t, 3, rep.Rows)
}

func TestRunner_StopsOnFailure(t *testing.T) {
	r := Runner{Logger: zerolog.Nop()}
	c := Chain{
		setStep{col: "a", row: 0, val: dataset.Number(5)},
		failStep{err: errors.New("boom")},
		addColStep{name: "never"},
	}
	out, rep, err := r.Run(context.Background(), c, table(t))
	require.Error(t, err)
	assert.Nil(t, out)
	assert.Len(t, rep.Steps, 1)
}

func TestRunner_HonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := Runner{Logger: zerolog.Nop()}.Run(ctx, Chain{addColStep{name: "c"}}, table(t))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDiff_RemovedColumns(t *testing.T) {
	before := table(t)
	after := before.Clone()
	after.Drop("b")
	sr := diff(before, after)
	assert.Equal(t, []string{"b"}, sr.Removed)
	assert.Empty(t, sr.Added)
	assert.Empty(t, sr.Changed)
}

func TestSample_ClampsRange(t *testing.T) {
	tb := table(t)
	c, _ := tb.Column("a")
	c.Values[1] = dataset.Missing
	assert.Equal(t, []string{"<missing>", "3"}, sample(tb, Watch{Column: "a", From: 1, To: 99}))
	assert.Nil(t, sample(tb, Watch{Column: "nope", From: 0, To: 2}))
	assert.Nil(t, sample(tb, Watch{Column: "a", From: 5, To: 9}))
}
