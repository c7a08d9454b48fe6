package transformer

import (
	"context"
	"time"

	"clinprep/internal/dataset"
	"clinprep/internal/metrics"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/rs/zerolog"
)

// StepReport describes what one step did to the table.
type StepReport struct {
	Index    int
	Name     string
	Duration time.Duration

	// Changed holds, per surviving column, the rows whose value differs
	// between the step's input and output.
	Changed map[string]*roaring.Bitmap
	Added   []string
	Removed []string
}

// Cells returns the number of cells the step rewrote in surviving columns.
func (s StepReport) Cells() uint64 {
	var n uint64
	for _, bm := range s.Changed {
		n += bm.GetCardinality()
	}
	return n
}

// Report collects per-step reports for one run.
type Report struct {
	Rows  int
	Steps []StepReport
}

// Cells returns the total number of rewritten cells across all steps.
func (r *Report) Cells() uint64 {
	var n uint64
	for _, s := range r.Steps {
		n += s.Cells()
	}
	return n
}

// Touched returns the union of rows any step rewrote in column.
func (r *Report) Touched(column string) *roaring.Bitmap {
	out := roaring.New()
	for _, s := range r.Steps {
		if bm, ok := s.Changed[column]; ok {
			out.Or(bm)
		}
	}
	return out
}

// Watch asks the runner to log rows [From, To) of Column before and after
// any step that rewrites it. Logged at debug level.
type Watch struct {
	Column string
	From   int
	To     int
}

// Runner executes a Chain with logging, metrics and a change report.
type Runner struct {
	Logger  zerolog.Logger
	Job     string
	Watches []Watch
}

// Run applies c to in. It checks ctx between steps; a cancelled run returns
// ctx.Err() and no table. Failures are *StageError values. The returned
// report covers the steps that completed.
func (r Runner) Run(ctx context.Context, c Chain, in *dataset.Table) (*dataset.Table, *Report, error) {
	rep := &Report{Rows: in.NumRows()}
	cur := in
	for i, s := range c {
		if err := ctx.Err(); err != nil {
			return nil, rep, err
		}

		start := time.Now()
		next, err := applyStep(i, s, cur)
		d := time.Since(start)
		metrics.RecordStep(r.Job, s.Name(), err, d)
		if err != nil {
			r.Logger.Error().Err(err).Int("step", i).Str("name", s.Name()).Msg("step failed")
			return nil, rep, err
		}

		sr := diff(cur, next)
		sr.Index, sr.Name, sr.Duration = i, s.Name(), d
		rep.Steps = append(rep.Steps, sr)

		for col, bm := range sr.Changed {
			metrics.RecordCells(r.Job, s.Name(), col, int64(bm.GetCardinality()))
		}
		r.logWatches(sr, cur, next)
		r.Logger.Debug().
			Int("step", i).
			Str("name", s.Name()).
			Uint64("cells", sr.Cells()).
			Strs("added", sr.Added).
			Strs("removed", sr.Removed).
			Dur("took", d).
			Msg("step done")

		cur = next
	}
	return cur, rep, nil
}

func (r Runner) logWatches(sr StepReport, before, after *dataset.Table) {
	if len(r.Watches) == 0 || r.Logger.GetLevel() > zerolog.DebugLevel {
		return
	}
	for _, w := range r.Watches {
		if _, ok := sr.Changed[w.Column]; !ok {
			continue
		}
		r.Logger.Debug().
			Str("column", w.Column).
			Int("from", w.From).
			Strs("before", sample(before, w)).
			Strs("after", sample(after, w)).
			Msg("watched rows")
	}
}

func sample(t *dataset.Table, w Watch) []string {
	c, ok := t.Column(w.Column)
	if !ok {
		return nil
	}
	from, to := max(w.From, 0), min(w.To, len(c.Values))
	if from >= to {
		return nil
	}
	out := make([]string, 0, to-from)
	for _, v := range c.Values[from:to] {
		if v.IsMissing() {
			out = append(out, "<missing>")
			continue
		}
		out = append(out, v.String())
	}
	return out
}

// diff compares two table states column by column. Columns are matched by
// name; the first occurrence wins.
func diff(before, after *dataset.Table) StepReport {
	sr := StepReport{Changed: map[string]*roaring.Bitmap{}}
	seen := make(map[string]struct{}, after.NumCols())
	for j := 0; j < after.NumCols(); j++ {
		ac := after.ColumnAt(j)
		seen[ac.Name] = struct{}{}
		bc, ok := before.Column(ac.Name)
		if !ok {
			sr.Added = append(sr.Added, ac.Name)
			continue
		}
		if bc == ac {
			continue
		}
		var bm *roaring.Bitmap
		for i := range ac.Values {
			if !ac.Values[i].Equal(bc.Values[i]) {
				if bm == nil {
					bm = roaring.New()
				}
				bm.Add(uint32(i))
			}
		}
		if bm != nil {
			sr.Changed[ac.Name] = bm
		}
	}
	for _, name := range before.Names() {
		if _, ok := seen[name]; !ok {
			sr.Removed = append(sr.Removed, name)
		}
	}
	return sr
}
