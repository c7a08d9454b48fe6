// This file wires the preparation run end to end: source -> parser ->
// transform chain -> sink. It keeps the CLI layer thin: it depends on the
// datasource, parser and storage abstractions and never imports database
// drivers or backend-specific packages directly.

package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"clinprep/internal/admissions"
	"clinprep/internal/config"
	"clinprep/internal/dataset"
	"clinprep/internal/datasource"
	"clinprep/internal/metrics"
	"clinprep/internal/metrics/datadog"
	"clinprep/internal/metrics/prompush"
	"clinprep/internal/parser"
	"clinprep/internal/probe"
	"clinprep/internal/storage"
	"clinprep/internal/transformer"
	"clinprep/internal/transformer/builtin"
	"clinprep/internal/webui"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
)

// Function variables used to introduce test seams.
// In production these point to real implementations; tests can override them.
var (
	openInputFn = datasource.Open
	newParserFn = parser.New
	openSinkFn  = storage.Open

	newPushgatewayFn = func(job, url string) (metrics.Backend, error) {
		return prompush.NewBackend(job, url)
	}
	newDatadogFn = func(cfg datadog.Config) (metrics.Backend, error) {
		return datadog.NewBackend(cfg)
	}

	nowFn = time.Now

	serveFn = func(ctx context.Context, cfg webui.Config) error {
		return webui.NewServer(cfg).ListenAndServe(ctx)
	}
)

// summary holds end-of-run statistics.
type summary struct {
	Rows           int
	ColumnsIn      int
	ColumnsOut     int
	Written        int64
	Report         *transformer.Report
	InFingerprint  string
	OutFingerprint string
	Took           time.Duration
}

// run loads the input, applies the configured chain and writes the result.
// The sink is opened only after every step succeeded, so a failed run never
// leaves partial output behind.
func run(ctx context.Context, p config.Pipeline, log zerolog.Logger) (summary, error) {
	start := nowFn()
	var s summary

	in, err := loadTable(ctx, p, log)
	if err != nil {
		return s, err
	}
	s.Rows, s.ColumnsIn, s.InFingerprint = in.NumRows(), in.NumCols(), in.FingerprintHex()
	metrics.RecordRows(p.Job, "loaded", int64(in.NumRows()))
	log.Info().
		Int("rows", s.Rows).
		Int("columns", s.ColumnsIn).
		Str("fingerprint", s.InFingerprint).
		Msg("input loaded")

	chain, watches, err := buildChain(p)
	if err != nil {
		return s, fmt.Errorf("build chain: %w", err)
	}
	r := transformer.Runner{Logger: log, Job: p.Job, Watches: watches}
	out, rep, err := r.Run(ctx, chain, in)
	s.Report = rep
	if err != nil {
		return s, err
	}
	s.ColumnsOut, s.OutFingerprint = out.NumCols(), out.FingerprintHex()

	sink, err := openSinkFn(ctx, p.Storage, storage.Options{Logger: log, BatchSize: p.Runtime.BatchSize})
	if err != nil {
		return s, fmt.Errorf("open sink: %w", err)
	}
	defer func() {
		if cerr := sink.Close(); cerr != nil {
			log.Warn().Err(cerr).Msg("close sink")
		}
	}()

	n, err := sink.Write(ctx, out)
	if err != nil {
		return s, fmt.Errorf("write %s: %w", p.Storage.Kind, err)
	}
	s.Written = n
	metrics.RecordRows(p.Job, "written", n)
	s.Took = nowFn().Sub(start)
	return s, nil
}

// loadTable opens the configured source and parses it into a table.
func loadTable(ctx context.Context, p config.Pipeline, log zerolog.Logger) (*dataset.Table, error) {
	name := datasource.Name(p.Source)
	rc, err := openInputFn(ctx, p.Source)
	if err != nil {
		return nil, fmt.Errorf("open source %s: %w", name, err)
	}
	defer rc.Close()

	ps, err := newParserFn(p.Parser, name, log)
	if err != nil {
		return nil, err
	}
	t, err := ps.Parse(ctx, rc)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	return t, nil
}

// buildChain returns the configured chain, or the admissions catalog when the
// config lists no transforms. The catalog watches are harmless for other
// chains: rows are only logged when the watched column changes.
func buildChain(p config.Pipeline) (transformer.Chain, []transformer.Watch, error) {
	workers := max(p.Runtime.Workers, 1)
	if len(p.Transform) == 0 {
		return admissions.Steps(workers), admissions.Watches(), nil
	}
	c, err := builtin.BuildChain(p.Transform, workers)
	if err != nil {
		return nil, nil, err
	}
	return c, admissions.Watches(), nil
}

// initMetrics installs the configured metrics backend and returns the flush
// to run at exit. Backend failures downgrade to the no-op backend.
func initMetrics(p config.Pipeline, log zerolog.Logger) func() {
	var (
		b   metrics.Backend
		err error
	)
	switch strings.ToLower(p.Metrics.Backend) {
	case "", "none":
		log.Debug().Msg("metrics: disabled")
		return func() {}
	case "pushgateway", "prometheus":
		b, err = newPushgatewayFn(p.Job, p.Metrics.PushgatewayURL)
	case "datadog":
		addr := p.Metrics.DatadogAddr
		if addr == "" {
			addr = "127.0.0.1:8125"
		}
		b, err = newDatadogFn(datadog.Config{
			Addr:       addr,
			Namespace:  p.Metrics.Namespace,
			GlobalTags: append([]string{"job:" + p.Job}, p.Metrics.Tags...),
		})
	default:
		log.Warn().Str("backend", p.Metrics.Backend).Msg("metrics: unknown backend; disabled")
		return func() {}
	}
	if err != nil {
		log.Warn().Err(err).Str("backend", p.Metrics.Backend).Msg("metrics: init failed; using nop")
		return func() {}
	}

	metrics.SetBackend(b)
	log.Debug().Str("backend", p.Metrics.Backend).Msg("metrics: enabled")
	return func() {
		if err := metrics.Flush(); err != nil {
			log.Warn().Err(err).Msg("metrics: flush")
		}
	}
}

// probeMode selects what runProbe prints.
type probeMode struct {
	suggest bool
	json    bool
}

// runProbe loads the input and prints its column profile or a starter config.
func runProbe(ctx context.Context, p config.Pipeline, mode probeMode, w io.Writer, log zerolog.Logger) error {
	t, err := loadTable(ctx, p, log)
	if err != nil {
		return err
	}
	cols := probe.Profile(t, probe.Options{})
	switch {
	case mode.suggest:
		return probe.WriteConfig(w, probe.Suggest(p.Job, p.Source, cols))
	case mode.json:
		return probe.WriteJSON(w, cols)
	default:
		return probe.WriteText(w, cols)
	}
}

// logSummary logs per-step repair counts and the end-of-run totals.
func logSummary(log zerolog.Logger, s summary) {
	if s.Report != nil {
		for _, st := range s.Report.Steps {
			if st.Cells() == 0 && len(st.Added) == 0 && len(st.Removed) == 0 {
				continue
			}
			log.Info().
				Int("step", st.Index).
				Str("name", st.Name).
				Str("cells", humanize.Comma(int64(st.Cells()))).
				Int("added", len(st.Added)).
				Int("removed", len(st.Removed)).
				Msg("step summary")
		}
	}

	var cells uint64
	if s.Report != nil {
		cells = s.Report.Cells()
	}
	rate := ""
	if secs := s.Took.Seconds(); secs > 0 {
		rate = humanize.Comma(int64(float64(s.Rows)/secs)) + " rows/s"
	}
	log.Info().
		Str("rows", humanize.Comma(int64(s.Rows))).
		Int("columns_in", s.ColumnsIn).
		Int("columns_out", s.ColumnsOut).
		Str("cells_repaired", humanize.Comma(int64(cells))).
		Str("written", humanize.Comma(s.Written)).
		Str("in_fingerprint", s.InFingerprint).
		Str("out_fingerprint", s.OutFingerprint).
		Str("rate", rate).
		Dur("took", s.Took.Truncate(time.Millisecond)).
		Msg("pipeline completed")
}

// inputName is the input object for logs.
func inputName(p config.Pipeline) string {
	if p.Source.Kind == "s3" {
		return p.Source.S3.Bucket + "/" + p.Source.S3.Key
	}
	return p.Source.File.Path
}
