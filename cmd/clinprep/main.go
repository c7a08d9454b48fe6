// Command clinprep prepares a clinical admissions export for classification.
//
// It loads the pipeline config, validates it, initializes logging and an
// optional metrics backend, then reads the input table, runs the transform
// chain and writes the prepared table. Any failure aborts the run before the
// sink is touched and exits non-zero.
//
// Examples:
//
//	clinprep -config configs/admissions.yaml
//	clinprep -in admissions.xlsx -out admissions_cleaned.xlsx -v
//	clinprep -in admissions.xlsx -probe
//	clinprep -in admissions.csv -suggest > configs/new.json
//	gunzip -c admissions.csv.gz | clinprep -in - -out prepared.csv
//	clinprep -serve :8080
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"clinprep/internal/config"
	"clinprep/internal/datasource/compression"
	"clinprep/internal/datasource/file"
	"clinprep/internal/logging"
	"clinprep/internal/parser"
	"clinprep/internal/transformer"
	"clinprep/internal/webui"

	// register all sinks with the storage package; the config picks one.
	_ "clinprep/internal/storage/all"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := execute(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "clinprep: %v\n", err)
		}
		stop()
		os.Exit(1)
	}
}

// execute is main without the process exit, so tests can drive it.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("clinprep", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		cfgPath        string
		in, out        string
		metricsBackend string
		validate       bool
		verbose        bool
		probeInput     bool
		probeJSON      bool
		suggest        bool
		serveAddr      string
	)
	fs.StringVar(&cfgPath, "config", "", "pipeline config (.json, .yaml or .yml); optional when -in is set")
	fs.StringVar(&in, "in", "", "input file, or - for stdin (csv); overrides source.file.path")
	fs.StringVar(&out, "out", "", "output file; overrides storage.file.path")
	fs.StringVar(&metricsBackend, "metrics-backend", "", "metrics backend (none, pushgateway, datadog); overrides config and METRICS_BACKEND")
	fs.BoolVar(&validate, "validate", false, "validate the configuration and exit")
	fs.BoolVar(&verbose, "v", false, "enable debug logs")
	fs.BoolVar(&probeInput, "probe", false, "profile the input columns and exit")
	fs.BoolVar(&probeJSON, "json", false, "with -probe, print the profile as JSON")
	fs.BoolVar(&suggest, "suggest", false, "print a starter pipeline config for the input and exit")
	fs.StringVar(&serveAddr, "serve", "", "serve the probe upload form on this address (e.g. :8080) until interrupted")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if serveAddr != "" {
		log, _ := logging.New(stderr, config.LoggingConfig{}, "probe-web", verbose)
		log.Info().Str("addr", serveAddr).Msg("serving probe form")
		return serveFn(ctx, webui.Config{Addr: serveAddr, Logger: log})
	}

	p, err := loadPipeline(cfgPath, in, out)
	if err != nil {
		return err
	}
	if err := config.ApplyEnv(&p, os.Getenv); err != nil {
		return err
	}
	if metricsBackend != "" {
		p.Metrics.Backend = strings.ToLower(metricsBackend)
	}

	issues := config.ValidatePipeline(p)
	for _, iss := range issues {
		fmt.Fprintf(stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		return fmt.Errorf("configuration is invalid: %s", describe(cfgPath, in))
	}
	if validate {
		fmt.Fprintf(stdout, "configuration is valid: %s\n", describe(cfgPath, in))
		return nil
	}

	log, runID := logging.New(stderr, p.Logging, p.Job, verbose)

	if probeInput || suggest {
		return runProbe(ctx, p, probeMode{suggest: suggest, json: probeJSON}, stdout, log)
	}

	flush := initMetrics(p, log)
	defer flush()

	log.Info().
		Str("source", p.Source.Kind).
		Str("input", inputName(p)).
		Str("parser", p.Parser.Kind).
		Str("storage", p.Storage.Kind).
		Int("workers", p.Runtime.Workers).
		Msg("pipeline starting")

	s, err := run(ctx, p, log)
	if err != nil {
		ev := log.Error().Err(err).Str("run_id", runID)
		var se *transformer.StageError
		if errors.As(err, &se) {
			ev = ev.Int("step", se.Index).Str("stage", se.Stage).Str("column", se.Column)
		}
		ev.Msg("pipeline failed; nothing written")
		return err
	}
	logSummary(log, s)
	return nil
}

// loadPipeline reads cfgPath, or builds the default admissions pipeline when
// only -in is given, then applies the -in/-out overrides.
func loadPipeline(cfgPath, in, out string) (config.Pipeline, error) {
	var p config.Pipeline
	switch {
	case cfgPath != "":
		var err error
		if p, err = config.Load(cfgPath); err != nil {
			return p, err
		}
	case in != "":
		p = config.Pipeline{Job: "admissions"}
	default:
		return p, errors.New("either -config or -in is required")
	}

	if in != "" {
		p.Source = config.Source{Kind: "file", File: config.SourceFile{Path: in}, Compression: p.Source.Compression}
		if cfgPath == "" {
			kind := parser.Kind(config.Parser{}, in)
			if in == file.Stdin {
				kind = "csv"
			}
			p.Parser = config.Parser{Kind: kind, Options: config.Options{}}
		}
	}
	if out != "" {
		p.Storage.File.Path = out
		if p.Storage.Kind == "" || cfgPath == "" {
			p.Storage.Kind = storageKindFor(out)
		}
	} else if p.Storage.Kind == "" && in != "" {
		p.Storage = config.Storage{Kind: "csv", File: config.StorageFile{Path: defaultOutput(in)}}
	}
	return p, nil
}

// storageKindFor picks a file sink from the output extension.
func storageKindFor(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return "xlsx"
	}
	return "csv"
}

// defaultOutput puts the prepared csv next to the input:
// "in/admissions.xlsx" -> "in/admissions_cleaned.csv".
func defaultOutput(in string) string {
	if in == file.Stdin {
		return "admissions_cleaned.csv"
	}
	base := compression.Trim(in)
	return strings.TrimSuffix(base, filepath.Ext(base)) + "_cleaned.csv"
}

func describe(cfgPath, in string) string {
	if cfgPath != "" {
		return cfgPath
	}
	return in
}
