// Package logging builds the structured logger shared by the CLI and the
// pipeline runner.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"clinprep/internal/config"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// New returns a zerolog.Logger writing to w (os.Stderr when nil). Every event
// carries the job name and a run id unique to this process. verbose forces
// debug level regardless of cfg.Level.
func New(w io.Writer, cfg config.LoggingConfig, job string, verbose bool) (zerolog.Logger, string) {
	if w == nil {
		w = os.Stderr
	}
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	if verbose {
		level = zerolog.DebugLevel
	}
	if strings.EqualFold(cfg.Format, "console") {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	runID := uuid.NewString()
	l := zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Str("job", job).
		Str("run_id", runID).
		Logger()
	return l, runID
}
