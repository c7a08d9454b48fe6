// Package webui exposes a minimal HTTP server with an upload form that
// profiles an admissions export and shows either the column summary or a
// starter pipeline config for it.
//
// Routes:
//
//	GET  /          → form
//	POST /probe     → profiles the uploaded file; renders output inline
//	POST /api/probe → machine-friendly API, returns the raw body
//
// Both POST routes take a multipart form with a "file" part and an optional
// "mode" field: "text" (default), "json" or "suggest". The uploaded file name
// selects the parser and decompressor, so "admissions.csv.gz" works as is.
package webui

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strings"
	"time"

	"clinprep/internal/config"
	"clinprep/internal/datasource/compression"
	"clinprep/internal/parser"
	"clinprep/internal/probe"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
)

// DefaultMaxUpload bounds the accepted upload size.
const DefaultMaxUpload = 64 << 20

// Config controls server startup.
type Config struct {
	Addr string

	// Job names the suggested pipeline. Default "admissions".
	Job string

	// MaxUpload is the largest accepted file in bytes. Default DefaultMaxUpload.
	MaxUpload int64

	Logger zerolog.Logger
}

// Server wraps http.Server for convenience.
type Server struct {
	cfg  Config
	mux  *http.ServeMux
	tmpl *template.Template
}

// NewServer constructs a Server with routes and embedded template.
func NewServer(cfg Config) *Server {
	if cfg.Job == "" {
		cfg.Job = "admissions"
	}
	if cfg.MaxUpload <= 0 {
		cfg.MaxUpload = DefaultMaxUpload
	}
	s := &Server{
		cfg:  cfg,
		mux:  http.NewServeMux(),
		tmpl: template.Must(template.New("index").Parse(indexHTML)),
	}
	s.routes()
	return s
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.mux }

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shut, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shut); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("POST /probe", s.handleProbe)
	s.mux.HandleFunc("POST /api/probe", s.handleAPIProbe)
}

// page is the template data.
type page struct {
	Name       string
	Size       string
	Mode       string
	Max        string
	ResultText string
	Error      string
}

// handleIndex renders the input form.
func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	s.render(w, http.StatusOK, page{Mode: "text", Max: humanize.IBytes(uint64(s.cfg.MaxUpload))})
}

// handleProbe processes the form and renders a results page.
func (s *Server) handleProbe(w http.ResponseWriter, r *http.Request) {
	body, name, size, err := s.run(w, r)
	p := page{
		Name: name,
		Size: humanize.IBytes(uint64(size)),
		Mode: r.FormValue("mode"),
		Max:  humanize.IBytes(uint64(s.cfg.MaxUpload)),
	}
	if err != nil {
		p.Error = err.Error()
		s.render(w, http.StatusBadRequest, p)
		return
	}
	p.ResultText = string(body)
	s.render(w, http.StatusOK, p)
}

// handleAPIProbe returns the raw output so scripts can curl it easily:
//
//	curl -F file=@admissions.xlsx -F mode=suggest localhost:8080/api/probe
func (s *Server) handleAPIProbe(w http.ResponseWriter, r *http.Request) {
	body, _, _, err := s.run(w, r)
	if err != nil {
		http.Error(w, "probe failed: "+err.Error(), http.StatusBadRequest)
		return
	}
	ct := "text/plain; charset=utf-8"
	if m := r.FormValue("mode"); m == "json" || m == "suggest" {
		ct = "application/json"
	}
	w.Header().Set("Content-Type", ct)
	_, _ = w.Write(body)
}

// run reads the uploaded file, profiles it and returns the rendered output.
func (s *Server) run(w http.ResponseWriter, r *http.Request) ([]byte, string, int64, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUpload)
	if err := r.ParseMultipartForm(s.cfg.MaxUpload); err != nil {
		return nil, "", 0, fmt.Errorf("bad form: %w", err)
	}
	f, hdr, err := r.FormFile("file")
	if err != nil {
		return nil, "", 0, fmt.Errorf("file: %w", err)
	}
	defer f.Close()

	log := s.cfg.Logger.With().Str("file", hdr.Filename).Int64("size", hdr.Size).Logger()
	start := time.Now()
	body, err := s.profile(r.Context(), hdr.Filename, f, r.FormValue("mode"), log)
	if err != nil {
		log.Warn().Err(err).Msg("probe failed")
		return nil, hdr.Filename, hdr.Size, err
	}
	log.Info().Dur("took", time.Since(start)).Msg("probe served")
	return body, hdr.Filename, hdr.Size, nil
}

func (s *Server) profile(ctx context.Context, name string, r io.Reader, mode string, log zerolog.Logger) ([]byte, error) {
	rc, err := compression.NewReader(compression.Detect(name), io.NopCloser(r))
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	ps, err := parser.New(config.Parser{Options: config.Options{}}, name, log)
	if err != nil {
		return nil, err
	}
	t, err := ps.Parse(ctx, rc)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}

	cols := probe.Profile(t, probe.Options{})
	var buf bytes.Buffer
	switch strings.ToLower(mode) {
	case "", "text":
		err = probe.WriteText(&buf, cols)
	case "json":
		err = probe.WriteJSON(&buf, cols)
	case "suggest":
		src := config.Source{Kind: "file", File: config.SourceFile{Path: name}}
		err = probe.WriteConfig(&buf, probe.Suggest(s.cfg.Job, src, cols))
	default:
		return nil, fmt.Errorf("unknown mode %q", mode)
	}
	return buf.Bytes(), err
}

func (s *Server) render(w http.ResponseWriter, status int, p page) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.tmpl.Execute(w, p); err != nil {
		s.cfg.Logger.Error().Err(err).Msg("template")
	}
}

// indexHTML is an embedded, minimal page with vanilla styling.
//
//go:embed index.tmpl.html
var indexHTML string
