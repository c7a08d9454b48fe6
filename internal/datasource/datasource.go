// Package datasource opens the raw bytes of a preparation input. A Source
// yields the stored object as-is; Open wraps it with the decompressor chosen
// from the configuration or the object name.
package datasource

import (
	"context"
	"fmt"
	"io"

	"clinprep/internal/config"
	"clinprep/internal/datasource/compression"
	"clinprep/internal/datasource/file"
	"clinprep/internal/datasource/objectstore"
)

// Source opens one input object for reading.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// New returns the Source selected by cfg.Kind. An empty kind means "file".
func New(cfg config.Source) (Source, error) {
	switch cfg.Kind {
	case "", "file":
		if cfg.File.Path == "" {
			return nil, fmt.Errorf("source.file.path is required")
		}
		return file.NewLocal(cfg.File.Path), nil
	case "s3":
		o, err := objectstore.New(objectstore.Config{
			Endpoint:  cfg.S3.Endpoint,
			Bucket:    cfg.S3.Bucket,
			Key:       cfg.S3.Key,
			Region:    cfg.S3.Region,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			UseSSL:    cfg.S3.UseSSL,
		})
		if err != nil {
			return nil, err
		}
		return o, nil
	default:
		return nil, fmt.Errorf("unsupported source kind %q", cfg.Kind)
	}
}

// Name is the object name used for compression and format detection.
func Name(cfg config.Source) string {
	if cfg.Kind == "s3" {
		return cfg.S3.Key
	}
	return cfg.File.Path
}

// Open opens the source described by cfg and returns a reader over the
// decompressed bytes. Closing it closes the underlying source too.
func Open(ctx context.Context, cfg config.Source) (io.ReadCloser, error) {
	src, err := New(cfg)
	if err != nil {
		return nil, err
	}
	kind := cfg.Compression
	if kind == "" {
		kind = compression.Detect(Name(cfg))
	}
	rc, err := src.Open(ctx)
	if err != nil {
		return nil, err
	}
	dr, err := compression.NewReader(kind, rc)
	if err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("decompress %s: %w", Name(cfg), err)
	}
	return dr, nil
}
