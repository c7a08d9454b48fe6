// Package objectstore reads a single input object from an S3-compatible
// store (AWS S3, MinIO, Ceph) through minio-go.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ErrNotFound is returned by Open when the object does not exist.
var ErrNotFound = errors.New("object not found")

// Config addresses one object.
type Config struct {
	Endpoint  string
	Bucket    string
	Key       string
	Region    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// Object is a Source bound to one bucket/key.
type Object struct {
	client *minio.Client
	bucket string
	key    string
}

// New validates cfg and builds a client. No request is made until Open.
func New(cfg Config) (*Object, error) {
	switch {
	case cfg.Endpoint == "":
		return nil, fmt.Errorf("source.s3.endpoint is required")
	case cfg.Bucket == "":
		return nil, fmt.Errorf("source.s3.bucket is required")
	case cfg.Key == "":
		return nil, fmt.Errorf("source.s3.key is required")
	}
	var creds *credentials.Credentials
	if cfg.AccessKey != "" {
		creds = credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, "")
	} else {
		creds = credentials.NewEnvAWS()
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  creds,
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("s3 client: %w", err)
	}
	return NewWithClient(client, cfg.Bucket, cfg.Key), nil
}

// NewWithClient binds an existing client.
func NewWithClient(client *minio.Client, bucket, key string) *Object {
	return &Object{client: client, bucket: bucket, key: key}
}

// Open stats the object so missing keys fail here rather than on first Read,
// then streams it.
func (o *Object) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := o.client.StatObject(ctx, o.bucket, o.key, minio.StatObjectOptions{}); err != nil {
		return nil, o.wrap(err)
	}
	obj, err := o.client.GetObject(ctx, o.bucket, o.key, minio.GetObjectOptions{})
	if err != nil {
		return nil, o.wrap(err)
	}
	return obj, nil
}

// Put uploads r as the bound object. Used by tests and by operators seeding
// a bucket.
func (o *Object) Put(ctx context.Context, r io.Reader, size int64) error {
	_, err := o.client.PutObject(ctx, o.bucket, o.key, r, size, minio.PutObjectOptions{})
	if err != nil {
		return o.wrap(err)
	}
	return nil
}

func (o *Object) wrap(err error) error {
	code := minio.ToErrorResponse(err).Code
	if code == "NoSuchKey" || code == "NotFound" || code == "NoSuchBucket" {
		return fmt.Errorf("s3://%s/%s: %w", o.bucket, o.key, ErrNotFound)
	}
	return fmt.Errorf("s3://%s/%s: %w", o.bucket, o.key, err)
}
