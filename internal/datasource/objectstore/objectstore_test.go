package objectstore

import (
	"bytes"
	"context"
	"io"
	"os"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{Bucket: "b", Key: "k"})
	assert.ErrorContains(t, err, "endpoint")
	_, err = New(Config{Endpoint: "localhost:9000", Key: "k"})
	assert.ErrorContains(t, err, "bucket")
	_, err = New(Config{Endpoint: "localhost:9000", Bucket: "b"})
	assert.ErrorContains(t, err, "key")

	o, err := New(Config{Endpoint: "localhost:9000", Bucket: "b", Key: "k", AccessKey: "a", SecretKey: "s"})
	require.NoError(t, err)
	assert.Equal(t, "b", o.bucket)
}

func TestOpen_CanceledContext(t *testing.T) {
	o, err := New(Config{Endpoint: "localhost:9000", Bucket: "b", Key: "k", AccessKey: "a", SecretKey: "s"})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = o.Open(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

// TestObject_Integration needs a MinIO instance; set CLINPREP_S3_ENDPOINT
// (e.g. localhost:9000) to run it.
func TestObject_Integration(t *testing.T) {
	endpoint := os.Getenv("CLINPREP_S3_ENDPOINT")
	if endpoint == "" {
		t.Skip("CLINPREP_S3_ENDPOINT not set")
	}
	const bucket = "clinprep-test"
	o, err := New(Config{Endpoint: endpoint, Bucket: bucket, Key: "in/admissions.csv", AccessKey: "minioadmin", SecretKey: "minioadmin"})
	require.NoError(t, err)

	ctx := context.Background()
	exists, err := o.client.BucketExists(ctx, bucket)
	if err != nil {
		t.Skipf("MinIO not available: %v", err)
	}
	if !exists {
		require.NoError(t, o.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}))
	}

	payload := []byte("Sex,BMI\nMale,22.5\n")
	require.NoError(t, o.Put(ctx, bytes.NewReader(payload), int64(len(payload))))

	rc, err := o.Open(ctx)
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, payload, got)

	_, err = NewWithClient(o.client, bucket, "in/missing.csv").Open(ctx)
	assert.ErrorIs(t, err, ErrNotFound)
}
