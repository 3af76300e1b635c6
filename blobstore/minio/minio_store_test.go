package minio

import (
	"context"
	"io"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/largearray/blobstore"
)

func TestStore_KeyMapping(t *testing.T) {
	s := NewStore(nil, "bucket", "scans/")
	assert.Equal(t, "scans/a.lgar", s.key("a.lgar"))
	assert.Equal(t, "a.lgar", s.name("scans/a.lgar"))

	bare := NewStore(nil, "bucket", "")
	assert.Equal(t, "x/y.lgar", bare.key("x/y.lgar"))
	assert.Equal(t, "x/y.lgar", bare.name("x/y.lgar"))
}

// TestMinioStore_Integration requires a running MinIO instance.
// Skip if not available.
func TestMinioStore_Integration(t *testing.T) {
	bucket := "test-largearray"
	store, err := New("localhost:9000", bucket, WithCredentials("minioadmin", "minioadmin"),
		WithPrefix("test-prefix/"))
	if err != nil {
		t.Skipf("MinIO client creation failed: %v", err)
	}

	ctx := context.Background()
	if _, err := store.client.ListBuckets(ctx); err != nil {
		t.Skipf("MinIO not available: %v", err)
	}
	exists, err := store.client.BucketExists(ctx, bucket)
	require.NoError(t, err)
	if !exists {
		require.NoError(t, store.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}))
	}

	data := []byte("hello minio world")
	require.NoError(t, store.Put(ctx, "test.lgar", data))

	blob, err := store.Open(ctx, "test.lgar")
	require.NoError(t, err)
	require.Equal(t, int64(len(data)), blob.Size())

	rc, err := blob.ReadRange(ctx, 6, 5)
	require.NoError(t, err)
	part, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "minio", string(part))
	require.NoError(t, blob.Close())

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Contains(t, names, "test.lgar")

	require.NoError(t, store.Delete(ctx, "test.lgar"))
	_, err = store.Open(ctx, "test.lgar")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)

	wb, err := store.Create(ctx, "stream.lgar")
	require.NoError(t, err)
	_, err = wb.Write([]byte("streamed data"))
	require.NoError(t, err)
	require.NoError(t, wb.Close())

	blob, err = store.Open(ctx, "stream.lgar")
	require.NoError(t, err)
	assert.Equal(t, int64(13), blob.Size())
	require.NoError(t, blob.Close())

	_ = store.Delete(ctx, "stream.lgar")
}
