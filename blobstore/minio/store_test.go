package minio

import (
	"context"
	"io"
	"os"
	"testing"

	"github.com/hupe1980/textcache/blobstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ blobstore.BlobStore = (*Store)(nil)

// TestStore_Integration requires a running MinIO instance.
// Set MINIO_ENDPOINT (e.g. localhost:9000) to enable it.
func TestStore_Integration(t *testing.T) {
	endpoint := os.Getenv("MINIO_ENDPOINT")
	if endpoint == "" {
		t.Skip("MINIO_ENDPOINT not set")
	}

	ctx := context.Background()
	store, err := Dial(ctx, Config{
		Endpoint:     endpoint,
		AccessKey:    "minioadmin",
		SecretKey:    "minioadmin",
		Bucket:       "test-textcache",
		Prefix:       "test-prefix/",
		CreateBucket: true,
	})
	if err != nil {
		t.Skipf("MinIO not available: %v", err)
	}

	data := []byte("hello minio world")
	require.NoError(t, store.Put(ctx, "train/MANIFEST.json", data))

	b, err := store.Open(ctx, "train/MANIFEST.json")
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), b.Size())

	buf := make([]byte, 5)
	n, err := b.ReadAt(buf, 6)
	require.NoError(t, err)
	assert.Equal(t, "minio", string(buf[:n]))

	aborted, err := store.Create(ctx, "train/aborted.db")
	require.NoError(t, err)
	_, _ = aborted.Write([]byte("partial"))
	require.NoError(t, aborted.Abort())

	w, err := store.Create(ctx, "train/data.db")
	require.NoError(t, err)
	_, err = w.Write([]byte("streamed"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	names, err := store.List(ctx, "train/")
	require.NoError(t, err)
	assert.Equal(t, []string{"train/MANIFEST.json", "train/data.db"}, names)

	require.NoError(t, store.Delete(ctx, "train/data.db"))
	require.NoError(t, store.Delete(ctx, "train/MANIFEST.json"))

	_, err = store.Open(ctx, "train/data.db")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestStore_Key(t *testing.T) {
	s := NewStore(nil, "bucket", "caches/")
	assert.Equal(t, "caches/train/data.db", s.key("train/data.db"))
	assert.Equal(t, "train/data.db", NewStore(nil, "bucket", "").key("train/data.db"))
}

func TestPutOptions(t *testing.T) {
	assert.Equal(t, "application/json", putOptions("train/MANIFEST.json").ContentType)
	opts := putOptions("train/data.seg")
	assert.Equal(t, "application/octet-stream", opts.ContentType)
	assert.Equal(t, uint64(partSize), opts.PartSize)
}

func TestUpload_AbortAfterClose(t *testing.T) {
	pr, pw := io.Pipe()
	u := &upload{pw: pw, done: make(chan error, 1)}
	go func() {
		_, err := io.Copy(io.Discard, pr)
		u.done <- err
	}()

	_, err := u.Write([]byte("data"))
	require.NoError(t, err)
	require.NoError(t, u.Close())
	assert.Error(t, u.Close())
	assert.NoError(t, u.Abort())
}
