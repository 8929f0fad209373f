package textcache

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/textcache/blobstore"
	"github.com/hupe1980/textcache/corpus"
	"github.com/hupe1980/textcache/kv"
	"github.com/hupe1980/textcache/resource"
	"github.com/hupe1980/textcache/testutil"
)

func TestPublishFetch(t *testing.T) {
	forEachEngine(t, func(t *testing.T, e kv.Engine) {
		ctx := context.Background()
		src := testutil.NewRNG(9).Corpus(60, 20, 3)
		b := buildCache(t, e, src)
		store := blobstore.NewMemoryStore()
		metrics := &BasicMetricsCollector{}
		rc := resource.NewController(resource.Config{IOLimitBytesPerSec: 64 << 20})

		for _, split := range corpus.Splits() {
			m, err := Publish(ctx, b.Root(), split, store, WithResourceController(rc), WithMetricsCollector(metrics))
			require.NoError(t, err)
			assert.Equal(t, split, m.Split)
			assert.Equal(t, e.Name(), m.Engine)
			assert.Equal(t, len(src[split]), m.Samples)
			require.Len(t, m.Files, 1)
		}

		names, err := store.List(ctx, "train/")
		require.NoError(t, err)
		assert.Contains(t, names, path.Join("train", ManifestName))

		root := t.TempDir()
		for _, split := range corpus.Splits() {
			m, err := Fetch(ctx, store, split, root, WithResourceController(rc), WithMetricsCollector(metrics))
			require.NoError(t, err)
			assert.Equal(t, len(src[split]), m.Samples)
		}

		stats := metrics.GetStats()
		assert.Equal(t, int64(4), stats.TransferCount)
		assert.Zero(t, stats.TransferErrors)
		assert.Positive(t, rc.IOBytes())
		assert.Equal(t, stats.TransferBytes, rc.IOBytes())

		ds, err := OpenDataset(filepath.Join(root, "train"))
		require.NoError(t, err)
		defer ds.Close()
		require.Equal(t, 60, ds.Len())
		require.NoError(t, ds.Verify(ctx))

		vz := newTestVectorizer(t, 16)
		s, err := ds.Get(ctx, 59)
		require.NoError(t, err)
		assert.Equal(t, vz.Transform(src[corpus.Train][59].Text), s.Tokens)

		// A fetched cache satisfies the existence check without source data.
		missing := corpus.NewCSV(filepath.Join(t.TempDir(), "gone"), corpus.FormatSentenceLabel)
		report, err := NewBuilder(root, vz).Build(ctx, missing)
		require.NoError(t, err)
		assert.True(t, report.Skipped)
	})
}

func TestPublish_LocalStore(t *testing.T) {
	ctx := context.Background()
	e, err := EngineByName("bolt")
	require.NoError(t, err)
	b := buildCache(t, e, testutil.NewRNG(1).Corpus(10, 2, 2))
	store := blobstore.NewLocalStore(t.TempDir())

	_, err = Publish(ctx, b.Root(), corpus.Test, store)
	require.NoError(t, err)

	m, err := ReadManifest(ctx, store, corpus.Test)
	require.NoError(t, err)
	assert.Equal(t, 2, m.Samples)
	assert.Equal(t, "bolt", m.Engine)
	assert.Positive(t, m.Bytes())

	root := t.TempDir()
	_, err = Fetch(ctx, store, corpus.Test, root)
	require.NoError(t, err)
	assert.DirExists(t, filepath.Join(root, "test"))
}

func TestPublish_Incomplete(t *testing.T) {
	forEachEngine(t, func(t *testing.T, e kv.Engine) {
		ctx := context.Background()
		root := t.TempDir()
		writeRaw(t, e, filepath.Join(root, "train"), []int{0, 1}, -1)
		store := blobstore.NewMemoryStore()

		_, err := Publish(ctx, root, corpus.Train, store)
		assert.ErrorIs(t, err, ErrIncompleteCache)

		names, err := store.List(ctx, "")
		require.NoError(t, err)
		assert.Empty(t, names)
	})
}

func TestPublish_Missing(t *testing.T) {
	_, err := Publish(context.Background(), t.TempDir(), corpus.Train, blobstore.NewMemoryStore())
	assert.ErrorIs(t, err, ErrMissingCache)
}

func TestFetch_NotPublished(t *testing.T) {
	m := &BasicMetricsCollector{}
	_, err := Fetch(context.Background(), blobstore.NewMemoryStore(), corpus.Train, t.TempDir(), WithMetricsCollector(m))
	assert.ErrorIs(t, err, ErrNotPublished)
	assert.Equal(t, int64(1), m.GetStats().TransferErrors)
}

func TestFetch_Corrupt(t *testing.T) {
	ctx := context.Background()
	e, err := EngineByName("segment")
	require.NoError(t, err)
	b := buildCache(t, e, testutil.NewRNG(3).Corpus(20, 2, 2))
	store := blobstore.NewMemoryStore()

	m, err := Publish(ctx, b.Root(), corpus.Train, store)
	require.NoError(t, err)

	name := path.Join("train", m.Files[0].Name)
	data, err := blobstore.ReadAll(ctx, store, name)
	require.NoError(t, err)
	data[len(data)/2] ^= 0xff
	require.NoError(t, store.Put(ctx, name, data))

	root := t.TempDir()
	_, err = Fetch(ctx, store, corpus.Train, root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "checksum")

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries, "a failed fetch leaves nothing behind")

	t.Run("Truncated", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, name, data[:len(data)-1]))
		_, err := Fetch(ctx, store, corpus.Train, root)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "size")
	})
}

func TestFetch_Existing(t *testing.T) {
	ctx := context.Background()
	e, err := EngineByName("bolt")
	require.NoError(t, err)
	b := buildCache(t, e, testutil.NewRNG(3).Corpus(4, 2, 2))
	store := blobstore.NewMemoryStore()
	_, err = Publish(ctx, b.Root(), corpus.Train, store)
	require.NoError(t, err)

	root := t.TempDir()
	dst := filepath.Join(root, "train")
	require.NoError(t, os.MkdirAll(dst, 0o755))

	m := &BasicMetricsCollector{}
	_, err = Fetch(ctx, store, corpus.Train, root, WithMetricsCollector(m))
	require.NoError(t, err)
	assert.Zero(t, m.GetStats().TransferBytes)

	_, err = OpenDataset(dst)
	assert.ErrorIs(t, err, ErrMissingCache)

	_, err = Fetch(ctx, store, corpus.Train, root, WithForceRebuild(true))
	require.NoError(t, err)

	ds, err := OpenDataset(dst)
	require.NoError(t, err)
	defer ds.Close()
	assert.Equal(t, 4, ds.Len())
}
