package textcache

import (
	"context"
	"errors"
	"iter"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/textcache/codec"
	"github.com/hupe1980/textcache/corpus"
	"github.com/hupe1980/textcache/kv"
	"github.com/hupe1980/textcache/testutil"
	"github.com/hupe1980/textcache/vocab"
)

const testAlphabet = "abcdefghijklmnopqrstuvwxyz "

func newTestVectorizer(t *testing.T, maxLen int) *vocab.Vectorizer {
	t.Helper()
	vz, err := vocab.NewVectorizer(vocab.New(testAlphabet), maxLen)
	require.NoError(t, err)
	return vz
}

func forEachEngine(t *testing.T, fn func(t *testing.T, e kv.Engine)) {
	for _, name := range Engines() {
		t.Run(name, func(t *testing.T) {
			e, err := EngineByName(name)
			require.NoError(t, err)
			fn(t, e)
		})
	}
}

func ids(t *testing.T, s string) []int {
	t.Helper()
	v := vocab.New(testAlphabet)
	out := make([]int, 0, len(s))
	for _, r := range s {
		out = append(out, v.ID(r))
	}
	return out
}

func TestBuilder(t *testing.T) {
	forEachEngine(t, func(t *testing.T, e kv.Engine) {
		t.Run("ThreeRecords", func(t *testing.T) {
			ctx := context.Background()
			root := t.TempDir()
			src := corpus.Slice{
				corpus.Train: {
					{Text: "hello world", Label: 1},
					{Text: "", Label: 0},
					{Text: strings.Repeat("x", 100), Label: 2},
				},
			}

			b := NewBuilder(root, newTestVectorizer(t, 10), WithEngine(e))
			report, err := b.Build(ctx, src)
			require.NoError(t, err)
			assert.False(t, report.Skipped)
			assert.Equal(t, 3, report.Splits[corpus.Train].Samples)
			assert.Equal(t, 0, report.Splits[corpus.Test].Samples)

			ds, err := OpenDataset(b.SplitPath(corpus.Train))
			require.NoError(t, err)
			defer ds.Close()
			require.Equal(t, 3, ds.Len())

			s, err := ds.Get(ctx, 0)
			require.NoError(t, err)
			assert.Equal(t, ids(t, "hello worl"), s.Tokens)
			assert.Equal(t, 1, s.Label)

			s, err = ds.Get(ctx, 1)
			require.NoError(t, err)
			assert.Equal(t, make([]int, 10), s.Tokens)
			assert.Equal(t, 0, s.Label)

			s, err = ds.Get(ctx, 2)
			require.NoError(t, err)
			assert.Equal(t, ids(t, strings.Repeat("x", 10)), s.Tokens)
			assert.Equal(t, 2, s.Label)

			test, err := OpenDataset(b.SplitPath(corpus.Test))
			require.NoError(t, err)
			defer test.Close()
			assert.Equal(t, 0, test.Len())
		})

		t.Run("RoundTrip", func(t *testing.T) {
			ctx := context.Background()
			rng := testutil.NewRNG(4711)
			src := rng.Corpus(200, 50, 4)
			vz := newTestVectorizer(t, 32)

			b := NewBuilder(t.TempDir(), vz, WithEngine(e), WithCommitEvery(17))
			_, err := b.Build(ctx, src)
			require.NoError(t, err)

			for _, split := range corpus.Splits() {
				ds, err := OpenDataset(b.SplitPath(split))
				require.NoError(t, err)
				require.Equal(t, len(src[split]), ds.Len())

				for i, rec := range src[split] {
					s, err := ds.Get(ctx, i)
					require.NoError(t, err)
					assert.Equal(t, vz.Transform(rec.Text), s.Tokens)
					assert.Equal(t, rec.Label, s.Label)
				}
				require.NoError(t, ds.Verify(ctx))
				require.NoError(t, ds.Close())
			}
		})
	})
}

// snapshot reads every sample of every split under root.
func snapshot(t *testing.T, b *Builder) map[corpus.Split][]Sample {
	t.Helper()
	out := make(map[corpus.Split][]Sample)
	for _, split := range corpus.Splits() {
		ds, err := OpenDataset(b.SplitPath(split))
		require.NoError(t, err)
		samples := make([]Sample, ds.Len())
		for i := range samples {
			samples[i], err = ds.Get(context.Background(), i)
			require.NoError(t, err)
		}
		require.NoError(t, ds.Close())
		out[split] = samples
	}
	return out
}

func TestBuilder_Idempotent(t *testing.T) {
	forEachEngine(t, func(t *testing.T, e kv.Engine) {
		ctx := context.Background()
		root := t.TempDir()
		src := corpus.NewCounting(testutil.NewRNG(1).Corpus(30, 10, 2))
		metrics := &BasicMetricsCollector{}
		vz := newTestVectorizer(t, 16)

		b := NewBuilder(root, vz, WithEngine(e), WithMetricsCollector(metrics))
		report, err := b.Build(ctx, src)
		require.NoError(t, err)
		assert.False(t, report.Skipped)
		assert.Equal(t, int64(40), src.Count())

		before := snapshot(t, b)
		require.Len(t, before[corpus.Train], 30)
		require.Len(t, before[corpus.Test], 10)

		b = NewBuilder(root, vz, WithEngine(e), WithMetricsCollector(metrics))
		report, err = b.Build(ctx, src)
		require.NoError(t, err)
		assert.True(t, report.Skipped)
		assert.Empty(t, report.Splits)
		assert.Equal(t, int64(40), src.Count(), "a skipped build must not read the corpus")
		assert.Equal(t, before, snapshot(t, b))

		stats := metrics.GetStats()
		assert.Equal(t, int64(2), stats.BuildCount)
		assert.Equal(t, int64(40), stats.BuildSamples)
		assert.Equal(t, int64(1), stats.SkipCount)

		t.Run("ForceRebuild", func(t *testing.T) {
			b := NewBuilder(root, vz, WithEngine(e), WithForceRebuild(true))
			report, err := b.Build(ctx, src)
			require.NoError(t, err)
			assert.False(t, report.Skipped)
			assert.Equal(t, int64(80), src.Count())
			assert.Equal(t, before, snapshot(t, b))
		})

		t.Run("ExistenceOnly", func(t *testing.T) {
			// A cache whose source has since disappeared is still reused.
			missing := corpus.NewCSV(filepath.Join(t.TempDir(), "gone"), corpus.FormatSentenceLabel)
			b := NewBuilder(root, vz, WithEngine(e))
			report, err := b.Build(ctx, missing)
			require.NoError(t, err)
			assert.True(t, report.Skipped)
			assert.Equal(t, before, snapshot(t, b))
		})
	})
}

func TestBuilder_PartialCacheRebuilds(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	vz := newTestVectorizer(t, 8)
	b := NewBuilder(root, vz)

	train := testutil.NewRNG(2).Records(5, 2)
	_, err := b.BuildSplit(ctx, corpus.Train, corpus.Slice{corpus.Train: train}.Records(ctx, corpus.Train))
	require.NoError(t, err)
	assert.False(t, b.Exists())

	src := corpus.NewCounting(testutil.NewRNG(3).Corpus(7, 3, 2))
	report, err := b.Build(ctx, src)
	require.NoError(t, err)
	assert.False(t, report.Skipped)
	assert.Equal(t, int64(10), src.Count())
	assert.Equal(t, 7, report.Splits[corpus.Train].Samples)
}

func TestBuilder_MissingSource(t *testing.T) {
	root := filepath.Join(t.TempDir(), "cache")
	src := corpus.NewCSV(t.TempDir(), corpus.FormatTitleDescription)

	_, err := NewBuilder(root, newTestVectorizer(t, 8)).Build(context.Background(), src)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingSource)
	assert.ErrorIs(t, err, corpus.ErrMissingSource)

	var mse *corpus.MissingSourceError
	require.ErrorAs(t, err, &mse)
	assert.ElementsMatch(t, []string{"train.csv", "test.csv"}, mse.Missing)
	assert.NoDirExists(t, filepath.Join(root, "train"))
}

func TestBuilder_FromCSV(t *testing.T) {
	ctx := context.Background()
	want := testutil.NewRNG(5).Corpus(40, 12, 4)
	src := testutil.WriteCorpus(t, t.TempDir(), corpus.FormatTitleDescription, want)
	vz := newTestVectorizer(t, 24)

	b := NewBuilder(t.TempDir(), vz, WithClasses(4), WithParallelSplits(false))
	report, err := b.Build(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, 40, report.Splits[corpus.Train].Samples)
	assert.Equal(t, 12, report.Splits[corpus.Test].Samples)

	ds, err := OpenDataset(b.SplitPath(corpus.Test))
	require.NoError(t, err)
	defer ds.Close()

	s, err := ds.Get(ctx, 11)
	require.NoError(t, err)
	assert.Equal(t, vz.Transform(want[corpus.Test][11].Text), s.Tokens)
	assert.Equal(t, want[corpus.Test][11].Label, s.Label)
}

func TestBuilder_LabelOutOfRange(t *testing.T) {
	forEachEngine(t, func(t *testing.T, e kv.Engine) {
		root := t.TempDir()
		src := corpus.Slice{
			corpus.Train: {{Text: "ok", Label: 0}, {Text: "bad", Label: 5}},
			corpus.Test:  {{Text: "ok", Label: 1}},
		}

		_, err := NewBuilder(root, newTestVectorizer(t, 8), WithEngine(e), WithClasses(2)).Build(context.Background(), src)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrLabelOutOfRange)

		var be *BuildError
		require.ErrorAs(t, err, &be)
		assert.Equal(t, corpus.Train, be.Split)
		assert.Equal(t, 1, be.Index)

		var le *LabelError
		require.ErrorAs(t, err, &le)
		assert.Equal(t, 5, le.Label)

		assert.NoDirExists(t, filepath.Join(root, "train"))
	})
}

func TestBuilder_NegativeLabel(t *testing.T) {
	src := corpus.Slice{corpus.Train: {{Text: "neg", Label: -1}}}

	_, err := NewBuilder(t.TempDir(), newTestVectorizer(t, 4)).Build(context.Background(), src)
	require.Error(t, err)
	assert.ErrorIs(t, err, codec.ErrValueOutOfRange)
	var be *BuildError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, 0, be.Index)
}

func TestBuilder_MapFull(t *testing.T) {
	forEachEngine(t, func(t *testing.T, e kv.Engine) {
		root := t.TempDir()
		src := testutil.NewRNG(7).Corpus(2000, 1, 2)

		_, err := NewBuilder(root, newTestVectorizer(t, 64), WithEngine(e), WithMapSize(64<<10)).Build(context.Background(), src)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrMapFull)
		assert.ErrorIs(t, err, kv.ErrMapFull)
		assert.Contains(t, err.Error(), "WithMapSize")
		assert.NoDirExists(t, filepath.Join(root, "train"))
	})
}

func TestBuilder_SourceError(t *testing.T) {
	root := t.TempDir()
	boom := errors.New("boom")
	b := NewBuilder(root, newTestVectorizer(t, 4))

	records := func(yield func(corpus.Record, error) bool) {
		if !yield(corpus.Record{Text: "a"}, nil) {
			return
		}
		yield(corpus.Record{}, boom)
	}
	_, err := b.BuildSplit(context.Background(), corpus.Train, iter.Seq2[corpus.Record, error](records))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.NoDirExists(t, b.SplitPath(corpus.Train))
}

func TestBuilder_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := NewBuilder(t.TempDir(), newTestVectorizer(t, 4))
	_, err := b.Build(ctx, testutil.NewRNG(1).Corpus(10, 10, 2))
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, b.Exists())
}

func TestBuilder_Progress(t *testing.T) {
	var (
		mu   sync.Mutex
		seen = map[corpus.Split][]int{}
	)
	progress := func(split corpus.Split, n int) {
		mu.Lock()
		defer mu.Unlock()
		seen[split] = append(seen[split], n)
	}

	_, err := NewBuilder(t.TempDir(), newTestVectorizer(t, 4),
		WithCommitEvery(10),
		WithProgress(progress),
	).Build(context.Background(), testutil.NewRNG(1).Corpus(25, 10, 2))
	require.NoError(t, err)

	assert.Equal(t, []int{10, 20, 25}, seen[corpus.Train])
	assert.Equal(t, []int{10, 10}, seen[corpus.Test])
}

func TestBuilder_Preprocessor(t *testing.T) {
	ctx := context.Background()
	src := corpus.Slice{corpus.Train: {{Text: "HeLLo", Label: 0}}}
	vz := newTestVectorizer(t, 5)

	b := NewBuilder(t.TempDir(), vz, WithPreprocessor(vocab.Lowercase()))
	_, err := b.Build(ctx, src)
	require.NoError(t, err)

	ds, err := OpenDataset(b.SplitPath(corpus.Train))
	require.NoError(t, err)
	defer ds.Close()

	s, err := ds.Get(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, ids(t, "hello"), s.Tokens)
}

func TestBuilder_NoVectorizer(t *testing.T) {
	_, err := NewBuilder(t.TempDir(), nil).Build(context.Background(), corpus.Slice{})
	assert.Error(t, err)
}
