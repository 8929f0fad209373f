package textcache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/textcache/corpus"
	"github.com/hupe1980/textcache/kv/bolt"
	"github.com/hupe1980/textcache/testutil"
)

func TestLabelIndex(t *testing.T) {
	ctx := context.Background()
	recs := testutil.NewRNG(11).SkewedRecords(500, 4, 1.5)
	b := buildCache(t, bolt.Engine{}, corpus.Slice{corpus.Train: recs})

	ds, err := OpenDataset(b.SplitPath(corpus.Train))
	require.NoError(t, err)
	defer ds.Close()

	li, err := ds.LabelIndex(ctx)
	require.NoError(t, err)

	want := map[int]uint64{}
	for _, r := range recs {
		want[r.Label]++
	}
	assert.Equal(t, want, li.Counts())
	assert.Equal(t, uint64(500), li.Total())
	assert.Greater(t, li.Count(0), li.Count(3))

	for i, idx := range li.Indices(2) {
		assert.Equal(t, 2, recs[idx].Label, "index %d", i)
	}

	bm := li.Bitmap(1)
	bm.Clear()
	assert.Equal(t, want[1], li.Count(1), "Bitmap returns a copy")

	assert.Zero(t, li.Count(9))
	assert.Nil(t, li.Indices(9))
	assert.True(t, li.Bitmap(9).IsEmpty())
}

func TestLabelIndex_Canceled(t *testing.T) {
	b := buildCache(t, bolt.Engine{}, testutil.NewRNG(1).Corpus(10, 1, 2))
	ds, err := OpenDataset(b.SplitPath(corpus.Train))
	require.NoError(t, err)
	defer ds.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = ds.LabelIndex(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
