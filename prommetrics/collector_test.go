package prommetrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/textcache"
	"github.com/hupe1980/textcache/corpus"
	"github.com/hupe1980/textcache/vocab"
)

func TestCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.RecordBuild("train", 10, time.Second, nil)
	c.RecordBuild("train", 2, time.Second, errors.New("boom"))
	c.RecordSkip()
	c.RecordGet(time.Microsecond, nil)
	c.RecordTransfer("publish", 512, time.Second, nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.builds.WithLabelValues("train", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.builds.WithLabelValues("train", "error")))
	assert.Equal(t, 12.0, testutil.ToFloat64(c.buildSamples.WithLabelValues("train")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.skips))
	assert.Equal(t, 512.0, testutil.ToFloat64(c.transferBytes.WithLabelValues("publish")))

	n, err := testutil.GatherAndCount(reg, "textcache_get_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCollector_Build(t *testing.T) {
	c := New(nil)
	vz, err := vocab.NewVectorizer(vocab.Default(), 8)
	require.NoError(t, err)

	src := corpus.Slice{corpus.Train: {{Text: "a", Label: 0}, {Text: "b", Label: 1}}}
	b := textcache.NewBuilder(t.TempDir(), vz, textcache.WithMetricsCollector(c))
	_, err = b.Build(context.Background(), src)
	require.NoError(t, err)
	_, err = b.Build(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.buildSamples.WithLabelValues("train")))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.buildSamples.WithLabelValues("test")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.skips))
}
