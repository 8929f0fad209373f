package textcache

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBasicMetricsCollector(t *testing.T) {
	m := &BasicMetricsCollector{}
	boom := errors.New("boom")

	m.RecordBuild("train", 10, time.Millisecond, nil)
	m.RecordBuild("test", 3, time.Millisecond, boom)
	m.RecordSkip()
	m.RecordGet(2*time.Microsecond, nil)
	m.RecordGet(4*time.Microsecond, boom)
	m.RecordTransfer("publish", 100, time.Second, nil)
	m.RecordTransfer("fetch", 0, time.Second, boom)

	stats := m.GetStats()
	assert.Equal(t, int64(2), stats.BuildCount)
	assert.Equal(t, int64(1), stats.BuildErrors)
	assert.Equal(t, int64(13), stats.BuildSamples)
	assert.Equal(t, int64(1), stats.SkipCount)
	assert.Equal(t, int64(2), stats.GetCount)
	assert.Equal(t, int64(1), stats.GetErrors)
	assert.Equal(t, int64(3000), stats.GetAvgNanos)
	assert.Equal(t, int64(2), stats.TransferCount)
	assert.Equal(t, int64(1), stats.TransferErrors)
	assert.Equal(t, int64(100), stats.TransferBytes)
}

func TestBasicMetricsCollector_Empty(t *testing.T) {
	m := &BasicMetricsCollector{}
	assert.Zero(t, m.GetStats().GetAvgNanos)
}

func TestNoopMetricsCollector(t *testing.T) {
	var m MetricsCollector = NoopMetricsCollector{}
	m.RecordBuild("train", 1, time.Second, nil)
	m.RecordSkip()
	m.RecordGet(time.Second, nil)
	m.RecordTransfer("fetch", 1, time.Second, nil)
}
