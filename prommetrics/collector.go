// Package prommetrics exports textcache metrics to Prometheus.
//
//	c := prommetrics.New(prometheus.DefaultRegisterer)
//	b := textcache.NewBuilder(root, vz, textcache.WithMetricsCollector(c))
package prommetrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/textcache"
)

const namespace = "textcache"

// Collector implements textcache.MetricsCollector.
type Collector struct {
	builds        *prometheus.CounterVec
	buildSamples  *prometheus.CounterVec
	buildDuration *prometheus.HistogramVec
	skips         prometheus.Counter
	getLatency    *prometheus.HistogramVec
	transfers     *prometheus.CounterVec
	transferBytes *prometheus.CounterVec
}

var _ textcache.MetricsCollector = (*Collector)(nil)

// New creates a collector and registers it with reg. A nil reg skips
// registration.
func New(reg prometheus.Registerer) *Collector {
	c := &Collector{
		builds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "builds_total",
			Help:      "Split builds by outcome.",
		}, []string{"split", "status"}),
		buildSamples: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "build_samples_total",
			Help:      "Records written by split builds.",
		}, []string{"split"}),
		buildDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Duration of split builds.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10),
		}, []string{"split"}),
		skips: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "build_skips_total",
			Help:      "Builds skipped because the cache already existed.",
		}),
		getLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "get_duration_seconds",
			Help:      "Latency of random-access reads.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
		}, []string{"status"}),
		transfers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transfers_total",
			Help:      "Publish and fetch operations by outcome.",
		}, []string{"op", "status"}),
		transferBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transfer_bytes_total",
			Help:      "Store bytes moved by publish and fetch.",
		}, []string{"op"}),
	}

	if reg != nil {
		reg.MustRegister(
			c.builds,
			c.buildSamples,
			c.buildDuration,
			c.skips,
			c.getLatency,
			c.transfers,
			c.transferBytes,
		)
	}
	return c
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordBuild implements textcache.MetricsCollector.
func (c *Collector) RecordBuild(split string, samples int, d time.Duration, err error) {
	c.builds.WithLabelValues(split, status(err)).Inc()
	c.buildSamples.WithLabelValues(split).Add(float64(samples))
	c.buildDuration.WithLabelValues(split).Observe(d.Seconds())
}

// RecordSkip implements textcache.MetricsCollector.
func (c *Collector) RecordSkip() {
	c.skips.Inc()
}

// RecordGet implements textcache.MetricsCollector.
func (c *Collector) RecordGet(d time.Duration, err error) {
	c.getLatency.WithLabelValues(status(err)).Observe(d.Seconds())
}

// RecordTransfer implements textcache.MetricsCollector.
func (c *Collector) RecordTransfer(op string, bytes int64, _ time.Duration, err error) {
	c.transfers.WithLabelValues(op, status(err)).Inc()
	c.transferBytes.WithLabelValues(op).Add(float64(bytes))
}
