package textcache

import (
	"log/slog"
	"os"
	"time"

	"github.com/hupe1980/textcache/corpus"
	"github.com/hupe1980/textcache/internal/fs"
	"github.com/hupe1980/textcache/kv"
	"github.com/hupe1980/textcache/resource"
	"github.com/hupe1980/textcache/vocab"
)

// DefaultCommitEvery is the number of records written per transaction.
const DefaultCommitEvery = 100_000

// ProgressFunc receives the number of records written to a split so far.
// It is called after every commit and must be safe for concurrent use when
// splits build in parallel.
type ProgressFunc func(split corpus.Split, samples int)

type options struct {
	logger         *Logger
	metrics        MetricsCollector
	engine         kv.Engine
	kv             kv.Options
	commitEvery    int
	parallelSplits bool
	classes        int
	forceRebuild   bool
	progress       ProgressFunc
	preprocessor   vocab.Preprocessor
	maxReaders     int64
	resources      *resource.Controller
	fs             fs.FileSystem
}

// Option configures builders, datasets and transfers.
//
// Options that do not apply to an operation are ignored by it.
type Option func(*options)

func applyOptions(opts []Option) options {
	o := options{
		logger:         NoopLogger(),
		metrics:        NoopMetricsCollector{},
		kv:             kv.DefaultOptions,
		commitEvery:    DefaultCommitEvery,
		parallelSplits: true,
		preprocessor:   vocab.Identity(),
		fs:             fs.Default,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLogger sets the logger. If nil is passed, logging is disabled.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithLogLevel logs to stderr as text at the given level.
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(os.Stderr, level)
	}
}

// WithMetricsCollector sets the metrics sink. If nil is passed, metrics are discarded.
func WithMetricsCollector(m MetricsCollector) Option {
	return func(o *options) {
		if m == nil {
			m = NoopMetricsCollector{}
		}
		o.metrics = m
	}
}

// WithEngine selects the store engine.
//
// Builders default to the bolt engine. Datasets detect the engine from the
// files present when none is given.
func WithEngine(e kv.Engine) Option {
	return func(o *options) {
		o.engine = e
	}
}

// WithMapSize sets the build-mode size ceiling of each split store.
// The ceiling is fixed for the lifetime of a build.
func WithMapSize(bytes int64) Option {
	return func(o *options) {
		o.kv.MapSize = bytes
	}
}

// WithLockTimeout bounds waiting on file locks held by other processes.
func WithLockTimeout(d time.Duration) Option {
	return func(o *options) {
		o.kv.LockTimeout = d
	}
}

// WithCommitEvery sets how many records are written per transaction.
// Values <= 0 select DefaultCommitEvery.
func WithCommitEvery(n int) Option {
	return func(o *options) {
		if n <= 0 {
			n = DefaultCommitEvery
		}
		o.commitEvery = n
	}
}

// WithParallelSplits controls whether splits build concurrently. Default: true.
func WithParallelSplits(enabled bool) Option {
	return func(o *options) {
		o.parallelSplits = enabled
	}
}

// WithClasses validates every label against [0, n) during builds.
// n <= 0 disables validation.
func WithClasses(n int) Option {
	return func(o *options) {
		o.classes = n
	}
}

// WithForceRebuild rebuilds both splits even if their directories exist.
// Use it after ErrIncompleteCache.
func WithForceRebuild(enabled bool) Option {
	return func(o *options) {
		o.forceRebuild = enabled
	}
}

// WithProgress installs a progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(o *options) {
		o.progress = fn
	}
}

// WithPreprocessor sets the text transform applied before vectorization.
// Default: vocab.Identity().
func WithPreprocessor(p vocab.Preprocessor) Option {
	return func(o *options) {
		if p == nil {
			p = vocab.Identity()
		}
		o.preprocessor = p
	}
}

// WithMaxReaders bounds concurrent Get calls on a dataset. 0 means unbounded.
func WithMaxReaders(n int) Option {
	return func(o *options) {
		o.maxReaders = int64(n)
	}
}

// WithResourceController shares a resource controller. It governs reader
// width on datasets and IO throughput on transfers.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.resources = rc
	}
}

// WithFileSystem sets the file system used for directory management.
func WithFileSystem(fsys fs.FileSystem) Option {
	return func(o *options) {
		if fsys == nil {
			fsys = fs.Default
		}
		o.fs = fsys
	}
}
