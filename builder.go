package textcache

import (
	"context"
	"errors"
	"iter"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/textcache/codec"
	"github.com/hupe1980/textcache/corpus"
	"github.com/hupe1980/textcache/internal/fs"
	"github.com/hupe1980/textcache/kv"
	"github.com/hupe1980/textcache/kv/bolt"
	"github.com/hupe1980/textcache/vocab"
)

// Builder converts a labeled corpus into a cache: one store per split under
// a common root directory.
//
// A split is built by a single writer. Records are indexed in the order the
// corpus yields them, none are filtered, and the sample count is written
// after every record has been committed. A store without a sample count is
// therefore incomplete and is rejected by OpenDataset.
type Builder struct {
	root   string
	vz     *vocab.Vectorizer
	engine kv.Engine
	opts   options
}

// SplitReport describes one built split.
type SplitReport struct {
	Path     string
	Samples  int
	Duration time.Duration
}

// BuildReport describes a Build call. Skipped is set when both splits
// already existed; Splits is then empty.
type BuildReport struct {
	Skipped bool
	Splits  map[corpus.Split]SplitReport
}

// NewBuilder creates a builder writing below root.
func NewBuilder(root string, vz *vocab.Vectorizer, opts ...Option) *Builder {
	o := applyOptions(opts)
	e := o.engine
	if e == nil {
		e = bolt.Engine{}
	}
	return &Builder{
		root:   root,
		vz:     vz,
		engine: e,
		opts:   o,
	}
}

// Root returns the cache root directory.
func (b *Builder) Root() string { return b.root }

// SplitPath returns the store directory of split.
func (b *Builder) SplitPath(split corpus.Split) string {
	return filepath.Join(b.root, string(split))
}

// Exists reports whether every split directory exists. Contents are not
// inspected.
func (b *Builder) Exists() bool {
	for _, s := range corpus.Splits() {
		if !fs.Exists(b.opts.fs, b.SplitPath(s)) {
			return false
		}
	}
	return true
}

// Build creates the cache unless it already exists.
//
// When every split directory exists the build is skipped without reading
// the corpus. Otherwise the corpus is checked for missing source data and
// all splits are rebuilt from scratch.
func (b *Builder) Build(ctx context.Context, c corpus.Corpus) (*BuildReport, error) {
	if b.vz == nil {
		return nil, errors.New("textcache: builder has no vectorizer")
	}

	if !b.opts.forceRebuild && b.Exists() {
		b.opts.logger.LogSkip(ctx, b.root)
		b.opts.metrics.RecordSkip()
		return &BuildReport{Skipped: true, Splits: map[corpus.Split]SplitReport{}}, nil
	}

	if ch, ok := c.(corpus.Checker); ok {
		if err := ch.Check(); err != nil {
			return nil, translateError(err)
		}
	}

	var (
		mu     sync.Mutex
		report = &BuildReport{Splits: make(map[corpus.Split]SplitReport)}
	)

	g, gctx := errgroup.WithContext(ctx)
	if !b.opts.parallelSplits {
		g.SetLimit(1)
	}
	for _, split := range corpus.Splits() {
		g.Go(func() error {
			sr, err := b.BuildSplit(gctx, split, c.Records(gctx, split))
			if err != nil {
				return err
			}
			mu.Lock()
			report.Splits[split] = *sr
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return report, nil
}

// BuildSplit builds one split unconditionally, replacing any existing
// store. On failure the split directory is removed.
func (b *Builder) BuildSplit(ctx context.Context, split corpus.Split, records iter.Seq2[corpus.Record, error]) (*SplitReport, error) {
	if b.vz == nil {
		return nil, errors.New("textcache: builder has no vectorizer")
	}

	start := time.Now()
	path := b.SplitPath(split)

	n, err := b.buildSplit(ctx, split, path, records)
	d := time.Since(start)

	b.opts.metrics.RecordBuild(string(split), n, d, err)
	b.opts.logger.WithPath(path).LogBuild(ctx, split, n, d, err)
	if err != nil {
		return nil, err
	}
	return &SplitReport{Path: path, Samples: n, Duration: d}, nil
}

func (b *Builder) buildSplit(ctx context.Context, split corpus.Split, path string, records iter.Seq2[corpus.Record, error]) (n int, err error) {
	fail := func(i int, cause error) error {
		return translateError(&BuildError{Split: split, Index: i, cause: cause})
	}

	if err := b.opts.fs.RemoveAll(path); err != nil {
		return 0, fail(-1, err)
	}
	store, err := b.engine.Open(path, kv.ModeBuild, b.opts.kv)
	if err != nil {
		return 0, fail(-1, err)
	}

	w := &splitWriter{store: store}
	defer func() {
		if err != nil {
			w.abort()
			_ = b.opts.fs.RemoveAll(path)
		}
	}()

	tokens := make([]int, b.vz.MaxLen())
	for rec, rerr := range records {
		if rerr != nil {
			return n, fail(n, rerr)
		}
		if err := ctx.Err(); err != nil {
			return n, fail(n, err)
		}
		if n >= MaxSamples {
			return n, fail(n, ErrTooManySamples)
		}
		if c := b.opts.classes; c > 0 && (rec.Label < 0 || rec.Label >= c) {
			return n, fail(n, &LabelError{Label: rec.Label, Classes: c})
		}

		b.vz.TransformInto(tokens, b.opts.preprocessor.Transform(rec.Text))
		txt, err := codec.Encode(tokens)
		if err != nil {
			return n, fail(n, err)
		}
		lab, err := codec.Encode([]int{rec.Label})
		if err != nil {
			return n, fail(n, err)
		}

		if err := w.put(TextKey(n), txt); err != nil {
			return n, fail(n, err)
		}
		if err := w.put(LabelKey(n), lab); err != nil {
			return n, fail(n, err)
		}
		n++

		if n%b.opts.commitEvery == 0 {
			if err := w.commit(); err != nil {
				return n, fail(n-1, err)
			}
			b.opts.logger.LogCommit(ctx, split, n)
			b.progress(split, n)
		}
	}

	count, err := codec.Encode([]int{n})
	if err != nil {
		return n, fail(-1, err)
	}
	if err := w.put(NSamplesKey(), count); err != nil {
		return n, fail(-1, err)
	}
	if err := w.commit(); err != nil {
		return n, fail(-1, err)
	}
	if err := w.close(); err != nil {
		return n, fail(-1, err)
	}
	b.progress(split, n)
	return n, nil
}

func (b *Builder) progress(split corpus.Split, n int) {
	if b.opts.progress != nil {
		b.opts.progress(split, n)
	}
}

// splitWriter batches puts into transactions on a build-mode store.
type splitWriter struct {
	store  kv.Store
	txn    kv.Txn
	closed bool
}

func (w *splitWriter) put(key, value []byte) error {
	if w.txn == nil {
		txn, err := w.store.Begin()
		if err != nil {
			return err
		}
		w.txn = txn
	}
	return w.txn.Put(key, value)
}

func (w *splitWriter) commit() error {
	if w.txn == nil {
		return nil
	}
	txn := w.txn
	w.txn = nil
	return txn.Commit()
}

func (w *splitWriter) close() error {
	w.closed = true
	return w.store.Close()
}

func (w *splitWriter) abort() {
	if w.txn != nil {
		_ = w.txn.Rollback()
		w.txn = nil
	}
	if !w.closed {
		w.closed = true
		_ = w.store.Close()
	}
}
