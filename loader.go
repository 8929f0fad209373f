package textcache

import (
	"context"
	"errors"
	"iter"
	"math/rand/v2"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// Batch is a group of samples in loader order.
type Batch struct {
	Indices []int
	Tokens  [][]int
	Labels  []int
}

// Len returns the number of samples in the batch.
func (b Batch) Len() int { return len(b.Indices) }

type loaderOptions struct {
	shuffle  bool
	seed     uint64
	workers  int
	dropLast bool
}

// LoaderOption configures a Loader.
type LoaderOption func(*loaderOptions)

// WithShuffle visits samples in a fresh pseudo-random order every epoch.
// The sequence of orders is fully determined by seed.
func WithShuffle(seed uint64) LoaderOption {
	return func(o *loaderOptions) {
		o.shuffle = true
		o.seed = seed
	}
}

// WithWorkers sets how many batches are fetched concurrently.
// Default: GOMAXPROCS.
func WithWorkers(n int) LoaderOption {
	return func(o *loaderOptions) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithDropLast drops a trailing batch smaller than the batch size.
func WithDropLast(enabled bool) LoaderOption {
	return func(o *loaderOptions) {
		o.dropLast = enabled
	}
}

// Loader iterates a dataset in batches.
type Loader struct {
	ds        *Dataset
	batchSize int
	opts      loaderOptions
	epoch     atomic.Uint64
}

// NewLoader creates a loader over ds.
func NewLoader(ds *Dataset, batchSize int, opts ...LoaderOption) (*Loader, error) {
	if ds == nil {
		return nil, errors.New("textcache: loader needs a dataset")
	}
	if batchSize <= 0 {
		return nil, errors.New("textcache: batch size must be positive")
	}
	o := loaderOptions{workers: runtime.GOMAXPROCS(0)}
	for _, opt := range opts {
		opt(&o)
	}
	return &Loader{ds: ds, batchSize: batchSize, opts: o}, nil
}

// NumBatches returns the number of batches per epoch.
func (l *Loader) NumBatches() int {
	n := l.ds.Len()
	if l.opts.dropLast {
		return n / l.batchSize
	}
	return (n + l.batchSize - 1) / l.batchSize
}

// order returns the sample order of the next epoch.
func (l *Loader) order() []int {
	idx := make([]int, l.ds.Len())
	for i := range idx {
		idx[i] = i
	}
	epoch := l.epoch.Add(1) - 1
	if l.opts.shuffle {
		r := rand.New(rand.NewPCG(l.opts.seed, epoch))
		r.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
	}
	return idx
}

// Batches yields one epoch of batches in order. Up to the configured
// number of workers fetch batches ahead of the consumer. Iteration stops
// at the first error.
func (l *Loader) Batches(ctx context.Context) iter.Seq2[Batch, error] {
	return func(yield func(Batch, error) bool) {
		order := l.order()
		nb := l.NumBatches()

		for start := 0; start < nb; start += l.opts.workers {
			end := min(start+l.opts.workers, nb)
			window := make([]Batch, end-start)

			g, gctx := errgroup.WithContext(ctx)
			for w := range window {
				g.Go(func() error {
					lo := (start + w) * l.batchSize
					hi := min(lo+l.batchSize, len(order))
					b, err := l.fetch(gctx, order[lo:hi])
					window[w] = b
					return err
				})
			}
			if err := g.Wait(); err != nil {
				yield(Batch{}, err)
				return
			}

			for _, b := range window {
				if !yield(b, nil) {
					return
				}
			}
		}
	}
}

func (l *Loader) fetch(ctx context.Context, indices []int) (Batch, error) {
	b := Batch{
		Indices: indices,
		Tokens:  make([][]int, len(indices)),
		Labels:  make([]int, len(indices)),
	}
	for k, i := range indices {
		s, err := l.ds.Get(ctx, i)
		if err != nil {
			return Batch{}, err
		}
		b.Tokens[k] = s.Tokens
		b.Labels[k] = s.Label
	}
	return b, nil
}
