package textcache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/textcache/codec"
	"github.com/hupe1980/textcache/kv"
	"github.com/hupe1980/textcache/resource"
)

// Sample is one decoded record.
type Sample struct {
	Tokens []int
	Label  int
}

// Dataset provides random access to a finished split store.
//
// A Dataset is safe for concurrent use. Any number of Datasets, in any
// number of processes, may open the same path at once.
type Dataset struct {
	path  string
	store kv.Store
	n     int
	opts  options
	rc    *resource.Controller

	// mu guards store against Close while reads hold zero-copy slices.
	mu     sync.RWMutex
	closed bool
}

// OpenDataset opens the split store at path for reading.
//
// It fails with ErrMissingCache when no store exists and with
// ErrIncompleteCache when the store lacks its sample count.
func OpenDataset(path string, opts ...Option) (*Dataset, error) {
	o := applyOptions(opts)
	ctx := context.Background()

	e := o.engine
	if e == nil {
		e = detectEngine(o.fs, path)
	}

	store, err := e.Open(path, kv.ModeRead, o.kv)
	if err != nil {
		err = translateError(err)
		o.logger.LogOpen(ctx, path, 0, err)
		return nil, err
	}

	n, err := readSampleCount(store)
	if err != nil {
		_ = store.Close()
		err = fmt.Errorf("%s: %w", path, err)
		o.logger.LogOpen(ctx, path, 0, err)
		return nil, err
	}

	rc := o.resources
	if o.maxReaders > 0 {
		rc = resource.NewController(resource.Config{MaxReaders: o.maxReaders})
	}

	o.logger.LogOpen(ctx, path, n, nil)
	return &Dataset{
		path:  path,
		store: store,
		n:     n,
		opts:  o,
		rc:    rc,
	}, nil
}

func readSampleCount(store kv.Store) (int, error) {
	raw, err := store.Get(nsamplesKey)
	if errors.Is(err, kv.ErrNotFound) {
		return 0, fmt.Errorf("%w: no sample count", ErrIncompleteCache)
	}
	if err != nil {
		return 0, translateError(err)
	}
	n, err := codec.DecodeScalar(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: sample count: %w", ErrIncompleteCache, err)
	}
	return n, nil
}

// Path returns the store directory.
func (d *Dataset) Path() string { return d.path }

// Len returns the number of samples. It is read once at open.
func (d *Dataset) Len() int { return d.n }

// Get decodes sample i.
func (d *Dataset) Get(ctx context.Context, i int) (Sample, error) {
	start := time.Now()
	s, err := d.get(ctx, i)
	d.opts.metrics.RecordGet(time.Since(start), err)
	return s, err
}

func (d *Dataset) get(ctx context.Context, i int) (Sample, error) {
	if i < 0 || i >= d.n {
		return Sample{}, &IndexError{Index: i, Len: d.n}
	}

	if err := d.rc.AcquireReader(ctx); err != nil {
		return Sample{}, err
	}
	defer d.rc.ReleaseReader()

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return Sample{}, ErrClosed
	}

	raw, err := d.lookup(TextKey(i))
	if err != nil {
		return Sample{}, err
	}
	tokens, err := codec.Decode(raw)
	if err != nil {
		return Sample{}, fmt.Errorf("%w: record %d: %w", ErrIncompleteCache, i, err)
	}

	raw, err = d.lookup(LabelKey(i))
	if err != nil {
		return Sample{}, err
	}
	label, err := codec.DecodeScalar(raw)
	if err != nil {
		return Sample{}, fmt.Errorf("%w: label %d: %w", ErrIncompleteCache, i, err)
	}

	return Sample{Tokens: tokens, Label: label}, nil
}

func (d *Dataset) lookup(key []byte) ([]byte, error) {
	v, err := d.store.Get(key)
	if errors.Is(err, kv.ErrNotFound) {
		return nil, fmt.Errorf("%w: missing %s", ErrIncompleteCache, key)
	}
	return v, translateError(err)
}

// Close releases the store. It is idempotent.
func (d *Dataset) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	return d.store.Close()
}
