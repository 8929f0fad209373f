// Package segment implements kv.Engine as a single immutable, sorted segment
// file that is memory-mapped for reads.
//
// Builds append records to data.seg.tmp, keep the key index in memory, and on
// Close write the sorted index plus a checksummed footer before renaming the
// file to data.seg. A directory holding only data.seg.tmp is an unfinished
// build and fails to open for reading with kv.ErrCorrupt. Readers map the
// file read-only without any lock and advise the kernel that access is
// random, so no read-ahead is performed.
package segment

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hupe1980/textcache/internal/fs"
	"github.com/hupe1980/textcache/kv"
)

const (
	// FileName is the finished segment inside the store directory.
	FileName = "data.seg"

	// TempFileName holds a build until Close publishes it as FileName.
	TempFileName = FileName + tmpSuffix

	tmpSuffix = ".tmp"
)

// Engine opens segment stores.
type Engine struct {
	fs fs.FileSystem
}

// Option configures an Engine.
type Option func(*Engine)

// WithFileSystem sets the filesystem used for builds. Defaults to fs.Default.
func WithFileSystem(fsys fs.FileSystem) Option {
	return func(e *Engine) { e.fs = fsys }
}

// New creates a segment engine.
func New(optFns ...Option) *Engine {
	e := &Engine{fs: fs.Default}
	for _, fn := range optFns {
		fn(e)
	}
	return e
}

// Name returns "segment".
func (*Engine) Name() string { return "segment" }

// Open implements kv.Engine.
func (e *Engine) Open(path string, mode kv.Mode, opts kv.Options) (kv.Store, error) {
	opts = opts.WithDefaults()
	final := filepath.Join(path, FileName)

	switch mode {
	case kv.ModeBuild:
		return e.create(path, final, opts)
	case kv.ModeRead:
		r, err := openReader(final)
		if err != nil {
			if os.IsNotExist(err) {
				// A leftover temp file means a build never finished.
				if fs.Exists(e.fs, filepath.Join(path, TempFileName)) {
					return nil, fmt.Errorf("%w: %s: unfinished build", kv.ErrCorrupt, path)
				}
				return nil, fmt.Errorf("%w: %s", kv.ErrMissing, path)
			}
			return nil, err
		}
		return r, nil
	default:
		return nil, fmt.Errorf("segment: unknown mode %v", mode)
	}
}
