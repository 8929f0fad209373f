// Package bolt implements kv.Engine on go.etcd.io/bbolt, an ordered,
// memory-mapped B+tree with ACID transactions.
//
// Each store is a single file, data.db, inside the store directory. Build
// mode maps the whole configured MapSize up front, like an LMDB map, so the
// mapping never moves during a build. Read mode opens the file read-only
// under a shared lock, so builders are excluded but readers never block
// each other.
package bolt

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/hupe1980/textcache/kv"
	bolt "go.etcd.io/bbolt"
)

// FileName is the store file inside the store directory.
const FileName = "data.db"

// fillPercent packs pages densely; builds insert keys in ascending order per prefix.
const fillPercent = 0.9

// leafOverhead approximates per-entry page metadata when estimating growth.
const leafOverhead = 16

var bucketName = []byte("records")

// Engine opens bbolt-backed stores.
type Engine struct {
	// NoSync skips fsync on commit. Only for tests and throwaway caches.
	NoSync bool
}

// Name returns "bolt".
func (Engine) Name() string { return "bolt" }

// Open implements kv.Engine.
func (e Engine) Open(path string, mode kv.Mode, opts kv.Options) (kv.Store, error) {
	opts = opts.WithDefaults()
	file := filepath.Join(path, FileName)

	switch mode {
	case kv.ModeBuild:
		if err := os.MkdirAll(path, 0o755); err != nil {
			return nil, err
		}
		if err := os.Remove(file); err != nil && !os.IsNotExist(err) {
			return nil, err
		}
		bopts := &bolt.Options{
			Timeout:        opts.LockTimeout,
			NoSync:         e.NoSync,
			NoFreelistSync: true,
			FreelistType:   bolt.FreelistMapType,
		}
		if opts.MapSize <= math.MaxInt {
			bopts.InitialMmapSize = int(opts.MapSize)
		}
		db, err := bolt.Open(file, 0o644, bopts)
		if err != nil {
			return nil, err
		}
		return &store{db: db, mode: mode, mapSize: opts.MapSize}, nil

	case kv.ModeRead:
		if _, err := os.Stat(file); err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("%w: %s", kv.ErrMissing, path)
			}
			return nil, err
		}
		// No MmapFlags: MAP_POPULATE would prefault the whole file.
		db, err := bolt.Open(file, 0o444, &bolt.Options{
			ReadOnly: true,
			Timeout:  opts.LockTimeout,
		})
		if err != nil {
			return nil, err
		}
		return &store{db: db, mode: mode}, nil

	default:
		return nil, fmt.Errorf("bolt: unknown mode %v", mode)
	}
}

type store struct {
	db      *bolt.DB
	mode    kv.Mode
	mapSize int64

	mu     sync.Mutex
	active *txn
	closed bool
}

func (s *store) Mode() kv.Mode { return s.mode }

func (s *store) Get(key []byte) ([]byte, error) {
	var out []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		if b == nil {
			return kv.ErrNotFound
		}
		v := b.Get(key)
		if v == nil {
			return kv.ErrNotFound
		}
		// Values point into the mmap and are only valid inside the transaction.
		out = bytes.Clone(v)
		return nil
	})
	return out, translate(err)
}

func (s *store) Ascend(prefix []byte, fn func(key, value []byte) bool) error {
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		if b == nil {
			return nil
		}
		c := b.Cursor()
		k, v := c.First()
		if len(prefix) > 0 {
			k, v = c.Seek(prefix)
		}
		for ; k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			if !fn(k, v) {
				return nil
			}
		}
		return nil
	})
	return translate(err)
}

func (s *store) Begin() (kv.Txn, error) {
	if s.mode != kv.ModeBuild {
		return nil, kv.ErrReadOnly
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, kv.ErrClosed
	}
	if s.active != nil {
		return nil, kv.ErrTxnActive
	}

	tx, err := s.db.Begin(true)
	if err != nil {
		return nil, translate(err)
	}
	b, err := tx.CreateBucketIfNotExists(bucketName)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	b.FillPercent = fillPercent

	t := &txn{s: s, tx: tx, b: b, base: tx.Size()}
	s.active = t
	return t, nil
}

func (s *store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	active := s.active
	s.active = nil
	s.mu.Unlock()

	if active != nil {
		_ = active.tx.Rollback()
	}
	return s.db.Close()
}

func (s *store) release(t *txn) {
	s.mu.Lock()
	if s.active == t {
		s.active = nil
	}
	s.mu.Unlock()
}

type txn struct {
	s    *store
	tx   *bolt.Tx
	b    *bolt.Bucket
	base int64 // committed data size when the transaction began
	used int64 // estimated bytes added by this transaction
	done bool
}

func (t *txn) Put(key, value []byte) error {
	if t.done {
		return kv.ErrClosed
	}
	// Dirty pages only get allocated at commit, so growth is estimated from
	// payload size at the configured fill factor.
	grow := int64(float64(len(key)+len(value)+leafOverhead) / fillPercent)
	if t.base+t.used+grow > t.s.mapSize {
		return fmt.Errorf("%w: %d bytes would exceed the %d byte ceiling", kv.ErrMapFull, t.base+t.used+grow, t.s.mapSize)
	}
	if err := t.b.Put(key, value); err != nil {
		return err
	}
	t.used += grow
	return nil
}

func (t *txn) Commit() error {
	if t.done {
		return kv.ErrClosed
	}
	t.done = true
	defer t.s.release(t)

	if err := t.tx.Commit(); err != nil {
		return translate(err)
	}

	var size int64
	if err := t.s.db.View(func(tx *bolt.Tx) error {
		size = tx.Size()
		return nil
	}); err != nil {
		return translate(err)
	}
	if size > t.s.mapSize {
		return fmt.Errorf("%w: store reached %d bytes, ceiling is %d", kv.ErrMapFull, size, t.s.mapSize)
	}
	return nil
}

func (t *txn) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	defer t.s.release(t)
	return translate(t.tx.Rollback())
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bolt.ErrDatabaseNotOpen):
		return fmt.Errorf("%w: %w", kv.ErrClosed, err)
	case errors.Is(err, bolt.ErrTxClosed):
		return fmt.Errorf("%w: %w", kv.ErrClosed, err)
	case errors.Is(err, bolt.ErrDatabaseReadOnly):
		return fmt.Errorf("%w: %w", kv.ErrReadOnly, err)
	default:
		return err
	}
}
