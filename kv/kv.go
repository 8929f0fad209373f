// Package kv defines the Cache Store contract: an embedded, ordered,
// memory-mapped key-value store with transactional bulk writes and
// concurrent readers.
//
// A store is opened in one of two modes:
//
//   - ModeBuild: a single writer fills a fresh store through one or more
//     transactions. The store may never grow past Options.MapSize.
//   - ModeRead: the store is immutable. No exclusive lock is taken, so any
//     number of handles, across processes, may read concurrently.
//
// Engines: kv/bolt (B+tree over go.etcd.io/bbolt) and kv/segment
// (sorted immutable segment file).
package kv

import (
	"errors"
	"fmt"
	"time"
)

// Mode selects how a store is opened.
type Mode int

const (
	// ModeBuild opens a store for a single writer.
	ModeBuild Mode = iota
	// ModeRead opens a finished store for lock-free concurrent reads.
	ModeRead
)

func (m Mode) String() string {
	switch m {
	case ModeBuild:
		return "build"
	case ModeRead:
		return "read"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// DefaultMapSize is the build-mode ceiling used when none is configured (32 GiB).
const DefaultMapSize int64 = 32 << 30

// DefaultLockTimeout bounds how long an open waits for a file lock held by another process.
const DefaultLockTimeout = 5 * time.Second

var (
	// ErrMapFull is returned when a build would exceed the configured map size.
	ErrMapFull = errors.New("kv: map size exhausted")
	// ErrNotFound is returned by Get for an absent key.
	ErrNotFound = errors.New("kv: key not found")
	// ErrReadOnly is returned when writing to a store opened in ModeRead.
	ErrReadOnly = errors.New("kv: store is read-only")
	// ErrMissing is returned when ModeRead finds no store at the path.
	ErrMissing = errors.New("kv: store does not exist")
	// ErrClosed is returned when using a closed store or finished transaction.
	ErrClosed = errors.New("kv: store is closed")
	// ErrTxnActive is returned by Begin while another transaction is open.
	ErrTxnActive = errors.New("kv: transaction already active")
	// ErrCorrupt is returned when store files fail validation.
	ErrCorrupt = errors.New("kv: store is corrupt")
)

// Options configures an open.
type Options struct {
	// MapSize is the upper bound, in bytes, a store may reach in ModeBuild.
	// It is fixed at open time and never grown.
	MapSize int64

	// LockTimeout bounds waiting for file locks held by other processes.
	LockTimeout time.Duration
}

// DefaultOptions are the options used when fields are zero.
var DefaultOptions = Options{
	MapSize:     DefaultMapSize,
	LockTimeout: DefaultLockTimeout,
}

// WithDefaults fills zero fields from DefaultOptions.
func (o Options) WithDefaults() Options {
	if o.MapSize <= 0 {
		o.MapSize = DefaultOptions.MapSize
	}
	if o.LockTimeout <= 0 {
		o.LockTimeout = DefaultOptions.LockTimeout
	}
	return o
}

// Engine opens stores rooted at a directory path.
type Engine interface {
	// Name returns the engine's stable name.
	Name() string
	// Open opens the store in directory path. ModeBuild creates the
	// directory and starts a fresh store, discarding any existing store
	// files; ModeRead returns ErrMissing when no store exists there.
	Open(path string, mode Mode, opts Options) (Store, error)
}

// Store is an open key-value store. Get and Ascend are safe for concurrent use.
type Store interface {
	// Get returns the value of key or ErrNotFound. The returned slice must not
	// be modified and is valid until Close.
	Get(key []byte) ([]byte, error)

	// Ascend calls fn for every key with the given prefix in ascending key
	// order until fn returns false. Slices are only valid during the call.
	Ascend(prefix []byte, fn func(key, value []byte) bool) error

	// Begin starts a write transaction. Only one may be active at a time.
	// Returns ErrReadOnly in ModeRead.
	Begin() (Txn, error)

	// Mode reports how the store was opened.
	Mode() Mode

	// Close releases the store. In ModeBuild it finalizes the store and
	// rolls back any open transaction.
	Close() error
}

// Txn is a write transaction. Puts become visible to readers only after Commit.
type Txn interface {
	// Put stores value under key. Key and value must not be modified until
	// the transaction ends.
	Put(key, value []byte) error
	// Commit makes all puts durable.
	Commit() error
	// Rollback discards all puts. Rollback after Commit is a no-op.
	Rollback() error
}
