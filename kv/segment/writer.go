package segment

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/hupe1980/textcache/internal/fs"
	"github.com/hupe1980/textcache/kv"
)

const writeBufferSize = 1 << 20

// writer is a store in kv.ModeBuild.
type writer struct {
	fs        fs.FileSystem
	tmpPath   string
	finalPath string
	mapSize   int64

	mu        sync.Mutex
	f         fs.File
	w         *bufio.Writer
	off       int64             // logical end of data, including buffered bytes
	committed map[string]uint64 // key -> record offset
	active    *txn
	closed    bool
	err       error // sticky I/O failure; the temp file can no longer be trusted
}

func (e *Engine) create(dir, final string, opts kv.Options) (*writer, error) {
	if err := e.fs.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	if err := e.fs.Remove(final); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	tmp := final + tmpSuffix
	f, err := e.fs.OpenFile(tmp, os.O_CREATE|os.O_RDWR|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}

	w := &writer{
		fs:        e.fs,
		tmpPath:   tmp,
		finalPath: final,
		mapSize:   opts.MapSize,
		f:         f,
		w:         bufio.NewWriterSize(f, writeBufferSize),
		committed: make(map[string]uint64),
	}

	var hdr [headerSize]byte
	putHeader(hdr[:])
	if _, err := w.w.Write(hdr[:]); err != nil {
		_ = f.Close()
		return nil, err
	}
	w.off = headerSize
	return w, nil
}

func (w *writer) Mode() kv.Mode { return kv.ModeBuild }

// Get reads committed records from the temporary file.
func (w *writer) Get(key []byte) ([]byte, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil, kv.ErrClosed
	}
	off, ok := w.committed[string(key)]
	if !ok {
		return nil, kv.ErrNotFound
	}
	_, value, err := w.readRecord(off)
	return value, err
}

func (w *writer) Ascend(prefix []byte, fn func(key, value []byte) bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return kv.ErrClosed
	}

	keys := make([]string, 0)
	for k := range w.committed {
		if strings.HasPrefix(k, string(prefix)) {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)

	for _, k := range keys {
		key, value, err := w.readRecord(w.committed[k])
		if err != nil {
			return err
		}
		if !fn(key, value) {
			return nil
		}
	}
	return nil
}

// readRecord reads a committed record. Committed data is always flushed.
func (w *writer) readRecord(off uint64) (key, value []byte, err error) {
	var hdr [recordHeaderSize]byte
	if _, err := w.f.ReadAt(hdr[:], int64(off)); err != nil {
		return nil, nil, err
	}
	kl := int(le.Uint16(hdr[0:2]))
	vl := int(le.Uint32(hdr[2:6]))
	buf := make([]byte, kl+vl)
	if _, err := w.f.ReadAt(buf, int64(off)+recordHeaderSize); err != nil {
		return nil, nil, err
	}
	return buf[:kl], buf[kl:], nil
}

func (w *writer) Begin() (kv.Txn, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil, kv.ErrClosed
	}
	if w.err != nil {
		return nil, w.err
	}
	if w.active != nil {
		return nil, kv.ErrTxnActive
	}
	w.active = &txn{w: w, start: w.off}
	return w.active, nil
}

// finalSize returns the file size if the segment were finalized with n keys
// after appending extra record bytes.
func (w *writer) finalSize(extra int64, n int) int64 {
	return w.off + extra + int64(n)*indexEntrySize + footerSize
}

// Close writes the sorted index and footer, syncs, and publishes the segment
// under its final name.
func (w *writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true

	if w.active != nil && w.err == nil {
		_ = w.rollbackLocked(w.active)
	}
	if w.err == nil {
		w.err = w.finalize()
	}
	if w.err != nil {
		_ = w.f.Close()
		_ = w.fs.Remove(w.tmpPath)
		return w.err
	}
	if err := w.f.Close(); err != nil {
		return err
	}
	return w.fs.Rename(w.tmpPath, w.finalPath)
}

func (w *writer) finalize() error {
	keys := make([]string, 0, len(w.committed))
	for k := range w.committed {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	index := make([]byte, len(keys)*indexEntrySize)
	for i, k := range keys {
		le.PutUint64(index[i*indexEntrySize:], w.committed[k])
	}

	ft := footer{
		indexOffset: uint64(w.off),
		count:       uint64(len(keys)),
		crc:         checksum(index),
	}
	if _, err := w.w.Write(index); err != nil {
		return err
	}
	if _, err := w.w.Write(ft.encode()); err != nil {
		return err
	}
	if err := w.w.Flush(); err != nil {
		return err
	}
	return w.f.Sync()
}

func (w *writer) commitLocked(t *txn) error {
	w.active = nil
	if err := w.w.Flush(); err != nil {
		w.err = err
		return err
	}
	for _, p := range t.pending {
		w.committed[p.key] = p.off
	}
	return nil
}

func (w *writer) rollbackLocked(t *txn) error {
	w.active = nil
	w.w.Reset(w.f)
	w.off = t.start
	if err := w.fs.Truncate(w.tmpPath, t.start); err != nil {
		w.err = err
		return err
	}
	if _, err := w.f.Seek(t.start, io.SeekStart); err != nil {
		w.err = err
		return err
	}
	return nil
}

type pendingEntry struct {
	key string
	off uint64
}

type txn struct {
	w       *writer
	start   int64
	pending []pendingEntry
	done    bool
}

func (t *txn) Put(key, value []byte) error {
	w := t.w
	w.mu.Lock()
	defer w.mu.Unlock()
	if t.done || w.closed {
		return kv.ErrClosed
	}
	if w.err != nil {
		return w.err
	}
	if len(key) == 0 || len(key) > maxKeyLen {
		return fmt.Errorf("segment: key length %d outside [1, %d]", len(key), maxKeyLen)
	}
	if int64(len(value)) > int64(^uint32(0)) {
		return fmt.Errorf("segment: value of %d bytes is too large", len(value))
	}

	recSize := int64(recordHeaderSize + len(key) + len(value))
	if size := w.finalSize(recSize, len(w.committed)+len(t.pending)+1); size > w.mapSize {
		return fmt.Errorf("%w: %d bytes would exceed the %d byte ceiling", kv.ErrMapFull, size, w.mapSize)
	}

	var hdr [recordHeaderSize]byte
	putRecordHeader(hdr[:], len(key), len(value))
	for _, b := range [][]byte{hdr[:], key, value} {
		if _, err := w.w.Write(b); err != nil {
			w.err = err
			return err
		}
	}

	t.pending = append(t.pending, pendingEntry{key: string(key), off: uint64(w.off)})
	w.off += recSize
	return nil
}

func (t *txn) Commit() error {
	w := t.w
	w.mu.Lock()
	defer w.mu.Unlock()
	if t.done || w.closed {
		return kv.ErrClosed
	}
	t.done = true
	return w.commitLocked(t)
}

func (t *txn) Rollback() error {
	w := t.w
	w.mu.Lock()
	defer w.mu.Unlock()
	if t.done || w.closed {
		return nil
	}
	t.done = true
	if w.err != nil {
		w.active = nil
		return nil
	}
	return w.rollbackLocked(t)
}
