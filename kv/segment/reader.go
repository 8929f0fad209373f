package segment

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/hupe1980/textcache/internal/conv"
	"github.com/hupe1980/textcache/internal/mmap"
	"github.com/hupe1980/textcache/kv"
)

// reader is a store in kv.ModeRead. It holds no locks; the file is immutable.
type reader struct {
	m     *mmap.Mapping
	index *mmap.Region
	count int
}

func openReader(path string) (*reader, error) {
	m, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}
	r, err := newReader(m)
	if err != nil {
		_ = m.Close()
		return nil, fmt.Errorf("%w: %s: %w", kv.ErrCorrupt, path, err)
	}
	// Sample lookups are random; read-ahead would only waste page cache.
	if err := m.Advise(mmap.AccessRandom); err != nil {
		_ = m.Close()
		return nil, err
	}
	return r, nil
}

func newReader(m *mmap.Mapping) (*reader, error) {
	data := m.Bytes()
	if len(data) < headerSize+footerSize {
		return nil, fmt.Errorf("file too small: %d bytes", len(data))
	}
	if le.Uint32(data[0:4]) != magic {
		return nil, fmt.Errorf("invalid magic: %x", le.Uint32(data[0:4]))
	}
	if v := le.Uint32(data[4:8]); v != version {
		return nil, fmt.Errorf("unsupported version: %d", v)
	}

	ft, ok := decodeFooter(data[len(data)-footerSize:])
	if !ok {
		return nil, fmt.Errorf("invalid footer")
	}
	indexEnd := uint64(len(data) - footerSize)
	if ft.indexOffset < headerSize || ft.indexOffset > indexEnd {
		return nil, fmt.Errorf("index offset %d outside [%d, %d]", ft.indexOffset, headerSize, indexEnd)
	}
	if size := indexEnd - ft.indexOffset; size%indexEntrySize != 0 || size/indexEntrySize != ft.count {
		return nil, fmt.Errorf("index bounds mismatch: offset %d, count %d", ft.indexOffset, ft.count)
	}

	offset, err := conv.Uint64ToInt(ft.indexOffset)
	if err != nil {
		return nil, err
	}
	count, err := conv.Uint64ToInt(ft.count)
	if err != nil {
		return nil, err
	}

	index, err := m.Region(offset, count*indexEntrySize)
	if err != nil {
		return nil, err
	}
	if checksum(index.Bytes()) != ft.crc {
		return nil, fmt.Errorf("index checksum mismatch")
	}

	return &reader{m: m, index: index, count: count}, nil
}

func (r *reader) Mode() kv.Mode { return kv.ModeRead }

// record returns the key and value of the i-th index entry. ok is false when
// the entry points outside the data section.
func (r *reader) record(data, index []byte, i int) (key, value []byte, ok bool) {
	off := le.Uint64(index[i*indexEntrySize:])
	end := uint64(len(data) - footerSize)
	// Compare against remaining space so corrupt offsets cannot wrap.
	if off < headerSize || off > end-recordHeaderSize {
		return nil, nil, false
	}
	kl := uint64(le.Uint16(data[off:]))
	vl := uint64(le.Uint32(data[off+2:]))
	start := off + recordHeaderSize
	if kl+vl > end-start {
		return nil, nil, false
	}
	return data[start : start+kl], data[start+kl : start+kl+vl], true
}

// search returns the position of the first key >= key.
func (r *reader) search(data, index []byte, key []byte) int {
	return sort.Search(r.count, func(i int) bool {
		// Stop at corrupt entries so callers report them.
		k, _, ok := r.record(data, index, i)
		return !ok || bytes.Compare(k, key) >= 0
	})
}

// Get returns a zero-copy slice into the mapping.
func (r *reader) Get(key []byte) ([]byte, error) {
	data, index := r.m.Bytes(), r.index.Bytes()
	if data == nil {
		return nil, kv.ErrClosed
	}
	i := r.search(data, index, key)
	if i >= r.count {
		return nil, kv.ErrNotFound
	}
	k, v, ok := r.record(data, index, i)
	if !ok {
		return nil, fmt.Errorf("%w: index entry %d out of bounds", kv.ErrCorrupt, i)
	}
	if !bytes.Equal(k, key) {
		return nil, kv.ErrNotFound
	}
	return v, nil
}

func (r *reader) Ascend(prefix []byte, fn func(key, value []byte) bool) error {
	data, index := r.m.Bytes(), r.index.Bytes()
	if data == nil {
		return kv.ErrClosed
	}
	for i := r.search(data, index, prefix); i < r.count; i++ {
		k, v, ok := r.record(data, index, i)
		if !ok {
			return fmt.Errorf("%w: index entry %d out of bounds", kv.ErrCorrupt, i)
		}
		if !bytes.HasPrefix(k, prefix) {
			return nil
		}
		if !fn(k, v) {
			return nil
		}
	}
	return nil
}

func (r *reader) Begin() (kv.Txn, error) {
	return nil, kv.ErrReadOnly
}

func (r *reader) Close() error {
	return r.m.Close()
}
