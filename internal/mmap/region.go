package mmap

// Region is a bounds-checked view into a Mapping, such as a segment index.
type Region struct {
	parent      *Mapping
	offset, end int
}

// Region returns the view [offset, offset+size).
func (m *Mapping) Region(offset, size int) (*Region, error) {
	if m.closed.Load() {
		return nil, ErrClosed
	}
	if offset < 0 || size < 0 || offset > len(m.data)-size {
		return nil, ErrOutOfBounds
	}
	return &Region{parent: m, offset: offset, end: offset + size}, nil
}

// Bytes returns the view, or nil once the parent mapping is closed.
func (r *Region) Bytes() []byte {
	if r.parent.closed.Load() {
		return nil
	}
	return r.parent.data[r.offset:r.end]
}
