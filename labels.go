package textcache

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/textcache/codec"
)

// LabelIndex maps each label to the set of sample indices carrying it.
type LabelIndex struct {
	bitmaps map[int]*roaring.Bitmap
	total   uint64
}

// LabelIndex scans every label record in index order and groups sample
// indices by label.
func (d *Dataset) LabelIndex(ctx context.Context) (*LabelIndex, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return nil, ErrClosed
	}

	li := &LabelIndex{bitmaps: make(map[int]*roaring.Bitmap)}
	var scanErr error
	err := d.store.Ascend(labelPrefix, func(key, value []byte) bool {
		if li.total%4096 == 0 {
			if scanErr = ctx.Err(); scanErr != nil {
				return false
			}
		}
		i, err := parseIndex(key)
		if err != nil {
			scanErr = fmt.Errorf("%w: %w", ErrIncompleteCache, err)
			return false
		}
		label, err := codec.DecodeScalar(value)
		if err != nil {
			scanErr = fmt.Errorf("%w: label %d: %w", ErrIncompleteCache, i, err)
			return false
		}
		bm, ok := li.bitmaps[label]
		if !ok {
			bm = roaring.New()
			li.bitmaps[label] = bm
		}
		bm.Add(uint32(i))
		li.total++
		return true
	})
	if err != nil {
		return nil, translateError(err)
	}
	if scanErr != nil {
		return nil, scanErr
	}
	for _, bm := range li.bitmaps {
		bm.RunOptimize()
	}
	return li, nil
}

// Classes returns the labels present, ascending.
func (li *LabelIndex) Classes() []int {
	return slices.Sorted(maps.Keys(li.bitmaps))
}

// Total returns the number of indexed samples.
func (li *LabelIndex) Total() uint64 { return li.total }

// Count returns the number of samples with label.
func (li *LabelIndex) Count(label int) uint64 {
	if bm, ok := li.bitmaps[label]; ok {
		return bm.GetCardinality()
	}
	return 0
}

// Indices returns the sample indices with label, ascending.
func (li *LabelIndex) Indices(label int) []uint32 {
	if bm, ok := li.bitmaps[label]; ok {
		return bm.ToArray()
	}
	return nil
}

// Bitmap returns a copy of the index set of label.
func (li *LabelIndex) Bitmap(label int) *roaring.Bitmap {
	if bm, ok := li.bitmaps[label]; ok {
		return bm.Clone()
	}
	return roaring.New()
}

// Counts returns the number of samples per label.
func (li *LabelIndex) Counts() map[int]uint64 {
	out := make(map[int]uint64, len(li.bitmaps))
	for label, bm := range li.bitmaps {
		out[label] = bm.GetCardinality()
	}
	return out
}
