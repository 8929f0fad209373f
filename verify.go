package textcache

import (
	"context"
	"fmt"

	"github.com/bits-and-blooms/bitset"

	"github.com/hupe1980/textcache/codec"
)

// Verify scans the whole store and checks that exactly the indices
// [0, Len) are present for both tokens and labels and that every record
// decodes. Any violation is reported as ErrIncompleteCache.
func (d *Dataset) Verify(ctx context.Context) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrClosed
	}

	for _, prefix := range [][]byte{textPrefix, labelPrefix} {
		if err := d.verifyFamily(ctx, prefix); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dataset) verifyFamily(ctx context.Context, prefix []byte) error {
	seen := bitset.New(uint(d.n))
	var (
		scanErr error
		visited int
	)
	err := d.store.Ascend(prefix, func(key, value []byte) bool {
		if visited%4096 == 0 {
			if scanErr = ctx.Err(); scanErr != nil {
				return false
			}
		}
		visited++

		i, err := parseIndex(key)
		if err != nil {
			scanErr = fmt.Errorf("%w: %w", ErrIncompleteCache, err)
			return false
		}
		if i >= d.n {
			scanErr = fmt.Errorf("%w: %s beyond sample count %d", ErrIncompleteCache, key, d.n)
			return false
		}
		if _, err := codec.Len(value); err != nil {
			scanErr = fmt.Errorf("%w: %s: %w", ErrIncompleteCache, key, err)
			return false
		}
		seen.Set(uint(i))
		return true
	})
	if err != nil {
		return translateError(err)
	}
	if scanErr != nil {
		return scanErr
	}

	if got := seen.Count(); got != uint(d.n) {
		first, _ := seen.NextClear(0)
		return fmt.Errorf("%w: %d of %d %s records present, first gap at %d",
			ErrIncompleteCache, got, d.n, prefix, first)
	}
	return nil
}
