// Package corpus provides labeled text sources for cache builds.
//
// A Corpus yields the records of a split in a deterministic order. Builders
// assign record indices from that order, so two builds of the same corpus
// produce byte-identical caches.
package corpus

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
)

// Split names a partition of a dataset.
type Split string

const (
	Train Split = "train"
	Test  Split = "test"
)

// Splits lists the partitions every cache holds, in build order.
func Splits() []Split { return []Split{Train, Test} }

// ParseSplit validates a split name.
func ParseSplit(s string) (Split, error) {
	switch Split(s) {
	case Train, Test:
		return Split(s), nil
	default:
		return "", fmt.Errorf("corpus: unknown split %q", s)
	}
}

// Record is one labeled text.
type Record struct {
	Text  string
	Label int
}

// Corpus streams the records of a split.
//
// Iteration stops at the first error; the error is yielded once with a zero
// Record.
type Corpus interface {
	Records(ctx context.Context, split Split) iter.Seq2[Record, error]
}

// Checker is implemented by corpora that can verify their source data is
// present before any record is read.
type Checker interface {
	Check() error
}

// ErrMissingSource reports absent raw data.
var ErrMissingSource = errors.New("corpus: missing source data")

// MissingSourceError lists the files a corpus could not find.
type MissingSourceError struct {
	Dir     string
	Missing []string
}

func (e *MissingSourceError) Error() string {
	return fmt.Sprintf("corpus: put [%s] into %s", strings.Join(e.Missing, ", "), e.Dir)
}

func (e *MissingSourceError) Unwrap() error { return ErrMissingSource }
