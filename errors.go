package textcache

import (
	"errors"
	"fmt"

	"github.com/hupe1980/textcache/codec"
	"github.com/hupe1980/textcache/corpus"
	"github.com/hupe1980/textcache/kv"
)

var (
	// ErrMissingSource is returned when raw corpus data is absent.
	ErrMissingSource = errors.New("textcache: missing source data")

	// ErrMissingCache is returned when no store exists at the dataset path.
	ErrMissingCache = errors.New("textcache: cache does not exist")

	// ErrIncompleteCache is returned when a store lacks the sample count or
	// has gaps in its record indices. The cache must be rebuilt.
	ErrIncompleteCache = errors.New("textcache: incomplete cache")

	// ErrIndexOutOfRange is returned by Get for indices outside [0, Len).
	ErrIndexOutOfRange = errors.New("textcache: index out of range")

	// ErrMapFull is returned when a build exceeds the configured map size.
	// The ceiling is fixed per build; retry with a larger WithMapSize.
	ErrMapFull = errors.New("textcache: map size exhausted")

	// ErrLabelOutOfRange is returned when a label falls outside [0, classes).
	ErrLabelOutOfRange = errors.New("textcache: label out of range")

	// ErrTooManySamples is returned when a split exceeds MaxSamples records.
	ErrTooManySamples = errors.New("textcache: too many samples")

	// ErrNotPublished is returned by Fetch when the remote holds no manifest.
	ErrNotPublished = errors.New("textcache: split not published")

	// ErrClosed is returned when using a closed dataset.
	ErrClosed = errors.New("textcache: dataset is closed")
)

// IndexError reports an out-of-range Get.
type IndexError struct {
	Index int
	Len   int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("textcache: index %d out of range [0, %d)", e.Index, e.Len)
}

func (e *IndexError) Unwrap() error { return ErrIndexOutOfRange }

// BuildError locates a failure within a split build.
//
// Index is the record index being written, or -1 when the failure is not
// tied to a record. The original cause can be accessed via errors.Unwrap.
type BuildError struct {
	Split corpus.Split
	Index int
	cause error
}

func (e *BuildError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("textcache: build %s: %v", e.Split, e.cause)
	}
	return fmt.Sprintf("textcache: build %s record %d: %v", e.Split, e.Index, e.cause)
}

func (e *BuildError) Unwrap() error { return e.cause }

// LabelError reports a label outside the configured class count.
type LabelError struct {
	Label   int
	Classes int
}

func (e *LabelError) Error() string {
	return fmt.Sprintf("label %d outside [0, %d)", e.Label, e.Classes)
}

func (e *LabelError) Unwrap() error { return ErrLabelOutOfRange }

// translateError maps package-level errors onto the root sentinels while
// keeping the original error in the chain.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, corpus.ErrMissingSource):
		return fmt.Errorf("%w: %w", ErrMissingSource, err)
	case errors.Is(err, kv.ErrMissing):
		return fmt.Errorf("%w: %w", ErrMissingCache, err)
	case errors.Is(err, kv.ErrMapFull):
		return fmt.Errorf("%w: %w; raise the ceiling with WithMapSize", ErrMapFull, err)
	case errors.Is(err, kv.ErrClosed):
		return fmt.Errorf("%w: %w", ErrClosed, err)
	case errors.Is(err, kv.ErrCorrupt), errors.Is(err, codec.ErrCorrupt):
		return fmt.Errorf("%w: %w", ErrIncompleteCache, err)
	}

	return err
}
