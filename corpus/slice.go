package corpus

import (
	"context"
	"iter"
	"sync/atomic"
)

// Slice is an in-memory corpus.
type Slice map[Split][]Record

// Records implements Corpus.
func (s Slice) Records(ctx context.Context, split Split) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		for _, r := range s[split] {
			if err := ctx.Err(); err != nil {
				yield(Record{}, err)
				return
			}
			if !yield(r, nil) {
				return
			}
		}
	}
}

// Counting wraps a corpus and counts the records read from it.
type Counting struct {
	Corpus Corpus
	n      atomic.Int64
}

// NewCounting wraps c.
func NewCounting(c Corpus) *Counting {
	return &Counting{Corpus: c}
}

// Records implements Corpus.
func (c *Counting) Records(ctx context.Context, split Split) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		for r, err := range c.Corpus.Records(ctx, split) {
			if err == nil {
				c.n.Add(1)
			}
			if !yield(r, err) {
				return
			}
		}
	}
}

// Check forwards to the wrapped corpus when it is a Checker.
func (c *Counting) Check() error {
	if ch, ok := c.Corpus.(Checker); ok {
		return ch.Check()
	}
	return nil
}

// Count returns the number of records read so far.
func (c *Counting) Count() int64 { return c.n.Load() }
