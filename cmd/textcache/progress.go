package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/apoorvam/goterminal"
	"github.com/dustin/go-humanize"

	"github.com/hupe1980/textcache/corpus"
)

// progress redraws one line per split as builds commit.
type progress struct {
	mu     sync.Mutex
	w      *goterminal.Writer
	counts map[corpus.Split]int
	done   bool
}

func newProgress(out io.Writer) *progress {
	return &progress{
		w:      goterminal.New(out),
		counts: make(map[corpus.Split]int),
	}
}

// Update implements textcache.ProgressFunc.
func (p *progress) Update(split corpus.Split, n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done {
		return
	}
	p.counts[split] = n

	p.w.Clear()
	for _, s := range corpus.Splits() {
		fmt.Fprintf(p.w, "%-5s %12s records\n", s, humanize.Comma(int64(p.counts[s])))
	}
	p.w.Print() //nolint:errcheck
}

// Done stops redrawing and leaves the last frame on screen.
func (p *progress) Done() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done {
		return
	}
	p.done = true
	p.w.Reset()
}
