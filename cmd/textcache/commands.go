package main

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/textcache"
	"github.com/hupe1980/textcache/codec"
	"github.com/hupe1980/textcache/corpus"
	"github.com/hupe1980/textcache/resource"
)

func (e *env) splits() ([]corpus.Split, error) {
	if e.split == "" {
		return corpus.Splits(), nil
	}
	s, err := corpus.ParseSplit(e.split)
	if err != nil {
		return nil, err
	}
	return []corpus.Split{s}, nil
}

func (e *env) printJSON(v any) error {
	data, err := codec.GoJSON{}.MarshalIndent(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(e.stdout, string(data))
	return err
}

func runBuild(ctx context.Context, e *env, _ []string) error {
	if e.cfg.Data == "" {
		return errors.New("-data is required")
	}
	vz, err := e.cfg.vectorizer()
	if err != nil {
		return err
	}
	format, _ := corpus.ParseFormat(e.cfg.Format)
	src := corpus.NewCSV(e.cfg.Data, format)

	p := newProgress(e.stderr)
	defer p.Done()

	b := textcache.NewBuilder(e.cfg.Root, vz, append(e.options(), textcache.WithProgress(p.Update))...)
	report, err := b.Build(ctx, src)
	if err != nil {
		return err
	}
	p.Done()

	if e.json {
		return e.printJSON(report)
	}
	if report.Skipped {
		fmt.Fprintf(e.stdout, "cache exists at %s, nothing to do\n", b.Root())
		return nil
	}
	for _, split := range corpus.Splits() {
		sr := report.Splits[split]
		fmt.Fprintf(e.stdout, "%-5s %12s samples  %s  %s\n",
			split, humanize.Comma(int64(sr.Samples)), sr.Duration.Round(time.Millisecond), sr.Path)
	}
	return nil
}

type splitInfo struct {
	Split   corpus.Split   `json:"split"`
	Path    string         `json:"path"`
	Samples int            `json:"samples"`
	Bytes   int64          `json:"bytes"`
	Labels  map[int]uint64 `json:"labels"`
}

func runInfo(ctx context.Context, e *env, _ []string) error {
	splits, err := e.splits()
	if err != nil {
		return err
	}

	var infos []splitInfo
	for _, split := range splits {
		path := filepath.Join(e.cfg.Root, string(split))
		ds, err := textcache.OpenDataset(path, textcache.WithLogger(e.logger))
		if err != nil {
			return err
		}
		li, err := ds.LabelIndex(ctx)
		_ = ds.Close()
		if err != nil {
			return err
		}
		size, err := dirSize(path)
		if err != nil {
			return err
		}
		infos = append(infos, splitInfo{
			Split:   split,
			Path:    path,
			Samples: ds.Len(),
			Bytes:   size,
			Labels:  li.Counts(),
		})
	}

	if e.json {
		return e.printJSON(infos)
	}
	for _, in := range infos {
		fmt.Fprintf(e.stdout, "%-5s %12s samples  %8s  %s\n",
			in.Split, humanize.Comma(int64(in.Samples)), humanize.Bytes(uint64(in.Bytes)), in.Path)
		for _, label := range sortedKeys(in.Labels) {
			fmt.Fprintf(e.stdout, "      label %-3d %12s\n", label, humanize.Comma(int64(in.Labels[label])))
		}
	}
	return nil
}

func sortedKeys(m map[int]uint64) []int {
	return slices.Sorted(maps.Keys(m))
}

func dirSize(dir string) (int64, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}
	var n int64
	for _, ent := range entries {
		fi, err := ent.Info()
		if err != nil {
			return 0, err
		}
		if fi.Mode().IsRegular() {
			n += fi.Size()
		}
	}
	return n, nil
}

type sampleOutput struct {
	Split  corpus.Split `json:"split"`
	Index  int          `json:"index"`
	Label  int          `json:"label"`
	Text   string       `json:"text"`
	Tokens []int        `json:"tokens"`
}

func runGet(ctx context.Context, e *env, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: get [-split train|test] <index>")
	}
	i, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("index: %w", err)
	}
	split := corpus.Train
	if e.split != "" {
		if split, err = corpus.ParseSplit(e.split); err != nil {
			return err
		}
	}
	vz, err := e.cfg.vectorizer()
	if err != nil {
		return err
	}

	ds, err := textcache.OpenDataset(filepath.Join(e.cfg.Root, string(split)), textcache.WithLogger(e.logger))
	if err != nil {
		return err
	}
	defer ds.Close()

	s, err := ds.Get(ctx, i)
	if err != nil {
		return err
	}
	out := sampleOutput{Split: split, Index: i, Label: s.Label, Text: vz.Decode(s.Tokens), Tokens: s.Tokens}
	if e.json {
		return e.printJSON(out)
	}
	fmt.Fprintf(e.stdout, "%s[%d] label=%d\n%s\n", split, i, out.Label, out.Text)
	return nil
}

func runVerify(ctx context.Context, e *env, _ []string) error {
	splits, err := e.splits()
	if err != nil {
		return err
	}
	for _, split := range splits {
		path := filepath.Join(e.cfg.Root, string(split))
		ds, err := textcache.OpenDataset(path, textcache.WithLogger(e.logger))
		if err != nil {
			return err
		}
		err = ds.Verify(ctx)
		n := ds.Len()
		_ = ds.Close()
		if err != nil {
			return fmt.Errorf("%s: %w", split, err)
		}
		fmt.Fprintf(e.stdout, "%-5s ok  %s samples\n", split, humanize.Comma(int64(n)))
	}
	return nil
}

// transfer runs fn for every selected split, at most cfg.Workers at once.
func (e *env) transfer(ctx context.Context, fn func(ctx context.Context, split corpus.Split, opts []textcache.Option) (*textcache.Manifest, error)) error {
	splits, err := e.splits()
	if err != nil {
		return err
	}
	rc := resource.NewController(resource.Config{
		MaxWorkers:         int64(e.cfg.Workers),
		IOLimitBytesPerSec: e.cfg.IOLimit,
	})
	opts := append(e.options(), textcache.WithResourceController(rc))

	var (
		mu        sync.Mutex
		manifests = make(map[corpus.Split]*textcache.Manifest)
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, split := range splits {
		g.Go(func() error {
			m, err := fn(gctx, split, opts)
			if err != nil {
				return fmt.Errorf("%s: %w", split, err)
			}
			mu.Lock()
			manifests[split] = m
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if e.json {
		return e.printJSON(manifests)
	}
	for _, split := range splits {
		m := manifests[split]
		fmt.Fprintf(e.stdout, "%-5s %12s samples  %8s  %s\n",
			split, humanize.Comma(int64(m.Samples)), humanize.Bytes(uint64(m.Bytes())), m.Engine)
	}
	return nil
}

func runPublish(ctx context.Context, e *env, _ []string) error {
	store, err := openRemote(ctx, e.cfg.Remote)
	if err != nil {
		return err
	}
	return e.transfer(ctx, func(ctx context.Context, split corpus.Split, opts []textcache.Option) (*textcache.Manifest, error) {
		return textcache.Publish(ctx, e.cfg.Root, split, store, opts...)
	})
}

func runFetch(ctx context.Context, e *env, _ []string) error {
	store, err := openRemote(ctx, e.cfg.Remote)
	if err != nil {
		return err
	}
	return e.transfer(ctx, func(ctx context.Context, split corpus.Split, opts []textcache.Option) (*textcache.Manifest, error) {
		return textcache.Fetch(ctx, store, split, e.cfg.Root, opts...)
	})
}

func runDatasets(_ context.Context, e *env, _ []string) error {
	infos := corpus.Catalog()
	if e.json {
		return e.printJSON(infos)
	}
	for _, in := range infos {
		fmt.Fprintf(e.stdout, "%-24s %3d classes  %s\n", in.Name, in.Classes, in.Format)
	}
	return nil
}
