// Command textcache builds, inspects and shares text classification caches.
//
// Usage:
//
//	textcache <command> [flags] [args]
//
// Commands:
//
//	build     vectorize train.csv and test.csv into <root>/{train,test}
//	info      print sample counts, store sizes and label distributions
//	get       print one decoded sample: get [-split test] <index>
//	verify    scan every split for missing or undecodable records
//	publish   upload finished splits to the remote store
//	fetch     download published splits into <root>
//	datasets  list the dataset catalog
//
// Flags can also be set in a JSON file given with -config (default
// ./textcache.json when present).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hupe1980/textcache"
	"github.com/hupe1980/textcache/prommetrics"
)

type command struct {
	name  string
	usage string
	run   func(ctx context.Context, env *env, args []string) error
}

var commands = []command{
	{"build", "build the cache from CSV sources", runBuild},
	{"info", "describe the cache", runInfo},
	{"get", "print one sample", runGet},
	{"verify", "check cache integrity", runVerify},
	{"publish", "upload splits to the remote store", runPublish},
	{"fetch", "download splits from the remote store", runFetch},
	{"datasets", "list known datasets", runDatasets},
}

// env carries what every command needs.
type env struct {
	cfg     config
	logger  *textcache.Logger
	metrics textcache.MetricsCollector
	stdout  io.Writer
	stderr  io.Writer
	json    bool
	split   string
}

func (e *env) options() []textcache.Option {
	engine, _ := textcache.EngineByName(e.cfg.Engine)
	opts := []textcache.Option{
		textcache.WithLogger(e.logger),
		textcache.WithMetricsCollector(e.metrics),
		textcache.WithEngine(engine),
		textcache.WithPreprocessor(e.cfg.preprocessor()),
		textcache.WithClasses(e.cfg.Classes),
		textcache.WithCommitEvery(e.cfg.CommitEvery),
		textcache.WithForceRebuild(e.cfg.Force),
	}
	if e.cfg.MapSize > 0 {
		opts = append(opts, textcache.WithMapSize(e.cfg.MapSize))
	}
	return opts
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "help" {
		usage(stderr)
		return 2
	}

	var cmd *command
	for i := range commands {
		if commands[i].name == args[0] {
			cmd = &commands[i]
		}
	}
	if cmd == nil {
		fmt.Fprintf(stderr, "textcache: unknown command %q\n", args[0])
		usage(stderr)
		return 2
	}

	path, explicit := configPath(args[1:])
	cfg, err := loadConfig(path, explicit)
	if err != nil {
		fmt.Fprintf(stderr, "textcache: %v\n", err)
		return 1
	}

	e := &env{stdout: stdout, stderr: stderr}
	fs := flag.NewFlagSet(cmd.name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	cfg.register(fs)
	fs.BoolVar(&e.json, "json", false, "print JSON")
	fs.StringVar(&e.split, "split", "", "limit to one split")
	if err := fs.Parse(args[1:]); err != nil {
		return 2
	}

	explicitFlags := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { explicitFlags[f.Name] = true })
	if err := cfg.resolve(explicitFlags); err != nil {
		fmt.Fprintf(stderr, "textcache: %v\n", err)
		return 2
	}
	e.cfg = cfg

	if e.logger, err = cfg.logger(stderr); err != nil {
		fmt.Fprintf(stderr, "textcache: %v\n", err)
		return 2
	}

	e.metrics = textcache.NoopMetricsCollector{}
	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		e.metrics = prommetrics.New(reg)
		srv := serveMetrics(cfg.MetricsAddr, reg)
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = srv.Shutdown(sctx)
		}()
	}

	if err := cmd.run(ctx, e, fs.Args()); err != nil {
		fmt.Fprintf(stderr, "textcache %s: %v\n", cmd.name, err)
		switch {
		case errors.Is(err, textcache.ErrIncompleteCache):
			fmt.Fprintln(stderr, "hint: run 'textcache build -force' to rebuild the cache")
		case errors.Is(err, textcache.ErrMapFull):
			fmt.Fprintln(stderr, "hint: raise -map-size and run 'textcache build -force'")
		}
		return exitCode(err)
	}
	return 0
}

func serveMetrics(addr string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}

// exitCode separates data problems the user can fix by rebuilding or
// supplying sources (3) from other failures (1).
func exitCode(err error) int {
	switch {
	case errors.Is(err, textcache.ErrMissingSource),
		errors.Is(err, textcache.ErrMissingCache),
		errors.Is(err, textcache.ErrIncompleteCache),
		errors.Is(err, textcache.ErrNotPublished):
		return 3
	default:
		return 1
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: textcache <command> [flags] [args]")
	fmt.Fprintln(w)
	for _, c := range commands {
		fmt.Fprintf(w, "  %-9s %s\n", c.name, c.usage)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'textcache <command> -h' for flags.")
}
