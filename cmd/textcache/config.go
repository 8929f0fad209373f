package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/hupe1980/textcache"
	"github.com/hupe1980/textcache/codec"
	"github.com/hupe1980/textcache/corpus"
	"github.com/hupe1980/textcache/vocab"
)

// config is loaded from an optional JSON file and overlaid by flags.
type config struct {
	Root        string       `json:"root"`
	Data        string       `json:"data"`
	Dataset     string       `json:"dataset"`
	Format      string       `json:"format"`
	Engine      string       `json:"engine"`
	MaxLen      int          `json:"max_len"`
	Alphabet    string       `json:"alphabet"`
	Lowercase   bool         `json:"lowercase"`
	Classes     int          `json:"classes"`
	CommitEvery int          `json:"commit_every"`
	MapSize     int64        `json:"map_size"`
	Force       bool         `json:"force"`
	LogLevel    string       `json:"log_level"`
	LogFormat   string       `json:"log_format"`
	MetricsAddr string       `json:"metrics_addr"`
	IOLimit     int64        `json:"io_limit"`
	Workers     int          `json:"workers"`
	Remote      remoteConfig `json:"remote"`
}

type remoteConfig struct {
	Kind      string `json:"kind"`
	Path      string `json:"path"`
	Bucket    string `json:"bucket"`
	Prefix    string `json:"prefix"`
	Region    string `json:"region"`
	Endpoint  string `json:"endpoint"`
	AccessKey string `json:"access_key"`
	SecretKey string `json:"secret_key"`
	Secure    bool   `json:"secure"`
}

func defaultConfig() config {
	return config{
		Root:      "cache",
		Format:    corpus.FormatTitleDescription.String(),
		Engine:    "bolt",
		MaxLen:    1014,
		Alphabet:  vocab.DefaultAlphabet,
		Lowercase: true,
		LogLevel:  "info",
		LogFormat: "text",
		Workers:   2,
		Remote:    remoteConfig{Kind: "local"},
	}
}

// loadConfig reads path over the defaults. A missing default file is not
// an error; an explicitly named one is.
func loadConfig(path string, explicit bool) (config, error) {
	cfg := defaultConfig()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) && !explicit {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := codec.Default.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// configPath finds -config in args before flags are defined, so the file
// can supply flag defaults.
func configPath(args []string) (string, bool) {
	for i, a := range args {
		name, value, hasValue := strings.Cut(strings.TrimLeft(a, "-"), "=")
		if !strings.HasPrefix(a, "-") || name != "config" {
			continue
		}
		if hasValue {
			return value, true
		}
		if i+1 < len(args) {
			return args[i+1], true
		}
	}
	return "textcache.json", false
}

func (c *config) register(fs *flag.FlagSet) {
	fs.String("config", "textcache.json", "JSON config file")
	fs.StringVar(&c.Root, "root", c.Root, "cache root directory")
	fs.StringVar(&c.Data, "data", c.Data, "directory with train.csv and test.csv")
	fs.StringVar(&c.Dataset, "dataset", c.Dataset, "catalog dataset name; sets format and classes")
	fs.StringVar(&c.Format, "format", c.Format, "CSV layout: title-description or sentence-label")
	fs.StringVar(&c.Engine, "engine", c.Engine, fmt.Sprintf("store engine %v", textcache.Engines()))
	fs.IntVar(&c.MaxLen, "max-len", c.MaxLen, "token sequence length")
	fs.StringVar(&c.Alphabet, "alphabet", c.Alphabet, "vocabulary alphabet")
	fs.BoolVar(&c.Lowercase, "lowercase", c.Lowercase, "lowercase text before vectorizing")
	fs.IntVar(&c.Classes, "classes", c.Classes, "validate labels against [0, classes)")
	fs.IntVar(&c.CommitEvery, "commit-every", c.CommitEvery, "records per transaction")
	fs.Int64Var(&c.MapSize, "map-size", c.MapSize, "store size ceiling in bytes")
	fs.BoolVar(&c.Force, "force", c.Force, "rebuild or refetch existing splits")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "debug, info, warn or error")
	fs.StringVar(&c.LogFormat, "log-format", c.LogFormat, "text or json")
	fs.StringVar(&c.MetricsAddr, "metrics-addr", c.MetricsAddr, "serve Prometheus metrics on this address")
	fs.Int64Var(&c.IOLimit, "io-limit", c.IOLimit, "transfer limit in bytes per second")
	fs.IntVar(&c.Workers, "workers", c.Workers, "concurrent transfers")
	fs.StringVar(&c.Remote.Kind, "remote", c.Remote.Kind, "remote store: local, s3 or minio")
	fs.StringVar(&c.Remote.Path, "remote-path", c.Remote.Path, "local remote directory")
	fs.StringVar(&c.Remote.Bucket, "bucket", c.Remote.Bucket, "s3 or minio bucket")
	fs.StringVar(&c.Remote.Prefix, "prefix", c.Remote.Prefix, "key prefix inside the bucket")
	fs.StringVar(&c.Remote.Endpoint, "endpoint", c.Remote.Endpoint, "s3 or minio endpoint")
	fs.StringVar(&c.Remote.Region, "region", c.Remote.Region, "s3 region")
}

// resolve applies the dataset catalog to unset fields.
func (c *config) resolve(explicit map[string]bool) error {
	if c.Dataset != "" {
		info, ok := corpus.Lookup(c.Dataset)
		if !ok {
			return fmt.Errorf("unknown dataset %q", c.Dataset)
		}
		if !explicit["format"] {
			c.Format = info.Format.String()
		}
		if c.Classes == 0 {
			c.Classes = info.Classes
		}
		if !explicit["root"] && c.Root == defaultConfig().Root {
			c.Root = filepath.Join(c.Root, info.Name)
		}
	}
	if _, err := corpus.ParseFormat(c.Format); err != nil {
		return err
	}
	if _, err := textcache.EngineByName(c.Engine); err != nil {
		return err
	}
	return nil
}

func (c *config) logger(w io.Writer) (*textcache.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return nil, err
	}
	switch c.LogFormat {
	case "json":
		return textcache.NewJSONLogger(w, level), nil
	case "text", "":
		return textcache.NewTextLogger(w, level), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", c.LogFormat)
	}
}

func (c *config) vectorizer() (*vocab.Vectorizer, error) {
	return vocab.NewVectorizer(vocab.New(c.Alphabet), c.MaxLen)
}

func (c *config) preprocessor() vocab.Preprocessor {
	if c.Lowercase {
		return vocab.Lowercase()
	}
	return vocab.Identity()
}
