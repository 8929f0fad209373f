package corpus

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/hupe1980/textcache/internal/fs"
)

// Format selects the column layout of a CSV source.
type Format uint8

const (
	// FormatTitleDescription has no header and columns label,title,description.
	// Labels are 1-based on disk. Columns past the third are ignored.
	FormatTitleDescription Format = iota
	// FormatSentenceLabel has a header naming "sentence" and "label" columns.
	// Labels are 0-based on disk.
	FormatSentenceLabel
)

func (f Format) String() string {
	switch f {
	case FormatTitleDescription:
		return "title-description"
	case FormatSentenceLabel:
		return "sentence-label"
	default:
		return fmt.Sprintf("Format(%d)", uint8(f))
	}
}

// ParseFormat parses the String form of a Format.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "title-description":
		return FormatTitleDescription, nil
	case "sentence-label":
		return FormatSentenceLabel, nil
	default:
		return 0, fmt.Errorf("corpus: unknown format %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (f Format) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Format) UnmarshalText(b []byte) error {
	v, err := ParseFormat(string(b))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// CSVOption configures a CSV corpus.
type CSVOption func(*CSV)

// WithFileSystem sets the file system the corpus reads from.
func WithFileSystem(fsys fs.FileSystem) CSVOption {
	return func(c *CSV) { c.fs = fsys }
}

// WithComma sets the field delimiter. Defaults to ','.
func WithComma(r rune) CSVOption {
	return func(c *CSV) { c.comma = r }
}

// CSV reads <dir>/train.csv and <dir>/test.csv, optionally compressed with
// gzip (.gz), zstd (.zst) or lz4 (.lz4).
type CSV struct {
	dir    string
	format Format
	fs     fs.FileSystem
	comma  rune
}

// NewCSV creates a CSV corpus rooted at dir.
func NewCSV(dir string, format Format, opts ...CSVOption) *CSV {
	c := &CSV{
		dir:    dir,
		format: format,
		fs:     fs.Default,
		comma:  ',',
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Dir returns the source directory.
func (c *CSV) Dir() string { return c.dir }

// Format returns the column layout.
func (c *CSV) Format() Format { return c.format }

// Path returns the file backing split and its compression.
func (c *CSV) Path(split Split) (string, Compression, bool) {
	base := filepath.Join(c.dir, string(split)+".csv")
	for _, e := range extensions {
		if fs.Exists(c.fs, base+e.ext) {
			return base + e.ext, e.c, true
		}
	}
	return "", CompressionNone, false
}

// Check reports every split without a source file.
func (c *CSV) Check() error {
	var missing []string
	for _, s := range Splits() {
		if _, _, ok := c.Path(s); !ok {
			missing = append(missing, string(s)+".csv")
		}
	}
	if len(missing) > 0 {
		return &MissingSourceError{Dir: c.dir, Missing: missing}
	}
	return nil
}

// Records implements Corpus.
func (c *CSV) Records(ctx context.Context, split Split) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		path, comp, ok := c.Path(split)
		if !ok {
			yield(Record{}, &MissingSourceError{Dir: c.dir, Missing: []string{string(split) + ".csv"}})
			return
		}

		f, err := c.fs.OpenFile(path, os.O_RDONLY, 0)
		if err != nil {
			yield(Record{}, err)
			return
		}
		defer f.Close()

		rc, err := NewReader(f, comp)
		if err != nil {
			yield(Record{}, fmt.Errorf("corpus: %s: %w", path, err))
			return
		}
		defer rc.Close()

		r := csv.NewReader(rc)
		r.Comma = c.comma
		r.FieldsPerRecord = -1
		r.ReuseRecord = true

		parse := c.parseTitleDescription
		if c.format == FormatSentenceLabel {
			p, err := newSentenceLabelParser(r)
			if err != nil {
				yield(Record{}, fmt.Errorf("corpus: %s: %w", path, err))
				return
			}
			parse = p.parse
		}

		for {
			if err := ctx.Err(); err != nil {
				yield(Record{}, err)
				return
			}
			fields, err := r.Read()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(Record{}, fmt.Errorf("corpus: %s: %w", path, err))
				return
			}
			rec, err := parse(fields)
			if err != nil {
				line, _ := r.FieldPos(0)
				yield(Record{}, fmt.Errorf("corpus: %s line %d: %w", path, line, err))
				return
			}
			if !yield(rec, nil) {
				return
			}
		}
	}
}

func (c *CSV) parseTitleDescription(fields []string) (Record, error) {
	if len(fields) < 2 {
		return Record{}, fmt.Errorf("expected at least 2 fields, got %d", len(fields))
	}
	label, err := strconv.Atoi(strings.TrimSpace(fields[0]))
	if err != nil {
		return Record{}, fmt.Errorf("label: %w", err)
	}
	var desc string
	if len(fields) > 2 {
		desc = fields[2]
	}
	return Record{Text: fields[1] + " " + desc, Label: label - 1}, nil
}

type sentenceLabelParser struct {
	sentence, label int
}

func newSentenceLabelParser(r *csv.Reader) (*sentenceLabelParser, error) {
	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("missing header")
		}
		return nil, err
	}
	p := &sentenceLabelParser{
		sentence: slices.Index(header, "sentence"),
		label:    slices.Index(header, "label"),
	}
	if p.sentence < 0 || p.label < 0 {
		return nil, fmt.Errorf("header %q lacks sentence or label column", header)
	}
	return p, nil
}

func (p *sentenceLabelParser) parse(fields []string) (Record, error) {
	if n := max(p.sentence, p.label) + 1; len(fields) < n {
		return Record{}, fmt.Errorf("expected at least %d fields, got %d", n, len(fields))
	}
	label, err := strconv.Atoi(strings.TrimSpace(fields[p.label]))
	if err != nil {
		return Record{}, fmt.Errorf("label: %w", err)
	}
	return Record{Text: fields[p.sentence], Label: label}, nil
}
