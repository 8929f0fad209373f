package corpus

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies how a source file is encoded on disk.
type Compression uint8

const (
	// CompressionNone reads the file as plain CSV.
	CompressionNone Compression = iota
	// CompressionGzip reads .gz files.
	CompressionGzip
	// CompressionZSTD reads .zst files.
	CompressionZSTD
	// CompressionLZ4 reads .lz4 frame files.
	CompressionLZ4
)

// extensions are probed in this order when looking for a split file.
var extensions = []struct {
	ext string
	c   Compression
}{
	{"", CompressionNone},
	{".gz", CompressionGzip},
	{".zst", CompressionZSTD},
	{".lz4", CompressionLZ4},
}

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionGzip:
		return "gzip"
	case CompressionZSTD:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("Compression(%d)", uint8(c))
	}
}

// Ext returns the file extension of c, including the dot.
func (c Compression) Ext() string {
	for _, e := range extensions {
		if e.c == c {
			return e.ext
		}
	}
	return ""
}

// CompressionFor derives the compression from a file name.
func CompressionFor(path string) Compression {
	switch filepath.Ext(path) {
	case ".gz":
		return CompressionGzip
	case ".zst":
		return CompressionZSTD
	case ".lz4":
		return CompressionLZ4
	default:
		return CompressionNone
	}
}

// NewReader wraps r with the matching decompressor. The returned closer
// releases decoder resources; it does not close r.
func NewReader(r io.Reader, c Compression) (io.ReadCloser, error) {
	switch c {
	case CompressionNone:
		return io.NopCloser(r), nil
	case CompressionGzip:
		return gzip.NewReader(r)
	case CompressionZSTD:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return dec.IOReadCloser(), nil
	case CompressionLZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	default:
		return nil, fmt.Errorf("corpus: unsupported compression %s", c)
	}
}

// NewWriter wraps w with the matching compressor. Close flushes the
// compressed stream; it does not close w.
func NewWriter(w io.Writer, c Compression) (io.WriteCloser, error) {
	switch c {
	case CompressionNone:
		return nopWriteCloser{w}, nil
	case CompressionGzip:
		return gzip.NewWriter(w), nil
	case CompressionZSTD:
		return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	case CompressionLZ4:
		return lz4.NewWriter(w), nil
	default:
		return nil, fmt.Errorf("corpus: unsupported compression %s", c)
	}
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }
