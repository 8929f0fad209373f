package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/hupe1980/textcache/internal/conv"
)

const (
	// HeaderSize is the size of the element-count prefix.
	HeaderSize = 4
	// FieldSize is the width of one encoded value.
	FieldSize = 4
	// MaxValue is the largest value a field can hold.
	MaxValue = math.MaxUint32
)

var (
	// ErrValueOutOfRange is returned when a value does not fit a field.
	ErrValueOutOfRange = errors.New("codec: value out of range")
	// ErrCorrupt is returned when a buffer is not a valid record.
	ErrCorrupt = errors.New("codec: corrupt record")
)

// RangeError reports the position and value that could not be encoded.
type RangeError struct {
	Index int
	Value int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("codec: value %d at position %d outside [0, %d]", e.Value, e.Index, uint64(MaxValue))
}

func (e *RangeError) Unwrap() error { return ErrValueOutOfRange }

// EncodedSize returns the number of bytes Encode produces for n values.
func EncodedSize(n int) int {
	return HeaderSize + n*FieldSize
}

// Encode serializes values as a length-prefixed little-endian uint32 array.
// The returned slice is freshly allocated.
func Encode(values []int) ([]byte, error) {
	return Append(make([]byte, 0, EncodedSize(len(values))), values)
}

// Append encodes values and appends them to dst.
// On error dst is returned unchanged.
func Append(dst []byte, values []int) ([]byte, error) {
	if _, err := conv.IntToUint32(len(values)); err != nil {
		return dst, &RangeError{Index: -1, Value: len(values)}
	}
	for i, v := range values {
		if _, err := conv.IntToUint32(v); err != nil {
			return dst, &RangeError{Index: i, Value: v}
		}
	}

	start := len(dst)
	dst = append(dst, make([]byte, EncodedSize(len(values)))...)
	buf := dst[start:]
	binary.LittleEndian.PutUint32(buf, uint32(len(values)))
	for i, v := range values {
		binary.LittleEndian.PutUint32(buf[HeaderSize+i*FieldSize:], uint32(v))
	}
	return dst, nil
}

// Decode parses a record produced by Encode.
func Decode(b []byte) ([]int, error) {
	n, err := Len(b)
	if err != nil {
		return nil, err
	}
	out := make([]int, n)
	for i := range out {
		out[i] = int(binary.LittleEndian.Uint32(b[HeaderSize+i*FieldSize:]))
	}
	return out, nil
}

// Len returns the element count of a record without decoding it.
func Len(b []byte) (int, error) {
	if len(b) < HeaderSize {
		return 0, fmt.Errorf("%w: %d bytes is shorter than the header", ErrCorrupt, len(b))
	}
	n, err := conv.Uint32ToInt(binary.LittleEndian.Uint32(b))
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if len(b) != EncodedSize(n) {
		return 0, fmt.Errorf("%w: header declares %d values, buffer holds %d bytes", ErrCorrupt, n, len(b))
	}
	return n, nil
}

// DecodeScalar decodes a single-element record such as a label or a count.
func DecodeScalar(b []byte) (int, error) {
	vals, err := Decode(b)
	if err != nil {
		return 0, err
	}
	if len(vals) != 1 {
		return 0, fmt.Errorf("%w: expected 1 value, got %d", ErrCorrupt, len(vals))
	}
	return vals[0], nil
}
