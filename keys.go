package textcache

import (
	"fmt"
	"strconv"
)

// MaxSamples is the number of records a split can hold. Indices are written
// as nine decimal digits so that byte order equals numeric order.
const MaxSamples = 1_000_000_000

var (
	textPrefix  = []byte("txt-")
	labelPrefix = []byte("lab-")
	nsamplesKey = []byte("nsamples")
)

// TextKey returns the key of the token sequence of record i.
func TextKey(i int) []byte { return appendKey(textPrefix, i) }

// LabelKey returns the key of the label of record i.
func LabelKey(i int) []byte { return appendKey(labelPrefix, i) }

// NSamplesKey returns the key holding the record count. It is written last.
func NSamplesKey() []byte { return append([]byte(nil), nsamplesKey...) }

func appendKey(prefix []byte, i int) []byte {
	return fmt.Appendf(append(make([]byte, 0, len(prefix)+9), prefix...), "%09d", i)
}

// parseIndex extracts the record index from a txt- or lab- key.
func parseIndex(key []byte) (int, error) {
	if len(key) != len(textPrefix)+9 {
		return 0, fmt.Errorf("malformed key %q", key)
	}
	i, err := strconv.Atoi(string(key[len(textPrefix):]))
	if err != nil || i < 0 {
		return 0, fmt.Errorf("malformed key %q", key)
	}
	return i, nil
}
