package testutil

import (
	"encoding/csv"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hupe1980/textcache/corpus"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

const letters = "abcdefghijklmnopqrstuvwxyz"

// Words returns n lowercase words of 1 to 8 letters joined by spaces.
func (r *RNG) Words(n int) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.wordsLocked(n)
}

func (r *RNG) wordsLocked(n int) string {
	var sb strings.Builder
	for i := range n {
		if i > 0 {
			sb.WriteByte(' ')
		}
		for range 1 + r.rand.Intn(8) {
			sb.WriteByte(letters[r.rand.Intn(len(letters))])
		}
	}
	return sb.String()
}

// Records generates n records with at least two words each and labels
// uniform in [0, classes).
func (r *RNG) Records(n, classes int) []corpus.Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	recs := make([]corpus.Record, n)
	for i := range recs {
		recs[i] = corpus.Record{
			Text:  r.wordsLocked(2 + r.rand.Intn(10)),
			Label: r.rand.Intn(classes),
		}
	}
	return recs
}

// SkewedRecords is like Records but draws labels from a Zipf distribution,
// so low labels dominate. s=1.0 gives standard Zipf.
func (r *RNG) SkewedRecords(n, classes int, s float64) []corpus.Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	recs := make([]corpus.Record, n)
	for i := range recs {
		recs[i] = corpus.Record{
			Text:  r.wordsLocked(2 + r.rand.Intn(10)),
			Label: r.zipfLocked(classes, s),
		}
	}
	return recs
}

// zipfLocked samples from [0, n) with P(k) ∝ 1/(k+1)^s (caller must hold lock).
func (r *RNG) zipfLocked(n int, s float64) int {
	if n <= 1 {
		return 0
	}

	var hns float64
	for i := 1; i <= n; i++ {
		hns += 1.0 / math.Pow(float64(i), s)
	}

	u := r.rand.Float64() * hns
	var cumulative float64
	for k := 1; k <= n; k++ {
		cumulative += 1.0 / math.Pow(float64(k), s)
		if u <= cumulative {
			return k - 1
		}
	}
	return n - 1
}

// Corpus generates an in-memory corpus with the given split sizes.
func (r *RNG) Corpus(train, test, classes int) corpus.Slice {
	return corpus.Slice{
		corpus.Train: r.Records(train, classes),
		corpus.Test:  r.Records(test, classes),
	}
}

// WriteCSV writes recs as <dir>/<split>.csv in the given format and
// compression and returns the file path.
//
// For FormatTitleDescription the text is split at its first space into
// title and description, so texts without a space do not round-trip.
func WriteCSV(tb testing.TB, dir string, split corpus.Split, format corpus.Format, c corpus.Compression, recs []corpus.Record) string {
	tb.Helper()

	path := filepath.Join(dir, string(split)+".csv"+c.Ext())
	require.NoError(tb, os.MkdirAll(dir, 0o755))
	f, err := os.Create(path)
	require.NoError(tb, err)
	defer f.Close()

	wc, err := corpus.NewWriter(f, c)
	require.NoError(tb, err)

	w := csv.NewWriter(wc)
	if format == corpus.FormatSentenceLabel {
		require.NoError(tb, w.Write([]string{"sentence", "label"}))
	}
	for _, rec := range recs {
		var row []string
		switch format {
		case corpus.FormatSentenceLabel:
			row = []string{rec.Text, strconv.Itoa(rec.Label)}
		default:
			title, desc, _ := strings.Cut(rec.Text, " ")
			row = []string{strconv.Itoa(rec.Label + 1), title, desc}
		}
		require.NoError(tb, w.Write(row))
	}
	w.Flush()
	require.NoError(tb, w.Error())
	require.NoError(tb, wc.Close())
	return path
}

// WriteCorpus writes both splits of s below dir and returns a CSV corpus
// reading them.
func WriteCorpus(tb testing.TB, dir string, format corpus.Format, s corpus.Slice) *corpus.CSV {
	tb.Helper()
	for _, split := range corpus.Splits() {
		WriteCSV(tb, dir, split, format, corpus.CompressionNone, s[split])
	}
	return corpus.NewCSV(dir, format)
}
