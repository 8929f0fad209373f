package textcache

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/textcache/corpus"
)

func newBufferLogger(buf *bytes.Buffer) *Logger {
	return NewLogger(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal(line, &m))
		out = append(out, m)
	}
	return out
}

func TestLogger(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	l := newBufferLogger(&buf)

	l.WithPath("/cache/train").LogBuild(ctx, corpus.Train, 42, time.Second, nil)
	l.LogBuild(ctx, corpus.Test, 7, time.Second, errors.New("boom"))
	l.LogSkip(ctx, "/cache")
	l.LogCommit(ctx, corpus.Train, 100)
	l.LogTransfer(ctx, "publish", corpus.Train, 1, 2048, nil)

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 5)

	assert.Equal(t, "build completed", lines[0]["msg"])
	assert.Equal(t, "/cache/train", lines[0]["path"])
	assert.Equal(t, float64(42), lines[0]["samples"])

	assert.Equal(t, "ERROR", lines[1]["level"])
	assert.Equal(t, "boom", lines[1]["error"])

	assert.Equal(t, "/cache", lines[2]["root"])
	assert.Equal(t, "DEBUG", lines[3]["level"])
	assert.Equal(t, "train", lines[3]["split"])
	assert.Equal(t, "publish completed", lines[4]["msg"])
	assert.Equal(t, float64(2048), lines[4]["bytes"])
}

func TestLogger_BuildIntegration(t *testing.T) {
	var buf bytes.Buffer
	_, err := NewBuilder(t.TempDir(), newTestVectorizer(t, 4), WithLogger(newBufferLogger(&buf))).
		Build(context.Background(), corpus.Slice{corpus.Train: {{Text: "a", Label: 0}}})
	require.NoError(t, err)

	var builds int
	for _, line := range decodeLines(t, &buf) {
		if line["msg"] == "build completed" {
			builds++
		}
	}
	assert.Equal(t, 2, builds)
}

func TestNoopLogger(t *testing.T) {
	l := NoopLogger()
	l.LogOpen(context.Background(), "x", 0, errors.New("boom"))
	assert.NotNil(t, WithLogger(nil))
}
