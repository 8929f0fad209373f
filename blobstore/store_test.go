package blobstore

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	ifs "github.com/hupe1980/textcache/internal/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T, s BlobStore) {
	ctx := context.Background()

	t.Run("PutOpen", func(t *testing.T) {
		require.NoError(t, s.Put(ctx, "train/data.db", []byte("hello world")))

		b, err := s.Open(ctx, "train/data.db")
		require.NoError(t, err)
		defer b.Close()
		assert.Equal(t, int64(11), b.Size())

		buf := make([]byte, 5)
		n, err := b.ReadAt(buf, 6)
		require.NoError(t, err)
		assert.Equal(t, "world", string(buf[:n]))

		r, err := b.ReadRange(ctx, 2, 3)
		require.NoError(t, err)
		data, err := io.ReadAll(r)
		require.NoError(t, err)
		require.NoError(t, r.Close())
		assert.Equal(t, "llo", string(data))
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := s.Open(ctx, "nope")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("CreateAbort", func(t *testing.T) {
		w, err := s.Create(ctx, "test/aborted")
		require.NoError(t, err)
		_, err = w.Write([]byte("partial"))
		require.NoError(t, err)
		require.NoError(t, w.Abort())

		_, err = s.Open(ctx, "test/aborted")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("CreateClose", func(t *testing.T) {
		w, err := s.Create(ctx, "test/data.db")
		require.NoError(t, err)
		_, err = w.Write([]byte("streamed"))
		require.NoError(t, err)
		require.NoError(t, w.Close())

		data, err := ReadAll(ctx, s, "test/data.db")
		require.NoError(t, err)
		assert.Equal(t, "streamed", string(data))
	})

	t.Run("List", func(t *testing.T) {
		names, err := s.List(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, []string{"test/data.db", "train/data.db"}, names)

		names, err = s.List(ctx, "train/")
		require.NoError(t, err)
		assert.Equal(t, []string{"train/data.db"}, names)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, s.Delete(ctx, "test/data.db"))
		require.NoError(t, s.Delete(ctx, "test/data.db"))
		_, err := s.Open(ctx, "test/data.db")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Empty", func(t *testing.T) {
		require.NoError(t, s.Put(ctx, "empty", nil))
		data, err := ReadAll(ctx, s, "empty")
		require.NoError(t, err)
		assert.Empty(t, data)
	})
}

func TestMemoryStore(t *testing.T) {
	testStore(t, NewMemoryStore())
}

func TestLocalStore(t *testing.T) {
	testStore(t, NewLocalStore(t.TempDir()))
}

func TestLocalStore_MissingRoot(t *testing.T) {
	s := NewLocalStore(filepath.Join(t.TempDir(), "absent"))
	names, err := s.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestLocalStore_RenameFault(t *testing.T) {
	root := t.TempDir()
	ffs := ifs.NewFaultyFS(nil)
	ffs.AddRule("MANIFEST", ifs.Fault{FailAfterBytes: -1, FailOnRename: true})
	s := NewLocalStore(root, WithFileSystem(ffs))

	err := s.Put(context.Background(), "train/MANIFEST.json", []byte("{}"))
	assert.ErrorIs(t, err, ifs.ErrInjected)

	entries, err := os.ReadDir(filepath.Join(root, "train"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}
