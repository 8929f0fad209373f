// Package kvtest is a conformance suite every kv.Engine must pass.
package kvtest

import (
	"bytes"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/hupe1980/textcache/kv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run executes the conformance suite against engines produced by newEngine.
func Run(t *testing.T, newEngine func(t *testing.T) kv.Engine) {
	t.Run("MissingStore", func(t *testing.T) { testMissing(t, newEngine(t)) })
	t.Run("BuildThenRead", func(t *testing.T) { testBuildThenRead(t, newEngine(t)) })
	t.Run("Rollback", func(t *testing.T) { testRollback(t, newEngine(t)) })
	t.Run("SingleWriter", func(t *testing.T) { testSingleWriter(t, newEngine(t)) })
	t.Run("MapFull", func(t *testing.T) { testMapFull(t, newEngine(t)) })
	t.Run("FreshBuild", func(t *testing.T) { testFreshBuild(t, newEngine(t)) })
	t.Run("ConcurrentReaders", func(t *testing.T) { testConcurrentReaders(t, newEngine(t)) })
	t.Run("CloseOpenTxn", func(t *testing.T) { testCloseOpenTxn(t, newEngine(t)) })
}

var testOptions = kv.Options{MapSize: 64 << 20}

func key(prefix string, i int) []byte {
	return []byte(fmt.Sprintf("%s-%09d", prefix, i))
}

func build(t *testing.T, e kv.Engine, path string, n int) {
	t.Helper()
	s, err := e.Open(path, kv.ModeBuild, testOptions)
	require.NoError(t, err)
	assert.Equal(t, kv.ModeBuild, s.Mode())

	txn, err := s.Begin()
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		require.NoError(t, txn.Put(key("lab", i), []byte{byte(i)}))
		require.NoError(t, txn.Put(key("txt", i), bytes.Repeat([]byte{byte(i)}, 8)))
	}
	require.NoError(t, txn.Put([]byte("nsamples"), []byte{byte(n)}))
	require.NoError(t, txn.Commit())
	require.NoError(t, s.Close())
}

func testMissing(t *testing.T, e kv.Engine) {
	_, err := e.Open(filepath.Join(t.TempDir(), "train"), kv.ModeRead, testOptions)
	assert.ErrorIs(t, err, kv.ErrMissing)
}

func testBuildThenRead(t *testing.T, e kv.Engine) {
	path := filepath.Join(t.TempDir(), "train")
	build(t, e, path, 20)

	s, err := e.Open(path, kv.ModeRead, testOptions)
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, kv.ModeRead, s.Mode())

	v, err := s.Get([]byte("nsamples"))
	require.NoError(t, err)
	assert.Equal(t, []byte{20}, v)

	v, err = s.Get(key("txt", 7))
	require.NoError(t, err)
	assert.Equal(t, bytes.Repeat([]byte{7}, 8), v)

	_, err = s.Get(key("txt", 20))
	assert.ErrorIs(t, err, kv.ErrNotFound)
	_, err = s.Get([]byte("a"))
	assert.ErrorIs(t, err, kv.ErrNotFound)
	_, err = s.Get([]byte("zzz"))
	assert.ErrorIs(t, err, kv.ErrNotFound)

	var keys []string
	require.NoError(t, s.Ascend([]byte("lab-"), func(k, v []byte) bool {
		keys = append(keys, string(k))
		return true
	}))
	require.Len(t, keys, 20)
	for i, k := range keys {
		assert.Equal(t, string(key("lab", i)), k)
	}

	var stopped int
	require.NoError(t, s.Ascend([]byte("txt-"), func(k, v []byte) bool {
		stopped++
		return stopped < 3
	}))
	assert.Equal(t, 3, stopped)

	_, err = s.Begin()
	assert.ErrorIs(t, err, kv.ErrReadOnly)
}

func testRollback(t *testing.T, e kv.Engine) {
	path := filepath.Join(t.TempDir(), "test")
	s, err := e.Open(path, kv.ModeBuild, testOptions)
	require.NoError(t, err)

	txn, err := s.Begin()
	require.NoError(t, err)
	require.NoError(t, txn.Put([]byte("lab-000000000"), []byte{1}))
	require.NoError(t, txn.Commit())
	assert.ErrorIs(t, txn.Commit(), kv.ErrClosed)

	txn, err = s.Begin()
	require.NoError(t, err)
	require.NoError(t, txn.Put([]byte("lab-000000001"), []byte{2}))
	require.NoError(t, txn.Rollback())
	require.NoError(t, txn.Rollback())

	v, err := s.Get([]byte("lab-000000000"))
	require.NoError(t, err)
	assert.Equal(t, []byte{1}, v)
	require.NoError(t, s.Close())

	r, err := e.Open(path, kv.ModeRead, testOptions)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Get([]byte("lab-000000001"))
	assert.ErrorIs(t, err, kv.ErrNotFound)
	v, err = r.Get([]byte("lab-000000000"))
	require.NoError(t, err)
	assert.Equal(t, []byte{1}, v)
}

func testSingleWriter(t *testing.T, e kv.Engine) {
	s, err := e.Open(filepath.Join(t.TempDir(), "train"), kv.ModeBuild, testOptions)
	require.NoError(t, err)
	defer s.Close()

	txn, err := s.Begin()
	require.NoError(t, err)
	_, err = s.Begin()
	assert.ErrorIs(t, err, kv.ErrTxnActive)
	require.NoError(t, txn.Rollback())

	txn, err = s.Begin()
	require.NoError(t, err)
	require.NoError(t, txn.Commit())
}

func testMapFull(t *testing.T, e kv.Engine) {
	s, err := e.Open(filepath.Join(t.TempDir(), "train"), kv.ModeBuild, kv.Options{MapSize: 256 << 10})
	require.NoError(t, err)
	defer s.Close()

	txn, err := s.Begin()
	require.NoError(t, err)

	value := make([]byte, 1024)
	var putErr error
	for i := 0; i < 10_000 && putErr == nil; i++ {
		putErr = txn.Put(key("txt", i), value)
	}
	if putErr == nil {
		putErr = txn.Commit()
	} else {
		_ = txn.Rollback()
	}
	assert.ErrorIs(t, putErr, kv.ErrMapFull)
}

func testFreshBuild(t *testing.T, e kv.Engine) {
	path := filepath.Join(t.TempDir(), "train")
	build(t, e, path, 10)
	build(t, e, path, 3)

	s, err := e.Open(path, kv.ModeRead, testOptions)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Get(key("txt", 5))
	assert.ErrorIs(t, err, kv.ErrNotFound)

	n := 0
	require.NoError(t, s.Ascend(nil, func(k, v []byte) bool {
		n++
		return true
	}))
	assert.Equal(t, 7, n)
}

func testConcurrentReaders(t *testing.T, e kv.Engine) {
	path := filepath.Join(t.TempDir(), "train")
	build(t, e, path, 100)

	handles := make([]kv.Store, 3)
	for i := range handles {
		s, err := e.Open(path, kv.ModeRead, testOptions)
		require.NoError(t, err)
		defer s.Close()
		handles[i] = s
	}

	var wg sync.WaitGroup
	for g := 0; g < 12; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			s := handles[g%len(handles)]
			for i := 0; i < 500; i++ {
				idx := (g*31 + i*17) % 100
				v, err := s.Get(key("txt", idx))
				if !assert.NoError(t, err) {
					return
				}
				assert.Equal(t, bytes.Repeat([]byte{byte(idx)}, 8), v)
			}
		}(g)
	}
	wg.Wait()
}

func testCloseOpenTxn(t *testing.T, e kv.Engine) {
	path := filepath.Join(t.TempDir(), "train")
	s, err := e.Open(path, kv.ModeBuild, testOptions)
	require.NoError(t, err)

	txn, err := s.Begin()
	require.NoError(t, err)
	require.NoError(t, txn.Put([]byte("nsamples"), []byte{1}))
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	r, err := e.Open(path, kv.ModeRead, testOptions)
	require.NoError(t, err)
	defer r.Close()
	_, err = r.Get([]byte("nsamples"))
	assert.ErrorIs(t, err, kv.ErrNotFound)
}
