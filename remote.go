package textcache

import (
	"context"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/hupe1980/textcache/blobstore"
	"github.com/hupe1980/textcache/codec"
	"github.com/hupe1980/textcache/corpus"
	"github.com/hupe1980/textcache/internal/fs"
	ihash "github.com/hupe1980/textcache/internal/hash"
	"github.com/hupe1980/textcache/kv/segment"
	"github.com/hupe1980/textcache/resource"
)

// ManifestName is the blob written after all store files of a split have
// been uploaded. Its presence marks a complete remote split.
const ManifestName = "MANIFEST.json"

const manifestVersion = 1

// Manifest describes a published split.
type Manifest struct {
	Version   int            `json:"version"`
	Split     corpus.Split   `json:"split"`
	Engine    string         `json:"engine"`
	Samples   int            `json:"samples"`
	Files     []ManifestFile `json:"files"`
	CreatedAt time.Time      `json:"created_at"`
}

// ManifestFile is one store file of a published split.
type ManifestFile struct {
	Name   string `json:"name"`
	Size   int64  `json:"size"`
	CRC32C uint32 `json:"crc32c"`
}

// Bytes returns the total size of all files.
func (m *Manifest) Bytes() int64 {
	var n int64
	for _, f := range m.Files {
		n += f.Size
	}
	return n
}

func manifestKey(split corpus.Split) string {
	return path.Join(string(split), ManifestName)
}

// Publish uploads the split store at <root>/<split> to store under the
// <split>/ prefix. The store must be complete. The manifest is written
// last, so remote readers never observe a partial split.
//
// With WithResourceController each call holds a worker slot and file
// bodies are throttled to the controller's IO limit.
func Publish(ctx context.Context, root string, split corpus.Split, store blobstore.BlobStore, opts ...Option) (*Manifest, error) {
	o := applyOptions(opts)
	start := time.Now()

	m, err := publish(ctx, root, split, store, o)
	d := time.Since(start)

	var files int
	var n int64
	if m != nil {
		files, n = len(m.Files), m.Bytes()
	}
	o.metrics.RecordTransfer("publish", n, d, err)
	o.logger.LogTransfer(ctx, "publish", split, files, n, err)
	return m, err
}

func publish(ctx context.Context, root string, split corpus.Split, store blobstore.BlobStore, o options) (*Manifest, error) {
	if err := o.resources.AcquireWorker(ctx); err != nil {
		return nil, err
	}
	defer o.resources.ReleaseWorker()

	dir := filepath.Join(root, string(split))

	ds, err := OpenDataset(dir, WithFileSystem(o.fs))
	if err != nil {
		return nil, err
	}
	samples := ds.Len()
	if err := ds.Close(); err != nil {
		return nil, err
	}

	entries, err := o.fs.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	m := &Manifest{
		Version:   manifestVersion,
		Split:     split,
		Engine:    "bolt",
		Samples:   samples,
		CreatedAt: time.Now().UTC(),
	}

	// A stale manifest must not describe the files being replaced.
	if err := store.Delete(ctx, manifestKey(split)); err != nil {
		return nil, err
	}

	for _, e := range entries {
		if e.IsDir() || !isStoreFile(e.Name()) {
			continue
		}
		if e.Name() == segment.FileName {
			m.Engine = "segment"
		}
		f, err := uploadFile(ctx, o, filepath.Join(dir, e.Name()), store, path.Join(string(split), e.Name()))
		if err != nil {
			return nil, fmt.Errorf("textcache: publish %s: %w", e.Name(), err)
		}
		m.Files = append(m.Files, f)
	}
	if len(m.Files) == 0 {
		return nil, fmt.Errorf("%w: no store files in %s", ErrMissingCache, dir)
	}

	data, err := codec.GoJSON{}.MarshalIndent(m)
	if err != nil {
		return nil, err
	}
	if err := store.Put(ctx, manifestKey(split), data); err != nil {
		return nil, err
	}
	return m, nil
}

func uploadFile(ctx context.Context, o options, src string, store blobstore.BlobStore, name string) (ManifestFile, error) {
	f, err := o.fs.OpenFile(src, os.O_RDONLY, 0)
	if err != nil {
		return ManifestFile{}, err
	}
	defer f.Close()

	w, err := store.Create(ctx, name)
	if err != nil {
		return ManifestFile{}, err
	}

	h := ihash.NewCRC32C()
	r := resource.NewRateLimitedReader(ctx, io.TeeReader(f, h), o.resources)
	n, err := io.Copy(w, r)
	if err != nil {
		_ = w.Abort()
		return ManifestFile{}, err
	}
	if err := w.Close(); err != nil {
		return ManifestFile{}, err
	}
	return ManifestFile{Name: path.Base(name), Size: n, CRC32C: h.Sum32()}, nil
}

// ReadManifest fetches the manifest of a published split.
func ReadManifest(ctx context.Context, store blobstore.BlobStore, split corpus.Split) (*Manifest, error) {
	data, err := blobstore.ReadAll(ctx, store, manifestKey(split))
	if errors.Is(err, blobstore.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotPublished, split)
	}
	if err != nil {
		return nil, err
	}

	var m Manifest
	if err := codec.Default.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("textcache: manifest %s: %w", split, err)
	}
	if m.Version != manifestVersion {
		return nil, fmt.Errorf("textcache: manifest %s: unsupported version %d", split, m.Version)
	}
	return &m, nil
}

// Fetch downloads a published split into <root>/<split>.
//
// Files are downloaded into a temporary directory, checked against the
// manifest and renamed into place, so the split directory only ever
// appears complete. An existing split directory is left alone unless
// WithForceRebuild is set.
func Fetch(ctx context.Context, store blobstore.BlobStore, split corpus.Split, root string, opts ...Option) (*Manifest, error) {
	o := applyOptions(opts)
	start := time.Now()

	m, fetched, err := fetch(ctx, store, split, root, o)
	d := time.Since(start)

	var n int64
	if fetched {
		n = m.Bytes()
	}
	o.metrics.RecordTransfer("fetch", n, d, err)
	if err == nil && !fetched {
		o.logger.LogSkip(ctx, filepath.Join(root, string(split)))
		return m, nil
	}
	var files int
	if m != nil {
		files = len(m.Files)
	}
	o.logger.LogTransfer(ctx, "fetch", split, files, n, err)
	return m, err
}

func fetch(ctx context.Context, store blobstore.BlobStore, split corpus.Split, root string, o options) (*Manifest, bool, error) {
	if err := o.resources.AcquireWorker(ctx); err != nil {
		return nil, false, err
	}
	defer o.resources.ReleaseWorker()

	m, err := ReadManifest(ctx, store, split)
	if err != nil {
		return nil, false, err
	}

	dst := filepath.Join(root, string(split))
	if !o.forceRebuild && fs.Exists(o.fs, dst) {
		return m, false, nil
	}

	if err := o.fs.MkdirAll(root, 0o755); err != nil {
		return nil, false, err
	}
	tmp, err := o.fs.MkdirTemp(root, "."+string(split)+"-fetch-")
	if err != nil {
		return nil, false, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = o.fs.RemoveAll(tmp)
		}
	}()

	for _, f := range m.Files {
		if !isStoreFile(f.Name) {
			return nil, false, fmt.Errorf("textcache: manifest %s lists unexpected file %q", split, f.Name)
		}
		if err := downloadFile(ctx, o, store, path.Join(string(split), f.Name), filepath.Join(tmp, f.Name), f); err != nil {
			return nil, false, fmt.Errorf("textcache: fetch %s: %w", f.Name, err)
		}
	}

	ds, err := OpenDataset(tmp, WithFileSystem(o.fs))
	if err != nil {
		return nil, false, err
	}
	samples := ds.Len()
	if err := ds.Close(); err != nil {
		return nil, false, err
	}
	if samples != m.Samples {
		return nil, false, fmt.Errorf("%w: fetched %d samples, manifest lists %d", ErrIncompleteCache, samples, m.Samples)
	}

	if err := o.fs.RemoveAll(dst); err != nil {
		return nil, false, err
	}
	if err := o.fs.Rename(tmp, dst); err != nil {
		return nil, false, err
	}
	committed = true
	return m, true, nil
}

func downloadFile(ctx context.Context, o options, store blobstore.BlobStore, name, dst string, want ManifestFile) error {
	b, err := store.Open(ctx, name)
	if err != nil {
		return err
	}
	defer b.Close()

	if b.Size() != want.Size {
		return fmt.Errorf("size %d, manifest lists %d", b.Size(), want.Size)
	}

	r, err := b.ReadRange(ctx, 0, b.Size())
	if err != nil {
		return err
	}
	defer r.Close()

	f, err := o.fs.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}

	h := ihash.NewCRC32C()
	if err := copyVerified(ctx, o, f, r, h); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	if got := h.Sum32(); got != want.CRC32C {
		return fmt.Errorf("checksum %08x, manifest lists %08x", got, want.CRC32C)
	}
	return nil
}

func copyVerified(ctx context.Context, o options, dst io.Writer, src io.Reader, h hash.Hash32) error {
	w := resource.NewRateLimitedWriter(ctx, io.MultiWriter(dst, h), o.resources)
	_, err := io.Copy(w, src)
	return err
}
