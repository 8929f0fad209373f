// Package textcache turns labeled text corpora into on-disk caches of
// fixed-length character id sequences and serves them by index.
//
// A cache is one store per split under a common root:
//
//	<root>/train/   store with txt-NNNNNNNNN, lab-NNNNNNNNN and nsamples keys
//	<root>/test/
//
// Token sequences and labels are stored with the record codec in package
// codec. The sample count is written last, so a store without it is
// incomplete and is rejected on open.
//
// # Quick Start
//
//	vz, _ := vocab.NewVectorizer(vocab.Default(), 1014)
//	src := corpus.NewCSV("./data/ag_news", corpus.FormatTitleDescription)
//
//	b := textcache.NewBuilder("./cache/ag_news", vz,
//		textcache.WithPreprocessor(vocab.Lowercase()),
//		textcache.WithClasses(4),
//	)
//	if _, err := b.Build(ctx, src); err != nil {
//		return err
//	}
//
//	ds, _ := textcache.OpenDataset(b.SplitPath(corpus.Train))
//	defer ds.Close()
//	s, _ := ds.Get(ctx, 0)
//
// Build is idempotent: when both split directories exist it returns
// without touching the corpus. Use WithForceRebuild after an
// ErrIncompleteCache.
//
// # Engines
//
// Two store engines are available:
//
//   - bolt (default): a B+tree over go.etcd.io/bbolt.
//   - segment: a single sorted file, read zero-copy through mmap.
//
// Datasets detect the engine from the files present.
//
// # Sharing Caches
//
// Publish uploads a finished split to a blobstore.BlobStore (local, S3 or
// MinIO) and writes a manifest last. Fetch downloads and verifies it into
// a local root. Both honor the IO limit of a resource.Controller.
//
// # Errors
//
// Failures map onto the sentinels in errors.go. Use errors.Is:
//
//	if errors.Is(err, textcache.ErrIncompleteCache) {
//		// rebuild with WithForceRebuild(true)
//	}
package textcache
