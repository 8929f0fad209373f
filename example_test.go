package textcache_test

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/hupe1980/textcache"
	"github.com/hupe1980/textcache/blobstore"
	"github.com/hupe1980/textcache/corpus"
	"github.com/hupe1980/textcache/vocab"
)

// Example_build demonstrates building a cache and reading a sample back.
func Example_build() {
	ctx := context.Background()
	root, err := os.MkdirTemp("", "textcache-example")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(root)

	vz, err := vocab.NewVectorizer(vocab.New("abcdefghijklmnopqrstuvwxyz "), 8)
	if err != nil {
		log.Fatal(err)
	}

	src := corpus.Slice{
		corpus.Train: {{Text: "Hello World", Label: 1}, {Text: "bye", Label: 0}},
		corpus.Test:  {{Text: "again", Label: 1}},
	}

	b := textcache.NewBuilder(root, vz,
		textcache.WithPreprocessor(vocab.Lowercase()),
		textcache.WithClasses(2),
	)
	if _, err := b.Build(ctx, src); err != nil {
		log.Fatal(err)
	}

	ds, err := textcache.OpenDataset(b.SplitPath(corpus.Train))
	if err != nil {
		log.Fatal(err)
	}
	defer ds.Close()

	s, err := ds.Get(ctx, 0)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(ds.Len(), vz.Decode(s.Tokens), s.Label)
	// Output: 2 hello wo 1
}

// Example_idempotent shows that a second build skips existing caches and
// leaves their samples unchanged.
func Example_idempotent() {
	ctx := context.Background()
	root, err := os.MkdirTemp("", "textcache-example")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(root)

	vz, _ := vocab.NewVectorizer(vocab.Default(), 16)
	src := corpus.NewCounting(corpus.Slice{
		corpus.Train: {{Text: "one", Label: 0}},
		corpus.Test:  {{Text: "two", Label: 0}},
	})

	for range 2 {
		b := textcache.NewBuilder(root, vz)
		report, err := b.Build(ctx, src)
		if err != nil {
			log.Fatal(err)
		}

		ds, err := textcache.OpenDataset(b.SplitPath(corpus.Train))
		if err != nil {
			log.Fatal(err)
		}
		s, err := ds.Get(ctx, 0)
		_ = ds.Close()
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println("skipped:", report.Skipped, "records read:", src.Count(), "train[0]:", vz.Decode(s.Tokens))
	}
	// Output:
	// skipped: false records read: 2 train[0]: one
	// skipped: true records read: 2 train[0]: one
}

// Example_publish demonstrates sharing a finished split through a blob store.
func Example_publish() {
	ctx := context.Background()
	root, err := os.MkdirTemp("", "textcache-example")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(root)

	vz, _ := vocab.NewVectorizer(vocab.Default(), 16)
	b := textcache.NewBuilder(root, vz)
	if _, err := b.Build(ctx, corpus.Slice{corpus.Train: {{Text: "shared", Label: 0}}}); err != nil {
		log.Fatal(err)
	}

	store := blobstore.NewMemoryStore()
	m, err := textcache.Publish(ctx, root, corpus.Train, store)
	if err != nil {
		log.Fatal(err)
	}

	m, err = textcache.Fetch(ctx, store, corpus.Train, root+"-copy")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(root + "-copy")

	fmt.Println(m.Split, m.Engine, m.Samples)
	// Output: train bolt 1
}
