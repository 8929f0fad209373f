// Package testutil provides testing utilities for textcache.
//
// This package is intended for use in tests and benchmarks only.
// It provides a seeded generator for synthetic labeled corpora and
// helpers that write them as CSV sources.
//
//	rng := testutil.NewRNG(4711)
//	src := testutil.WriteCorpus(t, dir, corpus.FormatSentenceLabel, rng.Corpus(100, 20, 4))
package testutil
