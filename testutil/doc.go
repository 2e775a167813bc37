// Package testutil provides testing utilities for kangaroo.
//
// This package is intended for use in tests and benchmarks only.
// It provides a seeded, thread-safe random source and helpers for
// generating random documents and filters over a small value domain, so
// that random queries actually hit rows.
//
//	rng := testutil.NewRNG(4711)
//	doc := rng.Document(testutil.DefaultFields)
package testutil
