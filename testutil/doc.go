// Package testutil provides testing utilities for largearray.
//
// This package is intended for use in tests and benchmarks only.
// It provides a seeded, thread-safe RNG and helpers for generating pixel
// data and sparse write patterns.
//
// # Random Pixels
//
//	rng := testutil.NewRNG(seed)
//	px := testutil.Pixels[uint8](rng, 1024)
//
// # Sparse Writes
//
//	idx := rng.SparseIndices(total, 100)
package testutil
