// Package unit implements the fixed-length pages ("units") a paged array is
// split into.
//
// A Unit owns one contiguous slice of elements and computes page-local
// aggregates over a caller-supplied meaningful prefix. Folding page-local
// results into whole-array results is the caller's job.
package unit
