// Package pager keeps the resident pages of every array registered with one
// Manager and enforces their shared budget.
//
// Pages are keyed by (owner registration id, unit id) and kept in a single
// LRU list across all owners. When installing a page pushes the pager over
// its unit or byte budget, the least recently used page of any owner is
// evicted; dirty victims are written back through their owner first. The
// page being installed is never its own victim.
//
// One mutex serializes every operation: lookup, load-on-miss, mutation,
// eviction and write-back. Owner callbacks run with the mutex held and must
// not call back into the Pager.
package pager
