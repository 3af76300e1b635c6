// Package backing manages the private file that holds the evicted pages of
// one array.
//
// The file is a header-less run of UnitDim fixed-size pages; page id lives
// at id*UnitBytes. It is created on first write, initialised so that every
// page holds the array's fill value, and removed on Close. Pages are read
// and written whole and the file is never memory-mapped.
package backing
