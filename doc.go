// Package largearray provides disk-backed paged arrays of pixels for images
// larger than memory.
//
// An array of up to five dimensions (x, y, z, t and bands) is split into
// fixed-size units of a power-of-two number of elements. Units are loaded
// into memory on demand and evicted, least recently used first, once the
// shared budget of the owning Manager is reached. Dirty units are written to
// a private temporary backing file that is removed when the array is closed.
//
// # Quick Start
//
//	m, _ := largearray.NewManager(largearray.WithMaxResidentUnits(64))
//	defer m.Close()
//
//	img, _ := largearray.New[uint8](m, largearray.Dims{X: 40000, Y: 40000, Z: 1, T: 1, Bands: 3})
//	defer img.Close()
//
//	_ = img.SetCoord(largearray.Coord{X: 10, Y: 20, Band: 1}, 255)
//	hi, _ := img.Max()
//
// # Element Types
//
// Arrays are generic over bool, uint8, int32 and float64. Every array can be
// read and written in any of the four value domains through the Bool, Byte,
// Int and Double accessors; values are converted with the rules of package
// pixel (true is 1, out-of-range numbers saturate, fractions round half away
// from zero, NaN becomes 0).
//
// # Memory Model
//
// All arrays of a Manager share one page table. WithMaxResidentUnits bounds
// the number of resident units and WithMemoryLimit bounds their bytes. An
// array only ever holds the units it touched; a pixel that was never written
// reads as the fill value without any IO.
//
// # Persistence
//
// WriteTo and Read serialize an array as a header, a sequence of framed
// (optionally compressed) units and a BLAKE3 digest. Save and Load do the same
// through a blobstore.BlobStore, such as a local directory, S3 or MinIO.
//
// # Key Features
//
//   - Bounded memory regardless of image size
//   - Shared LRU page budget across arrays
//   - Lazy, sparse backing files
//   - Read-only arrays backed by an arbitrary Source
//   - LZ4, Zstd and XZ compressed serialization
package largearray
