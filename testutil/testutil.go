package testutil

import (
	"math/rand"
	"sort"
	"sync"

	"github.com/hupe1980/largearray/pixel"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Int63n returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Int63n(n int64) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Int63n(n)
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// SparseIndices returns n distinct ascending indices in [0,total).
func (r *RNG) SparseIndices(total int64, n int) []int64 {
	if int64(n) > total {
		n = int(total)
	}
	seen := make(map[int64]struct{}, n)
	for len(seen) < n {
		seen[r.Int63n(total)] = struct{}{}
	}
	out := make([]int64, 0, n)
	for i := range seen {
		out = append(out, i)
	}
	sort.Slice(out, func(a, b int) bool { return out[a] < out[b] })
	return out
}

// Pixels returns n random values of T. Bools are true with probability one
// half, bytes cover [0,255], ints cover [-1000,1000) and doubles [-1,1).
func Pixels[T pixel.Element](r *RNG, n int) []T {
	tr := pixel.Of[T]()
	out := make([]T, n)
	for i := range out {
		var v float64
		switch tr.Type {
		case pixel.Bool:
			v = float64(r.Intn(2))
		case pixel.Byte:
			v = float64(r.Intn(256))
		case pixel.Int:
			v = float64(r.Intn(2000) - 1000)
		default:
			v = r.Float64()*2 - 1
		}
		out[i] = tr.FromDouble(v)
	}
	return out
}
