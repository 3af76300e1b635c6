package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRNG_Reset(t *testing.T) {
	rng := NewRNG(4711)
	a := rng.Intn(1 << 20)
	rng.Reset()
	assert.Equal(t, a, rng.Intn(1<<20))
	assert.Equal(t, int64(4711), rng.Seed())
}

func TestSparseIndices(t *testing.T) {
	rng := NewRNG(4711)

	idx := rng.SparseIndices(1000, 50)
	assert.Len(t, idx, 50)
	for i := 1; i < len(idx); i++ {
		assert.Less(t, idx[i-1], idx[i])
	}
	assert.GreaterOrEqual(t, idx[0], int64(0))
	assert.Less(t, idx[len(idx)-1], int64(1000))

	assert.Len(t, rng.SparseIndices(10, 50), 10)
}

func TestPixels(t *testing.T) {
	rng := NewRNG(4711)

	ints := Pixels[int32](rng, 100)
	assert.Len(t, ints, 100)
	for _, v := range ints {
		assert.GreaterOrEqual(t, v, int32(-1000))
		assert.Less(t, v, int32(1000))
	}

	doubles := Pixels[float64](rng, 100)
	for _, v := range doubles {
		assert.GreaterOrEqual(t, v, -1.0)
		assert.Less(t, v, 1.0)
	}

	bools := Pixels[bool](rng, 100)
	assert.Contains(t, bools, true)
	assert.Contains(t, bools, false)
}
