package unit

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnit_Aggregates(t *testing.T) {
	u := New[int32](8)
	for i := range 6 {
		u.Set(i, int32(i)-2)
	}

	assert.Equal(t, int32(-2), u.Min(6))
	assert.Equal(t, int32(3), u.Max(6))
	assert.Equal(t, 3.0, u.Sum(6))
	assert.False(t, u.IsEmpty(6))
	assert.True(t, New[int32](8).IsEmpty(8))

	// The tail past n is ignored.
	u.Set(7, 100)
	assert.Equal(t, int32(3), u.Max(6))
	assert.Equal(t, int32(100), u.Max(8))
}

func TestUnit_BoolAggregates(t *testing.T) {
	u := New[bool](4)
	assert.False(t, u.Min(4))
	assert.False(t, u.Max(4))

	u.Set(2, true)
	assert.False(t, u.Min(4))
	assert.True(t, u.Max(4))
	assert.Equal(t, 1.0, u.Sum(4))

	u.Fill(true)
	assert.True(t, u.Min(4))
}

func TestUnit_Bands(t *testing.T) {
	u := New[float64](6)
	for i := range 6 {
		u.Set(i, float64(i*10))
	}

	m, ok := u.MinBand(1, 3, 6)
	require.True(t, ok)
	assert.Equal(t, 10.0, m)

	m, ok = u.MaxBand(1, 3, 6)
	require.True(t, ok)
	assert.Equal(t, 40.0, m)

	_, ok = u.MaxBand(5, 3, 4)
	assert.False(t, ok)
}

func TestUnit_FilledAndClone(t *testing.T) {
	u := NewFilled[uint8](8, 7, 5)
	assert.Equal(t, uint8(7), u.Get(4))
	assert.Equal(t, uint8(0), u.Get(5))

	c := u.Clone()
	assert.True(t, c.Equal(u))
	c.Set(0, 1)
	assert.False(t, c.Equal(u))
	assert.Equal(t, uint8(7), u.Get(0))

	assert.False(t, u.Equal(New[uint8](4)))
	assert.True(t, u.EqualPrefix(NewFilled[uint8](4, 7, 4), 4))
}

func TestUnit_EqualNaN(t *testing.T) {
	a := New[float64](2)
	b := New[float64](2)
	a.Set(0, math.NaN())
	b.Set(0, math.NaN())
	assert.True(t, a.Equal(b))
}

func TestUnit_NaNPropagates(t *testing.T) {
	for pos := range 4 {
		u := New[float64](4)
		for i := range 4 {
			u.Set(i, float64(i+1))
		}
		u.Set(pos, math.NaN())

		assert.True(t, math.IsNaN(u.Min(4)), "min with NaN at %d", pos)
		assert.True(t, math.IsNaN(u.Max(4)), "max with NaN at %d", pos)
		lo, ok := u.MinBand(pos%2, 2, 4)
		require.True(t, ok)
		assert.True(t, math.IsNaN(lo), "band min with NaN at %d", pos)
		hi, ok := u.MaxBand(pos%2, 2, 4)
		require.True(t, ok)
		assert.True(t, math.IsNaN(hi), "band max with NaN at %d", pos)
	}
}

func TestUnit_Foreground(t *testing.T) {
	u := New[bool](8)
	u.Set(1, true)
	u.Set(6, true)
	u.Set(7, true)

	var got []int
	u.Foreground(7, func(off int) { got = append(got, off) })
	assert.Equal(t, []int{1, 6}, got)
}

func TestUnit_Binary(t *testing.T) {
	u := New[float64](4)
	u.Set(0, 1.5)
	u.Set(3, -2)

	b, err := u.MarshalBinary()
	require.NoError(t, err)
	assert.Len(t, b, 32)

	v := New[float64](4)
	require.NoError(t, v.UnmarshalBinary(b))
	assert.True(t, u.Equal(v))

	assert.ErrorIs(t, v.UnmarshalBinary(b[:8]), ErrSizeMismatch)

	prefixed, err := u.AppendBinary([]byte{9})
	require.NoError(t, err)
	assert.Equal(t, byte(9), prefixed[0])
	assert.Equal(t, b, prefixed[1:])
}

func TestConvert(t *testing.T) {
	src := New[bool](8)
	src.Set(0, true)
	src.Set(5, true)

	// A double page of the same byte size holds an eighth of the elements.
	dst := Convert[float64](src, 1)
	assert.Equal(t, 1, dst.Len())
	assert.Equal(t, 1.0, dst.Get(0))

	wide := Convert[uint8](src, 16)
	assert.Equal(t, 16, wide.Len())
	assert.Equal(t, 2.0, wide.Sum(16))
	assert.Equal(t, uint8(1), wide.Get(5))
}

func TestCopyConverted(t *testing.T) {
	src := New[float64](4)
	for i := range 4 {
		src.Set(i, float64(i)*100)
	}
	dst := New[uint8](8)
	CopyConverted(dst, 4, src, 1, 3)
	assert.Equal(t, []uint8{0, 0, 0, 0, 100, 200, 255, 0}, dst.Values())

	same := New[float64](4)
	CopyConverted(same, 0, src, 0, 4)
	assert.True(t, same.Equal(src))
}
