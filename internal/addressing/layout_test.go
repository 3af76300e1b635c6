package addressing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayout_Bijection(t *testing.T) {
	d := Dims{X: 5, Y: 3, Z: 2, T: 2, Bands: 3}
	for _, power := range []uint{0, 1, 3, 4, 7} {
		l, err := NewLayout(d, power)
		require.NoError(t, err)

		for i := int64(0); i < l.Total(); i++ {
			unit, off, err := l.Locate(i)
			require.NoError(t, err)
			assert.Less(t, unit, l.UnitDim())
			assert.GreaterOrEqual(t, off, 0)
			assert.Less(t, off, l.UnitSize())
			assert.Equal(t, i, l.Join(unit, off))

			c, err := l.Coord(i)
			require.NoError(t, err)
			back, err := l.Index(c)
			require.NoError(t, err)
			assert.Equal(t, i, back)
		}
	}
}

func TestLayout_Strides(t *testing.T) {
	l, err := NewLayout(Dims{X: 4, Y: 3, Z: 2, T: 2, Bands: 2}, 3)
	require.NoError(t, err)

	i, err := l.Index(Coord{Band: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(1), i)

	i, err = l.Index(Coord{X: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), i)

	i, err = l.Index(Coord{Y: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(8), i)

	i, err = l.Index(Coord{Z: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(24), i)

	i, err = l.Index(Coord{T: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(48), i)
}

func TestLayout_UnitDimAndValidLen(t *testing.T) {
	l, err := NewLayout(Dims{X: 10, Y: 1, Z: 1, T: 1, Bands: 1}, 2)
	require.NoError(t, err)
	assert.Equal(t, 4, l.UnitSize())
	assert.Equal(t, int64(3), l.UnitDim())
	assert.Equal(t, 4, l.ValidLen(0))
	assert.Equal(t, 4, l.ValidLen(1))
	assert.Equal(t, 2, l.ValidLen(2))
	assert.Equal(t, 0, l.ValidLen(3))
	assert.Equal(t, int64(8), l.UnitStart(2))
}

func TestLayout_OutOfRange(t *testing.T) {
	l, err := NewLayout(Dims{X: 2, Y: 2, Z: 1, T: 1, Bands: 1}, 1)
	require.NoError(t, err)

	_, _, err = l.Locate(4)
	assert.ErrorIs(t, err, ErrOutOfRange)
	_, _, err = l.Locate(-1)
	assert.ErrorIs(t, err, ErrOutOfRange)
	_, err = l.Index(Coord{X: 2})
	assert.ErrorIs(t, err, ErrOutOfRange)
	_, err = l.Coord(10)
	assert.ErrorIs(t, err, ErrOutOfRange)
	assert.False(t, l.Contains(Coord{Band: 1}))
}

func TestLayout_LargerThan32Bit(t *testing.T) {
	d := Dims{X: 1 << 20, Y: 1 << 20, Z: 4, T: 1, Bands: 1}
	l, err := NewLayout(d, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1)<<42, l.Total())
	assert.Equal(t, int64(1)<<22, l.UnitDim())

	last := l.Total() - 1
	unit, off, err := l.Locate(last)
	require.NoError(t, err)
	assert.Equal(t, l.UnitDim()-1, unit)
	assert.Equal(t, l.UnitSize()-1, off)

	c, err := l.Coord(last)
	require.NoError(t, err)
	assert.Equal(t, Coord{X: 1<<20 - 1, Y: 1<<20 - 1, Z: 3}, c)
}

func TestDims_Validate(t *testing.T) {
	assert.NoError(t, Dims{X: 1, Y: 1, Z: 1, T: 1, Bands: 1}.Validate())
	assert.NoError(t, Dims{X: 0, Y: 5, Z: 1, T: 1, Bands: 1}.Validate())
	assert.ErrorIs(t, Dims{X: 0, Y: -1, Z: 1, T: 1, Bands: 1}.Validate(), ErrInvalidDims)
	assert.ErrorIs(t, Dims{X: math.MaxInt32, Y: math.MaxInt32, Z: math.MaxInt32, T: 1, Bands: 1}.Validate(), ErrInvalidDims)
}

func TestUnitPower(t *testing.T) {
	const total = 1 << 40

	assert.Equal(t, uint(20), UnitPower(0, 1, total))
	assert.Equal(t, uint(17), UnitPower(1<<20, 8, total))
	// 1000 bytes of int32 = 250 elements, rounded up to 256.
	assert.Equal(t, uint(8), UnitPower(1000, 4, total))
	assert.Equal(t, uint(0), UnitPower(1, 8, total))
	// Capped by the array size: 100 elements fit in 128.
	assert.Equal(t, uint(7), UnitPower(1<<20, 1, 100))
	assert.Equal(t, uint(0), UnitPower(1<<20, 1, 0))
}
