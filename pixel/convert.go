package pixel

import "math"

func boolToNum(v bool) uint8 {
	if v {
		return 1
	}
	return 0
}

// ByteFromInt clamps v into [0,255].
func ByteFromInt(v int32) uint8 {
	switch {
	case v < 0:
		return 0
	case v > math.MaxUint8:
		return math.MaxUint8
	default:
		return uint8(v)
	}
}

// ByteFromDouble rounds v half away from zero and clamps it into [0,255].
// NaN maps to 0.
func ByteFromDouble(v float64) uint8 {
	if math.IsNaN(v) {
		return 0
	}
	r := math.Round(v)
	switch {
	case r < 0:
		return 0
	case r > math.MaxUint8:
		return math.MaxUint8
	default:
		return uint8(r)
	}
}

// IntFromDouble rounds v half away from zero and clamps it into the int32
// range. NaN maps to 0.
func IntFromDouble(v float64) int32 {
	if math.IsNaN(v) {
		return 0
	}
	r := math.Round(v)
	switch {
	case r < math.MinInt32:
		return math.MinInt32
	case r > math.MaxInt32:
		return math.MaxInt32
	default:
		return int32(r)
	}
}

// Convert maps v from the domain of S into the domain of D.
func Convert[D, S Element](v S) D {
	return Of[D]().FromDouble(Of[S]().ToDouble(v))
}
