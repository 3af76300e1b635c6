package pixel

import (
	"encoding/binary"
	"math"
)

// Element is the set of Go types a paged array can hold.
type Element interface {
	bool | uint8 | int32 | float64
}

// Traits describes one element type.
type Traits[T Element] struct {
	// Type is the element type tag.
	Type Type
	// Width is the encoded size of one element in bytes.
	Width int

	// Less orders two values; for Bool, false < true.
	Less func(a, b T) bool
	// Equal compares two values. NaN equals NaN for Double.
	Equal func(a, b T) bool
	// Identical reports whether two values encode to the same bytes, so
	// -0 and 0 differ for Double.
	Identical func(a, b T) bool

	ToBool   func(T) bool
	ToByte   func(T) uint8
	ToInt    func(T) int32
	ToDouble func(T) float64

	FromBool   func(bool) T
	FromByte   func(uint8) T
	FromInt    func(int32) T
	FromDouble func(float64) T

	// Put encodes v into dst[:Width].
	Put func(dst []byte, v T)
	// Load decodes a value from src[:Width].
	Load func(src []byte) T
}

// Zero returns the default value of T.
func (tr *Traits[T]) Zero() T {
	var z T
	return z
}

// IsZero reports whether v encodes as all zero bytes.
func (tr *Traits[T]) IsZero(v T) bool {
	var z T
	return tr.Identical(v, z)
}

var boolTraits = &Traits[bool]{
	Type:       Bool,
	Width:      1,
	Less:       func(a, b bool) bool { return !a && b },
	Equal:      func(a, b bool) bool { return a == b },
	Identical:  func(a, b bool) bool { return a == b },
	ToBool:     func(v bool) bool { return v },
	ToByte:     boolToNum,
	ToInt:      func(v bool) int32 { return int32(boolToNum(v)) },
	ToDouble:   func(v bool) float64 { return float64(boolToNum(v)) },
	FromBool:   func(v bool) bool { return v },
	FromByte:   func(v uint8) bool { return v != 0 },
	FromInt:    func(v int32) bool { return v != 0 },
	FromDouble: func(v float64) bool { return v != 0 },
	Put:        func(dst []byte, v bool) { dst[0] = boolToNum(v) },
	Load:       func(src []byte) bool { return src[0] != 0 },
}

var byteTraits = &Traits[uint8]{
	Type:       Byte,
	Width:      1,
	Less:       func(a, b uint8) bool { return a < b },
	Equal:      func(a, b uint8) bool { return a == b },
	Identical:  func(a, b uint8) bool { return a == b },
	ToBool:     func(v uint8) bool { return v != 0 },
	ToByte:     func(v uint8) uint8 { return v },
	ToInt:      func(v uint8) int32 { return int32(v) },
	ToDouble:   func(v uint8) float64 { return float64(v) },
	FromBool:   boolToNum,
	FromByte:   func(v uint8) uint8 { return v },
	FromInt:    ByteFromInt,
	FromDouble: ByteFromDouble,
	Put:        func(dst []byte, v uint8) { dst[0] = v },
	Load:       func(src []byte) uint8 { return src[0] },
}

var intTraits = &Traits[int32]{
	Type:       Int,
	Width:      4,
	Less:       func(a, b int32) bool { return a < b },
	Equal:      func(a, b int32) bool { return a == b },
	Identical:  func(a, b int32) bool { return a == b },
	ToBool:     func(v int32) bool { return v != 0 },
	ToByte:     ByteFromInt,
	ToInt:      func(v int32) int32 { return v },
	ToDouble:   func(v int32) float64 { return float64(v) },
	FromBool:   func(v bool) int32 { return int32(boolToNum(v)) },
	FromByte:   func(v uint8) int32 { return int32(v) },
	FromInt:    func(v int32) int32 { return v },
	FromDouble: IntFromDouble,
	Put:        func(dst []byte, v int32) { binary.LittleEndian.PutUint32(dst, uint32(v)) },
	Load:       func(src []byte) int32 { return int32(binary.LittleEndian.Uint32(src)) },
}

var doubleTraits = &Traits[float64]{
	Type:       Double,
	Width:      8,
	Less:       func(a, b float64) bool { return a < b },
	Equal:      func(a, b float64) bool { return a == b || (math.IsNaN(a) && math.IsNaN(b)) },
	Identical:  func(a, b float64) bool { return math.Float64bits(a) == math.Float64bits(b) },
	ToBool:     func(v float64) bool { return v != 0 },
	ToByte:     ByteFromDouble,
	ToInt:      IntFromDouble,
	ToDouble:   func(v float64) float64 { return v },
	FromBool:   func(v bool) float64 { return float64(boolToNum(v)) },
	FromByte:   func(v uint8) float64 { return float64(v) },
	FromInt:    func(v int32) float64 { return float64(v) },
	FromDouble: func(v float64) float64 { return v },
	Put:        func(dst []byte, v float64) { binary.LittleEndian.PutUint64(dst, math.Float64bits(v)) },
	Load:       func(src []byte) float64 { return math.Float64frombits(binary.LittleEndian.Uint64(src)) },
}

// IsNaN reports whether v is a Double NaN.
func IsNaN[T Element](v T) bool {
	f, ok := any(v).(float64)
	return ok && math.IsNaN(f)
}

// Of returns the traits of T.
func Of[T Element]() *Traits[T] {
	var z T
	switch any(z).(type) {
	case bool:
		return any(boolTraits).(*Traits[T])
	case uint8:
		return any(byteTraits).(*Traits[T])
	case int32:
		return any(intTraits).(*Traits[T])
	default:
		return any(doubleTraits).(*Traits[T])
	}
}

// TypeOf returns the Type tag of T.
func TypeOf[T Element]() Type {
	return Of[T]().Type
}
