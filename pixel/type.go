package pixel

import (
	"fmt"
	"strings"
)

// Type identifies the element type of an array.
type Type uint8

const (
	// Invalid is the zero Type.
	Invalid Type = iota
	// Bool holds one boolean per pixel.
	Bool
	// Byte holds an unsigned 8-bit value per pixel.
	Byte
	// Int holds a signed 32-bit value per pixel.
	Int
	// Double holds a 64-bit float per pixel.
	Double
)

// Types lists every valid Type in ascending order.
var Types = []Type{Bool, Byte, Int, Double}

func (t Type) String() string {
	switch t {
	case Bool:
		return "bool"
	case Byte:
		return "byte"
	case Int:
		return "int"
	case Double:
		return "double"
	default:
		return fmt.Sprintf("pixel.Type(%d)", uint8(t))
	}
}

// Valid reports whether t is one of the four element types.
func (t Type) Valid() bool {
	return t >= Bool && t <= Double
}

// Width returns the element width in bytes, or 0 for an invalid type.
func (t Type) Width() int {
	switch t {
	case Bool, Byte:
		return 1
	case Int:
		return 4
	case Double:
		return 8
	default:
		return 0
	}
}

// Ext returns the backing-file extension used for arrays of this type.
func (t Type) Ext() string {
	switch t {
	case Bool:
		return ".largebool"
	case Byte:
		return ".largebyte"
	case Int:
		return ".largeinteger"
	case Double:
		return ".largedouble"
	default:
		return ".large"
	}
}

// ParseType returns the Type with the given name (as printed by String).
func ParseType(name string) (Type, error) {
	switch strings.ToLower(name) {
	case "bool", "boolean":
		return Bool, nil
	case "byte", "uint8":
		return Byte, nil
	case "int", "integer", "int32":
		return Int, nil
	case "double", "float64":
		return Double, nil
	default:
		return Invalid, fmt.Errorf("pixel: unknown type %q", name)
	}
}
