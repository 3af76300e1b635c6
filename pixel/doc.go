// Package pixel defines the four pixel element types a large array can hold
// and the value-domain rules for converting between them.
//
// Each element type is described by a Traits value: its zero (default)
// value, its width in bytes, how it is ordered, how it is encoded on disk
// and how it maps into the bool, byte, int and double domains. Paged arrays
// and their units are generic over Element and reach every type-specific
// behaviour through Of[T].
//
// # Value domains
//
//	bool   -> numeric : true=1, false=0
//	numeric -> bool   : v != 0
//	int    -> byte    : clamp to [0,255]
//	double -> byte    : round half away from zero, clamp to [0,255], NaN=0
//	double -> int     : round half away from zero, clamp to int32, NaN=0
//	byte   -> int/double, int -> double : exact
package pixel
