// Package addressing maps 5-D pixel coordinates to 64-bit linear indices
// and linear indices to (unit id, offset) pairs.
//
// Linear indices nest band fastest, then x, y, z and t:
//
//	i = (((t*Z + z)*Y + y)*X + x)*Bands + band
//
// Units hold 2^power elements, so the unit id is i >> power and the offset
// is i & (2^power - 1).
package addressing
