package unit

import "github.com/hupe1980/largearray/pixel"

// Convert returns a fresh unit of type D and length size holding the
// value-domain conversion of src. Elements past src.Len() stay zero; source
// elements past size are dropped.
func Convert[D, S pixel.Element](src *Unit[S], size int) *Unit[D] {
	dst := New[D](size)
	CopyConverted(dst, 0, src, 0, min(size, src.Len()))
	return dst
}

// CopyConverted converts n elements of src starting at srcOff into dst
// starting at dstOff. It is used to walk pages of two element types whose
// lengths differ by the ratio of their widths.
func CopyConverted[D, S pixel.Element](dst *Unit[D], dstOff int, src *Unit[S], srcOff, n int) {
	if n <= 0 {
		return
	}
	d := dst.data[dstOff : dstOff+n]
	s := src.data[srcOff : srcOff+n]
	if same, ok := any(d).([]S); ok {
		copy(same, s)
		return
	}
	from := pixel.Of[S]().ToDouble
	to := pixel.Of[D]().FromDouble
	for i, v := range s {
		d[i] = to(from(v))
	}
}
