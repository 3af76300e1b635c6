package largearray

import (
	"context"
	"io"

	"github.com/hupe1980/largearray/blobstore"
	"github.com/hupe1980/largearray/pixel"
)

// Image is the element-type independent view of an array. Every *Array
// implements it.
type Image interface {
	io.WriterTo
	io.Closer

	Dims() Dims
	Len() int64
	Type() pixel.Type
	IsMask() bool
	ReadOnly() bool
	Contains(c Coord) bool

	Bool(i int64) (bool, error)
	Byte(i int64) (uint8, error)
	Int(i int64) (int32, error)
	Double(i int64) (float64, error)
	SetBool(i int64, v bool) error
	SetByte(i int64, v uint8) error
	SetInt(i int64, v int32) error
	SetDouble(i int64, v float64) error

	BoolAt(c Coord) (bool, error)
	ByteAt(c Coord) (uint8, error)
	IntAt(c Coord) (int32, error)
	DoubleAt(c Coord) (float64, error)
	SetBoolAt(c Coord, v bool) error
	SetByteAt(c Coord, v uint8) error
	SetIntAt(c Coord, v int32) error
	SetDoubleAt(c Coord, v float64) error

	FillDouble(v float64) error
	MinDouble() (float64, error)
	MaxDouble() (float64, error)
	Sum() (float64, error)
	IsEmpty() (bool, error)
	Foreground() ([]Coord, error)
	CopyFrom(src Image) error

	UnitPowerSize() uint
	UnitDim() int64
	SetUnitPowerSize(power uint) error
	Pixels() (any, error)
	Flush() error
	Save(ctx context.Context, store blobstore.BlobStore, name string) error
}

var (
	_ Image = (*Array[bool])(nil)
	_ Image = (*Array[uint8])(nil)
	_ Image = (*Array[int32])(nil)
	_ Image = (*Array[float64])(nil)
)

// NewImage creates a writable array of the given element type.
func NewImage(m *Manager, typ pixel.Type, dims Dims, opts ...Option) (Image, error) {
	switch typ {
	case pixel.Bool:
		return asImage(New[bool](m, dims, opts...))
	case pixel.Byte:
		return asImage(New[uint8](m, dims, opts...))
	case pixel.Int:
		return asImage(New[int32](m, dims, opts...))
	case pixel.Double:
		return asImage(New[float64](m, dims, opts...))
	default:
		return nil, ErrTypeMismatch
	}
}

// ConvertImage converts img, which must be an *Array, to element type typ.
func ConvertImage(img Image, typ pixel.Type, opts ...Option) (Image, error) {
	switch src := img.(type) {
	case *Array[bool]:
		return convertTo(src, typ, opts)
	case *Array[uint8]:
		return convertTo(src, typ, opts)
	case *Array[int32]:
		return convertTo(src, typ, opts)
	case *Array[float64]:
		return convertTo(src, typ, opts)
	default:
		return nil, ErrTypeMismatch
	}
}

func convertTo[S pixel.Element](src *Array[S], typ pixel.Type, opts []Option) (Image, error) {
	switch typ {
	case pixel.Bool:
		return asImage(Convert[bool](src, opts...))
	case pixel.Byte:
		return asImage(Convert[uint8](src, opts...))
	case pixel.Int:
		return asImage(Convert[int32](src, opts...))
	case pixel.Double:
		return asImage(Convert[float64](src, opts...))
	default:
		return nil, ErrTypeMismatch
	}
}

// asImage avoids wrapping a nil *Array in a non-nil Image.
func asImage[T pixel.Element](a *Array[T], err error) (Image, error) {
	if err != nil {
		return nil, err
	}
	return a, nil
}
