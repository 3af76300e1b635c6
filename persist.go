package largearray

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/zeebo/blake3"

	"github.com/hupe1980/largearray/blobstore"
	"github.com/hupe1980/largearray/codec"
	"github.com/hupe1980/largearray/internal/unit"
	"github.com/hupe1980/largearray/pixel"
)

const (
	formatMagic   = "LGAR"
	formatVersion = 1

	headerSize = 4 + 2 + 1 + 1 + 5*8 + 1 + 8
	digestSize = 32
)

// Header describes a serialized array.
type Header struct {
	Type        pixel.Type
	Compression codec.Compression
	Dims        Dims
	UnitPower   uint
	UnitDim     int64
}

func (h Header) marshal() []byte {
	b := make([]byte, 0, headerSize)
	b = append(b, formatMagic...)
	b = binary.LittleEndian.AppendUint16(b, formatVersion)
	b = append(b, byte(h.Type), byte(h.Compression))
	for _, v := range []int{h.Dims.X, h.Dims.Y, h.Dims.Z, h.Dims.T, h.Dims.Bands} {
		b = binary.LittleEndian.AppendUint64(b, uint64(v))
	}
	b = append(b, byte(h.UnitPower))
	return binary.LittleEndian.AppendUint64(b, uint64(h.UnitDim))
}

// ReadHeader reads and validates the header of a serialized array.
func ReadHeader(r io.Reader) (Header, error) {
	var b [headerSize]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return Header{}, fmt.Errorf("%w: header: %w", ErrCorrupt, err)
	}
	if string(b[:4]) != formatMagic {
		return Header{}, fmt.Errorf("%w: bad magic %q", ErrCorrupt, b[:4])
	}
	if v := binary.LittleEndian.Uint16(b[4:]); v != formatVersion {
		return Header{}, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, v)
	}
	h := Header{
		Type:        pixel.Type(b[6]),
		Compression: codec.Compression(b[7]),
	}
	var ext [5]int
	for i := range ext {
		v := binary.LittleEndian.Uint64(b[8+i*8:])
		if v > 1<<62 {
			return Header{}, fmt.Errorf("%w: extent %d out of range", ErrCorrupt, v)
		}
		ext[i] = int(v)
	}
	h.Dims = Dims{X: ext[0], Y: ext[1], Z: ext[2], T: ext[3], Bands: ext[4]}
	h.UnitPower = uint(b[48])
	h.UnitDim = int64(binary.LittleEndian.Uint64(b[49:]))

	if !h.Type.Valid() {
		return Header{}, fmt.Errorf("%w: unknown pixel type %d", ErrCorrupt, b[6])
	}
	if !h.Compression.Valid() {
		return Header{}, fmt.Errorf("%w: unknown compression %d", ErrCorrupt, b[7])
	}
	if err := h.Dims.Validate(); err != nil {
		return Header{}, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if h.UnitPower > MaxUnitPower {
		return Header{}, fmt.Errorf("%w: unit power %d", ErrCorrupt, h.UnitPower)
	}
	return h, nil
}

// Header returns the header WriteTo would write.
func (a *Array[T]) Header() Header {
	return Header{
		Type:        a.tr.Type,
		Compression: a.compression,
		Dims:        a.Dims(),
		UnitPower:   a.layout.UnitPower(),
		UnitDim:     a.layout.UnitDim(),
	}
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}

// WriteTo serializes the array with its configured compression. Pages are
// read one at a time through the page table; concurrent writers may or may
// not be reflected.
func (a *Array[T]) WriteTo(w io.Writer) (int64, error) {
	return a.Encode(w, a.compression)
}

// Encode serializes the array with compression c.
func (a *Array[T]) Encode(w io.Writer, c codec.Compression) (int64, error) {
	if a.closed.Load() {
		return 0, ErrClosed
	}
	if !c.Valid() {
		return 0, fmt.Errorf("largearray: unknown compression %d", uint8(c))
	}
	h := blake3.New()
	cw := &countingWriter{w: io.MultiWriter(w, h)}

	hdr := a.Header()
	hdr.Compression = c
	if _, err := cw.Write(hdr.marshal()); err != nil {
		return cw.n, err
	}

	raw := make([]byte, 0, a.UnitBytes())
	var frame []byte
	for id := range a.layout.UnitDim() {
		var err error
		if verr := a.view(id, func(u *unit.Unit[T]) {
			raw, err = u.AppendBinary(raw[:0])
		}); verr != nil {
			return cw.n, verr
		}
		if err != nil {
			return cw.n, err
		}
		if frame, err = codec.AppendFrame(frame[:0], raw, c); err != nil {
			return cw.n, err
		}
		if _, err := cw.Write(frame); err != nil {
			return cw.n, err
		}
	}

	n, err := w.Write(h.Sum(nil))
	return cw.n + int64(n), err
}

// Read deserializes an array of element type T into m. Every page is written
// to the new array's backing file as it is decoded, so memory use stays
// bounded by one page.
func Read[T pixel.Element](m *Manager, r io.Reader, opts ...Option) (*Array[T], error) {
	h := blake3.New()
	tee := io.TeeReader(r, h)
	hdr, err := ReadHeader(tee)
	if err != nil {
		return nil, err
	}
	if want := pixel.TypeOf[T](); hdr.Type != want {
		return nil, fmt.Errorf("%w: stream holds %s, want %s", ErrTypeMismatch, hdr.Type, want)
	}
	return decode[T](m, hdr, r, tee, h, opts)
}

// ReadImage deserializes an array of whatever element type the stream holds.
func ReadImage(m *Manager, r io.Reader, opts ...Option) (Image, error) {
	h := blake3.New()
	tee := io.TeeReader(r, h)
	hdr, err := ReadHeader(tee)
	if err != nil {
		return nil, err
	}
	switch hdr.Type {
	case pixel.Bool:
		return asImage(decode[bool](m, hdr, r, tee, h, opts))
	case pixel.Byte:
		return asImage(decode[uint8](m, hdr, r, tee, h, opts))
	case pixel.Int:
		return asImage(decode[int32](m, hdr, r, tee, h, opts))
	default:
		return asImage(decode[float64](m, hdr, r, tee, h, opts))
	}
}

func decode[T pixel.Element](m *Manager, hdr Header, r, tee io.Reader, h *blake3.Hasher, opts []Option) (*Array[T], error) {
	opts = append(opts, WithUnitPowerSize(hdr.UnitPower), WithCompression(hdr.Compression))
	a, err := New[T](m, hdr.Dims, opts...)
	if err != nil {
		return nil, err
	}
	if err := a.restore(hdr, r, tee, h); err != nil {
		return nil, errors.Join(err, a.Close())
	}
	return a, nil
}

func (a *Array[T]) restore(hdr Header, r, tee io.Reader, h *blake3.Hasher) error {
	if hdr.UnitDim != a.layout.UnitDim() {
		return fmt.Errorf("%w: %d units for %s at power %d", ErrCorrupt, hdr.UnitDim, hdr.Dims, hdr.UnitPower)
	}
	unitBytes := int(a.UnitBytes())
	u := unit.New[T](a.layout.UnitSize())
	for id := range a.layout.UnitDim() {
		raw, err := codec.ReadFrame(tee, hdr.Compression, unitBytes)
		if err != nil {
			return fmt.Errorf("%w: unit %d: %w", ErrCorrupt, id, err)
		}
		if len(raw) != unitBytes {
			return fmt.Errorf("%w: unit %d holds %d bytes, want %d", ErrCorrupt, id, len(raw), unitBytes)
		}
		if err := u.UnmarshalBinary(raw); err != nil {
			return fmt.Errorf("%w: unit %d: %w", ErrCorrupt, id, err)
		}
		if isFillOnly(u, a.pages.fillValue(), u.Len()) {
			continue
		}
		if err := a.m.pager.Exclusive(func() error {
			return a.pages.store.store(id, u)
		}); err != nil {
			return translateError(err)
		}
	}

	var digest [digestSize]byte
	if _, err := io.ReadFull(r, digest[:]); err != nil {
		return fmt.Errorf("%w: digest: %w", ErrCorrupt, err)
	}
	if !bytes.Equal(digest[:], h.Sum(nil)) {
		return fmt.Errorf("%w: digest mismatch", ErrCorrupt)
	}
	return nil
}

// Save serializes the array into store under name.
func (a *Array[T]) Save(ctx context.Context, store blobstore.BlobStore, name string) error {
	start := time.Now()
	n, err := a.save(ctx, store, name)
	a.m.metrics.RecordSave(n, time.Since(start), err)
	a.logger.LogSave(ctx, name, n, err)
	return err
}

func (a *Array[T]) save(ctx context.Context, store blobstore.BlobStore, name string) (int64, error) {
	wb, err := store.Create(ctx, name)
	if err != nil {
		return 0, err
	}
	bw := bufio.NewWriterSize(wb, 1<<20)
	n, err := a.WriteTo(bw)
	if err == nil {
		err = bw.Flush()
	}
	if err != nil {
		if ab, ok := wb.(interface{ Abort() error }); ok {
			_ = ab.Abort()
		} else {
			_ = wb.Close()
		}
		return n, err
	}
	return n, wb.Close()
}

// Load deserializes the array stored under name.
func Load[T pixel.Element](ctx context.Context, m *Manager, store blobstore.BlobStore, name string, opts ...Option) (*Array[T], error) {
	var a *Array[T]
	err := m.load(ctx, store, name, func(r io.Reader) (int64, error) {
		var err error
		a, err = Read[T](m, r, opts...)
		if err != nil {
			return 0, err
		}
		return a.UnitDim(), nil
	})
	return a, err
}

// LoadImage deserializes the array stored under name, whatever its element
// type.
func LoadImage(ctx context.Context, m *Manager, store blobstore.BlobStore, name string, opts ...Option) (Image, error) {
	var img Image
	err := m.load(ctx, store, name, func(r io.Reader) (int64, error) {
		var err error
		img, err = ReadImage(m, r, opts...)
		if err != nil {
			return 0, err
		}
		return img.UnitDim(), nil
	})
	return img, err
}

func (m *Manager) load(ctx context.Context, store blobstore.BlobStore, name string, read func(io.Reader) (int64, error)) error {
	start := time.Now()
	pages, err := m.loadBlob(ctx, store, name, read)
	m.metrics.RecordRestore(pages, time.Since(start), err)
	m.logger.LogLoad(ctx, name, pages, err)
	return err
}

func (m *Manager) loadBlob(ctx context.Context, store blobstore.BlobStore, name string, read func(io.Reader) (int64, error)) (int64, error) {
	b, err := store.Open(ctx, name)
	if err != nil {
		return 0, err
	}
	defer func() { _ = b.Close() }()

	rc, err := blobstore.NewReader(ctx, b)
	if err != nil {
		return 0, err
	}
	defer func() { _ = rc.Close() }()

	return read(bufio.NewReaderSize(rc, 1<<20))
}
