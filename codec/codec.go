// Package codec frames and compresses the pages of a serialized array.
//
// Every page is written as
//
//	[rawLen uint32][storedLen uint32][payload]
//
// where storedLen == 0 means the payload is the raw page. Pages that do not
// shrink below 90% of their size are stored raw whatever the compression.
//
// The compression is part of the stream header, so changing the default never
// breaks old streams; adding a Compression value is a format change.
package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Compression selects the page compression of a serialized array.
type Compression uint8

const (
	// None stores pages raw.
	None Compression = 0
	// LZ4 favours speed.
	LZ4 Compression = 1
	// Zstd balances ratio and speed.
	Zstd Compression = 2
	// XZ favours ratio.
	XZ Compression = 3
)

// Default is the compression used when none is requested.
const Default = Zstd

// FrameHeaderSize is the size of a page frame header.
const FrameHeaderSize = 8

// ErrCorruptFrame is returned for frames that cannot be decoded.
var ErrCorruptFrame = errors.New("codec: corrupt frame")

func (c Compression) String() string {
	switch c {
	case None:
		return "none"
	case LZ4:
		return "lz4"
	case Zstd:
		return "zstd"
	case XZ:
		return "xz"
	default:
		return fmt.Sprintf("codec.Compression(%d)", uint8(c))
	}
}

// ByName returns a compression by its stable name.
func ByName(name string) (Compression, bool) {
	switch strings.ToLower(name) {
	case "none", "":
		return None, true
	case "lz4":
		return LZ4, true
	case "zstd":
		return Zstd, true
	case "xz":
		return XZ, true
	default:
		return None, false
	}
}

// Valid reports whether c is a known compression.
func (c Compression) Valid() bool {
	return c <= XZ
}

// AppendFrame appends the frame of raw to dst.
func AppendFrame(dst, raw []byte, c Compression) ([]byte, error) {
	var hdr [FrameHeaderSize]byte
	binary.LittleEndian.PutUint32(hdr[0:], uint32(len(raw)))

	stored, err := compress(raw, c)
	if err != nil {
		return nil, err
	}
	if stored == nil || float64(len(stored)) > float64(len(raw))*0.9 {
		dst = append(dst, hdr[:]...)
		return append(dst, raw...), nil
	}
	binary.LittleEndian.PutUint32(hdr[4:], uint32(len(stored)))
	dst = append(dst, hdr[:]...)
	return append(dst, stored...), nil
}

// ReadFrame reads one frame from r and returns the raw page. maxRaw bounds
// the accepted raw length.
func ReadFrame(r io.Reader, c Compression, maxRaw int) ([]byte, error) {
	var hdr [FrameHeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}
	rawLen := int(binary.LittleEndian.Uint32(hdr[0:]))
	storedLen := int(binary.LittleEndian.Uint32(hdr[4:]))
	if rawLen > maxRaw {
		return nil, fmt.Errorf("%w: page of %d bytes exceeds %d", ErrCorruptFrame, rawLen, maxRaw)
	}

	if storedLen == 0 {
		raw := make([]byte, rawLen)
		if _, err := io.ReadFull(r, raw); err != nil {
			return nil, err
		}
		return raw, nil
	}
	if storedLen > maxRaw {
		return nil, fmt.Errorf("%w: stored length %d exceeds %d", ErrCorruptFrame, storedLen, maxRaw)
	}
	stored := make([]byte, storedLen)
	if _, err := io.ReadFull(r, stored); err != nil {
		return nil, err
	}
	raw, err := decompress(stored, rawLen, maxRaw, c)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptFrame, err)
	}
	if len(raw) != rawLen {
		return nil, fmt.Errorf("%w: decoded %d bytes, want %d", ErrCorruptFrame, len(raw), rawLen)
	}
	return raw, nil
}
