package codec

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"
)

var (
	zstdEncoderPool sync.Pool
	// zstdDecoderPools holds one *sync.Pool per decode limit.
	zstdDecoderPools sync.Map
)

func getZstdEncoder() (*zstd.Encoder, error) {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder), nil
	}
	return zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
}

// getZstdDecoder returns a decoder that refuses to produce more than limit
// bytes, and the pool to return it to.
func getZstdDecoder(limit int) (*zstd.Decoder, *sync.Pool, error) {
	v, _ := zstdDecoderPools.LoadOrStore(limit, &sync.Pool{})
	pool := v.(*sync.Pool)
	if d := pool.Get(); d != nil {
		return d.(*zstd.Decoder), pool, nil
	}
	dec, err := zstd.NewReader(nil,
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderMaxMemory(uint64(max(limit, 1))))
	return dec, pool, err
}

// compress returns nil when the page should be stored raw.
func compress(raw []byte, c Compression) ([]byte, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	switch c {
	case None:
		return nil, nil
	case LZ4:
		out := make([]byte, lz4.CompressBlockBound(len(raw)))
		n, err := lz4.CompressBlock(raw, out, nil)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, nil // incompressible
		}
		return out[:n], nil
	case Zstd:
		enc, err := getZstdEncoder()
		if err != nil {
			return nil, err
		}
		defer zstdEncoderPool.Put(enc)
		return enc.EncodeAll(raw, nil), nil
	case XZ:
		var buf bytes.Buffer
		w, err := xz.NewWriter(&buf)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(raw); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("codec: unknown compression %d", uint8(c))
	}
}

// decompress decodes a frame of rawLen bytes. Decoders never produce more
// than maxRaw bytes, whatever the frame claims.
func decompress(stored []byte, rawLen, maxRaw int, c Compression) ([]byte, error) {
	switch c {
	case LZ4:
		raw := make([]byte, rawLen)
		n, err := lz4.UncompressBlock(stored, raw)
		if err != nil {
			return nil, err
		}
		return raw[:n], nil
	case Zstd:
		dec, pool, err := getZstdDecoder(maxRaw)
		if err != nil {
			return nil, err
		}
		defer pool.Put(dec)
		return dec.DecodeAll(stored, make([]byte, 0, rawLen))
	case XZ:
		r, err := xz.NewReader(bytes.NewReader(stored))
		if err != nil {
			return nil, err
		}
		raw := make([]byte, rawLen)
		if _, err := io.ReadFull(r, raw); err != nil {
			return nil, err
		}
		return raw, nil
	default:
		return nil, fmt.Errorf("codec: compressed frame under compression %s", c)
	}
}
