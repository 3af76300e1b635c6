package codec

import (
	"bytes"
	"crypto/rand"
	"encoding/binary"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByName(t *testing.T) {
	for _, c := range []Compression{None, LZ4, Zstd, XZ} {
		got, ok := ByName(c.String())
		require.True(t, ok)
		assert.Equal(t, c, got)
		assert.True(t, c.Valid())
	}
	_, ok := ByName("brotli")
	assert.False(t, ok)
	assert.False(t, Compression(7).Valid())
}

func TestFrame_RoundTrip(t *testing.T) {
	compressible := bytes.Repeat([]byte{0, 0, 0, 1}, 4096)
	random := make([]byte, 4096)
	_, _ = rand.Read(random)

	for _, c := range []Compression{None, LZ4, Zstd, XZ} {
		t.Run(c.String(), func(t *testing.T) {
			for _, raw := range [][]byte{compressible, random, {}} {
				frame, err := AppendFrame(nil, raw, c)
				require.NoError(t, err)

				got, err := ReadFrame(bytes.NewReader(frame), c, len(raw))
				require.NoError(t, err)
				assert.Equal(t, len(raw), len(got))
				assert.True(t, bytes.Equal(raw, got))
			}
		})
	}
}

func TestFrame_CompressesRepetitivePages(t *testing.T) {
	raw := make([]byte, 1<<16)
	frame, err := AppendFrame(nil, raw, Zstd)
	require.NoError(t, err)
	assert.Less(t, len(frame), len(raw)/10)

	plain, err := AppendFrame(nil, raw, None)
	require.NoError(t, err)
	assert.Len(t, plain, FrameHeaderSize+len(raw))
}

func TestFrame_Corrupt(t *testing.T) {
	raw := bytes.Repeat([]byte{7}, 1024)
	frame, err := AppendFrame(nil, raw, Zstd)
	require.NoError(t, err)

	_, err = ReadFrame(bytes.NewReader(frame), Zstd, 512)
	assert.ErrorIs(t, err, ErrCorruptFrame)

	mangled := append([]byte(nil), frame...)
	for i := FrameHeaderSize; i < len(mangled); i++ {
		mangled[i] ^= 0xff
	}
	_, err = ReadFrame(bytes.NewReader(mangled), Zstd, len(raw))
	assert.Error(t, err)

	_, err = ReadFrame(bytes.NewReader(frame[:4]), Zstd, len(raw))
	assert.Error(t, err)
}

func TestFrame_ZstdOutputIsBounded(t *testing.T) {
	const pageBytes = 1024
	frame, err := AppendFrame(nil, make([]byte, 1<<20), Zstd)
	require.NoError(t, err)
	require.Less(t, len(frame)-FrameHeaderSize, pageBytes)

	// Claim a page-sized payload for a frame that inflates to 1 MiB.
	binary.LittleEndian.PutUint32(frame[0:], pageBytes)
	_, err = ReadFrame(bytes.NewReader(frame), Zstd, pageBytes)
	assert.ErrorIs(t, err, ErrCorruptFrame)
	assert.ErrorIs(t, err, zstd.ErrDecoderSizeExceeded)

	page := bytes.Repeat([]byte{3}, pageBytes)
	frame, err = AppendFrame(nil, page, Zstd)
	require.NoError(t, err)
	got, err := ReadFrame(bytes.NewReader(frame), Zstd, pageBytes)
	require.NoError(t, err)
	assert.Equal(t, page, got)
}
