package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/largearray"
	"github.com/hupe1980/largearray/blobstore"
	"github.com/hupe1980/largearray/pixel"
)

func TestCommands(t *testing.T) {
	g := &Globals{
		Backend:     "local",
		Root:        t.TempDir(),
		TempDir:     t.TempDir(),
		MaxResident: 2,
		LogLevel:    "error",
	}

	create := &CreateCmd{
		DimsFlags:   DimsFlags{X: 40, Y: 30, Z: 1, T: 1, Bands: 1},
		Name:        "a.lgar",
		Type:        "int",
		Fill:        -7,
		UnitBytes:   256,
		Compression: "lz4",
	}
	require.NoError(t, create.Run(g))
	require.NoError(t, (&InfoCmd{Name: "a.lgar"}).Run(g))
	require.NoError(t, (&VerifyCmd{Name: "a.lgar"}).Run(g))
	require.NoError(t, (&ConvertCmd{Src: "a.lgar", Dst: "b.lgar", Type: "byte", Compression: "xz"}).Run(g))

	ctx := context.Background()
	m, err := largearray.NewManager(largearray.WithTempDir(t.TempDir()))
	require.NoError(t, err)
	defer m.Close()

	img, err := largearray.LoadImage(ctx, m, blobstore.NewLocalStore(g.Root), "b.lgar")
	require.NoError(t, err)
	defer img.Close()
	assert.Equal(t, pixel.Byte, img.Type())
	empty, err := img.IsEmpty()
	require.NoError(t, err)
	assert.True(t, empty)

	assert.Error(t, (&VerifyCmd{Name: "missing.lgar"}).Run(g))
	assert.Error(t, (&ConvertCmd{Src: "a.lgar", Dst: "c.lgar", Compression: "brotli"}).Run(g))
}

func TestGlobals_StoreRequiresBucket(t *testing.T) {
	_, err := (&Globals{Backend: "s3"}).store(context.Background())
	assert.Error(t, err)
	_, err = (&Globals{Backend: "minio", Bucket: "b"}).store(context.Background())
	assert.Error(t, err)
}
