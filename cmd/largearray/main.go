// Command largearray creates, inspects, verifies and converts saved arrays
// in local, S3 or MinIO stores.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/alecthomas/kong"

	"github.com/hupe1980/largearray"
	"github.com/hupe1980/largearray/blobstore"
	"github.com/hupe1980/largearray/blobstore/minio"
	"github.com/hupe1980/largearray/blobstore/s3"
	"github.com/hupe1980/largearray/codec"
	"github.com/hupe1980/largearray/pixel"
)

const version = "0.1.0"

// Globals holds the flags shared by every command.
type Globals struct {
	Backend   string `name:"backend" enum:"local,s3,minio" default:"local" env:"LARGEARRAY_BACKEND" help:"Store backend (${enum})"`
	Root      string `name:"root" default:"." type:"path" env:"LARGEARRAY_ROOT" help:"Root directory of the local store"`
	Bucket    string `name:"bucket" env:"LARGEARRAY_BUCKET" help:"Bucket of the S3 or MinIO store"`
	Prefix    string `name:"prefix" env:"LARGEARRAY_PREFIX" help:"Key prefix inside the bucket"`
	Region    string `name:"region" env:"AWS_REGION" help:"Bucket region"`
	Endpoint  string `name:"endpoint" env:"LARGEARRAY_ENDPOINT" help:"S3-compatible endpoint (MinIO: host:port)"`
	AccessKey string `name:"access-key" env:"LARGEARRAY_ACCESS_KEY" help:"MinIO access key"`
	SecretKey string `name:"secret-key" env:"LARGEARRAY_SECRET_KEY" help:"MinIO secret key"`
	Secure    bool   `name:"secure" default:"true" negatable:"" help:"Use TLS for MinIO"`

	TempDir     string `name:"temp-dir" type:"path" env:"LARGEARRAY_TEMP_DIR" help:"Directory for backing files"`
	MaxResident int    `name:"max-resident" default:"1024" help:"Maximum number of resident pages"`
	MemoryLimit int64  `name:"memory-limit" help:"Maximum bytes of resident pages (0 = unlimited)"`
	LogLevel    string `name:"log-level" enum:"debug,info,warn,error" default:"warn" help:"Log level (${enum})"`
}

func (g *Globals) store(ctx context.Context) (blobstore.BlobStore, error) {
	switch g.Backend {
	case "s3":
		if g.Bucket == "" {
			return nil, errors.New("--bucket is required for s3")
		}
		opts := []s3.Option{s3.WithPrefix(g.Prefix)}
		if g.Region != "" {
			opts = append(opts, s3.WithRegion(g.Region))
		}
		if g.Endpoint != "" {
			opts = append(opts, s3.WithEndpoint(g.Endpoint))
		}
		return s3.New(ctx, g.Bucket, opts...)
	case "minio":
		if g.Bucket == "" || g.Endpoint == "" {
			return nil, errors.New("--bucket and --endpoint are required for minio")
		}
		opts := []minio.Option{
			minio.WithPrefix(g.Prefix),
			minio.WithSecure(g.Secure),
			minio.WithCredentials(g.AccessKey, g.SecretKey),
		}
		if g.Region != "" {
			opts = append(opts, minio.WithRegion(g.Region))
		}
		return minio.New(g.Endpoint, g.Bucket, opts...)
	default:
		return blobstore.NewLocalStore(g.Root), nil
	}
}

func (g *Globals) manager() (*largearray.Manager, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(g.LogLevel)); err != nil {
		return nil, err
	}
	return largearray.NewManager(
		largearray.WithTempDir(g.TempDir),
		largearray.WithMaxResidentUnits(g.MaxResident),
		largearray.WithMemoryLimit(g.MemoryLimit),
		largearray.WithLogLevel(level),
	)
}

// CLI defines the command-line interface.
var CLI struct {
	Globals `embed:""`

	Create  CreateCmd  `cmd:"" help:"Create a filled array and save it"`
	Info    InfoCmd    `cmd:"" help:"Print the header of a saved array"`
	Verify  VerifyCmd  `cmd:"" help:"Check the digest and statistics of a saved array"`
	Convert ConvertCmd `cmd:"" help:"Re-save an array with another pixel type or compression"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// DimsFlags are the extents of a new array.
type DimsFlags struct {
	X     int `name:"x" default:"1" help:"Extent along x"`
	Y     int `name:"y" default:"1" help:"Extent along y"`
	Z     int `name:"z" default:"1" help:"Extent along z"`
	T     int `name:"t" default:"1" help:"Extent along t"`
	Bands int `name:"bands" default:"1" help:"Number of bands"`
}

func (d DimsFlags) dims() largearray.Dims {
	return largearray.Dims{X: d.X, Y: d.Y, Z: d.Z, T: d.T, Bands: d.Bands}
}

// CreateCmd creates a filled array and saves it.
type CreateCmd struct {
	DimsFlags `embed:""`

	Name        string  `arg:"" help:"Name of the saved array"`
	Type        string  `name:"type" enum:"bool,byte,int,double" default:"byte" help:"Pixel type (${enum})"`
	Fill        float64 `name:"fill" help:"Value of every pixel"`
	UnitBytes   int64   `name:"unit-bytes" default:"${unit_bytes}" help:"Page size hint in bytes"`
	Compression string  `name:"compression" enum:"none,lz4,zstd,xz" default:"zstd" help:"Page compression (${enum})"`
}

func (c *CreateCmd) Run(g *Globals) error {
	ctx := context.Background()
	typ, err := pixel.ParseType(c.Type)
	if err != nil {
		return err
	}
	comp, _ := codec.ByName(c.Compression)

	store, err := g.store(ctx)
	if err != nil {
		return err
	}
	m, err := g.manager()
	if err != nil {
		return err
	}
	defer m.Close()

	img, err := largearray.NewImage(m, typ, c.dims(),
		largearray.WithUnitBytes(c.UnitBytes),
		largearray.WithCompression(comp))
	if err != nil {
		return err
	}
	defer img.Close()

	if err := img.FillDouble(c.Fill); err != nil {
		return err
	}
	if err := img.Save(ctx, store, c.Name); err != nil {
		return fmt.Errorf("save %s: %w", c.Name, err)
	}
	fmt.Printf("created %s: %s %s, %d pages\n", c.Name, typ, img.Dims(), img.UnitDim())
	return nil
}

// InfoCmd prints the header of a saved array.
type InfoCmd struct {
	Name string `arg:"" help:"Name of the saved array"`
}

func (c *InfoCmd) Run(g *Globals) error {
	ctx := context.Background()
	store, err := g.store(ctx)
	if err != nil {
		return err
	}
	b, err := store.Open(ctx, c.Name)
	if err != nil {
		return err
	}
	defer b.Close()

	r, err := blobstore.NewReader(ctx, b)
	if err != nil {
		return err
	}
	defer r.Close()

	hdr, err := largearray.ReadHeader(r)
	if err != nil {
		return err
	}
	fmt.Printf("Array: %s\n", c.Name)
	fmt.Printf("  Type:        %s\n", hdr.Type)
	fmt.Printf("  Dims:        %s (%d pixels)\n", hdr.Dims, hdr.Dims.Total())
	fmt.Printf("  Compression: %s\n", hdr.Compression)
	fmt.Printf("  Unit power:  %d (%d pixels per page)\n", hdr.UnitPower, int64(1)<<hdr.UnitPower)
	fmt.Printf("  Pages:       %d\n", hdr.UnitDim)
	fmt.Printf("  Size:        %d bytes\n", b.Size())
	return nil
}

// VerifyCmd loads a saved array through a bounded manager and prints its
// statistics. Loading checks the digest.
type VerifyCmd struct {
	Name string `arg:"" help:"Name of the saved array"`
}

func (c *VerifyCmd) Run(g *Globals) error {
	ctx := context.Background()
	store, err := g.store(ctx)
	if err != nil {
		return err
	}
	m, err := g.manager()
	if err != nil {
		return err
	}
	defer m.Close()

	img, err := largearray.LoadImage(ctx, m, store, c.Name)
	if err != nil {
		fmt.Printf("  [FAIL] %s: %v\n", c.Name, err)
		return err
	}
	defer img.Close()

	lo, err := img.MinDouble()
	if err != nil {
		return err
	}
	hi, err := img.MaxDouble()
	if err != nil {
		return err
	}
	sum, err := img.Sum()
	if err != nil {
		return err
	}
	stats := m.Stats()
	fmt.Printf("  [OK] %s: %s %s\n", c.Name, img.Type(), img.Dims())
	fmt.Printf("    min=%g max=%g sum=%g\n", lo, hi, sum)
	fmt.Printf("    loads=%d evictions=%d resident=%d/%d\n",
		stats.Loads, stats.Evictions, stats.Resident, stats.MaxResident)
	return nil
}

// ConvertCmd re-saves a saved array under a new name.
type ConvertCmd struct {
	Src         string `arg:"" help:"Name of the source array"`
	Dst         string `arg:"" help:"Name of the converted array"`
	Type        string `name:"type" help:"Target pixel type: bool, byte, int or double (default: keep)"`
	Compression string `name:"compression" help:"Target compression: none, lz4, zstd or xz (default: keep)"`
	UnitBytes   int64  `name:"unit-bytes" help:"Page size hint in bytes (default: keep)"`
}

func (c *ConvertCmd) Run(g *Globals) error {
	ctx := context.Background()
	store, err := g.store(ctx)
	if err != nil {
		return err
	}
	m, err := g.manager()
	if err != nil {
		return err
	}
	defer m.Close()

	src, err := largearray.LoadImage(ctx, m, store, c.Src)
	if err != nil {
		return err
	}
	defer src.Close()

	typ := src.Type()
	if c.Type != "" {
		if typ, err = pixel.ParseType(c.Type); err != nil {
			return err
		}
	}
	var opts []largearray.Option
	if c.Compression != "" {
		comp, ok := codec.ByName(c.Compression)
		if !ok {
			return fmt.Errorf("unknown compression %q", c.Compression)
		}
		opts = append(opts, largearray.WithCompression(comp))
	}
	if c.UnitBytes > 0 {
		opts = append(opts, largearray.WithUnitBytes(c.UnitBytes))
	}

	dst, err := largearray.ConvertImage(src, typ, opts...)
	if err != nil {
		return err
	}
	defer dst.Close()

	if err := dst.Save(ctx, store, c.Dst); err != nil {
		return fmt.Errorf("save %s: %w", c.Dst, err)
	}
	fmt.Printf("converted %s (%s) -> %s (%s)\n", c.Src, src.Type(), c.Dst, dst.Type())
	return nil
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("largearray version %s\n", version)
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("largearray"),
		kong.Description("Disk-backed paged arrays"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{"unit_bytes": fmt.Sprint(largearray.DefaultUnitBytes)},
	)
	err := ctx.Run(&CLI.Globals)
	ctx.FatalIfErrorf(err)
}
