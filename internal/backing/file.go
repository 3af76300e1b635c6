package backing

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"github.com/google/uuid"

	"github.com/hupe1980/largearray/internal/resource"
)

// FilePrefix starts the name of every backing file.
const FilePrefix = "largearray-"

// ErrClosed is returned by operations on a closed File.
var ErrClosed = errors.New("backing: file closed")

// IOError describes a failed backing-file operation.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("backing: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// Config describes the file of one array.
type Config struct {
	// Dir is the directory the file is created in. Empty means os.TempDir().
	Dir string
	// Ext is the type-specific file extension, e.g. ".largebyte".
	Ext string
	// UnitBytes is the encoded size of one page.
	UnitBytes int64
	// UnitDim is the number of pages.
	UnitDim int64
	// FillPage is the encoding of a page holding only the fill value.
	FillPage []byte
	// Budget throttles file IO. May be nil.
	Budget *resource.Budget
	// Context bounds throttling waits. Defaults to context.Background().
	Context context.Context
}

// File is the backing file of one array. It is not safe for concurrent use;
// the pager serializes access.
type File struct {
	cfg     Config
	path    string
	f       *os.File
	written *roaring64.Bitmap
	zero    bool
	closed  bool
}

// New returns a File that has not been created on disk yet.
func New(cfg Config) *File {
	if cfg.Dir == "" {
		cfg.Dir = os.TempDir()
	}
	if cfg.Context == nil {
		cfg.Context = context.Background()
	}
	fl := &File{
		cfg:     cfg,
		written: roaring64.New(),
	}
	fl.setFillPage(cfg.FillPage)
	return fl
}

func (fl *File) setFillPage(page []byte) {
	fl.cfg.FillPage = page
	fl.zero = len(page) == 0 || bytes.Count(page, []byte{0}) == len(page)
}

// Path returns the file path, or "" before Create.
func (fl *File) Path() string { return fl.path }

// Exists reports whether the file has been created and not removed.
func (fl *File) Exists() bool { return fl.f != nil }

// Written returns the number of pages persisted since the file was created.
func (fl *File) Written() uint64 { return fl.written.GetCardinality() }

// Size returns the on-disk size of a filled file.
func (fl *File) Size() int64 { return fl.cfg.UnitBytes * fl.cfg.UnitDim }

// Create creates the file under a fresh unique name. It fails if the file
// already exists.
func (fl *File) Create() error {
	if fl.closed {
		return ErrClosed
	}
	if fl.f != nil {
		return &IOError{Op: "create", Path: fl.path, Err: os.ErrExist}
	}
	path := filepath.Join(fl.cfg.Dir, FilePrefix+uuid.NewString()+fl.cfg.Ext)
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return &IOError{Op: "create", Path: path, Err: err}
	}
	fl.f = f
	fl.path = path
	fl.written.Clear()
	return nil
}

// Fill initialises the file with UnitDim fill pages. All-zero pages are
// preallocated rather than written.
func (fl *File) Fill() error {
	if fl.f == nil {
		return &IOError{Op: "fill", Path: fl.path, Err: os.ErrNotExist}
	}
	size := fl.Size()
	if fl.zero {
		if err := preallocate(fl.f, size); err != nil {
			return &IOError{Op: "fill", Path: fl.path, Err: err}
		}
		return nil
	}
	if _, err := fl.f.Seek(0, io.SeekStart); err != nil {
		return &IOError{Op: "fill", Path: fl.path, Err: err}
	}
	w := bufio.NewWriterSize(fl.f, 1<<20)
	for range fl.cfg.UnitDim {
		if err := fl.cfg.Budget.Throttle(fl.cfg.Context, len(fl.cfg.FillPage)); err != nil {
			return err
		}
		if _, err := w.Write(fl.cfg.FillPage); err != nil {
			return &IOError{Op: "fill", Path: fl.path, Err: err}
		}
	}
	if err := w.Flush(); err != nil {
		return &IOError{Op: "fill", Path: fl.path, Err: err}
	}
	return nil
}

// ReadUnit reads page id into dst. It returns false without touching dst
// when the page was never written, in which case it holds the fill value.
func (fl *File) ReadUnit(id int64, dst []byte) (bool, error) {
	if fl.closed {
		return false, ErrClosed
	}
	if fl.f == nil || !fl.written.Contains(uint64(id)) {
		return false, nil
	}
	if err := fl.checkPage(id, dst); err != nil {
		return false, err
	}
	if err := fl.cfg.Budget.Throttle(fl.cfg.Context, len(dst)); err != nil {
		return false, err
	}
	if _, err := fl.f.ReadAt(dst, id*fl.cfg.UnitBytes); err != nil {
		return false, &IOError{Op: "read", Path: fl.path, Err: err}
	}
	return true, nil
}

// WriteUnit persists page id, creating and filling the file first if needed.
func (fl *File) WriteUnit(id int64, src []byte) error {
	if fl.closed {
		return ErrClosed
	}
	if err := fl.checkPage(id, src); err != nil {
		return err
	}
	if fl.f == nil {
		if err := fl.Create(); err != nil {
			return err
		}
		if err := fl.Fill(); err != nil {
			return err
		}
	}
	if err := fl.cfg.Budget.Throttle(fl.cfg.Context, len(src)); err != nil {
		return err
	}
	if _, err := fl.f.WriteAt(src, id*fl.cfg.UnitBytes); err != nil {
		return &IOError{Op: "write", Path: fl.path, Err: err}
	}
	fl.written.Add(uint64(id))
	return nil
}

// Reset drops all persisted pages and makes fillPage the content of every
// page. The file is recreated on the next write.
func (fl *File) Reset(fillPage []byte) error {
	if fl.closed {
		return ErrClosed
	}
	err := fl.remove()
	fl.setFillPage(fillPage)
	return err
}

// Close removes the file. It is safe to call more than once.
func (fl *File) Close() error {
	if fl.closed {
		return nil
	}
	fl.closed = true
	return fl.remove()
}

func (fl *File) remove() error {
	fl.written.Clear()
	if fl.f == nil {
		return nil
	}
	path := fl.path
	cerr := fl.f.Close()
	fl.f = nil
	fl.path = ""
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return &IOError{Op: "remove", Path: path, Err: err}
	}
	if cerr != nil {
		return &IOError{Op: "close", Path: path, Err: cerr}
	}
	return nil
}

func (fl *File) checkPage(id int64, b []byte) error {
	if id < 0 || id >= fl.cfg.UnitDim {
		return fmt.Errorf("backing: page %d not in [0,%d)", id, fl.cfg.UnitDim)
	}
	if int64(len(b)) != fl.cfg.UnitBytes {
		return fmt.Errorf("backing: page buffer is %d bytes, want %d", len(b), fl.cfg.UnitBytes)
	}
	return nil
}
