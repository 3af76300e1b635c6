//go:build linux

package backing

import (
	"os"

	"golang.org/x/sys/unix"
)

// preallocate reserves size zeroed bytes. Filesystems without fallocate
// support fall back to a sparse truncate.
func preallocate(f *os.File, size int64) error {
	if size == 0 {
		return nil
	}
	if err := unix.Fallocate(int(f.Fd()), 0, 0, size); err == nil {
		return nil
	}
	return f.Truncate(size)
}
