//go:build linux

package spool

import (
	"os"

	"golang.org/x/sys/unix"
)

func create(dir string) (*os.File, error) {
	fd, err := unix.Open(dir, unix.O_TMPFILE|unix.O_RDWR, 0600)
	if err != nil {
		// Filesystem doesn't support O_TMPFILE (overlayfs on old kernels,
		// some network filesystems): fall back to unlink-after-create.
		return createFallback(dir)
	}
	return os.NewFile(uintptr(fd), dir+"/(anonymous-run-spill)"), nil
}
