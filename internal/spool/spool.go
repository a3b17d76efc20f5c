// Package spool creates the anonymous temp files spec.md §6 calls for: a
// run's spill file that is never exposed at a stable path and needs no
// cleanup on crash, because nothing ever names it in the directory.
//
// On Linux, Create opens a true anonymous inode via O_TMPFILE
// (golang.org/x/sys/unix), the same dependency the teacher gates CPU
// features with. Elsewhere it falls back to os.CreateTemp followed by an
// immediate os.Remove — the open descriptor keeps the unlinked inode
// alive on any POSIX filesystem, so the effective lifetime is the same;
// only the visible name briefly differs.
package spool

import "os"

// Create returns a temp file in dir (os.TempDir() if dir is empty) that
// is never visible under any path once Create returns.
func Create(dir string) (*os.File, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	return create(dir)
}

func createFallback(dir string) (*os.File, error) {
	f, err := os.CreateTemp(dir, "xsort-run-*.tmp")
	if err != nil {
		return nil, err
	}
	if err := os.Remove(f.Name()); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}
