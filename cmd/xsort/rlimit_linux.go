//go:build linux

package main

import "golang.org/x/sys/unix"

// enforceMemoryLimit sets RLIMIT_AS to bytes, mirroring the original
// eric29200/sort C implementation's main() backstop against the memory
// budget being exceeded (SPEC_FULL.md SUPPLEMENTED FEATURES). Unlike the
// budget itself, this is a hard kernel-enforced ceiling on the whole
// process's address space, not just the core's own allocations.
func enforceMemoryLimit(bytes int64) error {
	if bytes <= 0 {
		return nil
	}
	limit := &unix.Rlimit{Cur: uint64(bytes), Max: uint64(bytes)}
	return unix.Setrlimit(unix.RLIMIT_AS, limit)
}
