//go:build !linux

package main

import "errors"

// enforceMemoryLimit is a no-op outside Linux; --enforce-rlimit is
// accepted everywhere but only has teeth where RLIMIT_AS exists.
func enforceMemoryLimit(bytes int64) error {
	return errors.New("RLIMIT_AS is not supported on this platform")
}
