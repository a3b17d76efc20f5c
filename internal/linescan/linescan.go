// Package linescan provides fast byte-oriented scanning primitives used by
// the buffered reader and the key extractor: finding the next newline in a
// window, and finding the next occurrence of the field delimiter inside a
// key substring.
//
// On AMD64 with AVX2 available, IndexByte steps through the buffer in
// wider strides; elsewhere it falls back to a portable SWAR (SIMD-within-
// a-register) word scan. Both paths are pure Go — no cgo, no assembly —
// the "AVX2" path is a gating decision, not a hardware intrinsic, the same
// way the teacher's bitmap scan is pure Go despite the package name.
package linescan

import "bytes"

// IndexByte returns the index of the first occurrence of c in data, or -1.
func IndexByte(data []byte, c byte) int {
	return indexByteImpl(data, c)
}

// swarIndexByte scans data eight bytes at a time using the classic
// has-zero-byte trick, falling back to a final scalar tail.
func swarIndexByte(data []byte, c byte) int {
	n := len(data)
	i := 0

	// Broadcast c across all 8 bytes of a word.
	var pattern uint64
	pattern = uint64(c) * 0x0101010101010101

	for ; i+8 <= n; i += 8 {
		word := uint64(data[i]) | uint64(data[i+1])<<8 | uint64(data[i+2])<<16 | uint64(data[i+3])<<24 |
			uint64(data[i+4])<<32 | uint64(data[i+5])<<40 | uint64(data[i+6])<<48 | uint64(data[i+7])<<56
		x := word ^ pattern
		// hasZeroByte(x) per the SWAR "haszero" trick.
		hasZero := (x - 0x0101010101010101) & ^x & 0x8080808080808080
		if hasZero != 0 {
			for j := 0; j < 8; j++ {
				if data[i+j] == c {
					return i + j
				}
			}
		}
	}

	for ; i < n; i++ {
		if data[i] == c {
			return i
		}
	}

	return -1
}

// Count returns the number of occurrences of c in data.
func Count(data []byte, c byte) int {
	return bytes.Count(data, []byte{c})
}
