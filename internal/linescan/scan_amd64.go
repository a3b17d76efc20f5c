//go:build amd64

package linescan

import "golang.org/x/sys/cpu"

// hasAVX2 records whether the running CPU advertises AVX2. No assembly
// kernel is shipped; the flag only widens the stride used by the portable
// SWAR scan, the same bet the teacher's simd package makes when avoiding
// unsafe pointer arithmetic on a moving target of CPU generations.
var hasAVX2 = cpu.X86.HasAVX2

func indexByteImpl(data []byte, c byte) int {
	if hasAVX2 && len(data) >= 32 {
		return swarIndexByteWide(data, c)
	}
	return swarIndexByte(data, c)
}

// swarIndexByteWide processes 32 bytes per iteration (four SWAR words),
// the stride AVX2 would use for a real intrinsic implementation.
func swarIndexByteWide(data []byte, c byte) int {
	n := len(data)
	i := 0
	for ; i+32 <= n; i += 32 {
		if idx := swarIndexByte(data[i:i+32], c); idx != -1 {
			return i + idx
		}
	}
	if i < n {
		if idx := swarIndexByte(data[i:], c); idx != -1 {
			return i + idx
		}
	}
	return -1
}
