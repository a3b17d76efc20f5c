// Package lineview implements the zero-copy record view at the bottom of
// the external sort: a reference into a host byte buffer plus a
// precomputed key sub-range, and the comparison used to order two of
// them.
//
// A LineView never owns the bytes it points at — its Value and Key slices
// alias the caller's buffer (a reader's window, which is also where a
// run's merge-time current line points).
// Callers are responsible for the buffer outliving every view that
// references it; see internal/reader and internal/run for the two places
// that matters.
package lineview

import "github.com/csvquery/xsort/internal/linescan"

// LineView is a non-owning reference to one newline-terminated record and
// its key substring.
type LineView struct {
	Value []byte // full record, including the trailing newline if present
	Key   []byte // key sub-range within Value; empty if the field is absent
}

// Extract builds a LineView over value, locating the keyField-th
// delim-separated field (0-based) as the key.
//
// Scans past keyField occurrences of delim; the key starts right after
// the keyField-th delimiter (or at the start of value when keyField==0)
// and ends at the next delimiter or at the end of value. If value has
// fewer than keyField delimiters, the key is empty.
func Extract(value []byte, delim byte, keyField int) LineView {
	key := value
	for ; keyField > 0; keyField-- {
		idx := linescan.IndexByte(key, delim)
		if idx < 0 {
			// Fewer than keyField delimiters: no key field.
			return LineView{Value: value, Key: value[len(value):]}
		}
		key = key[idx+1:]
	}

	if end := linescan.IndexByte(key, delim); end >= 0 {
		key = key[:end]
	}

	return LineView{Value: value, Key: key}
}

// Compare orders two LineViews by their Key, unsigned-byte lexicographic,
// shorter key wins ties on the shared prefix. It never inspects Value.
func Compare(a, b LineView) int {
	n := len(a.Key)
	if len(b.Key) < n {
		n = len(b.Key)
	}

	for i := 0; i < n; i++ {
		if a.Key[i] != b.Key[i] {
			if a.Key[i] < b.Key[i] {
				return -1
			}
			return 1
		}
	}

	switch {
	case len(a.Key) < len(b.Key):
		return -1
	case len(a.Key) > len(b.Key):
		return 1
	default:
		return 0
	}
}

// Less reports whether a sorts strictly before b.
func Less(a, b LineView) bool {
	return Compare(a, b) < 0
}

// FirstKeyByte returns the first byte of the key, or 0 for an empty key —
// the bucket index used by internal/bucketsort's first-byte partition.
func FirstKeyByte(l LineView) byte {
	if len(l.Key) == 0 {
		return 0
	}
	return l.Key[0]
}
