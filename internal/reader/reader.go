// Package reader implements the memory-aware buffered reader (spec.md
// C3): it loads a bounded byte window from a stream, carves it into
// complete newline-terminated lines with zero-copy key extraction
// (internal/lineview), and leaves any trailing partial line in place for
// the next window.
//
// A Reader is used twice in the pipeline, both grounded in the same
// type: once over the input file during the divide phase, and once per
// Run over that run's own (lz4-compressed) spill stream during the
// merge phase, each with its own memory share. Reader only needs
// io.Reader — it never seeks — so both uses share one implementation.
package reader

import (
	"errors"
	"fmt"
	"io"
	"unsafe"

	"github.com/csvquery/xsort/internal/linescan"
	"github.com/csvquery/xsort/internal/lineview"
	"github.com/csvquery/xsort/internal/linetable"
)

// ErrEmptyBody is returned by New when the input has no body line to
// estimate a line length from (header-only or truly empty input).
var ErrEmptyBody = errors.New("reader: can't estimate line length: no body line")

// ErrLineTooLong is returned by ReadLines when a single line exceeds the
// window buffer's capacity: no newline was found after filling the
// entire window. spec.md §7 requires this be a dedicated, detected
// failure rather than undefined behavior.
var ErrLineTooLong = errors.New("reader: line exceeds window buffer capacity")

// lineViewSize approximates a LineView's in-memory footprint (two byte
// slice headers), used to size the window buffer so a Reader's total
// footprint stays inside its memory budget. This is Sizeof, not a memory
// operation — no pointer arithmetic, no unsafe.Pointer conversions.
const lineViewSize = unsafe.Sizeof(lineview.LineView{})

// Reader reads a stream through a windowed byte buffer, producing
// complete lines into a caller-supplied linetable.Table.
type Reader struct {
	src      io.Reader
	delim    byte
	keyField int

	headerLines [][]byte
	lineLen     int

	buf      []byte
	capacity int
	bufLen   int
	off      int

	lastReadErr error
}

// New constructs a Reader over src.
//
// If header > 0, the first header physical lines are read and stored
// verbatim. The next line is used to estimate an average line length and
// is folded back into the first window (no seek is performed — src need
// not support one, which is what lets a Run's merge-time reader sit on
// top of an lz4.Reader). If memBudget <= 0, the window buffer is sized
// to fileSizeHint (the caller's already-known file size); otherwise the
// budget is split between an estimated number of LineView records and
// the byte window itself; when that split would leave the window shorter
// than the probe line, the whole budget goes to the window. The window is
// never shorter than the probe line.
func New(src io.Reader, delim byte, keyField int, header int, memBudget int64, fileSizeHint int64) (*Reader, error) {
	r := &Reader{src: src, delim: delim, keyField: keyField}

	for i := 0; i < header; i++ {
		line, err := readPhysicalLine(src)
		if len(line) == 0 {
			break
		}
		r.headerLines = append(r.headerLines, line)
		if err != nil {
			break
		}
	}

	probe, err := readPhysicalLine(src)
	if len(probe) == 0 {
		// r is still returned (not nil): it already carries any header
		// lines captured above, which the header-only / empty-body
		// scenario (spec.md §8 S6) still needs to pass through verbatim
		// even though no Buffered Reader is usable beyond this point.
		return r, ErrEmptyBody
	}
	if err != nil && err != io.EOF {
		return r, fmt.Errorf("reader: estimating line length: %w", err)
	}
	r.lineLen = len(probe)

	if memBudget <= 0 {
		r.capacity = int(fileSizeHint)
	} else {
		estRecords := int(memBudget) / r.lineLen
		r.capacity = int(memBudget) - estRecords*int(lineViewSize)
		if r.capacity < r.lineLen {
			// The records' share swallows the budget (short lines): give
			// the window the whole budget instead of shrinking it to one
			// probe line, which a later, longer line would overflow.
			r.capacity = int(memBudget)
		}
	}
	if r.capacity < len(probe) {
		r.capacity = len(probe)
	}

	r.buf = make([]byte, r.capacity)

	// Fold the probe line back into the window as its initial tail,
	// standing in for the "rewind" step of the original design without
	// requiring src to be seekable.
	copy(r.buf, probe)
	r.off = len(probe)
	r.bufLen = r.off

	return r, nil
}

// readPhysicalLine reads one newline-terminated line from r one byte at
// a time, with no internal read-ahead — so the only bytes ever consumed
// from r are the ones returned here, and no "rewind" is ever needed.
// Returns the line including its trailing newline, and io.EOF if the
// stream ended before a newline (line still returned if non-empty).
func readPhysicalLine(r io.Reader) ([]byte, error) {
	var line []byte
	var b [1]byte
	for {
		n, err := r.Read(b[:])
		if n > 0 {
			line = append(line, b[0])
			if b[0] == '\n' {
				return line, nil
			}
		}
		if err != nil {
			return line, err
		}
	}
}

// HeaderLines returns the captured header lines, verbatim including
// their trailing newline.
func (r *Reader) HeaderLines() [][]byte { return r.headerLines }

// LineLen returns the estimated average line length used to size this
// Reader's window and to pre-size callers' line tables.
func (r *Reader) LineLen() int { return r.lineLen }

// LastReadErr returns the most recent mid-stream I/O error observed by
// ReadLines, or nil. ReadLines itself never returns this error — per
// spec.md §7 it silently terminates the caller's divide loop by
// returning no new entries — but the driver layer polls this to emit
// the single diagnostic line §7 and SPEC_FULL's logging section call
// for, without the core package taking a logging dependency itself.
func (r *Reader) LastReadErr() error { return r.lastReadErr }

// ReadLines fills table with every complete line found in the next
// window. It appends to table — it never clears it. A read that
// produces no new bytes (EOF) leaves table unchanged and returns nil.
func (r *Reader) ReadLines(table *linetable.Table) error {
	// Preserve the previous window's trailing partial line at the front.
	copy(r.buf[0:r.off], r.buf[r.bufLen-r.off:r.bufLen])

	n, err := io.ReadFull(r.src, r.buf[r.off:r.capacity])
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		// Mid-stream read failure: terminate the divide loop with no new
		// entries, per spec.md §7 ("logged ... causes read_lines to
		// return with no new entries"). The error itself is stashed for
		// LastReadErr rather than logged here.
		r.lastReadErr = err
		return nil
	}

	r.bufLen = r.off + n
	if r.bufLen == 0 {
		return nil
	}
	window := r.buf[:r.bufLen]

	pos := 0
	for {
		idx := linescan.IndexByte(window[pos:], '\n')
		if idx < 0 {
			break
		}
		lineEnd := pos + idx + 1
		table.Add(lineview.Extract(window[pos:lineEnd], r.delim, r.keyField))
		pos = lineEnd
	}

	if pos == 0 && r.bufLen == r.capacity {
		return ErrLineTooLong
	}

	r.off = r.bufLen - pos
	return nil
}
