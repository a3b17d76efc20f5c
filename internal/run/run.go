// Package run implements a sorted, spilled line table (spec.md C5): a
// Run is filled in memory during the divide phase, sorted and spilled to
// an anonymous temp file, then during the merge phase re-read through
// its own Buffered Reader and drained one line at a time.
//
// Runs chain into a singly-linked list via Next, the structure spec.md
// §9 calls out as simplifying LIFO accumulation without requiring
// pointer stability between phases.
package run

import (
	"fmt"
	"io"
	"os"

	"github.com/pierrec/lz4/v4"

	"github.com/csvquery/xsort/internal/bucketsort"
	"github.com/csvquery/xsort/internal/lineview"
	"github.com/csvquery/xsort/internal/linetable"
	"github.com/csvquery/xsort/internal/reader"
	"github.com/csvquery/xsort/internal/spool"
)

// Run is a Line Table plus the temp file backing its sorted bytes, plus
// (during merge) a read-side Buffered Reader and a "current line"
// cursor. Next chains Runs into the driver's run list.
type Run struct {
	table *linetable.Table
	file  *os.File // set at SortWrite time

	rd      *reader.Reader
	cursor  int
	current lineview.LineView
	hasCur  bool

	Next *Run
}

// New creates an empty Run with the given initial table capacity,
// growing geometrically as lines are added (the exact final count isn't
// known until the window fills).
func New(capacity int) *Run {
	return &Run{table: linetable.New(linetable.Geometric, capacity)}
}

// Table exposes the Run's Line Table so a Buffered Reader can fill it
// directly via ReadLines during the divide phase.
func (r *Run) Table() *linetable.Table { return r.table }

// SortWrite sorts the Run's table in place (internal/bucketsort) and
// spills it, lz4-compressed, to a fresh anonymous temp file (
// internal/spool), keeping the file handle open for merge-time read-back.
// The table's entries are dropped afterward — their bytes live only in
// the temp file and the (now stale) divide-phase window buffer.
func (r *Run) SortWrite(threads int, tempDir string) error {
	bucketsort.Sort(r.table, threads)

	f, err := spool.Create(tempDir)
	if err != nil {
		return fmt.Errorf("run: create spill file: %w", err)
	}

	lzw := lz4.NewWriter(f)
	if err := r.table.Write(lzw); err != nil {
		f.Close()
		return fmt.Errorf("run: spill write: %w", err)
	}
	if err := lzw.Close(); err != nil {
		f.Close()
		return fmt.Errorf("run: spill flush: %w", err)
	}

	r.file = f
	r.table.Clear()
	return nil
}

// Len returns the number of lines currently resident in the Run's table
// (meaningful during the divide phase, before SortWrite clears it).
func (r *Run) Len() int { return r.table.Len() }

// PrepareRead rewinds the Run's temp file, wraps it in a fresh lz4
// reader and Buffered Reader under memShare bytes, and peeks the first
// line. Per spec.md §4.5, the spill stream carries no header lines of
// its own.
func (r *Run) PrepareRead(delim byte, keyField int, memShare int64) error {
	if _, err := r.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("run: rewind spill file: %w", err)
	}

	lzr := lz4.NewReader(r.file)
	rd, err := reader.New(lzr, delim, keyField, 0, memShare, 0)
	if err != nil {
		return fmt.Errorf("run: prepare read: %w", err)
	}
	r.rd = rd
	r.cursor = 0
	r.hasCur = false

	batch := linetable.New(linetable.Geometric, 0)
	if err := rd.ReadLines(batch); err != nil {
		return fmt.Errorf("run: prepare read: %w", err)
	}
	r.table = batch

	r.advance()
	return nil
}

// advance pulls the next line into r.current, refilling the batch from
// the underlying reader when the cursor has exhausted it. It leaves
// hasCur false when the run is fully drained.
func (r *Run) advance() {
	if r.cursor >= r.table.Len() {
		r.table.Clear()
		r.cursor = 0
		if err := r.rd.ReadLines(r.table); err != nil {
			r.hasCur = false
			return
		}
	}
	if r.cursor >= r.table.Len() {
		r.hasCur = false
		return
	}
	r.current = r.table.Lines()[r.cursor]
	r.cursor++
	r.hasCur = true
}

// PeekLine returns the Run's current line and whether one exists. It
// does not advance the cursor — call Advance after consuming the line.
func (r *Run) PeekLine() (lineview.LineView, bool) {
	return r.current, r.hasCur
}

// Advance moves the cursor past the current line, refilling the window
// from the underlying reader if needed, per spec.md §4.5 peek_line.
func (r *Run) Advance() {
	r.advance()
}

// Close releases the Run's temp file handle.
func (r *Run) Close() error {
	if r.file == nil {
		return nil
	}
	return r.file.Close()
}

// SpillReader returns a fresh reader positioned at the start of the
// Run's spill file, decompressing it, for the single-run fast path
// (spec.md §4.6.3: copy the sole run's bytes straight to the output).
func (r *Run) SpillReader() (io.Reader, error) {
	if _, err := r.file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("run: rewind spill file: %w", err)
	}
	return lz4.NewReader(r.file), nil
}

// MinLine scans the run list, returning the run whose current line
// compares minimum among all runs with a current line, per spec.md §4.5
// min_line. Ties are broken by list order (first encountered wins,
// matching the sort's documented lack of stability).
func MinLine(head *Run) *Run {
	var best *Run
	for r := head; r != nil; r = r.Next {
		line, ok := r.PeekLine()
		if !ok {
			continue
		}
		if best == nil {
			best = r
			continue
		}
		bestLine, _ := best.PeekLine()
		if lineview.Less(line, bestLine) {
			best = r
		}
	}
	return best
}
