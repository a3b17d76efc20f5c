// Package linetable implements the growable, contiguous array of
// lineview.LineViews that every stage of the pipeline fills, sorts, and
// drains: the divide phase's in-memory chunk, the bucketed sort's
// per-bucket scratch tables, and a run's merge-time read batch.
package linetable

import (
	"fmt"
	"io"

	"github.com/csvquery/xsort/internal/lineview"
)

// GrowthMode selects how Table grows its backing array when full.
type GrowthMode int

const (
	// Geometric grows capacity by capacity + capacity/2, with a minimum
	// first capacity of 10 — used where the eventual size isn't known
	// exactly in advance (the divide-phase chunk, a run's merge batch).
	Geometric GrowthMode = iota
	// Exact grows capacity by exactly one entry at a time — used for the
	// bucketed sort's per-bucket tables, which are pre-sized to their
	// final count and should never need to reallocate.
	Exact
)

const minGeometricCapacity = 10

// Table is an ordered, growable sequence of LineViews.
type Table struct {
	lines []lineview.LineView
	mode  GrowthMode
}

// New creates an empty Table in the given growth mode, pre-allocating
// capacity if capacity > 0.
func New(mode GrowthMode, capacity int) *Table {
	if capacity < 0 {
		capacity = 0
	}
	return &Table{
		lines: make([]lineview.LineView, 0, capacity),
		mode:  mode,
	}
}

// Len returns the current number of entries.
func (t *Table) Len() int { return len(t.lines) }

// Cap returns the current backing capacity.
func (t *Table) Cap() int { return cap(t.lines) }

// Lines returns the backing slice of entries, in insertion order. The
// slice aliases Table's storage; callers must not retain it across a
// subsequent Add or Clear.
func (t *Table) Lines() []lineview.LineView { return t.lines }

// Add appends a LineView, growing the backing array per the Table's
// growth mode if it's at capacity.
func (t *Table) Add(line lineview.LineView) {
	if len(t.lines) == cap(t.lines) {
		t.grow()
	}
	t.lines = append(t.lines, line)
}

func (t *Table) grow() {
	oldCap := cap(t.lines)
	var newCap int
	switch t.mode {
	case Exact:
		newCap = oldCap + 1
	default:
		newCap = oldCap + oldCap/2
		if newCap < minGeometricCapacity {
			newCap = minGeometricCapacity
		}
	}

	grown := make([]lineview.LineView, len(t.lines), newCap)
	copy(grown, t.lines)
	t.lines = grown
}

// Clear drops all entries and releases the backing capacity.
func (t *Table) Clear() {
	t.lines = nil
}

// Write writes every line's Value bytes to w, in order, exactly once.
// A short write on any line is a fatal error for the caller.
func (t *Table) Write(w io.Writer) error {
	for i, line := range t.lines {
		n, err := w.Write(line.Value)
		if err != nil {
			return fmt.Errorf("write line %d: %w", i, err)
		}
		if n != len(line.Value) {
			return fmt.Errorf("write line %d: short write (%d of %d bytes)", i, n, len(line.Value))
		}
	}
	return nil
}
