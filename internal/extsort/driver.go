// Package extsort implements the External Sort Driver (spec.md C6) and
// the Memory Budgeter (C7, in budget.go): it orchestrates the divide &
// sort phase and the k-way merge phase over internal/run, internal/
// reader and internal/bucketsort under a single memory budget.
package extsort

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/csvquery/xsort/internal/progress"
	"github.com/csvquery/xsort/internal/reader"
	"github.com/csvquery/xsort/internal/run"
)

// ErrLineTooLong is returned when a single input line exceeds the
// window buffer capacity computed from the memory budget (spec.md §7).
// It is the same sentinel internal/reader detects it with, re-exported
// here because callers of this package shouldn't need to import reader
// just to compare errors.
var ErrLineTooLong = reader.ErrLineTooLong

// Config is the configuration surface handed in by the external
// collaborator described in spec.md §6; cmd/xsort builds one from CLI
// flags.
type Config struct {
	InputPath  string
	OutputPath string
	Delim      byte
	KeyField   int
	Header     int

	// MemoryBudget is the total byte budget; <= 0 means "use the input
	// file size" (spec.md §6 memory_size).
	MemoryBudget int64

	// Threads is the worker count for the bucketed sort; coerced to >= 1
	// (spec.md §6 nr_threads).
	Threads int

	// TempDir selects where run spill files are created; empty uses
	// os.TempDir via internal/spool.
	TempDir string

	// Reporter receives phase/progress updates; nil disables reporting.
	Reporter *progress.Reporter

	// Stderr receives the single diagnostic line for a mid-stream read
	// failure (spec.md §7); nil defaults to os.Stderr.
	Stderr io.Writer
}

// Sort runs the full divide-and-merge pipeline described by cfg.
func Sort(ctx context.Context, cfg Config) error {
	threads := cfg.Threads
	if threads < 1 {
		threads = 1
	}
	stderr := cfg.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	reporter := cfg.Reporter
	if reporter == nil {
		reporter = progress.New(io.Discard, false)
	}

	in, err := os.Open(cfg.InputPath)
	if err != nil {
		return fmt.Errorf("extsort: open input: %w", err)
	}
	defer in.Close()

	stat, err := in.Stat()
	if err != nil {
		return fmt.Errorf("extsort: stat input: %w", err)
	}

	out, err := os.Create(cfg.OutputPath)
	if err != nil {
		return fmt.Errorf("extsort: open output: %w", err)
	}
	defer out.Close()
	bw := bufio.NewWriterSize(out, 1<<20)

	budget := NewBudget(cfg.MemoryBudget)

	reporter.SetPhase(progress.PhaseDivide)
	reporter.Start()
	defer reporter.Stop()

	rd, err := reader.New(in, cfg.Delim, cfg.KeyField, cfg.Header, budget.In, stat.Size())
	if err == reader.ErrEmptyBody {
		// spec.md §8 S6: header-only or truly empty input. No body line
		// to estimate a line length from, so no Buffered Reader, no
		// runs — just the captured header, verbatim.
		if err := writeHeader(bw, rd.HeaderLines()); err != nil {
			return err
		}
		return bw.Flush()
	}
	if err != nil {
		return fmt.Errorf("extsort: construct input reader: %w", err)
	}

	if err := writeHeader(bw, rd.HeaderLines()); err != nil {
		return err
	}

	var runsHead *run.Run
	nRuns := 0
	approxCap := 0
	if rd.LineLen() > 0 && budget.In > 0 {
		approxCap = int(budget.In) / rd.LineLen()
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		r := run.New(approxCap)
		if err := rd.ReadLines(r.Table()); err == reader.ErrLineTooLong {
			return fmt.Errorf("extsort: %w", ErrLineTooLong)
		}
		if lastErr := rd.LastReadErr(); lastErr != nil {
			progress.LogReadError(stderr, lastErr)
		}
		if r.Table().Len() == 0 {
			break
		}

		r.Next = runsHead
		runsHead = r
		nRuns++

		if err := r.SortWrite(threads, cfg.TempDir); err != nil {
			return fmt.Errorf("extsort: %w", err)
		}
		reporter.AddRun()
	}

	defer func() {
		for r := runsHead; r != nil; r = r.Next {
			r.Close()
		}
	}()

	switch nRuns {
	case 0:
		// Already wrote the header; nothing else to do.
	case 1:
		// Single-run fast path (spec.md §4.6.3): the sole spill file's
		// bytes already constitute the sorted body.
		src, err := runsHead.SpillReader()
		if err != nil {
			return fmt.Errorf("extsort: %w", err)
		}
		if _, err := io.Copy(bw, src); err != nil {
			return fmt.Errorf("extsort: copy single run to output: %w", err)
		}
	default:
		reporter.SetPhase(progress.PhaseMerge)
		share := budget.PerRunShare(nRuns)
		for r := runsHead; r != nil; r = r.Next {
			if err := r.PrepareRead(cfg.Delim, cfg.KeyField, share); err != nil {
				return fmt.Errorf("extsort: %w", err)
			}
		}

		for {
			best := run.MinLine(runsHead)
			if best == nil {
				break
			}
			line, _ := best.PeekLine()
			n, err := bw.Write(line.Value)
			if err != nil {
				return fmt.Errorf("extsort: write merged line: %w", err)
			}
			if n != len(line.Value) {
				return fmt.Errorf("extsort: write merged line: short write (%d of %d bytes)", n, len(line.Value))
			}
			reporter.AddLines(1)
			best.Advance()
		}
	}

	return bw.Flush()
}

func writeHeader(w io.Writer, lines [][]byte) error {
	for i, line := range lines {
		n, err := w.Write(line)
		if err != nil {
			return fmt.Errorf("extsort: write header line %d: %w", i, err)
		}
		if n != len(line) {
			return fmt.Errorf("extsort: write header line %d: short write (%d of %d bytes)", i, n, len(line))
		}
	}
	return nil
}
