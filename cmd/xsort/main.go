// Command xsort sorts a large delimited text file by a configurable key
// field, externally if it doesn't fit in the configured memory budget.
//
// Argument parsing, default-configuration literals, and the process
// exit code mapping live here, outside the core (spec.md §1's explicit
// Non-goal for the core itself).
package main

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/pflag"

	"github.com/csvquery/xsort/internal/extsort"
	"github.com/csvquery/xsort/internal/progress"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := pflag.NewFlagSet("xsort", pflag.ContinueOnError)

	input := fs.String("input", "", "path to the file to sort (required)")
	output := fs.String("output", "", "path to write the sorted result (required)")
	delim := fs.String("delim", ",", "single-byte field delimiter")
	keyField := fs.Int("key-field", 0, "zero-based field index to sort on")
	header := fs.Int("header", 0, "number of header lines to pass through verbatim")
	memory := fs.Int64("memory", 256<<20, "total byte budget (0 uses the input file size)")
	threads := fs.Int("threads", runtime.NumCPU(), "worker count for the parallel sort")
	verbose := fs.Bool("verbose", false, "print progress to stderr")
	enforceRLimit := fs.Bool("enforce-rlimit", false, "set RLIMIT_AS to --memory as a hard backstop (Linux only)")

	if err := fs.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return 0
		}
		fmt.Fprintln(os.Stderr, "xsort:", err)
		return 1
	}

	if *input == "" || *output == "" {
		fmt.Fprintln(os.Stderr, "xsort: --input and --output are required")
		return 1
	}
	if len(*delim) != 1 {
		fmt.Fprintln(os.Stderr, "xsort: --delim must be exactly one byte")
		return 1
	}

	if *enforceRLimit {
		if err := enforceMemoryLimit(*memory); err != nil {
			fmt.Fprintf(os.Stderr, "xsort: --enforce-rlimit: %v (continuing without it)\n", err)
		}
	}

	// spec.md §7: "a partial output file is acceptable on failure since
	// the driver removes the output path at the start of each sort."
	if err := os.Remove(*output); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "xsort: removing existing output: %v\n", err)
		return 1
	}

	reporter := progress.New(os.Stderr, *verbose)

	cfg := extsort.Config{
		InputPath:    *input,
		OutputPath:   *output,
		Delim:        (*delim)[0],
		KeyField:     *keyField,
		Header:       *header,
		MemoryBudget: *memory,
		Threads:      *threads,
		Reporter:     reporter,
		Stderr:       os.Stderr,
	}

	if err := extsort.Sort(context.Background(), cfg); err != nil {
		fmt.Fprintln(os.Stderr, "xsort:", err)
		return 1
	}
	return 0
}
