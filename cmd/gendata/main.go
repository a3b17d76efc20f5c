// Command gendata writes a synthetic delimited text file sized for
// exercising xsort's external-spill path, the way cmd/benchmark in the
// reference indexer generated CSV load for its own pipeline.
package main

import (
	"bufio"
	"fmt"
	"math/rand"
	"os"

	"github.com/spf13/pflag"
)

func main() {
	output := pflag.String("output", "", "path to write the generated file (required)")
	sizeMB := pflag.Int("size-mb", 64, "approximate output size in megabytes")
	delim := pflag.String("delim", ",", "single-byte field delimiter")
	header := pflag.Bool("header", true, "write a header line")
	seed := pflag.Int64("seed", 123, "math/rand seed, for reproducible files")
	emptyKeyFrac := pflag.Float64("empty-key-frac", 0.0, "fraction of rows with a missing key field")
	pflag.Parse()

	if *output == "" {
		fmt.Fprintln(os.Stderr, "gendata: --output is required")
		os.Exit(1)
	}
	if len(*delim) != 1 {
		fmt.Fprintln(os.Stderr, "gendata: --delim must be exactly one byte")
		os.Exit(1)
	}
	d := (*delim)[0]

	f, err := os.Create(*output)
	if err != nil {
		fmt.Fprintln(os.Stderr, "gendata:", err)
		os.Exit(1)
	}
	defer f.Close()

	w := bufio.NewWriterSize(f, 64*1024)
	if *header {
		fmt.Fprintf(w, "id%ckey%cvalue\n", d, d)
	}

	rng := rand.New(rand.NewSource(*seed))
	limit := int64(*sizeMB) * 1024 * 1024
	var written int64
	buf := make([]byte, 0, 128)
	rows := 0

	for written < limit {
		rows++
		buf = buf[:0]
		if *emptyKeyFrac > 0 && rng.Float64() < *emptyKeyFrac {
			buf = fmt.Appendf(buf, "%d\n", rows)
		} else {
			buf = fmt.Appendf(buf, "%d%c%08x%c padding payload for row %d\n",
				rows, d, rng.Uint32(), d, rows)
		}
		n, err := w.Write(buf)
		if err != nil {
			fmt.Fprintln(os.Stderr, "gendata:", err)
			os.Exit(1)
		}
		written += int64(n)
	}

	if err := w.Flush(); err != nil {
		fmt.Fprintln(os.Stderr, "gendata:", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "gendata: wrote %d rows (%.2f MB) to %s\n", rows, float64(written)/1024/1024, *output)
}
