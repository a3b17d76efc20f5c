// Package bucketsort implements the in-memory sort of a Run's line table:
// a first-byte radix partition into 256 buckets followed by a
// worker-pool comparison sort of each bucket, run to completion before
// the table is ever exposed again.
//
// Workers share only a mutex-protected bucket cursor; once a worker
// claims a bucket, no other worker touches it, so the recursive
// quicksort inside a bucket needs no synchronization of its own.
package bucketsort

import (
	"sync"

	"github.com/csvquery/xsort/internal/lineview"
	"github.com/csvquery/xsort/internal/linetable"
)

const numBuckets = 256

// Sort sorts table in place using up to threads worker goroutines.
// threads is coerced to at least 1. The resulting order is ascending by
// key (lineview.Compare); ties among equal keys are unstable.
func Sort(table *linetable.Table, threads int) {
	if threads < 1 {
		threads = 1
	}

	lines := table.Lines()
	if len(lines) < 2 {
		return
	}

	// Step 1: first-byte histogram.
	var counts [numBuckets]int
	for _, l := range lines {
		counts[lineview.FirstKeyByte(l)]++
	}

	// Step 2: bucket allocation, exact growth mode.
	buckets := make([]*linetable.Table, numBuckets)
	for b := 0; b < numBuckets; b++ {
		if counts[b] > 0 {
			buckets[b] = linetable.New(linetable.Exact, counts[b])
		}
	}

	// Step 3: scatter.
	for _, l := range lines {
		buckets[lineview.FirstKeyByte(l)].Add(l)
	}

	// Step 4: parallel quicksort of buckets, shared cursor protocol.
	var mu sync.Mutex
	next := 0
	nextBucket := func() *linetable.Table {
		mu.Lock()
		defer mu.Unlock()
		for next < numBuckets && buckets[next] == nil {
			next++
		}
		if next >= numBuckets {
			return nil
		}
		b := buckets[next]
		next++
		return b
	}

	var wg sync.WaitGroup
	for w := 0; w < threads; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				bucket := nextBucket()
				if bucket == nil {
					return
				}
				quicksort(bucket.Lines())
			}
		}()
	}
	wg.Wait()

	// Step 5: gather, ascending byte order.
	k := 0
	for b := 0; b < numBuckets; b++ {
		if buckets[b] == nil {
			continue
		}
		for _, l := range buckets[b].Lines() {
			lines[k] = l
			k++
		}
	}
	// Step 6: buckets fall out of scope here for GC; no explicit release
	// is needed in Go.
}

// quicksort sorts lines in place: recursive, pivot = middle element,
// Hoare-style partition (advance i while lines[i] < pivot, advance j
// while lines[j] > pivot, swap on crossing, recurse on both halves).
func quicksort(lines []lineview.LineView) {
	if len(lines) < 2 {
		return
	}

	pivot := lines[len(lines)/2]
	i, j := 0, len(lines)-1

	for {
		for lineview.Less(lines[i], pivot) {
			i++
		}
		for lineview.Less(pivot, lines[j]) {
			j--
		}
		if i >= j {
			break
		}
		lines[i], lines[j] = lines[j], lines[i]
		i++
		j--
	}

	quicksort(lines[:i])
	quicksort(lines[i:])
}
