// Package parallel provides the row-range fan-out used by the cpu backend
// to accumulate partial results over large batches.
package parallel

import (
	"runtime"
	"sync"
)

// Parallelize divides items into one contiguous range per CPU core and
// executes fn for each range (start, end) concurrently.
func Parallelize(items int, fn func(start, end int)) {
	if items <= 0 {
		return
	}

	numWorkers := runtime.NumCPU()
	if numWorkers > items {
		numWorkers = items
	}

	// ceiling division
	chunkSize := (items + numWorkers - 1) / numWorkers

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		start := i * chunkSize
		end := start + chunkSize
		if end > items {
			end = items
		}
		if start >= end {
			continue
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}

// ParallelizeWithThreshold runs fn sequentially over [0, items) when items
// does not exceed threshold, and falls back to Parallelize otherwise.
func ParallelizeWithThreshold(items int, threshold int, fn func(start, end int)) {
	if items <= threshold {
		fn(0, items)
		return
	}
	Parallelize(items, fn)
}

// NumBlocks returns the number of blocks of size blockSize needed to cover
// items. A non-positive blockSize yields a single block.
func NumBlocks(items, blockSize int) int {
	if items <= 0 {
		return 0
	}
	if blockSize <= 0 || blockSize >= items {
		return 1
	}
	return (items + blockSize - 1) / blockSize
}

// ForEachBlock splits [0, items) into fixed-size blocks and calls fn for
// every block with its index, running at most GOMAXPROCS blocks at a time.
// Block boundaries depend only on items and blockSize, so callers that
// combine per-block results by index get the same answer on every run.
func ForEachBlock(items, blockSize int, fn func(block, start, end int)) {
	n := NumBlocks(items, blockSize)
	if n == 0 {
		return
	}
	if n == 1 {
		fn(0, 0, items)
		return
	}

	workers := runtime.GOMAXPROCS(0)
	if workers > n {
		workers = n
	}

	blocks := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for b := range blocks {
				start := b * blockSize
				end := start + blockSize
				if end > items {
					end = items
				}
				fn(b, start, end)
			}
		}()
	}
	for b := 0; b < n; b++ {
		blocks <- b
	}
	close(blocks)
	wg.Wait()
}
