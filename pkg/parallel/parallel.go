// Package parallel splits index ranges across CPU cores. Dataset conversion
// and denormalization loop over independent samples, so chunking the sample
// axis is enough to keep all cores busy without any locking.
package parallel

import (
	"runtime"
	"sync"
)

// Run divides [0, items) into per-core chunks and executes fn(start, end) on
// each chunk concurrently, returning when all chunks are done. fn must not
// touch state outside its range.
func Run(items int, fn func(start, end int)) {
	if items == 0 {
		return
	}

	workers := runtime.NumCPU()
	if workers > items {
		workers = items
	}
	chunk := (items + workers - 1) / workers

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := start + chunk
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

// RunThreshold runs fn sequentially when items is at or below threshold,
// where goroutine overhead outweighs the win, and in parallel otherwise.
func RunThreshold(items, threshold int, fn func(start, end int)) {
	if items <= threshold {
		fn(0, items)
		return
	}
	Run(items, fn)
}
