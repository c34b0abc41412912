// Package parallel provides simple range-partitioned parallel execution
// helpers for CPU-bound loops over contiguous index ranges.
package parallel

import (
	"runtime"
	"sync"
)

// Parallelize splits [0, n) into one contiguous chunk per logical CPU and
// runs fn(start, end) on each chunk concurrently, blocking until all chunks
// complete. fn must be safe to run concurrently on disjoint ranges.
func Parallelize(n int, fn func(start, end int)) {
	workers := runtime.GOMAXPROCS(0)
	if workers > n {
		workers = n
	}
	if workers <= 1 {
		fn(0, n)
		return
	}

	chunk := (n + workers - 1) / workers
	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := start + chunk
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}

// ParallelizeWithThreshold runs fn sequentially when n is below threshold,
// where goroutine overhead would dominate, and in parallel otherwise.
func ParallelizeWithThreshold(n, threshold int, fn func(start, end int)) {
	if n < threshold {
		fn(0, n)
		return
	}
	Parallelize(n, fn)
}
