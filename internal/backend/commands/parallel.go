package commands

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// parallelFor runs fn(y) for every row y in [0, n) on up to GOMAXPROCS workers.
// Rows are striped across workers so expensive regions spread evenly.
func parallelFor(n int, fn func(y int)) {
	if n <= 0 {
		return
	}
	workers := min(runtime.GOMAXPROCS(0), n)

	var group errgroup.Group
	for w := range workers {
		group.Go(func() error {
			for y := w; y < n; y += workers {
				fn(y)
			}
			return nil
		})
	}
	// Row workers always return nil; Wait only joins them.
	_ = group.Wait()
}
