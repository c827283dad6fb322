package host

import (
	"fmt"

	"golang.org/x/sync/errgroup"

	"OSR/internal/compute"
)

// span is a half-open range of rows (or of indices for 1D launches).
type span struct{ start, end int }

// workerSpans groups contiguous spans per worker goroutine.
type workerSpans struct {
	spans []span
}

// splitSpans cuts [0, n) into chunks of rowsPer and deals them out to the
// workers round robin, so uneven tails do not all land on one worker.
func splitSpans(n, workerCount, rowsPer int) []workerSpans {
	if workerCount < 1 {
		workerCount = 1
	}
	if rowsPer < 1 {
		rowsPer = 1
	}
	workers := make([]workerSpans, workerCount)
	idx := 0
	for start := 0; start < n; start += rowsPer {
		end := min(start+rowsPer, n)
		workers[idx%workerCount].spans = append(workers[idx%workerCount].spans, span{start: start, end: end})
		idx++
	}
	return workers
}

// dispatch runs item over the global range. 2D launches split rows, 1D
// launches split the index range.
func dispatch(name string, global []int, workerCount int, item func(x, y int)) error {
	width, height := global[0], 1
	if len(global) == 2 {
		height = global[1]
	}
	n := height
	if height == 1 {
		n = width
	}
	rowsPer := (n + 4*workerCount - 1) / (4 * workerCount)
	var g errgroup.Group
	for _, w := range splitSpans(n, workerCount, rowsPer) {
		if len(w.spans) == 0 {
			continue
		}
		w := w
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = &compute.DeviceError{Op: "execute " + name, Code: -5, Err: fmt.Errorf("work item panic: %v", r)}
				}
			}()
			for _, sp := range w.spans {
				if height == 1 {
					for x := sp.start; x < sp.end; x++ {
						item(x, 0)
					}
					continue
				}
				for y := sp.start; y < sp.end; y++ {
					for x := 0; x < width; x++ {
						item(x, y)
					}
				}
			}
			return nil
		})
	}
	return g.Wait()
}
