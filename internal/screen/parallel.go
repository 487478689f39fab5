package screen

import (
	"context"
	"runtime"
	"sync"
)

// WorkItem is a sample file waiting to be screened.
type WorkItem struct {
	Seq  int
	Path string
}

// ParallelScreen screens work items using a pool of workers.
// Results are sent to the returned channel in arrival order (not sequence order).
// Use OrderedCollect to consume results in sequence-number order.
// If workers is 0, runtime.NumCPU() is used.
func (s *Screener) ParallelScreen(ctx context.Context, items <-chan WorkItem, workers int) <-chan FileResult {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make(chan FileResult, 2*workers)

	var wg sync.WaitGroup
	wg.Add(workers)

	for range workers {
		go func() {
			defer wg.Done()
			for item := range items {
				r := s.ScreenFile(ctx, item.Path)
				r.Seq = item.Seq
				results <- r
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

// OrderedCollect calls fn for each result in sequence-number order.
// It buffers out-of-order results in a pending map and emits them
// as soon as the next expected sequence number is available.
// Blocks until the results channel is closed.
func OrderedCollect(results <-chan FileResult, fn func(FileResult) error) error {
	pending := make(map[int]FileResult)
	nextSeq := 0

	for r := range results {
		pending[r.Seq] = r

		for {
			rr, ok := pending[nextSeq]
			if !ok {
				break
			}
			delete(pending, nextSeq)
			nextSeq++
			if err := fn(rr); err != nil {
				// Drain remaining results to unblock workers.
				for range results {
				}
				return err
			}
		}
	}

	return nil
}
