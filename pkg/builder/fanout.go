package builder

import (
	"context"
	"sync"

	"github.com/imagectl/imagectl/pkg/matrix"

	"github.com/google/uuid"
)

// defaultConcurrency bounds the fan-out when no explicit limit is given.
const defaultConcurrency = 4

// RunMatrix builds every matrix entry with a bounded worker pool. Each entry
// is independent: a failure is recorded in its result but never cancels the
// other entries. Results come back in matrix order.
func (b *Builder) RunMatrix(ctx context.Context, m *matrix.Matrix, spec BuildSpec, concurrency int) []BuildResult {
	entries := m.Include
	if len(entries) == 0 {
		return nil
	}

	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	if concurrency > len(entries) {
		concurrency = len(entries)
	}

	runID := uuid.New().String()
	logger := b.logger.With("run_id", runID)
	logger.Info("starting build run", "entries", len(entries), "concurrency", concurrency)

	results := make([]BuildResult, len(entries))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = *b.Build(ctx, entries[i], spec)
				if results[i].Err != nil {
					logger.Error("build failed", "unit", entries[i].Basename, "error", results[i].Err)
				}
			}
		}()
	}

	for i := range entries {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	failed := 0
	for i := range results {
		if results[i].Failed() {
			failed++
		}
	}
	logger.Info("build run complete", "entries", len(entries), "failed", failed)

	return results
}

// Failed counts the failed results in a build run.
func Failed(results []BuildResult) int {
	n := 0
	for i := range results {
		if results[i].Failed() {
			n++
		}
	}
	return n
}
