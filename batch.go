package renderpool

import (
	"context"
	"sync"
)

// DefaultBatchConcurrency bounds batch fan-out when no limit is configured.
const DefaultBatchConcurrency = 4

// BatchRenderer fans a list of render requests out across the pool with
// bounded concurrency. One item's failure is recorded in its slot and never
// aborts the remaining items.
type BatchRenderer struct {
	renderer    *Renderer
	concurrency int
}

// NewBatchRenderer wraps a Renderer with a concurrency ceiling.
func NewBatchRenderer(r *Renderer, concurrency int) *BatchRenderer {
	if concurrency < 1 {
		concurrency = DefaultBatchConcurrency
	}
	return &BatchRenderer{renderer: r, concurrency: concurrency}
}

// Concurrency returns the configured fan-out ceiling.
func (b *BatchRenderer) Concurrency() int { return b.concurrency }

// RenderBatch processes requests concurrently and returns results in
// submission order. The returned slice always has len(requests) entries.
func (b *BatchRenderer) RenderBatch(ctx context.Context, requests []RenderRequest) []*RenderResult {
	if len(requests) == 0 {
		return nil
	}

	concurrency := b.concurrency
	if concurrency > len(requests) {
		concurrency = len(requests)
	}

	results := make([]*RenderResult, len(requests))
	jobs := make(chan int, len(requests))

	var wg sync.WaitGroup
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				if err := ctx.Err(); err != nil {
					results[idx] = &RenderResult{
						ErrorKind: KindCanceled,
						Message:   err.Error(),
					}
					continue
				}
				results[idx] = b.renderer.Render(ctx, requests[idx])
			}
		}()
	}

	for i := range requests {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	return results
}
