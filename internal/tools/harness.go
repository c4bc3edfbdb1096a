package tools

import (
	"context"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/pitabwire/util"
)

// Harness owns the full set of configured ToolRunners and fans out one
// invocation per runner concurrently, bounding concurrency with a worker
// pool rather than an unbounded goroutine-per-tool burst.
type Harness struct {
	runners []ToolRunner
	pool    *ants.Pool
}

// NewHarness builds a harness over the given runners. poolSize bounds how
// many tool invocations run at once; 0 falls back to len(runners).
func NewHarness(runners []ToolRunner, poolSize int) (*Harness, error) {
	if poolSize <= 0 {
		poolSize = len(runners)
	}
	if poolSize <= 0 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize, ants.WithNonblocking(false))
	if err != nil {
		return nil, err
	}
	return &Harness{runners: runners, pool: pool}, nil
}

// Release frees the worker pool. Call once the harness is no longer
// needed (typically at worker process shutdown, not per-job).
func (h *Harness) Release() {
	h.pool.Release()
}

// RunAll invokes every runner against files/workdir in parallel, awaiting
// all of them. Any runner whose IsAvailable returns false is skipped
// entirely rather than attempted and failed — partial-failure across the
// rest is expected and never aborts the batch.
func (h *Harness) RunAll(ctx context.Context, files []string, workdir string, cfg RunConfig) []ToolResult {
	log := util.Log(ctx)
	results := make([]ToolResult, len(h.runners))

	var wg sync.WaitGroup
	for i, r := range h.runners {
		i, r := i, r
		wg.Add(1)
		err := h.pool.Submit(func() {
			defer wg.Done()
			results[i] = h.runOne(ctx, r, files, workdir, cfg)
		})
		if err != nil {
			wg.Done()
			log.WithError(err).Warn("tool submission rejected", "tool", r.Name())
			results[i] = failed(r.Name(), err, 0)
		}
	}
	wg.Wait()

	return results
}

func (h *Harness) runOne(ctx context.Context, r ToolRunner, files []string, workdir string, cfg RunConfig) ToolResult {
	if !r.IsAvailable(ctx) {
		return notInstalled(r.Name())
	}
	start := time.Now()
	result := r.Run(ctx, files, workdir, cfg)
	if result.Duration == 0 {
		result.Duration = time.Since(start)
	}
	return result
}
