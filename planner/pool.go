package planner

import (
	"runtime"
	"sync"
)

// pool is a soft-bounded worker pool for running selections concurrently.
// The bound is a target, not a hard cap on goroutines.
type pool struct {
	maxParallelism int
	mu             sync.Mutex
	cond           sync.Cond // signaled whenever numRunning decreases
	numRunning     int
}

// newPool returns a pool with the given parallelism target; <= 0 means
// runtime.NumCPU().
func newPool(maxParallelism int) *pool {
	if maxParallelism <= 0 {
		maxParallelism = runtime.NumCPU()
	}
	p := &pool{maxParallelism: maxParallelism}
	p.cond = sync.Cond{L: &p.mu}
	return p
}

// waitToStart blocks until a worker is available, then runs task in its own
// goroutine. Completion tracking is up to the caller (e.g. a sync.WaitGroup
// inside the task closure).
func (p *pool) waitToStart(task func()) {
	p.mu.Lock()
	for p.numRunning >= p.maxParallelism {
		p.cond.Wait()
	}
	p.numRunning++
	p.mu.Unlock()
	go func() {
		task()
		p.mu.Lock()
		p.numRunning--
		p.cond.Signal()
		p.mu.Unlock()
	}()
}
