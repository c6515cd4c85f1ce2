// Package planner implements the caller-side policy around executor selection:
// which executor a graph node should run with, when a previously selected
// executor may be reused across shape changes, and running selection for many
// nodes concurrently.
//
// The selection core itself (package executors) is shape-oblivious per call;
// the descriptor's ShapeAgnostic flag is the sole signal driving the reuse
// policy implemented here.
package planner

import (
	"sync"

	"k8s.io/klog/v2"

	"github.com/kestrel-ml/kestrel/executors"
)

// Node is one operation instance of a compute graph, as far as selection is
// concerned: a stable name, the operation kind, and the selection inputs.
type Node struct {
	Name    string
	Op      executors.OperationType
	Attrs   executors.Attributes
	PostOps executors.PostOps
	Memory  executors.MemoryArgs
}

// Planner binds a registry and a shared executor context to a selection cache.
// It is safe for concurrent use.
type Planner struct {
	registry *executors.Registry
	ctx      *executors.Context
	cache    *Cache
	pool     *pool
}

// NewPlanner returns a Planner selecting from registry with the shared context.
// The concurrent planning parallelism follows ctx.MaxParallelism.
func NewPlanner(registry *executors.Registry, ctx *executors.Context) *Planner {
	return &Planner{
		registry: registry,
		ctx:      ctx,
		cache:    NewCache(),
		pool:     newPool(ctx.MaxParallelism()),
	}
}

// ExecutorFor returns the executor to run node with: the cached one when the
// reuse policy allows, otherwise a fresh selection, which is then cached.
func (p *Planner) ExecutorFor(node *Node) (*executors.Selection, error) {
	if selection, hit := p.cache.Lookup(node.Name, node.Memory); hit {
		klog.V(1).Infof("planner: node %q reuses executor %q", node.Name, selection.Executor.Name())
		return selection, nil
	}
	config := executors.MakeConfig(node.Attrs, node.Memory)
	selection, err := executors.Select(p.registry, node.Op, config, node.PostOps, node.Memory, p.ctx)
	if err != nil {
		return nil, err
	}
	p.cache.Store(node.Name, node.Memory, selection)
	return selection, nil
}

// PlanAll selects executors for all nodes concurrently. Per-node failures are
// collected in the returned error map and do not abort the siblings; the
// selections map holds every node that succeeded.
func (p *Planner) PlanAll(nodes []*Node) (map[string]*executors.Selection, map[string]error) {
	var mu sync.Mutex
	var wg sync.WaitGroup
	selections := make(map[string]*executors.Selection, len(nodes))
	failures := make(map[string]error)
	for _, node := range nodes {
		wg.Add(1)
		p.pool.waitToStart(func() {
			defer wg.Done()
			selection, err := p.ExecutorFor(node)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures[node.Name] = err
				return
			}
			selections[node.Name] = selection
		})
	}
	wg.Wait()
	return selections, failures
}

// CacheLen reports how many nodes currently hold a cached executor.
func (p *Planner) CacheLen() int { return p.cache.Len() }

// Reset drops and finalizes all cached executors.
func (p *Planner) Reset() { p.cache.Reset() }
