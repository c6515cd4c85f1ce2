package planner

import (
	"sync"

	"github.com/kestrel-ml/kestrel/executors"
)

// Cache keeps previously selected executors per graph node and decides, on the
// descriptor's ShapeTolerance signal alone, whether a cached instance may be
// reused for new memory shapes.
//
// Reuse policy: a cached selection is a hit iff
//
//   - its descriptor is shape-agnostic and the new memory still passes the
//     descriptor's AcceptsShapes predicate, or
//   - the shape class (canonical MemoryArgs key) is unchanged.
//
// Anything else is a miss: the cached executor is finalized and dropped, and
// the caller must re-run selection.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
}

type cacheEntry struct {
	selection *executors.Selection
	shapeKey  string
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]*cacheEntry)}
}

// Lookup returns the cached selection for node if the reuse policy allows it.
// On a shape-class miss the stale executor is finalized and evicted.
func (c *Cache) Lookup(node string, memory executors.MemoryArgs) (*executors.Selection, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, found := c.entries[node]
	if !found {
		return nil, false
	}
	impl := entry.selection.Implementation
	if impl.ShapeAgnostic() && impl.AcceptsShapes(memory) {
		return entry.selection, true
	}
	if entry.shapeKey == memory.Key() {
		return entry.selection, true
	}
	entry.selection.Executor.Finalize()
	delete(c.entries, node)
	return nil, false
}

// Store records the selection for node, keyed by the shape class it was
// selected for. A previous entry for the node is finalized and replaced.
func (c *Cache) Store(node string, memory executors.MemoryArgs, selection *executors.Selection) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if previous, found := c.entries[node]; found && previous.selection.Executor != selection.Executor {
		previous.selection.Executor.Finalize()
	}
	c.entries[node] = &cacheEntry{selection: selection, shapeKey: memory.Key()}
}

// Len returns the number of cached selections.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Reset finalizes and drops every cached executor.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for node, entry := range c.entries {
		entry.selection.Executor.Finalize()
		delete(c.entries, node)
	}
}
