package executors

import (
	"iter"
	"slices"
	"sync"

	"k8s.io/klog/v2"
)

// Registry holds, per OperationType, the ordered sequence of candidate
// implementations. Order expresses priority: most preferred/most specialized
// first, generic reference implementations last. Priority is positional, never
// scored.
//
// A Registry is meant to be constructed once at process start, populated by all
// backend modules during initialization, and then treated as read-only: it is
// threaded through to every selection call site as a shared handle rather than
// living as hidden global state. Reads after the initialization phase are
// lock-free safe as long as no further Register calls happen, but Register is
// also guarded so that a misbehaving late registration corrupts nothing.
type Registry struct {
	mu    sync.RWMutex
	impls map[OperationType][]*Implementation
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{impls: make(map[OperationType][]*Implementation)}
}

// Register appends the implementation to the ordered sequence for op.
// Insertion order is preserved. Duplicate names are permitted, but logged as
// suspicious: two descriptors should not shadow each other silently.
func (r *Registry) Register(op OperationType, impl *Implementation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.impls[op] {
		if existing.Name() == impl.Name() {
			klog.Warningf("registry: duplicate executor name %q registered for %s; "+
				"the earlier registration keeps priority", impl.Name(), op)
		}
	}
	r.impls[op] = append(r.impls[op], impl)
}

// CandidatesFor returns a lazy, restartable view of the candidates for op, in
// priority order. The view is a snapshot determined at query time: later
// registrations do not leak into an already obtained view.
func (r *Registry) CandidatesFor(op OperationType) iter.Seq[*Implementation] {
	r.mu.RLock()
	candidates := r.impls[op]
	r.mu.RUnlock()
	return func(yield func(*Implementation) bool) {
		for _, impl := range candidates {
			if !yield(impl) {
				return
			}
		}
	}
}

// NumCandidates returns how many implementations are registered for op.
func (r *Registry) NumCandidates(op OperationType) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.impls[op])
}

// Operations returns the operation kinds with at least one registered
// implementation, in enum order.
func (r *Registry) Operations() []OperationType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ops := make([]OperationType, 0, len(r.impls))
	for op, impls := range r.impls {
		if len(impls) > 0 {
			ops = append(ops, op)
		}
	}
	slices.Sort(ops)
	return ops
}
