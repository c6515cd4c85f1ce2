package executors

import (
	"fmt"

	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// maxFallbackSteps bounds the fallback renegotiation loop per candidate.
// Fallback is meant to apply at most once in practice; a chain that keeps
// rewriting past this bound indicates a misconfigured descriptor.
const maxFallbackSteps = 2

// SelectionReason classifies why a selection failed.
type SelectionReason int

const (
	// ReasonUnsupportedConfig: every candidate rejected the configuration at the
	// Supports/AcceptsShapes stage, or failed fallback stabilization.
	ReasonUnsupportedConfig SelectionReason = iota

	// ReasonConstructionFailed: at least one candidate's predicates accepted, but
	// every such candidate's factory returned nil.
	ReasonConstructionFailed
)

// String implements fmt.Stringer.
func (r SelectionReason) String() string {
	if r == ReasonConstructionFailed {
		return "ConstructionFailed"
	}
	return "UnsupportedConfig"
}

// SelectionError reports that no registered candidate could execute the
// requested operation with the given configuration and shapes. It carries the
// attempted configuration and operation kind for diagnostics.
type SelectionError struct {
	Op     OperationType
	Config Config
	Reason SelectionReason
}

// Error implements the error interface.
func (e *SelectionError) Error() string {
	return fmt.Sprintf("no executor for operation %s (%s): %s", e.Op, e.Reason, e.Config)
}

// Selection is the successful outcome of Select: the instantiated executor, the
// configuration that was actually used (possibly fallback-rewritten, so the
// caller can distinguish "ran as requested" from "ran after normalization") and
// the descriptor it came from, whose ShapeAgnostic flag drives the caller-side
// caching policy.
type Selection struct {
	Executor       Executor
	Config         Config
	Implementation *Implementation
}

// Select walks the registry's candidates for op in priority order and returns
// the first one that negotiates successfully and whose factory produces an
// executor. Per candidate, the negotiation is:
//
//  1. Bounded fallback renegotiation: while the candidate requests a
//     configuration adjustment that differs from the current configuration,
//     adopt it, up to maxFallbackSteps rewrites. A chain that does not
//     stabilize rejects the candidate (logged as a backend defect, non-fatal
//     to the overall walk).
//  2. Supports on the (possibly rewritten) configuration.
//  3. AcceptsShapes on the live memory descriptors.
//  4. Create; a nil executor rejects the candidate and the walk continues --
//     the designed escape hatch for conditions too fine-grained for a pure
//     predicate, such as resource-pool exhaustion found at construction.
//
// Rejections are recovered locally; only total exhaustion of the candidates
// surfaces as a *SelectionError. Selecting for an OperationType with no
// registered candidates at all is a setup defect in the embedding application
// and panics.
func Select(registry *Registry, op OperationType, config Config, postOps PostOps,
	memory MemoryArgs, ctx *Context) (*Selection, error) {
	if registry.NumCandidates(op) == 0 {
		exceptions.Panicf("executors.Select: no candidates registered for operation %s -- "+
			"did the backend initialization run?", op)
	}

	anyConstructionTried := false
	for impl := range registry.CandidatesFor(op) {
		cfg, ok := negotiateFallback(impl, config)
		if !ok {
			continue
		}
		if !impl.Supports(cfg) {
			klog.V(1).Infof("executor %q rejected %s: configuration not supported", impl.Name(), op)
			continue
		}
		if !impl.AcceptsShapes(memory) {
			klog.V(1).Infof("executor %q rejected %s: shapes not accepted", impl.Name(), op)
			continue
		}
		anyConstructionTried = true
		executor := impl.Create(cfg.Attrs, postOps, memory, ctx)
		if executor == nil {
			klog.V(1).Infof("executor %q rejected %s: construction returned no instance", impl.Name(), op)
			continue
		}
		return &Selection{Executor: executor, Config: cfg, Implementation: impl}, nil
	}

	reason := ReasonUnsupportedConfig
	if anyConstructionTried {
		reason = ReasonConstructionFailed
	}
	return nil, errors.WithStack(&SelectionError{Op: op, Config: config, Reason: reason})
}

// negotiateFallback runs the bounded fallback loop for one candidate, returning
// the stabilized configuration, or ok=false if the chain diverged.
func negotiateFallback(impl *Implementation, config Config) (Config, bool) {
	cfg := config
	for step := 0; step <= maxFallbackSteps; step++ {
		adjusted, needs := impl.RequiresFallback(cfg)
		if !needs || adjusted.Equal(cfg) {
			return cfg, true
		}
		if step == maxFallbackSteps {
			break
		}
		cfg = adjusted
	}
	klog.Warningf("executor %q: fallback negotiation did not stabilize within %d steps, "+
		"rejecting candidate (backend defect)", impl.Name(), maxFallbackSteps)
	return Config{}, false
}
