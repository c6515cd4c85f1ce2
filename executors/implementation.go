package executors

// SupportsFn reports whether an implementation can, in principle, execute the
// given attribute configuration, independent of concrete runtime shapes.
type SupportsFn func(config Config) bool

// FallbackFn is consulted before Supports: if the implementation needs the
// configuration normalized first (promote a layout, clamp a precision), it
// returns the adjusted configuration and true. Returning (Config{}, false) means
// no adjustment is needed.
//
// This is a request, not an execution: the selector re-checks Supports against
// the returned configuration before accepting the candidate.
type FallbackFn func(config Config) (Config, bool)

// AcceptsShapesFn reports whether the live memory shapes (possibly dynamic) are
// compatible with the implementation's structural assumptions.
type AcceptsShapesFn func(memory MemoryArgs) bool

// CreateFn instantiates the runnable kernel. Returning nil is a valid outcome,
// not an error: it means construction cannot proceed for reasons too
// fine-grained to express as a pure predicate, and the selector tries the next
// candidate.
type CreateFn func(attrs Attributes, postOps PostOps, memory MemoryArgs, ctx *Context) Executor

// Hooks bundles the capability predicates and the factory of one implementation.
// Any hook may be left nil: a nil predicate fails closed (never supports / never
// accepts), and a nil factory produces no executor. A partially specified
// descriptor is therefore inert rather than erroring, which lets backends
// contribute descriptors independently without cross-validation at registration.
type Hooks struct {
	Supports         SupportsFn
	RequiresFallback FallbackFn
	AcceptsShapes    AcceptsShapesFn
	Create           CreateFn
}

// Implementation is an immutable executor descriptor: an identity (name,
// executor family, operation kind, shape tolerance) bundled with its capability
// predicates and factory.
//
// Implementations are registered once at startup, never removed, and shared
// read-only across concurrent selections.
type Implementation struct {
	name          string
	executorType  ExecutorType
	operationType OperationType
	tolerance     ShapeTolerance
	hooks         Hooks
}

// NewImplementation builds a descriptor. See Hooks for the nil-hook semantics.
func NewImplementation(name string, executorType ExecutorType, operationType OperationType,
	tolerance ShapeTolerance, hooks Hooks) *Implementation {
	return &Implementation{
		name:          name,
		executorType:  executorType,
		operationType: operationType,
		tolerance:     tolerance,
		hooks:         hooks,
	}
}

// Supports reports whether the implementation can execute the given
// configuration. A descriptor with no Supports hook never supports anything.
func (impl *Implementation) Supports(config Config) bool {
	if impl.hooks.Supports != nil {
		return impl.hooks.Supports(config)
	}
	return false
}

// RequiresFallback returns the adjusted configuration the implementation wants
// the caller to normalize to, or (Config{}, false) if none is needed.
func (impl *Implementation) RequiresFallback(config Config) (Config, bool) {
	if impl.hooks.RequiresFallback != nil {
		return impl.hooks.RequiresFallback(config)
	}
	return Config{}, false
}

// AcceptsShapes reports whether the live memory shapes are compatible with the
// implementation. A descriptor with no AcceptsShapes hook never accepts any.
func (impl *Implementation) AcceptsShapes(memory MemoryArgs) bool {
	if impl.hooks.AcceptsShapes != nil {
		return impl.hooks.AcceptsShapes(memory)
	}
	return false
}

// Create instantiates the runnable kernel, or returns nil if construction
// cannot proceed (or no factory was supplied).
func (impl *Implementation) Create(attrs Attributes, postOps PostOps, memory MemoryArgs, ctx *Context) Executor {
	if impl.hooks.Create != nil {
		return impl.hooks.Create(attrs, postOps, memory, ctx)
	}
	return nil
}

// ShapeAgnostic reports whether a single instantiation can serve many shapes.
// It is the sole signal driving the caller-side caching policy: see package planner.
func (impl *Implementation) ShapeAgnostic() bool {
	return impl.tolerance == ShapeAgnostic
}

// Name returns the descriptor's identity, for logging and diagnostics.
func (impl *Implementation) Name() string { return impl.name }

// Type returns the hardware/software execution family.
func (impl *Implementation) Type() ExecutorType { return impl.executorType }

// OperationType returns the abstract operation kind this descriptor serves.
func (impl *Implementation) OperationType() OperationType { return impl.operationType }

// ShapeTolerance returns the raw tolerance classification.
func (impl *Implementation) ShapeTolerance() ShapeTolerance { return impl.tolerance }
