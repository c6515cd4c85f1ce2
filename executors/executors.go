// Package executors implements the executor-selection core of the kestrel runtime.
//
// Hardware backends contribute Implementation descriptors -- an identity plus a
// small set of capability predicates and a factory -- to a Registry, once, during
// process initialization. At graph-compile or first-execution time the Select
// function walks the registry in priority order, negotiates each candidate via its
// predicates (including the bounded fallback renegotiation protocol), and returns
// the first candidate whose factory produces a runnable Executor.
//
// The registry is read-only after initialization, and all predicates are pure, so
// concurrent selections from many goroutines are safe with no locking.
package executors

import (
	"strconv"
)

// OperationType identifies the abstract compute primitive being dispatched.
//
// Nothing precludes a backend from registering implementations for only a subset
// of these; selection for an OperationType with no registered candidates at all is
// a setup defect and panics.
type OperationType int

const (
	OperationInvalid OperationType = iota
	OperationConvolution
	OperationPooling
	OperationMatMul
	OperationEltwise
	OperationNonZero
	OperationReduce
	OperationSoftmax
	OperationTranspose
)

var operationTypeNames = [...]string{
	OperationInvalid:     "Invalid",
	OperationConvolution: "Convolution",
	OperationPooling:     "Pooling",
	OperationMatMul:      "MatMul",
	OperationEltwise:     "Eltwise",
	OperationNonZero:     "NonZero",
	OperationReduce:      "Reduce",
	OperationSoftmax:     "Softmax",
	OperationTranspose:   "Transpose",
}

// String implements fmt.Stringer.
func (op OperationType) String() string {
	if op < 0 || int(op) >= len(operationTypeNames) {
		return "OperationType(" + strconv.Itoa(int(op)) + ")"
	}
	return operationTypeNames[op]
}

// ExecutorType identifies the hardware/software execution family of an implementation.
type ExecutorType int

const (
	// ExecutorTypeReference is the portable, unoptimized family: always correct, never fast.
	ExecutorTypeReference ExecutorType = iota

	// ExecutorTypeOptimized is the vectorized/CPU-tuned family.
	ExecutorTypeOptimized

	// ExecutorTypeAccelerated is backed by an external accelerator engine.
	ExecutorTypeAccelerated
)

var executorTypeNames = [...]string{
	ExecutorTypeReference:   "Reference",
	ExecutorTypeOptimized:   "Optimized",
	ExecutorTypeAccelerated: "Accelerated",
}

// String implements fmt.Stringer.
func (t ExecutorType) String() string {
	if t < 0 || int(t) >= len(executorTypeNames) {
		return "ExecutorType(" + strconv.Itoa(int(t)) + ")"
	}
	return executorTypeNames[t]
}

// ShapeTolerance classifies whether one executor instance remains valid across
// changing shapes.
type ShapeTolerance int

const (
	// ShapeSpecific executors must be re-instantiated whenever the shape class of
	// their arguments changes.
	ShapeSpecific ShapeTolerance = iota

	// ShapeAgnostic executors serve any shapes their predicates accept; a single
	// instantiation may be reused across calls with differing shapes.
	ShapeAgnostic
)

// String implements fmt.Stringer.
func (st ShapeTolerance) String() string {
	if st == ShapeAgnostic {
		return "ShapeAgnostic"
	}
	return "ShapeSpecific"
}

// Executor is the opaque runnable produced by an Implementation's factory.
// It owns whatever kernel/hardware state it needs; its lifetime is bounded by the
// caller holding the handle.
type Executor interface {
	// Name returns the implementation name this executor was built from, for diagnostics.
	Name() string

	// Execute runs the kernel against live memory. The buffers must match the
	// MemoryArgs the executor was selected for (up to dynamic dimensions).
	Execute(buffers MemoryBuffers) error

	// Finalize immediately frees resources associated with the executor.
	Finalize()
}
