// Package reference implements the portable pure-Go executor backend.
//
// It contributes one descriptor per supported operation to a registry via
// Register. Everything here is correctness-first: the kernels are plain loops
// over flat slices with post-ops fused into a single pass over the output, and
// they exist so that selection always has a last-resort candidate (reference
// descriptors should be registered after any optimized backend).
package reference

import (
	"github.com/kestrel-ml/kestrel/dtypes"
	"github.com/kestrel-ml/kestrel/executors"
)

// BackendName is used for diagnostics and as the prefix of descriptor names.
const BackendName = "reference"

// Capabilities of the reference backend: the operations and data types it can serve.
var Capabilities = executors.Capabilities{
	Operations: map[executors.OperationType]bool{
		executors.OperationNonZero: true,
		executors.OperationEltwise: true,
		executors.OperationMatMul:  true,
	},
	DTypes: map[dtypes.DType]bool{
		dtypes.Float32: true,
		dtypes.Float64: true,
	},
}

// Register contributes the reference descriptors to the registry, in priority
// order within the backend. Call it once during process initialization, after
// any optimized backends so their descriptors take precedence.
func Register(registry *executors.Registry) {
	registry.Register(executors.OperationNonZero, NonZeroImplementation())
	registry.Register(executors.OperationEltwise, EltwiseImplementation())
	registry.Register(executors.OperationMatMul, MatMulOptimizedImplementation())
	registry.Register(executors.OperationMatMul, MatMulImplementation())
}
