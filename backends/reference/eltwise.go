package reference

import (
	"fmt"
	"math"

	"github.com/pkg/errors"

	"github.com/kestrel-ml/kestrel/executors"
)

// EltwiseKind enumerates the unary element-wise operations of the reference backend.
type EltwiseKind int

const (
	EltwiseIdentity EltwiseKind = iota
	EltwiseAbs
	EltwiseNeg
	EltwiseSquare
	EltwiseSqrt
)

// String implements fmt.Stringer.
func (k EltwiseKind) String() string {
	switch k {
	case EltwiseIdentity:
		return "Identity"
	case EltwiseAbs:
		return "Abs"
	case EltwiseNeg:
		return "Neg"
	case EltwiseSquare:
		return "Square"
	case EltwiseSqrt:
		return "Sqrt"
	}
	return fmt.Sprintf("EltwiseKind(%d)", int(k))
}

// EltwiseAttrs configure an element-wise operation.
type EltwiseAttrs struct {
	Kind EltwiseKind
}

// EqualAttrs implements executors.Attributes.
func (a EltwiseAttrs) EqualAttrs(other executors.Attributes) bool {
	o, ok := other.(EltwiseAttrs)
	return ok && a == o
}

// EltwiseImplementation returns the reference descriptor for unary element-wise
// operations. It is shape-agnostic: the kernel reads extents from the live
// buffers, so one instance serves any shapes the predicates accept, including
// descriptors with dynamic dimensions.
func EltwiseImplementation() *executors.Implementation {
	return executors.NewImplementation(
		BackendName+"_eltwise", executors.ExecutorTypeReference, executors.OperationEltwise,
		executors.ShapeAgnostic,
		executors.Hooks{
			Supports: func(config executors.Config) bool {
				_, ok := config.Attrs.(EltwiseAttrs)
				if !ok {
					return false
				}
				for _, desc := range config.Memory {
					if !Capabilities.DTypes[desc.Shape.DType] {
						return false
					}
				}
				return true
			},
			AcceptsShapes: func(memory executors.MemoryArgs) bool {
				for _, desc := range memory {
					if !desc.Shape.Ok() || desc.Layout != executors.LayoutPlain {
						return false
					}
				}
				return true
			},
			Create: func(attrs executors.Attributes, postOps executors.PostOps,
				memory executors.MemoryArgs, ctx *executors.Context) executors.Executor {
				return &eltwiseExecutor{attrs: attrs.(EltwiseAttrs), postOps: postOps}
			},
		})
}

type eltwiseExecutor struct {
	attrs   EltwiseAttrs
	postOps executors.PostOps
}

func (e *eltwiseExecutor) Name() string { return BackendName + "_eltwise" }
func (e *eltwiseExecutor) Finalize()    {}

func (e *eltwiseExecutor) Execute(buffers executors.MemoryBuffers) error {
	input, output := buffers[executors.ArgInput0], buffers[executors.ArgOutput0]
	if input == nil || output == nil {
		return errors.Errorf("%s: both %q and %q buffers are required",
			e.Name(), executors.ArgInput0, executors.ArgOutput0)
	}
	switch in := input.Flat.(type) {
	case []float32:
		out, ok := output.Flat.([]float32)
		if !ok || len(out) < len(in) {
			return errors.Errorf("%s: output buffer mismatch for input %s", e.Name(), input.Shape)
		}
		for i, v := range in {
			out[i] = eltwiseApplyF32(e.attrs.Kind, v)
		}
		return applyPostOpsF32(out[:len(in)], e.postOps, biasF32(buffers))
	case []float64:
		out, ok := output.Flat.([]float64)
		if !ok || len(out) < len(in) {
			return errors.Errorf("%s: output buffer mismatch for input %s", e.Name(), input.Shape)
		}
		for i, v := range in {
			out[i] = eltwiseApplyF64(e.attrs.Kind, v)
		}
		return applyPostOpsF64(out[:len(in)], e.postOps, biasF64(buffers))
	default:
		return errors.Errorf("%s: dtype %s not supported", e.Name(), input.Shape.DType)
	}
}

func eltwiseApplyF32(kind EltwiseKind, v float32) float32 {
	switch kind {
	case EltwiseAbs:
		if v < 0 {
			return -v
		}
		return v
	case EltwiseNeg:
		return -v
	case EltwiseSquare:
		return v * v
	case EltwiseSqrt:
		return float32(math.Sqrt(float64(v)))
	}
	return v
}

func eltwiseApplyF64(kind EltwiseKind, v float64) float64 {
	switch kind {
	case EltwiseAbs:
		return math.Abs(v)
	case EltwiseNeg:
		return -v
	case EltwiseSquare:
		return v * v
	case EltwiseSqrt:
		return math.Sqrt(v)
	}
	return v
}

func biasF32(buffers executors.MemoryBuffers) []float32 {
	if bias, found := buffers[executors.ArgBias]; found {
		if flat, ok := bias.Flat.([]float32); ok {
			return flat
		}
	}
	return nil
}

func biasF64(buffers executors.MemoryBuffers) []float64 {
	if bias, found := buffers[executors.ArgBias]; found {
		if flat, ok := bias.Flat.([]float64); ok {
			return flat
		}
	}
	return nil
}
