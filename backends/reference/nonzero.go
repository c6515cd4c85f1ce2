package reference

import (
	"github.com/pkg/errors"

	"github.com/kestrel-ml/kestrel/dtypes"
	"github.com/kestrel-ml/kestrel/executors"
	"github.com/kestrel-ml/kestrel/shapes"
)

// maxNonZeroRank bounds the coordinate decoding of the reference kernel.
const maxNonZeroRank = 4

// NonZeroAttrs configure the non-zero-index extraction: the rank of the input
// the indices are decoded for.
type NonZeroAttrs struct {
	Rank int
}

// EqualAttrs implements executors.Attributes.
func (a NonZeroAttrs) EqualAttrs(other executors.Attributes) bool {
	o, ok := other.(NonZeroAttrs)
	return ok && a == o
}

// NonZeroImplementation returns the reference descriptor for non-zero-index
// extraction. It is shape-specific: the output extent depends on the input
// extents, so every dimension must be defined before instantiation.
func NonZeroImplementation() *executors.Implementation {
	return executors.NewImplementation(
		BackendName+"_nonzero", executors.ExecutorTypeReference, executors.OperationNonZero,
		executors.ShapeSpecific,
		executors.Hooks{
			Supports: func(config executors.Config) bool {
				attrs, ok := config.Attrs.(NonZeroAttrs)
				return ok && attrs.Rank >= 1 && attrs.Rank <= maxNonZeroRank
			},
			AcceptsShapes: func(memory executors.MemoryArgs) bool {
				return memory.FullyDefined()
			},
			Create: func(attrs executors.Attributes, postOps executors.PostOps,
				memory executors.MemoryArgs, ctx *executors.Context) executors.Executor {
				if len(postOps) > 0 {
					// Index extraction has no numeric output to fuse into.
					return nil
				}
				return &nonZeroExecutor{attrs: attrs.(NonZeroAttrs), ctx: ctx}
			},
		})
}

type nonZeroExecutor struct {
	attrs NonZeroAttrs
	ctx   *executors.Context
}

func (e *nonZeroExecutor) Name() string { return BackendName + "_nonzero" }
func (e *nonZeroExecutor) Finalize()    {}

// Execute writes the coordinates of the non-zero input elements, one row per
// axis, to the output buffer and sets its shape to (int64)[rank count].
func (e *nonZeroExecutor) Execute(buffers executors.MemoryBuffers) error {
	input, output := buffers[executors.ArgInput0], buffers[executors.ArgOutput0]
	if input == nil || output == nil {
		return errors.Errorf("%s: both %q and %q buffers are required",
			e.Name(), executors.ArgInput0, executors.ArgOutput0)
	}
	rank := input.Shape.Rank()
	if rank != e.attrs.Rank {
		return errors.Errorf("%s: instantiated for rank %d, got input %s", e.Name(), e.attrs.Rank, input.Shape)
	}
	size := input.Shape.Size()

	// First pass: flat positions of the non-zero elements, on scratch memory.
	scratch := e.ctx.GetScratch(dtypes.Int64, size)
	defer e.ctx.PutScratch(scratch)
	positions := scratch.Flat.([]int64)[:0]
	switch flat := input.Flat.(type) {
	case []float32:
		for i, v := range flat {
			if v != 0 {
				positions = append(positions, int64(i))
			}
		}
	case []float64:
		for i, v := range flat {
			if v != 0 {
				positions = append(positions, int64(i))
			}
		}
	default:
		return errors.Errorf("%s: dtype %s not supported", e.Name(), input.Shape.DType)
	}

	// Second pass: decode flat positions into per-axis coordinates, row-major,
	// one output row per axis (ONNX NonZero convention).
	count := len(positions)
	outFlat, ok := output.Flat.([]int64)
	if !ok {
		return errors.Errorf("%s: output buffer must be []int64, got %s", e.Name(), output.Shape.DType)
	}
	if len(outFlat) < rank*count {
		return errors.Errorf("%s: output buffer too small: need %d elements, have %d",
			e.Name(), rank*count, len(outFlat))
	}
	strides := rowMajorStrides(input.Shape.Dimensions)
	for col, pos := range positions {
		remainder := pos
		for axis := 0; axis < rank; axis++ {
			outFlat[axis*count+col] = remainder / strides[axis]
			remainder %= strides[axis]
		}
	}
	output.Shape = shapes.Make(dtypes.Int64, rank, count)
	return nil
}

// rowMajorStrides returns the flat stride of each axis for dense row-major dims.
func rowMajorStrides(dims []int) []int64 {
	strides := make([]int64, len(dims))
	stride := int64(1)
	for axis := len(dims) - 1; axis >= 0; axis-- {
		strides[axis] = stride
		stride *= int64(dims[axis])
	}
	return strides
}
