package reference

import (
	"github.com/pkg/errors"

	"github.com/kestrel-ml/kestrel/dtypes"
	"github.com/kestrel-ml/kestrel/executors"
)

// MatMulAttrs configure a 2-D matrix multiplication [M K] x [K N] -> [M N].
type MatMulAttrs struct {
	TransposeA bool
	TransposeB bool
}

// EqualAttrs implements executors.Attributes.
func (a MatMulAttrs) EqualAttrs(other executors.Attributes) bool {
	o, ok := other.(MatMulAttrs)
	return ok && a == o
}

func matmulSupports(config executors.Config) bool {
	attrs, ok := config.Attrs.(MatMulAttrs)
	if !ok || attrs.TransposeA || attrs.TransposeB {
		return false
	}
	for _, name := range []executors.ArgName{executors.ArgInput0, executors.ArgInput1, executors.ArgOutput0} {
		desc, found := config.Memory[name]
		if !found || desc.Shape.DType != dtypes.Float32 || desc.Shape.Rank() != 2 {
			return false
		}
	}
	return true
}

// MatMulImplementation returns the plain reference matmul descriptor: the
// last-resort candidate, shape-specific, plain layouts only.
func MatMulImplementation() *executors.Implementation {
	return executors.NewImplementation(
		BackendName+"_matmul", executors.ExecutorTypeReference, executors.OperationMatMul,
		executors.ShapeSpecific,
		executors.Hooks{
			Supports: matmulSupports,
			AcceptsShapes: func(memory executors.MemoryArgs) bool {
				for _, desc := range memory {
					if !desc.Shape.IsFullyDefined() || desc.Layout != executors.LayoutPlain {
						return false
					}
				}
				return true
			},
			Create: func(attrs executors.Attributes, postOps executors.PostOps,
				memory executors.MemoryArgs, ctx *executors.Context) executors.Executor {
				return &matmulExecutor{name: BackendName + "_matmul", postOps: postOps}
			},
		})
}

// minElementsForTiling is the problem size under which the tiled variant
// declines construction and lets selection fall through to the plain kernel.
const minElementsForTiling = 1 << 12

// MatMulOptimizedImplementation returns the cache-tiled matmul descriptor.
// Register it before the plain one: it takes priority where it applies.
//
// It only computes on plain layouts, but instead of rejecting blocked or
// channels-last configurations outright it requests a fallback: the returned
// configuration has every layout promoted to plain, and the caller's
// normalization (an external reorder) makes the candidate applicable.
func MatMulOptimizedImplementation() *executors.Implementation {
	return executors.NewImplementation(
		BackendName+"_matmul_tiled", executors.ExecutorTypeOptimized, executors.OperationMatMul,
		executors.ShapeSpecific,
		executors.Hooks{
			Supports: matmulSupports,
			RequiresFallback: func(config executors.Config) (executors.Config, bool) {
				needsPromotion := false
				for _, desc := range config.Memory {
					if desc.Layout != executors.LayoutPlain {
						needsPromotion = true
						break
					}
				}
				if !needsPromotion {
					return executors.Config{}, false
				}
				promoted := config.Memory.Clone()
				for name, desc := range promoted {
					desc.Layout = executors.LayoutPlain
					promoted[name] = desc
				}
				return executors.MakeConfig(config.Attrs, promoted), true
			},
			AcceptsShapes: func(memory executors.MemoryArgs) bool {
				for _, desc := range memory {
					if !desc.Shape.IsFullyDefined() {
						return false
					}
				}
				return true
			},
			Create: func(attrs executors.Attributes, postOps executors.PostOps,
				memory executors.MemoryArgs, ctx *executors.Context) executors.Executor {
				out, found := memory[executors.ArgOutput0]
				if !found || out.Shape.Size() < minElementsForTiling {
					// Tiling overhead beats the gain on small problems; let the
					// plain kernel take it.
					return nil
				}
				return &matmulExecutor{name: BackendName + "_matmul_tiled", tile: 64, postOps: postOps}
			},
		})
}

type matmulExecutor struct {
	name    string
	tile    int // 0 means untiled
	postOps executors.PostOps
}

func (e *matmulExecutor) Name() string { return e.name }
func (e *matmulExecutor) Finalize()    {}

func (e *matmulExecutor) Execute(buffers executors.MemoryBuffers) error {
	lhs, rhs, out := buffers[executors.ArgInput0], buffers[executors.ArgInput1], buffers[executors.ArgOutput0]
	if lhs == nil || rhs == nil || out == nil {
		return errors.Errorf("%s: %q, %q and %q buffers are required",
			e.name, executors.ArgInput0, executors.ArgInput1, executors.ArgOutput0)
	}
	m, k := lhs.Shape.Dim(0), lhs.Shape.Dim(1)
	k2, n := rhs.Shape.Dim(0), rhs.Shape.Dim(1)
	if k != k2 {
		return errors.Errorf("%s: contraction mismatch: %s x %s", e.name, lhs.Shape, rhs.Shape)
	}
	a, okA := lhs.Flat.([]float32)
	b, okB := rhs.Flat.([]float32)
	c, okC := out.Flat.([]float32)
	if !okA || !okB || !okC || len(c) < m*n {
		return errors.Errorf("%s: buffers must be float32 with room for the [%d %d] output", e.name, m, n)
	}
	c = c[:m*n]
	clear(c)

	if e.tile > 0 {
		e.tiled(a, b, c, m, k, n)
	} else {
		for i := 0; i < m; i++ {
			for p := 0; p < k; p++ {
				av := a[i*k+p]
				for j := 0; j < n; j++ {
					c[i*n+j] += av * b[p*n+j]
				}
			}
		}
	}
	return applyPostOpsF32(c, e.postOps, biasF32(buffers))
}

// tiled accumulates in cache-friendly blocks of e.tile rows/cols.
func (e *matmulExecutor) tiled(a, b, c []float32, m, k, n int) {
	ts := e.tile
	for i0 := 0; i0 < m; i0 += ts {
		for p0 := 0; p0 < k; p0 += ts {
			for j0 := 0; j0 < n; j0 += ts {
				for i := i0; i < min(i0+ts, m); i++ {
					for p := p0; p < min(p0+ts, k); p++ {
						av := a[i*k+p]
						for j := j0; j < min(j0+ts, n); j++ {
							c[i*n+j] += av * b[p*n+j]
						}
					}
				}
			}
		}
	}
}
