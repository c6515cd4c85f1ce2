package reference

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrel-ml/kestrel/dtypes"
	"github.com/kestrel-ml/kestrel/executors"
	"github.com/kestrel-ml/kestrel/shapes"
)

func newRegistry() *executors.Registry {
	registry := executors.NewRegistry()
	Register(registry)
	return registry
}

func memFor(in, out shapes.Shape) executors.MemoryArgs {
	return executors.MemoryArgs{
		executors.ArgInput0:  {Shape: in},
		executors.ArgOutput0: {Shape: out},
	}
}

func TestNonZeroEndToEnd(t *testing.T) {
	registry := newRegistry()
	ctx := executors.NewContext()

	inShape := shapes.Make(dtypes.Float32, 2, 2, 2)
	outShape := shapes.Make(dtypes.Int64, 3, shapes.DimDynamic)
	memory := memFor(inShape, outShape)
	config := executors.MakeConfig(NonZeroAttrs{Rank: 3}, memory)

	_, err := executors.Select(registry, executors.OperationNonZero, config, nil, memory, ctx)
	require.Error(t, err, "output shape has a dynamic dimension, must be rejected")
	var selErr *executors.SelectionError
	require.True(t, errors.As(err, &selErr))
	assert.Equal(t, executors.ReasonUnsupportedConfig, selErr.Reason)
	assert.Equal(t, executors.OperationNonZero, selErr.Op)

	// Fully defined shapes select and run.
	memory = memFor(inShape, shapes.Make(dtypes.Int64, 3, 8))
	config = executors.MakeConfig(NonZeroAttrs{Rank: 3}, memory)
	selection, err := executors.Select(registry, executors.OperationNonZero, config, nil, memory, ctx)
	require.NoError(t, err)
	assert.False(t, selection.Implementation.ShapeAgnostic())

	input := &executors.Buffer{Shape: inShape, Flat: []float32{0, 1, 0, 0, 2, 0, 0, 3}}
	output := &executors.Buffer{Shape: memory[executors.ArgOutput0].Shape, Flat: make([]int64, 3*8)}
	require.NoError(t, selection.Executor.Execute(executors.MemoryBuffers{
		executors.ArgInput0:  input,
		executors.ArgOutput0: output,
	}))
	// Non-zeros at flat positions 1, 4, 7 -> coordinates (0,0,1), (1,0,0), (1,1,1).
	require.Equal(t, shapes.Make(dtypes.Int64, 3, 3), output.Shape)
	flat := output.Flat.([]int64)
	assert.Equal(t, []int64{0, 1, 1}, flat[0:3])
	assert.Equal(t, []int64{0, 0, 1}, flat[3:6])
	assert.Equal(t, []int64{1, 0, 1}, flat[6:9])
}

func TestNonZeroRankLimit(t *testing.T) {
	registry := newRegistry()
	inShape := shapes.Make(dtypes.Float32, 2, 2, 2, 2, 2)
	memory := memFor(inShape, shapes.Make(dtypes.Int64, 5, 32))
	config := executors.MakeConfig(NonZeroAttrs{Rank: 5}, memory)
	_, err := executors.Select(registry, executors.OperationNonZero, config, nil, memory, executors.NewContext())
	require.Error(t, err)
}

func TestNonZeroEmptyResult(t *testing.T) {
	registry := newRegistry()
	ctx := executors.NewContext()
	inShape := shapes.Make(dtypes.Float32, 2, 2)
	memory := memFor(inShape, shapes.Make(dtypes.Int64, 2, 4))
	config := executors.MakeConfig(NonZeroAttrs{Rank: 2}, memory)
	selection, err := executors.Select(registry, executors.OperationNonZero, config, nil, memory, ctx)
	require.NoError(t, err)

	output := &executors.Buffer{Shape: memory[executors.ArgOutput0].Shape, Flat: make([]int64, 8)}
	require.NoError(t, selection.Executor.Execute(executors.MemoryBuffers{
		executors.ArgInput0:  {Shape: inShape, Flat: []float32{0, 0, 0, 0}},
		executors.ArgOutput0: output,
	}))
	assert.Equal(t, shapes.Make(dtypes.Int64, 2, 0), output.Shape)
}

func TestEltwiseShapeAgnosticWithPostOps(t *testing.T) {
	registry := newRegistry()
	ctx := executors.NewContext()

	// Descriptors may carry dynamic dims: the agnostic executor accepts them.
	memory := memFor(shapes.Make(dtypes.Float32, shapes.DimDynamic), shapes.Make(dtypes.Float32, shapes.DimDynamic))
	config := executors.MakeConfig(EltwiseAttrs{Kind: EltwiseNeg}, memory)
	postOps := executors.PostOps{
		{Kind: executors.PostOpReLU},
		{Kind: executors.PostOpScale, Alpha: 2, Beta: 1},
	}
	selection, err := executors.Select(registry, executors.OperationEltwise, config, postOps, memory, ctx)
	require.NoError(t, err)
	assert.True(t, selection.Implementation.ShapeAgnostic())

	in := &executors.Buffer{Shape: shapes.Make(dtypes.Float32, 4), Flat: []float32{-1, 2, -3, 4}}
	out := &executors.Buffer{Shape: shapes.Make(dtypes.Float32, 4), Flat: make([]float32, 4)}
	require.NoError(t, selection.Executor.Execute(executors.MemoryBuffers{
		executors.ArgInput0:  in,
		executors.ArgOutput0: out,
	}))
	// Neg -> ReLU -> *2+1.
	assert.Equal(t, []float32{3, 1, 7, 1}, out.Flat.([]float32))
}

func TestEltwiseFloat64(t *testing.T) {
	registry := newRegistry()
	memory := memFor(shapes.Make(dtypes.Float64, 3), shapes.Make(dtypes.Float64, 3))
	config := executors.MakeConfig(EltwiseAttrs{Kind: EltwiseSquare}, memory)
	selection, err := executors.Select(registry, executors.OperationEltwise, config, nil, memory, executors.NewContext())
	require.NoError(t, err)

	out := &executors.Buffer{Shape: memory[executors.ArgOutput0].Shape, Flat: make([]float64, 3)}
	require.NoError(t, selection.Executor.Execute(executors.MemoryBuffers{
		executors.ArgInput0:  {Shape: memory[executors.ArgInput0].Shape, Flat: []float64{1, -2, 3}},
		executors.ArgOutput0: out,
	}))
	assert.Equal(t, []float64{1, 4, 9}, out.Flat.([]float64))
}

func TestEltwiseRejectsUnsupportedDType(t *testing.T) {
	registry := newRegistry()
	memory := memFor(shapes.Make(dtypes.Int32, 4), shapes.Make(dtypes.Int32, 4))
	config := executors.MakeConfig(EltwiseAttrs{Kind: EltwiseAbs}, memory)
	_, err := executors.Select(registry, executors.OperationEltwise, config, nil, memory, executors.NewContext())
	require.Error(t, err)
}

func matmulMemory(m, k, n int, layout executors.Layout) executors.MemoryArgs {
	return executors.MemoryArgs{
		executors.ArgInput0:  {Shape: shapes.Make(dtypes.Float32, m, k), Layout: layout},
		executors.ArgInput1:  {Shape: shapes.Make(dtypes.Float32, k, n), Layout: layout},
		executors.ArgOutput0: {Shape: shapes.Make(dtypes.Float32, m, n), Layout: layout},
	}
}

func TestMatMulSmallFallsThroughToPlainKernel(t *testing.T) {
	// The tiled candidate's factory declines small problems; selection must
	// recover with the plain reference kernel.
	registry := newRegistry()
	memory := matmulMemory(2, 3, 2, executors.LayoutPlain)
	config := executors.MakeConfig(MatMulAttrs{}, memory)
	selection, err := executors.Select(registry, executors.OperationMatMul, config, nil, memory, executors.NewContext())
	require.NoError(t, err)
	assert.Equal(t, BackendName+"_matmul", selection.Executor.Name())

	out := &executors.Buffer{Shape: shapes.Make(dtypes.Float32, 2, 2), Flat: make([]float32, 4)}
	require.NoError(t, selection.Executor.Execute(executors.MemoryBuffers{
		executors.ArgInput0:  {Shape: shapes.Make(dtypes.Float32, 2, 3), Flat: []float32{1, 2, 3, 4, 5, 6}},
		executors.ArgInput1:  {Shape: shapes.Make(dtypes.Float32, 3, 2), Flat: []float32{7, 8, 9, 10, 11, 12}},
		executors.ArgOutput0: out,
	}))
	assert.Equal(t, []float32{58, 64, 139, 154}, out.Flat.([]float32))
}

func TestMatMulTiledSelectedForLargeProblems(t *testing.T) {
	registry := newRegistry()
	memory := matmulMemory(128, 64, 128, executors.LayoutPlain)
	config := executors.MakeConfig(MatMulAttrs{}, memory)
	selection, err := executors.Select(registry, executors.OperationMatMul, config, nil, memory, executors.NewContext())
	require.NoError(t, err)
	assert.Equal(t, BackendName+"_matmul_tiled", selection.Executor.Name())
	assert.Equal(t, executors.ExecutorTypeOptimized, selection.Implementation.Type())
}

func TestMatMulLayoutFallbackRewritesConfig(t *testing.T) {
	registry := newRegistry()
	memory := matmulMemory(128, 64, 128, executors.LayoutBlocked)
	config := executors.MakeConfig(MatMulAttrs{}, memory)
	selection, err := executors.Select(registry, executors.OperationMatMul, config, nil, memory, executors.NewContext())
	require.NoError(t, err)
	assert.Equal(t, BackendName+"_matmul_tiled", selection.Executor.Name())

	// The selection reports the normalized configuration, not the requested one.
	assert.False(t, selection.Config.Equal(config))
	for _, desc := range selection.Config.Memory {
		assert.Equal(t, executors.LayoutPlain, desc.Layout)
	}
}

func TestTiledAndPlainKernelsAgree(t *testing.T) {
	m, k, n := 65, 33, 67
	a := make([]float32, m*k)
	b := make([]float32, k*n)
	for i := range a {
		a[i] = float32(i%7) - 3
	}
	for i := range b {
		b[i] = float32(i%5) - 2
	}
	buffers := func(out []float32) executors.MemoryBuffers {
		return executors.MemoryBuffers{
			executors.ArgInput0:  {Shape: shapes.Make(dtypes.Float32, m, k), Flat: a},
			executors.ArgInput1:  {Shape: shapes.Make(dtypes.Float32, k, n), Flat: b},
			executors.ArgOutput0: {Shape: shapes.Make(dtypes.Float32, m, n), Flat: out},
		}
	}
	plainOut := make([]float32, m*n)
	tiledOut := make([]float32, m*n)
	plain := &matmulExecutor{name: "plain"}
	tiled := &matmulExecutor{name: "tiled", tile: 16}
	require.NoError(t, plain.Execute(buffers(plainOut)))
	require.NoError(t, tiled.Execute(buffers(tiledOut)))
	assert.Equal(t, plainOut, tiledOut)
}

func TestCapabilitiesClone(t *testing.T) {
	cloned := Capabilities.Clone()
	cloned.Operations[executors.OperationSoftmax] = true
	assert.False(t, Capabilities.Operations[executors.OperationSoftmax])
	assert.Equal(t, len(Capabilities.DTypes), len(cloned.DTypes))
}
