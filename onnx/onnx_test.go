package onnx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrel-ml/kestrel/backends/reference"
	"github.com/kestrel-ml/kestrel/dtypes"
	"github.com/kestrel-ml/kestrel/executors"
	"github.com/kestrel-ml/kestrel/shapes"
)

func TestTranslateNonZero(t *testing.T) {
	node := &Node{
		OpType:  "NonZero",
		Inputs:  []ValueInfo{{Name: "x", DType: dtypes.Float32, Dims: []int{2, 2, 2}}},
		Outputs: []ValueInfo{{Name: "y", DType: dtypes.Int64, Dims: []int{3, 0}}},
	}
	translation, err := Translate(node)
	require.NoError(t, err)
	assert.Equal(t, executors.OperationNonZero, translation.Op)
	assert.Equal(t, reference.NonZeroAttrs{Rank: 3}, translation.Attrs)
	assert.True(t, translation.Memory[executors.ArgInput0].Shape.IsFullyDefined())
	// Zero extents in ONNX value infos mean "dynamic" here.
	assert.True(t, translation.Memory[executors.ArgOutput0].Shape.IsDynamic())
}

func TestTranslateReluFusesPostOp(t *testing.T) {
	node := &Node{
		OpType:  "Relu",
		Inputs:  []ValueInfo{{Name: "x", DType: dtypes.Float32, Dims: []int{8}}},
		Outputs: []ValueInfo{{Name: "y", DType: dtypes.Float32, Dims: []int{8}}},
	}
	translation, err := Translate(node)
	require.NoError(t, err)
	assert.Equal(t, executors.OperationEltwise, translation.Op)
	assert.Equal(t, reference.EltwiseAttrs{Kind: reference.EltwiseIdentity}, translation.Attrs)
	require.Len(t, translation.PostOps, 1)
	assert.Equal(t, executors.PostOpReLU, translation.PostOps[0].Kind)
}

func TestTranslateUnknownOperator(t *testing.T) {
	_, err := Translate(&Node{OpType: "Quaternion"})
	require.Error(t, err)
	assert.False(t, Supported("Quaternion"))
	assert.True(t, Supported("MatMul"))
}

func TestTranslateArityErrors(t *testing.T) {
	_, err := Translate(&Node{OpType: "Abs"})
	require.Error(t, err)
	_, err = Translate(&Node{
		OpType:  "MatMul",
		Inputs:  []ValueInfo{{Name: "a", DType: dtypes.Float32, Dims: []int{2, 2}}},
		Outputs: []ValueInfo{{Name: "y", DType: dtypes.Float32, Dims: []int{2, 2}}},
	})
	require.Error(t, err)
}

func TestAttrHelpers(t *testing.T) {
	node := &Node{Attrs: map[string]any{"alpha": float32(0.5), "axis": int64(2)}}
	assert.Equal(t, 0.5, GetAttrFloat(node, "alpha", 0.01))
	assert.Equal(t, 0.01, GetAttrFloat(node, "beta", 0.01))
	assert.Equal(t, 2, GetAttrInt(node, "axis", -1))
	assert.Equal(t, -1, GetAttrInt(node, "dim", -1))
}

// The frontend output feeds selection directly: the end-to-end path of the
// NonZero scenario, driven through Translate.
func TestTranslateToSelection(t *testing.T) {
	registry := executors.NewRegistry()
	reference.Register(registry)
	ctx := executors.NewContext()

	translation, err := Translate(&Node{
		OpType:  "NonZero",
		Inputs:  []ValueInfo{{Name: "x", DType: dtypes.Float32, Dims: []int{2, 3}}},
		Outputs: []ValueInfo{{Name: "y", DType: dtypes.Int64, Dims: []int{2, 6}}},
	})
	require.NoError(t, err)

	config := executors.MakeConfig(translation.Attrs, translation.Memory)
	selection, err := executors.Select(registry, translation.Op, config, translation.PostOps, translation.Memory, ctx)
	require.NoError(t, err)

	output := &executors.Buffer{Shape: shapes.Make(dtypes.Int64, 2, 6), Flat: make([]int64, 12)}
	require.NoError(t, selection.Executor.Execute(executors.MemoryBuffers{
		executors.ArgInput0:  {Shape: shapes.Make(dtypes.Float32, 2, 3), Flat: []float32{5, 0, 0, 0, 0, 6}},
		executors.ArgOutput0: output,
	}))
	require.Equal(t, shapes.Make(dtypes.Int64, 2, 2), output.Shape)
	flat := output.Flat.([]int64)
	assert.Equal(t, []int64{0, 1}, flat[0:2]) // row coordinates
	assert.Equal(t, []int64{0, 2}, flat[2:4]) // column coordinates
}
