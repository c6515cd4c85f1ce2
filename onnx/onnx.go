// Package onnx is the thin translation layer from an ONNX-style operator node
// to the selection inputs of package executors.
//
// It owns no state and no wire format: parsing the protobuf graph is the job of
// an external loader; this package only maps one already-decoded node --
// operator name, attribute map and value infos -- to an operation kind, an
// attribute value, memory descriptors and the fused post-op chain.
package onnx

import (
	"github.com/pkg/errors"

	"github.com/kestrel-ml/kestrel/backends/reference"
	"github.com/kestrel-ml/kestrel/dtypes"
	"github.com/kestrel-ml/kestrel/executors"
	"github.com/kestrel-ml/kestrel/shapes"
)

// ValueInfo describes one input or output value of a node: its element type and
// per-axis dimensions, with 0 or negative entries meaning "dynamic".
type ValueInfo struct {
	Name  string
	DType dtypes.DType
	Dims  []int
}

// Node is one already-decoded ONNX operator node.
type Node struct {
	OpType  string
	Attrs   map[string]any
	Inputs  []ValueInfo
	Outputs []ValueInfo
}

// Translation is the selection input set produced from one node.
type Translation struct {
	Op      executors.OperationType
	Attrs   executors.Attributes
	PostOps executors.PostOps
	Memory  executors.MemoryArgs
}

// mapper translates one operator kind.
type mapper func(node *Node) (*Translation, error)

var mappers = map[string]mapper{
	"NonZero": mapNonZero,
	"MatMul":  mapMatMul,
	"Abs":     eltwiseMapper(reference.EltwiseAbs),
	"Neg":     eltwiseMapper(reference.EltwiseNeg),
	"Sqrt":    eltwiseMapper(reference.EltwiseSqrt),
	"Relu":    mapRelu,
}

// Translate maps a decoded operator node to the inputs Select expects.
// Unknown operator kinds return an error: the importer decides whether that is
// fatal for the surrounding graph.
func Translate(node *Node) (*Translation, error) {
	m, found := mappers[node.OpType]
	if !found {
		return nil, errors.Errorf("onnx: no mapping for operator %q", node.OpType)
	}
	translation, err := m(node)
	if err != nil {
		return nil, errors.Wrapf(err, "onnx: mapping operator %q", node.OpType)
	}
	return translation, nil
}

// Supported returns whether the operator kind has a mapping.
func Supported(opType string) bool {
	_, found := mappers[opType]
	return found
}

func toShape(info ValueInfo) shapes.Shape {
	dims := make([]int, len(info.Dims))
	for i, dim := range info.Dims {
		if dim <= 0 {
			dims[i] = shapes.DimDynamic
		} else {
			dims[i] = dim
		}
	}
	return shapes.Make(info.DType, dims...)
}

func singleInOut(node *Node) (executors.MemoryArgs, error) {
	if len(node.Inputs) != 1 || len(node.Outputs) != 1 {
		return nil, errors.Errorf("expected 1 input and 1 output, got %d and %d",
			len(node.Inputs), len(node.Outputs))
	}
	return executors.MemoryArgs{
		executors.ArgInput0:  {Shape: toShape(node.Inputs[0])},
		executors.ArgOutput0: {Shape: toShape(node.Outputs[0])},
	}, nil
}

func mapNonZero(node *Node) (*Translation, error) {
	memory, err := singleInOut(node)
	if err != nil {
		return nil, err
	}
	return &Translation{
		Op:     executors.OperationNonZero,
		Attrs:  reference.NonZeroAttrs{Rank: memory[executors.ArgInput0].Shape.Rank()},
		Memory: memory,
	}, nil
}

func mapMatMul(node *Node) (*Translation, error) {
	if len(node.Inputs) != 2 || len(node.Outputs) != 1 {
		return nil, errors.Errorf("expected 2 inputs and 1 output, got %d and %d",
			len(node.Inputs), len(node.Outputs))
	}
	return &Translation{
		Op:    executors.OperationMatMul,
		Attrs: reference.MatMulAttrs{},
		Memory: executors.MemoryArgs{
			executors.ArgInput0:  {Shape: toShape(node.Inputs[0])},
			executors.ArgInput1:  {Shape: toShape(node.Inputs[1])},
			executors.ArgOutput0: {Shape: toShape(node.Outputs[0])},
		},
	}, nil
}

func eltwiseMapper(kind reference.EltwiseKind) mapper {
	return func(node *Node) (*Translation, error) {
		memory, err := singleInOut(node)
		if err != nil {
			return nil, err
		}
		return &Translation{
			Op:     executors.OperationEltwise,
			Attrs:  reference.EltwiseAttrs{Kind: kind},
			Memory: memory,
		}, nil
	}
}

// mapRelu lowers Relu to an identity eltwise with a fused ReLU post-op, the
// form the backends fuse in a single output pass.
func mapRelu(node *Node) (*Translation, error) {
	memory, err := singleInOut(node)
	if err != nil {
		return nil, err
	}
	return &Translation{
		Op:      executors.OperationEltwise,
		Attrs:   reference.EltwiseAttrs{Kind: reference.EltwiseIdentity},
		PostOps: executors.PostOps{{Kind: executors.PostOpReLU}},
		Memory:  memory,
	}, nil
}

// GetAttrFloat returns the float attribute named name, or deflt if absent.
func GetAttrFloat(node *Node, name string, deflt float64) float64 {
	if v, found := node.Attrs[name]; found {
		switch value := v.(type) {
		case float64:
			return value
		case float32:
			return float64(value)
		}
	}
	return deflt
}

// GetAttrInt returns the integer attribute named name, or deflt if absent.
func GetAttrInt(node *Node, name string, deflt int) int {
	if v, found := node.Attrs[name]; found {
		switch value := v.(type) {
		case int:
			return value
		case int64:
			return int(value)
		}
	}
	return deflt
}
