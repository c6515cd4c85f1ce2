package executors

import "fmt"

// PostOpKind enumerates the post-processing operations that can be fused into a
// selected kernel.
type PostOpKind int

const (
	PostOpReLU PostOpKind = iota
	PostOpClip
	PostOpScale
	PostOpBiasAdd
)

// String implements fmt.Stringer.
func (k PostOpKind) String() string {
	switch k {
	case PostOpReLU:
		return "ReLU"
	case PostOpClip:
		return "Clip"
	case PostOpScale:
		return "Scale"
	case PostOpBiasAdd:
		return "BiasAdd"
	}
	return fmt.Sprintf("PostOpKind(%d)", int(k))
}

// PostOp describes one fused post-processing step. Alpha and Beta are
// kind-specific parameters: Clip uses them as (min, max), Scale as
// (multiplier, addend); ReLU and BiasAdd ignore them.
type PostOp struct {
	Kind  PostOpKind
	Alpha float64
	Beta  float64
}

// PostOps is the ordered sequence of post-processing steps to fuse into the
// chosen kernel. The selector passes it through to the factory untouched.
type PostOps []PostOp
