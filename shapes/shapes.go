// Package shapes defines Shape, the rank/dimensions/DType description of a memory buffer.
//
// A Shape may carry dynamic (not yet defined) dimensions, marked with DimDynamic: those
// are resolved only at execution time, and executor implementations declare through
// their shape predicates whether they can accept them.
//
// ## Glossary
//
//   - Rank: number of axes (dimensions) of a buffer.
//   - Axis: the index of a dimension. We refer to a dimension index as "axis"
//     (plural axes), and to its size as its dimension.
//   - Dimension: the size of a buffer in one of its axes, or DimDynamic if not yet known.
//   - DType: the data type of the unit element, see package dtypes.
//   - Scalar: a shape with no axes, holding a single value of the associated DType.
package shapes

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/gomlx/exceptions"

	"github.com/kestrel-ml/kestrel/dtypes"
)

// DimDynamic marks an axis whose dimension is unknown until execution time.
const DimDynamic = -1

// Shape represents the shape of a memory buffer: its DType and per-axis dimensions.
//
// Use Make to create a new shape. Shape is a value type: pass it by value, compare
// it with Equal.
type Shape struct {
	DType      dtypes.DType
	Dimensions []int
}

// Make returns a Shape with the values given. Dimensions must be non-negative
// (zero-extent axes are valid, e.g. an empty index set) or DimDynamic; anything
// else is a coding error and panics.
func Make(dtype dtypes.DType, dimensions ...int) Shape {
	s := Shape{DType: dtype, Dimensions: slices.Clone(dimensions)}
	for _, dim := range dimensions {
		if dim < 0 && dim != DimDynamic {
			exceptions.Panicf("shapes.Make(%s): dimensions must be >= 0 or DimDynamic, got %v", dtype, dimensions)
		}
	}
	return s
}

// Scalar returns a scalar Shape for the given Go type.
func Scalar[T dtypes.Supported]() Shape {
	return Shape{DType: dtypes.FromGenericsType[T]()}
}

// Invalid returns an invalid shape: Invalid().Ok() == false.
func Invalid() Shape {
	return Shape{DType: dtypes.InvalidDType}
}

// Ok returns whether this is a valid Shape. The zero value Shape{} is invalid.
func (s Shape) Ok() bool { return s.DType != dtypes.InvalidDType }

// Rank of the shape, that is, the number of axes.
func (s Shape) Rank() int { return len(s.Dimensions) }

// IsScalar returns whether the shape has rank 0.
func (s Shape) IsScalar() bool { return s.Ok() && s.Rank() == 0 }

// IsDynamic returns whether any axis still has an undefined dimension.
func (s Shape) IsDynamic() bool {
	return slices.Contains(s.Dimensions, DimDynamic)
}

// IsFullyDefined returns whether the shape is valid and every dimension is concrete.
func (s Shape) IsFullyDefined() bool {
	return s.Ok() && !s.IsDynamic()
}

// Dim returns the dimension of the given axis. A negative axis counts from the
// end, so Dim(-1) is the last axis. Out-of-bound axes panic, like slice indexing.
func (s Shape) Dim(axis int) int {
	adjustedAxis := axis
	if adjustedAxis < 0 {
		adjustedAxis += s.Rank()
	}
	if adjustedAxis < 0 || adjustedAxis >= s.Rank() {
		exceptions.Panicf("Shape.Dim(%d): axis out of range for rank %d", axis, s.Rank())
	}
	return s.Dimensions[adjustedAxis]
}

// Size returns the number of elements, or -1 if any dimension is still dynamic.
func (s Shape) Size() int {
	size := 1
	for _, dim := range s.Dimensions {
		if dim == DimDynamic {
			return -1
		}
		size *= dim
	}
	return size
}

// Memory returns the number of bytes needed to store the shape, or -1 if dynamic.
func (s Shape) Memory() int {
	size := s.Size()
	if size < 0 {
		return -1
	}
	return size * s.DType.Size()
}

// Clone makes a deep copy of the shape.
func (s Shape) Clone() Shape {
	return Shape{DType: s.DType, Dimensions: slices.Clone(s.Dimensions)}
}

// Equal compares shape and dtype for equality. A dynamic dimension only equals
// another dynamic dimension.
func (s Shape) Equal(other Shape) bool {
	return s.DType == other.DType && slices.Equal(s.Dimensions, other.Dimensions)
}

// String implements fmt.Stringer: e.g. "(float32)[2 3 ?]", with "?" for dynamic axes.
func (s Shape) String() string {
	if !s.Ok() {
		return "(invalid)"
	}
	if s.IsScalar() {
		return fmt.Sprintf("(%s)", s.DType)
	}
	parts := make([]string, len(s.Dimensions))
	for i, dim := range s.Dimensions {
		if dim == DimDynamic {
			parts[i] = "?"
		} else {
			parts[i] = strconv.Itoa(dim)
		}
	}
	return fmt.Sprintf("(%s)[%s]", s.DType, strings.Join(parts, " "))
}

// Key returns a canonical string representation usable for map keying, e.g. as
// the shape-class identity of selection caches. Two shapes have the same key iff
// they are Equal.
func (s Shape) Key() string {
	return s.String()
}
