package executors

import (
	"fmt"
	"slices"
	"strings"

	"github.com/kestrel-ml/kestrel/shapes"
)

// ArgName is the logical argument slot of a memory descriptor, e.g. "input0" or "output0".
type ArgName string

// Conventional argument slots used by the built-in backends and the frontend.
const (
	ArgInput0  ArgName = "input0"
	ArgInput1  ArgName = "input1"
	ArgWeights ArgName = "weights"
	ArgBias    ArgName = "bias"
	ArgOutput0 ArgName = "output0"
)

// Layout describes the physical arrangement of a buffer in memory.
type Layout int

const (
	// LayoutPlain is dense row-major, innermost axis contiguous.
	LayoutPlain Layout = iota

	// LayoutBlocked tiles the innermost channel axis in fixed-size blocks.
	LayoutBlocked

	// LayoutChannelsLast stores the channel axis innermost (NHWC-style).
	LayoutChannelsLast
)

// String implements fmt.Stringer.
func (l Layout) String() string {
	switch l {
	case LayoutPlain:
		return "Plain"
	case LayoutBlocked:
		return "Blocked"
	case LayoutChannelsLast:
		return "ChannelsLast"
	}
	return fmt.Sprintf("Layout(%d)", int(l))
}

// MemoryDesc describes one argument buffer: its shape (possibly with dynamic
// dimensions) and physical layout.
type MemoryDesc struct {
	Shape  shapes.Shape
	Layout Layout
}

// Key returns a canonical string for map keying; two descriptors with the same
// key describe the same shape class and layout.
func (m MemoryDesc) Key() string {
	return m.Shape.Key() + "/" + m.Layout.String()
}

// MemoryArgs maps logical argument slots to their memory descriptors.
// It is read-only during selection.
type MemoryArgs map[ArgName]MemoryDesc

// FullyDefined returns whether every argument shape is valid with no dynamic dimensions.
func (m MemoryArgs) FullyDefined() bool {
	for _, desc := range m {
		if !desc.Shape.IsFullyDefined() {
			return false
		}
	}
	return true
}

// Clone makes a copy of the mapping. Shapes are shared: they are treated as immutable.
func (m MemoryArgs) Clone() MemoryArgs {
	clone := make(MemoryArgs, len(m))
	for name, desc := range m {
		clone[name] = desc
	}
	return clone
}

// Key returns a canonical string of per-argument shape classes, with argument
// names sorted, usable as the shape-class identity of a selection cache.
func (m MemoryArgs) Key() string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, string(name))
	}
	slices.Sort(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + "=" + m[ArgName(name)].Key()
	}
	return strings.Join(parts, ",")
}

// Buffer holds live memory for one argument: a shape and the flat data slice,
// which is always a []T of the shape's DType.
type Buffer struct {
	Shape shapes.Shape
	Flat  any
}

// MemoryBuffers maps argument slots to live buffers at execution time.
type MemoryBuffers map[ArgName]*Buffer
