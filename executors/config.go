package executors

import "fmt"

// Attributes is the operation-specific portion of a Configuration: e.g. strides
// and padding for a convolution, the element operation for an eltwise.
//
// Attribute values must be immutable and comparable by value: Equal is what the
// selector uses to detect a stabilized fallback negotiation, so it must be a pure
// structural comparison.
type Attributes interface {
	// EqualAttrs reports structural equality with another attribute value.
	// It must return false for a different concrete type.
	EqualAttrs(other Attributes) bool
}

// Config is the immutable pair of operation attributes and memory descriptors
// describing one candidate invocation. Identity is structural: attribute equality
// plus per-argument shape class.
//
// A Config is created per candidate-operation-instance, never mutated, and owned
// by the caller for the duration of one selection call.
type Config struct {
	Attrs  Attributes
	Memory MemoryArgs
}

// MakeConfig builds a Config from attributes and memory descriptors.
func MakeConfig(attrs Attributes, memory MemoryArgs) Config {
	return Config{Attrs: attrs, Memory: memory}
}

// Equal reports value equality: attributes structurally equal and the same
// memory shape classes.
func (c Config) Equal(other Config) bool {
	if (c.Attrs == nil) != (other.Attrs == nil) {
		return false
	}
	if c.Attrs != nil && !c.Attrs.EqualAttrs(other.Attrs) {
		return false
	}
	return c.Memory.Key() == other.Memory.Key()
}

// String implements fmt.Stringer, for diagnostics on selection failures.
func (c Config) String() string {
	return fmt.Sprintf("Config{attrs=%v, memory=%s}", c.Attrs, c.Memory.Key())
}
