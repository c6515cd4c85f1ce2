package executors

import (
	"maps"

	"github.com/kestrel-ml/kestrel/dtypes"
)

// Capabilities holds mappings of what a backend module supports.
// If an operation or dtype is not listed, it's assumed to be false, hence not supported.
type Capabilities struct {
	Operations map[OperationType]bool
	DTypes     map[dtypes.DType]bool
}

// Clone makes a deep copy of the Capabilities.
func (c Capabilities) Clone() Capabilities {
	var c2 Capabilities
	c2.Operations = make(map[OperationType]bool, len(c.Operations))
	maps.Copy(c2.Operations, c.Operations)
	c2.DTypes = make(map[dtypes.DType]bool, len(c.DTypes))
	maps.Copy(c2.DTypes, c.DTypes)
	return c2
}
