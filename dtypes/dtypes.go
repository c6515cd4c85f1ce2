// Package dtypes defines the DType enum for the data types the kestrel runtime can dispatch on.
//
// It includes converters to/from Go native types (and reflect.Type) and the constraint
// interfaces used with generics by the executor kernels.
//
// Float16 uses the github.com/x448/float16 implementation.
package dtypes

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/x448/float16"
	"golang.org/x/exp/constraints"
)

// panicf panics with the formatted description.
//
// It is only used for "bugs in the code" -- when parameters don't follow the specifications.
func panicf(format string, args ...any) {
	panic(errors.Errorf(format, args...))
}

// DType is an enum of the data types of memory buffers negotiated by the selector.
type DType int32

const (
	// InvalidDType serves as the default, and is never valid in a memory descriptor.
	InvalidDType DType = iota

	// Bool are two-state predicates.
	Bool

	// Int8, Int16, Int32 and Int64 are signed integral values of fixed width.
	Int8
	Int16
	Int32
	Int64

	// Uint8, Uint16, Uint32 and Uint64 are unsigned integral values of fixed width.
	Uint8
	Uint16
	Uint32
	Uint64

	// Float16, Float32 and Float64 are floating-point values of fixed width.
	Float16
	Float32
	Float64
)

var dtypeNames = map[DType]string{
	InvalidDType: "invalid",
	Bool:         "bool",
	Int8:         "int8",
	Int16:        "int16",
	Int32:        "int32",
	Int64:        "int64",
	Uint8:        "uint8",
	Uint16:       "uint16",
	Uint32:       "uint32",
	Uint64:       "uint64",
	Float16:      "float16",
	Float32:      "float32",
	Float64:      "float64",
}

// MapOfNames maps the lower-case name of a dtype to its value.
var MapOfNames = func() map[string]DType {
	m := make(map[string]DType, len(dtypeNames))
	for dtype, name := range dtypeNames {
		m[strings.ToLower(name)] = dtype
	}
	return m
}()

// String implements fmt.Stringer.
func (dtype DType) String() string {
	if name, found := dtypeNames[dtype]; found {
		return name
	}
	return "DType(" + strconv.Itoa(int(dtype)) + ")"
}

// FromName returns the DType with the given (case-insensitive) name, or InvalidDType if unknown.
func FromName(name string) DType {
	if dtype, found := MapOfNames[strings.ToLower(name)]; found {
		return dtype
	}
	return InvalidDType
}

// Supported lists the Go types a DType maps to, usable as a generics constraint.
type Supported interface {
	bool | int8 | int16 | int32 | int64 | uint8 | uint16 | uint32 | uint64 |
		float16.Float16 | float32 | float64
}

// Number represents the Go numeric types the kernels compute on, usable as a generics constraint.
type Number interface {
	constraints.Integer | constraints.Float
}

// FromGenericsType returns the DType enum for the given Go type.
func FromGenericsType[T Supported]() DType {
	var t T
	return FromGoType(reflect.TypeOf(t))
}

// Pre-generated constant for convenience.
var float16Type = reflect.TypeOf(float16.Float16(0))

// FromGoType returns the DType for the given "reflect.Type", or InvalidDType if unsupported.
func FromGoType(t reflect.Type) DType {
	if t == float16Type {
		return Float16
	}
	switch t.Kind() {
	case reflect.Bool:
		return Bool
	case reflect.Int:
		switch strconv.IntSize {
		case 32:
			return Int32
		case 64:
			return Int64
		default:
			panicf("cannot use int of %d bits with kestrel -- try using int32 or int64", strconv.IntSize)
			return InvalidDType // unreachable: panicf always panics
		}
	case reflect.Int8:
		return Int8
	case reflect.Int16:
		return Int16
	case reflect.Int32:
		return Int32
	case reflect.Int64:
		return Int64
	case reflect.Uint8:
		return Uint8
	case reflect.Uint16:
		return Uint16
	case reflect.Uint32:
		return Uint32
	case reflect.Uint64:
		return Uint64
	case reflect.Float32:
		return Float32
	case reflect.Float64:
		return Float64
	default:
		return InvalidDType
	}
}

// FromAny introspects the underlying type of value and returns the corresponding DType.
// Non-scalar or unsupported types return InvalidDType.
func FromAny(value any) DType {
	return FromGoType(reflect.TypeOf(value))
}

// GoType returns the Go type the DType maps to. It panics for InvalidDType.
func (dtype DType) GoType() reflect.Type {
	switch dtype {
	case Bool:
		return reflect.TypeOf(false)
	case Int8:
		return reflect.TypeOf(int8(0))
	case Int16:
		return reflect.TypeOf(int16(0))
	case Int32:
		return reflect.TypeOf(int32(0))
	case Int64:
		return reflect.TypeOf(int64(0))
	case Uint8:
		return reflect.TypeOf(uint8(0))
	case Uint16:
		return reflect.TypeOf(uint16(0))
	case Uint32:
		return reflect.TypeOf(uint32(0))
	case Uint64:
		return reflect.TypeOf(uint64(0))
	case Float16:
		return float16Type
	case Float32:
		return reflect.TypeOf(float32(0))
	case Float64:
		return reflect.TypeOf(float64(0))
	default:
		panicf("DType.GoType: no Go type for %s", dtype)
	}
	return nil
}

// Size returns the number of bytes for the given DType.
func (dtype DType) Size() int {
	return int(dtype.GoType().Size())
}

// IsFloat returns whether dtype is a floating-point type.
func (dtype DType) IsFloat() bool {
	return dtype == Float16 || dtype == Float32 || dtype == Float64
}

// IsInt returns whether dtype is a signed or unsigned integer type.
func (dtype DType) IsInt() bool {
	switch dtype {
	case Int8, Int16, Int32, Int64, Uint8, Uint16, Uint32, Uint64:
		return true
	}
	return false
}
