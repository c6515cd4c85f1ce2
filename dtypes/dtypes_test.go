package dtypes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/x448/float16"
)

func TestFromGenericsType(t *testing.T) {
	assert.Equal(t, Float32, FromGenericsType[float32]())
	assert.Equal(t, Float64, FromGenericsType[float64]())
	assert.Equal(t, Float16, FromGenericsType[float16.Float16]())
	assert.Equal(t, Int32, FromGenericsType[int32]())
	assert.Equal(t, Uint8, FromGenericsType[uint8]())
	assert.Equal(t, Bool, FromGenericsType[bool]())
}

func TestFromAny(t *testing.T) {
	assert.Equal(t, Int64, FromAny(int64(7)))
	assert.Equal(t, InvalidDType, FromAny("not a scalar"))
}

func TestSizes(t *testing.T) {
	assert.Equal(t, 1, Bool.Size())
	assert.Equal(t, 2, Float16.Size())
	assert.Equal(t, 4, Float32.Size())
	assert.Equal(t, 8, Int64.Size())
}

func TestNames(t *testing.T) {
	require.Equal(t, "float32", Float32.String())
	assert.Equal(t, Float32, FromName("Float32"))
	assert.Equal(t, InvalidDType, FromName("quaternion"))
}

func TestClassification(t *testing.T) {
	assert.True(t, Float16.IsFloat())
	assert.False(t, Float16.IsInt())
	assert.True(t, Uint32.IsInt())
	assert.False(t, Bool.IsFloat())
	assert.False(t, Bool.IsInt())
}

func TestGoTypePanicsOnInvalid(t *testing.T) {
	assert.Panics(t, func() { InvalidDType.GoType() })
}
