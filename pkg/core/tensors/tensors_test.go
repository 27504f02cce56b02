// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package tensors

import (
	"testing"

	"github.com/gomlx/nqs/pkg/core/dtypes"
	"github.com/gomlx/nqs/pkg/core/shapes"
	"github.com/janpfeifer/must"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/x448/float16"
)

func TestFromShape(t *testing.T) {
	tensor := FromShape(shapes.Make(dtypes.Float32, 2, 3))
	assert.Equal(t, dtypes.Float32, tensor.DType())
	assert.Equal(t, 6, tensor.Size())
	assert.Equal(t, 2, tensor.Rank())
	assert.Equal(t, make([]float32, 6), tensor.Value())
	assert.Panics(t, func() { FromShape(shapes.Invalid()) })
}

func TestFlatData(t *testing.T) {
	tensor := FromFlatDataAndDimensions([]float64{1, 2, 3, 4}, 2, 2)
	assert.Equal(t, []int{2, 2}, tensor.Shape().Dimensions)
	MutableFlatData(tensor, func(flat []float64) { flat[3] = 7 })
	assert.Equal(t, []float64{1, 2, 3, 7}, CopyFlatData[float64](tensor))
	assert.Panics(t, func() { CopyFlatData[float32](tensor) })
	assert.Panics(t, func() { FromFlatDataAndDimensions([]float32{1, 2, 3}, 2, 2) })

	scalar := FromScalar(int8(-1))
	assert.True(t, scalar.IsScalar())
	assert.Equal(t, []int8{-1}, scalar.Value())

	filled := FromScalarAndDimensions(float32(0.5), 3)
	assert.Equal(t, []float32{0.5, 0.5, 0.5}, filled.Value())
}

func TestClone(t *testing.T) {
	tensor := FromFlatDataAndDimensions([]float32{1, 2}, 2)
	clone := tensor.Clone()
	require.True(t, tensor.Equal(clone))
	MutableFlatData(clone, func(flat []float32) { flat[0] = 10 })
	assert.Equal(t, []float32{1, 2}, tensor.Value())
	assert.False(t, tensor.Equal(clone))
}

func TestFloat64Conversions(t *testing.T) {
	data := []float64{-1.5, 0, 2.25}
	for _, dtype := range []dtypes.DType{dtypes.Float16, dtypes.Float32, dtypes.Float64} {
		tensor, err := FromFloat64s(dtype, data, 3)
		require.NoError(t, err)
		assert.Equal(t, dtype, tensor.DType())
		got, err := ToFloat64s(tensor)
		require.NoError(t, err)
		assert.InDeltaSlice(t, data, got, 1e-3, "dtype %s", dtype)
	}

	_, err := FromFloat64s(dtypes.Int32, data, 3)
	require.Error(t, err)
	_, err = FromFloat64s(dtypes.Float32, data, 2)
	require.Error(t, err)

	half := CopyFlatData[float16.Float16](must.M1(FromFloat64s(dtypes.Float16, []float64{1}, 1)))
	assert.Equal(t, float32(1), half[0].Float32())

	_, err = ToFloat64s(FromScalar(complex64(1)))
	require.Error(t, err)
}

func TestComplexParts(t *testing.T) {
	re := FromFlatDataAndDimensions([]float64{1, 2}, 2)
	im := FromFlatDataAndDimensions([]float64{-1, 0.5}, 2)
	c, err := FromComplexParts(re, im)
	require.NoError(t, err)
	assert.Equal(t, dtypes.Complex128, c.DType())
	assert.Equal(t, []complex128{complex(1, -1), complex(2, 0.5)}, c.Value())

	re32 := FromFlatDataAndDimensions([]float32{1, 2}, 2)
	im32 := FromFlatDataAndDimensions([]float32{3, 4}, 2)
	c, err = FromComplexParts(re32, im32)
	require.NoError(t, err)
	assert.Equal(t, []complex64{complex(1, 3), complex(2, 4)}, c.Value())

	_, err = FromComplexParts(re, im32)
	require.Error(t, err)
}

func TestNegate(t *testing.T) {
	assert.Equal(t, []float32{-1, 2}, Negate(FromFlatDataAndDimensions([]float32{1, -2}, 2)).Value())
	assert.Equal(t, []complex64{complex(-1, 1)}, Negate(FromFlatDataAndDimensions([]complex64{complex(1, -1)}, 1)).Value())
	assert.Equal(t, []int8{1, -1}, Negate(FromFlatDataAndDimensions([]int8{-1, 1}, 2)).Value())

	original := FromFlatDataAndDimensions([]float64{3}, 1)
	_ = Negate(original)
	assert.Equal(t, []float64{3}, original.Value(), "Negate must not change its input")
}

func TestInDelta(t *testing.T) {
	a := FromFlatDataAndDimensions([]float64{1, 2}, 2)
	b := FromFlatDataAndDimensions([]float64{1.001, 1.999}, 2)
	assert.True(t, a.InDelta(b, 0.01))
	assert.False(t, a.InDelta(b, 1e-4))
	assert.False(t, a.InDelta(FromFlatDataAndDimensions([]float64{1, 2}, 1, 2), 1))
}
