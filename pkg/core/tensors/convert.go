// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package tensors

import (
	"math"
	"math/cmplx"
	"reflect"

	"github.com/gomlx/nqs/pkg/core/dtypes"
	"github.com/gomlx/nqs/pkg/core/shapes"
	"github.com/pkg/errors"
	"github.com/x448/float16"
	"golang.org/x/exp/constraints"
)

func convertFloats[From, To constraints.Float](from []From) []To {
	to := make([]To, len(from))
	for ii, v := range from {
		to[ii] = To(v)
	}
	return to
}

// FromFloat64s creates a tensor of the given float dtype (Float16, Float32 or Float64) with the values
// converted from data.
//
// It returns an error for non-float dtypes or if len(data) doesn't match the dimensions.
func FromFloat64s(dtype dtypes.DType, data []float64, dimensions ...int) (*Tensor, error) {
	if !dtype.IsFloat() {
		return nil, errors.Errorf("tensors.FromFloat64s: dtype %s is not a float", dtype)
	}
	shape := shapes.Shape{DType: dtype, Dimensions: dimensions}
	if len(data) != shape.Size() {
		return nil, errors.Errorf("tensors.FromFloat64s(%s): data has %d elements, shape requires %d",
			shape, len(data), shape.Size())
	}
	for _, dim := range dimensions {
		if dim <= 0 {
			return nil, errors.Errorf("tensors.FromFloat64s(%s): dimensions must be > 0", shape)
		}
	}
	t := &Tensor{shape: shape.Clone()}
	switch dtype {
	case dtypes.Float64:
		t.flat = convertFloats[float64, float64](data)
	case dtypes.Float32:
		t.flat = convertFloats[float64, float32](data)
	case dtypes.Float16:
		flat := make([]float16.Float16, len(data))
		for ii, v := range data {
			flat[ii] = float16.Fromfloat32(float32(v))
		}
		t.flat = flat
	}
	return t, nil
}

// ToFloat64s returns a copy of the tensor values converted to float64.
//
// It works for float and integer dtypes, and returns an error for others (complex and bool).
func ToFloat64s(t *Tensor) (values []float64, err error) {
	t.ConstFlatData(func(flat any) {
		switch data := flat.(type) {
		case []float64:
			values = convertFloats[float64, float64](data)
		case []float32:
			values = convertFloats[float32, float64](data)
		case []float16.Float16:
			values = make([]float64, len(data))
			for ii, v := range data {
				values[ii] = float64(v.Float32())
			}
		case []int8:
			values = convertInts(data)
		case []int32:
			values = convertInts(data)
		case []int64:
			values = convertInts(data)
		default:
			err = errors.Errorf("tensors.ToFloat64s: dtype %s cannot be converted to float64", t.DType())
		}
	})
	return
}

func convertInts[From constraints.Integer](from []From) []float64 {
	to := make([]float64, len(from))
	for ii, v := range from {
		to[ii] = float64(v)
	}
	return to
}

// ToComplex128s returns a copy of the tensor values converted to complex128.
// Float and integer dtypes are converted with a zero imaginary part.
func ToComplex128s(t *Tensor) ([]complex128, error) {
	switch t.DType() {
	case dtypes.Complex128:
		return CopyFlatData[complex128](t), nil
	case dtypes.Complex64:
		flat := CopyFlatData[complex64](t)
		values := make([]complex128, len(flat))
		for ii, v := range flat {
			values[ii] = complex128(v)
		}
		return values, nil
	}
	realValues, err := ToFloat64s(t)
	if err != nil {
		return nil, err
	}
	values := make([]complex128, len(realValues))
	for ii, v := range realValues {
		values[ii] = complex(v, 0)
	}
	return values, nil
}

// FromComplexParts assembles a complex tensor from its real and imaginary parts.
//
// Both parts must have the same float dtype and dimensions. Float64 parts yield a Complex128 tensor,
// Float32 and Float16 parts yield Complex64.
func FromComplexParts(realPart, imagPart *Tensor) (*Tensor, error) {
	if !realPart.Shape().Equal(imagPart.Shape()) {
		return nil, errors.Errorf("tensors.FromComplexParts: real part shape %s and imaginary part shape %s differ",
			realPart.Shape(), imagPart.Shape())
	}
	re, err := ToFloat64s(realPart)
	if err != nil {
		return nil, errors.WithMessage(err, "tensors.FromComplexParts real part")
	}
	im, err := ToFloat64s(imagPart)
	if err != nil {
		return nil, errors.WithMessage(err, "tensors.FromComplexParts imaginary part")
	}
	complexDType := realPart.DType().ComplexDType()
	if complexDType == dtypes.InvalidDType || !realPart.DType().IsFloat() {
		return nil, errors.Errorf("tensors.FromComplexParts: parts must be floats, got %s", realPart.DType())
	}
	shape := realPart.Shape().WithDType(complexDType)
	t := &Tensor{shape: shape}
	if complexDType == dtypes.Complex128 {
		flat := make([]complex128, len(re))
		for ii := range flat {
			flat[ii] = complex(re[ii], im[ii])
		}
		t.flat = flat
	} else {
		flat := make([]complex64, len(re))
		for ii := range flat {
			flat[ii] = complex(float32(re[ii]), float32(im[ii]))
		}
		t.flat = flat
	}
	return t, nil
}

// Negate returns a new tensor with all values negated. For Bool tensors it returns the logical not.
func Negate(t *Tensor) *Tensor {
	negated := t.Clone()
	negated.MutableFlatData(func(flat any) {
		switch data := flat.(type) {
		case []float64:
			negateSlice(data)
		case []float32:
			negateSlice(data)
		case []float16.Float16:
			for ii, v := range data {
				data[ii] = float16.Fromfloat32(-v.Float32())
			}
		case []int8:
			negateSlice(data)
		case []int32:
			negateSlice(data)
		case []int64:
			negateSlice(data)
		case []complex64:
			negateSlice(data)
		case []complex128:
			negateSlice(data)
		case []bool:
			for ii, v := range data {
				data[ii] = !v
			}
		}
	})
	return negated
}

func negateSlice[T constraints.Signed | constraints.Float | constraints.Complex](data []T) {
	for ii, v := range data {
		data[ii] = -v
	}
}

// Equal checks whether the other tensor has the same shape and values.
// NaN values are never equal.
func (t *Tensor) Equal(other *Tensor) bool {
	if t == other {
		return true
	}
	if !t.shape.Equal(other.shape) {
		return false
	}
	otherFlat := other.Value()
	var equal bool
	t.ConstFlatData(func(flat any) {
		equal = reflect.DeepEqual(flat, otherFlat)
	})
	return equal
}

// InDelta checks whether the other tensor has the same shape, and that all values are within delta of each other.
// Complex values are compared by the modulus of their difference.
func (t *Tensor) InDelta(other *Tensor, delta float64) bool {
	if !t.shape.Equal(other.shape) {
		return false
	}
	if t.DType().IsComplex() {
		values, err0 := ToComplex128s(t)
		otherValues, err1 := ToComplex128s(other)
		if err0 != nil || err1 != nil {
			return false
		}
		for ii, v := range values {
			if cmplx.Abs(v-otherValues[ii]) > delta {
				return false
			}
		}
		return true
	}
	values, err0 := ToFloat64s(t)
	otherValues, err1 := ToFloat64s(other)
	if err0 != nil || err1 != nil {
		return t.Equal(other)
	}
	for ii, v := range values {
		if math.IsNaN(v) || math.IsNaN(otherValues[ii]) || math.Abs(v-otherValues[ii]) > delta {
			return false
		}
	}
	return true
}
