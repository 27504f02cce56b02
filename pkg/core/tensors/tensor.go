// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package tensors implement a host `Tensor`, a representation of a multidimensional array stored
// in CPU memory as a flat Go slice.
//
// Tensors are the values produced by the parameter initializers and consumed/produced by the
// samplers. There are various ways to construct a Tensor:
//
//   - FromShape(shape shapes.Shape): creates a tensor with the given shape, and zero values.
//
//   - FromScalarAndDimensions[T dtypes.Supported](value T, dimensions ...int): creates a Tensor with the
//     given dimensions, filled with the scalar value given.
//
//   - FromFlatDataAndDimensions[T dtypes.Supported](data []T, dimensions ...int): creates a Tensor with the
//     given dimensions and set the flattened values with the given data. Example:
//
//     t := FromFlatDataAndDimensions([]float32{1, 2, 3, 4}, 2, 2}) // Tensor with [[1,2], [3,4]]
//
//   - FromFloat64s(dtype, data, dimensions...): converts float64 data to any float dtype (Float16,
//     Float32 or Float64). Used by the initializers, which compute in float64.
//
// The flat data is always stored in row-major order, see shapes.Shape.Strides.
package tensors

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/nqs/pkg/core/dtypes"
	"github.com/gomlx/nqs/pkg/core/shapes"
)

// Tensor represents a multidimensional array (from scalar with 0 dimensions, to arbitrarily large dimensions), defined
// by their shape, a data type (dtypes.DType) and its axes' dimensions, and their actual content stored as a flat (1D)
// slice of values.
//
// Access to the data is done through ConstFlatData and MutableFlatData, which lock the tensor while the
// accessor function runs.
type Tensor struct {
	// shape of the tensor, immutable.
	shape shapes.Shape

	// mu protects flat.
	mu sync.Mutex

	// flat holds the slice with the actual data, of the Go type corresponding to shape.DType.
	flat any
}

// FromShape returns a Tensor with the given shape, with the data initialized with zeros.
//
// It panics if you provide an invalid shape.
func FromShape(shape shapes.Shape) *Tensor {
	if !shape.Ok() {
		exceptions.Panicf("tensors.FromShape: invalid shape %s", shape)
	}
	size := shape.Size()
	flatV := reflect.MakeSlice(reflect.SliceOf(shape.DType.GoType()), size, size)
	return &Tensor{shape: shape.Clone(), flat: flatV.Interface()}
}

// FromFlatDataAndDimensions creates a tensor with the given dimensions, taking ownership of the given flat data.
//
// It panics if len(data) doesn't match the size implied by the dimensions.
func FromFlatDataAndDimensions[T dtypes.Supported](data []T, dimensions ...int) *Tensor {
	shape := shapes.Make(dtypes.FromGenericsType[T](), dimensions...)
	if len(data) != shape.Size() {
		exceptions.Panicf("FromFlatDataAndDimensions(%s): data has %d elements, shape requires %d",
			shape, len(data), shape.Size())
	}
	return &Tensor{shape: shape, flat: data}
}

// FromScalarAndDimensions creates a tensor with the given dimensions, filled with the given value.
func FromScalarAndDimensions[T dtypes.Supported](value T, dimensions ...int) *Tensor {
	shape := shapes.Make(dtypes.FromGenericsType[T](), dimensions...)
	flat := make([]T, shape.Size())
	for ii := range flat {
		flat[ii] = value
	}
	return &Tensor{shape: shape, flat: flat}
}

// FromScalar creates a scalar tensor with the given value.
func FromScalar[T dtypes.Supported](value T) *Tensor {
	return FromScalarAndDimensions(value)
}

// Shape of the tensor.
func (t *Tensor) Shape() shapes.Shape { return t.shape }

// DType of the tensor's elements.
func (t *Tensor) DType() dtypes.DType { return t.shape.DType }

// Rank of the tensor.
func (t *Tensor) Rank() int { return t.shape.Rank() }

// Size is the number of elements of the tensor.
func (t *Tensor) Size() int { return t.shape.Size() }

// IsScalar returns whether the tensor holds a single value (rank 0).
func (t *Tensor) IsScalar() bool { return t.shape.IsScalar() }

// ConstFlatData calls accessFn with the flattened data as a slice of the Go type corresponding to the DType type.
// It locks the Tensor until accessFn returns.
//
// The slice is owned by the Tensor and should not be changed. See MutableFlatData.
func (t *Tensor) ConstFlatData(accessFn func(flat any)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	accessFn(t.flat)
}

// MutableFlatData calls accessFn with the flattened data as a slice of the Go type corresponding to the DType type.
// The contents of the slice can be changed until accessFn returns. During this time the Tensor is locked.
func (t *Tensor) MutableFlatData(accessFn func(flat any)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	accessFn(t.flat)
}

// ConstFlatData is the "generics" version of Tensor.ConstFlatData.
//
// It panics if T doesn't match the tensor's dtype.
func ConstFlatData[T dtypes.Supported](t *Tensor, accessFn func(flat []T)) {
	assertGenericsType[T](t, "ConstFlatData")
	t.ConstFlatData(func(anyFlat any) {
		accessFn(anyFlat.([]T))
	})
}

// MutableFlatData is the "generics" version of Tensor.MutableFlatData.
//
// It panics if T doesn't match the tensor's dtype.
func MutableFlatData[T dtypes.Supported](t *Tensor, accessFn func(flat []T)) {
	assertGenericsType[T](t, "MutableFlatData")
	t.MutableFlatData(func(anyFlat any) {
		accessFn(anyFlat.([]T))
	})
}

// CopyFlatData returns a copy of the flat data of the Tensor.
//
// It panics if T doesn't match the tensor's dtype.
func CopyFlatData[T dtypes.Supported](t *Tensor) []T {
	var flatCopy []T
	ConstFlatData(t, func(flat []T) {
		flatCopy = make([]T, len(flat))
		copy(flatCopy, flat)
	})
	return flatCopy
}

func assertGenericsType[T dtypes.Supported](t *Tensor, fnName string) {
	if t.shape.DType != dtypes.FromGenericsType[T]() {
		var v T
		exceptions.Panicf("%s[%T] is incompatible with Tensor's dtype %s -- expected dtype %s",
			fnName, v, t.shape.DType, dtypes.FromGenericsType[T]())
	}
}

// Clone returns a deep copy of the tensor.
func (t *Tensor) Clone() *Tensor {
	clone := &Tensor{shape: t.shape.Clone()}
	t.ConstFlatData(func(flat any) {
		flatV := reflect.ValueOf(flat)
		size := flatV.Len()
		cloneFlatV := reflect.MakeSlice(flatV.Type(), size, size)
		reflect.Copy(cloneFlatV, flatV)
		clone.flat = cloneFlatV.Interface()
	})
	return clone
}

// Value returns a copy of the flat data, as a slice of the Go type of the dtype (e.g. []float32).
func (t *Tensor) Value() any {
	return t.Clone().flat
}

// String implements fmt.Stringer. Large tensors are summarized.
func (t *Tensor) String() string {
	const maxElements = 32
	var dataStr string
	t.ConstFlatData(func(flat any) {
		flatV := reflect.ValueOf(flat)
		if flatV.Len() > maxElements {
			dataStr = fmt.Sprintf("%v...", flatV.Slice(0, maxElements).Interface())
		} else {
			dataStr = fmt.Sprintf("%v", flat)
		}
	})
	return fmt.Sprintf("%s%s", t.shape, dataStr)
}
