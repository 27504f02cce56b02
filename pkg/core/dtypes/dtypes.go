// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package dtypes includes the DType enum for the data types supported by the nqs host tensors.
//
// The numbering follows the PJRT buffer types used across GoMLX, so values can be exchanged with
// GoMLX graphs without translation. Only the subset useful to parameter initialization and
// lattice sampling is enumerated here.
//
// It also includes converters from Go native types and constraint interfaces to be used with
// generics (Supported, GoFloat, GoComplex).
package dtypes

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/x448/float16"
)

// DType is an enum that represents the data type of a tensor.
type DType int32

const (
	// InvalidDType is the zero value, used to mark an unset or unknown dtype.
	InvalidDType DType = 0

	// Bool are two-state booleans.
	Bool DType = 1

	// Int8 is used to store spin values compactly.
	Int8 DType = 2

	Int32 DType = 4
	Int64 DType = 5

	// Float16 is IEEE half precision, backed by github.com/x448/float16.
	Float16 DType = 10
	Float32 DType = 11
	Float64 DType = 12

	// Complex64 is paired Float32 (real, imag).
	Complex64 DType = 14

	// Complex128 is paired Float64 (real, imag).
	Complex128 DType = 15
)

// Aliases for the most common dtypes.
const (
	F16  = Float16
	F32  = Float32
	F64  = Float64
	C64  = Complex64
	C128 = Complex128
)

// panicf panics with the formatted description.
//
// It is only used for "bugs in the code" -- when parameters don't follow the specifications.
func panicf(format string, args ...any) {
	panic(errors.Errorf(format, args...))
}

func init() {
	// Only works for 32 and 64 bits platforms.
	if strconv.IntSize != 32 && strconv.IntSize != 64 {
		panicf("cannot use int of %d bits -- only platforms with int32 or int64 are supported", strconv.IntSize)
	}
}

var dtypeNames = map[DType]string{
	InvalidDType: "InvalidDType",
	Bool:         "Bool",
	Int8:         "Int8",
	Int32:        "Int32",
	Int64:        "Int64",
	Float16:      "Float16",
	Float32:      "Float32",
	Float64:      "Float64",
	Complex64:    "Complex64",
	Complex128:   "Complex128",
}

// String implements fmt.Stringer.
func (dtype DType) String() string {
	if name, found := dtypeNames[dtype]; found {
		return name
	}
	return "DType(" + strconv.Itoa(int(dtype)) + ")"
}

// FromName returns the DType for the given name, case-insensitive. E.g.: "float32", "Float32" and "F32".
// It returns InvalidDType if the name is not known.
func FromName(name string) DType {
	lowerName := strings.ToLower(name)
	for dtype, dtypeName := range dtypeNames {
		if dtype != InvalidDType && strings.ToLower(dtypeName) == lowerName {
			return dtype
		}
	}
	switch lowerName {
	case "f16":
		return Float16
	case "f32":
		return Float32
	case "f64":
		return Float64
	case "c64":
		return Complex64
	case "c128":
		return Complex128
	}
	return InvalidDType
}

// Supported lists the Go types the host tensors know how to store.
// Used as traits for generics.
type Supported interface {
	bool | int8 | int32 | int64 | float16.Float16 | float32 | float64 | complex64 | complex128
}

// GoFloat represent a continuous real Go numeric type.
type GoFloat interface {
	float32 | float64
}

// GoComplex represent the Go complex numeric types.
type GoComplex interface {
	complex64 | complex128
}

// FromGenericsType returns the DType enum for the given type that this package knows about.
func FromGenericsType[T Supported]() DType {
	var t T
	switch (any(t)).(type) {
	case float64:
		return Float64
	case float32:
		return Float32
	case float16.Float16:
		return Float16
	case int64:
		return Int64
	case int32:
		return Int32
	case int8:
		return Int8
	case bool:
		return Bool
	case complex64:
		return Complex64
	case complex128:
		return Complex128
	}
	return InvalidDType
}

var float16Type = reflect.TypeOf(float16.Float16(0))

// GoType returns the Go `reflect.Type` corresponding to the tensor DType.
func (dtype DType) GoType() reflect.Type {
	switch dtype {
	case Bool:
		return reflect.TypeOf(true)
	case Int8:
		return reflect.TypeOf(int8(0))
	case Int32:
		return reflect.TypeOf(int32(0))
	case Int64:
		return reflect.TypeOf(int64(0))
	case Float16:
		return float16Type
	case Float32:
		return reflect.TypeOf(float32(0))
	case Float64:
		return reflect.TypeOf(float64(0))
	case Complex64:
		return reflect.TypeOf(complex64(0))
	case Complex128:
		return reflect.TypeOf(complex128(0))
	default:
		panicf("unknown dtype %q (%d) in DType.GoType", dtype, dtype)
		panic(nil)
	}
}

// Size returns the number of bytes for the given DType.
func (dtype DType) Size() int {
	return int(dtype.GoType().Size())
}

// Memory returns the number of bytes for the given DType.
// It's an alias to Size, converted to uintptr.
func (dtype DType) Memory() uintptr {
	return uintptr(dtype.Size())
}

// IsFloat returns whether dtype is a supported float. It returns false for complex numbers.
func (dtype DType) IsFloat() bool {
	return dtype == Float16 || dtype == Float32 || dtype == Float64
}

// IsComplex returns whether dtype is a supported complex number type.
func (dtype DType) IsComplex() bool {
	return dtype == Complex64 || dtype == Complex128
}

// IsInt returns whether dtype is a supported integer type.
func (dtype DType) IsInt() bool {
	return dtype == Int8 || dtype == Int32 || dtype == Int64
}

// RealDType returns the real component of complex dtypes.
// For float dtypes, it returns itself.
//
// It returns InvalidDType for other non-(complex or float) dtypes.
func (dtype DType) RealDType() DType {
	if dtype.IsFloat() {
		return dtype
	}
	switch dtype {
	case Complex64:
		return Float32
	case Complex128:
		return Float64
	default:
		return InvalidDType
	}
}

// ComplexDType returns the complex dtype whose components are of the given float dtype.
// Float16 and Float32 map to Complex64, Float64 to Complex128. Complex dtypes return themselves.
//
// It returns InvalidDType for other dtypes.
func (dtype DType) ComplexDType() DType {
	switch dtype {
	case Float16, Float32, Complex64:
		return Complex64
	case Float64, Complex128:
		return Complex128
	default:
		return InvalidDType
	}
}
