// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package complexinit implements initializers for complex valued parameters, stored as a pair of
// real tensors: one for the real part and one for the imaginary part.
//
// An Initializer produces both parts of a parameter in one call (Generate). For hosts that
// materialize each part separately, it also exposes RealPart and ImagPart as scalar
// initializer.Initializer values.
//
// The implementations compose:
//
//   - FromRealValueInitializers: two independent scalar initializers, one per part.
//   - Standard: the "complex_glorot" and "complex_he" schemes, with a Rayleigh distributed modulus
//     and a uniform phase, so real and imaginary parts are statistically coupled.
//   - Conjugate: the complex conjugate of another Initializer.
//   - Negate: a scalar initializer that negates the values of another one.
//
// Get resolves identifiers (an Initializer, a Pair of scalar specs, a preset name or a single
// scalar spec) into an Initializer.
package complexinit

import (
	"github.com/gomlx/nqs/pkg/core/shapes"
	"github.com/gomlx/nqs/pkg/core/tensors"
	"github.com/gomlx/nqs/pkg/ml/initializer"
	"github.com/gomlx/nqs/pkg/ml/random"
	"github.com/pkg/errors"
)

// Initializer of complex parameters, given as a pair of real tensors.
type Initializer interface {
	// Generate returns the real and imaginary parts of a new parameter with the given shape.
	// Both parts have the given shape.
	Generate(shape shapes.Shape) (realPart, imagPart *tensors.Tensor, err error)

	// RealPart returns a scalar initializer for the real part only.
	RealPart() initializer.Initializer

	// ImagPart returns a scalar initializer for the imaginary part only.
	ImagPart() initializer.Initializer
}

// Negate returns a scalar initializer whose values are the negated values of init, for the same shape.
func Negate(init initializer.Initializer) initializer.Initializer {
	return func(shape shapes.Shape) (*tensors.Tensor, error) {
		values, err := init(shape)
		if err != nil {
			return nil, err
		}
		return tensors.Negate(values), nil
	}
}

// Conjugated is the complex conjugate of a wrapped Initializer: `conj(a+bi) = a-bi`.
type Conjugated struct {
	wrapped Initializer
}

// Conjugate returns the complex conjugate of the initializer p.
func Conjugate(p Initializer) *Conjugated {
	return &Conjugated{wrapped: p}
}

// Unwrap returns the initializer being conjugated.
func (c *Conjugated) Unwrap() Initializer {
	return c.wrapped
}

// Generate implements Initializer.
func (c *Conjugated) Generate(shape shapes.Shape) (realPart, imagPart *tensors.Tensor, err error) {
	realPart, imagPart, err = c.wrapped.Generate(shape)
	if err != nil {
		return nil, nil, err
	}
	return realPart, tensors.Negate(imagPart), nil
}

// RealPart implements Initializer. It is the real part of the wrapped initializer.
func (c *Conjugated) RealPart() initializer.Initializer {
	return c.wrapped.RealPart()
}

// ImagPart implements Initializer. It is the negated imaginary part of the wrapped initializer.
func (c *Conjugated) ImagPart() initializer.Initializer {
	return Negate(c.wrapped.ImagPart())
}

// Independent initializes the real and imaginary parts with two independent scalar initializers.
type Independent struct {
	realPart, imagPart initializer.Initializer
}

// FromRealValueInitializers creates an Initializer whose parts are initialized independently by the
// scalar initializers resolved (with initializer.Get) from realSpec and imagSpec.
//
// The rng is used by the random scalar initializers. If nil, a clock-seeded generator is used.
func FromRealValueInitializers(realSpec, imagSpec initializer.Spec, rng *random.Random) (*Independent, error) {
	realPart, err := initializer.Get(realSpec, rng)
	if err != nil {
		return nil, errors.WithMessage(err, "resolving initializer of the real part")
	}
	imagPart, err := initializer.Get(imagSpec, rng)
	if err != nil {
		return nil, errors.WithMessage(err, "resolving initializer of the imaginary part")
	}
	return &Independent{realPart: realPart, imagPart: imagPart}, nil
}

// Generate implements Initializer. The real part is generated first.
func (ind *Independent) Generate(shape shapes.Shape) (realPart, imagPart *tensors.Tensor, err error) {
	realPart, err = ind.realPart(shape)
	if err != nil {
		return nil, nil, errors.WithMessagef(err, "real part of %s", shape)
	}
	imagPart, err = ind.imagPart(shape)
	if err != nil {
		return nil, nil, errors.WithMessagef(err, "imaginary part of %s", shape)
	}
	return
}

// RealPart implements Initializer.
func (ind *Independent) RealPart() initializer.Initializer {
	return ind.realPart
}

// ImagPart implements Initializer.
func (ind *Independent) ImagPart() initializer.Initializer {
	return ind.imagPart
}

// GenerateComplex uses init to create a complex tensor with the given shape.
//
// If shape.DType is complex, the parts are generated with the corresponding real dtype.
// If it is a float, the result has the complex dtype whose components are of that float
// (Float64 gives Complex128, Float16 and Float32 give Complex64).
func GenerateComplex(init Initializer, shape shapes.Shape) (*tensors.Tensor, error) {
	partsShape := shape
	if shape.DType.IsComplex() {
		partsShape = shape.WithDType(shape.DType.RealDType())
	} else if !shape.DType.IsFloat() {
		return nil, errors.Errorf("complexinit.GenerateComplex: shape %s must be float or complex", shape)
	}
	realPart, imagPart, err := init.Generate(partsShape)
	if err != nil {
		return nil, err
	}
	return tensors.FromComplexParts(realPart, imagPart)
}
