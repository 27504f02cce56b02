// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package initializer implements the scalar (real valued) parameter initializers, and a resolver
// (Get) that maps names or configurations to initializers.
//
// An Initializer is called with the shape (including the dtype) of the parameter to create, and
// returns a host tensor with its initial value.
//
// Float shapes are sampled as documented by each initializer. Complex shapes have both the real
// and imaginary parts sampled independently with the same distribution. Integer and bool dtypes
// are initialized with zeros, other dtypes are an error.
package initializer

import (
	"math"

	"github.com/gomlx/nqs/pkg/core/dtypes"
	"github.com/gomlx/nqs/pkg/core/shapes"
	"github.com/gomlx/nqs/pkg/core/tensors"
	"github.com/gomlx/nqs/pkg/ml/random"
	"github.com/pkg/errors"
)

// Initializer creates the initial value of a parameter with the given shape.
type Initializer func(shape shapes.Shape) (*tensors.Tensor, error)

var (
	// Zero initializes variables with zero.
	Zero Initializer = func(shape shapes.Shape) (*tensors.Tensor, error) {
		return Constant(0)(shape)
	}

	// One initializes variables with one.
	One Initializer = func(shape shapes.Shape) (*tensors.Tensor, error) {
		return Constant(1)(shape)
	}
)

// Constant returns an initializer that fills float and complex parameters with the given value.
// Complex parameters get the value in the real part and zero in the imaginary part.
func Constant(value float64) Initializer {
	return func(shape shapes.Shape) (*tensors.Tensor, error) {
		return sample(shape,
			func(n int) []float64 {
				values := make([]float64, n)
				for ii := range values {
					values[ii] = value
				}
				return values
			},
			func(n int) []float64 { return make([]float64, n) })
	}
}

// sample creates the tensor for shape, with the real values drawn from realFn and, for complex shapes,
// the imaginary values drawn from imagFn.
func sample(shape shapes.Shape, realFn, imagFn func(n int) []float64) (*tensors.Tensor, error) {
	if !shape.Ok() {
		return nil, errors.Errorf("cannot initialize parameter with invalid shape %s", shape)
	}
	switch {
	case shape.DType.IsFloat():
		return tensors.FromFloat64s(shape.DType, realFn(shape.Size()), shape.Dimensions...)
	case shape.DType.IsComplex():
		realDType := shape.DType.RealDType()
		re, err := tensors.FromFloat64s(realDType, realFn(shape.Size()), shape.Dimensions...)
		if err != nil {
			return nil, err
		}
		im, err := tensors.FromFloat64s(realDType, imagFn(shape.Size()), shape.Dimensions...)
		if err != nil {
			return nil, err
		}
		return tensors.FromComplexParts(re, im)
	case shape.DType.IsInt() || shape.DType == dtypes.Bool:
		return tensors.FromShape(shape), nil
	default:
		return nil, errors.Errorf("cannot initialize parameter with dtype %s", shape.DType)
	}
}

// Normal returns an initializer that generates random normal values with the given standard deviation
// and mean set to 0.
func Normal(rng *random.Random, stddev float64) Initializer {
	return func(shape shapes.Shape) (*tensors.Tensor, error) {
		gen := func(n int) []float64 { return rng.NormalValues(n, stddev) }
		return sample(shape, gen, gen)
	}
}

// Uniform returns an initializer that generates random uniform values from [minValue, maxValue).
func Uniform(rng *random.Random, minValue, maxValue float64) Initializer {
	return func(shape shapes.Shape) (*tensors.Tensor, error) {
		gen := func(n int) []float64 { return rng.UniformValues(n, minValue, maxValue) }
		return sample(shape, gen, gen)
	}
}

// ComputeFanInFanOut of a parameter expected to be the weights of either a dense layer or
// a convolution kernel:
//
//   - Scalar: fanIn = fanOut = 1.
//   - Rank 1: fanIn = fanOut = dimension.
//   - Rank 2, dense weights [inputs, outputs]: fanIn = inputs, fanOut = outputs.
//   - Rank >= 3, convolution kernels [spatial..., inputChannels, outputChannels]: fanIn = inputChannels * receptiveField,
//     fanOut = outputChannels * receptiveField, where receptiveField is the product of the spatial dimensions.
func ComputeFanInFanOut(shape shapes.Shape) (fanIn, fanOut int) {
	rank := shape.Rank()
	switch rank {
	case 0:
		fanIn = 1
		fanOut = fanIn
	case 1:
		fanIn = shape.Dimensions[0]
		fanOut = fanIn
	case 2:
		fanIn = shape.Dimensions[0]
		fanOut = shape.Dimensions[1]
	default:
		receptiveFieldSize := 1
		for _, dim := range shape.Dimensions[:rank-2] {
			receptiveFieldSize *= dim
		}
		fanIn = shape.Dimensions[rank-2] * receptiveFieldSize
		fanOut = shape.Dimensions[rank-1] * receptiveFieldSize
	}
	return
}

// GlorotUniform returns a Glorot uniform initializer, also called Xavier uniform initializer.
//
// It draws samples from a uniform distribution within `[-limit, limit)`, where
// `limit = sqrt(6 / (fanIn + fanOut))`. See ComputeFanInFanOut for the assumptions on the shape.
func GlorotUniform(rng *random.Random) Initializer {
	return func(shape shapes.Shape) (*tensors.Tensor, error) {
		fanIn, fanOut := ComputeFanInFanOut(shape)
		limit := math.Sqrt(6.0 / max(1.0, float64(fanIn+fanOut)))
		return Uniform(rng, -limit, limit)(shape)
	}
}

// GlorotNormal returns an initializer that generates random values with a normal distribution with mean 0
// and stddev of sqrt(2 / (fanIn+fanOut)).
func GlorotNormal(rng *random.Random) Initializer {
	return func(shape shapes.Shape) (*tensors.Tensor, error) {
		fanIn, fanOut := ComputeFanInFanOut(shape)
		stddev := math.Sqrt(2.0 / max(1.0, float64(fanIn+fanOut)))
		return Normal(rng, stddev)(shape)
	}
}

// HeNormal returns the initializer that tries to preserve the variance of 1, calculated for the Relu activation
// functions: normal distribution with stddev of sqrt(2 / fanIn).
//
// [1] https://arxiv.org/pdf/1502.01852
func HeNormal(rng *random.Random) Initializer {
	return func(shape shapes.Shape) (*tensors.Tensor, error) {
		fanIn, _ := ComputeFanInFanOut(shape)
		stddev := math.Sqrt(2.0 / max(1.0, float64(fanIn)))
		return Normal(rng, stddev)(shape)
	}
}

// HeUniform is the uniform version of HeNormal, sampling from `[-limit, limit)` with `limit = sqrt(6 / fanIn)`.
func HeUniform(rng *random.Random) Initializer {
	return func(shape shapes.Shape) (*tensors.Tensor, error) {
		fanIn, _ := ComputeFanInFanOut(shape)
		limit := math.Sqrt(6.0 / max(1.0, float64(fanIn)))
		return Uniform(rng, -limit, limit)(shape)
	}
}

// LecunNormal samples from a normal distribution with stddev of sqrt(1 / fanIn).
func LecunNormal(rng *random.Random) Initializer {
	return func(shape shapes.Shape) (*tensors.Tensor, error) {
		fanIn, _ := ComputeFanInFanOut(shape)
		stddev := math.Sqrt(1.0 / max(1.0, float64(fanIn)))
		return Normal(rng, stddev)(shape)
	}
}
