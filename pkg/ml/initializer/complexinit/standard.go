// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package complexinit

import (
	"math"
	"sync"

	"github.com/gomlx/nqs/pkg/core/shapes"
	"github.com/gomlx/nqs/pkg/core/tensors"
	"github.com/gomlx/nqs/pkg/ml/initializer"
	"github.com/gomlx/nqs/pkg/ml/random"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

var (
	// ErrInvalidConfiguration is returned (wrapped) when a Standard initializer has an unknown criterion.
	ErrInvalidConfiguration = errors.New("invalid complex initializer configuration")

	// ErrInconsistentShape is returned (wrapped) when the imaginary part view of a Standard initializer is
	// used without a preceding call to the real part view for the same shape.
	ErrInconsistentShape = errors.New("imaginary part requested without matching real part")
)

// Criterion selects the variance scaling rule of the Standard initializer.
type Criterion string

const (
	// Glorot scales by 1/(fanIn+fanOut).
	Glorot Criterion = "glorot"

	// He scales by 1/fanIn.
	He Criterion = "he"
)

// Scale returns the scale for a parameter with the given fans, or an ErrInvalidConfiguration error
// for an unknown criterion.
func (c Criterion) Scale(fanIn, fanOut int) (float64, error) {
	switch c {
	case Glorot:
		return 1.0 / float64(fanIn+fanOut), nil
	case He:
		return 1.0 / float64(fanIn), nil
	default:
		return 0, errors.Wrapf(ErrInvalidConfiguration, "invalid criterion %q", string(c))
	}
}

// Rayleigh returns n values sampled from a Rayleigh distribution, as the modulus `sqrt(x²+y²)` of two
// independent normal values x and y with mean 0 and standard deviation `scale²`.
//
// Notice the Rayleigh parameter is scale², not scale.
func Rayleigh(rng *random.Random, n int, scale float64) []float64 {
	scaleSquared := scale * scale
	x := rng.NormalValues(n, scaleSquared)
	y := rng.NormalValues(n, scaleSquared)
	modulus := make([]float64, n)
	for ii := range modulus {
		modulus[ii] = math.Sqrt(x[ii]*x[ii] + y[ii]*y[ii])
	}
	return modulus
}

// Standard initializes complex parameters with a Rayleigh distributed modulus (see Rayleigh) whose
// scale depends on the fans of the parameter and the Criterion, and a phase uniformly distributed
// in [-π, π). The parts are `modulus * cos(phase)` and `modulus * sin(phase)`.
//
// Generate creates both parts at once and is the preferred way to use it. The RealPart and ImagPart
// views share state: each call to the real part view draws a new modulus and phase, and the following
// call to the imaginary part view, for the same shape, returns the matching imaginary part.
// Calling the imaginary part view in any other order fails with ErrInconsistentShape.
type Standard struct {
	criterion Criterion
	rng       *random.Random

	mu sync.Mutex

	// modulus and phase of the last generated parameter.
	modulus, phase *tensors.Tensor

	// pendingShape and pendingImag are set by the real part view, and consumed by the imaginary part view.
	pendingShape shapes.Shape
	pendingImag  *tensors.Tensor
}

// NewStandard creates a Standard initializer with the given criterion.
// The criterion is only validated when generating values.
//
// If rng is nil, a clock-seeded generator is used.
func NewStandard(criterion Criterion, rng *random.Random) *Standard {
	if rng == nil {
		rng = random.New()
	}
	return &Standard{criterion: criterion, rng: rng}
}

// Criterion used by the initializer.
func (s *Standard) Criterion() Criterion {
	return s.criterion
}

// Modulus returns the modulus tensor of the last generated parameter, or nil if none was generated yet.
func (s *Standard) Modulus() *tensors.Tensor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.modulus
}

// Phase returns the phase tensor of the last generated parameter, or nil if none was generated yet.
func (s *Standard) Phase() *tensors.Tensor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Generate implements Initializer.
//
// The shape must have a float dtype: Float16, Float32 or Float64.
func (s *Standard) Generate(shape shapes.Shape) (realPart, imagPart *tensors.Tensor, err error) {
	if !shape.DType.IsFloat() {
		return nil, nil, errors.Errorf("complexinit.Standard(%s): parts of shape %s must be float", s.criterion, shape)
	}
	fanIn, fanOut := initializer.ComputeFanInFanOut(shape)
	scale, err := s.criterion.Scale(fanIn, fanOut)
	if err != nil {
		return nil, nil, err
	}
	klog.V(2).Infof("complexinit.Standard(%s): shape=%s fanIn=%d fanOut=%d scale=%g",
		s.criterion, shape, fanIn, fanOut, scale)

	size := shape.Size()
	modulus := Rayleigh(s.rng, size, scale)
	phase := s.rng.UniformValues(size, -math.Pi, math.Pi)
	re := make([]float64, size)
	im := make([]float64, size)
	for ii := range modulus {
		sin, cos := math.Sincos(phase[ii])
		re[ii] = cos * modulus[ii]
		im[ii] = sin * modulus[ii]
	}

	toTensor := func(data []float64) *tensors.Tensor {
		if err != nil {
			return nil
		}
		var t *tensors.Tensor
		t, err = tensors.FromFloat64s(shape.DType, data, shape.Dimensions...)
		return t
	}
	realPart, imagPart = toTensor(re), toTensor(im)
	modulusT, phaseT := toTensor(modulus), toTensor(phase)
	if err != nil {
		return nil, nil, err
	}

	s.mu.Lock()
	s.modulus, s.phase = modulusT, phaseT
	s.mu.Unlock()
	return realPart, imagPart, nil
}

// RealPart implements Initializer. Each call generates a new parameter, and keeps its imaginary part
// for the next call to the ImagPart view.
func (s *Standard) RealPart() initializer.Initializer {
	return func(shape shapes.Shape) (*tensors.Tensor, error) {
		realPart, imagPart, err := s.Generate(shape)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.pendingImag != nil {
			klog.Warningf("complexinit.Standard(%s): imaginary part for shape %s was never used",
				s.criterion, s.pendingShape)
		}
		s.pendingShape = shape.Clone()
		s.pendingImag = imagPart
		return realPart, nil
	}
}

// ImagPart implements Initializer. It returns the imaginary part matching the last call to the RealPart view,
// which must have been for the same shape.
func (s *Standard) ImagPart() initializer.Initializer {
	return func(shape shapes.Shape) (*tensors.Tensor, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.pendingImag == nil {
			return nil, errors.Wrapf(ErrInconsistentShape,
				"complexinit.Standard(%s): imaginary part of %s requested before its real part", s.criterion, shape)
		}
		if !s.pendingShape.Equal(shape) {
			return nil, errors.Wrapf(ErrInconsistentShape,
				"complexinit.Standard(%s): imaginary part requested for %s, but last real part was for %s",
				s.criterion, shape, s.pendingShape)
		}
		imagPart := s.pendingImag
		s.pendingImag = nil
		return imagPart, nil
	}
}
