// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package random provides the host random number generator used by the initializers and samplers.
//
// Random wraps a math/rand/v2 PCG source and samples through gonum's distuv distributions.
// It is safe for concurrent use, but concurrent callers will observe interleaved streams:
// use Split to give each goroutine its own reproducible generator.
package random

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/gomlx/nqs/pkg/core/shapes"
	"github.com/gomlx/nqs/pkg/core/tensors"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat/distuv"
	"k8s.io/klog/v2"
)

// NoSeed can be given to NewWithSeed to have a seed picked from the nanosecond clock.
const NoSeed = int64(0)

// seedIncrement is used to derive the second PCG word from the seed.
const seedIncrement = 0x9e3779b97f4a7c15

// Random is a seedable random number generator of host tensors.
type Random struct {
	mu      sync.Mutex
	seed    int64
	src     *rand.PCG
	normal  distuv.Normal
	uniform distuv.Uniform
}

// New creates a new Random seeded from the nanosecond clock.
func New() *Random {
	return NewWithSeed(NoSeed)
}

// NewWithSeed creates a new Random with the given seed.
// If seed is NoSeed (0), a seed is picked from the nanosecond clock.
func NewWithSeed(seed int64) *Random {
	if seed == NoSeed {
		seed = time.Now().UnixNano()
		klog.V(2).Infof("random: picked seed %d", seed)
	}
	src := rand.NewPCG(uint64(seed), uint64(seed)^seedIncrement)
	return &Random{
		seed:    seed,
		src:     src,
		normal:  distuv.Normal{Mu: 0, Sigma: 1, Src: src},
		uniform: distuv.Uniform{Min: 0, Max: 1, Src: src},
	}
}

// Seed used to create the generator.
func (r *Random) Seed() int64 {
	return r.seed
}

// Split returns a new generator, independent of ("split from") this one.
// Its seed is drawn from this generator, so splitting is itself reproducible.
func (r *Random) Split() *Random {
	r.mu.Lock()
	defer r.mu.Unlock()
	seed := int64(r.src.Uint64() >> 1)
	if seed == NoSeed {
		seed = 1
	}
	return NewWithSeed(seed)
}

// NormalValues returns n values sampled from a normal distribution with mean 0 and the given standard deviation.
func (r *Random) NormalValues(n int, stddev float64) []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	values := make([]float64, n)
	for ii := range values {
		values[ii] = r.normal.Rand() * stddev
	}
	return values
}

// UniformValues returns n values sampled uniformly from [minValue, maxValue).
func (r *Random) UniformValues(n int, minValue, maxValue float64) []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	values := make([]float64, n)
	for ii := range values {
		values[ii] = minValue + r.uniform.Rand()*(maxValue-minValue)
	}
	return values
}

// Normal returns a tensor of the given float shape with values from a normal distribution with mean 0
// and standard deviation 1.
func (r *Random) Normal(shape shapes.Shape) (*tensors.Tensor, error) {
	if !shape.DType.IsFloat() {
		return nil, errors.Errorf("random.Normal requires a float dtype, got shape %s", shape)
	}
	return tensors.FromFloat64s(shape.DType, r.NormalValues(shape.Size(), 1), shape.Dimensions...)
}

// Uniform returns a tensor of the given float shape with values sampled uniformly from [0, 1).
func (r *Random) Uniform(shape shapes.Shape) (*tensors.Tensor, error) {
	if !shape.DType.IsFloat() {
		return nil, errors.Errorf("random.Uniform requires a float dtype, got shape %s", shape)
	}
	return tensors.FromFloat64s(shape.DType, r.UniformValues(shape.Size(), 0, 1), shape.Dimensions...)
}
