// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package wavefunction implements a linear autoregressive wavefunction over a 1D or 2D lattice of spins,
// with complex parameters created by a complexinit.Initializer.
//
// With the sites s_0, ..., s_{N-1} in raster order, each taking values in {-1, +1}, the model defines
//
//	θ_i = b_i + Σ_{j<i} W_ij s_j
//	p(s_i = +1 | s_<i) = σ(2 Re θ_i)
//
// and the phase of site i is s_i Im θ_i. It implements sampler.Model: Predict returns the conditional
// log-probabilities of each site, so it can be sampled with sampler.Autoregressive.
package wavefunction

import (
	"context"
	"math"
	"runtime"
	"slices"

	"github.com/gomlx/nqs/internal/workerspool"
	"github.com/gomlx/nqs/pkg/core/dtypes"
	"github.com/gomlx/nqs/pkg/core/shapes"
	"github.com/gomlx/nqs/pkg/core/tensors"
	"github.com/gomlx/nqs/pkg/ml/initializer/complexinit"
	"github.com/gomlx/nqs/pkg/ml/random"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"k8s.io/klog/v2"
)

// DefaultInitializer used for the weights and biases.
const DefaultInitializer = complexinit.PresetGlorot

// Builder for a Linear wavefunction. Create it with New, and call Done to build the model.
type Builder struct {
	dims        []int
	initID      any
	biasInitID  any
	rng         *random.Random
	parallelism int
}

// New returns a Builder for a Linear wavefunction over a lattice with the given dimensions.
func New(dims ...int) *Builder {
	return &Builder{
		dims:        slices.Clone(dims),
		initID:      DefaultInitializer,
		biasInitID:  "zeros",
		parallelism: runtime.NumCPU(),
	}
}

// WithInitializer sets the complex initializer of the weights, anything accepted by complexinit.Get.
// It defaults to DefaultInitializer.
func (b *Builder) WithInitializer(id any) *Builder {
	b.initID = id
	return b
}

// WithBiasInitializer sets the complex initializer of the biases, anything accepted by complexinit.Get.
// It defaults to "zeros".
func (b *Builder) WithBiasInitializer(id any) *Builder {
	b.biasInitID = id
	return b
}

// WithRandom sets the random number generator used by the initializers.
func (b *Builder) WithRandom(rng *random.Random) *Builder {
	b.rng = rng
	return b
}

// WithParallelism sets the number of examples evaluated in parallel. 0 disables parallelism, and -1
// makes it unlimited. It defaults to the number of CPUs.
func (b *Builder) WithParallelism(parallelism int) *Builder {
	b.parallelism = parallelism
	return b
}

// Done creates the Linear wavefunction, initializing its parameters.
func (b *Builder) Done() (*Linear, error) {
	if len(b.dims) != 1 && len(b.dims) != 2 {
		return nil, errors.Errorf("wavefunction.New(%v): only 1D and 2D lattices are supported", b.dims)
	}
	for _, dim := range b.dims {
		if dim <= 0 {
			return nil, errors.Errorf("wavefunction.New(%v): invalid lattice dimensions", b.dims)
		}
	}
	rng := b.rng
	if rng == nil {
		rng = random.New()
	}
	m := &Linear{
		lattice: shapes.Make(dtypes.Float32, b.dims...),
		pool:    workerspool.NewWithParallelism(b.parallelism),
	}
	m.numSites = m.lattice.Size()

	weightsInit, err := complexinit.Get(b.initID, rng)
	if err != nil {
		return nil, errors.WithMessage(err, "wavefunction: weights initializer")
	}
	m.weightsRe, m.weightsIm, err = weightsInit.Generate(shapes.Make(dtypes.Float64, m.numSites, m.numSites))
	if err != nil {
		return nil, errors.WithMessage(err, "wavefunction: initializing weights")
	}
	biasInit, err := complexinit.Get(b.biasInitID, rng)
	if err != nil {
		return nil, errors.WithMessage(err, "wavefunction: bias initializer")
	}
	m.biasRe, m.biasIm, err = biasInit.Generate(shapes.Make(dtypes.Float64, m.numSites))
	if err != nil {
		return nil, errors.WithMessage(err, "wavefunction: initializing biases")
	}

	// Only W_ij with j < i are used: keep the strictly lower triangle.
	for _, w := range []*tensors.Tensor{m.weightsRe, m.weightsIm} {
		tensors.MutableFlatData[float64](w, func(flat []float64) {
			for i := range m.numSites {
				clear(flat[i*m.numSites+i : (i+1)*m.numSites])
			}
		})
	}
	n := m.numSites
	m.wRe = mat.NewDense(n, n, tensors.CopyFlatData[float64](m.weightsRe))
	m.wIm = mat.NewDense(n, n, tensors.CopyFlatData[float64](m.weightsIm))
	m.bRe = mat.NewVecDense(n, tensors.CopyFlatData[float64](m.biasRe))
	m.bIm = mat.NewVecDense(n, tensors.CopyFlatData[float64](m.biasIm))
	klog.V(1).Infof("wavefunction: created %s with %d sites, initializer %v", m.lattice, m.numSites, b.initID)
	return m, nil
}

// Linear is a linear autoregressive wavefunction. It is immutable after creation and safe for concurrent use.
type Linear struct {
	lattice  shapes.Shape
	numSites int
	pool     *workerspool.Pool

	weightsRe, weightsIm, biasRe, biasIm *tensors.Tensor

	// Copies of the parameters used by the forward pass.
	wRe, wIm *mat.Dense
	bRe, bIm *mat.VecDense
}

// InputShape implements sampler.Model.
func (m *Linear) InputShape() []int {
	return slices.Clone(m.lattice.Dimensions)
}

// NumSites in the lattice.
func (m *Linear) NumSites() int {
	return m.numSites
}

// Parallelism returns the number of examples evaluated in parallel: 0 if disabled, -1 if unlimited.
func (m *Linear) Parallelism() int {
	return m.pool.MaxParallelism()
}

// Weights returns copies of the real and imaginary parts of the weights, shaped [numSites, numSites].
func (m *Linear) Weights() (realPart, imagPart *tensors.Tensor) {
	return m.weightsRe.Clone(), m.weightsIm.Clone()
}

// Biases returns copies of the real and imaginary parts of the biases, shaped [numSites].
func (m *Linear) Biases() (realPart, imagPart *tensors.Tensor) {
	return m.biasRe.Clone(), m.biasIm.Clone()
}

// logSigmoid returns log(σ(x)), stable for large |x|.
func logSigmoid(x float64) float64 {
	if x >= 0 {
		return -math.Log1p(math.Exp(-x))
	}
	return x - math.Log1p(math.Exp(x))
}

// theta computes θ = b + W·s for one configuration.
func (m *Linear) theta(spins []float64) (thetaRe, thetaIm []float64) {
	s := mat.NewVecDense(m.numSites, spins)
	var re, im mat.VecDense
	re.MulVec(m.wRe, s)
	re.AddVec(&re, m.bRe)
	im.MulVec(m.wIm, s)
	im.AddVec(&im, m.bIm)
	return re.RawVector().Data, im.RawVector().Data
}

// spins returns the flat configurations of batch, after checking its shape.
func (m *Linear) spins(batch *tensors.Tensor) (batchSize int, spins []float64, err error) {
	shape := batch.Shape()
	if shape.Rank() != m.lattice.Rank()+1 || !slices.Equal(shape.Dimensions[1:], m.lattice.Dimensions) {
		err = errors.Errorf("wavefunction: batch shaped %s, wanted [batch_size] + %v", shape, m.lattice.Dimensions)
		return
	}
	spins, err = tensors.ToFloat64s(batch)
	if err != nil {
		err = errors.WithMessage(err, "wavefunction: batch")
		return
	}
	return shape.Dim(0), spins, nil
}

// forEachExample calls fn for each example of the batch, in chunks of miniBatchSize examples,
// with the examples of a chunk evaluated in parallel.
func (m *Linear) forEachExample(ctx context.Context, batchSize, miniBatchSize int, fn func(example int) error) error {
	if miniBatchSize <= 0 {
		miniBatchSize = batchSize
	}
	for start := 0; start < batchSize; start += miniBatchSize {
		end := min(start+miniBatchSize, batchSize)
		err := m.pool.ForEach(ctx, end-start, func(ii int) error { return fn(start + ii) })
		if err != nil {
			return err
		}
	}
	return nil
}

// Predict implements sampler.Model. It returns a Float32 tensor shaped [batchSize] + InputShape() + [2], with
// log p(s_i = +1 | s_<i) in channel 0 and log p(s_i = -1 | s_<i) in channel 1.
func (m *Linear) Predict(ctx context.Context, batch *tensors.Tensor, miniBatchSize int) (*tensors.Tensor, error) {
	batchSize, spins, err := m.spins(batch)
	if err != nil {
		return nil, err
	}
	n := m.numSites
	logProbs := make([]float32, batchSize*n*2)
	err = m.forEachExample(ctx, batchSize, miniBatchSize, func(example int) error {
		thetaRe, _ := m.theta(spins[example*n : (example+1)*n])
		out := logProbs[example*n*2 : (example+1)*n*2]
		for i, re := range thetaRe {
			out[2*i] = float32(logSigmoid(2 * re))
			out[2*i+1] = float32(logSigmoid(-2 * re))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	dims := append([]int{batchSize}, m.lattice.Dimensions...)
	dims = append(dims, 2)
	return tensors.FromFlatDataAndDimensions(logProbs, dims...), nil
}

// LogAmplitude returns the complex log-amplitude log ψ(s) of each configuration of the batch, shaped [batchSize]:
//
//	log ψ(s) = Σ_i ½ log p(s_i | s_<i) + i s_i Im θ_i
func (m *Linear) LogAmplitude(ctx context.Context, batch *tensors.Tensor) (*tensors.Tensor, error) {
	batchSize, spins, err := m.spins(batch)
	if err != nil {
		return nil, err
	}
	n := m.numSites
	amplitudes := make([]complex128, batchSize)
	err = m.forEachExample(ctx, batchSize, batchSize, func(example int) error {
		config := spins[example*n : (example+1)*n]
		thetaRe, thetaIm := m.theta(config)
		var logModulus, phase float64
		for i, s := range config {
			logModulus += 0.5 * logSigmoid(2*s*thetaRe[i])
			phase += s * thetaIm[i]
		}
		amplitudes[example] = complex(logModulus, phase)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tensors.FromFlatDataAndDimensions(amplitudes, batchSize), nil
}

// LogProbability returns log |ψ(s)|² = Σ_i log p(s_i | s_<i) of each configuration of the batch, shaped [batchSize].
func (m *Linear) LogProbability(ctx context.Context, batch *tensors.Tensor) (*tensors.Tensor, error) {
	logAmplitudes, err := m.LogAmplitude(ctx, batch)
	if err != nil {
		return nil, err
	}
	values := tensors.CopyFlatData[complex128](logAmplitudes)
	logProbs := make([]float64, len(values))
	for ii, v := range values {
		logProbs[ii] = 2 * real(v)
	}
	return tensors.FromFlatDataAndDimensions(logProbs, len(logProbs)), nil
}
