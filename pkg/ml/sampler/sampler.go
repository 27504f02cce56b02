// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package sampler implements autoregressive sampling of spin configurations on 1D and 2D lattices.
//
// The sampler draws configurations site by site, in raster order, using a Model that predicts the
// conditional log-probability of each site being +1, given the current (partially sampled) batch.
//
// Example:
//
//	s := sampler.New(model, 64).WithRandom(random.NewWithSeed(42))
//	batch, err := s.NextBatch(ctx, nil) // Shape [64] + model.InputShape(), values in {-1, +1}.
package sampler

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/nqs/pkg/core/dtypes"
	"github.com/gomlx/nqs/pkg/core/shapes"
	"github.com/gomlx/nqs/pkg/core/tensors"
	"github.com/gomlx/nqs/pkg/ml/random"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

var (
	// ErrUnsupportedDimensionality is returned (wrapped) when the model's lattice is not 1D or 2D.
	ErrUnsupportedDimensionality = errors.New("only 1D and 2D lattices are supported")

	// ErrInvalidBatch is returned (wrapped) when a batch given to or returned by the model, or the
	// random thresholds, have an unexpected shape.
	ErrInvalidBatch = errors.New("invalid batch")
)

// Model predicts the conditional log-probabilities of the lattice sites.
type Model interface {
	// InputShape returns the dimensions of the lattice, without the batch axis.
	InputShape() []int

	// Predict returns the log-probability of each site being +1, given the batch of configurations.
	//
	// The batch is a Float32 tensor shaped [batchSize] + InputShape() with values in {-1, +1}, and
	// it must not be retained or modified. The result is shaped [batchSize] + InputShape() + [k],
	// k >= 1, and only the channel 0 is used by the sampler.
	//
	// The model may evaluate the batch in chunks of miniBatchSize examples.
	Predict(ctx context.Context, batch *tensors.Tensor, miniBatchSize int) (*tensors.Tensor, error)
}

// Autoregressive samples batches of configurations from a Model.
//
// It owns the batch being sampled: values are only exposed as copies (see Batch and NextBatch).
// The batch persists across calls to NextBatch: sites not yet sampled in a call hold the values
// of the previous call (or the initial random ±1 values) when the model is queried.
//
// Calls to NextBatch are serialized.
type Autoregressive struct {
	id                       uuid.UUID
	model                    Model
	batchSize, miniBatchSize int
	useProgressBar           bool
	rng                      *random.Random

	mu           sync.Mutex
	initialBatch *tensors.Tensor
	batch        *tensors.Tensor
}

// New creates an Autoregressive sampler of batchSize configurations per batch.
// Optional parameters are set with the With... methods, before the first call to NextBatch.
//
// It panics if batchSize <= 0.
func New(model Model, batchSize int) *Autoregressive {
	if batchSize <= 0 {
		exceptions.Panicf("sampler.New: batchSize must be > 0, got %d", batchSize)
	}
	return &Autoregressive{
		id:            uuid.New(),
		model:         model,
		batchSize:     batchSize,
		miniBatchSize: batchSize,
	}
}

// WithMiniBatchSize sets the mini-batch size passed to Model.Predict. It defaults to the batch size.
func (s *Autoregressive) WithMiniBatchSize(miniBatchSize int) *Autoregressive {
	if miniBatchSize <= 0 {
		miniBatchSize = s.batchSize
	}
	s.miniBatchSize = miniBatchSize
	return s
}

// WithProgressBar sets whether to display a progress bar over the sites while sampling.
// It doesn't change the sampled values.
func (s *Autoregressive) WithProgressBar(useProgressBar bool) *Autoregressive {
	s.useProgressBar = useProgressBar
	return s
}

// WithRandom sets the random number generator used for the initial batch and the thresholds.
// If not set, a clock-seeded one is created.
func (s *Autoregressive) WithRandom(rng *random.Random) *Autoregressive {
	s.rng = rng
	return s
}

// WithInitialBatch sets the initial values of the batch, seen by the model on the sites not yet
// sampled in the first call to NextBatch. It must be shaped [batchSize] + InputShape().
// It is copied. If not set, the batch starts with random ±1 values.
func (s *Autoregressive) WithInitialBatch(batch *tensors.Tensor) *Autoregressive {
	s.initialBatch = batch
	return s
}

// ID of the sampler, used in the logs.
func (s *Autoregressive) ID() string {
	return s.id.String()
}

// BatchSize returns the number of configurations sampled per batch.
func (s *Autoregressive) BatchSize() int {
	return s.batchSize
}

// String implements fmt.Stringer.
func (s *Autoregressive) String() string {
	return fmt.Sprintf("sampler.Autoregressive[%s](batch=%d, lattice=%v)", s.id, s.batchSize, s.model.InputShape())
}

// checkLattice returns the lattice shape and the shape of the batch, or an error if the lattice
// is not supported.
func (s *Autoregressive) checkLattice() (lattice, batchShape shapes.Shape, err error) {
	dims := s.model.InputShape()
	if len(dims) != 1 && len(dims) != 2 {
		err = errors.Wrapf(ErrUnsupportedDimensionality, "%s: lattice has rank %d (dimensions %v)", s, len(dims), dims)
		return
	}
	for _, dim := range dims {
		if dim <= 0 {
			err = errors.Wrapf(ErrInvalidBatch, "%s: invalid lattice dimensions %v", s, dims)
			return
		}
	}
	lattice = shapes.Make(dtypes.Float32, dims...)
	batchShape = shapes.Make(dtypes.Float32, append([]int{s.batchSize}, dims...)...)
	return
}

// SiteOrder returns the order in which the sites of the lattice are sampled: row-major (raster) order.
func (s *Autoregressive) SiteOrder() ([][]int, error) {
	lattice, _, err := s.checkLattice()
	if err != nil {
		return nil, err
	}
	order := make([][]int, 0, lattice.Size())
	for _, site := range lattice.Iter() {
		order = append(order, slices.Clone(site))
	}
	return order, nil
}

// Batch returns a copy of the current batch: the last sampled batch, or the initial one if
// NextBatch wasn't called yet.
func (s *Autoregressive) Batch() (*tensors.Tensor, error) {
	_, batchShape, err := s.checkLattice()
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.lockedInitBatch(batchShape); err != nil {
		return nil, err
	}
	return s.batch.Clone(), nil
}

// lockedInitBatch initializes s.batch, if not yet initialized.
//
// It must be called with s.mu acquired.
func (s *Autoregressive) lockedInitBatch(batchShape shapes.Shape) error {
	if s.batch != nil {
		return nil
	}
	if s.rng == nil {
		s.rng = random.New()
	}
	if s.initialBatch != nil {
		if !s.initialBatch.Shape().EqualDimensions(batchShape) {
			return errors.Wrapf(ErrInvalidBatch, "%s: initial batch shaped %s, wanted %s",
				s, s.initialBatch.Shape(), batchShape)
		}
		values, err := tensors.ToFloat64s(s.initialBatch)
		if err != nil {
			return errors.WithMessagef(err, "%s: initial batch", s)
		}
		s.batch = tensors.FromFlatDataAndDimensions(convertSpins(values), batchShape.Dimensions...)
		return nil
	}
	values := s.rng.UniformValues(batchShape.Size(), 0, 1)
	for ii, v := range values {
		values[ii] = spin(v > 0.5)
	}
	s.batch = tensors.FromFlatDataAndDimensions(convertSpins(values), batchShape.Dimensions...)
	return nil
}

func convertSpins(values []float64) []float32 {
	spins := make([]float32, len(values))
	for ii, v := range values {
		spins[ii] = float32(v)
	}
	return spins
}

// spin encodes the decision as +1 (true) or -1 (false).
func spin(up bool) float64 {
	if up {
		return 1
	}
	return -1
}

// NextBatch samples a new batch of configurations and returns it (a copy) shaped [batchSize] + InputShape().
//
// The sites are sampled in raster order (see SiteOrder). For each site the model is queried with the
// full current batch, and the site of each example is set to +1 if exp(logProb) > threshold, -1 otherwise.
//
// The thresholds are given by randomBatch, shaped [batchSize] + InputShape() (any float dtype). If nil,
// they are sampled uniformly from [0, 1).
//
// If the context is cancelled, or on any error, the batch of the sampler is left unchanged.
func (s *Autoregressive) NextBatch(ctx context.Context, randomBatch *tensors.Tensor) (*tensors.Tensor, error) {
	lattice, batchShape, err := s.checkLattice()
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	// The placeholder batch draws from s.rng before the thresholds, whether or not Batch was called first.
	if err = s.lockedInitBatch(batchShape); err != nil {
		return nil, err
	}
	thresholds, err := s.lockedThresholds(randomBatch, batchShape)
	if err != nil {
		return nil, err
	}

	// Work on a scratch copy, committed only at the end.
	scratch := tensors.CopyFlatData[float32](s.batch)
	numSites := lattice.Size()
	klog.V(1).Infof("%s: sampling %d sites", s, numSites)
	progress := newProgress(s.useProgressBar, numSites, s.id)
	defer progress.Finish()

	warnedPositive := false
	for siteIdx, site := range lattice.Iter() {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrapf(err, "%s: interrupted at site %v", s, site)
		}
		snapshot := tensors.FromFlatDataAndDimensions(slices.Clone(scratch), batchShape.Dimensions...)
		logProbs, err := s.model.Predict(ctx, snapshot, s.miniBatchSize)
		if err != nil {
			return nil, errors.WithMessagef(err, "%s: predicting site %v", s, site)
		}
		numChannels, err := s.checkLogProbs(logProbs, batchShape)
		if err != nil {
			return nil, err
		}
		lp, err := tensors.ToFloat64s(logProbs)
		if err != nil {
			return nil, errors.WithMessagef(err, "%s: log-probabilities of site %v", s, site)
		}
		numUp := 0
		for exampleIdx := range s.batchSize {
			flatIdx := exampleIdx*numSites + siteIdx
			logProb := lp[flatIdx*numChannels]
			if logProb > 0 && !warnedPositive {
				klog.Warningf("%s: model returned log-probability %g > 0 for site %v", s, logProb, site)
				warnedPositive = true
			}
			up := math.Exp(logProb) > thresholds[flatIdx]
			scratch[flatIdx] = float32(spin(up))
			if up {
				numUp++
			}
		}
		if klog.V(2).Enabled() {
			klog.Infof("%s: site %v sampled, %d of %d examples are +1", s, site, numUp, s.batchSize)
		}
		progress.Add(1)
	}

	s.batch = tensors.FromFlatDataAndDimensions(scratch, batchShape.Dimensions...)
	return s.batch.Clone(), nil
}

// lockedThresholds returns the flat thresholds for one call to NextBatch.
func (s *Autoregressive) lockedThresholds(randomBatch *tensors.Tensor, batchShape shapes.Shape) ([]float64, error) {
	if randomBatch == nil {
		if s.rng == nil {
			s.rng = random.New()
		}
		return s.rng.UniformValues(batchShape.Size(), 0, 1), nil
	}
	if !randomBatch.DType().IsFloat() || !randomBatch.Shape().EqualDimensions(batchShape) {
		return nil, errors.Wrapf(ErrInvalidBatch, "%s: random batch shaped %s, wanted a float tensor with dimensions %v",
			s, randomBatch.Shape(), batchShape.Dimensions)
	}
	return tensors.ToFloat64s(randomBatch)
}

// checkLogProbs validates the shape of the model output and returns its number of channels.
func (s *Autoregressive) checkLogProbs(logProbs *tensors.Tensor, batchShape shapes.Shape) (int, error) {
	if logProbs == nil {
		return 0, errors.Wrapf(ErrInvalidBatch, "%s: model returned nil log-probabilities", s)
	}
	shape := logProbs.Shape()
	if shape.Rank() != batchShape.Rank()+1 || !slices.Equal(shape.Dimensions[:batchShape.Rank()], batchShape.Dimensions) ||
		shape.Dim(-1) < 1 {
		return 0, errors.Wrapf(ErrInvalidBatch, "%s: model returned log-probabilities shaped %s, wanted dimensions %v + [k]",
			s, shape, batchShape.Dimensions)
	}
	return shape.Dim(-1), nil
}
