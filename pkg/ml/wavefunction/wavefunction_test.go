// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package wavefunction

import (
	"context"
	"math"
	"testing"

	"github.com/gomlx/nqs/pkg/core/tensors"
	"github.com/gomlx/nqs/pkg/ml/initializer"
	"github.com/gomlx/nqs/pkg/ml/random"
	"github.com/gomlx/nqs/pkg/ml/sampler"
	"github.com/janpfeifer/must"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

// allConfigurations returns all 2^numSites configurations, as a Float32 batch with the given lattice dimensions.
func allConfigurations(dims ...int) *tensors.Tensor {
	numSites := 1
	for _, dim := range dims {
		numSites *= dim
	}
	numConfigs := 1 << numSites
	values := make([]float32, 0, numConfigs*numSites)
	for config := range numConfigs {
		for site := range numSites {
			if config&(1<<site) != 0 {
				values = append(values, 1)
			} else {
				values = append(values, -1)
			}
		}
	}
	return tensors.FromFlatDataAndDimensions(values, append([]int{numConfigs}, dims...)...)
}

// newTestModel uses random biases, so the conditional probabilities are not trivially 0.5.
func testModelBuilder(seed int64, dims ...int) *Builder {
	return New(dims...).
		WithInitializer("random_normal").
		WithBiasInitializer(initializer.Config{Name: "random_normal", Params: map[string]float64{"stddev": 0.5}}).
		WithRandom(random.NewWithSeed(seed))
}

func newTestModel(t *testing.T, seed int64, dims ...int) *Linear {
	m, err := testModelBuilder(seed, dims...).Done()
	require.NoError(t, err)
	return m
}

func TestNew(t *testing.T) {
	m, err := New(2, 3).WithRandom(random.NewWithSeed(1)).Done()
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, m.InputShape())
	assert.Equal(t, 6, m.NumSites())

	re, im := m.Weights()
	assert.Equal(t, []int{6, 6}, re.Shape().Dimensions)
	reValues, imValues := must.M1(tensors.ToFloat64s(re)), must.M1(tensors.ToFloat64s(im))
	var nonZero int
	for i := range 6 {
		for j := range 6 {
			if j >= i {
				require.Zerof(t, reValues[i*6+j], "W[%d, %d]", i, j)
				require.Zerof(t, imValues[i*6+j], "W[%d, %d]", i, j)
			} else if reValues[i*6+j] != 0 {
				nonZero++
			}
		}
	}
	assert.Equal(t, 15, nonZero)
	biasRe, _ := m.Biases()
	assert.Equal(t, make([]float64, 6), biasRe.Value())

	// Same seed, same parameters.
	m2 := must.M1(New(2, 3).WithRandom(random.NewWithSeed(1)).Done())
	re2, _ := m2.Weights()
	assert.True(t, re.Equal(re2))

	_, err = New(2, 2, 2).Done()
	require.Error(t, err)
	_, err = New(0).Done()
	require.Error(t, err)
	_, err = New(3).WithInitializer("complex_lecun").Done()
	require.Error(t, err)
	assert.True(t, errors.Is(err, initializer.ErrUnknownInitializer))
}

func TestPredict(t *testing.T) {
	ctx := context.Background()
	m := newTestModel(t, 3, 2, 2)
	batch := allConfigurations(2, 2)
	logProbs := must.M1(m.Predict(ctx, batch, 3))
	assert.Equal(t, []int{16, 2, 2, 2}, logProbs.Shape().Dimensions)
	lp := must.M1(tensors.ToFloat64s(logProbs))

	const numSites = 4
	for config := range 16 {
		for site := range numSites {
			idx := (config*numSites + site) * 2
			assert.InDelta(t, 1.0, math.Exp(lp[idx])+math.Exp(lp[idx+1]), 1e-6)
			// Conditional probabilities only depend on the previous sites: flipping the
			// current or later sites doesn't change them.
			prefix := config & (1<<site - 1)
			prefixIdx := (prefix*numSites + site) * 2
			assert.Equal(t, lp[prefixIdx], lp[idx])
		}
	}

	// Results don't depend on the parallelism or mini-batch size.
	for _, parallelism := range []int{0, 1, -1} {
		other, err := testModelBuilder(3, 2, 2).WithParallelism(parallelism).Done()
		require.NoError(t, err)
		assert.Equal(t, parallelism, other.Parallelism())
		assert.True(t, logProbs.Equal(must.M1(other.Predict(ctx, batch, 16))))
	}

	_, err := m.Predict(ctx, allConfigurations(4), 1)
	require.Error(t, err)
}

func TestLogProbabilityNormalized(t *testing.T) {
	ctx := context.Background()
	for _, dims := range [][]int{{5}, {2, 3}} {
		m := newTestModel(t, 5, dims...)
		logProbs := must.M1(tensors.ToFloat64s(must.M1(m.LogProbability(ctx, allConfigurations(dims...)))))
		probs := make([]float64, len(logProbs))
		for ii, lp := range logProbs {
			probs[ii] = math.Exp(lp)
		}
		assert.InDeltaf(t, 1.0, floats.Sum(probs), 1e-9, "lattice %v", dims)
	}
}

func TestLogAmplitude(t *testing.T) {
	m := newTestModel(t, 9, 3)
	batch := tensors.FromFlatDataAndDimensions([]float32{1, -1, 1, -1, -1, -1}, 2, 3)
	amplitudes := must.M1(m.LogAmplitude(context.Background(), batch)).Value().([]complex128)
	require.Len(t, amplitudes, 2)

	re, im := m.Weights()
	wRe, wIm := must.M1(tensors.ToFloat64s(re)), must.M1(tensors.ToFloat64s(im))
	bRe, bIm := m.Biases()
	biasRe, biasIm := must.M1(tensors.ToFloat64s(bRe)), must.M1(tensors.ToFloat64s(bIm))
	spins := []float64{1, -1, 1}
	var wantLogModulus, wantPhase float64
	for i := range 3 {
		thetaRe, thetaIm := biasRe[i], biasIm[i]
		for j := range i {
			thetaRe += wRe[i*3+j] * spins[j]
			thetaIm += wIm[i*3+j] * spins[j]
		}
		pUp := 1 / (1 + math.Exp(-2*thetaRe))
		if spins[i] > 0 {
			wantLogModulus += 0.5 * math.Log(pUp)
		} else {
			wantLogModulus += 0.5 * math.Log(1-pUp)
		}
		wantPhase += spins[i] * thetaIm
	}
	assert.InDelta(t, wantLogModulus, real(amplitudes[0]), 1e-9)
	assert.InDelta(t, wantPhase, imag(amplitudes[0]), 1e-9)
}

func TestSampling(t *testing.T) {
	ctx := context.Background()
	m := newTestModel(t, 13, 3)
	const batchSize = 20_000
	s := sampler.New(m, batchSize).WithRandom(random.NewWithSeed(17)).WithMiniBatchSize(4096)
	batch := must.M1(s.NextBatch(ctx, nil))
	values := tensors.CopyFlatData[float32](batch)

	// Empirical frequencies of each configuration against the model's probabilities.
	counts := make([]float64, 8)
	for example := range batchSize {
		config := 0
		for site := range 3 {
			if values[example*3+site] > 0 {
				config |= 1 << site
			}
		}
		counts[config]++
	}
	floats.Scale(1.0/batchSize, counts)
	logProbs := must.M1(tensors.ToFloat64s(must.M1(m.LogProbability(ctx, allConfigurations(3)))))
	for config, lp := range logProbs {
		assert.InDeltaf(t, math.Exp(lp), counts[config], 0.015, "configuration %03b", config)
	}
}
