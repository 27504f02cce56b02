// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package random

import (
	"testing"

	"github.com/gomlx/nqs/pkg/core/dtypes"
	"github.com/gomlx/nqs/pkg/core/shapes"
	"github.com/gomlx/nqs/pkg/core/tensors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
)

func TestSeeds(t *testing.T) {
	r0, r1 := NewWithSeed(42), NewWithSeed(42)
	assert.Equal(t, r0.NormalValues(10, 1), r1.NormalValues(10, 1))
	assert.Equal(t, int64(42), r0.Seed())

	other := NewWithSeed(43)
	assert.NotEqual(t, r0.UniformValues(10, 0, 1), other.UniformValues(10, 0, 1))

	assert.NotEqual(t, NoSeed, New().Seed())
}

func TestSplit(t *testing.T) {
	r0, r1 := NewWithSeed(7), NewWithSeed(7)
	s0, s1 := r0.Split(), r1.Split()
	assert.Equal(t, s0.Seed(), s1.Seed(), "Split must be reproducible")
	assert.NotEqual(t, r0.NormalValues(5, 1), s0.NormalValues(5, 1))
}

func TestDistributions(t *testing.T) {
	r := NewWithSeed(1)
	normal := r.NormalValues(20_000, 2)
	assert.InDelta(t, 0, stat.Mean(normal, nil), 0.1)
	assert.InDelta(t, 2, stat.StdDev(normal, nil), 0.1)

	uniform := r.UniformValues(20_000, -3, 1)
	for _, v := range uniform {
		require.GreaterOrEqual(t, v, -3.0)
		require.Less(t, v, 1.0)
	}
	assert.InDelta(t, -1, stat.Mean(uniform, nil), 0.1)
}

func TestTensors(t *testing.T) {
	r := NewWithSeed(3)
	for _, dtype := range []dtypes.DType{dtypes.Float16, dtypes.Float32, dtypes.Float64} {
		shape := shapes.Make(dtype, 3, 4)
		values, err := r.Uniform(shape)
		require.NoError(t, err)
		assert.True(t, shape.Equal(values.Shape()))
		flat, err := tensors.ToFloat64s(values)
		require.NoError(t, err)
		for _, v := range flat {
			assert.True(t, v >= 0 && v <= 1, "uniform value %g out of range", v)
		}

		values, err = r.Normal(shape)
		require.NoError(t, err)
		assert.True(t, shape.Equal(values.Shape()))
	}

	_, err := r.Normal(shapes.Make(dtypes.Int32, 2))
	require.Error(t, err)
	_, err = r.Uniform(shapes.Make(dtypes.Complex64, 2))
	require.Error(t, err)
}
