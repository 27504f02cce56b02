// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package complexinit

import (
	"math"
	"testing"

	"github.com/gomlx/nqs/pkg/core/dtypes"
	"github.com/gomlx/nqs/pkg/core/shapes"
	"github.com/gomlx/nqs/pkg/core/tensors"
	"github.com/gomlx/nqs/pkg/ml/initializer"
	"github.com/gomlx/nqs/pkg/ml/random"
	"github.com/janpfeifer/must"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
)

func toFloats(t *testing.T, tensor *tensors.Tensor) []float64 {
	values, err := tensors.ToFloat64s(tensor)
	require.NoError(t, err)
	return values
}

func TestNegate(t *testing.T) {
	shape := shapes.Make(dtypes.Float32, 3, 2)
	rng0, rng1 := random.NewWithSeed(5), random.NewWithSeed(5)
	want := must.M1(initializer.Normal(rng0, 1)(shape))
	got := must.M1(Negate(initializer.Normal(rng1, 1))(shape))
	assert.True(t, tensors.Negate(want).Equal(got))

	failing := func(shapes.Shape) (*tensors.Tensor, error) { return nil, errors.New("boom") }
	_, err := Negate(failing)(shape)
	require.Error(t, err)
}

func TestIndependent(t *testing.T) {
	shape := shapes.Make(dtypes.Float64, 4, 4)
	rng := random.NewWithSeed(1)
	init, err := FromRealValueInitializers("ones", initializer.Config{Name: "constant", Params: map[string]float64{"value": -2}}, rng)
	require.NoError(t, err)

	re, im, err := init.Generate(shape)
	require.NoError(t, err)
	assert.Equal(t, []float64{1}, toFloats(t, re)[:1])
	assert.Equal(t, -2.0, toFloats(t, im)[15])

	// Parts can be called in any order and any number of times.
	im2 := must.M1(init.ImagPart()(shape))
	re2 := must.M1(init.RealPart()(shapes.Make(dtypes.Float32, 2)))
	assert.True(t, im.Equal(im2))
	assert.Equal(t, []float32{1, 1}, re2.Value())

	_, err = FromRealValueInitializers("ones", "no_such_initializer", rng)
	require.Error(t, err)
	assert.True(t, errors.Is(err, initializer.ErrUnknownInitializer))
}

func TestIndependentParts(t *testing.T) {
	shape := shapes.Make(dtypes.Float64, 1000)
	init := must.M1(Get("random_normal", random.NewWithSeed(11)))
	re, im := must.M2(init.Generate(shape))
	reValues, imValues := toFloats(t, re), toFloats(t, im)
	assert.NotEqual(t, reValues, imValues)
	assert.InDelta(t, 0, stat.Correlation(reValues, imValues, nil), 0.1)
}

func TestConjugate(t *testing.T) {
	shape := shapes.Make(dtypes.Float64, 5, 3)
	for _, name := range []string{PresetGlorot, PresetHe, "glorot_uniform"} {
		t.Run(name, func(t *testing.T) {
			base := must.M1(Get(name, random.NewWithSeed(3)))
			conj := Conjugate(must.M1(Get(name, random.NewWithSeed(3))))

			re, im := must.M2(base.Generate(shape))
			conjRe, conjIm := must.M2(conj.Generate(shape))
			assert.True(t, re.Equal(conjRe))
			assert.True(t, tensors.Negate(im).Equal(conjIm))

			// Through the views, real part first.
			re = must.M1(base.RealPart()(shape))
			im = must.M1(base.ImagPart()(shape))
			conjRe = must.M1(conj.RealPart()(shape))
			conjIm = must.M1(conj.ImagPart()(shape))
			assert.True(t, re.Equal(conjRe))
			assert.True(t, tensors.Negate(im).Equal(conjIm))
		})
	}
	conj := Conjugate(NewStandard(He, nil))
	assert.Equal(t, He, conj.Unwrap().(*Standard).Criterion())
}

func TestStandardGlorot(t *testing.T) {
	shape := shapes.Make(dtypes.Float64, 4, 4)
	init := NewStandard(Glorot, random.NewWithSeed(42))
	re, im, err := init.Generate(shape)
	require.NoError(t, err)
	assert.True(t, shape.Equal(re.Shape()))
	assert.True(t, shape.Equal(im.Shape()))

	modulus, phase := toFloats(t, init.Modulus()), toFloats(t, init.Phase())
	reValues, imValues := toFloats(t, re), toFloats(t, im)
	for ii := range modulus {
		require.GreaterOrEqual(t, modulus[ii], 0.0)
		require.GreaterOrEqual(t, phase[ii], -math.Pi)
		require.Less(t, phase[ii], math.Pi)
		assert.InDelta(t, modulus[ii]*modulus[ii], reValues[ii]*reValues[ii]+imValues[ii]*imValues[ii], 1e-12)
	}
}

func TestStandardScale(t *testing.T) {
	scale, err := Glorot.Scale(4, 4)
	require.NoError(t, err)
	assert.Equal(t, 1.0/8, scale)
	scale, err = He.Scale(4, 12)
	require.NoError(t, err)
	assert.Equal(t, 1.0/4, scale)

	// The Rayleigh parameter is scale², so the mean modulus is scale² * sqrt(π/2).
	const scaleGlorot = 1.0 / 8
	modulus := Rayleigh(random.NewWithSeed(1), 50_000, scaleGlorot)
	sigma := scaleGlorot * scaleGlorot
	assert.InDelta(t, sigma*math.Sqrt(math.Pi/2), stat.Mean(modulus, nil), sigma*0.02)

	init := NewStandard(He, random.NewWithSeed(2))
	_, _ = must.M2(init.Generate(shapes.Make(dtypes.Float64, 100, 100)))
	sigma = 1.0 / 100 / 100
	assert.InDelta(t, sigma*math.Sqrt(math.Pi/2), stat.Mean(toFloats(t, init.Modulus()), nil), sigma*0.05)
}

func TestStandardInvalidCriterion(t *testing.T) {
	init := NewStandard(Criterion("lecun"), random.NewWithSeed(1))
	_, _, err := init.Generate(shapes.Make(dtypes.Float32, 2, 2))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidConfiguration))
	assert.Contains(t, err.Error(), "lecun")

	_, err = init.RealPart()(shapes.Make(dtypes.Float32, 2, 2))
	assert.True(t, errors.Is(err, ErrInvalidConfiguration))

	_, _, err = NewStandard(Glorot, nil).Generate(shapes.Make(dtypes.Int32, 2, 2))
	require.Error(t, err)
}

func TestStandardViews(t *testing.T) {
	shape := shapes.Make(dtypes.Float64, 3, 5)
	init := NewStandard(Glorot, random.NewWithSeed(9))

	// Imaginary part before any real part.
	_, err := init.ImagPart()(shape)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInconsistentShape))

	re := must.M1(init.RealPart()(shape))
	modulus := toFloats(t, init.Modulus())

	// Imaginary part for a different shape.
	_, err = init.ImagPart()(shapes.Make(dtypes.Float64, 5, 3))
	assert.True(t, errors.Is(err, ErrInconsistentShape))

	im := must.M1(init.ImagPart()(shape))
	reValues, imValues := toFloats(t, re), toFloats(t, im)
	for ii := range modulus {
		assert.InDelta(t, modulus[ii]*modulus[ii], reValues[ii]*reValues[ii]+imValues[ii]*imValues[ii], 1e-12)
	}

	// The pending imaginary part is consumed.
	_, err = init.ImagPart()(shape)
	assert.True(t, errors.Is(err, ErrInconsistentShape))
}

func TestGet(t *testing.T) {
	rng := random.NewWithSeed(1)

	t.Run("Presets", func(t *testing.T) {
		init := must.M1(Get("complex_glorot", rng))
		require.IsType(t, &Standard{}, init)
		assert.Equal(t, Glorot, init.(*Standard).Criterion())

		init = must.M1(Get(PresetHe, rng))
		require.IsType(t, &Standard{}, init)
		assert.Equal(t, He, init.(*Standard).Criterion())
	})

	t.Run("Idempotent", func(t *testing.T) {
		for _, id := range []any{"complex_he", "zeros", Pair{"ones", "zeros"}} {
			first := must.M1(Get(id, rng))
			second := must.M1(Get(first, rng))
			assert.Same(t, first, second)
		}
		conj := Conjugate(NewStandard(Glorot, rng))
		assert.Same(t, conj, must.M1(Get(conj, rng)))
	})

	t.Run("Pairs", func(t *testing.T) {
		shape := shapes.Make(dtypes.Float32, 2)
		for _, id := range []any{Pair{Real: "ones", Imag: "zeros"}, &Pair{Real: "ones", Imag: "zeros"},
			[2]initializer.Spec{"ones", "zeros"}} {
			init := must.M1(Get(id, rng))
			require.IsType(t, &Independent{}, init)
			re, im := must.M2(init.Generate(shape))
			assert.Equal(t, []float32{1, 1}, re.Value())
			assert.Equal(t, []float32{0, 0}, im.Value())
		}
	})

	t.Run("SingleSpec", func(t *testing.T) {
		shape := shapes.Make(dtypes.Float32, 2)
		for _, id := range []any{"ones", initializer.One, initializer.Config{Name: "ones"}} {
			init := must.M1(Get(id, rng))
			require.IsType(t, &Independent{}, init)
			re, im := must.M2(init.Generate(shape))
			assert.Equal(t, []float32{1, 1}, re.Value())
			assert.Equal(t, []float32{1, 1}, im.Value())
		}
	})

	t.Run("Errors", func(t *testing.T) {
		// Preset-like names that are not presets fall through to the scalar resolver.
		init, err := Get("complex_lecun", rng)
		require.Error(t, err)
		require.Nil(t, init)
		assert.True(t, errors.Is(err, initializer.ErrUnknownInitializer))

		init, err = Get("no_such_initializer", rng)
		require.Error(t, err)
		require.Nil(t, init)
		init, err = Get(Pair{Real: "ones", Imag: "nope"}, rng)
		require.Error(t, err)
		require.Nil(t, init)
		init, err = Get([2]initializer.Spec{"nope", "zeros"}, rng)
		require.Error(t, err)
		require.Nil(t, init)

		_, err = Get(nil, rng)
		require.Error(t, err)
		_, err = Get((*Pair)(nil), rng)
		require.Error(t, err)
	})
}

func TestGenerateComplex(t *testing.T) {
	init := NewStandard(Glorot, random.NewWithSeed(4))
	c, err := GenerateComplex(init, shapes.Make(dtypes.Complex128, 3, 2))
	require.NoError(t, err)
	assert.Equal(t, dtypes.Complex128, c.DType())
	values := c.Value().([]complex128)
	modulus := toFloats(t, init.Modulus())
	for ii, v := range values {
		assert.InDelta(t, modulus[ii], math.Hypot(real(v), imag(v)), 1e-12)
	}

	c, err = GenerateComplex(init, shapes.Make(dtypes.Float32, 4))
	require.NoError(t, err)
	assert.Equal(t, dtypes.Complex64, c.DType())

	c, err = GenerateComplex(init, shapes.Make(dtypes.Float16, 4))
	require.NoError(t, err)
	assert.Equal(t, dtypes.Complex64, c.DType())

	_, err = GenerateComplex(init, shapes.Make(dtypes.Int32, 4))
	require.Error(t, err)
}
